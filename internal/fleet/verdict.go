package fleet

// Verdict is the final health classification of one host for a sweep.
type Verdict string

const (
	VerdictAllOkay             Verdict = "ALL_OKAY"
	VerdictInvestigationNeeded Verdict = "INVESTIGATION_NEEDED"
)

// InitialVerdict is the outcome of the network-level phase.
type InitialVerdict string

const (
	InitialFine InitialVerdict = "FINE"
	InitialFire InitialVerdict = "FIRE"
)

// ExtendedVerdict is the outcome of the application-level phase.
type ExtendedVerdict string

const (
	ExtendedOK    ExtendedVerdict = "OK"
	ExtendedNotOK ExtendedVerdict = "NOTOK"
)

// InitialFrom maps the AND of the initial phase probes to a verdict.
func InitialFrom(passed bool) InitialVerdict {
	if passed {
		return InitialFine
	}
	return InitialFire
}

// ExtendedFrom maps the AND of the extended phase probes to a verdict.
func ExtendedFrom(passed bool) ExtendedVerdict {
	if passed {
		return ExtendedOK
	}
	return ExtendedNotOK
}

// Combine derives the host verdict from both phase verdicts.
func Combine(initial InitialVerdict, extended ExtendedVerdict) Verdict {
	if initial == InitialFine && extended == ExtendedOK {
		return VerdictAllOkay
	}
	return VerdictInvestigationNeeded
}
