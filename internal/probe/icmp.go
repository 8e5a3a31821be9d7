package probe

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
)

// DefaultEchoCount is the number of echo requests sent per check.
const DefaultEchoCount = 7

// ICMP checks reachability with the system ping utility.
type ICMP struct {
	runner  CommandRunner
	command string
	count   int
	logger  *slog.Logger
}

func NewICMP(runner CommandRunner, command string, count int, logger *slog.Logger) *ICMP {
	if command == "" {
		command = "ping"
	}
	if count < 1 {
		count = DefaultEchoCount
	}
	return &ICMP{
		runner:  runner,
		command: command,
		count:   count,
		logger:  logger,
	}
}

// Check passes when ping exits cleanly. Resolution or permission failures
// count as unreachable.
func (p *ICMP) Check(ctx context.Context, host string) bool {
	log := probeLogger(ctx, p.logger, host, NameICMP)

	if host == "" || strings.HasPrefix(host, "-") {
		log.Error("Refusing to ping invalid host", slog.String("outcome", outcome(false)))
		return false
	}

	out, err := p.runner.Run(ctx, p.command, "-c", strconv.Itoa(p.count), host)
	if err != nil {
		log.Error("ICMP response not received",
			slog.String("outcome", outcome(false)),
			slog.Any("err", err),
			slog.String("output", lastLine(out)))
		return false
	}

	log.Info("ICMP response received",
		slog.String("outcome", outcome(true)),
		slog.String("output", lastLine(out)))
	return true
}

// lastLine returns the final non-empty line, which for ping is the rtt summary.
func lastLine(out []byte) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
