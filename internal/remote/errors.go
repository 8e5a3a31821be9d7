package remote

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"golang.org/x/crypto/ssh/knownhosts"
)

var (
	// ErrUnreachable covers socket and name resolution failures.
	ErrUnreachable = errors.New("host unreachable")
	// ErrHostKey is returned when the host key does not match known_hosts.
	ErrHostKey = errors.New("host key rejected")
	// ErrAuth is returned when no offered key was accepted.
	ErrAuth = errors.New("authentication failed")
	// ErrHandshake covers any other SSH protocol failure.
	ErrHandshake = errors.New("ssh protocol error")
	// ErrExec is returned when a session could not run the command.
	ErrExec = errors.New("remote execution failed")
)

// classify wraps err with the sentinel matching its failure class.
func classify(address string, err error) error {
	if err == nil {
		return nil
	}

	var keyErr *knownhosts.KeyError
	var dnsErr *net.DNSError
	var opErr *net.OpError

	switch {
	case errors.As(err, &keyErr), errors.Is(err, ErrHostKey):
		return fmt.Errorf("%s: %w: %v", address, ErrHostKey, err)
	case errors.As(err, &dnsErr), errors.As(err, &opErr):
		return fmt.Errorf("%s: %w: %v", address, ErrUnreachable, err)
	case strings.Contains(err.Error(), "unable to authenticate"):
		return fmt.Errorf("%s: %w: %v", address, ErrAuth, err)
	default:
		return fmt.Errorf("%s: %w: %v", address, ErrHandshake, err)
	}
}
