package remote

import "context"

// Output is what a remote command wrote, with its exit status.
type Output struct {
	Stdout     string
	Stderr     string
	ExitStatus int
}

// Session is one authenticated connection to a host.
type Session interface {
	Run(ctx context.Context, command string) (Output, error)
	Close() error
}

// Dialer opens authenticated sessions.
type Dialer interface {
	Dial(ctx context.Context, address string) (Session, error)
}
