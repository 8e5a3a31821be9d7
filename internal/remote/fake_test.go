package remote_test

import (
	"context"
	"sync"

	"github.com/angeloszaimis/fleet-monitor/internal/remote"
)

// scriptedDialer fails or succeeds per attempt according to outcomes.
type scriptedDialer struct {
	mutex    sync.Mutex
	outcomes []error
	dials    int
	sessions []*fakeSession
	output   remote.Output
	runErr   error
}

func (d *scriptedDialer) Dial(_ context.Context, _ string) (remote.Session, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	idx := d.dials
	d.dials++
	if idx < len(d.outcomes) && d.outcomes[idx] != nil {
		return nil, d.outcomes[idx]
	}

	s := &fakeSession{output: d.output, runErr: d.runErr}
	d.sessions = append(d.sessions, s)
	return s, nil
}

type fakeSession struct {
	output   remote.Output
	runErr   error
	commands []string
	closed   bool
}

func (s *fakeSession) Run(_ context.Context, command string) (remote.Output, error) {
	s.commands = append(s.commands, command)
	return s.output, s.runErr
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}
