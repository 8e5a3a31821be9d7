package remote

import (
	"context"
	"log/slog"

	"github.com/angeloszaimis/fleet-monitor/internal/retry"
	"github.com/angeloszaimis/fleet-monitor/pkg/logger"
)

// Channel opens a fresh session for each remote operation.
type Channel struct {
	dialer Dialer
	policy retry.Policy
	logger *slog.Logger
}

func NewChannel(dialer Dialer, policy retry.Policy, logger *slog.Logger) *Channel {
	return &Channel{
		dialer: dialer,
		policy: policy,
		logger: logger,
	}
}

// Connect opens one authenticated session. The caller must close it.
func (c *Channel) Connect(ctx context.Context, address string) (Session, error) {
	return c.dialer.Dial(ctx, address)
}

// CheckShellReachable connects once per configured attempt and closes each
// session right away. Only the final attempt decides the outcome. Attempts
// are logged through the logger carried by ctx when there is one.
func (c *Channel) CheckShellReachable(ctx context.Context, address string) bool {
	attempts := c.policy.Attempts()
	log := logger.FromContext(ctx, c.logger)

	err := c.policy.Exhaust(ctx, func(ctx context.Context, attempt int) error {
		session, err := c.Connect(ctx, address)
		if err != nil {
			log.Warn("SSH connection attempt failed",
				slog.String("address", address),
				slog.String("outcome", "fail"),
				slog.Int("attempt", attempt),
				slog.Int("attempts", attempts),
				slog.Any("err", err))
			return err
		}
		defer session.Close()

		log.Debug("SSH connection attempt passed",
			slog.String("address", address),
			slog.String("outcome", "pass"),
			slog.Int("attempt", attempt),
			slog.Int("attempts", attempts))
		return nil
	})

	if err != nil {
		log.Error("Shell not reachable after final attempt",
			slog.String("address", address),
			slog.String("outcome", "fail"),
			slog.Any("err", err))
		return false
	}
	return true
}

// RunRemoteCommand runs command in a new session and returns its output.
// Transport, authentication and execution failures are returned to the caller.
func (c *Channel) RunRemoteCommand(ctx context.Context, address, command string) (Output, error) {
	session, err := c.Connect(ctx, address)
	if err != nil {
		return Output{}, err
	}
	defer session.Close()

	return session.Run(ctx, command)
}
