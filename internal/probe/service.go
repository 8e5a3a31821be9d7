package probe

import (
	"context"
	"log/slog"
	"strings"

	"github.com/angeloszaimis/fleet-monitor/internal/remote"
	"github.com/angeloszaimis/fleet-monitor/pkg/logger"
)

// DefaultServiceCommand prints the PID of the Jenkins war process.
const DefaultServiceCommand = `ps -eaf | grep -i "jenkins.war" | grep -v grep | cut -d" " -f3`

// Shell is the remote execution channel the service probe drives.
type Shell interface {
	CheckShellReachable(ctx context.Context, address string) bool
	RunRemoteCommand(ctx context.Context, address, command string) (remote.Output, error)
}

// Service checks that the service process is present on the host.
type Service struct {
	shell      Shell
	command    string
	requirePID bool
	logger     *slog.Logger
}

// NewService creates the probe. With requirePID unset any successful remote
// execution counts as a running service, whatever the command printed.
func NewService(shell Shell, command string, requirePID bool, logger *slog.Logger) *Service {
	if command == "" {
		command = DefaultServiceCommand
	}
	return &Service{
		shell:      shell,
		command:    command,
		requirePID: requirePID,
		logger:     logger,
	}
}

// Check runs the process table command, but only once the shell is reachable.
func (p *Service) Check(ctx context.Context, address string) bool {
	log := probeLogger(ctx, p.logger, address, NameService)
	ctx = logger.NewContext(ctx, log)
	log = log.With(slog.String("address", address))

	if !p.shell.CheckShellReachable(ctx, address) {
		log.Error("Shell not reachable, skipping service check", slog.String("outcome", outcome(false)))
		return false
	}

	out, err := p.shell.RunRemoteCommand(ctx, address, p.command)
	if err != nil {
		log.Error("Service check could not be completed",
			slog.String("outcome", outcome(false)),
			slog.Any("err", err),
			slog.String("stderr", strings.TrimSpace(out.Stderr)))
		return false
	}

	pid := strings.TrimSpace(out.Stdout)
	if p.requirePID && pid == "" {
		log.Error("Service process not found", slog.String("outcome", outcome(false)))
		return false
	}

	log.Info("Service process inspected",
		slog.String("outcome", outcome(true)),
		slog.String("pid", pid),
		slog.Int("exit_status", out.ExitStatus))
	return true
}
