package probe

import (
	"context"
	"log/slog"
	"net"
	"strconv"
	"time"
)

const (
	DefaultSSHPort     = 22
	DefaultScanTimeout = 5 * time.Second
)

// PortScanner checks that TCP ports accept connections.
type PortScanner struct {
	sshPort   int
	timeout   time.Duration
	aggregate Aggregate
	logger    *slog.Logger
}

func NewPortScanner(sshPort int, timeout time.Duration, aggregate Aggregate, logger *slog.Logger) *PortScanner {
	if sshPort == 0 {
		sshPort = DefaultSSHPort
	}
	if timeout <= 0 {
		timeout = DefaultScanTimeout
	}
	if aggregate == "" {
		aggregate = AggregateLast
	}
	return &PortScanner{
		sshPort:   sshPort,
		timeout:   timeout,
		aggregate: aggregate,
		logger:    logger,
	}
}

// Check scans the SSH port, then the service port. With AggregateLast the
// result is the outcome of the service port alone.
func (p *PortScanner) Check(ctx context.Context, host string, servicePort int) bool {
	return p.CheckPorts(ctx, host, []int{p.sshPort, servicePort})
}

// CheckPorts connects to each port in order and folds the outcomes.
func (p *PortScanner) CheckPorts(ctx context.Context, host string, ports []int) bool {
	log := probeLogger(ctx, p.logger, host, NamePorts)

	outcomes := make([]bool, 0, len(ports))
	for _, port := range ports {
		err := p.dial(ctx, host, port)
		if err != nil {
			log.Error("Scanning port failed",
				slog.String("outcome", outcome(false)),
				slog.Int("port", port),
				slog.Any("err", err))
		} else {
			log.Info("Scanning port succeeded",
				slog.String("outcome", outcome(true)),
				slog.Int("port", port))
		}
		outcomes = append(outcomes, err == nil)
	}

	ok := p.aggregate.Fold(outcomes)
	log.Info("Port scan finished",
		slog.String("outcome", outcome(ok)),
		slog.String("aggregate", string(p.aggregate)))
	return ok
}

func (p *PortScanner) dial(ctx context.Context, host string, port int) error {
	dialer := &net.Dialer{Timeout: p.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return err
	}
	return conn.Close()
}
