package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

// Default SSH configuration values.
const (
	DefaultPort    = 22
	DefaultTimeout = 45 * time.Second
)

// Config configures key-based SSH access for one operating user.
type Config struct {
	User    string
	Port    int
	Timeout time.Duration

	// KeyFiles are private keys offered in order. Missing files are skipped.
	KeyFiles []string
	// AgentSocket, when set, offers the keys held by the ssh-agent as well.
	AgentSocket string

	KnownHostsFile string
	// TrustUnknownHosts accepts hosts absent from KnownHostsFile. A host
	// whose key differs from a known_hosts entry is still rejected.
	TrustUnknownHosts bool
}

var errNoKey = errors.New("no usable ssh key found")

// SSHDialer opens sessions with golang.org/x/crypto/ssh.
type SSHDialer struct {
	config    Config
	client    *ssh.ClientConfig
	agentConn net.Conn
	// authErr is set when no key or agent is available. Every Dial then
	// fails with ErrAuth once the host is reached.
	authErr error
}

// NewSSHDialer loads the configured keys and host key policy. Unreadable or
// corrupt key files are errors. Having no key at all is not: the dialer is
// still returned and AuthError reports why every host will refuse it.
func NewSSHDialer(cfg Config) (*SSHDialer, error) {
	if cfg.User == "" {
		return nil, errors.New("ssh user is required")
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	hostKeys, err := HostKeyCallback(cfg.KnownHostsFile, cfg.TrustUnknownHosts)
	if err != nil {
		return nil, err
	}

	d := &SSHDialer{config: cfg}

	auth, err := d.authMethods()
	switch {
	case errors.Is(err, errNoKey):
		d.authErr = err
	case err != nil:
		d.Close()
		return nil, err
	}

	d.client = &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            auth,
		HostKeyCallback: hostKeys,
		Timeout:         cfg.Timeout,
	}

	return d, nil
}

// AuthError returns the reason no key can be offered, or nil.
func (d *SSHDialer) AuthError() error {
	return d.authErr
}

func (d *SSHDialer) authMethods() ([]ssh.AuthMethod, error) {
	var signers []ssh.Signer
	for _, path := range d.config.KeyFiles {
		pemBytes, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("read key %s: %w", path, err)
		}
		signer, err := ssh.ParsePrivateKey(pemBytes)
		if err != nil {
			// Passphrase protected keys are served by the agent instead.
			var missing *ssh.PassphraseMissingError
			if errors.As(err, &missing) {
				continue
			}
			return nil, fmt.Errorf("parse key %s: %w", path, err)
		}
		signers = append(signers, signer)
	}

	var methods []ssh.AuthMethod
	if len(signers) > 0 {
		methods = append(methods, ssh.PublicKeys(signers...))
	}

	if d.config.AgentSocket != "" {
		conn, err := net.Dial("unix", d.config.AgentSocket)
		if err == nil {
			d.agentConn = conn
			methods = append(methods, ssh.PublicKeysCallback(agent.NewClient(conn).Signers))
		} else if len(signers) == 0 {
			return nil, fmt.Errorf("%w: connect to ssh agent: %v", errNoKey, err)
		}
	}

	if len(methods) == 0 {
		return nil, errNoKey
	}

	return methods, nil
}

// Dial connects and authenticates to address within the configured timeout.
func (d *SSHDialer) Dial(ctx context.Context, address string) (Session, error) {
	addr := net.JoinHostPort(address, strconv.Itoa(d.config.Port))

	dialer := &net.Dialer{Timeout: d.config.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, classify(address, err)
	}

	if d.authErr != nil {
		conn.Close()
		return nil, fmt.Errorf("%s: %w: %v", address, ErrAuth, d.authErr)
	}

	// The deadline bounds both the handshake and authentication.
	if err := conn.SetDeadline(time.Now().Add(d.config.Timeout)); err != nil {
		conn.Close()
		return nil, classify(address, err)
	}

	clientConn, chans, reqs, err := ssh.NewClientConn(conn, addr, d.client)
	if err != nil {
		conn.Close()
		return nil, classify(address, err)
	}

	if err := conn.SetDeadline(time.Time{}); err != nil {
		clientConn.Close()
		return nil, classify(address, err)
	}

	return &sshSession{address: address, client: ssh.NewClient(clientConn, chans, reqs)}, nil
}

// Close releases the agent connection, if any.
func (d *SSHDialer) Close() error {
	if d.agentConn == nil {
		return nil
	}
	return d.agentConn.Close()
}

type sshSession struct {
	address string
	client  *ssh.Client
}

// Run executes command and waits for it. A non-zero exit status is reported
// in Output, not as an error.
func (s *sshSession) Run(ctx context.Context, command string) (Output, error) {
	session, err := s.client.NewSession()
	if err != nil {
		return Output{}, fmt.Errorf("%s: %w: %v", s.address, ErrExec, err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	done := make(chan error, 1)
	go func() {
		done <- session.Run(command)
	}()

	select {
	case <-ctx.Done():
		_ = session.Close()
		return Output{}, fmt.Errorf("%s: %w: %v", s.address, ErrExec, ctx.Err())
	case err = <-done:
	}

	out := Output{Stdout: stdout.String(), Stderr: stderr.String()}

	var exitErr *ssh.ExitError
	if errors.As(err, &exitErr) {
		out.ExitStatus = exitErr.ExitStatus()
		return out, nil
	}
	if err != nil {
		return out, fmt.Errorf("%s: %w: %v", s.address, ErrExec, err)
	}

	return out, nil
}

func (s *sshSession) Close() error {
	return s.client.Close()
}

// HostKeyCallback builds the host key policy. Without a known_hosts file,
// every host is accepted only when trustUnknown is set.
func HostKeyCallback(knownHostsFile string, trustUnknown bool) (ssh.HostKeyCallback, error) {
	if knownHostsFile == "" {
		if trustUnknown {
			return ssh.InsecureIgnoreHostKey(), nil
		}
		return nil, errors.New("known hosts file is required when unknown hosts are not trusted")
	}

	if _, err := os.Stat(knownHostsFile); os.IsNotExist(err) && trustUnknown {
		return ssh.InsecureIgnoreHostKey(), nil
	}

	known, err := knownhosts.New(knownHostsFile)
	if err != nil {
		return nil, fmt.Errorf("load known hosts: %w", err)
	}

	if !trustUnknown {
		return known, nil
	}

	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		err := known(hostname, remote, key)

		var keyErr *knownhosts.KeyError
		if errors.As(err, &keyErr) && len(keyErr.Want) == 0 {
			return nil
		}
		return err
	}, nil
}
