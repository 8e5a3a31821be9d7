package fleet

import (
	"net"
	"net/url"
	"strconv"
	"strings"
)

// Target is one monitored server instance. It is immutable once created.
type Target struct {
	host   string
	url    *url.URL
	port   int
	active bool
}

// New creates a Target for the given host, base URL and service port.
func New(host string, u *url.URL, port int, active bool) *Target {
	return &Target{
		host:   host,
		url:    u,
		port:   port,
		active: active,
	}
}

// Host returns the hostname or IP the target is identified by.
func (t *Target) Host() string {
	return t.host
}

// URL returns the base URL (scheme and domain) of the service.
func (t *Target) URL() *url.URL {
	return t.url
}

// Port returns the service port, used both for HTTP and the port scan.
func (t *Target) Port() int {
	return t.port
}

// Active reports whether the target participates in the sweep.
func (t *Target) Active() bool {
	return t.active
}

// Endpoint returns the service URL with the declared port applied,
// e.g. https://ci.example.com:8443.
func (t *Target) Endpoint() string {
	if t.url == nil {
		return ""
	}
	u := *t.url
	u.Host = net.JoinHostPort(u.Hostname(), strconv.Itoa(t.port))
	return u.String()
}

// Domain returns the URL hostname without its first label, so
// ci.example.com yields example.com.
func (t *Target) Domain() string {
	if t.url == nil {
		return ""
	}
	name := t.url.Hostname()
	if net.ParseIP(name) != nil {
		return ""
	}
	if i := strings.Index(name, "."); i >= 0 {
		return name[i+1:]
	}
	return ""
}

// SSHAddress returns the name used to open a remote shell. Short hostnames
// are qualified with the domain of the service URL.
func (t *Target) SSHAddress() string {
	if net.ParseIP(t.host) != nil || strings.Contains(t.host, ".") {
		return t.host
	}
	if domain := t.Domain(); domain != "" {
		return t.host + "." + domain
	}
	return t.host
}
