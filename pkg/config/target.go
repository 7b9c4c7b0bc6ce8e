package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// DefaultTarget is the host used when a run names no target. Tests in such
// a run must use fully qualified URLs.
const DefaultTarget = "stub"

// Target locates the system under test for relative test URLs.
type Target struct {
	Host   string
	Port   string
	Prefix string
	// SSL is set when the target was an https URL.
	SSL bool
}

// ParseTarget interprets target as either a URL, whose path becomes the
// prefix, or host[:port] with an optional separate prefix. IPv6 hosts are
// written in brackets in either form and returned without them.
func ParseTarget(target, prefix string) (Target, error) {
	if target == "" {
		target = DefaultTarget
	}

	if strings.Contains(target, "://") {
		u, err := url.Parse(target)
		if err != nil {
			return Target{}, fmt.Errorf("invalid target %q: %w", target, err)
		}
		if u.Hostname() == "" {
			return Target{}, fmt.Errorf("invalid target %q: no host", target)
		}
		return Target{
			Host:   u.Hostname(),
			Port:   u.Port(),
			Prefix: u.Path,
			SSL:    u.Scheme == "https",
		}, nil
	}

	t := Target{Host: target, Prefix: prefix}
	switch {
	case strings.HasPrefix(target, "["):
		if host, port, err := net.SplitHostPort(target); err == nil {
			t.Host, t.Port = host, port
		} else {
			t.Host = strings.Trim(target, "[]")
		}
	case strings.Count(target, ":") == 1:
		host, port, _ := strings.Cut(target, ":")
		t.Host, t.Port = host, port
	}
	return t, nil
}
