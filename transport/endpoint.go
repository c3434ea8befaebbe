// File: transport/endpoint.go
// Package transport implements endpoint parsing and raw stream sockets.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Recognized endpoint URLs:
//
//	unix:///<path>[:<suffix>]
//	tcp://<dotted-ipv4>:<port>[:<suffix>]
//	tcp://[<ipv6>]:<port>[:<suffix>]
//
// The optional suffix is application routing data and is ignored here.

package transport

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"

	"github.com/momentics/hioload-rpc/api"
)

// Family selects the socket address family of an endpoint.
type Family int

const (
	FamilyUnix Family = iota
	FamilyInet4
	FamilyInet6
)

// Endpoint is a parsed, bindable address. Immutable after parse.
type Endpoint struct {
	Family Family
	Path   string     // UNIX socket path, FamilyUnix only
	Addr   netip.Addr // FamilyInet4 / FamilyInet6 only
	Port   uint16
}

// ParseURL converts an endpoint URL into an Endpoint.
func ParseURL(url string) (*Endpoint, error) {
	switch {
	case strings.HasPrefix(url, "unix://"):
		return parseUnix(url[len("unix://"):])
	case strings.HasPrefix(url, "tcp://"):
		return parseTCP(url[len("tcp://"):])
	default:
		return nil, fmt.Errorf("%w: %q", api.ErrInvalidURL, url)
	}
}

func parseUnix(rest string) (*Endpoint, error) {
	path := rest
	if i := strings.IndexByte(rest, ':'); i >= 0 {
		path = rest[:i]
	}
	if path == "" {
		return nil, fmt.Errorf("%w: empty unix path", api.ErrInvalidAddress)
	}
	return &Endpoint{Family: FamilyUnix, Path: path}, nil
}

func parseTCP(rest string) (*Endpoint, error) {
	var host, tail string
	family := FamilyInet4

	if strings.HasPrefix(rest, "[") {
		end := strings.IndexByte(rest, ']')
		if end < 0 || end+1 >= len(rest) || rest[end+1] != ':' {
			return nil, fmt.Errorf("%w: %q", api.ErrInvalidURL, "tcp://"+rest)
		}
		host = rest[1:end]
		tail = rest[end+2:]
		family = FamilyInet6
	} else {
		i := strings.IndexByte(rest, ':')
		if i < 0 {
			return nil, fmt.Errorf("%w: %q", api.ErrInvalidURL, "tcp://"+rest)
		}
		host = rest[:i]
		tail = rest[i+1:]
	}

	// The port runs up to the optional suffix separator.
	if i := strings.IndexByte(tail, ':'); i >= 0 {
		tail = tail[:i]
	}
	port, err := strconv.ParseUint(tail, 10, 16)
	if err != nil {
		return nil, fmt.Errorf("%w: bad port %q", api.ErrInvalidURL, tail)
	}

	addr, err := netip.ParseAddr(host)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", api.ErrInvalidAddress, host)
	}
	if family == FamilyInet4 && !addr.Is4() {
		return nil, fmt.Errorf("%w: %q is not IPv4", api.ErrInvalidAddress, host)
	}
	if family == FamilyInet6 && !addr.Is6() {
		return nil, fmt.Errorf("%w: %q is not IPv6", api.ErrInvalidAddress, host)
	}
	return &Endpoint{Family: family, Addr: addr, Port: uint16(port)}, nil
}

// Equal reports whether two endpoints describe the same bound address.
func (e *Endpoint) Equal(o *Endpoint) bool {
	if e.Family != o.Family {
		return false
	}
	if e.Family == FamilyUnix {
		return e.Path == o.Path
	}
	return e.Addr == o.Addr && e.Port == o.Port
}

// String renders the endpoint in its URL form.
func (e *Endpoint) String() string {
	switch e.Family {
	case FamilyUnix:
		return "unix://" + e.Path
	case FamilyInet6:
		return fmt.Sprintf("tcp://[%s]:%d", e.Addr, e.Port)
	default:
		return fmt.Sprintf("tcp://%s:%d", e.Addr, e.Port)
	}
}
