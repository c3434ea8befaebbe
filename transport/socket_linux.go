//go:build linux

// File: transport/socket_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Raw stream socket plumbing over golang.org/x/sys/unix. The server and
// client layers work on file descriptors directly so that readiness
// polling, non-blocking accepts and MSG_NOSIGNAL sends stay in one place.

package transport

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-rpc/api"
)

// Backlog is the listen(2) queue depth used for every listen socket.
const Backlog = 255

// sockaddr maps the endpoint onto its x/sys/unix address and domain.
func (e *Endpoint) sockaddr() (unix.Sockaddr, int) {
	switch e.Family {
	case FamilyUnix:
		return &unix.SockaddrUnix{Name: e.Path}, unix.AF_UNIX
	case FamilyInet6:
		return &unix.SockaddrInet6{Port: int(e.Port), Addr: e.Addr.As16()}, unix.AF_INET6
	default:
		return &unix.SockaddrInet4{Port: int(e.Port), Addr: e.Addr.As4()}, unix.AF_INET
	}
}

// Listen creates a non-blocking stream listener bound to the endpoint.
func Listen(e *Endpoint) (int, error) {
	sa, domain := e.sockaddr()
	fd, err := unix.Socket(domain, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, fmt.Errorf("%w: socket %s: %v", api.ErrSocket, e, err)
	}
	_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("%w: bind %s: %v", api.ErrSocket, e, err)
	}
	if err := unix.Listen(fd, Backlog); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("%w: listen %s: %v", api.ErrSocket, e, err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("%w: set nonblock %s: %v", api.ErrSocket, e, err)
	}
	return fd, nil
}

// Connect opens a non-blocking stream socket to the endpoint. A pending
// EINPROGRESS handshake counts as success; the first send completes or
// fails it.
func Connect(e *Endpoint) (int, error) {
	sa, domain := e.sockaddr()
	fd, err := unix.Socket(domain, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, fmt.Errorf("%w: socket %s: %v", api.ErrSocket, e, err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("%w: set nonblock %s: %v", api.ErrSocket, e, err)
	}
	if err := unix.Connect(fd, sa); err != nil && err != unix.EINPROGRESS {
		unix.Close(fd)
		return -1, fmt.Errorf("%w: connect %s: %v", api.ErrSocket, e, err)
	}
	return fd, nil
}
