//go:build linux

// File: server/server.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Server facade: bind/unbind endpoints, install the service and stop
// source, run the event loop, tear everything down.

package server

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-rpc/api"
	"github.com/momentics/hioload-rpc/transport"
)

// Bind parses url, opens a non-blocking listen socket on it and
// registers the accept handler in the pending list.
func (s *Server) Bind(url string) error {
	ep, err := transport.ParseURL(url)
	if err != nil {
		return err
	}
	fd, err := transport.Listen(ep)
	if err != nil {
		return err
	}
	s.log.WithField("endpoint", ep.String()).Debug("bound endpoint")

	s.mu.Lock()
	s.sockets = append(s.sockets, &listenSocket{ep: ep, fd: fd})
	s.addPending(&callback{fd: fd, fn: s.acceptCallback})
	s.mu.Unlock()
	return nil
}

// Unbind closes the listen socket bound to url, unlinking the path for
// UNIX endpoints, and reports whether a bound match was found.
func (s *Server) Unbind(url string) bool {
	ep, err := transport.ParseURL(url)
	if err != nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, ls := range s.sockets {
		if !ls.ep.Equal(ep) {
			continue
		}
		if ls.fd >= 0 {
			unix.Close(ls.fd)
			s.removePendingFD(ls.fd)
		}
		if ls.ep.Family == transport.FamilyUnix {
			unix.Unlink(ls.ep.Path)
		}
		s.sockets = append(s.sockets[:i], s.sockets[i+1:]...)
		return true
	}
	return false
}

// Serve binds url, installs service and runs the event loop until the
// stop source fires. It owns the full lifecycle: worker pool and
// self-pipe setup, the loop itself, and teardown of workers, listen
// sockets and UNIX paths. Blocks for the duration of the run.
func (s *Server) Serve(url string, service api.Service) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return api.ErrServerRunning
	}
	s.running = true
	s.service = service
	s.mu.Unlock()

	var errs *multierror.Error

	if s.cfg.Workers > 0 {
		var p [2]int
		if err := unix.Pipe2(p[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
			return fmt.Errorf("%w: self-pipe: %v", api.ErrSocket, err)
		}
		s.mu.Lock()
		s.wakeR, s.wakeW = p[0], p[1]
		// The sentinel occupies poll slot 0 for the lifetime of the
		// run so the loop can test the wake with a single index; it is
		// placed ahead of any listener bound before Serve.
		s.pending = append([]*callback{{fd: s.wakeR, fn: nil}}, s.pending...)
		s.mu.Unlock()

		s.workers = new(errgroup.Group)
		for i := 0; i < s.cfg.Workers; i++ {
			s.workers.Go(s.worker)
		}
	}

	if err := s.Bind(url); err != nil {
		errs = multierror.Append(errs, err)
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	} else if s.cfg.StopFD > 0 {
		s.mu.Lock()
		s.addPending(&callback{fd: s.cfg.StopFD, fn: s.stopCallback})
		s.mu.Unlock()
	}

	if errs.ErrorOrNil() == nil {
		s.run()
	}

	errs = multierror.Append(errs, s.teardown())
	return errs.ErrorOrNil()
}

// teardown releases workers, the self-pipe, every remaining connection
// and listen socket, and unlinks UNIX paths. Close errors are collected
// rather than aborting the shutdown.
func (s *Server) teardown() error {
	var errs *multierror.Error

	s.stopWorkers()

	s.mu.Lock()
	if s.wakeR >= 0 {
		unix.Close(s.wakeR)
		unix.Close(s.wakeW)
		s.wakeR, s.wakeW = -1, -1
	}
	pending := s.pending
	s.pending = nil
	for s.working.Length() > 0 {
		pending = append(pending, s.working.Remove().(*callback))
	}
	sockets := s.sockets
	s.sockets = nil
	s.service = nil
	s.running = false
	s.mu.Unlock()

	// Connections still parked at shutdown are closed here; listen and
	// stop fds are handled by their owners below or by the caller.
	for _, cb := range pending {
		if conn, ok := cb.data.(*connection); ok {
			conn.close()
		}
	}
	for _, ls := range sockets {
		if ls.fd >= 0 {
			if err := unix.Close(ls.fd); err != nil {
				errs = multierror.Append(errs,
					fmt.Errorf("close %s: %w", ls.ep, err))
			}
		}
		if ls.ep.Family == transport.FamilyUnix {
			if err := unix.Unlink(ls.ep.Path); err != nil && err != unix.ENOENT {
				errs = multierror.Append(errs,
					fmt.Errorf("unlink %s: %w", ls.ep.Path, err))
			}
		}
	}
	return errs.ErrorOrNil()
}
