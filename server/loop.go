//go:build linux

// File: server/loop.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Readiness-driven event loop. Each iteration snapshots the pending
// list into a poll batch, parks in poll(2) with no timeout, then either
// hands ready records to the worker pool or, with no pool configured,
// runs their handlers inline on the loop thread.
//
// The batch maps poll-result indices back to pending records by list
// order, so a batch is only examined when the list is provably
// unchanged: the self-pipe entry (always index 0) signals an
// out-of-band mutation, and a pending length different from the batch
// length signals one made by a handler already running in a worker.

package server

import (
	"golang.org/x/sys/unix"
)

// run drives the loop until running is cleared by the stop handler.
func (s *Server) run() {
	for {
		s.mu.Lock()
		if !s.running {
			s.mu.Unlock()
			return
		}
		batch := make([]unix.PollFd, len(s.pending))
		for i, cb := range s.pending {
			batch[i] = unix.PollFd{Fd: int32(cb.fd), Events: unix.POLLIN}
		}
		s.mu.Unlock()

		if _, err := unix.Poll(batch, -1); err != nil {
			if err != unix.EINTR {
				s.log.WithError(err).Error("poll failed")
			}
			continue
		}

		if s.cfg.Workers > 0 {
			s.dispatchToWorkers(batch)
		} else {
			s.dispatchInline(batch)
		}
	}
}

// dispatchToWorkers migrates ready records from pending to working and
// posts the worker rendezvous once per record.
func (s *Server) dispatchToWorkers(batch []unix.PollFd) {
	// Index 0 is the self-pipe sentinel. Readiness there means the
	// pending list mutated mid-poll; drain one wake byte and rebuild.
	if len(batch) > 0 && batch[0].Revents != 0 {
		var b [1]byte
		_, _ = unix.Read(s.wakeR, b[:])
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(batch) != len(s.pending) {
		// A handler running in a worker changed the list; the batch
		// indices no longer line up. Rebuild on the next iteration.
		return
	}
	remaining := s.pending[:0]
	for i, cb := range s.pending {
		if batch[i].Revents != 0 && cb.fn != nil {
			s.working.Add(cb)
			s.cond.Signal()
			continue
		}
		remaining = append(remaining, cb)
	}
	s.pending = remaining
}

// dispatchInline runs ready handlers directly on the loop thread. The
// pending snapshot stands in for the working list; records whose
// handler drops them are deleted from pending afterwards.
func (s *Server) dispatchInline(batch []unix.PollFd) {
	s.mu.Lock()
	working := append([]*callback(nil), s.pending...)
	s.mu.Unlock()

	for i, cb := range working {
		if i >= len(batch) || batch[i].Revents == 0 || cb.fn == nil {
			continue
		}
		if !cb.fn(cb.fd, cb.data) {
			s.mu.Lock()
			s.removePendingFD(cb.fd)
			s.mu.Unlock()
		}
	}
}

// wake writes one byte to the self-pipe to force the loop to rebuild
// its poll batch. A no-op without a worker pool.
func (s *Server) wake() {
	s.mu.Lock()
	w := s.wakeW
	s.mu.Unlock()
	if w < 0 {
		return
	}
	if _, err := unix.Write(w, []byte{0}); err != nil && err != unix.EAGAIN {
		s.log.WithError(err).Error("failed to wake server")
	}
}
