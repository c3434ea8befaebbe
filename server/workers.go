//go:build linux

// File: server/workers.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Bounded worker pool draining the working queue. Workers park on the
// rendezvous condition until the loop posts a record; after running the
// handler they either re-park the record in pending and wake the loop
// through the self-pipe, or drop it.

package server

import "time"

// worker is the body of one pool member.
func (s *Server) worker() error {
	for {
		s.mu.Lock()
		for s.running && s.working.Length() == 0 {
			s.cond.Wait()
		}
		if s.working.Length() == 0 {
			s.mu.Unlock()
			return nil
		}
		cb := s.working.Remove().(*callback)
		s.mu.Unlock()

		if cb.fn(cb.fd, cb.data) {
			s.mu.Lock()
			s.addPending(cb)
			s.mu.Unlock()
			s.wake()
		}
		// A dropped record is gone: the handler closed the fd and
		// released its resources before returning.
	}
}

// stopWorkers releases the pool and waits up to the grace delay for the
// members to exit. A member stuck inside a blocking handler is
// abandoned with a warning; its record movements remain safe under the
// server mutex.
func (s *Server) stopWorkers() {
	if s.workers == nil {
		return
	}
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	s.cond.Broadcast()

	done := make(chan struct{})
	go func() {
		_ = s.workers.Wait()
		close(done)
	}()
	grace := s.cfg.GraceDelay
	if grace <= 0 {
		grace = 50 * time.Millisecond
	}
	select {
	case <-done:
	case <-time.After(grace):
		s.log.Warn("workers did not exit within grace delay")
	}
	s.workers = nil
}
