//go:build linux

// File: server/callback.go
// Package server implements the hioload-rpc server core.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Callback records tie a file descriptor to its readiness handler. A
// record lives in exactly one place at a time: the pending list (parked
// on the poll), the working queue (claimed by a worker), or nowhere
// once dropped. Only the poll loop moves records pending→working; only
// a worker (or the inline dispatch path) moves them back or drops them.
// All list mutations happen under the server mutex.

package server

// callbackFunc handles one readiness event on fd. Returning true keeps
// the record registered; false drops it, and the handler must have
// closed the fd and released per-connection resources before returning.
type callbackFunc func(fd int, data any) bool

// callback is one (fd, handler, user-data) record. A nil fn marks a
// sentinel: the record occupies a poll slot but is never dispatched.
type callback struct {
	fd   int
	fn   callbackFunc
	data any
}

// addPending appends a record to the pending list. Caller holds s.mu.
func (s *Server) addPending(cb *callback) {
	s.pending = append(s.pending, cb)
}

// removePendingFD drops the first pending record with the given fd.
// Caller holds s.mu.
func (s *Server) removePendingFD(fd int) {
	for i, cb := range s.pending {
		if cb.fd == fd {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return
		}
	}
}
