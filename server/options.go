//go:build linux

// File: server/options.go
// Package server defines functional options for the Server facade.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import "github.com/sirupsen/logrus"

// Option customizes server initialization.
type Option func(*Server)

// WithWorkers sets the number of worker threads. Zero selects the
// single-threaded inline dispatch mode.
func WithWorkers(n int) Option {
	return func(s *Server) {
		s.cfg.Workers = n
	}
}

// WithStopFD installs a stop source: a readable event on fd triggers an
// orderly shutdown.
func WithStopFD(fd int) Option {
	return func(s *Server) {
		s.cfg.StopFD = fd
	}
}

// WithLogger overrides the server logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Server) {
		s.cfg.Logger = log
	}
}
