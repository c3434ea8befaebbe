//go:build linux

// File: server/types.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"sync"
	"time"

	"github.com/eapache/queue"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/momentics/hioload-rpc/api"
	"github.com/momentics/hioload-rpc/pool"
	"github.com/momentics/hioload-rpc/transport"
)

// Config holds all server-side configuration parameters.
type Config struct {
	Workers      int                // worker threads; 0 dispatches inline on the loop thread
	StopFD       int                // fd whose readability triggers shutdown; <= 0 disables
	ReadSlabSize int                // scratch size for each socket read
	GraceDelay   time.Duration      // how long teardown waits for workers to exit
	Logger       logrus.FieldLogger // defaults to logrus.StandardLogger()
}

// DefaultConfig returns a baseline configuration.
func DefaultConfig() *Config {
	return &Config{
		Workers:      4,
		StopFD:       0,
		ReadSlabSize: 8192,
		GraceDelay:   50 * time.Millisecond,
	}
}

// listenSocket is one bound endpoint and its listen fd.
type listenSocket struct {
	ep *transport.Endpoint
	fd int
}

// Server is an RPC server instance. All state is owned by the value;
// multiple independent servers per process are supported.
type Server struct {
	cfg  Config
	log  logrus.FieldLogger
	slab *pool.BytePool

	mu      sync.Mutex
	cond    *sync.Cond // worker rendezvous, bound to mu
	running bool
	service api.Service
	pending []*callback
	working *queue.Queue
	sockets []*listenSocket

	// Self-pipe used to rearm the poll after out-of-band list changes.
	// Both ends are -1 when no worker pool is configured.
	wakeR, wakeW int

	workers *errgroup.Group
}

// New builds a Server from cfg (nil selects DefaultConfig) and options.
func New(cfg *Config, opts ...Option) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	s := &Server{
		cfg:     *cfg,
		working: queue.New(),
		wakeR:   -1,
		wakeW:   -1,
	}
	for _, o := range opts {
		o(s)
	}
	if s.cfg.ReadSlabSize <= 0 {
		s.cfg.ReadSlabSize = 8192
	}
	if s.cfg.Logger == nil {
		s.cfg.Logger = logrus.StandardLogger()
	}
	s.log = s.cfg.Logger
	s.slab = pool.NewBytePool(s.cfg.ReadSlabSize)
	s.cond = sync.NewCond(&s.mu)
	return s
}
