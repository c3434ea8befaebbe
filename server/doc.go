// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package server implements the hioload-rpc server: a readiness-driven
// poll loop over callback records, an optional bounded worker pool fed
// through a pending/working rendezvous with a self-pipe wake, and the
// per-connection framing that dispatches requests to an installed
// service.
package server
