// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package client implements the hioload-rpc client: a synchronous,
// one-request-at-a-time engine over a non-blocking stream socket, with
// a bounded response wait and failure signalled through a nil reply.
package client
