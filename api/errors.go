// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error values shared by the hioload-rpc transport, server and client.

package api

import "errors"

// Error kinds reported by the RPC core. Setup-time failures wrap these;
// per-connection failures are handled internally by dropping the
// connection and never surface past the server loop.
var (
	ErrInvalidURL       = errors.New("invalid endpoint url")
	ErrInvalidAddress   = errors.New("invalid endpoint address")
	ErrSocket           = errors.New("socket error")
	ErrRead             = errors.New("read error")
	ErrSend             = errors.New("send error")
	ErrProtocol         = errors.New("protocol error")
	ErrTimeout          = errors.New("operation timeout")
	ErrConnectionClosed = errors.New("connection closed")
	ErrServerRunning    = errors.New("server already running")
)
