// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package protocol defines the wire framing of hioload-rpc: a 12-byte
// little-endian header (method index, message length, request id) plus
// an opaque payload, and the reserved 4-byte status word on responses.
package protocol
