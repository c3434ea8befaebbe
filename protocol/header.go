// File: protocol/header.go
// Package protocol implements the fixed RPC frame header codec.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// A request frame is a 12-byte header followed by message_length bytes
// of opaque payload. A response frame carries an extra 4-byte status
// word before the header; the status is reserved and currently zero.

package protocol

import "encoding/binary"

const (
	// HeaderLen is the size of the frame header on the wire.
	HeaderLen = 12

	// StatusLen is the size of the reserved status word that precedes
	// the header of a response frame.
	StatusLen = 4
)

// Header is the fixed frame header: three little-endian uint32 fields.
type Header struct {
	MethodIndex   uint32
	MessageLength uint32
	RequestID     uint32
}

// Pack writes the header into b, which holds at least HeaderLen bytes.
// No validation is performed here; the caller enforces bounds.
func (h Header) Pack(b []byte) {
	binary.LittleEndian.PutUint32(b[0:4], h.MethodIndex)
	binary.LittleEndian.PutUint32(b[4:8], h.MessageLength)
	binary.LittleEndian.PutUint32(b[8:12], h.RequestID)
}

// UnpackHeader is the inverse of Pack. b holds at least HeaderLen bytes.
func UnpackHeader(b []byte) Header {
	return Header{
		MethodIndex:   binary.LittleEndian.Uint32(b[0:4]),
		MessageLength: binary.LittleEndian.Uint32(b[4:8]),
		RequestID:     binary.LittleEndian.Uint32(b[8:12]),
	}
}
