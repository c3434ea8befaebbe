// File: protocol/header_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package protocol_test

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-rpc/protocol"
)

func TestHeaderRoundTrip(t *testing.T) {
	headers := []protocol.Header{
		{},
		{MethodIndex: 1, MessageLength: 32, RequestID: 1},
		{MethodIndex: 7, MessageLength: 0, RequestID: 12345},
		{MethodIndex: math.MaxUint32, MessageLength: math.MaxUint32, RequestID: math.MaxUint32},
		{MethodIndex: 0x01020304, MessageLength: 0xA0B0C0D0, RequestID: 0xDEADBEEF},
	}
	for _, h := range headers {
		var b [protocol.HeaderLen]byte
		h.Pack(b[:])
		assert.Equal(t, h, protocol.UnpackHeader(b[:]))
	}
}

func TestHeaderWireLayout(t *testing.T) {
	h := protocol.Header{MethodIndex: 2, MessageLength: 0x11223344, RequestID: 9}
	var b [protocol.HeaderLen]byte
	h.Pack(b[:])

	// Field order is method index, message length, request id, each
	// little-endian.
	require.Equal(t, uint32(2), binary.LittleEndian.Uint32(b[0:4]))
	require.Equal(t, []byte{0x44, 0x33, 0x22, 0x11}, b[4:8])
	require.Equal(t, uint32(9), binary.LittleEndian.Uint32(b[8:12]))
}
