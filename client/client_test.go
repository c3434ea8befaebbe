//go:build linux

// File: client/client_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package client_test

import (
	"fmt"
	"io"
	"net"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-rpc/api"
	"github.com/momentics/hioload-rpc/client"
)

type rawMessage []byte

func (m rawMessage) PackedSize() int     { return len(m) }
func (m rawMessage) Pack(buf []byte) int { return copy(buf, m) }

type rawDescriptor struct{}

func (rawDescriptor) Unpack(data []byte) (api.Message, error) {
	return rawMessage(append([]byte(nil), data...)), nil
}

func oneMethodDescriptor() *api.ServiceDescriptor {
	return &api.ServiceDescriptor{
		Methods: []api.MethodDescriptor{
			{Input: rawDescriptor{}, Output: rawDescriptor{}},
		},
	}
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestClientTimeout(t *testing.T) {
	// A server that accepts but never replies.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
			io.Copy(io.Discard, conn)
		}
	}()

	url := fmt.Sprintf("tcp://%s", ln.Addr())
	timeout := 200 * time.Millisecond
	c, err := client.Connect(url, oneMethodDescriptor(),
		client.WithTimeout(timeout), client.WithLogger(quietLogger()))
	require.NoError(t, err)
	defer c.Close()

	start := time.Now()
	invoked := false
	var reply api.Message = rawMessage("sentinel")
	c.Invoke(0, rawMessage("ping"), func(m api.Message) {
		invoked = true
		reply = m
	})
	elapsed := time.Since(start)

	require.True(t, invoked, "closure must be called exactly once on timeout")
	assert.Nil(t, reply)
	assert.GreaterOrEqual(t, elapsed, timeout)
	assert.Less(t, elapsed, 5*timeout)
}

func TestClientSendFailure(t *testing.T) {
	// Grab a free port, then close the listener so connects are refused.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	url := fmt.Sprintf("tcp://%s", ln.Addr())
	require.NoError(t, ln.Close())

	// EINPROGRESS is tolerated at connect time; the refusal surfaces at
	// the first send. Loopback may also refuse synchronously.
	c, err := client.Connect(url, oneMethodDescriptor(),
		client.WithTimeout(time.Second), client.WithLogger(quietLogger()))
	if err != nil {
		assert.ErrorIs(t, err, api.ErrSocket)
		return
	}
	defer c.Close()

	invoked := false
	var reply api.Message = rawMessage("sentinel")
	c.Invoke(0, rawMessage("ping"), func(m api.Message) {
		invoked = true
		reply = m
	})
	require.True(t, invoked, "closure must be called even when the send fails")
	assert.Nil(t, reply)
}

func TestClientBadMethodIndex(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	url := fmt.Sprintf("tcp://%s", ln.Addr())
	c, err := client.Connect(url, oneMethodDescriptor(),
		client.WithTimeout(time.Second), client.WithLogger(quietLogger()))
	require.NoError(t, err)
	defer c.Close()

	var reply api.Message = rawMessage("sentinel")
	c.Invoke(1, rawMessage("ping"), func(m api.Message) { reply = m })
	assert.Nil(t, reply)
}

func TestClientInvalidURL(t *testing.T) {
	_, err := client.Connect("ftp://nope", oneMethodDescriptor())
	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrInvalidURL)
}
