//go:build linux

// File: client/client.go
// Package client implements the synchronous hioload-rpc client engine.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// A Client issues one request at a time over its connection: Invoke
// serializes the request, sends it fully, then blocks until a complete
// response frame arrives or the timeout expires. The client mutex is
// held across the whole round-trip, which is what serializes in-flight
// requests. The closure is called exactly once on every path, with nil
// signalling failure.

package client

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-rpc/api"
	"github.com/momentics/hioload-rpc/pool"
	"github.com/momentics/hioload-rpc/protocol"
	"github.com/momentics/hioload-rpc/transport"
)

// DefaultTimeout bounds the wait for a response.
const DefaultTimeout = 1 * time.Second

const readSlabSize = 8192

// Client is a connected RPC client. It implements api.Service so a
// connection can stand in wherever a service is expected.
type Client struct {
	desc      *api.ServiceDescriptor
	fd        int
	requestID uint32
	timeout   time.Duration
	log       logrus.FieldLogger

	mu sync.Mutex
}

// Option customizes client initialization.
type Option func(*Client)

// WithTimeout overrides the response deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger overrides the client logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// Connect opens a non-blocking stream socket to the server at url. A
// connect still in progress counts as success; the first send completes
// the handshake or surfaces the failure.
func Connect(url string, desc *api.ServiceDescriptor, opts ...Option) (*Client, error) {
	ep, err := transport.ParseURL(url)
	if err != nil {
		return nil, err
	}
	fd, err := transport.Connect(ep)
	if err != nil {
		return nil, err
	}
	c := &Client{
		desc:    desc,
		fd:      fd,
		timeout: DefaultTimeout,
		log:     logrus.StandardLogger().WithField("fd", fd),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Descriptor returns the service method table.
func (c *Client) Descriptor() *api.ServiceDescriptor {
	return c.desc
}

// Invoke sends one request and delivers the reply to closure. On any
// failure (serialization, send, timeout, read error, peer close) the
// closure receives nil.
func (c *Client) Invoke(methodIndex uint32, input api.Message, closure api.Closure) {
	// The mutex is held for the whole round-trip: one in-flight
	// request per client.
	c.mu.Lock()

	if methodIndex >= c.desc.NumMethods() {
		c.mu.Unlock()
		c.log.WithField("method", methodIndex).Error("bad method index")
		closure(nil)
		return
	}

	c.requestID++
	hdr := protocol.Header{
		MethodIndex:   methodIndex,
		MessageLength: uint32(input.PackedSize()),
		RequestID:     c.requestID,
	}
	frame := make([]byte, protocol.HeaderLen+int(hdr.MessageLength))
	hdr.Pack(frame)
	if n := input.Pack(frame[protocol.HeaderLen:]); n != int(hdr.MessageLength) {
		c.mu.Unlock()
		c.log.Error("error serializing the request")
		closure(nil)
		return
	}

	if !c.sendAll(frame) {
		c.mu.Unlock()
		closure(nil)
		return
	}

	reply, ok := c.await(hdr)
	c.mu.Unlock()
	if !ok {
		closure(nil)
		return
	}
	closure(reply)
}

// sendAll writes the frame to completion, retrying transient errnos.
func (c *Client) sendAll(data []byte) bool {
	for len(data) > 0 {
		n, err := unix.SendmsgN(c.fd, data, nil, nil, unix.MSG_NOSIGNAL)
		if err != nil {
			if err == unix.EINTR || err == unix.EAGAIN {
				continue
			}
			c.log.WithError(err).Error("send failed")
			return false
		}
		if n == 0 {
			c.log.Debug("connection closed")
			return false
		}
		data = data[n:]
	}
	return true
}

// await reads until the buffer holds one complete response frame, then
// unpacks the body through the method's output descriptor. hdr is the
// request header; the response header is decoded separately and its
// request id must match hdr's.
func (c *Client) await(hdr protocol.Header) (api.Message, bool) {
	var recv pool.Buffer
	slab := make([]byte, readSlabSize)
	deadline := time.Now().Add(c.timeout)
	frameStart := protocol.StatusLen + protocol.HeaderLen

	var resp protocol.Header
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			c.log.Error("read timeout")
			return nil, false
		}
		pfd := []unix.PollFd{{Fd: int32(c.fd), Events: unix.POLLIN}}
		if _, err := unix.Poll(pfd, int(remaining.Milliseconds())+1); err != nil && err != unix.EINTR {
			c.log.WithError(err).Error("poll failed")
			return nil, false
		}

		n, err := unix.Read(c.fd, slab)
		if err != nil {
			if err == unix.EINTR || err == unix.EAGAIN {
				continue
			}
			c.log.WithError(err).Error("read failed")
			return nil, false
		}
		if n == 0 {
			c.log.Debug("connection closed")
			return nil, false
		}
		recv.Append(slab[:n])

		if recv.Len() < frameStart {
			continue
		}
		resp = protocol.UnpackHeader(recv.Bytes()[protocol.StatusLen:frameStart])
		if recv.Len() >= frameStart+int(resp.MessageLength) {
			break
		}
	}

	if resp.RequestID != hdr.RequestID {
		c.log.WithFields(logrus.Fields{
			"want": hdr.RequestID,
			"got":  resp.RequestID,
		}).Error("response id mismatch")
		return nil, false
	}

	body := recv.Bytes()[frameStart : frameStart+int(resp.MessageLength)]
	reply, err := c.desc.Methods[hdr.MethodIndex].Output.Unpack(body)
	if err != nil {
		c.log.WithError(err).Error("unable to unpack response")
		return nil, false
	}
	return reply, true
}

// Close shuts the connection down. The client must not be used after.
func (c *Client) Close() error {
	return unix.Close(c.fd)
}
