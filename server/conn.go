//go:build linux

// File: server/conn.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Per-connection framing: raw reads accumulate in the incoming buffer;
// every complete frame is decoded and dispatched to the installed
// service, whose closure packs the response into the outgoing buffer
// and drains it to the socket before returning.

package server

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-rpc/api"
	"github.com/momentics/hioload-rpc/pool"
	"github.com/momentics/hioload-rpc/protocol"
)

// connection is the per-client state owned by its callback record.
type connection struct {
	fd       int
	server   *Server
	log      logrus.FieldLogger
	incoming pool.Buffer
	outgoing pool.Buffer
}

// acceptCallback accepts one new client on a listen fd and registers a
// connection record for it. The listener always stays registered.
func (s *Server) acceptCallback(fd int, _ any) bool {
	nfd, _, err := unix.Accept(fd)
	if err != nil {
		if err != unix.EINTR && err != unix.EAGAIN {
			s.log.WithField("fd", fd).WithError(err).Error("accept failed")
		}
		return true
	}

	conn := &connection{
		fd:     nfd,
		server: s,
		log: s.log.WithFields(logrus.Fields{
			"fd":   nfd,
			"conn": uuid.NewString(),
		}),
	}
	conn.log.Debug("client connected")

	s.mu.Lock()
	s.addPending(&callback{fd: nfd, fn: s.connCallback, data: conn})
	s.mu.Unlock()
	return true
}

// connCallback drives framing for one readiness event.
func (s *Server) connCallback(fd int, data any) bool {
	return data.(*connection).readable()
}

// readable consumes whatever the socket has and dispatches every
// complete frame in arrival order. Returns false to drop the record
// after closing the connection.
func (c *connection) readable() bool {
	slab := c.server.slab.GetBuffer()
	defer c.server.slab.PutBuffer(slab)

	n, err := unix.Read(c.fd, slab)
	if err != nil {
		if err == unix.EINTR || err == unix.EAGAIN {
			return true
		}
		c.log.WithError(err).Error("read failed")
		return c.close()
	}
	if n == 0 {
		c.log.Debug("connection closed by peer")
		return c.close()
	}
	c.incoming.Append(slab[:n])

	service := c.server.service
	desc := service.Descriptor()
	for c.incoming.Len() >= protocol.HeaderLen {
		hdr := protocol.UnpackHeader(c.incoming.Bytes())
		total := protocol.HeaderLen + int(hdr.MessageLength)
		if c.incoming.Len() < total {
			break
		}

		if hdr.MethodIndex >= desc.NumMethods() {
			c.log.WithField("method", hdr.MethodIndex).Error("bad method index")
			return c.close()
		}
		input, err := desc.Methods[hdr.MethodIndex].Input.Unpack(
			c.incoming.Bytes()[protocol.HeaderLen:total])
		if err != nil {
			c.log.WithField("method", hdr.MethodIndex).WithError(err).
				Error("unable to unpack request")
			return c.close()
		}
		c.incoming.Discard(total)

		// The service may call the closure immediately, on this stack.
		service.Invoke(hdr.MethodIndex, input, func(reply api.Message) {
			c.respond(hdr, reply)
		})
	}
	return true
}

// respond packs the status word, header and reply body into the
// outgoing buffer and drains it to the socket. Send failures terminate
// the write silently; the outgoing buffer is empty again on return.
func (c *connection) respond(hdr protocol.Header, reply api.Message) {
	if reply == nil {
		c.log.WithField("method", hdr.MethodIndex).Error("service produced no reply")
		return
	}
	defer c.outgoing.Reset()

	hdr.MessageLength = uint32(reply.PackedSize())
	head := c.outgoing.Grow(protocol.StatusLen + protocol.HeaderLen)
	for i := 0; i < protocol.StatusLen; i++ {
		head[i] = 0
	}
	hdr.Pack(head[protocol.StatusLen:])
	body := c.outgoing.Grow(int(hdr.MessageLength))
	if n := reply.Pack(body); n != int(hdr.MessageLength) {
		c.log.WithField("method", hdr.MethodIndex).Error("error serializing the response")
		return
	}

	data := c.outgoing.Bytes()
	for len(data) > 0 {
		n, err := unix.SendmsgN(c.fd, data, nil, nil, unix.MSG_NOSIGNAL)
		if err != nil {
			if err == unix.EINTR || err == unix.EAGAIN {
				continue
			}
			c.log.WithError(err).Debug("send failed")
			return
		}
		if n == 0 {
			c.log.Debug("connection closed during send")
			return
		}
		data = data[n:]
	}
}

// close releases the connection. Always returns false so the caller
// drops the record.
func (c *connection) close() bool {
	unix.Close(c.fd)
	c.incoming.Reset()
	c.outgoing.Reset()
	return false
}

// stopCallback clears the running flag and wakes the loop. The record
// is dropped; the stop fd itself stays open, owned by the caller.
func (s *Server) stopCallback(int, any) bool {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	s.wake()
	return false
}
