// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssh

import (
	"io"

	log "github.com/sirupsen/logrus"
)

// Connection pairs the inbound and outbound Streams over a single
// io.ReadWriter and dispatches transport-level messages (spec.md
// section 4.4). It is the narrow interface the KEX engine consumes
// (spec.md section 9 Design Notes): KexEngine never reaches into
// Stream internals directly, only through Send/recvSkippingIgnore and
// Out()/In().InstallKeys.
//
// Grounded on the teacher's connection/handshakeTransport split in
// client.go and handshake.go: readOnePacket's dispatch of
// msgIgnore/msgDebug/msgKexInit is the direct model for dispatch
// below, generalized to also surface DISCONNECT and UNIMPLEMENTED
// per spec.md (the teacher translates a successful KEX into
// msgIgnore/msgNewKeys for its channel layer; we have no channel
// layer to hide it from, so KEXINIT is handed to the caller-supplied
// rekey hook instead).
type Connection struct {
	rw  io.ReadWriter
	out *Stream
	in  *Stream

	log     *log.Entry
	metrics *Metrics

	// onKexInit, if set, is invoked whenever a KEXINIT is received
	// (spec.md section 4.4: "may be received at any time to initiate
	// rekey"). It is the seam the KEX engine's rekey path hooks into.
	onKexInit func(payload []byte) error
}

// NewConnection wraps rw with a fresh pair of null-cipher Streams.
func NewConnection(rw io.ReadWriter, rand io.Reader) *Connection {
	return &Connection{
		rw:  rw,
		out: NewStream(rand),
		in:  NewStream(rand),
		log: log.WithField("component", "ssh-connection"),
	}
}

// SetMetrics attaches an optional metrics sink; nil disables metrics.
func (c *Connection) SetMetrics(m *Metrics) { c.metrics = m }

// Out/In expose the two directions so the KEX engine can install
// freshly derived keys at a NEWKEYS boundary without the Connection
// mediating every field access.
func (c *Connection) Out() *Stream { return c.out }
func (c *Connection) In() *Stream  { return c.in }

// Send builds and transmits a transport-level payload (the payload
// must NOT include the 5 reserved framing bytes; Send reserves and
// fills them).
func (c *Connection) Send(payload []byte) error {
	pack := c.out.NewPacket()
	pack.Append(payload)
	if err := c.out.Send(c.rw, pack); err != nil {
		c.metrics.incSendError()
		return err
	}
	c.metrics.incSent()
	return nil
}

// SendDisconnect sends SSH_MSG_DISCONNECT with the given reason and
// message, best-effort (spec.md section 7: MAC failures and a few
// other fatal errors must send this before closing).
func (c *Connection) SendDisconnect(reason uint32, msg string) error {
	m := &disconnectMsg{Reason: reason, Message: msg}
	pack := c.out.NewPacket()
	pack.Append(m.marshal())
	return c.out.Send(c.rw, pack)
}

// recvRaw reads one packet off the wire without any dispatch.
func (c *Connection) recvRaw() ([]byte, error) {
	payload, err := c.in.Recv(c.rw)
	if err != nil {
		c.metrics.incRecvError()
		if te, ok := err.(*TransportError); ok && te.Category == ErrMacMismatch {
			c.metrics.incMacFailure()
		}
		return nil, err
	}
	c.metrics.incRecv()
	return payload, nil
}

// recvSkippingIgnore reads raw packets, silently discarding IGNORE
// and DEBUG, and surfacing DISCONNECT as RemoteDisconnect; any other
// message type (including KEXINIT, KEXDH_REPLY, NEWKEYS) is returned
// as-is. This is the KEX engine's read primitive: it deliberately
// bypasses Recv's dispatch loop (no onKexInit re-entrancy) because
// the engine IS the thing driving KEXINIT handling. Grounded on
// original_source/ssh/kex_dh.c's ssh_conn_recv_packet_skip_ignore.
func (c *Connection) recvSkippingIgnore() ([]byte, error) {
	for {
		payload, err := c.recvRaw()
		if err != nil {
			return nil, err
		}
		if len(payload) == 0 {
			return nil, newError(ErrTruncated, disconnectProtocolError, "empty packet")
		}
		switch payload[0] {
		case msgIgnore:
			continue
		case msgDebug:
			if dbg, err := unmarshalDebug(payload); err == nil && dbg.AlwaysDisplay {
				c.log.Info(dbg.Message)
			}
			continue
		case msgDisconnect:
			d, err := unmarshalDisconnect(payload)
			if err != nil {
				return nil, err
			}
			return nil, remoteDisconnectError(d.Reason, d.Message)
		default:
			return payload, nil
		}
	}
}

// Recv reads and dispatches packets until one is found that the
// caller needs to see, implementing spec.md section 4.4:
//
//   - IGNORE, DEBUG: consumed silently (DEBUG logged if AlwaysDisplay).
//   - DISCONNECT: surfaced as a terminal RemoteDisconnect error.
//   - KEXINIT: handed to onKexInit (may initiate a rekey at any time);
//     the loop continues afterward rather than returning it.
//   - UNIMPLEMENTED and anything else: returned to the caller.
func (c *Connection) Recv() ([]byte, error) {
	for {
		payload, err := c.recvRaw()
		if err != nil {
			return nil, err
		}
		if len(payload) == 0 {
			return nil, newError(ErrTruncated, disconnectProtocolError, "empty packet")
		}

		switch payload[0] {
		case msgIgnore:
			continue
		case msgDebug:
			if dbg, err := unmarshalDebug(payload); err == nil && dbg.AlwaysDisplay {
				c.log.Info(dbg.Message)
			}
			continue
		case msgDisconnect:
			d, err := unmarshalDisconnect(payload)
			if err != nil {
				return nil, err
			}
			c.log.WithField("reason", d.Reason).Warn("peer sent disconnect")
			return nil, remoteDisconnectError(d.Reason, d.Message)
		case msgKexInit:
			if c.onKexInit == nil {
				return payload, nil
			}
			if err := c.onKexInit(payload); err != nil {
				return nil, err
			}
			continue
		default:
			return payload, nil
		}
	}
}

// RecvSkipTransport is an alias for Recv kept to name-match spec.md's
// "recv_skip_transport() -> payload" operation explicitly.
func (c *Connection) RecvSkipTransport() ([]byte, error) {
	return c.Recv()
}

// SetKexInitHandler installs the callback invoked whenever a KEXINIT
// packet is dispatched, per spec.md section 4.4.
func (c *Connection) SetKexInitHandler(h func(payload []byte) error) {
	c.onKexInit = h
}
