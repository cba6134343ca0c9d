// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssh

import (
	"net"

	log "github.com/sirupsen/logrus"
)

// ClientConfig configures a Transport, grounded on the teacher's
// ClientConfig in the original client.go, trimmed to the fields a
// transport-only client needs: no User/Auth/BannerCallback, which
// belong to user authentication (out of scope per spec.md section 1).
type ClientConfig struct {
	Config

	// HostKeyCallback validates the server's host key; required, the
	// same way the teacher's client.go documents it (a nil callback
	// there defaults to accept-all, which this package refuses to
	// default to — callers must say InsecureIgnoreHostKey()
	// explicitly).
	HostKeyCallback HostKeyCallback
}

// Transport is a single SSH connection's transport layer: the BPP
// record layer plus the DH key exchange that arms it, with no
// channel multiplexing, authentication, or session layer above it
// (all out of scope per spec.md section 1). It is the package's
// external interface, grounded on the teacher's connection type in
// client.go/handshake.go, narrowed to spec.md section 6's "External
// Interfaces" surface: send/recv opaque payloads, and an explicit
// Rekey.
type Transport struct {
	rw   net.Conn
	conn *Connection
	kex  *KexEngine

	log *log.Entry
}

// NewTransport performs the initial key exchange over rw (already an
// established connection; socket I/O and version-banner exchange are
// out of scope per spec.md section 1, so clientVersion/serverVersion
// must already be known to the caller — e.g. read once off rw before
// this call, without their trailing CR/LF) and returns a Transport
// ready for Send/Recv. dialAddress and rw.RemoteAddr() are passed
// through to config.HostKeyCallback unchanged, for its own
// logging/pinning needs. A nil config.HostKeyCallback is rejected
// before any bytes are exchanged.
func NewTransport(rw net.Conn, config *ClientConfig, clientVersion, serverVersion []byte, dialAddress string) (*Transport, error) {
	if config.HostKeyCallback == nil {
		return nil, untrustedHostError("ClientConfig.HostKeyCallback is nil; use InsecureIgnoreHostKey() to accept any host key")
	}
	fullConfig := *config
	fullConfig.SetDefaults()

	conn := NewConnection(rw, fullConfig.Rand)
	kex := NewKexEngine(conn, &fullConfig.Config, clientVersion, serverVersion,
		fullConfig.HostKeyCallback, dialAddress, rw.RemoteAddr())

	conn.SetKexInitHandler(kex.HandlePeerKexInit)

	t := &Transport{
		rw:   rw,
		conn: conn,
		kex:  kex,
		log:  log.WithField("component", "ssh-transport"),
	}

	if err := kex.RunInitial(); err != nil {
		return nil, err
	}
	t.log.Info("key exchange complete")
	return t, nil
}

// SetMetrics attaches an optional metrics sink to both the connection
// and the KEX engine.
func (t *Transport) SetMetrics(m *Metrics) {
	t.conn.SetMetrics(m)
	t.kex.SetMetrics(m)
}

// Send transmits one transport-level payload (spec.md section 6:
// send(payload)).
func (t *Transport) Send(payload []byte) error {
	return t.conn.Send(payload)
}

// Recv returns the next non-transport payload (spec.md section 6:
// recv_skip_transport() -> payload), transparently handling any
// peer-initiated rekey along the way.
func (t *Transport) Recv() ([]byte, error) {
	return t.conn.Recv()
}

// Rekey explicitly initiates a new key exchange on this connection
// (spec.md section 6: rekey()); spec.md non-goals exclude any
// automatic data-volume trigger, so this is the only rekey path the
// caller doesn't have pushed on it by the peer.
func (t *Transport) Rekey() error {
	return t.kex.Rekey()
}

// SessionID returns the exchange hash of the first key exchange on
// this connection, stable across any subsequent rekey (spec.md
// section 4.5's session_id invariant).
func (t *Transport) SessionID() []byte {
	return t.kex.SessionID()
}

// Close sends a best-effort DISCONNECT and closes the underlying
// connection.
func (t *Transport) Close(reason uint32, msg string) error {
	t.conn.SendDisconnect(reason, msg)
	return t.rw.Close()
}

// Dial connects to addr and performs the initial key exchange,
// reading and discarding nothing of the version banner itself — the
// caller supplies clientVersion/serverVersion because that exchange
// is out of scope per spec.md section 1. Most callers instead hold
// their own net.Conn and version strings and call NewTransport
// directly; Dial exists for the common case where a caller just wants
// a ready connection.
func Dial(network, addr string, config *ClientConfig, clientVersion, serverVersion []byte) (*Transport, error) {
	conn, err := net.Dial(network, addr)
	if err != nil {
		return nil, err
	}
	t, err := NewTransport(conn, config, clientVersion, serverVersion, addr)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return t, nil
}
