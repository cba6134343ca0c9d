// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssh

import (
	"crypto/rand"
	"io"
)

// compressionNone is the only compression method this client offers
// or accepts; compression itself is a spec.md non-goal.
const compressionNone = "none"

// defaultKexAlgos is the client's key-exchange preference list, in
// order, grounded on the teacher's defaultKexAlgos in common.go but
// trimmed to the DH methods spec.md section 4.5 and section 9 name:
// the two SHA-1 groups plus the SHA-256 variant added per the Open
// Question resolution in SPEC_FULL.md section 4.5.
var defaultKexAlgos = []string{
	kexAlgoDH14SHA256,
	kexAlgoDH14SHA1,
	kexAlgoDH1SHA1,
}

// findCommon returns the first entry of client that also appears in
// server, per spec.md section 4.5's negotiation rule ("the first
// entry of the client's list that also appears in the server's
// list"). Grounded on the teacher's findCommon in common.go.
func findCommon(what string, client, server []string) (string, error) {
	for _, c := range client {
		for _, s := range server {
			if c == s {
				return c, nil
			}
		}
	}
	return "", negotiationFailedError(what, client, server)
}

// DirectionAlgorithms is the set of algorithms negotiated for one
// direction of the connection.
type DirectionAlgorithms struct {
	Cipher      string
	MAC         string
	Compression string
}

// Algorithms is the full negotiated algorithm set for a KEX run,
// grounded on the teacher's Algorithms type in common.go.
type Algorithms struct {
	Kex     string
	HostKey string
	W       DirectionAlgorithms // client -> server
	R       DirectionAlgorithms // server -> client
}

// findAgreedAlgorithms negotiates every category spec.md section 4.5
// requires: kex, host-key, cipher (both directions), MAC (both
// directions), compression (both directions). Any missing match is
// NegotiationFailed{category}.
func findAgreedAlgorithms(clientInit, serverInit *kexInitMsg) (*Algorithms, error) {
	result := &Algorithms{}
	var err error

	if result.Kex, err = findCommon("key exchange", clientInit.KexAlgos, serverInit.KexAlgos); err != nil {
		return nil, err
	}
	if result.HostKey, err = findCommon("host key", clientInit.ServerHostKeyAlgos, serverInit.ServerHostKeyAlgos); err != nil {
		return nil, err
	}
	if result.W.Cipher, err = findCommon("client to server cipher", clientInit.CiphersClientServer, serverInit.CiphersClientServer); err != nil {
		return nil, err
	}
	if result.R.Cipher, err = findCommon("server to client cipher", clientInit.CiphersServerClient, serverInit.CiphersServerClient); err != nil {
		return nil, err
	}
	if result.W.MAC, err = findCommon("client to server MAC", clientInit.MACsClientServer, serverInit.MACsClientServer); err != nil {
		return nil, err
	}
	if result.R.MAC, err = findCommon("server to client MAC", clientInit.MACsServerClient, serverInit.MACsServerClient); err != nil {
		return nil, err
	}
	if result.W.Compression, err = findCommon("client to server compression", clientInit.CompressionClientServer, serverInit.CompressionClientServer); err != nil {
		return nil, err
	}
	if result.R.Compression, err = findCommon("server to client compression", clientInit.CompressionServerClient, serverInit.CompressionServerClient); err != nil {
		return nil, err
	}
	return result, nil
}

// Config holds the client-tunable algorithm preferences, grounded on
// the teacher's Config struct in common.go, trimmed to the fields a
// transport-only client needs (no RekeyThreshold-triggered rekey:
// spec.md non-goals exclude data-volume rekey).
type Config struct {
	// Rand is the source of entropy for padding and DH secrets. The
	// zero value uses crypto/rand.Reader, the same default the
	// teacher's Config.SetDefaults establishes.
	Rand io.Reader

	// KeyExchanges is the client's KEX preference list. Nil selects
	// defaultKexAlgos.
	KeyExchanges []string

	// Ciphers is the client's cipher preference list, used for both
	// directions. Nil selects supportedCiphers.
	Ciphers []string

	// MACs is the client's MAC preference list, used for both
	// directions. Nil selects supportedMACs.
	MACs []string
}

// SetDefaults fills unset fields with the package defaults, grounded
// on the teacher's Config.SetDefaults.
func (c *Config) SetDefaults() {
	if c.Rand == nil {
		c.Rand = rand.Reader
	}
	if c.Ciphers == nil {
		c.Ciphers = supportedCiphers
	}
	if c.KeyExchanges == nil {
		c.KeyExchanges = defaultKexAlgos
	}
	if c.MACs == nil {
		c.MACs = supportedMACs
	}
}
