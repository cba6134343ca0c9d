// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssh

import (
	"bytes"
	"net"
)

// HostKeyCallback validates the server-presented public key against
// a trusted record, per spec.md section 4.5's "Host identity check".
// A full trust store (known_hosts parsing, TOFU, CA verification) is
// out of scope per spec.md section 1; this package only supplies the
// contract and two trivial implementations, grounded on the
// teacher's ClientConfig.HostKeyCallback field in client.go.
type HostKeyCallback func(hostname string, remote net.Addr, key PublicKey) error

// FixedHostKey returns a HostKeyCallback that accepts only the exact
// key given, by comparing marshaled blobs.
func FixedHostKey(key PublicKey) HostKeyCallback {
	want := key.Marshal()
	return func(hostname string, remote net.Addr, got PublicKey) error {
		if !bytes.Equal(want, got.Marshal()) {
			return untrustedHostError("host key does not match pinned key for " + hostname)
		}
		return nil
	}
}

// InsecureIgnoreHostKey returns a HostKeyCallback that accepts any
// host key. Intended only for tests against a throwaway server.
func InsecureIgnoreHostKey() HostKeyCallback {
	return func(hostname string, remote net.Addr, key PublicKey) error {
		return nil
	}
}
