// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssh

import (
	"crypto/elliptic"
	"math/big"
)

// curveForAlgo maps a host-key algorithm and its advertised curve
// identifier to the matching elliptic.Curve, rejecting any mismatch
// between the two (RFC 5656 section 3.1).
func curveForAlgo(algo, curveID string) (elliptic.Curve, error) {
	switch algo {
	case KeyAlgoECDSA256:
		if curveID != "nistp256" {
			return nil, badSignatureError("curve mismatch for " + algo)
		}
		return elliptic.P256(), nil
	case KeyAlgoECDSA384:
		if curveID != "nistp384" {
			return nil, badSignatureError("curve mismatch for " + algo)
		}
		return elliptic.P384(), nil
	case KeyAlgoECDSA521:
		if curveID != "nistp521" {
			return nil, badSignatureError("curve mismatch for " + algo)
		}
		return elliptic.P521(), nil
	}
	return nil, badSignatureError("unknown ECDSA algorithm " + algo)
}

// unmarshalECPoint decodes an uncompressed SEC1 point (0x04 || X ||
// Y), the only form RFC 5656 permits on the wire.
func unmarshalECPoint(curve elliptic.Curve, data []byte) (x, y *big.Int) {
	return elliptic.Unmarshal(curve, data)
}
