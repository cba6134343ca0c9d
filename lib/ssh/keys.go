// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssh

import (
	"crypto"
	"crypto/dsa"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"math/big"
)

// Host-key algorithm names, grounded on the teacher's
// supportedHostKeyAlgos table in common.go, trimmed to plain keys
// (no CertAlgoXxxx entries: certificate-based host keys are part of
// the host-key trust store, out of scope per spec.md section 1).
const (
	KeyAlgoRSA       = "ssh-rsa"
	KeyAlgoDSA       = "ssh-dss"
	KeyAlgoECDSA256  = "ecdsa-sha2-nistp256"
	KeyAlgoECDSA384  = "ecdsa-sha2-nistp384"
	KeyAlgoECDSA521  = "ecdsa-sha2-nistp521"
	KeyAlgoED25519   = "ssh-ed25519"
)

var supportedHostKeyAlgos = []string{
	KeyAlgoED25519,
	KeyAlgoECDSA256, KeyAlgoECDSA384, KeyAlgoECDSA521,
	KeyAlgoRSA, KeyAlgoDSA,
}

// hashFuncs maps a host-key algorithm to the hash used to digest the
// signed data before signature verification, grounded on the
// teacher's hashFuncs table in common.go.
var hashFuncs = map[string]crypto.Hash{
	KeyAlgoRSA:      crypto.SHA1,
	KeyAlgoDSA:      crypto.SHA1,
	KeyAlgoECDSA256: crypto.SHA256,
	KeyAlgoECDSA384: crypto.SHA384,
	KeyAlgoECDSA521: crypto.SHA512,
}

// PublicKey is the abstract "Public key" collaborator of spec.md
// section 6: Verify(algo, key_blob, sig_blob, data). Parsing happens
// once in ParsePublicKey; Verify then only needs the signature blob
// and the signed data (the exchange hash H, per spec.md section 4.5).
type PublicKey interface {
	Type() string
	Marshal() []byte
	Verify(data, sig []byte) error
}

// ParsePublicKey parses an SSH public-key blob (algorithm-name string
// followed by algorithm-specific fields) into a PublicKey, grounded
// on the wire shapes RFC 4253 section 6.6 specifies and on the
// algorithm set named in supportedHostKeyAlgos above.
func ParsePublicKey(blob []byte) (PublicKey, error) {
	b := NewBuffer(blob)
	algoRaw, err := b.ReadString()
	if err != nil {
		return nil, err
	}
	algo := string(algoRaw)

	switch algo {
	case KeyAlgoRSA:
		e, err := b.ReadMpint()
		if err != nil {
			return nil, err
		}
		n, err := b.ReadMpint()
		if err != nil {
			return nil, err
		}
		return &rsaPublicKey{PublicKey: rsa.PublicKey{E: int(e.Int64()), N: n}, blob: append([]byte(nil), blob...)}, nil

	case KeyAlgoDSA:
		p, err := b.ReadMpint()
		if err != nil {
			return nil, err
		}
		q, err := b.ReadMpint()
		if err != nil {
			return nil, err
		}
		g, err := b.ReadMpint()
		if err != nil {
			return nil, err
		}
		y, err := b.ReadMpint()
		if err != nil {
			return nil, err
		}
		key := &dsa.PublicKey{
			Parameters: dsa.Parameters{P: p, Q: q, G: g},
			Y:          y,
		}
		return &dsaPublicKey{PublicKey: key, blob: append([]byte(nil), blob...)}, nil

	case KeyAlgoECDSA256, KeyAlgoECDSA384, KeyAlgoECDSA521:
		curveID, err := b.ReadString()
		if err != nil {
			return nil, err
		}
		point, err := b.ReadString()
		if err != nil {
			return nil, err
		}
		curve, err := curveForAlgo(algo, string(curveID))
		if err != nil {
			return nil, err
		}
		x, y := unmarshalECPoint(curve, point)
		if x == nil {
			return nil, badSignatureError("invalid ECDSA point")
		}
		key := &ecdsa.PublicKey{Curve: curve, X: x, Y: y}
		return &ecdsaPublicKey{PublicKey: key, algo: algo, blob: append([]byte(nil), blob...)}, nil

	case KeyAlgoED25519:
		keyBytes, err := b.ReadString()
		if err != nil {
			return nil, err
		}
		return &ed25519PublicKey{key: ed25519.PublicKey(append([]byte(nil), keyBytes...)), blob: append([]byte(nil), blob...)}, nil
	}

	return nil, badSignatureError("unsupported host key algorithm " + algo)
}

// parseSignatureBlob parses the SSH signature blob of spec.md section
// 4.5: an algorithm-name string followed by algorithm-specific
// signature bytes.
func parseSignatureBlob(blob []byte) (algo string, sig []byte, err error) {
	b := NewBuffer(blob)
	algoRaw, err := b.ReadString()
	if err != nil {
		return "", nil, err
	}
	sigRaw, err := b.ReadString()
	if err != nil {
		return "", nil, err
	}
	if b.Remaining() != 0 {
		return "", nil, badSignatureError("trailing bytes after signature blob")
	}
	return string(algoRaw), append([]byte(nil), sigRaw...), nil
}

type rsaPublicKey struct {
	rsa.PublicKey
	blob []byte
}

func (k *rsaPublicKey) Type() string   { return KeyAlgoRSA }
func (k *rsaPublicKey) Marshal() []byte { return k.blob }

func (k *rsaPublicKey) Verify(data, sigBlob []byte) error {
	algo, sig, err := parseSignatureBlob(sigBlob)
	if err != nil {
		return err
	}
	if algo != KeyAlgoRSA {
		return badSignatureError("signature algorithm " + algo + " does not match key algorithm " + KeyAlgoRSA)
	}
	h := sha1.Sum(data)
	if err := rsa.VerifyPKCS1v15(&k.PublicKey, crypto.SHA1, h[:], sig); err != nil {
		return badSignatureError(err.Error())
	}
	return nil
}

type dsaPublicKey struct {
	*dsa.PublicKey
	blob []byte
}

func (k *dsaPublicKey) Type() string   { return KeyAlgoDSA }
func (k *dsaPublicKey) Marshal() []byte { return k.blob }

func (k *dsaPublicKey) Verify(data, sigBlob []byte) error {
	algo, sig, err := parseSignatureBlob(sigBlob)
	if err != nil {
		return err
	}
	if algo != KeyAlgoDSA {
		return badSignatureError("signature algorithm " + algo + " does not match key algorithm " + KeyAlgoDSA)
	}
	if len(sig) != 40 {
		return badSignatureError("DSA signature must be 40 bytes")
	}
	r := new(big.Int).SetBytes(sig[:20])
	s := new(big.Int).SetBytes(sig[20:])
	h := sha1.Sum(data)
	if !dsa.Verify(k.PublicKey, h[:], r, s) {
		return badSignatureError("DSA verification failed")
	}
	return nil
}

type ecdsaPublicKey struct {
	*ecdsa.PublicKey
	algo string
	blob []byte
}

func (k *ecdsaPublicKey) Type() string   { return k.algo }
func (k *ecdsaPublicKey) Marshal() []byte { return k.blob }

func (k *ecdsaPublicKey) Verify(data, sigBlob []byte) error {
	algo, sig, err := parseSignatureBlob(sigBlob)
	if err != nil {
		return err
	}
	if algo != k.algo {
		return badSignatureError("signature algorithm " + algo + " does not match key algorithm " + k.algo)
	}
	b := NewBuffer(sig)
	r, err := b.ReadMpint()
	if err != nil {
		return err
	}
	s, err := b.ReadMpint()
	if err != nil {
		return err
	}
	digest := hashFuncs[k.algo]
	sum := hashBytes(digest, data)
	if !ecdsa.Verify(k.PublicKey, sum, r, s) {
		return badSignatureError("ECDSA verification failed")
	}
	return nil
}

func hashBytes(h crypto.Hash, data []byte) []byte {
	switch h {
	case crypto.SHA256:
		s := sha256.Sum256(data)
		return s[:]
	case crypto.SHA384:
		s := sha512.Sum384(data)
		return s[:]
	case crypto.SHA512:
		s := sha512.Sum512(data)
		return s[:]
	default:
		s := sha1.Sum(data)
		return s[:]
	}
}

type ed25519PublicKey struct {
	key  ed25519.PublicKey
	blob []byte
}

func (k *ed25519PublicKey) Type() string   { return KeyAlgoED25519 }
func (k *ed25519PublicKey) Marshal() []byte { return k.blob }

func (k *ed25519PublicKey) Verify(data, sigBlob []byte) error {
	algo, sig, err := parseSignatureBlob(sigBlob)
	if err != nil {
		return err
	}
	if algo != KeyAlgoED25519 {
		return badSignatureError("signature algorithm " + algo + " does not match key algorithm " + KeyAlgoED25519)
	}
	if !ed25519.Verify(k.key, data, sig) {
		return badSignatureError("ed25519 verification failed")
	}
	return nil
}
