// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssh

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/des"
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"hash"
)

// Cipher/MAC algorithm names, grounded on the teacher's
// defaultCiphers/allSupportedCiphers/supportedMACs tables in
// common.go, trimmed to the algorithms spec.md section 3 names
// ("3des-cbc, aes128-cbc, aes256-ctr, ...") plus the two MACs
// scenario 4/5 of spec.md section 8 exercise.
const (
	cipherNone       = "none"
	cipher3DESCBC    = "3des-cbc"
	cipherAES128CBC  = "aes128-cbc"
	cipherAES256CTR  = "aes256-ctr"
	cipherAES128CTR  = "aes128-ctr"

	macNone       = "none"
	macHMACSHA1   = "hmac-sha1"
	macHMACSHA256 = "hmac-sha2-256"
)

var supportedCiphers = []string{cipherAES128CTR, cipherAES256CTR, cipherAES128CBC, cipher3DESCBC}

var supportedMACs = []string{macHMACSHA256, macHMACSHA1}

var supportedCompressions = []string{compressionNone}

// packetCipher processes whole packets in place, retaining chaining
// state (CBC IV / CTR counter) across calls, matching the "cipher
// context" of spec.md section 3.
type packetCipher interface {
	// XORKeyStream/CryptBlocks the entirety of src into dst. len(src)
	// must be a multiple of blockSize.
	crypt(dst, src []byte) error
	blockSize() int
}

type cipherModeInfo struct {
	keySize   int
	ivSize    int
	blockSize int
	create    func(key, iv []byte, isWrite bool) (packetCipher, error)
}

var cipherModes = map[string]*cipherModeInfo{
	cipherAES128CTR: {keySize: 16, ivSize: aes.BlockSize, blockSize: aes.BlockSize, create: newCTRCipher},
	cipherAES256CTR: {keySize: 32, ivSize: aes.BlockSize, blockSize: aes.BlockSize, create: newCTRCipher},
	cipherAES128CBC: {keySize: 16, ivSize: aes.BlockSize, blockSize: aes.BlockSize, create: newCBCCipher},
	cipher3DESCBC:   {keySize: 24, ivSize: des.BlockSize, blockSize: des.BlockSize, create: newCBCCipher},
}

type ctrCipher struct {
	stream    cipher.Stream
	blockSize int
}

func (c *ctrCipher) crypt(dst, src []byte) error {
	c.stream.XORKeyStream(dst, src)
	return nil
}

func (c *ctrCipher) blockSize() int { return c.blockSize }

func newCTRCipher(key, iv []byte, isWrite bool) (packetCipher, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, cipherError("%v", err)
	}
	return &ctrCipher{stream: cipher.NewCTR(block, iv), blockSize: aes.BlockSize}, nil
}

type cbcCipher struct {
	mode      cipher.BlockMode
	blockSize int
}

func (c *cbcCipher) crypt(dst, src []byte) error {
	if len(src)%c.blockSize != 0 {
		return cipherError("input not a multiple of the block size")
	}
	c.mode.CryptBlocks(dst, src)
	return nil
}

func (c *cbcCipher) blockSize() int { return c.blockSize }

func newCBCCipher(key, iv []byte, isWrite bool) (packetCipher, error) {
	var block cipher.Block
	var err error
	switch len(key) {
	case 24:
		block, err = des.NewTripleDESCipher(key)
	default:
		block, err = aes.NewCipher(key)
	}
	if err != nil {
		return nil, cipherError("%v", err)
	}
	var mode cipher.BlockMode
	if isWrite {
		mode = cipher.NewCBCEncrypter(block, iv)
	} else {
		mode = cipher.NewCBCDecrypter(block, iv)
	}
	return &cbcCipher{mode: mode, blockSize: block.BlockSize()}, nil
}

// newPacketCipher constructs the packetCipher for name, using key and
// iv of the lengths cipherModes[name] specifies. name == "none"
// yields a nil packetCipher, which transport.go treats as "no
// encryption installed".
func newPacketCipher(name string, key, iv []byte, isWrite bool) (packetCipher, error) {
	if name == cipherNone {
		return nil, nil
	}
	info, ok := cipherModes[name]
	if !ok {
		return nil, cipherError("unsupported cipher %q", name)
	}
	return info.create(key, iv, isWrite)
}

// cipherBlockSize returns the block size to use for padding and
// length-discovery per spec.md section 3: max(cipher_block_len, 8).
func cipherBlockSize(name string) int {
	info, ok := cipherModes[name]
	if !ok {
		return 8
	}
	if info.blockSize < 8 {
		return 8
	}
	return info.blockSize
}

// macModeInfo describes a MAC algorithm: key size and the hash
// constructor HMAC is built from.
type macModeInfo struct {
	keySize int
	length  int
	newHash func() hash.Hash
}

var macModes = map[string]*macModeInfo{
	macHMACSHA1:   {keySize: 20, length: 20, newHash: sha1.New},
	macHMACSHA256: {keySize: 32, length: 32, newHash: sha256.New},
}

// macContext wraps an HMAC keyed per spec.md section 6: compute(key,
// seq_num_u32_be, packet_bytes).
type macContext struct {
	mac    hash.Hash
	length int
}

func newMACContext(name string, key []byte) (*macContext, error) {
	if name == macNone {
		return nil, nil
	}
	info, ok := macModes[name]
	if !ok {
		return nil, cipherError("unsupported MAC %q", name)
	}
	return &macContext{mac: hmac.New(info.newHash, key), length: info.length}, nil
}

// compute returns MAC(key, seq_num || plaintext_packet), per spec.md
// section 4.2 step 5 / section 4.3 step 7.
func (m *macContext) compute(seqNum uint32, packet []byte) []byte {
	m.mac.Reset()
	var seqBytes [4]byte
	seqBytes[0] = byte(seqNum >> 24)
	seqBytes[1] = byte(seqNum >> 16)
	seqBytes[2] = byte(seqNum >> 8)
	seqBytes[3] = byte(seqNum)
	m.mac.Write(seqBytes[:])
	m.mac.Write(packet)
	return m.mac.Sum(nil)
}
