// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssh

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestCalcPadLenMinimum covers P1/P2: (packet_length+4) is a multiple
// of the block size, and padding_length is always within [4, 255].
func TestCalcPadLenMinimum(t *testing.T) {
	// Scenario 1/2: 5 reserved bytes + a 6-byte payload = 11 bytes
	// before padding, block size 8 (no cipher installed).
	padLen := calcPadLen(11, 8)
	require.Equal(t, 5, padLen)
	require.True(t, padLen >= 4 && padLen <= 255)
	packetLength := 11 + padLen - 4 // padding_length field + payload + padding
	require.Equal(t, 0, (packetLength+4)%8)
}

// TestCalcPadLenForcesMinimumFour checks the "pad < 4" bump: when the
// natural remainder already leaves less than 4 bytes of padding, a
// full extra block is added.
func TestCalcPadLenForcesMinimumFour(t *testing.T) {
	// before-padding length 13: 8 - 13%8 = 3, under the minimum of 4,
	// so a full block is added (3 + 8 = 11).
	padLen := calcPadLen(13, 8)
	require.Equal(t, 11, padLen)
}

// TestNullCipherRoundTrip is scenario 1: a null-cipher, null-MAC
// send/receive round-trip. The worked byte listing in the source
// specification transcribes payload length and padding_length
// inconsistently (it shows padding_length=6 and 6 trailing 0xFF bytes
// while also declaring packet_length=12, which only has room for a
// 5-byte pad); this test asserts the arithmetically consistent
// rendition — packet_length=12, padding_length=5 — and checks the
// round-trip property (P3) that actually matters.
func TestNullCipherRoundTrip(t *testing.T) {
	out := NewStream(rand.Reader)
	in := NewStream(rand.Reader)

	payload := []byte{0x05, 'h', 'e', 'l', 'l', 'o'}
	pack := out.NewPacket()
	pack.Append(payload)

	var wire bytes.Buffer
	require.NoError(t, out.Send(&wire, pack))

	wireBytes := wire.Bytes()
	require.Equal(t, 16, len(wireBytes), "4-byte length + 1 pad-len + 6 payload + 5 padding")
	require.Equal(t, []byte{0x00, 0x00, 0x00, 0x0C}, wireBytes[0:4])
	require.Equal(t, byte(5), wireBytes[4])
	require.Equal(t, payload, wireBytes[5:11])
	for _, b := range wireBytes[11:] {
		require.Equal(t, byte(0xFF), b, "plaintext padding must be 0xFF, never random")
	}

	got, err := in.Recv(&wire)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

// TestPaddingMinimumEightByteBlock is scenario 2.
func TestPaddingMinimumEightByteBlock(t *testing.T) {
	padLen := calcPadLen(5+3, 8)
	require.Equal(t, 8, padLen)
	packetLength := 1 + 3 + padLen
	require.Equal(t, 12, packetLength)
	require.Equal(t, 0, (packetLength+4)%8)
}

// TestInvalidLengthRejected is scenario 3.
func TestInvalidLengthRejected(t *testing.T) {
	in := NewStream(rand.Reader)
	wire := bytes.NewReader([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0x04, 0, 0, 0})
	_, err := in.Recv(wire)
	require.Error(t, err)
	te, ok := err.(*TransportError)
	require.True(t, ok)
	require.Equal(t, ErrInvalidLength, te.Category)
}

// TestMacMismatchIsTerminal is scenario 4 / P4: a flipped payload bit
// fails MAC verification, and the sequence-number divergence it
// leaves behind makes the NEXT (otherwise valid) packet fail too.
func TestMacMismatchIsTerminal(t *testing.T) {
	key := bytes.Repeat([]byte{0x11}, 20)
	outMAC, err := newMACContext(macHMACSHA1, key)
	require.NoError(t, err)
	inMAC, err := newMACContext(macHMACSHA1, key)
	require.NoError(t, err)

	out := &Stream{rand: rand.Reader, mac: outMAC}
	in := &Stream{rand: rand.Reader, mac: inMAC}

	var wire bytes.Buffer
	pack := out.NewPacket()
	pack.Append([]byte("first packet payload"))
	require.NoError(t, out.Send(&wire, pack))

	corrupted := wire.Bytes()
	corrupted[len(corrupted)-1-outMAC.length] ^= 0x01 // flip a payload/padding bit, not the MAC itself

	_, err = in.Recv(bytes.NewReader(corrupted))
	require.Error(t, err)
	te, ok := err.(*TransportError)
	require.True(t, ok)
	require.Equal(t, ErrMacMismatch, te.Category)
	require.Equal(t, uint32(0), in.SeqNum(), "receiver must not advance seq_num on a failed packet")

	// Sender moves on to a second, legitimate packet...
	pack2 := out.NewPacket()
	pack2.Append([]byte("second packet payload"))
	var wire2 bytes.Buffer
	require.NoError(t, out.Send(&wire2, pack2))

	// ...but the receiver's seq_num has diverged from the sender's
	// (it's still 0, the sender is now at 1), so this otherwise
	// perfectly valid packet also fails MAC verification.
	_, err = in.Recv(&wire2)
	require.Error(t, err)
	te2, ok := err.(*TransportError)
	require.True(t, ok)
	require.Equal(t, ErrMacMismatch, te2.Category)
}

// TestInstallKeysZeroesKeyMaterial checks the resource-teardown rule
// of spec.md section 5: InstallKeys zeroes the key/iv slices it was
// handed once the new contexts are built.
func TestInstallKeysZeroesKeyMaterial(t *testing.T) {
	s := NewStream(rand.Reader)
	key := bytes.Repeat([]byte{0xAB}, 16)
	mac := bytes.Repeat([]byte{0xCD}, 32)
	iv := bytes.Repeat([]byte{0xEF}, 16)
	require.NoError(t, s.InstallKeys(cipherAES128CTR, macHMACSHA256, key, mac, iv, true))
	require.True(t, bytes.Equal(key, make([]byte, 16)))
	require.True(t, bytes.Equal(mac, make([]byte, 32)))
	require.True(t, bytes.Equal(iv, make([]byte, 16)))
}

// TestCipherRoundTripAllNegotiatedCombinations is P2/P3 across every
// supportedCiphers x supportedMACs pairing.
func TestCipherRoundTripAllNegotiatedCombinations(t *testing.T) {
	for _, cipherName := range supportedCiphers {
		for _, macName := range supportedMACs {
			t.Run(cipherName+"/"+macName, func(t *testing.T) {
				info := cipherModes[cipherName]
				key := bytes.Repeat([]byte{0x42}, info.keySize)
				iv := bytes.Repeat([]byte{0x24}, info.ivSize)
				macInfo := macModes[macName]
				macKey := bytes.Repeat([]byte{0x99}, macInfo.keySize)

				out := NewStream(rand.Reader)
				in := NewStream(rand.Reader)
				require.NoError(t, out.InstallKeys(cipherName, macName, append([]byte(nil), key...), append([]byte(nil), macKey...), append([]byte(nil), iv...), true))
				require.NoError(t, in.InstallKeys(cipherName, macName, append([]byte(nil), key...), append([]byte(nil), macKey...), append([]byte(nil), iv...), false))

				payload := []byte("the quick brown fox jumps over the lazy dog")
				pack := out.NewPacket()
				pack.Append(payload)
				var wire bytes.Buffer
				require.NoError(t, out.Send(&wire, pack))

				got, err := in.Recv(&wire)
				require.NoError(t, err)
				require.Equal(t, payload, got)
			})
		}
	}
}
