// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssh

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBufferU8RoundTrip(t *testing.T) {
	b := NewBuffer(nil)
	b.WriteU8(0x42)
	v, err := b.ReadU8()
	require.NoError(t, err)
	require.Equal(t, uint8(0x42), v)
}

func TestBufferU32RoundTrip(t *testing.T) {
	b := NewBuffer(nil)
	b.WriteU32BE(0xDEADBEEF)
	v, err := b.ReadU32BE()
	require.NoError(t, err)
	require.Equal(t, uint32(0xDEADBEEF), v)
}

func TestBufferStringRoundTrip(t *testing.T) {
	b := NewBuffer(nil)
	b.WriteString([]byte("hello"))
	v, err := b.ReadString()
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), v)
}

func TestBufferReadTruncated(t *testing.T) {
	b := NewBuffer([]byte{0x00, 0x00, 0x00, 0x05, 'h', 'i'})
	_, err := b.ReadString()
	require.Error(t, err)
	te, ok := err.(*TransportError)
	require.True(t, ok)
	require.Equal(t, ErrTruncated, te.Category)
}

func TestBufferMpintRoundTrip(t *testing.T) {
	for _, v := range []*big.Int{
		big.NewInt(0),
		big.NewInt(1),
		big.NewInt(0x80),
		new(big.Int).Lsh(big.NewInt(1), 2048),
	} {
		b := NewBuffer(nil)
		b.WriteMpint(v)
		got, err := b.ReadMpint()
		require.NoError(t, err)
		require.Equal(t, 0, v.Cmp(got), "mpint round-trip mismatch for %v", v)
	}
}

// TestBufferMpintHighBitPadded checks the canonical mpint rule RFC
// 4251 section 5 requires: a positive value whose top byte has the
// high bit set gets an extra leading zero byte.
func TestBufferMpintHighBitPadded(t *testing.T) {
	v := big.NewInt(0x80)
	b := NewBuffer(nil)
	b.WriteMpint(v)
	raw, err := b.ReadString()
	require.NoError(t, err)
	require.Equal(t, []byte{0x00, 0x80}, raw)
}

func TestNameListRoundTrip(t *testing.T) {
	b := NewBuffer(nil)
	names := []string{"diffie-hellman-group14-sha256", "diffie-hellman-group14-sha1"}
	b.WriteNameList(names)
	got, err := parseNameList(b)
	require.NoError(t, err)
	require.Equal(t, names, got)
}

func TestNameListEmpty(t *testing.T) {
	b := NewBuffer(nil)
	b.WriteNameList(nil)
	got, err := parseNameList(b)
	require.NoError(t, err)
	require.Nil(t, got)
}
