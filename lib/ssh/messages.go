// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssh

import "math/big"

// kexInitMsg is the SSH_MSG_KEXINIT payload (spec.md section 6):
// cookie, ten name-lists, first_kex_packet_follows, reserved uint32.
type kexInitMsg struct {
	Cookie                  [16]byte
	KexAlgos                []string
	ServerHostKeyAlgos      []string
	CiphersClientServer     []string
	CiphersServerClient     []string
	MACsClientServer        []string
	MACsServerClient        []string
	CompressionClientServer []string
	CompressionServerClient []string
	LanguagesClientServer   []string
	LanguagesServerClient   []string
	FirstKexFollows         bool
	Reserved                uint32
}

// marshal encodes the message including the leading msgKexInit type
// byte, so the result is ready to pass to a packet stream's Send.
func (m *kexInitMsg) marshal() []byte {
	b := NewBuffer(nil)
	b.WriteU8(msgKexInit)
	b.Append(m.Cookie[:])
	b.WriteNameList(m.KexAlgos)
	b.WriteNameList(m.ServerHostKeyAlgos)
	b.WriteNameList(m.CiphersClientServer)
	b.WriteNameList(m.CiphersServerClient)
	b.WriteNameList(m.MACsClientServer)
	b.WriteNameList(m.MACsServerClient)
	b.WriteNameList(m.CompressionClientServer)
	b.WriteNameList(m.CompressionServerClient)
	b.WriteNameList(m.LanguagesClientServer)
	b.WriteNameList(m.LanguagesServerClient)
	if m.FirstKexFollows {
		b.WriteU8(1)
	} else {
		b.WriteU8(0)
	}
	b.WriteU32BE(m.Reserved)
	return b.Bytes()
}

func parseNameList(b *Buffer) ([]string, error) {
	raw, err := b.ReadString()
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var names []string
	start := 0
	for i := 0; i <= len(raw); i++ {
		if i == len(raw) || raw[i] == ',' {
			names = append(names, string(raw[start:i]))
			start = i + 1
		}
	}
	return names, nil
}

// unmarshalKexInit parses a payload, including the leading type byte,
// into a kexInitMsg.
func unmarshalKexInit(payload []byte) (*kexInitMsg, error) {
	b := NewBuffer(payload)
	typ, err := b.ReadU8()
	if err != nil {
		return nil, err
	}
	if typ != msgKexInit {
		return nil, unexpectedMessageError(msgKexInit, typ)
	}
	m := &kexInitMsg{}
	cookie, err := readFixed(b, 16)
	if err != nil {
		return nil, err
	}
	copy(m.Cookie[:], cookie)

	fields := []*[]string{
		&m.KexAlgos, &m.ServerHostKeyAlgos,
		&m.CiphersClientServer, &m.CiphersServerClient,
		&m.MACsClientServer, &m.MACsServerClient,
		&m.CompressionClientServer, &m.CompressionServerClient,
		&m.LanguagesClientServer, &m.LanguagesServerClient,
	}
	for _, f := range fields {
		*f, err = parseNameList(b)
		if err != nil {
			return nil, err
		}
	}
	follows, err := b.ReadU8()
	if err != nil {
		return nil, err
	}
	m.FirstKexFollows = follows != 0
	m.Reserved, err = b.ReadU32BE()
	if err != nil {
		return nil, err
	}
	return m, nil
}

func readFixed(b *Buffer, n int) ([]byte, error) {
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		v, err := b.ReadU8()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// kexDHInitMsg is SSH_MSG_KEXDH_INIT: the client's DH public value e.
type kexDHInitMsg struct {
	E *big.Int
}

func (m *kexDHInitMsg) marshal() []byte {
	b := NewBuffer(nil)
	b.WriteU8(msgKexDHInit)
	b.WriteMpint(m.E)
	return b.Bytes()
}

// kexDHReplyMsg is SSH_MSG_KEXDH_REPLY: server host key blob, DH
// public value f, and the signature over the exchange hash.
type kexDHReplyMsg struct {
	HostKey   []byte
	F         *big.Int
	Signature []byte
}

func unmarshalKexDHReply(payload []byte) (*kexDHReplyMsg, error) {
	b := NewBuffer(payload)
	typ, err := b.ReadU8()
	if err != nil {
		return nil, err
	}
	if typ != msgKexDHReply {
		return nil, unexpectedMessageError(msgKexDHReply, typ)
	}
	m := &kexDHReplyMsg{}
	hostKey, err := b.ReadString()
	if err != nil {
		return nil, err
	}
	m.HostKey = append([]byte(nil), hostKey...)
	if m.F, err = b.ReadMpint(); err != nil {
		return nil, err
	}
	sig, err := b.ReadString()
	if err != nil {
		return nil, err
	}
	m.Signature = append([]byte(nil), sig...)
	return m, nil
}

// disconnectMsg is SSH_MSG_DISCONNECT: reason code, human-readable
// message, and language tag (spec.md section 4.4).
type disconnectMsg struct {
	Reason  uint32
	Message string
	Lang    string
}

func (m *disconnectMsg) marshal() []byte {
	b := NewBuffer(nil)
	b.WriteU8(msgDisconnect)
	b.WriteU32BE(m.Reason)
	b.WriteString([]byte(m.Message))
	b.WriteString([]byte(m.Lang))
	return b.Bytes()
}

func unmarshalDisconnect(payload []byte) (*disconnectMsg, error) {
	b := NewBuffer(payload)
	if _, err := b.ReadU8(); err != nil {
		return nil, err
	}
	m := &disconnectMsg{}
	var err error
	if m.Reason, err = b.ReadU32BE(); err != nil {
		return nil, err
	}
	msg, err := b.ReadString()
	if err != nil {
		return nil, err
	}
	m.Message = string(msg)
	lang, err := b.ReadString()
	if err != nil {
		return nil, err
	}
	m.Lang = string(lang)
	return m, nil
}

// debugMsg is SSH_MSG_DEBUG: AlwaysDisplay, Message, Lang.
type debugMsg struct {
	AlwaysDisplay bool
	Message       string
	Lang          string
}

func unmarshalDebug(payload []byte) (*debugMsg, error) {
	b := NewBuffer(payload)
	if _, err := b.ReadU8(); err != nil {
		return nil, err
	}
	m := &debugMsg{}
	always, err := b.ReadU8()
	if err != nil {
		return nil, err
	}
	m.AlwaysDisplay = always != 0
	msg, err := b.ReadString()
	if err != nil {
		return nil, err
	}
	m.Message = string(msg)
	lang, err := b.ReadString()
	if err != nil {
		return nil, err
	}
	m.Lang = string(lang)
	return m, nil
}
