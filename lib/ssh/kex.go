// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssh

import (
	"crypto"
	"crypto/sha1"
	"crypto/sha256"
	"hash"
	"io"
	"math/big"
	"net"

	log "github.com/sirupsen/logrus"
)

// Key-exchange algorithm names. Grounded on original_source/ssh/kex_dh.c's
// dh_algos table (group1, group14) plus the group14-sha256 addition
// documented as the Open Question resolution in SPEC_FULL.md section
// 4.5.
const (
	kexAlgoDH1SHA1    = "diffie-hellman-group1-sha1"
	kexAlgoDH14SHA1   = "diffie-hellman-group14-sha1"
	kexAlgoDH14SHA256 = "diffie-hellman-group14-sha256"
)

// dhGroup is a compiled-in DH group (generator, modulus) paired with
// the hash function its kex method uses for the exchange hash and
// KDF, grounded on kex_dh.c's dh_algos table (RFC 2409 section 6.2
// group 1, RFC 3526 section 3 group 14).
type dhGroup struct {
	g, p    *big.Int
	newHash func() hash.Hash
	hashID  crypto.Hash
}

func bigHex(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 16)
	if !ok {
		panic("invalid hex constant: " + s)
	}
	return v
}

var group1Modulus = bigHex(
	"FFFFFFFFFFFFFFFFC90FDAA22168C234C4C6628B80DC1CD129024E088A67CC7" +
		"4020BBEA63B139B22514A08798E3404DDEF9519B3CD3A431B302B0A6DF25F14" +
		"374FE1356D6D51C245E485B576625E7EC6F44C42E9A637ED6B0BFF5CB6F406B" +
		"7EDEE386BFB5A899FA5AE9F24117C4B1FE649286651ECE65381FFFFFFFFFFFF" +
		"FFFF")

var group14Modulus = bigHex(
	"FFFFFFFFFFFFFFFFC90FDAA22168C234C4C6628B80DC1CD129024E088A67CC7" +
		"4020BBEA63B139B22514A08798E3404DDEF9519B3CD3A431B302B0A6DF25F14" +
		"374FE1356D6D51C245E485B576625E7EC6F44C42E9A637ED6B0BFF5CB6F406B" +
		"7EDEE386BFB5A899FA5AE9F24117C4B1FE649286651ECE45B3DC2007CB8A163" +
		"BF0598DA48361C55D39A69163FA8FD24CF5F83655D23DCA3AD961C62F356208" +
		"552BB9ED529077096966D670C354E4ABC9804F1746C08CA18217C32905E462" +
		"E36CE3BE39E772C180E86039B2783A2EC07A28FB5C55DF06F4C52C9DE2BCBF6" +
		"955817183995497CEA956AE515D2261898FA051015728E5A8AACAA68FFFFFF" +
		"FFFFFFFFFF")

var dhGroups = map[string]*dhGroup{
	kexAlgoDH1SHA1:    {g: big.NewInt(2), p: group1Modulus, newHash: sha1.New, hashID: crypto.SHA1},
	kexAlgoDH14SHA1:   {g: big.NewInt(2), p: group14Modulus, newHash: sha1.New, hashID: crypto.SHA1},
	kexAlgoDH14SHA256: {g: big.NewInt(2), p: group14Modulus, newHash: sha256.New, hashID: crypto.SHA256},
}

// handshakeMagics holds the bytes spec.md section 4.5's exchange
// hash is computed over, besides e/f/K: the raw version banners
// (without trailing CR/LF) and the two full KEXINIT payloads
// (including the msg-type byte and trailing reserved uint32, NOT
// re-encoded). Grounded on kex_dh.c's dh_kex_hash.
type handshakeMagics struct {
	clientVersion, serverVersion []byte
	clientKexInit, serverKexInit []byte
}

// kexResult is the output of one successful key exchange run.
type kexResult struct {
	H         []byte // exchange hash of THIS kex
	K         *big.Int
	HostKey   []byte
	Signature []byte
	SessionID []byte // first kex's H; unchanged across rekeys
	Algorithms *Algorithms
	hashID    crypto.Hash
}

// KexEngine drives the client-role DH key-exchange state machine of
// spec.md section 4.5 over a Connection, and derives + installs the
// per-direction keys at the NEWKEYS boundary. Grounded on the
// teacher's handshakeTransport.enterKeyExchangeLocked (control flow)
// and original_source/ssh/kex_dh.c (DH exchange itself).
type KexEngine struct {
	conn            *Connection
	config          *Config
	hostKeyCallback HostKeyCallback
	dialAddress     string
	remoteAddr      net.Addr

	clientVersion []byte
	serverVersion []byte

	sessionID []byte

	log     *log.Entry
	metrics *Metrics
}

// NewKexEngine constructs a KexEngine. clientVersion/serverVersion
// must be the version banners without trailing CR/LF, per spec.md
// section 4.5.
func NewKexEngine(conn *Connection, config *Config, clientVersion, serverVersion []byte, hostKeyCallback HostKeyCallback, dialAddress string, remoteAddr net.Addr) *KexEngine {
	return &KexEngine{
		conn:            conn,
		config:          config,
		hostKeyCallback: hostKeyCallback,
		dialAddress:     dialAddress,
		remoteAddr:      remoteAddr,
		clientVersion:   clientVersion,
		serverVersion:   serverVersion,
		log:             log.WithField("component", "ssh-kex"),
	}
}

// SetMetrics attaches an optional metrics sink.
func (k *KexEngine) SetMetrics(m *Metrics) { k.metrics = m }

// SessionID returns the exchange hash of the first successful KEX on
// this engine's connection, or nil before that completes.
func (k *KexEngine) SessionID() []byte { return k.sessionID }

func (k *KexEngine) buildKexInit() (*kexInitMsg, []byte) {
	msg := &kexInitMsg{
		KexAlgos:                k.config.KeyExchanges,
		ServerHostKeyAlgos:      supportedHostKeyAlgos,
		CiphersClientServer:     k.config.Ciphers,
		CiphersServerClient:     k.config.Ciphers,
		MACsClientServer:        k.config.MACs,
		MACsServerClient:        k.config.MACs,
		CompressionClientServer: supportedCompressions,
		CompressionServerClient: supportedCompressions,
	}
	io.ReadFull(k.config.Rand, msg.Cookie[:])
	return msg, msg.marshal()
}

// RunInitial performs the first key exchange on the connection
// (state machine IDLE through INSTALLED in spec.md section 4.5).
func (k *KexEngine) RunInitial() error {
	return k.run()
}

// Rekey performs a subsequent key exchange, explicitly requested by
// the caller; spec.md non-goals exclude data-volume-triggered
// rekeying, so this is the only way a rekey happens beyond
// HandlePeerKexInit below.
func (k *KexEngine) Rekey() error {
	return k.run()
}

// HandlePeerKexInit is the hook Connection.SetKexInitHandler installs:
// invoked when the peer spontaneously sends KEXINIT mid-stream
// (spec.md section 4.4: "may be received at any time to initiate
// rekey"). peerInitPacket is the already-received raw payload.
func (k *KexEngine) HandlePeerKexInit(peerInitPacket []byte) error {
	return k.runWithPeerInit(peerInitPacket)
}

func (k *KexEngine) run() error {
	myInit, myInitPacket := k.buildKexInit()
	if err := k.conn.Send(myInitPacket); err != nil {
		return err
	}
	peerInitPacket, err := k.conn.recvSkippingIgnore()
	if err != nil {
		return err
	}
	if peerInitPacket[0] != msgKexInit {
		return unexpectedMessageError(msgKexInit, peerInitPacket[0])
	}
	return k.negotiateAndRun(myInit, myInitPacket, peerInitPacket)
}

func (k *KexEngine) runWithPeerInit(peerInitPacket []byte) error {
	myInit, myInitPacket := k.buildKexInit()
	if err := k.conn.Send(myInitPacket); err != nil {
		return err
	}
	return k.negotiateAndRun(myInit, myInitPacket, peerInitPacket)
}

func (k *KexEngine) negotiateAndRun(myInit *kexInitMsg, myInitPacket, peerInitPacket []byte) error {
	peerInit, err := unmarshalKexInit(peerInitPacket)
	if err != nil {
		return err
	}

	// Client role: our list is the client's, the peer's is the
	// server's, per spec.md section 4.5.
	algs, err := findAgreedAlgorithms(myInit, peerInit)
	if err != nil {
		if te, ok := err.(*TransportError); ok {
			k.metrics.incNegotiationFailure(te.NegotiationCategory)
		}
		return err
	}

	group, ok := dhGroups[algs.Kex]
	if !ok {
		return unexpectedMessageError(0, 0)
	}

	magics := &handshakeMagics{
		clientVersion: k.clientVersion,
		serverVersion: k.serverVersion,
		clientKexInit: myInitPacket,
		serverKexInit: peerInitPacket,
	}

	result, err := k.runDH(group, magics)
	if err != nil {
		return err
	}
	result.Algorithms = algs
	result.hashID = group.hashID

	hostKey, err := ParsePublicKey(result.HostKey)
	if err != nil {
		return err
	}
	if err := hostKey.Verify(result.H, result.Signature); err != nil {
		return err
	}
	logKex(k.log, "server signature verified")

	if k.hostKeyCallback != nil {
		if err := k.hostKeyCallback(k.dialAddress, k.remoteAddr, hostKey); err != nil {
			return untrustedHostError(err.Error())
		}
	}
	logKex(k.log, "server identity verified")

	if k.sessionID == nil {
		k.sessionID = result.H
	}
	result.SessionID = k.sessionID

	// NEWKEYS atomicity (spec.md section 4.5): our own NEWKEYS message
	// must still go out under the OLD write keys, so the write-side
	// switch happens only after Send returns. Symmetrically, the
	// peer's NEWKEYS arrives under the OLD read keys, so the read-side
	// switch happens only after it's been received.
	if err := k.conn.Send([]byte{msgNewKeys}); err != nil {
		return err
	}
	if err := k.installWriteKeys(algs, result); err != nil {
		return err
	}

	peerNewKeys, err := k.conn.recvSkippingIgnore()
	if err != nil {
		return err
	}
	if peerNewKeys[0] != msgNewKeys {
		return unexpectedMessageError(msgNewKeys, peerNewKeys[0])
	}
	if err := k.installReadKeys(algs, result); err != nil {
		return err
	}

	k.metrics.incRekeyCompleted()
	return nil
}

// runDH executes the DH exchange itself: send KEXDH_INIT, receive
// KEXDH_REPLY, validate f, compute K and H. Grounded on
// original_source/ssh/kex_dh.c's ssh_kex_dh_run /
// dh_kex_send_init_msg / dh_kex_read_reply.
func (k *KexEngine) runDH(group *dhGroup, magics *handshakeMagics) (*kexResult, error) {
	x, e, err := generateDHKeyPair(k.config.Rand, group)
	if err != nil {
		return nil, err
	}

	initMsg := &kexDHInitMsg{E: e}
	if err := k.conn.Send(initMsg.marshal()); err != nil {
		return nil, err
	}
	logKex(k.log, "sent KEXDH_INIT")

	replyPacket, err := k.conn.recvSkippingIgnore()
	if err != nil {
		return nil, err
	}
	reply, err := unmarshalKexDHReply(replyPacket)
	if err != nil {
		return nil, err
	}
	logKex(k.log, "got KEXDH_REPLY")

	// Validate f: reject if f <= 1 or f >= p-1, per spec.md section
	// 4.5 "Validation of f".
	pMinus1 := new(big.Int).Sub(group.p, big.NewInt(1))
	if reply.F.Cmp(big.NewInt(1)) <= 0 || reply.F.Cmp(pMinus1) >= 0 {
		return nil, invalidPublicValueError()
	}

	K := new(big.Int).Exp(reply.F, x, group.p)

	H := computeExchangeHash(group.newHash, magics, reply.HostKey, e, reply.F, K)

	return &kexResult{
		H:         H,
		K:         K,
		HostKey:   reply.HostKey,
		Signature: reply.Signature,
	}, nil
}

// generateDHKeyPair picks a random secret exponent x with
// 1 < x < p-1 and computes e = g^x mod p, per spec.md section 4.5
// "DH group".
func generateDHKeyPair(rand io.Reader, group *dhGroup) (x, e *big.Int, err error) {
	bitLen := group.p.BitLen()
	pMinus1 := new(big.Int).Sub(group.p, big.NewInt(1))
	one := big.NewInt(1)
	for {
		x, err = randFieldElement(rand, bitLen)
		if err != nil {
			return nil, nil, err
		}
		if x.Cmp(one) > 0 && x.Cmp(pMinus1) < 0 {
			break
		}
	}
	e = new(big.Int).Exp(group.g, x, group.p)
	return x, e, nil
}

func randFieldElement(rand io.Reader, bitLen int) (*big.Int, error) {
	byteLen := (bitLen + 7) / 8
	buf := make([]byte, byteLen)
	if _, err := io.ReadFull(rand, buf); err != nil {
		return nil, ioError("%v", err)
	}
	return new(big.Int).SetBytes(buf), nil
}

// computeExchangeHash implements spec.md section 4.5's
// H = Hash(V_C || V_S || I_C || I_S || K_S || e || f || K), grounded
// on kex_dh.c's dh_kex_hash.
func computeExchangeHash(newHash func() hash.Hash, magics *handshakeMagics, hostKey []byte, e, f, K *big.Int) []byte {
	b := NewBuffer(nil)
	b.WriteString(magics.clientVersion)
	b.WriteString(magics.serverVersion)
	b.WriteString(magics.clientKexInit)
	b.WriteString(magics.serverKexInit)
	b.WriteString(hostKey)
	b.WriteMpint(e)
	b.WriteMpint(f)
	b.WriteMpint(K)

	h := newHash()
	h.Write(b.Bytes())
	return h.Sum(nil)
}

// installWriteKeys and installReadKeys each derive their half of the
// six KDF outputs (spec.md section 4.5's KDF table) and install them
// into one Stream direction. They are called separately, each only
// after that direction's own NEWKEYS has crossed the wire (spec.md
// "NEWKEYS atomicity"): the message announcing a direction's new
// keys is always itself sent/read under the OLD keys, so the switch
// must happen strictly after that send/recv returns, never before.
func (k *KexEngine) installWriteKeys(algs *Algorithms, result *kexResult) error {
	Kmpint := mpintBytes(result.K)
	ivCS := kdf(result.hashID, Kmpint, result.H, 'A', result.SessionID, cipherBlockSize(algs.W.Cipher))
	keyCS := kdf(result.hashID, Kmpint, result.H, 'C', result.SessionID, cipherKeySize(algs.W.Cipher))
	macCS := kdf(result.hashID, Kmpint, result.H, 'E', result.SessionID, macKeySize(algs.W.MAC))
	return k.conn.Out().InstallKeys(algs.W.Cipher, algs.W.MAC, keyCS, macCS, ivCS, true)
}

func (k *KexEngine) installReadKeys(algs *Algorithms, result *kexResult) error {
	Kmpint := mpintBytes(result.K)
	ivSC := kdf(result.hashID, Kmpint, result.H, 'B', result.SessionID, cipherBlockSize(algs.R.Cipher))
	keySC := kdf(result.hashID, Kmpint, result.H, 'D', result.SessionID, cipherKeySize(algs.R.Cipher))
	macSC := kdf(result.hashID, Kmpint, result.H, 'F', result.SessionID, macKeySize(algs.R.MAC))
	return k.conn.In().InstallKeys(algs.R.Cipher, algs.R.MAC, keySC, macSC, ivSC, false)
}

func cipherKeySize(name string) int {
	if info, ok := cipherModes[name]; ok {
		return info.keySize
	}
	return 0
}

func macKeySize(name string) int {
	if info, ok := macModes[name]; ok {
		return info.keySize
	}
	return 0
}

// kdf implements spec.md section 4.5's key-derivation function:
// KDF(letter) = Hash(K || H || letter || session_id), extended by
// Hash(K || H || previous) until at least n octets are produced,
// then truncated to exactly n. Kmpint is the mpintBytes body of the
// shared secret; K is hashed in its full SSH mpint encoding (4-byte
// length prefix, then Kmpint), as WriteMpint writes it (spec.md: "K is
// encoded as mpint ... when fed to the KDF").
func kdf(hashID crypto.Hash, Kmpint, H []byte, letter byte, sessionID []byte, n int) []byte {
	if n <= 0 {
		return nil
	}
	kb := NewBuffer(nil)
	kb.WriteString(Kmpint)
	K := kb.Bytes()
	newHash := hashID.New
	digest := func(parts ...[]byte) []byte {
		h := newHash()
		for _, p := range parts {
			h.Write(p)
		}
		return h.Sum(nil)
	}

	out := digest(K, H, []byte{letter}, sessionID)
	for len(out) < n {
		out = append(out, digest(K, H, out)...)
	}
	return out[:n]
}
