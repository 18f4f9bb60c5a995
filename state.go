package noise

import (
	"crypto/rand"
	"errors"
	"io"
)

// MaxMsgLen is the maximum payload length, in bytes, that WriteMessage and
// Encrypt accept for a single Noise message (handshake or transport),
// matching the 16-bit length prefix conforming transports use to frame
// messages on the wire. Only the payload is checked: the message produced
// also carries any handshake tokens and a 16-byte tag once keyed.
const MaxMsgLen = 65535

// MaxNonce is the largest nonce value permitted for an Encrypt or Decrypt
// call; it is reserved by Rekey and must never be used for message framing.
const MaxNonce = ^uint64(0)

var (
	// ErrShortMessage is returned by ReadMessage if a message is not as long
	// as the pattern requires.
	ErrShortMessage = errors.New("noise: message is too short")

	// ErrMessageTooLong is returned by WriteMessage or Encrypt if the
	// payload exceeds MaxMsgLen.
	ErrMessageTooLong = errors.New("noise: message is too long")

	// ErrDecrypt is returned whenever an AEAD authentication tag fails to
	// verify. The error is deliberately opaque: no plaintext or tag bytes
	// are included, and it is returned identically regardless of which byte
	// of the ciphertext or tag was altered.
	ErrDecrypt = errors.New("noise: decryption failed")

	// ErrMaxNonce is returned when an Encrypt or Decrypt call would need to
	// use the reserved MaxNonce value.
	ErrMaxNonce = errors.New("noise: nonce exhausted")

	// ErrInvalidConfig is returned by NewHandshakeState when the supplied
	// Config is missing a key the chosen pattern requires, or otherwise
	// cannot satisfy the pattern.
	ErrInvalidConfig = errors.New("noise: invalid configuration")

	// ErrStateExhausted is returned by WriteMessage/ReadMessage when the
	// handshake pattern has already been completed.
	ErrStateExhausted = errors.New("noise: no handshake messages left")
)

// A CipherState provides symmetric encryption and decryption after a
// successful handshake, or before one if it has not yet been keyed (in
// which case Encrypt/Decrypt are the identity transform, per the Noise
// spec's definition of an unkeyed CipherState).
type CipherState struct {
	cs CipherSuite
	c  Cipher
	k  [32]byte
	n  uint64

	hasKey  bool
	invalid bool
}

func (s *CipherState) initializeKey(k [32]byte) {
	s.k = k
	s.n = 0
	s.hasKey = true
	if s.cs != nil {
		s.c = s.cs.Cipher(k)
	}
}

// HasKey reports whether the CipherState has been keyed.
func (s *CipherState) HasKey() bool {
	return s.hasKey
}

// SetNonce overrides the CipherState's nonce counter. This is used by
// fallback handshakes and by transports that need to support out-of-order
// delivery; it is the caller's responsibility to avoid nonce reuse.
func (s *CipherState) SetNonce(n uint64) {
	s.n = n
}

// Encrypt encrypts the plaintext and then appends the ciphertext and an
// authentication tag across the ciphertext and optional associated data to
// out. The nonce is incremented after every successful call, so messages
// must be decrypted in the same order they were encrypted in.
//
// If the CipherState has not been keyed, Encrypt is the identity function:
// it appends plaintext to out unchanged.
func (s *CipherState) Encrypt(out, ad, plaintext []byte) ([]byte, error) {
	if s.invalid {
		panic("noise: CipherState has been copied, state is invalid")
	}
	if len(plaintext) > MaxMsgLen {
		return nil, ErrMessageTooLong
	}
	if !s.hasKey {
		return append(out, plaintext...), nil
	}
	if s.n == MaxNonce {
		return nil, ErrMaxNonce
	}
	out = s.c.Encrypt(out, s.n, ad, plaintext)
	s.n++
	return out, nil
}

// Decrypt checks the authenticity of the ciphertext and associated data and
// then decrypts and appends the plaintext to out. Messages must be provided
// in the same order they were encrypted in, with none missing.
//
// On a DecryptError the nonce is not advanced and out is left unmodified;
// the CipherState must not be used again.
func (s *CipherState) Decrypt(out, ad, ciphertext []byte) ([]byte, error) {
	if s.invalid {
		panic("noise: CipherState has been copied, state is invalid")
	}
	if !s.hasKey {
		return append(out, ciphertext...), nil
	}
	if s.n == MaxNonce {
		return nil, ErrMaxNonce
	}
	res, err := s.c.Decrypt(out, s.n, ad, ciphertext)
	if err != nil {
		return nil, err
	}
	s.n++
	return res, nil
}

// Rekey updates the CipherState's key as k = ENCRYPT(k, maxnonce, zerolen,
// zeros) truncated to 32 bytes. The nonce is left unchanged. Rekey may only
// be called on a keyed CipherState.
func (s *CipherState) Rekey() {
	if !s.hasKey {
		panic("noise: Rekey called on an unkeyed CipherState")
	}
	var zeros [32]byte
	out := s.c.Encrypt(nil, MaxNonce, nil, zeros[:])
	var newKey [32]byte
	copy(newKey[:], out[:32])
	n := s.n
	s.initializeKey(newKey)
	s.n = n
}

// Cipher returns the low-level symmetric encryption primitive. It should
// only be used if nonces need to be managed manually, for example with a
// network protocol that can deliver out-of-order messages. This is
// dangerous: callers must ensure they never reuse a nonce. After calling
// this method it is an error to call Encrypt/Decrypt on the CipherState.
func (s *CipherState) Cipher() Cipher {
	s.invalid = true
	return s.c
}

type symmetricState struct {
	CipherState
	hasPSK bool
	ck     []byte
	h      []byte
}

func (s *symmetricState) InitializeSymmetric(protocolName []byte) {
	h := s.cs.Hash()
	if len(protocolName) <= h.Size() {
		s.h = make([]byte, h.Size())
		copy(s.h, protocolName)
	} else {
		h.Write(protocolName)
		s.h = h.Sum(nil)
	}
	s.ck = make([]byte, len(s.h))
	copy(s.ck, s.h)
}

func (s *symmetricState) MixKey(inputKeyMaterial []byte) {
	var k [32]byte
	ck := make([]byte, len(s.ck))
	hkdf(s.cs, s.ck, inputKeyMaterial, ck, k[:])
	s.ck = ck
	s.initializeKey(k)
}

func (s *symmetricState) MixHash(data []byte) {
	h := s.cs.Hash()
	h.Write(s.h)
	h.Write(data)
	s.h = h.Sum(s.h[:0])
}

func (s *symmetricState) MixKeyAndHash(inputKeyMaterial []byte) {
	var k [32]byte
	ck := make([]byte, len(s.ck))
	tempH := make([]byte, len(s.h))
	hkdf(s.cs, s.ck, inputKeyMaterial, ck, tempH, k[:])
	s.ck = ck
	s.MixHash(tempH)
	s.initializeKey(k)
	s.hasPSK = true
}

func (s *symmetricState) EncryptAndHash(out, plaintext []byte) ([]byte, error) {
	if !s.hasKey {
		s.MixHash(plaintext)
		return append(out, plaintext...), nil
	}
	ciphertext, err := s.Encrypt(out, s.h, plaintext)
	if err != nil {
		return nil, err
	}
	s.MixHash(ciphertext[len(out):])
	return ciphertext, nil
}

func (s *symmetricState) DecryptAndHash(out, data []byte) ([]byte, error) {
	if !s.hasKey {
		s.MixHash(data)
		return append(out, data...), nil
	}
	// MixHash must observe the ciphertext exactly as received, before
	// Decrypt has a chance to fail or overwrite an overlapping buffer.
	captured := append([]byte(nil), data...)
	plaintext, err := s.Decrypt(out, s.h, data)
	if err != nil {
		return nil, err
	}
	s.MixHash(captured)
	return plaintext, nil
}

func (s *symmetricState) Split() (*CipherState, *CipherState) {
	var k1, k2 [32]byte
	hkdf(s.cs, s.ck, nil, k1[:], k2[:])
	c1 := &CipherState{cs: s.cs}
	c2 := &CipherState{cs: s.cs}
	c1.initializeKey(k1)
	c2.initializeKey(k2)
	return c1, c2
}

// Config provides the details necessary to process a Noise handshake. It is
// never modified by NewHandshakeState and can be reused to build multiple
// HandshakeStates, e.g. one per connection.
type Config struct {
	// CipherSuite is the set of cryptographic primitives that will be used.
	CipherSuite CipherSuite

	// Random is the source of cryptographically secure random bytes. If
	// nil, crypto/rand.Reader is used.
	Random io.Reader

	// Pattern is the handshake pattern to execute, including any PSK
	// modifier already applied via WithPSKModifier.
	Pattern HandshakePattern

	// Initiator must be true if the first message in the handshake will be
	// sent by this peer.
	Initiator bool

	// Prologue is data that has already been communicated out-of-band and
	// must be identical on both sides for the handshake to succeed.
	Prologue []byte

	// PresharedKey is the optional pre-shared key for the handshake. It
	// must be exactly 32 bytes if the pattern has a psk modifier.
	PresharedKey []byte

	// StaticKeypair is this peer's static keypair, required if the pattern
	// demands the local party transmit or already know a static key.
	StaticKeypair DHKey

	// EphemeralKeypair optionally fixes this peer's ephemeral keypair,
	// instead of generating a fresh one from Random. Used for test vectors
	// and for the XXfallback re-entry described in spec.md §4.5.
	EphemeralKeypair DHKey

	// PeerStatic is the remote peer's static public key, if known in
	// advance by the pattern's pre-messages.
	PeerStatic []byte

	// PeerEphemeral is the remote peer's ephemeral public key, if known in
	// advance (used by XXfallback).
	PeerEphemeral []byte
}

// A HandshakeState tracks the state of a Noise handshake. It is consumed by
// the WriteMessage or ReadMessage call that completes the pattern, and
// should be discarded (not reused) once that call returns CipherStates.
type HandshakeState struct {
	ss              symmetricState
	s               DHKey
	e               DHKey
	rs              []byte
	re              []byte
	psk             []byte
	initiator       bool
	messagePatterns [][]MessagePattern
	shouldWrite     bool
	msgIdx          int
	rng             io.Reader
}

// NewHandshakeState starts a new handshake using the provided configuration.
// It returns ErrInvalidConfig if the pattern requires a key the Config does
// not supply.
func NewHandshakeState(c Config) (*HandshakeState, error) {
	if c.CipherSuite == nil {
		return nil, ErrInvalidConfig
	}
	if len(c.PresharedKey) > 0 && len(c.PresharedKey) != 32 {
		return nil, ErrInvalidConfig
	}

	hs := &HandshakeState{
		s:               c.StaticKeypair,
		e:               c.EphemeralKeypair,
		initiator:       c.Initiator,
		messagePatterns: c.Pattern.Messages,
		shouldWrite:     c.Initiator,
		rng:             c.Random,
		psk:             c.PresharedKey,
	}
	if hs.rng == nil {
		hs.rng = rand.Reader
	}
	if len(c.PeerStatic) > 0 {
		hs.rs = append([]byte(nil), c.PeerStatic...)
	}
	if len(c.PeerEphemeral) > 0 {
		hs.re = append([]byte(nil), c.PeerEphemeral...)
	}
	hs.ss.cs = c.CipherSuite

	namePrefix := "Noise_"
	if len(c.PresharedKey) > 0 {
		namePrefix = "NoisePSK_"
	}
	hs.ss.InitializeSymmetric([]byte(namePrefix + c.Pattern.Name + "_" + string(hs.ss.cs.Name())))
	hs.ss.MixHash(c.Prologue)

	if err := hs.mixPreMessages(c.Pattern); err != nil {
		return nil, err
	}
	if err := hs.validateKeys(); err != nil {
		return nil, err
	}
	return hs, nil
}

func (hs *HandshakeState) mixPreMessages(pattern HandshakePattern) error {
	for _, m := range pattern.InitiatorPreMessages {
		switch {
		case hs.initiator && m == MessagePatternS:
			if len(hs.s.Public) == 0 {
				return ErrInvalidConfig
			}
			hs.ss.MixHash(hs.s.Public)
		case hs.initiator && m == MessagePatternE:
			if len(hs.e.Public) == 0 {
				return ErrInvalidConfig
			}
			hs.ss.MixHash(hs.e.Public)
		case !hs.initiator && m == MessagePatternS:
			if len(hs.rs) == 0 {
				return ErrInvalidConfig
			}
			hs.ss.MixHash(hs.rs)
		case !hs.initiator && m == MessagePatternE:
			if len(hs.re) == 0 {
				return ErrInvalidConfig
			}
			hs.ss.MixHash(hs.re)
		}
	}
	for _, m := range pattern.ResponderPreMessages {
		switch {
		case !hs.initiator && m == MessagePatternS:
			if len(hs.s.Public) == 0 {
				return ErrInvalidConfig
			}
			hs.ss.MixHash(hs.s.Public)
		case !hs.initiator && m == MessagePatternE:
			if len(hs.e.Public) == 0 {
				return ErrInvalidConfig
			}
			hs.ss.MixHash(hs.e.Public)
		case hs.initiator && m == MessagePatternS:
			if len(hs.rs) == 0 {
				return ErrInvalidConfig
			}
			hs.ss.MixHash(hs.rs)
		case hs.initiator && m == MessagePatternE:
			if len(hs.re) == 0 {
				return ErrInvalidConfig
			}
			hs.ss.MixHash(hs.re)
		}
	}
	return nil
}

// validateKeys checks that a local static key is present whenever any
// message token will need to transmit or DH with it, independent of the
// pre-message bookkeeping performed in mixPreMessages.
func (hs *HandshakeState) validateKeys() error {
	// Whether a local static key is required depends on role: per the token
	// table in spec.md §4.3, "es" uses the responder's static (and the
	// initiator's ephemeral), while "se" uses the initiator's static (and
	// the responder's ephemeral); "ss" needs the local static on both sides,
	// and a bare "s" token only on the side that writes that message.
	needLocalStatic := false
	for i, msg := range hs.messagePatterns {
		writerIsInitiator := i%2 == 0
		for _, tok := range msg {
			switch tok {
			case MessagePatternS:
				// A bare "s" token only obligates whichever role actually
				// writes this message to hold a static key to transmit;
				// the reader needs nothing extra here.
				if writerIsInitiator == hs.initiator {
					needLocalStatic = true
				}
			case MessagePatternDHSS:
				needLocalStatic = true
			case MessagePatternDHES:
				if !hs.initiator {
					needLocalStatic = true
				}
			case MessagePatternDHSE:
				if hs.initiator {
					needLocalStatic = true
				}
			}
		}
	}
	if needLocalStatic && len(hs.s.Private) == 0 {
		return ErrInvalidConfig
	}
	if len(hs.psk) == 0 {
		for _, msg := range hs.messagePatterns {
			for _, tok := range msg {
				if tok == MessagePatternPSK {
					return ErrInvalidConfig
				}
			}
		}
	}
	return nil
}

// WriteMessage appends a handshake message to out, including the optional
// payload if provided. If the handshake is completed by the call, two
// CipherStates are returned, the same pair on both sides: the first for
// messages from the initiator to the responder, the second for messages
// from the responder to the initiator. It is an error
// to call WriteMessage out of turn or after the pattern is exhausted.
func (hs *HandshakeState) WriteMessage(out, payload []byte) ([]byte, *CipherState, *CipherState, error) {
	if !hs.shouldWrite {
		panic("noise: unexpected call to WriteMessage, should be ReadMessage")
	}
	if hs.msgIdx > len(hs.messagePatterns)-1 {
		return nil, nil, nil, ErrStateExhausted
	}
	if len(payload) > MaxMsgLen {
		return nil, nil, nil, ErrMessageTooLong
	}

	for _, tok := range hs.messagePatterns[hs.msgIdx] {
		var err error
		out, err = hs.writeToken(tok, out)
		if err != nil {
			return nil, nil, nil, err
		}
	}
	hs.shouldWrite = false
	hs.msgIdx++

	out, err := hs.ss.EncryptAndHash(out, payload)
	if err != nil {
		return nil, nil, nil, err
	}

	if hs.msgIdx >= len(hs.messagePatterns) {
		cs1, cs2 := hs.ss.Split()
		return out, cs1, cs2, nil
	}
	return out, nil, nil, nil
}

func (hs *HandshakeState) writeToken(tok MessagePattern, out []byte) ([]byte, error) {
	switch tok {
	case MessagePatternE:
		if len(hs.e.Private) == 0 {
			e, err := hs.ss.cs.GenerateKeypair(hs.rng)
			if err != nil {
				return nil, err
			}
			hs.e = e
		}
		out = append(out, hs.e.Public...)
		hs.ss.MixHash(hs.e.Public)
		if hs.ss.hasPSK {
			hs.ss.MixKey(hs.e.Public)
		}
		return out, nil
	case MessagePatternS:
		if len(hs.s.Public) == 0 {
			panic("noise: invalid state, local static key is nil")
		}
		return hs.ss.EncryptAndHash(out, hs.s.Public)
	case MessagePatternDHEE:
		hs.ss.MixKey(hs.ss.cs.DH(hs.e.Private, hs.re))
	case MessagePatternDHES:
		if len(hs.rs) == 0 {
			return nil, ErrInvalidConfig
		}
		if hs.initiator {
			hs.ss.MixKey(hs.ss.cs.DH(hs.e.Private, hs.rs))
		} else {
			hs.ss.MixKey(hs.ss.cs.DH(hs.s.Private, hs.re))
		}
	case MessagePatternDHSE:
		if hs.initiator {
			hs.ss.MixKey(hs.ss.cs.DH(hs.s.Private, hs.re))
		} else {
			hs.ss.MixKey(hs.ss.cs.DH(hs.e.Private, hs.rs))
		}
	case MessagePatternDHSS:
		hs.ss.MixKey(hs.ss.cs.DH(hs.s.Private, hs.rs))
	case MessagePatternPSK:
		hs.ss.MixKeyAndHash(hs.psk)
	}
	return out, nil
}

// ReadMessage processes a received handshake message and appends the
// payload, if any, to out. If the handshake is completed by the call, two
// CipherStates are returned as described for WriteMessage. It is an error
// to call ReadMessage out of turn or after the pattern is exhausted.
func (hs *HandshakeState) ReadMessage(out, message []byte) ([]byte, *CipherState, *CipherState, error) {
	if hs.shouldWrite {
		panic("noise: unexpected call to ReadMessage, should be WriteMessage")
	}
	if hs.msgIdx > len(hs.messagePatterns)-1 {
		return nil, nil, nil, ErrStateExhausted
	}

	for _, tok := range hs.messagePatterns[hs.msgIdx] {
		var err error
		message, err = hs.readToken(tok, message)
		if err != nil {
			return nil, nil, nil, err
		}
	}
	hs.shouldWrite = true
	hs.msgIdx++

	out, err := hs.ss.DecryptAndHash(out, message)
	if err != nil {
		return nil, nil, nil, err
	}

	if hs.msgIdx >= len(hs.messagePatterns) {
		cs1, cs2 := hs.ss.Split()
		return out, cs1, cs2, nil
	}
	return out, nil, nil, nil
}

func (hs *HandshakeState) readToken(tok MessagePattern, message []byte) ([]byte, error) {
	switch tok {
	case MessagePatternE:
		dhlen := hs.ss.cs.DHLen()
		if len(message) < dhlen {
			return nil, ErrShortMessage
		}
		if cap(hs.re) < dhlen {
			hs.re = make([]byte, dhlen)
		}
		hs.re = hs.re[:dhlen]
		copy(hs.re, message)
		hs.ss.MixHash(hs.re)
		if hs.ss.hasPSK {
			hs.ss.MixKey(hs.re)
		}
		return message[dhlen:], nil
	case MessagePatternS:
		expected := hs.ss.cs.DHLen()
		if hs.ss.hasKey {
			expected += 16
		}
		if len(message) < expected {
			return nil, ErrShortMessage
		}
		if len(hs.rs) > 0 {
			panic("noise: invalid state, remote static key already set")
		}
		rs, err := hs.ss.DecryptAndHash(hs.rs[:0], message[:expected])
		if err != nil {
			return nil, err
		}
		hs.rs = rs
		return message[expected:], nil
	case MessagePatternDHEE:
		hs.ss.MixKey(hs.ss.cs.DH(hs.e.Private, hs.re))
	case MessagePatternDHES:
		if hs.initiator {
			hs.ss.MixKey(hs.ss.cs.DH(hs.e.Private, hs.rs))
		} else {
			hs.ss.MixKey(hs.ss.cs.DH(hs.s.Private, hs.re))
		}
	case MessagePatternDHSE:
		if hs.initiator {
			hs.ss.MixKey(hs.ss.cs.DH(hs.s.Private, hs.re))
		} else {
			hs.ss.MixKey(hs.ss.cs.DH(hs.e.Private, hs.rs))
		}
	case MessagePatternDHSS:
		hs.ss.MixKey(hs.ss.cs.DH(hs.s.Private, hs.rs))
	case MessagePatternPSK:
		hs.ss.MixKeyAndHash(hs.psk)
	}
	return message, nil
}

// ChannelBinding returns the current value of the SymmetricState's running
// transcript hash. Called after the handshake has completed, this is
// suitable for use as a channel-binding token, since it is a hash of every
// byte exchanged (and every pre-message public key) during the handshake.
func (hs *HandshakeState) ChannelBinding() []byte {
	return append([]byte(nil), hs.ss.h...)
}

// PeerStatic returns the remote party's static public key, once the
// handshake has transmitted or already knew it. It returns nil if the key
// is not yet available.
func (hs *HandshakeState) PeerStatic() []byte {
	if len(hs.rs) == 0 {
		return nil
	}
	return append([]byte(nil), hs.rs...)
}
