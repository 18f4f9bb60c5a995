// Package vectors runs the published Noise Protocol Framework test-vector
// corpus (the same "{"vectors": [...]}" JSON shape consumed by the
// reference test suite's tests/vectors.rs harness) against the engine in
// the parent noise package, so every published message ciphertext can be
// checked byte-for-byte rather than only round-tripped against itself.
package vectors

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/curve25519"

	"github.com/quietchannel/noise"
	"github.com/quietchannel/noise/noisename"
)

// HexBytes decodes a JSON hex string into raw bytes, mirroring the
// HexBytes newtype the reference test harness uses for the same corpus.
type HexBytes []byte

func (h *HexBytes) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("vectors: invalid hex %q: %w", s, err)
	}
	*h = b
	return nil
}

// Message is one payload/ciphertext pair exchanged during a Vector's
// handshake and transport phase.
type Message struct {
	Payload    HexBytes `json:"payload"`
	Ciphertext HexBytes `json:"ciphertext"`
}

// Vector is a single published test case: a protocol name plus whatever
// fixed keys and PSK the name's pattern requires, and the exact sequence of
// messages a conforming implementation must reproduce.
type Vector struct {
	Name              string    `json:"name"`
	InitPSK           HexBytes  `json:"init_psk,omitempty"`
	InitPrologue      HexBytes  `json:"init_prologue,omitempty"`
	InitStatic        HexBytes  `json:"init_static,omitempty"`
	InitRemoteStatic  HexBytes  `json:"init_remote_static,omitempty"`
	InitEphemeral     HexBytes  `json:"init_ephemeral,omitempty"`
	InitPeerEphemeral HexBytes  `json:"init_peer_ephemeral,omitempty"`
	RespPSK           HexBytes  `json:"resp_psk,omitempty"`
	RespPrologue      HexBytes  `json:"resp_prologue,omitempty"`
	RespStatic        HexBytes  `json:"resp_static,omitempty"`
	RespRemoteStatic  HexBytes  `json:"resp_remote_static,omitempty"`
	RespEphemeral     HexBytes  `json:"resp_ephemeral,omitempty"`
	RespPeerEphemeral HexBytes  `json:"resp_peer_ephemeral,omitempty"`
	Messages          []Message `json:"messages"`

	// Fail marks a vector that is expected to not complete successfully,
	// e.g. a corrupted ciphertext fixture. None of the corpus bundled with
	// this module sets it, but the field exists so a larger corpus drop-in
	// doesn't need a schema change.
	Fail bool `json:"fail,omitempty"`
}

// Corpus is the top-level document a published vector file deserializes
// into.
type Corpus struct {
	Vectors []Vector `json:"vectors"`
}

// Parse decodes a Corpus from its JSON representation.
func Parse(data []byte) (Corpus, error) {
	var c Corpus
	if err := json.Unmarshal(data, &c); err != nil {
		return Corpus{}, err
	}
	return c, nil
}

// Unsupported reports why v should be skipped, per spec.md's instruction
// that vectors referencing primitives this module does not ship (e.g.
// Ed448) are skipped rather than failed. It returns ("", false) if v is
// fully supported.
func Unsupported(v Vector) (string, bool) {
	name, err := noisename.Parse(v.Name)
	if err != nil {
		return err.Error(), true
	}
	if _, ok := noise.DHByName[name.DH]; !ok {
		return "unsupported DH: " + name.DH, true
	}
	if _, ok := noise.CipherByName[name.Cipher]; !ok {
		return "unsupported cipher: " + name.Cipher, true
	}
	if _, ok := noise.HashByName[name.Hash]; !ok {
		return "unsupported hash: " + name.Hash, true
	}
	if _, ok := noise.PatternByName(name.Pattern); !ok {
		return "unsupported pattern: " + name.Pattern, true
	}
	return "", false
}

// pubFromPriv derives an X25519 public key from a raw private scalar, the
// same calculation dh25519.GenerateKeypair performs internally. The
// published corpus supplies only private keys, so vector fixtures need the
// matching public keys computed locally.
func pubFromPriv(priv []byte) ([]byte, error) {
	return curve25519.X25519(priv, curve25519.Basepoint)
}

func resolveSuite(name noisename.Name) (noise.CipherSuite, noise.HandshakePattern, error) {
	dh, ok := noise.DHByName[name.DH]
	if !ok {
		return nil, noise.HandshakePattern{}, fmt.Errorf("vectors: unknown DH %q", name.DH)
	}
	cipher, ok := noise.CipherByName[name.Cipher]
	if !ok {
		return nil, noise.HandshakePattern{}, fmt.Errorf("vectors: unknown cipher %q", name.Cipher)
	}
	hash, ok := noise.HashByName[name.Hash]
	if !ok {
		return nil, noise.HandshakePattern{}, fmt.Errorf("vectors: unknown hash %q", name.Hash)
	}
	base, ok := noise.PatternByName(name.Pattern)
	if !ok {
		return nil, noise.HandshakePattern{}, fmt.Errorf("vectors: unknown pattern %q", name.Pattern)
	}

	pattern := base
	if name.PSKMode != "" {
		mode := map[string]noise.PSKMode{
			"psk0": noise.PSKMode0,
			"psk1": noise.PSKMode1,
			"psk2": noise.PSKMode2,
			"psk3": noise.PSKMode3,
		}[name.PSKMode]
		pattern = noise.WithPSKModifier(base, mode)
	}
	return noise.NewCipherSuite(dh, cipher, hash), pattern, nil
}

func containsToken(toks []noise.MessagePattern, want noise.MessagePattern) bool {
	for _, t := range toks {
		if t == want {
			return true
		}
	}
	return false
}

func keypairFrom(priv HexBytes) (noise.DHKey, error) {
	if len(priv) == 0 {
		return noise.DHKey{}, nil
	}
	pub, err := pubFromPriv(priv)
	if err != nil {
		return noise.DHKey{}, err
	}
	return noise.DHKey{Private: append([]byte(nil), priv...), Public: pub}, nil
}

// Run drives both sides of v's handshake and transport phase and returns
// the ciphertext this implementation produced for each message, in order,
// so the caller can compare them against Messages[i].Ciphertext.
func Run(v Vector) ([][]byte, error) {
	name, err := noisename.Parse(v.Name)
	if err != nil {
		return nil, err
	}
	cs, pattern, err := resolveSuite(name)
	if err != nil {
		return nil, err
	}

	initStatic, err := keypairFrom(v.InitStatic)
	if err != nil {
		return nil, err
	}
	respStatic, err := keypairFrom(v.RespStatic)
	if err != nil {
		return nil, err
	}
	initEph, err := keypairFrom(v.InitEphemeral)
	if err != nil {
		return nil, err
	}
	respEph, err := keypairFrom(v.RespEphemeral)
	if err != nil {
		return nil, err
	}

	// A vector only needs to supply one side's static private key for a
	// pre-message that declares it; the peer's public half is derivable
	// exactly (not guessed) from that same private key, so fill it in
	// when the corpus entry leaves it out.
	initPeerStatic := []byte(v.InitRemoteStatic)
	if len(initPeerStatic) == 0 && containsToken(pattern.ResponderPreMessages, noise.MessagePatternS) {
		initPeerStatic = respStatic.Public
	}
	respPeerStatic := []byte(v.RespRemoteStatic)
	if len(respPeerStatic) == 0 && containsToken(pattern.InitiatorPreMessages, noise.MessagePatternS) {
		respPeerStatic = initStatic.Public
	}

	// Same derivation for a pre-known ephemeral (XXfallback): the side that
	// doesn't own the pre-message token only ever needs the public half.
	initPeerEphemeral := []byte(v.InitPeerEphemeral)
	if len(initPeerEphemeral) == 0 && containsToken(pattern.ResponderPreMessages, noise.MessagePatternE) {
		initPeerEphemeral = respEph.Public
	}
	respPeerEphemeral := []byte(v.RespPeerEphemeral)
	if len(respPeerEphemeral) == 0 && containsToken(pattern.InitiatorPreMessages, noise.MessagePatternE) {
		respPeerEphemeral = initEph.Public
	}

	hsI, err := noise.NewHandshakeState(noise.Config{
		CipherSuite:      cs,
		Pattern:          pattern,
		Initiator:        true,
		Prologue:         v.InitPrologue,
		PresharedKey:     v.InitPSK,
		StaticKeypair:    initStatic,
		EphemeralKeypair: initEph,
		PeerStatic:       initPeerStatic,
		PeerEphemeral:    initPeerEphemeral,
	})
	if err != nil {
		return nil, fmt.Errorf("vectors: initiator NewHandshakeState: %w", err)
	}
	hsR, err := noise.NewHandshakeState(noise.Config{
		CipherSuite:      cs,
		Pattern:          pattern,
		Initiator:        false,
		Prologue:         v.RespPrologue,
		PresharedKey:     v.RespPSK,
		StaticKeypair:    respStatic,
		EphemeralKeypair: respEph,
		PeerStatic:       respPeerStatic,
		PeerEphemeral:    respPeerEphemeral,
	})
	if err != nil {
		return nil, fmt.Errorf("vectors: responder NewHandshakeState: %w", err)
	}

	// Once the handshake completes, cs1 carries the initiator-to-responder
	// direction and cs2 the reverse (see state_test.go's runHandshake for
	// the same convention, confirmed against a real Split() consumer).
	// initEnc/initDec and respEnc/respDec name the fixed per-side transport
	// roles; they stay nil until the handshake's final message returns them.
	var initEnc, initDec, respEnc, respDec *noise.CipherState
	oneWay := pattern.OneWay()

	ciphertexts := make([][]byte, 0, len(v.Messages))
	for i, m := range v.Messages {
		initiatorSends := oneWay || i%2 == 0

		var msg []byte
		var out []byte
		var err error

		switch {
		case initEnc != nil && initiatorSends:
			if msg, err = initEnc.Encrypt(nil, nil, m.Payload); err != nil {
				return nil, fmt.Errorf("vectors: transport message %d Encrypt: %w", i, err)
			}
			if out, err = respDec.Decrypt(nil, nil, msg); err != nil {
				return nil, fmt.Errorf("vectors: transport message %d Decrypt: %w", i, err)
			}
		case initEnc != nil:
			if msg, err = respEnc.Encrypt(nil, nil, m.Payload); err != nil {
				return nil, fmt.Errorf("vectors: transport message %d Encrypt: %w", i, err)
			}
			if out, err = initDec.Decrypt(nil, nil, msg); err != nil {
				return nil, fmt.Errorf("vectors: transport message %d Decrypt: %w", i, err)
			}
		case initiatorSends:
			var c1, c2, rc1, rc2 *noise.CipherState
			if msg, c1, c2, err = hsI.WriteMessage(nil, m.Payload); err != nil {
				return nil, fmt.Errorf("vectors: message %d WriteMessage: %w", i, err)
			}
			if out, rc1, rc2, err = hsR.ReadMessage(nil, msg); err != nil {
				return nil, fmt.Errorf("vectors: message %d ReadMessage: %w", i, err)
			}
			if c1 != nil {
				initEnc, initDec = c1, c2
				respEnc, respDec = rc2, rc1
			}
		default:
			var c1, c2, rc1, rc2 *noise.CipherState
			if msg, c1, c2, err = hsR.WriteMessage(nil, m.Payload); err != nil {
				return nil, fmt.Errorf("vectors: message %d WriteMessage: %w", i, err)
			}
			if out, rc1, rc2, err = hsI.ReadMessage(nil, msg); err != nil {
				return nil, fmt.Errorf("vectors: message %d ReadMessage: %w", i, err)
			}
			if c1 != nil {
				respEnc, respDec = c2, c1
				initEnc, initDec = rc1, rc2
			}
		}

		if string(out) != string([]byte(m.Payload)) {
			return nil, fmt.Errorf("vectors: message %d payload mismatch: got %x want %x", i, out, []byte(m.Payload))
		}
		ciphertexts = append(ciphertexts, msg)
	}

	return ciphertexts, nil
}
