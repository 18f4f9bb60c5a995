package noise

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/quietchannel/noise/noisetest"
)

// These reproduce the published Noise_N/X/NN/XX/IK end-to-end scenarios
// driven by the RandomInc deterministic RNG, checking exact message bytes
// rather than only round-tripping against themselves.

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestVectorNoiseN(t *testing.T) {
	rng := noisetest.NewInc(0)
	cs := NewCipherSuite(DH25519, CipherAESGCM, HashSHA256)

	respStatic, err := DH25519.GenerateKeypair(rng)
	if err != nil {
		t.Fatal(err)
	}

	hs, err := NewHandshakeState(Config{
		CipherSuite: cs,
		Random:      rng,
		Pattern:     HandshakeN,
		Initiator:   true,
		PeerStatic:  respStatic.Public,
	})
	if err != nil {
		t.Fatal(err)
	}

	msg, _, _, err := hs.WriteMessage(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := mustHex(t, "358072d6365880d1aeea329adf9121383851ed21a28e3b75e965d0d2cd1662548331a3d1e93b490263abc7a4633867f4")
	if !bytes.Equal(msg, want) {
		t.Fatalf("message = %x, want %x", msg, want)
	}
	if len(msg) != 48 {
		t.Fatalf("len = %d, want 48", len(msg))
	}
}

func TestVectorNoiseX(t *testing.T) {
	rng := noisetest.NewInc(0)
	cs := NewCipherSuite(DH25519, CipherChaChaPoly, HashSHA256)

	initStatic, err := DH25519.GenerateKeypair(rng)
	if err != nil {
		t.Fatal(err)
	}
	respStatic, err := DH25519.GenerateKeypair(rng)
	if err != nil {
		t.Fatal(err)
	}

	hs, err := NewHandshakeState(Config{
		CipherSuite:   cs,
		Random:        rng,
		Pattern:       HandshakeX,
		Initiator:     true,
		StaticKeypair: initStatic,
		PeerStatic:    respStatic.Public,
	})
	if err != nil {
		t.Fatal(err)
	}

	msg, _, _, err := hs.WriteMessage(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := mustHex(t, "79a631eede1bf9c98f12032cdeadd0e7a079398fc786b88cc846ec89af85a51ad203cd28d81cf65a2da637f557a05728b3ae4abdc3a42d1cda5f719d6cf41d7f2cf1b1c5af10e38a09a9bb7e3b1d589a99492cc50293eaa1f3f391b59bb6990d")
	if !bytes.Equal(msg, want) {
		t.Fatalf("message = %x, want %x", msg, want)
	}
	if len(msg) != 96 {
		t.Fatalf("len = %d, want 96", len(msg))
	}
}

func TestVectorNoiseNN(t *testing.T) {
	rngI := noisetest.NewInc(0)
	rngR := noisetest.NewInc(1)
	cs := NewCipherSuite(DH25519, CipherAESGCM, HashSHA512)

	hsI, err := NewHandshakeState(Config{CipherSuite: cs, Random: rngI, Pattern: HandshakeNN, Initiator: true})
	if err != nil {
		t.Fatal(err)
	}
	hsR, err := NewHandshakeState(Config{CipherSuite: cs, Random: rngR, Pattern: HandshakeNN, Initiator: false})
	if err != nil {
		t.Fatal(err)
	}

	msg1, _, _, err := hsI.WriteMessage(nil, []byte("abc"))
	if err != nil {
		t.Fatal(err)
	}
	if len(msg1) != 35 {
		t.Fatalf("message 1 len = %d, want 35", len(msg1))
	}
	out1, _, _, err := hsR.ReadMessage(nil, msg1)
	if err != nil {
		t.Fatal(err)
	}
	if string(out1) != "abc" {
		t.Fatalf("message 1 payload = %q, want abc", out1)
	}

	msg2, _, _, err := hsR.WriteMessage(nil, []byte("defg"))
	if err != nil {
		t.Fatal(err)
	}
	if len(msg2) != 52 {
		t.Fatalf("message 2 len = %d, want 52", len(msg2))
	}
	out2, _, _, err := hsI.ReadMessage(nil, msg2)
	if err != nil {
		t.Fatal(err)
	}
	if string(out2) != "defg" {
		t.Fatalf("message 2 payload = %q, want defg", out2)
	}

	want := mustHex(t, "07a37cbc142093c8b755dc1b10e86cb426374ad16aa853ed0bdfc0b2b86d1c7c5e4dc9545d41b3280f4586a5481829e1e24ec5a0")
	if !bytes.Equal(msg2, want) {
		t.Fatalf("message 2 = %x, want %x", msg2, want)
	}
}

func TestVectorNoiseXX(t *testing.T) {
	rngI := noisetest.NewInc(0)
	rngR := noisetest.NewInc(1)
	cs := NewCipherSuite(DH25519, CipherAESGCM, HashSHA256)

	initStatic, err := DH25519.GenerateKeypair(rngI)
	if err != nil {
		t.Fatal(err)
	}
	respStatic, err := DH25519.GenerateKeypair(rngR)
	if err != nil {
		t.Fatal(err)
	}

	hsI, err := NewHandshakeState(Config{CipherSuite: cs, Random: rngI, Pattern: HandshakeXX, Initiator: true, StaticKeypair: initStatic})
	if err != nil {
		t.Fatal(err)
	}
	hsR, err := NewHandshakeState(Config{CipherSuite: cs, Random: rngR, Pattern: HandshakeXX, Initiator: false, StaticKeypair: respStatic})
	if err != nil {
		t.Fatal(err)
	}

	msg1, _, _, err := hsI.WriteMessage(nil, []byte("abc"))
	if err != nil {
		t.Fatal(err)
	}
	if len(msg1) != 35 {
		t.Fatalf("message 1 len = %d, want 35", len(msg1))
	}
	if _, _, _, err := hsR.ReadMessage(nil, msg1); err != nil {
		t.Fatal(err)
	}

	msg2, _, _, err := hsR.WriteMessage(nil, []byte("defg"))
	if err != nil {
		t.Fatal(err)
	}
	if len(msg2) != 100 {
		t.Fatalf("message 2 len = %d, want 100", len(msg2))
	}
	if _, _, _, err := hsI.ReadMessage(nil, msg2); err != nil {
		t.Fatal(err)
	}

	msg3, _, _, err := hsI.WriteMessage(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(msg3) != 64 {
		t.Fatalf("message 3 len = %d, want 64", len(msg3))
	}
	if _, _, _, err := hsR.ReadMessage(nil, msg3); err != nil {
		t.Fatal(err)
	}

	want := mustHex(t, "8127f4b35cdbdf0935fcf1ec99016d1dcbc350055b8af360be196905dfb50a2c1c38a7ca9cb0cfe8f4576f36c47a4933eee32288f590ac4305d4b53187577be7")
	if !bytes.Equal(msg3, want) {
		t.Fatalf("message 3 = %x, want %x", msg3, want)
	}
}

func TestVectorNoiseIK(t *testing.T) {
	rngI := noisetest.NewInc(0)
	rngR := noisetest.NewInc(1)
	cs := NewCipherSuite(DH25519, CipherAESGCM, HashSHA256)

	initStatic, err := DH25519.GenerateKeypair(rngI)
	if err != nil {
		t.Fatal(err)
	}
	respStatic, err := DH25519.GenerateKeypair(rngR)
	if err != nil {
		t.Fatal(err)
	}

	prologue := []byte("ABC")
	hsI, err := NewHandshakeState(Config{
		CipherSuite:   cs,
		Random:        rngI,
		Pattern:       HandshakeIK,
		Initiator:     true,
		Prologue:      prologue,
		StaticKeypair: initStatic,
		PeerStatic:    respStatic.Public,
	})
	if err != nil {
		t.Fatal(err)
	}
	hsR, err := NewHandshakeState(Config{
		CipherSuite:   cs,
		Random:        rngR,
		Pattern:       HandshakeIK,
		Initiator:     false,
		Prologue:      prologue,
		StaticKeypair: respStatic,
	})
	if err != nil {
		t.Fatal(err)
	}

	msg1, _, _, err := hsI.WriteMessage(nil, []byte("abc"))
	if err != nil {
		t.Fatal(err)
	}
	if len(msg1) != 99 {
		t.Fatalf("message 1 len = %d, want 99", len(msg1))
	}
	out1, _, _, err := hsR.ReadMessage(nil, msg1)
	if err != nil {
		t.Fatal(err)
	}
	if string(out1) != "abc" {
		t.Fatalf("message 1 payload = %q, want abc", out1)
	}

	msg2, _, _, err := hsR.WriteMessage(nil, []byte("defg"))
	if err != nil {
		t.Fatal(err)
	}
	if len(msg2) != 52 {
		t.Fatalf("message 2 len = %d, want 52", len(msg2))
	}
	out2, _, _, err := hsI.ReadMessage(nil, msg2)
	if err != nil {
		t.Fatal(err)
	}
	if string(out2) != "defg" {
		t.Fatalf("message 2 payload = %q, want defg", out2)
	}

	want := mustHex(t, "5869aff450549732cbaaed5e5df9b30a6da31cb0e5742bad5ad4a1a768f1a67b7555a94199d0ce2972e0861b06c2152419a278de")
	if !bytes.Equal(msg2, want) {
		t.Fatalf("message 2 = %x, want %x", msg2, want)
	}
}

// TestVectorNoisePSKNNRoundTrip exercises the historical "NoisePSK_NN"
// scenario's message sizes and round trip. The source scenario this was
// drawn from uses a pre-stabilization PSK scheme that mixed an arbitrary,
// non-32-byte preshared secret directly; this engine follows the modern
// Noise PSK requirement of an exactly 32-byte key (see DESIGN.md), so the
// preshared key here is the historical 3 bytes zero-padded out to 32 rather
// than the historical value, and only message sizes and the round trip are
// asserted rather than the historical exact ciphertext.
func TestVectorNoisePSKNNRoundTrip(t *testing.T) {
	rngI := noisetest.NewInc(0)
	rngR := noisetest.NewInc(1)
	cs := NewCipherSuite(DH25519, CipherAESGCM, HashSHA512)

	psk := make([]byte, 32)
	copy(psk, []byte{4, 5, 6})
	pattern := WithPSKModifier(HandshakeNN, PSKMode0)
	prologue := []byte{1, 2, 3}

	hsI, err := NewHandshakeState(Config{CipherSuite: cs, Random: rngI, Pattern: pattern, Initiator: true, Prologue: prologue, PresharedKey: psk})
	if err != nil {
		t.Fatal(err)
	}
	hsR, err := NewHandshakeState(Config{CipherSuite: cs, Random: rngR, Pattern: pattern, Initiator: false, Prologue: prologue, PresharedKey: psk})
	if err != nil {
		t.Fatal(err)
	}

	msg1, _, _, err := hsI.WriteMessage(nil, []byte("abc"))
	if err != nil {
		t.Fatal(err)
	}
	if len(msg1) != 51 {
		t.Fatalf("message 1 len = %d, want 51", len(msg1))
	}
	out1, _, _, err := hsR.ReadMessage(nil, msg1)
	if err != nil {
		t.Fatal(err)
	}
	if string(out1) != "abc" {
		t.Fatalf("message 1 payload = %q, want abc", out1)
	}

	msg2, _, _, err := hsR.WriteMessage(nil, []byte("defg"))
	if err != nil {
		t.Fatal(err)
	}
	if len(msg2) != 52 {
		t.Fatalf("message 2 len = %d, want 52", len(msg2))
	}
	out2, _, _, err := hsI.ReadMessage(nil, msg2)
	if err != nil {
		t.Fatal(err)
	}
	if string(out2) != "defg" {
		t.Fatalf("message 2 payload = %q, want defg", out2)
	}
}
