package noise

import (
	"io"

	"golang.org/x/crypto/curve25519"
)

type dh25519 struct{}

// DH25519 is the Curve25519 Diffie-Hellman function.
var DH25519 DHFunc = dh25519{}

func (dh25519) GenerateKeypair(rng io.Reader) (DHKey, error) {
	var pair DHKey
	pair.Private = make([]byte, 32)
	if _, err := io.ReadFull(rng, pair.Private); err != nil {
		return DHKey{}, err
	}
	pair.Private[0] &= 248
	pair.Private[31] &= 127
	pair.Private[31] |= 64

	pub, err := curve25519.X25519(pair.Private, curve25519.Basepoint)
	if err != nil {
		return DHKey{}, err
	}
	pair.Public = pub
	return pair, nil
}

func (dh25519) DH(privkey, pubkey []byte) []byte {
	out, err := curve25519.X25519(privkey, pubkey)
	if err != nil {
		// X25519 fails on a low-order public key input (and on a key of
		// the wrong length); Noise's Curve25519 functions, per spec, do not
		// treat the low-order case as fatal, and any failure here returns an
		// all-zero shared secret.
		return make([]byte, 32)
	}
	return out
}

func (dh25519) DHLen() int     { return 32 }
func (dh25519) DHName() string { return "25519" }
