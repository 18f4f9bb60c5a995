package noise

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"hash"
	"io"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/chacha20poly1305"
)

// A DHKey is a keypair used for Diffie-Hellman key agreement.
type DHKey struct {
	Private []byte
	Public  []byte
}

// DHFunc implements a Diffie-Hellman key agreement function, e.g. X25519.
type DHFunc interface {
	// GenerateKeypair generates a new keypair using random as a source of
	// entropy.
	GenerateKeypair(random io.Reader) (DHKey, error)

	// DH performs a Diffie-Hellman calculation between the given private key
	// and the given public key and returns the result.
	DH(privkey, pubkey []byte) []byte

	// DHLen is the number of bytes returned by DH.
	DHLen() int

	// DHName is the name of the DH function.
	DHName() string
}

// HashFunc implements a cryptographic hash function.
type HashFunc interface {
	// Hash returns a new hash.Hash instance.
	Hash() hash.Hash

	// HashName is the name of the hash function.
	HashName() string
}

// CipherFunc implements an AEAD symmetric cipher.
type CipherFunc interface {
	// Cipher initializes the algorithm with the provided key and returns a
	// Cipher ready to encrypt/decrypt.
	Cipher(k [32]byte) Cipher

	// CipherName is the name of the cipher.
	CipherName() string
}

// Cipher is an instance of an AEAD symmetric cipher keyed for a specific
// handshake or transport direction.
type Cipher interface {
	// Encrypt encrypts the plaintext and appends the result, including the
	// 16-byte authentication tag, to out.
	Encrypt(out []byte, n uint64, ad, plaintext []byte) []byte

	// Decrypt checks the authenticity of the ciphertext and ad and then
	// decrypts and appends the plaintext to out.
	Decrypt(out []byte, n uint64, ad, ciphertext []byte) ([]byte, error)
}

// A CipherSuite groups a set of primitives (DH function, cipher, hash) that
// can be used to instantiate a Noise protocol.
type CipherSuite interface {
	DHFunc
	CipherFunc
	HashFunc

	// Name returns the three-field protocol name fragment,
	// "<dh>_<cipher>_<hash>".
	Name() []byte
}

// NewCipherSuite returns a CipherSuite constructed from the given
// primitives.
func NewCipherSuite(dh DHFunc, cipher CipherFunc, hash HashFunc) CipherSuite {
	return cipherSuite{dh, cipher, hash}
}

type cipherSuite struct {
	DHFunc
	CipherFunc
	HashFunc
}

func (c cipherSuite) Name() []byte {
	return []byte(c.DHFunc.DHName() + "_" + c.CipherFunc.CipherName() + "_" + c.HashFunc.HashName())
}

// aeadCipherFunc adapts a cipher.AEAD constructor into a CipherFunc using
// the standard 12-byte little-endian nonce encoding shared by AESGCM and
// ChaChaPoly.
type aeadCipherFunc struct {
	name string
	new  func(k [32]byte) cipher.AEAD
}

func (f aeadCipherFunc) CipherName() string { return f.name }

func (f aeadCipherFunc) Cipher(k [32]byte) Cipher {
	return aeadCipher{aead: f.new(k)}
}

type aeadCipher struct {
	aead cipher.AEAD
}

func nonceBytes(n uint64) [12]byte {
	var nonce [12]byte
	binary.LittleEndian.PutUint64(nonce[4:], n)
	return nonce
}

func (c aeadCipher) Encrypt(out []byte, n uint64, ad, plaintext []byte) []byte {
	nonce := nonceBytes(n)
	return c.aead.Seal(out, nonce[:], plaintext, ad)
}

func (c aeadCipher) Decrypt(out []byte, n uint64, ad, ciphertext []byte) ([]byte, error) {
	nonce := nonceBytes(n)
	res, err := c.aead.Open(out, nonce[:], ciphertext, ad)
	if err != nil {
		return nil, ErrDecrypt
	}
	return res, nil
}

// CipherAESGCM is the AES256-GCM AEAD cipher function.
var CipherAESGCM CipherFunc = aeadCipherFunc{
	name: "AESGCM",
	new: func(k [32]byte) cipher.AEAD {
		block, err := aes.NewCipher(k[:])
		if err != nil {
			panic(err)
		}
		aead, err := cipher.NewGCM(block)
		if err != nil {
			panic(err)
		}
		return aead
	},
}

// CipherChaChaPoly is the ChaCha20-Poly1305 AEAD cipher function.
var CipherChaChaPoly CipherFunc = aeadCipherFunc{
	name: "ChaChaPoly",
	new: func(k [32]byte) cipher.AEAD {
		aead, err := chacha20poly1305.New(k[:])
		if err != nil {
			panic(err)
		}
		return aead
	},
}

type hashFunc struct {
	name string
	new  func() hash.Hash
}

func (h hashFunc) HashName() string { return h.name }
func (h hashFunc) Hash() hash.Hash  { return h.new() }

// HashSHA256 is the SHA-256 hash function.
var HashSHA256 HashFunc = hashFunc{name: "SHA256", new: sha256.New}

// HashSHA512 is the SHA-512 hash function.
var HashSHA512 HashFunc = hashFunc{name: "SHA512", new: sha512.New}

// HashBLAKE2b is the BLAKE2b hash function.
var HashBLAKE2b HashFunc = hashFunc{
	name: "BLAKE2b",
	new: func() hash.Hash {
		h, err := blake2b.New512(nil)
		if err != nil {
			panic(err)
		}
		return h
	},
}

// DHByName, CipherByName and HashByName map the primitive-name fragments of
// a protocol string (e.g. "25519", "ChaChaPoly", "BLAKE2b") to the concrete
// value this module ships for them. A name-resolution layer built on top of
// the engine (the protocol-name builder, or a test-vector runner) uses these
// instead of a type switch.
var (
	DHByName = map[string]DHFunc{
		DH25519.DHName(): DH25519,
	}
	CipherByName = map[string]CipherFunc{
		CipherAESGCM.CipherName():     CipherAESGCM,
		CipherChaChaPoly.CipherName(): CipherChaChaPoly,
	}
	HashByName = map[string]HashFunc{
		HashSHA256.HashName():  HashSHA256,
		HashSHA512.HashName():  HashSHA512,
		HashBLAKE2b.HashName(): HashBLAKE2b,
	}
)

// hkdf implements the HKDF construction used by SymmetricState.MixKey and
// MixKeyAndHash: two or three HKDF-Expand-style outputs derived from the
// chaining key salt and the input keying material. Like the Noise spec's
// reference implementations, this is a direct two-HMAC construction rather
// than a generic streaming KDF, since the caller always wants exactly 2 or
// 3 fixed HASHLEN blocks.
func hkdf(h HashFunc, ck []byte, ikm []byte, outputs ...[]byte) {
	tempKey := hmacHash(h, ck, ikm)
	prev := hmacHash(h, tempKey, []byte{1})
	copy(outputs[0], prev)
	for i := 1; i < len(outputs); i++ {
		buf := make([]byte, 0, len(prev)+1)
		buf = append(buf, prev...)
		buf = append(buf, byte(i+1))
		prev = hmacHash(h, tempKey, buf)
		copy(outputs[i], prev)
	}
}

func hmacHash(h HashFunc, key, data []byte) []byte {
	mac := hmac.New(h.Hash, key)
	mac.Write(data)
	return mac.Sum(nil)
}
