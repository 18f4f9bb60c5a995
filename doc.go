// Package noise implements the Noise Protocol Framework.
//
// Noise is a low-level framework for building crypto protocols. Noise
// protocols support mutual and optional authentication, identity hiding,
// forward secrecy, zero round-trip encryption, and other advanced features.
// For more details, visit http://noiseprotocol.org.
//
// A caller picks a HandshakePattern, a CipherSuite, and the keys the pattern
// requires, builds a HandshakeState with NewHandshakeState, and then drives
// the handshake to completion by alternating WriteMessage and ReadMessage
// calls. Once the pattern is exhausted, both calls return a pair of
// CipherStates that are used independently for transport encryption and
// decryption.
package noise
