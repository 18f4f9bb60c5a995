// Package noisename parses and formats Noise protocol name strings, e.g.
// "Noise_XX_25519_AESGCM_SHA256" or the historical "NoisePSK_NN_25519_AESGCM_SHA512"
// form. Parsing a protocol name into primitives and a pattern is mechanical
// string-splitting, not part of the handshake engine itself, and lives here
// so the engine package stays free of string-parsing concerns.
package noisename

import (
	"fmt"
	"strings"
)

// Name is the parsed form of a Noise protocol name.
type Name struct {
	// Pattern is the base handshake pattern name, e.g. "XX" or "IK", with
	// any psk modifier suffix stripped out into PSKMode.
	Pattern string

	// PSKMode is "" for a non-PSK handshake, or "psk0".."psk3" for the
	// canonical modern modifier form. A historical "NoisePSK_" prefixed name
	// with no modifier is normalized to "psk0" here; no other historical
	// spelling (such as a "RandomPSK" prefix) is recognized.
	PSKMode string

	DH     string
	Cipher string
	Hash   string
}

// Parse splits a full protocol name into its component fields. It accepts
// both the canonical modern form (in-pattern "psk0".."psk3" modifiers) and
// the historical "NoisePSK_"-prefixed form kept for test-vector
// compatibility, per spec.md §6 and §9 Open Question (a).
func Parse(protocolName string) (Name, error) {
	const modernPrefix = "Noise_"
	const pskPrefix = "NoisePSK_"

	var body string
	var legacyPSK bool
	switch {
	case strings.HasPrefix(protocolName, pskPrefix):
		body = protocolName[len(pskPrefix):]
		legacyPSK = true
	case strings.HasPrefix(protocolName, modernPrefix):
		body = protocolName[len(modernPrefix):]
	default:
		return Name{}, fmt.Errorf("noisename: %q has no Noise_/NoisePSK_ prefix", protocolName)
	}

	fields := strings.Split(body, "_")
	if len(fields) != 4 {
		return Name{}, fmt.Errorf("noisename: %q does not have 4 underscore-separated fields", protocolName)
	}

	pattern, mode := splitPSKModifier(fields[0])
	if legacyPSK && mode == "" {
		mode = "psk0"
	}

	return Name{
		Pattern: pattern,
		PSKMode: mode,
		DH:      fields[1],
		Cipher:  fields[2],
		Hash:    fields[3],
	}, nil
}

func splitPSKModifier(pattern string) (base, mode string) {
	if i := strings.Index(pattern, "psk"); i >= 0 && i+4 == len(pattern) {
		return pattern[:i], pattern[i:]
	}
	return pattern, ""
}

// String formats n back into its canonical modern-form protocol name
// (never the historical "NoisePSK_" prefix, per spec.md's guidance to
// accept either form on input but always emit the canonical one).
func (n Name) String() string {
	pattern := n.Pattern + n.PSKMode
	return "Noise_" + pattern + "_" + n.DH + "_" + n.Cipher + "_" + n.Hash
}
