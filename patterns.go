package noise

// A MessagePattern is a single token processed while writing or reading a
// handshake message.
type MessagePattern int

const (
	MessagePatternS MessagePattern = iota
	MessagePatternE
	MessagePatternDHEE
	MessagePatternDHES
	MessagePatternDHSE
	MessagePatternDHSS
	MessagePatternPSK
)

// A HandshakePattern is a list of messages and pre-messages that together
// describe a concrete Noise handshake, e.g. "XX" or "IK".
type HandshakePattern struct {
	Name                 string
	InitiatorPreMessages []MessagePattern
	ResponderPreMessages []MessagePattern
	Messages             [][]MessagePattern
}

// OneWay reports whether the pattern has a single message and is therefore
// usable only for one-way communication (the responder never writes).
func (p HandshakePattern) OneWay() bool {
	return len(p.Messages) == 1
}

var (
	// HandshakeN is a one-way pattern where the initiator knows the
	// responder's static key in advance.
	HandshakeN = HandshakePattern{
		Name:                 "N",
		ResponderPreMessages: []MessagePattern{MessagePatternS},
		Messages: [][]MessagePattern{
			{MessagePatternE, MessagePatternDHES},
		},
	}

	// HandshakeK is a one-way pattern where both static keys are known in
	// advance.
	HandshakeK = HandshakePattern{
		Name:                 "K",
		InitiatorPreMessages: []MessagePattern{MessagePatternS},
		ResponderPreMessages: []MessagePattern{MessagePatternS},
		Messages: [][]MessagePattern{
			{MessagePatternE, MessagePatternDHES, MessagePatternDHSS},
		},
	}

	// HandshakeX is a one-way pattern where the initiator transmits its
	// static key, encrypted, in its only message.
	HandshakeX = HandshakePattern{
		Name:                 "X",
		ResponderPreMessages: []MessagePattern{MessagePatternS},
		Messages: [][]MessagePattern{
			{MessagePatternE, MessagePatternDHES, MessagePatternS, MessagePatternDHSS},
		},
	}

	// HandshakeNN is a fully anonymous, interactive handshake.
	HandshakeNN = HandshakePattern{
		Name: "NN",
		Messages: [][]MessagePattern{
			{MessagePatternE},
			{MessagePatternE, MessagePatternDHEE},
		},
	}

	// HandshakeNK is interactive with the responder's static key known in
	// advance.
	HandshakeNK = HandshakePattern{
		Name:                 "NK",
		ResponderPreMessages: []MessagePattern{MessagePatternS},
		Messages: [][]MessagePattern{
			{MessagePatternE, MessagePatternDHES},
			{MessagePatternE, MessagePatternDHEE},
		},
	}

	// HandshakeNX is interactive; the responder transmits its static key in
	// message 2.
	HandshakeNX = HandshakePattern{
		Name: "NX",
		Messages: [][]MessagePattern{
			{MessagePatternE},
			{MessagePatternE, MessagePatternDHEE, MessagePatternS, MessagePatternDHES},
		},
	}

	// HandshakeXN is interactive; the initiator transmits its static key in
	// message 3.
	HandshakeXN = HandshakePattern{
		Name: "XN",
		Messages: [][]MessagePattern{
			{MessagePatternE},
			{MessagePatternE, MessagePatternDHEE},
			{MessagePatternS, MessagePatternDHSE},
		},
	}

	// HandshakeXK is interactive with the responder's static key known in
	// advance and the initiator's static key transmitted, encrypted, in
	// message 3.
	HandshakeXK = HandshakePattern{
		Name:                 "XK",
		ResponderPreMessages: []MessagePattern{MessagePatternS},
		Messages: [][]MessagePattern{
			{MessagePatternE, MessagePatternDHES},
			{MessagePatternE, MessagePatternDHEE},
			{MessagePatternS, MessagePatternDHSE},
		},
	}

	// HandshakeXX is interactive and mutually authenticated, with both
	// static keys transmitted over the handshake.
	HandshakeXX = HandshakePattern{
		Name: "XX",
		Messages: [][]MessagePattern{
			{MessagePatternE},
			{MessagePatternE, MessagePatternDHEE, MessagePatternS, MessagePatternDHES},
			{MessagePatternS, MessagePatternDHSE},
		},
	}

	// HandshakeKN is interactive with the initiator's static key known in
	// advance.
	HandshakeKN = HandshakePattern{
		Name:                 "KN",
		InitiatorPreMessages: []MessagePattern{MessagePatternS},
		Messages: [][]MessagePattern{
			{MessagePatternE},
			{MessagePatternE, MessagePatternDHEE, MessagePatternDHSE},
		},
	}

	// HandshakeKK is interactive with both static keys known in advance.
	HandshakeKK = HandshakePattern{
		Name:                 "KK",
		InitiatorPreMessages: []MessagePattern{MessagePatternS},
		ResponderPreMessages: []MessagePattern{MessagePatternS},
		Messages: [][]MessagePattern{
			{MessagePatternE, MessagePatternDHES, MessagePatternDHSS},
			{MessagePatternE, MessagePatternDHEE, MessagePatternDHSE},
		},
	}

	// HandshakeKX is interactive with the initiator's static key known in
	// advance and the responder's static key transmitted in message 2.
	HandshakeKX = HandshakePattern{
		Name:                 "KX",
		InitiatorPreMessages: []MessagePattern{MessagePatternS},
		Messages: [][]MessagePattern{
			{MessagePatternE},
			{MessagePatternE, MessagePatternDHEE, MessagePatternDHSE, MessagePatternS, MessagePatternDHES},
		},
	}

	// HandshakeIN is interactive, the initiator's static key is transmitted
	// in message 1.
	HandshakeIN = HandshakePattern{
		Name: "IN",
		Messages: [][]MessagePattern{
			{MessagePatternE, MessagePatternS},
			{MessagePatternE, MessagePatternDHEE, MessagePatternDHSE},
		},
	}

	// HandshakeIK is interactive with the responder's static key known in
	// advance; the initiator's static key is transmitted, encrypted, in
	// message 1.
	HandshakeIK = HandshakePattern{
		Name:                 "IK",
		ResponderPreMessages: []MessagePattern{MessagePatternS},
		Messages: [][]MessagePattern{
			{MessagePatternE, MessagePatternDHES, MessagePatternS, MessagePatternDHSS},
			{MessagePatternE, MessagePatternDHEE, MessagePatternDHSE},
		},
	}

	// HandshakeIX is interactive; both static keys are transmitted over the
	// handshake with no pre-knowledge.
	HandshakeIX = HandshakePattern{
		Name: "IX",
		Messages: [][]MessagePattern{
			{MessagePatternE, MessagePatternS},
			{MessagePatternE, MessagePatternDHEE, MessagePatternDHSE, MessagePatternS, MessagePatternDHES},
		},
	}

	// HandshakeXXfallback is the fallback pattern re-entered after a failed
	// zero-round-trip IK (or similar) attempt, with roles swapped from the
	// aborted attempt: the party now driving the fallback as "responder"
	// here is the one who actually holds the e that was exchanged in the
	// failed attempt, while the fallback "initiator" only knows its public
	// value. That e is injected as a pre-message instead of being sent
	// again.
	HandshakeXXfallback = HandshakePattern{
		Name:                 "XXfallback",
		ResponderPreMessages: []MessagePattern{MessagePatternE},
		Messages: [][]MessagePattern{
			{MessagePatternE, MessagePatternDHEE, MessagePatternS, MessagePatternDHES},
			{MessagePatternS, MessagePatternDHSE},
		},
	}
)

// PSKMode selects where in a handshake a pre-shared-key token is inserted.
type PSKMode int

const (
	// PSKModeNone is the modifier for a non-PSK handshake.
	PSKModeNone PSKMode = iota
	// PSKMode0 inserts the psk token at the very start of message 0.
	PSKMode0
	// PSKMode1 inserts the psk token at the end of message 0.
	PSKMode1
	// PSKMode2 inserts the psk token at the end of message 1.
	PSKMode2
	// PSKMode3 inserts the psk token at the end of message 2.
	PSKMode3
)

// WithPSKModifier returns a copy of the base pattern with a psk token
// inserted at the position named by mode, and its Name rewritten to the
// canonical "psk<N>" modifier suffix (e.g. "NNpsk0").
//
// PSKMode0 prepends the token to the first message; PSKMode1..3 number
// messages from the start, appending the token to the end of message N-1
// (psk1 to message 0, psk2 to message 1, psk3 to message 2). Only these
// four positions are supported, and WithPSKModifier panics if the pattern
// has fewer messages than the chosen mode needs.
func WithPSKModifier(base HandshakePattern, mode PSKMode) HandshakePattern {
	if mode == PSKModeNone {
		return base
	}

	out := HandshakePattern{
		Name:                 base.Name + pskSuffix(mode),
		InitiatorPreMessages: base.InitiatorPreMessages,
		ResponderPreMessages: base.ResponderPreMessages,
		Messages:             make([][]MessagePattern, len(base.Messages)),
	}
	for i, msg := range base.Messages {
		cp := make([]MessagePattern, len(msg))
		copy(cp, msg)
		out.Messages[i] = cp
	}

	switch mode {
	case PSKMode0:
		out.Messages[0] = append([]MessagePattern{MessagePatternPSK}, out.Messages[0]...)
	case PSKMode1:
		out.Messages[0] = append(out.Messages[0], MessagePatternPSK)
	case PSKMode2:
		out.Messages[1] = append(out.Messages[1], MessagePatternPSK)
	case PSKMode3:
		out.Messages[2] = append(out.Messages[2], MessagePatternPSK)
	}
	return out
}

func pskSuffix(mode PSKMode) string {
	switch mode {
	case PSKMode0:
		return "psk0"
	case PSKMode1:
		return "psk1"
	case PSKMode2:
		return "psk2"
	case PSKMode3:
		return "psk3"
	default:
		return ""
	}
}

// PatternByName looks up a base handshake pattern (e.g. "XX", "IK") by the
// name fragment a protocol string uses for it, with any psk modifier already
// stripped out by the caller. It is the pattern-catalog side of the
// name-resolution spec.md assigns to the builder layer rather than the
// engine itself.
func PatternByName(name string) (HandshakePattern, bool) {
	p, ok := basePatterns[name]
	return p, ok
}

// basePatterns maps a pattern's base name (without any psk modifier) to its
// HandshakePattern value, used by protocol-name parsing.
var basePatterns = map[string]HandshakePattern{
	"N":          HandshakeN,
	"K":          HandshakeK,
	"X":          HandshakeX,
	"NN":         HandshakeNN,
	"NK":         HandshakeNK,
	"NX":         HandshakeNX,
	"XN":         HandshakeXN,
	"XK":         HandshakeXK,
	"XX":         HandshakeXX,
	"KN":         HandshakeKN,
	"KK":         HandshakeKK,
	"KX":         HandshakeKX,
	"IN":         HandshakeIN,
	"IK":         HandshakeIK,
	"IX":         HandshakeIX,
	"XXfallback": HandshakeXXfallback,
}
