package noise

import "testing"

func TestWithPSKModifierName(t *testing.T) {
	cases := []struct {
		base HandshakePattern
		mode PSKMode
		want string
	}{
		{HandshakeNN, PSKMode0, "NNpsk0"},
		{HandshakeNN, PSKMode1, "NNpsk1"},
		{HandshakeXX, PSKMode2, "XXpsk2"},
		{HandshakeXX, PSKMode3, "XXpsk3"},
	}
	for _, c := range cases {
		got := WithPSKModifier(c.base, c.mode)
		if got.Name != c.want {
			t.Errorf("WithPSKModifier(%s, %d).Name = %q, want %q", c.base.Name, c.mode, got.Name, c.want)
		}
	}
}

func TestWithPSKModifierDoesNotMutateBase(t *testing.T) {
	before := len(HandshakeNN.Messages[0])
	WithPSKModifier(HandshakeNN, PSKMode1)
	if len(HandshakeNN.Messages[0]) != before {
		t.Fatal("WithPSKModifier must not mutate the base pattern")
	}
}

func TestWithPSKModifierPositions(t *testing.T) {
	p0 := WithPSKModifier(HandshakeNN, PSKMode0)
	if p0.Messages[0][0] != MessagePatternPSK {
		t.Fatal("psk0 must be the first token of message 0")
	}

	p1 := WithPSKModifier(HandshakeNN, PSKMode1)
	last := p1.Messages[0][len(p1.Messages[0])-1]
	if last != MessagePatternPSK {
		t.Fatal("psk1 must be the last token of message 0")
	}

	p2 := WithPSKModifier(HandshakeNN, PSKMode2)
	last = p2.Messages[1][len(p2.Messages[1])-1]
	if last != MessagePatternPSK {
		t.Fatal("psk2 must be the last token of message 1")
	}
}

func TestOneWay(t *testing.T) {
	if !HandshakeN.OneWay() {
		t.Fatal("N should be one-way")
	}
	if HandshakeXX.OneWay() {
		t.Fatal("XX should not be one-way")
	}
}
