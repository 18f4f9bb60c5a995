package noisename

import "testing"

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want Name
	}{
		{
			in:   "Noise_XX_25519_AESGCM_SHA256",
			want: Name{Pattern: "XX", DH: "25519", Cipher: "AESGCM", Hash: "SHA256"},
		},
		{
			in:   "Noise_NNpsk0_25519_AESGCM_SHA512",
			want: Name{Pattern: "NN", PSKMode: "psk0", DH: "25519", Cipher: "AESGCM", Hash: "SHA512"},
		},
		{
			in:   "NoisePSK_NN_25519_AESGCM_SHA512",
			want: Name{Pattern: "NN", PSKMode: "psk0", DH: "25519", Cipher: "AESGCM", Hash: "SHA512"},
		},
	}

	for _, c := range cases {
		got, err := Parse(c.in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("Parse(%q) = %+v, want %+v", c.in, got, c.want)
		}
	}
}

func TestParseInvalid(t *testing.T) {
	cases := []string{
		"",
		"Garbage_XX_25519_AESGCM_SHA256",
		"Noise_XX_25519_AESGCM",
	}
	for _, in := range cases {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q): expected error, got nil", in)
		}
	}
}

func TestStringCanonicalizesLegacyPrefix(t *testing.T) {
	n, err := Parse("NoisePSK_NN_25519_AESGCM_SHA512")
	if err != nil {
		t.Fatal(err)
	}
	want := "Noise_NNpsk0_25519_AESGCM_SHA512"
	if got := n.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
