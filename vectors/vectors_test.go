package vectors

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
)

func TestRunBundledCorpus(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "core.json"))
	if err != nil {
		t.Fatal(err)
	}
	corpus, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(corpus.Vectors) == 0 {
		t.Fatal("expected at least one bundled vector")
	}

	for _, v := range corpus.Vectors {
		v := v
		t.Run(v.Name, func(t *testing.T) {
			if reason, skip := Unsupported(v); skip {
				t.Skip(reason)
			}
			got, err := Run(v)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if len(got) != len(v.Messages) {
				t.Fatalf("got %d messages, want %d", len(got), len(v.Messages))
			}
			for i, m := range v.Messages {
				if len(m.Ciphertext) == 0 {
					continue
				}
				if hex.EncodeToString(got[i]) != hex.EncodeToString(m.Ciphertext) {
					t.Errorf("message %d = %x, want %x", i, got[i], []byte(m.Ciphertext))
				}
			}
		})
	}
}

func TestUnsupportedSkipsEd448(t *testing.T) {
	v := Vector{Name: "Noise_XX_448_AESGCM_SHA256"}
	if _, skip := Unsupported(v); !skip {
		t.Fatal("expected Ed448 vector to be reported unsupported")
	}
}
