package registry

import "testing"

func TestOpenCompleteClose(t *testing.T) {
	r := New()
	id := r.Open("127.0.0.1:1234", true, "Noise_XX_25519_AESGCM_SHA256")

	s, ok := r.Get(id)
	if !ok {
		t.Fatal("expected session to be present after Open")
	}
	if !s.Initiator || s.Protocol != "Noise_XX_25519_AESGCM_SHA256" {
		t.Fatalf("unexpected session: %+v", s)
	}

	r.Complete(id, []byte{1, 2, 3})
	s, _ = r.Get(id)
	if len(s.ChannelBinding) != 3 {
		t.Fatalf("ChannelBinding = %v, want 3 bytes", s.ChannelBinding)
	}

	r.Close(id)
	if _, ok := r.Get(id); ok {
		t.Fatal("expected session to be gone after Close")
	}
}

func TestListSnapshot(t *testing.T) {
	r := New()
	r.Open("a", true, "p1")
	r.Open("b", false, "p2")

	sessions := r.List()
	if len(sessions) != 2 {
		t.Fatalf("got %d sessions, want 2", len(sessions))
	}
}
