package decaymap

import (
	"testing"
	"time"
)

func TestImpl(t *testing.T) {
	m := New[string, int]()

	if _, ok := m.Get("missing"); ok {
		t.Error("wanted missing key to not exist but it does")
	}

	m.Set("answer", 42, 5*time.Minute)

	val, ok := m.Get("answer")
	if !ok {
		t.Fatal("wanted answer to exist but it does not")
	}
	if val != 42 {
		t.Errorf("want: 42, got: %d", val)
	}

	if !m.Delete("answer") {
		t.Error("wanted Delete to report the key existed")
	}
	if m.Delete("answer") {
		t.Error("wanted Delete of a missing key to report false")
	}
}

func TestExpiry(t *testing.T) {
	m := New[string, string]()
	m.Set("ephemeral", "hi", 10*time.Millisecond)

	time.Sleep(15 * time.Millisecond)

	if _, ok := m.Get("ephemeral"); ok {
		t.Error("wanted ephemeral key to have decayed but it still exists")
	}

	m.Set("ephemeral", "hi again", 10*time.Millisecond)
	time.Sleep(15 * time.Millisecond)
	m.Cleanup()

	if m.Len() != 0 {
		t.Errorf("wanted 0 entries after Cleanup, got: %d", m.Len())
	}
}
