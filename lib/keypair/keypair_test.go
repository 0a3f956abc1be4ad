package keypair

import (
	"errors"
	"strings"
	"testing"
)

func TestAddressRoundTrip(t *testing.T) {
	kp, err := Random()
	if err != nil {
		t.Fatal(err)
	}

	address := kp.Address()
	if !strings.HasPrefix(address, "G") {
		t.Errorf("wanted address to start with G, got: %s", address)
	}
	if len(address) != 56 {
		t.Errorf("wanted address length 56, got: %d", len(address))
	}

	parsed, err := ParseAddress(address)
	if err != nil {
		t.Fatal(err)
	}
	if parsed.Address() != address {
		t.Errorf("want: %s, got: %s", address, parsed.Address())
	}
}

func TestSeedRoundTrip(t *testing.T) {
	kp, err := Random()
	if err != nil {
		t.Fatal(err)
	}

	seed := kp.Seed()
	if !strings.HasPrefix(seed, "S") {
		t.Errorf("wanted seed to start with S, got: %s", seed)
	}

	parsed, err := ParseFull(seed)
	if err != nil {
		t.Fatal(err)
	}
	if parsed.Address() != kp.Address() {
		t.Errorf("want: %s, got: %s", kp.Address(), parsed.Address())
	}
}

func TestParseRejectsCorruption(t *testing.T) {
	kp, err := Random()
	if err != nil {
		t.Fatal(err)
	}

	address := kp.Address()

	for _, tt := range []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"garbage", "this is not a key"},
		{"truncated", address[:len(address)-4]},
		{"flipped checksum", address[:len(address)-1] + flip(address[len(address)-1])},
		{"seed as address", kp.Seed()},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseAddress(tt.input); !errors.Is(err, ErrInvalidKey) {
				t.Errorf("want ErrInvalidKey, got: %v", err)
			}
		})
	}
}

// flip returns a different valid base32 character than the input.
func flip(c byte) string {
	if c == 'A' {
		return "B"
	}
	return "A"
}

func TestParseDispatch(t *testing.T) {
	kp, err := Random()
	if err != nil {
		t.Fatal(err)
	}

	got, err := Parse(kp.Address())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := got.(*FromAddress); !ok {
		t.Errorf("wanted Parse of an address to return *FromAddress, got: %T", got)
	}

	got, err = Parse(kp.Seed())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := got.(*Full); !ok {
		t.Errorf("wanted Parse of a seed to return *Full, got: %T", got)
	}
}

func TestSignVerify(t *testing.T) {
	kp, err := Random()
	if err != nil {
		t.Fatal(err)
	}
	other, err := Random()
	if err != nil {
		t.Fatal(err)
	}

	input := []byte("hello, world")

	sig, err := kp.Sign(input)
	if err != nil {
		t.Fatal(err)
	}

	if err := kp.Verify(input, sig); err != nil {
		t.Errorf("wanted signature to verify, got: %v", err)
	}

	if err := other.Verify(input, sig); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("wanted ErrInvalidSignature under the wrong key, got: %v", err)
	}

	if err := kp.Verify([]byte("tampered"), sig); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("wanted ErrInvalidSignature for a tampered input, got: %v", err)
	}

	if err := kp.Verify(input, sig[:16]); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("wanted ErrInvalidSignature for a short signature, got: %v", err)
	}
}

func TestHint(t *testing.T) {
	kp, err := Random()
	if err != nil {
		t.Fatal(err)
	}

	parsed, err := ParseAddress(kp.Address())
	if err != nil {
		t.Fatal(err)
	}

	if kp.Hint() != parsed.Hint() {
		t.Errorf("want: %x, got: %x", kp.Hint(), parsed.Hint())
	}
}
