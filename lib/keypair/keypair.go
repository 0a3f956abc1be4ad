// Package keypair implements the asymmetric signing primitive for
// anchorauth: ed25519 keypairs addressed by a checksummed base32 string.
//
// There are two kinds of keypairs. A Full keypair is backed by a seed
// and can sign. A FromAddress keypair only holds the public half and
// can merely verify. Both satisfy KP, which is all the verification
// pipeline ever needs.
package keypair

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrInvalidKey is returned when an address or seed string does not
	// decode to a well-formed key.
	ErrInvalidKey = errors.New("keypair: invalid key")

	// ErrInvalidSignature is returned when a signature does not verify
	// under the given public key.
	ErrInvalidSignature = errors.New("keypair: signature verification failed")
)

// KP is the subset of keypair behavior needed to verify signatures and
// identify signers.
type KP interface {
	// Address returns the public key in its checksummed base32 form.
	Address() string

	// Hint returns the last four bytes of the raw public key, used to
	// cheaply pre-match decorated signatures to candidate keys.
	Hint() [4]byte

	// Verify checks that sig is a valid signature of input under this
	// key. Returns ErrInvalidSignature if it is not.
	Verify(input, sig []byte) error
}

// FromAddress is the verify-only half of a keypair.
type FromAddress struct {
	pub ed25519.PublicKey
}

// ParseAddress decodes a G... address into a verify-only keypair.
func ParseAddress(address string) (*FromAddress, error) {
	pub, err := decodeKey(versionPublicKey, address)
	if err != nil {
		return nil, err
	}

	return &FromAddress{pub: ed25519.PublicKey(pub)}, nil
}

func (kp *FromAddress) Address() string {
	return encodeKey(versionPublicKey, kp.pub)
}

func (kp *FromAddress) Hint() [4]byte {
	var result [4]byte
	copy(result[:], kp.pub[ed25519.PublicKeySize-4:])
	return result
}

func (kp *FromAddress) Verify(input, sig []byte) error {
	if len(sig) != ed25519.SignatureSize {
		return fmt.Errorf("%w: signature is %d bytes, want %d", ErrInvalidSignature, len(sig), ed25519.SignatureSize)
	}

	if !ed25519.Verify(kp.pub, input, sig) {
		return ErrInvalidSignature
	}

	return nil
}

// Full is a seed-backed keypair that can both sign and verify.
type Full struct {
	seed [ed25519.SeedSize]byte
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
}

// Random generates a new keypair from the operating system's
// cryptographically secure entropy source.
func Random() (*Full, error) {
	var seed [ed25519.SeedSize]byte
	if _, err := io.ReadFull(rand.Reader, seed[:]); err != nil {
		return nil, fmt.Errorf("keypair: can't read random seed: %w", err)
	}

	return FromRawSeed(seed), nil
}

// FromRawSeed derives a keypair from 32 raw seed bytes.
func FromRawSeed(seed [ed25519.SeedSize]byte) *Full {
	priv := ed25519.NewKeyFromSeed(seed[:])

	return &Full{
		seed: seed,
		priv: priv,
		pub:  priv.Public().(ed25519.PublicKey),
	}
}

// ParseFull decodes an S... seed string into a signing keypair.
func ParseFull(seed string) (*Full, error) {
	raw, err := decodeKey(versionSeed, seed)
	if err != nil {
		return nil, err
	}

	var s [ed25519.SeedSize]byte
	copy(s[:], raw)
	return FromRawSeed(s), nil
}

// Parse accepts either a G... address or an S... seed and returns the
// strongest keypair the input allows.
func Parse(addressOrSeed string) (KP, error) {
	if kp, err := ParseAddress(addressOrSeed); err == nil {
		return kp, nil
	}

	if kp, err := ParseFull(addressOrSeed); err == nil {
		return kp, nil
	}

	return nil, fmt.Errorf("%w: not a valid address or seed", ErrInvalidKey)
}

func (kp *Full) Address() string {
	return encodeKey(versionPublicKey, kp.pub)
}

// Seed returns the S... form of the secret seed.
func (kp *Full) Seed() string {
	return encodeKey(versionSeed, kp.seed[:])
}

func (kp *Full) Hint() [4]byte {
	var result [4]byte
	copy(result[:], kp.pub[ed25519.PublicKeySize-4:])
	return result
}

// Sign signs input with the secret key. ed25519 signing is
// deterministic: the same input always yields the same signature.
func (kp *Full) Sign(input []byte) ([]byte, error) {
	return ed25519.Sign(kp.priv, input), nil
}

func (kp *Full) Verify(input, sig []byte) error {
	return kp.FromAddress().Verify(input, sig)
}

// FromAddress strips the secret half off a Full keypair.
func (kp *Full) FromAddress() *FromAddress {
	return &FromAddress{pub: kp.pub}
}
