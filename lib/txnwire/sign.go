package txnwire

import (
	"crypto/sha256"

	"github.com/uvensys/anchorauth/lib/keypair"
)

// NetworkID derives the 32-byte network identifier from a network
// passphrase. Mixing it into every signing payload means a signature
// made for one deployment can never be replayed against another.
func NetworkID(networkPassphrase string) [32]byte {
	return sha256.Sum256([]byte(networkPassphrase))
}

// SignatureBase returns the bytes that are actually signed: the network
// identifier followed by the transaction encoded without signatures.
func (tx *Transaction) SignatureBase(networkPassphrase string) ([]byte, error) {
	body, err := tx.encode(false)
	if err != nil {
		return nil, err
	}

	id := NetworkID(networkPassphrase)
	result := make([]byte, 0, len(id)+len(body))
	result = append(result, id[:]...)
	result = append(result, body...)
	return result, nil
}

// Hash returns the SHA-256 digest of the signature base. This is both
// the message handed to the signing primitive and a stable identity for
// the transaction within a network.
func (tx *Transaction) Hash(networkPassphrase string) ([32]byte, error) {
	base, err := tx.SignatureBase(networkPassphrase)
	if err != nil {
		return [32]byte{}, err
	}

	return sha256.Sum256(base), nil
}

// Sign appends a decorated signature over the transaction hash. The
// existing signature list is never modified, only extended.
func (tx *Transaction) Sign(networkPassphrase string, kp *keypair.Full) error {
	hash, err := tx.Hash(networkPassphrase)
	if err != nil {
		return err
	}

	sig, err := kp.Sign(hash[:])
	if err != nil {
		return err
	}

	tx.Signatures = append(tx.Signatures, DecoratedSignature{
		Hint:      kp.Hint(),
		Signature: sig,
	})

	return nil
}
