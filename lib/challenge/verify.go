package challenge

import (
	"fmt"
	"time"

	"github.com/uvensys/anchorauth/lib/keypair"
	"github.com/uvensys/anchorauth/lib/txnwire"
)

// SignedBy reports whether any signature on tx verifies under kp. It is
// the shared primitive behind every verification entry point: a pure
// predicate that never fails, only answers.
func SignedBy(tx *txnwire.Transaction, networkPassphrase string, kp keypair.KP) bool {
	hash, err := tx.Hash(networkPassphrase)
	if err != nil {
		return false
	}

	hint := kp.Hint()
	for _, sig := range tx.Signatures {
		if sig.Hint != hint {
			continue
		}
		if kp.Verify(hash[:], sig.Signature) == nil {
			return true
		}
	}

	return false
}

// VerifySignatures returns the subset of signers whose keys produced at
// least one valid signature on tx. Signers are deduplicated by address,
// keeping the first occurrence's weight, and the result preserves input
// order.
//
// A transaction signature that matches no candidate signer is NOT an
// error here; rejecting unattributable signatures is the concern of
// VerifyChallengeSigners.
func VerifySignatures(tx *txnwire.Transaction, networkPassphrase string, signers []Signer) ([]Signer, error) {
	if len(tx.Signatures) == 0 {
		return nil, newError("verify", "transaction has no signatures", nil)
	}

	matched, _, err := matchSigners(tx, networkPassphrase, signers)
	return matched, err
}

// matchSigners is the first verification pass: which of the supplied
// signers actually signed. The returned keypairs parallel the returned
// signers and feed the second, leftover-rejection pass.
func matchSigners(tx *txnwire.Transaction, networkPassphrase string, signers []Signer) ([]Signer, []keypair.KP, error) {
	seen := make(map[string]bool, len(signers))

	var matched []Signer
	var keys []keypair.KP
	for _, signer := range signers {
		if seen[signer.Address] {
			continue
		}
		seen[signer.Address] = true

		kp, err := keypair.ParseAddress(signer.Address)
		if err != nil {
			return nil, nil, newError("verify", "signer "+signer.Address+" is not a valid address", err)
		}

		if SignedBy(tx, networkPassphrase, kp) {
			matched = append(matched, signer)
			keys = append(keys, kp)
		}
	}

	return matched, keys, nil
}

// VerifyChallengeSigners runs the structural stage and then matches the
// challenge's signatures against the supplied signer list. The server's
// own key is implicitly excluded from the client signer set, and its
// signature is never "unrecognized".
//
// Every signature on the transaction must be attributable either to the
// server or to a matched signer. A valid signature from a key outside
// the supplied list fails verification even though it is individually
// sound: an attacker must not be able to smuggle extra signatures onto
// a challenge.
func VerifyChallengeSigners(challengeTx, serverAccount, networkPassphrase string, signers ...Signer) ([]Signer, error) {
	matched, err := verifyChallengeSignersAt(time.Now(), challengeTx, serverAccount, networkPassphrase, signers)
	observe("verify_signers", err)
	return matched, err
}

func verifyChallengeSignersAt(now time.Time, challengeTx, serverAccount, networkPassphrase string, signers []Signer) ([]Signer, error) {
	tx, _, err := readAt(now, challengeTx, serverAccount, networkPassphrase)
	if err != nil {
		return nil, err
	}

	// readAt already proved this parses.
	serverKP, err := keypair.ParseAddress(serverAccount)
	if err != nil {
		return nil, newError("verify", "server account is not a valid address", err)
	}

	var clientSigners []Signer
	for _, signer := range signers {
		if signer.Address == serverAccount {
			continue
		}
		clientSigners = append(clientSigners, signer)
	}

	if len(clientSigners) == 0 {
		return nil, newError("verify", "no verifiable signers provided", nil)
	}

	matched, matchedKeys, err := matchSigners(tx, networkPassphrase, clientSigners)
	if err != nil {
		return nil, err
	}
	if len(matched) == 0 {
		return nil, newError("verify", "transaction not signed by any client signer", nil)
	}

	// Second pass: signature-count conservation. Each signature must
	// verify under the server key or one of the matched signer keys.
	// Duplicate signatures by the same key are fine; signatures from
	// anyone else, or signatures that verify under nobody, are not.
	hash, err := tx.Hash(networkPassphrase)
	if err != nil {
		return nil, newError("verify", "cannot hash challenge transaction", err)
	}

	known := append([]keypair.KP{serverKP}, matchedKeys...)
	for _, sig := range tx.Signatures {
		if !attributable(hash, sig, known) {
			return nil, newError("verify", "transaction has unrecognized signatures", nil)
		}
	}

	return matched, nil
}

func attributable(hash [32]byte, sig txnwire.DecoratedSignature, known []keypair.KP) bool {
	for _, kp := range known {
		if kp.Hint() != sig.Hint {
			continue
		}
		if kp.Verify(hash[:], sig.Signature) == nil {
			return true
		}
	}

	return false
}

// VerifyChallengeThreshold verifies the challenge against the supplied
// signers and then requires their matched weights to sum to at least
// threshold. Returns the matched signers so the caller can see exactly
// who contributed.
func VerifyChallengeThreshold(challengeTx, serverAccount, networkPassphrase string, threshold int32, signers []Signer) ([]Signer, error) {
	matched, err := verifyChallengeThresholdAt(time.Now(), challengeTx, serverAccount, networkPassphrase, threshold, signers)
	observe("verify_threshold", err)
	return matched, err
}

func verifyChallengeThresholdAt(now time.Time, challengeTx, serverAccount, networkPassphrase string, threshold int32, signers []Signer) ([]Signer, error) {
	matched, err := verifyChallengeSignersAt(now, challengeTx, serverAccount, networkPassphrase, signers)
	if err != nil {
		return nil, err
	}

	var weight int64
	for _, signer := range matched {
		weight += int64(signer.Weight)
	}

	if weight < int64(threshold) {
		return nil, newError("verify", fmt.Sprintf("signers with weight %d do not meet threshold %d", weight, threshold), nil)
	}

	return matched, nil
}

// VerifyChallenge is the single-signer convenience form: the structural
// stage plus a requirement that the claimant's own key signed the
// challenge at least once.
func VerifyChallenge(challengeTx, serverAccount, networkPassphrase string) (*txnwire.Transaction, string, error) {
	tx, client, err := verifyChallengeAt(time.Now(), challengeTx, serverAccount, networkPassphrase)
	observe("verify", err)
	return tx, client, err
}

func verifyChallengeAt(now time.Time, challengeTx, serverAccount, networkPassphrase string) (*txnwire.Transaction, string, error) {
	tx, client, err := readAt(now, challengeTx, serverAccount, networkPassphrase)
	if err != nil {
		return nil, "", err
	}

	clientKP, err := keypair.ParseAddress(client)
	if err != nil {
		return nil, "", newError("verify", "client account is not a valid address", err)
	}

	if !SignedBy(tx, networkPassphrase, clientKP) {
		return nil, "", newError("verify", "transaction not signed by client: "+client, nil)
	}

	return tx, client, nil
}
