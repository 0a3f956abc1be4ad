package challenge

import (
	"encoding/base64"
	"time"

	"github.com/uvensys/anchorauth"
	"github.com/uvensys/anchorauth/lib/keypair"
	"github.com/uvensys/anchorauth/lib/txnwire"
)

// Read runs the structural stage of challenge verification: it decodes
// the envelope and confirms the transaction is a well-formed,
// unexpired, server-authentic challenge. On success it returns the
// decoded transaction and the claimant's address.
//
// Checks run in a fixed order and stop at the first failure, so a given
// bad input always produces the same minimal-information error. Read
// performs no threshold logic; see the Verify functions for that.
func Read(challengeTx, serverAccount, networkPassphrase string) (*txnwire.Transaction, string, error) {
	tx, client, err := readAt(time.Now(), challengeTx, serverAccount, networkPassphrase)
	observe("read", err)
	return tx, client, err
}

func readAt(now time.Time, challengeTx, serverAccount, networkPassphrase string) (*txnwire.Transaction, string, error) {
	tx, err := txnwire.DecodeBase64(challengeTx)
	if err != nil {
		return nil, "", newError("read", "cannot decode challenge transaction", err)
	}

	if tx.SeqNum != 0 {
		return nil, "", newError("read", "transaction sequence number should be zero", nil)
	}

	if tx.SourceAccount != serverAccount {
		return nil, "", newError("read", "transaction source account does not match server account", nil)
	}

	if len(tx.Operations) != 1 {
		return nil, "", newError("read", "transaction should contain only one operation", nil)
	}

	op := tx.Operations[0]
	if op.Source() == "" {
		return nil, "", newError("read", "operation must contain a source account", nil)
	}

	md, ok := op.(*txnwire.ManageData)
	if !ok {
		return nil, "", newError("read", "operation should be a manage data operation", nil)
	}

	if !validNonce(md.Value) {
		return nil, "", newError("read", "operation value should be a 64 byte base64 encoded random string", nil)
	}

	if expired(tx.TimeBounds, now) {
		return nil, "", newError("read", "transaction has expired", nil)
	}

	serverKP, err := keypair.ParseAddress(serverAccount)
	if err != nil {
		return nil, "", newError("read", "server account is not a valid address", err)
	}
	if !SignedBy(tx, networkPassphrase, serverKP) {
		return nil, "", newError("read", "transaction not signed by server: "+serverAccount, nil)
	}

	return tx, op.Source(), nil
}

// validNonce accepts exactly the values Build produces: 64 bytes of
// base64 text decoding to a 48-byte payload.
func validNonce(value []byte) bool {
	if value == nil || len(value) != anchorauth.EncodedNonceLength {
		return false
	}

	raw, err := base64.StdEncoding.DecodeString(string(value))
	return err == nil && len(raw) == anchorauth.NonceLength
}

// expired reports whether now falls outside the validity window.
// Missing bounds and unbounded windows count as expired, never as
// valid-forever: a challenge without a deadline is not a challenge.
func expired(tb *txnwire.TimeBounds, now time.Time) bool {
	if tb == nil || tb.MaxTime == 0 {
		return true
	}

	t := now.Unix()
	return t < tb.MinTime || t > tb.MaxTime
}
