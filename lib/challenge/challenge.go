// Package challenge builds and verifies challenge transactions: signable,
// never-submittable transactions used to prove control of a keypair
// without touching any ledger.
//
// The server builds a challenge bound to a claimant's account, the
// claimant signs it, and the server verifies the returned envelope
// against structural rules, expiry, and weighted multi-signature
// thresholds. Every check here is a security boundary: each one blocks a
// specific forgery or replay vector, so verification is exhaustive and
// terminal on the first failing check.
//
// All functions are pure with respect to their inputs (plus the clock),
// hold no state, and are safe for unbounded concurrent use.
package challenge

import (
	"encoding/base64"
	"io"
	"time"

	"github.com/uvensys/anchorauth"
	"github.com/uvensys/anchorauth/lib/keypair"
	"github.com/uvensys/anchorauth/lib/txnwire"

	"crypto/rand"
)

// BuildParams are the inputs to Build.
type BuildParams struct {
	// Server is the keypair that issues and signs the challenge.
	Server *keypair.Full

	// ClientAccount is the address of the claimant being challenged.
	ClientAccount string

	// AnchorName names the issuing service. The challenge's manage data
	// entry is called "<AnchorName> auth".
	AnchorName string

	// NetworkPassphrase namespaces all signatures on the challenge.
	NetworkPassphrase string

	// Timeout is the length of the challenge validity window. Zero means
	// anchorauth.DefaultChallengeTimeout; negative values are an error.
	Timeout time.Duration

	// Now overrides the clock. Tests use this to get fixed windows.
	Now func() time.Time

	// Rand overrides the nonce entropy source. Tests use this to get a
	// deterministic nonce; production must leave it nil so the nonce
	// comes from crypto/rand.
	Rand io.Reader
}

// Build constructs a new challenge transaction for one authentication
// attempt and returns it as a base64 envelope.
//
// The transaction carries a fresh 48-byte random nonce base64-encoded
// into the 64-byte value of a single manage data operation, has sequence
// number zero so it can never be submitted to a ledger, is valid from
// now until now+timeout, and is signed by the server.
func Build(p BuildParams) (string, error) {
	if p.Server == nil {
		return "", newError("build", "server keypair is required", nil)
	}
	if _, err := keypair.ParseAddress(p.ClientAccount); err != nil {
		return "", newError("build", "client account is not a valid address", err)
	}
	if p.AnchorName == "" {
		return "", newError("build", "anchor name is required", nil)
	}
	if p.Timeout < 0 {
		return "", newError("build", "challenge timeout must not be negative", nil)
	}

	timeout := p.Timeout
	if timeout == 0 {
		timeout = anchorauth.DefaultChallengeTimeout
	}

	now := time.Now
	if p.Now != nil {
		now = p.Now
	}

	entropy := io.Reader(rand.Reader)
	if p.Rand != nil {
		entropy = p.Rand
	}

	// There is no such thing as a degraded challenge: if the entropy
	// source fails, the whole build fails.
	nonce := make([]byte, anchorauth.NonceLength)
	if _, err := io.ReadFull(entropy, nonce); err != nil {
		return "", newError("build", "cannot read random nonce", err)
	}

	issuedAt := now()
	tx := &txnwire.Transaction{
		SourceAccount: p.Server.Address(),
		SeqNum:        0,
		TimeBounds: &txnwire.TimeBounds{
			MinTime: issuedAt.Unix(),
			MaxTime: issuedAt.Add(timeout).Unix(),
		},
		Operations: []txnwire.Operation{
			&txnwire.ManageData{
				OpSource: p.ClientAccount,
				Name:     p.AnchorName + anchorauth.DataNameSuffix,
				Value:    []byte(base64.StdEncoding.EncodeToString(nonce)),
			},
		},
	}

	if err := tx.Sign(p.NetworkPassphrase, p.Server); err != nil {
		return "", newError("build", "cannot sign challenge transaction", err)
	}

	envelope, err := tx.MarshalBase64()
	if err != nil {
		return "", newError("build", "cannot encode challenge transaction", err)
	}

	challengesIssued.Inc()
	return envelope, nil
}
