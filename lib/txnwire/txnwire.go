// Package txnwire implements the transaction envelope codec used by the
// challenge protocol.
//
// A transaction here is a signable message, not a ledger mutation: the
// challenge flow deliberately constructs transactions that can never be
// submitted anywhere. The codec is a deterministic binary format
// (big-endian, length-prefixed) so the same transaction always encodes
// to the same bytes and therefore always hashes to the same signing
// payload. Envelopes travel as base64 text.
package txnwire

import (
	"errors"
)

var (
	// ErrMalformed is returned when an envelope cannot be decoded.
	ErrMalformed = errors.New("txnwire: malformed transaction envelope")

	// ErrLimitExceeded is returned when a field is larger than the wire
	// format allows.
	ErrLimitExceeded = errors.New("txnwire: field exceeds wire format limit")
)

// Wire format limits. Decoding rejects anything beyond these before
// allocating, encoding rejects it before writing.
const (
	// MaxDataNameLength bounds a manage data entry name.
	MaxDataNameLength = 64

	// MaxDataValueLength bounds a manage data entry value.
	MaxDataValueLength = 64

	maxAccountLength  = 56 // checksummed base32 form of a 32-byte key
	maxSignatureSize  = 64 // ed25519
	maxOperationCount = 100
	maxSignatureCount = 20
)

// wireVersion tags the start of every encoded transaction.
const wireVersion byte = 1

// Transaction is a signable transaction envelope.
type Transaction struct {
	// SourceAccount is the address of the account this transaction acts
	// for. In a challenge this is always the server.
	SourceAccount string

	// SeqNum orders transactions for submission. Challenges keep it at
	// zero, which no ledger will ever accept, making them unsubmittable.
	SeqNum int64

	// TimeBounds is the validity window, if any.
	TimeBounds *TimeBounds

	// Operations are the actions the transaction describes.
	Operations []Operation

	// Signatures is the ordered list of decorated signatures attached to
	// this transaction. Treated as append-only: verification never edits
	// it, it only runs independent matchers over it.
	Signatures []DecoratedSignature
}

// TimeBounds is an inclusive validity window in epoch seconds.
type TimeBounds struct {
	MinTime int64
	MaxTime int64
}

// DecoratedSignature is a raw signature plus a four-byte public key
// hint. The hint narrows down which keys to try during verification; it
// carries no authority on its own.
type DecoratedSignature struct {
	Hint      [4]byte
	Signature []byte
}

// Operation is one action inside a transaction.
type Operation interface {
	// Source returns the operation-level source account, or "" when the
	// operation inherits the transaction source.
	Source() string

	opType() byte
	encodeBody(w *writer)
}

// Operation type tags on the wire.
const (
	opTypeManageData   byte = 1
	opTypeBumpSequence byte = 2
)

// ManageData attaches a name/value pair to an account. The challenge
// protocol repurposes it as the carrier for the random nonce.
type ManageData struct {
	OpSource string

	// Name of the data entry, at most MaxDataNameLength bytes.
	Name string

	// Value of the data entry, at most MaxDataValueLength bytes. A nil
	// value means the entry is being removed.
	Value []byte
}

func (op *ManageData) Source() string { return op.OpSource }

func (op *ManageData) opType() byte { return opTypeManageData }

func (op *ManageData) encodeBody(w *writer) {
	if len(op.Name) > MaxDataNameLength {
		w.fail(ErrLimitExceeded)
		return
	}
	if len(op.Value) > MaxDataValueLength {
		w.fail(ErrLimitExceeded)
		return
	}

	w.str(op.Name)
	if op.Value == nil {
		w.bool(false)
		return
	}
	w.bool(true)
	w.bytes(op.Value)
}

// BumpSequence moves an account's sequence number forward. It exists so
// the envelope format has more than one operation shape; the challenge
// verifier rejects it.
type BumpSequence struct {
	OpSource string
	BumpTo   int64
}

func (op *BumpSequence) Source() string { return op.OpSource }

func (op *BumpSequence) opType() byte { return opTypeBumpSequence }

func (op *BumpSequence) encodeBody(w *writer) {
	w.i64(op.BumpTo)
}
