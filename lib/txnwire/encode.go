package txnwire

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
)

// writer accumulates big-endian wire output. The first failure sticks
// and turns every later write into a no-op.
type writer struct {
	buf bytes.Buffer
	err error
}

func (w *writer) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

func (w *writer) u8(v byte) {
	if w.err != nil {
		return
	}
	w.buf.WriteByte(v)
}

func (w *writer) u32(v uint32) {
	if w.err != nil {
		return
	}
	var scratch [4]byte
	binary.BigEndian.PutUint32(scratch[:], v)
	w.buf.Write(scratch[:])
}

func (w *writer) u64(v uint64) {
	if w.err != nil {
		return
	}
	var scratch [8]byte
	binary.BigEndian.PutUint64(scratch[:], v)
	w.buf.Write(scratch[:])
}

func (w *writer) i64(v int64) {
	w.u64(uint64(v))
}

func (w *writer) bool(v bool) {
	if v {
		w.u8(1)
		return
	}
	w.u8(0)
}

func (w *writer) bytes(p []byte) {
	w.u32(uint32(len(p)))
	if w.err != nil {
		return
	}
	w.buf.Write(p)
}

func (w *writer) str(s string) {
	w.bytes([]byte(s))
}

// encode serializes the transaction. The signing payload is the
// encoding without signatures, so both shapes share this one path.
func (tx *Transaction) encode(includeSignatures bool) ([]byte, error) {
	if len(tx.SourceAccount) > maxAccountLength {
		return nil, fmt.Errorf("%w: source account is %d bytes", ErrLimitExceeded, len(tx.SourceAccount))
	}
	if len(tx.Operations) > maxOperationCount {
		return nil, fmt.Errorf("%w: %d operations", ErrLimitExceeded, len(tx.Operations))
	}
	if len(tx.Signatures) > maxSignatureCount {
		return nil, fmt.Errorf("%w: %d signatures", ErrLimitExceeded, len(tx.Signatures))
	}

	w := &writer{}
	w.u8(wireVersion)
	w.str(tx.SourceAccount)
	w.i64(tx.SeqNum)

	if tx.TimeBounds != nil {
		w.bool(true)
		w.i64(tx.TimeBounds.MinTime)
		w.i64(tx.TimeBounds.MaxTime)
	} else {
		w.bool(false)
	}

	w.u32(uint32(len(tx.Operations)))
	for _, op := range tx.Operations {
		if len(op.Source()) > maxAccountLength {
			return nil, fmt.Errorf("%w: operation source account is %d bytes", ErrLimitExceeded, len(op.Source()))
		}

		if op.Source() != "" {
			w.bool(true)
			w.str(op.Source())
		} else {
			w.bool(false)
		}

		w.u8(op.opType())
		op.encodeBody(w)
	}

	if includeSignatures {
		w.u32(uint32(len(tx.Signatures)))
		for _, sig := range tx.Signatures {
			if len(sig.Signature) > maxSignatureSize {
				return nil, fmt.Errorf("%w: signature is %d bytes", ErrLimitExceeded, len(sig.Signature))
			}
			if w.err == nil {
				w.buf.Write(sig.Hint[:])
			}
			w.bytes(sig.Signature)
		}
	}

	if w.err != nil {
		return nil, w.err
	}

	return w.buf.Bytes(), nil
}

// MarshalBinary serializes the full envelope including signatures.
func (tx *Transaction) MarshalBinary() ([]byte, error) {
	return tx.encode(true)
}

// MarshalBase64 serializes the full envelope into its transport form.
func (tx *Transaction) MarshalBase64() (string, error) {
	raw, err := tx.MarshalBinary()
	if err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(raw), nil
}
