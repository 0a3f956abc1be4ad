package txnwire

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
)

// reader consumes big-endian wire input. Reads past the end of the
// input set a sticky ErrMalformed and return zero values.
type reader struct {
	data []byte
	off  int
	err  error
}

func (r *reader) fail(format string, args ...any) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...))
	}
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.off+n > len(r.data) {
		r.fail("truncated at offset %d", r.off)
		return nil
	}
	result := r.data[r.off : r.off+n]
	r.off += n
	return result
}

func (r *reader) u8() byte {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) u32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

func (r *reader) i64() int64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return int64(binary.BigEndian.Uint64(b))
}

func (r *reader) bool() bool {
	switch r.u8() {
	case 0:
		return false
	case 1:
		return true
	default:
		r.fail("boolean is not 0 or 1")
		return false
	}
}

// bytesN reads a length-prefixed byte string of at most max bytes,
// always returning a copy that does not alias the input buffer.
func (r *reader) bytesN(max int) []byte {
	n := r.u32()
	if r.err != nil {
		return nil
	}
	if int(n) > max {
		r.fail("byte string of %d bytes exceeds limit %d", n, max)
		return nil
	}
	raw := r.take(int(n))
	if raw == nil {
		return nil
	}
	result := make([]byte, n)
	copy(result, raw)
	return result
}

func (r *reader) str(max int) string {
	return string(r.bytesN(max))
}

func decodeOperation(r *reader) Operation {
	var source string
	if r.bool() {
		source = r.str(maxAccountLength)
	}

	switch tag := r.u8(); tag {
	case opTypeManageData:
		op := &ManageData{
			OpSource: source,
			Name:     r.str(MaxDataNameLength),
		}
		if r.bool() {
			op.Value = r.bytesN(MaxDataValueLength)
			if op.Value == nil && r.err == nil {
				op.Value = []byte{}
			}
		}
		return op
	case opTypeBumpSequence:
		return &BumpSequence{
			OpSource: source,
			BumpTo:   r.i64(),
		}
	default:
		r.fail("unknown operation type %d", tag)
		return nil
	}
}

// UnmarshalBinary decodes a full envelope. Trailing bytes after the
// signature list are an error: an envelope is exactly one transaction.
func UnmarshalBinary(data []byte) (*Transaction, error) {
	r := &reader{data: data}

	if v := r.u8(); r.err == nil && v != wireVersion {
		r.fail("unsupported wire version %d", v)
	}

	tx := &Transaction{
		SourceAccount: r.str(maxAccountLength),
		SeqNum:        r.i64(),
	}

	if r.bool() {
		tx.TimeBounds = &TimeBounds{
			MinTime: r.i64(),
			MaxTime: r.i64(),
		}
	}

	nOps := r.u32()
	if r.err == nil && nOps > maxOperationCount {
		r.fail("%d operations exceeds limit %d", nOps, maxOperationCount)
	}
	for range nOps {
		if r.err != nil {
			break
		}
		if op := decodeOperation(r); op != nil {
			tx.Operations = append(tx.Operations, op)
		}
	}

	nSigs := r.u32()
	if r.err == nil && nSigs > maxSignatureCount {
		r.fail("%d signatures exceeds limit %d", nSigs, maxSignatureCount)
	}
	for range nSigs {
		if r.err != nil {
			break
		}
		var sig DecoratedSignature
		copy(sig.Hint[:], r.take(4))
		sig.Signature = r.bytesN(maxSignatureSize)
		if r.err == nil {
			tx.Signatures = append(tx.Signatures, sig)
		}
	}

	if r.err != nil {
		return nil, r.err
	}

	if r.off != len(r.data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformed, len(r.data)-r.off)
	}

	return tx, nil
}

// DecodeBase64 decodes an envelope from its transport form.
func DecodeBase64(envelope string) (*Transaction, error) {
	raw, err := base64.StdEncoding.DecodeString(envelope)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	return UnmarshalBinary(raw)
}
