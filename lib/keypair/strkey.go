package keypair

import (
	"encoding/base32"
	"fmt"
)

// Key version bytes. The high five bits pick the leading character of
// the base32 form: 'G' for public keys, 'S' for seeds.
const (
	versionPublicKey byte = 6 << 3
	versionSeed      byte = 18 << 3
)

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// encodeKey renders a 32-byte key as version byte + payload + CRC16
// checksum, base32-encoded. 35 raw bytes encode to exactly 56 characters.
func encodeKey(version byte, src []byte) string {
	raw := make([]byte, 0, len(src)+3)
	raw = append(raw, version)
	raw = append(raw, src...)
	ck := crc16(raw)
	raw = append(raw, byte(ck), byte(ck>>8))
	return b32.EncodeToString(raw)
}

// decodeKey reverses encodeKey, rejecting anything with the wrong
// length, version byte, or checksum.
func decodeKey(version byte, s string) ([]byte, error) {
	raw, err := b32.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}

	if len(raw) != 35 {
		return nil, fmt.Errorf("%w: wrong length %d", ErrInvalidKey, len(raw))
	}

	if raw[0] != version {
		return nil, fmt.Errorf("%w: wrong version byte 0x%02x", ErrInvalidKey, raw[0])
	}

	want := uint16(raw[33]) | uint16(raw[34])<<8
	if crc16(raw[:33]) != want {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrInvalidKey)
	}

	result := make([]byte, 32)
	copy(result, raw[1:33])
	return result, nil
}

// crc16 implements CRC-16/XMODEM (polynomial 0x1021, zero seed).
func crc16(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc ^= uint16(b) << 8
		for range 8 {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
