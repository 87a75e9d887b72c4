package util

import (
	"encoding/hex"
	"errors"
	"fmt"
)

// ErrHexLength is returned when a hex string does not hold the expected
// number of bytes.
var ErrHexLength = errors.New("unexpected hex length")

// TrimHex strips a leading "0x" or "0X".
func TrimHex(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

// DecodeHex decodes a hex string with or without the 0x prefix.
func DecodeHex(s string) ([]byte, error) {
	return hex.DecodeString(TrimHex(s))
}

// DecodeHexWithLength decodes s and checks it holds exactly length bytes.
func DecodeHexWithLength(s string, length int) ([]byte, error) {
	s = TrimHex(s)
	if len(s) != hex.EncodedLen(length) {
		return nil, fmt.Errorf("%w: %d hex chars, want %d", ErrHexLength, len(s), hex.EncodedLen(length))
	}
	return hex.DecodeString(s)
}
