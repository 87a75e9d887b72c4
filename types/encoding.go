package types

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"go.vocdoni.io/reserve/util"
)

// HexBytes is a []byte which encodes as a quoted hex string in JSON instead
// of base64. Decoding accepts an optional 0x prefix.
type HexBytes []byte

func (b HexBytes) String() string {
	return hex.EncodeToString(b)
}

// Equal reports whether both byte strings are the same.
func (b HexBytes) Equal(o HexBytes) bool {
	return bytes.Equal(b, o)
}

func (b HexBytes) MarshalJSON() ([]byte, error) {
	out := make([]byte, hex.EncodedLen(len(b))+2)
	out[0], out[len(out)-1] = '"', '"'
	hex.Encode(out[1:], b)
	return out, nil
}

func (b *HexBytes) UnmarshalJSON(data []byte) error {
	s, ok := bytes.CutPrefix(data, []byte{'"'})
	if ok {
		s, ok = bytes.CutSuffix(s, []byte{'"'})
	}
	if !ok {
		return fmt.Errorf("hex bytes must be a JSON string, got %q", data)
	}
	dec, err := util.DecodeHex(string(s))
	if err != nil {
		return err
	}
	*b = dec
	return nil
}
