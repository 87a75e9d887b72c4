package types

import (
	"encoding/json"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestHexBytes(t *testing.T) {
	c := qt.New(t)
	input := HexBytes("hello world")

	encoded, err := json.Marshal(input)
	c.Assert(err, qt.IsNil)
	c.Assert(string(encoded), qt.Equals, `"68656c6c6f20776f726c64"`)
	c.Assert(input.String(), qt.Equals, "68656c6c6f20776f726c64")

	var decoded HexBytes
	c.Assert(json.Unmarshal(encoded, &decoded), qt.IsNil)
	c.Assert(decoded.Equal(input), qt.IsTrue)

	// a reused value with more capacity must not keep stale bytes
	decoded = make(HexBytes, 0, 64)
	c.Assert(json.Unmarshal([]byte(`"0xABCD"`), &decoded), qt.IsNil)
	c.Assert([]byte(decoded), qt.DeepEquals, []byte{0xab, 0xcd})

	for _, in := range []string{`"zz"`, `"abc"`, `123`, `"`} {
		c.Assert(decoded.UnmarshalJSON([]byte(in)), qt.IsNotNil, qt.Commentf("input %s", in))
	}
}
