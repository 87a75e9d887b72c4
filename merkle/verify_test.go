package merkle

import (
	"encoding/json"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestTamperSensitivity(t *testing.T) {
	c := qt.New(t)
	tree, err := New(toLeaves(sampleLeaves), Options{})
	c.Assert(err, qt.IsNil)
	v := tree.Verifier()
	root := tree.Root()

	proof, err := tree.Prove(2)
	c.Assert(err, qt.IsNil)
	valid, err := v.Verify([]byte("(3,300)"), proof, root)
	c.Assert(err, qt.IsNil)
	c.Assert(valid, qt.IsTrue)

	// balance
	for _, leaf := range []string{"(3,301)", "(3,3000)", "(3,30)", "(3,300) ", "(2,300)"} {
		valid, err := v.Verify([]byte(leaf), proof, root)
		c.Assert(err, qt.IsNil)
		c.Assert(valid, qt.IsFalse, qt.Commentf("leaf %s", leaf))
	}

	// every bit of every sibling
	for i := range proof {
		for bit := 0; bit < NodeLen*8; bit++ {
			tampered := proof.Clone()
			tampered[i].Sibling[bit/8] ^= 1 << (bit % 8)
			valid, err := v.Verify([]byte("(3,300)"), tampered, root)
			c.Assert(err, qt.IsNil)
			c.Assert(valid, qt.IsFalse)
		}
	}

	// every direction flag
	for i := range proof {
		tampered := proof.Clone()
		tampered[i].Direction ^= 1
		valid, err := v.Verify([]byte("(3,300)"), tampered, root)
		c.Assert(err, qt.IsNil)
		c.Assert(valid, qt.IsFalse)
	}

	// every bit of the root
	for bit := 0; bit < NodeLen*8; bit++ {
		other := tree.Root()
		other[bit/8] ^= 1 << (bit % 8)
		valid, err := v.Verify([]byte("(3,300)"), proof, other)
		c.Assert(err, qt.IsNil)
		c.Assert(valid, qt.IsFalse)
	}

	// the original proof was not modified by the clones
	valid, err = v.Verify([]byte("(3,300)"), proof, root)
	c.Assert(err, qt.IsNil)
	c.Assert(valid, qt.IsTrue)
}

func TestMalformedProof(t *testing.T) {
	c := qt.New(t)
	tree, err := New(toLeaves(sampleLeaves), Options{})
	c.Assert(err, qt.IsNil)
	v := tree.Verifier()
	proof, err := tree.Prove(2)
	c.Assert(err, qt.IsNil)

	short := proof.Clone()
	short[1].Sibling = short[1].Sibling[:31]
	_, err = v.Verify([]byte("(3,300)"), short, tree.Root())
	c.Assert(err, qt.ErrorIs, ErrMalformedProof)

	long := proof.Clone()
	long[0].Sibling = append(long[0].Sibling, 0)
	_, err = v.Verify([]byte("(3,300)"), long, tree.Root())
	c.Assert(err, qt.ErrorIs, ErrMalformedProof)

	badDir := proof.Clone()
	badDir[2].Direction = 7
	_, err = v.Verify([]byte("(3,300)"), badDir, tree.Root())
	c.Assert(err, qt.ErrorIs, ErrMalformedProof)

	// truncated or extended proofs are well formed but do not verify
	valid, err := v.Verify([]byte("(3,300)"), proof[:2], tree.Root())
	c.Assert(err, qt.IsNil)
	c.Assert(valid, qt.IsFalse)
	valid, err = v.Verify([]byte("(3,300)"), append(proof.Clone(), proof[0]), tree.Root())
	c.Assert(err, qt.IsNil)
	c.Assert(valid, qt.IsFalse)
	valid, err = v.Verify([]byte("(3,300)"), nil, tree.Root())
	c.Assert(err, qt.IsNil)
	c.Assert(valid, qt.IsFalse)
}

func TestVerifyOptions(t *testing.T) {
	c := qt.New(t)
	tree, err := New(toLeaves(sampleLeaves), Options{HashType: HashTypeTaggedBlake2b})
	c.Assert(err, qt.IsNil)
	proof, err := tree.Prove(0)
	c.Assert(err, qt.IsNil)

	valid, err := Verify([]byte("(1,100)"), proof, tree.Root(), Options{HashType: HashTypeTaggedBlake2b})
	c.Assert(err, qt.IsNil)
	c.Assert(valid, qt.IsTrue)

	// same proof under the wrong hash family
	valid, err = Verify([]byte("(1,100)"), proof, tree.Root(), Options{})
	c.Assert(err, qt.IsNil)
	c.Assert(valid, qt.IsFalse)

	_, err = NewVerifier(Options{LeafTag: "a", BranchTag: "a"})
	c.Assert(err, qt.ErrorIs, ErrSameTags)
}

func TestProofJSON(t *testing.T) {
	c := qt.New(t)
	tree, err := New(toLeaves(sampleLeaves), Options{})
	c.Assert(err, qt.IsNil)
	proof, err := tree.Prove(3)
	c.Assert(err, qt.IsNil)

	data, err := json.Marshal(proof)
	c.Assert(err, qt.IsNil)
	var decoded Proof
	c.Assert(json.Unmarshal(data, &decoded), qt.IsNil)
	c.Assert(decoded.Equal(proof), qt.IsTrue)

	// named directions and 0x prefixes are accepted
	var named Proof
	c.Assert(json.Unmarshal([]byte(`[["0x00ff","left"],["ab","right"]]`), &named), qt.IsNil)
	c.Assert(named, qt.DeepEquals, Proof{
		{Sibling: []byte{0x00, 0xff}, Direction: Left},
		{Sibling: []byte{0xab}, Direction: Right},
	})

	for _, in := range []string{
		`[["zz",0]]`,
		`[["00"]]`,
		`[[0,0]]`,
		`[["00","up"]]`,
		`[{"sibling":"00"}]`,
	} {
		var p Proof
		err := json.Unmarshal([]byte(in), &p)
		c.Assert(err, qt.ErrorIs, ErrMalformedProof, qt.Commentf("input %s", in))
	}
}

func TestDirectionString(t *testing.T) {
	c := qt.New(t)
	c.Assert(Left.String(), qt.Equals, "left")
	c.Assert(Right.String(), qt.Equals, "right")
	c.Assert(Direction(3).String(), qt.Equals, "Direction(3)")
	c.Assert(Direction(3).Valid(), qt.IsFalse)
}
