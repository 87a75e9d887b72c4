package merkle

import (
	"bytes"
	"fmt"
)

// Verifier checks inclusion proofs for a given hashing context, without
// needing the tree. It is safe for concurrent use.
type Verifier struct {
	leaf   Tag
	branch Tag
}

// NewVerifier returns a Verifier for the given options.
func NewVerifier(opts Options) (*Verifier, error) {
	leaf, branch, err := opts.hashers()
	if err != nil {
		return nil, err
	}
	return &Verifier{leaf: leaf, branch: branch}, nil
}

// Verifier returns a Verifier sharing the tree's hashing context.
func (t *Tree) Verifier() *Verifier {
	return &Verifier{leaf: t.leaf, branch: t.branch}
}

// CalculateRoot folds the proof starting from the serialized leaf and returns
// the resulting root. ErrMalformedProof is returned if a sibling does not
// have the node length or a direction is unknown.
func (v *Verifier) CalculateRoot(leaf []byte, proof Proof) ([]byte, error) {
	current := v.leaf.Hash(leaf)
	for i, e := range proof {
		if len(e.Sibling) != NodeLen {
			return nil, fmt.Errorf("%w: sibling %d has %d bytes, expected %d",
				ErrMalformedProof, i, len(e.Sibling), NodeLen)
		}
		switch e.Direction {
		case Left:
			current = v.branch.Hash(e.Sibling, current)
		case Right:
			current = v.branch.Hash(current, e.Sibling)
		default:
			return nil, fmt.Errorf("%w: element %d has %s", ErrMalformedProof, i, e.Direction)
		}
	}
	return current, nil
}

// Verify reports whether the proof folds the serialized leaf into root.
// A well formed proof that does not match returns false and a nil error.
func (v *Verifier) Verify(leaf []byte, proof Proof, root []byte) (bool, error) {
	calculated, err := v.CalculateRoot(leaf, proof)
	if err != nil {
		return false, err
	}
	return bytes.Equal(calculated, root), nil
}

// Verify checks the proof for the serialized leaf against root using the
// given options.
func Verify(leaf []byte, proof Proof, root []byte, opts Options) (bool, error) {
	v, err := NewVerifier(opts)
	if err != nil {
		return false, err
	}
	return v.Verify(leaf, proof, root)
}
