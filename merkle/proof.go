package merkle

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// Direction tells on which side of the folded node a sibling sits.
type Direction uint8

const (
	// Left means the sibling is hashed before the current node.
	Left Direction = 0
	// Right means the sibling is hashed after the current node.
	Right Direction = 1
)

func (d Direction) String() string {
	switch d {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("Direction(%d)", uint8(d))
	}
}

// Valid reports whether d is Left or Right.
func (d Direction) Valid() bool {
	return d == Left || d == Right
}

// Element is one step of an inclusion proof.
type Element struct {
	Sibling   []byte
	Direction Direction
}

// MarshalJSON encodes the element as ["<hex sibling>", direction].
func (e Element) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{hex.EncodeToString(e.Sibling), uint8(e.Direction)})
}

// UnmarshalJSON decodes an element encoded as ["<hex sibling>", direction].
// The direction can be given as 0/1 or as "left"/"right".
func (e *Element) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: element is not an array: %v", ErrMalformedProof, err)
	}
	if len(raw) != 2 {
		return fmt.Errorf("%w: element must have 2 items, got %d", ErrMalformedProof, len(raw))
	}
	var sibling string
	if err := json.Unmarshal(raw[0], &sibling); err != nil {
		return fmt.Errorf("%w: sibling is not a string: %v", ErrMalformedProof, err)
	}
	sibling = strings.TrimPrefix(strings.TrimPrefix(sibling, "0x"), "0X")
	b, err := hex.DecodeString(sibling)
	if err != nil {
		return fmt.Errorf("%w: sibling is not hex: %v", ErrMalformedProof, err)
	}
	dir, err := parseDirection(raw[1])
	if err != nil {
		return err
	}
	e.Sibling = b
	e.Direction = dir
	return nil
}

func parseDirection(raw json.RawMessage) (Direction, error) {
	var n uint8
	if err := json.Unmarshal(raw, &n); err == nil {
		return Direction(n), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("%w: invalid direction %s", ErrMalformedProof, raw)
	}
	switch strings.ToLower(s) {
	case "left", "0":
		return Left, nil
	case "right", "1":
		return Right, nil
	}
	return 0, fmt.Errorf("%w: invalid direction %q", ErrMalformedProof, s)
}

// Proof is an inclusion proof: the siblings met when walking from a leaf up
// to the root, closest to the leaf first. A Proof does not reference the
// tree it was extracted from.
type Proof []Element

// Clone returns a deep copy of the proof.
func (p Proof) Clone() Proof {
	if p == nil {
		return nil
	}
	c := make(Proof, len(p))
	for i, e := range p {
		c[i] = Element{Sibling: bytes.Clone(e.Sibling), Direction: e.Direction}
	}
	return c
}

// Equal reports whether both proofs have the same elements.
func (p Proof) Equal(o Proof) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i].Direction != o[i].Direction || !bytes.Equal(p[i].Sibling, o[i].Sibling) {
			return false
		}
	}
	return true
}

// Prove returns the inclusion proof of the leaf at index.
func (t *Tree) Prove(index int) (Proof, error) {
	if index < 0 || index >= t.LeafCount() {
		return nil, fmt.Errorf("%w: %d (leaves: %d)", ErrIndexOutOfRange, index, t.LeafCount())
	}
	proof := make(Proof, 0, t.Depth())
	p := index
	for _, level := range t.levels[:len(t.levels)-1] {
		switch {
		case p%2 == 1:
			proof = append(proof, Element{Sibling: bytes.Clone(level[p-1]), Direction: Left})
		case p+1 < len(level):
			proof = append(proof, Element{Sibling: bytes.Clone(level[p+1]), Direction: Right})
		default:
			// promoted node, nothing to fold at this level
		}
		p /= 2
	}
	return proof, nil
}
