/*
Package merkle implements the commitment engine of the proof of reserve: a
binary Merkle tree built over an ordered list of serialized records, with
domain separated (tagged) hashing for leaves and branches, inclusion proof
generation and verification.

Leaves are hashed with the leaf tag, branches with the branch tag, left child
bytes first. When a level has an odd number of nodes the last one is promoted
unchanged to the next level, so no node is ever paired with a copy of itself.
*/
package merkle

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
)

const (
	// DefaultLeafTag is the tag mixed into every leaf hash
	DefaultLeafTag = "ProofOfReserve_Leaf"
	// DefaultBranchTag is the tag mixed into every branch hash
	DefaultBranchTag = "ProofOfReserve_Branch"
)

var (
	// ErrEmptyInput is returned when a tree is requested over zero leaves.
	ErrEmptyInput = errors.New("cannot build a merkle tree without leaves")
	// ErrIndexOutOfRange is returned when a proof is requested for a leaf
	// position that does not exist.
	ErrIndexOutOfRange = errors.New("leaf index out of range")
	// ErrMalformedProof is returned when a proof cannot be evaluated.
	ErrMalformedProof = errors.New("malformed proof")
	// ErrSameTags is returned when the leaf and branch tags are equal.
	ErrSameTags = errors.New("leaf and branch tags must differ")
	// ErrUnknownHashType is returned for a hash type that is not supported.
	ErrUnknownHashType = errors.New("unknown hash type")
)

// Options defines the hashing context of a tree. The zero value uses tagged
// SHA-256 with the default tags.
type Options struct {
	HashType  HashType
	LeafTag   string
	BranchTag string
}

func (o Options) withDefaults() Options {
	if o.HashType == "" {
		o.HashType = HashTypeTaggedSHA256
	}
	if o.LeafTag == "" {
		o.LeafTag = DefaultLeafTag
	}
	if o.BranchTag == "" {
		o.BranchTag = DefaultBranchTag
	}
	return o
}

// hashers resolves the options into the leaf and branch tags.
func (o Options) hashers() (leaf Tag, branch Tag, err error) {
	o = o.withDefaults()
	if o.LeafTag == o.BranchTag {
		return Tag{}, Tag{}, fmt.Errorf("%w (%q)", ErrSameTags, o.LeafTag)
	}
	if leaf, err = NewTag(o.HashType, o.LeafTag); err != nil {
		return Tag{}, Tag{}, err
	}
	if branch, err = NewTag(o.HashType, o.BranchTag); err != nil {
		return Tag{}, Tag{}, err
	}
	return leaf, branch, nil
}

// Tree is an immutable Merkle tree. All levels are kept in memory, level 0
// holding the leaf hashes and the last level holding only the root.
// A Tree is safe for concurrent use.
type Tree struct {
	opts   Options
	leaf   Tag
	branch Tag
	levels [][][]byte
}

// New builds the tree for the given ordered leaves. The leaf slices are the
// canonical serialization of each record; they are hashed but not retained.
func New(leaves [][]byte, opts Options) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, ErrEmptyInput
	}
	leafTag, branchTag, err := opts.hashers()
	if err != nil {
		return nil, err
	}
	t := &Tree{opts: opts.withDefaults(), leaf: leafTag, branch: branchTag}

	level := make([][]byte, len(leaves))
	for i, l := range leaves {
		level[i] = leafTag.Hash(l)
	}
	t.levels = append(t.levels, level)

	for len(level) > 1 {
		next := make([][]byte, 0, (len(level)+1)/2)
		for i := 0; i+1 < len(level); i += 2 {
			next = append(next, branchTag.Hash(level[i], level[i+1]))
		}
		if len(level)%2 == 1 {
			// promote the unpaired node
			next = append(next, level[len(level)-1])
		}
		t.levels = append(t.levels, next)
		level = next
	}
	return t, nil
}

// Options returns the hashing options the tree was built with.
func (t *Tree) Options() Options {
	return t.opts
}

// Root returns a copy of the root node.
func (t *Tree) Root() []byte {
	return bytes.Clone(t.levels[len(t.levels)-1][0])
}

// RootHex returns the root as a lowercase hex string.
func (t *Tree) RootHex() string {
	return hex.EncodeToString(t.levels[len(t.levels)-1][0])
}

// LeafCount returns the number of leaves committed by the tree.
func (t *Tree) LeafCount() int {
	return len(t.levels[0])
}

// Depth returns the number of branch levels above the leaves.
func (t *Tree) Depth() int {
	return len(t.levels) - 1
}

// LeafHash returns a copy of the hash of the leaf at index.
func (t *Tree) LeafHash(index int) ([]byte, error) {
	if index < 0 || index >= t.LeafCount() {
		return nil, fmt.Errorf("%w: %d (leaves: %d)", ErrIndexOutOfRange, index, t.LeafCount())
	}
	return bytes.Clone(t.levels[0][index]), nil
}

// HashLeaf hashes the serialized record with the tree's leaf tag.
func (t *Tree) HashLeaf(data []byte) []byte {
	return t.leaf.Hash(data)
}
