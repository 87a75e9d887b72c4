package merkle

import (
	"crypto/sha256"
	"fmt"
	"hash"

	"golang.org/x/crypto/blake2b"
)

// NodeLen is the length in bytes of every node of the tree.
const NodeLen = 32

// HashType identifies the hash family used to build a tree. The set is
// closed: the type is resolved once when the tree (or a verifier) is created.
type HashType string

const (
	// HashTypeTaggedSHA256 is the tagged hash over SHA-256, as used by BIP-340.
	HashTypeTaggedSHA256 HashType = "tagged-sha256"
	// HashTypeTaggedBlake2b is the same tagged construction over BLAKE2b-256.
	HashTypeTaggedBlake2b HashType = "tagged-blake2b"
)

// HashTypes returns the list of supported hash types.
func HashTypes() []HashType {
	return []HashType{HashTypeTaggedSHA256, HashTypeTaggedBlake2b}
}

func (h HashType) newHash() (func() hash.Hash, error) {
	switch h {
	case "", HashTypeTaggedSHA256:
		return sha256.New, nil
	case HashTypeTaggedBlake2b:
		return func() hash.Hash {
			// New256 only fails when a key longer than 64 bytes is given
			h, _ := blake2b.New256(nil)
			return h
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownHashType, string(h))
	}
}

// Tag is a hashing context. The digest of the tag is computed once and then
// used as the fixed prefix of every hash computed under this tag.
type Tag struct {
	name    string
	digest  []byte
	newHash func() hash.Hash
}

// NewTag returns the Tag for name under the given hash type.
func NewTag(hashType HashType, name string) (Tag, error) {
	fn, err := hashType.newHash()
	if err != nil {
		return Tag{}, err
	}
	h := fn()
	h.Write([]byte(name))
	return Tag{name: name, digest: h.Sum(nil), newHash: fn}, nil
}

// Name returns the tag string.
func (t Tag) Name() string {
	return t.name
}

// Hash computes H(H(tag) || H(tag) || data...). The data slices are
// concatenated in the given order.
func (t Tag) Hash(data ...[]byte) []byte {
	h := t.newHash()
	h.Write(t.digest)
	h.Write(t.digest)
	for _, d := range data {
		h.Write(d)
	}
	return h.Sum(nil)
}

// TaggedHash computes SHA256(SHA256(tag) || SHA256(tag) || data).
func TaggedHash(tag string, data []byte) []byte {
	tagDigest := sha256.Sum256([]byte(tag))
	h := sha256.New()
	h.Write(tagDigest[:])
	h.Write(tagDigest[:])
	h.Write(data)
	return h.Sum(nil)
}
