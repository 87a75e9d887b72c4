package reserve

import (
	glru "github.com/hashicorp/golang-lru"
	"go.vocdoni.io/reserve/merkle"
)

type cacheKey struct {
	sequence uint64
	index    int
}

// proofCache is a least-recently-used cache of proofs, safe for concurrent
// use. Keys include the commitment sequence so a proof from a replaced
// commitment is never returned. The zero size disables it.
type proofCache struct {
	lru *glru.Cache
}

func newProofCache(size int) (*proofCache, error) {
	if size <= 0 {
		return &proofCache{}, nil
	}
	lru, err := glru.New(size)
	if err != nil {
		return nil, err
	}
	return &proofCache{lru: lru}, nil
}

// get returns a copy of the cached proof.
func (c *proofCache) get(sequence uint64, index int) (merkle.Proof, bool) {
	if c.lru == nil {
		return nil, false
	}
	v, ok := c.lru.Get(cacheKey{sequence, index})
	if !ok {
		return nil, false
	}
	return v.(merkle.Proof).Clone(), true
}

func (c *proofCache) add(sequence uint64, index int, proof merkle.Proof) {
	if c.lru == nil {
		return
	}
	c.lru.Add(cacheKey{sequence, index}, proof.Clone())
}

func (c *proofCache) purge() {
	if c.lru != nil {
		c.lru.Purge()
	}
}

func (c *proofCache) len() int {
	if c.lru == nil {
		return 0
	}
	return c.lru.Len()
}
