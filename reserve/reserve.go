// Package reserve holds the committed snapshot of the ledger: the Merkle tree
// built over its records, the id to leaf index lookup and the proof cache.
// Readers always see a complete commitment, a new one is swapped in atomically.
package reserve

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.vocdoni.io/reserve/ledger"
	"go.vocdoni.io/reserve/log"
	"go.vocdoni.io/reserve/merkle"
	"go.vocdoni.io/reserve/types"
)

// ErrAccountNotFound is returned when a proof is requested for an account id
// that is not part of the current commitment.
var ErrAccountNotFound = errors.New("account not found")

// Options configures a Reserve.
type Options struct {
	Tree merkle.Options
	// ProofCacheSize is the number of proofs kept in memory. Zero disables the cache.
	ProofCacheSize int
}

// Commitment is an immutable snapshot: a ledger and the tree built over it.
type Commitment struct {
	Sequence  uint64
	Ledger    *ledger.Ledger
	Tree      *merkle.Tree
	CreatedAt time.Time
}

// Root returns the root of the commitment.
func (c *Commitment) Root() types.HexBytes {
	return c.Tree.Root()
}

// AccountProof is the inclusion proof of one account.
type AccountProof struct {
	ID      uint64       `json:"userId"`
	Balance uint64       `json:"balance"`
	Proof   merkle.Proof `json:"proof"`
}

// Record returns the account the proof is about.
func (p *AccountProof) Record() ledger.Record {
	return ledger.Record{ID: p.ID, Balance: p.Balance}
}

// VerifyResult is the outcome of a verification against the current commitment.
type VerifyResult struct {
	// CalculatedRoot is the root recomputed from the record and the proof.
	CalculatedRoot types.HexBytes
	// Included is true if CalculatedRoot is the root of the current commitment.
	Included bool
	// MatchesExpected is true if an expected root was given and equals CalculatedRoot.
	MatchesExpected bool
	// Valid is Included and, when an expected root was given, MatchesExpected.
	Valid bool
}

// Reserve serves proofs over the current commitment. It is safe for
// concurrent use, readers never block on commits.
type Reserve struct {
	opts     Options
	verifier *merkle.Verifier
	current  atomic.Pointer[Commitment]
	commitMu sync.Mutex
	cache    *proofCache
}

// New builds the first commitment over l.
func New(l *ledger.Ledger, opts Options) (*Reserve, error) {
	verifier, err := merkle.NewVerifier(opts.Tree)
	if err != nil {
		return nil, err
	}
	cache, err := newProofCache(opts.ProofCacheSize)
	if err != nil {
		return nil, fmt.Errorf("cannot create proof cache: %w", err)
	}
	registerMetrics()
	r := &Reserve{
		opts:     opts,
		verifier: verifier,
		cache:    cache,
	}
	if _, err := r.Commit(l); err != nil {
		return nil, err
	}
	return r, nil
}

// Commit builds a tree over l and makes it the current commitment. Commits
// are serialized. On error the current commitment is kept.
func (r *Reserve) Commit(l *ledger.Ledger) (*Commitment, error) {
	if l == nil || l.Len() == 0 {
		return nil, fmt.Errorf("cannot commit: %w", merkle.ErrEmptyInput)
	}
	r.commitMu.Lock()
	defer r.commitMu.Unlock()

	start := time.Now()
	tree, err := merkle.New(l.Leaves(), r.opts.Tree)
	if err != nil {
		return nil, fmt.Errorf("cannot commit: %w", err)
	}
	var seq uint64
	if prev := r.current.Load(); prev != nil {
		seq = prev.Sequence + 1
	}
	c := &Commitment{
		Sequence:  seq,
		Ledger:    l,
		Tree:      tree,
		CreatedAt: time.Now(),
	}
	r.current.Store(c)
	r.cache.purge()

	commits.Inc()
	accounts.Set(float64(l.Len()))
	log.Infow("new commitment", "sequence", seq, "root", tree.RootHex(),
		"accounts", l.Len(), "depth", tree.Depth(), "elapsed", time.Since(start).String())
	return c, nil
}

// Current returns the current commitment.
func (r *Reserve) Current() *Commitment {
	return r.current.Load()
}

// Root returns the root of the current commitment.
func (r *Reserve) Root() types.HexBytes {
	return r.Current().Root()
}

// RootHex returns the root of the current commitment as lowercase hex.
func (r *Reserve) RootHex() string {
	return r.Current().Tree.RootHex()
}

// ProofByID returns the proof of the account id in the current commitment.
func (r *Reserve) ProofByID(id uint64) (*AccountProof, error) {
	c := r.Current()
	rec, index, err := c.Ledger.Get(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %d", ErrAccountNotFound, id)
	}
	proof, err := r.prove(c, index)
	if err != nil {
		return nil, err
	}
	return &AccountProof{ID: rec.ID, Balance: rec.Balance, Proof: proof}, nil
}

// ProofByIndex returns the proof of the account at leaf position index.
func (r *Reserve) ProofByIndex(index int) (*AccountProof, error) {
	c := r.Current()
	proof, err := r.prove(c, index)
	if err != nil {
		return nil, err
	}
	rec := c.Ledger.At(index)
	return &AccountProof{ID: rec.ID, Balance: rec.Balance, Proof: proof}, nil
}

func (r *Reserve) prove(c *Commitment, index int) (merkle.Proof, error) {
	if proof, ok := r.cache.get(c.Sequence, index); ok {
		proofCacheHits.Inc()
		proofsGenerated.Inc()
		return proof, nil
	}
	proof, err := c.Tree.Prove(index)
	if err != nil {
		return nil, err
	}
	r.cache.add(c.Sequence, index, proof)
	proofsGenerated.Inc()
	return proof, nil
}

// Verify recomputes the root from rec and proof and compares it with the
// current root and, if not empty, with expectedRoot. A proof with a sibling
// of the wrong size or an unknown direction fails with merkle.ErrMalformedProof.
func (r *Reserve) Verify(rec ledger.Record, proof merkle.Proof, expectedRoot []byte) (*VerifyResult, error) {
	calculated, err := r.verifier.CalculateRoot(rec.Serialize(), proof)
	if err != nil {
		verifications.WithLabelValues(resultMalformed).Inc()
		return nil, err
	}
	res := &VerifyResult{
		CalculatedRoot: calculated,
		Included:       bytes.Equal(calculated, r.Root()),
	}
	res.Valid = res.Included
	if len(expectedRoot) > 0 {
		res.MatchesExpected = bytes.Equal(calculated, expectedRoot)
		res.Valid = res.Valid && res.MatchesExpected
	}
	if res.Valid {
		verifications.WithLabelValues(resultValid).Inc()
	} else {
		verifications.WithLabelValues(resultInvalid).Inc()
	}
	return res, nil
}

// VerifyRecord checks offline that rec is included under root.
func VerifyRecord(rec ledger.Record, proof merkle.Proof, root []byte, opts merkle.Options) (bool, error) {
	return merkle.Verify(rec.Serialize(), proof, root, opts)
}
