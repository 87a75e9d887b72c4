package api

import (
	"encoding/json"
	"time"

	"go.vocdoni.io/reserve/merkle"
	"go.vocdoni.io/reserve/types"
)

// Root is the reply of the root endpoint.
type Root struct {
	MerkleRoot types.HexBytes `json:"merkleRoot"`
}

// AccountProof is the inclusion proof of an account, as served by the proof
// endpoint and expected by the verify endpoint.
type AccountProof struct {
	UserID  uint64       `json:"userId"`
	Balance uint64       `json:"balance"`
	Proof   merkle.Proof `json:"proof"`
}

// VerifyRequest is the body of the verify endpoint. Pointers tell missing
// fields apart from zero values, the proof is decoded on its own so a
// malformed proof is not reported as a malformed body.
type VerifyRequest struct {
	UserID     *uint64         `json:"userId"`
	Balance    *uint64         `json:"balance"`
	Proof      json.RawMessage `json:"proof"`
	MerkleRoot string          `json:"merkleRoot,omitempty"`
}

// VerifyResponse is the reply of the verify endpoint.
type VerifyResponse struct {
	IsValid        bool           `json:"isValid"`
	CalculatedRoot types.HexBytes `json:"calculatedRoot"`
	ProvidedRoot   *string        `json:"providedRoot"`
}

// AccountsInfo is the reply of the accounts size endpoint.
type AccountsInfo struct {
	Size         int       `json:"size"`
	TotalBalance *uint64   `json:"totalBalance,omitempty"`
	Sequence     uint64    `json:"sequence"`
	CommittedAt  time.Time `json:"committedAt"`
}

// CommitResponse is the reply of the commit endpoint.
type CommitResponse struct {
	MerkleRoot types.HexBytes `json:"merkleRoot"`
	Size       int            `json:"size"`
	Sequence   uint64         `json:"sequence"`
}
