package apiclient

import (
	"strconv"

	"go.vocdoni.io/reserve/api"
	"go.vocdoni.io/reserve/ledger"
	"go.vocdoni.io/reserve/types"
)

// Root returns the current Merkle root of the reserve.
func (c *HTTPclient) Root() (types.HexBytes, error) {
	root := &api.Root{}
	if err := c.request(HTTPGET, nil, root, "merkle-root"); err != nil {
		return nil, err
	}
	return root.MerkleRoot, nil
}

// Proof returns the balance and inclusion proof of the account userID.
func (c *HTTPclient) Proof(userID uint64) (*api.AccountProof, error) {
	proof := &api.AccountProof{}
	if err := c.request(HTTPGET, nil, proof, "merkle-proof", strconv.FormatUint(userID, 10)); err != nil {
		return nil, err
	}
	return proof, nil
}

// Verify asks the server to check the proof. If root is not empty, the proof
// is only valid if it also matches root.
func (c *HTTPclient) Verify(proof *api.AccountProof, root types.HexBytes) (*api.VerifyResponse, error) {
	body := map[string]any{
		"userId":  proof.UserID,
		"balance": proof.Balance,
		"proof":   proof.Proof,
	}
	if len(root) > 0 {
		body["merkleRoot"] = root.String()
	}
	reply := &api.VerifyResponse{}
	if err := c.request(HTTPPOST, body, reply, "merkle-proof", "verify"); err != nil {
		return nil, err
	}
	return reply, nil
}

// AccountsInfo returns the size and total balance of the committed ledger.
func (c *HTTPclient) AccountsInfo() (*api.AccountsInfo, error) {
	info := &api.AccountsInfo{}
	if err := c.request(HTTPGET, nil, info, "accounts", "size"); err != nil {
		return nil, err
	}
	return info, nil
}

// Commit replaces the committed ledger. It requires the admin token.
func (c *HTTPclient) Commit(records []ledger.Record) (*api.CommitResponse, error) {
	reply := &api.CommitResponse{}
	if err := c.request(HTTPPOST, records, reply, "commit"); err != nil {
		return nil, err
	}
	return reply, nil
}
