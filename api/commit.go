package api

import (
	"bytes"
	"errors"

	"go.vocdoni.io/reserve/httprouter"
	"go.vocdoni.io/reserve/httprouter/apirest"
	"go.vocdoni.io/reserve/ledger"
	"go.vocdoni.io/reserve/log"
)

func (a *API) enableCommitHandlers() error {
	return a.Endpoint.RegisterMethod(
		"/commit",
		"POST",
		apirest.MethodAccessTypeAdmin,
		a.commitHandler,
	)
}

// /commit
func (a *API) commitHandler(msg *apirest.APIdata, ctx *httprouter.HTTPContext) error {
	if len(bytes.TrimSpace(msg.Data)) == 0 {
		return ErrEmptyCommit
	}
	l, err := ledger.Load(bytes.NewReader(msg.Data))
	if errors.Is(err, ledger.ErrDuplicateID) {
		return ErrDuplicateIDs.WithErr(err)
	}
	if err != nil {
		return ErrCantParseBody.WithErr(err)
	}
	if l.Len() == 0 {
		return ErrEmptyCommit
	}
	c, err := a.reserve.Commit(l)
	if err != nil {
		return a.internalError(err)
	}
	log.Infow("ledger committed through the api", "sequence", c.Sequence, "accounts", l.Len())
	return a.sendJSON(ctx, CommitResponse{
		MerkleRoot: c.Root(),
		Size:       l.Len(),
		Sequence:   c.Sequence,
	})
}
