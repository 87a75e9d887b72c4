package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"go.vocdoni.io/reserve/httprouter"
	"go.vocdoni.io/reserve/httprouter/apirest"
	"go.vocdoni.io/reserve/ledger"
	"go.vocdoni.io/reserve/log"
	"go.vocdoni.io/reserve/merkle"
	"go.vocdoni.io/reserve/reserve"
	"go.vocdoni.io/reserve/types"
	"go.vocdoni.io/reserve/util"
)

func (a *API) enableReserveHandlers() error {
	if err := a.Endpoint.RegisterMethod(
		"/merkle-root",
		"GET",
		apirest.MethodAccessTypePublic,
		a.rootHandler,
	); err != nil {
		return err
	}
	if err := a.Endpoint.RegisterMethod(
		"/merkle-proof/verify",
		"POST",
		apirest.MethodAccessTypePublic,
		a.verifyHandler,
	); err != nil {
		return err
	}
	if err := a.Endpoint.RegisterMethod(
		"/merkle-proof/{userId}",
		"GET",
		apirest.MethodAccessTypePublic,
		a.proofHandler,
	); err != nil {
		return err
	}
	return a.Endpoint.RegisterMethod(
		"/accounts/size",
		"GET",
		apirest.MethodAccessTypePublic,
		a.accountsSizeHandler,
	)
}

// sendJSON marshals reply and sends it with status 200.
func (a *API) sendJSON(ctx *httprouter.HTTPContext, reply any) error {
	data, err := json.Marshal(reply)
	if err != nil {
		return a.internalError(err)
	}
	return ctx.Send(data, apirest.HTTPstatusOK)
}

// malformedProof maps a merkle decoding or folding error to ErrMalformedProof,
// keeping only the detail so the prefix is not repeated.
func malformedProof(err error) apirest.APIerror {
	detail := strings.TrimPrefix(err.Error(), merkle.ErrMalformedProof.Error()+": ")
	if detail == merkle.ErrMalformedProof.Error() {
		return ErrMalformedProof
	}
	return ErrMalformedProof.With(detail)
}

// /merkle-root
func (a *API) rootHandler(msg *apirest.APIdata, ctx *httprouter.HTTPContext) error {
	return a.sendJSON(ctx, Root{MerkleRoot: a.reserve.Root()})
}

// /merkle-proof/{userId}
func (a *API) proofHandler(msg *apirest.APIdata, ctx *httprouter.HTTPContext) error {
	userID, err := parseUserID(ctx.URLParam("userId"))
	if err != nil {
		return err
	}
	p, err := a.reserve.ProofByID(userID)
	if errors.Is(err, reserve.ErrAccountNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return a.internalError(err)
	}
	log.Debugw("generated proof", "userId", p.ID, "elements", len(p.Proof))
	return a.sendJSON(ctx, AccountProof{UserID: p.ID, Balance: p.Balance, Proof: p.Proof})
}

// /merkle-proof/verify
func (a *API) verifyHandler(msg *apirest.APIdata, ctx *httprouter.HTTPContext) error {
	req := VerifyRequest{}
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		return ErrCantParseBody.WithErr(err)
	}
	proofData := bytes.TrimSpace(req.Proof)
	if req.UserID == nil || *req.UserID == 0 || req.Balance == nil ||
		len(proofData) == 0 || proofData[0] != '[' {
		return ErrMissingFields
	}
	var proof merkle.Proof
	if err := json.Unmarshal(proofData, &proof); err != nil {
		return malformedProof(err)
	}
	var expectedRoot types.HexBytes
	if req.MerkleRoot != "" {
		root, err := util.DecodeHexWithLength(req.MerkleRoot, merkle.NodeLen)
		if err != nil {
			return ErrRootMalformed.WithErr(err)
		}
		expectedRoot = root
	}

	rec := ledger.Record{ID: *req.UserID, Balance: *req.Balance}
	res, err := a.reserve.Verify(rec, proof, expectedRoot)
	if errors.Is(err, merkle.ErrMalformedProof) {
		return malformedProof(err)
	}
	if err != nil {
		return a.internalError(err)
	}
	reply := VerifyResponse{
		IsValid:        res.Valid,
		CalculatedRoot: res.CalculatedRoot,
	}
	if req.MerkleRoot != "" {
		reply.ProvidedRoot = &req.MerkleRoot
	}
	return a.sendJSON(ctx, reply)
}

// /accounts/size
func (a *API) accountsSizeHandler(msg *apirest.APIdata, ctx *httprouter.HTTPContext) error {
	c := a.reserve.Current()
	info := AccountsInfo{
		Size:        c.Ledger.Len(),
		Sequence:    c.Sequence,
		CommittedAt: c.CreatedAt,
	}
	if total, ok := c.Ledger.TotalBalance(); ok {
		info.TotalBalance = &total
	}
	return a.sendJSON(ctx, info)
}

// parseUserID accepts a positive decimal integer.
func parseUserID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidUserID
	}
	return id, nil
}
