package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.vocdoni.io/reserve/api"
	"go.vocdoni.io/reserve/ledger"
	"go.vocdoni.io/reserve/merkle"
	"go.vocdoni.io/reserve/reserve"
	"go.vocdoni.io/reserve/util"
)

var errInvalidProof = errors.New("proof is not valid")

func newVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify [proof.json]",
		Short: "verify an inclusion proof, offline if --root is given",
		Long: `Verify an inclusion proof as written by the proof command.

With --root the root is recomputed locally with the given tags and hash type,
and no server is contacted. Otherwise the proof is sent to the server.`,
		Args: cobra.ExactArgs(1),
		RunE: verifyProof,
	}
	cmd.Flags().StringVarP(&opt.root, "root", "r", "",
		"expected merkle root (hex), enables offline verification")
	cmd.Flags().StringVar(&opt.leafTag, "leafTag", merkle.DefaultLeafTag,
		"tag mixed into the leaf hashes")
	cmd.Flags().StringVar(&opt.branchTag, "branchTag", merkle.DefaultBranchTag,
		"tag mixed into the branch hashes")
	cmd.Flags().StringVar(&opt.hashType, "hashType", string(merkle.HashTypeTaggedSHA256),
		fmt.Sprintf("hash function family of the tree %q", merkle.HashTypes()))
	return cmd
}

func readProof(path string) (*api.AccountProof, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	proof := &api.AccountProof{}
	if err := json.Unmarshal(data, proof); err != nil {
		return nil, fmt.Errorf("cannot decode proof file: %w", err)
	}
	return proof, nil
}

func verifyProof(cmd *cobra.Command, args []string) error {
	proof, err := readProof(args[0])
	if err != nil {
		return err
	}
	var valid bool
	if opt.root != "" {
		root, err := util.DecodeHexWithLength(opt.root, merkle.NodeLen)
		if err != nil {
			return fmt.Errorf("invalid root: %w", err)
		}
		rec := ledger.Record{ID: proof.UserID, Balance: proof.Balance}
		if valid, err = reserve.VerifyRecord(rec, proof.Proof, root, opt.treeOptions()); err != nil {
			return err
		}
	} else {
		cl, err := opt.client()
		if err != nil {
			return err
		}
		res, err := cl.Verify(proof, nil)
		if err != nil {
			return err
		}
		valid = res.IsValid
		fmt.Fprintf(cmd.OutOrStdout(), "Calculated root: %s\n", au.Yellow(res.CalculatedRoot.String()))
	}
	if !valid {
		fmt.Fprintf(cmd.OutOrStdout(), "account %d with balance %d: %s\n",
			proof.UserID, proof.Balance, au.Red("invalid"))
		return errInvalidProof
	}
	fmt.Fprintf(cmd.OutOrStdout(), "account %d with balance %d: %s\n",
		proof.UserID, proof.Balance, au.Green("valid"))
	return nil
}
