package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

func newRootHashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "root",
		Short: "return the current merkle root of the reserve",
		Args:  cobra.NoArgs,
		RunE:  getRoot,
	}
}

func newSizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "size",
		Short: "return the number of committed accounts and their total balance",
		Args:  cobra.NoArgs,
		RunE:  getSize,
	}
}

func newProofCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proof [userId]",
		Short: "get the balance and inclusion proof of an account",
		Args:  cobra.ExactArgs(1),
		RunE:  getProof,
	}
	cmd.Flags().StringVarP(&opt.out, "out", "o", "",
		"write the proof as JSON to this file instead of stdout")
	return cmd
}

func getRoot(cmd *cobra.Command, args []string) error {
	cl, err := opt.client()
	if err != nil {
		return err
	}
	root, err := cl.Root()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Root: %s\n", au.Yellow(root.String()))
	return nil
}

func getSize(cmd *cobra.Command, args []string) error {
	cl, err := opt.client()
	if err != nil {
		return err
	}
	info, err := cl.AccountsInfo()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Accounts: %d\n", au.Yellow(info.Size))
	if info.TotalBalance != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Total balance: %d\n", au.Yellow(*info.TotalBalance))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Commitment: %d (%s)\n", info.Sequence, info.CommittedAt)
	return nil
}

func getProof(cmd *cobra.Command, args []string) error {
	userID, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil || userID == 0 {
		return fmt.Errorf("invalid userId %q", args[0])
	}
	cl, err := opt.client()
	if err != nil {
		return err
	}
	proof, err := cl.Proof(userID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(proof, "", "  ")
	if err != nil {
		return err
	}
	if opt.out == "" {
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}
	if err := os.WriteFile(opt.out, append(data, '\n'), 0o644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "proof of account %d (%d elements) written to %s\n",
		proof.UserID, len(proof.Proof), au.Yellow(opt.out))
	return nil
}
