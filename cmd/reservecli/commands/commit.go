package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.vocdoni.io/reserve/ledger"
)

func newCommitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commit [ledger.json]",
		Short: "replace the committed ledger of the server (requires the admin token)",
		Args:  cobra.ExactArgs(1),
		RunE:  commitLedger,
	}
	cmd.Flags().StringVarP(&opt.token, "token", "t", "",
		"admin bearer token")
	return cmd
}

func commitLedger(cmd *cobra.Command, args []string) error {
	l, err := ledger.LoadFile(args[0])
	if err != nil {
		return err
	}
	if opt.token == "" {
		return fmt.Errorf("the admin token is required")
	}
	cl, err := opt.client()
	if err != nil {
		return err
	}
	res, err := cl.Commit(l.Records())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Root: %s\nAccounts: %d\nCommitment: %d\n",
		au.Yellow(res.MerkleRoot.String()), res.Size, res.Sequence)
	return nil
}
