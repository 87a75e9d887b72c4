package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.vocdoni.io/reserve/internal"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the version of the command line interface",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "reservecli %s\n", internal.Version)
		},
	}
}
