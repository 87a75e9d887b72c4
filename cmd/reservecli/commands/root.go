package commands

import (
	"fmt"
	"os"

	"github.com/logrusorgru/aurora"
	"github.com/spf13/cobra"
	"go.vocdoni.io/reserve/log"
)

var rootCmd = newRootCmd()

var (
	au  aurora.Aurora
	opt options
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reservecli",
		Short: "proof of reserve command line interface.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			au = aurora.NewAurora(opt.colorize)
			if !log.ValidLevel(opt.logLevel) {
				return fmt.Errorf("invalid log level %q", opt.logLevel)
			}
			log.Init(opt.logLevel, "stderr")
			return nil
		},
		SilenceUsage: true,
	}
	cmd.PersistentFlags().BoolVarP(
		&opt.colorize, "color", "c", true,
		"colorize output")
	cmd.PersistentFlags().StringVarP(
		&opt.host, "host", "", "http://127.0.0.1:3000/api",
		"API server to connect to, including the base route")
	cmd.PersistentFlags().StringVarP(
		&opt.logLevel, "logLevel", "l", "error",
		"log level (debug, info, warn, error, fatal)")

	cmd.AddCommand(newRootHashCmd())
	cmd.AddCommand(newSizeCmd())
	cmd.AddCommand(newProofCmd())
	cmd.AddCommand(newVerifyCmd())
	cmd.AddCommand(newCommitCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// Execute runs the command given in os.Args.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
