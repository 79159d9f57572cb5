package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ReamLabs/ream-sub002/cmd/build"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of the node",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return printVersion(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func printVersion(w io.Writer) error {
	_, err := fmt.Fprintf(w, "version: %s\ncommit:  %s\nagent:   %s\n", build.Version(), build.Commit(), build.UserAgent())
	return err
}
