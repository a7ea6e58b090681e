package main

import (
	"fmt"

	"github.com/dgallion1/docsift/internal/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the docsift version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "docsift %s\n", version.String())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
