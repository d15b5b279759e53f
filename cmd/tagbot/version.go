package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/tagbot"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of tagbot",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "tagbot version %s\n", tagbot.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
