package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/tagbot/internal/cli"
)

var lexiconCmd = &cobra.Command{
	Use:   "lexicon",
	Short: "Inspect the flagged-word lexicon",
}

var lexiconCheckCmd = &cobra.Command{
	Use:   "check <text>...",
	Short: "Print the flagged words found in text",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.Build(cmd.Context(), cfg, logger, cli.Options{})
		if err != nil {
			return err
		}
		defer app.Close()

		words := app.Lexicon.Words(strings.Join(args, " "))
		if len(words) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No flagged words.")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Flagged (%d of %d known): %s\n",
			len(words), app.Lexicon.Len(), strings.Join(words, ", "))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lexiconCmd)
	lexiconCmd.AddCommand(lexiconCheckCmd)
}
