package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/tagbot/internal/cli"
	"github.com/aretw0/tagbot/pkg/bots"
	"github.com/aretw0/tagbot/pkg/lexicon"
	"github.com/aretw0/tagbot/pkg/registry"
)

var validateCmd = &cobra.Command{
	Use:   "validate [bot...]",
	Short: "Check bot definitions for consistency",
	Long: `Validates the named bots (all bots when none are given) with the
configured lexicon and tags file. Warnings such as states without handlers or
handlers for undeclared states are treated as failures.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		names := args
		if len(names) == 0 {
			names = bots.Names()
		}

		lex, err := lexicon.NewCache(lexicon.FileSource(cfg.LexiconPath)).Get()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		failed := 0
		for _, name := range names {
			c := *cfg
			c.Bot = name
			def, err := cli.Definition(&c, lex)
			if err == nil {
				var warnings []registry.Warning
				warnings, err = registry.Validate(def)
				for _, w := range warnings {
					fmt.Fprintf(out, "  %s: %s\n", name, w)
				}
				if err == nil && len(warnings) > 0 {
					err = fmt.Errorf("%d warning(s)", len(warnings))
				}
			}
			if err != nil {
				fmt.Fprintf(out, "%s: validation failed: %v\n", name, err)
				failed++
				continue
			}
			fmt.Fprintf(out, "%s is valid! ✅\n", name)
		}

		if failed > 0 {
			return fmt.Errorf("%d bot(s) failed validation", failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
