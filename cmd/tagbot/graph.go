package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/tagbot/internal/cli"
	"github.com/aretw0/tagbot/internal/presentation/graph"
	"github.com/aretw0/tagbot/pkg/domain"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Print the bot as a Mermaid flowchart",
	Long: `Prints the states of the bot as a Mermaid flowchart. With --transcript,
each line of the file is sent to a fresh conversation and the transitions it
takes are drawn as edges, with the states it visited highlighted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transcript, _ := cmd.Flags().GetString("transcript")

		rec := graph.NewRecorder()
		app, err := cli.Build(cmd.Context(), cfg, logger, cli.Options{
			Hooks: []domain.LifecycleHooks{rec.Hooks()},
		})
		if err != nil {
			return err
		}
		defer app.Close()

		if transcript == "" {
			fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(app.Bot.Definition(), nil, nil))
			return nil
		}

		f, err := os.Open(transcript)
		if err != nil {
			return err
		}
		defer f.Close()

		conv := app.Bot.NewConversation()
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			if _, err := conv.Respond(cmd.Context(), line); err != nil {
				logger.Warn("transcript line recovered", "line", line, "error", err)
			}
		}
		if err := scanner.Err(); err != nil {
			return err
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(app.Bot.Definition(), rec.Edges(), rec.Overlay()))
		return nil
	},
}

func init() {
	graphCmd.Flags().StringP("transcript", "t", "", "File with one user message per line")
	rootCmd.AddCommand(graphCmd)
}
