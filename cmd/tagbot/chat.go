package main

import (
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aretw0/tagbot"
	"github.com/aretw0/tagbot/internal/cli"
	"github.com/aretw0/tagbot/internal/presentation/tui"
	"github.com/aretw0/tagbot/pkg/runner"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with a bot in the terminal",
	Long: `Starts an interactive conversation on stdin/stdout. Type 'exit' or
'quit' (or press Ctrl+D) to leave. With --json, each input line may be a JSON
object {"text": "..."} and each reply is written as a JSON object.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonMode, _ := cmd.Flags().GetBool("json")
		render, _ := cmd.Flags().GetBool("render")
		noBanner, _ := cmd.Flags().GetBool("no-banner")
		sessionID, _ := cmd.Flags().GetString("session")
		if sessionID == "" {
			sessionID = uuid.NewString()
		}

		app, err := cli.Build(cmd.Context(), cfg, logger, cli.Options{})
		if err != nil {
			return err
		}
		defer app.Close()

		opts := []runner.Option{
			runner.WithResponder(app.Responder()),
			runner.WithName(app.Bot.Name()),
			runner.WithSessionID(sessionID),
			runner.WithLogger(logger),
			runner.WithIO(cmd.InOrStdin(), cmd.OutOrStdout()),
		}

		if jsonMode {
			opts = append(opts, runner.WithInputHandler(runner.NewJSONHandler(cmd.InOrStdin(), cmd.OutOrStdout())))
		} else {
			if !noBanner && term.IsTerminal(int(os.Stdout.Fd())) {
				tui.PrintBanner(cmd.OutOrStdout(), app.Bot.Name(), tagbot.Version)
			}
			if render {
				renderer, err := tui.NewRenderer()
				if err != nil {
					return err
				}
				opts = append(opts, runner.WithRenderer(renderer))
			}
		}

		logger.Debug("chat started", "bot", app.Bot.Name(), "session_id", sessionID, "store", cfg.Store)
		return runner.NewRunner(opts...).Run(cmd.Context())
	},
}

func init() {
	chatCmd.Flags().Bool("json", false, "Read and write JSON lines")
	chatCmd.Flags().Bool("render", false, "Render replies as Markdown")
	chatCmd.Flags().Bool("no-banner", false, "Skip the startup banner")
	chatCmd.Flags().StringP("session", "s", "", "Session ID to resume (random when empty)")
	rootCmd.AddCommand(chatCmd)

	// chat is the default command.
	rootCmd.Flags().AddFlagSet(chatCmd.Flags())
	rootCmd.RunE = chatCmd.RunE
}
