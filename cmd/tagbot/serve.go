package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/aretw0/tagbot/internal/cli"
	httpadapter "github.com/aretw0/tagbot/pkg/adapters/http"
	"github.com/aretw0/tagbot/pkg/adapters/slack"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the bot over HTTP (and Slack, when configured)",
	Long: `Starts the HTTP API: conversations under /v1, Server-Sent Events per
conversation, Prometheus metrics on /metrics and, when a Slack token is
configured, the Events API endpoint on /slack/events.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.HTTP.Addr = addr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		app, err := cli.Build(ctx, cfg, logger, cli.Options{Metrics: true, Registry: reg})
		if err != nil {
			return err
		}
		defer app.Close()

		opts := []httpadapter.Option{
			httpadapter.WithResponder(app.Responder()),
			httpadapter.WithGatherer(reg),
			httpadapter.WithLogger(logger),
		}
		var slackHandler *slack.Handler
		if cfg.Slack.Enabled() {
			slackHandler, err = newSlackHandler(ctx, app)
			if err != nil {
				return err
			}
			opts = append(opts, httpadapter.WithSlack(slackHandler))
		}

		handler := httpadapter.NewHandler(app.Manager, app.Bot.Definition(), opts...)
		err = httpadapter.ListenAndServe(ctx, cfg.HTTP.Addr, handler, logger)
		if slackHandler != nil {
			slackHandler.Wait()
		}
		return err
	},
}

func newSlackHandler(ctx context.Context, app *cli.App) (*slack.Handler, error) {
	client := slack.NewClient(cfg.Slack.Token)
	botID := cfg.Slack.BotID
	if botID == "" {
		id, err := slack.BotUserID(ctx, client)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve slack bot id: %w", err)
		}
		botID = id
	}
	logger.Info("slack enabled", "bot_id", botID, "signed", cfg.Slack.SigningSecret != "")
	return slack.NewHandler(app.Responder(), client, botID,
		slack.WithSigningSecret(cfg.Slack.SigningSecret),
		slack.WithLogger(logger),
	), nil
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides http.addr)")
	rootCmd.AddCommand(serveCmd)
}
