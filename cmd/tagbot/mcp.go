package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/tagbot/internal/cli"
	"github.com/aretw0/tagbot/pkg/adapters/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the bot as a Model Context Protocol (MCP) server",
	Long: `Exposes the configured bot to MCP clients as tools: respond,
get_bot, get_conversation, list_conversations and reset_conversation.

Transports:
- stdio (default): JSON-RPC over standard input/output, for local agents.
- sse: Server-Sent Events over HTTP on --addr.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		addr, _ := cmd.Flags().GetString("addr")
		baseURL, _ := cmd.Flags().GetString("base-url")

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		app, err := cli.Build(ctx, cfg, logger, cli.Options{})
		if err != nil {
			return err
		}
		defer app.Close()

		srv := mcp.NewServer(app.Manager, app.Bot.Definition(),
			mcp.WithResponder(app.Responder()),
			mcp.WithLogger(logger),
		)

		switch transport {
		case "stdio":
			logger.Info("mcp server starting", "transport", transport, "bot", app.Bot.Name())
			return srv.ServeStdio()
		case "sse":
			if baseURL == "" {
				baseURL = "http://" + addr
				if strings.HasPrefix(addr, ":") {
					baseURL = "http://localhost" + addr
				}
			}
			logger.Info("mcp server starting", "transport", transport, "addr", addr, "bot", app.Bot.Name())
			return srv.ServeSSE(ctx, addr, baseURL)
		default:
			return fmt.Errorf("unknown transport %q (supported: stdio, sse)", transport)
		}
	},
}

func init() {
	mcpCmd.Flags().String("transport", "stdio", "Transport protocol: 'stdio' or 'sse'")
	mcpCmd.Flags().String("addr", ":8090", "Listen address (sse only)")
	mcpCmd.Flags().String("base-url", "", "Public URL of the SSE server (default derived from --addr)")
	rootCmd.AddCommand(mcpCmd)
}
