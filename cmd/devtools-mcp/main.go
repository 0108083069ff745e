package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/usestring/devtools-mcp/internal/config"
	"github.com/usestring/devtools-mcp/internal/mcp/tools"
	"github.com/usestring/devtools-mcp/pkg/mcpsrv"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "devtools-mcp",
		Short: "MCP server that runs developer CLIs and returns structured, size-adaptive results",
		Long: `devtools-mcp serves git, go, golangci-lint and npm as MCP tools over stdio.

Each tool returns a typed record. When the raw CLI text would have cost
fewer tokens than the record, a compact summary is returned instead.
Configuration is read from the environment (COMPACT_ESTIMATOR,
COMPACT_DEFAULT, DEVTOOLS_MCP_TOOLS, DEVTOOLS_MCP_DISABLED_TOOLS,
LOG_LEVEL, ...) and from the YAML file named by DEVTOOLS_MCP_CONFIG.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          runServe,
	}
	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Serve tools over stdio (default)",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	})
	root.AddCommand(&cobra.Command{
		Use:   "tools",
		Short: "List tools and whether the current configuration enables them",
		Args:  cobra.NoArgs,
		RunE:  runTools,
	})
	return root
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	server, err := mcpsrv.NewServer()
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	defer server.Close()

	slog.Info("starting devtools MCP server on stdio", slog.Any("tools", server.Tools()))
	if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("server error: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

func runTools(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, bold.Sprint("NAME")+"\t"+bold.Sprint("GROUP")+"\t"+bold.Sprint("STATUS"))
	for _, t := range tools.CatalogStatus(cfg) {
		status := green.Sprint("enabled")
		if !t.Enabled {
			status = red.Sprint("disabled")
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", t.Name, t.Group, status)
	}
	return tw.Flush()
}
