package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/eventroutes/internal/app"
	"github.com/vango-dev/eventroutes/internal/config"
	"github.com/vango-dev/eventroutes/internal/errors"
	"github.com/vango-dev/eventroutes/pkg/router"
	"github.com/vango-dev/eventroutes/pkg/views"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		errors.PrintError(err)
		stop()
		os.Exit(1)
	}
}

// globalFlags are shared by every command.
type globalFlags struct {
	configSource string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "eventroutes",
		Short: "Route table and navigation server for the events app",
		Long: `eventroutes serves the events single-page application's routes.

It resolves browser locations against the route table (login, events,
view-event, add-event, edit-event), builds URLs from route names and hosts
WebSocket navigation sessions with browser-style history.

Configuration is read from eventroutes.json or eventroutes.toml, searched
upward from the working directory, or from --config (a file, a directory or
an s3://bucket/key URI).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&flags.configSource, "config", "c", "", "Config file, directory or s3:// URI")

	rootCmd.AddCommand(
		serveCmd(flags),
		resolveCmd(flags),
		urlCmd(flags),
		routesCmd(flags),
		versionCmd(),
	)

	return rootCmd
}

// loadApp loads configuration and builds the route table it describes.
func loadApp(ctx context.Context, flags *globalFlags) (*config.Config, *router.Table, *views.Registry, error) {
	cfg, err := config.LoadSource(ctx, flags.configSource)
	if err != nil {
		return nil, nil, nil, err
	}
	table, registry, err := app.Build(cfg.Base, cfg.Routes...)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, table, registry, nil
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}
