package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/vango-dev/eventroutes/internal/app"
	"github.com/vango-dev/eventroutes/internal/config"
	"github.com/vango-dev/eventroutes/internal/errors"
	"github.com/vango-dev/eventroutes/internal/logging"
	"github.com/vango-dev/eventroutes/pkg/authmw"
	"github.com/vango-dev/eventroutes/pkg/middleware"
	"github.com/vango-dev/eventroutes/pkg/routepath"
	"github.com/vango-dev/eventroutes/pkg/router"
	"github.com/vango-dev/eventroutes/pkg/server"
)

func serveCmd(flags *globalFlags) *cobra.Command {
	var (
		addr string
		base string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the route server",
		Long: `Start the HTTP server: the SPA document for every route, the JSON API,
WebSocket navigation sessions and Prometheus metrics.

Examples:
  eventroutes serve
  eventroutes serve --addr=:3000 --base=/app
  eventroutes serve --config=s3://my-bucket/eventroutes.toml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := config.LoadSource(ctx, flags.configSource)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}
			if base != "" {
				cfg.Base = routepath.NormalizeBase(base)
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			srv, shutdown, err := newServer(cfg, logging.New(cfg.Log, cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			defer shutdown(context.Background())

			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Address to listen on (default from config)")
	cmd.Flags().StringVar(&base, "base", "", "Base path the app is mounted under (default from config)")

	return cmd
}

// newServer wires configuration, logging, metrics and tracing into a server.
// The returned function flushes the tracer provider.
func newServer(cfg *config.Config, logger *slog.Logger) (*server.Server, func(context.Context) error, error) {
	table, registry, err := app.Build(cfg.Base, cfg.Routes...)
	if err != nil {
		return nil, nil, err
	}

	var (
		navMiddleware []router.Middleware
		opts          []server.Option
		shutdown      = func(context.Context) error { return nil }
	)

	if !cfg.Tracing.Disabled {
		tp := sdktrace.NewTracerProvider()
		otel.SetTracerProvider(tp)
		shutdown = tp.Shutdown
		navMiddleware = append(navMiddleware, middleware.OpenTelemetry(
			middleware.WithTracerName(cfg.Tracing.ServiceName),
			middleware.WithTracerProvider(tp),
		))
	}

	if !cfg.Metrics.Disabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m := middleware.NewMetrics(
			middleware.WithRegistry(reg),
			middleware.WithNamespace(cfg.Metrics.Namespace),
		)
		opts = append(opts, server.WithMetrics(m, reg))
	}

	navMiddleware = append(navMiddleware, middleware.Logger(logger))

	if cfg.Auth.RequireLogin {
		guard, err := loginGuard(table, cfg.Auth)
		if err != nil {
			return nil, nil, err
		}
		navMiddleware = append(navMiddleware, guard)
	}

	opts = append(opts,
		server.WithLogger(logger),
		server.WithNavigationMiddleware(navMiddleware...),
	)

	srvCfg := server.DefaultServerConfig()
	srvCfg.Address = cfg.Addr
	srvCfg.SessionConfig.HistoryLimit = cfg.History.Limit

	return server.New(table, registry, srvCfg, opts...), shutdown, nil
}

// loginGuard builds the RequireLogin middleware for the configured login
// route, which must exist and take no params.
func loginGuard(table *router.Table, auth config.AuthConfig) (router.Middleware, error) {
	loginPath, err := table.URL(auth.LoginRoute, nil)
	if err != nil {
		return nil, errors.New("R021").
			Wrap(err).
			WithDetail(fmt.Sprintf("auth.loginRoute %q must name a route without parameters", auth.LoginRoute))
	}
	public := append([]string{auth.LoginRoute}, auth.Public...)
	return authmw.RequireLogin(loginPath, public...), nil
}
