package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/TechXTT/wikidb/pkg/httpsession"
	"github.com/TechXTT/wikidb/pkg/runtime"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// NewServeCmd builds the `serve` command: an HTTP server exposing
// /healthz through a request-scoped session and /metrics.
func NewServeCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve health and metrics endpoints backed by the shared engine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.HTTPAddr
			}

			ctx := cmd.Context()
			eng, err := runtime.Open(ctx, cfg.DSN,
				runtime.WithLogger(log),
				runtime.WithEcho(cfg.Echo),
			)
			if err != nil {
				return fmt.Errorf("open engine: %w", err)
			}
			defer func() {
				if err := eng.Close(); err != nil {
					log.Error("close engine", "error", err)
				}
			}()

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector())
			metrics, err := runtime.NewMetrics(reg, eng.DB())
			if err != nil {
				return err
			}
			eng.Use(metrics)

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", addr, err)
			}
			srv := &http.Server{
				Handler:           httpsession.NewRouter(eng, reg, log),
				ReadHeaderTimeout: readHeaderTimeout,
				BaseContext:       func(net.Listener) context.Context { return ctx },
			}
			log.Info("serving", "addr", ln.Addr().String())

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("serve: %w", err)
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				log.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})
			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default $HTTP_ADDR or :8000)")
	return cmd
}
