package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TechXTT/wikidb/pkg/runtime"
)

// NewCheckCmd builds the `check` command: open the engine, run one
// session end to end and report pool statistics.
func NewCheckCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify DATABASE_URL by acquiring and releasing one session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(cmd, opts)
			if err != nil {
				return err
			}

			eng, err := runtime.Open(cmd.Context(), cfg.DSN,
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

			err = eng.WithSession(cmd.Context(), func(ctx context.Context, s *runtime.Session) error {
				var one int
				if err := s.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
					return fmt.Errorf("SELECT 1: %w", err)
				}
				return nil
			})
			if err != nil {
				return err
			}

			stats := eng.Stats()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "database: %s (%s)\n", eng.Locator().Redacted(), eng.Locator().Driver)
			fmt.Fprintf(out, "status: ok\n")
			fmt.Fprintf(out, "connections: open=%d in_use=%d idle=%d\n", stats.OpenConnections, stats.InUse, stats.Idle)
			return nil
		},
	}
}
