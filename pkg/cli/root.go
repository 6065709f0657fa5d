package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/TechXTT/wikidb/internal/logging"
	"github.com/TechXTT/wikidb/pkg/config"
)

// Version is overridden at build time with -ldflags "-X ...cli.Version=...".
var Version = "dev"

// rootOptions holds flags shared by every subcommand.
type rootOptions struct {
	envFiles []string
}

// NewVersionCmd builds the `version` command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(Version)
		},
	}
}

// NewRootCmd builds the top–level `wikidb` command.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "wikidb",
		Short:         "wikidb — database engine and request sessions for the wiki service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", nil, "dotenv files to load before reading the environment (default .env)")

	root.AddCommand(NewCheckCmd(opts))
	root.AddCommand(NewServeCmd(opts))
	root.AddCommand(NewVersionCmd())
	return root
}

// setup loads configuration and builds the logger. A missing DATABASE_URL
// fails here, before anything touches the network.
func setup(cmd *cobra.Command, opts *rootOptions) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(opts.envFiles...)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
	return cfg, log, nil
}
