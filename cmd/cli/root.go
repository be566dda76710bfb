// Package cli implements the eventrec command line: ranking events from a
// fixture, forwarding interactions, generating fixtures and serving the ops
// endpoints.
package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/eventrec/internal/config"
	"github.com/okian/eventrec/pkg/logger"
)

// state is shared by the subcommands once the root has loaded config.
type state struct {
	cfgFile     string
	fixturePath string
	cfg         *config.Config
	logger      logger.Logger
}

// NewRootCmd builds the eventrec command tree.
func NewRootCmd() *cobra.Command {
	st := &state{}

	root := &cobra.Command{
		Use:   "eventrec",
		Short: "Culturally aware event recommendations.",
		Long: `eventrec scores and ranks candidate events for a user against a cultural
calendar, a preference store and a geography catalog loaded from a YAML fixture.`,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return st.init(cmd)
		},
	}

	root.PersistentFlags().StringVar(&st.cfgFile, "config", "", "config file (overrides "+config.EnvFile+")")
	root.PersistentFlags().StringVarP(&st.fixturePath, "fixture", "f", "", "fixture file (overrides fixture_path)")

	root.AddCommand(
		newRankCmd(st),
		newInteractCmd(st),
		newGenerateCmd(st),
		newServeOpsCmd(st),
	)
	return root
}

// Execute runs the command tree with ctx.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// init loads configuration and sets up logging on stderr.
func (st *state) init(cmd *cobra.Command) error {
	if st.cfgFile != "" {
		if err := os.Setenv(config.EnvFile, st.cfgFile); err != nil {
			return err
		}
	}
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return err
	}
	if st.fixturePath != "" {
		cfg.FixturePath = st.fixturePath
	}
	if err := logger.InitWithWriter(cmd.ErrOrStderr(), cfg.LogFormat); err != nil {
		return err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(cmd.Context(), "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	st.cfg = cfg
	st.logger = logger.Named("cli")
	return nil
}
