package cli

import (
	"github.com/spf13/cobra"

	"github.com/okian/eventrec/internal/adapters/http/ops"
	"github.com/okian/eventrec/pkg/logger"
)

func newServeOpsCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve-ops",
		Short: "Serve /healthz, /metrics and /stats until interrupted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			if addr == "" {
				addr = st.cfg.OpsAddr
			}

			r, err := st.build(cmd.Context())
			if err != nil {
				return err
			}

			opts := []ops.Option{
				ops.WithStats(r.engine),
				ops.WithLogger(logger.Named("ops")),
			}
			for _, c := range r.checks() {
				opts = append(opts, ops.WithCheck(c))
			}
			return ops.New(opts...).Run(cmd.Context(), addr)
		},
	}

	cmd.Flags().String("addr", "", "listen address (default ops_addr)")
	return cmd
}
