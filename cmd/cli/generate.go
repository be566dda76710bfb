package cli

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/eventrec/internal/fixture"
	"github.com/okian/eventrec/pkg/logger"
)

func newGenerateCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic fixture.",
		Long: `Generate a reproducible synthetic world (calendar, locations, users and
events) and write it as YAML to --out or stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			users, _ := cmd.Flags().GetInt("users")
			events, _ := cmd.Flags().GetInt("events")
			seed, _ := cmd.Flags().GetUint64("seed")
			year, _ := cmd.Flags().GetInt("year")
			workers, _ := cmd.Flags().GetInt("workers")
			out, _ := cmd.Flags().GetString("out")

			opts := []fixture.GenerateOption{
				fixture.WithUsers(users),
				fixture.WithEvents(events),
				fixture.WithSeed(seed),
				fixture.WithLogger(logger.Named("generate")),
			}
			if year == 0 {
				year = time.Now().Year()
			}
			opts = append(opts, fixture.WithYear(year))
			if workers > 0 {
				opts = append(opts, fixture.WithWorkers(workers))
			}

			f, err := fixture.Generate(cmd.Context(), opts...)
			if err != nil {
				return err
			}

			if out == "" {
				return fixture.Write(cmd.OutOrStdout(), f)
			}
			file, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := fixture.Write(file, f); err != nil {
				_ = file.Close()
				return err
			}
			if err := file.Close(); err != nil {
				return err
			}
			st.logger.Info(cmd.Context(), "fixture written",
				logger.String("path", out),
				logger.Int("users", len(f.Users)),
				logger.Int("events", len(f.Events)),
			)
			return nil
		},
	}

	cmd.Flags().Int("users", 50, "number of users")
	cmd.Flags().Int("events", 500, "number of events")
	cmd.Flags().Uint64("seed", 1, "random seed")
	cmd.Flags().Int("year", 0, "calendar year (default current year)")
	cmd.Flags().Int("workers", 0, "event generation workers (default 4)")
	cmd.Flags().StringP("out", "o", "", "output file (default stdout)")
	return cmd
}
