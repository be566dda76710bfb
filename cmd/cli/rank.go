package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/okian/eventrec/internal/app"
	"github.com/okian/eventrec/internal/domain/model"
)

// rankArgs are the per-request inputs a variant may need.
type rankArgs struct {
	user     uuid.UUID
	events   []model.Event
	date     time.Time
	festival string
	year     int
}

// defaults fills the date and year a caller left unset from now.
// The date is truncated to midnight UTC.
func (a *rankArgs) defaults(now time.Time) {
	now = now.UTC()
	if a.date.IsZero() {
		a.date = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	if a.year == 0 {
		a.year = now.Year()
	}
}

type variantFunc func(ctx context.Context, e *app.Engine, a rankArgs) (any, error)

type rankFunc = func(*app.Engine, context.Context, uuid.UUID, []model.Event) (model.Ranking, error)

// ranking adapts the common Ranking-returning signature.
func ranking(fn rankFunc) variantFunc {
	return func(ctx context.Context, e *app.Engine, a rankArgs) (any, error) {
		return fn(e, ctx, a.user, a.events)
	}
}

var variants = map[string]variantFunc{ //nolint:gochecknoglobals // static command table
	"standard":      ranking((*app.Engine).GetRecommendations),
	"cultural":      ranking((*app.Engine).GetCulturallyFilteredRecommendations),
	"diaspora":      ranking((*app.Engine).GetDiasporaOptimizedRecommendations),
	"categorized":   ranking((*app.Engine).GetCategorizedRecommendations),
	"calendar":      ranking((*app.Engine).GetCalendarValidatedRecommendations),
	"cluster":       ranking((*app.Engine).GetClusterOptimizedRecommendations),
	"distance":      ranking((*app.Engine).GetDistanceFilteredRecommendations),
	"regional":      ranking((*app.Engine).GetRegionalOptimizedRecommendations),
	"accessibility": ranking((*app.Engine).GetAccessibilityOptimizedRecommendations),
	"proximity":     ranking((*app.Engine).GetProximityOptimizedRecommendations),
	"location":      ranking((*app.Engine).GetLocationEdgeCaseRecommendations),
	"history":       ranking((*app.Engine).GetHistoryBasedRecommendations),
	"adaptive":      ranking((*app.Engine).GetAdaptiveRecommendations),
	"time":          ranking((*app.Engine).GetTimeOptimizedRecommendations),
	"family":        ranking((*app.Engine).GetFamilyOptimizedRecommendations),
	"age":           ranking((*app.Engine).GetAgeOptimizedRecommendations),
	"language":      ranking((*app.Engine).GetLanguageOptimizedRecommendations),
	"involvement":   ranking((*app.Engine).GetInvolvementOptimizedRecommendations),
	"scored":        ranking((*app.Engine).GetScoredRecommendations),
	"edge-case":     ranking((*app.Engine).GetEdgeCaseHandledRecommendations),
	"tie-broken":    ranking((*app.Engine).GetTieBrokenRecommendations),
	"date": func(ctx context.Context, e *app.Engine, a rankArgs) (any, error) {
		return e.GetRecommendationsForDate(ctx, a.user, a.events, a.date)
	},
	"festival": func(ctx context.Context, e *app.Engine, a rankArgs) (any, error) {
		return e.GetFestivalOptimizedRecommendations(ctx, a.user, a.events, a.festival, a.year)
	},
	"conflicts": func(ctx context.Context, e *app.Engine, a rankArgs) (any, error) {
		return e.GetConflictResolvedRecommendations(ctx, a.user, a.events)
	},
}

// variantNames lists the supported variants in order.
func variantNames() []string {
	names := make([]string, 0, len(variants))
	for name := range variants {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func newRankCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank the fixture's events for a user and print them as JSON.",
		Long: fmt.Sprintf(`Rank the fixture's events for a user with one recommendation variant.

Variants: %v`, variantNames()),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			userFlag, _ := cmd.Flags().GetString("user")
			variant, _ := cmd.Flags().GetString("variant")
			dateFlag, _ := cmd.Flags().GetString("date")
			festival, _ := cmd.Flags().GetString("festival")
			year, _ := cmd.Flags().GetInt("year")

			fn, ok := variants[variant]
			if !ok {
				return fmt.Errorf("%w: %q", ErrUnknownVariant, variant)
			}
			user, err := uuid.Parse(userFlag)
			if err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}
			a := rankArgs{user: user, festival: festival, year: year}
			if dateFlag != "" {
				if a.date, err = time.Parse(time.DateOnly, dateFlag); err != nil {
					return fmt.Errorf("invalid --date: %w", err)
				}
			}
			a.defaults(time.Now())

			r, err := st.build(cmd.Context())
			if err != nil {
				return err
			}
			a.events = r.store.Events()

			out, err := fn(cmd.Context(), r.engine, a)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().StringP("user", "u", "", "user ID")
	cmd.Flags().StringP("variant", "v", "standard", "recommendation variant")
	cmd.Flags().String("date", "", "target date for the date variant (YYYY-MM-DD, defaults to today)")
	cmd.Flags().String("festival", "", "festival name for the festival variant")
	cmd.Flags().Int("year", 0, "festival year (default current year)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
