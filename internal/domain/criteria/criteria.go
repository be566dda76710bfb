// Package criteria computes the seven per-dimension scores of an event for
// a user. A collaborator failure never aborts scoring: the criterion falls
// back to Neutral and the Outcome records why.
package criteria

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/okian/eventrec/internal/domain/collab"
	"github.com/okian/eventrec/internal/domain/model"
	"github.com/okian/eventrec/pkg/logger"
	"github.com/okian/eventrec/pkg/metrics"
)

// Neutral is the score substituted for a criterion that could not be computed.
const Neutral = 0.5

const (
	diasporaBase    = 0.7
	nonDiasporaBase = 0.3
	densityWeight   = 0.3
	avoidedCategory = 0.2

	primaryMatch   = 0.9
	secondaryMatch = 0.6
	noMatch        = 0.3
)

// Criterion names one scoring dimension.
type Criterion string

// The seven criteria.
const (
	Cultural    Criterion = "cultural"
	Geographic  Criterion = "geographic"
	History     Criterion = "history"
	Time        Criterion = "time"
	Language    Criterion = "language"
	Family      Criterion = "family"
	Involvement Criterion = "involvement"
)

// All lists every criterion in evaluation order.
var All = [...]Criterion{Cultural, Geographic, History, Time, Language, Family, Involvement} //nolint:gochecknoglobals // fixed table

// Outcome is the result of one criterion. When Fallback is set, Value is
// Neutral and Cause holds the collaborator error.
type Outcome struct {
	Criterion Criterion
	Value     float64
	Fallback  bool
	Cause     error
}

// Evaluation holds the outcome of every criterion, indexed like All.
type Evaluation [len(All)]Outcome

// Get returns the outcome of c.
func (e Evaluation) Get(c Criterion) Outcome {
	for _, o := range e {
		if o.Criterion == c {
			return o
		}
	}
	return Outcome{Criterion: c, Value: Neutral, Fallback: true, Cause: fmt.Errorf("%w: %q", ErrUnknownCriterion, c)}
}

// Score returns the sub-scores as a RecommendationScore without a composite.
func (e Evaluation) Score() model.RecommendationScore {
	return model.RecommendationScore{
		Cultural:    e.Get(Cultural).Value,
		Geographic:  e.Get(Geographic).Value,
		History:     e.Get(History).Value,
		Time:        e.Get(Time).Value,
		Language:    e.Get(Language).Value,
		Family:      e.Get(Family).Value,
		Involvement: e.Get(Involvement).Value,
	}
}

// Fallbacks lists the criteria that fell back to Neutral.
func (e Evaluation) Fallbacks() []Criterion {
	var out []Criterion
	for _, o := range e {
		if o.Fallback {
			out = append(out, o.Criterion)
		}
	}
	return out
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithLogger sets the logger used for fallback diagnostics.
func WithLogger(l logger.Logger) Option {
	return func(s *Scorer) {
		if l != nil {
			s.log = l
		}
	}
}

// Scorer computes criteria against the three collaborators.
type Scorer struct {
	calendar  collab.CulturalCalendar
	prefs     collab.Preferences
	geography collab.Geography
	log       logger.Logger
}

// New creates a Scorer.
func New(calendar collab.CulturalCalendar, prefs collab.Preferences, geography collab.Geography, opts ...Option) *Scorer {
	s := &Scorer{
		calendar:  calendar,
		prefs:     prefs,
		geography: geography,
		log:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score computes one criterion. The error is non-nil only when ctx is done;
// every other failure is reported as a fallback Outcome.
func (s *Scorer) Score(ctx context.Context, user uuid.UUID, ev model.Event, c Criterion) (Outcome, error) {
	v, err := s.compute(ctx, user, ev, c)
	if err == nil {
		return Outcome{Criterion: c, Value: v}, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Outcome{Criterion: c, Cause: err}, ctxErr
	}

	metrics.RecordCriterionFallback(string(c))
	s.log.Debug(ctx, "criterion fell back to neutral",
		logger.String("criterion", string(c)),
		logger.String("event", ev.ID.String()),
		logger.Error(err),
	)
	return Outcome{Criterion: c, Value: Neutral, Fallback: true, Cause: err}, nil
}

// Evaluate computes all seven criteria concurrently.
func (s *Scorer) Evaluate(ctx context.Context, user uuid.UUID, ev model.Event) (Evaluation, error) {
	var out Evaluation
	var wg sync.WaitGroup
	for i, c := range All {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// cancellation is checked once below
			out[i], _ = s.Score(ctx, user, ev, c)
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return Evaluation{}, err
	}
	return out, nil
}

func (s *Scorer) compute(ctx context.Context, user uuid.UUID, ev model.Event, c Criterion) (float64, error) {
	switch c {
	case Cultural:
		background, err := s.prefs.CulturalBackground(ctx, user)
		if err != nil {
			return 0, fmt.Errorf("cultural background: %w", err)
		}
		return s.calendar.CalculateAppropriateness(ctx, ev, background)

	case Geographic:
		return s.geographic(ctx, ev)

	case History:
		history, err := s.prefs.AttendanceHistory(ctx, user)
		if err != nil {
			return 0, fmt.Errorf("attendance history: %w", err)
		}
		patterns, err := s.prefs.AnalyzePreferencePatterns(ctx, history)
		if err != nil {
			return 0, fmt.Errorf("preference patterns: %w", err)
		}
		return HistoryCompatibility(ev, patterns), nil

	case Time:
		return compatibility(ctx, ev,
			func(ctx context.Context) (model.TimeSlotPreferences, error) { return s.prefs.TimeSlotPreferences(ctx, user) },
			s.prefs.TimeCompatibility)

	case Language:
		return compatibility(ctx, ev,
			func(ctx context.Context) (model.LanguagePreferences, error) { return s.prefs.LanguagePreferences(ctx, user) },
			s.prefs.LanguageCompatibility)

	case Family:
		return compatibility(ctx, ev,
			func(ctx context.Context) (model.FamilyProfile, error) { return s.prefs.FamilyProfile(ctx, user) },
			s.prefs.FamilyCompatibility)

	case Involvement:
		return compatibility(ctx, ev,
			func(ctx context.Context) (model.InvolvementProfile, error) { return s.prefs.InvolvementProfile(ctx, user) },
			s.prefs.InvolvementCompatibility)

	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownCriterion, c)
	}
}

// geographic blends the diaspora flag with community density. Events
// without a location score Neutral.
func (s *Scorer) geographic(ctx context.Context, ev model.Event) (float64, error) {
	if !ev.HasLocation() {
		return Neutral, nil
	}
	diaspora, err := s.geography.IsDiasporaLocation(ctx, ev.Location)
	if err != nil {
		return 0, fmt.Errorf("diaspora location: %w", err)
	}
	density, err := s.geography.CommunityDensity(ctx, ev.Location)
	if err != nil {
		return 0, fmt.Errorf("community density: %w", err)
	}
	base := nonDiasporaBase
	if diaspora {
		base = diasporaBase
	}
	return base + density*densityWeight, nil
}

// compatibility fetches a profile and scores the event against it.
func compatibility[P any](
	ctx context.Context,
	ev model.Event,
	fetch func(context.Context) (P, error),
	score func(context.Context, model.Event, P) (model.Compatibility, error),
) (float64, error) {
	profile, err := fetch(ctx)
	if err != nil {
		return 0, fmt.Errorf("profile: %w", err)
	}
	c, err := score(ctx, ev, profile)
	if err != nil {
		return 0, fmt.Errorf("compatibility: %w", err)
	}
	return c.Score, nil
}

// HistoryCompatibility scores an event against attendance patterns: a
// preferred category earns OptimalFrequency·Engagement, an avoided one 0.2.
func HistoryCompatibility(ev model.Event, p model.PreferencePatterns) float64 {
	switch {
	case slices.Contains(p.Strong, ev.Category):
		return p.OptimalFrequency * p.Engagement
	case slices.Contains(p.Weak, ev.Category):
		return avoidedCategory
	default:
		return Neutral
	}
}

// AdaptiveScore scores an event against learned category preferences.
func AdaptiveScore(ev model.Event, p model.LearnedPreferences) float64 {
	switch {
	case p.IsPrimary(ev.Category):
		return primaryMatch * p.Confidence
	case p.IsSecondary(ev.Category):
		return secondaryMatch * p.Confidence
	default:
		return noMatch
	}
}
