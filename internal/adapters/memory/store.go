// Package memory serves the cultural calendar, the preference store and the
// geography service from a fixture held in memory. Reads share a lock;
// preference learning is the only writer.
package memory

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/eventrec/internal/domain/collab"
	"github.com/okian/eventrec/internal/domain/model"
	"github.com/okian/eventrec/internal/fixture"
	"github.com/okian/eventrec/pkg/logger"
)

const (
	neutral             = 0.5
	defaultLearningRate = 0.1
)

var (
	_ collab.CulturalCalendar = (*Store)(nil)
	_ collab.Preferences      = (*Store)(nil)
	_ collab.Geography        = (*Store)(nil)
)

// Store implements the three collaborator contracts over a fixture.
type Store struct {
	mu sync.RWMutex

	calendar  fixture.Calendar
	poyadays  map[string]struct{}
	locations map[string]fixture.Location
	users     map[uuid.UUID]*fixture.User
	events    []model.Event

	learningRate float64
	logger       logger.Logger
}

// New validates f and indexes it. The fixture is copied; later changes to f
// are not seen by the store.
func New(f *fixture.Fixture, opts ...Option) (*Store, error) {
	if f == nil {
		f = &fixture.Fixture{}
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}

	s := &Store{
		calendar:     f.Calendar,
		poyadays:     make(map[string]struct{}, len(f.Calendar.Poyadays)),
		locations:    make(map[string]fixture.Location, len(f.Locations)),
		users:        make(map[uuid.UUID]*fixture.User, len(f.Users)),
		events:       slices.Clone(f.Events),
		learningRate: defaultLearningRate,
		logger:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	for _, d := range f.Calendar.Poyadays {
		s.poyadays[d.Format(time.DateOnly)] = struct{}{}
	}
	for _, l := range f.Locations {
		s.locations[key(l.Name)] = l
	}
	for _, u := range f.Users {
		u.Learned.Weights = maps.Clone(u.Learned.Weights)
		s.users[u.ID] = &u
	}
	return s, nil
}

// Events returns the candidate events of the fixture.
func (s *Store) Events() []model.Event {
	return slices.Clone(s.events)
}

// user returns the user with id. Callers hold s.mu.
func (s *Store) user(id uuid.UUID) (*fixture.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownUser, id)
	}
	return u, nil
}

func (s *Store) location(name string) (fixture.Location, bool) {
	l, ok := s.locations[key(name)]
	return l, ok
}

func key(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
