// Package fixture describes the YAML world served by the in-memory
// collaborators: a cultural calendar, a location catalog, users with their
// profiles and candidate events.
package fixture

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/okian/eventrec/internal/domain/geo"
	"github.com/okian/eventrec/internal/domain/model"
)

// Fixture is a complete world for the in-memory collaborators.
type Fixture struct {
	Calendar  Calendar      `yaml:"calendar"`
	Locations []Location    `yaml:"locations" validate:"dive"`
	Users     []User        `yaml:"users" validate:"dive"`
	Events    []model.Event `yaml:"events"`
}

// Calendar holds the religious and festival calendar.
type Calendar struct {
	Poyadays         []time.Time             `yaml:"poyadays"`
	Festivals        []model.FestivalPeriod  `yaml:"festivals"`
	SignificantDates []model.SignificantDate `yaml:"significant_dates"`
	// Appropriateness is the base appropriateness of each event category.
	Appropriateness map[string]float64 `yaml:"appropriateness" validate:"dive,gte=0,lte=1"`
	// Natures classifies event categories.
	Natures map[string]model.EventNature `yaml:"natures"`
}

// Location is a place in the location catalog.
type Location struct {
	Name     string    `yaml:"name" validate:"required"`
	Region   string    `yaml:"region"`
	Point    geo.Point `yaml:"point"`
	Diaspora bool      `yaml:"diaspora"`
	Density  float64   `yaml:"density" validate:"gte=0,lte=1"`
	Members  int       `yaml:"members" validate:"gte=0"`
	// Transit is how well public transport serves the location.
	Transit float64 `yaml:"transit" validate:"gte=0,lte=1"`
	Parking bool    `yaml:"parking"`
	// Categories are the regional affinities per event category.
	Categories map[string]float64 `yaml:"categories" validate:"dive,gte=0,lte=1"`
}

// User is one user with every profile the preference store serves.
type User struct {
	ID          uuid.UUID                       `yaml:"id" validate:"required"`
	Name        string                          `yaml:"name"`
	Age         int                             `yaml:"age" validate:"gte=0,lte=130"`
	Background  string                          `yaml:"background"`
	Sensitivity model.SensitivityLevel          `yaml:"sensitivity"`
	Adaptation  model.AdaptationLevel           `yaml:"adaptation"`
	Location    string                          `yaml:"location"`
	MaxDistance model.Distance                  `yaml:"max_distance"`
	Natures     model.NaturePreferences         `yaml:"natures"`
	History     []model.AttendedEvent           `yaml:"history"`
	Learned     model.LearnedPreferences        `yaml:"learned"`
	TimeSlots   model.TimeSlotPreferences       `yaml:"time_slots"`
	Family      model.FamilyProfile             `yaml:"family"`
	Languages   model.LanguagePreferences       `yaml:"languages"`
	Involvement model.InvolvementProfile        `yaml:"involvement"`
	Transport   model.TransportationPreferences `yaml:"transport"`

	// Optional overrides of the defaults.
	Weights             *model.ScoringWeights      `yaml:"weights,omitempty"`
	PersonalizedWeights *model.PersonalizedWeights `yaml:"personalized_weights,omitempty"`
	ConflictRules       *model.ConflictRules       `yaml:"conflict_rules,omitempty"`
	TieBreaking         *model.TieBreakingRules    `yaml:"tie_breaking,omitempty"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Load reads and validates the fixture at path.
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrFixture, path, err)
	}
	return Decode(bytes.NewReader(data))
}

// Decode reads and validates a fixture from r.
func Decode(r io.Reader) (*Fixture, error) {
	var f Fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: decode: %w", ErrFixture, err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Write encodes f as YAML.
func Write(w io.Writer, f *Fixture) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("%w: encode: %w", ErrFixture, err)
	}
	return enc.Close()
}

// Validate checks field constraints and cross references: unique IDs and
// location names, known user locations and valid coordinates.
func (f *Fixture) Validate() error {
	if err := getValidator().Struct(f); err != nil {
		return fmt.Errorf("%w: %w", ErrFixture, err)
	}

	var problems []string
	locations := make(map[string]struct{}, len(f.Locations))
	for _, l := range f.Locations {
		if _, dup := locations[l.Name]; dup {
			problems = append(problems, fmt.Sprintf("duplicate location %q", l.Name))
		}
		locations[l.Name] = struct{}{}
		if !l.Point.Valid() {
			problems = append(problems, fmt.Sprintf("location %q has invalid coordinates", l.Name))
		}
	}

	users := make(map[uuid.UUID]struct{}, len(f.Users))
	for _, u := range f.Users {
		if _, dup := users[u.ID]; dup {
			problems = append(problems, fmt.Sprintf("duplicate user %s", u.ID))
		}
		users[u.ID] = struct{}{}
		if u.Location != "" {
			if _, ok := locations[u.Location]; !ok {
				problems = append(problems, fmt.Sprintf("user %s lives in unknown location %q", u.ID, u.Location))
			}
		}
		if u.MaxDistance.Value < 0 {
			problems = append(problems, fmt.Sprintf("user %s has a negative travel distance", u.ID))
		}
	}

	events := make(map[uuid.UUID]struct{}, len(f.Events))
	for i, ev := range f.Events {
		if ev.ID == uuid.Nil {
			problems = append(problems, fmt.Sprintf("event %d has no id", i))
			continue
		}
		if _, dup := events[ev.ID]; dup {
			problems = append(problems, fmt.Sprintf("duplicate event %s", ev.ID))
		}
		events[ev.ID] = struct{}{}
		if ev.Coordinates != nil && !ev.Coordinates.Valid() {
			problems = append(problems, fmt.Sprintf("event %s has invalid coordinates", ev.ID))
		}
		if !ev.EndDate.IsZero() && ev.EndDate.Before(ev.StartDate) {
			problems = append(problems, fmt.Sprintf("event %s ends before it starts", ev.ID))
		}
	}

	for _, p := range f.Calendar.Festivals {
		if p.Name == "" || p.End.Before(p.Start) {
			problems = append(problems, fmt.Sprintf("festival %q has an invalid period", p.Name))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrFixture, strings.Join(problems, "; "))
	}
	return nil
}

// User returns the user with id.
func (f *Fixture) User(id uuid.UUID) (User, bool) {
	for _, u := range f.Users {
		if u.ID == id {
			return u, true
		}
	}
	return User{}, false
}

// Event returns the event with id.
func (f *Fixture) Event(id uuid.UUID) (model.Event, bool) {
	for _, ev := range f.Events {
		if ev.ID == id {
			return ev, true
		}
	}
	return model.Event{}, false
}
