package fixture

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/eventrec/internal/domain/geo"
	"github.com/okian/eventrec/internal/domain/model"
	"github.com/okian/eventrec/pkg/logger"
)

// Poyadays are placed every synodic month from a known full moon.
const synodicMonth = 2551442877 * time.Millisecond

var referenceFullMoon = time.Date(2000, time.January, 21, 4, 40, 0, 0, time.UTC)

// Generation ranges.
const (
	minAge            = 18
	ageRange          = 62
	minTravelKm       = 10
	travelRangeKm     = 90
	maxHistory        = 6
	firstStartHour    = 9
	startHourRange    = 12
	minDurationHours  = 2
	durationHourRange = 3
	locatedShare      = 0.8
)

// Event profiles.
const (
	caseMainstream = iota
	caseFestival
	caseNiche
	caseOnline
	profileCases
)

var categories = []struct {
	name            string
	nature          model.EventNature
	appropriateness float64
}{
	{"religious", model.NatureReligious, 0.9},
	{"cultural", model.NatureCultural, 0.8},
	{"dance", model.NatureCultural, 0.7},
	{"music", model.NatureSecular, 0.6},
	{"food", model.NatureSecular, 0.6},
	{"education", model.NatureSecular, 0.7},
	{"sports", model.NatureSecular, 0.5},
	{"community", model.NatureMixed, 0.7},
}

var catalog = []Location{
	{Name: "Toronto", Region: "Ontario", Point: geo.Point{Lat: 43.6532, Lon: -79.3832}, Diaspora: true, Density: 0.85, Members: 120, Transit: 0.8, Parking: false},
	{Name: "Scarborough", Region: "Ontario", Point: geo.Point{Lat: 43.7764, Lon: -79.2318}, Diaspora: true, Density: 0.9, Members: 95, Transit: 0.6, Parking: true},
	{Name: "Mississauga", Region: "Ontario", Point: geo.Point{Lat: 43.5890, Lon: -79.6441}, Diaspora: true, Density: 0.6, Members: 40, Transit: 0.5, Parking: true},
	{Name: "London", Region: "Greater London", Point: geo.Point{Lat: 51.5074, Lon: -0.1278}, Diaspora: true, Density: 0.75, Members: 150, Transit: 0.9, Parking: false},
	{Name: "Harrow", Region: "Greater London", Point: geo.Point{Lat: 51.5806, Lon: -0.3420}, Diaspora: true, Density: 0.65, Members: 35, Transit: 0.7, Parking: true},
	{Name: "Melbourne", Region: "Victoria", Point: geo.Point{Lat: -37.8136, Lon: 144.9631}, Diaspora: true, Density: 0.55, Members: 60, Transit: 0.7, Parking: true},
	{Name: "Sydney", Region: "New South Wales", Point: geo.Point{Lat: -33.8688, Lon: 151.2093}, Diaspora: true, Density: 0.45, Members: 45, Transit: 0.7, Parking: false},
	{Name: "Auckland", Region: "Auckland", Point: geo.Point{Lat: -36.8485, Lon: 174.7633}, Diaspora: false, Density: 0.2, Members: 12, Transit: 0.5, Parking: true},
	{Name: "Oslo", Region: "Oslo", Point: geo.Point{Lat: 59.9139, Lon: 10.7522}, Diaspora: false, Density: 0.15, Members: 8, Transit: 0.8, Parking: false},
}

var (
	backgrounds = []string{"Sinhala", "Tamil", "Burgher", "Moor"}
	languages   = []string{"Sinhala", "Tamil", "English"}
	audiences   = []model.Audience{model.AudienceAll, model.AudienceFamily, model.AudienceAdults, model.AudienceYouth, model.AudienceSenior}
	transport   = []string{"car", "transit", "walk"}
)

type generateConfig struct {
	users   int
	events  int
	seed    uint64
	year    int
	workers int
	logger  logger.Logger
}

// GenerateOption configures Generate.
type GenerateOption func(*generateConfig)

// WithUsers sets the number of users.
func WithUsers(n int) GenerateOption {
	return func(c *generateConfig) {
		if n >= 0 {
			c.users = n
		}
	}
}

// WithEvents sets the number of events.
func WithEvents(n int) GenerateOption {
	return func(c *generateConfig) {
		if n >= 0 {
			c.events = n
		}
	}
}

// WithSeed makes the output reproducible.
func WithSeed(seed uint64) GenerateOption {
	return func(c *generateConfig) { c.seed = seed }
}

// WithYear sets the calendar year events are placed in.
func WithYear(year int) GenerateOption {
	return func(c *generateConfig) {
		if year > 0 {
			c.year = year
		}
	}
}

// WithWorkers bounds the generation concurrency.
func WithWorkers(n int) GenerateOption {
	return func(c *generateConfig) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithLogger sets the logger reporting progress.
func WithLogger(l logger.Logger) GenerateOption {
	return func(c *generateConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// Generate builds a synthetic fixture. The same options always produce
// the same fixture.
func Generate(ctx context.Context, opts ...GenerateOption) (*Fixture, error) {
	cfg := generateConfig{users: 10, events: 100, seed: 1, year: time.Now().Year(), workers: 4, logger: logger.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.logger.Info(ctx, "generating fixture",
		logger.Int("users", cfg.users),
		logger.Int("events", cfg.events),
		logger.Int("year", cfg.year),
	)

	f := &Fixture{
		Calendar:  generateCalendar(cfg.year),
		Locations: make([]Location, len(catalog)),
		Users:     make([]User, cfg.users),
		Events:    make([]model.Event, cfg.events),
	}
	r := rand.New(rand.NewPCG(cfg.seed, 0))
	for i, l := range catalog {
		l.Categories = make(map[string]float64, len(categories))
		for _, c := range categories {
			l.Categories[c.name] = round2(0.2 + r.Float64()*0.8)
		}
		f.Locations[i] = l
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.workers)
	for i := range cfg.users {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			f.Users[i] = generateUser(rand.New(rand.NewPCG(cfg.seed, uint64(1_000_000+i))))
			return nil
		})
	}
	for i := range cfg.events {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			f.Events[i] = generateEvent(rand.New(rand.NewPCG(cfg.seed, uint64(2_000_000+i))), i, cfg.year)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("generate fixture: %w", err)
	}

	cfg.logger.Info(ctx, "generated fixture", logger.Int("events", len(f.Events)))
	return f, nil
}

// generateCalendar places poyadays on the full moons of year and derives
// the festivals from them.
func generateCalendar(year int) Calendar {
	cal := Calendar{
		Appropriateness: make(map[string]float64, len(categories)),
		Natures:         make(map[string]model.EventNature, len(categories)),
	}
	for _, c := range categories {
		cal.Appropriateness[c.name] = c.appropriateness
		cal.Natures[c.name] = c.nature
	}

	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)
	n := math.Ceil(float64(start.Sub(referenceFullMoon)) / float64(synodicMonth))
	for moon := referenceFullMoon.Add(time.Duration(n * float64(synodicMonth))); moon.Before(end); moon = moon.Add(synodicMonth) {
		day := time.Date(moon.Year(), moon.Month(), moon.Day(), 0, 0, 0, 0, time.UTC)
		cal.Poyadays = append(cal.Poyadays, day)
	}

	for _, p := range cal.Poyadays {
		switch p.Month() {
		case time.May:
			if !hasFestival(cal, "Vesak") {
				cal.Festivals = append(cal.Festivals, period("Vesak", p, 0, 2))
			}
		case time.June:
			if !hasFestival(cal, "Poson") {
				cal.Festivals = append(cal.Festivals, period("Poson", p, 0, 1))
			}
		case time.August:
			if !hasFestival(cal, "Esala") {
				cal.Festivals = append(cal.Festivals, period("Esala", p, -9, 0))
			}
		}
		cal.SignificantDates = append(cal.SignificantDates, model.SignificantDate{Date: p, Name: p.Month().String() + " Poya"})
	}
	cal.Festivals = append(cal.Festivals,
		period("Thai Pongal", time.Date(year, time.January, 14, 0, 0, 0, 0, time.UTC), 0, 3),
		period("Aluth Avurudu", time.Date(year, time.April, 13, 0, 0, 0, 0, time.UTC), 0, 1),
	)
	return cal
}

func hasFestival(cal Calendar, name string) bool {
	for _, f := range cal.Festivals {
		if f.Name == name {
			return true
		}
	}
	return false
}

func period(name string, day time.Time, before, after int) model.FestivalPeriod {
	return model.FestivalPeriod{
		Name:  name,
		Start: day.AddDate(0, 0, before),
		End:   day.AddDate(0, 0, after).Add(24*time.Hour - time.Second),
	}
}

func generateEvent(r *rand.Rand, index, year int) model.Event {
	c := categories[r.IntN(len(categories))]
	loc := catalog[r.IntN(len(catalog))]

	day := r.IntN(365)
	start := time.Date(year, time.January, 1, firstStartHour+r.IntN(startHourRange), 0, 0, 0, time.UTC).AddDate(0, 0, day)
	ev := model.Event{
		ID:        uuidFrom(r),
		Title:     fmt.Sprintf("%s gathering #%d", c.name, index+1),
		Category:  c.name,
		StartDate: start,
		EndDate:   start.Add(time.Duration(minDurationHours+r.IntN(durationHourRange)) * time.Hour),
		Language:  languages[r.IntN(len(languages))],
		Audience:  audiences[r.IntN(len(audiences))],
		Tags:      []string{c.name},
	}

	switch r.IntN(profileCases) {
	case caseOnline:
		ev.Tags = append(ev.Tags, "online")
		return ev
	case caseFestival:
		ev.Tags = append(ev.Tags, "festival")
	case caseNiche:
		ev.Tags = append(ev.Tags, backgrounds[r.IntN(len(backgrounds))])
	case caseMainstream:
	}

	ev.Location = loc.Name
	if r.Float64() < locatedShare {
		p := loc.Point
		ev.Coordinates = &p
	}
	if r.IntN(4) == 0 {
		other := catalog[r.IntN(len(catalog))]
		ev.Locations = []string{other.Name}
	}
	return ev
}

func generateUser(r *rand.Rand) User {
	loc := catalog[r.IntN(len(catalog))]
	u := User{
		ID:          uuidFrom(r),
		Name:        fmt.Sprintf("user-%04d", r.IntN(10000)),
		Age:         minAge + r.IntN(ageRange),
		Background:  backgrounds[r.IntN(len(backgrounds))],
		Sensitivity: model.SensitivityLevel(r.IntN(5)),
		Adaptation:  model.AdaptationLevel(r.IntN(5)),
		Location:    loc.Name,
		MaxDistance: model.Distance{Value: float64(minTravelKm + r.IntN(travelRangeKm)), Unit: model.Kilometers},
		Natures: model.NaturePreferences{
			Religious: round2(r.Float64()),
			Cultural:  round2(r.Float64()),
			Secular:   round2(r.Float64()),
		},
		Learned: model.LearnedPreferences{
			Weights:    make(map[string]float64, len(categories)),
			Confidence: round2(r.Float64()),
			SampleSize: r.IntN(50),
		},
		TimeSlots: model.TimeSlotPreferences{
			PreferredDays:         []time.Weekday{time.Saturday, time.Sunday},
			Slots:                 []model.TimeSlot{{Start: 17 * time.Hour, End: 21 * time.Hour, Preference: round2(0.5 + r.Float64()/2)}},
			WorkingHoursAvoidance: round2(r.Float64()),
		},
		Family: model.FamilyProfile{
			HasChildren:             r.IntN(2) == 0,
			FamilyEventPreference:   round2(r.Float64()),
			AdultOnlyPreference:     round2(r.Float64()),
			ChildFriendlyImportance: round2(r.Float64()),
		},
		Languages: model.LanguagePreferences{
			Primary:                []string{languages[r.IntN(2)]},
			Secondary:              []string{"English"},
			MultilingualPreference: round2(r.Float64()),
		},
		Involvement: model.InvolvementProfile{
			Level:          model.InvolvementLevel(r.IntN(5)),
			VolunteerHours: r.IntN(100),
			Commitment:     model.CommitmentLevel(r.IntN(4)),
			PreferredTypes: []string{categories[r.IntN(len(categories))].name},
		},
		Transport: model.TransportationPreferences{
			Modes:            []string{transport[r.IntN(len(transport))]},
			MaxTravelMinutes: 15 + r.IntN(75),
			NeedsParking:     r.IntN(3) == 0,
		},
	}
	for _, c := range categories {
		if r.IntN(2) == 0 {
			u.Learned.Weights[c.name] = round2(r.Float64())
		}
	}
	for range r.IntN(maxHistory + 1) {
		c := categories[r.IntN(len(categories))]
		u.History = append(u.History, model.AttendedEvent{
			Category:  c.name,
			Rating:    float64(1 + r.IntN(5)),
			Frequency: 1 + r.IntN(6),
		})
	}
	return u
}

// uuidFrom draws a random (version 4) UUID from r.
func uuidFrom(r *rand.Rand) uuid.UUID {
	var id uuid.UUID
	for i := range id {
		id[i] = byte(r.UintN(256))
	}
	id[6] = (id[6] & 0x0f) | 0x40
	id[8] = (id[8] & 0x3f) | 0x80
	return id
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
