package fixture_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/okian/eventrec/internal/domain/geo"
	"github.com/okian/eventrec/internal/domain/model"
	"github.com/okian/eventrec/internal/fixture"
	. "github.com/smartystreets/goconvey/convey"
)

const sample = `
calendar:
  poyadays: [2026-05-01]
  festivals:
    - name: Vesak
      start: 2026-05-01T00:00:00Z
      end: 2026-05-03T23:59:59Z
  appropriateness:
    religious: 0.9
  natures:
    religious: Religious
locations:
  - name: Toronto
    point: {lat: 43.6532, lon: -79.3832}
    diaspora: true
    density: 0.8
users:
  - id: 6f1c1a52-5d0e-4b8e-9a43-4a1f3c2d9e10
    age: 40
    location: Toronto
    sensitivity: High
    adaptation: Conservative
    max_distance: {value: 25, unit: mi}
    involvement: {level: Leader}
events:
  - id: 2b1f0b7e-3c6a-4f0e-8d7e-5c9b8a7f6e5d
    title: Vesak dansala
    category: religious
    location: Toronto
    start_date: 2026-05-01T18:00:00Z
`

func TestDecode(t *testing.T) {
	Convey("Given a valid fixture document", t, func() {
		f, err := fixture.Decode(strings.NewReader(sample))

		Convey("Then enums, dates and IDs are decoded", func() {
			So(err, ShouldBeNil)
			So(f.Calendar.Poyadays, ShouldHaveLength, 1)
			So(f.Calendar.Poyadays[0].Equal(time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC)), ShouldBeTrue)
			So(f.Calendar.Natures["religious"], ShouldEqual, model.NatureReligious)

			u, ok := f.User(uuid.MustParse("6f1c1a52-5d0e-4b8e-9a43-4a1f3c2d9e10"))
			So(ok, ShouldBeTrue)
			So(u.Sensitivity, ShouldEqual, model.SensitivityHigh)
			So(u.Adaptation, ShouldEqual, model.AdaptationConservative)
			So(u.MaxDistance.Unit, ShouldEqual, model.Miles)
			So(u.Involvement.Level, ShouldEqual, model.InvolvementLeader)

			ev, ok := f.Event(uuid.MustParse("2b1f0b7e-3c6a-4f0e-8d7e-5c9b8a7f6e5d"))
			So(ok, ShouldBeTrue)
			So(ev.Title, ShouldEqual, "Vesak dansala")
		})
	})

	Convey("Given an unknown field", t, func() {
		_, err := fixture.Decode(strings.NewReader("colour: blue\n"))
		So(errors.Is(err, fixture.ErrFixture), ShouldBeTrue)
	})

	Convey("Given an empty document", t, func() {
		f, err := fixture.Decode(strings.NewReader(""))
		So(err, ShouldBeNil)
		So(f.Events, ShouldBeEmpty)
	})
}

func TestValidate(t *testing.T) {
	Convey("Given a fixture with inconsistent references", t, func() {
		id := uuid.New()
		f := &fixture.Fixture{
			Locations: []fixture.Location{
				{Name: "Toronto", Point: geo.Point{Lat: 43.6, Lon: -79.4}},
				{Name: "Nowhere", Point: geo.Point{Lat: 123, Lon: 0}},
			},
			Users: []fixture.User{
				{ID: id, Location: "Toronto"},
				{ID: id, Location: "Atlantis"},
			},
		}

		err := f.Validate()

		Convey("Then every problem is reported", func() {
			So(errors.Is(err, fixture.ErrFixture), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "duplicate user")
			So(err.Error(), ShouldContainSubstring, `unknown location "Atlantis"`)
			So(err.Error(), ShouldContainSubstring, `"Nowhere" has invalid coordinates`)
		})
	})

	Convey("Given a value out of range", t, func() {
		f := &fixture.Fixture{Locations: []fixture.Location{{Name: "Toronto", Density: 1.5}}}
		So(errors.Is(f.Validate(), fixture.ErrFixture), ShouldBeTrue)
	})

	Convey("Given a user without an ID", t, func() {
		f := &fixture.Fixture{Users: []fixture.User{{Age: 30}}}
		So(errors.Is(f.Validate(), fixture.ErrFixture), ShouldBeTrue)
	})
}

func TestGenerate(t *testing.T) {
	ctx := context.Background()

	Convey("Given a seed and sizes", t, func() {
		opts := []fixture.GenerateOption{fixture.WithUsers(5), fixture.WithEvents(40), fixture.WithSeed(7), fixture.WithYear(2026)}
		a, err := fixture.Generate(ctx, opts...)
		So(err, ShouldBeNil)
		b, err := fixture.Generate(ctx, append(opts, fixture.WithWorkers(1))...)
		So(err, ShouldBeNil)

		Convey("Then generation is reproducible and valid", func() {
			So(a.Users, ShouldHaveLength, 5)
			So(a.Events, ShouldHaveLength, 40)
			So(a.Events[0].ID, ShouldEqual, b.Events[0].ID)
			So(a.Users[4].ID, ShouldEqual, b.Users[4].ID)
			So(a.Validate(), ShouldBeNil)
		})

		Convey("Then the calendar holds the full moons of the year", func() {
			So(len(a.Calendar.Poyadays), ShouldBeBetweenOrEqual, 12, 13)
			for i, p := range a.Calendar.Poyadays {
				So(p.Year(), ShouldEqual, 2026)
				if i > 0 {
					gap := p.Sub(a.Calendar.Poyadays[i-1]).Hours() / 24
					So(gap, ShouldBeBetweenOrEqual, 29, 30)
				}
			}
			var vesak *model.FestivalPeriod
			for i := range a.Calendar.Festivals {
				if a.Calendar.Festivals[i].Name == "Vesak" {
					vesak = &a.Calendar.Festivals[i]
				}
			}
			So(vesak, ShouldNotBeNil)
			So(vesak.Start.Month(), ShouldEqual, time.May)
		})

		Convey("Then it survives a write and load", func() {
			var buf bytes.Buffer
			So(fixture.Write(&buf, a), ShouldBeNil)

			path := filepath.Join(t.TempDir(), "world.yaml")
			So(os.WriteFile(path, buf.Bytes(), 0o600), ShouldBeNil)

			loaded, err := fixture.Load(path)
			So(err, ShouldBeNil)
			So(loaded.Events, ShouldHaveLength, 40)
			So(loaded.Events[3].ID, ShouldEqual, a.Events[3].ID)
			So(loaded.Events[3].StartDate.Equal(a.Events[3].StartDate), ShouldBeTrue)
			So(loaded.Users[0].Sensitivity, ShouldEqual, a.Users[0].Sensitivity)
			So(loaded.Users[0].TimeSlots.Slots, ShouldResemble, a.Users[0].TimeSlots.Slots)
		})
	})

	Convey("Given a cancelled context", t, func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := fixture.Generate(cctx, fixture.WithEvents(10))
		So(errors.Is(err, context.Canceled), ShouldBeTrue)
	})

	Convey("Given a missing file", t, func() {
		_, err := fixture.Load(filepath.Join(t.TempDir(), "missing.yaml"))
		So(errors.Is(err, fixture.ErrFixture), ShouldBeTrue)
	})
}
