package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okian/eventrec/cmd/cli"
	"github.com/okian/eventrec/internal/fixture"
	"github.com/smartystreets/goconvey/convey"
)

// run executes the command tree with args and returns stdout.
func run(ctx context.Context, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	root := cli.NewRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return stdout.String(), err
}

// world writes a small generated fixture and returns its path.
func world(t *testing.T) (string, *fixture.Fixture) {
	path := filepath.Join(t.TempDir(), "world.yaml")
	_, err := run(context.Background(), "generate", "--users", "3", "--events", "25", "--seed", "11", "--year", "2026", "--out", path)
	convey.So(err, convey.ShouldBeNil)
	f, err := fixture.Load(path)
	convey.So(err, convey.ShouldBeNil)
	return path, f
}

func TestGenerateCommand(t *testing.T) {
	convey.Convey("Given the generate command without --out", t, func() {
		out, err := run(context.Background(), "generate", "--users", "2", "--events", "5", "--year", "2026")

		convey.Convey("Then a valid fixture is printed", func() {
			convey.So(err, convey.ShouldBeNil)
			f, err := fixture.Decode(strings.NewReader(out))
			convey.So(err, convey.ShouldBeNil)
			convey.So(f.Users, convey.ShouldHaveLength, 2)
			convey.So(f.Events, convey.ShouldHaveLength, 5)
		})
	})
}

func TestRankCommand(t *testing.T) {
	convey.Convey("Given a generated fixture", t, func() {
		path, f := world(t)
		user := f.Users[0].ID.String()

		convey.Convey("When ranking with the standard variant", func() {
			out, err := run(context.Background(), "rank", "-f", path, "--user", user)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then a JSON ranking is printed", func() {
				var ranking []map[string]interface{}
				convey.So(json.Unmarshal([]byte(out), &ranking), convey.ShouldBeNil)
				convey.So(len(ranking), convey.ShouldBeLessThanOrEqualTo, 25)
				convey.So(len(ranking), convey.ShouldBeGreaterThan, 0)
				convey.So(ranking[0], convey.ShouldContainKey, "score")
			})
		})

		convey.Convey("When ranking with the festival variant", func() {
			out, err := run(context.Background(), "rank", "-f", path, "--user", user, "--variant", "festival", "--festival", "Vesak", "--year", "2026")

			convey.Convey("Then it succeeds", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(strings.TrimSpace(out), convey.ShouldStartWith, "[")
			})
		})

		convey.Convey("When ranking with conflict resolution", func() {
			out, err := run(context.Background(), "rank", "-f", path, "--user", user, "--variant", "conflicts")

			convey.Convey("Then every event carries a resolution", func() {
				convey.So(err, convey.ShouldBeNil)
				var resolved []map[string]interface{}
				convey.So(json.Unmarshal([]byte(out), &resolved), convey.ShouldBeNil)
				for _, r := range resolved {
					convey.So(r["resolution"], convey.ShouldNotBeEmpty)
				}
			})
		})

		convey.Convey("When the variant is unknown", func() {
			_, err := run(context.Background(), "rank", "-f", path, "--user", user, "--variant", "bogus")
			convey.So(errors.Is(err, cli.ErrUnknownVariant), convey.ShouldBeTrue)
		})

		convey.Convey("When the user is not a UUID", func() {
			_, err := run(context.Background(), "rank", "-f", path, "--user", "nobody")
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("When ranking by date without --date", func() {
			out, err := run(context.Background(), "rank", "-f", path, "--user", user, "--variant", "date")

			convey.Convey("Then today is used and a ranking is printed", func() {
				convey.So(err, convey.ShouldBeNil)
				var ranking []map[string]interface{}
				convey.So(json.Unmarshal([]byte(out), &ranking), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the date is malformed", func() {
			_, err := run(context.Background(), "rank", "-f", path, "--user", user, "--variant", "date", "--date", "May 1")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})

	convey.Convey("Given a missing fixture", t, func() {
		_, err := run(context.Background(), "rank", "-f", filepath.Join(t.TempDir(), "none.yaml"), "--user", "6f1c1a52-5d0e-4b8e-9a43-4a1f3c2d9e10")
		convey.So(errors.Is(err, fixture.ErrFixture), convey.ShouldBeTrue)
	})
}

func TestInteractCommand(t *testing.T) {
	convey.Convey("Given a generated fixture", t, func() {
		path, f := world(t)
		u := f.Users[0]
		ev := f.Events[0]

		convey.Convey("When an attendance is forwarded", func() {
			out, err := run(context.Background(), "interact", "-f", path,
				"--user", u.ID.String(), "--event", ev.ID.String(), "--type", "Attend", "--id", "1b4e28ba-2fa1-11d2-883f-0016d3cca427")
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the learned preferences include it", func() {
				var learned struct {
					Weights    map[string]float64 `json:"weights"`
					SampleSize int                `json:"sample_size"`
				}
				convey.So(json.Unmarshal([]byte(out), &learned), convey.ShouldBeNil)
				convey.So(learned.SampleSize, convey.ShouldEqual, u.Learned.SampleSize+1)
				convey.So(learned.Weights, convey.ShouldContainKey, strings.TrimSpace(ev.Category))
			})
		})

		convey.Convey("When the event is not in the fixture", func() {
			_, err := run(context.Background(), "interact", "-f", path,
				"--user", u.ID.String(), "--event", "1b4e28ba-2fa1-11d2-883f-0016d3cca427")
			convey.So(errors.Is(err, cli.ErrUnknownEvent), convey.ShouldBeTrue)
		})

		convey.Convey("When the interaction type is unknown", func() {
			_, err := run(context.Background(), "interact", "-f", path,
				"--user", u.ID.String(), "--event", ev.ID.String(), "--type", "Wave")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestServeOpsCommand(t *testing.T) {
	convey.Convey("Given serve-ops on an ephemeral port", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()

		_, err := run(ctx, "serve-ops", "--addr", "127.0.0.1:0")

		convey.Convey("Then it stops cleanly when the context ends", func() {
			convey.So(err, convey.ShouldBeNil)
		})
	})
}
