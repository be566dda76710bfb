package ops_test

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/eventrec/internal/adapters/http/ops"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeCheck struct {
	name, state string
}

func (f fakeCheck) Name() string  { return f.name }
func (f fakeCheck) State() string { return f.state }

type fakeStats map[string]interface{}

func (f fakeStats) GetStats() map[string]interface{} {
	out := make(map[string]interface{}, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	Convey("Given every breaker is closed", t, func() {
		s := ops.New(
			ops.WithCheck(fakeCheck{"calendar", "closed"}),
			ops.WithCheck(fakeCheck{"geography", "closed"}),
		)

		rec := get(s.Handler(), "/healthz")

		Convey("Then the service reports ok", func() {
			So(rec.Code, ShouldEqual, http.StatusOK)
			var h ops.Health
			So(json.Unmarshal(rec.Body.Bytes(), &h), ShouldBeNil)
			So(h.Status, ShouldEqual, "ok")
			So(h.Breakers, ShouldResemble, map[string]string{"calendar": "closed", "geography": "closed"})
		})
	})

	Convey("Given one breaker is open", t, func() {
		s := ops.New(
			ops.WithCheck(fakeCheck{"calendar", "closed"}),
			ops.WithCheck(fakeCheck{"preferences", "open"}),
		)

		rec := get(s.Handler(), "/healthz")

		Convey("Then the service reports degraded", func() {
			So(rec.Code, ShouldEqual, http.StatusServiceUnavailable)
			So(s.Health().Status, ShouldEqual, "degraded")
			So(s.Health().Breakers["preferences"], ShouldEqual, "open")
		})
	})

	Convey("Given no checks", t, func() {
		s := ops.New()
		So(s.Health(), ShouldResemble, ops.Health{Status: "ok"})
	})

	Convey("Given a POST to /healthz", t, func() {
		rec := httptest.NewRecorder()
		ops.New().Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/healthz", nil))
		So(rec.Code, ShouldEqual, http.StatusNotFound)
	})
}

func TestStats(t *testing.T) {
	Convey("Given a stats provider", t, func() {
		s := ops.New(
			ops.WithStats(fakeStats{"concurrency": 4}),
			ops.WithCheck(fakeCheck{"geography", "closed"}),
			ops.WithCheck(fakeCheck{"calendar", "closed"}),
		)

		rec := get(s.Handler(), "/stats")

		Convey("Then its stats are served with the collaborators", func() {
			So(rec.Code, ShouldEqual, http.StatusOK)
			var body map[string]interface{}
			So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
			So(body["concurrency"], ShouldEqual, 4.0)
			So(body["collaborators"], ShouldResemble, []interface{}{"calendar", "geography"})
			So(body, ShouldContainKey, "goroutines")
		})
	})
}

func TestMetrics(t *testing.T) {
	Convey("Given a request was served", t, func() {
		h := ops.New().Handler()
		get(h, "/healthz")

		rec := get(h, "/metrics")

		Convey("Then it is exported", func() {
			So(rec.Code, ShouldEqual, http.StatusOK)
			body, _ := io.ReadAll(rec.Body)
			So(string(body), ShouldContainSubstring, "eventrec_engine_http_requests_total")
		})
	})
}

func TestServe(t *testing.T) {
	Convey("Given a running ops server", t, func() {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		So(err, ShouldBeNil)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			done <- ops.New(ops.WithSystemMetricsInterval(10*time.Millisecond)).Serve(ctx, ln)
		}()
		Reset(cancel)

		Convey("When it is probed and then cancelled", func() {
			var resp *http.Response
			for i := 0; i < 50; i++ {
				resp, err = http.Get("http://" + ln.Addr().String() + "/healthz")
				if err == nil {
					break
				}
				time.Sleep(10 * time.Millisecond)
			}
			So(err, ShouldBeNil)
			_ = resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusOK)

			cancel()

			Convey("Then it shuts down cleanly", func() {
				select {
				case err := <-done:
					So(err, ShouldBeNil)
				case <-time.After(5 * time.Second):
					So("timeout", ShouldBeEmpty)
				}
			})
		})
	})

	Convey("Given an address that cannot be bound", t, func() {
		err := ops.New().Run(context.Background(), "127.0.0.1:-1")
		So(err, ShouldNotBeNil)
	})
}
