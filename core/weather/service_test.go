package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/sortie/core/metrics"
	"github.com/kilianp07/sortie/core/model"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type weatherRecorder struct {
	mu     sync.Mutex
	events []metrics.WeatherEvent
}

func (r *weatherRecorder) RecordWeather(ev metrics.WeatherEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func newMETARServer(t *testing.T, body string, status int) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Equal(t, "VOBG", r.URL.Query().Get("ids"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "sortie-test", r.Header.Get("User-Agent"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func testFetcher(url string) *AviationWeather {
	return &AviationWeather{BaseURL: url, UserAgent: "sortie-test", Client: &http.Client{Timeout: time.Second}}
}

func TestServiceLiveThenCachedThenStale(t *testing.T) {
	srv, hits := newMETARServer(t, `[{"rawOb":"VOBG 010800Z 27008KT 9999 BKN030 25/14 Q1013"}]`, http.StatusOK)
	clock := &fakeClock{t: time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC)}
	rec := &weatherRecorder{}
	svc := NewService(testFetcher(srv.URL), WithClock(clock.Now), WithRecorder(rec))
	ctx := context.Background()

	r := svc.Fetch(ctx, "vobg")
	assert.Equal(t, model.ConfidenceLive, r.Confidence)
	assert.Equal(t, "VOBG", r.ICAO)
	require.NotNil(t, r.CeilingFt)
	assert.Equal(t, 3000, *r.CeilingFt)

	clock.Advance(29 * time.Minute)
	r = svc.Fetch(ctx, "VOBG")
	assert.Equal(t, model.ConfidenceCached, r.Confidence)
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))

	clock.Advance(2 * time.Minute)
	r = svc.Fetch(ctx, "VOBG")
	assert.Equal(t, model.ConfidenceLive, r.Confidence)
	assert.Equal(t, int32(2), atomic.LoadInt32(hits))

	require.Len(t, rec.events, 3)
	assert.Equal(t, model.ConfidenceCached, rec.events[1].Confidence)
}

func TestServiceFallsBackOnFailure(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		status int
	}{
		{"server error", `oops`, http.StatusInternalServerError},
		{"empty list", `[]`, http.StatusOK},
		{"bad json", `{`, http.StatusOK},
		{"empty observation", `[{"rawOb":""}]`, http.StatusOK},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			srv, hits := newMETARServer(t, c.body, c.status)
			svc := NewService(testFetcher(srv.URL))
			r := svc.Fetch(context.Background(), "VOBG")
			assert.Equal(t, model.ConfidenceUnknown, r.Confidence)
			assert.Nil(t, r.CeilingFt)
			assert.Nil(t, r.VisibilitySM)
			assert.Nil(t, r.WindKt)
			assert.Nil(t, r.CrosswindKt)
			assert.Equal(t, UnavailableRaw, r.Raw)

			// Failures are not cached.
			svc.Fetch(context.Background(), "VOBG")
			assert.Equal(t, int32(2), atomic.LoadInt32(hits))
		})
	}
}

func TestServiceTimeoutFallsBack(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})
	f := &AviationWeather{BaseURL: srv.URL, Client: &http.Client{Timeout: 50 * time.Millisecond}}
	r := NewService(f).Fetch(context.Background(), "VOBG")
	assert.Equal(t, model.ConfidenceUnknown, r.Confidence)
}

func TestConfigDefaultsAndValidate(t *testing.T) {
	var c Config
	c.SetDefaults()
	assert.Equal(t, SourceMock, c.Source)
	assert.Equal(t, ScenarioGood, c.Scenario)
	assert.Equal(t, DefaultBaseURL, c.BaseURL)
	assert.Equal(t, 5, c.TimeoutSeconds)
	assert.Equal(t, 30, c.CacheTTLMinutes)
	assert.NoError(t, c.Validate())

	c.Scenario = "storm"
	assert.ErrorIs(t, c.Validate(), ErrUnknownScenario)

	c = Config{Source: "radio"}
	c.SetDefaults()
	assert.Error(t, c.Validate())
}
