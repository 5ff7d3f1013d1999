package dashboard

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/whoknowsbruh3425/BDA/internal/analysis"
	"github.com/whoknowsbruh3425/BDA/pkg/archive"
	"github.com/whoknowsbruh3425/BDA/pkg/changestream"
	"github.com/whoknowsbruh3425/BDA/pkg/logger"
	"github.com/whoknowsbruh3425/BDA/pkg/record"
	"github.com/whoknowsbruh3425/BDA/pkg/report"
)

func players(n int) []record.Player {
	genres := []string{"Action", "RPG", "Strategy", "Sports"}
	out := make([]record.Player, n)
	for i := range out {
		out[i] = record.Player{
			record.PlayerID:                  i,
			record.Age:                       15 + i*3%50,
			record.Gender:                    "Female",
			record.Location:                  "Europe",
			record.GameGenre:                 genres[i%len(genres)],
			record.PlayTimeHours:             float64(i%30) + 0.5,
			record.SessionsPerWeek:           i%12 + 1,
			record.AvgSessionDurationMinutes: 45.0,
			record.PlayerLevel:               i%60 + 1,
			record.AchievementsUnlocked:      i % 80,
			record.InGamePurchases:           float64(i%5) * 12.5,
			record.EngagementLevel:           float64(i % 10),
			record.LoyaltyIndex:              0.7,
			record.SocialInteractionScore:    float64(i % 10),
			record.TeamPlayerScore:           float64(i % 20),
			record.ToxicityLevel:             float64(i % 10),
			record.RageQuitFrequency:         float64(i % 9),
			record.SleepDeprivationRisk:      float64(i%10) + 0.2,
			record.PlayerType:                "Casual",
		}
	}
	return out
}

// fakeSource serves a fixed record set and counts cache-bypassing reloads
type fakeSource struct {
	mu        sync.Mutex
	records   []record.Player
	err       error
	loads     int
	refreshes int
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Load(ctx context.Context) ([]record.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	return f.records, f.err
}

func (f *fakeSource) Refresh(ctx context.Context) ([]record.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	return f.records, f.err
}

func (f *fakeSource) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loads, f.refreshes
}

type mockHistory struct{ mock.Mock }

func (m *mockHistory) History(ctx context.Context, scenario string, limit int) ([]archive.Entry, error) {
	args := m.Called(ctx, scenario, limit)
	return args.Get(0).([]archive.Entry), args.Error(1)
}

type mockSink struct{ mock.Mock }

func (m *mockSink) WriteBatch(ctx context.Context, reports []*report.Report) error {
	return m.Called(ctx, reports).Error(0)
}

type fakeWatcher struct {
	changes chan changestream.Change
	errs    chan error
	closed  chan struct{}
}

func newFakeWatcher() *fakeWatcher {
	return &fakeWatcher{
		changes: make(chan changestream.Change),
		errs:    make(chan error, 1),
		closed:  make(chan struct{}),
	}
}

func (w *fakeWatcher) Watch(ctx context.Context) (<-chan changestream.Change, <-chan error) {
	return w.changes, w.errs
}

func (w *fakeWatcher) Close() error {
	close(w.closed)
	return nil
}

func newTestService(src analysis.Loader) *Service {
	return NewService(logger.NewNop(), Config{
		Addr:    "127.0.0.1:0",
		Options: analysis.DefaultOptions(),
		Quiet:   20 * time.Millisecond,
	}, src)
}

func get(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNotReadyBeforeLoad(t *testing.T) {
	s := newTestService(&fakeSource{records: players(20)})
	h := s.Handler()

	assert.Equal(t, http.StatusServiceUnavailable, get(t, h, http.MethodGet, "/ready").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, h, http.MethodGet, "/api/reports/social").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, h, http.MethodGet, "/api/scenarios").Code)

	rec := get(t, h, http.MethodGet, "/api/status")
	require.Equal(t, http.StatusOK, rec.Code)
	var st status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.False(t, st.Ready)
}

func TestReportsAfterLoad(t *testing.T) {
	src := &fakeSource{records: players(40)}
	s := newTestService(src)
	_, err := s.Reload(context.Background(), false)
	require.NoError(t, err)
	h := s.Handler()

	assert.Equal(t, http.StatusOK, get(t, h, http.MethodGet, "/ready").Code)

	rec := get(t, h, http.MethodGet, "/api/scenarios")
	require.Equal(t, http.StatusOK, rec.Code)
	var catalog []analysis.Info
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &catalog))
	assert.Len(t, catalog, 6)

	rec = get(t, h, http.MethodGet, "/api/reports/monetization")
	require.Equal(t, http.StatusOK, rec.Code)
	var rep report.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	assert.Equal(t, "monetization", rep.Scenario)
	assert.Equal(t, 40, rep.Records)
	_, ok := rep.Table("spending_tiers")
	assert.True(t, ok)

	rec = get(t, h, http.MethodGet, "/api/reports/segmentation?format=text")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))
	assert.Contains(t, rec.Body.String(), "PLAYER SEGMENTATION")

	rec = get(t, h, http.MethodGet, "/api/overview")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"scenario":"overview"`)

	assert.Equal(t, http.StatusNotFound, get(t, h, http.MethodGet, "/api/reports/toxicity").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, get(t, h, http.MethodPost, "/api/reports/social").Code)

	loads, refreshes := src.counts()
	assert.Equal(t, 1, loads)
	assert.Zero(t, refreshes)
}

func TestInsufficientData(t *testing.T) {
	s := newTestService(&fakeSource{records: players(4)})
	_, err := s.Reload(context.Background(), false)
	require.NoError(t, err)

	rec := get(t, s.Handler(), http.MethodGet, "/api/reports/demographics")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "insufficient data")
}

func TestReloadEndpointRefreshes(t *testing.T) {
	src := &fakeSource{records: players(12)}
	s := newTestService(src)
	h := s.Handler()

	rec := get(t, h, http.MethodPost, "/api/reload")
	require.Equal(t, http.StatusOK, rec.Code)
	var st status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.True(t, st.Ready)
	assert.Equal(t, "fake", st.Source)
	assert.Equal(t, 12, st.Loaded)
	assert.Len(t, st.Scenarios, 5)

	_, refreshes := src.counts()
	assert.Equal(t, 1, refreshes)

	src.mu.Lock()
	src.err = errors.New("connection refused")
	src.mu.Unlock()
	rec = get(t, h, http.MethodPost, "/api/reload")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, s.Ready(), "a failed reload keeps the previous snapshot")
}

func TestHistory(t *testing.T) {
	s := newTestService(&fakeSource{records: players(12)})
	h := s.Handler()

	assert.Equal(t, http.StatusNotFound, get(t, h, http.MethodGet, "/api/history/social").Code)

	hist := new(mockHistory)
	entries := []archive.Entry{{ID: "a1", Scenario: "social", Title: "Social", Records: 12}}
	hist.On("History", mock.Anything, "social", 5).Return(entries, nil)
	s.WithHistory(hist)

	rec := get(t, h, http.MethodGet, "/api/history/social?limit=5")
	require.Equal(t, http.StatusOK, rec.Code)
	var got []archive.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "a1", got[0].ID)
	hist.AssertExpectations(t)

	assert.Equal(t, http.StatusBadRequest, get(t, h, http.MethodGet, "/api/history/social?limit=zero").Code)
}

func TestServedReportsReachSink(t *testing.T) {
	s := newTestService(&fakeSource{records: players(12)})
	sink := new(mockSink)
	sink.On("WriteBatch", mock.Anything, mock.MatchedBy(func(reports []*report.Report) bool {
		return len(reports) == 1 && reports[0].Scenario == "behavior"
	})).Return(errors.New("archive down"))
	s.WithSink(sink)

	_, err := s.Reload(context.Background(), false)
	require.NoError(t, err)

	rec := get(t, s.Handler(), http.MethodGet, "/api/reports/behavior")
	assert.Equal(t, http.StatusOK, rec.Code, "sink failures do not fail the request")
	sink.AssertExpectations(t)
}

func TestStartReloadsOnChanges(t *testing.T) {
	src := &fakeSource{records: players(12)}
	w := newFakeWatcher()
	s := newTestService(src).WithWatcher(w)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	require.Eventually(t, s.Ready, time.Second, 10*time.Millisecond)
	first := s.Engine()

	for i := 0; i < 3; i++ {
		w.changes <- changestream.Change{Operation: "insert", DocumentID: "p1"}
	}

	require.Eventually(t, func() bool {
		_, refreshes := src.counts()
		return refreshes == 1
	}, time.Second, 10*time.Millisecond, "a burst of changes triggers one reload")
	assert.NotSame(t, first, s.Engine())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("service did not stop")
	}
	<-w.closed
}

func TestStartSurvivesFailedInitialLoad(t *testing.T) {
	s := newTestService(&fakeSource{err: errors.New("no route to host")})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	assert.NoError(t, s.Start(ctx))
	assert.False(t, s.Ready())
}
