package analysis

import (
	"context"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whoknowsbruh3425/BDA/pkg/logger"
	"github.com/whoknowsbruh3425/BDA/pkg/record"
	"github.com/whoknowsbruh3425/BDA/pkg/report"
)

var (
	fixtureAges   = []int{12, 16, 19, 22, 27, 30, 33, 40, 45, 55, 60, 70}
	fixturePlay   = []float64{2, 4, 6, 8, 12, 16, 20, 24, 30, 40, 50, 60}
	fixtureSpend  = []float64{0, 0, 0, 5, 5, 20, 20, 100, 300, 0, 0, 0}
	fixtureGenres = []string{"Action", "RPG", "Strategy"}
	fixtureLocs   = []string{"USA", "Europe", "Asia"}
)

func fixturePlayer(i int) record.Player {
	gender := "Male"
	if i%2 == 1 {
		gender = "Female"
	}
	return record.Player{
		record.PlayerID:                  9000 + i,
		record.Age:                       fixtureAges[i],
		record.Gender:                    gender,
		record.Location:                  fixtureLocs[i%3],
		record.GameGenre:                 fixtureGenres[i%3],
		record.GameDifficulty:            "Medium",
		record.PlayTimeHours:             fixturePlay[i],
		record.SessionsPerWeek:           i%10 + 1,
		record.AvgSessionDurationMinutes: float64(30 + i),
		record.PlayerLevel:               i * 3,
		record.AchievementsUnlocked:      i * 5,
		record.InGamePurchases:           fixtureSpend[i],
		record.EngagementLevel:           float64(i % 10),
		record.LoyaltyIndex:              0.5,
		record.SocialInteractionScore:    float64(i % 10),
		record.TeamPlayerScore:           float64(i * 2),
		record.ToxicityLevel:             float64(i % 10),
		record.RageQuitFrequency:         float64(i % 8),
		record.SleepDeprivationRisk:      float64(i%10) + 0.5,
		record.PlayerType:                "Competitive",
	}
}

func fixture() []record.Player {
	out := make([]record.Player, len(fixtureAges))
	for i := range out {
		out[i] = fixturePlayer(i)
	}
	return out
}

func newTestEngine(records []record.Player) *Engine {
	e := NewEngine(Snapshot{Records: records, Source: "test"}, DefaultOptions(), logger.NewNop())
	e.now = func() time.Time { return time.Date(2024, 3, 9, 14, 5, 0, 0, time.FixedZone("X", 3600)) }
	return e
}

func metricValue(t *testing.T, r *report.Report, key string) float64 {
	t.Helper()
	m, ok := r.Metric(key)
	require.True(t, ok, "metric %s missing", key)
	return m.Value
}

func tableColumn(t *testing.T, r *report.Report, table, label, column string) float64 {
	t.Helper()
	tbl, ok := r.Table(table)
	require.True(t, ok, "table %s missing", table)
	row, ok := tbl.Row(label)
	require.True(t, ok, "row %s missing from %s", label, table)
	v, ok := tbl.Column(row, column)
	require.True(t, ok, "column %s missing from %s", column, table)
	return v
}

func TestClean(t *testing.T) {
	records := []record.Player{
		{record.Age: 10, record.PlayTimeHours: 0},
		{record.Age: 80, record.PlayTimeHours: 100},
		{record.Age: 9, record.PlayTimeHours: 5},
		{record.Age: 81, record.PlayTimeHours: 5},
		{record.Age: 30, record.PlayTimeHours: -1},
		{record.Age: 30, record.PlayTimeHours: 100.5},
		{record.PlayTimeHours: 5},
		{record.Age: "34", record.PlayTimeHours: "12.5"},
	}

	kept := Clean(records)
	require.Len(t, kept, 3)
	assert.Equal(t, 10, kept[0][record.Age])
	assert.Equal(t, 80, kept[1][record.Age])
	assert.Equal(t, "34", kept[2][record.Age])
}

func TestNamesAndCatalog(t *testing.T) {
	e := newTestEngine(fixture())

	assert.Equal(t, []string{"demographics", "behavior", "monetization", "social", "segmentation"}, e.Names())

	catalog := e.Catalog()
	require.Len(t, catalog, 6)
	assert.Equal(t, OverviewName, catalog[5].Name)
	assert.Empty(t, catalog[5].Fields)
	assert.Contains(t, catalog[0].Fields, record.Age)
}

func TestRunErrors(t *testing.T) {
	e := newTestEngine(fixture())

	_, err := e.Run(context.Background(), "toxicity")
	assert.ErrorIs(t, err, ErrUnknownScenario)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.Run(ctx, DemographicsName)
	assert.ErrorIs(t, err, context.Canceled)

	small := newTestEngine(fixture()[:9])
	for _, name := range append(small.Names(), OverviewName) {
		_, err := small.Run(context.Background(), name)
		assert.ErrorIs(t, err, ErrInsufficientData, name)
	}
}

func TestRunStampsReport(t *testing.T) {
	e := newTestEngine(fixture())

	r, err := e.Run(context.Background(), DemographicsName)
	require.NoError(t, err)
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, DemographicsName, r.Scenario)
	assert.Equal(t, time.UTC, r.GeneratedAt.Location())
	assert.Equal(t, 13, r.GeneratedAt.Hour())
	assert.Equal(t, 12, r.Records)
	assert.Zero(t, r.Dropped)

	again, err := e.Run(context.Background(), DemographicsName)
	require.NoError(t, err)
	assert.NotEqual(t, r.ID, again.ID)
}

func TestCleaningAppliesBeforeGate(t *testing.T) {
	records := fixture()
	records[0][record.Age] = 7
	records[1][record.PlayTimeHours] = 140

	e := newTestEngine(records)
	assert.Equal(t, 2, e.Excluded())
	assert.Equal(t, 10, e.Records())

	r, err := e.Run(context.Background(), OverviewName)
	require.NoError(t, err)
	assert.Equal(t, 10.0, metricValue(t, r, "total_players"))
	assert.Contains(t, r.Notes[len(r.Notes)-1], "2 records")

	opts := DefaultOptions()
	opts.CleanRanges = false
	raw := NewEngine(Snapshot{Records: records}, opts, logger.NewNop())
	assert.Zero(t, raw.Excluded())
	assert.Equal(t, 12, raw.Records())
}

func TestDroppedAndDefaultedCounts(t *testing.T) {
	records := fixture()
	delete(records[0], record.SessionsPerWeek)
	records[1][record.PlayTimeHours] = "n/a"

	opts := DefaultOptions()
	opts.CleanRanges = false
	e := NewEngine(Snapshot{Records: records}, opts, logger.NewNop())

	r, err := e.Run(context.Background(), DemographicsName)
	require.NoError(t, err)
	assert.Equal(t, 11, r.Records)
	assert.Equal(t, 1, r.Dropped)
	assert.Equal(t, 1, r.Defaulted[record.PlayTimeHours])
}

func TestQuadrantTablePartitionsPopulation(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("quadrant rows cover every analysed record once", prop.ForAll(
		func(plays, spends []float64) bool {
			n := len(plays)
			if len(spends) < n {
				n = len(spends)
			}
			records := make([]record.Player, n)
			for i := 0; i < n; i++ {
				records[i] = record.Player{
					record.PlayTimeHours:   plays[i],
					record.InGamePurchases: spends[i],
					record.SessionsPerWeek: 3,
					record.PlayerLevel:     10,
				}
			}

			e := NewEngine(Snapshot{Records: records}, Options{MinRecords: 1}, logger.NewNop())
			r, err := e.Run(context.Background(), SegmentationName)
			if n == 0 {
				return err != nil
			}
			if err != nil {
				return false
			}

			tbl, ok := r.Table("quadrants")
			if !ok {
				return false
			}
			total := 0.0
			for _, row := range tbl.Rows {
				total += row.Values[0]
			}
			return int(total) == r.Records
		},
		gen.SliceOf(gen.Float64Range(0, 100)),
		gen.SliceOf(gen.Float64Range(0, 500)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
