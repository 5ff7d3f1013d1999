package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whoknowsbruh3425/BDA/pkg/record"
	"github.com/whoknowsbruh3425/BDA/pkg/report"
	"github.com/whoknowsbruh3425/BDA/pkg/segment"
)

func runScenario(t *testing.T, records []record.Player, name string) *report.Report {
	t.Helper()
	r, err := newTestEngine(records).Run(context.Background(), name)
	require.NoError(t, err)
	return r
}

func without(records []record.Player, fields ...string) []record.Player {
	for _, rec := range records {
		for _, f := range fields {
			delete(rec, f)
		}
	}
	return records
}

func TestDemographics(t *testing.T) {
	r := runScenario(t, fixture(), DemographicsName)

	assert.Equal(t, 12.0, metricValue(t, r, "age_min"))
	assert.Equal(t, 70.0, metricValue(t, r, "age_max"))
	assert.Greater(t, metricValue(t, r, "age_playtime_slope"), 0.0)
	assert.Greater(t, metricValue(t, r, "age_playtime_correlation"), 0.9)

	groups := map[string]float64{"<18": 2, "18-25": 2, "26-35": 3, "36-50": 2, "50+": 3}
	for label, n := range groups {
		assert.Equal(t, n, tableColumn(t, r, "age_groups", label, colPlayers), label)
	}
	assert.Equal(t, 1.5, tableColumn(t, r, "sessions_by_age", "<18", "avg sessions"))

	locations, ok := r.Table("locations")
	require.True(t, ok)
	assert.Equal(t, "USA", locations.Rows[0].Label)
	assert.InDelta(t, 33.33, tableColumn(t, r, "locations", "Asia", colShare), 0.01)
}

func TestDemographicsWithoutLocation(t *testing.T) {
	r := runScenario(t, without(fixture(), record.Location), DemographicsName)

	assert.Equal(t, 12, r.Records)
	_, ok := r.Table("locations")
	assert.False(t, ok)
	assert.Contains(t, r.Notes, "Location not recorded; location breakdown skipped")
}

func TestBehavior(t *testing.T) {
	r := runScenario(t, fixture(), BehaviorName)

	tiers := map[string]float64{
		"Casual (<=5h)":      2,
		"Moderate (5-15h)":   3,
		"Committed (15-25h)": 3,
		"Hardcore (>25h)":    4,
	}
	for label, n := range tiers {
		assert.Equal(t, n, tableColumn(t, r, "intensity", label, colPlayers), label)
	}

	assert.Equal(t, 1.0, metricValue(t, r, "high_achievers"))
	assert.Equal(t, 3.0, metricValue(t, r, "genre_count"))
	assert.InDelta(t, 1.0, metricValue(t, r, "level_achievement_correlation"), 1e-9)
	assert.Equal(t, 4.0, tableColumn(t, r, "genres", "RPG", colPlayers))
	assert.Equal(t, 17.5, tableColumn(t, r, "genre_playtime", "Action", "avg hours"))
	assert.Contains(t, r.Notes, "Most popular genre: Action (4 players)")

	_, ok := r.Metric("sessions_mean")
	assert.True(t, ok)
}

func TestMonetization(t *testing.T) {
	r := runScenario(t, fixture(), MonetizationName)

	assert.Equal(t, 450.0, metricValue(t, r, "total_revenue"))
	assert.Equal(t, 37.5, metricValue(t, r, "arpu"))
	assert.Equal(t, 6.0, metricValue(t, r, "paying_players"))
	assert.Equal(t, 50.0, metricValue(t, r, "paying_share"))
	assert.Equal(t, 75.0, metricValue(t, r, "avg_paying_spend"))

	tiers := map[string]float64{
		"F2P":             6,
		"Light ($1-10)":   2,
		"Medium ($11-50)": 2,
		"Heavy ($51-200)": 1,
		"Whale ($200+)":   1,
	}
	for label, n := range tiers {
		assert.Equal(t, n, tableColumn(t, r, "spending_tiers", label, colPlayers), label)
	}

	revenue, ok := r.Table("genre_revenue")
	require.True(t, ok)
	require.Len(t, revenue.Rows, 3)
	assert.Equal(t, "Strategy", revenue.Rows[0].Label)
	assert.Equal(t, "RPG", revenue.Rows[1].Label)
	assert.Equal(t, "Action", revenue.Rows[2].Label)
	assert.Equal(t, 320.0, revenue.Rows[0].Values[0])
}

func TestMonetizationOptionalColumns(t *testing.T) {
	r := runScenario(t, without(fixture(), record.EngagementLevel, record.GameGenre), MonetizationName)

	assert.Equal(t, 12, r.Records)
	_, ok := r.Metric("engagement_spend_correlation")
	assert.False(t, ok)
	_, ok = r.Table("genre_revenue")
	assert.False(t, ok)
	assert.Len(t, r.Notes, 2)
}

func TestSocial(t *testing.T) {
	r := runScenario(t, fixture(), SocialName)

	assert.Equal(t, 2.0, metricValue(t, r, "high_social"))
	assert.Equal(t, 4.0, metricValue(t, r, "strong_team"))
	assert.Equal(t, 6.0, metricValue(t, r, "low_toxicity"))
	assert.Equal(t, 50.0, metricValue(t, r, "low_toxicity_share"))
	assert.Equal(t, 3.0, metricValue(t, r, "high_sleep_risk"))

	zones := map[string]float64{"Low (<=3)": 6, "Moderate (3-6)": 3, "High (6-8)": 2, "Critical (>8)": 1}
	for label, n := range zones {
		assert.Equal(t, n, tableColumn(t, r, "toxicity_zones", label, colPlayers), label)
	}

	sleep := map[string]float64{"Low Risk": 5, "Moderate Risk": 2, "High Risk": 2, "Critical Risk": 3}
	for label, n := range sleep {
		assert.Equal(t, n, tableColumn(t, r, "sleep_risk", label, colPlayers), label)
	}
	assert.Empty(t, r.Notes)
}

func TestSocialWithoutToxicity(t *testing.T) {
	r := runScenario(t, without(fixture(), record.ToxicityLevel), SocialName)

	assert.Equal(t, 12, r.Records)
	assert.Zero(t, r.Dropped)
	_, ok := r.Table("toxicity_zones")
	assert.False(t, ok)
	_, ok = r.Metric("toxicity_mean")
	assert.False(t, ok)
	assert.Contains(t, r.Notes, "ToxicityLevel not recorded; toxicity section skipped")

	_, ok = r.Metric("rage_quit_mean")
	assert.True(t, ok)
}

func TestSegmentation(t *testing.T) {
	r := runScenario(t, fixture(), SegmentationName)

	assert.Equal(t, 18.0, metricValue(t, r, "playtime_median"))
	assert.Equal(t, 2.5, metricValue(t, r, "spend_median"))
	for _, l := range segment.QuadrantLabels {
		assert.Equal(t, 3.0, tableColumn(t, r, "quadrants", string(l), colPlayers), l)
	}
	assert.Equal(t, 140.0, tableColumn(t, r, "quadrants", string(segment.HeavySpenders), "avg spend"))

	archetypes := map[segment.Label]float64{
		segment.Whale:         1,
		segment.HighSpender:   1,
		segment.HardcoreF2P:   3,
		segment.EngagedPlayer: 0,
		segment.RegularPlayer: 3,
		segment.CasualPlayer:  4,
	}
	for label, n := range archetypes {
		assert.Equal(t, n, tableColumn(t, r, "archetypes", string(label), colPlayers), label)
	}
	assert.Equal(t, 300.0, tableColumn(t, r, "archetypes", string(segment.Whale), "revenue"))
	assert.InDelta(t, 66.67, tableColumn(t, r, "archetypes", string(segment.Whale), "revenue %"), 0.01)
	assert.Equal(t, 0.5, tableColumn(t, r, "archetypes", string(segment.CasualPlayer), "avg loyalty"))
	assert.Empty(t, r.Notes)
}

func TestSegmentationMissingEngagement(t *testing.T) {
	records := fixture()
	delete(records[7], record.EngagementLevel)

	r := runScenario(t, records, SegmentationName)

	assert.Equal(t, 12, r.Records)
	assert.Zero(t, tableColumn(t, r, "archetypes", string(segment.HighSpender), colPlayers))
	assert.Contains(t, r.Notes, "EngagementLevel missing for 1 records; treated as 0 when assigning archetypes")
}

func TestOverview(t *testing.T) {
	records := fixture()
	delete(records[8], record.InGamePurchases)

	r := runScenario(t, records, OverviewName)

	assert.Equal(t, 12.0, metricValue(t, r, "total_players"))
	assert.Equal(t, 12.0, metricValue(t, r, "age_min"))
	assert.Equal(t, 150.0, metricValue(t, r, "total_revenue"))
	assert.Equal(t, 5.0, metricValue(t, r, "paying_players"))
	assert.Equal(t, 6.0, tableColumn(t, r, "gender", "Female", colPlayers))
	assert.Equal(t, 12.0, tableColumn(t, r, "player_types", "Competitive", colPlayers))

	genres, ok := r.Table("top_genres")
	require.True(t, ok)
	assert.Len(t, genres.Rows, 3)
	assert.Empty(t, r.Notes)
}
