package analysis

import (
	"sort"

	"github.com/whoknowsbruh3425/BDA/pkg/extract"
	"github.com/whoknowsbruh3425/BDA/pkg/record"
	"github.com/whoknowsbruh3425/BDA/pkg/report"
	"github.com/whoknowsbruh3425/BDA/pkg/stats"
)

const MonetizationName = "monetization"

// Spending tiers; the first interval catches exactly zero spend
var (
	spendEdges  = []float64{-0.01, 0, 10, 50, 200, inf}
	spendLabels = []string{"F2P", "Light ($1-10)", "Medium ($11-50)", "Heavy ($51-200)", "Whale ($200+)"}
)

func monetizationScenario() Scenario {
	return Scenario{
		Name:  MonetizationName,
		Title: "Player Monetization & Engagement",
		Fields: []extract.Field{
			extract.FloatField(record.InGamePurchases),
			extract.IntField(record.PlayerLevel),
			extract.FloatField(record.LoyaltyIndex),
			extract.FloatField(record.PlayTimeHours),
			extract.Optional(extract.FloatField(record.EngagementLevel)),
			extract.Optional(extract.StringField(record.GameGenre)),
		},
		Compute: monetization,
	}
}

func monetization(in Input, r *report.Report) {
	ds := in.Data
	spend := ds.Floats(record.InGamePurchases)
	levels := ds.Floats(record.PlayerLevel)
	loyalty := ds.Floats(record.LoyaltyIndex)
	play := ds.Floats(record.PlayTimeHours)

	paying := stats.Select(spend, above(0))
	revenue := stats.Sum(spend)

	r.AddMetric("total_revenue", "Total revenue", revenue, "$%.2f").
		AddMetric("arpu", "Average revenue per user", stats.Mean(spend), "$%.2f").
		AddMetric("paying_players", "Paying players", float64(len(paying)), "%d").
		AddMetric("paying_share", "Paying player share", stats.Share(float64(len(paying)), float64(ds.Len())), "%.1f%%").
		AddMetric("level_mean", "Average player level", stats.Mean(levels), "%.1f").
		AddMetric("loyalty_mean", "Average loyalty index", stats.Mean(loyalty), "%.2f").
		AddMetric("playtime_spend_correlation", "Play time vs spend correlation", stats.Correlation(play, spend), "%.3f").
		AddMetric("loyalty_spend_correlation", "Loyalty vs spend correlation", stats.Correlation(loyalty, spend), "%.3f").
		AddMetric("level_spend_correlation", "Level vs spend correlation", stats.Correlation(levels, spend), "%.3f")
	if len(paying) > 0 {
		r.AddMetric("avg_paying_spend", "Average spend per paying player", stats.Mean(paying), "$%.2f")
	}

	if engagement, engSpend := presentPairs(ds, record.EngagementLevel, record.InGamePurchases); len(engagement) > 0 {
		r.AddMetric("engagement_mean", "Average engagement level", stats.Mean(engagement), "%.2f").
			AddMetric("engagement_spend_correlation", "Engagement vs spend correlation", stats.Correlation(engagement, engSpend), "%.3f")
	} else {
		r.Notes = append(r.Notes, "EngagementLevel not recorded; engagement metrics skipped")
	}

	r.AddTable(binTable("spending_tiers", "Spending tiers",
		stats.Histogram(spend, spendEdges, spendLabels), ds.Len()))

	if t, ok := genreRevenueTable(ds, spend, revenue); ok {
		r.AddTable(t)
	} else {
		r.Notes = append(r.Notes, "GameGenre not recorded; revenue by genre skipped")
	}
}

// genreRevenueTable sums spend per genre, highest revenue first
func genreRevenueTable(ds *extract.Dataset, spend []float64, revenue float64) (report.Table, bool) {
	var genres []string
	var idx []int
	for i, v := range ds.Values(record.GameGenre) {
		if !v.Absent() {
			genres = append(genres, v.Str)
			idx = append(idx, i)
		}
	}
	if len(genres) == 0 {
		return report.Table{}, false
	}

	groups := stats.GroupBy(genres, pick(spend, idx))
	sort.SliceStable(groups, func(i, j int) bool {
		return stats.Sum(groups[i].Values) > stats.Sum(groups[j].Values)
	})

	t := report.Table{
		Key:     "genre_revenue",
		Title:   "Revenue by genre",
		Columns: []string{"revenue", "revenue %", colPlayers, "arpu"},
	}
	for _, g := range groups {
		sum := stats.Sum(g.Values)
		t.Rows = append(t.Rows, report.Row{
			Label:  g.Key,
			Values: []float64{sum, stats.Share(sum, revenue), float64(len(g.Values)), stats.Mean(g.Values)},
		})
	}
	return t, true
}
