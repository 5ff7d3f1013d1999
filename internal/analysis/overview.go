package analysis

import (
	"fmt"

	"github.com/whoknowsbruh3425/BDA/pkg/extract"
	"github.com/whoknowsbruh3425/BDA/pkg/record"
	"github.com/whoknowsbruh3425/BDA/pkg/report"
	"github.com/whoknowsbruh3425/BDA/pkg/stats"
)

// OverviewName selects the dataset summary instead of an analysis scenario
const OverviewName = "overview"

const highEngagementThreshold = 7

func overviewScenario() Scenario {
	return Scenario{
		Name:    OverviewName,
		Title:   "Gaming Analytics Data Overview",
		Compute: overview,
	}
}

// overview summarises every column on its own, so a record missing one
// field still counts toward the others
func overview(in Input, r *report.Report) {
	records := in.Records
	r.AddMetric("total_players", "Total players", float64(len(records)), "%d")

	column := func(f extract.Field) []float64 {
		return extract.Extract(records, f).Floats(f.Name)
	}
	categorical := func(name string) []string {
		return extract.Extract(records, extract.StringField(name)).Strings(name)
	}
	skipped := func(name string) {
		r.Notes = append(r.Notes, fmt.Sprintf("%s not recorded by any player", name))
	}

	if ages := column(extract.IntField(record.Age)); len(ages) > 0 {
		r.AddMetric("age_min", "Youngest player", stats.Min(ages), "%d years").
			AddMetric("age_max", "Oldest player", stats.Max(ages), "%d years").
			AddMetric("age_mean", "Average age", stats.Mean(ages), "%.1f years")
	} else {
		skipped(record.Age)
	}

	if play := column(extract.FloatField(record.PlayTimeHours)); len(play) > 0 {
		r.AddMetric("playtime_min", "Lowest play time", stats.Min(play), "%.1f h").
			AddMetric("playtime_max", "Highest play time", stats.Max(play), "%.1f h").
			AddMetric("playtime_mean", "Average play time", stats.Mean(play), "%.1f h")
	} else {
		skipped(record.PlayTimeHours)
	}

	if sessions := column(extract.IntField(record.SessionsPerWeek)); len(sessions) > 0 {
		r.AddMetric("sessions_mean", "Average sessions per week", stats.Mean(sessions), "%.1f")
	}
	if duration := column(extract.FloatField(record.AvgSessionDurationMinutes)); len(duration) > 0 {
		r.AddMetric("duration_mean", "Average session length", stats.Mean(duration), "%.1f min")
	}

	if spend := column(extract.FloatField(record.InGamePurchases)); len(spend) > 0 {
		paying := stats.Select(spend, above(0))
		r.AddMetric("total_revenue", "Total revenue", stats.Sum(spend), "$%.2f").
			AddMetric("arpu", "Average revenue per user", stats.Mean(spend), "$%.2f").
			AddMetric("paying_players", "Paying players", float64(len(paying)), "%d").
			AddMetric("paying_share", "Paying player share", stats.Share(float64(len(paying)), float64(len(spend))), "%.1f%%")
		if len(paying) > 0 {
			r.AddMetric("avg_paying_spend", "Average spend per paying player", stats.Mean(paying), "$%.2f")
		}
	} else {
		skipped(record.InGamePurchases)
	}

	if toxicity := column(extract.FloatField(record.ToxicityLevel)); len(toxicity) > 0 {
		low := stats.CountIf(toxicity, below(lowToxicityThreshold))
		r.AddMetric("toxicity_mean", "Average toxicity level", stats.Mean(toxicity), "%.2f").
			AddMetric("low_toxicity", "Low toxicity players (<4)", float64(low), "%d").
			AddMetric("low_toxicity_share", "Low toxicity share", stats.Share(float64(low), float64(len(toxicity))), "%.1f%%")
	}
	if team := column(extract.FloatField(record.TeamPlayerScore)); len(team) > 0 {
		r.AddMetric("team_mean", "Average team player score", stats.Mean(team), "%.2f")
	}
	if sleep := column(extract.FloatField(record.SleepDeprivationRisk)); len(sleep) > 0 {
		high := stats.CountIf(sleep, above(highSleepThreshold))
		r.AddMetric("high_sleep_risk", "High sleep risk players (>7)", float64(high), "%d").
			AddMetric("high_sleep_risk_share", "High sleep risk share", stats.Share(float64(high), float64(len(sleep))), "%.1f%%")
	}

	if levels := column(extract.IntField(record.PlayerLevel)); len(levels) > 0 {
		r.AddMetric("level_mean", "Average player level", stats.Mean(levels), "%.1f")
	}
	if achievements := column(extract.IntField(record.AchievementsUnlocked)); len(achievements) > 0 {
		r.AddMetric("achievements_mean", "Average achievements unlocked", stats.Mean(achievements), "%.1f")
	}
	if engagement := column(extract.FloatField(record.EngagementLevel)); len(engagement) > 0 {
		high := stats.CountIf(engagement, above(highEngagementThreshold))
		r.AddMetric("high_engagement", "Highly engaged players (>7)", float64(high), "%d").
			AddMetric("high_engagement_share", "Highly engaged share", stats.Share(float64(high), float64(len(engagement))), "%.1f%%")
	}
	if loyalty := column(extract.FloatField(record.LoyaltyIndex)); len(loyalty) > 0 {
		r.AddMetric("loyalty_mean", "Average loyalty index", stats.Mean(loyalty), "%.2f")
	}

	distributions := []struct {
		key, title, field string
		n                 int
	}{
		{"gender", "Gender distribution", record.Gender, 0},
		{"top_genres", "Top genres", record.GameGenre, 5},
		{"top_locations", "Top locations", record.Location, 5},
		{"player_types", "Player types", record.PlayerType, 0},
	}
	for _, d := range distributions {
		values := categorical(d.field)
		if len(values) == 0 {
			continue
		}
		r.AddTable(countTable(d.key, d.title, stats.ValueCounts(values, d.n), len(values)))
	}
}
