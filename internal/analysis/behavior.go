package analysis

import (
	"fmt"

	"github.com/whoknowsbruh3425/BDA/pkg/extract"
	"github.com/whoknowsbruh3425/BDA/pkg/record"
	"github.com/whoknowsbruh3425/BDA/pkg/report"
	"github.com/whoknowsbruh3425/BDA/pkg/stats"
)

const BehaviorName = "behavior"

// Weekly play-time intensity tiers
var (
	intensityEdges  = []float64{negInf, 5, 15, 25, inf}
	intensityLabels = []string{"Casual (<=5h)", "Moderate (5-15h)", "Committed (15-25h)", "Hardcore (>25h)"}
)

const highAchieverThreshold = 50

func behaviorScenario() Scenario {
	return Scenario{
		Name:  BehaviorName,
		Title: "Gaming Behavior & Preferences",
		Fields: []extract.Field{
			extract.StringField(record.GameGenre),
			extract.IntField(record.PlayerLevel),
			extract.IntField(record.AchievementsUnlocked),
			extract.FloatField(record.PlayTimeHours),
			extract.Optional(extract.IntField(record.SessionsPerWeek)),
			extract.Optional(extract.FloatField(record.AvgSessionDurationMinutes)),
		},
		Compute: behavior,
	}
}

func behavior(in Input, r *report.Report) {
	ds := in.Data
	genres := ds.Strings(record.GameGenre)
	levels := ds.Floats(record.PlayerLevel)
	achievements := ds.Floats(record.AchievementsUnlocked)
	play := ds.Floats(record.PlayTimeHours)

	genreCounts := stats.ValueCounts(genres, 0)
	highAchievers := stats.CountIf(achievements, above(highAchieverThreshold))

	r.AddMetric("playtime_mean", "Average play time", stats.Mean(play), "%.1f h").
		AddMetric("playtime_median", "Median play time", stats.Median(play), "%.1f h").
		AddMetric("level_mean", "Average player level", stats.Mean(levels), "%.1f").
		AddMetric("achievements_mean", "Average achievements unlocked", stats.Mean(achievements), "%.1f").
		AddMetric("high_achievers", "High achievers (>50 achievements)", float64(highAchievers), "%d").
		AddMetric("high_achievers_share", "High achiever share", stats.Share(float64(highAchievers), float64(ds.Len())), "%.1f%%").
		AddMetric("level_achievement_correlation", "Level vs achievements correlation", stats.Correlation(levels, achievements), "%.3f").
		AddMetric("genre_count", "Distinct genres", float64(len(genreCounts)), "%d")

	if sessions := ds.Present(record.SessionsPerWeek); len(sessions) > 0 {
		r.AddMetric("sessions_mean", "Average sessions per week", stats.Mean(sessions), "%.1f")
	}
	if duration := ds.Present(record.AvgSessionDurationMinutes); len(duration) > 0 {
		r.AddMetric("duration_mean", "Average session length", stats.Mean(duration), "%.1f min")
	}

	r.AddTable(binTable("intensity", "Weekly play-time intensity",
		stats.Histogram(play, intensityEdges, intensityLabels), ds.Len()))
	r.AddTable(countTable("genres", "Genre preferences", genreCounts, ds.Len()))
	r.AddTable(genrePlayTimeTable(genres, play, genreCounts, 8))

	if len(genreCounts) > 0 {
		top := genreCounts[0]
		r.Notes = append(r.Notes, fmt.Sprintf("Most popular genre: %s (%d players)", top.Value, top.N))
	}
}

// genrePlayTimeTable reports average play time for the n most played genres
func genrePlayTimeTable(genres []string, play []float64, counts []stats.Count, n int) report.Table {
	means := make(map[string]float64)
	for _, g := range stats.GroupBy(genres, play) {
		means[g.Key] = stats.Mean(g.Values)
	}
	if len(counts) > n {
		counts = counts[:n]
	}

	t := report.Table{
		Key:     "genre_playtime",
		Title:   "Average play time by genre",
		Columns: []string{colPlayers, "avg hours"},
	}
	for _, c := range counts {
		t.Rows = append(t.Rows, report.Row{Label: c.Value, Values: []float64{float64(c.N), means[c.Value]}})
	}
	return t
}
