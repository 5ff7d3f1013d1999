package analysis

import (
	"github.com/whoknowsbruh3425/BDA/pkg/extract"
	"github.com/whoknowsbruh3425/BDA/pkg/record"
	"github.com/whoknowsbruh3425/BDA/pkg/report"
	"github.com/whoknowsbruh3425/BDA/pkg/stats"
)

const DemographicsName = "demographics"

var (
	ageEdges  = []float64{0, 18, 25, 35, 50, 100}
	ageLabels = []string{"<18", "18-25", "26-35", "36-50", "50+"}
)

func demographicsScenario() Scenario {
	return Scenario{
		Name:  DemographicsName,
		Title: "Player Demographics & Age vs Gaming Intensity",
		Fields: []extract.Field{
			extract.IntField(record.Age),
			extract.FloatField(record.PlayTimeHours),
			extract.IntField(record.SessionsPerWeek),
			extract.FloatField(record.AvgSessionDurationMinutes),
			extract.Optional(extract.StringField(record.Location)),
		},
		Compute: demographics,
	}
}

func demographics(in Input, r *report.Report) {
	ds := in.Data
	ages := ds.Floats(record.Age)
	play := ds.Floats(record.PlayTimeHours)
	sessions := ds.Floats(record.SessionsPerWeek)
	duration := ds.Floats(record.AvgSessionDurationMinutes)

	slope, intercept := stats.LinearFit(ages, play)

	r.AddMetric("age_min", "Youngest player", stats.Min(ages), "%d years").
		AddMetric("age_max", "Oldest player", stats.Max(ages), "%d years").
		AddMetric("age_mean", "Average age", stats.Mean(ages), "%.1f years").
		AddMetric("playtime_mean", "Average play time", stats.Mean(play), "%.1f h").
		AddMetric("sessions_mean", "Average sessions per week", stats.Mean(sessions), "%.1f").
		AddMetric("duration_mean", "Average session length", stats.Mean(duration), "%.1f min").
		AddMetric("age_playtime_slope", "Play time trend per year of age", slope, "%.3f h").
		AddMetric("age_playtime_intercept", "Play time trend intercept", intercept, "%.2f h").
		AddMetric("age_playtime_correlation", "Age vs play time correlation", stats.Correlation(ages, play), "%.3f")

	r.AddTable(binTable("age_groups", "Players by age group",
		stats.Histogram(ages, ageEdges, ageLabels), ds.Len()))
	r.AddTable(binMeanTable("sessions_by_age", "Sessions per week by age group", "avg sessions",
		ages, sessions, ageEdges, ageLabels))

	locations := presentStrings(ds, record.Location)
	if len(locations) == 0 {
		r.Notes = append(r.Notes, "Location not recorded; location breakdown skipped")
		return
	}
	r.AddTable(countTable("locations", "Top locations", stats.ValueCounts(locations, 8), len(locations)))
}
