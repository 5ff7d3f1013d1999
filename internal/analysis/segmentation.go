package analysis

import (
	"fmt"

	"github.com/whoknowsbruh3425/BDA/pkg/extract"
	"github.com/whoknowsbruh3425/BDA/pkg/record"
	"github.com/whoknowsbruh3425/BDA/pkg/report"
	"github.com/whoknowsbruh3425/BDA/pkg/segment"
	"github.com/whoknowsbruh3425/BDA/pkg/stats"
)

const SegmentationName = "segmentation"

func segmentationScenario() Scenario {
	return Scenario{
		Name:  SegmentationName,
		Title: "Player Segmentation",
		Fields: []extract.Field{
			extract.FloatField(record.PlayTimeHours),
			extract.FloatField(record.InGamePurchases),
			extract.IntField(record.SessionsPerWeek),
			extract.IntField(record.PlayerLevel),
			extract.Optional(extract.FloatField(record.EngagementLevel)),
			extract.Optional(extract.FloatField(record.ToxicityLevel)),
			extract.Optional(extract.FloatField(record.LoyaltyIndex)),
		},
		Compute: segmentation,
	}
}

func segmentation(in Input, r *report.Report) {
	ds := in.Data
	play := ds.Floats(record.PlayTimeHours)
	spend := ds.Floats(record.InGamePurchases)
	sessions := ds.Floats(record.SessionsPerWeek)
	levels := ds.Floats(record.PlayerLevel)
	engagement := ds.Floats(record.EngagementLevel)

	q := segment.NewQuadrant(play, spend)
	r.AddMetric("playtime_median", "Play time median", q.PlayTimeMedian, "%.2f h").
		AddMetric("spend_median", "Spend median", q.SpendMedian, "$%.2f")
	r.AddTable(quadrantTable(q.Assign(play, spend), play, spend, sessions, levels))

	profiles := make([]segment.Profile, ds.Len())
	for i := range profiles {
		profiles[i] = segment.Profile{
			Spend:      spend[i],
			Engagement: engagement[i],
			PlayTime:   play[i],
			Sessions:   sessions[i],
		}
	}
	cascade := segment.Archetypes()
	r.AddTable(archetypeTable(ds, cascade.Labels(), cascade.Assign(profiles), spend, play))

	if missing := ds.Len() - len(ds.Present(record.EngagementLevel)); missing > 0 {
		r.Notes = append(r.Notes, fmt.Sprintf(
			"EngagementLevel missing for %d records; treated as 0 when assigning archetypes", missing))
	}
}

// indexByLabel groups row indexes under their assigned label
func indexByLabel(labels []segment.Label) map[segment.Label][]int {
	out := make(map[segment.Label][]int)
	for i, l := range labels {
		out[l] = append(out[l], i)
	}
	return out
}

func quadrantTable(labels []segment.Label, play, spend, sessions, levels []float64) report.Table {
	byLabel := indexByLabel(labels)
	t := report.Table{
		Key:     "quadrants",
		Title:   "Play time vs spend quadrants",
		Columns: []string{colPlayers, colShare, "avg spend", "avg hours", "avg sessions", "avg level"},
	}
	for _, l := range segment.QuadrantLabels {
		idx := byLabel[l]
		t.Rows = append(t.Rows, report.Row{
			Label: string(l),
			Values: []float64{
				float64(len(idx)),
				stats.Share(float64(len(idx)), float64(len(labels))),
				stats.Mean(pick(spend, idx)),
				stats.Mean(pick(play, idx)),
				stats.Mean(pick(sessions, idx)),
				stats.Mean(pick(levels, idx)),
			},
		})
	}
	return t
}

func archetypeTable(ds *extract.Dataset, order, labels []segment.Label, spend, play []float64) report.Table {
	byLabel := indexByLabel(labels)
	revenue := stats.Sum(spend)
	engagement := ds.Values(record.EngagementLevel)
	toxicity := ds.Values(record.ToxicityLevel)
	loyalty := ds.Values(record.LoyaltyIndex)

	t := report.Table{
		Key:   "archetypes",
		Title: "Player archetypes",
		Columns: []string{colPlayers, colShare, "revenue", "revenue %",
			"avg engagement", "avg hours", "avg toxicity", "avg loyalty"},
	}
	for _, l := range order {
		idx := byLabel[l]
		sum := stats.Sum(pick(spend, idx))
		t.Rows = append(t.Rows, report.Row{
			Label: string(l),
			Values: []float64{
				float64(len(idx)),
				stats.Share(float64(len(idx)), float64(len(labels))),
				sum,
				stats.Share(sum, revenue),
				meanPresent(engagement, idx),
				stats.Mean(pick(play, idx)),
				meanPresent(toxicity, idx),
				meanPresent(loyalty, idx),
			},
		})
	}
	return t
}
