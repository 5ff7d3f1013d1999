package analysis

import (
	"github.com/whoknowsbruh3425/BDA/pkg/extract"
	"github.com/whoknowsbruh3425/BDA/pkg/record"
	"github.com/whoknowsbruh3425/BDA/pkg/report"
	"github.com/whoknowsbruh3425/BDA/pkg/stats"
)

const SocialName = "social"

var (
	toxicityEdges  = []float64{negInf, 3, 6, 8, inf}
	toxicityLabels = []string{"Low (<=3)", "Moderate (3-6)", "High (6-8)", "Critical (>8)"}

	sleepEdges  = []float64{0, 3, 5, 7, 10}
	sleepLabels = []string{"Low Risk", "Moderate Risk", "High Risk", "Critical Risk"}
)

// Community thresholds
const (
	highSocialThreshold   = 7
	strongTeamThreshold   = 15
	lowToxicityThreshold  = 4
	lowRageQuitThreshold  = 3
	highRageQuitThreshold = 6
	highSleepThreshold    = 7
)

func socialScenario() Scenario {
	return Scenario{
		Name:  SocialName,
		Title: "Social Behavior & Community Health",
		Fields: []extract.Field{
			extract.FloatField(record.SocialInteractionScore),
			extract.FloatField(record.TeamPlayerScore),
			extract.IntField(record.SessionsPerWeek),
			extract.FloatField(record.PlayTimeHours),
			extract.Optional(extract.FloatField(record.ToxicityLevel)),
			extract.Optional(extract.FloatField(record.RageQuitFrequency)),
			extract.Optional(extract.FloatField(record.SleepDeprivationRisk)),
		},
		Compute: social,
	}
}

func social(in Input, r *report.Report) {
	ds := in.Data
	socialScore := ds.Floats(record.SocialInteractionScore)
	team := ds.Floats(record.TeamPlayerScore)
	sessions := ds.Floats(record.SessionsPerWeek)
	play := ds.Floats(record.PlayTimeHours)
	total := float64(ds.Len())

	highSocial := stats.CountIf(socialScore, above(highSocialThreshold))
	strongTeam := stats.CountIf(team, above(strongTeamThreshold))

	r.AddMetric("social_mean", "Average social interaction score", stats.Mean(socialScore), "%.2f").
		AddMetric("team_mean", "Average team player score", stats.Mean(team), "%.2f").
		AddMetric("high_social", "Highly social players (>7)", float64(highSocial), "%d").
		AddMetric("high_social_share", "Highly social share", stats.Share(float64(highSocial), total), "%.1f%%").
		AddMetric("strong_team", "Strong team players (>15)", float64(strongTeam), "%d").
		AddMetric("strong_team_share", "Strong team player share", stats.Share(float64(strongTeam), total), "%.1f%%").
		AddMetric("social_team_correlation", "Social vs team score correlation", stats.Correlation(socialScore, team), "%.3f").
		AddMetric("social_sessions_correlation", "Social score vs sessions correlation", stats.Correlation(socialScore, sessions), "%.3f").
		AddMetric("social_playtime_correlation", "Social score vs play time correlation", stats.Correlation(socialScore, play), "%.3f")

	if toxicity := ds.Present(record.ToxicityLevel); len(toxicity) > 0 {
		low := stats.CountIf(toxicity, below(lowToxicityThreshold))
		r.AddMetric("toxicity_mean", "Average toxicity level", stats.Mean(toxicity), "%.2f").
			AddMetric("low_toxicity", "Low toxicity players (<4)", float64(low), "%d").
			AddMetric("low_toxicity_share", "Low toxicity share", stats.Share(float64(low), float64(len(toxicity))), "%.1f%%")
		r.AddTable(binTable("toxicity_zones", "Toxicity zones",
			stats.Histogram(toxicity, toxicityEdges, toxicityLabels), len(toxicity)))
	} else {
		r.Notes = append(r.Notes, "ToxicityLevel not recorded; toxicity section skipped")
	}

	if rage := ds.Present(record.RageQuitFrequency); len(rage) > 0 {
		low := stats.CountIf(rage, below(lowRageQuitThreshold))
		high := stats.CountIf(rage, above(highRageQuitThreshold))
		r.AddMetric("rage_quit_mean", "Average rage quit frequency", stats.Mean(rage), "%.2f").
			AddMetric("low_rage_quit", "Calm players (<3 rage quits)", float64(low), "%d").
			AddMetric("high_rage_quit", "Frequent rage quitters (>6)", float64(high), "%d")
	} else {
		r.Notes = append(r.Notes, "RageQuitFrequency not recorded; rage quit section skipped")
	}

	if sleep := ds.Present(record.SleepDeprivationRisk); len(sleep) > 0 {
		high := stats.CountIf(sleep, above(highSleepThreshold))
		r.AddMetric("sleep_risk_mean", "Average sleep deprivation risk", stats.Mean(sleep), "%.2f").
			AddMetric("high_sleep_risk", "High sleep risk players (>7)", float64(high), "%d").
			AddMetric("high_sleep_risk_share", "High sleep risk share", stats.Share(float64(high), float64(len(sleep))), "%.1f%%")
		r.AddTable(binTable("sleep_risk", "Sleep deprivation risk",
			stats.Histogram(sleep, sleepEdges, sleepLabels), len(sleep)))
	} else {
		r.Notes = append(r.Notes, "SleepDeprivationRisk not recorded; sleep risk section skipped")
	}
}
