package segment

import "github.com/whoknowsbruh3425/BDA/pkg/stats"

// Label is a categorical segment assigned to a player. Labels are derived on
// every run and never stored.
type Label string

// Quadrant labels, split on the play-time and spend medians
const (
	HeavySpenders Label = "Heavy Spenders"
	TimeInvested  Label = "Time Invested"
	QuickSpenders Label = "Quick Spenders"
	CasualPlayers Label = "Casual Players"
)

// QuadrantLabels lists the four labels in their canonical order
var QuadrantLabels = []Label{HeavySpenders, TimeInvested, QuickSpenders, CasualPlayers}

// Quadrant splits players into four segments around the population medians
// of play time and spend. A value equal to the median counts as "not above".
type Quadrant struct {
	PlayTimeMedian float64
	SpendMedian    float64
}

// NewQuadrant computes both medians from the population being segmented
func NewQuadrant(playTimes, spends []float64) Quadrant {
	return Quadrant{
		PlayTimeMedian: stats.Median(playTimes),
		SpendMedian:    stats.Median(spends),
	}
}

// Classify labels a single (play time, spend) pair
func (q Quadrant) Classify(playTime, spend float64) Label {
	longPlay := playTime > q.PlayTimeMedian
	bigSpend := spend > q.SpendMedian

	switch {
	case longPlay && bigSpend:
		return HeavySpenders
	case longPlay:
		return TimeInvested
	case bigSpend:
		return QuickSpenders
	default:
		return CasualPlayers
	}
}

// Assign labels index-aligned play time and spend columns
func (q Quadrant) Assign(playTimes, spends []float64) []Label {
	n := len(playTimes)
	if len(spends) < n {
		n = len(spends)
	}
	labels := make([]Label, n)
	for i := 0; i < n; i++ {
		labels[i] = q.Classify(playTimes[i], spends[i])
	}
	return labels
}
