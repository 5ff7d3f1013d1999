package stats

import (
	"math"
	"sort"

	mstats "github.com/montanaflynn/stats"
)

// The aggregate helpers below return 0 for empty input instead of an error;
// callers gate on minimum sample sizes before rendering.

func Mean(values []float64) float64 {
	m, err := mstats.Mean(values)
	if err != nil {
		return 0
	}
	return m
}

func Median(values []float64) float64 {
	m, err := mstats.Median(values)
	if err != nil {
		return 0
	}
	return m
}

func Min(values []float64) float64 {
	m, err := mstats.Min(values)
	if err != nil {
		return 0
	}
	return m
}

func Max(values []float64) float64 {
	m, err := mstats.Max(values)
	if err != nil {
		return 0
	}
	return m
}

func Sum(values []float64) float64 {
	s, err := mstats.Sum(values)
	if err != nil {
		return 0
	}
	return s
}

// Correlation is Pearson's r, 0 when undefined
func Correlation(x, y []float64) float64 {
	r, err := mstats.Correlation(x, y)
	if err != nil || math.IsNaN(r) {
		return 0
	}
	return r
}

// LinearFit returns the least-squares line y = slope*x + intercept
func LinearFit(x, y []float64) (slope, intercept float64) {
	if len(x) != len(y) || len(x) < 2 {
		return 0, Mean(y)
	}
	cov, err := mstats.Covariance(x, y)
	if err != nil {
		return 0, Mean(y)
	}
	variance, err := mstats.SampleVariance(x)
	if err != nil || variance == 0 {
		return 0, Mean(y)
	}
	slope = cov / variance
	intercept = Mean(y) - slope*Mean(x)
	return slope, intercept
}

// CountIf counts values matching pred
func CountIf(values []float64, pred func(float64) bool) int {
	n := 0
	for _, v := range values {
		if pred(v) {
			n++
		}
	}
	return n
}

// Select returns the values matching pred
func Select(values []float64, pred func(float64) bool) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if pred(v) {
			out = append(out, v)
		}
	}
	return out
}

// Share returns part/total as a percentage, 0 when total is 0
func Share(part, total float64) float64 {
	if total == 0 {
		return 0
	}
	return part / total * 100
}

// Count is one entry of a frequency table
type Count struct {
	Value string
	N     int
}

// ValueCounts tallies values by descending frequency; ties keep first-seen
// order. n <= 0 returns every value.
func ValueCounts(values []string, n int) []Count {
	order := make(map[string]int)
	var counts []Count
	for _, v := range values {
		idx, ok := order[v]
		if !ok {
			idx = len(counts)
			order[v] = idx
			counts = append(counts, Count{Value: v})
		}
		counts[idx].N++
	}
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].N > counts[j].N
	})
	if n > 0 && len(counts) > n {
		counts = counts[:n]
	}
	return counts
}

// Cut assigns each value to a right-inclusive interval (edges[i], edges[i+1]]
// and returns the interval index per value, -1 when outside every interval.
func Cut(values []float64, edges []float64) []int {
	out := make([]int, len(values))
	for i, v := range values {
		out[i] = -1
		for b := 0; b+1 < len(edges); b++ {
			if v > edges[b] && v <= edges[b+1] {
				out[i] = b
				break
			}
		}
	}
	return out
}

// Bin is one labelled interval produced by Histogram
type Bin struct {
	Label string
	N     int
}

// Histogram counts values per labelled right-inclusive interval, keeping
// label order. Values outside the edges are not counted.
func Histogram(values, edges []float64, labels []string) []Bin {
	bins := make([]Bin, len(labels))
	for i, l := range labels {
		bins[i].Label = l
	}
	for _, b := range Cut(values, edges) {
		if b >= 0 && b < len(bins) {
			bins[b].N++
		}
	}
	return bins
}

// Group collects values under string keys in first-seen key order
type Group struct {
	Key    string
	Values []float64
}

func GroupBy(keys []string, values []float64) []Group {
	order := make(map[string]int)
	var groups []Group
	for i, k := range keys {
		if i >= len(values) {
			break
		}
		idx, ok := order[k]
		if !ok {
			idx = len(groups)
			order[k] = idx
			groups = append(groups, Group{Key: k})
		}
		groups[idx].Values = append(groups[idx].Values, values[i])
	}
	return groups
}
