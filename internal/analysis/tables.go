package analysis

import (
	"math"

	"github.com/whoknowsbruh3425/BDA/pkg/extract"
	"github.com/whoknowsbruh3425/BDA/pkg/report"
	"github.com/whoknowsbruh3425/BDA/pkg/stats"
)

const (
	colPlayers = "players"
	colShare   = "share %"
)

var (
	inf    = math.Inf(1)
	negInf = math.Inf(-1)
)

// countTable turns a frequency list into a players/share table
func countTable(key, title string, counts []stats.Count, total int) report.Table {
	t := report.Table{Key: key, Title: title, Columns: []string{colPlayers, colShare}}
	for _, c := range counts {
		t.Rows = append(t.Rows, report.Row{
			Label:  c.Value,
			Values: []float64{float64(c.N), stats.Share(float64(c.N), float64(total))},
		})
	}
	return t
}

// binTable is countTable for histogram bins
func binTable(key, title string, bins []stats.Bin, total int) report.Table {
	counts := make([]stats.Count, len(bins))
	for i, b := range bins {
		counts[i] = stats.Count{Value: b.Label, N: b.N}
	}
	return countTable(key, title, counts, total)
}

// binMeanTable reports the player count and the mean of values per interval of by
func binMeanTable(key, title, column string, by, values, edges []float64, labels []string) report.Table {
	groups := make([][]float64, len(labels))
	for i, b := range stats.Cut(by, edges) {
		if b >= 0 && b < len(groups) {
			groups[b] = append(groups[b], values[i])
		}
	}

	t := report.Table{Key: key, Title: title, Columns: []string{colPlayers, column}}
	for i, label := range labels {
		t.Rows = append(t.Rows, report.Row{
			Label:  label,
			Values: []float64{float64(len(groups[i])), stats.Mean(groups[i])},
		})
	}
	return t
}

// presentStrings returns the string column restricted to records that carried the key
func presentStrings(ds *extract.Dataset, name string) []string {
	var out []string
	for _, v := range ds.Values(name) {
		if !v.Absent() {
			out = append(out, v.Str)
		}
	}
	return out
}

// presentPairs returns x and y restricted to rows where neither value is absent
func presentPairs(ds *extract.Dataset, xName, yName string) (xs, ys []float64) {
	xv, yv := ds.Values(xName), ds.Values(yName)
	for i := range xv {
		if i >= len(yv) || xv[i].Absent() || yv[i].Absent() {
			continue
		}
		xs = append(xs, xv[i].Float)
		ys = append(ys, yv[i].Float)
	}
	return xs, ys
}

// meanPresent averages the non-absent values among the rows in idx
func meanPresent(vals []extract.Value, idx []int) float64 {
	var picked []float64
	for _, i := range idx {
		if !vals[i].Absent() {
			picked = append(picked, vals[i].Float)
		}
	}
	return stats.Mean(picked)
}

func pick(values []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for j, i := range idx {
		out[j] = values[i]
	}
	return out
}

func above(threshold float64) func(float64) bool {
	return func(v float64) bool { return v > threshold }
}

func below(threshold float64) func(float64) bool {
	return func(v float64) bool { return v < threshold }
}
