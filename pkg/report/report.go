package report

import (
	"context"
	"errors"
	"time"
)

// Report is the outcome of one analysis scenario run
type Report struct {
	ID          string         `json:"id"`
	Scenario    string         `json:"scenario"`
	Title       string         `json:"title"`
	GeneratedAt time.Time      `json:"generated_at"`
	Records     int            `json:"records"`
	Dropped     int            `json:"dropped"`
	Defaulted   map[string]int `json:"defaulted,omitempty"`
	Metrics     []Metric       `json:"metrics"`
	Tables      []Table        `json:"tables"`
	Notes       []string       `json:"notes,omitempty"`
}

// Metric is a single named figure. Format is a fmt verb string used by the
// text renderer, e.g. "%.1f years".
type Metric struct {
	Key    string  `json:"key"`
	Label  string  `json:"label"`
	Value  float64 `json:"value"`
	Format string  `json:"-"`
}

// Table is a labelled breakdown, one row per category
type Table struct {
	Key     string   `json:"key"`
	Title   string   `json:"title"`
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// Row holds one value per table column
type Row struct {
	Label  string    `json:"label"`
	Values []float64 `json:"values"`
}

// AddMetric appends a metric and returns the report for chaining
func (r *Report) AddMetric(key, label string, value float64, format string) *Report {
	r.Metrics = append(r.Metrics, Metric{Key: key, Label: label, Value: value, Format: format})
	return r
}

// AddTable appends a table
func (r *Report) AddTable(t Table) *Report {
	r.Tables = append(r.Tables, t)
	return r
}

// Metric looks up a metric by key
func (r *Report) Metric(key string) (Metric, bool) {
	for _, m := range r.Metrics {
		if m.Key == key {
			return m, true
		}
	}
	return Metric{}, false
}

// Table looks up a table by key
func (r *Report) Table(key string) (Table, bool) {
	for _, t := range r.Tables {
		if t.Key == key {
			return t, true
		}
	}
	return Table{}, false
}

// Row looks up a row by label
func (t Table) Row(label string) (Row, bool) {
	for _, row := range t.Rows {
		if row.Label == label {
			return row, true
		}
	}
	return Row{}, false
}

// Column returns the value of a named column in a row
func (t Table) Column(row Row, column string) (float64, bool) {
	for i, c := range t.Columns {
		if c == column && i < len(row.Values) {
			return row.Values[i], true
		}
	}
	return 0, false
}

// Sink receives finished reports
type Sink interface {
	WriteBatch(ctx context.Context, reports []*Report) error
}

// MultiSink writes every batch to each sink in order and joins their errors
type MultiSink []Sink

func (m MultiSink) WriteBatch(ctx context.Context, reports []*Report) error {
	var errs []error
	for _, s := range m {
		if err := s.WriteBatch(ctx, reports); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
