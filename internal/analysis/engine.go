package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/whoknowsbruh3425/BDA/pkg/extract"
	"github.com/whoknowsbruh3425/BDA/pkg/logger"
	"github.com/whoknowsbruh3425/BDA/pkg/metrics"
	"github.com/whoknowsbruh3425/BDA/pkg/record"
	"github.com/whoknowsbruh3425/BDA/pkg/report"
)

var (
	// ErrInsufficientData is returned when fewer usable records remain than
	// the engine's minimum
	ErrInsufficientData = errors.New("insufficient data")
	ErrUnknownScenario  = errors.New("unknown scenario")
)

// Run statuses recorded on the scenario_runs_total counter
const (
	statusOK           = "ok"
	statusInsufficient = "insufficient"
	statusError        = "error"
)

// Snapshot is the dataset a run operates on
type Snapshot struct {
	Records  []record.Player
	LoadedAt time.Time
	Source   string
}

// Options tune record selection
type Options struct {
	CleanRanges bool
	MinRecords  int
}

// DefaultOptions matches the console defaults: range cleaning on, ten records minimum
func DefaultOptions() Options {
	return Options{CleanRanges: true, MinRecords: 10}
}

// Input is what a scenario computes over
type Input struct {
	Data    *extract.Dataset
	Records []record.Player
}

// Scenario declares the fields it needs and fills a report from them. A
// scenario with no fields works on the raw records.
type Scenario struct {
	Name    string
	Title   string
	Fields  []extract.Field
	Compute func(in Input, r *report.Report)
}

// Info describes a scenario for listings
type Info struct {
	Name   string   `json:"name"`
	Title  string   `json:"title"`
	Fields []string `json:"fields"`
}

// Engine runs scenarios against one immutable snapshot. It is safe for
// concurrent use.
type Engine struct {
	snapshot  Snapshot
	records   []record.Player
	excluded  int
	opts      Options
	logger    *logger.Logger
	scenarios map[string]Scenario
	order     []string
	now       func() time.Time
}

// NewEngine prepares an engine over snap, cleaning records when opts asks for it
func NewEngine(snap Snapshot, opts Options, l *logger.Logger) *Engine {
	if opts.MinRecords < 1 {
		opts.MinRecords = 1
	}

	records := snap.Records
	if opts.CleanRanges {
		records = Clean(records)
	}

	e := &Engine{
		snapshot:  snap,
		records:   records,
		excluded:  len(snap.Records) - len(records),
		opts:      opts,
		logger:    l.Named("analysis"),
		scenarios: make(map[string]Scenario),
		now:       time.Now,
	}
	for _, sc := range builtins() {
		e.scenarios[sc.Name] = sc
		e.order = append(e.order, sc.Name)
	}

	if e.excluded > 0 {
		e.logger.Info("excluded out-of-range records",
			zap.Int("excluded", e.excluded),
			zap.Int("kept", len(records)))
	}
	return e
}

// Names lists the analysis scenarios in menu order. The overview is not a
// scenario and is left out.
func (e *Engine) Names() []string {
	out := make([]string, 0, len(e.order))
	for _, name := range e.order {
		if name != OverviewName {
			out = append(out, name)
		}
	}
	return out
}

// Catalog describes every runnable report, overview included
func (e *Engine) Catalog() []Info {
	out := make([]Info, 0, len(e.order))
	for _, name := range e.order {
		sc := e.scenarios[name]
		info := Info{Name: sc.Name, Title: sc.Title, Fields: []string{}}
		for _, f := range sc.Fields {
			info.Fields = append(info.Fields, f.Name)
		}
		out = append(out, info)
	}
	return out
}

// Records returns the records scenarios run over, after cleaning
func (e *Engine) Records() int { return len(e.records) }

// Excluded returns how many loaded records failed range cleaning
func (e *Engine) Excluded() int { return e.excluded }

// Snapshot returns the snapshot the engine was built from
func (e *Engine) Snapshot() Snapshot { return e.snapshot }

// Run executes the named scenario. It fails with ErrUnknownScenario or,
// when too few records carry the scenario's fields, ErrInsufficientData.
func (e *Engine) Run(ctx context.Context, name string) (*report.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sc, ok := e.scenarios[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScenario, name)
	}

	start := time.Now()
	r, err := e.run(sc)
	metrics.ScenarioDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	status := statusOK
	switch {
	case errors.Is(err, ErrInsufficientData):
		status = statusInsufficient
	case err != nil:
		status = statusError
	}
	metrics.ScenarioRunsTotal.WithLabelValues(name, status).Inc()

	if err != nil {
		e.logger.Warn("scenario not run", zap.String("scenario", name), zap.Error(err))
		return nil, err
	}

	e.logger.Debug("scenario complete",
		zap.String("scenario", name),
		zap.Int("records", r.Records),
		zap.Int("dropped", r.Dropped),
		zap.Duration("took", time.Since(start)))
	return r, nil
}

func (e *Engine) run(sc Scenario) (*report.Report, error) {
	ds := extract.Extract(e.records, sc.Fields...)

	usable := ds.Len()
	if len(sc.Fields) == 0 {
		usable = len(e.records)
	}
	if usable < e.opts.MinRecords {
		return nil, fmt.Errorf("%s: %w: %d usable records, need %d",
			sc.Name, ErrInsufficientData, usable, e.opts.MinRecords)
	}

	metrics.RecordsDroppedTotal.Add(float64(ds.Dropped()))
	defaulted := ds.DefaultedCounts()
	for field, n := range defaulted {
		metrics.ValuesDefaultedTotal.WithLabelValues(field).Add(float64(n))
	}

	r := &report.Report{
		ID:          uuid.NewString(),
		Scenario:    sc.Name,
		Title:       sc.Title,
		GeneratedAt: e.now().UTC(),
		Records:     usable,
		Dropped:     ds.Dropped(),
		Defaulted:   defaulted,
	}
	sc.Compute(Input{Data: ds, Records: e.records}, r)

	if sc.Name == OverviewName && e.excluded > 0 {
		r.Notes = append(r.Notes, fmt.Sprintf(
			"%d records outside age 10-80 or play time 0-100h were excluded", e.excluded))
	}
	return r, nil
}

// builtins lists the scenarios in menu order, overview last
func builtins() []Scenario {
	return []Scenario{
		demographicsScenario(),
		behaviorScenario(),
		monetizationScenario(),
		socialScenario(),
		segmentationScenario(),
		overviewScenario(),
	}
}
