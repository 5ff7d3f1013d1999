package export

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/whoknowsbruh3425/BDA/pkg/logger"
	"github.com/whoknowsbruh3425/BDA/pkg/report"
)

// TimestampLayout is the suffix format of every export file
const TimestampLayout = "20060102_150405"

// OverviewScenario is exported as data_overview_<ts>.txt without a JSON twin
const OverviewScenario = "overview"

// Exporter writes reports as timestamped files under a directory
type Exporter struct {
	dir    string
	logger *logger.Logger
	now    func() time.Time

	mu      sync.Mutex
	written []string
}

func NewExporter(dir string, l *logger.Logger) *Exporter {
	return &Exporter{dir: dir, logger: l, now: time.Now}
}

// BaseName returns the file name without extension for a report
func BaseName(r *report.Report, fallback time.Time) string {
	at := r.GeneratedAt
	if at.IsZero() {
		at = fallback
	}
	ts := at.Format(TimestampLayout)
	if r.Scenario == OverviewScenario {
		return "data_overview_" + ts
	}
	return fmt.Sprintf("gaming_analytics_%s_%s", r.Scenario, ts)
}

// WriteBatch writes a .txt rendering and a .json document per report
func (e *Exporter) WriteBatch(ctx context.Context, reports []*report.Report) error {
	if len(reports) == 0 {
		return nil
	}
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	for _, r := range reports {
		if err := ctx.Err(); err != nil {
			return err
		}
		paths, err := e.write(r)
		if err != nil {
			return err
		}
		e.mu.Lock()
		e.written = append(e.written, paths...)
		e.mu.Unlock()
		e.logger.Info("report exported", zap.String("scenario", r.Scenario), zap.Strings("files", paths))
	}
	return nil
}

func (e *Exporter) write(r *report.Report) ([]string, error) {
	base := filepath.Join(e.dir, BaseName(r, e.now()))

	var text bytes.Buffer
	if err := report.Render(&text, r); err != nil {
		return nil, fmt.Errorf("render %s: %w", r.Scenario, err)
	}
	txt := base + ".txt"
	if err := os.WriteFile(txt, text.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", txt, err)
	}
	if r.Scenario == OverviewScenario {
		return []string{txt}, nil
	}

	body, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", r.Scenario, err)
	}
	js := base + ".json"
	if err := os.WriteFile(js, body, 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", js, err)
	}
	return []string{txt, js}, nil
}

// Written lists every file produced so far
func (e *Exporter) Written() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.written...)
}
