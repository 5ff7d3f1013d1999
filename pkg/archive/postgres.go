package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/whoknowsbruh3425/BDA/pkg/config"
	"github.com/whoknowsbruh3425/BDA/pkg/logger"
	"github.com/whoknowsbruh3425/BDA/pkg/metrics"
	"github.com/whoknowsbruh3425/BDA/pkg/report"
)

// copyThreshold is the batch size from which COPY replaces row inserts
const copyThreshold = 100

var columns = []string{"id", "scenario", "title", "generated_at", "record_count", "body"}

const schema = `
	CREATE TABLE IF NOT EXISTS analysis_reports (
		id           TEXT PRIMARY KEY,
		scenario     TEXT NOT NULL,
		title        TEXT NOT NULL,
		generated_at TIMESTAMPTZ NOT NULL,
		record_count INTEGER NOT NULL,
		body         JSONB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS analysis_reports_scenario_idx
		ON analysis_reports (scenario, generated_at DESC);
`

const upsertSet = `
	ON CONFLICT (id) DO UPDATE SET
		scenario = EXCLUDED.scenario,
		title = EXCLUDED.title,
		generated_at = EXCLUDED.generated_at,
		record_count = EXCLUDED.record_count,
		body = EXCLUDED.body
`

// Entry is an archived report summary
type Entry struct {
	ID          string    `json:"id"`
	Scenario    string    `json:"scenario"`
	Title       string    `json:"title"`
	GeneratedAt time.Time `json:"generated_at"`
	Records     int       `json:"records"`
}

// PGArchive stores every generated report in PostgreSQL
type PGArchive struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
}

// NewPGArchive connects the pool and verifies the connection
func NewPGArchive(ctx context.Context, cfg config.PostgresConfig, l *logger.Logger) (*PGArchive, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URI)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConns = int32(cfg.MaxConns)
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PGArchive{pool: pool, logger: l}, nil
}

// EnsureSchema creates the report table if it does not exist
func (a *PGArchive) EnsureSchema(ctx context.Context) error {
	if _, err := a.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// WriteBatch upserts the reports in a single transaction
func (a *PGArchive) WriteBatch(ctx context.Context, reports []*report.Report) error {
	if len(reports) == 0 {
		return nil
	}

	rows, err := toRows(reports)
	if err != nil {
		return err
	}

	if useCopy(len(rows)) {
		err = a.writeCopy(ctx, rows)
	} else {
		err = a.writeInsert(ctx, rows)
	}
	if err != nil {
		metrics.SinkErrorsTotal.WithLabelValues("postgres").Inc()
		return err
	}

	metrics.ReportsArchivedTotal.Add(float64(len(rows)))
	a.logger.Debug("reports archived", zap.Int("count", len(rows)))
	return nil
}

func useCopy(n int) bool {
	return n >= copyThreshold
}

func toRows(reports []*report.Report) ([][]any, error) {
	rows := make([][]any, len(reports))
	for i, r := range reports {
		body, err := json.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("encode report %s: %w", r.ID, err)
		}
		rows[i] = []any{r.ID, r.Scenario, r.Title, r.GeneratedAt, r.Records, body}
	}
	return rows, nil
}

func (a *PGArchive) writeInsert(ctx context.Context, rows [][]any) error {
	tx, err := a.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	const query = `
		INSERT INTO analysis_reports (id, scenario, title, generated_at, record_count, body)
		VALUES ($1, $2, $3, $4, $5, $6)` + upsertSet

	for _, row := range rows {
		if _, err := tx.Exec(ctx, query, row...); err != nil {
			return fmt.Errorf("insert report %v: %w", row[0], err)
		}
	}
	return tx.Commit(ctx)
}

func (a *PGArchive) writeCopy(ctx context.Context, rows [][]any) error {
	tx, err := a.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, "CREATE TEMP TABLE analysis_reports_temp (LIKE analysis_reports) ON COMMIT DROP")
	if err != nil {
		return fmt.Errorf("failed to create temp table: %w", err)
	}

	_, err = tx.CopyFrom(ctx, pgx.Identifier{"analysis_reports_temp"}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("copy from failed: %w", err)
	}

	_, err = tx.Exec(ctx, `INSERT INTO analysis_reports SELECT * FROM analysis_reports_temp`+upsertSet)
	if err != nil {
		return fmt.Errorf("upsert from temp table failed: %w", err)
	}

	return tx.Commit(ctx)
}

// History lists the most recent archived reports for a scenario
func (a *PGArchive) History(ctx context.Context, scenario string, limit int) ([]Entry, error) {
	rows, err := a.pool.Query(ctx, `
		SELECT id, scenario, title, generated_at, record_count
		FROM analysis_reports
		WHERE scenario = $1
		ORDER BY generated_at DESC
		LIMIT $2`, scenario, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Entry, error) {
		var e Entry
		err := row.Scan(&e.ID, &e.Scenario, &e.Title, &e.GeneratedAt, &e.Records)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan history: %w", err)
	}
	return entries, nil
}

// Close closes the pool
func (a *PGArchive) Close() error {
	a.pool.Close()
	return nil
}
