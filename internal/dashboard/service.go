package dashboard

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/whoknowsbruh3425/BDA/internal/analysis"
	"github.com/whoknowsbruh3425/BDA/pkg/archive"
	"github.com/whoknowsbruh3425/BDA/pkg/changestream"
	"github.com/whoknowsbruh3425/BDA/pkg/logger"
	"github.com/whoknowsbruh3425/BDA/pkg/record"
	"github.com/whoknowsbruh3425/BDA/pkg/report"
	"github.com/whoknowsbruh3425/BDA/pkg/server"
)

const shutdownTimeout = 5 * time.Second

// HistoryStore lists previously archived reports
type HistoryStore interface {
	History(ctx context.Context, scenario string, limit int) ([]archive.Entry, error)
}

// refresher is implemented by sources that can bypass their snapshot cache
type refresher interface {
	Refresh(ctx context.Context) ([]record.Player, error)
}

// Config holds the dashboard settings
type Config struct {
	Addr    string
	Options analysis.Options
	// Quiet is how long the change stream must stay idle before a reload
	Quiet time.Duration
}

// Service serves scenario reports over HTTP from an in-memory snapshot
// that is swapped atomically on every reload
type Service struct {
	logger  *logger.Logger
	cfg     Config
	source  analysis.Loader
	watcher changestream.Watcher
	history HistoryStore
	sink    report.Sink

	engine   atomic.Pointer[analysis.Engine]
	reloadMu sync.Mutex
	server   *server.Server
}

// NewService creates a new dashboard service instance
func NewService(l *logger.Logger, cfg Config, src analysis.Loader) *Service {
	if cfg.Quiet <= 0 {
		cfg.Quiet = 2 * time.Second
	}
	s := &Service{
		logger: l.Named("dashboard"),
		cfg:    cfg,
		source: src,
	}
	s.server = server.New(cfg.Addr, l, s.API(), s.Ready)
	return s
}

// WithWatcher reloads the snapshot whenever the watched collection changes
func (s *Service) WithWatcher(w changestream.Watcher) *Service {
	s.watcher = w
	return s
}

// WithHistory enables the report history endpoint
func (s *Service) WithHistory(h HistoryStore) *Service {
	s.history = h
	return s
}

// WithSink forwards every report served by the API to sink
func (s *Service) WithSink(sink report.Sink) *Service {
	s.sink = sink
	return s
}

// Ready reports whether a snapshot has been loaded
func (s *Service) Ready() bool {
	return s.engine.Load() != nil
}

// Engine returns the current engine, nil before the first load
func (s *Service) Engine() *analysis.Engine {
	return s.engine.Load()
}

// Handler exposes the full HTTP handler, probes included
func (s *Service) Handler() http.Handler {
	return s.server.Handler()
}

// Reload loads a fresh snapshot and swaps it in. With refresh set, a
// caching source is asked to bypass its cache.
func (s *Service) Reload(ctx context.Context, refresh bool) (*analysis.Engine, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	var src analysis.Loader = s.source
	if r, ok := s.source.(refresher); ok && refresh {
		src = refreshing{Loader: s.source, r: r}
	}

	snap, err := analysis.LoadSnapshot(ctx, src)
	if err != nil {
		return nil, err
	}

	e := analysis.NewEngine(snap, s.cfg.Options, s.logger)
	s.engine.Store(e)

	s.logger.Info("snapshot loaded",
		zap.String("source", snap.Source),
		zap.Int("records", len(snap.Records)),
		zap.Int("analysed", e.Records()),
		zap.Bool("refresh", refresh))
	return e, nil
}

type refreshing struct {
	analysis.Loader
	r refresher
}

func (r refreshing) Load(ctx context.Context) ([]record.Player, error) {
	return r.r.Refresh(ctx)
}

// Start serves the dashboard until ctx is cancelled. A failed initial load
// leaves the service unready rather than stopping it.
func (s *Service) Start(ctx context.Context) error {
	s.logger.Info("starting dashboard service", zap.String("addr", s.cfg.Addr))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(s.server.Start)

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		if _, err := s.Reload(gctx, false); err != nil {
			s.logger.Error("initial load failed", err)
		}
		return nil
	})

	if s.watcher != nil {
		g.Go(func() error { return s.watch(gctx) })
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}

func (s *Service) watch(ctx context.Context) error {
	defer func() {
		if err := s.watcher.Close(); err != nil {
			s.logger.Error("failed to close watcher", err)
		}
	}()

	changes, errs := s.watcher.Watch(ctx)
	settled := changestream.Debounce(ctx, changes, s.cfg.Quiet)

	for {
		select {
		case c, ok := <-settled:
			if !ok {
				return nil
			}
			s.logger.Info("collection changed, reloading",
				zap.String("operation", c.Operation),
				zap.String("document_id", c.DocumentID))
			if _, err := s.Reload(ctx, true); err != nil {
				s.logger.Error("reload after change failed", err)
			}

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			// keep serving the current snapshot without live reloads
			s.logger.Error("change stream stopped", err)
			return nil

		case <-ctx.Done():
			return nil
		}
	}
}
