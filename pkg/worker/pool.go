package worker

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/whoknowsbruh3425/BDA/pkg/logger"
	"github.com/whoknowsbruh3425/BDA/pkg/report"

	"go.uber.org/zap"
)

// ErrPoolClosed is returned by Submit after Shutdown
var ErrPoolClosed = errors.New("worker pool is shut down")

// Runner computes one scenario report
type Runner interface {
	Run(ctx context.Context, scenario string) (*report.Report, error)
}

// Job is a scenario queued for a worker
type Job struct {
	Seq      int
	Scenario string
}

// Result is the outcome of one job
type Result struct {
	Scenario string
	Report   *report.Report
	Err      error
}

// Pool runs scenario jobs concurrently and hands finished reports to a
// sink in batches
type Pool struct {
	logger        *logger.Logger
	runner        Runner
	sink          report.Sink
	numWorkers    int
	batchSize     int
	flushInterval time.Duration
	inputChan     chan Job
	wg            sync.WaitGroup

	mu      sync.Mutex
	seq     int
	closed  bool
	results map[int]Result
}

// NewPool creates a new Pool. sink may be nil.
func NewPool(l *logger.Logger, runner Runner, sink report.Sink, numWorkers, batchSize int, flushInterval time.Duration) *Pool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &Pool{
		logger:        l,
		runner:        runner,
		sink:          sink,
		numWorkers:    numWorkers,
		batchSize:     batchSize,
		flushInterval: flushInterval,
		inputChan:     make(chan Job, numWorkers*2),
		results:       make(map[int]Result),
	}
}

// Start initializes the worker goroutines
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.runWorker(ctx, i)
	}
}

// Submit queues a scenario for processing
func (p *Pool) Submit(ctx context.Context, scenario string) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPoolClosed
	}
	job := Job{Seq: p.seq, Scenario: scenario}
	p.seq++
	p.mu.Unlock()

	select {
	case p.inputChan <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) runWorker(ctx context.Context, id int) {
	defer p.wg.Done()

	p.logger.Debug("worker started", zap.Int("worker_id", id))

	buffer := NewReportBuffer(p.batchSize)
	ticker := time.NewTicker(p.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case job, ok := <-p.inputChan:
			if !ok {
				p.flush(context.WithoutCancel(ctx), buffer)
				return
			}

			r, err := p.runner.Run(ctx, job.Scenario)
			p.record(job, r, err)
			if err != nil {
				p.logger.Warn("scenario failed",
					zap.Int("worker_id", id),
					zap.String("scenario", job.Scenario),
					zap.Error(err),
				)
				continue
			}

			if buffer.Add(r) {
				p.flush(ctx, buffer)
			}

		case <-ticker.C:
			if buffer.ShouldFlush(p.flushInterval) {
				p.flush(ctx, buffer)
			}

		case <-ctx.Done():
			p.flush(context.WithoutCancel(ctx), buffer) // Final flush on shutdown
			return
		}
	}
}

func (p *Pool) record(job Job, r *report.Report, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results[job.Seq] = Result{Scenario: job.Scenario, Report: r, Err: err}
}

func (p *Pool) flush(ctx context.Context, buffer *ReportBuffer) {
	reports := buffer.Flush()
	if len(reports) == 0 || p.sink == nil {
		return
	}

	if err := p.sink.WriteBatch(ctx, reports); err != nil {
		// sinks are best effort; the reports are still returned to the caller
		p.logger.Error("failed to write report batch", err, zap.Int("reports", len(reports)))
		return
	}
	p.logger.Debug("report batch written", zap.Int("reports", len(reports)))
}

// Shutdown stops accepting jobs and waits for in-flight work and final flushes
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	close(p.inputChan)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Results returns every finished job in submission order
func (p *Pool) Results() []Result {
	p.mu.Lock()
	defer p.mu.Unlock()

	seqs := make([]int, 0, len(p.results))
	for seq := range p.results {
		seqs = append(seqs, seq)
	}
	sort.Ints(seqs)

	out := make([]Result, len(seqs))
	for i, seq := range seqs {
		out[i] = p.results[seq]
	}
	return out
}

// RunAll runs every scenario through a fresh pool and returns the results in
// the order given
func RunAll(ctx context.Context, l *logger.Logger, runner Runner, sink report.Sink, workers int, scenarios []string) ([]Result, error) {
	p := NewPool(l, runner, sink, workers, len(scenarios), time.Second)
	p.Start(ctx)

	for _, name := range scenarios {
		if err := p.Submit(ctx, name); err != nil {
			_ = p.Shutdown(context.WithoutCancel(ctx))
			return p.Results(), err
		}
	}

	if err := p.Shutdown(ctx); err != nil {
		return p.Results(), err
	}
	return p.Results(), nil
}
