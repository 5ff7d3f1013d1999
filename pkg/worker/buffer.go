package worker

import (
	"sync"
	"time"

	"github.com/whoknowsbruh3425/BDA/pkg/report"
)

// ReportBuffer holds finished reports until a batch is due
type ReportBuffer struct {
	mu        sync.Mutex
	reports   []*report.Report
	capacity  int
	lastFlush time.Time
}

// NewReportBuffer creates a buffer that asks for a flush at capacity
func NewReportBuffer(capacity int) *ReportBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &ReportBuffer{
		reports:   make([]*report.Report, 0, capacity),
		capacity:  capacity,
		lastFlush: time.Now(),
	}
}

// Add appends a report. Returns true if the buffer should be flushed.
func (b *ReportBuffer) Add(r *report.Report) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.reports = append(b.reports, r)
	return len(b.reports) >= b.capacity
}

// Flush returns the current batch and clears the buffer
func (b *ReportBuffer) Flush() []*report.Report {
	b.mu.Lock()
	defer b.mu.Unlock()

	batch := b.reports
	b.reports = make([]*report.Report, 0, b.capacity)
	b.lastFlush = time.Now()
	return batch
}

func (b *ReportBuffer) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.reports)
}

// ShouldFlush returns true if reports are waiting and interval has passed since the last flush
func (b *ReportBuffer) ShouldFlush(interval time.Duration) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.reports) == 0 {
		return false
	}
	return time.Since(b.lastFlush) >= interval
}
