package batch

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const percentMultiplier = 100

// Progress counts processed items and batches. It is safe for concurrent use.
type Progress struct {
	mu               sync.Mutex
	totalItems       int
	totalBatches     int
	processedItems   int
	processedBatches int
	start            time.Time
}

// Snapshot is a point-in-time copy of a Progress.
type Snapshot struct {
	TotalItems       int
	TotalBatches     int
	ProcessedItems   int
	ProcessedBatches int
	Elapsed          time.Duration
}

// NewProgress starts tracking totalItems spread over totalBatches.
func NewProgress(totalItems, totalBatches int) *Progress {
	return &Progress{totalItems: totalItems, totalBatches: totalBatches, start: time.Now()}
}

// Add records one finished batch of n items and returns the new state.
func (p *Progress) Add(n int) Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.processedItems += n
	p.processedBatches++
	return p.snapshotLocked()
}

// Snapshot returns the current state.
func (p *Progress) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

func (p *Progress) snapshotLocked() Snapshot {
	return Snapshot{
		TotalItems:       p.totalItems,
		TotalBatches:     p.totalBatches,
		ProcessedItems:   p.processedItems,
		ProcessedBatches: p.processedBatches,
		Elapsed:          time.Since(p.start),
	}
}

// PercentComplete returns the completion percentage (0-100).
func (s Snapshot) PercentComplete() float64 {
	if s.TotalItems == 0 {
		return 0
	}
	return float64(s.ProcessedItems) / float64(s.TotalItems) * percentMultiplier
}

// IsComplete reports whether every item has been processed.
func (s Snapshot) IsComplete() bool {
	return s.ProcessedItems >= s.TotalItems
}

// ItemsPerSecond returns the processing rate.
func (s Snapshot) ItemsPerSecond() float64 {
	secs := s.Elapsed.Seconds()
	if secs == 0 {
		return 0
	}
	return float64(s.ProcessedItems) / secs
}

// Remaining estimates the time left from the average time per item so far.
// It is 0 until an item has been processed.
func (s Snapshot) Remaining() time.Duration {
	if s.ProcessedItems == 0 {
		return 0
	}
	perItem := s.Elapsed / time.Duration(s.ProcessedItems)
	return perItem * time.Duration(s.TotalItems-s.ProcessedItems)
}

// LogProgress returns a ProgressCallback that logs each batch at info level.
func LogProgress(logger zerolog.Logger, what string) ProgressCallback {
	return func(s Snapshot) {
		logger.Info().
			Str("operation", "batch").
			Str("items", what).
			Int("batch", s.ProcessedBatches).
			Int("total_batches", s.TotalBatches).
			Int("processed", s.ProcessedItems).
			Float64("percent", s.PercentComplete()).
			Msg("batch processed")
	}
}
