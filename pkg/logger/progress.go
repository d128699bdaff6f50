package logger

import (
	"time"
)

// BatchTracker logs the progress of a suggestion batch at a fixed record
// interval, and a summary line when the batch finishes. It is not safe for
// concurrent use; a batch runs on one goroutine.
type BatchTracker struct {
	log       Logger
	total     int
	interval  int
	processed int
	suggested int
	started   time.Time
}

// NewBatchTracker returns a tracker for a batch of total entries, logging
// every interval entries. An interval of zero disables intermediate lines.
func NewBatchTracker(log Logger, total, interval int) *BatchTracker {
	return &BatchTracker{
		log:      log.WithComponent("batch"),
		total:    total,
		interval: interval,
		started:  time.Now(),
	}
}

// Record notes one processed entry and whether it produced a suggestion.
func (t *BatchTracker) Record(suggested bool) {
	t.processed++
	if suggested {
		t.suggested++
	}
	if t.interval > 0 && t.processed%t.interval == 0 {
		t.log.WithFields(Fields{
			"processed": t.processed,
			"total":     t.total,
			"suggested": t.suggested,
		}).Debug("batch progress")
	}
}

// Finish logs the batch summary and returns the elapsed duration.
func (t *BatchTracker) Finish() time.Duration {
	elapsed := time.Since(t.started)
	t.log.WithFields(Fields{
		"processed": t.processed,
		"suggested": t.suggested,
		"unmatched": t.processed - t.suggested,
		"elapsed":   elapsed.String(),
	}).Info("batch complete")
	return elapsed
}
