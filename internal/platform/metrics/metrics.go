package metrics

import (
	"sync/atomic"
	"time"
)

type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	totalDurationMs uint64
	reminderRuns    uint64
	remindersSent   uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

// RecordReminderRun counts one scheduler pass and the reminders it
// delivered.
func (c *Collector) RecordReminderRun(sent int) {
	atomic.AddUint64(&c.reminderRuns, 1)
	if sent > 0 {
		atomic.AddUint64(&c.remindersSent, uint64(sent))
	}
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	errs := atomic.LoadUint64(&c.errorRequests)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":      total,
		"errorsTotal":        errs,
		"avgDurationMs":      avg,
		"totalDurationMs":    totalMs,
		"reminderRunsTotal":  atomic.LoadUint64(&c.reminderRuns),
		"remindersSentTotal": atomic.LoadUint64(&c.remindersSent),
	}
}
