package tracker

import (
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// Tracker records the byte count and timing of a single transfer.
type Tracker struct {
	name      string
	mu        sync.RWMutex
	startedAt time.Time
	endedAt   time.Time
	current   int64
	total     int64
}

func NewTracker(name string) *Tracker {
	return &Tracker{name: name}
}

func (t *Tracker) Name() string {
	return t.name
}

// Duration is the elapsed time so far, or the total time once finished.
func (t *Tracker) Duration() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	switch {
	case t.startedAt.IsZero():
		return 0
	case t.endedAt.IsZero():
		return time.Since(t.startedAt)
	default:
		return t.endedAt.Sub(t.startedAt)
	}
}

func (t *Tracker) Current() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current
}

func (t *Tracker) IncCurrent(n int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = max(0, t.current+n)
}

func (t *Tracker) Total() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.total
}

func (t *Tracker) SetTotal(total int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.total = max(0, total)
}

// Progress returns current/total as a float from 0 to 1.
func (t *Tracker) Progress() float64 {
	total := t.Total()
	if total == 0 {
		return 0
	}
	return float64(t.Current()) / float64(total)
}

// ProgressBytes returns current/total as a human readable string.
func (t *Tracker) ProgressBytes() string {
	return fmt.Sprintf("%s/%s", humanize.Bytes(uint64(t.Current())), humanize.Bytes(uint64(t.Total())))
}

func (t *Tracker) PercentString() string {
	return fmt.Sprintf("%.0f%%", t.Progress()*100)
}

// Speed returns the average bytes per second.
func (t *Tracker) Speed() float64 {
	duration := t.Duration().Seconds()
	if duration == 0 {
		return 0
	}
	return float64(t.Current()) / duration
}

func (t *Tracker) SpeedBytes() string {
	return fmt.Sprintf("%s/s", humanize.Bytes(uint64(t.Speed())))
}

// Start resets the counters and begins timing.
func (t *Tracker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.startedAt = time.Now()
	t.endedAt = time.Time{}
	t.current = 0
}

// Finish stops timing.
func (t *Tracker) Finish() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.endedAt = time.Now()
}
