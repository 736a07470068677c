package progress

import (
	"io"
	"sync"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

var spinner = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Progress is a group of download bars on one output.
type Progress struct {
	mu        sync.Mutex
	container *mpb.Progress
	bars      map[string]*mpb.Bar
	started   map[string]time.Time
}

// New creates a progress group writing to w.
func New(w io.Writer) *Progress {
	return &Progress{
		container: mpb.New(
			mpb.WithOutput(w),
			mpb.WithRefreshRate(150*time.Millisecond),
		),
		bars:    make(map[string]*mpb.Bar),
		started: make(map[string]time.Time),
	}
}

func barOptions(description string) []mpb.BarOption {
	return []mpb.BarOption{
		mpb.PrependDecorators(
			decor.Spinner(spinner, decor.WCSyncSpaceR),
			decor.Name(description, decor.WCSyncSpaceR),
			decor.CountersKibiByte("%.2f/%.2f", decor.WCSyncSpace),
			decor.Percentage(decor.WCSyncSpace),
		),
		mpb.AppendDecorators(
			decor.EwmaSpeed(decor.SizeB1024(0), "%.2f", 30, decor.WCSyncSpace),
			decor.EwmaETA(decor.ET_STYLE_GO, 30, decor.WCSyncSpace),
		),
	}
}

// Add starts a bar. A total of zero or less means unknown; the bar then
// grows with the transfer.
func (p *Progress) Add(id, description string, total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if total < 0 {
		total = 0
	}
	p.bars[id] = p.container.AddBar(total, barOptions(description)...)
	p.started[id] = time.Now()
}

// Increment records n more bytes for the bar.
func (p *Progress) Increment(id string, n int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	bar, ok := p.bars[id]
	if !ok {
		return
	}
	now := time.Now()
	bar.EwmaIncrInt64(n, now.Sub(p.started[id]))
	p.started[id] = now
}

// Done completes the bar at its current count.
func (p *Progress) Done(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if bar, ok := p.bars[id]; ok {
		bar.SetTotal(-1, true)
		delete(p.bars, id)
		delete(p.started, id)
	}
}

// Abort drops the bar, leaving its last state on screen.
func (p *Progress) Abort(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if bar, ok := p.bars[id]; ok {
		bar.Abort(false)
		delete(p.bars, id)
		delete(p.started, id)
	}
}

// Wait blocks until every bar has finished rendering.
func (p *Progress) Wait() {
	p.container.Wait()
}
