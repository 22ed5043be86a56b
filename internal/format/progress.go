package format

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Progress tracks completion of a fixed number of steps and estimates the
// time remaining from the average step duration so far. It is safe for
// concurrent use.
type Progress struct {
	mu    sync.Mutex
	total int
	done  int
	start time.Time
	now   func() time.Time
}

// NewProgress starts tracking total steps.
func NewProgress(total int) *Progress {
	return newProgressAt(total, time.Now)
}

func newProgressAt(total int, now func() time.Time) *Progress {
	return &Progress{total: total, start: now(), now: now}
}

// Advance records one completed step and returns the completed fraction and
// the estimated time remaining.
func (p *Progress) Advance() (float64, time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done < p.total {
		p.done++
	}
	return p.stateLocked()
}

// State returns the completed fraction and the estimated time remaining.
func (p *Progress) State() (float64, time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stateLocked()
}

func (p *Progress) stateLocked() (float64, time.Duration) {
	if p.total <= 0 {
		return 1, 0
	}
	frac := float64(p.done) / float64(p.total)
	if p.done == 0 {
		return frac, 0
	}
	perStep := p.now().Sub(p.start) / time.Duration(p.done)
	return frac, perStep * time.Duration(p.total-p.done)
}

// FormatProgressBar renders progress (clamped to [0, 1]) as a bar of width
// characters.
func FormatProgressBar(progress float64, width int) string {
	progress = min(max(progress, 0), 1)
	filled := int(progress * float64(width))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// FormatProgressBarWithETA renders a bar followed by the percentage and ETA.
func FormatProgressBarWithETA(progress float64, eta time.Duration, width int) string {
	return fmt.Sprintf("%s %5.1f%% ETA %s", FormatProgressBar(progress, width), min(max(progress, 0), 1)*100, FormatETA(eta))
}
