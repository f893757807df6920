package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// ProgressReporter reports progress of a batch operation.
type ProgressReporter interface {
	Start(total int64)
	Update(current int64)
	Finish()
	Error(err error)
}

const progressBarWidth = 40

// SimpleProgress redraws a single status line:
//
//	Progress: [████████░░░░] 50.0% (2/4) 812.3 contexts/s
//
// Nothing is drawn for an empty batch.
type SimpleProgress struct {
	w    io.Writer
	unit string

	mu      sync.Mutex
	total   int64
	current int64
	started time.Time
}

// NewProgressReporter draws on w, or stderr when w is nil. Unit names what is
// counted and defaults to "items".
func NewProgressReporter(w io.Writer, unit string) ProgressReporter {
	if w == nil {
		w = os.Stderr
	}
	if unit == "" {
		unit = "items"
	}
	return &SimpleProgress{w: w, unit: unit}
}

// Start resets the counter for a batch of total items.
func (p *SimpleProgress) Start(total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.total, p.current, p.started = total, 0, time.Now()
	p.draw()
}

// Update moves the counter forward. Stale values from concurrent workers
// are ignored.
func (p *SimpleProgress) Update(current int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if current >= p.current {
		p.current = current
		p.draw()
	}
}

// Finish draws the completed line and ends it.
func (p *SimpleProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = p.total
	p.draw()
	if p.total > 0 {
		io.WriteString(p.w, "\n")
	}
}

// Error ends the status line with err.
func (p *SimpleProgress) Error(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "\n✗ Error: %v\n", err)
}

func (p *SimpleProgress) draw() {
	if p.total <= 0 {
		return
	}
	frac := min(float64(p.current)/float64(p.total), 1)
	filled := int(frac * progressBarWidth)

	rate := 0.0
	if secs := time.Since(p.started).Seconds(); secs > 0 {
		rate = float64(p.current) / secs
	}

	fmt.Fprintf(p.w, "\rProgress: [%s%s] %.1f%% (%d/%d) %.1f %s/s",
		strings.Repeat("█", filled), strings.Repeat("░", progressBarWidth-filled),
		frac*100, p.current, p.total, rate, p.unit)
}
