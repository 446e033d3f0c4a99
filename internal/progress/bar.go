// Package progress renders batch progress of a training phase as a single
// redrawn terminal line.
package progress

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

const defaultWidth = 40

// Bar implements trainer.Observer. It only draws; iteration is never touched.
type Bar struct {
	mu    sync.Mutex
	w     io.Writer
	bar   progress.Model
	label lipgloss.Style

	phase string
	total int
	done  int
}

// New returns a Bar drawing to w. width <= 0 uses a default.
func New(w io.Writer, width int) *Bar {
	if width <= 0 {
		width = defaultWidth
	}
	return &Bar{
		w:     w,
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(width), progress.WithoutPercentage()),
		label: lipgloss.NewStyle().Bold(true).Width(6),
	}
}

func (b *Bar) Begin(phase string, total int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.phase, b.total, b.done = phase, total, 0
	b.draw()
}

func (b *Bar) Advance() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.done++
	b.draw()
}

func (b *Bar) End() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.draw()
	fmt.Fprintln(b.w)
}

func (b *Bar) percent() float64 {
	if b.total <= 0 {
		return 0
	}
	p := float64(b.done) / float64(b.total)
	if p > 1 {
		p = 1
	}
	return p
}

func (b *Bar) draw() {
	fmt.Fprintf(b.w, "\r%s %s %d/%d", b.label.Render(b.phase), b.bar.ViewAs(b.percent()), b.done, b.total)
}
