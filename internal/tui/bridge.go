package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// taskMsg carries a dispatched function into Update, which makes the
// bubbletea event loop the POS logical thread.
type taskMsg struct {
	fn func()
}

// Bridge is a dispatcher that feeds tasks to a running program.
type Bridge struct {
	mu      sync.Mutex
	program *tea.Program
	pending []func()
}

// NewBridge creates a bridge with no program attached
func NewBridge() *Bridge {
	return &Bridge{}
}

// Attach connects the program. Tasks posted before now are delivered.
func (b *Bridge) Attach(p *tea.Program) {
	b.mu.Lock()
	b.program = p
	pending := b.pending
	b.pending = nil
	b.mu.Unlock()

	if len(pending) > 0 {
		go func() {
			for _, fn := range pending {
				p.Send(taskMsg{fn: fn})
			}
		}()
	}
}

// Post sends fn to the program. It must not be called from inside Update.
func (b *Bridge) Post(fn func()) {
	b.mu.Lock()
	p := b.program
	if p == nil {
		b.pending = append(b.pending, fn)
		b.mu.Unlock()
		return
	}
	b.mu.Unlock()
	p.Send(taskMsg{fn: fn})
}
