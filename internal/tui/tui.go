// Package tui implements the interactive live view for glance.
package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/glance-io/glance/internal/config"
	"github.com/glance-io/glance/internal/models"
)

// programRef is a shared reference to the tea.Program for goroutine sends.
// It's set after tea.NewProgram but before p.Run().
type programRef struct {
	mu sync.Mutex
	p  *tea.Program
}

func (r *programRef) Set(p *tea.Program) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.p = p
}

func (r *programRef) Send(msg tea.Msg) {
	r.mu.Lock()
	p := r.p
	r.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// Clear nils out the program reference, preventing post-exit sends.
func (r *programRef) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.p = nil
}

// Run launches the live view against the running daemon.
func Run() error {
	settings, err := config.LoadSettings()
	if err != nil {
		settings = models.NewSettings()
	}

	ref := &programRef{}
	model := NewModel(settings.Controls, ref)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
		tea.WithReportFocus(),
	)

	// Store program reference for goroutine sends
	ref.Set(p)

	_, err = p.Run()
	return err
}
