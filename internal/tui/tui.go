// Package tui is a terminal status view for jukebox playback: current
// beat, branch threshold, and the last jump, refreshed from the
// engine's OnUpdate stream.
package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nzoschke/jukebox/internal/jukebox"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	jumpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// keyQuit is the binding for leaving the status view; ctrl+c and esc
// are accepted alongside q for terminals that swallow plain letters.
var keyQuit = key.NewBinding(
	key.WithKeys("q", "ctrl+c", "esc"),
	key.WithHelp("q", "quit"),
)

// eventMsg wraps an engine UpdateEvent for the Bubble Tea message loop.
type eventMsg jukebox.UpdateEvent

// model holds the latest status snapshot.
type model struct {
	events   <-chan jukebox.UpdateEvent
	event    jukebox.UpdateEvent
	haveSeen bool
	quitting bool
	flashAt  time.Time
}

func initModel(events <-chan jukebox.UpdateEvent) model {
	return model{events: events}
}

func waitForEvent(events <-chan jukebox.UpdateEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return eventMsg(ev)
	}
}

func (m model) Init() tea.Cmd {
	return waitForEvent(m.events)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		m.event = jukebox.UpdateEvent(msg)
		m.haveSeen = true
		if m.event.LastJumped {
			m.flashAt = time.Now()
		}
		return m, waitForEvent(m.events)

	case tea.KeyMsg:
		if key.Matches(msg, keyQuit) {
			m.quitting = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m model) View() string {
	if m.quitting {
		return ""
	}
	if !m.haveSeen {
		return titleStyle.Render("jukebox") + "\n" + labelStyle.Render("waiting for playback...") + "\n"
	}

	jumpLine := labelStyle.Render("no jump yet")
	if m.event.LastJumpFromIndex != nil {
		text := fmt.Sprintf("jumped %d -> %d", *m.event.LastJumpFromIndex, m.event.CurrentBeatIndex)
		if time.Since(m.flashAt) < time.Second {
			jumpLine = jumpStyle.Render(text)
		} else {
			jumpLine = labelStyle.Render(text)
		}
	}

	return titleStyle.Render("jukebox") + "\n" +
		fmt.Sprintf("beat        %d (played %d)\n", m.event.CurrentBeatIndex, m.event.BeatsPlayed) +
		fmt.Sprintf("time        %.2fs\n", m.event.CurrentTime) +
		fmt.Sprintf("threshold   %d (last branch point %d)\n", m.event.CurrentThreshold, m.event.LastBranchPoint) +
		fmt.Sprintf("branch chance %.3f\n", m.event.CurRandomBranchChance) +
		jumpLine + "\n" +
		helpStyle.Render(keyQuit.Help().Key+" to "+keyQuit.Help().Desc)
}

// Run subscribes to engine's OnUpdate stream and displays a live status
// view until the user quits.
func Run(engine *jukebox.Engine) error {
	events := make(chan jukebox.UpdateEvent, 8)
	id := engine.OnUpdate(func(ev jukebox.UpdateEvent) {
		select {
		case events <- ev:
		default:
			// drop if the TUI hasn't drained yet; status is always superseded by the next tick
		}
	})
	defer engine.Unsubscribe(id)

	p := tea.NewProgram(initModel(events))
	_, err := p.Run()
	return err
}
