package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nzoschke/jukebox/internal/jukebox"
)

func TestModelViewBeforeAnyEvent(t *testing.T) {
	m := initModel(nil)
	assert.Contains(t, m.View(), "waiting for playback")
}

func TestModelUpdateAppliesEventAndRendersJump(t *testing.T) {
	m := initModel(nil)
	from := 3
	next, cmd := m.Update(eventMsg(jukebox.UpdateEvent{
		CurrentBeatIndex:  7,
		BeatsPlayed:       12,
		LastJumped:        true,
		LastJumpFromIndex: &from,
	}))

	mm, ok := next.(model)
	require.True(t, ok)
	assert.True(t, mm.haveSeen)
	assert.NotNil(t, cmd)
	assert.Contains(t, mm.View(), "jumped 3 -> 7")
}

func TestModelQuitsOnQKey(t *testing.T) {
	m := initModel(nil)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	mm, ok := next.(model)
	require.True(t, ok)
	assert.True(t, mm.quitting)
	assert.NotNil(t, cmd)
	assert.Equal(t, "", mm.View())
}
