package jukebox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fourBeats() []Beat {
	return []Beat{
		{Quantum: Quantum{Start: 0, Duration: 1, Index: 0}},
		{Quantum: Quantum{Start: 1, Duration: 1, Index: 1}},
		{Quantum: Quantum{Start: 2, Duration: 1, Index: 2}},
		{Quantum: Quantum{Start: 3, Duration: 1, Index: 3}},
	}
}

func newTestDriver(beats []Beat, lastBranchPoint int, player *fakePlayer) *Driver {
	cfg := DefaultConfig()
	d := &Driver{
		Beats:  beats,
		Graph:  &Graph{LastBranchPoint: lastBranchPoint},
		Config: &cfg,
		Player: player,
		RNG:    constSource(1.0),
		Branch: &BranchState{CurRandomBranchChance: cfg.MinRandomBranchChance},
	}
	d.Reset()
	return d
}

func TestDriverNotPlayingClearsTickTime(t *testing.T) {
	player := &fakePlayer{playing: false}
	d := newTestDriver(fourBeats(), none, player)
	lt := 0.5
	d.lastTickTime = &lt
	d.Tick()
	assert.Nil(t, d.lastTickTime)
	assert.Equal(t, none, d.currentBeatIndex)
}

func TestDriverEmptyBeatsNeverPanics(t *testing.T) {
	player := &fakePlayer{playing: true}
	d := newTestDriver(nil, none, player)
	assert.NotPanics(t, func() { d.Tick() })
}

func TestDriverAdvancesSequentiallyWithoutJumpWhenNoNeighbors(t *testing.T) {
	player := &fakePlayer{playing: true}
	beats := fourBeats()
	d := newTestDriver(beats, none, player)
	d.currentBeatIndex = 0
	d.nextTransitionTime = beats[0].End()

	player.current = 0
	d.Tick()
	require.Equal(t, 0, d.currentBeatIndex)

	player.current = 1.0
	d.Tick()
	assert.Equal(t, 1, d.currentBeatIndex)
	assert.False(t, player.hasScheduledJump)
	assert.Equal(t, 1, d.beatsPlayed)
}

func TestDriverWrapsAtEndAndSchedulesSeekBackToStart(t *testing.T) {
	player := &fakePlayer{playing: true}
	beats := fourBeats()
	d := newTestDriver(beats, none, player)
	d.currentBeatIndex = 3
	d.nextTransitionTime = beats[3].End()

	player.current = beats[3].Start
	d.Tick()

	player.current = beats[3].End()
	d.Tick()

	assert.Equal(t, 0, d.currentBeatIndex)
	require.True(t, player.hasScheduledJump)
	assert.GreaterOrEqual(t, player.scheduledTarget, beats[0].Start)
	assert.Less(t, player.scheduledTarget, beats[0].End())
}

func TestDriverResyncsWithoutAdvancingOnDesync(t *testing.T) {
	player := &fakePlayer{playing: true}
	beats := fourBeats()
	d := newTestDriver(beats, none, player)
	d.currentBeatIndex = 0
	d.nextTransitionTime = beats[0].End()

	// Simulate an external seek far outside the current beat's window.
	player.current = 2.5
	d.Tick()

	assert.Equal(t, 2, d.currentBeatIndex)
	assert.False(t, d.lastJumped)
	assert.Equal(t, 0, d.beatsPlayed)
}

func TestDriverForceBranchFiresExactlyOnceAndIsConsumed(t *testing.T) {
	player := &fakePlayer{playing: true}
	beats := fourBeats()
	g := &Graph{
		LastBranchPoint: none,
		Edges:           []Edge{{Src: 1, Dest: 3}},
	}
	cfg := DefaultConfig()
	beats[1].Neighbors = []int{0}
	d := &Driver{
		Beats:       beats,
		Graph:       g,
		Config:      &cfg,
		Player:      player,
		RNG:         constSource(1.0),
		Branch:      &BranchState{CurRandomBranchChance: cfg.MinRandomBranchChance},
		ForceBranch: true,
	}
	d.Reset()
	d.currentBeatIndex = 0
	d.nextTransitionTime = beats[0].End()

	player.current = 0
	d.Tick()
	player.current = 1.0
	d.Tick()

	assert.True(t, d.lastJumped)
	assert.Equal(t, 3, d.currentBeatIndex)
	assert.False(t, d.ForceBranch, "force branch must be consumed after firing once")
}
