package jukebox

// Driver timing constants (§4.5).
const (
	resyncEpsilon = 0.05

	offsetRatio = 0.06
	offsetMin   = 0.015
	offsetMax   = 0.05
	offsetFloor = 0.001
)

// Driver advances through beats in wall-clock time against a Player's
// clock, probabilistically jumping at beat boundaries (§4.5). It is
// single-threaded cooperative: Tick never blocks and must be called from
// the engine's single logical task (§5).
type Driver struct {
	Beats       []Beat
	Graph       *Graph
	Config      *EngineConfig
	Player      Player
	RNG         Source
	Branch      *BranchState
	ForceBranch bool

	currentBeatIndex  int
	nextTransitionTime float64
	lastTickTime       *float64
	beatsPlayed        int
	lastJumped         bool
	lastJumpFromIndex  *int
	lastJumpTime       *float64
}

// Reset reinitializes the driver's playback position (called by
// startJukebox and loadAnalysis, §3).
func (d *Driver) Reset() {
	d.currentBeatIndex = none
	d.nextTransitionTime = 0
	d.lastTickTime = nil
	d.beatsPlayed = 0
	d.lastJumped = false
	d.lastJumpFromIndex = nil
	d.lastJumpTime = nil
}

// Snapshot returns the driver's current state for an onUpdate notification.
func (d *Driver) Snapshot() (currentBeatIndex, beatsPlayed int, lastJumped bool, lastJumpFromIndex *int, lastJumpTime *float64) {
	return d.currentBeatIndex, d.beatsPlayed, d.lastJumped, d.lastJumpFromIndex, d.lastJumpTime
}

// Tick polls the Player's current time and decides whether to advance
// the current beat (§4.5).
func (d *Driver) Tick() {
	d.lastJumped = false

	if !d.Player.IsPlaying() || len(d.Beats) == 0 {
		d.lastTickTime = nil
		return
	}

	t := d.Player.GetCurrentTime()

	if d.currentBeatIndex < 0 || !withinBeatWindow(d.Beats[d.currentBeatIndex], t) {
		d.resync(t)
		return
	}

	if d.lastTickTime != nil && *d.lastTickTime < d.nextTransitionTime && t >= d.nextTransitionTime {
		d.advance(t)
	}

	lt := t
	d.lastTickTime = &lt
}

// withinBeatWindow reports whether t falls in beat's interval widened
// by resyncEpsilon on both sides (§4.5 step 2).
func withinBeatWindow(beat Beat, t float64) bool {
	return t >= beat.Start-resyncEpsilon && t <= beat.End()+resyncEpsilon
}

// resync binary-searches the beat whose interval contains t (or the
// nearest earlier beat) and realigns the transition clock without
// emitting an advance (§4.5 step 2, §8 scenario S7).
func (d *Driver) resync(t float64) {
	idx := NearestBeatIndex(d.Beats, t)
	if idx == none {
		return
	}
	d.currentBeatIndex = idx
	d.nextTransitionTime = d.Beats[idx].End()
	lt := t
	d.lastTickTime = &lt
}

// advance moves to the next beat, consulting the Selector for a
// possible jump, and schedules a Player seek when a jump (or end-of-track
// wrap) occurs (§4.5 "Advance").
func (d *Driver) advance(t float64) {
	enforceLastBranch := d.currentBeatIndex == d.Graph.LastBranchPoint
	total := len(d.Beats)
	wrapped := (d.currentBeatIndex + 1) % total
	wrappedToStart := d.currentBeatIndex == total-1

	var seed *Beat
	if enforceLastBranch {
		seed = &d.Beats[d.currentBeatIndex]
	} else {
		seed = &d.Beats[wrapped]
	}

	result := Select(seed, d.Graph, d.Config, d.RNG, d.Branch, d.ForceBranch || enforceLastBranch)
	d.ForceBranch = false // consumed: a forced branch fires exactly once

	chosen := wrapped
	if result.Jumped {
		chosen = result.NextIndex
	}

	d.lastJumped = result.Jumped
	d.lastJumpFromIndex = nil

	if result.Jumped || wrappedToStart {
		dest := &d.Beats[chosen]
		offset := dest.Duration * offsetRatio
		if offset < offsetMin {
			offset = offsetMin
		}
		if offset > offsetMax {
			offset = offsetMax
		}
		if ceiling := dest.Duration - offsetFloor; offset > ceiling {
			offset = ceiling
		}
		if offset < 0 {
			offset = 0
		}

		targetTime := dest.Start + offset
		d.Player.ScheduleJump(targetTime, d.nextTransitionTime)

		jt := t
		d.lastJumpTime = &jt

		from := seed.Index
		if !result.Jumped {
			from = d.currentBeatIndex
		}
		d.lastJumpFromIndex = &from
	}

	d.currentBeatIndex = chosen
	d.nextTransitionTime = d.Beats[chosen].End()
	d.beatsPlayed++
}
