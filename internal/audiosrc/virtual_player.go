package audiosrc

import (
	"fmt"
	"sync"
	"time"
)

// scheduledJump mirrors a pending jukebox.Player.ScheduleJump request.
type scheduledJump struct {
	targetTime     float64
	transitionTime float64
}

// VirtualPlayer implements jukebox.Player without a sound card: it
// tracks where playback *would* be using a wall clock, decoding MP3s
// only to learn their duration. Suitable for driving the engine in the
// CLI's play command and in tests; not a substitute for real audio output.
type VirtualPlayer struct {
	mu sync.Mutex

	path            string
	durationSeconds float64
	hasDuration     bool

	playing   bool
	trackTime float64 // playback position as of epoch
	epoch     time.Time
	scheduled *scheduledJump
}

// NewVirtualPlayer returns an unloaded VirtualPlayer.
func NewVirtualPlayer() *VirtualPlayer {
	return &VirtualPlayer{}
}

// LoadFile decodes path to learn its duration and sample rate; it does
// not keep samples resident, since VirtualPlayer never renders audio.
func (p *VirtualPlayer) LoadFile(path string, progress func(percent int)) error {
	if progress != nil {
		progress(0)
	}

	duration, _, err := Probe(path)
	if err != nil {
		return fmt.Errorf("audiosrc: load %s: %w", path, err)
	}

	p.mu.Lock()
	p.path = path
	p.durationSeconds = duration
	p.hasDuration = true
	p.trackTime = 0
	p.playing = false
	p.scheduled = nil
	p.mu.Unlock()

	if progress != nil {
		progress(100)
	}
	return nil
}

// Play resumes playback from the current track position.
func (p *VirtualPlayer) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playing {
		return
	}
	p.epoch = time.Now()
	p.playing = true
}

// Pause freezes the track position and stops the wall clock from advancing it.
func (p *VirtualPlayer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing {
		return
	}
	p.trackTime = p.currentTimeLocked()
	p.playing = false
}

// Stop resets the track position to zero and cancels any scheduled jump.
func (p *VirtualPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = false
	p.trackTime = 0
	p.scheduled = nil
}

// Seek moves the playhead immediately to t, canceling any scheduled jump.
func (p *VirtualPlayer) Seek(t float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.trackTime = t
	p.epoch = time.Now()
	p.scheduled = nil
}

// ScheduleJump arms a jump to targetTime, to take effect once the wall
// clock reaches transitionTime on the track's own timeline. A no-op
// when not playing, per the jukebox.Player contract.
func (p *VirtualPlayer) ScheduleJump(targetTime, transitionTime float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing {
		return
	}
	p.scheduled = &scheduledJump{targetTime: targetTime, transitionTime: transitionTime}
}

// GetCurrentTime returns the current playback position.
func (p *VirtualPlayer) GetCurrentTime() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentTimeLocked()
}

// currentTimeLocked computes the track position, splicing in a
// scheduled jump the instant the wall clock crosses its transition
// time and rebasing the epoch so the overshoot carries into the new position.
func (p *VirtualPlayer) currentTimeLocked() float64 {
	if !p.playing {
		return p.trackTime
	}

	elapsed := time.Since(p.epoch).Seconds()
	naive := p.trackTime + elapsed

	if p.scheduled != nil && naive >= p.scheduled.transitionTime {
		overshoot := naive - p.scheduled.transitionTime
		spliced := p.scheduled.targetTime + overshoot
		p.trackTime = spliced
		p.epoch = time.Now()
		p.scheduled = nil
		return spliced
	}

	return naive
}

// IsPlaying reports whether playback is active.
func (p *VirtualPlayer) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// GetDurationSeconds reports the loaded track's length, or ok=false
// when no file has been loaded.
func (p *VirtualPlayer) GetDurationSeconds() (float64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.durationSeconds, p.hasDuration
}

// Release is a no-op: VirtualPlayer holds no decoded samples to free.
func (p *VirtualPlayer) Release() {}

// Clear resets the player to its unloaded state.
func (p *VirtualPlayer) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.path = ""
	p.durationSeconds = 0
	p.hasDuration = false
	p.playing = false
	p.trackTime = 0
	p.scheduled = nil
}
