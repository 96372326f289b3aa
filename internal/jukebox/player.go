package jukebox

// Player is the narrow capability the engine consumes from the audio
// subsystem (§4.7). Decoding and sample-accurate playback are external
// collaborators (§1); the engine only issues lifecycle and seek calls
// and reads back clock/playing state.
type Player interface {
	Play()
	Pause()
	Stop()

	// Seek moves the playhead immediately to t seconds.
	Seek(t float64)

	// ScheduleJump requests a seek to targetTime at or around
	// transitionTime on the Player's clock. Superseded by any later
	// ScheduleJump or explicit Seek, and canceled by Stop. Must be a
	// no-op when the player is not playing.
	ScheduleJump(targetTime, transitionTime float64)

	GetCurrentTime() float64
	IsPlaying() bool

	// GetDurationSeconds reports the track length, or ok=false when unknown.
	GetDurationSeconds() (seconds float64, ok bool)

	// LoadFile decodes and readies path for playback. progress receives
	// integer percent 0-99 while decoding, then 100 when ready.
	LoadFile(path string, progress func(percent int)) error

	Release()
	Clear()
}
