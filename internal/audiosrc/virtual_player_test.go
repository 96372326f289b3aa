package audiosrc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVirtualPlayerSeekAndPause(t *testing.T) {
	p := NewVirtualPlayer()
	p.Seek(10)
	assert.Equal(t, 10.0, p.GetCurrentTime())
	assert.False(t, p.IsPlaying())

	p.Play()
	assert.True(t, p.IsPlaying())
	time.Sleep(5 * time.Millisecond)
	p.Pause()
	assert.False(t, p.IsPlaying())
	assert.GreaterOrEqual(t, p.GetCurrentTime(), 10.0)
}

func TestVirtualPlayerStopResetsPosition(t *testing.T) {
	p := NewVirtualPlayer()
	p.Seek(42)
	p.Play()
	p.Stop()
	assert.False(t, p.IsPlaying())
	assert.Equal(t, 0.0, p.GetCurrentTime())
}

func TestVirtualPlayerScheduleJumpIsNoopWhenNotPlaying(t *testing.T) {
	p := NewVirtualPlayer()
	p.ScheduleJump(5, 1)
	assert.Nil(t, p.scheduled)
}

func TestVirtualPlayerScheduleJumpSplicesAtTransition(t *testing.T) {
	p := NewVirtualPlayer()
	p.Seek(0)
	p.Play()
	p.ScheduleJump(100, 0.001) // transition almost immediately

	time.Sleep(5 * time.Millisecond)
	current := p.GetCurrentTime()
	assert.GreaterOrEqual(t, current, 100.0)
}

func TestVirtualPlayerGetDurationSecondsUnloaded(t *testing.T) {
	p := NewVirtualPlayer()
	_, ok := p.GetDurationSeconds()
	assert.False(t, ok)
}

func TestVirtualPlayerLoadFileUnsupportedFormat(t *testing.T) {
	p := NewVirtualPlayer()
	err := p.LoadFile("missing.wav", nil)
	require.Error(t, err)
	_, ok := p.GetDurationSeconds()
	assert.False(t, ok)
}

func TestVirtualPlayerClearResetsState(t *testing.T) {
	p := NewVirtualPlayer()
	p.Seek(5)
	p.Play()
	p.Clear()
	assert.False(t, p.IsPlaying())
	assert.Equal(t, 0.0, p.GetCurrentTime())
	_, ok := p.GetDurationSeconds()
	assert.False(t, ok)
}
