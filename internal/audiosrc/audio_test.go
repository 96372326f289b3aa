package audiosrc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadAudioMonoRejectsUnsupportedExtension(t *testing.T) {
	_, _, err := LoadAudioMono("track.flac")
	assert.Error(t, err)
}

func TestReadLAMEEncoderDelayFallsBackWithoutHeader(t *testing.T) {
	assert.Equal(t, defaultEncoderDelay, readLAMEEncoderDelay("/nonexistent/path.mp3"))
}

func TestProbeErrorsOnUnsupportedExtension(t *testing.T) {
	_, _, err := Probe("track.wav")
	assert.Error(t, err)
}

func TestReadTagsErrorsOnMissingFile(t *testing.T) {
	_, _, err := ReadTags("/nonexistent/path.mp3")
	assert.Error(t, err)
}
