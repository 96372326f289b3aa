// Package audiosrc adapts raw MP3 decoding into the small surface the
// jukebox engine needs from an audio source: a duration/sample-rate
// probe, ID3 tag reading, and a VirtualPlayer that drives
// jukebox.Player off a wall clock for demos and tests. Real
// sample-accurate playback through a sound card stays an external
// collaborator; VirtualPlayer only tracks where playback *would* be.
package audiosrc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
	"github.com/hajimehoshi/go-mp3"
)

// LoadAudioMono decodes path and returns mono float32 samples and sample rate.
func LoadAudioMono(path string) ([]float32, int, error) {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".mp3":
		return loadMP3Mono(path)
	default:
		return nil, 0, fmt.Errorf("unsupported audio format: %s", ext)
	}
}

// Probe returns path's duration in seconds and sample rate, measured
// from the undelayed decode so the reported length matches the file on
// disk rather than the encoder-delay-trimmed length LoadAudioMono uses
// for playback alignment.
func Probe(path string) (durationSeconds float64, sampleRate int, err error) {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".mp3":
		samples, rate, err := decodeMP3PCM(path)
		if err != nil {
			return 0, 0, err
		}
		if rate == 0 {
			return 0, 0, fmt.Errorf("audiosrc: zero sample rate for %s", path)
		}
		return float64(len(samples)) / float64(rate), rate, nil
	default:
		return 0, 0, fmt.Errorf("unsupported audio format: %s", ext)
	}
}

// ReadTags reads ID3 title/artist metadata, used by the play command to
// fill jukebox.TrackInfo when the analysis payload has no track object. A file
// without readable tags returns empty strings and no error.
func ReadTags(path string) (title, artist string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", "", fmt.Errorf("open file for tags: %w", err)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return "", "", nil
	}
	return m.Title(), m.Artist(), nil
}

// Additional samples that go-mp3 produces compared to a browser's decoder.
// Measured: browser first transient at 48446, go-mp3 at 50735.
// LAME header said 1365, so go-mp3 adds: 50735 - 48446 - 1365 = 924 samples.
const goMP3DecoderDelay = 924

// defaultEncoderDelay is used when the LAME header can't be read.
const defaultEncoderDelay = 576

// readMP3Delay reads the total delay to skip for an MP3 file: LAME
// encoder delay (from header) plus go-mp3's fixed decoder delay.
func readMP3Delay(path string) int {
	lameDelay := readLAMEEncoderDelay(path)
	return lameDelay + goMP3DecoderDelay
}

// readLAMEEncoderDelay reads the encoder delay from the LAME/Xing header if present.
func readLAMEEncoderDelay(path string) int {
	f, err := os.Open(path)
	if err != nil {
		return defaultEncoderDelay
	}
	defer f.Close()

	buf := make([]byte, 4096)
	n, err := f.Read(buf)
	if err != nil || n < 200 {
		return defaultEncoderDelay
	}
	buf = buf[:n]

	lameIdx := bytes.Index(buf, []byte("LAME"))
	if lameIdx == -1 {
		return defaultEncoderDelay
	}

	// LAME header structure: at offset 21 from "LAME" is a 3-byte field
	// containing encoder delay (12 bits) and padding (12 bits).
	delayOffset := lameIdx + 21
	if delayOffset+3 > len(buf) {
		return defaultEncoderDelay
	}

	b := buf[delayOffset : delayOffset+3]
	delay := (int(b[0]) << 4) | (int(b[1]) >> 4)

	if delay < 0 || delay > 4096 {
		return defaultEncoderDelay
	}

	return delay
}

// loadMP3Mono loads an MP3 file and returns mono float32 samples, with
// the encoder/decoder delay trimmed from the front to match browser
// audio playback alignment.
func loadMP3Mono(path string) ([]float32, int, error) {
	samples, sampleRate, err := decodeMP3PCM(path)
	if err != nil {
		return nil, 0, err
	}

	// Skip delay at the start to match browser audio playback, which
	// compensates for MP3 encoder delay automatically.
	totalDelay := readMP3Delay(path)
	if len(samples) > totalDelay {
		samples = samples[totalDelay:]
	}

	return samples, sampleRate, nil
}

// decodeMP3PCM decodes an MP3 file to mono float32 samples with no delay
// trimming, i.e. the file's full untrimmed length. Probe uses this
// directly so duration reflects the file on disk; loadMP3Mono trims its
// result for playback alignment.
func decodeMP3PCM(path string) ([]float32, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create MP3 decoder: %w", err)
	}

	sampleRate := decoder.SampleRate()

	pcmData, err := io.ReadAll(decoder)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to decode MP3: %w", err)
	}

	// MP3 decoder outputs 16-bit signed stereo, 4 bytes per sample pair.
	numSamplePairs := len(pcmData) / 4
	samples := make([]float32, numSamplePairs)

	for i := range numSamplePairs {
		offset := i * 4
		left := int16(binary.LittleEndian.Uint16(pcmData[offset:]))
		right := int16(binary.LittleEndian.Uint16(pcmData[offset+2:]))

		mono := (float32(left) + float32(right)) / 2.0
		samples[i] = mono / 32768.0
	}

	return samples, sampleRate, nil
}
