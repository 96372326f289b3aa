package httpserver

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nzoschke/jukebox/internal/jukebox"
)

func sampleAnalysisForDebugPage() jukebox.RawAnalysis {
	beats := make([]jukebox.RawQuantum, 16)
	segs := make([]jukebox.RawSegment, 16)
	for i := range beats {
		beats[i] = jukebox.RawQuantum{Start: float64(i), Duration: 1, Confidence: 1}
		v := float64(i % 3)
		segs[i] = jukebox.RawSegment{Start: float64(i), Duration: 1, Confidence: 1, Timbre: []float64{v}}
	}
	return jukebox.RawAnalysis{Beats: beats, Segments: segs}
}

// TestDebugPageRendersCanvas loads the debug visualization page in a
// headless browser and checks the beat/edge canvas actually occupies
// the area below the header, exercising the full Server -> Engine ->
// Graph -> page pipeline end to end.
func TestDebugPageRendersCanvas(t *testing.T) {
	engine := jukebox.NewEngine(&noopPlayer{}, jukebox.NewSource(1, 2), jukebox.DefaultConfig())
	engine.LoadAnalysis(sampleAnalysisForDebugPage())

	srv := New(engine, "")
	go srv.Start(":18080")
	defer srv.Close()

	for i := 0; i < 50; i++ {
		resp, err := http.Get("http://localhost:18080/debug")
		if err == nil && resp.StatusCode == 200 {
			resp.Body.Close()
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	l := launcher.New().Headless(true)
	controlURL := l.MustLaunch()
	browser := rod.New().ControlURL(controlURL).MustConnect()
	defer browser.MustClose()

	page := browser.MustPage(fmt.Sprintf("http://localhost:18080/debug?t=%d", time.Now().UnixNano()))
	page.MustWaitLoad()
	time.Sleep(1 * time.Second)

	layout := page.MustEval(`() => {
		const canvas = document.querySelector('canvas');
		const header = document.querySelector('header');
		if (!canvas || !header) return { error: 'missing elements' };
		const c = canvas.getBoundingClientRect();
		const h = header.getBoundingClientRect();
		return { canvasTop: c.top, canvasHeight: c.height, headerHeight: h.height };
	}`).Map()

	if errVal, ok := layout["error"]; ok && errVal.Str() != "" {
		t.Fatalf("layout error: %s", errVal.Str())
	}

	require.Contains(t, layout, "headerHeight")
	headerHeight := layout["headerHeight"].Num()
	canvasTop := layout["canvasTop"].Num()
	canvasHeight := layout["canvasHeight"].Num()

	assert.InDelta(t, headerHeight, canvasTop, 2, "canvas should start right below the header")
	assert.Greater(t, canvasHeight, float64(100), "canvas should have substantial height")
}

// noopPlayer is a minimal jukebox.Player used only to let the engine
// tick without a real audio backend.
type noopPlayer struct{}

func (noopPlayer) Play()                                     {}
func (noopPlayer) Pause()                                    {}
func (noopPlayer) Stop()                                     {}
func (noopPlayer) Seek(t float64)                             {}
func (noopPlayer) ScheduleJump(targetTime, transitionTime float64) {}
func (noopPlayer) GetCurrentTime() float64                    { return 0 }
func (noopPlayer) IsPlaying() bool                            { return false }
func (noopPlayer) GetDurationSeconds() (float64, bool)        { return 0, false }
func (noopPlayer) LoadFile(path string, progress func(int)) error { return nil }
func (noopPlayer) Release()                                   {}
func (noopPlayer) Clear()                                     {}
