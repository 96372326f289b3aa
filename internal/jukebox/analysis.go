package jukebox

import "sort"

// RawAnalysis is the unstructured analysis payload consumed by Normalize
// (§4.1, §6). Field names mirror the Spotify-style descriptor JSON shape
// the engine is tolerant of: extra fields are ignored, missing arrays
// default to empty.
type RawAnalysis struct {
	Sections []RawQuantum `json:"sections"`
	Bars     []RawQuantum `json:"bars"`
	Beats    []RawQuantum `json:"beats"`
	Tatums   []RawQuantum `json:"tatums"`
	Segments []RawSegment `json:"segments"`
	Track    *RawTrack    `json:"track"`
}

// RawQuantum is one section/bar/beat/tatum entry before normalization.
type RawQuantum struct {
	Start      float64 `json:"start"`
	Duration   float64 `json:"duration"`
	Confidence float64 `json:"confidence"`
}

// RawSegment is one segment entry before normalization.
type RawSegment struct {
	Start           float64   `json:"start"`
	Duration        float64   `json:"duration"`
	Confidence      float64   `json:"confidence"`
	LoudnessStart   float64   `json:"loudness_start"`
	LoudnessMax     float64   `json:"loudness_max"`
	LoudnessMaxTime float64   `json:"loudness_max_time"`
	Pitches         []float64 `json:"pitches"`
	Timbre          []float64 `json:"timbre"`
}

// RawTrack is the optional track-level metadata object.
type RawTrack struct {
	Title         string  `json:"title"`
	Artist        string  `json:"artist"`
	Duration      float64 `json:"duration"`
	Tempo         float64 `json:"tempo"`
	TimeSignature int     `json:"time_signature"`
}

// Normalize ingests a raw analysis payload and returns a navigable
// Analysis: quanta sorted and densely indexed, prev/next links formed,
// parent/child hierarchy attached, and overlapping segments computed
// per beat (§4.1). Normalize never fails; malformed entries are skipped.
func Normalize(raw RawAnalysis) *Analysis {
	a := &Analysis{
		Sections: normalizeQuanta(raw.Sections, func(q Quantum) Section { return Section{Quantum: q} }),
		Bars:     normalizeQuanta(raw.Bars, func(q Quantum) Bar { return Bar{Quantum: q, Parent: none} }),
		Beats:    normalizeQuanta(raw.Beats, func(q Quantum) Beat { return Beat{Quantum: q, Parent: none} }),
		Tatums:   normalizeQuanta(raw.Tatums, func(q Quantum) Tatum { return Tatum{Quantum: q, Parent: none} }),
		Segments: normalizeSegments(raw.Segments),
	}

	if raw.Track != nil {
		a.Track = TrackInfo{
			Title:         raw.Track.Title,
			Artist:        raw.Track.Artist,
			Duration:      raw.Track.Duration,
			Tempo:         raw.Track.Tempo,
			TimeSignature: raw.Track.TimeSignature,
		}
	}

	linkSectionsBars(a)
	linkBarsBeats(a)
	linkBeatsTatums(a)
	linkOverlappingSegments(a)

	return a
}

// normalizeQuanta sorts, filters out non-positive-duration entries, and
// assigns dense indices + prev/next links, then wraps each Quantum into
// T via wrap (so the same code serves Section, Bar, Beat and Tatum).
func normalizeQuanta[T any](raw []RawQuantum, wrap func(Quantum) T) []T {
	filtered := filterPositiveDuration(raw)
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].Start < filtered[j].Start })

	out := make([]T, len(filtered))
	for i, r := range filtered {
		q := Quantum{
			Start:      r.Start,
			Duration:   r.Duration,
			Confidence: r.Confidence,
			Index:      i,
			Prev:       none,
			Next:       none,
		}
		if i > 0 {
			q.Prev = i - 1
		}
		if i < len(filtered)-1 {
			q.Next = i + 1
		}
		out[i] = wrap(q)
	}
	return out
}

// filterPositiveDuration returns the raw quanta with non-positive-duration
// entries removed (§4.1 edge conditions).
func filterPositiveDuration(raw []RawQuantum) []RawQuantum {
	out := make([]RawQuantum, 0, len(raw))
	for _, r := range raw {
		if r.Duration <= 0 {
			continue
		}
		out = append(out, r)
	}
	return out
}

func normalizeSegments(raw []RawSegment) []Segment {
	filtered := make([]RawSegment, 0, len(raw))
	for _, r := range raw {
		if r.Duration <= 0 {
			continue
		}
		filtered = append(filtered, r)
	}
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].Start < filtered[j].Start })

	out := make([]Segment, len(filtered))
	for i, r := range filtered {
		s := Segment{
			Start:           r.Start,
			Duration:        r.Duration,
			Confidence:      r.Confidence,
			LoudnessStart:   r.LoudnessStart,
			LoudnessMax:     r.LoudnessMax,
			LoudnessMaxTime: r.LoudnessMaxTime,
			Index:           i,
		}
		copyPadded(s.Pitches[:], r.Pitches)
		copyPadded(s.Timbre[:], r.Timbre)
		out[i] = s
	}
	return out
}

// copyPadded copies src into dst, zero-padding dst when src has fewer
// than len(dst) entries (§4.1 edge conditions).
func copyPadded(dst []float64, src []float64) {
	n := len(src)
	if n > len(dst) {
		n = len(dst)
	}
	copy(dst, src[:n])
}

// linkSectionsBars attaches each bar to the unique section whose interval
// contains the bar's midpoint, and builds each section's ordered Children.
func linkSectionsBars(a *Analysis) {
	for i := range a.Bars {
		bar := &a.Bars[i]
		mid := bar.Start + bar.Duration/2
		sec := findContainingIndex(a.Sections, mid)
		if sec == none {
			continue
		}
		bar.Parent = sec
		bar.IndexInParent = len(a.Sections[sec].Children)
		a.Sections[sec].Children = append(a.Sections[sec].Children, i)
	}
}

// linkBarsBeats attaches each beat to the unique bar whose interval
// contains the beat's midpoint, and builds each bar's ordered Children.
func linkBarsBeats(a *Analysis) {
	for i := range a.Beats {
		beat := &a.Beats[i]
		mid := beat.Start + beat.Duration/2
		bar := findContainingBarIndex(a.Bars, mid)
		if bar == none {
			continue
		}
		beat.Parent = bar
		beat.IndexInParent = len(a.Bars[bar].Children)
		a.Bars[bar].Children = append(a.Bars[bar].Children, i)
	}
}

// linkBeatsTatums attaches each tatum to the unique beat whose interval
// contains the tatum's midpoint, and builds each beat's ordered Children.
func linkBeatsTatums(a *Analysis) {
	for i := range a.Tatums {
		tatum := &a.Tatums[i]
		mid := tatum.Start + tatum.Duration/2
		beat := findContainingBeatIndex(a.Beats, mid)
		if beat == none {
			continue
		}
		tatum.Parent = beat
		tatum.IndexInParent = len(a.Beats[beat].Children)
		a.Beats[beat].Children = append(a.Beats[beat].Children, i)
	}
}

// linkOverlappingSegments computes, for every beat, the ordered set of
// segments whose interval intersects the beat's interval.
func linkOverlappingSegments(a *Analysis) {
	for i := range a.Beats {
		beat := &a.Beats[i]
		for j := range a.Segments {
			seg := &a.Segments[j]
			if seg.Start < beat.End() && seg.End() > beat.Start {
				beat.OverlappingSegments = append(beat.OverlappingSegments, j)
			}
		}
	}
}

func findContainingIndex(qs []Section, t float64) int {
	for i := range qs {
		if qs[i].Contains(t) {
			return i
		}
	}
	return none
}

func findContainingBarIndex(qs []Bar, t float64) int {
	for i := range qs {
		if qs[i].Contains(t) {
			return i
		}
	}
	return none
}

func findContainingBeatIndex(qs []Beat, t float64) int {
	for i := range qs {
		if qs[i].Contains(t) {
			return i
		}
	}
	return none
}

// GetBeatAtTime returns the index of the beat whose interval contains t,
// or none when t is outside all intervals (§4.6, §8 property 7). Uses
// binary search since beats are sorted and non-overlapping by construction.
func GetBeatAtTime(beats []Beat, t float64) int {
	n := len(beats)
	if n == 0 {
		return none
	}
	lo, hi := 0, n-1
	for lo <= hi {
		mid := (lo + hi) / 2
		switch {
		case t < beats[mid].Start:
			hi = mid - 1
		case t >= beats[mid].End():
			lo = mid + 1
		default:
			return mid
		}
	}
	return none
}

// NearestBeatIndex returns the beat whose interval contains t, or the
// nearest earlier beat if t falls in a gap (used by the driver's resync
// path, §4.5 step 2).
func NearestBeatIndex(beats []Beat, t float64) int {
	if idx := GetBeatAtTime(beats, t); idx != none {
		return idx
	}
	n := len(beats)
	if n == 0 {
		return none
	}
	// binary search for the last beat with Start <= t
	lo, hi := 0, n-1
	best := 0
	for lo <= hi {
		mid := (lo + hi) / 2
		if beats[mid].Start <= t {
			best = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return best
}
