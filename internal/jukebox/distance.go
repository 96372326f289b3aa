package jukebox

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Feature weights for the segment distance metric (§4.2). Pitch carries
// 10x the weight of timbre because chroma mismatches are far more
// audible across a jump than subtle spectral-shape differences, and
// duration mismatches are penalized heavily (100x) since a jump that
// lands mid-segment is the most common source of an audible click.
const (
	weightTimbre          = 1.0
	weightPitch           = 10.0
	weightLoudnessStart   = 1.0
	weightLoudnessMax     = 1.0
	weightDuration        = 100.0
	weightConfidence      = 1.0

	// missingSegmentPenalty is the fixed distance contributed by a
	// segment slot present on q1 but absent on q2 (§4.2).
	missingSegmentPenalty = 100.0

	// parentMismatchPenalty is added when two beats sit at different
	// offsets within their respective parent bars (§4.2).
	parentMismatchPenalty = 100.0
)

// SegmentDistance computes the weighted feature distance between two
// segments (§4.2).
func SegmentDistance(s1, s2 *Segment) float64 {
	return weightTimbre*floats.Distance(s1.Timbre[:], s2.Timbre[:], 2) +
		weightPitch*floats.Distance(s1.Pitches[:], s2.Pitches[:], 2) +
		weightLoudnessStart*math.Abs(s1.LoudnessStart-s2.LoudnessStart) +
		weightLoudnessMax*math.Abs(s1.LoudnessMax-s2.LoudnessMax) +
		weightDuration*math.Abs(s1.Duration-s2.Duration) +
		weightConfidence*math.Abs(s1.Confidence-s2.Confidence)
}

// BeatDistance computes the distance between two beats of the same
// analysis (§4.2): the mean per-overlapping-segment-pair distance, plus
// a penalty when the beats sit at different offsets within their parent
// bars. A beat with no overlapping segments participates in no outgoing
// edges, signaled by a negative return.
func BeatDistance(a *Analysis, q1, q2 *Beat) float64 {
	if len(q1.OverlappingSegments) == 0 {
		return -1
	}

	total := 0.0
	for i, segIdx1 := range q1.OverlappingSegments {
		if i >= len(q2.OverlappingSegments) {
			total += missingSegmentPenalty
			continue
		}
		s1 := &a.Segments[segIdx1]
		s2 := &a.Segments[q2.OverlappingSegments[i]]
		total += SegmentDistance(s1, s2)
	}

	dist := total / float64(len(q1.OverlappingSegments))
	if q1.IndexInParent != q2.IndexInParent {
		dist += parentMismatchPenalty
	}
	return dist
}
