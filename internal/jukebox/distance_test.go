package jukebox

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSegmentDistanceIdenticalIsZero(t *testing.T) {
	s := &Segment{Pitches: [12]float64{1, 2, 3}, Timbre: [12]float64{4, 5, 6}, LoudnessStart: -10, LoudnessMax: -5, Duration: 0.2, Confidence: 0.9}
	assert.Equal(t, 0.0, SegmentDistance(s, s))
}

func TestSegmentDistanceWeightsDuration(t *testing.T) {
	a := &Segment{Duration: 0.2}
	b := &Segment{Duration: 0.3}
	c := &Segment{Duration: 0.2, LoudnessStart: 1}

	distDuration := SegmentDistance(a, b)
	distLoudness := SegmentDistance(a, c)
	assert.Greater(t, distDuration, distLoudness)
}

func TestBeatDistanceNoOverlappingSegmentsIsNegative(t *testing.T) {
	a := &Analysis{}
	q1 := &Beat{}
	q2 := &Beat{}
	assert.Equal(t, -1.0, BeatDistance(a, q1, q2))
}

func TestBeatDistancePenalizesMissingSegments(t *testing.T) {
	a := &Analysis{Segments: []Segment{{}, {}}}
	q1 := &Beat{OverlappingSegments: []int{0, 1}}
	q2 := &Beat{OverlappingSegments: []int{0}}

	dist := BeatDistance(a, q1, q2)
	assert.Equal(t, missingSegmentPenalty/2.0, dist)
}

func TestBeatDistancePenalizesParentMismatch(t *testing.T) {
	a := &Analysis{Segments: []Segment{{}}}
	q1 := &Beat{OverlappingSegments: []int{0}, IndexInParent: 0}
	q2 := &Beat{OverlappingSegments: []int{0}, IndexInParent: 1}

	dist := BeatDistance(a, q1, q2)
	assert.Equal(t, parentMismatchPenalty, dist)
}
