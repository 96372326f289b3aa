package jukebox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoGroupAnalysis builds n beats split into two similarity groups (first
// half, second half), each beat carrying exactly one overlapping segment
// so BeatDistance reduces to a single SegmentDistance call. Within-group
// pairs are identical (distance 0); cross-group pairs differ by delta on
// Timbre[0] (L2 distance of delta, weighted by weightTimbre).
func twoGroupAnalysis(n int, delta float64) *Analysis {
	a := &Analysis{}
	for i := 0; i < n; i++ {
		group := 0.0
		if i >= n/2 {
			group = delta
		}
		a.Segments = append(a.Segments, Segment{Timbre: [12]float64{group}, Index: i})
		a.Beats = append(a.Beats, Beat{
			Quantum:             Quantum{Start: float64(i), Duration: 1, Index: i},
			OverlappingSegments: []int{i},
		})
	}
	return a
}

func TestBuildGraphEmptyAnalysis(t *testing.T) {
	a := &Analysis{}
	cfg := DefaultConfig()
	g := BuildGraph(a, &cfg)
	assert.Equal(t, 0, g.TotalBeats)
	assert.Empty(t, g.Edges)
}

func TestBuildGraphNoSelfEdgesAndBoundedPool(t *testing.T) {
	a := twoGroupAnalysis(6, 1)
	cfg := DefaultConfig()
	cfg.MaxBranches = 2
	g := BuildGraph(a, &cfg)

	require.Equal(t, 6, g.TotalBeats)
	for i := range a.Beats {
		assert.LessOrEqual(t, len(a.Beats[i].AllNeighbors), cfg.MaxBranches)
		for _, idx := range a.Beats[i].AllNeighbors {
			e := g.Edges[idx]
			assert.NotEqual(t, e.Src, e.Dest)
		}
	}
}

func TestBuildGraphAdaptiveThresholdFindsLowestQualifyingStep(t *testing.T) {
	// Within-group distance is 0, cross-group distance is 1*weightTimbre.
	// thresholdFloor=10 already captures both groups, so the search should
	// stop at the floor rather than climbing to MaxBranchThreshold.
	a := twoGroupAnalysis(6, 1)
	cfg := DefaultConfig()
	g := BuildGraph(a, &cfg)

	assert.Equal(t, thresholdFloor, g.CurrentThreshold)
}

func TestBuildGraphRespectsExplicitCurrentThreshold(t *testing.T) {
	a := twoGroupAnalysis(6, 1)
	cfg := DefaultConfig()
	cfg.CurrentThreshold = 42
	g := BuildGraph(a, &cfg)

	assert.Equal(t, 42, g.CurrentThreshold)
	assert.Equal(t, 42, g.ComputedThreshold)
}

func TestBuildGraphJustBackwardsKeepsOnlyDestBeforeSrc(t *testing.T) {
	a := twoGroupAnalysis(6, 1)
	cfg := DefaultConfig()
	cfg.JustBackwards = true
	g := BuildGraph(a, &cfg)

	for i := range a.Beats {
		for _, edgeIdx := range a.Beats[i].Neighbors {
			e := g.Edges[edgeIdx]
			assert.Less(t, e.Dest, e.Src)
		}
	}
}

func TestSameOverlappingSegmentSkipsIdenticalInstant(t *testing.T) {
	q1 := &Beat{OverlappingSegments: []int{5}}
	q2 := &Beat{OverlappingSegments: []int{5}}
	assert.True(t, sameOverlappingSegment(q1, q2))

	q3 := &Beat{OverlappingSegments: []int{6}}
	assert.False(t, sameOverlappingSegment(q1, q3))

	q4 := &Beat{}
	assert.False(t, sameOverlappingSegment(q1, q4))
}

func TestFilterByTerminalDropsEdgesReachingPastLastBranchPoint(t *testing.T) {
	a := &Analysis{Beats: []Beat{
		{Quantum: Quantum{Index: 0}, Neighbors: []int{0, 1}},
		{Quantum: Quantum{Index: 1}},
		{Quantum: Quantum{Index: 2}},
	}}
	g := &Graph{
		Edges: []Edge{
			{ID: 0, Src: 0, Dest: 1},
			{ID: 1, Src: 0, Dest: 2},
		},
		LastBranchPoint: 2,
	}

	filterByTerminal(a, g)
	assert.Equal(t, []int{0}, a.Beats[0].Neighbors)
}

func TestFilterSequentialExemptsLastBranchPoint(t *testing.T) {
	a := &Analysis{Beats: []Beat{
		{Quantum: Quantum{Index: 0}, Neighbors: []int{0}},
		{Quantum: Quantum{Index: 1}, Neighbors: []int{1}},
	}}
	g := &Graph{
		Edges: []Edge{
			{ID: 0, Src: 0, Dest: 5}, // delta -5
			{ID: 1, Src: 1, Dest: 6}, // delta -5, duplicates beat 0's delta
		},
		LastBranchPoint: 0,
	}

	filterSequential(a, g)
	// beat 0 is the LastBranchPoint and must be exempt even though its
	// only edge's delta duplicates beat 1's.
	assert.Equal(t, []int{0}, a.Beats[0].Neighbors)
}

func TestFilterSequentialDropsDuplicateDelta(t *testing.T) {
	a := &Analysis{Beats: []Beat{
		{Quantum: Quantum{Index: 0}, Neighbors: []int{0}},
		{Quantum: Quantum{Index: 1}, Neighbors: []int{1}},
	}}
	g := &Graph{
		Edges: []Edge{
			{ID: 0, Src: 0, Dest: 5},
			{ID: 1, Src: 1, Dest: 6},
		},
		LastBranchPoint: none,
	}

	filterSequential(a, g)
	assert.Empty(t, a.Beats[0].Neighbors)
}

func TestHasLongBackwardEdge(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinLongBranch = 3
	g := &Graph{Edges: []Edge{{Src: 10, Dest: 2}, {Src: 10, Dest: 9}}}
	beat := &Beat{Neighbors: []int{0}}
	assert.True(t, hasLongBackwardEdge(nil, g, beat, &cfg))

	beatShort := &Beat{Neighbors: []int{1}}
	assert.False(t, hasLongBackwardEdge(nil, g, beatShort, &cfg))
}

func TestInsertAnchorAddsRelaxedLongBackwardEdge(t *testing.T) {
	n := 20
	a := &Analysis{Beats: make([]Beat, n)}
	for i := range a.Beats {
		a.Beats[i] = Beat{Quantum: Quantum{Index: i}}
	}
	// No beat currently has a backward edge long enough to clear 50% of
	// the track, so insertAnchor must inject one.
	a.Beats[19].AllNeighbors = []int{0}
	g := &Graph{
		TotalBeats:       n,
		CurrentThreshold: 10,
		Edges:            []Edge{{ID: 0, Src: 19, Dest: 0, Distance: 60}},
	}
	cfg := DefaultConfig()

	insertAnchor(a, g, &cfg)
	assert.Equal(t, []int{0}, a.Beats[19].Neighbors)
}

func TestInsertAnchorNoopWhenLongBranchAlreadyExists(t *testing.T) {
	n := 10
	a := &Analysis{Beats: make([]Beat, n)}
	for i := range a.Beats {
		a.Beats[i] = Beat{Quantum: Quantum{Index: i}}
	}
	a.Beats[9].Neighbors = []int{0}
	a.Beats[9].AllNeighbors = []int{0}
	g := &Graph{
		TotalBeats:       n,
		CurrentThreshold: 10,
		Edges:            []Edge{{ID: 0, Src: 9, Dest: 0, Distance: 5}}, // spans 90% already
	}
	cfg := DefaultConfig()

	insertAnchor(a, g, &cfg)
	assert.Equal(t, []int{0}, a.Beats[9].Neighbors) // unchanged, no duplicate append
}
