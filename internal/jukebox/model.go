// Package jukebox implements the Infinite Jukebox engine: a similarity
// graph over a track's beats and a beat-synchronous playback driver that
// jumps between acoustically similar beats so a track can loop forever
// without audible repetition.
package jukebox

// none is the sentinel used for absent prev/next/parent links, matching
// the teacher's habit of returning a zero value plus an ok/err signal
// rather than a pointer; here a plain int index keeps the arena
// allocation-free and serialization-friendly (spec.md §9).
const none = -1

// Quantum is the common shape of a section, bar, beat or tatum entry
// before any level-specific fields are attached.
type Quantum struct {
	Start      float64
	Duration   float64
	Confidence float64
	Index      int
	Prev       int
	Next       int
}

// End returns the exclusive end time of the quantum's interval.
func (q Quantum) End() float64 { return q.Start + q.Duration }

// Contains reports whether t falls in [Start, Start+Duration).
func (q Quantum) Contains(t float64) bool {
	return t >= q.Start && t < q.End()
}

// Section is the coarsest level of the hierarchy (section ⊃ bar ⊃ beat ⊃ tatum).
type Section struct {
	Quantum
	Children []int // bar indices, ordered
}

// Bar is a section's child and a beat's parent.
type Bar struct {
	Quantum
	Parent        int // section index, or none
	IndexInParent int
	Children      []int // beat indices, ordered
}

// Tatum is a beat's child, the finest rhythmic subdivision tracked.
type Tatum struct {
	Quantum
	Parent        int // beat index, or none
	IndexInParent int
}

// Beat is the unit of playback: the jukebox advances and jumps beat by beat.
type Beat struct {
	Quantum
	Parent               int   // bar index, or none
	IndexInParent        int   // offset within the parent bar
	Children             []int // tatum indices, ordered
	OverlappingSegments  []int // segment indices whose interval intersects this beat
	Neighbors            []int // edge indices currently usable for jumping (§4.3 filtered pool)
	AllNeighbors         []int // edge indices: the full top-K candidate pool before filtering
	Reach                int   // furthest beat reachable via sequential advance + jumps
}

// Segment is a fine-grained (~50-300ms) analysis window carrying
// timbre/pitch feature vectors, consumed by the Feature Distance metric.
type Segment struct {
	Start            float64
	Duration         float64
	Confidence       float64
	LoudnessStart    float64
	LoudnessMax      float64
	LoudnessMaxTime  float64
	Pitches          [12]float64
	Timbre           [12]float64
	Index            int
}

// End returns the exclusive end time of the segment's interval.
func (s Segment) End() float64 { return s.Start + s.Duration }

// Analysis is the normalized, navigable form of a track's analysis
// payload: every quantum array is sorted, densely indexed, and linked
// into its parent/child hierarchy (§4.1). Analysis is owned by the
// engine's current track and is replaced wholesale on each loadAnalysis.
type Analysis struct {
	Sections []Section
	Bars     []Bar
	Beats    []Beat
	Tatums   []Tatum
	Segments []Segment
	Track    TrackInfo
}

// TrackInfo carries the optional descriptive fields from the analysis
// payload's "track" object (§6).
type TrackInfo struct {
	Title         string
	Artist        string
	Duration      float64
	Tempo         float64
	TimeSignature int
}

// Edge is a directed candidate jump between two beats of the same
// analysis. Edges are owned by the Graph, not by Analysis: they are
// rebuilt on loadAnalysis, rebuildGraph, or a tunable-triggered rebuild,
// and survive independently of a beat's lifecycle.
type Edge struct {
	ID       int
	Src      int // beat index
	Dest     int // beat index
	Distance float64
	Deleted  bool
}

// Graph is the mutable beat/edge graph produced by BuildGraph (§4.3) and
// subsequently mutated only by DeleteEdge and by neighbor rotation
// during playback (§5).
type Graph struct {
	Edges []Edge

	ComputedThreshold int
	CurrentThreshold  int
	LastBranchPoint   int
	TotalBeats        int
	LongestReach      int
}

// EngineConfig holds the tunables described in spec.md §3. Zero-value
// EngineConfig is not valid; use DefaultConfig.
type EngineConfig struct {
	MaxBranches              int
	MaxBranchThreshold       int
	CurrentThreshold         int // 0 = auto
	AddLastEdge              bool
	JustBackwards            bool
	JustLongBranches         bool
	RemoveSequentialBranches bool
	MinRandomBranchChance    float64
	MaxRandomBranchChance    float64
	RandomBranchChanceDelta  float64
	MinLongBranch            int // derived = totalBeats/5, set by loadAnalysis/rebuildGraph
}

// DefaultConfig returns the spec.md §3 documented defaults. Values with
// no documented default (the random-branch-chance trio) follow the
// original Infinite Jukebox's conservative ramp: start low, climb slowly,
// cap well under certainty so branching stays a surprise rather than a rule.
func DefaultConfig() EngineConfig {
	return EngineConfig{
		MaxBranches:              4,
		MaxBranchThreshold:       80,
		CurrentThreshold:         0,
		AddLastEdge:              true,
		JustBackwards:            false,
		JustLongBranches:         false,
		RemoveSequentialBranches: false,
		MinRandomBranchChance:    0.05,
		MaxRandomBranchChance:    0.5,
		RandomBranchChanceDelta:  0.0025,
	}
}

// BranchState is the probabilistic ramp state threaded through the
// Selector by mutable reference, kept separate from RuntimeState per
// spec.md §9 so the Selector itself stays pure with respect to EngineConfig.
type BranchState struct {
	CurRandomBranchChance float64
}

// RuntimeState is the engine's per-run playback position, reset on
// startJukebox and on loadAnalysis (§3).
type RuntimeState struct {
	CurrentBeatIndex  int
	BeatsPlayed       int
	LastJumped        bool
	LastJumpFromIndex *int
	LastJumpTime      *float64
	Branch            BranchState
}

// UpdateEvent is the payload delivered to OnUpdate subscribers (§6).
type UpdateEvent struct {
	CurrentBeatIndex      int
	BeatsPlayed           int
	CurrentTime           float64
	LastJumped            bool
	LastJumpFromIndex     *int
	LastJumpTime          *float64
	CurrentThreshold      int
	LastBranchPoint       int
	CurRandomBranchChance float64
}
