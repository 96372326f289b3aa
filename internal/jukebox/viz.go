package jukebox

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// VizBeat is the read-only beat projection served to a visualization
// consumer (§4.8).
type VizBeat struct {
	Index    int     `json:"index"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// VizEdge is one deduplicated, non-deleted live edge.
type VizEdge struct {
	Src  int `json:"src"`
	Dest int `json:"dest"`
}

// VisualizationData is a pure read-only snapshot of the beat/edge graph
// suitable for rendering (§4.8). The engine does not own layout; it only
// publishes this data.
type VisualizationData struct {
	Beats []VizBeat `json:"beats"`
	Edges []VizEdge `json:"edges"`
}

// edgeKey uniquely identifies an edge by its endpoints, used to dedupe
// the live edge set regardless of how many times a (src,dest) pair was
// independently discovered as a candidate.
type edgeKey struct {
	Src  int
	Dest int
}

// GetVisualizationData builds the beats + deduplicated live edges view
// (§4.8). Deduplication uses a set keyed by (src,dest) so the same pair
// surfaced by multiple candidate edges only renders once.
func GetVisualizationData(a *Analysis, g *Graph) VisualizationData {
	beats := make([]VizBeat, len(a.Beats))
	for i, b := range a.Beats {
		beats[i] = VizBeat{Index: b.Index, Start: b.Start, Duration: b.Duration}
	}

	seen := mapset.NewThreadUnsafeSet[edgeKey]()
	var edges []VizEdge
	for i := range a.Beats {
		for _, edgeIdx := range a.Beats[i].Neighbors {
			e := &g.Edges[edgeIdx]
			if e.Deleted {
				continue
			}
			key := edgeKey{Src: e.Src, Dest: e.Dest}
			if seen.Contains(key) {
				continue
			}
			seen.Add(key)
			edges = append(edges, VizEdge{Src: e.Src, Dest: e.Dest})
		}
	}

	return VisualizationData{Beats: beats, Edges: edges}
}
