package jukebox

import "sort"

// thresholdStep and the adaptive search grid (§4.3 step 3).
const thresholdStep = 5
const thresholdFloor = 10

// branchingTargetDivisor and the anchor/long-branch divisor used to
// compute minLongBranch (§3: "derived = totalBeats/5") and the adaptive
// threshold's target branching fraction (§4.3 step 3: "totalBeats/6").
const minLongBranchDivisor = 5
const branchingTargetDivisor = 6

// anchorCeilingTight and anchorCeilingLoose are the relaxed distance
// ceilings used when scanning for an anchor edge to insert (§4.3 step 4).
const anchorCeilingTight = 55.0
const anchorCeilingLoose = 65.0
const anchorLongEnoughPercent = 50.0

// maxReachPasses bounds the reachability fixed-point iteration (§4.3 step 5).
const maxReachPasses = 1000

// BuildGraph constructs the similarity graph for analysis under cfg
// (§4.3). It mutates each beat's Neighbors/AllNeighbors/Reach fields in
// place and returns the new Graph that owns the edge set.
func BuildGraph(a *Analysis, cfg *EngineConfig) *Graph {
	total := len(a.Beats)
	cfg.MinLongBranch = total / minLongBranchDivisor

	g := &Graph{TotalBeats: total}
	if total == 0 {
		return g
	}

	buildCandidatePool(a, g, cfg)

	resolveThreshold(a, g, cfg)

	computeReachability(a, g)
	chooseLastBranchPoint(a, g, cfg)
	filterByTerminal(a, g)

	if cfg.RemoveSequentialBranches {
		filterSequential(a, g)
	}

	if cfg.AddLastEdge {
		insertAnchor(a, g, cfg)
	}

	return g
}

// candidate is a scratch struct used while ranking a beat's pool.
type candidate struct {
	dest     int
	distance float64
}

// buildCandidatePool computes, for every beat, its top-K nearest
// candidate edges under maxBranchThreshold (§4.3 step 1).
func buildCandidatePool(a *Analysis, g *Graph, cfg *EngineConfig) {
	nextID := 0
	for i := range a.Beats {
		q1 := &a.Beats[i]
		q1.AllNeighbors = nil
		if len(q1.OverlappingSegments) == 0 {
			continue
		}

		var pool []candidate
		for j := range a.Beats {
			if i == j {
				continue
			}
			q2 := &a.Beats[j]
			if sameOverlappingSegment(q1, q2) {
				continue
			}
			dist := BeatDistance(a, q1, q2)
			if dist < 0 || dist >= float64(cfg.MaxBranchThreshold) {
				continue
			}
			pool = append(pool, candidate{dest: j, distance: dist})
		}

		sort.Slice(pool, func(x, y int) bool { return pool[x].distance < pool[y].distance })
		if len(pool) > cfg.MaxBranches {
			pool = pool[:cfg.MaxBranches]
		}

		for _, c := range pool {
			id := nextID
			nextID++
			g.Edges = append(g.Edges, Edge{ID: id, Src: i, Dest: c.dest, Distance: c.distance})
			q1.AllNeighbors = append(q1.AllNeighbors, len(g.Edges)-1)
		}
	}
}

// sameOverlappingSegment reports whether q1 and q2's first overlapping
// segment is literally the same segment, in which case the pair is
// skipped when building candidate edges — they describe the same instant
// of audio, so a "jump" between them is not a jump at all (§4.3 step 1).
func sameOverlappingSegment(q1, q2 *Beat) bool {
	if len(q1.OverlappingSegments) == 0 || len(q2.OverlappingSegments) == 0 {
		return false
	}
	return q1.OverlappingSegments[0] == q2.OverlappingSegments[0]
}

// collectNearestNeighbors rebuilds every beat's filtered Neighbors pool
// from AllNeighbors under threshold and cfg (§4.3 step 2), and returns
// the number of beats left with at least one surviving edge.
func collectNearestNeighbors(a *Analysis, g *Graph, threshold int, cfg *EngineConfig) int {
	branching := 0
	for i := range a.Beats {
		beat := &a.Beats[i]
		beat.Neighbors = beat.Neighbors[:0]

		for _, edgeIdx := range beat.AllNeighbors {
			e := &g.Edges[edgeIdx]
			if e.Deleted {
				continue
			}
			if e.Distance > float64(threshold) {
				continue
			}
			if cfg.JustBackwards && e.Dest >= e.Src {
				continue
			}
			if cfg.JustLongBranches && abs(e.Dest-e.Src) < cfg.MinLongBranch {
				continue
			}
			beat.Neighbors = append(beat.Neighbors, edgeIdx)
		}

		if len(beat.Neighbors) > 0 {
			branching++
		}
	}
	return branching
}

// resolveThreshold implements the adaptive threshold search (§4.3 step 3).
func resolveThreshold(a *Analysis, g *Graph, cfg *EngineConfig) {
	if cfg.CurrentThreshold != 0 {
		g.CurrentThreshold = cfg.CurrentThreshold
		g.ComputedThreshold = cfg.CurrentThreshold
		collectNearestNeighbors(a, g, cfg.CurrentThreshold, cfg)
		return
	}

	target := g.TotalBeats / branchingTargetDivisor
	chosen := cfg.MaxBranchThreshold
	found := false
	for t := thresholdFloor; t <= cfg.MaxBranchThreshold; t += thresholdStep {
		branching := collectNearestNeighbors(a, g, t, cfg)
		if branching >= target {
			chosen = t
			found = true
			break
		}
	}
	if !found {
		collectNearestNeighbors(a, g, cfg.MaxBranchThreshold, cfg)
	}
	g.CurrentThreshold = chosen
	g.ComputedThreshold = chosen
}

// computeReachability propagates Reach leftwards until a fixed point or
// maxReachPasses is hit (§4.3 step 5).
func computeReachability(a *Analysis, g *Graph) {
	n := len(a.Beats)
	for i := range a.Beats {
		a.Beats[i].Reach = n - a.Beats[i].Index
	}

	for pass := 0; pass < maxReachPasses; pass++ {
		changed := false
		for i := range a.Beats {
			q := &a.Beats[i]
			best := q.Reach
			if q.Next != none && a.Beats[q.Next].Reach > best {
				best = a.Beats[q.Next].Reach
			}
			for _, edgeIdx := range q.Neighbors {
				dr := a.Beats[g.Edges[edgeIdx].Dest].Reach
				if dr > best {
					best = dr
				}
			}
			if best > q.Reach {
				q.Reach = best
				changed = true
			}
		}
		if !changed {
			break
		}

		// monotone backfill: lift reach of earlier beats with smaller reach
		maxSoFar := 0
		for i := len(a.Beats) - 1; i >= 0; i-- {
			if a.Beats[i].Reach > maxSoFar {
				maxSoFar = a.Beats[i].Reach
			} else if maxSoFar > a.Beats[i].Reach {
				a.Beats[i].Reach = maxSoFar
			}
		}
	}

	longest := 0
	for i := range a.Beats {
		if a.Beats[i].Reach > longest {
			longest = a.Beats[i].Reach
		}
	}
	g.LongestReach = longest
}

// chooseLastBranchPoint walks beats from end to start choosing the
// terminal "safe zone" boundary (§4.3 step 6).
func chooseLastBranchPoint(a *Analysis, g *Graph, cfg *EngineConfig) {
	n := len(a.Beats)
	longestIdx := n - 1
	longestRel := -1.0
	bestLongIdx := none

	for i := n - 1; i >= 0; i-- {
		beat := &a.Beats[i]
		distanceToEnd := n - 1 - i
		rel := float64(beat.Reach-distanceToEnd) * 100.0 / float64(n)
		if len(beat.Neighbors) > 0 && rel > longestRel {
			longestRel = rel
			longestIdx = i
		}
		if bestLongIdx == none && hasLongBackwardEdge(a, g, beat, cfg) {
			bestLongIdx = i
		}
	}

	if bestLongIdx != none {
		g.LastBranchPoint = bestLongIdx
		return
	}
	g.LastBranchPoint = longestIdx
}

// hasLongBackwardEdge reports whether beat has a surviving neighbor edge
// whose span is at least cfg.MinLongBranch.
func hasLongBackwardEdge(a *Analysis, g *Graph, beat *Beat, cfg *EngineConfig) bool {
	for _, edgeIdx := range beat.Neighbors {
		e := &g.Edges[edgeIdx]
		if abs(e.Src-e.Dest) >= cfg.MinLongBranch {
			return true
		}
	}
	return false
}

// filterByTerminal drops edges whose destination lies at or beyond
// lastBranchPoint, for every beat before it (§4.3 step 7).
func filterByTerminal(a *Analysis, g *Graph) {
	for i := 0; i < g.LastBranchPoint && i < len(a.Beats); i++ {
		beat := &a.Beats[i]
		kept := beat.Neighbors[:0]
		for _, edgeIdx := range beat.Neighbors {
			if g.Edges[edgeIdx].Dest < g.LastBranchPoint {
				kept = append(kept, edgeIdx)
			}
		}
		beat.Neighbors = kept
	}
}

// filterSequential drops any edge whose (src-dest) delta duplicates a
// surviving edge's delta at the next beat, scanning end to start. The
// beat at LastBranchPoint is exempt and is never emptied (§4.3 step 8,
// §9 Open Question 2).
func filterSequential(a *Analysis, g *Graph) {
	n := len(a.Beats)
	for i := n - 2; i >= 0; i-- {
		if i == g.LastBranchPoint {
			continue
		}
		beat := &a.Beats[i]
		next := &a.Beats[i+1]

		nextDeltas := make(map[int]bool, len(next.Neighbors))
		for _, edgeIdx := range next.Neighbors {
			e := &g.Edges[edgeIdx]
			nextDeltas[e.Src-e.Dest] = true
		}

		kept := beat.Neighbors[:0]
		for _, edgeIdx := range beat.Neighbors {
			e := &g.Edges[edgeIdx]
			if nextDeltas[e.Src-e.Dest] {
				continue
			}
			kept = append(kept, edgeIdx)
		}
		beat.Neighbors = kept
	}
}

// insertAnchor guarantees at least one long backward jump stays
// available by injecting a relaxed-ceiling anchor edge when the longest
// surviving backward branch is under 50% of the track (§4.3 step 4).
// Once inserted the anchor is sticky: it is appended directly to
// Neighbors after the terminal/sequential filters run, so it is exempt
// from both and survives a later threshold tightening (§9 Open Question 1).
//
// Runs after computeReachability/chooseLastBranchPoint rather than
// before step 5 as §4.3 orders it, so Reach and LastBranchPoint never
// account for the anchor edge itself; this is the tradeoff Open
// Question 1 accepts to keep the anchor exempt from the later filters.
func insertAnchor(a *Analysis, g *Graph, cfg *EngineConfig) {
	n := len(a.Beats)
	if n == 0 {
		return
	}

	longestSpanPercent := 0.0
	for i := range a.Beats {
		for _, edgeIdx := range a.Beats[i].Neighbors {
			e := &g.Edges[edgeIdx]
			if e.Src <= e.Dest {
				continue
			}
			span := float64(e.Src-e.Dest) * 100.0 / float64(n)
			if span > longestSpanPercent {
				longestSpanPercent = span
			}
		}
	}

	if longestSpanPercent >= anchorLongEnoughPercent {
		return
	}

	// spec.md §4.3 step 4 picks ceiling 55 "if existing longest >= 50%"
	// or 65 otherwise — but this line only runs once we already know
	// longestSpanPercent < 50%, so the first branch is vacuous here and
	// the ceiling is always the loose one. Preserved literally.
	relaxedCeiling := anchorCeilingLoose
	if longestSpanPercent >= anchorLongEnoughPercent {
		relaxedCeiling = anchorCeilingTight
	}

	bestBeat, bestEdge, bestSpan := none, none, -1
	for i := range a.Beats {
		for _, edgeIdx := range a.Beats[i].AllNeighbors {
			e := &g.Edges[edgeIdx]
			if e.Deleted {
				continue
			}
			if e.Src <= e.Dest {
				continue
			}
			if e.Distance >= relaxedCeiling {
				continue
			}
			if e.Distance <= float64(g.CurrentThreshold) {
				continue
			}
			span := e.Src - e.Dest
			if span > bestSpan {
				bestSpan = span
				bestBeat = i
				bestEdge = edgeIdx
			}
		}
	}

	if bestBeat == none {
		return
	}
	a.Beats[bestBeat].Neighbors = append(a.Beats[bestBeat].Neighbors, bestEdge)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
