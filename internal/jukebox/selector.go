package jukebox

// SelectResult is the outcome of a single Select call (§4.4).
type SelectResult struct {
	NextIndex int
	Jumped    bool
}

// Select decides, at a beat boundary, whether to jump and which
// surviving edge to take (§4.4). It mutates seed.Neighbors by rotating
// the chosen edge to the tail (round-robin fairness) and mutates
// branch.CurRandomBranchChance per the ramp rule.
func Select(seed *Beat, g *Graph, cfg *EngineConfig, rng Source, branch *BranchState, forceBranch bool) SelectResult {
	if len(seed.Neighbors) == 0 {
		return SelectResult{NextIndex: seed.Index, Jumped: false}
	}

	branching := false
	switch {
	case seed.Index == g.LastBranchPoint:
		branching = true
	case forceBranch:
		branching = true
	default:
		branch.CurRandomBranchChance += cfg.RandomBranchChanceDelta
		if branch.CurRandomBranchChance > cfg.MaxRandomBranchChance {
			branch.CurRandomBranchChance = cfg.MaxRandomBranchChance
		}
		if branch.CurRandomBranchChance < cfg.MinRandomBranchChance {
			branch.CurRandomBranchChance = cfg.MinRandomBranchChance
		}
		if rng() < branch.CurRandomBranchChance {
			branching = true
			branch.CurRandomBranchChance = cfg.MinRandomBranchChance
		}
	}

	if !branching {
		return SelectResult{NextIndex: seed.Index, Jumped: false}
	}

	edgeIdx := seed.Neighbors[0]
	seed.Neighbors = append(seed.Neighbors[1:], edgeIdx)
	dest := g.Edges[edgeIdx].Dest

	return SelectResult{NextIndex: dest, Jumped: dest != seed.Index}
}
