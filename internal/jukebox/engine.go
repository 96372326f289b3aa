package jukebox

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrNotLoaded is returned by engine operations that require an analysis
// to already be loaded (§7).
var ErrNotLoaded = errors.New("jukebox: no analysis loaded")

// deletedKey identifies a user-deleted edge by its beat endpoints, kept
// across rebuilds (§4.6 deleteEdge/§5 ordering guarantees).
type deletedKey struct {
	src  int
	dest int
}

// Engine is the facade over the normalizer, graph builder, selector and
// driver (§4.6). All public methods are expected to run on the host's
// single logical task (§5); Engine itself performs no internal locking
// beyond guarding the subscriber list, which may be read from a
// different goroutine delivering Player callbacks.
type Engine struct {
	config EngineConfig
	rng    Source

	analysis *Analysis
	graph    *Graph
	driver   *Driver
	player   Player

	deleted map[deletedKey]bool

	mu          sync.Mutex
	subscribers map[uuid.UUID]func(UpdateEvent)
}

// NewEngine creates an Engine with cfg and the given Player/RNG.
func NewEngine(player Player, rng Source, cfg EngineConfig) *Engine {
	return &Engine{
		config:      cfg,
		rng:         rng,
		player:      player,
		deleted:     make(map[deletedKey]bool),
		subscribers: make(map[uuid.UUID]func(UpdateEvent)),
	}
}

// LoadAnalysis normalizes raw, builds the graph, reapplies any
// previously user-deleted edges, and resets runtime state (§4.6).
func (e *Engine) LoadAnalysis(raw RawAnalysis) {
	e.analysis = Normalize(raw)
	e.rebuildLocked()
	e.notify(0, false, nil, nil)
}

// RebuildGraph rebuilds the graph with the current config, resets the
// branch ramp, and reapplies deleted-edge keys (§4.6).
func (e *Engine) RebuildGraph() error {
	if e.analysis == nil {
		return ErrNotLoaded
	}
	e.rebuildLocked()
	return nil
}

func (e *Engine) rebuildLocked() {
	e.graph = BuildGraph(e.analysis, &e.config)
	e.reapplyDeletions()

	e.driver = &Driver{
		Beats:  e.analysis.Beats,
		Graph:  e.graph,
		Config: &e.config,
		Player: e.player,
		RNG:    e.rng,
		Branch: &BranchState{CurRandomBranchChance: e.config.MinRandomBranchChance},
	}
	e.driver.Reset()
}

// reapplyDeletions marks edges matching a previously deleted (src,dest)
// key as Deleted and strips them from neighbor lists, so deletions
// survive a rebuild (§4.6, §5 ordering guarantees).
func (e *Engine) reapplyDeletions() {
	if len(e.deleted) == 0 {
		return
	}
	for i := range e.graph.Edges {
		edge := &e.graph.Edges[i]
		if e.deleted[deletedKey{edge.Src, edge.Dest}] {
			edge.Deleted = true
		}
	}
	for i := range e.analysis.Beats {
		beat := &e.analysis.Beats[i]
		kept := beat.Neighbors[:0]
		for _, idx := range beat.Neighbors {
			if !e.graph.Edges[idx].Deleted {
				kept = append(kept, idx)
			}
		}
		beat.Neighbors = kept
	}
}

// UpdateConfig shallow-merges partial into the current config. No
// rebuild is triggered; callers rebuild when necessary (§4.6).
func (e *Engine) UpdateConfig(apply func(*EngineConfig)) {
	apply(&e.config)
}

// Config returns a copy of the current config.
func (e *Engine) Config() EngineConfig { return e.config }

// StartJukebox resets runtime state and positions the driver at the
// first beat (§4.6). The engine holds no timer of its own: playback
// advances only while the host calls Tick.
func (e *Engine) StartJukebox() error {
	if e.analysis == nil {
		return ErrNotLoaded
	}
	e.driver.Reset()
	e.driver.currentBeatIndex = none
	if len(e.analysis.Beats) > 0 {
		e.driver.currentBeatIndex = 0
		e.driver.nextTransitionTime = e.analysis.Beats[0].End()
	}
	return nil
}

// StopJukebox stops the player, which cancels any scheduled jump
// (§4.6, §5). It does not stop the host's tick loop; later Tick calls
// idle because the player no longer reports playing.
func (e *Engine) StopJukebox() {
	e.player.Stop()
}

// Play delegates to the Player.
func (e *Engine) Play() { e.player.Play() }

// Pause delegates to the Player.
func (e *Engine) Pause() { e.player.Pause() }

// SeekIndex seeks the player to the start of beats[index].
func (e *Engine) SeekIndex(index int) error {
	if e.analysis == nil {
		return ErrNotLoaded
	}
	if index < 0 || index >= len(e.analysis.Beats) {
		return errors.New("jukebox: beat index out of range")
	}
	e.player.Seek(e.analysis.Beats[index].Start)
	return nil
}

// SeekTime seeks the player to a raw time.
func (e *Engine) SeekTime(t float64) { e.player.Seek(t) }

// DeleteEdge marks (src,dest) and its reverse as deleted, removes it from
// both beats' neighbor lists, and marks the matching Graph edge(s)
// deleted so the deletion survives a rebuild (§4.6). A foreign or
// already-deleted edge is a no-op (§7 EdgeNotFound).
func (e *Engine) DeleteEdge(src, dest int) {
	e.deleted[deletedKey{src, dest}] = true
	e.deleted[deletedKey{dest, src}] = true

	if e.graph == nil {
		return
	}
	for i := range e.graph.Edges {
		edge := &e.graph.Edges[i]
		if (edge.Src == src && edge.Dest == dest) || (edge.Src == dest && edge.Dest == src) {
			edge.Deleted = true
		}
	}
	for i := range e.analysis.Beats {
		beat := &e.analysis.Beats[i]
		kept := beat.Neighbors[:0]
		for _, idx := range beat.Neighbors {
			if !e.graph.Edges[idx].Deleted {
				kept = append(kept, idx)
			}
		}
		beat.Neighbors = kept
	}
}

// ClearDeletedEdges forgets all user deletions (§4.6).
func (e *Engine) ClearDeletedEdges() {
	e.deleted = make(map[deletedKey]bool)
}

// SetForceBranch overrides the selector to force a branch on the next
// advance (§4.6).
func (e *Engine) SetForceBranch(force bool) {
	if e.driver != nil {
		e.driver.ForceBranch = force
	}
}

// GetBeatAtTime returns the beat index whose interval contains t, or
// none (§4.6).
func (e *Engine) GetBeatAtTime(t float64) int {
	if e.analysis == nil {
		return none
	}
	return GetBeatAtTime(e.analysis.Beats, t)
}

// GetVisualizationData returns the current read-only viz projection (§4.8).
func (e *Engine) GetVisualizationData() VisualizationData {
	if e.analysis == nil || e.graph == nil {
		return VisualizationData{}
	}
	return GetVisualizationData(e.analysis, e.graph)
}

// OnUpdate subscribes fn to RuntimeState notifications and returns a
// token that Unsubscribe accepts.
func (e *Engine) OnUpdate(fn func(UpdateEvent)) uuid.UUID {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := uuid.New()
	e.subscribers[id] = fn
	return id
}

// Unsubscribe removes a previously registered OnUpdate listener.
func (e *Engine) Unsubscribe(id uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.subscribers, id)
}

// Tick drives one playback tick (§4.5) and fires onUpdate.
func (e *Engine) Tick() {
	if e.driver == nil {
		return
	}
	e.driver.Tick()

	_, played, jumped, from, jumpTime := e.driver.Snapshot()
	e.notify(played, jumped, from, jumpTime)
}

func (e *Engine) notify(beatsPlayed int, jumped bool, from *int, jumpTime *float64) {
	if e.analysis == nil || e.driver == nil {
		return
	}
	event := UpdateEvent{
		CurrentBeatIndex:      e.driver.currentBeatIndex,
		BeatsPlayed:           beatsPlayed,
		CurrentTime:           e.player.GetCurrentTime(),
		LastJumped:            jumped,
		LastJumpFromIndex:     from,
		LastJumpTime:          jumpTime,
		CurrentThreshold:      e.graph.CurrentThreshold,
		LastBranchPoint:       e.graph.LastBranchPoint,
		CurRandomBranchChance: e.driver.Branch.CurRandomBranchChance,
	}

	e.mu.Lock()
	listeners := make([]func(UpdateEvent), 0, len(e.subscribers))
	for _, fn := range e.subscribers {
		listeners = append(listeners, fn)
	}
	e.mu.Unlock()

	for _, fn := range listeners {
		fn(event)
	}
}

// Analysis returns the currently loaded analysis, or nil.
func (e *Engine) Analysis() *Analysis { return e.analysis }

// Graph returns the current graph, or nil.
func (e *Engine) Graph() *Graph { return e.graph }
