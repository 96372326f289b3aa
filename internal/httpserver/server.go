// Package httpserver exposes the jukebox engine over HTTP: load an
// analysis, drive playback, inspect and edit the similarity graph, and
// serve a small debug visualization page.
package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/nzoschke/jukebox/internal/jukebox"
)

// tickInterval is how often the server drives the engine's single
// logical task forward (§5). The driver's own beat-window arithmetic,
// not this interval, determines advance/jump precision.
const tickInterval = 20 * time.Millisecond

// Server wires an Engine to an Echo HTTP API and a background tick loop.
type Server struct {
	echo   *echo.Echo
	engine *jukebox.Engine
	stopCh chan struct{}
}

// New builds a Server around engine. debugAssetsDir is the directory
// containing the debug visualization page's static assets (served
// under /debug/src); it may be empty if no assets are present.
func New(engine *jukebox.Engine, debugAssetsDir string) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{echo: e, engine: engine, stopCh: make(chan struct{})}

	e.GET("/debug", s.serveDebugPage)
	if debugAssetsDir != "" {
		e.Static("/debug/src", debugAssetsDir)
	}

	e.POST("/api/analysis", s.loadAnalysis)
	e.GET("/api/visualization", s.visualization)
	e.GET("/api/state", s.state)

	e.POST("/api/jukebox/start", s.startJukebox)
	e.POST("/api/jukebox/stop", s.stopJukebox)
	e.POST("/api/jukebox/play", s.play)
	e.POST("/api/jukebox/pause", s.pause)
	e.POST("/api/jukebox/seek", s.seek)
	e.POST("/api/jukebox/force-branch", s.forceBranch)

	e.DELETE("/api/edges/:src/:dest", s.deleteEdge)
	e.POST("/api/edges/clear-deleted", s.clearDeletedEdges)

	e.POST("/api/config", s.updateConfig)

	return s
}

// Start runs the tick loop in the background and blocks serving addr
// until the server is closed.
func (s *Server) Start(addr string) error {
	go s.tickLoop()
	return s.echo.Start(addr)
}

// Close stops the tick loop and the HTTP server.
func (s *Server) Close() error {
	close(s.stopCh)
	return s.echo.Close()
}

func (s *Server) tickLoop() {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.engine.Tick()
		case <-s.stopCh:
			return
		}
	}
}

func (s *Server) serveDebugPage(c echo.Context) error {
	return c.HTML(http.StatusOK, debugPageHTML)
}

func (s *Server) loadAnalysis(c echo.Context) error {
	var raw jukebox.RawAnalysis
	if err := json.NewDecoder(c.Request().Body).Decode(&raw); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid analysis payload: "+err.Error())
	}
	s.engine.LoadAnalysis(raw)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) visualization(c echo.Context) error {
	return c.JSON(http.StatusOK, s.engine.GetVisualizationData())
}

// stateResponse mirrors jukebox.UpdateEvent for the polling /api/state endpoint.
type stateResponse struct {
	CurrentBeatIndex      int      `json:"current_beat_index"`
	BeatsPlayed           int      `json:"beats_played"`
	CurrentTime           float64  `json:"current_time"`
	LastJumped            bool     `json:"last_jumped"`
	LastJumpFromIndex     *int     `json:"last_jump_from_index,omitempty"`
	LastJumpTime          *float64 `json:"last_jump_time,omitempty"`
	CurrentThreshold      int      `json:"current_threshold"`
	LastBranchPoint       int      `json:"last_branch_point"`
	CurRandomBranchChance float64  `json:"cur_random_branch_chance"`
}

func (s *Server) state(c echo.Context) error {
	var captured jukebox.UpdateEvent
	done := make(chan struct{})
	id := s.engine.OnUpdate(func(ev jukebox.UpdateEvent) {
		captured = ev
		close(done)
	})
	defer s.engine.Unsubscribe(id)

	s.engine.Tick()
	<-done

	return c.JSON(http.StatusOK, stateResponse{
		CurrentBeatIndex:      captured.CurrentBeatIndex,
		BeatsPlayed:           captured.BeatsPlayed,
		CurrentTime:           captured.CurrentTime,
		LastJumped:            captured.LastJumped,
		LastJumpFromIndex:     captured.LastJumpFromIndex,
		LastJumpTime:          captured.LastJumpTime,
		CurrentThreshold:      captured.CurrentThreshold,
		LastBranchPoint:       captured.LastBranchPoint,
		CurRandomBranchChance: captured.CurRandomBranchChance,
	})
}

func (s *Server) startJukebox(c echo.Context) error {
	if err := s.engine.StartJukebox(); err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) stopJukebox(c echo.Context) error {
	s.engine.StopJukebox()
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) play(c echo.Context) error {
	s.engine.Play()
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) pause(c echo.Context) error {
	s.engine.Pause()
	return c.NoContent(http.StatusNoContent)
}

type seekRequest struct {
	Index *int     `json:"index,omitempty"`
	Time  *float64 `json:"time,omitempty"`
}

func (s *Server) seek(c echo.Context) error {
	var req seekRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid seek payload: "+err.Error())
	}
	switch {
	case req.Index != nil:
		if err := s.engine.SeekIndex(*req.Index); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	case req.Time != nil:
		s.engine.SeekTime(*req.Time)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "seek requires index or time")
	}
	return c.NoContent(http.StatusNoContent)
}

type forceBranchRequest struct {
	Force bool `json:"force"`
}

func (s *Server) forceBranch(c echo.Context) error {
	var req forceBranchRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid force-branch payload: "+err.Error())
	}
	s.engine.SetForceBranch(req.Force)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) deleteEdge(c echo.Context) error {
	src, err := parseBeatIndexParam(c, "src")
	if err != nil {
		return err
	}
	dest, err := parseBeatIndexParam(c, "dest")
	if err != nil {
		return err
	}
	s.engine.DeleteEdge(src, dest)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) clearDeletedEdges(c echo.Context) error {
	s.engine.ClearDeletedEdges()
	return c.NoContent(http.StatusNoContent)
}

type configRequest struct {
	MaxBranches              *int     `json:"max_branches,omitempty"`
	MaxBranchThreshold       *int     `json:"max_branch_threshold,omitempty"`
	CurrentThreshold         *int     `json:"current_threshold,omitempty"`
	AddLastEdge              *bool    `json:"add_last_edge,omitempty"`
	JustBackwards            *bool    `json:"just_backwards,omitempty"`
	JustLongBranches         *bool    `json:"just_long_branches,omitempty"`
	RemoveSequentialBranches *bool    `json:"remove_sequential_branches,omitempty"`
	MinRandomBranchChance    *float64 `json:"min_random_branch_chance,omitempty"`
	MaxRandomBranchChance    *float64 `json:"max_random_branch_chance,omitempty"`
	RandomBranchChanceDelta  *float64 `json:"random_branch_chance_delta,omitempty"`
	Rebuild                  bool     `json:"rebuild"`
}

func (s *Server) updateConfig(c echo.Context) error {
	var req configRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid config payload: "+err.Error())
	}

	s.engine.UpdateConfig(func(cfg *jukebox.EngineConfig) {
		if req.MaxBranches != nil {
			cfg.MaxBranches = *req.MaxBranches
		}
		if req.MaxBranchThreshold != nil {
			cfg.MaxBranchThreshold = *req.MaxBranchThreshold
		}
		if req.CurrentThreshold != nil {
			cfg.CurrentThreshold = *req.CurrentThreshold
		}
		if req.AddLastEdge != nil {
			cfg.AddLastEdge = *req.AddLastEdge
		}
		if req.JustBackwards != nil {
			cfg.JustBackwards = *req.JustBackwards
		}
		if req.JustLongBranches != nil {
			cfg.JustLongBranches = *req.JustLongBranches
		}
		if req.RemoveSequentialBranches != nil {
			cfg.RemoveSequentialBranches = *req.RemoveSequentialBranches
		}
		if req.MinRandomBranchChance != nil {
			cfg.MinRandomBranchChance = *req.MinRandomBranchChance
		}
		if req.MaxRandomBranchChance != nil {
			cfg.MaxRandomBranchChance = *req.MaxRandomBranchChance
		}
		if req.RandomBranchChanceDelta != nil {
			cfg.RandomBranchChanceDelta = *req.RandomBranchChanceDelta
		}
	})

	if req.Rebuild {
		if err := s.engine.RebuildGraph(); err != nil {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
	}
	return c.NoContent(http.StatusNoContent)
}

func parseBeatIndexParam(c echo.Context, name string) (int, error) {
	var v int
	if _, err := fmt.Sscan(c.Param(name), &v); err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name+" parameter")
	}
	return v, nil
}
