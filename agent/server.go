package agent

import (
	"context"
	"net/http"
	"sync"
	"time"

	"isolation/game/isolation"
	"isolation/meta"
	"isolation/searcher"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
)

// ActionRequest asks for a move on board within TimeLimitMs milliseconds.
type ActionRequest struct {
	Board       *isolation.Board `json:"board" binding:"required"`
	TimeLimitMs int              `json:"time_limit_ms" binding:"omitempty,min=1,max=60000"`
}

type ActionResponse struct {
	RequestID string                                 `json:"request_id"`
	Action    isolation.Action                       `json:"action"`
	Cell      string                                 `json:"cell"`
	Stats     []searcher.ChildStat[isolation.Action] `json:"stats,omitempty"`
}

type ErrorResponse struct {
	RequestID string `json:"request_id"`
	Error     string `json:"error"`
}

// Server answers move requests over HTTP. Every request gets an agent of its
// own since a search cannot be shared between concurrent requests.
type Server struct {
	newAgent  func(seed uint64) Agent[isolation.Action]
	timeLimit time.Duration
	router    *gin.Engine

	mu    sync.Mutex // guards seeds
	seeds *rand.Rand
}

// NewServer builds agents with newAgent, each from its own seed. The seeds
// are drawn from seed, so a fixed seed replays the same sequence of requests
// identically; 0 seeds from the clock.
func NewServer(newAgent func(seed uint64) Agent[isolation.Action], timeLimit time.Duration, seed uint64) *Server {
	if timeLimit <= 0 {
		timeLimit = meta.TIME_LIMIT
	}
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	s := &Server{
		newAgent:  newAgent,
		timeLimit: timeLimit,
		router:    gin.New(),
		seeds:     rand.New(rand.NewSource(seed)),
	}
	s.router.Use(gin.Recovery())

	s.router.GET("/healthz", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	v1 := s.router.Group("/v1")
	v1.POST("/action", s.handleAction)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Run(addr string) error {
	log.Info().Str("addr", addr).Dur("time_limit", s.timeLimit).Msg("agent server listening")
	return s.router.Run(addr)
}

func (s *Server) nextSeed() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seeds.Uint64()
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleAction(c *gin.Context) {
	requestID := uuid.NewString()

	var req ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{RequestID: requestID, Error: err.Error()})
		return
	}
	if err := req.Board.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{RequestID: requestID, Error: err.Error()})
		return
	}
	if req.Board.IsTerminal() {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{RequestID: requestID, Error: "no legal actions"})
		return
	}

	limit := s.timeLimit
	if req.TimeLimitMs > 0 {
		limit = time.Duration(req.TimeLimitMs) * time.Millisecond
	}

	a := s.newAgent(s.nextSeed())
	action, err := Decide[isolation.Action](c.Request.Context(), a, req.Board, limit)
	if err != nil {
		if c.Request.Context().Err() != nil && errors.Is(err, ErrNoAction) {
			c.JSON(http.StatusServiceUnavailable, ErrorResponse{RequestID: requestID, Error: context.Canceled.Error()})
			return
		}
		log.Error().Err(err).Str("request_id", requestID).Msg("failed to decide")
		c.JSON(http.StatusInternalServerError, ErrorResponse{RequestID: requestID, Error: err.Error()})
		return
	}

	resp := ActionResponse{
		RequestID: requestID,
		Action:    action,
		Cell:      req.Board.FormatAction(action),
	}
	if sa, ok := a.(*SearchAgent[isolation.Action]); ok {
		if tree := sa.MCTS().Tree(); tree != nil {
			resp.Stats = tree.RootStats(sa.MCTS().ExploreFactor())
		}
	}

	log.Debug().
		Str("request_id", requestID).
		Int("ply", req.Board.Ply).
		Str("cell", resp.Cell).
		Dur("time_limit", limit).
		Msg("answered action request")
	c.JSON(http.StatusOK, resp)
}
