package engine

import (
	"context"
	"fmt"
	"time"

	"isolation/agent"
	"isolation/experiments/metrics"
	"isolation/game"
	"isolation/meta"
	"isolation/utils"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Measured is implemented by agents that report statistics of their last
// decision.
type Measured interface {
	LastMetric() metrics.SearchMetric
}

type Option func(o *options)

type options struct {
	timeLimit time.Duration
	maxTurns  int
}

// WithTimeLimit bounds every decision.
func WithTimeLimit(limit time.Duration) Option {
	return func(o *options) {
		if limit > 0 {
			o.timeLimit = limit
		}
	}
}

// WithMaxTurns cuts a game off after the given number of moves.
func WithMaxTurns(turns int) Option {
	return func(o *options) {
		if turns > 0 {
			o.maxTurns = turns
		}
	}
}

// Engine plays a two-player game between agents, indexed by game.Player.
type Engine[A comparable] struct {
	options
	Agents [2]agent.Agent[A]
}

func New[A comparable](first, second agent.Agent[A], opts ...Option) *Engine[A] {
	o := options{
		timeLimit: meta.TIME_LIMIT,
		maxTurns:  meta.MAX_TURNS,
	}
	for _, option := range opts {
		option(&o)
	}
	return &Engine[A]{
		options: o,
		Agents:  [2]agent.Agent[A]{first, second},
	}
}

// Result is the outcome of one game. Winner is -1 when the game was cut off.
type Result struct {
	Winner int
	Game   metrics.GameMetric
	Moves  []metrics.MoveMetric
	Final  string
}

// Run plays from state until it is terminal or the turn cap is reached. Only
// cancellation of ctx stops a game early with an error; agents that fail or
// return an illegal action play the first legal action instead.
func (e *Engine[A]) Run(ctx context.Context, state game.State[A]) (Result, error) {
	start := time.Now()
	result := Result{
		Winner: -1,
		Game: metrics.GameMetric{
			StartingPlayer: int(state.PlayerToMove()),
			StartTime:      start,
		},
	}
	log.Info().Msgf("%s is starting", state.PlayerToMove())

	turn := 1
	for ; !state.IsTerminal() && turn <= e.maxTurns; turn++ {
		if err := ctx.Err(); err != nil {
			return result, errors.Wrapf(err, "game stopped at turn %d", turn)
		}

		player := state.PlayerToMove()
		actions := state.Actions()
		a := e.Agents[player]

		action, err := agent.Decide(ctx, a, state, e.timeLimit)
		if err != nil || utils.FindIndex(actions, action) < 0 {
			if ctx.Err() != nil {
				return result, errors.Wrapf(ctx.Err(), "game stopped at turn %d", turn)
			}
			log.Warn().Err(err).Msgf("%s returned an invalid action %v, playing %v", player, action, actions[0])
			action = actions[0]
		}

		move := metrics.MoveMetric{Step: turn, Player: int(player)}
		if m, ok := a.(Measured); ok {
			move.SearchMetric = m.LastMetric()
		}
		result.Moves = append(result.Moves, move)

		for _, other := range e.Agents {
			if o, ok := other.(agent.Observer[A]); ok {
				o.Observe(action)
			}
		}
		state = state.Result(action)
	}

	if state.IsTerminal() {
		result.Winner = int(state.PlayerToMove().Opponent())
		log.Info().Msgf("game over after %d moves, %s wins", len(result.Moves), state.PlayerToMove().Opponent())
	} else {
		log.Info().Msgf("game stopped after %d moves without a winner", len(result.Moves))
	}

	end := time.Now()
	result.Game.Winner = result.Winner
	result.Game.EndTime = end
	result.Game.Duration = end.Sub(start)
	result.Game.TotalMoves = len(result.Moves)
	if s, ok := state.(fmt.Stringer); ok {
		result.Final = s.String()
	}
	return result, nil
}
