package agent

import (
	"context"

	"isolation/game"

	"github.com/pkg/errors"
)

// ErrNoAction is returned when an agent queued nothing before its deadline.
var ErrNoAction = errors.New("agent queued no action")

type Agent[A comparable] interface {
	// FindAction puts one or more candidate actions on queue. The caller owns
	// the deadline: once ctx is done it takes the last action put, even if
	// FindAction is still running.
	FindAction(ctx context.Context, state game.State[A], queue *Queue[A]) error
}

// Observer is implemented by agents that track every action played in the
// game, their own and their opponent's.
type Observer[A comparable] interface {
	Observe(action A)
}
