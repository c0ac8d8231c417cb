package agent

import (
	"context"
	"time"

	"isolation/game"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Decide runs agent on state for at most limit and returns the last action it
// queued. The agent is cancelled at the deadline and Decide waits for it to
// return, so an agent never outlives its decision. A panicking agent is
// reported as an error.
func Decide[A comparable](ctx context.Context, agent Agent[A], state game.State[A], limit time.Duration) (A, error) {
	ctx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	queue := &Queue[A]{}
	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- errors.Errorf("agent panicked: %v", r)
			}
		}()
		done <- agent.FindAction(ctx, state, queue)
	}()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = <-done
	}

	action, ok := queue.Latest()
	if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		log.Warn().Err(err).Msg("agent failed to find an action")
		if ok {
			return action, nil
		}
		return action, errors.Wrap(err, "find action")
	}
	if !ok {
		return action, ErrNoAction
	}
	return action, nil
}
