package agent

import (
	"context"
	"sync"

	"isolation/game"
	"isolation/utils"

	"golang.org/x/exp/rand"
)

type randomAgent[A comparable] struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomAgent returns an agent that plays uniformly random legal actions.
func NewRandomAgent[A comparable](seed uint64) Agent[A] {
	return &randomAgent[A]{rng: rand.New(rand.NewSource(seed))}
}

func (a *randomAgent[A]) FindAction(ctx context.Context, state game.State[A], queue *Queue[A]) error {
	actions := state.Actions()
	if len(actions) == 0 {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	queue.Put(utils.Choose(a.rng, actions))
	return nil
}
