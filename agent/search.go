package agent

import (
	"context"

	"isolation/experiments/metrics"
	"isolation/game"
	"isolation/meta"
	"isolation/searcher"
	"isolation/utils"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
)

// SearchAgent plays random opening moves and searches every position after
// that, queueing each improvement of the search.
type SearchAgent[A comparable] struct {
	mcts        *searcher.MCTS[A]
	randomPlies int
	rng         *rand.Rand
	played      []A // actions played since the last search
	last        metrics.SearchMetric
}

// NewSearchAgent returns an agent searching with mcts once at least
// randomPlies moves were played.
func NewSearchAgent[A comparable](mcts *searcher.MCTS[A], randomPlies int, seed uint64) *SearchAgent[A] {
	if randomPlies < 0 {
		randomPlies = meta.RANDOM_PLIES
	}
	return &SearchAgent[A]{
		mcts:        mcts,
		randomPlies: randomPlies,
		rng:         rand.New(rand.NewSource(seed)),
	}
}

func (a *SearchAgent[A]) FindAction(ctx context.Context, state game.State[A], queue *Queue[A]) error {
	a.last = metrics.SearchMetric{}

	if counter, ok := state.(game.PlyCounter); ok && counter.PlyCount() < a.randomPlies {
		actions := state.Actions()
		if len(actions) == 0 {
			return searcher.ErrNoLegalActions
		}
		queue.Put(utils.Choose(a.rng, actions))
		return nil
	}

	if len(a.played) > 0 {
		a.mcts.Advance(a.played...)
		a.played = a.played[:0]
	}

	action, err := a.mcts.Search(ctx, state, queue.Put)
	if err != nil {
		return errors.Wrap(err, "search")
	}
	// The final action is queued too, it covers searches interrupted before
	// their first iteration.
	queue.Put(action)
	a.last = a.mcts.LastMetric()

	log.Debug().
		Int("iterations", a.last.Iterations).
		Int("nodes", a.last.Nodes).
		Dur("duration", a.last.Duration).
		Msg("searched position")
	return nil
}

// Observe records an action played in the game, which lets the next search
// reuse the matching subtree.
func (a *SearchAgent[A]) Observe(action A) {
	a.played = append(a.played, action)
}

// LastMetric returns the statistics of the last search, zero for random moves.
func (a *SearchAgent[A]) LastMetric() metrics.SearchMetric {
	return a.last
}

// MCTS exposes the underlying search for inspection.
func (a *SearchAgent[A]) MCTS() *searcher.MCTS[A] {
	return a.mcts
}
