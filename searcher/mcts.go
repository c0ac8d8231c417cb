package searcher

import (
	"context"
	"sync"
	"time"

	"isolation/experiments/metrics"
	"isolation/game"
	"isolation/meta"
	"isolation/utils"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
)

// ErrNoLegalActions is returned when the search has nothing to fall back on.
var ErrNoLegalActions = errors.New("no legal actions")

type Option func(o *options)

type options struct {
	goroutines    int
	iterations    int
	exploreFactor float64
	seed          uint64
	reuse         bool
	metrics       metrics.Collector
}

func WithGoroutines(goroutines int) Option {
	return func(o *options) {
		if goroutines > 0 {
			o.goroutines = goroutines
		}
	}
}

func WithIterations(iterations int) Option {
	return func(o *options) {
		if iterations > 0 {
			o.iterations = iterations
		}
	}
}

func WithExploreFactor(c float64) Option {
	return func(o *options) {
		if c >= 0 {
			o.exploreFactor = c
		}
	}
}

// WithSeed makes every random choice of the search reproducible.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// WithTreeReuse keeps the tree between searches so Advance can re-root it.
func WithTreeReuse() Option {
	return func(o *options) {
		o.reuse = true
	}
}

func WithMetrics(collector metrics.Collector) Option {
	return func(o *options) {
		if collector != nil {
			o.metrics = collector
		}
	}
}

// MCTS is a Monte Carlo tree search over states with actions of type A. A
// single MCTS must not run two searches at once; BestAction and Tree may be
// called from other goroutines while a search is running.
type MCTS[A comparable] struct {
	options

	mu       sync.Mutex // guards tree and pick
	reportMu sync.Mutex
	tree     *Tree[A]
	retained bool // tree was re-rooted by Advance and may be reused

	rng  *rand.Rand // rollouts and tie-breaks of the sequential search
	pick *rand.Rand // tie-breaks of BestAction

	last metrics.SearchMetric
}

func NewMCTS[A comparable](opts ...Option) *MCTS[A] {
	o := options{ // Default values
		goroutines:    meta.GO_ROUTINES,
		iterations:    meta.ITERATIONS,
		exploreFactor: meta.EXPLORE_FACTOR,
		seed:          uint64(time.Now().UnixNano()),
		metrics:       metrics.NewDummyCollector(),
	}
	for _, option := range opts {
		option(&o)
	}

	rng := rand.New(rand.NewSource(o.seed))
	return &MCTS[A]{
		options: o,
		rng:     rng,
		pick:    rand.New(rand.NewSource(rng.Uint64())),
	}
}

// ChooseAction searches state and returns the action with the best confidence
// bound among the root's children.
func (m *MCTS[A]) ChooseAction(ctx context.Context, state game.State[A]) (A, error) {
	return m.Search(ctx, state, nil)
}

// Search runs up to the iteration budget from state. After every completed
// iteration report, if not nil, receives the best action so far. Cancelling
// ctx stops the search at the next iteration boundary and is not an error.
func (m *MCTS[A]) Search(ctx context.Context, state game.State[A], report func(A)) (A, error) {
	m.metrics.Start(m.goroutines)

	m.mu.Lock()
	reused := m.prepareRoot(state)
	m.mu.Unlock()
	m.metrics.SetTreeReuse(reused)

	if state.IsTerminal() {
		log.Debug().Msg("root state is terminal, falling back to a random action")
		m.last = m.metrics.Complete(1)
		return m.randomAction(state)
	}

	if m.goroutines > 1 {
		m.iterateParallel(ctx, report)
	} else {
		m.iterate(ctx, report)
	}

	m.mu.Lock()
	nodes := m.tree.Len()
	rootVisits := m.tree.Visits(m.tree.Root())
	m.mu.Unlock()
	m.last = m.metrics.Complete(nodes)

	best, ok := m.BestAction()
	log.Debug().
		Int("nodes", nodes).
		Int("root_visits", rootVisits).
		Bool("reused", reused).
		Bool("interrupted", ctx.Err() != nil).
		Interface("action", best).
		Msg("search complete")
	if !ok { // Interrupted before the first expansion
		return m.randomAction(state)
	}
	return best, nil
}

// BestAction returns the root child with the maximum confidence bound, ties
// broken at random. It only reads the tree and is valid at any point of a
// search.
func (m *MCTS[A]) BestAction() (A, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.tree == nil {
		var zero A
		return zero, false
	}
	return m.tree.bestAction(m.exploreFactor, m.pick)
}

// Tree returns the tree of the current or last search. It must not be read
// while a search is running.
func (m *MCTS[A]) Tree() *Tree[A] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tree
}

func (m *MCTS[A]) ExploreFactor() float64 {
	return m.exploreFactor
}

// LastMetric returns the statistics of the last completed search.
func (m *MCTS[A]) LastMetric() metrics.SearchMetric {
	return m.last
}

// Advance re-roots the retained tree along the actions played since the last
// search. It returns false and drops the tree when a played action was never
// expanded.
func (m *MCTS[A]) Advance(actions ...A) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.reuse || m.tree == nil {
		return false
	}

	id := m.tree.Root()
	for _, action := range actions {
		i := utils.FindIndex(m.tree.Actions(id), action)
		if i < 0 { // Node has not expanded this action
			m.tree, m.retained = nil, false
			return false
		}
		id = m.tree.Children(id)[i]
	}
	m.tree = m.tree.subtree(id)
	m.retained = true
	return true
}

// prepareRoot reuses a retained tree if its root matches state, otherwise it
// starts a new tree.
func (m *MCTS[A]) prepareRoot(state game.State[A]) bool {
	if m.reuse && m.retained && m.tree != nil && sameState(m.tree.State(m.tree.Root()), state) {
		m.retained = false
		return true
	}

	m.tree = NewTree(state)
	m.retained = false
	return false
}

func sameState[A comparable](a, b game.State[A]) bool {
	ha, ok := a.(game.Hasher)
	if !ok {
		return false
	}
	hb, ok := b.(game.Hasher)
	if !ok {
		return false
	}
	if ha.Hash() != hb.Hash() {
		log.Warn().Msgf("retained root hash %d does not match state hash %d", ha.Hash(), hb.Hash())
		return false
	}
	return true
}

func (m *MCTS[A]) randomAction(state game.State[A]) (A, error) {
	actions := state.Actions()
	if len(actions) == 0 {
		var zero A
		return zero, ErrNoLegalActions
	}
	return utils.Choose(m.rng, actions), nil
}

func (m *MCTS[A]) iterate(ctx context.Context, report func(A)) {
	for i := 0; i < m.iterations; i++ {
		if ctx.Err() != nil {
			return
		}
		m.simulate(m.rng)
		m.report(report)
	}
}

// iterateParallel shares the iteration budget between goroutines. Selection,
// expansion and backup hold the tree lock; rollouts run concurrently.
func (m *MCTS[A]) iterateParallel(ctx context.Context, report func(A)) {
	task := make(chan any, m.iterations)
	for i := 0; i < m.iterations; i++ {
		task <- nil
	}
	close(task)

	var wg sync.WaitGroup
	for i := 0; i < m.goroutines; i++ {
		rng := rand.New(rand.NewSource(m.rng.Uint64()))
		wg.Add(1)
		go func() {
			defer wg.Done()

			for range task {
				if ctx.Err() != nil {
					return
				}
				m.simulate(rng)
				m.report(report)
			}
		}()
	}

	wg.Wait()
}

func (m *MCTS[A]) report(report func(A)) {
	if report == nil {
		return
	}
	best, ok := m.BestAction()
	if !ok {
		return
	}
	m.reportMu.Lock()
	defer m.reportMu.Unlock()
	report(best)
}

// simulate runs one select/expand, rollout and backup iteration.
func (m *MCTS[A]) simulate(rng *rand.Rand) {
	m.mu.Lock()
	target, expanded := m.tree.selectOrExpand(m.tree.Root(), m.exploreFactor, rng)
	if !target.IsValid() {
		m.mu.Unlock()
		return
	}
	state := m.tree.State(target)
	m.mu.Unlock()

	if expanded {
		m.metrics.AddExpansion()
	}
	reward := Rollout(state, rng)

	m.mu.Lock()
	m.tree.backup(target, reward)
	m.mu.Unlock()
	m.metrics.AddIteration()
}

// Rollout plays uniformly random actions from state until the game is over and
// scores the outcome for the player to move in state: LOSS if that player
// still has liberties at the end, WIN otherwise.
func Rollout[A comparable](state game.State[A], rng *rand.Rand) float64 {
	player := state.PlayerToMove()
	for !state.IsTerminal() {
		actions := state.Actions()
		if len(actions) == 0 {
			panic("non-terminal state has no legal actions")
		}
		state = state.Result(utils.Choose(rng, actions))
	}

	if state.HasLiberties(player) {
		return LOSS
	}
	return WIN
}

// backup adds reward to id and every ancestor, negating it at each step up.
func (t *Tree[A]) backup(id NodeID, reward float64) {
	for id.IsValid() {
		t.Update(id, reward)
		id = t.nodes[id].parent
		reward = -reward
	}
}
