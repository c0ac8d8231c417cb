package searcher

import (
	"context"
	"testing"

	"isolation/experiments/metrics"
	"isolation/game"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func TestRollout(t *testing.T) {
	t.Run("terminal state immobilizing the player to move", func(t *testing.T) {
		state := mockState{name: "x", player: game.Player1}
		require.Equal(t, WIN, Rollout[string](state, rand.New(rand.NewSource(1))))
	})

	t.Run("player to move still has liberties at the end", func(t *testing.T) {
		state := newMockState(map[string][]string{"r": {"a"}})
		require.Equal(t, LOSS, Rollout[string](state, rand.New(rand.NewSource(1))),
			"Opponent is immobilized so the player to move at the start scores a loss")
	})

	t.Run("rewards are always +1 or -1", func(t *testing.T) {
		state := newMockState(branchingGraph(5, 3))
		rng := rand.New(rand.NewSource(3))
		for i := 0; i < 100; i++ {
			reward := Rollout[string](state, rng)
			require.Contains(t, []float64{WIN, LOSS}, reward)
		}
	})

	t.Run("rollout does not mutate the tree", func(t *testing.T) {
		state := newMockState(branchingGraph(3, 2))
		tree := NewTree[string](state)
		Rollout(tree.State(tree.Root()), rand.New(rand.NewSource(1)))
		require.Equal(t, 1, tree.Len())
		require.Equal(t, 1, tree.Visits(tree.Root()))
	})
}

func TestBackup(t *testing.T) {
	state := newMockState(branchingGraph(3, 1))
	tree := NewTree[string](state)
	path := []NodeID{tree.Root()}
	for _, action := range []string{"r0", "r00", "r000"} {
		parent := path[len(path)-1]
		path = append(path, tree.AddChild(parent, tree.State(parent).Result(action), action))
	}
	leaf := path[len(path)-1]

	t.Run("alternating the reward sign up to the root", func(t *testing.T) {
		tree.backup(leaf, WIN)

		for depth := 0; depth < len(path); depth++ {
			id := path[len(path)-1-depth]
			want := WIN
			if depth%2 == 1 {
				want = LOSS
			}
			require.Equal(t, want, tree.Rewards(id), "Reward at depth %d from the leaf", depth)
			require.Equal(t, 2, tree.Visits(id))
		}
	})

	t.Run("incrementing visits once per backup", func(t *testing.T) {
		for k := 0; k < 5; k++ {
			tree.backup(path[2], LOSS)
		}
		require.Equal(t, 7, tree.Visits(path[0]))
		require.Equal(t, 7, tree.Visits(path[2]))
		require.Equal(t, 2, tree.Visits(leaf), "Nodes below the start should not change")
	})
}

func TestMCTSChooseAction(t *testing.T) {
	t.Run("two actions both leading to terminal states", func(t *testing.T) {
		state := newMockState(map[string][]string{"r": {"a", "b"}})
		m := NewMCTS[string](WithIterations(150), WithSeed(1))

		got, err := m.ChooseAction(context.Background(), state)

		require.NoError(t, err)
		require.Contains(t, []string{"a", "b"}, got)
		tree := m.Tree()
		require.ElementsMatch(t, []string{"a", "b"}, tree.Actions(tree.Root()), "Both actions should be expanded")
		require.Equal(t, 151, tree.Visits(tree.Root()))
	})

	t.Run("preferring the immediately winning action", func(t *testing.T) {
		state := newMockState(map[string][]string{
			"r":    {"lose", "win"},
			"lose": {"reply"},
		})
		m := NewMCTS[string](WithSeed(7))

		got, err := m.ChooseAction(context.Background(), state)

		require.NoError(t, err)
		require.Equal(t, "win", got)
		stats := m.Tree().RootStats(0)
		require.Equal(t, "lose", stats[0].Action)
		require.Less(t, stats[0].Score, 0.0, "Losing line should score below zero")
		require.Greater(t, stats[1].Score, 0.0, "Winning line should score above zero")
	})

	t.Run("terminal root falls back to the caller's legal actions", func(t *testing.T) {
		state := newMockState(map[string][]string{"r": {"x", "y"}})
		state.terminal = true
		m := NewMCTS[string](WithSeed(1))

		got, err := m.ChooseAction(context.Background(), state)

		require.NoError(t, err)
		require.Contains(t, []string{"x", "y"}, got)
		require.Empty(t, m.Tree().Children(m.Tree().Root()), "Fallback should not search")
	})

	t.Run("terminal root without any legal action", func(t *testing.T) {
		m := NewMCTS[string](WithSeed(1))

		_, err := m.ChooseAction(context.Background(), newMockState(nil))

		require.ErrorIs(t, err, ErrNoLegalActions)
	})

	t.Run("cancelled context still yields a legal action", func(t *testing.T) {
		state := newMockState(branchingGraph(3, 3))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		m := NewMCTS[string](WithSeed(1))

		got, err := m.ChooseAction(ctx, state)

		require.NoError(t, err)
		require.Contains(t, []string{"r0", "r1", "r2"}, got)
		require.Equal(t, 1, m.Tree().Len(), "No iteration should run")
	})

	t.Run("seeded searches are reproducible", func(t *testing.T) {
		state := newMockState(branchingGraph(5, 3))

		m1 := NewMCTS[string](WithSeed(99))
		got1, err := m1.ChooseAction(context.Background(), state)
		require.NoError(t, err)
		m2 := NewMCTS[string](WithSeed(99))
		got2, err := m2.ChooseAction(context.Background(), state)
		require.NoError(t, err)

		require.Equal(t, got1, got2)
		require.Equal(t, m1.Tree().RootStats(0.05), m2.Tree().RootStats(0.05))
	})

	t.Run("tree invariants hold after a search", func(t *testing.T) {
		state := newMockState(branchingGraph(6, 3))
		m := NewMCTS[string](WithSeed(5), WithIterations(300))

		_, err := m.ChooseAction(context.Background(), state)
		require.NoError(t, err)

		count, ok := checkShape(m.Tree())
		require.True(t, ok)
		require.Equal(t, m.Tree().Len(), count, "Every node should be reachable from the root")
	})
}

func TestMCTSSearchReportsEveryIteration(t *testing.T) {
	state := newMockState(branchingGraph(4, 2))
	m := NewMCTS[string](WithIterations(40), WithSeed(3))

	var reports []string
	got, err := m.Search(context.Background(), state, func(best string) {
		reports = append(reports, best)
	})

	require.NoError(t, err)
	require.Len(t, reports, 40, "Report should be called once per completed iteration")
	for _, r := range reports {
		require.Contains(t, []string{"r0", "r1"}, r)
	}
	require.Contains(t, []string{"r0", "r1"}, got)
}

func TestMCTSInterruptedMidSearch(t *testing.T) {
	state := newMockState(branchingGraph(6, 3))
	ctx, cancel := context.WithCancel(context.Background())
	m := NewMCTS[string](WithIterations(1000), WithSeed(3))

	count := 0
	got, err := m.Search(ctx, state, func(string) {
		count++
		if count == 10 {
			cancel()
		}
	})

	require.NoError(t, err, "Interruption is not an error")
	require.Equal(t, 10, count)
	require.Equal(t, 11, m.Tree().Visits(m.Tree().Root()))
	require.Contains(t, []string{"r0", "r1", "r2"}, got)
}

func TestMCTSParallel(t *testing.T) {
	state := newMockState(branchingGraph(6, 3))
	collector := metrics.NewCollector()
	m := NewMCTS[string](WithGoroutines(4), WithIterations(200), WithSeed(11), WithMetrics(collector))

	got, err := m.ChooseAction(context.Background(), state)

	require.NoError(t, err)
	require.Contains(t, []string{"r0", "r1", "r2"}, got)
	require.Equal(t, 201, m.Tree().Visits(m.Tree().Root()), "Every iteration should be backed up")
	count, ok := checkShape(m.Tree())
	require.True(t, ok)
	require.Equal(t, m.Tree().Len(), count)

	metric := m.LastMetric()
	require.Equal(t, 4, metric.Goroutines)
	require.Equal(t, 200, metric.Iterations)
	require.Equal(t, m.Tree().Len()-1, metric.Expansions)
}

func TestMCTSTreeReuse(t *testing.T) {
	state := newMockState(branchingGraph(4, 2))
	m := NewMCTS[string](WithTreeReuse(), WithSeed(2), WithMetrics(metrics.NewCollector()))

	_, err := m.ChooseAction(context.Background(), state)
	require.NoError(t, err)
	require.False(t, m.LastMetric().IsTreeReuse)

	t.Run("advancing along expanded actions", func(t *testing.T) {
		require.True(t, m.Advance("r0", "r00"))
		retained := m.Tree().Visits(m.Tree().Root())
		require.Greater(t, retained, 1)

		next := state.Result("r0").Result("r00")
		got, err := m.ChooseAction(context.Background(), next)

		require.NoError(t, err)
		require.Contains(t, []string{"r000", "r001"}, got)
		require.True(t, m.LastMetric().IsTreeReuse)
		require.Equal(t, retained+150, m.Tree().Visits(m.Tree().Root()))
	})

	t.Run("mismatched state starts a new tree", func(t *testing.T) {
		require.True(t, m.Advance("r000"))

		_, err := m.ChooseAction(context.Background(), state)

		require.NoError(t, err)
		require.False(t, m.LastMetric().IsTreeReuse)
		require.Equal(t, 151, m.Tree().Visits(m.Tree().Root()))
	})

	t.Run("advancing along an unexpanded action", func(t *testing.T) {
		require.False(t, m.Advance("nowhere"))
		require.Nil(t, m.Tree())
	})

	t.Run("reuse disabled", func(t *testing.T) {
		plain := NewMCTS[string](WithSeed(2))
		_, err := plain.ChooseAction(context.Background(), state)
		require.NoError(t, err)
		require.False(t, plain.Advance("r0"))
	})
}
