package searcher

import (
	"fmt"
	"hash/fnv"

	"isolation/game"
)

// mockState is a game described by a graph of named positions. A position
// without successors is terminal and immobilizes the player to move there.
type mockState struct {
	name     string
	player   game.Player
	graph    map[string][]string
	terminal bool // terminal even though the graph lists actions
}

func newMockState(graph map[string][]string) mockState {
	return mockState{name: "r", player: game.Player1, graph: graph}
}

func (s mockState) Actions() []string {
	return s.graph[s.name]
}

func (s mockState) Result(action string) game.State[string] {
	return mockState{name: action, player: s.player.Opponent(), graph: s.graph}
}

func (s mockState) IsTerminal() bool {
	return s.terminal || len(s.graph[s.name]) == 0
}

func (s mockState) PlayerToMove() game.Player {
	return s.player
}

func (s mockState) HasLiberties(player game.Player) bool {
	return player != s.player || !s.IsTerminal()
}

func (s mockState) Hash() game.StateHash {
	h := fnv.New64a()
	h.Write([]byte(s.name))
	return game.StateHash(h.Sum64())
}

// branchingGraph builds a uniform game tree rooted at "r".
func branchingGraph(depth, width int) map[string][]string {
	graph := map[string][]string{}
	var build func(name string, d int)
	build = func(name string, d int) {
		if d == depth {
			return
		}
		for i := 0; i < width; i++ {
			kid := fmt.Sprintf("%s%d", name, i)
			graph[name] = append(graph[name], kid)
			build(kid, d+1)
		}
	}
	build("r", 0)
	return graph
}

// checkShape verifies the structural invariants of every node reachable from
// the root and returns the number of nodes visited.
func checkShape[A comparable](t *Tree[A]) (count int, ok bool) {
	seen := map[NodeID]bool{}
	stack := []NodeID{t.Root()}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] || t.Visits(id) < 1 {
			return count, false
		}
		seen[id] = true
		count++

		children, actions := t.Children(id), t.Actions(id)
		if len(children) != len(actions) {
			return count, false
		}
		unique := map[A]bool{}
		for i, kid := range children {
			if unique[actions[i]] || t.Parent(kid) != id {
				return count, false
			}
			unique[actions[i]] = true
			stack = append(stack, kid)
		}
	}
	return count, t.Parent(t.Root()) == NilNode
}
