package searcher

import (
	"isolation/utils"

	"golang.org/x/exp/rand"
)

// selectOrExpand walks down from id and returns the node to simulate from:
// either the first child it creates or a terminal node it reached. At most
// one node is expanded per call.
func (t *Tree[A]) selectOrExpand(id NodeID, exploreFactor float64, rng *rand.Rand) (NodeID, bool) {
	for !t.nodes[id].state.IsTerminal() {
		if !t.IsFullyExplored(id) {
			return t.expand(id), true
		}
		id = t.bestChild(id, exploreFactor, rng)
	}
	return id, false
}

// expand adds a child for the first legal action, in the state's own order,
// that has no child yet.
func (t *Tree[A]) expand(id NodeID) NodeID {
	state := t.nodes[id].state
	for _, action := range state.Actions() {
		if utils.FindIndex(t.nodes[id].actions, action) == -1 {
			return t.AddChild(id, state.Result(action), action)
		}
	}
	panic("cannot expand a fully explored node")
}
