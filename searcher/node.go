package searcher

import (
	"fmt"

	"isolation/game"
	"isolation/utils"
)

// NodeID addresses a node in a Tree's arena. Parents are referenced by ID so
// the arena is the only owner of nodes.
type NodeID int32

const NilNode NodeID = -1

func (n NodeID) IsValid() bool { return n >= 0 }

type node[A comparable] struct {
	state    game.State[A]
	parent   NodeID
	children []NodeID
	actions  []A // actions[i] turns state into the state of children[i]
	visits   int
	rewards  float64
}

// Tree is an arena of search nodes. The root is always at index 0.
type Tree[A comparable] struct {
	nodes []node[A]
}

// NewTree returns a tree holding a single root node for state.
func NewTree[A comparable](state game.State[A]) *Tree[A] {
	t := &Tree[A]{nodes: make([]node[A], 0, 256)}
	t.alloc(state, NilNode)
	return t
}

// alloc appends a node. The creating visit counts itself, so visits never
// start at 0 and the confidence bound is always defined.
func (t *Tree[A]) alloc(state game.State[A], parent NodeID) NodeID {
	t.nodes = append(t.nodes, node[A]{
		state:  state,
		parent: parent,
		visits: 1,
	})
	return NodeID(len(t.nodes) - 1)
}

func (t *Tree[A]) Root() NodeID { return 0 }

// Len returns the number of nodes in the tree.
func (t *Tree[A]) Len() int { return len(t.nodes) }

func (t *Tree[A]) State(id NodeID) game.State[A] { return t.nodes[id].state }

func (t *Tree[A]) Parent(id NodeID) NodeID { return t.nodes[id].parent }

func (t *Tree[A]) Children(id NodeID) []NodeID { return t.nodes[id].children }

func (t *Tree[A]) Actions(id NodeID) []A { return t.nodes[id].actions }

func (t *Tree[A]) Visits(id NodeID) int { return t.nodes[id].visits }

func (t *Tree[A]) Rewards(id NodeID) float64 { return t.nodes[id].rewards }

// AddChild attaches a node for state reached from parent by action. Adding the
// same action twice to one parent is a programming error.
func (t *Tree[A]) AddChild(parent NodeID, state game.State[A], action A) NodeID {
	if utils.FindIndex(t.nodes[parent].actions, action) >= 0 {
		panic(fmt.Sprintf("action %v already expanded at node %d", action, parent))
	}

	child := t.alloc(state, parent)
	p := &t.nodes[parent]
	p.children = append(p.children, child)
	p.actions = append(p.actions, action)
	return child
}

// Update records one more visit with the given reward.
func (t *Tree[A]) Update(id NodeID, reward float64) {
	n := &t.nodes[id]
	n.rewards += reward
	n.visits++
}

// IsFullyExplored reports whether every legal action of the node's state has
// a child. It is derived on every call rather than cached.
func (t *Tree[A]) IsFullyExplored(id NodeID) bool {
	n := &t.nodes[id]
	return len(n.actions) == len(n.state.Actions())
}

// subtree copies the nodes under id into a new arena rooted at id.
func (t *Tree[A]) subtree(id NodeID) *Tree[A] {
	sub := &Tree[A]{nodes: make([]node[A], 0, len(t.nodes))}

	type pending struct{ old, parent NodeID }
	queue := []pending{{old: id, parent: NilNode}}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]

		old := &t.nodes[next.old]
		newID := NodeID(len(sub.nodes))
		sub.nodes = append(sub.nodes, node[A]{
			state:   old.state,
			parent:  next.parent,
			actions: append([]A(nil), old.actions...),
			visits:  old.visits,
			rewards: old.rewards,
		})
		if next.parent.IsValid() {
			p := &sub.nodes[next.parent]
			p.children = append(p.children, newID)
		}
		for _, kid := range old.children {
			queue = append(queue, pending{old: kid, parent: newID})
		}
	}
	return sub
}

// ChildStat summarizes a first-level child of the root.
type ChildStat[A comparable] struct {
	Action  A       `json:"action"`
	Visits  int     `json:"visits"`
	Rewards float64 `json:"rewards"`
	Score   float64 `json:"score"`
}

// RootStats lists the root's children in expansion order together with their
// confidence-bound score.
func (t *Tree[A]) RootStats(exploreFactor float64) []ChildStat[A] {
	root := &t.nodes[t.Root()]
	stats := make([]ChildStat[A], len(root.children))
	normalizer := C_SQUARED * logVisits(root.visits)
	for i, kid := range root.children {
		child := &t.nodes[kid]
		stats[i] = ChildStat[A]{
			Action:  root.actions[i],
			Visits:  child.visits,
			Rewards: child.rewards,
			Score:   uct(child.rewards, child.visits, normalizer, exploreFactor),
		}
	}
	return stats
}
