package searcher

import (
	"math"

	"golang.org/x/exp/rand"
)

func logVisits(visits int) float64 {
	return math.Log(float64(visits))
}

// uct = r/n + c * sqrt(C^2 * ln(N) / n)
func uct(rewards float64, visits int, c2LnN float64, exploreFactor float64) float64 {
	if visits == 0 { // Nodes are created with one visit
		panic("cannot compute UCT: 0 visits")
	}

	exploit := rewards / float64(visits)
	explore := math.Sqrt(c2LnN / float64(visits))
	return exploit + exploreFactor*explore
}

// bestChild returns the child of id with the maximum confidence bound,
// picking uniformly at random among exact ties.
func (t *Tree[A]) bestChild(id NodeID, exploreFactor float64, rng *rand.Rand) NodeID {
	parent := &t.nodes[id]
	if len(parent.children) == 0 {
		panic("non-terminal node has no legal actions")
	}

	normalizer := C_SQUARED * logVisits(parent.visits)

	maxScore := math.Inf(-1)
	ties := make([]NodeID, 0, 1)
	for _, kid := range parent.children {
		child := &t.nodes[kid]
		score := uct(child.rewards, child.visits, normalizer, exploreFactor)
		switch {
		case score > maxScore:
			maxScore = score
			ties = append(ties[:0], kid)
		case score == maxScore:
			ties = append(ties, kid)
		}
	}
	return ties[rng.Intn(len(ties))]
}

// bestAction returns the action leading to the root's best child.
func (t *Tree[A]) bestAction(exploreFactor float64, rng *rand.Rand) (A, bool) {
	var zero A
	root := &t.nodes[t.Root()]
	if len(root.children) == 0 {
		return zero, false
	}

	best := t.bestChild(t.Root(), exploreFactor, rng)
	for i, kid := range root.children {
		if kid == best {
			return root.actions[i], true
		}
	}
	return zero, false
}
