package searcher

import (
	"fmt"

	"github.com/awalterschulze/gographviz"
)

// ToDot renders the tree down to maxDepth (0 means the whole tree) in the
// Graphviz dot language. Node labels carry the producing action and the
// node's statistics.
func (t *Tree[A]) ToDot(maxDepth int) string {
	g := gographviz.NewGraph()
	if err := g.SetName("G"); err != nil {
		panic(err)
	}
	if err := g.SetDir(true); err != nil {
		panic(err)
	}

	type item struct {
		id    NodeID
		label string
		depth int
	}
	stack := []item{{id: t.Root(), label: "root", depth: 0}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := &t.nodes[it.id]
		attrs := map[string]string{
			"shape": "box",
			"label": fmt.Sprintf("%q", fmt.Sprintf("%s\nN=%d R=%.0f", it.label, n.visits, n.rewards)),
		}
		if err := g.AddNode("G", nodeName(it.id), attrs); err != nil {
			panic(err)
		}
		if maxDepth > 0 && it.depth >= maxDepth {
			continue
		}

		for i := len(n.children) - 1; i >= 0; i-- {
			kid := n.children[i]
			if err := g.AddEdge(nodeName(it.id), nodeName(kid), true, nil); err != nil {
				panic(err)
			}
			stack = append(stack, item{id: kid, label: fmt.Sprintf("%v", n.actions[i]), depth: it.depth + 1})
		}
	}
	return g.String()
}

func nodeName(id NodeID) string {
	return fmt.Sprintf("n%d", id)
}
