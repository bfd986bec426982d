package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BaSui01/agentpipe/types"
)

// Order computes a deterministic topological order over the graph using
// Kahn's algorithm. For every edge u -> v, u appears before v in the
// result; ties between unordered nodes are broken by node insertion
// order, so the same graph always schedules the same way.
//
// Order must only be called after Check has passed, but it refuses to
// loop on a cyclic graph regardless: a cycle yields the same
// CYCLE_DETECTED error code the checker reports.
func Order(g *Graph) ([]string, error) {
	nodes := g.Nodes()
	inDegree := make(map[string]int, len(nodes))
	for _, n := range nodes {
		inDegree[n.ID] = 0
	}
	for _, e := range g.Edges() {
		if _, ok := inDegree[e.Target]; !ok {
			continue // dangling edge, the checker reports it
		}
		if _, ok := inDegree[e.Source]; !ok {
			continue
		}
		inDegree[e.Target]++
	}

	// Seed the queue in insertion order for determinism.
	var queue []string
	for _, n := range nodes {
		if inDegree[n.ID] == 0 {
			queue = append(queue, n.ID)
		}
	}

	order := make([]string, 0, len(nodes))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)
		for _, e := range g.EdgesOutOf(id) {
			if _, ok := inDegree[e.Target]; !ok {
				continue
			}
			inDegree[e.Target]--
			if inDegree[e.Target] == 0 {
				queue = append(queue, e.Target)
			}
		}
	}

	if len(order) < len(nodes) {
		var stuck []string
		for id, d := range inDegree {
			if d > 0 {
				stuck = append(stuck, id)
			}
		}
		sort.Strings(stuck)
		return nil, types.NewError(types.ErrCycleDetected,
			fmt.Sprintf("cycle detected involving node(s): %s", strings.Join(stuck, ", ")))
	}
	return order, nil
}
