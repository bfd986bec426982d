package pipeline

import (
	"fmt"

	"github.com/BaSui01/agentpipe/types"
)

// Problem is one integrity failure found in a graph. Problems are data,
// not errors: the checker accumulates every failure so the caller can
// report all of them at once instead of fixing the graph one run at a time.
type Problem struct {
	Code    types.ErrorCode `json:"code"`
	NodeID  string          `json:"node_id,omitempty"`
	Kind    Kind            `json:"kind,omitempty"`
	Message string          `json:"message"`
}

// String renders the problem as a user-facing message.
func (p Problem) String() string {
	if p.NodeID != "" {
		return fmt.Sprintf("node %s: %s", p.NodeID, p.Message)
	}
	return p.Message
}

// Err converts the problem into a structured error.
func (p Problem) Err() *types.Error {
	return types.NewError(p.Code, p.Message).WithNode(p.NodeID)
}

// dfs colors for cycle detection.
const (
	colorWhite = iota // unvisited
	colorGray         // in progress
	colorBlack        // done
)

// Check validates a graph against a schema and returns every problem
// found, in a fixed order: missing required kinds first, then per-node
// config validators, then edge endpoint integrity, then acyclicity.
// An empty result means the graph is runnable.
func Check(g *Graph, s *Schema) []Problem {
	var problems []Problem

	// 1. Every required kind has at least one instance.
	for _, k := range s.RequiredKinds() {
		if len(g.NodesOfKind(k)) == 0 {
			spec, _ := s.Kind(k)
			problems = append(problems, Problem{
				Code:    types.ErrMissingKind,
				Kind:    k,
				Message: fmt.Sprintf("required stage %q (%s) is missing from the graph", spec.Label, k),
			})
		}
	}

	// 2. Kind-specific config validators, in node insertion order.
	for _, n := range g.Nodes() {
		spec, ok := s.Kind(n.Kind)
		if !ok {
			problems = append(problems, Problem{
				Code:    types.ErrUnknownKind,
				NodeID:  n.ID,
				Kind:    n.Kind,
				Message: fmt.Sprintf("kind %q is not part of schema %q", n.Kind, s.Name()),
			})
			continue
		}
		if spec.Validate == nil {
			continue
		}
		if err := spec.Validate(n); err != nil {
			problems = append(problems, Problem{
				Code:    types.GetErrorCode(err),
				NodeID:  n.ID,
				Kind:    n.Kind,
				Message: err.Error(),
			})
		}
	}

	// 3. Edge endpoints reference existing nodes and ports of the correct
	// direction.
	problems = append(problems, checkEdges(g, s)...)

	// 4. Acyclicity over every node, so disconnected components are
	// covered too.
	problems = append(problems, checkCycles(g)...)

	return problems
}

// checkEdges verifies edge endpoint integrity.
func checkEdges(g *Graph, s *Schema) []Problem {
	var problems []Problem
	for _, e := range g.Edges() {
		src, srcOK := g.Node(e.Source)
		if !srcOK {
			problems = append(problems, Problem{
				Code:    types.ErrUnknownNode,
				Message: fmt.Sprintf("edge %s references unknown source node %s", e.ID, e.Source),
			})
		}
		dst, dstOK := g.Node(e.Target)
		if !dstOK {
			problems = append(problems, Problem{
				Code:    types.ErrUnknownNode,
				Message: fmt.Sprintf("edge %s references unknown target node %s", e.ID, e.Target),
			})
		}
		srcPortOK := false
		if srcOK {
			if spec, ok := s.Kind(src.Kind); ok {
				if _, ok := spec.Port(e.SourcePort, DirectionSource); ok {
					srcPortOK = true
				} else if _, ok := spec.Port(e.SourcePort, DirectionTarget); ok {
					problems = append(problems, Problem{
						Code:    types.ErrPortDirection,
						NodeID:  src.ID,
						Kind:    src.Kind,
						Message: fmt.Sprintf("port %q on kind %s is a target port, not a source (edge %s)", e.SourcePort, src.Kind, e.ID),
					})
				} else {
					problems = append(problems, Problem{
						Code:    types.ErrUnknownPort,
						NodeID:  src.ID,
						Kind:    src.Kind,
						Message: fmt.Sprintf("kind %s has no source port %q (edge %s)", src.Kind, e.SourcePort, e.ID),
					})
				}
			}
		}
		dstPortOK := false
		if dstOK {
			if spec, ok := s.Kind(dst.Kind); ok {
				if _, ok := spec.Port(e.TargetPort, DirectionTarget); ok {
					dstPortOK = true
				} else if _, ok := spec.Port(e.TargetPort, DirectionSource); ok {
					problems = append(problems, Problem{
						Code:    types.ErrPortDirection,
						NodeID:  dst.ID,
						Kind:    dst.Kind,
						Message: fmt.Sprintf("port %q on kind %s is a source port, not a target (edge %s)", e.TargetPort, dst.Kind, e.ID),
					})
				} else {
					problems = append(problems, Problem{
						Code:    types.ErrUnknownPort,
						NodeID:  dst.ID,
						Kind:    dst.Kind,
						Message: fmt.Sprintf("kind %s has no target port %q (edge %s)", dst.Kind, e.TargetPort, e.ID),
					})
				}
			}
		}
		// The editor enforces the transition table interactively; a
		// document loaded from disk may not have gone through it.
		if srcPortOK && dstPortOK {
			if _, legal := s.IsLegal(src.Kind, e.SourcePort, dst.Kind, e.TargetPort); !legal {
				problems = append(problems, Problem{
					Code:   types.ErrIllegalTransition,
					NodeID: src.ID,
					Kind:   src.Kind,
					Message: fmt.Sprintf("edge %s: connection %s.%s -> %s.%s is not allowed by schema %q",
						e.ID, src.Kind, e.SourcePort, dst.Kind, e.TargetPort, s.Name()),
				})
			}
		}
	}
	return problems
}

// checkCycles runs a three-color DFS from every node and reports each
// back edge found as a cycle problem.
func checkCycles(g *Graph) []Problem {
	var problems []Problem
	color := make(map[string]int, len(g.Nodes()))

	var visit func(id string) bool
	visit = func(id string) bool {
		color[id] = colorGray
		for _, e := range g.EdgesOutOf(id) {
			if _, ok := g.Node(e.Target); !ok {
				// Dangling edge, reported by checkEdges.
				continue
			}
			switch color[e.Target] {
			case colorGray:
				problems = append(problems, Problem{
					Code:    types.ErrCycleDetected,
					NodeID:  e.Target,
					Message: fmt.Sprintf("cycle detected involving node %s", e.Target),
				})
				return true
			case colorWhite:
				if visit(e.Target) {
					return true
				}
			}
		}
		color[id] = colorBlack
		return false
	}

	for _, n := range g.Nodes() {
		if color[n.ID] == colorWhite {
			visit(n.ID)
		}
	}
	return problems
}

// ProblemStrings renders a problem list as user-facing messages.
func ProblemStrings(problems []Problem) []string {
	out := make([]string, len(problems))
	for i, p := range problems {
		out[i] = p.String()
	}
	return out
}
