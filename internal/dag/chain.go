package dag

import (
	"fmt"
	"sort"
)

// DefaultMaxChainDepth bounds Chain traversals when the caller passes a
// non-positive depth.
const DefaultMaxChainDepth = 10

// Direction selects which way a chain traversal follows edges.
type Direction int

const (
	Upstream   Direction = iota // towards predecessors
	Downstream                  // towards successors
)

func (d Direction) String() string {
	if d == Upstream {
		return "predecessors"
	}
	return "successors"
}

// ChainLink is one transitively related task.
type ChainLink struct {
	TaskID string         `json:"task_id"`
	Type   DependencyType `json:"dependency_type"`
	Depth  int            `json:"depth"` // 1 = direct neighbour
}

// Chain holds every transitive predecessor and successor of a task.
type Chain struct {
	TaskID       string      `json:"task_id"`
	Predecessors []ChainLink `json:"predecessors"`
	Successors   []ChainLink `json:"successors"`
	// Truncated is set when a traversal stopped at the depth bound.
	Truncated bool `json:"truncated,omitempty"`
}

// Chain walks the graph from id in both directions. Each task is listed at
// most once, at the depth of the shortest path that reaches it, with the
// type of the edge through which it was first discovered.
//
// When a walk reaches maxDepth and more tasks lie beyond, the partial chain
// is returned with Truncated set together with an error wrapping
// ErrChainTooDeep. A non-positive maxDepth selects DefaultMaxChainDepth.
func (g *Graph) Chain(id string, maxDepth int) (*Chain, error) {
	if !g.Has(id) {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxChainDepth
	}

	preds, predCut := g.walk(id, Upstream, maxDepth)
	succs, succCut := g.walk(id, Downstream, maxDepth)
	c := &Chain{
		TaskID:       id,
		Predecessors: preds,
		Successors:   succs,
		Truncated:    predCut || succCut,
	}
	if c.Truncated {
		dir := Upstream
		if succCut && !predCut {
			dir = Downstream
		}
		return c, fmt.Errorf("%w: %s of %s exceed depth %d", ErrChainTooDeep, dir, id, maxDepth)
	}
	return c, nil
}

// walk performs a breadth-first traversal level by level. It returns the
// collected links and whether unvisited tasks remained past maxDepth.
func (g *Graph) walk(start string, dir Direction, maxDepth int) ([]ChainLink, bool) {
	neighbours := g.successors
	if dir == Upstream {
		neighbours = g.predecessors
	}

	links := []ChainLink{}
	visited := map[string]bool{start: true}
	frontier := []string{start}
	cut := false
walk:
	for depth := 1; len(frontier) > 0; depth++ {
		var next []string
		for _, cur := range frontier {
			for _, n := range neighbours[cur] {
				if visited[n] {
					continue
				}
				if depth > maxDepth {
					cut = true
					break walk
				}
				visited[n] = true
				next = append(next, n)
				links = append(links, ChainLink{
					TaskID: n,
					Type:   g.edgeType(cur, n, dir),
					Depth:  depth,
				})
			}
		}
		frontier = next
	}

	sort.SliceStable(links, func(i, j int) bool {
		if links[i].Depth != links[j].Depth {
			return links[i].Depth < links[j].Depth
		}
		return links[i].TaskID < links[j].TaskID
	})
	return links, cut
}

// edgeType returns the type of the edge between cur and n as seen when
// walking in dir.
func (g *Graph) edgeType(cur, n string, dir Direction) DependencyType {
	key := pair{cur, n}
	if dir == Upstream {
		key = pair{n, cur}
	}
	return g.edges[key].Type
}
