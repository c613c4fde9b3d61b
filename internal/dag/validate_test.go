package dag

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"
)

func TestCheckEdge(t *testing.T) {
	t.Parallel()
	// a → b → c, d isolated
	g := buildGraph(t, []taskSpec{
		{"a", 1, nil},
		{"b", 1, []string{"a"}},
		{"c", 1, []string{"b"}},
		{"d", 1, nil},
	})

	tests := []struct {
		name       string
		pred, succ string
		want       error
	}{
		{"safe forward shortcut", "a", "c", nil},
		{"safe isolated", "d", "a", nil},
		{"self loop", "b", "b", ErrSelfLoop},
		{"direct back edge", "b", "a", ErrCycle},
		{"transitive back edge", "c", "a", ErrCycle},
		{"duplicate", "a", "b", ErrDuplicateEdge},
		{"unknown predecessor", "zz", "a", ErrTaskNotFound},
		{"unknown successor", "a", "zz", ErrTaskNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := g.CheckEdge(tt.pred, tt.succ)
			if tt.want == nil {
				if err != nil {
					t.Errorf("CheckEdge(%s, %s) = %v, want nil", tt.pred, tt.succ, err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("CheckEdge(%s, %s) = %v, want %v", tt.pred, tt.succ, err, tt.want)
			}
		})
	}
}

func TestValidateEdge(t *testing.T) {
	t.Parallel()
	g := buildGraph(t, []taskSpec{{"a", 1, nil}, {"b", 1, []string{"a"}}})

	if v := g.ValidateEdge("a", "a"); v.Valid {
		t.Error("self loop reported valid")
	} else if v.Reason != "a task cannot depend on itself" {
		t.Errorf("Reason = %q", v.Reason)
	}
	if v := g.ValidateEdge("b", "a"); v.Valid || v.Reason != "would create a circular dependency" {
		t.Errorf("back edge = %+v", v)
	}
	if v := g.ValidateEdge("a", "b"); v.Valid || v.Reason != "dependency already exists" {
		t.Errorf("duplicate = %+v", v)
	}
}

func TestSelfLoopAlwaysRejected(t *testing.T) {
	t.Parallel()
	g := randomDAG(t, rand.New(rand.NewSource(7)), 30, 0.2)
	for _, id := range g.IDs() {
		if v := g.ValidateEdge(id, id); v.Valid {
			t.Errorf("ValidateEdge(%s, %s) valid", id, id)
		}
	}
}

func TestReachableTerminatesOnCycle(t *testing.T) {
	t.Parallel()
	g, err := Build(
		[]Task{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		[]Edge{
			{PredecessorID: "a", SuccessorID: "b"},
			{PredecessorID: "b", SuccessorID: "a"},
		},
	)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if g.Reachable("a", "c") {
		t.Error("Reachable(a, c) = true on disconnected target")
	}
	if !g.Reachable("a", "b") {
		t.Error("Reachable(a, b) = false")
	}
}

// randomDAG builds a DAG over n tasks where each forward pair (i < j) is an
// edge with probability p. Orienting edges by index guarantees acyclicity.
func randomDAG(t *testing.T, rng *rand.Rand, n int, p float64) *Graph {
	t.Helper()
	tasks := make([]Task, n)
	for i := range tasks {
		tasks[i] = Task{ID: fmt.Sprintf("t%03d", i), DurationHours: float64(rng.Intn(8))}
	}
	var edges []Edge
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if rng.Float64() < p {
				edges = append(edges, Edge{PredecessorID: tasks[i].ID, SuccessorID: tasks[j].ID})
			}
		}
	}
	g, err := Build(tasks, edges)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return g
}

// bruteReachable answers reachability with an independent recursive DFS
// over the edge list.
func bruteReachable(edges []Edge, src, dst string) bool {
	adj := make(map[string][]string)
	for _, e := range edges {
		adj[e.PredecessorID] = append(adj[e.PredecessorID], e.SuccessorID)
	}
	seen := make(map[string]bool)
	var dfs func(string) bool
	dfs = func(n string) bool {
		for _, m := range adj[n] {
			if m == dst {
				return true
			}
			if !seen[m] {
				seen[m] = true
				if dfs(m) {
					return true
				}
			}
		}
		return false
	}
	return dfs(src)
}

func TestValidateMatchesBruteForce(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 20; round++ {
		g := randomDAG(t, rng, 25, 0.1)
		tasks := g.Tasks()
		edges := g.Edges()

		// Propose random edges in both orientations and insert every one
		// the validator accepts. The graph must stay acyclic throughout.
		for attempt := 0; attempt < 60; attempt++ {
			p := tasks[rng.Intn(len(tasks))].ID
			s := tasks[rng.Intn(len(tasks))].ID

			_, exists := g.Edge(p, s)
			wantValid := p != s && !exists && !bruteReachable(edges, s, p)
			got := g.ValidateEdge(p, s)
			if got.Valid != wantValid {
				t.Fatalf("round %d: ValidateEdge(%s, %s) = %+v, want valid=%v", round, p, s, got, wantValid)
			}
			if !got.Valid {
				continue
			}
			edges = append(edges, Edge{PredecessorID: p, SuccessorID: s})
			next, err := Build(tasks, edges)
			if err != nil {
				t.Fatalf("round %d: Build after accepted edge: %v", round, err)
			}
			g = next
			if _, err := g.TopologicalSort(); err != nil {
				t.Fatalf("round %d: graph became cyclic after %s → %s: %v", round, p, s, err)
			}
		}
	}
}
