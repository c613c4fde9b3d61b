package dag

import "testing"

func ids(tasks []Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestAvailableAndBlocked(t *testing.T) {
	t.Parallel()
	// a (completed) → b → c
	g, err := Build(
		[]Task{
			{ID: "a", Status: StatusCompleted},
			{ID: "b", Status: StatusNotStarted},
			{ID: "c", Status: StatusNotStarted},
		},
		[]Edge{
			{PredecessorID: "a", SuccessorID: "b"},
			{PredecessorID: "b", SuccessorID: "c"},
		},
	)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if got := ids(g.Available(nil, "")); !equalIDs(got, []string{"b"}) {
		t.Errorf("Available = %v, want [b]", got)
	}

	blocked := g.Blocked(nil)
	if len(blocked) != 1 || blocked[0].Task.ID != "c" {
		t.Fatalf("Blocked = %+v, want [c]", blocked)
	}
	if got := ids(blocked[0].BlockingPredecessors); !equalIDs(got, []string{"b"}) {
		t.Errorf("BlockingPredecessors = %v, want [b]", got)
	}
}

func TestAvailableStatusOverrides(t *testing.T) {
	t.Parallel()
	g := buildGraph(t, []taskSpec{
		{"a", 1, nil},
		{"b", 1, []string{"a"}},
		{"c", 1, []string{"a", "b"}},
	})

	t.Run("all open", func(t *testing.T) {
		t.Parallel()
		if got := ids(g.Available(nil, "")); !equalIDs(got, []string{"a"}) {
			t.Errorf("Available = %v, want [a]", got)
		}
		blocked := g.Blocked(nil)
		if len(blocked) != 2 {
			t.Fatalf("Blocked = %+v, want b and c", blocked)
		}
		if got := ids(blocked[1].BlockingPredecessors); !equalIDs(got, []string{"a", "b"}) {
			t.Errorf("c blockers = %v, want [a b]", got)
		}
	})

	t.Run("partial completion", func(t *testing.T) {
		t.Parallel()
		statuses := map[string]Status{"a": StatusCompleted, "b": StatusInProgress}
		if got := ids(g.Available(statuses, "")); !equalIDs(got, []string{"b"}) {
			t.Errorf("Available = %v, want [b]", got)
		}
		blocked := g.Blocked(statuses)
		if len(blocked) != 1 || !equalIDs(ids(blocked[0].BlockingPredecessors), []string{"b"}) {
			t.Errorf("Blocked = %+v, want c blocked by b only", blocked)
		}
	})

	t.Run("cancelled predecessor still blocks", func(t *testing.T) {
		t.Parallel()
		statuses := map[string]Status{"a": StatusCancelled}
		if got := ids(g.Available(statuses, "")); len(got) != 0 {
			t.Errorf("Available = %v, want none", got)
		}
	})
}

func TestAvailableAssigneeScope(t *testing.T) {
	t.Parallel()
	g, err := Build([]Task{
		{ID: "a", AssigneeID: "u1"},
		{ID: "b", AssigneeID: "u2"},
		{ID: "c", AssigneeID: "u1", Status: StatusCompleted},
	}, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := ids(g.Available(nil, "u1")); !equalIDs(got, []string{"a"}) {
		t.Errorf("Available(u1) = %v, want [a]", got)
	}
	if got := ids(g.Available(nil, "")); !equalIDs(got, []string{"a", "b"}) {
		t.Errorf("Available() = %v, want [a b]", got)
	}
}

func TestRootsNeverBlocked(t *testing.T) {
	t.Parallel()
	g := buildGraph(t, []taskSpec{{"solo", 1, nil}, {"root", 1, nil}, {"leaf", 1, []string{"root"}}})
	for _, b := range g.Blocked(nil) {
		if len(g.Predecessors(b.Task.ID)) == 0 {
			t.Errorf("task %s has no predecessors but is blocked", b.Task.ID)
		}
	}
}
