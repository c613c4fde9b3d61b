package suggest

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/papapumpkin/critpath/internal/dag"
)

func build(t *testing.T, tasks []dag.Task, edges []dag.Edge) *dag.Graph {
	t.Helper()
	for i := range tasks {
		if tasks[i].ProjectID == "" {
			tasks[i].ProjectID = "p1"
		}
	}
	g, err := dag.Build(tasks, edges)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return g
}

func suggestionIDs(s []Suggestion) []string {
	out := make([]string, len(s))
	for i := range s {
		out[i] = s[i].Task.ID
	}
	return out
}

func TestSuggest_Scoring(t *testing.T) {
	t.Parallel()
	g := build(t, []dag.Task{
		{ID: "target", Kind: "coding", Scope: "m1", AssigneeID: "u1"},
		{ID: "design", Kind: "design", Scope: "m1", AssigneeID: "u1"}, // 3+2+1
		{ID: "spec", Kind: "requirement", Scope: "m1"},                 // 3
		{ID: "other-design", Kind: "Design", Scope: "m2"},              // 2
		{ID: "pair", Kind: "testing", Scope: "m2", AssigneeID: "u1"},   // 1
		{ID: "unrelated", Kind: "testing", Scope: "m2"},                // 0
	}, nil)

	got, err := Suggest(g, "target", 0)
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if diff := cmp.Diff([]string{"design", "spec", "other-design", "pair"}, suggestionIDs(got)); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	wantScores := []int{6, 3, 2, 1}
	for i, s := range got {
		if s.Score != wantScores[i] {
			t.Errorf("%s score = %d, want %d", s.Task.ID, s.Score, wantScores[i])
		}
	}
	if r := got[0].Reason(); r != `same scope "m1"; design usually precedes coding; same assignee` {
		t.Errorf("Reason() = %q", r)
	}
}

func TestSuggest_ExcludesRelated(t *testing.T) {
	t.Parallel()
	// up → mid → target → down; all share a scope.
	g := build(t, []dag.Task{
		{ID: "up", Scope: "m"},
		{ID: "mid", Scope: "m"},
		{ID: "target", Scope: "m"},
		{ID: "down", Scope: "m"},
		{ID: "free", Scope: "m"},
	}, []dag.Edge{
		{PredecessorID: "up", SuccessorID: "mid"},
		{PredecessorID: "mid", SuccessorID: "target"},
		{PredecessorID: "target", SuccessorID: "down"},
	})

	got, err := Suggest(g, "target", 5)
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if diff := cmp.Diff([]string{"free"}, suggestionIDs(got)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestSuggest_LimitAndTieBreak(t *testing.T) {
	t.Parallel()
	tasks := []dag.Task{{ID: "target", Scope: "s"}}
	for _, id := range []string{"g", "c", "a", "f", "b", "e", "d"} {
		tasks = append(tasks, dag.Task{ID: id, Scope: "s"})
	}
	g := build(t, tasks, nil)

	got, err := Suggest(g, "target", 0)
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b", "c", "d", "e"}, suggestionIDs(got)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	again, _ := Suggest(g, "target", 0)
	if diff := cmp.Diff(got, again); diff != "" {
		t.Errorf("not deterministic:\n%s", diff)
	}
}

func TestSuggest_OtherProjectIgnored(t *testing.T) {
	t.Parallel()
	g := build(t, []dag.Task{
		{ID: "target", Scope: "s"},
		{ID: "foreign", Scope: "s", ProjectID: "p2"},
	}, nil)
	got, err := Suggest(g, "target", 5)
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %v, want none", suggestionIDs(got))
	}
}

func TestSuggest_NoCandidates(t *testing.T) {
	t.Parallel()
	g := build(t, []dag.Task{{ID: "target"}}, nil)
	got, err := Suggest(g, "target", 5)
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("got %#v, want empty non-nil slice", got)
	}
}

func TestSuggest_UnknownTask(t *testing.T) {
	t.Parallel()
	g := build(t, []dag.Task{{ID: "a"}}, nil)
	if _, err := Suggest(g, "missing", 5); !errors.Is(err, dag.ErrTaskNotFound) {
		t.Errorf("got %v, want ErrTaskNotFound", err)
	}
}

func TestPrecedesKind(t *testing.T) {
	t.Parallel()
	tests := []struct {
		a, b string
		want bool
	}{
		{"requirement", "design", true},
		{"design", "coding", true},
		{"coding", "testing", true},
		{"testing", "documentation", true},
		{"design", "testing", false},
		{"coding", "design", false},
		{"", "design", false},
		{" Coding ", "TESTING", true},
	}
	for _, tt := range tests {
		if got := precedesKind(tt.a, tt.b); got != tt.want {
			t.Errorf("precedesKind(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
