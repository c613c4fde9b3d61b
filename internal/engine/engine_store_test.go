package engine

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/papapumpkin/critpath/internal/dag"
	"github.com/papapumpkin/critpath/internal/store"
)

// TestAddDependencyAcrossEngines runs two engines over one SQLite file, the
// way two critpath processes share a database. Their in-process locks are
// independent, so only the store transaction keeps b→c and c→a apart.
func TestAddDependencyAcrossEngines(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "shared.db")

	var engines []*Engine
	for range 2 {
		s, err := store.NewSQLite(ctx, dbPath)
		if err != nil {
			t.Fatalf("NewSQLite: %v", err)
		}
		t.Cleanup(func() { s.Close() })
		engines = append(engines, New(s, Options{
			Logger: slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
		}))
	}
	if err := engines[0].ImportProject(ctx, "p", abc, []dag.Edge{{PredecessorID: "a", SuccessorID: "b"}}); err != nil {
		t.Fatalf("ImportProject: %v", err)
	}

	// Both engines have seen the graph before either writes.
	for _, e := range engines {
		if _, err := e.CriticalPath(ctx, "p"); err != nil {
			t.Fatalf("CriticalPath: %v", err)
		}
	}

	pairs := [][2]string{{"b", "c"}, {"c", "a"}}
	errs := make([]error, len(pairs))
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i, p := range pairs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, errs[i] = engines[i].AddDependency(ctx, "p", p[0], p[1], "")
		}()
	}
	close(start)
	wg.Wait()

	var ok, cyc int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, dag.ErrCycle):
			cyc++
		default:
			t.Errorf("unexpected error (severity %v): %v", Classify(err), err)
		}
	}
	if ok != 1 || cyc != 1 {
		t.Fatalf("successes=%d cycles=%d, want 1 and 1 (errs=%v)", ok, cyc, errs)
	}

	for i, e := range engines {
		res, err := e.CriticalPath(ctx, "p")
		if err != nil {
			t.Fatalf("engine %d CriticalPath after race: %v", i, err)
		}
		if res.TotalDuration != 3 {
			t.Errorf("engine %d TotalDuration = %v, want 3", i, res.TotalDuration)
		}
	}
}

func TestRemoveDependencyOtherProject(t *testing.T) {
	t.Parallel()
	e, mem := newTestEngine(t, Options{CacheEnabled: true})
	seedProject(t, mem, "alpha", abc, nil)
	seedProject(t, mem, "beta", []dag.Task{{ID: "x", Title: "X"}}, nil)
	ctx := context.Background()

	edge, err := e.AddDependency(ctx, "alpha", "a", "b", "")
	if err != nil {
		t.Fatalf("AddDependency: %v", err)
	}
	if _, err := e.Chain(ctx, "alpha", "b"); err != nil {
		t.Fatalf("Chain: %v", err)
	}

	err = e.RemoveDependency(ctx, "beta", edge.ID)
	if !errors.Is(err, store.ErrEdgeNotFound) {
		t.Fatalf("RemoveDependency via other project = %v, want ErrEdgeNotFound", err)
	}

	// The edge is still stored and still served for its own project.
	ch, err := e.Chain(ctx, "alpha", "b")
	if err != nil {
		t.Fatalf("Chain: %v", err)
	}
	if len(ch.Predecessors) != 1 || ch.Predecessors[0].TaskID != "a" {
		t.Errorf("predecessors of b = %+v, want [a]", ch.Predecessors)
	}

	if err := e.RemoveDependency(ctx, "alpha", edge.ID); err != nil {
		t.Fatalf("RemoveDependency: %v", err)
	}
	ch, err = e.Chain(ctx, "alpha", "b")
	if err != nil {
		t.Fatalf("Chain: %v", err)
	}
	if len(ch.Predecessors) != 0 {
		t.Errorf("predecessors of b after removal = %+v, want none", ch.Predecessors)
	}
}

func TestImportProjectTaskOwnedElsewhere(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t, Options{})
	ctx := context.Background()

	err := e.ImportProject(ctx, "alpha", []dag.Task{{ID: "x", Title: "X"}, {ID: "t", Title: "T"}},
		[]dag.Edge{{PredecessorID: "x", SuccessorID: "t"}})
	if err != nil {
		t.Fatalf("ImportProject(alpha): %v", err)
	}

	err = e.ImportProject(ctx, "beta", []dag.Task{{ID: "t", Title: "T"}}, nil)
	if !errors.Is(err, dag.ErrDuplicateNode) {
		t.Fatalf("ImportProject(beta) = %v, want ErrDuplicateNode", err)
	}
	if got := Classify(err); got != SeverityIntegrity {
		t.Errorf("Classify = %v, want integrity", got)
	}

	res, err := e.CriticalPath(ctx, "alpha")
	if err != nil {
		t.Fatalf("CriticalPath(alpha): %v", err)
	}
	if len(res.Tasks) != 2 {
		t.Errorf("project alpha has %d tasks, want 2", len(res.Tasks))
	}
	if _, err := e.CriticalPath(ctx, "beta"); err != nil {
		t.Errorf("CriticalPath(beta) = %v, want empty project", err)
	}
}
