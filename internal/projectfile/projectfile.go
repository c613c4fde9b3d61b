// Package projectfile reads project definitions written in TOML and turns
// them into the task and edge records the engine imports.
//
// A definition looks like:
//
//	project = "website"
//
//	[[task]]
//	id = "req"
//	title = "Gather requirements"
//	duration_hours = 4
//	kind = "requirement"
//
//	[[task]]
//	id = "design"
//	title = "Design pages"
//	depends_on = ["req"]
//
//	[[dependency]]
//	predecessor = "req"
//	successor = "design"
//	type = "start_to_start"
package projectfile

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/papapumpkin/critpath/internal/dag"
)

// ErrNoProject is returned when a definition omits the project key.
var ErrNoProject = errors.New("project definition has no project id")

// TaskSpec is one [[task]] table.
type TaskSpec struct {
	ID       string `toml:"id"`
	Title    string `toml:"title"`
	Status   string `toml:"status"`
	Scope    string `toml:"scope"`
	Kind     string `toml:"kind"`
	Assignee string `toml:"assignee"`
	// DurationHours is nil when the task has no estimate.
	DurationHours *float64 `toml:"duration_hours"`
	// DependsOn lists finish-to-start predecessors.
	DependsOn []string `toml:"depends_on"`
}

// DependencySpec is one [[dependency]] table, for edges that need a type.
type DependencySpec struct {
	Predecessor string `toml:"predecessor"`
	Successor   string `toml:"successor"`
	Type        string `toml:"type"`
}

// File is a parsed project definition.
type File struct {
	Project      string           `toml:"project"`
	Tasks        []TaskSpec       `toml:"task"`
	Dependencies []DependencySpec `toml:"dependency"`
}

// Load reads and parses the definition at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return f, nil
}

// Parse decodes a definition. Unknown keys are rejected so typos in field
// names do not silently drop data.
func Parse(data []byte) (*File, error) {
	var f File
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		var sme *toml.StrictMissingError
		if errors.As(err, &sme) {
			return nil, fmt.Errorf("unknown field: %s", sme.String())
		}
		var de *toml.DecodeError
		if errors.As(err, &de) {
			row, col := de.Position()
			return nil, fmt.Errorf("line %d column %d: %w", row, col, err)
		}
		return nil, err
	}
	if f.Project == "" {
		return nil, ErrNoProject
	}
	for i, t := range f.Tasks {
		if t.ID == "" {
			return nil, fmt.Errorf("task #%d: %w: empty id", i+1, dag.ErrValidation)
		}
	}
	return &f, nil
}

// Records converts the definition into store records. Tasks without an
// estimate get a zero duration. Edges from depends_on and [[dependency]]
// are merged; when both name the same pair the explicit table wins.
func (f *File) Records() ([]dag.Task, []dag.Edge) {
	tasks := make([]dag.Task, 0, len(f.Tasks))
	byPair := make(map[[2]string]dag.Edge)
	for _, t := range f.Tasks {
		var hours float64
		if t.DurationHours != nil {
			hours = *t.DurationHours
		}
		status := dag.Status(t.Status)
		if status == "" {
			status = dag.StatusNotStarted
		}
		tasks = append(tasks, dag.Task{
			ID:            t.ID,
			Title:         t.Title,
			Status:        status,
			DurationHours: hours,
			ProjectID:     f.Project,
			Scope:         t.Scope,
			Kind:          t.Kind,
			AssigneeID:    t.Assignee,
		})
		for _, pred := range t.DependsOn {
			byPair[[2]string{pred, t.ID}] = dag.Edge{PredecessorID: pred, SuccessorID: t.ID, Type: dag.FinishToStart}
		}
	}
	for _, d := range f.Dependencies {
		byPair[[2]string{d.Predecessor, d.Successor}] = dag.Edge{
			PredecessorID: d.Predecessor,
			SuccessorID:   d.Successor,
			Type:          dag.DependencyType(d.Type).Normalize(),
		}
	}

	edges := make([]dag.Edge, 0, len(byPair))
	for _, e := range byPair {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].PredecessorID != edges[j].PredecessorID {
			return edges[i].PredecessorID < edges[j].PredecessorID
		}
		return edges[i].SuccessorID < edges[j].SuccessorID
	})
	return tasks, edges
}
