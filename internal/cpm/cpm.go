// Package cpm implements the Critical Path Method over a dependency graph.
// Compute runs a forward pass for earliest times and a backward pass for
// latest times, then derives slack and the zero-slack critical path. All
// edges are treated as finish-to-start.
package cpm

import (
	"fmt"
	"sort"

	"github.com/papapumpkin/critpath/internal/dag"
)

// slackTolerance absorbs floating point error when comparing slack with
// zero. Durations are never rounded during the passes.
const slackTolerance = 1e-9

// Schedule holds the computed times for a single task, in hours from the
// project start.
type Schedule struct {
	Task           dag.Task `json:"task"`
	EarliestStart  float64  `json:"earliest_start"`
	EarliestFinish float64  `json:"earliest_finish"`
	LatestStart    float64  `json:"latest_start"`
	LatestFinish   float64  `json:"latest_finish"`
	Slack          float64  `json:"slack"`
	Critical       bool     `json:"critical"`
	// Component is the index of the independent sub-network the task
	// belongs to; see Result.Components.
	Component int `json:"component"`
}

// Component summarises one weakly connected sub-network of the project.
type Component struct {
	Index          int      `json:"index"`
	TaskIDs        []string `json:"task_ids"`
	CompletionTime float64  `json:"completion_time"`
}

// Result is the complete critical path analysis of one graph snapshot.
type Result struct {
	// Tasks are ordered by earliest start, then topological position.
	Tasks []Schedule `json:"tasks"`
	// CriticalPath lists zero-slack task IDs by earliest start.
	CriticalPath  []string    `json:"critical_path"`
	TotalDuration float64     `json:"total_duration"`
	TopoOrder     []string    `json:"topological_order"`
	Components    []Component `json:"components"`
}

// Schedule returns the computed schedule for id.
func (r *Result) Schedule(id string) (Schedule, bool) {
	for _, s := range r.Tasks {
		if s.Task.ID == id {
			return s, true
		}
	}
	return Schedule{}, false
}

// Compute performs the two-pass CPM analysis of g. An empty graph yields
// an empty result with zero duration. A cyclic graph or negative slack
// returns an error wrapping dag.ErrInvariant; both indicate the acyclic
// invariant was broken upstream and cannot be fixed by retrying.
func Compute(g *dag.Graph) (*Result, error) {
	result := &Result{
		Tasks:        []Schedule{},
		CriticalPath: []string{},
		TopoOrder:    []string{},
		Components:   []Component{},
	}
	if g.Len() == 0 {
		return result, nil
	}

	order, err := g.TopologicalSort()
	if err != nil {
		return nil, fmt.Errorf("cpm: %w", err)
	}
	result.TopoOrder = order

	sched := make(map[string]*Schedule, len(order))
	for _, id := range order {
		t, _ := g.Task(id)
		sched[id] = &Schedule{Task: t}
	}

	// Forward pass: ES = max EF over predecessors (0 for roots).
	for _, id := range order {
		s := sched[id]
		es := 0.0
		for _, pred := range g.Predecessors(id) {
			if ef := sched[pred].EarliestFinish; ef > es {
				es = ef
			}
		}
		s.EarliestStart = es
		s.EarliestFinish = es + s.Task.DurationHours
	}

	total := 0.0
	for _, s := range sched {
		if s.EarliestFinish > total {
			total = s.EarliestFinish
		}
	}
	result.TotalDuration = total

	// Backward pass: LF = min LS over all successors (project end for sinks).
	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		s := sched[id]
		succs := g.Successors(id)
		if len(succs) == 0 {
			s.LatestFinish = total
		} else {
			lf := sched[succs[0]].LatestStart
			for _, succ := range succs[1:] {
				if ls := sched[succ].LatestStart; ls < lf {
					lf = ls
				}
			}
			s.LatestFinish = lf
		}
		s.LatestStart = s.LatestFinish - s.Task.DurationHours
		s.Slack = s.LatestStart - s.EarliestStart
		if s.Slack < -slackTolerance {
			return nil, fmt.Errorf("cpm: %w: task %s has negative slack %g", dag.ErrInvariant, id, s.Slack)
		}
		s.Critical = s.Slack <= slackTolerance
	}

	components := g.Components()
	for idx, members := range components {
		c := Component{Index: idx, TaskIDs: members}
		for _, id := range members {
			sched[id].Component = idx
			if ef := sched[id].EarliestFinish; ef > c.CompletionTime {
				c.CompletionTime = ef
			}
		}
		result.Components = append(result.Components, c)
	}

	pos := make(map[string]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	for _, id := range order {
		result.Tasks = append(result.Tasks, *sched[id])
	}
	sort.SliceStable(result.Tasks, func(i, j int) bool {
		a, b := result.Tasks[i], result.Tasks[j]
		if a.EarliestStart != b.EarliestStart {
			return a.EarliestStart < b.EarliestStart
		}
		return pos[a.Task.ID] < pos[b.Task.ID]
	})
	for _, s := range result.Tasks {
		if s.Critical {
			result.CriticalPath = append(result.CriticalPath, s.Task.ID)
		}
	}
	return result, nil
}
