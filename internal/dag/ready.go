package dag

// BlockedTask is a task that cannot start yet, with the predecessors that
// still hold it back.
type BlockedTask struct {
	Task                 Task   `json:"task"`
	BlockingPredecessors []Task `json:"blocking_predecessors"`
}

// Available returns tasks that can be started now: not completed or
// cancelled, and every predecessor completed. A nil statuses map uses the
// statuses loaded with the graph. When assignee is non-empty only tasks
// assigned to that user are returned. Results are sorted by task ID.
func (g *Graph) Available(statuses map[string]Status, assignee string) []Task {
	statuses = g.resolveStatuses(statuses)
	var out []Task
	for _, id := range g.ids {
		t := g.tasks[id]
		if statuses[id].Terminal() {
			continue
		}
		if assignee != "" && t.AssigneeID != assignee {
			continue
		}
		if len(g.blockers(id, statuses)) == 0 {
			out = append(out, t)
		}
	}
	return out
}

// Blocked returns every open task with at least one predecessor that is not
// completed, listing exactly which predecessors block it. A task with no
// predecessors is never blocked. Results are sorted by task ID.
func (g *Graph) Blocked(statuses map[string]Status) []BlockedTask {
	statuses = g.resolveStatuses(statuses)
	var out []BlockedTask
	for _, id := range g.ids {
		if statuses[id].Terminal() {
			continue
		}
		blocking := g.blockers(id, statuses)
		if len(blocking) == 0 {
			continue
		}
		out = append(out, BlockedTask{Task: g.tasks[id], BlockingPredecessors: blocking})
	}
	return out
}

// blockers lists the predecessors of id whose status is not completed.
func (g *Graph) blockers(id string, statuses map[string]Status) []Task {
	var out []Task
	for _, pred := range g.predecessors[id] {
		if statuses[pred] != StatusCompleted {
			out = append(out, g.tasks[pred])
		}
	}
	return out
}

// resolveStatuses overlays caller-supplied statuses on the loaded ones.
func (g *Graph) resolveStatuses(overrides map[string]Status) map[string]Status {
	if overrides == nil {
		return g.Statuses()
	}
	merged := g.Statuses()
	for id, s := range overrides {
		merged[id] = s
	}
	return merged
}
