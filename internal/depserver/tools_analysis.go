package depserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papapumpkin/critpath/internal/cpm"
	"github.com/papapumpkin/critpath/internal/dag"
)

// projectInput is the input schema for tools that only need a project.
type projectInput struct {
	ProjectID string `json:"project_id,omitempty" jsonschema:"Project whose dependency graph is analysed"`
}

// chainInput is the input schema for the dependency_chain tool.
type chainInput struct {
	ProjectID string `json:"project_id,omitempty" jsonschema:"Project the task belongs to"`
	TaskID    string `json:"task_id,omitempty" jsonschema:"Task whose transitive dependencies are listed"`
}

// availableInput is the input schema for the available_tasks tool.
type availableInput struct {
	ProjectID string `json:"project_id,omitempty" jsonschema:"Project to inspect"`
	Assignee  string `json:"assignee,omitempty" jsonschema:"Only return tasks assigned to this user"`
}

// availableOutput is the output schema for the available_tasks tool.
type availableOutput struct {
	Tasks []dag.Task `json:"tasks"`
}

// blockedOutput is the output schema for the blocked_tasks tool.
type blockedOutput struct {
	Tasks []dag.BlockedTask `json:"tasks"`
}

// registerAnalysisTools registers the read-only analysis tools.
func (s *Server) registerAnalysisTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "critical_path",
		Description: "Compute earliest/latest times, slack and the critical path of a project",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input projectInput) (*mcp.CallToolResult, cpm.Result, error) {
		if input.ProjectID == "" {
			return nil, cpm.Result{}, fmt.Errorf("project_id is required")
		}
		res, err := s.engine.CriticalPath(ctx, input.ProjectID)
		if err != nil {
			return nil, cpm.Result{}, toolError(err)
		}
		return nil, *res, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "dependency_chain",
		Description: "List every transitive predecessor and successor of a task with its depth",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input chainInput) (*mcp.CallToolResult, dag.Chain, error) {
		if input.ProjectID == "" {
			return nil, dag.Chain{}, fmt.Errorf("project_id is required")
		}
		if input.TaskID == "" {
			return nil, dag.Chain{}, fmt.Errorf("task_id is required")
		}
		ch, err := s.engine.Chain(ctx, input.ProjectID, input.TaskID)
		if err != nil {
			// A truncated chain is still useful; Truncated tells the caller.
			if errors.Is(err, dag.ErrChainTooDeep) && ch != nil {
				return nil, *ch, nil
			}
			return nil, dag.Chain{}, toolError(err)
		}
		return nil, *ch, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "available_tasks",
		Description: "List incomplete tasks whose predecessors are all completed",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input availableInput) (*mcp.CallToolResult, availableOutput, error) {
		if input.ProjectID == "" {
			return nil, availableOutput{}, fmt.Errorf("project_id is required")
		}
		tasks, err := s.engine.Available(ctx, input.ProjectID, input.Assignee)
		if err != nil {
			return nil, availableOutput{}, toolError(err)
		}
		if tasks == nil {
			tasks = []dag.Task{}
		}
		return nil, availableOutput{Tasks: tasks}, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "blocked_tasks",
		Description: "List incomplete tasks waiting on unfinished predecessors",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input projectInput) (*mcp.CallToolResult, blockedOutput, error) {
		if input.ProjectID == "" {
			return nil, blockedOutput{}, fmt.Errorf("project_id is required")
		}
		blocked, err := s.engine.Blocked(ctx, input.ProjectID)
		if err != nil {
			return nil, blockedOutput{}, toolError(err)
		}
		if blocked == nil {
			blocked = []dag.BlockedTask{}
		}
		return nil, blockedOutput{Tasks: blocked}, nil
	})
}
