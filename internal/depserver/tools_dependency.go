package depserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papapumpkin/critpath/internal/dag"
	"github.com/papapumpkin/critpath/internal/suggest"
)

// edgeInput is the input schema for validate_dependency and add_dependency.
type edgeInput struct {
	ProjectID     string `json:"project_id,omitempty" jsonschema:"Project both tasks belong to"`
	PredecessorID string `json:"predecessor_id,omitempty" jsonschema:"Task that must come first"`
	SuccessorID   string `json:"successor_id,omitempty" jsonschema:"Task that depends on the predecessor"`
	Type          string `json:"type,omitempty" jsonschema:"finish_to_start (default), start_to_start, finish_to_finish or start_to_finish"`
}

func (in edgeInput) check() error {
	switch {
	case in.ProjectID == "":
		return fmt.Errorf("project_id is required")
	case in.PredecessorID == "":
		return fmt.Errorf("predecessor_id is required")
	case in.SuccessorID == "":
		return fmt.Errorf("successor_id is required")
	}
	return nil
}

// removeInput is the input schema for the remove_dependency tool.
type removeInput struct {
	ProjectID string `json:"project_id,omitempty" jsonschema:"Project the dependency belongs to"`
	EdgeID    string `json:"edge_id,omitempty" jsonschema:"ID of the dependency to delete"`
}

// removeOutput is the output schema for the remove_dependency tool.
type removeOutput struct {
	OK bool `json:"ok"`
}

// suggestOutput is the output schema for the suggest_dependencies tool.
type suggestOutput struct {
	Suggestions []suggest.Suggestion `json:"suggestions"`
}

// registerDependencyTools registers the tools that check, change or
// propose edges.
func (s *Server) registerDependencyTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "validate_dependency",
		Description: "Check whether a dependency could be added without creating a cycle or duplicate",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input edgeInput) (*mcp.CallToolResult, dag.Validation, error) {
		if err := input.check(); err != nil {
			return nil, dag.Validation{}, err
		}
		v, err := s.engine.ValidateDependency(ctx, input.ProjectID, input.PredecessorID, input.SuccessorID)
		if err != nil {
			return nil, dag.Validation{}, toolError(err)
		}
		return nil, v, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "add_dependency",
		Description: "Add a dependency between two tasks; rejected if it would create a cycle",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input edgeInput) (*mcp.CallToolResult, dag.Edge, error) {
		if err := input.check(); err != nil {
			return nil, dag.Edge{}, err
		}
		e, err := s.engine.AddDependency(ctx, input.ProjectID, input.PredecessorID, input.SuccessorID, dag.DependencyType(input.Type))
		if err != nil {
			return nil, dag.Edge{}, toolError(err)
		}
		return nil, e, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "remove_dependency",
		Description: "Delete a dependency by ID",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input removeInput) (*mcp.CallToolResult, removeOutput, error) {
		if input.ProjectID == "" {
			return nil, removeOutput{}, fmt.Errorf("project_id is required")
		}
		if input.EdgeID == "" {
			return nil, removeOutput{}, fmt.Errorf("edge_id is required")
		}
		if err := s.engine.RemoveDependency(ctx, input.ProjectID, input.EdgeID); err != nil {
			return nil, removeOutput{}, toolError(err)
		}
		return nil, removeOutput{OK: true}, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "suggest_dependencies",
		Description: "Rank tasks that are plausible predecessors of a task",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input chainInput) (*mcp.CallToolResult, suggestOutput, error) {
		if input.ProjectID == "" {
			return nil, suggestOutput{}, fmt.Errorf("project_id is required")
		}
		if input.TaskID == "" {
			return nil, suggestOutput{}, fmt.Errorf("task_id is required")
		}
		list, err := s.engine.Suggest(ctx, input.ProjectID, input.TaskID)
		if err != nil {
			return nil, suggestOutput{}, toolError(err)
		}
		return nil, suggestOutput{Suggestions: list}, nil
	})
}
