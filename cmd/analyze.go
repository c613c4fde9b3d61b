package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/critpath/internal/dag"
)

var criticalPathCmd = &cobra.Command{
	Use:     "critical-path",
	Aliases: []string{"cpm"},
	Short:   "Show earliest/latest times, slack and the critical path",
	Args:    cobra.NoArgs,
	RunE:    runCriticalPath,
}

var chainCmd = &cobra.Command{
	Use:   "chain <task-id>",
	Short: "List every transitive predecessor and successor of a task",
	Long: `Walks the dependency graph upstream and downstream from a task.
The walk stops at chain.max_depth levels; a truncated chain is still printed
and the command exits non-zero.`,
	Args: cobra.ExactArgs(1),
	RunE: runChain,
}

var availableCmd = &cobra.Command{
	Use:   "available",
	Short: "List tasks whose predecessors are all completed",
	Args:  cobra.NoArgs,
	RunE:  runAvailable,
}

var blockedCmd = &cobra.Command{
	Use:   "blocked",
	Short: "List tasks waiting on unfinished predecessors",
	Args:  cobra.NoArgs,
	RunE:  runBlocked,
}

var suggestCmd = &cobra.Command{
	Use:   "suggest <task-id>",
	Short: "Rank tasks that are plausible predecessors of a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runSuggest,
}

func init() {
	availableCmd.Flags().String("assignee", "", "only list tasks assigned to this user")
	rootCmd.AddCommand(criticalPathCmd, chainCmd, availableCmd, blockedCmd, suggestCmd)
}

func runCriticalPath(cmd *cobra.Command, _ []string) error {
	projectID, err := requireProject()
	if err != nil {
		return err
	}
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.engine.CriticalPath(cmd.Context(), projectID)
	if err != nil {
		return err
	}
	if wantJSON(cmd) {
		return a.printer.JSON(res)
	}
	a.printer.CriticalPath(res)
	return nil
}

func runChain(cmd *cobra.Command, args []string) error {
	projectID, err := requireProject()
	if err != nil {
		return err
	}
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ch, err := a.engine.Chain(cmd.Context(), projectID, args[0])
	if err != nil && !errors.Is(err, dag.ErrChainTooDeep) {
		return err
	}
	if wantJSON(cmd) {
		if jerr := a.printer.JSON(ch); jerr != nil {
			return jerr
		}
	} else {
		a.printer.Chain(ch)
	}
	return err
}

func runAvailable(cmd *cobra.Command, _ []string) error {
	projectID, err := requireProject()
	if err != nil {
		return err
	}
	assignee, _ := cmd.Flags().GetString("assignee")
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	tasks, err := a.engine.Available(cmd.Context(), projectID, assignee)
	if err != nil {
		return err
	}
	if wantJSON(cmd) {
		if tasks == nil {
			tasks = []dag.Task{}
		}
		return a.printer.JSON(tasks)
	}
	a.printer.Available(tasks)
	return nil
}

func runBlocked(cmd *cobra.Command, _ []string) error {
	projectID, err := requireProject()
	if err != nil {
		return err
	}
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	blocked, err := a.engine.Blocked(cmd.Context(), projectID)
	if err != nil {
		return err
	}
	if wantJSON(cmd) {
		if blocked == nil {
			blocked = []dag.BlockedTask{}
		}
		return a.printer.JSON(blocked)
	}
	a.printer.Blocked(blocked)
	return nil
}

func runSuggest(cmd *cobra.Command, args []string) error {
	projectID, err := requireProject()
	if err != nil {
		return err
	}
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	list, err := a.engine.Suggest(cmd.Context(), projectID, args[0])
	if err != nil {
		return err
	}
	if wantJSON(cmd) {
		return a.printer.JSON(list)
	}
	a.printer.Suggestions(args[0], list)
	return nil
}
