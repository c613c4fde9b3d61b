package cmd

import (
	"github.com/spf13/cobra"

	"github.com/papapumpkin/critpath/internal/dag"
)

var depCmd = &cobra.Command{
	Use:   "dep",
	Short: "Add, remove or check task dependencies",
	Long: `The dep command group edits the dependency graph of a project.
Every addition is checked against the current graph first; an edge that
would close a cycle, point a task at itself or repeat an existing edge is
rejected.`,
}

func init() {
	addCmd := &cobra.Command{
		Use:   "add <predecessor> <successor>",
		Short: "Make <successor> depend on <predecessor>",
		Args:  cobra.ExactArgs(2),
		RunE:  runDepAdd,
	}
	addCmd.Flags().String("type", string(dag.FinishToStart),
		"dependency type: finish_to_start, start_to_start, finish_to_finish, start_to_finish")
	depCmd.AddCommand(addCmd)

	depCmd.AddCommand(&cobra.Command{
		Use:   "remove <edge-id>",
		Short: "Delete a dependency by ID",
		Args:  cobra.ExactArgs(1),
		RunE:  runDepRemove,
	})

	depCmd.AddCommand(&cobra.Command{
		Use:   "validate <predecessor> <successor>",
		Short: "Check whether a dependency could be added",
		Args:  cobra.ExactArgs(2),
		RunE:  runDepValidate,
	})

	rootCmd.AddCommand(depCmd)
}

func runDepAdd(cmd *cobra.Command, args []string) error {
	projectID, err := requireProject()
	if err != nil {
		return err
	}
	typ, _ := cmd.Flags().GetString("type")
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	e, err := a.engine.AddDependency(cmd.Context(), projectID, args[0], args[1], dag.DependencyType(typ))
	if err != nil {
		return err
	}
	if wantJSON(cmd) {
		return a.printer.JSON(e)
	}
	a.printer.EdgeAdded(e)
	return nil
}

func runDepRemove(cmd *cobra.Command, args []string) error {
	projectID, err := requireProject()
	if err != nil {
		return err
	}
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.engine.RemoveDependency(cmd.Context(), projectID, args[0]); err != nil {
		return err
	}
	a.printer.Info("removed " + args[0])
	return nil
}

func runDepValidate(cmd *cobra.Command, args []string) error {
	projectID, err := requireProject()
	if err != nil {
		return err
	}
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	v, err := a.engine.ValidateDependency(cmd.Context(), projectID, args[0], args[1])
	if err != nil {
		return err
	}
	if wantJSON(cmd) {
		return a.printer.JSON(v)
	}
	a.printer.Validation(args[0], args[1], v)
	return nil
}
