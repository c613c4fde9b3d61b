package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papapumpkin/critpath/internal/projectfile"
)

var importCmd = &cobra.Command{
	Use:   "import <project.toml>",
	Short: "Load a project definition into the store",
	Long: `Replaces the tasks and dependencies of a project with the contents of a
TOML project definition. A definition whose dependencies form a cycle is
rejected and nothing is written.

With --watch, the file is re-imported every time it is saved until the
command is interrupted. Each import drops the cached graph so the next
analysis recomputes in full.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolP("watch", "w", false, "re-import whenever the file changes")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	path := args[0]
	watch, _ := cmd.Flags().GetBool("watch")

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	f, err := projectfile.Load(path)
	if err != nil {
		return err
	}
	if err := importFile(cmd.Context(), a, f); err != nil {
		return err
	}
	if !watch {
		return nil
	}

	w, err := projectfile.NewWatcher(path)
	if err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	if err := w.Start(); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	defer w.Stop()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	a.printer.Info("watching " + path + " (ctrl-c to stop)")

	for {
		select {
		case <-ctx.Done():
			return nil
		case change, ok := <-w.Changes:
			if !ok {
				return nil
			}
			if change.Err != nil {
				a.printer.Error(change.Err.Error())
				continue
			}
			// A rejected import leaves the previous version in place.
			if err := importFile(ctx, a, change.File); err != nil {
				a.printer.Error(err.Error())
			}
		}
	}
}

// importFile writes f under the --project override or the file's own id.
func importFile(ctx context.Context, a *app, f *projectfile.File) error {
	projectID := viper.GetString("project")
	if projectID == "" {
		projectID = f.Project
	}
	tasks, edges := f.Records()
	for i := range tasks {
		tasks[i].ProjectID = projectID
	}
	if err := a.engine.ImportProject(ctx, projectID, tasks, edges); err != nil {
		return err
	}
	a.printer.Info(fmt.Sprintf("imported %s: %d tasks, %d dependencies", projectID, len(tasks), len(edges)))
	return nil
}
