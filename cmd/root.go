// Package cmd provides CLI commands for critpath.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "critpath",
	Short: "Task dependency graph and critical path engine",
	Long: `critpath keeps a project's task dependencies acyclic and answers
scheduling questions about them: the critical path and slack of every task,
the full upstream and downstream chain of a task, which tasks can start now,
and which predecessors a task probably needs.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default .critpath.yaml)")
	pf.StringP("project", "p", "", "project ID (or CRITPATH_PROJECT env)")
	pf.Bool("json", false, "print results as JSON")
	pf.String("driver", "", "store driver: sqlite, mysql or memory")
	pf.String("dsn", "", "store DSN: a file path for sqlite, a go-sql-driver DSN for mysql")
	pf.String("log-level", "", "log level: debug, info, warn, error")

	_ = viper.BindPFlag("project", pf.Lookup("project"))
	_ = viper.BindPFlag("store.driver", pf.Lookup("driver"))
	_ = viper.BindPFlag("store.dsn", pf.Lookup("dsn"))
	_ = viper.BindPFlag("log.level", pf.Lookup("log-level"))
}

func initConfig() {
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".critpath")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
	}

	viper.SetEnvPrefix("CRITPATH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// It's fine if no config file is found; we use defaults.
	_ = viper.ReadInConfig()
}

// requireProject returns the project ID or an error if none is configured.
func requireProject() (string, error) {
	id := viper.GetString("project")
	if id == "" {
		return "", fmt.Errorf("project ID required: use --project or set CRITPATH_PROJECT")
	}
	return id, nil
}

// wantJSON reports whether --json was given.
func wantJSON(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}
