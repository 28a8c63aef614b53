// ABOUTME: Root Cobra command for vitals CLI.
// ABOUTME: Opens the configured storage backend via PersistentPre/PostRunE.
package main

import (
	"fmt"

	"github.com/harperreed/vitals/internal/calc"
	"github.com/harperreed/vitals/internal/config"
	"github.com/harperreed/vitals/internal/health"
	"github.com/harperreed/vitals/internal/storage"
	"github.com/spf13/cobra"
)

var (
	cfg  *config.Config
	repo storage.Repository
	svc  *health.Service
)

var rootCmd = &cobra.Command{
	Use:   "vitals",
	Short: "Personal observation store with derived metrics",
	Long: `Vitals is a CLI tool for recording observed values and computing
derived metrics from them.

CONCEPTS:

  Subject       Who or what is being observed (a person, a device)
  Metric        A definition of something observable (weight, glucose)
  Observation   One recorded fact: subject S had value V for metric M at time T
  Recipe        A selectable observable: a primitive alias of one metric, or a
                derived formula computed from several metrics
  Calculation   A registered pure function a derived recipe points at by key

QUICK START:

  $ vitals subject add                       # Register yourself
  $ vitals metric add weight Weight float --unit kg
  $ vitals record 1 weight 82.5              # Record an observation
  $ vitals series 1 weight                   # See the raw series
  $ vitals latest 1 weight                   # Most recent value

DERIVED METRICS:

  $ vitals recipe add-derived tyg "TyG Index" float \
      --deps 16,18 --calc tyg_v1             # Define a derived recipe
  $ vitals recipe query 1 3                  # Evaluate it over time
  $ vitals recipe list                       # Selectable derived recipes

  Derived values are computed on demand at exactly-matching timestamps;
  nothing derived is ever stored.

MCP INTEGRATION:

  Run 'vitals mcp' to start the Model Context Protocol server for use with
  Claude Desktop or other MCP-compatible AI assistants. Add to your Claude
  config:

  {
    "mcpServers": {
      "vitals": { "command": "vitals", "args": ["mcp"] }
    }
  }

DATA STORAGE:

  Observations are stored in SQLite at ~/.local/share/vitals/vitals.db by
  default. Set "backend": "charm" in ~/.config/vitals/config.json to use
  E2E-encrypted Charm Cloud sync instead.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip storage init for commands that don't need it
		if cmd.Name() == "version" || cmd.Name() == "help" || cmd.Name() == "install-skill" {
			return nil
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		repo, err = cfg.OpenStorage()
		if err != nil {
			return fmt.Errorf("failed to open storage: %w", err)
		}

		policy := health.EvalSkipRows
		if cfg.StrictEval {
			policy = health.EvalStrict
		}
		svc = health.NewService(repo, calc.NewRegistry(), health.WithEvalPolicy(policy))
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if repo != nil {
			err := repo.Close()
			repo = nil
			return err
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
