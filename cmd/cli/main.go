package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/syncedsports/refassign/internal/config"
	"github.com/syncedsports/refassign/pkg/clients/llmclient"
	"github.com/syncedsports/refassign/pkg/core/assignment"
	"github.com/syncedsports/refassign/pkg/core/model"
	"github.com/syncedsports/refassign/pkg/core/services"
	"github.com/syncedsports/refassign/pkg/postgres"
	"github.com/syncedsports/refassign/pkg/utils/logging"
)

// App holds the application dependencies
type App struct {
	cfg      *config.Config
	database *postgres.DB
	ranker   assignment.Ranker
	logger   *zap.Logger
	ctx      context.Context
}

var (
	env string
	app *App
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "refassign",
		Short: "Referee assignment engine - assign referees to games by rule",
		Long:  `A CLI tool for running referee assignment rules, ticking the rule scheduler, and inspecting run history.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app != nil {
				if app.database != nil {
					app.database.Close()
				}
				if app.logger != nil {
					app.logger.Sync()
				}
			}
		},
	}

	// Add persistent environment flag
	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.MarkPersistentFlagRequired("env")

	// Add all commands
	rootCmd.AddCommand(runRuleCmd())
	rootCmd.AddCommand(tickCmd())
	rootCmd.AddCommand(listRulesCmd())
	rootCmd.AddCommand(showRunCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up logger, config, clients, and database
func initApp() error {
	var err error
	app = &App{
		ctx: context.Background(),
	}

	// Initialize logger
	app.logger, err = logging.InitLogger(env)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.logger.Info("Starting application", zap.String("environment", env))

	// Load configuration
	app.cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.logger.Debug("Configuration loaded successfully")

	// Connect to the database and apply pending migrations
	app.database, err = postgres.NewDB(app.ctx, app.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := app.database.RunMigrations(app.ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	app.logger.Debug("Database initialized successfully")

	// The reasoning service is optional; rules using the model-assisted
	// strategy fail their runs when it is not configured.
	if app.cfg.LLM.BaseURL != "" {
		app.ranker = llmclient.NewClient(app.cfg)
		app.logger.Debug("Reasoning service client initialized",
			zap.String("base_url", app.cfg.LLM.BaseURL))
	}

	return nil
}

// Command definitions

func runRuleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runRule <rule_id>",
		Short: "Run an assignment rule now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ruleID := args[0]
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			gameIDs, _ := cmd.Flags().GetStringSlice("game")
			notes, _ := cmd.Flags().GetStringArray("notes")

			result, err := services.RunRule(app.ctx, app.database, app.ranker, app.cfg, app.logger, ruleID, services.RunRuleOptions{
				DryRun:       dryRun,
				GameIDs:      gameIDs,
				ContextNotes: notes,
			})
			if err != nil {
				if result != nil && result.Run != nil {
					fmt.Printf("\n✗ Run failed (recorded as %s)\n\nRun ID: %s\nError:  %v\n\n", result.Run.Status, result.Run.ID, err)
				}
				return err
			}

			printRun(result.Run, result.Plan)
			return nil
		},
	}

	cmd.Flags().Bool("dry-run", false, "Produce and record a plan without committing assignments")
	cmd.Flags().StringSlice("game", nil, "Restrict the run to specific game IDs (repeatable)")
	cmd.Flags().StringArray("notes", nil, "Context note passed to the model-assisted strategy (repeatable)")

	return cmd
}

func tickCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tick",
		Short: "Run every enabled rule that has come due and advance its schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := services.Tick(app.ctx, app.database, app.ranker, app.cfg, app.logger, time.Now().UTC())
			if err != nil {
				return err
			}

			if result.RulesDue == 0 {
				fmt.Println("\nNo rules due.")
				return nil
			}

			fmt.Printf("\n✓ Tick completed: %d rule(s) due, %d failure(s)\n\n", result.RulesDue, result.Failures)
			for _, run := range result.Runs {
				fmt.Printf("  %s  rule=%s  status=%-7s  assignments=%d  conflicts=%d\n",
					run.ID, run.RuleID, run.Status, run.AssignmentsCreated, run.ConflictsFound)
			}
			fmt.Println()

			return nil
		},
	}
}

func listRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "listRules",
		Short: "List all assignment rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := app.database.ListRules(app.ctx)
			if err != nil {
				return fmt.Errorf("failed to list rules: %w", err)
			}

			fmt.Printf("\nFound %d rule(s):\n\n", len(rules))
			for _, r := range rules {
				state := "enabled"
				if !r.Enabled {
					state = "disabled"
				}
				nextRun := "manual"
				if r.NextRun != nil {
					nextRun = r.NextRun.UTC().Format("2006-01-02 15:04")
				}
				fmt.Printf("- %s (%s) - %s - %s/%s - next run: %s\n",
					r.Name, r.ID, state, r.Strategy, r.Schedule.Type, nextRun)
				if r.LastRun != nil {
					fmt.Printf("    last run %s (%s), %d assignments, %d conflicts to date\n",
						r.LastRun.UTC().Format("2006-01-02 15:04"), r.LastRunStatus,
						r.AssignmentsCreated, r.ConflictsFound)
				}
			}
			fmt.Println()

			return nil
		},
	}
}

func showRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "showRun <run_id>",
		Short: "Show one run record with its full plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := app.database.GetRuleRun(app.ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to fetch run: %w", err)
			}
			if run == nil {
				return fmt.Errorf("run %s not found", args[0])
			}

			printRun(run, run.Plan)
			return nil
		},
	}
}

func printRun(run *model.RuleRun, plan *model.AssignmentPlan) {
	mode := "live"
	if run.DryRun {
		mode = "dry run"
	}

	fmt.Printf("\n✓ Run %s (%s)\n\n", run.ID, mode)
	fmt.Printf("Rule:        %s\n", run.RuleID)
	fmt.Printf("Ran at:      %s\n", run.RanAt.UTC().Format(time.RFC3339))
	fmt.Printf("Status:      %s\n", run.Status)
	fmt.Printf("Strategy:    %s", run.Strategy)
	if run.Model != "" {
		fmt.Printf(" (%s)", run.Model)
	}
	fmt.Println()
	fmt.Printf("Duration:    %s\n", run.Duration)
	fmt.Printf("Games:       %d processed\n", run.GamesProcessed)
	fmt.Printf("Assignments: %d created\n", run.AssignmentsCreated)
	fmt.Printf("Conflicts:   %d\n", run.ConflictsFound)
	if len(run.ContextNotes) > 0 {
		fmt.Printf("Notes:       %s\n", strings.Join(run.ContextNotes, "; "))
	}
	if run.Error != "" {
		fmt.Printf("Error:       %s\n", run.Error)
	}

	if plan == nil {
		fmt.Println()
		return
	}

	if len(plan.Games) > 0 {
		fmt.Printf("\nPlan:\n")
		for _, g := range plan.Games {
			fmt.Printf("  Game %s:\n", g.GameID)
			for _, a := range g.Assignments {
				fmt.Printf("    %d. %s (%.2f) - %s\n", a.Position, a.RefereeID, a.Score, a.Justification)
			}
		}
	}

	if len(plan.Conflicts) > 0 {
		fmt.Printf("\nConflicts:\n")
		for _, c := range plan.Conflicts {
			fmt.Printf("  - game %s [%s] %s\n", c.GameID, c.Type, c.Detail)
		}
	}
	fmt.Println()
}
