// Package cli is the timesheet command line: the HTTP server plus direct
// month operations against the SQLite store.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/warp/timesheet-engine/config"
	"github.com/warp/timesheet-engine/logging"
	"github.com/warp/timesheet-engine/store/sqlite"
	"github.com/warp/timesheet-engine/timesheet"
)

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	configPath string
	dbPath     string
	employee   string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "timesheet",
		Short: "Monthly timesheet engine",
		Long: `timesheet records one entry per employee and day, derives overtime
from the employee's weekly schedule and locks finalized months.

Run "timesheet serve" for the HTTP API, or use the month, day and schedule
commands to work on the database directly.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&g.dbPath, "db", "", "SQLite database path (overrides config)")
	root.PersistentFlags().StringVarP(&g.employee, "employee", "e", "", "Employee id")

	root.AddCommand(newServeCmd(g))
	root.AddCommand(newMonthCmd(g))
	root.AddCommand(newDayCmd(g))
	root.AddCommand(newScheduleCmd(g))
	return root
}

// Execute is the entry point called from main.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// =============================================================================
// SHARED WIRING
// =============================================================================

// app is what a command needs once flags are parsed.
type app struct {
	cfg   config.Config
	log   *slog.Logger
	store *sqlite.Store
	opts  timesheet.Options
}

func (g *globalFlags) open(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	if g.dbPath != "" {
		cfg.Database.Path = g.dbPath
	}

	log := logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	opts := cfg.EngineOptions()
	opts.Logger = log
	return &app{cfg: cfg, log: log, store: store, opts: opts}, nil
}

func (a *app) Close() error { return a.store.Close() }

// session opens an editing session for the --employee flag.
func (a *app) session(g *globalFlags) (*timesheet.Session, error) {
	employee := strings.TrimSpace(g.employee)
	if employee == "" {
		return nil, fmt.Errorf("--employee is required")
	}
	lock := timesheet.NewMonthLock(a.store, a.opts)
	return timesheet.NewSession(timesheet.EmployeeID(employee), a.store, a.store, lock, a.opts), nil
}
