package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/warp/timesheet-engine/generic"
	"github.com/warp/timesheet-engine/timesheet"
)

func newMonthCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "month",
		Short: "Show, fill, reset and lock an employee's month",
	}
	cmd.AddCommand(
		monthAction(g, "show", "Print the month day by day", showMonth),
		monthAction(g, "autofill", "Fill empty scheduled days with default WORK entries and save", autofillMonth),
		monthAction(g, "reset", "Delete every entry of the month", resetMonth),
		monthAction(g, "finalize", "Lock the month against edits", finalizeMonth),
		monthAction(g, "reopen", "Unlock a finalized month", reopenMonth),
		newMonthListCmd(g),
	)
	return cmd
}

type monthFunc func(cmd *cobra.Command, s *timesheet.Session, month generic.Month) error

// monthAction builds a "<verb> YYYY-MM" subcommand.
func monthAction(g *globalFlags, use, short string, run monthFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use + " YYYY-MM",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			month, err := generic.ParseMonth(args[0])
			if err != nil {
				return err
			}
			a, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			s, err := a.session(g)
			if err != nil {
				return err
			}
			return run(cmd, s, month)
		},
	}
}

func showMonth(cmd *cobra.Command, s *timesheet.Session, month generic.Month) error {
	view, err := s.Month(cmd.Context(), month)
	if err != nil {
		return err
	}
	printMonth(cmd.OutOrStdout(), view)
	return nil
}

func autofillMonth(cmd *cobra.Command, s *timesheet.Session, month generic.Month) error {
	n, err := s.AutoFill(cmd.Context(), month)
	if err != nil {
		return err
	}
	res, err := s.Save(cmd.Context())
	if err != nil {
		return reportBatch(cmd.OutOrStdout(), err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Filled %d days of %s (%d saved)\n", n, month, res.Added+res.Updated)
	return nil
}

func resetMonth(cmd *cobra.Command, s *timesheet.Session, month generic.Month) error {
	res, err := s.ResetMonth(cmd.Context(), month)
	if err != nil {
		return reportBatch(cmd.OutOrStdout(), err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d entries of %s\n", res.Deleted, month)
	return nil
}

func finalizeMonth(cmd *cobra.Command, s *timesheet.Session, month generic.Month) error {
	if err := s.Finalize(cmd.Context(), month); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s finalized for %s\n", month, s.Employee())
	return nil
}

func reopenMonth(cmd *cobra.Command, s *timesheet.Session, month generic.Month) error {
	if err := s.Reopen(cmd.Context(), month); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s reopened for %s\n", month, s.Employee())
	return nil
}

func newMonthListCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the employee's months that have a lock record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if g.employee == "" {
				return errors.New("--employee is required")
			}
			a, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			sheets, err := a.store.Timesheets(cmd.Context(), timesheet.EmployeeID(g.employee))
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "MONTH\tSTATUS\tUPDATED")
			for _, ts := range sheets {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", ts.Month, ts.Status, ts.UpdatedAt.Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		},
	}
}

// =============================================================================
// OUTPUT
// =============================================================================

func printMonth(w io.Writer, v timesheet.MonthView) {
	fmt.Fprintf(w, "%s  %s  [%s]\n\n", v.EmployeeID, v.Month, v.Status)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tDAY\tTARGET\tTYPE\tDURATION\tOVERTIME\tLOCATION\tSTART\tEND\t")
	for _, d := range v.Days {
		target := "-"
		if h, ok := d.Target.Contractual(); ok {
			target = h.String() + "h"
		}
		row := []string{d.Date.Key(), d.Date.Weekday().String()[:3], target}
		if e := d.Entry; e != nil {
			duration := "-"
			if e.Duration != nil {
				duration = timesheet.FormatDuration(*e.Duration)
			}
			typ := string(e.Type)
			if d.Pending {
				typ += "*"
			}
			row = append(row, typ, duration, e.Overtime.String(), e.Location, e.StartTime, e.EndTime)
		}
		fmt.Fprintln(tw, strings.Join(row, "\t")+"\t")
	}
	tw.Flush()

	sum := v.Summary
	fmt.Fprintf(w, "\nWorked %s of %sh target, overtime %sh, bad weather %s\n",
		timesheet.FormatDuration(sum.WorkedMinutes), sum.TargetHours, sum.Overtime,
		timesheet.FormatDuration(sum.BadWeatherMinutes))
}

// reportBatch prints the failed operations of a save or reset.
func reportBatch(w io.Writer, err error) error {
	var be *timesheet.BatchError
	if errors.As(err, &be) {
		for _, f := range be.Failed {
			fmt.Fprintf(w, "  %s %s: %v\n", f.Op, f.Date.Key(), f.Err)
		}
	}
	return err
}
