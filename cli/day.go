package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/warp/timesheet-engine/generic"
	"github.com/warp/timesheet-engine/timesheet"
)

func newDayCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "day",
		Short: "Edit a single day",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set YYYY-MM-DD field=value...",
		Short: "Set fields of a day's entry and save it",
		Long: `Set one or more fields of a day's entry, then save.

Fields: type, duration, badWeatherDuration, overtime, location, startTime,
endTime, breakMinutes. Durations take minutes ("450") or hours ("7:30").
All fields are applied before anything is written; one invalid value
leaves the day untouched.`,
		Example: `  timesheet day set 2025-03-10 duration=9:30 location="Site A" -e emp-1
  timesheet day set 2025-03-14 type=VACATION -e emp-1`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := generic.ParseDate(args[0])
			if err != nil {
				return err
			}
			edits, err := parseAssignments(args[1:])
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

			var entry timesheet.TimeEntry
			for _, e := range edits {
				if entry, err = s.StageUpdate(cmd.Context(), day, e.field, e.value); err != nil {
					return err
				}
			}
			if _, err := s.Save(cmd.Context()); err != nil {
				return reportBatch(cmd.OutOrStdout(), err)
			}

			duration := "-"
			if entry.Duration != nil {
				duration = timesheet.FormatDuration(*entry.Duration)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s overtime %sh\n", day, entry.Type, duration, entry.Overtime)
			return nil
		},
	})
	return cmd
}

type assignment struct {
	field timesheet.Field
	value string
}

// parseAssignments reads field=value arguments in order.
func parseAssignments(args []string) ([]assignment, error) {
	out := make([]assignment, 0, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("expected field=value, got %q", arg)
		}
		field, err := timesheet.ParseField(name)
		if err != nil {
			return nil, err
		}
		out = append(out, assignment{field: field, value: value})
	}
	return out, nil
}
