package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/warp/timesheet-engine/timesheet"
)

// scheduleFile is the YAML seed format:
//
//	employee: emp-1        # optional, --employee wins
//	days:
//	  monday:  {enabled: true, hours: 8}
//	  friday:  {enabled: true, hours: 6.5}
//	  saturday: {enabled: false}
type scheduleFile struct {
	Employee string                  `yaml:"employee"`
	Days     map[string]scheduleSlot `yaml:"days"`
}

type scheduleSlot struct {
	Enabled bool    `yaml:"enabled"`
	Hours   float64 `yaml:"hours"`
}

// loadScheduleFile parses a seed file. employee overrides the file's own id.
func loadScheduleFile(r io.Reader, employee string) (timesheet.WeeklySchedule, error) {
	var f scheduleFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return timesheet.WeeklySchedule{}, fmt.Errorf("parsing schedule: %w", err)
	}
	if employee != "" {
		f.Employee = employee
	}

	schedule := timesheet.WeeklySchedule{
		EmployeeID: timesheet.EmployeeID(f.Employee),
		Days:       make(map[time.Weekday]timesheet.ScheduleSlot, len(f.Days)),
	}
	for name, slot := range f.Days {
		wd, err := timesheet.ParseWeekday(name)
		if err != nil {
			return timesheet.WeeklySchedule{}, err
		}
		if _, dup := schedule.Days[wd]; dup {
			return timesheet.WeeklySchedule{}, fmt.Errorf("%s listed twice", wd)
		}
		schedule.Days[wd] = timesheet.ScheduleSlot{Enabled: slot.Enabled, Hours: decimal.NewFromFloat(slot.Hours)}
	}
	return schedule, schedule.Validate()
}

func newScheduleCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Manage weekly schedules",
	}

	var file string
	set := &cobra.Command{
		Use:   "set",
		Short: "Replace a weekly schedule from a YAML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fh, err := os.Open(file)
			if err != nil {
				return err
			}
			defer fh.Close()
			schedule, err := loadScheduleFile(fh, g.employee)
			if err != nil {
				return err
			}

			a, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.store.SaveWeeklySchedule(cmd.Context(), schedule); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Schedule saved for %s (%d days)\n", schedule.EmployeeID, len(schedule.Days))
			return nil
		},
	}
	set.Flags().StringVarP(&file, "file", "f", "", "YAML schedule file")
	set.MarkFlagRequired("file")

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the weekly schedule",
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

			schedule, err := a.store.WeeklySchedule(cmd.Context(), timesheet.EmployeeID(g.employee))
			if err != nil {
				return err
			}
			if schedule == nil {
				return fmt.Errorf("no schedule for %s", g.employee)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DAY\tENABLED\tHOURS")
			for i := 1; i <= 7; i++ {
				wd := time.Weekday(i % 7)
				slot, ok := schedule.Days[wd]
				if !ok {
					fmt.Fprintf(tw, "%s\t-\t-\n", wd)
					continue
				}
				fmt.Fprintf(tw, "%s\t%t\t%s\n", wd, slot.Enabled, slot.Hours)
			}
			return tw.Flush()
		},
	}

	cmd.AddCommand(set, show)
	return cmd
}
