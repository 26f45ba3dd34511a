package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/example/crew-scheduler/internal/application"
	"github.com/example/crew-scheduler/internal/scheduler"
	"github.com/example/crew-scheduler/internal/seed"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withSchema(cmd, func(a *app) error {
					if err := a.storage.Migrate(); err != nil {
						return err
					}
					return printVersion(cmd.OutOrStdout(), a)
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back every migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withSchema(cmd, func(a *app) error {
					if err := a.storage.MigrateDown(); err != nil {
						return err
					}
					return printVersion(cmd.OutOrStdout(), a)
				})
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withSchema(cmd, func(a *app) error {
					return printVersion(cmd.OutOrStdout(), a)
				})
			},
		},
	)
	return cmd
}

// withSchema opens the app without applying migrations.
func withSchema(cmd *cobra.Command, fn func(a *app) error) error {
	a, err := openApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func printVersion(w io.Writer, a *app) error {
	status, err := a.storage.MigrationVersion()
	if err != nil {
		return err
	}
	dirty := ""
	if status.Dirty {
		dirty = " (dirty)"
	}
	fmt.Fprintf(w, "schema version %d%s\n", status.Version, dirty)
	return nil
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file>",
		Short: "Load roles, members, resources, activities and assignments from YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := seed.LoadFile(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				loader := seed.NewLoader(seed.Store{
					Members:     a.storage.Members,
					Resources:   a.storage.Resources,
					Activities:  a.storage.Activities,
					Assignments: a.storage.Assignments,
				}, time.Now)
				summary, err := loader.Apply(ctx, doc)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seeded %s\n", summary)
				return nil
			})
		},
	}
}

func newGridCmd() *cobra.Command {
	var (
		date        string
		granularity time.Duration
	)
	cmd := &cobra.Command{
		Use:   "grid <member>",
		Short: "Print a member's availability grid for one day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDate(date)
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				grid, err := a.availability.BuildDayGrid(ctx, args[0], day, granularity)
				if err != nil {
					return err
				}
				renderGrid(cmd.OutOrStdout(), grid)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to render as YYYY-MM-DD in UTC (default: today)")
	cmd.Flags().DurationVar(&granularity, "granularity", 0, "slot size (default: scheduling.grid_granularity)")
	return cmd
}

func renderGrid(w io.Writer, grid application.DayGrid) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetTitle(fmt.Sprintf("%s on %s", grid.MemberID, grid.Date.Format(dateLayout)))
	tw.AppendHeader(table.Row{"Slot", "State"})
	for _, slot := range grid.Slots {
		tw.AppendRow(table.Row{
			slot.Start.Format(clockLayout) + "-" + slot.Start.Add(grid.Granularity).Format(clockLayout),
			slot.State,
		})
	}
	tw.AppendFooter(table.Row{"Busy", len(grid.BusySlots())})
	tw.Render()
}

func newStatusCmd() *cobra.Command {
	var (
		at      string
		refresh bool
	)
	cmd := &cobra.Command{
		Use:   "status <activity>",
		Short: "Resolve an activity's status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			now, err := parseInstant("now", at)
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				resolve := a.activities.ResolveActivityStatus
				if refresh {
					resolve = a.activities.RefreshActivityStatus
				}
				report, err := resolve(ctx, args[0], now)
				if err != nil {
					return err
				}
				renderStatus(cmd.OutOrStdout(), report)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&at, "now", "", "evaluation instant in RFC3339 (default: current time)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "store the resolved status")
	return cmd
}

func renderStatus(w io.Writer, report application.ActivityStatusReport) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"Activity", "Status", "Resolved At"})
	tw.AppendRow(table.Row{report.ActivityID, report.Status, report.ResolvedAt.UTC().Format(time.RFC3339)})
	tw.Render()

	if len(report.Dependencies) == 0 {
		return
	}
	ids := make([]string, 0, len(report.Dependencies))
	for id := range report.Dependencies {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	deps := table.NewWriter()
	deps.SetOutputMirror(w)
	deps.AppendHeader(table.Row{"Dependency", "Status"})
	for _, id := range ids {
		deps.AppendRow(table.Row{id, report.Dependencies[id]})
	}
	deps.Render()
}

func newValidateCmd() *cobra.Command {
	var member, start, end, exclude string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a candidate assignment for overlaps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			startAt, err := parseInstant("start", start)
			if err != nil {
				return err
			}
			endAt, err := parseInstant("end", end)
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				result, err := a.guard.ValidateAssignment(ctx, member, startAt, endAt, exclude)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if !result.HasConflicts() {
					fmt.Fprintf(out, "%s is free from %s to %s\n", member, startAt.UTC().Format(time.RFC3339), endAt.UTC().Format(time.RFC3339))
					return nil
				}
				renderAssignments(out, result.Conflicts)
				return fmt.Errorf("%d conflicting assignments", len(result.Conflicts))
			})
		},
	}
	cmd.Flags().StringVar(&member, "member", "", "member id")
	cmd.Flags().StringVar(&start, "start", "", "candidate start in RFC3339")
	cmd.Flags().StringVar(&end, "end", "", "candidate end in RFC3339")
	cmd.Flags().StringVar(&exclude, "exclude", "", "assignment id to ignore, for moves")
	_ = cmd.MarkFlagRequired("member")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func renderAssignments(w io.Writer, assignments []application.TeamAssignment) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"ID", "Member", "Role", "Activity", "Start", "End", "Location"})
	for _, assignment := range assignments {
		tw.AppendRow(table.Row{
			assignment.ID,
			assignment.MemberID,
			assignment.RoleID,
			assignment.ActivityID(),
			assignment.Start.UTC().Format(time.RFC3339),
			assignment.End.UTC().Format(time.RFC3339),
			assignment.Location,
		})
	}
	tw.Render()
}

func newAuditCmd() *cobra.Command {
	var start, end string
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "List stored assignments that overlap each other",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rangeStart, rangeEnd, err := auditRange(start, end, time.Now())
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				findings, err := a.audit.AuditConflicts(ctx, rangeStart, rangeEnd)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(findings) == 0 {
					fmt.Fprintln(out, "no overlapping assignments")
					return nil
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(out)
				tw.AppendHeader(table.Row{"Member", "First", "Second", "Overlap"})
				for _, f := range findings {
					overlapStart, overlapEnd := laterOf(f.First.Start, f.Second.Start), earlierOf(f.First.End, f.Second.End)
					tw.AppendRow(table.Row{
						f.MemberID,
						f.First.ID,
						f.Second.ID,
						overlapStart.UTC().Format(time.RFC3339) + " - " + overlapEnd.UTC().Format(time.RFC3339),
					})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "range start in RFC3339 (default: start of today, UTC)")
	cmd.Flags().StringVar(&end, "end", "", "range end in RFC3339 (default: end of the start day)")
	return cmd
}

// auditRange defaults to the UTC day containing the start, or today.
func auditRange(start, end string, now time.Time) (time.Time, time.Time, error) {
	rangeStart, err := parseInstant("start", start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	rangeEnd, err := parseInstant("end", end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if rangeStart.IsZero() {
		rangeStart, _ = scheduler.DayBounds(now.UTC())
	}
	if rangeEnd.IsZero() {
		_, rangeEnd = scheduler.DayBounds(rangeStart.UTC())
	}
	return rangeStart, rangeEnd, nil
}

// parseInstant reads an RFC3339 flag value. Empty is the zero time.
func parseInstant(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: %w", name, err)
	}
	return t, nil
}

// parseDate reads YYYY-MM-DD as midnight UTC. Empty is today.
func parseDate(value string) (time.Time, error) {
	if value == "" {
		day, _ := scheduler.DayBounds(time.Now().UTC())
		return day, nil
	}
	day, err := time.ParseInLocation(dateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("--date: %w", err)
	}
	return day, nil
}

func laterOf(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earlierOf(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
