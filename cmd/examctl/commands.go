package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/example/exam-scheduler/internal/access"
	"github.com/example/exam-scheduler/internal/application"
	"github.com/example/exam-scheduler/internal/bootstrap"
	"github.com/example/exam-scheduler/internal/persistence"
	"github.com/example/exam-scheduler/internal/persistence/migration"
	"github.com/example/exam-scheduler/internal/workflow"
)

var errUsage = errors.New("invalid usage")

const usageText = `usage: examctl <command> [flags]

commands:
  migrate [-status]                 apply pending schema migrations or list them
  seed -file F                      create users, rooms, disciplines and periods from F
  rooms                             list rooms
  available -date D -hour H         list rooms free at a slot
  periods                           list exam periods
  dates -period ID                  list the bookable dates of a period
  exams [-group G] [-status S]      list exams
  audit                             report rooms booked twice for one slot
`

func usage(w io.Writer) {
	fmt.Fprint(w, usageText)
}

type migrationStatusReporter interface {
	Migrate(ctx context.Context) (int, error)
	MigrationStatus(ctx context.Context) (migration.Status, error)
}

type cli struct {
	store     persistence.Store
	services  *bootstrap.Services
	out       io.Writer
	principal application.Principal
	heading   *color.Color
	ok        *color.Color
	warn      *color.Color
}

func newCLI(store persistence.Store, services *bootstrap.Services, out io.Writer) *cli {
	return &cli{
		store:     store,
		services:  services,
		out:       out,
		principal: application.Principal{UserID: "examctl", Role: access.RoleAdmin},
		heading:   color.New(color.FgCyan, color.Bold),
		ok:        color.New(color.FgGreen),
		warn:      color.New(color.FgRed),
	}
}

func (c *cli) dispatch(ctx context.Context, args []string) error {
	if len(args) == 0 {
		usage(c.out)
		return errUsage
	}

	name, rest := args[0], args[1:]
	switch name {
	case "migrate":
		return c.migrate(ctx, rest)
	case "seed":
		return c.seed(ctx, rest)
	case "rooms":
		return c.rooms(ctx)
	case "available":
		return c.available(ctx, rest)
	case "periods":
		return c.periods(ctx)
	case "dates":
		return c.dates(ctx, rest)
	case "exams":
		return c.exams(ctx, rest)
	case "audit":
		return c.audit(ctx)
	case "help", "-h", "--help":
		usage(c.out)
		return nil
	default:
		usage(c.out)
		return fmt.Errorf("%w: unknown command %q", errUsage, name)
	}
}

func (c *cli) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.out)
	return fs
}

func (c *cli) table(header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(c.out)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	return table
}

func (c *cli) migrate(ctx context.Context, args []string) error {
	fs := c.flags("migrate")
	statusOnly := fs.Bool("status", false, "list migrations without applying them")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	m, ok := c.store.(migrationStatusReporter)
	if !ok {
		c.ok.Fprintln(c.out, "storage keeps no schema; nothing to migrate")
		return nil
	}

	if !*statusOnly {
		applied, err := m.Migrate(ctx)
		if err != nil {
			return err
		}
		c.ok.Fprintf(c.out, "applied %d migration(s)\n", applied)
	}

	status, err := m.MigrationStatus(ctx)
	if err != nil {
		return err
	}

	c.heading.Fprintln(c.out, "Schema migrations")
	table := c.table("Version", "State", "Applied At", "Duration")
	for _, applied := range status.AppliedMigrations {
		table.Append([]string{
			applied.Version,
			"applied",
			applied.AppliedAt.UTC().Format("2006-01-02 15:04:05"),
			applied.ExecutionTime.String(),
		})
	}
	for _, pending := range status.PendingMigrations {
		table.Append([]string{pending.Version, "pending", "", ""})
	}
	table.Render()

	if status.PendingCount > 0 {
		c.warn.Fprintf(c.out, "%d migration(s) pending\n", status.PendingCount)
	} else {
		c.ok.Fprintf(c.out, "schema is at version %s\n", status.CurrentVersion)
	}
	return nil
}

func (c *cli) rooms(ctx context.Context) error {
	rooms, err := c.services.Rooms.ListRooms(ctx, c.principal)
	if err != nil {
		return err
	}
	c.printRooms("Rooms", rooms)
	return nil
}

func (c *cli) available(ctx context.Context, args []string) error {
	fs := c.flags("available")
	date := fs.String("date", "", "exam date (YYYY-MM-DD)")
	hour := fs.Int("hour", 0, "start hour")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	rooms, err := c.services.Rooms.ListAvailableRooms(ctx, c.principal, application.AvailableRoomsInput{
		Date:      strings.TrimSpace(*date),
		StartHour: *hour,
	})
	if err != nil {
		return err
	}
	c.printRooms(fmt.Sprintf("Rooms free on %s at %02d:00", *date, *hour), rooms)
	return nil
}

func (c *cli) printRooms(title string, rooms []application.Room) {
	c.heading.Fprintln(c.out, title)
	table := c.table("ID", "Name", "Short", "Building", "Capacity")
	for _, room := range rooms {
		table.Append([]string{room.ID, room.Name, room.ShortName, room.Building, strconv.Itoa(room.Capacity)})
	}
	table.Render()
}

func (c *cli) periods(ctx context.Context) error {
	periods, err := c.services.Periods.ListPeriods(ctx, c.principal)
	if err != nil {
		return err
	}

	c.heading.Fprintln(c.out, "Exam periods")
	table := c.table("ID", "Name", "Start", "End", "Active")
	for _, period := range periods {
		table.Append([]string{period.ID, period.Name, period.Start.String(), period.End.String(), strconv.FormatBool(period.Active)})
	}
	table.Render()
	return nil
}

func (c *cli) dates(ctx context.Context, args []string) error {
	fs := c.flags("dates")
	periodID := fs.String("period", "", "period id")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if strings.TrimSpace(*periodID) == "" {
		return fmt.Errorf("%w: -period is required", errUsage)
	}

	dates, err := c.services.Periods.BookableDates(ctx, c.principal, *periodID)
	if err != nil {
		return err
	}

	c.heading.Fprintf(c.out, "Bookable dates of %s\n", *periodID)
	table := c.table("Date", "Weekday")
	for _, d := range dates {
		table.Append([]string{d.String(), d.In(time.UTC).Weekday().String()})
	}
	table.Render()
	return nil
}

func (c *cli) exams(ctx context.Context, args []string) error {
	fs := c.flags("exams")
	group := fs.String("group", "", "student group")
	status := fs.String("status", "", "workflow status, one of "+statusLabels())
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	filter := application.ExamListFilter{StudentGroup: strings.TrimSpace(*group)}
	if s := strings.TrimSpace(*status); s != "" {
		parsed, err := workflow.ParseStatus(s)
		if err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		filter.Status = parsed
	}

	exams, err := c.services.Exams.ListExams(ctx, c.principal, filter)
	if err != nil {
		return err
	}

	c.heading.Fprintln(c.out, "Exams")
	table := c.table("ID", "Group", "Kind", "Status", "Date", "Hour", "Room")
	for _, exam := range exams {
		date, hour := "", ""
		if !exam.Date.IsZero() {
			date = exam.Date.String()
		}
		if exam.StartHour != 0 {
			hour = fmt.Sprintf("%02d:00", exam.StartHour)
		}
		table.Append([]string{exam.ID, exam.StudentGroup, string(exam.Kind), string(exam.Status), date, hour, exam.RoomID})
	}
	table.Render()
	return nil
}

func statusLabels() string {
	statuses := workflow.Statuses()
	labels := make([]string, 0, len(statuses))
	for _, s := range statuses {
		labels = append(labels, string(s))
	}
	return strings.Join(labels, ", ")
}

func (c *cli) audit(ctx context.Context) error {
	conflicts, err := c.services.Exams.AuditBookings(ctx, c.principal)
	if err != nil {
		return err
	}
	if len(conflicts) == 0 {
		c.ok.Fprintln(c.out, "no double bookings found")
		return nil
	}

	c.warn.Fprintf(c.out, "%d double booking(s) found\n", len(conflicts))
	table := c.table("Room", "Date", "Hour", "Exams")
	for _, conflict := range conflicts {
		table.Append([]string{
			conflict.Slot.RoomID,
			conflict.Slot.Date.String(),
			strconv.Itoa(conflict.Slot.Hour),
			strings.Join(conflict.ExamIDs, ", "),
		})
	}
	table.Render()
	return nil
}
