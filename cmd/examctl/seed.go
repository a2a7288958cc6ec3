package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/example/exam-scheduler/internal/application"
)

// seedDocument is the layout of a seed file. Any format viper reads by
// extension (yaml, json, toml) is accepted.
type seedDocument struct {
	Users       []seedUser       `mapstructure:"users"`
	Rooms       []seedRoom       `mapstructure:"rooms"`
	Disciplines []seedDiscipline `mapstructure:"disciplines"`
	Periods     []seedPeriod     `mapstructure:"periods"`
}

type seedUser struct {
	Email        string `mapstructure:"email"`
	FullName     string `mapstructure:"full_name"`
	Role         string `mapstructure:"role"`
	StudentGroup string `mapstructure:"student_group"`
	YearOfStudy  int    `mapstructure:"year_of_study"`
}

func (u seedUser) input() application.UserInput {
	return application.UserInput{Email: u.Email, FullName: u.FullName, Role: u.Role, StudentGroup: u.StudentGroup, YearOfStudy: u.YearOfStudy}
}

type seedRoom struct {
	Name      string `mapstructure:"name"`
	ShortName string `mapstructure:"short_name"`
	Building  string `mapstructure:"building"`
	Capacity  int    `mapstructure:"capacity"`
}

func (r seedRoom) input() application.RoomInput {
	return application.RoomInput{Name: r.Name, ShortName: r.ShortName, Building: r.Building, Capacity: r.Capacity}
}

type seedDiscipline struct {
	Name           string `mapstructure:"name"`
	YearOfStudy    int    `mapstructure:"year_of_study"`
	Specialization string `mapstructure:"specialization"`
}

func (d seedDiscipline) input() application.DisciplineInput {
	return application.DisciplineInput{Name: d.Name, YearOfStudy: d.YearOfStudy, Specialization: d.Specialization}
}

type seedPeriod struct {
	Name      string `mapstructure:"name"`
	StartDate string `mapstructure:"start_date"`
	EndDate   string `mapstructure:"end_date"`
	IsActive  bool   `mapstructure:"is_active"`
}

func (p seedPeriod) input() application.PeriodInput {
	return application.PeriodInput{Name: p.Name, Start: p.StartDate, End: p.EndDate, Active: p.IsActive}
}

type seedTally struct {
	kind             string
	created, skipped int
}

func loadSeedDocument(path string) (seedDocument, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return seedDocument{}, fmt.Errorf("read seed file %s: %w", path, err)
	}

	var doc seedDocument
	if err := v.Unmarshal(&doc); err != nil {
		return seedDocument{}, fmt.Errorf("decode seed file %s: %w", path, err)
	}
	return doc, nil
}

func (c *cli) seed(ctx context.Context, args []string) error {
	fs := c.flags("seed")
	path := fs.String("file", "", "seed file (yaml, json or toml)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if strings.TrimSpace(*path) == "" {
		return fmt.Errorf("%w: -file is required", errUsage)
	}

	doc, err := loadSeedDocument(*path)
	if err != nil {
		return err
	}

	tallies := make([]seedTally, 0, 4)

	users := seedTally{kind: "users"}
	for _, entry := range doc.Users {
		input := entry.input()
		if _, err := c.services.Users.CreateUser(ctx, c.principal, input); err != nil {
			if !errors.Is(err, application.ErrConflict) {
				return fmt.Errorf("seed user %s: %w", input.Email, err)
			}
			users.skipped++
			continue
		}
		users.created++
	}
	tallies = append(tallies, users)

	rooms := seedTally{kind: "rooms"}
	for _, entry := range doc.Rooms {
		input := entry.input()
		if _, err := c.services.Rooms.CreateRoom(ctx, c.principal, input); err != nil {
			if !errors.Is(err, application.ErrConflict) {
				return fmt.Errorf("seed room %s: %w", input.Name, err)
			}
			rooms.skipped++
			continue
		}
		rooms.created++
	}
	tallies = append(tallies, rooms)

	// Disciplines carry no unique key, so existing (name, year) pairs are skipped here.
	existing, err := c.services.Disciplines.ListDisciplines(ctx, c.principal)
	if err != nil {
		return err
	}
	known := make(map[string]bool, len(existing))
	disciplineKey := func(name string, year int) string {
		return strings.ToLower(strings.TrimSpace(name)) + "/" + strconv.Itoa(year)
	}
	for _, d := range existing {
		known[disciplineKey(d.Name, d.YearOfStudy)] = true
	}
	disciplines := seedTally{kind: "disciplines"}
	for _, entry := range doc.Disciplines {
		input := entry.input()
		key := disciplineKey(input.Name, input.YearOfStudy)
		if known[key] {
			disciplines.skipped++
			continue
		}
		if _, err := c.services.Disciplines.CreateDiscipline(ctx, c.principal, input); err != nil {
			return fmt.Errorf("seed discipline %s: %w", input.Name, err)
		}
		known[key] = true
		disciplines.created++
	}
	tallies = append(tallies, disciplines)

	periods := seedTally{kind: "periods"}
	for _, entry := range doc.Periods {
		input := entry.input()
		if _, err := c.services.Periods.CreatePeriod(ctx, c.principal, input); err != nil {
			if !errors.Is(err, application.ErrConflict) {
				return fmt.Errorf("seed period %s: %w", input.Name, err)
			}
			periods.skipped++
			continue
		}
		periods.created++
	}
	tallies = append(tallies, periods)

	c.heading.Fprintf(c.out, "Seeded from %s\n", *path)
	table := c.table("Kind", "Created", "Skipped")
	for _, tally := range tallies {
		table.Append([]string{tally.kind, strconv.Itoa(tally.created), strconv.Itoa(tally.skipped)})
	}
	table.Render()
	return nil
}
