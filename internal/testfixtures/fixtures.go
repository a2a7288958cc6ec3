package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"cloud.google.com/go/civil"

	"github.com/example/exam-scheduler/internal/access"
	"github.com/example/exam-scheduler/internal/application"
	"github.com/example/exam-scheduler/internal/persistence"
)

var (
	userCounter       uint64
	roomCounter       uint64
	disciplineCounter uint64
)

var referenceTime = time.Date(2025, time.June, 2, 8, 30, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// Calendar anchors shared by the scenario tests. June 2025 is the active
// session; the 20th is a Friday, the 21st a Saturday and the 23rd a Monday.
var (
	SessionStart = civil.Date{Year: 2025, Month: time.June, Day: 1}
	SessionEnd   = civil.Date{Year: 2025, Month: time.June, Day: 30}
	Friday       = civil.Date{Year: 2025, Month: time.June, Day: 20}
	Saturday     = civil.Date{Year: 2025, Month: time.June, Day: 21}
	Monday       = civil.Date{Year: 2025, Month: time.June, Day: 23}
)

// ----------------------------- User fixtures -----------------------------

// UserFixture represents a deterministic directory entry that can be
// materialised for application or persistence tests.
type UserFixture struct {
	ID           string
	Email        string
	FullName     string
	Role         access.Role
	StudentGroup string
	YearOfStudy  int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a deterministic user fixture with optional overrides.
// The default role is STUDENT in group CTI-1.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := UserFixture{
		ID:           id,
		Email:        fmt.Sprintf("%s@example.edu", id),
		FullName:     fmt.Sprintf("User %03d", idx),
		Role:         access.RoleStudent,
		StudentGroup: "CTI-1",
		YearOfStudy:  3,
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(f *UserFixture) {
		f.ID = id
	}
}

// WithUserRole sets the role. Staff roles drop the student group and year.
func WithUserRole(role access.Role) UserOption {
	return func(f *UserFixture) {
		f.Role = role
		if role != access.RoleStudent && role != access.RoleGroupRep {
			f.StudentGroup = ""
			f.YearOfStudy = 0
		}
	}
}

// WithUserGroup overrides the student group.
func WithUserGroup(group string) UserOption {
	return func(f *UserFixture) {
		f.StudentGroup = group
	}
}

// Input returns the fixture as an application.UserInput.
func (f UserFixture) Input() application.UserInput {
	return application.UserInput{
		Email:        f.Email,
		FullName:     f.FullName,
		Role:         string(f.Role),
		StudentGroup: f.StudentGroup,
		YearOfStudy:  f.YearOfStudy,
	}
}

// Principal returns the identity this user presents to the services.
func (f UserFixture) Principal() application.Principal {
	return application.Principal{UserID: f.ID, Role: f.Role, StudentGroup: f.StudentGroup}
}

// Persistence returns the fixture as a persistence.User value.
func (f UserFixture) Persistence() persistence.User {
	user := persistence.User{
		ID:        f.ID,
		Email:     f.Email,
		FullName:  f.FullName,
		Role:      string(f.Role),
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
	if f.StudentGroup != "" {
		group := f.StudentGroup
		user.StudentGroup = &group
	}
	if f.YearOfStudy != 0 {
		year := f.YearOfStudy
		user.YearOfStudy = &year
	}
	return user
}

// ----------------------------- Room fixtures -----------------------------

// RoomFixture represents a deterministic examination room.
type RoomFixture struct {
	ID        string
	Name      string
	ShortName string
	Building  string
	Capacity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RoomOption configures the generated room fixture.
type RoomOption func(*RoomFixture)

// NewRoomFixture returns a deterministic room fixture with optional overrides.
func NewRoomFixture(opts ...RoomOption) RoomFixture {
	idx := atomic.AddUint64(&roomCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Hour)
	fixture := RoomFixture{
		ID:        fmt.Sprintf("room-%03d", idx),
		Name:      fmt.Sprintf("Hall %03d", idx),
		ShortName: fmt.Sprintf("H%03d", idx),
		Building:  "C",
		Capacity:  int(30 + idx%4*10),
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithRoomName overrides the generated room name.
func WithRoomName(name string) RoomOption {
	return func(f *RoomFixture) {
		f.Name = name
	}
}

// Input returns the fixture as an application.RoomInput.
func (f RoomFixture) Input() application.RoomInput {
	return application.RoomInput{Name: f.Name, ShortName: f.ShortName, Building: f.Building, Capacity: f.Capacity}
}

// Persistence returns the fixture as a persistence.Room value.
func (f RoomFixture) Persistence() persistence.Room {
	return persistence.Room{
		ID:        f.ID,
		Name:      f.Name,
		ShortName: f.ShortName,
		Building:  f.Building,
		Capacity:  f.Capacity,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// -------------------------- Discipline fixtures --------------------------

// DisciplineFixture represents a deterministic taught subject.
type DisciplineFixture struct {
	ID             string
	Name           string
	YearOfStudy    int
	Specialization string
	CreatedAt      time.Time
}

// NewDisciplineFixture returns a deterministic discipline fixture.
func NewDisciplineFixture() DisciplineFixture {
	idx := atomic.AddUint64(&disciplineCounter, 1)
	return DisciplineFixture{
		ID:             fmt.Sprintf("disc-%03d", idx),
		Name:           fmt.Sprintf("Discipline %03d", idx),
		YearOfStudy:    3,
		Specialization: "CTI",
		CreatedAt:      referenceTime.Add(time.Duration(idx) * time.Second),
	}
}

// Input returns the fixture as an application.DisciplineInput.
func (f DisciplineFixture) Input() application.DisciplineInput {
	return application.DisciplineInput{Name: f.Name, YearOfStudy: f.YearOfStudy, Specialization: f.Specialization}
}

// Persistence returns the fixture as a persistence.Discipline value.
func (f DisciplineFixture) Persistence() persistence.Discipline {
	return persistence.Discipline{
		ID:             f.ID,
		Name:           f.Name,
		YearOfStudy:    f.YearOfStudy,
		Specialization: f.Specialization,
		CreatedAt:      f.CreatedAt,
	}
}

// ---------------------------- Period fixtures ----------------------------

// SessionPeriodInput returns the active June 2025 exam session.
func SessionPeriodInput() application.PeriodInput {
	return application.PeriodInput{
		Name:   "Summer session 2025",
		Start:  SessionStart.String(),
		End:    SessionEnd.String(),
		Active: true,
	}
}
