package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/example/exam-scheduler/internal/access"
	"github.com/example/exam-scheduler/internal/application"
	"github.com/example/exam-scheduler/internal/bootstrap"
	"github.com/example/exam-scheduler/internal/persistence"
	"github.com/example/exam-scheduler/internal/persistence/memory"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Logger      *slog.Logger
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults. Logs are
// discarded unless WithLogger is given.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator(""),
		Logger:      DiscardLogger(),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// WithLogger routes service logs to logger.
func WithLogger(logger *slog.Logger) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Logger = logger
	}
}

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewServices builds every application service over store.
func (f *ServiceFactory) NewServices(tb testing.TB, store persistence.Store) *bootstrap.Services {
	tb.Helper()
	services, err := bootstrap.NewServices(store, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger)
	if err != nil {
		tb.Fatalf("failed to build services: %v", err)
	}
	return services
}

// World is a seeded exam session: staff, two teachers, representatives of two
// groups, three rooms and the active June 2025 period.
type World struct {
	Services *bootstrap.Services
	Store    persistence.Store
	Factory  *ServiceFactory

	Admin         application.Principal
	Secretariat   application.Principal
	MainTeacher   application.Principal
	SecondTeacher application.Principal
	OtherTeacher  application.Principal
	GroupRep      application.Principal
	OtherGroupRep application.Principal
	Student       application.Principal

	Group      string
	OtherGroup string
	Rooms      []application.Room
	Period     application.Period
}

// NewMemoryWorld seeds a World on a fresh in-memory store.
func NewMemoryWorld(tb testing.TB, opts ...ServiceFactoryOption) *World {
	tb.Helper()
	return NewWorld(tb, memory.Open(), opts...)
}

// NewWorld seeds a World on store through the services themselves.
func NewWorld(tb testing.TB, store persistence.Store, opts ...ServiceFactoryOption) *World {
	tb.Helper()

	factory := NewServiceFactory(opts...)
	services := factory.NewServices(tb, store)
	ctx := context.Background()

	w := &World{
		Services:    services,
		Store:       store,
		Factory:     factory,
		Admin:       application.Principal{UserID: "admin", Role: access.RoleAdmin},
		Secretariat: application.Principal{UserID: "secretariat", Role: access.RoleSecretariat},
		Group:       "CTI-1",
		OtherGroup:  "CTI-2",
	}

	seedUser := func(opts ...UserOption) application.Principal {
		tb.Helper()
		fixture := NewUserFixture(opts...)
		user, err := services.Users.CreateUser(ctx, w.Admin, fixture.Input())
		if err != nil {
			tb.Fatalf("failed to seed user %s: %v", fixture.Email, err)
		}
		return application.Principal{UserID: user.ID, Role: user.Role, StudentGroup: user.StudentGroup}
	}

	w.MainTeacher = seedUser(WithUserRole(access.RoleTeacher))
	w.SecondTeacher = seedUser(WithUserRole(access.RoleTeacher))
	w.OtherTeacher = seedUser(WithUserRole(access.RoleTeacher))
	w.GroupRep = seedUser(WithUserRole(access.RoleGroupRep), WithUserGroup(w.Group))
	w.OtherGroupRep = seedUser(WithUserRole(access.RoleGroupRep), WithUserGroup(w.OtherGroup))
	w.Student = seedUser(WithUserRole(access.RoleStudent), WithUserGroup(w.Group))

	for i := 0; i < 3; i++ {
		room, err := services.Rooms.CreateRoom(ctx, w.Secretariat, NewRoomFixture().Input())
		if err != nil {
			tb.Fatalf("failed to seed room: %v", err)
		}
		w.Rooms = append(w.Rooms, room)
	}

	period, err := services.Periods.CreatePeriod(ctx, w.Secretariat, SessionPeriodInput())
	if err != nil {
		tb.Fatalf("failed to seed period: %v", err)
	}
	w.Period = period

	return w
}

// Room returns the i-th seeded room.
func (w *World) Room(i int) application.Room {
	return w.Rooms[i]
}

// NewDraftExam creates a DRAFT exam for group under a fresh discipline, with
// the world's main and second teachers.
func (w *World) NewDraftExam(tb testing.TB, group string) application.Exam {
	tb.Helper()
	ctx := context.Background()

	discipline, err := w.Services.Disciplines.CreateDiscipline(ctx, w.Secretariat, NewDisciplineFixture().Input())
	if err != nil {
		tb.Fatalf("failed to seed discipline: %v", err)
	}
	exam, err := w.Services.Exams.CreateExam(ctx, w.Secretariat, application.CreateExamInput{
		DisciplineID:    discipline.ID,
		StudentGroup:    group,
		Kind:            string(application.ExamKindExam),
		MainTeacherID:   w.MainTeacher.UserID,
		SecondTeacherID: w.SecondTeacher.UserID,
	})
	if err != nil {
		tb.Fatalf("failed to seed exam: %v", err)
	}
	return exam
}

// RepFor returns the representative principal of group.
func (w *World) RepFor(group string) application.Principal {
	if group == w.OtherGroup {
		return w.OtherGroupRep
	}
	return w.GroupRep
}
