package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"github.com/example/exam-scheduler/internal/access"
	"github.com/example/exam-scheduler/internal/workflow"
)

// Store runs units of work against durable storage. Atomic must commit all
// writes made through tx or none; fn may run more than once when the backend
// retries a lost concurrency race, so it must not keep state outside tx.
type Store interface {
	Atomic(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	ReadOnly(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx exposes the repositories bound to one unit of work.
type Tx interface {
	Exams() ExamRepository
	Rooms() RoomRepository
	Periods() PeriodRepository
	Disciplines() DisciplineRepository
	Users() UserRepository
}

// ExamQuery narrows exam reads. Zero fields match everything.
type ExamQuery struct {
	StudentGroup string
	TeacherID    string
	DisciplineID string
	RoomID       string
	Date         civil.Date
	StartHour    int
	Statuses     []workflow.Status
	From         civil.Date
	To           civil.Date
}

// ExamChanges is applied as one write; nil fields keep their stored value.
type ExamChanges struct {
	StudentGroup    *string
	RoomID          *string
	Date            *civil.Date
	StartHour       *int
	DurationMinutes *int
	Status          *workflow.Status
	UpdatedAt       time.Time
}

// ExamRepository captures the exam operations needed by the services. GetExam
// inside Atomic reads the row under the unit's write lock.
type ExamRepository interface {
	CreateExam(ctx context.Context, exam Exam) error
	GetExam(ctx context.Context, id string) (Exam, error)
	UpdateExam(ctx context.Context, id string, changes ExamChanges) error
	ListExams(ctx context.Context, query ExamQuery) ([]Exam, error)
	CountExams(ctx context.Context, query ExamQuery) (int, error)
	DeleteExam(ctx context.Context, id string) error
}

// RoomRepository captures the room catalog operations.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) error
	UpdateRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
	DeleteRoom(ctx context.Context, id string) error
}

// PeriodChanges is applied as one write; nil fields keep their stored value.
type PeriodChanges struct {
	Name      *string
	Start     *civil.Date
	End       *civil.Date
	Active    *bool
	UpdatedAt time.Time
}

// PeriodRepository captures exam period storage.
type PeriodRepository interface {
	CreatePeriod(ctx context.Context, period Period) error
	UpdatePeriod(ctx context.Context, id string, changes PeriodChanges) error
	GetPeriod(ctx context.Context, id string) (Period, error)
	ListPeriods(ctx context.Context) ([]Period, error)
	DeletePeriod(ctx context.Context, id string) error
}

// DisciplineRepository captures the discipline catalog.
type DisciplineRepository interface {
	CreateDiscipline(ctx context.Context, discipline Discipline) error
	GetDiscipline(ctx context.Context, id string) (Discipline, error)
	ListDisciplines(ctx context.Context) ([]Discipline, error)
}

// UserQuery narrows user listings. Zero fields match everything.
type UserQuery struct {
	Role         access.Role
	StudentGroup string
}

// UserChanges is applied as one write; nil fields keep their stored value.
type UserChanges struct {
	FullName     *string
	Role         *access.Role
	StudentGroup *string
	YearOfStudy  *int
	UpdatedAt    time.Time
}

// UserRepository captures the user directory.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, id string, changes UserChanges) error
	GetUser(ctx context.Context, id string) (User, error)
	ListUsers(ctx context.Context, query UserQuery) ([]User, error)
	DeleteUser(ctx context.Context, id string) error
}

// serviceBase holds the collaborators every service shares.
type serviceBase struct {
	store       Store
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

func newServiceBase(store Store, idGenerator func() string, now func() time.Time, logger *slog.Logger) (serviceBase, error) {
	if store == nil {
		return serviceBase{}, errNilStore
	}
	if idGenerator == nil {
		idGenerator = uuid.NewString
	}
	if now == nil {
		now = time.Now
	}
	return serviceBase{store: store, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}, nil
}

// timestamp returns the current time truncated to the precision every store keeps.
func (b serviceBase) timestamp() time.Time {
	return b.now().UTC().Truncate(time.Microsecond)
}

// authorize consults the access policy and converts a denial into a *ForbiddenError.
func authorize(principal Principal, action access.Action, res access.Resource) error {
	decision := access.Authorize(principal.Actor(), action, res)
	if decision.Allowed {
		return nil
	}
	return &ForbiddenError{Role: string(principal.Role), Action: string(action), Reason: decision.Reason}
}

// requireCapability checks a role-level capability before any resource is loaded.
func requireCapability(principal Principal, action access.Action) error {
	if principal.UserID == "" {
		return &ForbiddenError{Role: string(principal.Role), Action: string(action), Reason: "actor is not identified"}
	}
	if !access.Can(principal.Role, action) {
		return &ForbiddenError{Role: string(principal.Role), Action: string(action), Reason: "role lacks this capability"}
	}
	return nil
}

// errNilStore is returned by constructors given no store.
var errNilStore = errors.New("application: store is required")
