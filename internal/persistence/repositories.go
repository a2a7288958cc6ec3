package persistence

import (
	"context"
	"time"
)

// UserFilter narrows user listings. Empty fields match everything.
type UserFilter struct {
	Role         string
	StudentGroup string
}

// UserUpdate is a partial update; nil fields keep their stored value.
type UserUpdate struct {
	FullName     *string
	Role         *string
	StudentGroup *string
	YearOfStudy  *int
	UpdatedAt    time.Time
}

// UserRepository exposes the user directory.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, id string, update UserUpdate) error
	GetUser(ctx context.Context, id string) (User, error)
	ListUsers(ctx context.Context, filter UserFilter) ([]User, error)
	DeleteUser(ctx context.Context, id string) error
}

// RoomRepository exposes CRUD operations for rooms.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) error
	UpdateRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
	DeleteRoom(ctx context.Context, id string) error
}

// DisciplineRepository exposes the discipline catalog.
type DisciplineRepository interface {
	CreateDiscipline(ctx context.Context, discipline Discipline) error
	GetDiscipline(ctx context.Context, id string) (Discipline, error)
	ListDisciplines(ctx context.Context) ([]Discipline, error)
}

// PeriodUpdate is a partial update; nil fields keep their stored value.
type PeriodUpdate struct {
	Name      *string
	StartDate *string
	EndDate   *string
	IsActive  *bool
	UpdatedAt time.Time
}

// PeriodRepository stores exam periods.
type PeriodRepository interface {
	CreatePeriod(ctx context.Context, period ExamPeriod) error
	UpdatePeriod(ctx context.Context, id string, update PeriodUpdate) error
	GetPeriod(ctx context.Context, id string) (ExamPeriod, error)
	ListPeriods(ctx context.Context) ([]ExamPeriod, error)
	DeletePeriod(ctx context.Context, id string) error
}

// ExamFilter narrows exam queries. Empty fields match everything; Statuses
// matches any of the listed values.
type ExamFilter struct {
	StudentGroup string
	TeacherID    string
	DisciplineID string
	RoomID       string
	ExamDate     string
	StartHour    *int
	Statuses     []string
	DateFrom     string
	DateTo       string
}

// ExamUpdate is a partial update applied as a single statement; nil fields keep
// their stored value.
type ExamUpdate struct {
	StudentGroup    *string
	RoomID          *string
	ExamDate        *string
	StartHour       *int
	DurationMinutes *int
	Status          *string
	UpdatedAt       time.Time
}

// ExamRepository stores exams. GetExam inside a write transaction locks the row
// where the backend supports it.
type ExamRepository interface {
	CreateExam(ctx context.Context, exam Exam) error
	GetExam(ctx context.Context, id string) (Exam, error)
	UpdateExam(ctx context.Context, id string, update ExamUpdate) error
	ListExams(ctx context.Context, filter ExamFilter) ([]Exam, error)
	CountExams(ctx context.Context, filter ExamFilter) (int, error)
	DeleteExam(ctx context.Context, id string) error
}

// Tx groups the repositories bound to one transaction.
type Tx interface {
	Users() UserRepository
	Rooms() RoomRepository
	Disciplines() DisciplineRepository
	Periods() PeriodRepository
	Exams() ExamRepository
}

// Store runs units of work. Atomic commits every write made through tx or none
// of them; fn may be invoked more than once when the backend reports
// ErrTxConflict, so it must not keep side effects outside tx.
type Store interface {
	Atomic(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	ReadOnly(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Close() error
}
