// Package bootstrap wires storage backends to the application services. It owns
// the translation between persistence rows and application records so neither
// side imports the other.
package bootstrap

import (
	"context"

	"github.com/example/exam-scheduler/internal/application"
	"github.com/example/exam-scheduler/internal/persistence"
)

// StoreAdapter exposes a persistence.Store as an application.Store.
type StoreAdapter struct {
	store persistence.Store
}

var _ application.Store = (*StoreAdapter)(nil)

// NewStoreAdapter wraps store.
func NewStoreAdapter(store persistence.Store) *StoreAdapter {
	return &StoreAdapter{store: store}
}

// Atomic runs fn in a write unit of work.
func (a *StoreAdapter) Atomic(ctx context.Context, fn func(ctx context.Context, tx application.Tx) error) error {
	return a.store.Atomic(ctx, func(ctx context.Context, tx persistence.Tx) error {
		return fn(ctx, txAdapter{tx: tx})
	})
}

// ReadOnly runs fn in a read-only unit of work.
func (a *StoreAdapter) ReadOnly(ctx context.Context, fn func(ctx context.Context, tx application.Tx) error) error {
	return a.store.ReadOnly(ctx, func(ctx context.Context, tx persistence.Tx) error {
		return fn(ctx, txAdapter{tx: tx})
	})
}

type txAdapter struct {
	tx persistence.Tx
}

func (t txAdapter) Exams() application.ExamRepository {
	return examRepositoryAdapter{repo: t.tx.Exams()}
}

func (t txAdapter) Rooms() application.RoomRepository {
	return roomRepositoryAdapter{repo: t.tx.Rooms()}
}

func (t txAdapter) Periods() application.PeriodRepository {
	return periodRepositoryAdapter{repo: t.tx.Periods()}
}

func (t txAdapter) Disciplines() application.DisciplineRepository {
	return disciplineRepositoryAdapter{repo: t.tx.Disciplines()}
}

func (t txAdapter) Users() application.UserRepository {
	return userRepositoryAdapter{repo: t.tx.Users()}
}

type examRepositoryAdapter struct {
	repo persistence.ExamRepository
}

func (a examRepositoryAdapter) CreateExam(ctx context.Context, exam application.Exam) error {
	return a.repo.CreateExam(ctx, toPersistenceExam(exam))
}

func (a examRepositoryAdapter) GetExam(ctx context.Context, id string) (application.Exam, error) {
	stored, err := a.repo.GetExam(ctx, id)
	if err != nil {
		return application.Exam{}, err
	}
	return toApplicationExam(stored)
}

func (a examRepositoryAdapter) UpdateExam(ctx context.Context, id string, changes application.ExamChanges) error {
	return a.repo.UpdateExam(ctx, id, toPersistenceExamUpdate(changes))
}

func (a examRepositoryAdapter) ListExams(ctx context.Context, query application.ExamQuery) ([]application.Exam, error) {
	models, err := a.repo.ListExams(ctx, toPersistenceExamFilter(query))
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	exams := make([]application.Exam, 0, len(models))
	for _, model := range models {
		exam, err := toApplicationExam(model)
		if err != nil {
			return nil, err
		}
		exams = append(exams, exam)
	}
	return exams, nil
}

func (a examRepositoryAdapter) CountExams(ctx context.Context, query application.ExamQuery) (int, error) {
	return a.repo.CountExams(ctx, toPersistenceExamFilter(query))
}

func (a examRepositoryAdapter) DeleteExam(ctx context.Context, id string) error {
	return a.repo.DeleteExam(ctx, id)
}

type roomRepositoryAdapter struct {
	repo persistence.RoomRepository
}

func (a roomRepositoryAdapter) CreateRoom(ctx context.Context, room application.Room) error {
	return a.repo.CreateRoom(ctx, toPersistenceRoom(room))
}

func (a roomRepositoryAdapter) UpdateRoom(ctx context.Context, room application.Room) error {
	return a.repo.UpdateRoom(ctx, toPersistenceRoom(room))
}

func (a roomRepositoryAdapter) GetRoom(ctx context.Context, id string) (application.Room, error) {
	stored, err := a.repo.GetRoom(ctx, id)
	if err != nil {
		return application.Room{}, err
	}
	return toApplicationRoom(stored), nil
}

func (a roomRepositoryAdapter) ListRooms(ctx context.Context) ([]application.Room, error) {
	models, err := a.repo.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	rooms := make([]application.Room, 0, len(models))
	for _, model := range models {
		rooms = append(rooms, toApplicationRoom(model))
	}
	return rooms, nil
}

func (a roomRepositoryAdapter) DeleteRoom(ctx context.Context, id string) error {
	return a.repo.DeleteRoom(ctx, id)
}

type periodRepositoryAdapter struct {
	repo persistence.PeriodRepository
}

func (a periodRepositoryAdapter) CreatePeriod(ctx context.Context, period application.Period) error {
	return a.repo.CreatePeriod(ctx, toPersistencePeriod(period))
}

func (a periodRepositoryAdapter) UpdatePeriod(ctx context.Context, id string, changes application.PeriodChanges) error {
	return a.repo.UpdatePeriod(ctx, id, toPersistencePeriodUpdate(changes))
}

func (a periodRepositoryAdapter) GetPeriod(ctx context.Context, id string) (application.Period, error) {
	stored, err := a.repo.GetPeriod(ctx, id)
	if err != nil {
		return application.Period{}, err
	}
	return toApplicationPeriod(stored)
}

func (a periodRepositoryAdapter) ListPeriods(ctx context.Context) ([]application.Period, error) {
	models, err := a.repo.ListPeriods(ctx)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	periods := make([]application.Period, 0, len(models))
	for _, model := range models {
		period, err := toApplicationPeriod(model)
		if err != nil {
			return nil, err
		}
		periods = append(periods, period)
	}
	return periods, nil
}

func (a periodRepositoryAdapter) DeletePeriod(ctx context.Context, id string) error {
	return a.repo.DeletePeriod(ctx, id)
}

type disciplineRepositoryAdapter struct {
	repo persistence.DisciplineRepository
}

func (a disciplineRepositoryAdapter) CreateDiscipline(ctx context.Context, discipline application.Discipline) error {
	return a.repo.CreateDiscipline(ctx, toPersistenceDiscipline(discipline))
}

func (a disciplineRepositoryAdapter) GetDiscipline(ctx context.Context, id string) (application.Discipline, error) {
	stored, err := a.repo.GetDiscipline(ctx, id)
	if err != nil {
		return application.Discipline{}, err
	}
	return toApplicationDiscipline(stored), nil
}

func (a disciplineRepositoryAdapter) ListDisciplines(ctx context.Context) ([]application.Discipline, error) {
	models, err := a.repo.ListDisciplines(ctx)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	disciplines := make([]application.Discipline, 0, len(models))
	for _, model := range models {
		disciplines = append(disciplines, toApplicationDiscipline(model))
	}
	return disciplines, nil
}

type userRepositoryAdapter struct {
	repo persistence.UserRepository
}

func (a userRepositoryAdapter) CreateUser(ctx context.Context, user application.User) error {
	return a.repo.CreateUser(ctx, toPersistenceUser(user))
}

func (a userRepositoryAdapter) UpdateUser(ctx context.Context, id string, changes application.UserChanges) error {
	return a.repo.UpdateUser(ctx, id, toPersistenceUserUpdate(changes))
}

func (a userRepositoryAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a userRepositoryAdapter) ListUsers(ctx context.Context, query application.UserQuery) ([]application.User, error) {
	models, err := a.repo.ListUsers(ctx, persistence.UserFilter{Role: string(query.Role), StudentGroup: query.StudentGroup})
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	users := make([]application.User, 0, len(models))
	for _, model := range models {
		users = append(users, toApplicationUser(model))
	}
	return users, nil
}

func (a userRepositoryAdapter) DeleteUser(ctx context.Context, id string) error {
	return a.repo.DeleteUser(ctx, id)
}
