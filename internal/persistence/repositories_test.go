package persistence_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/exam-scheduler/internal/persistence"
	"github.com/example/exam-scheduler/internal/persistence/memory"
	"github.com/example/exam-scheduler/internal/persistence/sqlstore"
)

var reference = time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

// stores returns every Store implementation the repository contract is checked against.
func stores(t *testing.T) map[string]func(t *testing.T) persistence.Store {
	t.Helper()
	return map[string]func(t *testing.T) persistence.Store{
		"memory": func(t *testing.T) persistence.Store {
			return memory.Open()
		},
		"sqlite": func(t *testing.T) persistence.Store {
			ctx := context.Background()
			store, err := sqlstore.Open(ctx, sqlstore.Config{
				Driver: sqlstore.DriverSQLite,
				DSN:    "file:" + filepath.Join(t.TempDir(), "contract.db"),
				Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
			})
			if err != nil {
				t.Fatalf("open sqlite store: %v", err)
			}
			t.Cleanup(func() { _ = store.Close() })
			if _, err := store.Migrate(ctx); err != nil {
				t.Fatalf("migrate sqlite store: %v", err)
			}
			return store
		},
	}
}

func atomic(t *testing.T, store persistence.Store, fn func(ctx context.Context, tx persistence.Tx) error) error {
	t.Helper()
	return store.Atomic(context.Background(), fn)
}

func mustAtomic(t *testing.T, store persistence.Store, fn func(ctx context.Context, tx persistence.Tx) error) {
	t.Helper()
	if err := atomic(t, store, fn); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func read(t *testing.T, store persistence.Store, fn func(ctx context.Context, tx persistence.Tx) error) {
	t.Helper()
	if err := store.ReadOnly(context.Background(), fn); err != nil {
		t.Fatalf("unexpected read error: %v", err)
	}
}

func ptr[T any](v T) *T { return &v }

func seedCatalog(t *testing.T, store persistence.Store) {
	t.Helper()
	mustAtomic(t, store, func(ctx context.Context, tx persistence.Tx) error {
		for _, u := range []persistence.User{
			{ID: "t-1", Email: "t1@uni.test", FullName: "Teacher One", Role: "TEACHER"},
			{ID: "t-2", Email: "t2@uni.test", FullName: "Teacher Two", Role: "TEACHER"},
			{ID: "rep-1", Email: "rep@uni.test", FullName: "Rep One", Role: "GROUP_REP", StudentGroup: ptr("CTI-1"), YearOfStudy: ptr(2)},
		} {
			u.CreatedAt, u.UpdatedAt = reference, reference
			if err := tx.Users().CreateUser(ctx, u); err != nil {
				return err
			}
		}
		if err := tx.Rooms().CreateRoom(ctx, persistence.Room{ID: "r-1", Name: "Aula Magna", Capacity: 200, CreatedAt: reference, UpdatedAt: reference}); err != nil {
			return err
		}
		for _, id := range []string{"d-1", "d-2"} {
			if err := tx.Disciplines().CreateDiscipline(ctx, persistence.Discipline{ID: id, Name: "Discipline " + id, YearOfStudy: 2, CreatedAt: reference}); err != nil {
				return err
			}
		}
		return nil
	})
}

func draftExam(id, discipline string) persistence.Exam {
	return persistence.Exam{
		ID: id, DisciplineID: discipline, Kind: "EXAM", StudentGroup: "CTI-1",
		MainTeacherID: "t-1", SecondTeacherID: "t-2", DurationMinutes: 120,
		Status: "DRAFT", CreatedBy: "sec-1", CreatedAt: reference, UpdatedAt: reference,
	}
}

func TestUserRepository(t *testing.T) {
	t.Parallel()

	for name, open := range stores(t) {
		open := open
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			store := open(t)
			seedCatalog(t, store)

			err := atomic(t, store, func(ctx context.Context, tx persistence.Tx) error {
				return tx.Users().CreateUser(ctx, persistence.User{ID: "t-3", Email: "T1@UNI.TEST", FullName: "Clone", Role: "TEACHER", CreatedAt: reference, UpdatedAt: reference})
			})
			if !errors.Is(err, persistence.ErrDuplicate) {
				t.Fatalf("expected duplicate email to be rejected, got %v", err)
			}

			mustAtomic(t, store, func(ctx context.Context, tx persistence.Tx) error {
				return tx.Users().UpdateUser(ctx, "rep-1", persistence.UserUpdate{FullName: ptr("Rep Renamed"), UpdatedAt: reference.Add(time.Minute)})
			})

			var reps []persistence.User
			read(t, store, func(ctx context.Context, tx persistence.Tx) error {
				var err error
				reps, err = tx.Users().ListUsers(ctx, persistence.UserFilter{Role: "GROUP_REP", StudentGroup: "CTI-1"})
				return err
			})
			if len(reps) != 1 || reps[0].FullName != "Rep Renamed" {
				t.Fatalf("unexpected reps %+v", reps)
			}
			if reps[0].StudentGroup == nil || *reps[0].StudentGroup != "CTI-1" {
				t.Fatalf("expected student group to survive partial update, got %v", reps[0].StudentGroup)
			}
			if reps[0].YearOfStudy == nil || *reps[0].YearOfStudy != 2 {
				t.Fatalf("expected year of study 2, got %v", reps[0].YearOfStudy)
			}

			var teachers []persistence.User
			read(t, store, func(ctx context.Context, tx persistence.Tx) error {
				var err error
				teachers, err = tx.Users().ListUsers(ctx, persistence.UserFilter{Role: "TEACHER"})
				return err
			})
			if len(teachers) != 2 || teachers[0].ID != "t-1" || teachers[1].ID != "t-2" {
				t.Fatalf("expected teachers ordered by name, got %+v", teachers)
			}

			mustAtomic(t, store, func(ctx context.Context, tx persistence.Tx) error {
				return tx.Exams().CreateExam(ctx, draftExam("e-1", "d-1"))
			})
			err = atomic(t, store, func(ctx context.Context, tx persistence.Tx) error {
				return tx.Users().DeleteUser(ctx, "t-1")
			})
			if !errors.Is(err, persistence.ErrForeignKeyViolation) {
				t.Fatalf("expected assigned teacher delete to fail, got %v", err)
			}

			mustAtomic(t, store, func(ctx context.Context, tx persistence.Tx) error {
				return tx.Users().DeleteUser(ctx, "rep-1")
			})
			err = atomic(t, store, func(ctx context.Context, tx persistence.Tx) error {
				_, err := tx.Users().GetUser(ctx, "rep-1")
				return err
			})
			if !errors.Is(err, persistence.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestRoomRepository(t *testing.T) {
	t.Parallel()

	for name, open := range stores(t) {
		open := open
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			store := open(t)
			seedCatalog(t, store)

			err := atomic(t, store, func(ctx context.Context, tx persistence.Tx) error {
				return tx.Rooms().CreateRoom(ctx, persistence.Room{ID: "r-2", Name: "Aula Magna", Capacity: 10, CreatedAt: reference, UpdatedAt: reference})
			})
			if !errors.Is(err, persistence.ErrDuplicate) {
				t.Fatalf("expected duplicate room name, got %v", err)
			}

			err = atomic(t, store, func(ctx context.Context, tx persistence.Tx) error {
				return tx.Rooms().CreateRoom(ctx, persistence.Room{ID: "r-3", Name: "Closet", Capacity: 0, CreatedAt: reference, UpdatedAt: reference})
			})
			if !errors.Is(err, persistence.ErrConstraintViolation) {
				t.Fatalf("expected capacity check, got %v", err)
			}

			mustAtomic(t, store, func(ctx context.Context, tx persistence.Tx) error {
				return tx.Rooms().UpdateRoom(ctx, persistence.Room{ID: "r-1", Name: "Aula Magna", ShortName: "AM", Building: "Central", Capacity: 250, UpdatedAt: reference})
			})
			var room persistence.Room
			read(t, store, func(ctx context.Context, tx persistence.Tx) error {
				var err error
				room, err = tx.Rooms().GetRoom(ctx, "r-1")
				return err
			})
			if room.Capacity != 250 || room.ShortName != "AM" || room.Building != "Central" {
				t.Fatalf("unexpected room %+v", room)
			}

			err = atomic(t, store, func(ctx context.Context, tx persistence.Tx) error {
				return tx.Rooms().UpdateRoom(ctx, persistence.Room{ID: "missing", Name: "X", Capacity: 1, UpdatedAt: reference})
			})
			if !errors.Is(err, persistence.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestPeriodRepository(t *testing.T) {
	t.Parallel()

	for name, open := range stores(t) {
		open := open
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			store := open(t)

			mustAtomic(t, store, func(ctx context.Context, tx persistence.Tx) error {
				for _, p := range []persistence.ExamPeriod{
					{ID: "winter", Name: "Winter", StartDate: "2025-01-13", EndDate: "2025-02-07"},
					{ID: "summer", Name: "Summer", StartDate: "2025-06-02", EndDate: "2025-06-27", IsActive: true},
				} {
					p.CreatedAt, p.UpdatedAt = reference, reference
					if err := tx.Periods().CreatePeriod(ctx, p); err != nil {
						return err
					}
				}
				return nil
			})

			err := atomic(t, store, func(ctx context.Context, tx persistence.Tx) error {
				return tx.Periods().CreatePeriod(ctx, persistence.ExamPeriod{ID: "bad", Name: "Bad", StartDate: "2025-03-10", EndDate: "2025-03-01", CreatedAt: reference, UpdatedAt: reference})
			})
			if !errors.Is(err, persistence.ErrConstraintViolation) {
				t.Fatalf("expected inverted range to be rejected, got %v", err)
			}

			mustAtomic(t, store, func(ctx context.Context, tx persistence.Tx) error {
				return tx.Periods().UpdatePeriod(ctx, "winter", persistence.PeriodUpdate{IsActive: ptr(true), UpdatedAt: reference})
			})

			var periods []persistence.ExamPeriod
			read(t, store, func(ctx context.Context, tx persistence.Tx) error {
				var err error
				periods, err = tx.Periods().ListPeriods(ctx)
				return err
			})
			if len(periods) != 2 || periods[0].ID != "summer" || periods[1].ID != "winter" {
				t.Fatalf("expected periods newest first, got %+v", periods)
			}
			if !periods[1].IsActive || periods[1].Name != "Winter" {
				t.Fatalf("expected winter activated with name kept, got %+v", periods[1])
			}
		})
	}
}

func TestExamRepository(t *testing.T) {
	t.Parallel()

	for name, open := range stores(t) {
		open := open
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			store := open(t)
			seedCatalog(t, store)

			mustAtomic(t, store, func(ctx context.Context, tx persistence.Tx) error {
				if err := tx.Exams().CreateExam(ctx, draftExam("e-1", "d-1")); err != nil {
					return err
				}
				return tx.Exams().CreateExam(ctx, draftExam("e-2", "d-2"))
			})

			err := atomic(t, store, func(ctx context.Context, tx persistence.Tx) error {
				return tx.Exams().CreateExam(ctx, draftExam("e-3", "d-1"))
			})
			if !errors.Is(err, persistence.ErrDuplicate) {
				t.Fatalf("expected discipline/group pairing to be unique, got %v", err)
			}

			err = atomic(t, store, func(ctx context.Context, tx persistence.Tx) error {
				exam := draftExam("e-4", "d-missing")
				exam.StudentGroup = "CTI-9"
				return tx.Exams().CreateExam(ctx, exam)
			})
			if !errors.Is(err, persistence.ErrForeignKeyViolation) {
				t.Fatalf("expected unknown discipline to be rejected, got %v", err)
			}

			propose := persistence.ExamUpdate{
				RoomID: ptr("r-1"), ExamDate: ptr("2025-06-20"), StartHour: ptr(10),
				Status: ptr("PROPOSED"), UpdatedAt: reference.Add(time.Hour),
			}
			mustAtomic(t, store, func(ctx context.Context, tx persistence.Tx) error {
				return tx.Exams().UpdateExam(ctx, "e-1", propose)
			})

			err = atomic(t, store, func(ctx context.Context, tx persistence.Tx) error {
				return tx.Exams().UpdateExam(ctx, "e-2", propose)
			})
			if !errors.Is(err, persistence.ErrDuplicate) {
				t.Fatalf("expected second active booking of the slot to fail, got %v", err)
			}

			var exam persistence.Exam
			read(t, store, func(ctx context.Context, tx persistence.Tx) error {
				var err error
				exam, err = tx.Exams().GetExam(ctx, "e-2")
				return err
			})
			if exam.Status != "DRAFT" || exam.ExamDate != nil {
				t.Fatalf("expected failed update to leave e-2 untouched, got %+v", exam)
			}

			mustAtomic(t, store, func(ctx context.Context, tx persistence.Tx) error {
				return tx.Exams().UpdateExam(ctx, "e-1", persistence.ExamUpdate{Status: ptr("REJECTED"), UpdatedAt: reference})
			})
			mustAtomic(t, store, func(ctx context.Context, tx persistence.Tx) error {
				return tx.Exams().UpdateExam(ctx, "e-2", propose)
			})

			var held []persistence.Exam
			read(t, store, func(ctx context.Context, tx persistence.Tx) error {
				var err error
				held, err = tx.Exams().ListExams(ctx, persistence.ExamFilter{
					RoomID: "r-1", ExamDate: "2025-06-20", StartHour: ptr(10),
					Statuses: []string{"PROPOSED", "ACCEPTED", "CONFIRMED"},
				})
				return err
			})
			if len(held) != 1 || held[0].ID != "e-2" {
				t.Fatalf("expected e-2 to hold the slot after e-1 was rejected, got %+v", held)
			}

			var teacherExams []persistence.Exam
			var inRange int
			read(t, store, func(ctx context.Context, tx persistence.Tx) error {
				var err error
				teacherExams, err = tx.Exams().ListExams(ctx, persistence.ExamFilter{TeacherID: "t-2"})
				if err != nil {
					return err
				}
				inRange, err = tx.Exams().CountExams(ctx, persistence.ExamFilter{DateFrom: "2025-06-01", DateTo: "2025-06-30"})
				return err
			})
			if len(teacherExams) != 2 || teacherExams[0].ID != "e-1" {
				t.Fatalf("expected both exams for the second teacher in creation order, got %+v", teacherExams)
			}
			if inRange != 2 {
				t.Fatalf("expected 2 exams dated in June, got %d", inRange)
			}

			mustAtomic(t, store, func(ctx context.Context, tx persistence.Tx) error {
				return tx.Exams().DeleteExam(ctx, "e-1")
			})
			err = atomic(t, store, func(ctx context.Context, tx persistence.Tx) error {
				return tx.Exams().DeleteExam(ctx, "e-1")
			})
			if !errors.Is(err, persistence.ErrNotFound) {
				t.Fatalf("expected ErrNotFound on second delete, got %v", err)
			}
		})
	}
}

func TestReadOnlyRejectsWrites(t *testing.T) {
	t.Parallel()

	for name, open := range stores(t) {
		open := open
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			store := open(t)

			err := store.ReadOnly(context.Background(), func(ctx context.Context, tx persistence.Tx) error {
				return tx.Rooms().CreateRoom(ctx, persistence.Room{ID: "r", Name: "R", Capacity: 1, CreatedAt: reference, UpdatedAt: reference})
			})
			if !errors.Is(err, persistence.ErrReadOnly) {
				t.Fatalf("expected ErrReadOnly, got %v", err)
			}
		})
	}
}
