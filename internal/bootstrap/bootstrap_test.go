package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/exam-scheduler/internal/access"
	"github.com/example/exam-scheduler/internal/application"
	"github.com/example/exam-scheduler/internal/config"
	"github.com/example/exam-scheduler/internal/persistence/memory"
	"github.com/example/exam-scheduler/internal/persistence/sqlstore"
	"github.com/example/exam-scheduler/internal/workflow"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOpenStoreMemory(t *testing.T) {
	t.Parallel()

	store, err := OpenStore(context.Background(), config.Config{DatabaseDriver: config.DriverMemory}, quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	applied, err := Migrate(context.Background(), store)
	require.NoError(t, err)
	assert.Zero(t, applied, "the memory store has no schema")
}

func TestOpenStoreSQLiteMigrates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store, err := OpenStore(ctx, config.Config{
		DatabaseDriver: config.DriverSQLite,
		DatabaseDSN:    "file:" + filepath.Join(t.TempDir(), "exams.db"),
		BusyTimeout:    time.Second,
		TxMaxRetries:   2,
		TxRetryDelay:   time.Millisecond,
		AutoMigrate:    true,
	}, quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	sqlStore, ok := store.(*sqlstore.Store)
	require.True(t, ok)
	status, err := sqlStore.MigrationStatus(ctx)
	require.NoError(t, err)
	assert.Zero(t, status.PendingCount)
	assert.Equal(t, "001", status.CurrentVersion)

	applied, err := Migrate(ctx, store)
	require.NoError(t, err)
	assert.Zero(t, applied, "migrations are applied once")
}

func TestOpenStoreRejectsUnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := OpenStore(context.Background(), config.Config{DatabaseDriver: "oracle"}, quietLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle")
}

func TestNewServicesRequiresStore(t *testing.T) {
	t.Parallel()

	_, err := NewServices(nil, nil, nil, quietLogger())
	require.Error(t, err)

	services, err := NewServices(memory.Open(), nil, nil, quietLogger())
	require.NoError(t, err)
	assert.NotNil(t, services.Exams)
	assert.NotNil(t, services.Periods)
	assert.NotNil(t, services.Rooms)
	assert.NotNil(t, services.Disciplines)
	assert.NotNil(t, services.Users)
}

func TestExamConversionKeepsOptionalFields(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 6, 2, 8, 30, 0, 0, time.UTC)

	draft := application.Exam{
		ID:              "e1",
		DisciplineID:    "d1",
		Kind:            application.ExamKindExam,
		StudentGroup:    "CTI-1",
		MainTeacherID:   "t1",
		SecondTeacherID: "t2",
		DurationMinutes: 120,
		Status:          workflow.StatusDraft,
		CreatedBy:       "sec",
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	stored := toPersistenceExam(draft)
	assert.Nil(t, stored.RoomID)
	assert.Nil(t, stored.ExamDate)
	assert.Nil(t, stored.StartHour)

	back, err := toApplicationExam(stored)
	require.NoError(t, err)
	assert.Equal(t, draft, back)

	scheduled := draft
	scheduled.RoomID = "r1"
	scheduled.Date = civil.Date{Year: 2025, Month: 6, Day: 20}
	scheduled.StartHour = 10
	scheduled.Status = workflow.StatusProposed
	stored = toPersistenceExam(scheduled)
	require.NotNil(t, stored.ExamDate)
	assert.Equal(t, "2025-06-20", *stored.ExamDate)

	back, err = toApplicationExam(stored)
	require.NoError(t, err)
	assert.Equal(t, scheduled, back)

	bad := "20-06-2025"
	stored.ExamDate = &bad
	_, err = toApplicationExam(stored)
	require.Error(t, err)
}

func TestUserConversion(t *testing.T) {
	t.Parallel()

	staff := application.User{ID: "u1", Email: "t@example.edu", FullName: "T", Role: access.RoleTeacher}
	stored := toPersistenceUser(staff)
	assert.Nil(t, stored.StudentGroup)
	assert.Nil(t, stored.YearOfStudy)
	assert.Equal(t, staff, toApplicationUser(stored))
}

func TestExamFilterConversion(t *testing.T) {
	t.Parallel()

	filter := toPersistenceExamFilter(application.ExamQuery{
		Date:     civil.Date{Year: 2025, Month: 6, Day: 20},
		Statuses: []workflow.Status{workflow.StatusProposed},
	})
	assert.Equal(t, "2025-06-20", filter.ExamDate)
	assert.Empty(t, filter.DateFrom)
	assert.Nil(t, filter.StartHour)
	assert.Equal(t, []string{"PROPOSED"}, filter.Statuses)
}
