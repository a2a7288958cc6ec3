package application_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/exam-scheduler/internal/application"
	"github.com/example/exam-scheduler/internal/testfixtures"
)

func TestDisciplineCatalog(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	w := testfixtures.NewMemoryWorld(t)

	_, err := w.Services.Disciplines.CreateDiscipline(ctx, w.MainTeacher, application.DisciplineInput{Name: "Compilers", YearOfStudy: 3})
	require.ErrorIs(t, err, application.ErrForbidden)

	_, err = w.Services.Disciplines.CreateDiscipline(ctx, w.Secretariat, application.DisciplineInput{Name: " ", YearOfStudy: 9})
	fields := fieldErrors(t, err)
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "year_of_study")

	compilers, err := w.Services.Disciplines.CreateDiscipline(ctx, w.Secretariat, application.DisciplineInput{
		Name: " Compilers ", YearOfStudy: 3, Specialization: "CTI",
	})
	require.NoError(t, err)
	assert.Equal(t, "Compilers", compilers.Name)

	algebra, err := w.Services.Disciplines.CreateDiscipline(ctx, w.Secretariat, application.DisciplineInput{Name: "Algebra", YearOfStudy: 1})
	require.NoError(t, err)

	got, err := w.Services.Disciplines.GetDiscipline(ctx, w.Student, compilers.ID)
	require.NoError(t, err)
	assert.Equal(t, compilers, got)

	_, err = w.Services.Disciplines.GetDiscipline(ctx, w.Student, "missing")
	require.ErrorIs(t, err, application.ErrNotFound)

	all, err := w.Services.Disciplines.ListDisciplines(ctx, w.GroupRep)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, algebra.ID, all[0].ID)
	assert.Equal(t, compilers.ID, all[1].ID)
}
