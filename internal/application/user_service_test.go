package application_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/exam-scheduler/internal/access"
	"github.com/example/exam-scheduler/internal/application"
	"github.com/example/exam-scheduler/internal/testfixtures"
)

func TestUserDirectory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	w := testfixtures.NewMemoryWorld(t)

	input := application.UserInput{
		Email:        " Ana.Pop@Example.edu ",
		FullName:     "Ana Pop",
		Role:         "SEF_GRUPA",
		StudentGroup: "CTI-4",
		YearOfStudy:  2,
	}

	_, err := w.Services.Users.CreateUser(ctx, w.Secretariat, input)
	require.ErrorIs(t, err, application.ErrForbidden, "only administrators manage users")

	created, err := w.Services.Users.CreateUser(ctx, w.Admin, input)
	require.NoError(t, err)
	assert.Equal(t, "ana.pop@example.edu", created.Email)
	assert.Equal(t, access.RoleGroupRep, created.Role)

	_, err = w.Services.Users.CreateUser(ctx, w.Admin, input)
	require.ErrorIs(t, err, application.ErrConflict)

	noGroup := input
	noGroup.Email = "lone@example.edu"
	noGroup.StudentGroup = ""
	_, err = w.Services.Users.CreateUser(ctx, w.Admin, noGroup)
	assert.Contains(t, fieldErrors(t, err), "student_group")

	badRole := input
	badRole.Email = "guest@example.edu"
	badRole.Role = "GUEST"
	_, err = w.Services.Users.CreateUser(ctx, w.Admin, badRole)
	assert.Equal(t, "role must be one of STUDENT, GROUP_REP, TEACHER, SECRETARIAT, ADMIN", fieldErrors(t, err)["role"])

	self, err := w.Services.Users.GetUser(ctx, application.Principal{UserID: created.ID, Role: access.RoleGroupRep}, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, self.ID)

	_, err = w.Services.Users.GetUser(ctx, w.Student, created.ID)
	require.ErrorIs(t, err, application.ErrForbidden)

	group := "CTI-5"
	year := 3
	updated, err := w.Services.Users.UpdateUser(ctx, w.Admin, created.ID, application.UserPatch{StudentGroup: &group, YearOfStudy: &year})
	require.NoError(t, err)
	assert.Equal(t, "CTI-5", updated.StudentGroup)
	assert.Equal(t, 3, updated.YearOfStudy)
	assert.Equal(t, "Ana Pop", updated.FullName)

	empty := ""
	_, err = w.Services.Users.UpdateUser(ctx, w.Admin, created.ID, application.UserPatch{StudentGroup: &empty})
	assert.Contains(t, fieldErrors(t, err), "student_group")

	reps, err := w.Services.Users.ListUsers(ctx, w.Admin, application.UserQuery{Role: access.RoleGroupRep})
	require.NoError(t, err)
	assert.Len(t, reps, 3)

	require.NoError(t, w.Services.Users.DeleteUser(ctx, w.Admin, created.ID))
	_, err = w.Services.Users.GetUser(ctx, w.Admin, created.ID)
	require.ErrorIs(t, err, application.ErrNotFound)
}

func TestDeleteAssignedTeacherIsRejected(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	w := testfixtures.NewMemoryWorld(t)
	w.NewDraftExam(t, w.Group)

	err := w.Services.Users.DeleteUser(ctx, w.Admin, w.MainTeacher.UserID)
	require.ErrorIs(t, err, application.ErrConflict)
}

func TestResolvePrincipal(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	w := testfixtures.NewMemoryWorld(t)

	rep, err := w.Services.Users.ResolvePrincipal(ctx, w.GroupRep.UserID, access.RoleGroupRep)
	require.NoError(t, err)
	assert.Equal(t, w.GroupRep, rep)

	stranger, err := w.Services.Users.ResolvePrincipal(ctx, "external-admin", access.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, application.Principal{UserID: "external-admin", Role: access.RoleAdmin}, stranger)
}

func TestListStudentGroups(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	w := testfixtures.NewMemoryWorld(t)

	groups, err := w.Services.Users.ListStudentGroups(ctx, w.Secretariat)
	require.NoError(t, err)
	assert.Equal(t, []string{w.Group, w.OtherGroup}, groups)

	_, err = w.Services.Users.CreateUser(ctx, w.Admin, testfixtures.NewUserFixture(testfixtures.WithUserGroup("AC-1")).Input())
	require.NoError(t, err)
	groups, err = w.Services.Users.ListStudentGroups(ctx, w.Admin)
	require.NoError(t, err)
	assert.Equal(t, []string{"AC-1", w.Group, w.OtherGroup}, groups)

	_, err = w.Services.Users.ListStudentGroups(ctx, w.GroupRep)
	require.ErrorIs(t, err, application.ErrForbidden)
	_, err = w.Services.Users.ListStudentGroups(ctx, w.MainTeacher)
	require.ErrorIs(t, err, application.ErrForbidden)
}
