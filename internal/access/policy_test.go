package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	t.Parallel()

	cases := map[string]Role{
		"SEF_GRUPA":      RoleGroupRep,
		"cadru_didactic": RoleTeacher,
		"SEC":            RoleSecretariat,
		"admin":          RoleAdmin,
		" STUDENT ":      RoleStudent,
		"GROUP_REP":      RoleGroupRep,
	}
	for label, want := range cases {
		got, err := ParseRole(label)
		require.NoError(t, err, label)
		assert.Equal(t, want, got, label)
	}

	_, err := ParseRole("JANITOR")
	assert.Error(t, err)
}

func TestAuthorize(t *testing.T) {
	t.Parallel()

	exam := Resource{StudentGroup: "CTI-1", MainTeacherID: "t-main", SecondTeacherID: "t-second"}

	cases := []struct {
		name    string
		actor   Actor
		action  Action
		allowed bool
	}{
		{"rep proposes own group", Actor{ID: "rep", Role: RoleGroupRep, StudentGroup: "CTI-1"}, ActionProposeExam, true},
		{"rep proposes other group", Actor{ID: "rep", Role: RoleGroupRep, StudentGroup: "CTI-2"}, ActionProposeExam, false},
		{"rep without group", Actor{ID: "rep", Role: RoleGroupRep}, ActionProposeExam, false},
		{"student cannot propose", Actor{ID: "s", Role: RoleStudent, StudentGroup: "CTI-1"}, ActionProposeExam, false},
		{"main teacher reviews", Actor{ID: "t-main", Role: RoleTeacher}, ActionReviewExam, true},
		{"second teacher confirms", Actor{ID: "t-second", Role: RoleTeacher}, ActionConfirmExam, true},
		{"unassigned teacher reviews", Actor{ID: "t-other", Role: RoleTeacher}, ActionReviewExam, false},
		{"secretariat creates", Actor{ID: "sec", Role: RoleSecretariat}, ActionCreateExam, true},
		{"secretariat cannot review", Actor{ID: "sec", Role: RoleSecretariat}, ActionReviewExam, false},
		{"teacher cannot create", Actor{ID: "t-main", Role: RoleTeacher}, ActionCreateExam, false},
		{"admin overrides", Actor{ID: "adm", Role: RoleAdmin}, ActionConfirmExam, true},
		{"admin deletes", Actor{ID: "adm", Role: RoleAdmin}, ActionDeleteExam, true},
		{"secretariat cannot delete", Actor{ID: "sec", Role: RoleSecretariat}, ActionDeleteExam, false},
		{"anonymous denied", Actor{Role: RoleAdmin}, ActionViewCatalog, false},
		{"unknown role denied", Actor{ID: "x", Role: Role("GUEST")}, ActionViewCatalog, false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			decision := Authorize(tc.actor, tc.action, exam)
			assert.Equal(t, tc.allowed, decision.Allowed)
			if !tc.allowed {
				assert.NotEmpty(t, decision.Reason)
			}
		})
	}
}

func TestAuthorizeSelfScope(t *testing.T) {
	t.Parallel()

	teacher := Actor{ID: "t-1", Role: RoleTeacher}
	assert.True(t, Authorize(teacher, ActionViewTeacherExams, Resource{OwnerID: "t-1"}).Allowed)
	assert.False(t, Authorize(teacher, ActionViewTeacherExams, Resource{OwnerID: "t-2"}).Allowed)
}

func TestCan(t *testing.T) {
	t.Parallel()

	assert.True(t, Can(RoleGroupRep, ActionProposeExam))
	assert.False(t, Can(RoleStudent, ActionManagePeriods))
	assert.True(t, Can(RoleAdmin, ActionManageUsers))
	assert.False(t, Can(RoleSecretariat, ActionManageUsers))
}
