// Package access decides which actor may perform which action on an exam. The
// decision is a pure function of the actor, the action and the exam's ownership
// fields; nothing is read from storage here.
package access

import (
	"fmt"
	"strings"
)

// Role is the closed set of actor roles.
type Role string

const (
	RoleStudent     Role = "STUDENT"
	RoleGroupRep    Role = "GROUP_REP"
	RoleTeacher     Role = "TEACHER"
	RoleSecretariat Role = "SECRETARIAT"
	RoleAdmin       Role = "ADMIN"
)

var roleAliases = map[string]Role{
	"STUDENT":        RoleStudent,
	"GROUP_REP":      RoleGroupRep,
	"SEF_GRUPA":      RoleGroupRep,
	"TEACHER":        RoleTeacher,
	"CADRU_DIDACTIC": RoleTeacher,
	"SECRETARIAT":    RoleSecretariat,
	"SEC":            RoleSecretariat,
	"ADMIN":          RoleAdmin,
	"ADM":            RoleAdmin,
}

// ParseRole maps a role label, including the legacy labels, onto a Role.
func ParseRole(value string) (Role, error) {
	key := strings.ToUpper(strings.TrimSpace(value))
	if role, ok := roleAliases[key]; ok {
		return role, nil
	}
	return "", fmt.Errorf("access: unknown role %q", value)
}

// Roles returns every role in a stable order.
func Roles() []Role {
	return []Role{RoleStudent, RoleGroupRep, RoleTeacher, RoleSecretariat, RoleAdmin}
}

// Action names an operation subject to authorization.
type Action string

const (
	ActionCreateExam         Action = "exam.create"
	ActionAssignDiscipline   Action = "exam.assign_discipline"
	ActionUpdateExam         Action = "exam.update"
	ActionDeleteExam         Action = "exam.delete"
	ActionProposeExam        Action = "exam.propose"
	ActionReviewExam         Action = "exam.review"
	ActionConfirmExam        Action = "exam.confirm"
	ActionViewGroupExams     Action = "exam.view_group"
	ActionViewTeacherExams   Action = "exam.view_teacher"
	ActionViewAllExams       Action = "exam.view_all"
	ActionListAvailableRooms Action = "room.list_available"
	ActionManageRooms        Action = "room.manage"
	ActionManagePeriods      Action = "period.manage"
	ActionManageDisciplines  Action = "discipline.manage"
	ActionManageUsers        Action = "user.manage"
	ActionViewCatalog        Action = "catalog.view"
)

// scope narrows a capability to resources the actor is related to.
type scope int

const (
	scopeAny scope = iota + 1
	scopeOwnGroup
	scopeAssignedTeacher
	scopeSelf
)

var capabilities = map[Role]map[Action]scope{
	RoleStudent: {
		ActionViewGroupExams: scopeOwnGroup,
		ActionViewCatalog:    scopeAny,
	},
	RoleGroupRep: {
		ActionProposeExam:        scopeOwnGroup,
		ActionViewGroupExams:     scopeOwnGroup,
		ActionListAvailableRooms: scopeAny,
		ActionViewCatalog:        scopeAny,
	},
	RoleTeacher: {
		ActionReviewExam:         scopeAssignedTeacher,
		ActionConfirmExam:        scopeAssignedTeacher,
		ActionViewTeacherExams:   scopeSelf,
		ActionListAvailableRooms: scopeAny,
		ActionViewCatalog:        scopeAny,
	},
	RoleSecretariat: {
		ActionCreateExam:         scopeAny,
		ActionAssignDiscipline:   scopeAny,
		ActionUpdateExam:         scopeAny,
		ActionViewGroupExams:     scopeAny,
		ActionViewTeacherExams:   scopeAny,
		ActionViewAllExams:       scopeAny,
		ActionListAvailableRooms: scopeAny,
		ActionManageRooms:        scopeAny,
		ActionManagePeriods:      scopeAny,
		ActionManageDisciplines:  scopeAny,
		ActionViewCatalog:        scopeAny,
	},
}

// Actor is the verified identity performing a request.
type Actor struct {
	ID           string
	Role         Role
	StudentGroup string
}

// Resource carries the ownership fields of the object being acted on. Fields
// irrelevant to the action may be left empty.
type Resource struct {
	StudentGroup    string
	MainTeacherID   string
	SecondTeacherID string
	OwnerID         string
}

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision { return Decision{Allowed: true} }

func deny(reason string) Decision { return Decision{Reason: reason} }

// Authorize evaluates the capability table for actor performing action on res.
func Authorize(actor Actor, action Action, res Resource) Decision {
	if strings.TrimSpace(actor.ID) == "" {
		return deny("actor is not identified")
	}
	if actor.Role == RoleAdmin {
		return allow()
	}

	granted, ok := capabilities[actor.Role]
	if !ok {
		return deny(fmt.Sprintf("role %q has no capabilities", actor.Role))
	}
	sc, ok := granted[action]
	if !ok {
		return deny(fmt.Sprintf("role %s may not perform %s", actor.Role, action))
	}

	switch sc {
	case scopeAny:
		return allow()
	case scopeOwnGroup:
		if actor.StudentGroup != "" && actor.StudentGroup == res.StudentGroup {
			return allow()
		}
		return deny("exam belongs to another student group")
	case scopeAssignedTeacher:
		if actor.ID == res.MainTeacherID || actor.ID == res.SecondTeacherID {
			return allow()
		}
		return deny("teacher is not assigned to this exam")
	case scopeSelf:
		if actor.ID == res.OwnerID {
			return allow()
		}
		return deny("resource belongs to another user")
	default:
		return deny("unsupported capability scope")
	}
}

// Can reports whether the role holds action in any scope. It is useful for
// coarse checks before the resource is loaded.
func Can(role Role, action Action) bool {
	if role == RoleAdmin {
		return true
	}
	_, ok := capabilities[role][action]
	return ok
}
