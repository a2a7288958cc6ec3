package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/exam-scheduler/internal/access"
	"github.com/example/exam-scheduler/internal/persistence"
)

// UserService maintains the user directory and resolves request identities
// into principals.
type UserService struct {
	serviceBase
}

// NewUserService wires dependencies for the user service. A nil store is rejected.
func NewUserService(store Store, idGenerator func() string, now func() time.Time) (*UserService, error) {
	return NewUserServiceWithLogger(store, idGenerator, now, nil)
}

// NewUserServiceWithLogger wires the user service with a specified logger.
func NewUserServiceWithLogger(store Store, idGenerator func() string, now func() time.Time, logger *slog.Logger) (*UserService, error) {
	base, err := newServiceBase(store, idGenerator, now, logger)
	if err != nil {
		return nil, err
	}
	return &UserService{serviceBase: base}, nil
}

func (s *UserService) loggerWith(ctx context.Context, operation string, principal Principal, attrs ...any) *slog.Logger {
	attrs = append([]any{"principal_id", principal.UserID}, attrs...)
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

// CreateUser validates input and persists a new user for administrators.
func (s *UserService) CreateUser(ctx context.Context, principal Principal, input UserInput) (user User, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateUser", principal)
	defer func() {
		logOutcome(ctx, logger, err, "failed to create user", "user created", "user_id", user.ID, "user_role", string(user.Role))
	}()

	if err = requireCapability(principal, access.ActionManageUsers); err != nil {
		return
	}
	input = normalizeUserInput(input)
	if vErr := validateInput(input); vErr != nil {
		err = vErr
		return
	}
	role, _ := access.ParseRole(input.Role)
	if vErr := validateGroupMembership(role, input.StudentGroup); vErr != nil {
		err = vErr
		return
	}

	now := s.timestamp()
	candidate := User{
		ID:           s.idGenerator(),
		Email:        input.Email,
		FullName:     input.FullName,
		Role:         role,
		StudentGroup: input.StudentGroup,
		YearOfStudy:  input.YearOfStudy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = s.store.Atomic(ctx, func(ctx context.Context, tx Tx) error {
		return tx.Users().CreateUser(ctx, candidate)
	})
	if err != nil {
		err = mapUserRepoError(err, candidate.ID)
		return
	}
	user = candidate
	return
}

// UpdateUser applies a typed partial update for administrators.
func (s *UserService) UpdateUser(ctx context.Context, principal Principal, userID string, patch UserPatch) (user User, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UpdateUser", principal, "user_id", userID)
	defer func() {
		logOutcome(ctx, logger, err, "failed to update user", "user updated")
	}()

	if err = requireCapability(principal, access.ActionManageUsers); err != nil {
		return
	}
	if patch.FullName == nil && patch.Role == nil && patch.StudentGroup == nil && patch.YearOfStudy == nil {
		err = fieldError("patch", "at least one field must be provided")
		return
	}
	if vErr := validateInput(patch); vErr != nil {
		err = vErr
		return
	}

	changes := UserChanges{YearOfStudy: patch.YearOfStudy, UpdatedAt: s.timestamp()}
	if patch.FullName != nil {
		name := strings.TrimSpace(*patch.FullName)
		changes.FullName = &name
	}
	if patch.Role != nil {
		role, _ := access.ParseRole(*patch.Role)
		changes.Role = &role
	}
	if patch.StudentGroup != nil {
		group := strings.TrimSpace(*patch.StudentGroup)
		changes.StudentGroup = &group
	}

	err = s.store.Atomic(ctx, func(ctx context.Context, tx Tx) error {
		current, err := tx.Users().GetUser(ctx, userID)
		if err != nil {
			return lookupError(err, "user", userID)
		}
		role, group := current.Role, current.StudentGroup
		if changes.Role != nil {
			role = *changes.Role
		}
		if changes.StudentGroup != nil {
			group = *changes.StudentGroup
		}
		if vErr := validateGroupMembership(role, group); vErr != nil {
			return vErr
		}
		if err := tx.Users().UpdateUser(ctx, userID, changes); err != nil {
			return err
		}
		user, err = tx.Users().GetUser(ctx, userID)
		return err
	})
	if err != nil {
		err = mapUserRepoError(err, userID)
		user = User{}
	}
	return
}

// DeleteUser removes a user that no exam references.
func (s *UserService) DeleteUser(ctx context.Context, principal Principal, userID string) (err error) {
	if s == nil {
		return fmt.Errorf("UserService is nil")
	}

	logger := s.loggerWith(ctx, "DeleteUser", principal, "user_id", userID)
	defer func() {
		logOutcome(ctx, logger, err, "failed to delete user", "user deleted")
	}()

	if err = requireCapability(principal, access.ActionManageUsers); err != nil {
		return
	}
	err = s.store.Atomic(ctx, func(ctx context.Context, tx Tx) error {
		return tx.Users().DeleteUser(ctx, userID)
	})
	err = mapUserRepoError(err, userID)
	return
}

// GetUser returns one user. Anyone may read their own entry.
func (s *UserService) GetUser(ctx context.Context, principal Principal, userID string) (user User, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}
	if principal.UserID != userID {
		if err = requireCapability(principal, access.ActionManageUsers); err != nil {
			return
		}
	}
	err = s.store.ReadOnly(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		user, err = tx.Users().GetUser(ctx, userID)
		return err
	})
	err = mapUserRepoError(err, userID)
	return
}

// ListUsers returns users matching query, ordered by name.
func (s *UserService) ListUsers(ctx context.Context, principal Principal, query UserQuery) (users []User, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ListUsers", principal)
	defer func() {
		logOutcome(ctx, logger, err, "failed to list users", "users listed", "result_count", len(users))
	}()

	if err = requireCapability(principal, access.ActionManageUsers); err != nil {
		return
	}
	err = s.store.ReadOnly(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		users, err = tx.Users().ListUsers(ctx, query)
		return err
	})
	if err != nil {
		return nil, mapUserRepoError(err, "")
	}
	return users, nil
}

// ListStudentGroups returns the distinct student groups recorded on users, sorted.
func (s *UserService) ListStudentGroups(ctx context.Context, principal Principal) (groups []string, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ListStudentGroups", principal)
	defer func() {
		logOutcome(ctx, logger, err, "failed to list student groups", "student groups listed", "result_count", len(groups))
	}()

	if err = requireCapability(principal, access.ActionViewAllExams); err != nil {
		return
	}
	var users []User
	err = s.store.ReadOnly(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		users, err = tx.Users().ListUsers(ctx, UserQuery{})
		return err
	})
	if err != nil {
		return nil, mapUserRepoError(err, "")
	}

	seen := make(map[string]struct{})
	groups = make([]string, 0)
	for _, user := range users {
		if user.StudentGroup == "" {
			continue
		}
		if _, ok := seen[user.StudentGroup]; ok {
			continue
		}
		seen[user.StudentGroup] = struct{}{}
		groups = append(groups, user.StudentGroup)
	}
	sort.Strings(groups)
	return groups, nil
}

// ResolvePrincipal turns the (actor id, role) pair vouched for by the identity
// provider into a Principal. The pair is trusted as given; the directory only
// contributes the actor's student group.
func (s *UserService) ResolvePrincipal(ctx context.Context, userID string, role access.Role) (principal Principal, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}
	principal = Principal{UserID: userID, Role: role}

	err = s.store.ReadOnly(ctx, func(ctx context.Context, tx Tx) error {
		user, err := tx.Users().GetUser(ctx, userID)
		if errors.Is(err, persistence.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		principal.StudentGroup = user.StudentGroup
		return nil
	})
	if err != nil {
		return Principal{}, mapStoreError(err, "user")
	}
	return principal, nil
}

func normalizeUserInput(input UserInput) UserInput {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.FullName = strings.TrimSpace(input.FullName)
	input.StudentGroup = strings.TrimSpace(input.StudentGroup)
	return input
}

// validateGroupMembership requires students and representatives to belong to a group.
func validateGroupMembership(role access.Role, group string) *ValidationError {
	if (role == access.RoleStudent || role == access.RoleGroupRep) && group == "" {
		return fieldError("student_group", "student_group is required for students and group representatives")
	}
	return nil
}

func mapUserRepoError(err error, userID string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return notFound("user", userID)
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return conflict("a user with this email already exists", "email", "")
	}
	if errors.Is(err, persistence.ErrForeignKeyViolation) {
		return conflict("user is assigned to exams", "user_id", userID)
	}
	return mapStoreError(err, "user")
}
