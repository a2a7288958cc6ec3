package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/exam-scheduler/internal/access"
)

// DisciplineService maintains the catalog of taught subjects.
type DisciplineService struct {
	serviceBase
}

// NewDisciplineService constructs a discipline service. A nil store is rejected.
func NewDisciplineService(store Store, idGenerator func() string, now func() time.Time) (*DisciplineService, error) {
	return NewDisciplineServiceWithLogger(store, idGenerator, now, nil)
}

// NewDisciplineServiceWithLogger constructs a discipline service with a specified logger.
func NewDisciplineServiceWithLogger(store Store, idGenerator func() string, now func() time.Time, logger *slog.Logger) (*DisciplineService, error) {
	base, err := newServiceBase(store, idGenerator, now, logger)
	if err != nil {
		return nil, err
	}
	return &DisciplineService{serviceBase: base}, nil
}

// CreateDiscipline adds a discipline to the catalog.
func (s *DisciplineService) CreateDiscipline(ctx context.Context, principal Principal, input DisciplineInput) (discipline Discipline, err error) {
	if s == nil {
		err = fmt.Errorf("DisciplineService is nil")
		return
	}

	logger := serviceLogger(ctx, s.logger, "DisciplineService", "CreateDiscipline", "principal_id", principal.UserID)
	defer func() {
		logOutcome(ctx, logger, err, "failed to create discipline", "discipline created", "discipline_id", discipline.ID)
	}()

	if err = requireCapability(principal, access.ActionManageDisciplines); err != nil {
		return
	}
	input.Name = strings.TrimSpace(input.Name)
	input.Specialization = strings.TrimSpace(input.Specialization)
	if vErr := validateInput(input); vErr != nil {
		err = vErr
		return
	}

	candidate := Discipline{
		ID:             s.idGenerator(),
		Name:           input.Name,
		YearOfStudy:    input.YearOfStudy,
		Specialization: input.Specialization,
		CreatedAt:      s.timestamp(),
	}
	err = s.store.Atomic(ctx, func(ctx context.Context, tx Tx) error {
		return tx.Disciplines().CreateDiscipline(ctx, candidate)
	})
	if err != nil {
		err = mapStoreError(err, "discipline")
		return
	}
	discipline = candidate
	return
}

// GetDiscipline returns one discipline.
func (s *DisciplineService) GetDiscipline(ctx context.Context, principal Principal, id string) (discipline Discipline, err error) {
	if s == nil {
		err = fmt.Errorf("DisciplineService is nil")
		return
	}
	if err = requireCapability(principal, access.ActionViewCatalog); err != nil {
		return
	}
	err = s.store.ReadOnly(ctx, func(ctx context.Context, tx Tx) error {
		found, err := tx.Disciplines().GetDiscipline(ctx, id)
		if err != nil {
			return lookupError(err, "discipline", id)
		}
		discipline = found
		return nil
	})
	err = mapStoreError(err, "discipline")
	return
}

// ListDisciplines returns the catalog ordered by name.
func (s *DisciplineService) ListDisciplines(ctx context.Context, principal Principal) (disciplines []Discipline, err error) {
	if s == nil {
		err = fmt.Errorf("DisciplineService is nil")
		return
	}
	if err = requireCapability(principal, access.ActionViewCatalog); err != nil {
		return
	}
	err = s.store.ReadOnly(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		disciplines, err = tx.Disciplines().ListDisciplines(ctx)
		return err
	})
	if err != nil {
		return nil, mapStoreError(err, "discipline")
	}
	return disciplines, nil
}
