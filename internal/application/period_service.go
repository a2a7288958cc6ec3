package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/example/exam-scheduler/internal/access"
	"github.com/example/exam-scheduler/internal/persistence"
	"github.com/example/exam-scheduler/internal/scheduler"
)

// PeriodService maintains the exam periods that bound where exams may be
// placed. Periods never overlap, and a period holding a dated exam cannot be
// removed.
type PeriodService struct {
	serviceBase
}

// NewPeriodService constructs a period service. A nil store is rejected.
func NewPeriodService(store Store, idGenerator func() string, now func() time.Time) (*PeriodService, error) {
	return NewPeriodServiceWithLogger(store, idGenerator, now, nil)
}

// NewPeriodServiceWithLogger constructs a period service with a specified logger.
func NewPeriodServiceWithLogger(store Store, idGenerator func() string, now func() time.Time, logger *slog.Logger) (*PeriodService, error) {
	base, err := newServiceBase(store, idGenerator, now, logger)
	if err != nil {
		return nil, err
	}
	return &PeriodService{serviceBase: base}, nil
}

func (s *PeriodService) loggerWith(ctx context.Context, operation string, principal Principal, attrs ...any) *slog.Logger {
	attrs = append([]any{"principal_id", principal.UserID, "role", string(principal.Role)}, attrs...)
	return serviceLogger(ctx, s.logger, "PeriodService", operation, attrs...)
}

// CreatePeriod stores a new period unless its range overlaps an existing one.
func (s *PeriodService) CreatePeriod(ctx context.Context, principal Principal, input PeriodInput) (period Period, err error) {
	if s == nil {
		err = fmt.Errorf("PeriodService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreatePeriod", principal,
		"start_date", input.Start,
		"end_date", input.End,
	)
	defer func() {
		logOutcome(ctx, logger, err, "failed to create period", "period created", "period_id", period.ID)
	}()

	if err = requireCapability(principal, access.ActionManagePeriods); err != nil {
		return
	}
	if vErr := validateInput(input); vErr != nil {
		err = vErr
		return
	}
	start, _ := civil.ParseDate(input.Start)
	end, _ := civil.ParseDate(input.End)

	now := s.timestamp()
	candidate := Period{
		ID:        s.idGenerator(),
		Name:      strings.TrimSpace(input.Name),
		Start:     start,
		End:       end,
		Active:    input.Active,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if vErr := validateRange(candidate); vErr != nil {
		err = vErr
		return
	}

	err = s.store.Atomic(ctx, func(ctx context.Context, tx Tx) error {
		if err := ensureNoOverlap(ctx, tx, candidate); err != nil {
			return err
		}
		return tx.Periods().CreatePeriod(ctx, candidate)
	})
	if err != nil {
		err = mapPeriodError(err)
		return
	}
	period = candidate
	return
}

// UpdatePeriod renames, moves or toggles a period. A moved range must still
// not overlap any other period.
func (s *PeriodService) UpdatePeriod(ctx context.Context, principal Principal, periodID string, patch PeriodPatch) (period Period, err error) {
	if s == nil {
		err = fmt.Errorf("PeriodService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UpdatePeriod", principal, "period_id", periodID)
	defer func() {
		logOutcome(ctx, logger, err, "failed to update period", "period updated", "is_active", period.Active)
	}()

	if err = requireCapability(principal, access.ActionManagePeriods); err != nil {
		return
	}
	changes, vErr := s.periodChanges(patch)
	if vErr != nil {
		err = vErr
		return
	}

	err = s.store.Atomic(ctx, func(ctx context.Context, tx Tx) error {
		current, err := tx.Periods().GetPeriod(ctx, periodID)
		if err != nil {
			return lookupError(err, "period", periodID)
		}

		result := current
		if changes.Name != nil {
			result.Name = *changes.Name
		}
		if changes.Start != nil {
			result.Start = *changes.Start
		}
		if changes.End != nil {
			result.End = *changes.End
		}
		if changes.Active != nil {
			result.Active = *changes.Active
		}
		if vErr := validateRange(result); vErr != nil {
			return vErr
		}
		if result.Start != current.Start || result.End != current.End {
			if err := ensureNoOverlap(ctx, tx, result); err != nil {
				return err
			}
		}

		if err := tx.Periods().UpdatePeriod(ctx, periodID, changes); err != nil {
			return err
		}
		period, err = tx.Periods().GetPeriod(ctx, periodID)
		return err
	})
	if err != nil {
		err = mapPeriodError(err)
		period = Period{}
	}
	return
}

func (s *PeriodService) periodChanges(patch PeriodPatch) (PeriodChanges, *ValidationError) {
	if patch.Name == nil && patch.Start == nil && patch.End == nil && patch.Active == nil {
		return PeriodChanges{}, fieldError("patch", "at least one field must be provided")
	}
	if vErr := validateInput(patch); vErr != nil {
		return PeriodChanges{}, vErr
	}

	changes := PeriodChanges{Active: patch.Active, UpdatedAt: s.timestamp()}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		changes.Name = &name
	}
	if patch.Start != nil {
		start, _ := civil.ParseDate(*patch.Start)
		changes.Start = &start
	}
	if patch.End != nil {
		end, _ := civil.ParseDate(*patch.End)
		changes.End = &end
	}
	return changes, nil
}

// DeletePeriod removes a period unless some exam is dated inside its range,
// whether or not the period is active.
func (s *PeriodService) DeletePeriod(ctx context.Context, principal Principal, periodID string) (err error) {
	if s == nil {
		return fmt.Errorf("PeriodService is nil")
	}

	logger := s.loggerWith(ctx, "DeletePeriod", principal, "period_id", periodID)
	defer func() {
		logOutcome(ctx, logger, err, "failed to delete period", "period deleted")
	}()

	if err = requireCapability(principal, access.ActionManagePeriods); err != nil {
		return
	}

	err = s.store.Atomic(ctx, func(ctx context.Context, tx Tx) error {
		period, err := tx.Periods().GetPeriod(ctx, periodID)
		if err != nil {
			return lookupError(err, "period", periodID)
		}
		scheduled, err := tx.Exams().CountExams(ctx, ExamQuery{From: period.Start, To: period.End})
		if err != nil {
			return err
		}
		if scheduled > 0 {
			return &ConflictError{
				Reason: fmt.Sprintf("period has %d exam(s) scheduled inside its range", scheduled),
				Field:  "period_id",
				Value:  periodID,
			}
		}
		return tx.Periods().DeletePeriod(ctx, periodID)
	})
	err = mapPeriodError(err)
	return
}

// ListPeriods returns every period, most recent start first.
func (s *PeriodService) ListPeriods(ctx context.Context, principal Principal) (periods []Period, err error) {
	if s == nil {
		err = fmt.Errorf("PeriodService is nil")
		return
	}
	if err = requireCapability(principal, access.ActionViewCatalog); err != nil {
		return
	}

	err = s.store.ReadOnly(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		periods, err = tx.Periods().ListPeriods(ctx)
		return err
	})
	if err != nil {
		return nil, mapPeriodError(err)
	}
	return periods, nil
}

// IsDateBookable reports whether some active period contains date.
func (s *PeriodService) IsDateBookable(ctx context.Context, date civil.Date) (bookable bool, err error) {
	if s == nil {
		err = fmt.Errorf("PeriodService is nil")
		return
	}
	err = s.store.ReadOnly(ctx, func(ctx context.Context, tx Tx) error {
		periods, err := tx.Periods().ListPeriods(ctx)
		if err != nil {
			return err
		}
		bookable = scheduler.IsDateBookable(periodBounds(periods), date)
		return nil
	})
	err = mapPeriodError(err)
	return
}

// BookableDates lists the weekdays of an active period on which exams may be placed.
func (s *PeriodService) BookableDates(ctx context.Context, principal Principal, periodID string) (dates []civil.Date, err error) {
	if s == nil {
		err = fmt.Errorf("PeriodService is nil")
		return
	}
	if err = requireCapability(principal, access.ActionViewCatalog); err != nil {
		return
	}

	err = s.store.ReadOnly(ctx, func(ctx context.Context, tx Tx) error {
		period, err := tx.Periods().GetPeriod(ctx, periodID)
		if err != nil {
			return lookupError(err, "period", periodID)
		}
		dates = scheduler.BookableDates(period.bounds())
		return nil
	})
	if err != nil {
		return nil, mapPeriodError(err)
	}
	return dates, nil
}

func validateRange(p Period) *ValidationError {
	if err := p.bounds().Validate(); err != nil {
		return fieldError("end_date", "end_date must not be before start_date")
	}
	return nil
}

func ensureNoOverlap(ctx context.Context, tx Tx, candidate Period) error {
	existing, err := tx.Periods().ListPeriods(ctx)
	if err != nil {
		return err
	}
	overlapping := scheduler.Overlapping(periodBounds(existing), candidate.bounds())
	if len(overlapping) == 0 {
		return nil
	}
	for _, p := range existing {
		if p.ID == overlapping[0].ID {
			return &ConflictError{
				Reason: fmt.Sprintf("period overlaps %q (%s to %s)", p.Name, p.Start, p.End),
				Field:  "period_id",
				Value:  p.ID,
			}
		}
	}
	return conflict("period overlaps an existing period", "period_id", overlapping[0].ID)
}

func mapPeriodError(err error) error {
	if errors.Is(err, persistence.ErrConstraintViolation) {
		return fieldError("end_date", "end_date must not be before start_date")
	}
	return mapStoreError(err, "period")
}
