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
	"github.com/example/exam-scheduler/internal/workflow"
)

// ExamService creates exams and drives them through the scheduling workflow.
// Every mutation is one unit of work: the exam is read, the policy and status
// machine are consulted, the slot is checked and the result is written, all
// under the same transaction.
type ExamService struct {
	serviceBase
}

// NewExamService constructs an exam service. A nil store is rejected.
func NewExamService(store Store, idGenerator func() string, now func() time.Time) (*ExamService, error) {
	return NewExamServiceWithLogger(store, idGenerator, now, nil)
}

// NewExamServiceWithLogger constructs an exam service with a specified logger.
func NewExamServiceWithLogger(store Store, idGenerator func() string, now func() time.Time, logger *slog.Logger) (*ExamService, error) {
	base, err := newServiceBase(store, idGenerator, now, logger)
	if err != nil {
		return nil, err
	}
	return &ExamService{serviceBase: base}, nil
}

func (s *ExamService) loggerWith(ctx context.Context, operation string, principal Principal, attrs ...any) *slog.Logger {
	attrs = append([]any{"principal_id", principal.UserID, "role", string(principal.Role)}, attrs...)
	return serviceLogger(ctx, s.logger, "ExamService", operation, attrs...)
}

// CreateExam opens a DRAFT exam for a discipline and student group. At most one
// exam may exist per pairing.
func (s *ExamService) CreateExam(ctx context.Context, principal Principal, input CreateExamInput) (exam Exam, err error) {
	if s == nil {
		err = fmt.Errorf("ExamService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateExam", principal,
		"discipline_id", input.DisciplineID,
		"student_group", input.StudentGroup,
	)
	defer func() {
		logOutcome(ctx, logger, err, "failed to create exam", "exam created", "exam_id", exam.ID)
	}()

	exam, err = s.create(ctx, principal, access.ActionCreateExam, input, false)
	return
}

// AssignDiscipline opens a DRAFT exam without a room for a group that already
// has a representative to propose its slot.
func (s *ExamService) AssignDiscipline(ctx context.Context, principal Principal, input CreateExamInput) (exam Exam, err error) {
	if s == nil {
		err = fmt.Errorf("ExamService is nil")
		return
	}

	logger := s.loggerWith(ctx, "AssignDiscipline", principal,
		"discipline_id", input.DisciplineID,
		"student_group", input.StudentGroup,
	)
	defer func() {
		logOutcome(ctx, logger, err, "failed to assign discipline", "discipline assigned", "exam_id", exam.ID)
	}()

	input.RoomID = ""
	exam, err = s.create(ctx, principal, access.ActionAssignDiscipline, input, true)
	return
}

func (s *ExamService) create(ctx context.Context, principal Principal, action access.Action, input CreateExamInput, requireRep bool) (Exam, error) {
	if err := requireCapability(principal, action); err != nil {
		return Exam{}, err
	}
	input.StudentGroup = strings.TrimSpace(input.StudentGroup)
	if vErr := validateInput(input); vErr != nil {
		return Exam{}, vErr
	}
	kind, _ := parseExamKind(input.Kind)

	duration := input.DurationMinutes
	if duration == 0 {
		duration = DefaultDurationMinutes
	}
	now := s.timestamp()
	exam := Exam{
		ID:              s.idGenerator(),
		DisciplineID:    input.DisciplineID,
		Kind:            kind,
		StudentGroup:    input.StudentGroup,
		MainTeacherID:   input.MainTeacherID,
		SecondTeacherID: input.SecondTeacherID,
		RoomID:          strings.TrimSpace(input.RoomID),
		DurationMinutes: duration,
		Status:          workflow.StatusDraft,
		CreatedBy:       principal.UserID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err := s.store.Atomic(ctx, func(ctx context.Context, tx Tx) error {
		if _, err := tx.Disciplines().GetDiscipline(ctx, exam.DisciplineID); err != nil {
			return lookupError(err, "discipline", exam.DisciplineID)
		}
		for _, ref := range []struct{ field, id string }{
			{"main_teacher_id", exam.MainTeacherID},
			{"second_teacher_id", exam.SecondTeacherID},
		} {
			teacher, err := tx.Users().GetUser(ctx, ref.id)
			if err != nil {
				return lookupError(err, "teacher", ref.id)
			}
			if teacher.Role != access.RoleTeacher {
				return fieldError(ref.field, ref.field+" must reference a teacher")
			}
		}
		if exam.RoomID != "" {
			if _, err := tx.Rooms().GetRoom(ctx, exam.RoomID); err != nil {
				return lookupError(err, "room", exam.RoomID)
			}
		}
		if requireRep {
			reps, err := tx.Users().ListUsers(ctx, UserQuery{Role: access.RoleGroupRep, StudentGroup: exam.StudentGroup})
			if err != nil {
				return err
			}
			if len(reps) == 0 {
				return notFound("group representative", exam.StudentGroup)
			}
		}

		existing, err := tx.Exams().CountExams(ctx, ExamQuery{DisciplineID: exam.DisciplineID, StudentGroup: exam.StudentGroup})
		if err != nil {
			return err
		}
		if existing > 0 {
			return pairingConflict(exam)
		}

		if err := tx.Exams().CreateExam(ctx, exam); err != nil {
			if errors.Is(err, persistence.ErrDuplicate) {
				return pairingConflict(exam)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return Exam{}, mapStoreError(err, "exam")
	}
	return exam, nil
}

// Propose lets the group representative place a DRAFT, REJECTED or CANCELLED
// exam into a room/date/hour slot.
func (s *ExamService) Propose(ctx context.Context, principal Principal, examID string, input ProposeInput) (exam Exam, err error) {
	if s == nil {
		err = fmt.Errorf("ExamService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Propose", principal,
		"exam_id", examID,
		"room_id", input.RoomID,
		"exam_date", input.Date,
		"start_hour", input.StartHour,
	)
	defer func() {
		logOutcome(ctx, logger, err, "failed to propose exam slot", "exam proposed", "status", string(exam.Status))
	}()

	exam, err = s.transition(ctx, principal, examID, transitionRequest{
		policy: access.ActionProposeExam,
		action: workflow.ActionPropose,
		slot: func() (*slotRequest, error) {
			if vErr := validateInput(input); vErr != nil {
				return nil, vErr
			}
			date, vErr := parseDateField("exam_date", input.Date)
			if vErr != nil {
				return nil, vErr
			}
			return &slotRequest{
				roomID:    strings.TrimSpace(input.RoomID),
				date:      date,
				hour:      input.StartHour,
				dateField: "exam_date",
				hourField: "start_hour",
			}, nil
		},
	})
	return
}

// Review records an assigned teacher's decision on a PROPOSED exam. ALTERNATE
// overwrites date and hour with the counter-proposal and marks the exam
// REJECTED; the representative re-proposes from there.
func (s *ExamService) Review(ctx context.Context, principal Principal, examID string, input ReviewInput) (exam Exam, err error) {
	if s == nil {
		err = fmt.Errorf("ExamService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Review", principal,
		"exam_id", examID,
		"action", input.Action,
	)
	defer func() {
		logOutcome(ctx, logger, err, "failed to review exam", "exam reviewed", "status", string(exam.Status))
	}()

	if vErr := validateInput(input); vErr != nil {
		err = vErr
		return
	}
	action, parseErr := workflow.ParseAction(input.Action)
	if parseErr != nil || action == workflow.ActionPropose || action == workflow.ActionConfirm {
		err = fieldError("action", "action must be one of ACCEPT, REJECT, CANCEL, ALTERNATE")
		return
	}

	req := transitionRequest{policy: access.ActionReviewExam, action: action}
	if workflow.AssignsSlot(action) {
		req.slot = func() (*slotRequest, error) {
			vErr := &ValidationError{}
			if strings.TrimSpace(input.AltDate) == "" {
				vErr.add("alt_date", "alt_date is required for ALTERNATE")
			}
			if input.AltHour == 0 {
				vErr.add("alt_hour", "alt_hour is required for ALTERNATE")
			}
			if vErr.HasErrors() {
				return nil, vErr
			}
			altDate, dErr := parseDateField("alt_date", input.AltDate)
			if dErr != nil {
				return nil, dErr
			}
			return &slotRequest{date: altDate, hour: input.AltHour, dateField: "alt_date", hourField: "alt_hour"}, nil
		}
	}

	exam, err = s.transition(ctx, principal, examID, req)
	return
}

// Confirm finalizes an ACCEPTED exam.
func (s *ExamService) Confirm(ctx context.Context, principal Principal, examID string) (exam Exam, err error) {
	if s == nil {
		err = fmt.Errorf("ExamService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Confirm", principal, "exam_id", examID)
	defer func() {
		logOutcome(ctx, logger, err, "failed to confirm exam", "exam confirmed", "status", string(exam.Status))
	}()

	exam, err = s.transition(ctx, principal, examID, transitionRequest{
		policy: access.ActionConfirmExam,
		action: workflow.ActionConfirm,
	})
	return
}

// slotRequest is the slot a transition assigns. An empty roomID keeps the
// exam's current room.
type slotRequest struct {
	roomID    string
	date      civil.Date
	hour      int
	dateField string
	hourField string
}

// transitionRequest describes one workflow action. slot is set exactly for the
// actions that assign a slot; it decodes the caller's fields and runs only once
// the policy and status checks have passed.
type transitionRequest struct {
	policy access.Action
	action workflow.Action
	slot   func() (*slotRequest, error)
}

// transition runs one workflow action as a single unit of work. Checks run in
// order: existence, policy, status machine, slot fields, slot timing, room,
// period, and slot availability. Nothing is written unless all of them pass.
func (s *ExamService) transition(ctx context.Context, principal Principal, examID string, req transitionRequest) (Exam, error) {
	var updated Exam
	err := s.store.Atomic(ctx, func(ctx context.Context, tx Tx) error {
		exam, err := tx.Exams().GetExam(ctx, examID)
		if err != nil {
			return lookupError(err, "exam", examID)
		}
		if err := authorize(principal, req.policy, exam.resource()); err != nil {
			return err
		}
		next, err := workflow.Next(exam.Status, req.action)
		if err != nil {
			return &StateError{ExamID: exam.ID, Status: string(exam.Status), Action: string(req.action)}
		}

		assigns := workflow.AssignsSlot(req.action)
		if assigns != (req.slot != nil) {
			return fmt.Errorf("exam: action %s assigns slot = %t but slot input given = %t", req.action, assigns, req.slot != nil)
		}

		changes := ExamChanges{Status: &next, UpdatedAt: s.timestamp()}
		var target scheduler.Slot
		if assigns {
			slot, err := req.slot()
			if err != nil {
				return err
			}
			target = scheduler.Slot{RoomID: slot.roomID, Date: slot.date, Hour: slot.hour}
			if target.RoomID == "" {
				target.RoomID = exam.RoomID
			}
			if target.RoomID == "" {
				return fieldError("room_id", "exam has no room to reschedule in")
			}
			if err := checkSlot(ctx, tx, exam.ID, target, slot.dateField, slot.hourField); err != nil {
				return err
			}
			changes.RoomID = &target.RoomID
			changes.Date = &target.Date
			changes.StartHour = &target.Hour
		}

		if err := tx.Exams().UpdateExam(ctx, exam.ID, changes); err != nil {
			if errors.Is(err, persistence.ErrDuplicate) && assigns {
				return conflict("room is already booked for this slot", "slot", target.String())
			}
			return err
		}
		updated, err = tx.Exams().GetExam(ctx, exam.ID)
		return err
	})
	if err != nil {
		return Exam{}, mapStoreError(err, "exam")
	}
	return updated, nil
}

// checkSlot validates a slot about to be assigned to examID: weekday date,
// hour in the operating window, existing room, a covering active period, and
// no other active booking on the same room/date/hour.
func checkSlot(ctx context.Context, tx Tx, examID string, slot scheduler.Slot, dateField, hourField string) error {
	if err := scheduler.CheckTiming(slot.Date, slot.Hour); err != nil {
		return timingError(err, dateField, hourField)
	}
	if _, err := tx.Rooms().GetRoom(ctx, slot.RoomID); err != nil {
		return lookupError(err, "room", slot.RoomID)
	}

	periods, err := tx.Periods().ListPeriods(ctx)
	if err != nil {
		return err
	}
	if !scheduler.IsDateBookable(periodBounds(periods), slot.Date) {
		return fieldError(dateField, fmt.Sprintf("%s %s is not inside an active exam period", dateField, slot.Date))
	}

	held, err := tx.Exams().ListExams(ctx, ExamQuery{
		RoomID:    slot.RoomID,
		Date:      slot.Date,
		StartHour: slot.Hour,
		Statuses:  workflow.ActiveStatuses(),
	})
	if err != nil {
		return err
	}
	if holder, taken := scheduler.Holder(bookingsOf(held), slot, examID); taken {
		return &ConflictError{Reason: "room is already booked by exam " + holder, Field: "slot", Value: slot.String()}
	}
	return nil
}

// checkPlacement validates the parts of a slot set on an exam that holds no
// booking: the room must exist and a date must be a bookable weekday.
func checkPlacement(ctx context.Context, tx Tx, current, result Exam) error {
	if result.RoomID != "" && result.RoomID != current.RoomID {
		if _, err := tx.Rooms().GetRoom(ctx, result.RoomID); err != nil {
			return lookupError(err, "room", result.RoomID)
		}
	}
	if result.Date.IsZero() || result.Date == current.Date {
		return nil
	}
	if !scheduler.IsWeekday(result.Date) {
		return fieldError("exam_date", "exam_date must fall on a weekday")
	}
	periods, err := tx.Periods().ListPeriods(ctx)
	if err != nil {
		return err
	}
	if !scheduler.IsDateBookable(periodBounds(periods), result.Date) {
		return fieldError("exam_date", fmt.Sprintf("exam_date %s is not inside an active exam period", result.Date))
	}
	return nil
}

// UpdateExam applies a secretariat correction as one write. A status change
// must follow a workflow edge, and whenever the result holds a slot the slot
// rules are re-checked.
func (s *ExamService) UpdateExam(ctx context.Context, principal Principal, examID string, patch ExamPatch) (exam Exam, err error) {
	if s == nil {
		err = fmt.Errorf("ExamService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UpdateExam", principal, "exam_id", examID)
	defer func() {
		logOutcome(ctx, logger, err, "failed to update exam", "exam updated", "status", string(exam.Status))
	}()

	if err = requireCapability(principal, access.ActionUpdateExam); err != nil {
		return
	}
	changes, vErr := s.examChanges(patch)
	if vErr != nil {
		err = vErr
		return
	}

	err = s.store.Atomic(ctx, func(ctx context.Context, tx Tx) error {
		current, err := tx.Exams().GetExam(ctx, examID)
		if err != nil {
			return lookupError(err, "exam", examID)
		}
		if err := authorize(principal, access.ActionUpdateExam, current.resource()); err != nil {
			return err
		}

		result := applyExamChanges(current, changes)
		if result.Status != current.Status && !workflow.Reachable(current.Status, result.Status) {
			return &StateError{ExamID: current.ID, Status: string(current.Status), Action: "set status " + string(result.Status)}
		}
		if result.StudentGroup != current.StudentGroup {
			taken, err := tx.Exams().CountExams(ctx, ExamQuery{DisciplineID: result.DisciplineID, StudentGroup: result.StudentGroup})
			if err != nil {
				return err
			}
			if taken > 0 {
				return pairingConflict(result)
			}
		}
		slotTouched := result.Slot() != current.Slot()
		switch {
		case workflow.HoldsSlot(result.Status):
			if !result.HasSlot() {
				return fieldError("status", "an active booking needs room_id, exam_date and start_hour")
			}
			if slotTouched || !workflow.HoldsSlot(current.Status) {
				if err := checkSlot(ctx, tx, current.ID, result.Slot(), "exam_date", "start_hour"); err != nil {
					return err
				}
			}
		case slotTouched:
			if err := checkPlacement(ctx, tx, current, result); err != nil {
				return err
			}
		}

		if err := tx.Exams().UpdateExam(ctx, current.ID, changes); err != nil {
			if errors.Is(err, persistence.ErrDuplicate) {
				return conflict("update conflicts with an existing booking or pairing", "exam_id", current.ID)
			}
			return err
		}
		exam, err = tx.Exams().GetExam(ctx, current.ID)
		return err
	})
	if err != nil {
		err = mapStoreError(err, "exam")
		exam = Exam{}
	}
	return
}

// examChanges validates a patch and converts it into typed changes.
func (s *ExamService) examChanges(patch ExamPatch) (ExamChanges, *ValidationError) {
	if patch.IsEmpty() {
		return ExamChanges{}, fieldError("patch", "at least one field must be provided")
	}
	vErr := &ValidationError{}
	vErr.merge(validateInput(patch))

	changes := ExamChanges{UpdatedAt: s.timestamp()}
	if patch.StudentGroup != nil {
		group := strings.TrimSpace(*patch.StudentGroup)
		changes.StudentGroup = &group
	}
	if patch.RoomID != nil {
		if room := strings.TrimSpace(*patch.RoomID); room != "" {
			changes.RoomID = &room
		} else {
			vErr.add("room_id", "room_id must not be empty")
		}
	}
	if patch.Date != nil {
		if d, dErr := parseDateField("exam_date", *patch.Date); dErr != nil {
			vErr.merge(dErr)
		} else {
			changes.Date = &d
		}
	}
	if patch.StartHour != nil {
		if !scheduler.HourInWindow(*patch.StartHour) {
			vErr.add("start_hour", fmt.Sprintf("start_hour must be between %d and %d", scheduler.FirstStartHour, scheduler.LastStartHour))
		} else {
			hour := *patch.StartHour
			changes.StartHour = &hour
		}
	}
	if patch.DurationMinutes != nil {
		duration := *patch.DurationMinutes
		changes.DurationMinutes = &duration
	}
	if patch.Status != nil {
		status, sErr := workflow.ParseStatus(*patch.Status)
		if sErr != nil {
			vErr.add("status", "status is not a known exam status")
		} else {
			changes.Status = &status
		}
	}

	if vErr.HasErrors() {
		return ExamChanges{}, vErr
	}
	return changes, nil
}

func applyExamChanges(exam Exam, changes ExamChanges) Exam {
	if changes.StudentGroup != nil {
		exam.StudentGroup = *changes.StudentGroup
	}
	if changes.RoomID != nil {
		exam.RoomID = *changes.RoomID
	}
	if changes.Date != nil {
		exam.Date = *changes.Date
	}
	if changes.StartHour != nil {
		exam.StartHour = *changes.StartHour
	}
	if changes.DurationMinutes != nil {
		exam.DurationMinutes = *changes.DurationMinutes
	}
	if changes.Status != nil {
		exam.Status = *changes.Status
	}
	return exam
}

// DeleteExam removes an exam. Only administrators may delete.
func (s *ExamService) DeleteExam(ctx context.Context, principal Principal, examID string) (err error) {
	if s == nil {
		return fmt.Errorf("ExamService is nil")
	}

	logger := s.loggerWith(ctx, "DeleteExam", principal, "exam_id", examID)
	defer func() {
		logOutcome(ctx, logger, err, "failed to delete exam", "exam deleted")
	}()

	if err = requireCapability(principal, access.ActionDeleteExam); err != nil {
		return
	}
	err = s.store.Atomic(ctx, func(ctx context.Context, tx Tx) error {
		if err := tx.Exams().DeleteExam(ctx, examID); err != nil {
			return lookupError(err, "exam", examID)
		}
		return nil
	})
	err = mapStoreError(err, "exam")
	return
}

// GetExam returns one exam to anyone allowed to see it: staff with the full
// view, members of its group, and its assigned teachers.
func (s *ExamService) GetExam(ctx context.Context, principal Principal, examID string) (exam Exam, err error) {
	if s == nil {
		err = fmt.Errorf("ExamService is nil")
		return
	}

	err = s.store.ReadOnly(ctx, func(ctx context.Context, tx Tx) error {
		found, err := tx.Exams().GetExam(ctx, examID)
		if err != nil {
			return lookupError(err, "exam", examID)
		}
		if err := authorizeView(principal, found); err != nil {
			return err
		}
		exam = found
		return nil
	})
	if err != nil {
		s.loggerWith(ctx, "GetExam", principal, "exam_id", examID).
			WarnContext(ctx, "failed to get exam", "error", err, "error_kind", ErrorKind(err))
		return Exam{}, mapStoreError(err, "exam")
	}
	return exam, nil
}

func authorizeView(principal Principal, exam Exam) error {
	actor := principal.Actor()
	if access.Authorize(actor, access.ActionViewAllExams, access.Resource{}).Allowed {
		return nil
	}
	if access.Authorize(actor, access.ActionViewGroupExams, exam.resource()).Allowed {
		return nil
	}
	for _, teacherID := range []string{exam.MainTeacherID, exam.SecondTeacherID} {
		if access.Authorize(actor, access.ActionViewTeacherExams, access.Resource{OwnerID: teacherID}).Allowed {
			return nil
		}
	}
	return &ForbiddenError{Role: string(principal.Role), Action: string(access.ActionViewAllExams), Reason: "exam is not visible to this actor"}
}

// ListExams returns exams matching filter for staff with the full view.
func (s *ExamService) ListExams(ctx context.Context, principal Principal, filter ExamListFilter) (exams []Exam, err error) {
	if s == nil {
		err = fmt.Errorf("ExamService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ListExams", principal)
	defer func() {
		logOutcome(ctx, logger, err, "failed to list exams", "exams listed", "result_count", len(exams))
	}()

	if err = authorize(principal, access.ActionViewAllExams, access.Resource{}); err != nil {
		return
	}
	query := ExamQuery{StudentGroup: filter.StudentGroup, TeacherID: filter.TeacherID, DisciplineID: filter.DisciplineID}
	if filter.Status != "" {
		query.Statuses = []workflow.Status{filter.Status}
	}
	exams, err = s.list(ctx, query)
	return
}

// ListConfirmedExams returns every CONFIRMED exam, the final timetable.
func (s *ExamService) ListConfirmedExams(ctx context.Context, principal Principal) ([]Exam, error) {
	return s.ListExams(ctx, principal, ExamListFilter{Status: workflow.StatusConfirmed})
}

// ListExamsForGroup returns the exams of one student group.
func (s *ExamService) ListExamsForGroup(ctx context.Context, principal Principal, group string) (exams []Exam, err error) {
	if s == nil {
		err = fmt.Errorf("ExamService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ListExamsForGroup", principal, "student_group", group)
	defer func() {
		logOutcome(ctx, logger, err, "failed to list group exams", "group exams listed", "result_count", len(exams))
	}()

	group = strings.TrimSpace(group)
	if group == "" {
		err = fieldError("student_group", "student_group is required")
		return
	}
	if err = authorize(principal, access.ActionViewGroupExams, access.Resource{StudentGroup: group}); err != nil {
		return
	}
	exams, err = s.list(ctx, ExamQuery{StudentGroup: group})
	return
}

// ListExamsForTeacher returns the exams a teacher is assigned to, as main or second teacher.
func (s *ExamService) ListExamsForTeacher(ctx context.Context, principal Principal, teacherID string) (exams []Exam, err error) {
	if s == nil {
		err = fmt.Errorf("ExamService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ListExamsForTeacher", principal, "teacher_id", teacherID)
	defer func() {
		logOutcome(ctx, logger, err, "failed to list teacher exams", "teacher exams listed", "result_count", len(exams))
	}()

	if strings.TrimSpace(teacherID) == "" {
		err = fieldError("teacher_id", "teacher_id is required")
		return
	}
	if err = authorize(principal, access.ActionViewTeacherExams, access.Resource{OwnerID: teacherID}); err != nil {
		return
	}
	exams, err = s.list(ctx, ExamQuery{TeacherID: teacherID})
	return
}

// AuditBookings scans every active booking and reports slots held by more
// than one exam. A healthy store always returns an empty result.
func (s *ExamService) AuditBookings(ctx context.Context, principal Principal) (conflicts []scheduler.Conflict, err error) {
	if s == nil {
		err = fmt.Errorf("ExamService is nil")
		return
	}

	logger := s.loggerWith(ctx, "AuditBookings", principal)
	defer func() {
		logOutcome(ctx, logger, err, "failed to audit bookings", "bookings audited", "conflict_count", len(conflicts))
	}()

	if err = authorize(principal, access.ActionViewAllExams, access.Resource{}); err != nil {
		return
	}
	var active []Exam
	active, err = s.list(ctx, ExamQuery{Statuses: workflow.ActiveStatuses()})
	if err != nil {
		return
	}
	conflicts = scheduler.DetectDoubleBookings(bookingsOf(active))
	return
}

func (s *ExamService) list(ctx context.Context, query ExamQuery) ([]Exam, error) {
	var exams []Exam
	err := s.store.ReadOnly(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		exams, err = tx.Exams().ListExams(ctx, query)
		return err
	})
	if err != nil {
		return nil, mapStoreError(err, "exam")
	}
	return exams, nil
}

func bookingsOf(exams []Exam) []scheduler.Booking {
	bookings := make([]scheduler.Booking, 0, len(exams))
	for _, exam := range exams {
		if !exam.HasSlot() {
			continue
		}
		bookings = append(bookings, scheduler.Booking{
			ExamID: exam.ID,
			Slot:   exam.Slot(),
			Active: workflow.HoldsSlot(exam.Status),
		})
	}
	return bookings
}

func periodBounds(periods []Period) []scheduler.Period {
	out := make([]scheduler.Period, 0, len(periods))
	for _, p := range periods {
		out = append(out, p.bounds())
	}
	return out
}

func pairingConflict(exam Exam) error {
	return &ConflictError{
		Reason: "an exam already exists for this discipline and student group",
		Field:  "discipline_id",
		Value:  exam.DisciplineID + "/" + exam.StudentGroup,
	}
}

// lookupError converts a missing record into a *NotFoundError naming it.
func lookupError(err error, resource, id string) error {
	if errors.Is(err, persistence.ErrNotFound) || errors.Is(err, ErrNotFound) {
		return notFound(resource, id)
	}
	return err
}
