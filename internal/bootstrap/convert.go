package bootstrap

import (
	"fmt"

	"cloud.google.com/go/civil"

	"github.com/example/exam-scheduler/internal/access"
	"github.com/example/exam-scheduler/internal/application"
	"github.com/example/exam-scheduler/internal/persistence"
	"github.com/example/exam-scheduler/internal/workflow"
)

func toApplicationUser(model persistence.User) application.User {
	return application.User{
		ID:           model.ID,
		Email:        model.Email,
		FullName:     model.FullName,
		Role:         access.Role(model.Role),
		StudentGroup: derefString(model.StudentGroup),
		YearOfStudy:  derefInt(model.YearOfStudy),
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}

func toPersistenceUser(user application.User) persistence.User {
	return persistence.User{
		ID:           user.ID,
		Email:        user.Email,
		FullName:     user.FullName,
		Role:         string(user.Role),
		StudentGroup: optionalString(user.StudentGroup),
		YearOfStudy:  optionalInt(user.YearOfStudy),
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}

func toPersistenceUserUpdate(changes application.UserChanges) persistence.UserUpdate {
	update := persistence.UserUpdate{
		FullName:     cloneString(changes.FullName),
		StudentGroup: cloneString(changes.StudentGroup),
		YearOfStudy:  cloneInt(changes.YearOfStudy),
		UpdatedAt:    changes.UpdatedAt,
	}
	if changes.Role != nil {
		role := string(*changes.Role)
		update.Role = &role
	}
	return update
}

func toApplicationRoom(model persistence.Room) application.Room {
	return application.Room{
		ID:        model.ID,
		Name:      model.Name,
		ShortName: model.ShortName,
		Building:  model.Building,
		Capacity:  model.Capacity,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toPersistenceRoom(room application.Room) persistence.Room {
	return persistence.Room{
		ID:        room.ID,
		Name:      room.Name,
		ShortName: room.ShortName,
		Building:  room.Building,
		Capacity:  room.Capacity,
		CreatedAt: room.CreatedAt,
		UpdatedAt: room.UpdatedAt,
	}
}

func toApplicationDiscipline(model persistence.Discipline) application.Discipline {
	return application.Discipline{
		ID:             model.ID,
		Name:           model.Name,
		YearOfStudy:    model.YearOfStudy,
		Specialization: model.Specialization,
		CreatedAt:      model.CreatedAt,
	}
}

func toPersistenceDiscipline(discipline application.Discipline) persistence.Discipline {
	return persistence.Discipline{
		ID:             discipline.ID,
		Name:           discipline.Name,
		YearOfStudy:    discipline.YearOfStudy,
		Specialization: discipline.Specialization,
		CreatedAt:      discipline.CreatedAt,
	}
}

func toApplicationPeriod(model persistence.ExamPeriod) (application.Period, error) {
	start, err := civil.ParseDate(model.StartDate)
	if err != nil {
		return application.Period{}, fmt.Errorf("period %s: stored start date %q: %w", model.ID, model.StartDate, err)
	}
	end, err := civil.ParseDate(model.EndDate)
	if err != nil {
		return application.Period{}, fmt.Errorf("period %s: stored end date %q: %w", model.ID, model.EndDate, err)
	}
	return application.Period{
		ID:        model.ID,
		Name:      model.Name,
		Start:     start,
		End:       end,
		Active:    model.IsActive,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}, nil
}

func toPersistencePeriod(period application.Period) persistence.ExamPeriod {
	return persistence.ExamPeriod{
		ID:        period.ID,
		Name:      period.Name,
		StartDate: period.Start.String(),
		EndDate:   period.End.String(),
		IsActive:  period.Active,
		CreatedAt: period.CreatedAt,
		UpdatedAt: period.UpdatedAt,
	}
}

func toPersistencePeriodUpdate(changes application.PeriodChanges) persistence.PeriodUpdate {
	update := persistence.PeriodUpdate{
		Name:      cloneString(changes.Name),
		UpdatedAt: changes.UpdatedAt,
	}
	if changes.Start != nil {
		update.StartDate = dateString(*changes.Start)
	}
	if changes.End != nil {
		update.EndDate = dateString(*changes.End)
	}
	if changes.Active != nil {
		active := *changes.Active
		update.IsActive = &active
	}
	return update
}

func toApplicationExam(model persistence.Exam) (application.Exam, error) {
	exam := application.Exam{
		ID:              model.ID,
		DisciplineID:    model.DisciplineID,
		Kind:            application.ExamKind(model.Kind),
		StudentGroup:    model.StudentGroup,
		MainTeacherID:   model.MainTeacherID,
		SecondTeacherID: model.SecondTeacherID,
		RoomID:          derefString(model.RoomID),
		StartHour:       derefInt(model.StartHour),
		DurationMinutes: model.DurationMinutes,
		Status:          workflow.Status(model.Status),
		CreatedBy:       model.CreatedBy,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
	if model.ExamDate != nil && *model.ExamDate != "" {
		date, err := civil.ParseDate(*model.ExamDate)
		if err != nil {
			return application.Exam{}, fmt.Errorf("exam %s: stored date %q: %w", model.ID, *model.ExamDate, err)
		}
		exam.Date = date
	}
	return exam, nil
}

func toPersistenceExam(exam application.Exam) persistence.Exam {
	model := persistence.Exam{
		ID:              exam.ID,
		DisciplineID:    exam.DisciplineID,
		Kind:            string(exam.Kind),
		StudentGroup:    exam.StudentGroup,
		MainTeacherID:   exam.MainTeacherID,
		SecondTeacherID: exam.SecondTeacherID,
		RoomID:          optionalString(exam.RoomID),
		StartHour:       optionalInt(exam.StartHour),
		DurationMinutes: exam.DurationMinutes,
		Status:          string(exam.Status),
		CreatedBy:       exam.CreatedBy,
		CreatedAt:       exam.CreatedAt,
		UpdatedAt:       exam.UpdatedAt,
	}
	if !exam.Date.IsZero() {
		model.ExamDate = dateString(exam.Date)
	}
	return model
}

func toPersistenceExamUpdate(changes application.ExamChanges) persistence.ExamUpdate {
	update := persistence.ExamUpdate{
		StudentGroup:    cloneString(changes.StudentGroup),
		RoomID:          cloneString(changes.RoomID),
		StartHour:       cloneInt(changes.StartHour),
		DurationMinutes: cloneInt(changes.DurationMinutes),
		UpdatedAt:       changes.UpdatedAt,
	}
	if changes.Date != nil {
		update.ExamDate = dateString(*changes.Date)
	}
	if changes.Status != nil {
		status := string(*changes.Status)
		update.Status = &status
	}
	return update
}

func toPersistenceExamFilter(query application.ExamQuery) persistence.ExamFilter {
	filter := persistence.ExamFilter{
		StudentGroup: query.StudentGroup,
		TeacherID:    query.TeacherID,
		DisciplineID: query.DisciplineID,
		RoomID:       query.RoomID,
		StartHour:    optionalInt(query.StartHour),
	}
	if !query.Date.IsZero() {
		filter.ExamDate = query.Date.String()
	}
	if !query.From.IsZero() {
		filter.DateFrom = query.From.String()
	}
	if !query.To.IsZero() {
		filter.DateTo = query.To.String()
	}
	if len(query.Statuses) > 0 {
		filter.Statuses = make([]string, 0, len(query.Statuses))
		for _, status := range query.Statuses {
			filter.Statuses = append(filter.Statuses, string(status))
		}
	}
	return filter
}

func dateString(d civil.Date) *string {
	value := d.String()
	return &value
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func derefInt(value *int) int {
	if value == nil {
		return 0
	}
	return *value
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func optionalInt(value int) *int {
	if value == 0 {
		return nil
	}
	return &value
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}

func cloneInt(value *int) *int {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}
