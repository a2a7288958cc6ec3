package application

import (
	"time"

	"cloud.google.com/go/civil"

	"github.com/example/exam-scheduler/internal/access"
	"github.com/example/exam-scheduler/internal/scheduler"
	"github.com/example/exam-scheduler/internal/workflow"
)

// Principal is the verified identity invoking a service method. The caller's
// identity provider is trusted completely.
type Principal struct {
	UserID       string
	Role         access.Role
	StudentGroup string
}

// Actor converts the principal into the access policy's view of it.
func (p Principal) Actor() access.Actor {
	return access.Actor{ID: p.UserID, Role: p.Role, StudentGroup: p.StudentGroup}
}

// ExamKind distinguishes written exams from project defenses.
type ExamKind string

const (
	ExamKindExam    ExamKind = "EXAM"
	ExamKindProject ExamKind = "PROJECT"
)

// DefaultDurationMinutes is applied when an exam is created without a duration.
const DefaultDurationMinutes = 120

// Exam is the scheduling record for one discipline and student group. RoomID,
// Date and StartHour stay empty until a slot is assigned.
type Exam struct {
	ID              string
	DisciplineID    string
	Kind            ExamKind
	StudentGroup    string
	MainTeacherID   string
	SecondTeacherID string
	RoomID          string
	Date            civil.Date
	StartHour       int
	DurationMinutes int
	Status          workflow.Status
	CreatedBy       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HasSlot reports whether room, date and hour are all set.
func (e Exam) HasSlot() bool {
	return e.RoomID != "" && !e.Date.IsZero() && e.StartHour != 0
}

// Slot returns the exam's room/date/hour triple.
func (e Exam) Slot() scheduler.Slot {
	return scheduler.Slot{RoomID: e.RoomID, Date: e.Date, Hour: e.StartHour}
}

func (e Exam) resource() access.Resource {
	return access.Resource{
		StudentGroup:    e.StudentGroup,
		MainTeacherID:   e.MainTeacherID,
		SecondTeacherID: e.SecondTeacherID,
	}
}

// Room is a bookable examination room.
type Room struct {
	ID        string
	Name      string
	ShortName string
	Building  string
	Capacity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Discipline is a taught subject.
type Discipline struct {
	ID             string
	Name           string
	YearOfStudy    int
	Specialization string
	CreatedAt      time.Time
}

// Period is an inclusive date range in which exams may be placed.
type Period struct {
	ID        string
	Name      string
	Start     civil.Date
	End       civil.Date
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p Period) bounds() scheduler.Period {
	return scheduler.Period{ID: p.ID, Start: p.Start, End: p.End, Active: p.Active}
}

// User is a directory entry.
type User struct {
	ID           string
	Email        string
	FullName     string
	Role         access.Role
	StudentGroup string
	YearOfStudy  int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ----------------------------- inputs -----------------------------

// CreateExamInput carries the fields needed to open an exam for a discipline and group.
type CreateExamInput struct {
	DisciplineID    string `field:"discipline_id" validate:"required"`
	StudentGroup    string `field:"student_group" validate:"required,max=32"`
	Kind            string `field:"kind" validate:"required,exam_kind"`
	MainTeacherID   string `field:"main_teacher_id" validate:"required"`
	SecondTeacherID string `field:"second_teacher_id" validate:"required,nefield=MainTeacherID"`
	RoomID          string `field:"room_id"`
	DurationMinutes int    `field:"duration_minutes" validate:"omitempty,min=30,max=480"`
}

// ProposeInput carries the slot a group representative proposes.
type ProposeInput struct {
	Date      string `field:"exam_date" validate:"required,iso_date"`
	StartHour int    `field:"start_hour" validate:"required"`
	RoomID    string `field:"room_id" validate:"required"`
}

// ReviewInput carries a teacher's decision on a proposal. AltDate and AltHour
// are required for ALTERNATE only.
type ReviewInput struct {
	Action  string `field:"action" validate:"required"`
	AltDate string `field:"alt_date"`
	AltHour int    `field:"alt_hour"`
}

// AvailableRoomsInput selects the slot whose free rooms are listed.
type AvailableRoomsInput struct {
	Date      string `field:"exam_date" validate:"required,iso_date,weekday"`
	StartHour int    `field:"start_hour" validate:"min=8,max=20"`
}

// ExamPatch is a typed partial update; nil fields are left unchanged.
type ExamPatch struct {
	StudentGroup    *string `field:"student_group" validate:"omitempty,min=1,max=32"`
	RoomID          *string `field:"room_id" validate:"omitempty,min=1"`
	Date            *string `field:"exam_date" validate:"omitempty,iso_date"`
	StartHour       *int    `field:"start_hour"`
	DurationMinutes *int    `field:"duration_minutes" validate:"omitempty,min=30,max=480"`
	Status          *string `field:"status"`
}

// IsEmpty reports whether the patch changes nothing.
func (p ExamPatch) IsEmpty() bool {
	return p.StudentGroup == nil && p.RoomID == nil && p.Date == nil && p.StartHour == nil &&
		p.DurationMinutes == nil && p.Status == nil
}

// ExamListFilter narrows exam listings. Empty fields match everything.
type ExamListFilter struct {
	StudentGroup string
	TeacherID    string
	DisciplineID string
	Status       workflow.Status
}

// PeriodInput carries the fields of a new exam period.
type PeriodInput struct {
	Name   string `field:"name" validate:"required,max=100"`
	Start  string `field:"start_date" validate:"required,iso_date"`
	End    string `field:"end_date" validate:"required,iso_date"`
	Active bool   `field:"is_active"`
}

// PeriodPatch is a typed partial update; nil fields are left unchanged.
type PeriodPatch struct {
	Name   *string `field:"name" validate:"omitempty,min=1,max=100"`
	Start  *string `field:"start_date" validate:"omitempty,iso_date"`
	End    *string `field:"end_date" validate:"omitempty,iso_date"`
	Active *bool   `field:"is_active"`
}

// RoomInput carries caller provided room fields.
type RoomInput struct {
	Name      string `field:"name" validate:"required,max=100"`
	ShortName string `field:"short_name" validate:"max=20"`
	Building  string `field:"building" validate:"max=100"`
	Capacity  int    `field:"capacity" validate:"gt=0"`
}

// DisciplineInput carries caller provided discipline fields.
type DisciplineInput struct {
	Name           string `field:"name" validate:"required,max=200"`
	YearOfStudy    int    `field:"year_of_study" validate:"min=1,max=6"`
	Specialization string `field:"specialization" validate:"max=100"`
}

// UserInput carries the fields of a new directory entry.
type UserInput struct {
	Email        string `field:"email" validate:"required,email"`
	FullName     string `field:"full_name" validate:"required,max=200"`
	Role         string `field:"role" validate:"required,role"`
	StudentGroup string `field:"student_group" validate:"max=32"`
	YearOfStudy  int    `field:"year_of_study" validate:"omitempty,min=1,max=6"`
}

// UserPatch is a typed partial update; nil fields are left unchanged.
type UserPatch struct {
	FullName     *string `field:"full_name" validate:"omitempty,min=1,max=200"`
	Role         *string `field:"role" validate:"omitempty,role"`
	StudentGroup *string `field:"student_group" validate:"omitempty,max=32"`
	YearOfStudy  *int    `field:"year_of_study" validate:"omitempty,min=1,max=6"`
}
