package persistence

import "time"

// User is a directory entry. Teachers, group representatives and staff are all users.
type User struct {
	ID           string
	Email        string
	FullName     string
	Role         string
	StudentGroup *string
	YearOfStudy  *int
	CreatedAt    time.Time
	UpdatedAt    time.Time
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

// Discipline is a taught subject that exams are scheduled for.
type Discipline struct {
	ID             string
	Name           string
	YearOfStudy    int
	Specialization string
	CreatedAt      time.Time
}

// ExamPeriod is an inclusive date range in which exams may be placed. Dates use
// the ISO "YYYY-MM-DD" form.
type ExamPeriod struct {
	ID        string
	Name      string
	StartDate string
	EndDate   string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Exam is a stored exam row. ExamDate uses the ISO "YYYY-MM-DD" form.
type Exam struct {
	ID              string
	DisciplineID    string
	Kind            string
	StudentGroup    string
	MainTeacherID   string
	SecondTeacherID string
	RoomID          *string
	ExamDate        *string
	StartHour       *int
	DurationMinutes int
	Status          string
	CreatedBy       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
