package scheduler

import (
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

const (
	// FirstStartHour is the earliest hour an exam may start.
	FirstStartHour = 8
	// LastStartHour is the latest hour an exam may start.
	LastStartHour = 20
)

var (
	// ErrWeekend is returned when a slot falls on a Saturday or Sunday.
	ErrWeekend = errors.New("scheduler: date falls on a weekend")
	// ErrHourOutOfWindow is returned when a start hour lies outside the operating window.
	ErrHourOutOfWindow = errors.New("scheduler: start hour outside operating window")
	// ErrInvalidDate is returned for zero or impossible calendar dates.
	ErrInvalidDate = errors.New("scheduler: invalid date")
)

// Slot identifies a single bookable (room, date, hour) triple.
type Slot struct {
	RoomID string
	Date   civil.Date
	Hour   int
}

func (s Slot) String() string {
	return fmt.Sprintf("%s@%s %02d:00", s.RoomID, s.Date, s.Hour)
}

// TimingError reports which part of a date/hour pair failed validation.
type TimingError struct {
	Field string
	Err   error
}

func (e *TimingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *TimingError) Unwrap() error {
	return e.Err
}

// IsWeekday reports whether the date falls Monday through Friday.
func IsWeekday(d civil.Date) bool {
	switch d.In(time.UTC).Weekday() {
	case time.Saturday, time.Sunday:
		return false
	default:
		return true
	}
}

// HourInWindow reports whether hour lies inside [FirstStartHour, LastStartHour].
func HourInWindow(hour int) bool {
	return hour >= FirstStartHour && hour <= LastStartHour
}

// CheckTiming validates the calendar shape of a slot: a real weekday date and an
// hour inside the operating window. Period membership is checked separately.
func CheckTiming(date civil.Date, hour int) error {
	if date.IsZero() || !date.IsValid() {
		return &TimingError{Field: "exam_date", Err: ErrInvalidDate}
	}
	if !IsWeekday(date) {
		return &TimingError{Field: "exam_date", Err: ErrWeekend}
	}
	if !HourInWindow(hour) {
		return &TimingError{Field: "start_hour", Err: ErrHourOutOfWindow}
	}
	return nil
}
