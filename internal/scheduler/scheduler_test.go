package scheduler

import (
	"errors"
	"testing"

	"cloud.google.com/go/civil"
)

func date(t *testing.T, value string) civil.Date {
	t.Helper()
	d, err := civil.ParseDate(value)
	if err != nil {
		t.Fatalf("invalid test date %q: %v", value, err)
	}
	return d
}

func TestCheckTiming(t *testing.T) {
	t.Parallel()

	friday := civil.Date{Year: 2025, Month: 6, Day: 20}

	cases := []struct {
		name    string
		date    civil.Date
		hour    int
		field   string
		wantErr error
	}{
		{name: "weekday inside window", date: friday, hour: 10},
		{name: "first hour", date: friday, hour: FirstStartHour},
		{name: "last hour", date: friday, hour: LastStartHour},
		{name: "saturday", date: civil.Date{Year: 2025, Month: 6, Day: 21}, hour: 10, field: "exam_date", wantErr: ErrWeekend},
		{name: "sunday", date: civil.Date{Year: 2025, Month: 6, Day: 22}, hour: 10, field: "exam_date", wantErr: ErrWeekend},
		{name: "before window", date: friday, hour: 7, field: "start_hour", wantErr: ErrHourOutOfWindow},
		{name: "after window", date: friday, hour: 21, field: "start_hour", wantErr: ErrHourOutOfWindow},
		{name: "zero date", date: civil.Date{}, hour: 10, field: "exam_date", wantErr: ErrInvalidDate},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := CheckTiming(tc.date, tc.hour)
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			var tErr *TimingError
			if !errors.As(err, &tErr) {
				t.Fatalf("expected TimingError, got %T", err)
			}
			if tErr.Field != tc.field {
				t.Fatalf("expected field %q, got %q", tc.field, tErr.Field)
			}
		})
	}
}

func TestRoomBook(t *testing.T) {
	t.Parallel()

	d := date(t, "2025-06-20")
	slot := Slot{RoomID: "room-r", Date: d, Hour: 10}
	bookings := []Booking{
		{ExamID: "exam-1", Slot: slot, Active: true},
		{ExamID: "exam-2", Slot: Slot{RoomID: "room-s", Date: d, Hour: 10}, Active: false},
		{ExamID: "exam-3", Slot: Slot{RoomID: "room-t", Date: d, Hour: 12}, Active: true},
	}

	t.Run("active booking holds the slot", func(t *testing.T) {
		if IsFree(bookings, slot, "") {
			t.Fatalf("expected slot to be held by exam-1")
		}
		holder, ok := Holder(bookings, slot, "")
		if !ok || holder != "exam-1" {
			t.Fatalf("expected holder exam-1, got %q (%v)", holder, ok)
		}
	})

	t.Run("holder itself sees the slot as free", func(t *testing.T) {
		if !IsFree(bookings, slot, "exam-1") {
			t.Fatalf("expected slot to be free when excluding its holder")
		}
	})

	t.Run("inactive booking does not hold the slot", func(t *testing.T) {
		if !IsFree(bookings, Slot{RoomID: "room-s", Date: d, Hour: 10}, "") {
			t.Fatalf("expected inactive booking to release the slot")
		}
	})

	t.Run("free rooms exclude held rooms at that hour only", func(t *testing.T) {
		got := FreeRooms([]string{"room-r", "room-s", "room-t"}, bookings, Slot{Date: d, Hour: 10})
		want := []string{"room-s", "room-t"}
		if len(got) != len(want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("expected %v, got %v", want, got)
			}
		}
	})
}

func TestDetectDoubleBookings(t *testing.T) {
	t.Parallel()

	d := date(t, "2025-06-20")
	slot := Slot{RoomID: "room-r", Date: d, Hour: 10}

	t.Run("two active exams on one slot", func(t *testing.T) {
		conflicts := DetectDoubleBookings([]Booking{
			{ExamID: "b", Slot: slot, Active: true},
			{ExamID: "a", Slot: slot, Active: true},
		})
		if len(conflicts) != 1 {
			t.Fatalf("expected one conflict, got %d", len(conflicts))
		}
		if conflicts[0].ExamIDs[0] != "a" || conflicts[0].ExamIDs[1] != "b" {
			t.Fatalf("unexpected exam ids %v", conflicts[0].ExamIDs)
		}
	})

	t.Run("inactive duplicates are ignored", func(t *testing.T) {
		conflicts := DetectDoubleBookings([]Booking{
			{ExamID: "a", Slot: slot, Active: true},
			{ExamID: "b", Slot: slot, Active: false},
		})
		if len(conflicts) != 0 {
			t.Fatalf("expected no conflicts, got %v", conflicts)
		}
	})
}

func TestPeriod(t *testing.T) {
	t.Parallel()

	june := Period{ID: "p1", Start: date(t, "2025-06-01"), End: date(t, "2025-06-30"), Active: true}

	t.Run("bounds are inclusive", func(t *testing.T) {
		if !june.Contains(june.Start) || !june.Contains(june.End) {
			t.Fatalf("expected bounds to be contained")
		}
		if june.Contains(date(t, "2025-07-01")) {
			t.Fatalf("expected date after end to be excluded")
		}
	})

	t.Run("touching periods overlap", func(t *testing.T) {
		other := Period{ID: "p2", Start: date(t, "2025-06-30"), End: date(t, "2025-07-10")}
		if !june.Overlaps(other) || !other.Overlaps(june) {
			t.Fatalf("expected periods sharing a boundary day to overlap")
		}
		later := Period{ID: "p3", Start: date(t, "2025-07-01"), End: date(t, "2025-07-10")}
		if june.Overlaps(later) {
			t.Fatalf("expected adjacent periods not to overlap")
		}
	})

	t.Run("overlapping ignores the candidate itself", func(t *testing.T) {
		got := Overlapping([]Period{june}, june)
		if len(got) != 0 {
			t.Fatalf("expected no overlap with itself, got %v", got)
		}
	})

	t.Run("start after end is invalid", func(t *testing.T) {
		p := Period{Start: date(t, "2025-06-10"), End: date(t, "2025-06-01")}
		if !errors.Is(p.Validate(), ErrInvalidRange) {
			t.Fatalf("expected ErrInvalidRange")
		}
	})

	t.Run("only active periods make dates bookable", func(t *testing.T) {
		inactive := june
		inactive.Active = false
		if IsDateBookable([]Period{inactive}, date(t, "2025-06-20")) {
			t.Fatalf("expected inactive period not to allow bookings")
		}
		if !IsDateBookable([]Period{inactive, june}, date(t, "2025-06-20")) {
			t.Fatalf("expected active period to allow bookings")
		}
	})

	t.Run("bookable dates skip weekends", func(t *testing.T) {
		week := Period{Start: date(t, "2025-06-20"), End: date(t, "2025-06-24"), Active: true}
		got := BookableDates(week)
		want := []string{"2025-06-20", "2025-06-23", "2025-06-24"}
		if len(got) != len(want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
		for i, d := range got {
			if d.String() != want[i] {
				t.Fatalf("expected %v, got %v", want, got)
			}
		}
	})
}
