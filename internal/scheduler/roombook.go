package scheduler

import (
	"sort"
)

// Booking is a slot held by an exam. Active is false for exams whose status no
// longer holds the room (drafts, rejections, cancellations).
type Booking struct {
	ExamID string
	Slot   Slot
	Active bool
}

// Conflict details two exams holding the same slot at the same time.
type Conflict struct {
	Slot    Slot
	ExamIDs []string
}

// IsFree reports whether no active booking other than excludingExamID holds slot.
func IsFree(bookings []Booking, slot Slot, excludingExamID string) bool {
	for _, b := range bookings {
		if !b.Active || b.ExamID == excludingExamID {
			continue
		}
		if b.Slot == slot {
			return false
		}
	}
	return true
}

// Holder returns the exam holding slot, if any.
func Holder(bookings []Booking, slot Slot, excludingExamID string) (string, bool) {
	for _, b := range bookings {
		if b.Active && b.ExamID != excludingExamID && b.Slot == slot {
			return b.ExamID, true
		}
	}
	return "", false
}

// FreeRooms filters roomIDs down to those with no active booking at the given
// slot time. Order of roomIDs is preserved.
func FreeRooms(roomIDs []string, bookings []Booking, at Slot) []string {
	held := make(map[string]struct{})
	for _, b := range bookings {
		if b.Active && b.Slot.Date == at.Date && b.Slot.Hour == at.Hour {
			held[b.Slot.RoomID] = struct{}{}
		}
	}

	free := make([]string, 0, len(roomIDs))
	for _, id := range roomIDs {
		if _, taken := held[id]; taken {
			continue
		}
		free = append(free, id)
	}
	return free
}

// DetectDoubleBookings returns every slot held by more than one active booking.
// A consistent store never yields any; the function backs audits and tests.
func DetectDoubleBookings(bookings []Booking) []Conflict {
	bySlot := make(map[Slot][]string)
	for _, b := range bookings {
		if !b.Active {
			continue
		}
		bySlot[b.Slot] = append(bySlot[b.Slot], b.ExamID)
	}

	var conflicts []Conflict
	for slot, ids := range bySlot {
		if len(ids) < 2 {
			continue
		}
		sort.Strings(ids)
		conflicts = append(conflicts, Conflict{Slot: slot, ExamIDs: ids})
	}

	sort.Slice(conflicts, func(i, j int) bool {
		return conflicts[i].Slot.String() < conflicts[j].Slot.String()
	})
	return conflicts
}
