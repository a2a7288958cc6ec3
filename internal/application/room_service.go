package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/example/exam-scheduler/internal/access"
	"github.com/example/exam-scheduler/internal/persistence"
	"github.com/example/exam-scheduler/internal/scheduler"
	"github.com/example/exam-scheduler/internal/workflow"
)

// RoomService maintains the room catalog and answers availability queries.
type RoomService struct {
	serviceBase
}

// NewRoomService constructs a room service. A nil store is rejected.
func NewRoomService(store Store, idGenerator func() string, now func() time.Time) (*RoomService, error) {
	return NewRoomServiceWithLogger(store, idGenerator, now, nil)
}

// NewRoomServiceWithLogger constructs a room service with a specified logger.
func NewRoomServiceWithLogger(store Store, idGenerator func() string, now func() time.Time, logger *slog.Logger) (*RoomService, error) {
	base, err := newServiceBase(store, idGenerator, now, logger)
	if err != nil {
		return nil, err
	}
	return &RoomService{serviceBase: base}, nil
}

func (s *RoomService) loggerWith(ctx context.Context, operation string, principal Principal, attrs ...any) *slog.Logger {
	attrs = append([]any{"principal_id", principal.UserID}, attrs...)
	return serviceLogger(ctx, s.logger, "RoomService", operation, attrs...)
}

// CreateRoom validates input and persists a new room for the secretariat.
func (s *RoomService) CreateRoom(ctx context.Context, principal Principal, input RoomInput) (room Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateRoom", principal)
	defer func() {
		logOutcome(ctx, logger, err, "failed to create room", "room created", "room_id", room.ID)
	}()

	if err = requireCapability(principal, access.ActionManageRooms); err != nil {
		return
	}
	input = normalizeRoomInput(input)
	if vErr := validateInput(input); vErr != nil {
		err = vErr
		return
	}

	now := s.timestamp()
	candidate := Room{
		ID:        s.idGenerator(),
		Name:      input.Name,
		ShortName: input.ShortName,
		Building:  input.Building,
		Capacity:  input.Capacity,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.store.Atomic(ctx, func(ctx context.Context, tx Tx) error {
		return tx.Rooms().CreateRoom(ctx, candidate)
	})
	if err != nil {
		err = mapRoomRepoError(err, candidate.ID)
		return
	}
	room = candidate
	return
}

// UpdateRoom validates input and replaces an existing room's attributes.
func (s *RoomService) UpdateRoom(ctx context.Context, principal Principal, roomID string, input RoomInput) (room Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UpdateRoom", principal, "room_id", roomID)
	defer func() {
		logOutcome(ctx, logger, err, "failed to update room", "room updated")
	}()

	if err = requireCapability(principal, access.ActionManageRooms); err != nil {
		return
	}
	input = normalizeRoomInput(input)
	if vErr := validateInput(input); vErr != nil {
		err = vErr
		return
	}

	err = s.store.Atomic(ctx, func(ctx context.Context, tx Tx) error {
		existing, err := tx.Rooms().GetRoom(ctx, roomID)
		if err != nil {
			return lookupError(err, "room", roomID)
		}
		updated := existing
		updated.Name = input.Name
		updated.ShortName = input.ShortName
		updated.Building = input.Building
		updated.Capacity = input.Capacity
		updated.UpdatedAt = s.timestamp()
		if err := tx.Rooms().UpdateRoom(ctx, updated); err != nil {
			return err
		}
		room = updated
		return nil
	})
	if err != nil {
		err = mapRoomRepoError(err, roomID)
		room = Room{}
	}
	return
}

// DeleteRoom removes a room that no exam references.
func (s *RoomService) DeleteRoom(ctx context.Context, principal Principal, roomID string) (err error) {
	if s == nil {
		return fmt.Errorf("RoomService is nil")
	}

	logger := s.loggerWith(ctx, "DeleteRoom", principal, "room_id", roomID)
	defer func() {
		logOutcome(ctx, logger, err, "failed to delete room", "room deleted")
	}()

	if err = requireCapability(principal, access.ActionManageRooms); err != nil {
		return
	}
	err = s.store.Atomic(ctx, func(ctx context.Context, tx Tx) error {
		return tx.Rooms().DeleteRoom(ctx, roomID)
	})
	err = mapRoomRepoError(err, roomID)
	return
}

// GetRoom returns one room from the catalog.
func (s *RoomService) GetRoom(ctx context.Context, principal Principal, roomID string) (room Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}
	if err = requireCapability(principal, access.ActionViewCatalog); err != nil {
		return
	}
	err = s.store.ReadOnly(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		room, err = tx.Rooms().GetRoom(ctx, roomID)
		return err
	})
	err = mapRoomRepoError(err, roomID)
	return
}

// ListRooms returns the catalog of rooms for any identified user.
func (s *RoomService) ListRooms(ctx context.Context, principal Principal) (rooms []Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ListRooms", principal)
	defer func() {
		logOutcome(ctx, logger, err, "failed to list rooms", "rooms listed", "result_count", len(rooms))
	}()

	if err = requireCapability(principal, access.ActionViewCatalog); err != nil {
		return
	}
	err = s.store.ReadOnly(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		rooms, err = tx.Rooms().ListRooms(ctx)
		return err
	})
	if err != nil {
		return nil, mapRoomRepoError(err, "")
	}
	sortRooms(rooms)
	return rooms, nil
}

// ListAvailableRooms returns the rooms with no active booking at the given
// weekday date and start hour.
func (s *RoomService) ListAvailableRooms(ctx context.Context, principal Principal, input AvailableRoomsInput) (rooms []Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ListAvailableRooms", principal,
		"exam_date", input.Date,
		"start_hour", input.StartHour,
	)
	defer func() {
		logOutcome(ctx, logger, err, "failed to list available rooms", "available rooms listed", "result_count", len(rooms))
	}()

	if err = requireCapability(principal, access.ActionListAvailableRooms); err != nil {
		return
	}
	if vErr := validateInput(input); vErr != nil {
		err = vErr
		return
	}
	date, _ := civil.ParseDate(input.Date)

	err = s.store.ReadOnly(ctx, func(ctx context.Context, tx Tx) error {
		all, err := tx.Rooms().ListRooms(ctx)
		if err != nil {
			return err
		}
		held, err := tx.Exams().ListExams(ctx, ExamQuery{Date: date, StartHour: input.StartHour, Statuses: workflow.ActiveStatuses()})
		if err != nil {
			return err
		}

		ids := make([]string, 0, len(all))
		for _, room := range all {
			ids = append(ids, room.ID)
		}
		free := make(map[string]bool, len(all))
		for _, id := range scheduler.FreeRooms(ids, bookingsOf(held), scheduler.Slot{Date: date, Hour: input.StartHour}) {
			free[id] = true
		}
		for _, room := range all {
			if free[room.ID] {
				rooms = append(rooms, room)
			}
		}
		return nil
	})
	if err != nil {
		return nil, mapRoomRepoError(err, "")
	}
	sortRooms(rooms)
	return rooms, nil
}

// IsSlotFree reports whether no active booking other than excludingExamID
// holds the room at date and hour.
func (s *RoomService) IsSlotFree(ctx context.Context, slot scheduler.Slot, excludingExamID string) (free bool, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}
	err = s.store.ReadOnly(ctx, func(ctx context.Context, tx Tx) error {
		held, err := tx.Exams().ListExams(ctx, ExamQuery{
			RoomID:    slot.RoomID,
			Date:      slot.Date,
			StartHour: slot.Hour,
			Statuses:  workflow.ActiveStatuses(),
		})
		if err != nil {
			return err
		}
		free = scheduler.IsFree(bookingsOf(held), slot, excludingExamID)
		return nil
	})
	err = mapRoomRepoError(err, slot.RoomID)
	return
}

func normalizeRoomInput(input RoomInput) RoomInput {
	input.Name = strings.TrimSpace(input.Name)
	input.ShortName = strings.TrimSpace(input.ShortName)
	input.Building = strings.TrimSpace(input.Building)
	return input
}

func sortRooms(rooms []Room) {
	sort.Slice(rooms, func(i, j int) bool {
		if strings.EqualFold(rooms[i].Name, rooms[j].Name) {
			return rooms[i].ID < rooms[j].ID
		}
		return strings.ToLower(rooms[i].Name) < strings.ToLower(rooms[j].Name)
	})
}

func mapRoomRepoError(err error, roomID string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return notFound("room", roomID)
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return conflict("a room with this name already exists", "name", "")
	}
	if errors.Is(err, persistence.ErrForeignKeyViolation) {
		return conflict("room is referenced by exams", "room_id", roomID)
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		return fieldError("capacity", "capacity must be positive")
	}
	return mapStoreError(err, "room")
}
