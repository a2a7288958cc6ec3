package application_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/exam-scheduler/internal/application"
	"github.com/example/exam-scheduler/internal/scheduler"
	"github.com/example/exam-scheduler/internal/testfixtures"
)

func TestRoomCatalog(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	w := testfixtures.NewMemoryWorld(t)

	created, err := w.Services.Rooms.CreateRoom(ctx, w.Secretariat, application.RoomInput{
		Name: "  Aula Magna ", ShortName: "AM", Building: "A", Capacity: 200,
	})
	require.NoError(t, err)
	assert.Equal(t, "Aula Magna", created.Name)

	_, err = w.Services.Rooms.CreateRoom(ctx, w.Secretariat, application.RoomInput{Name: "Aula Magna", Capacity: 10})
	require.ErrorIs(t, err, application.ErrConflict)

	_, err = w.Services.Rooms.CreateRoom(ctx, w.Secretariat, application.RoomInput{Name: "Closet"})
	assert.Contains(t, fieldErrors(t, err), "capacity")

	_, err = w.Services.Rooms.CreateRoom(ctx, w.MainTeacher, application.RoomInput{Name: "Lab", Capacity: 20})
	require.ErrorIs(t, err, application.ErrForbidden)

	updated, err := w.Services.Rooms.UpdateRoom(ctx, w.Secretariat, created.ID, application.RoomInput{
		Name: "Aula Magna", ShortName: "AM", Building: "B", Capacity: 180,
	})
	require.NoError(t, err)
	assert.Equal(t, "B", updated.Building)
	assert.Equal(t, 180, updated.Capacity)

	fetched, err := w.Services.Rooms.GetRoom(ctx, w.Student, created.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, fetched)

	_, err = w.Services.Rooms.UpdateRoom(ctx, w.Secretariat, "missing", application.RoomInput{Name: "X", Capacity: 1})
	require.ErrorIs(t, err, application.ErrNotFound)

	rooms, err := w.Services.Rooms.ListRooms(ctx, w.Student)
	require.NoError(t, err)
	require.Len(t, rooms, 4)
	assert.Equal(t, created.ID, rooms[0].ID, "rooms are ordered by name")

	require.NoError(t, w.Services.Rooms.DeleteRoom(ctx, w.Secretariat, created.ID))
	_, err = w.Services.Rooms.GetRoom(ctx, w.Student, created.ID)
	require.ErrorIs(t, err, application.ErrNotFound)
}

func TestDeleteBookedRoomIsRejected(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	w := testfixtures.NewMemoryWorld(t)
	room := w.Room(0)

	exam := w.NewDraftExam(t, w.Group)
	_, err := w.Services.Exams.Propose(ctx, w.GroupRep, exam.ID, proposal(room, "2025-06-20", 10))
	require.NoError(t, err)

	require.ErrorIs(t, w.Services.Rooms.DeleteRoom(ctx, w.Secretariat, room.ID), application.ErrConflict)

	free, err := w.Services.Rooms.IsSlotFree(ctx, scheduler.Slot{RoomID: room.ID, Date: testfixtures.Friday, Hour: 10}, "")
	require.NoError(t, err)
	assert.False(t, free)

	free, err = w.Services.Rooms.IsSlotFree(ctx, scheduler.Slot{RoomID: room.ID, Date: testfixtures.Friday, Hour: 10}, exam.ID)
	require.NoError(t, err)
	assert.True(t, free)
}

func TestListAvailableRoomsValidatesTheSlot(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	w := testfixtures.NewMemoryWorld(t)

	_, err := w.Services.Rooms.ListAvailableRooms(ctx, w.GroupRep, application.AvailableRoomsInput{Date: "2025-06-21", StartHour: 10})
	assert.Contains(t, fieldErrors(t, err), "exam_date")

	_, err = w.Services.Rooms.ListAvailableRooms(ctx, w.GroupRep, application.AvailableRoomsInput{Date: "2025-06-20", StartHour: 21})
	assert.Contains(t, fieldErrors(t, err), "start_hour")

	_, err = w.Services.Rooms.ListAvailableRooms(ctx, w.Student, application.AvailableRoomsInput{Date: "2025-06-20", StartHour: 10})
	require.ErrorIs(t, err, application.ErrForbidden)

	rooms, err := w.Services.Rooms.ListAvailableRooms(ctx, w.MainTeacher, application.AvailableRoomsInput{Date: "2025-06-20", StartHour: 8})
	require.NoError(t, err)
	assert.Len(t, rooms, 3)
}
