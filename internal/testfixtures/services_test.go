package testfixtures

import (
	"context"
	"testing"

	"github.com/example/exam-scheduler/internal/access"
	"github.com/example/exam-scheduler/internal/persistence/memory"
	"github.com/example/exam-scheduler/internal/workflow"
)

func TestServiceFactoryUsesDeterministicGenerators(t *testing.T) {
	factory := NewServiceFactory(WithIDGenerator(NewIDGenerator("rooms")))
	services := factory.NewServices(t, memory.Open())

	admin := NewUserFixture(WithUserRole(access.RoleAdmin)).Principal()
	room, err := services.Rooms.CreateRoom(context.Background(), admin, NewRoomFixture().Input())
	if err != nil {
		t.Fatalf("CreateRoom returned error: %v", err)
	}

	if want := NewIDGenerator("rooms").Next(); room.ID != want {
		t.Fatalf("expected generated ID %s, got %q", want, room.ID)
	}
	if !room.CreatedAt.Equal(factory.Clock.Now()) {
		t.Fatalf("expected timestamp %v, got %v", factory.Clock.Now(), room.CreatedAt)
	}
}

func TestNewMemoryWorldSeedsSession(t *testing.T) {
	w := NewMemoryWorld(t)

	if len(w.Rooms) != 3 {
		t.Fatalf("expected 3 rooms, got %d", len(w.Rooms))
	}
	if !w.Period.Active || w.Period.Start != SessionStart || w.Period.End != SessionEnd {
		t.Fatalf("unexpected period %+v", w.Period)
	}
	if w.GroupRep.StudentGroup != w.Group || w.GroupRep.Role != access.RoleGroupRep {
		t.Fatalf("unexpected representative %+v", w.GroupRep)
	}

	exam := w.NewDraftExam(t, w.Group)
	if exam.Status != workflow.StatusDraft {
		t.Fatalf("expected DRAFT, got %s", exam.Status)
	}
	if exam.DurationMinutes != 120 {
		t.Fatalf("expected default duration, got %d", exam.DurationMinutes)
	}
}
