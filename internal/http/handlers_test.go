package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/exam-scheduler/internal/application"
	"github.com/example/exam-scheduler/internal/testfixtures"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRouter(t *testing.T) (*testfixtures.World, http.Handler) {
	t.Helper()
	w := testfixtures.NewMemoryWorld(t)
	logger := discardLogger()
	router := NewRouter(RouterConfig{
		Exams:        NewExamHandler(w.Services.Exams, logger),
		Rooms:        NewRoomHandler(w.Services.Rooms, logger),
		Periods:      NewPeriodHandler(w.Services.Periods, logger),
		Users:        NewUserHandler(w.Services.Users, logger),
		Disciplines:  NewDisciplineHandler(w.Services.Disciplines, logger),
		Authenticate: RequireActor(w.Services.Users, logger),
	})
	return w, router
}

func call(t *testing.T, h http.Handler, method, path string, as application.Principal, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("X-Actor-ID", as.UserID)
	req.Header.Set("X-Actor-Role", string(as.Role))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return out
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, status int) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected status %d, got %d: %s", status, rec.Code, rec.Body.String())
	}
}

func createDraft(t *testing.T, w *testfixtures.World, h http.Handler) examDTO {
	t.Helper()
	rec := call(t, h, http.MethodPost, "/disciplines", w.Secretariat, disciplineRequest{Name: "Networks", YearOfStudy: 3})
	expectStatus(t, rec, http.StatusCreated)
	discipline := decode[disciplineResponse](t, rec).Discipline

	rec = call(t, h, http.MethodPost, "/exams", w.Secretariat, createExamRequest{
		DisciplineID:    discipline.ID,
		StudentGroup:    w.Group,
		Kind:            "EXAM",
		MainTeacherID:   w.MainTeacher.UserID,
		SecondTeacherID: w.SecondTeacher.UserID,
	})
	expectStatus(t, rec, http.StatusCreated)
	exam := decode[examResponse](t, rec).Exam
	if exam.Status != "DRAFT" || exam.ExamDate != "" {
		t.Fatalf("unexpected draft: %+v", exam)
	}
	return exam
}

func TestExamWorkflowOverHTTP(t *testing.T) {
	t.Parallel()
	w, h := newTestRouter(t)
	exam := createDraft(t, w, h)
	room := w.Room(0)

	rec := call(t, h, http.MethodPost, "/exams/"+exam.ID+"/propose", w.GroupRep, proposeRequest{
		ExamDate: "2025-06-20", StartHour: 10, RoomID: room.ID,
	})
	expectStatus(t, rec, http.StatusOK)
	proposed := decode[examResponse](t, rec).Exam
	if proposed.Status != "PROPOSED" || proposed.RoomID != room.ID || proposed.ExamDate != "2025-06-20" || proposed.StartHour != 10 {
		t.Fatalf("unexpected proposal: %+v", proposed)
	}

	rec = call(t, h, http.MethodGet, "/rooms/available?date=2025-06-20&hour=10", w.GroupRep, nil)
	expectStatus(t, rec, http.StatusOK)
	for _, r := range decode[listRoomsResponse](t, rec).Rooms {
		if r.ID == room.ID {
			t.Fatalf("booked room %s listed as available", room.ID)
		}
	}

	rec = call(t, h, http.MethodPost, "/exams/"+exam.ID+"/confirm", w.MainTeacher, nil)
	expectStatus(t, rec, http.StatusConflict)
	if body := decode[errorResponse](t, rec); body.ErrorCode != "INVALID_STATE" {
		t.Fatalf("expected INVALID_STATE, got %+v", body)
	}

	rec = call(t, h, http.MethodPost, "/exams/"+exam.ID+"/review", w.MainTeacher, reviewRequest{
		Action: "ALTERNATE", AltDate: "2025-06-23", AltHour: 12,
	})
	expectStatus(t, rec, http.StatusOK)
	reviewed := decode[examResponse](t, rec).Exam
	if reviewed.Status != "REJECTED" || reviewed.ExamDate != "2025-06-23" || reviewed.StartHour != 12 {
		t.Fatalf("unexpected review outcome: %+v", reviewed)
	}

	rec = call(t, h, http.MethodGet, "/groups/"+w.Group+"/exams", w.Student, nil)
	expectStatus(t, rec, http.StatusOK)
	if exams := decode[listExamsResponse](t, rec).Exams; len(exams) != 1 || exams[0].ID != exam.ID {
		t.Fatalf("unexpected group listing: %+v", exams)
	}

	rec = call(t, h, http.MethodGet, "/groups/"+w.OtherGroup+"/exams", w.Student, nil)
	expectStatus(t, rec, http.StatusForbidden)
}

func TestDoubleBookingIsAConflict(t *testing.T) {
	t.Parallel()
	w, h := newTestRouter(t)
	first := createDraft(t, w, h)

	rec := call(t, h, http.MethodPost, "/disciplines", w.Secretariat, disciplineRequest{Name: "Databases", YearOfStudy: 3})
	expectStatus(t, rec, http.StatusCreated)
	discipline := decode[disciplineResponse](t, rec).Discipline
	rec = call(t, h, http.MethodPost, "/exams", w.Secretariat, createExamRequest{
		DisciplineID:    discipline.ID,
		StudentGroup:    w.Group,
		Kind:            "PROJECT",
		MainTeacherID:   w.MainTeacher.UserID,
		SecondTeacherID: w.SecondTeacher.UserID,
	})
	expectStatus(t, rec, http.StatusCreated)
	second := decode[examResponse](t, rec).Exam

	slot := proposeRequest{ExamDate: "2025-06-20", StartHour: 10, RoomID: w.Room(1).ID}
	expectStatus(t, call(t, h, http.MethodPost, "/exams/"+first.ID+"/propose", w.GroupRep, slot), http.StatusOK)

	rec = call(t, h, http.MethodPost, "/exams/"+second.ID+"/propose", w.GroupRep, slot)
	expectStatus(t, rec, http.StatusConflict)
	if body := decode[errorResponse](t, rec); body.ErrorCode != "CONFLICT" {
		t.Fatalf("expected CONFLICT, got %+v", body)
	}

	rec = call(t, h, http.MethodGet, "/exams/audit", w.Secretariat, nil)
	expectStatus(t, rec, http.StatusOK)
	if conflicts := decode[auditResponse](t, rec).Conflicts; len(conflicts) != 0 {
		t.Fatalf("expected a clean audit, got %+v", conflicts)
	}
}

func TestValidationAndLookupErrors(t *testing.T) {
	t.Parallel()
	w, h := newTestRouter(t)
	exam := createDraft(t, w, h)

	rec := call(t, h, http.MethodPost, "/exams/"+exam.ID+"/propose", w.GroupRep, proposeRequest{
		ExamDate: "2025-06-21", StartHour: 10, RoomID: w.Room(0).ID,
	})
	expectStatus(t, rec, http.StatusUnprocessableEntity)
	if body := decode[errorResponse](t, rec); body.Errors["exam_date"] == "" {
		t.Fatalf("expected an exam_date error, got %+v", body)
	}

	rec = call(t, h, http.MethodGet, "/rooms/available?date=2025-06-20&hour=soon", w.GroupRep, nil)
	expectStatus(t, rec, http.StatusBadRequest)

	rec = call(t, h, http.MethodGet, "/exams/missing", w.Secretariat, nil)
	expectStatus(t, rec, http.StatusNotFound)

	rec = call(t, h, http.MethodPost, "/rooms", w.Student, roomRequest{Name: "Lab", Capacity: 10})
	expectStatus(t, rec, http.StatusForbidden)

	req := httptest.NewRequest(http.MethodPost, "/rooms", bytes.NewBufferString(`{"name":`))
	req.Header.Set("X-Actor-ID", w.Secretariat.UserID)
	req.Header.Set("X-Actor-Role", string(w.Secretariat.Role))
	raw := httptest.NewRecorder()
	h.ServeHTTP(raw, req)
	expectStatus(t, raw, http.StatusBadRequest)

	rec = call(t, h, http.MethodPost, "/periods", w.Secretariat, periodRequest{
		Name: "Overlap", StartDate: "2025-06-10", EndDate: "2025-06-12",
	})
	expectStatus(t, rec, http.StatusConflict)
}

func TestCatalogEndpoints(t *testing.T) {
	t.Parallel()
	w, h := newTestRouter(t)

	rec := call(t, h, http.MethodPost, "/rooms", w.Secretariat, roomRequest{Name: "Aula 2", ShortName: "A2", Capacity: 40})
	expectStatus(t, rec, http.StatusCreated)
	room := decode[roomResponse](t, rec).Room

	rec = call(t, h, http.MethodPut, "/rooms/"+room.ID, w.Secretariat, roomRequest{Name: "Aula 2", Capacity: 60})
	expectStatus(t, rec, http.StatusOK)
	if got := decode[roomResponse](t, rec).Room.Capacity; got != 60 {
		t.Fatalf("expected capacity 60, got %d", got)
	}

	expectStatus(t, call(t, h, http.MethodDelete, "/rooms/"+room.ID, w.Secretariat, nil), http.StatusNoContent)
	expectStatus(t, call(t, h, http.MethodGet, "/rooms/"+room.ID, w.Student, nil), http.StatusNotFound)

	rec = call(t, h, http.MethodGet, "/periods/"+w.Period.ID+"/dates", w.GroupRep, nil)
	expectStatus(t, rec, http.StatusOK)
	dates := decode[bookableDatesResponse](t, rec).Dates
	if len(dates) != 21 || dates[0] != "2025-06-02" {
		t.Fatalf("unexpected bookable dates: %v", dates)
	}

	inactive := false
	rec = call(t, h, http.MethodPatch, "/periods/"+w.Period.ID, w.Secretariat, periodPatchRequest{IsActive: &inactive})
	expectStatus(t, rec, http.StatusOK)
	if decode[periodResponse](t, rec).Period.IsActive {
		t.Fatal("expected period to be deactivated")
	}

	rec = call(t, h, http.MethodGet, "/users?role=TEACHER", w.Admin, nil)
	expectStatus(t, rec, http.StatusOK)
	if users := decode[listUsersResponse](t, rec).Users; len(users) != 3 {
		t.Fatalf("expected 3 teachers, got %d", len(users))
	}

	rec = call(t, h, http.MethodGet, "/users/"+w.Student.UserID, w.Student, nil)
	expectStatus(t, rec, http.StatusOK)

	rec = call(t, h, http.MethodGet, "/users/"+w.MainTeacher.UserID, w.Student, nil)
	expectStatus(t, rec, http.StatusForbidden)
}

func TestStudentGroupsEndpoint(t *testing.T) {
	t.Parallel()
	w, h := newTestRouter(t)

	rec := call(t, h, http.MethodGet, "/groups", w.Secretariat, nil)
	expectStatus(t, rec, http.StatusOK)
	groups := decode[listGroupsResponse](t, rec).Groups
	if len(groups) != 2 || groups[0] != w.Group || groups[1] != w.OtherGroup {
		t.Fatalf("unexpected student groups: %v", groups)
	}

	expectStatus(t, call(t, h, http.MethodGet, "/groups", w.Admin, nil), http.StatusOK)
	expectStatus(t, call(t, h, http.MethodGet, "/groups", w.GroupRep, nil), http.StatusForbidden)
	expectStatus(t, call(t, h, http.MethodGet, "/groups/"+w.Group+"/exams", w.GroupRep, nil), http.StatusOK)
}
