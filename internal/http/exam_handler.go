package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/exam-scheduler/internal/application"
	"github.com/example/exam-scheduler/internal/scheduler"
	"github.com/example/exam-scheduler/internal/workflow"
)

type examService interface {
	CreateExam(ctx context.Context, principal application.Principal, input application.CreateExamInput) (application.Exam, error)
	AssignDiscipline(ctx context.Context, principal application.Principal, input application.CreateExamInput) (application.Exam, error)
	Propose(ctx context.Context, principal application.Principal, examID string, input application.ProposeInput) (application.Exam, error)
	Review(ctx context.Context, principal application.Principal, examID string, input application.ReviewInput) (application.Exam, error)
	Confirm(ctx context.Context, principal application.Principal, examID string) (application.Exam, error)
	UpdateExam(ctx context.Context, principal application.Principal, examID string, patch application.ExamPatch) (application.Exam, error)
	DeleteExam(ctx context.Context, principal application.Principal, examID string) error
	GetExam(ctx context.Context, principal application.Principal, examID string) (application.Exam, error)
	ListExams(ctx context.Context, principal application.Principal, filter application.ExamListFilter) ([]application.Exam, error)
	ListConfirmedExams(ctx context.Context, principal application.Principal) ([]application.Exam, error)
	ListExamsForGroup(ctx context.Context, principal application.Principal, group string) ([]application.Exam, error)
	ListExamsForTeacher(ctx context.Context, principal application.Principal, teacherID string) ([]application.Exam, error)
	AuditBookings(ctx context.Context, principal application.Principal) ([]scheduler.Conflict, error)
}

// ExamHandler serves exam records and the scheduling workflow actions.
type ExamHandler struct {
	service   examService
	responder responder
	logger    *slog.Logger
}

func NewExamHandler(service examService, logger *slog.Logger) *ExamHandler {
	base := defaultLogger(logger)
	return &ExamHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ExamHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ExamHandler", operation, attrs...)
}

func (h *ExamHandler) ready(w http.ResponseWriter) bool {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	return true
}

// examID reads the path id; on failure the response is already written.
func (h *ExamHandler) examID(w http.ResponseWriter, r *http.Request, operation string) (string, bool) {
	id, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.log(r.Context(), operation, "error_kind", "bad_request").WarnContext(r.Context(), "missing exam id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return "", false
	}
	return id, true
}

func (h *ExamHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, "Create", h.serviceCreate)
}

func (h *ExamHandler) AssignDiscipline(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, "AssignDiscipline", h.serviceAssign)
}

func (h *ExamHandler) serviceCreate(ctx context.Context, p application.Principal, in application.CreateExamInput) (application.Exam, error) {
	return h.service.CreateExam(ctx, p, in)
}

func (h *ExamHandler) serviceAssign(ctx context.Context, p application.Principal, in application.CreateExamInput) (application.Exam, error) {
	return h.service.AssignDiscipline(ctx, p, in)
}

func (h *ExamHandler) create(w http.ResponseWriter, r *http.Request, operation string,
	call func(context.Context, application.Principal, application.CreateExamInput) (application.Exam, error),
) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	var req createExamRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), operation, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode exam request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), operation, "principal_id", principal.UserID)
	exam, err := call(r.Context(), principal, req.toInput())
	if err != nil {
		logger.WarnContext(r.Context(), "exam creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("exam_id", exam.ID).InfoContext(r.Context(), "exam created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, examResponse{Exam: toExamDTO(exam)})
}

func (h *ExamHandler) Propose(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	examID, ok := h.examID(w, r, "Propose")
	if !ok {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	var req proposeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Propose", "exam_id", examID, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode proposal", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Propose", "principal_id", principal.UserID, "exam_id", examID)
	exam, err := h.service.Propose(r.Context(), principal, examID, application.ProposeInput{
		Date:      strings.TrimSpace(req.ExamDate),
		StartHour: req.StartHour,
		RoomID:    strings.TrimSpace(req.RoomID),
	})
	if err != nil {
		logger.WarnContext(r.Context(), "proposal failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "exam proposed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, examResponse{Exam: toExamDTO(exam)})
}

func (h *ExamHandler) Review(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	examID, ok := h.examID(w, r, "Review")
	if !ok {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	var req reviewRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Review", "exam_id", examID, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode review", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Review", "principal_id", principal.UserID, "exam_id", examID, "action", req.Action)
	exam, err := h.service.Review(r.Context(), principal, examID, application.ReviewInput{
		Action:  strings.TrimSpace(req.Action),
		AltDate: strings.TrimSpace(req.AltDate),
		AltHour: req.AltHour,
	})
	if err != nil {
		logger.WarnContext(r.Context(), "review failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "exam reviewed", "status", string(exam.Status))
	h.responder.writeJSON(r.Context(), w, http.StatusOK, examResponse{Exam: toExamDTO(exam)})
}

func (h *ExamHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	examID, ok := h.examID(w, r, "Confirm")
	if !ok {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	logger := h.log(r.Context(), "Confirm", "principal_id", principal.UserID, "exam_id", examID)
	exam, err := h.service.Confirm(r.Context(), principal, examID)
	if err != nil {
		logger.WarnContext(r.Context(), "confirmation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "exam confirmed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, examResponse{Exam: toExamDTO(exam)})
}

func (h *ExamHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	examID, ok := h.examID(w, r, "Get")
	if !ok {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	exam, err := h.service.GetExam(r.Context(), principal, examID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, examResponse{Exam: toExamDTO(exam)})
}

func (h *ExamHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	examID, ok := h.examID(w, r, "Update")
	if !ok {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	var req examPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Update", "exam_id", examID, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode exam patch", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.UserID, "exam_id", examID)
	exam, err := h.service.UpdateExam(r.Context(), principal, examID, req.toPatch())
	if err != nil {
		logger.WarnContext(r.Context(), "exam update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "exam updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, examResponse{Exam: toExamDTO(exam)})
}

func (h *ExamHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	examID, ok := h.examID(w, r, "Delete")
	if !ok {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "exam_id", examID)
	if err := h.service.DeleteExam(r.Context(), principal, examID); err != nil {
		logger.WarnContext(r.Context(), "exam delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "exam deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *ExamHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	query := r.URL.Query()
	filter := application.ExamListFilter{
		StudentGroup: strings.TrimSpace(query.Get("group")),
		TeacherID:    strings.TrimSpace(query.Get("teacher")),
		DisciplineID: strings.TrimSpace(query.Get("discipline")),
	}
	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		status, err := workflow.ParseStatus(raw)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadQuery)
			return
		}
		filter.Status = status
	}

	exams, err := h.service.ListExams(r.Context(), principal, filter)
	h.writeList(w, r, "List", exams, err)
}

func (h *ExamHandler) ListConfirmed(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	exams, err := h.service.ListConfirmedExams(r.Context(), principal)
	h.writeList(w, r, "ListConfirmed", exams, err)
}

func (h *ExamHandler) ListForGroup(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	group, _ := ResourceIDFromContext(r.Context())
	principal, _ := PrincipalFromContext(r.Context())
	exams, err := h.service.ListExamsForGroup(r.Context(), principal, group)
	h.writeList(w, r, "ListForGroup", exams, err)
}

func (h *ExamHandler) ListForTeacher(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	teacherID, _ := ResourceIDFromContext(r.Context())
	principal, _ := PrincipalFromContext(r.Context())
	exams, err := h.service.ListExamsForTeacher(r.Context(), principal, teacherID)
	h.writeList(w, r, "ListForTeacher", exams, err)
}

func (h *ExamHandler) writeList(w http.ResponseWriter, r *http.Request, operation string, exams []application.Exam, err error) {
	if err != nil {
		h.log(r.Context(), operation).WarnContext(r.Context(), "exam listing failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listExamsResponse{Exams: toExamDTOs(exams)})
}

func (h *ExamHandler) Audit(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	conflicts, err := h.service.AuditBookings(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	if len(conflicts) > 0 {
		h.log(r.Context(), "Audit").ErrorContext(r.Context(), "double bookings detected", "conflict_count", len(conflicts))
	}

	resp := auditResponse{Conflicts: make([]bookingConflictDTO, 0, len(conflicts))}
	for _, c := range conflicts {
		resp.Conflicts = append(resp.Conflicts, bookingConflictDTO{
			RoomID:    c.Slot.RoomID,
			ExamDate:  c.Slot.Date.String(),
			StartHour: c.Slot.Hour,
			ExamIDs:   c.ExamIDs,
		})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}

type createExamRequest struct {
	DisciplineID    string `json:"discipline_id"`
	StudentGroup    string `json:"student_group"`
	Kind            string `json:"kind"`
	MainTeacherID   string `json:"main_teacher_id"`
	SecondTeacherID string `json:"second_teacher_id"`
	RoomID          string `json:"room_id"`
	DurationMinutes int    `json:"duration_minutes"`
}

func (r createExamRequest) toInput() application.CreateExamInput {
	return application.CreateExamInput{
		DisciplineID:    strings.TrimSpace(r.DisciplineID),
		StudentGroup:    strings.TrimSpace(r.StudentGroup),
		Kind:            strings.TrimSpace(r.Kind),
		MainTeacherID:   strings.TrimSpace(r.MainTeacherID),
		SecondTeacherID: strings.TrimSpace(r.SecondTeacherID),
		RoomID:          strings.TrimSpace(r.RoomID),
		DurationMinutes: r.DurationMinutes,
	}
}

type proposeRequest struct {
	ExamDate  string `json:"exam_date"`
	StartHour int    `json:"start_hour"`
	RoomID    string `json:"room_id"`
}

type reviewRequest struct {
	Action  string `json:"action"`
	AltDate string `json:"alt_date"`
	AltHour int    `json:"alt_hour"`
}

type examPatchRequest struct {
	StudentGroup    *string `json:"student_group"`
	RoomID          *string `json:"room_id"`
	ExamDate        *string `json:"exam_date"`
	StartHour       *int    `json:"start_hour"`
	DurationMinutes *int    `json:"duration_minutes"`
	Status          *string `json:"status"`
}

func (r examPatchRequest) toPatch() application.ExamPatch {
	return application.ExamPatch{
		StudentGroup:    r.StudentGroup,
		RoomID:          r.RoomID,
		Date:            r.ExamDate,
		StartHour:       r.StartHour,
		DurationMinutes: r.DurationMinutes,
		Status:          r.Status,
	}
}

type examResponse struct {
	Exam examDTO `json:"exam"`
}

type listExamsResponse struct {
	Exams []examDTO `json:"exams"`
}

type auditResponse struct {
	Conflicts []bookingConflictDTO `json:"conflicts"`
}

type bookingConflictDTO struct {
	RoomID    string   `json:"room_id"`
	ExamDate  string   `json:"exam_date"`
	StartHour int      `json:"start_hour"`
	ExamIDs   []string `json:"exam_ids"`
}

type examDTO struct {
	ID              string   `json:"id"`
	DisciplineID    string   `json:"discipline_id"`
	Kind            string   `json:"kind"`
	StudentGroup    string   `json:"student_group"`
	MainTeacherID   string   `json:"main_teacher_id"`
	SecondTeacherID string   `json:"second_teacher_id"`
	RoomID          string   `json:"room_id,omitempty"`
	ExamDate        string   `json:"exam_date,omitempty"`
	StartHour       int      `json:"start_hour,omitempty"`
	DurationMinutes int      `json:"duration_minutes"`
	Status          string   `json:"status"`
	AllowedActions  []string `json:"allowed_actions,omitempty"`
	CreatedBy       string   `json:"created_by"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`
}

func toExamDTO(exam application.Exam) examDTO {
	dto := examDTO{
		ID:              exam.ID,
		DisciplineID:    exam.DisciplineID,
		Kind:            string(exam.Kind),
		StudentGroup:    exam.StudentGroup,
		MainTeacherID:   exam.MainTeacherID,
		SecondTeacherID: exam.SecondTeacherID,
		RoomID:          exam.RoomID,
		StartHour:       exam.StartHour,
		DurationMinutes: exam.DurationMinutes,
		Status:          string(exam.Status),
		CreatedBy:       exam.CreatedBy,
		CreatedAt:       exam.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:       exam.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if !exam.Date.IsZero() {
		dto.ExamDate = exam.Date.String()
	}
	for _, action := range workflow.Allowed(exam.Status) {
		dto.AllowedActions = append(dto.AllowedActions, string(action))
	}
	return dto
}

func toExamDTOs(exams []application.Exam) []examDTO {
	out := make([]examDTO, 0, len(exams))
	for _, exam := range exams {
		out = append(out, toExamDTO(exam))
	}
	return out
}
