package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/exam-scheduler/internal/application"
)

type disciplineService interface {
	CreateDiscipline(ctx context.Context, principal application.Principal, input application.DisciplineInput) (application.Discipline, error)
	GetDiscipline(ctx context.Context, principal application.Principal, id string) (application.Discipline, error)
	ListDisciplines(ctx context.Context, principal application.Principal) ([]application.Discipline, error)
}

type DisciplineHandler struct {
	service   disciplineService
	responder responder
	logger    *slog.Logger
}

func NewDisciplineHandler(service disciplineService, logger *slog.Logger) *DisciplineHandler {
	base := defaultLogger(logger)
	return &DisciplineHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *DisciplineHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := handlerLogger(r.Context(), h.logger, "DisciplineHandler", "Create", "principal_id", principal.UserID)

	var req disciplineRequest
	if err := decodeJSON(r, &req); err != nil {
		logger.WarnContext(r.Context(), "failed to decode discipline request", "error", err, "error_kind", "bad_request")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	discipline, err := h.service.CreateDiscipline(r.Context(), principal, application.DisciplineInput{
		Name:           strings.TrimSpace(req.Name),
		YearOfStudy:    req.YearOfStudy,
		Specialization: strings.TrimSpace(req.Specialization),
	})
	if err != nil {
		logger.WarnContext(r.Context(), "discipline creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("discipline_id", discipline.ID).InfoContext(r.Context(), "discipline created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, disciplineResponse{Discipline: toDisciplineDTO(discipline)})
}

func (h *DisciplineHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, _ := ResourceIDFromContext(r.Context())
	principal, _ := PrincipalFromContext(r.Context())
	discipline, err := h.service.GetDiscipline(r.Context(), principal, id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, disciplineResponse{Discipline: toDisciplineDTO(discipline)})
}

func (h *DisciplineHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	disciplines, err := h.service.ListDisciplines(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]disciplineDTO, 0, len(disciplines))
	for _, d := range disciplines {
		out = append(out, toDisciplineDTO(d))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listDisciplinesResponse{Disciplines: out})
}

type disciplineRequest struct {
	Name           string `json:"name"`
	YearOfStudy    int    `json:"year_of_study"`
	Specialization string `json:"specialization"`
}

type disciplineResponse struct {
	Discipline disciplineDTO `json:"discipline"`
}

type listDisciplinesResponse struct {
	Disciplines []disciplineDTO `json:"disciplines"`
}

type disciplineDTO struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	YearOfStudy    int    `json:"year_of_study"`
	Specialization string `json:"specialization,omitempty"`
	CreatedAt      string `json:"created_at"`
}

func toDisciplineDTO(d application.Discipline) disciplineDTO {
	return disciplineDTO{
		ID:             d.ID,
		Name:           d.Name,
		YearOfStudy:    d.YearOfStudy,
		Specialization: d.Specialization,
		CreatedAt:      d.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}
