package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/example/exam-scheduler/internal/application"
)

type periodService interface {
	CreatePeriod(ctx context.Context, principal application.Principal, input application.PeriodInput) (application.Period, error)
	UpdatePeriod(ctx context.Context, principal application.Principal, periodID string, patch application.PeriodPatch) (application.Period, error)
	DeletePeriod(ctx context.Context, principal application.Principal, periodID string) error
	ListPeriods(ctx context.Context, principal application.Principal) ([]application.Period, error)
	BookableDates(ctx context.Context, principal application.Principal, periodID string) ([]civil.Date, error)
}

// PeriodHandler serves the exam period registry.
type PeriodHandler struct {
	service   periodService
	responder responder
	logger    *slog.Logger
}

func NewPeriodHandler(service periodService, logger *slog.Logger) *PeriodHandler {
	base := defaultLogger(logger)
	return &PeriodHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *PeriodHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "PeriodHandler", operation, attrs...)
}

func (h *PeriodHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req periodRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode period request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID)
	period, err := h.service.CreatePeriod(r.Context(), principal, application.PeriodInput{
		Name:   strings.TrimSpace(req.Name),
		Start:  strings.TrimSpace(req.StartDate),
		End:    strings.TrimSpace(req.EndDate),
		Active: req.IsActive,
	})
	if err != nil {
		logger.WarnContext(r.Context(), "period creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("period_id", period.ID).InfoContext(r.Context(), "period created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, periodResponse{Period: toPeriodDTO(period)})
}

func (h *PeriodHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	periodID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(periodID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	var req periodPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Update", "period_id", periodID, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode period patch", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.UserID, "period_id", periodID)
	period, err := h.service.UpdatePeriod(r.Context(), principal, periodID, application.PeriodPatch{
		Name:   req.Name,
		Start:  req.StartDate,
		End:    req.EndDate,
		Active: req.IsActive,
	})
	if err != nil {
		logger.WarnContext(r.Context(), "period update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "period updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, periodResponse{Period: toPeriodDTO(period)})
}

func (h *PeriodHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	periodID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(periodID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "period_id", periodID)
	if err := h.service.DeletePeriod(r.Context(), principal, periodID); err != nil {
		logger.WarnContext(r.Context(), "period delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "period deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *PeriodHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	periods, err := h.service.ListPeriods(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]periodDTO, 0, len(periods))
	for _, period := range periods {
		out = append(out, toPeriodDTO(period))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listPeriodsResponse{Periods: out})
}

// Dates lists the weekday dates of a period on which exams may be placed.
func (h *PeriodHandler) Dates(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	periodID, _ := ResourceIDFromContext(r.Context())
	principal, _ := PrincipalFromContext(r.Context())
	dates, err := h.service.BookableDates(r.Context(), principal, periodID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.String())
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, bookableDatesResponse{PeriodID: periodID, Dates: out})
}

type periodRequest struct {
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	IsActive  bool   `json:"is_active"`
}

type periodPatchRequest struct {
	Name      *string `json:"name"`
	StartDate *string `json:"start_date"`
	EndDate   *string `json:"end_date"`
	IsActive  *bool   `json:"is_active"`
}

type periodResponse struct {
	Period periodDTO `json:"period"`
}

type listPeriodsResponse struct {
	Periods []periodDTO `json:"periods"`
}

type bookableDatesResponse struct {
	PeriodID string   `json:"period_id"`
	Dates    []string `json:"dates"`
}

type periodDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toPeriodDTO(period application.Period) periodDTO {
	return periodDTO{
		ID:        period.ID,
		Name:      period.Name,
		StartDate: period.Start.String(),
		EndDate:   period.End.String(),
		IsActive:  period.Active,
		CreatedAt: period.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: period.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}
