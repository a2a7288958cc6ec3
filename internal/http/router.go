package http

import (
	"context"
	"net/http"
)

// RouterConfig names the handlers and hooks NewRouter mounts. Nil handlers leave their routes unregistered.
type RouterConfig struct {
	Exams       *ExamHandler
	Rooms       *RoomHandler
	Periods     *PeriodHandler
	Users       *UserHandler
	Disciplines *DisciplineHandler
	// Authenticate wraps every API route; /healthz is served without it.
	Authenticate func(http.Handler) http.Handler
	Health       func(ctx context.Context) error
	Middleware   []func(http.Handler) http.Handler
}

// withID copies the named path value into the request context.
func withID(name string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := ContextWithResourceID(r.Context(), r.PathValue(name))
		next(w, r.WithContext(ctx))
	}
}

// NewRouter builds the API mux behind Authenticate, serves /healthz beside it and
// wraps the result in Middleware, outermost first.
func NewRouter(cfg RouterConfig) http.Handler {
	api := http.NewServeMux()

	if h := cfg.Exams; h != nil {
		api.HandleFunc("GET /exams", h.List)
		api.HandleFunc("POST /exams", h.Create)
		api.HandleFunc("POST /exams/assignments", h.AssignDiscipline)
		api.HandleFunc("GET /exams/confirmed", h.ListConfirmed)
		api.HandleFunc("GET /exams/audit", h.Audit)
		api.HandleFunc("GET /exams/{id}", withID("id", h.Get))
		api.HandleFunc("PATCH /exams/{id}", withID("id", h.Update))
		api.HandleFunc("DELETE /exams/{id}", withID("id", h.Delete))
		api.HandleFunc("POST /exams/{id}/propose", withID("id", h.Propose))
		api.HandleFunc("POST /exams/{id}/review", withID("id", h.Review))
		api.HandleFunc("POST /exams/{id}/confirm", withID("id", h.Confirm))
		api.HandleFunc("GET /groups/{group}/exams", withID("group", h.ListForGroup))
		api.HandleFunc("GET /teachers/{id}/exams", withID("id", h.ListForTeacher))
	}

	if h := cfg.Rooms; h != nil {
		api.HandleFunc("GET /rooms", h.List)
		api.HandleFunc("POST /rooms", h.Create)
		api.HandleFunc("GET /rooms/available", h.Available)
		api.HandleFunc("GET /rooms/{id}", withID("id", h.Get))
		api.HandleFunc("PUT /rooms/{id}", withID("id", h.Update))
		api.HandleFunc("DELETE /rooms/{id}", withID("id", h.Delete))
	}

	if h := cfg.Periods; h != nil {
		api.HandleFunc("GET /periods", h.List)
		api.HandleFunc("POST /periods", h.Create)
		api.HandleFunc("PATCH /periods/{id}", withID("id", h.Update))
		api.HandleFunc("DELETE /periods/{id}", withID("id", h.Delete))
		api.HandleFunc("GET /periods/{id}/dates", withID("id", h.Dates))
	}

	if h := cfg.Disciplines; h != nil {
		api.HandleFunc("GET /disciplines", h.List)
		api.HandleFunc("POST /disciplines", h.Create)
		api.HandleFunc("GET /disciplines/{id}", withID("id", h.Get))
	}

	if h := cfg.Users; h != nil {
		api.HandleFunc("GET /users", h.List)
		api.HandleFunc("POST /users", h.Create)
		api.HandleFunc("GET /users/{id}", withID("id", h.Get))
		api.HandleFunc("PATCH /users/{id}", withID("id", h.Update))
		api.HandleFunc("DELETE /users/{id}", withID("id", h.Delete))
		api.HandleFunc("GET /groups", h.ListGroups)
	}

	var protected http.Handler = api
	if cfg.Authenticate != nil {
		protected = cfg.Authenticate(api)
	}

	root := http.NewServeMux()
	root.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		responder := newResponder(nil)
		if cfg.Health != nil {
			if err := cfg.Health(r.Context()); err != nil {
				responder.writeError(r.Context(), w, http.StatusServiceUnavailable, err)
				return
			}
		}
		responder.writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
	})
	root.Handle("/", protected)

	var handler http.Handler = root
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}

	return handler
}
