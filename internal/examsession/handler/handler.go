// Package handler exposes the session listing and administrative session
// management endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"examreg/internal/examsession"
	"examreg/pkg/domain"
	dErrors "examreg/pkg/domain-errors"
	"examreg/pkg/platform/httputil"
)

// Service is the session operations boundary.
type Service interface {
	Get(ctx context.Context, id domain.SessionID) (*examsession.ExamSession, error)
	ListOpen(ctx context.Context) ([]examsession.OpenSession, error)
	ListAll(ctx context.Context) ([]examsession.ExamSession, error)
	Create(ctx context.Context, session *examsession.ExamSession) (*examsession.ExamSession, error)
	Update(ctx context.Context, session *examsession.ExamSession) (*examsession.ExamSession, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the public session listing.
func (h *Handler) Register(r chi.Router) {
	r.Get("/sessions/open", h.HandleListOpen)
}

// RegisterAdmin mounts the administrative session endpoints.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/sessions", h.HandleListAll)
	r.Post("/sessions", h.HandleCreate)
	r.Put("/sessions/{sessionID}", h.HandleUpdate)
}

// HandleListOpen handles GET /sessions/open. The is_expired and is_full
// flags in the response are advisory; registration re-validates server-side.
func (h *Handler) HandleListOpen(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.service.ListOpen(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

// HandleListAll handles GET /admin/sessions.
func (h *Handler) HandleListAll(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.service.ListAll(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

type sessionRequest struct {
	Name     string `json:"name"`
	ExamDate string `json:"exam_date"`
	Capacity int    `json:"capacity"`
	Fee      int64  `json:"fee"`
	Status   string `json:"status"`
}

func (req sessionRequest) toSession() (*examsession.ExamSession, error) {
	examDate, err := time.Parse("2006-01-02", req.ExamDate)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "exam_date must be YYYY-MM-DD")
	}
	session := &examsession.ExamSession{
		Name:     req.Name,
		ExamDate: examDate,
		Capacity: req.Capacity,
		Fee:      req.Fee,
	}
	if req.Status != "" {
		status, err := examsession.ParseStatus(req.Status)
		if err != nil {
			return nil, err
		}
		session.Status = status
	}
	return session, nil
}

// HandleCreate handles POST /admin/sessions.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[sessionRequest](w, r)
	if !ok {
		return
	}

	session, err := req.toSession()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	created, err := h.service.Create(r.Context(), session)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

// HandleUpdate handles PUT /admin/sessions/{sessionID}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseSessionID(chi.URLParam(r, "sessionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.Decode[sessionRequest](w, r)
	if !ok {
		return
	}

	session, err := req.toSession()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	session.ID = id

	updated, err := h.service.Update(r.Context(), session)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}
