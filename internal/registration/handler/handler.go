// Package handler exposes the registration lifecycle endpoints: the public
// create and lookup paths, and the administrative transfer, status, and
// delete paths.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"examreg/internal/registration"
	"examreg/pkg/domain"
	dErrors "examreg/pkg/domain-errors"
	"examreg/pkg/platform/httputil"
	"examreg/pkg/requestcontext"
)

// Service is the registration operations boundary.
type Service interface {
	Register(ctx context.Context, req registration.RegisterRequest) (*registration.Details, error)
	Transfer(ctx context.Context, studentID domain.StudentID, from, to domain.SessionID) (*registration.Details, error)
	SetStatus(ctx context.Context, studentID domain.StudentID, sessionID domain.SessionID, status registration.Status) (*registration.Registration, error)
	Delete(ctx context.Context, studentID domain.StudentID, sessionID domain.SessionID) error
	GetForStudent(ctx context.Context, studentID domain.StudentID) ([]registration.Details, error)
	ListBySession(ctx context.Context, sessionID domain.SessionID) ([]registration.Registration, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the public registration endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Post("/registrations", h.HandleCreate)
	r.Get("/students/{studentID}/registrations", h.HandleGetForStudent)
}

// RegisterAdmin mounts the administrative registration endpoints.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/sessions/{sessionID}/registrations", h.HandleListBySession)
	r.Post("/registrations/transfer", h.HandleTransfer)
	r.Put("/registrations/status", h.HandleSetStatus)
	r.Delete("/registrations", h.HandleDelete)
}

type createRequest struct {
	StudentID string `json:"student_id"`
	SessionID string `json:"session_id"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Assertion string `json:"assertion"`
}

// HandleCreate handles POST /registrations.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.Decode[createRequest](w, r)
	if !ok {
		return
	}

	studentID, err := domain.ParseStudentID(req.StudentID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	sessionID, err := domain.ParseSessionID(req.SessionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	details, err := h.service.Register(ctx, registration.RegisterRequest{
		StudentID: studentID,
		SessionID: sessionID,
		Contact:   registration.Contact{Email: req.Email, Phone: req.Phone},
		Assertion: req.Assertion,
	})
	if err != nil {
		h.logger.InfoContext(ctx, "registration refused",
			"request_id", requestcontext.RequestID(ctx),
			"student_id", req.StudentID,
			"error", err,
		)
		if dErrors.HasCode(err, dErrors.CodeAlreadyRegistered) {
			h.writeConflictWithExisting(w, r, studentID, sessionID, err)
			return
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, details)
}

// writeConflictWithExisting returns the registration the student already
// holds alongside the conflict, so the caller can show it instead of a bare
// error.
func (h *Handler) writeConflictWithExisting(w http.ResponseWriter, r *http.Request, studentID domain.StudentID, sessionID domain.SessionID, cause error) {
	existing, err := h.service.GetForStudent(r.Context(), studentID)
	if err == nil {
		for _, d := range existing {
			if d.Registration.SessionID == sessionID {
				httputil.WriteJSON(w, http.StatusConflict, map[string]any{
					"error":             string(dErrors.CodeAlreadyRegistered),
					"error_description": dErrors.MessageOf(cause),
					"existing":          d,
				})
				return
			}
		}
	}
	httputil.WriteError(w, cause)
}

// HandleGetForStudent handles GET /students/{studentID}/registrations.
func (h *Handler) HandleGetForStudent(w http.ResponseWriter, r *http.Request) {
	studentID, err := domain.ParseStudentID(chi.URLParam(r, "studentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	details, err := h.service.GetForStudent(r.Context(), studentID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"registrations": details})
}

// HandleListBySession handles GET /admin/sessions/{sessionID}/registrations.
func (h *Handler) HandleListBySession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := domain.ParseSessionID(chi.URLParam(r, "sessionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	registrations, err := h.service.ListBySession(r.Context(), sessionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"registrations": registrations})
}

type transferRequest struct {
	StudentID     string `json:"student_id"`
	FromSessionID string `json:"from_session_id"`
	ToSessionID   string `json:"to_session_id"`
}

// HandleTransfer handles POST /admin/registrations/transfer.
func (h *Handler) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.Decode[transferRequest](w, r)
	if !ok {
		return
	}

	studentID, err := domain.ParseStudentID(req.StudentID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	from, err := domain.ParseSessionID(req.FromSessionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	to, err := domain.ParseSessionID(req.ToSessionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	details, err := h.service.Transfer(ctx, studentID, from, to)
	if err != nil {
		h.logger.InfoContext(ctx, "transfer refused",
			"request_id", requestcontext.RequestID(ctx),
			"student_id", req.StudentID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, details)
}

type statusRequest struct {
	StudentID string `json:"student_id"`
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
}

// HandleSetStatus handles PUT /admin/registrations/status.
func (h *Handler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[statusRequest](w, r)
	if !ok {
		return
	}

	studentID, err := domain.ParseStudentID(req.StudentID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	sessionID, err := domain.ParseSessionID(req.SessionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	status, err := registration.ParseStatus(req.Status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	updated, err := h.service.SetStatus(r.Context(), studentID, sessionID, status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

type deleteRequest struct {
	StudentID string `json:"student_id"`
	SessionID string `json:"session_id"`
}

// HandleDelete handles DELETE /admin/registrations.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[deleteRequest](w, r)
	if !ok {
		return
	}

	studentID, err := domain.ParseStudentID(req.StudentID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	sessionID, err := domain.ParseSessionID(req.SessionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), studentID, sessionID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
