// Package handler exposes the code issuance and verification endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"examreg/pkg/platform/httputil"
	"examreg/pkg/requestcontext"
)

// Service is the OTP operations boundary.
type Service interface {
	Issue(ctx context.Context, address string) error
	Verify(ctx context.Context, address, code string) (string, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the verification endpoints on the public router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/registrations/send-otp", h.HandleSend)
	r.Post("/registrations/verify-otp", h.HandleVerify)
}

type sendRequest struct {
	Email string `json:"email"`
}

type verifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type verifyResponse struct {
	Assertion string `json:"assertion"`
}

// HandleSend handles POST /registrations/send-otp.
func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.Decode[sendRequest](w, r)
	if !ok {
		return
	}

	if err := h.service.Issue(ctx, req.Email); err != nil {
		h.logger.WarnContext(ctx, "code issuance refused",
			"request_id", requestcontext.RequestID(ctx), "error", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

// HandleVerify handles POST /registrations/verify-otp. On success the body
// carries the assertion the client must present when registering.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.Decode[verifyRequest](w, r)
	if !ok {
		return
	}

	assertion, err := h.service.Verify(ctx, req.Email, req.Code)
	if err != nil {
		h.logger.InfoContext(ctx, "code verification failed",
			"request_id", requestcontext.RequestID(ctx), "error", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, verifyResponse{Assertion: assertion})
}
