// Package handler exposes profile lookup plus the administrative profile
// write and bulk import endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"examreg/internal/importer"
	"examreg/internal/student"
	"examreg/pkg/domain"
	dErrors "examreg/pkg/domain-errors"
	"examreg/pkg/platform/httputil"
	"examreg/pkg/requestcontext"
)

// Service is the profile operations boundary.
type Service interface {
	Lookup(ctx context.Context, rawID string) (*student.Profile, error)
	Upsert(ctx context.Context, profile student.Profile) error
}

// Importer runs a bulk import job.
type Importer interface {
	Import(ctx context.Context, rows []student.Profile) (*importer.Result, error)
}

type Handler struct {
	service  Service
	importer Importer
	logger   *slog.Logger
}

func New(service Service, imp Importer, logger *slog.Logger) *Handler {
	return &Handler{service: service, importer: imp, logger: logger}
}

// Register mounts the public lookup endpoint.
func (h *Handler) Register(r chi.Router) {
	r.Get("/students/{studentID}", h.HandleLookup)
}

// RegisterAdmin mounts the administrative endpoints; the router wraps these
// in the admin token middleware.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Put("/students", h.HandleUpsert)
	r.Post("/students/import", h.HandleImport)
}

// HandleLookup handles GET /students/{studentID}.
func (h *Handler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.Lookup(r.Context(), chi.URLParam(r, "studentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, profile)
}

type upsertRequest struct {
	StudentID string `json:"student_id"`
	FullName  string `json:"full_name"`
	BirthDate string `json:"birth_date"`
	Faculty   string `json:"faculty"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

func (req upsertRequest) toProfile() (student.Profile, error) {
	profile := student.Profile{
		FullName: req.FullName,
		Faculty:  req.Faculty,
		Email:    req.Email,
		Phone:    req.Phone,
	}
	id, err := domain.ParseStudentID(req.StudentID)
	if err != nil {
		return profile, err
	}
	profile.StudentID = id
	if req.BirthDate != "" {
		birthDate, err := time.Parse("2006-01-02", req.BirthDate)
		if err != nil {
			return profile, dErrors.New(dErrors.CodeInvalidInput, "birth_date must be YYYY-MM-DD")
		}
		profile.BirthDate = birthDate
	}
	return profile, nil
}

// HandleUpsert handles PUT /admin/students.
func (h *Handler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.Decode[upsertRequest](w, r)
	if !ok {
		return
	}

	profile, err := req.toProfile()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Upsert(ctx, profile); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type importRequest struct {
	Rows []upsertRequest `json:"rows"`
}

// HandleImport handles POST /admin/students/import. Rows are already-parsed
// records; spreadsheet parsing happens client-side before submission.
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	req, ok := httputil.Decode[importRequest](w, r)
	if !ok {
		return
	}

	rows := make([]student.Profile, 0, len(req.Rows))
	for _, row := range req.Rows {
		profile, err := row.toProfile()
		if err != nil {
			// Malformed rows flow through as rows without a usable id so
			// the pipeline reports them instead of aborting the job.
			profile = student.Profile{FullName: row.FullName}
		}
		rows = append(rows, profile)
	}

	result, err := h.importer.Import(ctx, rows)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "import completed",
		"request_id", requestcontext.RequestID(ctx),
		"actor", requestcontext.AdminActor(ctx),
		"submitted", result.TotalSubmitted,
		"accepted", result.TotalAccepted,
		"failed_batches", len(result.FailedBatches),
		"rejected_rows", len(result.Rejected),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, result)
}
