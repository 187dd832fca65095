package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"

	"github.com/formlens/formlens/internal/field"
	"github.com/formlens/formlens/internal/form"
)

// FormService is the slice of the form service the handlers need.
type FormService interface {
	Discover(ctx context.Context, req form.DiscoverRequest) (*form.DiscoverResult, error)
	Overlay(ctx context.Context, req form.OverlayRequest) (*form.OverlayResult, error)
}

// Handler serves the form API routes.
type Handler struct {
	service     FormService
	serviceName string
	version     string
	maxFileSize int64
	logger      *slog.Logger
}

// NewHandler builds the API handler.
func NewHandler(service FormService, serviceName, version string, maxFileSize int64, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service:     service,
		serviceName: serviceName,
		version:     version,
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

// Attach registers the routes.
func (h *Handler) Attach(r chi.Router) {
	r.Get("/health", h.handleHealth)
	r.Post("/v1/discover", h.handleDiscover)
	r.Post("/v1/overlay", h.handleOverlay)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": h.serviceName,
		"version": h.version,
	})
}

// handleDiscover accepts a multipart upload ("file" part) and returns the
// detected field regions plus the presentation schema.
func (h *Handler) handleDiscover(w http.ResponseWriter, r *http.Request) {
	data, declared, filename, err := h.readUpload(r)
	if err != nil {
		h.writeError(w, form.KindInputValidation, err)
		return
	}

	result, err := h.service.Discover(r.Context(), form.DiscoverRequest{
		Data:         data,
		DeclaredType: declared,
		Filename:     filename,
	})
	if err != nil {
		h.writeError(w, form.KindOf(err), err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleOverlay accepts a multipart upload ("file" part), a "values" part
// holding a JSON object of field id to value, and an optional "fields" part
// carrying regions from a previous discovery. It responds with the
// rendered PDF.
func (h *Handler) handleOverlay(w http.ResponseWriter, r *http.Request) {
	data, declared, filename, err := h.readUpload(r)
	if err != nil {
		h.writeError(w, form.KindInputValidation, err)
		return
	}

	var values map[string]any
	if raw := r.FormValue("values"); raw != "" {
		if err := sonic.Unmarshal([]byte(raw), &values); err != nil {
			h.writeError(w, form.KindInputValidation, fmt.Errorf("values must be a JSON object: %w", err))
			return
		}
	}

	var fields []field.Region
	if raw := r.FormValue("fields"); raw != "" {
		if err := sonic.Unmarshal([]byte(raw), &fields); err != nil {
			h.writeError(w, form.KindInputValidation, fmt.Errorf("fields must be a JSON array: %w", err))
			return
		}
	}

	result, err := h.service.Overlay(r.Context(), form.OverlayRequest{
		Data:         data,
		DeclaredType: declared,
		Filename:     filename,
		Fields:       fields,
		Values:       values,
	})
	if err != nil {
		h.writeError(w, form.KindOf(err), err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="filled.pdf"`)
	w.Header().Set("X-Applied-Fields", fmt.Sprintf("%d", result.AppliedFields))
	w.Header().Set("X-Skipped-Fields", fmt.Sprintf("%d", len(result.SkippedFields)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Data)
}

// readUpload extracts the "file" part of a multipart request, enforcing the
// upload size limit.
func (h *Handler) readUpload(r *http.Request) (data []byte, declared, filename string, err error) {
	if h.maxFileSize > 0 {
		r.Body = http.MaxBytesReader(nil, r.Body, h.maxFileSize)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "", "", fmt.Errorf("upload exceeds the %d byte limit", tooLarge.Limit)
		}
		return nil, "", "", fmt.Errorf("multipart upload requires a 'file' part: %w", err)
	}
	defer file.Close()

	data, err = io.ReadAll(file)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "", "", fmt.Errorf("upload exceeds the %d byte limit", tooLarge.Limit)
		}
		return nil, "", "", fmt.Errorf("failed to read upload: %w", err)
	}

	return data, header.Header.Get("Content-Type"), header.Filename, nil
}

func (h *Handler) writeError(w http.ResponseWriter, kind form.Kind, err error) {
	status := http.StatusInternalServerError
	switch kind {
	case form.KindInputValidation:
		status = http.StatusBadRequest
	case form.KindRecognition:
		status = http.StatusServiceUnavailable
	case form.KindOverlayMapping:
		status = http.StatusUnprocessableEntity
	}

	h.logger.Warn("request failed", "kind", string(kind), "status", status, "error", err)
	writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"kind":  string(kind),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := sonic.Marshal(v)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
