// Package webhook receives job completion notifications over HTTP.
package webhook

import (
	"context"
	"io"
	"net/http"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"flixcloud/internal/core/domain"
	"flixcloud/internal/service"
)

// MaxBodyBytes caps the size of an inbound notification.
const MaxBodyBytes = 1 << 20

// RequestBody implements ports.BodySource for one inbound HTTP request.
type RequestBody struct {
	r *http.Request
	w http.ResponseWriter
}

// NewRequestBody wraps r. w is used to signal an oversized body to the server.
func NewRequestBody(w http.ResponseWriter, r *http.Request) *RequestBody {
	return &RequestBody{r: r, w: w}
}

// ReadBody reads at most MaxBodyBytes of the request body.
func (b *RequestBody) ReadBody(ctx context.Context) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(b.w, b.r.Body, MaxBodyBytes))
	if err != nil {
		return nil, errors.Wrap(err, "read request body")
	}
	return data, nil
}

// Callbacks is a dispatch on notification state. Nil callbacks are skipped.
// Other receives any state outside the three known ones.
type Callbacks struct {
	Successful func(ctx context.Context, n *domain.JobNotification) error
	Cancelled  func(ctx context.Context, n *domain.JobNotification) error
	Failed     func(ctx context.Context, n *domain.JobNotification) error
	Other      func(ctx context.Context, n *domain.JobNotification) error
}

// Dispatch calls the callback matching n.State.
func (c Callbacks) Dispatch(ctx context.Context, n *domain.JobNotification) error {
	var fn func(context.Context, *domain.JobNotification) error
	switch n.State {
	case domain.StateSuccessful:
		fn = c.Successful
	case domain.StateCancelled:
		fn = c.Cancelled
	case domain.StateFailed:
		fn = c.Failed
	default:
		fn = c.Other
	}
	if fn == nil {
		return nil
	}
	return fn(ctx, n)
}

// PayloadArchive stores raw notification bodies.
type PayloadArchive interface {
	SavePayload(ctx context.Context, jobID string, data []byte) (string, error)
}

// Handler is an http.Handler for the notification URL configured at the service.
// Each delivery is handled on its own; no state is shared between requests.
type Handler struct {
	callbacks Callbacks
	archive   PayloadArchive
	logger    *zap.SugaredLogger
}

// NewHandler creates a new Handler. A nil logger discards output.
func NewHandler(callbacks Callbacks, logger *zap.SugaredLogger) *Handler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Handler{callbacks: callbacks, logger: logger}
}

// WithArchive makes h save every body it reads, malformed ones included.
func (h *Handler) WithArchive(archive PayloadArchive) *Handler {
	h.archive = archive
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	raw, err := NewRequestBody(w, r).ReadBody(r.Context())
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "notification too large", http.StatusRequestEntityTooLarge)
		} else {
			http.Error(w, "could not read notification", http.StatusBadRequest)
		}
		h.logger.Warnw("rejected notification", "remote", r.RemoteAddr, "error", err)
		return
	}

	n, err := service.ParseNotification(raw)
	h.save(r.Context(), n, raw)
	if err != nil {
		http.Error(w, "malformed notification", http.StatusBadRequest)
		h.logger.Warnw("rejected notification", "remote", r.RemoteAddr, "error", err)
		return
	}

	h.logger.Infow("notification received", "job_id", n.ID, "state", n.State, "recipe_id", n.RecipeID)

	if err := h.callbacks.Dispatch(r.Context(), n); err != nil {
		h.logger.Errorw("notification callback failed", "job_id", n.ID, "state", n.State, "error", err)
		http.Error(w, "notification not processed", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) save(ctx context.Context, n *domain.JobNotification, raw []byte) {
	if h.archive == nil {
		return
	}
	jobID := ""
	if n != nil {
		jobID = n.ID
	}
	path, err := h.archive.SavePayload(ctx, jobID, raw)
	if err != nil {
		h.logger.Warnw("failed to archive notification", "job_id", jobID, "error", err)
		return
	}
	h.logger.Debugw("archived notification", "job_id", jobID, "path", path)
}
