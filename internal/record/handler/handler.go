// Package handler is the thin HTTP layer over the record service. It decodes
// requests, delegates, and translates coded errors; business logic stays in
// the service so transport concerns remain isolated.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"attest/internal/compliance"
	"attest/internal/record/models"
	"attest/internal/record/service"
	"attest/pkg/domain"
	dErrors "attest/pkg/domain-errors"
	"attest/pkg/requestcontext"
)

// Service defines the record operations the handler needs.
type Service interface {
	IngestExtractions(ctx context.Context, batch []models.FieldGuess) (service.IngestResult, error)
	UpdateStatus(ctx context.Context, key domain.EntityKey, status models.VerificationStatus, kycStatus *string) error
	Compliance(ctx context.Context, key domain.EntityKey) (compliance.Result, error)
	Summary(ctx context.Context, clientID domain.ClientID) (service.Summary, error)
}

// Handler handles record endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// Register mounts the record routes on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/clients/{clientID}", func(r chi.Router) {
		r.Post("/extractions", h.handleIngest)
		r.Post("/entities/status", h.handleUpdateStatus)
		r.Get("/entities/compliance", h.handleCompliance)
		r.Get("/summary", h.handleSummary)
	})
}

func (h *Handler) clientID(r *http.Request) (domain.ClientID, error) {
	return domain.ParseClientID(chi.URLParam(r, "clientID"))
}

func (h *Handler) handleIngest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientID, err := h.clientID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if len(req.Guesses) == 0 {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "batch contains no guesses"))
		return
	}

	// Shape failures are isolated per entity: a bad guess fails its own
	// entity but the rest of the batch still merges.
	batch := make([]models.FieldGuess, 0, len(req.Guesses))
	failures := make(map[string]string)
	for _, payload := range req.Guesses {
		guess, err := payload.toFieldGuess(clientID)
		if err != nil {
			failures[payload.failureKey(clientID)] = err.Error()
			continue
		}
		batch = append(batch, guess)
	}

	result, err := h.service.IngestExtractions(ctx, batch)
	if err != nil {
		h.logger.ErrorContext(ctx, "extraction batch failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		writeError(w, err)
		return
	}
	for key, mergeErr := range result.Failures {
		failures[key] = mergeErr.Error()
	}

	writeJSON(w, http.StatusOK, ingestResponse{Merged: result.Merged, Failures: failures})
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientID, err := h.clientID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req statusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	key, status, err := parseStatusUpdate(clientID, req)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.UpdateStatus(ctx, key, status, req.KYCStatus); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseStatusUpdate(clientID domain.ClientID, req statusUpdateRequest) (domain.EntityKey, models.VerificationStatus, error) {
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		return domain.EntityKey{}, "", err
	}
	key, err := domain.NewEntityKey(clientID, role, req.Name, req.CompanyName)
	if err != nil {
		return domain.EntityKey{}, "", err
	}
	status, err := models.ParseVerificationStatus(req.Status)
	if err != nil {
		return domain.EntityKey{}, "", err
	}
	return key, status, nil
}

func (h *Handler) handleCompliance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientID, err := h.clientID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	query := r.URL.Query()
	role, err := domain.ParseRole(query.Get("role"))
	if err != nil {
		writeError(w, err)
		return
	}
	key, err := domain.NewEntityKey(clientID, role, query.Get("name"), query.Get("company"))
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.service.Compliance(ctx, key)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientID, err := h.clientID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	summary, err := h.service.Summary(ctx, clientID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
