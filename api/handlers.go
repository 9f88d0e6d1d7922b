package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.temporal.io/sdk/log"

	"customer-onboarding/journal"
	"customer-onboarding/shared"
)

// maxBodyBytes bounds a request body. Documents arrive base64 encoded inline.
const maxBodyBytes = 64 << 20

// Runner starts and resumes onboarding runs.
type Runner interface {
	Run(ctx context.Context, in shared.OnboardingInput) (*shared.OnboardingResult, error)
	Resume(ctx context.Context, runID string, in shared.OnboardingInput, prior shared.PartialResult) (*shared.OnboardingResult, error)
}

// Handler serves the onboarding routes.
type Handler struct {
	runner Runner
	runs   journal.Reader
	logger log.Logger
}

// NewHandler creates a Handler. A nil logger uses the default slog logger.
func NewHandler(runner Runner, runs journal.Reader, logger log.Logger) *Handler {
	if logger == nil {
		logger = log.NewStructuredLogger(slog.Default())
	}
	return &Handler{runner: runner, runs: runs, logger: logger}
}

type errorResponse struct {
	Error any `json:"error"`
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	result, err := h.runner.Run(r.Context(), in)
	if err != nil {
		h.respondWithRunError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, result)
}

func (h *Handler) handleResume(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	entry, err := h.runs.Get(r.Context(), runID)
	if errors.Is(err, journal.ErrNotFound) {
		respondWithJSON(w, http.StatusNotFound, errorResponse{Error: "onboarding run not found"})
		return
	}
	if err != nil {
		h.logger.Error("Failed to load onboarding run", "runId", runID, "error", err)
		respondWithJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load onboarding run"})
		return
	}
	if entry.Status == journal.StatusCompleted {
		respondWithJSON(w, http.StatusConflict, errorResponse{Error: "onboarding run already completed"})
		return
	}

	in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	result, err := h.runner.Resume(r.Context(), runID, in, entry.Partial)
	if err != nil {
		h.respondWithRunError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	entry, err := h.runs.Get(r.Context(), runID)
	if errors.Is(err, journal.ErrNotFound) {
		respondWithJSON(w, http.StatusNotFound, errorResponse{Error: "onboarding run not found"})
		return
	}
	if err != nil {
		h.logger.Error("Failed to load onboarding run", "runId", runID, "error", err)
		respondWithJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load onboarding run"})
		return
	}
	respondWithJSON(w, http.StatusOK, entry)
}

func (h *Handler) decodeInput(w http.ResponseWriter, r *http.Request) (shared.OnboardingInput, bool) {
	var in shared.OnboardingInput
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondWithJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return in, false
	}
	return in, true
}

// respondWithRunError maps a failed run to 422 when the remote rejected the
// input and 502 for every other failure, including rejected credentials.
func (h *Handler) respondWithRunError(w http.ResponseWriter, err error) {
	var oe *shared.OnboardingError
	if !errors.As(err, &oe) {
		h.logger.Error("Onboarding run failed", "error", err)
		respondWithJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}

	status := http.StatusBadGateway
	if oe.StatusCode >= 400 && oe.StatusCode < 500 &&
		oe.StatusCode != http.StatusUnauthorized && oe.StatusCode != http.StatusForbidden {
		status = http.StatusUnprocessableEntity
	}
	respondWithJSON(w, status, errorResponse{Error: oe})
}

func respondWithJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
