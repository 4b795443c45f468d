package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"signet/internal/evaluation"
	"signet/internal/storage"
	dErrors "signet/pkg/domain-errors"
	"signet/pkg/platform/httputil"
	"signet/pkg/requestcontext"
)

// Service defines the engine operations the HTTP layer needs.
type Service interface {
	Evaluate(ctx context.Context, clientID string, req evaluation.EvaluationRequest) (*evaluation.EvaluationResponse, error)
}

// Handler wires engine endpoints to the engine service.
type Handler struct {
	service Service
	store   storage.DataStore
	logger  *slog.Logger
}

// New constructs an engine handler with its dependencies.
func New(service Service, store storage.DataStore, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		store:   store,
		logger:  logger,
	}
}

// Register mounts engine endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/evaluations", h.HandleEvaluate)
	r.Post("/v1/data", h.HandleSaveData)
}

// HandleEvaluate handles POST /v1/evaluations requests.
func (h *Handler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	clientID := clientIDFrom(r)
	if clientID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "x-client-id header is required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[EvaluateRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	response, err := h.service.Evaluate(ctx, clientID, req.EvaluationRequest)
	if err != nil {
		if h.logger != nil {
			h.logger.ErrorContext(ctx, "evaluation request failed",
				"client_id", clientID,
				"action", req.Request.Action,
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, EvaluateResponse{
		Decision:    response.Decision.Decision,
		Approvals:   response.Decision.Approvals,
		AccessToken: response.AccessToken,
	})
}

// HandleSaveData handles POST /v1/data requests. It stands in for the
// external data pipeline; payloads are trusted as already verified.
func (h *Handler) HandleSaveData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	clientID := clientIDFrom(r)
	if clientID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "x-client-id header is required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[SaveDataRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	if err := h.store.Save(ctx, clientID, req.DataSet()); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// clientIDFrom prefers the context value set by the request metadata
// middleware and falls back to the raw header for directly mounted handlers.
func clientIDFrom(r *http.Request) string {
	if clientID := requestcontext.ClientID(r.Context()); clientID != "" {
		return clientID
	}
	return r.Header.Get("x-client-id")
}
