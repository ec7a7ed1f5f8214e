package onboarding

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"kycgate/internal/platform/middleware"
	"kycgate/internal/transport/http/shared"
	"kycgate/internal/verification"
	dErrors "kycgate/pkg/domainerrors"
)

// ServiceAPI is the interface the handler needs from the onboarding service.
type ServiceAPI interface {
	GetStatus(ctx context.Context, merchantID uuid.UUID) (*verification.Record, error)
	SubmitStep(ctx context.Context, merchantID uuid.UUID, stepNumber int, payload map[string]any) (*verification.Record, error)
}

// Handler is the merchant-facing HTTP layer. It delegates to the service so
// transport concerns stay isolated from the step-gating logic.
type Handler struct {
	service      ServiceAPI
	logger       *slog.Logger
	jwtValidator middleware.JWTValidator
}

func NewHandler(service ServiceAPI, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{service: service, logger: logger, jwtValidator: jwtValidator}
}

// Register mounts the merchant verification routes behind merchant auth.
func (h *Handler) Register(r chi.Router) {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth(h.jwtValidator, middleware.RoleMerchant, h.logger))
	router.Get("/status", h.handleGetStatus)
	router.Post("/submit/{stepNumber}", h.handleSubmitStep)
	r.Mount("/verification", router)
}

func (h *Handler) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	merchantID := middleware.GetAccountID(ctx)
	if merchantID == uuid.Nil {
		h.logger.ErrorContext(ctx, "merchant id missing from context despite auth middleware",
			"request_id", chimw.GetReqID(ctx),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	record, err := h.service.GetStatus(ctx, merchantID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load verification status",
			"request_id", chimw.GetReqID(ctx),
			"merchant_id", merchantID,
			"error", err,
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"verification": record,
	})
}

type submitStepRequest struct {
	Data map[string]any `json:"data"`
}

func (h *Handler) handleSubmitStep(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	merchantID := middleware.GetAccountID(ctx)
	if merchantID == uuid.Nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	stepNumber, err := strconv.Atoi(chi.URLParam(r, "stepNumber"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "step number must be an integer"))
		return
	}

	var req submitStepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid submit step request",
			"request_id", chimw.GetReqID(ctx),
			"error", err,
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	record, err := h.service.SubmitStep(ctx, merchantID, stepNumber, req.Data)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "failed to submit step",
				"request_id", chimw.GetReqID(ctx),
				"merchant_id", merchantID,
				"step", stepNumber,
				"error", err,
			)
		} else {
			h.logger.WarnContext(ctx, "step submission refused",
				"request_id", chimw.GetReqID(ctx),
				"merchant_id", merchantID,
				"step", stepNumber,
				"error", err,
			)
		}
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"verification": record,
	})
}
