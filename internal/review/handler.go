package review

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

// ServiceAPI is the interface the handler needs from the review service.
type ServiceAPI interface {
	ListPendingRequests(ctx context.Context) ([]PendingRequest, error)
	GetMerchantVerification(ctx context.Context, merchantID uuid.UUID) (*PendingRequest, error)
	ReviewStep(ctx context.Context, adminID, merchantID uuid.UUID, stepNumber int, decision verification.Decision, reason string) (*verification.Record, error)
}

// Handler is the admin-facing HTTP layer for verification review.
type Handler struct {
	service      ServiceAPI
	logger       *slog.Logger
	jwtValidator middleware.JWTValidator
}

func NewHandler(service ServiceAPI, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{service: service, logger: logger, jwtValidator: jwtValidator}
}

// Register mounts the admin verification routes behind admin auth.
func (h *Handler) Register(r chi.Router) {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth(h.jwtValidator, middleware.RoleAdmin, h.logger))
	router.Get("/requests", h.handleListRequests)
	router.Get("/requests/{merchantId}", h.handleGetVerification)
	router.Patch("/verify/{merchantId}/{stepNumber}", h.handleReviewStep)
	r.Mount("/admin/verification", router)
}

func (h *Handler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requests, err := h.service.ListPendingRequests(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list pending requests",
			"request_id", chimw.GetReqID(ctx),
			"error", err,
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"requests": requests,
	})
}

func (h *Handler) handleGetVerification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	merchantID, err := uuid.Parse(chi.URLParam(r, "merchantId"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "merchant id must be a UUID"))
		return
	}

	detail, err := h.service.GetMerchantVerification(ctx, merchantID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "failed to load merchant verification",
				"request_id", chimw.GetReqID(ctx),
				"merchant_id", merchantID,
				"error", err,
			)
		}
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"verification": detail,
	})
}

type reviewStepRequest struct {
	Status          string `json:"status"`
	RejectionReason string `json:"rejectionReason"`
}

func (h *Handler) handleReviewStep(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	adminID := middleware.GetAccountID(ctx)

	merchantID, err := uuid.Parse(chi.URLParam(r, "merchantId"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "merchant id must be a UUID"))
		return
	}
	stepNumber, err := strconv.Atoi(chi.URLParam(r, "stepNumber"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "step number must be an integer"))
		return
	}

	var req reviewStepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid review request",
			"request_id", chimw.GetReqID(ctx),
			"error", err,
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	record, err := h.service.ReviewStep(ctx, adminID, merchantID, stepNumber,
		verification.Decision(req.Status), req.RejectionReason)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "failed to review step",
				"request_id", chimw.GetReqID(ctx),
				"merchant_id", merchantID,
				"step", stepNumber,
				"error", err,
			)
		} else {
			h.logger.WarnContext(ctx, "review refused",
				"request_id", chimw.GetReqID(ctx),
				"merchant_id", merchantID,
				"step", stepNumber,
				"error", err,
			)
		}
		shared.WriteError(w, err)
		return
	}

	message := "step verified"
	if verification.Decision(req.Status) == verification.DecisionRejected {
		message = "step rejected"
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"message":      message,
		"verification": record,
	})
}
