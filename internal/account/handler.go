package account

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"kycgate/internal/platform/middleware"
	"kycgate/internal/transport/http/shared"
	dErrors "kycgate/pkg/domainerrors"
)

// Handler exposes registration, login, and email verification.
type Handler struct {
	service      *Service
	logger       *slog.Logger
	jwtValidator middleware.JWTValidator
}

func NewHandler(service *Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{service: service, logger: logger, jwtValidator: jwtValidator}
}

// Register mounts the auth routes. Email verification requires a merchant
// token; registration and login are open.
func (h *Handler) Register(r chi.Router) {
	router := chi.NewRouter()
	router.Post("/register", h.handleRegister)
	router.Post("/login", h.handleLogin)
	router.Group(func(gr chi.Router) {
		gr.Use(middleware.RequireAuth(h.jwtValidator, middleware.RoleMerchant, h.logger))
		gr.Post("/verify-email", h.handleVerifyEmail)
	})
	r.Mount("/auth", router)
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	acct, err := h.service.Register(ctx, req.Name, req.Email, req.Phone, req.Password)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "registration failed",
				"request_id", chimw.GetReqID(ctx),
				"error", err,
			)
		}
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"account": acct,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	token, acct, err := h.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "login failed",
				"request_id", chimw.GetReqID(ctx),
				"error", err,
			)
		}
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"token":   token,
		"account": acct,
	})
}

type verifyEmailRequest struct {
	Code string `json:"code"`
}

func (h *Handler) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID := middleware.GetAccountID(ctx)
	if accountID == uuid.Nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	var req verifyEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	record, err := h.service.VerifyEmail(ctx, accountID, req.Code)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "email verification failed",
				"request_id", chimw.GetReqID(ctx),
				"merchant_id", accountID,
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
