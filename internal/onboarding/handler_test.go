package onboarding_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"kycgate/internal/audit"
	jwttoken "kycgate/internal/jwt_token"
	"kycgate/internal/onboarding"
	"kycgate/internal/platform/middleware"
	"kycgate/internal/verification"
	"kycgate/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	router     chi.Router
	store      *verification.MemoryStore
	jwtService *jwttoken.JWTService
	merchantID uuid.UUID
	token      string
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.store = verification.NewMemoryStore()
	s.jwtService = jwttoken.NewJWTService("test-signing-key", "kycgate-test")

	publisher := audit.NewPublisher(16, log)
	service := onboarding.NewService(s.store, publisher, nil)
	handler := onboarding.NewHandler(service, log, s.jwtService)

	s.router = chi.NewRouter()
	handler.Register(s.router)

	s.merchantID = uuid.New()
	record := verification.NewRecord(s.merchantID, time.Now())
	s.Require().NoError(s.store.Create(context.Background(), record))

	token, err := s.jwtService.GenerateAccessToken(s.merchantID, middleware.RoleMerchant, time.Hour)
	s.Require().NoError(err)
	s.token = token
}

func (s *HandlerSuite) authorized(req *http.Request) *http.Request {
	req.Header.Set("Authorization", "Bearer "+s.token)
	return req
}

type verificationResponse struct {
	Success      bool                 `json:"success"`
	Verification *verification.Record `json:"verification"`
	Error        string               `json:"error"`
	Message      string               `json:"message"`
}

func (s *HandlerSuite) TestGetStatus() {
	req := s.authorized(testutil.NewJSONRequest(s.T(), http.MethodGet, "/verification/status", nil))
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	resp := testutil.UnmarshalResponse[verificationResponse](s.T(), rr)
	s.True(resp.Success)
	s.Require().NotNil(resp.Verification)
	s.Equal(s.merchantID, resp.Verification.MerchantID)
	s.Len(resp.Verification.Steps, verification.StepCount)
	s.Equal(1, resp.Verification.CurrentStep)
}

func (s *HandlerSuite) TestGetStatusWithoutToken() {
	req := testutil.NewJSONRequest(s.T(), http.MethodGet, "/verification/status", nil)
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)
}

func (s *HandlerSuite) TestGetStatusWithAdminToken() {
	adminToken, err := s.jwtService.GenerateAccessToken(uuid.New(), middleware.RoleAdmin, time.Hour)
	s.Require().NoError(err)

	req := testutil.NewJSONRequest(s.T(), http.MethodGet, "/verification/status", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusForbidden)
}

func (s *HandlerSuite) TestSubmitStep() {
	body := map[string]any{"data": map[string]any{"email": "merchant@example.com"}}
	req := s.authorized(testutil.NewJSONRequest(s.T(), http.MethodPost, "/verification/submit/1", body))
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	resp := testutil.UnmarshalResponse[verificationResponse](s.T(), rr)
	s.Require().NotNil(resp.Verification)
	s.Equal(verification.StepStatusSubmitted, resp.Verification.Steps[0].Status)
	s.Equal(1, resp.Verification.CurrentStep)
}

func (s *HandlerSuite) TestSubmitLockedStep() {
	body := map[string]any{"data": map[string]any{"pan": "ABCDE1234F"}}
	req := s.authorized(testutil.NewJSONRequest(s.T(), http.MethodPost, "/verification/submit/4", body))
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusConflict)
	testutil.AssertJSONContains(s.T(), rr, "success", false)
	testutil.AssertJSONContains(s.T(), rr, "error", "invalid_step_transition")
}

func (s *HandlerSuite) TestSubmitEmptyPayload() {
	body := map[string]any{"data": map[string]any{}}
	req := s.authorized(testutil.NewJSONRequest(s.T(), http.MethodPost, "/verification/submit/1", body))
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
}

func (s *HandlerSuite) TestSubmitNonNumericStep() {
	body := map[string]any{"data": map[string]any{"k": "v"}}
	req := s.authorized(testutil.NewJSONRequest(s.T(), http.MethodPost, "/verification/submit/abc", body))
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
}

func (s *HandlerSuite) TestSubmitOutOfRangeStep() {
	body := map[string]any{"data": map[string]any{"k": "v"}}
	req := s.authorized(testutil.NewJSONRequest(s.T(), http.MethodPost, "/verification/submit/10", body))
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusNotFound)
}
