package account_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"kycgate/internal/account"
	"kycgate/internal/audit"
	jwttoken "kycgate/internal/jwt_token"
	"kycgate/internal/otp"
	"kycgate/internal/verification"
	"kycgate/pkg/testutil"
)

type captureNotifier struct{ code string }

func (n *captureNotifier) SendOTP(_ context.Context, _, code string) error {
	n.code = code
	return nil
}

type HandlerSuite struct {
	suite.Suite
	router   chi.Router
	notifier *captureNotifier
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	jwtService := jwttoken.NewJWTService("test-signing-key", "kycgate-test")
	publisher := audit.NewPublisher(16, log)
	s.notifier = &captureNotifier{}

	service := account.NewService(account.NewMemoryStore(), verification.NewMemoryStore(),
		otp.NewStore(time.Minute), s.notifier, jwtService, publisher, time.Hour)
	handler := account.NewHandler(service, log, jwtService)

	s.router = chi.NewRouter()
	handler.Register(s.router)
}

type authResponse struct {
	Success      bool                 `json:"success"`
	Token        string               `json:"token"`
	Account      *account.Account     `json:"account"`
	Verification *verification.Record `json:"verification"`
	Error        string               `json:"error"`
}

func (s *HandlerSuite) register() *authResponse {
	body := map[string]any{
		"name":     "Acme Ltd",
		"email":    "ops@acme.example",
		"phone":    "+911234567890",
		"password": "s3cret-pass",
	}
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/auth/register", body))
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	return testutil.UnmarshalResponse[authResponse](s.T(), rr)
}

func (s *HandlerSuite) login() *authResponse {
	body := map[string]any{"email": "ops@acme.example", "password": "s3cret-pass"}
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/auth/login", body))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	return testutil.UnmarshalResponse[authResponse](s.T(), rr)
}

func (s *HandlerSuite) TestRegister() {
	resp := s.register()
	s.True(resp.Success)
	s.Require().NotNil(resp.Account)
	s.Equal("Acme Ltd", resp.Account.Name)
	s.NotEmpty(s.notifier.code, "registration must issue an OTP")
}

func (s *HandlerSuite) TestRegisterDuplicate() {
	s.register()
	body := map[string]any{
		"name":     "Other Co",
		"email":    "ops@acme.example",
		"password": "s3cret-pass",
	}
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/auth/register", body))
	testutil.AssertStatus(s.T(), rr, http.StatusConflict)
}

func (s *HandlerSuite) TestLoginAndVerifyEmail() {
	s.register()
	resp := s.login()
	s.Require().NotEmpty(resp.Token)

	body := map[string]any{"code": s.notifier.code}
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/auth/verify-email", body)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	verified := testutil.UnmarshalResponse[authResponse](s.T(), rr)
	s.Require().NotNil(verified.Verification)
	s.True(verified.Verification.EmailVerified)
	s.Equal(2, verified.Verification.CurrentStep)
}

func (s *HandlerSuite) TestVerifyEmailRequiresToken() {
	s.register()
	body := map[string]any{"code": s.notifier.code}
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/auth/verify-email", body))
	testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)
}

func (s *HandlerSuite) TestLoginWrongPassword() {
	s.register()
	body := map[string]any{"email": "ops@acme.example", "password": "nope"}
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/auth/login", body))
	testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)
}
