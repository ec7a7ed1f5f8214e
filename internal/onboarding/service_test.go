package onboarding

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"kycgate/internal/audit"
	"kycgate/internal/verification"
	dErrors "kycgate/pkg/domainerrors"
)

type ServiceSuite struct {
	suite.Suite
	ctx        context.Context
	store      *verification.MemoryStore
	publisher  *audit.Publisher
	service    *Service
	merchantID uuid.UUID
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = verification.NewMemoryStore()
	s.publisher = audit.NewPublisher(16, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.service = NewService(s.store, s.publisher, nil)

	s.merchantID = uuid.New()
	record := verification.NewRecord(s.merchantID, time.Now())
	s.Require().NoError(s.store.Create(s.ctx, record))
}

func (s *ServiceSuite) TestGetStatus() {
	record, err := s.service.GetStatus(s.ctx, s.merchantID)
	s.Require().NoError(err)
	s.Equal(s.merchantID, record.MerchantID)
	s.Equal(1, record.CurrentStep)
}

func (s *ServiceSuite) TestGetStatusUnknownMerchant() {
	_, err := s.service.GetStatus(s.ctx, uuid.New())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestSubmitStep() {
	payload := map[string]any{"email": "merchant@example.com"}

	record, err := s.service.SubmitStep(s.ctx, s.merchantID, 1, payload)
	s.Require().NoError(err)
	s.Equal(verification.StepStatusSubmitted, record.Steps[0].Status)
	s.Equal(payload, record.Steps[0].Data)
	s.Equal(1, record.CurrentStep, "submission must not advance the pointer")

	select {
	case event := <-s.publisher.Inbox():
		s.Equal(audit.ActionStepSubmitted, event.Action)
		s.Equal(s.merchantID, event.MerchantID)
		s.Equal(1, event.StepNumber)
	default:
		s.Fail("expected an audit event for the submission")
	}
}

func (s *ServiceSuite) TestSubmitStepEmptyPayload() {
	_, err := s.service.SubmitStep(s.ctx, s.merchantID, 1, nil)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))

	_, err = s.service.SubmitStep(s.ctx, s.merchantID, 1, map[string]any{})
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *ServiceSuite) TestSubmitLockedStep() {
	_, err := s.service.SubmitStep(s.ctx, s.merchantID, 3, map[string]any{"k": "v"})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidStepTransition))

	// The failed submit must not leak any partial state.
	record, err := s.service.GetStatus(s.ctx, s.merchantID)
	s.Require().NoError(err)
	s.Equal(verification.StepStatusPending, record.Steps[2].Status)
}

func (s *ServiceSuite) TestSubmitVerifiedStepRefused() {
	_, err := s.store.Update(s.ctx, s.merchantID, func(r *verification.Record) error {
		r.ApplySubmission(1, map[string]any{"email": "a@b.c"}, time.Now())
		r.ApplyVerification(1, time.Now())
		return nil
	})
	s.Require().NoError(err)

	_, err = s.service.SubmitStep(s.ctx, s.merchantID, 1, map[string]any{"email": "new@b.c"})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidStepTransition))
}

func (s *ServiceSuite) TestResubmitRejectedStep() {
	_, err := s.store.Update(s.ctx, s.merchantID, func(r *verification.Record) error {
		r.ApplySubmission(1, map[string]any{"email": "a@b.c"}, time.Now())
		r.ApplyRejection(1, "typo in address", time.Now())
		return nil
	})
	s.Require().NoError(err)

	record, err := s.service.SubmitStep(s.ctx, s.merchantID, 1, map[string]any{"email": "fixed@b.c"})
	s.Require().NoError(err)
	s.Equal(verification.StepStatusSubmitted, record.Steps[0].Status)
	s.Equal("typo in address", record.Steps[0].RejectionReason,
		"last reason stays visible until the next decision")
}

func (s *ServiceSuite) TestSubmitUnknownMerchant() {
	_, err := s.service.SubmitStep(s.ctx, uuid.New(), 1, map[string]any{"k": "v"})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
