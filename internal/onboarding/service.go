// Package onboarding exposes the merchant-facing side of the KYC workflow:
// reading progress and submitting step data. Admin decisions live in the
// review package; both mutate the same verification record.
package onboarding

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"kycgate/internal/audit"
	"kycgate/internal/device"
	"kycgate/internal/platform/middleware"
	"kycgate/internal/verification"
	"kycgate/internal/verification/metrics"
	dErrors "kycgate/pkg/domainerrors"
	"kycgate/pkg/sentinel"
)

// Service enforces the step-unlock policy and keeps orchestration out of
// handlers.
type Service struct {
	store   verification.Store
	audit   *audit.Publisher
	metrics *metrics.Metrics
}

func NewService(store verification.Store, publisher *audit.Publisher, m *metrics.Metrics) *Service {
	return &Service{store: store, audit: publisher, metrics: m}
}

// GetStatus returns the merchant's full verification record. A missing record
// for an authenticated merchant is an invariant violation (records are created
// at registration), but it is still surfaced as not found.
func (s *Service) GetStatus(ctx context.Context, merchantID uuid.UUID) (*verification.Record, error) {
	record, err := s.store.Get(ctx, merchantID)
	if err != nil {
		return nil, translateStoreError(err)
	}
	return record, nil
}

// SubmitStep records the merchant's payload for a step. Only the step the
// record currently points at, or a previously rejected step, may be submitted;
// everything else fails with an invalid transition. Submission never advances
// the step pointer — only admin verification does.
func (s *Service) SubmitStep(ctx context.Context, merchantID uuid.UUID, stepNumber int, payload map[string]any) (*verification.Record, error) {
	if len(payload) == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "step data is required")
	}

	now := time.Now()
	record, err := s.store.Update(ctx, merchantID, func(r *verification.Record) error {
		if err := r.CanSubmit(stepNumber); err != nil {
			return err
		}
		r.ApplySubmission(stepNumber, payload, now)
		return nil
	})
	s.metrics.ObserveUpdateLatency(time.Since(now))
	if err != nil {
		return nil, translateStoreError(err)
	}

	s.metrics.IncrementSubmission(verification.StepName(stepNumber))
	s.audit.Emit(ctx, audit.Event{
		ActorID:    merchantID,
		ActorRole:  middleware.RoleMerchant,
		MerchantID: merchantID,
		Action:     audit.ActionStepSubmitted,
		StepNumber: stepNumber,
		ClientIP:   middleware.GetClientIP(ctx),
		Device:     device.ParseUserAgent(middleware.GetUserAgent(ctx)),
	})
	return record, nil
}

// translateStoreError maps infrastructure sentinels to domain errors and hides
// everything unexpected behind an internal error.
func translateStoreError(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(dErrors.CodeNotFound, "verification record not found", err)
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(dErrors.CodeInternal, "storage failure", err)
}
