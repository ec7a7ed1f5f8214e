// Package review exposes the admin-facing side of the KYC workflow: the
// pending queue and per-step approve/reject decisions.
package review

import (
	"context"
	"errors"
	"strings"
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

// Identity is the merchant display join used by the review UI.
type Identity struct {
	Name  string `json:"merchantName"`
	Email string `json:"merchantEmail"`
	Phone string `json:"merchantPhone,omitempty"`
}

// IdentityResolver resolves a merchant ID to display fields. The account
// module implements it; the review core never writes account data.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, merchantID uuid.UUID) (Identity, error)
}

// PendingRequest is a verification record joined with merchant identity.
type PendingRequest struct {
	verification.Record
	Identity
}

// Service enforces review transition legality and advances the merchant's
// current step pointer.
type Service struct {
	store    verification.Store
	identity IdentityResolver
	audit    *audit.Publisher
	metrics  *metrics.Metrics
}

func NewService(store verification.Store, identity IdentityResolver, publisher *audit.Publisher, m *metrics.Metrics) *Service {
	return &Service{store: store, identity: identity, audit: publisher, metrics: m}
}

// ListPendingRequests returns every record with at least one submitted step,
// joined with merchant identity. Records whose identity cannot be resolved are
// still listed with blank display fields; the review queue must not hide work
// because the account lookup hiccupped.
func (s *Service) ListPendingRequests(ctx context.Context) ([]PendingRequest, error) {
	records, err := s.store.ListPending(ctx)
	if err != nil {
		return nil, translateStoreError(err)
	}
	requests := make([]PendingRequest, 0, len(records))
	for _, record := range records {
		identity, _ := s.identity.ResolveIdentity(ctx, record.MerchantID)
		requests = append(requests, PendingRequest{Record: *record, Identity: identity})
	}
	return requests, nil
}

// GetMerchantVerification returns the full record plus merchant contact fields
// for the review detail view.
func (s *Service) GetMerchantVerification(ctx context.Context, merchantID uuid.UUID) (*PendingRequest, error) {
	record, err := s.store.Get(ctx, merchantID)
	if err != nil {
		return nil, translateStoreError(err)
	}
	identity, _ := s.identity.ResolveIdentity(ctx, merchantID)
	return &PendingRequest{Record: *record, Identity: identity}, nil
}

// ReviewStep applies an admin decision to a step.
//
// On verified: the step becomes verified, its derived flag flips true, and the
// current step pointer advances by exactly 1 — but only when the verified step
// is the one pointed at and the pointer is below the last step. Completion is
// recomputed afterwards. On rejected: the step returns to the merchant with
// the supplied reason; submitted data is retained for correction.
func (s *Service) ReviewStep(ctx context.Context, adminID, merchantID uuid.UUID, stepNumber int, decision verification.Decision, reason string) (*verification.Record, error) {
	if !decision.Valid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "decision must be verified or rejected")
	}
	if decision == verification.DecisionRejected && strings.TrimSpace(reason) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "rejection reason is required")
	}

	now := time.Now()
	wasCompleted := false
	record, err := s.store.Update(ctx, merchantID, func(r *verification.Record) error {
		wasCompleted = r.KYCCompleted
		if err := r.CanReview(stepNumber, decision); err != nil {
			return err
		}
		if decision == verification.DecisionVerified {
			r.ApplyVerification(stepNumber, now)
		} else {
			r.ApplyRejection(stepNumber, reason, now)
		}
		return nil
	})
	s.metrics.ObserveUpdateLatency(time.Since(now))
	if err != nil {
		return nil, translateStoreError(err)
	}

	s.metrics.IncrementOutcome(string(decision))
	if record.KYCCompleted && !wasCompleted {
		s.metrics.IncrementCompletions()
	}

	action := audit.ActionStepVerified
	if decision == verification.DecisionRejected {
		action = audit.ActionStepRejected
	}
	s.audit.Emit(ctx, audit.Event{
		ActorID:    adminID,
		ActorRole:  middleware.RoleAdmin,
		MerchantID: merchantID,
		Action:     action,
		StepNumber: stepNumber,
		Decision:   string(decision),
		Reason:     reason,
		ClientIP:   middleware.GetClientIP(ctx),
		Device:     device.ParseUserAgent(middleware.GetUserAgent(ctx)),
	})
	return record, nil
}

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
