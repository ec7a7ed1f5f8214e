package audit

import (
	"time"

	"github.com/google/uuid"
)

// Actions recorded on the onboarding trail.
const (
	ActionStepSubmitted = "step_submitted"
	ActionStepVerified  = "step_verified"
	ActionStepRejected  = "step_rejected"
	ActionRegistered    = "merchant_registered"
)

// Event is emitted from domain logic to capture key onboarding actions. Keep
// it transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID         uuid.UUID `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	ActorID    uuid.UUID `json:"actorId"`
	ActorRole  string    `json:"actorRole"`
	MerchantID uuid.UUID `json:"merchantId"`
	Action     string    `json:"action"`
	StepNumber int       `json:"stepNumber,omitempty"`
	Decision   string    `json:"decision,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	ClientIP   string    `json:"clientIp,omitempty"`
	Device     string    `json:"device,omitempty"`
}
