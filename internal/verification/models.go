package verification

import (
	"time"

	"github.com/google/uuid"

	dErrors "kycgate/pkg/domainerrors"
)

// StepStatus is the per-step state machine:
//
//	pending → submitted → {verified, rejected}
//	rejected → submitted (merchant resubmits)
//
// verified is terminal; no operation moves a verified step to any other state.
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusSubmitted StepStatus = "submitted"
	StepStatusVerified  StepStatus = "verified"
	StepStatusRejected  StepStatus = "rejected"
)

// Decision is an admin review outcome.
type Decision string

const (
	DecisionVerified Decision = "verified"
	DecisionRejected Decision = "rejected"
)

// Valid reports whether the decision is one of the two review outcomes.
func (d Decision) Valid() bool {
	return d == DecisionVerified || d == DecisionRejected
}

// StepCount is the fixed number of onboarding steps. Records always hold
// exactly this many step entries, numbered 1..StepCount, created once and
// never reordered or resized.
const StepCount = 9

// Fixed step numbers. Step 1 (email) is usually satisfied during registration
// and hidden from the onboarding wizard, but still counts toward completion.
const (
	StepEmail = iota + 1
	StepBusinessPAN
	StepBusinessDetails
	StepRegistrationDetails
	StepSignatoryDetails
	StepBankDetails
	StepDocuments
	StepWebsiteDetails
	StepAdditionalDetails
)

// stepCatalog holds the display labels, indexed by stepNumber-1. Labels are
// static and not user-editable.
var stepCatalog = [StepCount]string{
	"Email Verification",
	"Business PAN",
	"Business Details",
	"Registration Details",
	"Signatory Details",
	"Bank Details",
	"Document Upload",
	"Website Details",
	"Additional Details",
}

// StepName returns the catalog label for a step number, or "" if out of range.
func StepName(stepNumber int) string {
	if stepNumber < 1 || stepNumber > StepCount {
		return ""
	}
	return stepCatalog[stepNumber-1]
}

// StepRecord is one step of the onboarding sequence. Data and SubmissionDate
// are mutated only by merchant submission; VerificationDate and
// RejectionReason only by admin review.
type StepRecord struct {
	StepNumber       int            `json:"stepNumber"`
	StepName         string         `json:"stepName"`
	Status           StepStatus     `json:"status"`
	Data             map[string]any `json:"data,omitempty"`
	SubmissionDate   *time.Time     `json:"submissionDate,omitempty"`
	VerificationDate *time.Time     `json:"verificationDate,omitempty"`
	RejectionReason  string         `json:"rejectionReason,omitempty"`
}

// Record is the aggregate root for one merchant's KYC progress.
//
// Invariants:
//   - Steps always holds exactly StepCount entries, numbered {1..9}, in order
//   - CurrentStep only advances forward, by exactly 1, and only when the step
//     verified was the step it pointed at
//   - KYCCompleted is recomputed as "all steps verified", never toggled
//     independently, and monotonic under normal operation
type Record struct {
	MerchantID  uuid.UUID    `json:"merchantId"`
	Steps       []StepRecord `json:"steps"`
	CurrentStep int          `json:"currentStep"`

	// Derived per-step flags, true exactly when the matching step is verified.
	EmailVerified               bool `json:"emailVerified"`
	BusinessPANVerified         bool `json:"businessPanVerified"`
	BusinessDetailsVerified     bool `json:"businessDetailsVerified"`
	RegistrationDetailsVerified bool `json:"registrationDetailsVerified"`
	SignatoryDetailsVerified    bool `json:"signatoryDetailsVerified"`
	BankDetailsVerified         bool `json:"bankDetailsVerified"`
	DocumentsUploaded           bool `json:"documentsUploaded"`
	WebsiteDetailsVerified      bool `json:"websiteDetailsVerified"`
	AdditionalDetailsVerified   bool `json:"additionalDetailsVerified"`

	KYCCompleted bool `json:"kycCompleted"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewRecord creates the verification record for a freshly registered merchant:
// all steps pending, pointer at step 1.
func NewRecord(merchantID uuid.UUID, now time.Time) *Record {
	steps := make([]StepRecord, StepCount)
	for i := range steps {
		steps[i] = StepRecord{
			StepNumber: i + 1,
			StepName:   stepCatalog[i],
			Status:     StepStatusPending,
		}
	}
	return &Record{
		MerchantID:  merchantID,
		Steps:       steps,
		CurrentStep: 1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Step returns a pointer into Steps for the given step number.
func (r *Record) Step(stepNumber int) (*StepRecord, error) {
	if stepNumber < 1 || stepNumber > len(r.Steps) {
		return nil, dErrors.New(dErrors.CodeNotFound, "verification step not found")
	}
	return &r.Steps[stepNumber-1], nil
}

// CanSubmit checks whether the merchant may submit data for the step. Only the
// step currently pointed at, or a previously rejected step, is unlocked; a
// verified step is terminal.
func (r *Record) CanSubmit(stepNumber int) error {
	step, err := r.Step(stepNumber)
	if err != nil {
		return err
	}
	if step.Status == StepStatusVerified {
		return dErrors.New(dErrors.CodeInvalidStepTransition, "step is already verified")
	}
	if stepNumber != r.CurrentStep && step.Status != StepStatusRejected {
		return dErrors.New(dErrors.CodeInvalidStepTransition, "step is not yet unlocked")
	}
	return nil
}

// ApplySubmission records the merchant's payload for the step. The previous
// rejection reason is kept so the merchant can still read it until the next
// admin decision. Call CanSubmit first.
func (r *Record) ApplySubmission(stepNumber int, data map[string]any, now time.Time) {
	step := &r.Steps[stepNumber-1]
	step.Data = data
	step.Status = StepStatusSubmitted
	step.SubmissionDate = &now
	r.UpdatedAt = now
}

// CanReview checks whether an admin may apply the decision to the step.
// A verified step is terminal for both outcomes, and a step that was never
// submitted has nothing to reject.
func (r *Record) CanReview(stepNumber int, decision Decision) error {
	step, err := r.Step(stepNumber)
	if err != nil {
		return err
	}
	if step.Status == StepStatusVerified {
		return dErrors.New(dErrors.CodeInvalidStepTransition, "step is already verified")
	}
	if decision == DecisionRejected && step.Status == StepStatusPending {
		return dErrors.New(dErrors.CodeInvalidStepTransition, "step has no submission to reject")
	}
	return nil
}

// ApplyVerification marks the step verified and advances the pointer when the
// verified step is the one it points at. Verifying a step ahead of (or behind)
// CurrentStep sets the flag but leaves the pointer alone. Call CanReview first.
func (r *Record) ApplyVerification(stepNumber int, now time.Time) {
	step := &r.Steps[stepNumber-1]
	step.Status = StepStatusVerified
	step.VerificationDate = &now
	if r.CurrentStep == stepNumber && r.CurrentStep < StepCount {
		r.CurrentStep++
	}
	r.recompute()
	r.UpdatedAt = now
}

// ApplyRejection marks the step rejected, returning control to the merchant.
// Submitted data is retained so the prior input stays visible for correction.
// Call CanReview first.
func (r *Record) ApplyRejection(stepNumber int, reason string, now time.Time) {
	step := &r.Steps[stepNumber-1]
	step.Status = StepStatusRejected
	step.RejectionReason = reason
	r.UpdatedAt = now
}

// HasSubmittedStep reports whether any step awaits admin review.
func (r *Record) HasSubmittedStep() bool {
	for i := range r.Steps {
		if r.Steps[i].Status == StepStatusSubmitted {
			return true
		}
	}
	return false
}

// recompute refreshes the derived per-step flags and the completion flag from
// step statuses. Flags are never toggled independently.
func (r *Record) recompute() {
	flags := [StepCount]*bool{
		&r.EmailVerified,
		&r.BusinessPANVerified,
		&r.BusinessDetailsVerified,
		&r.RegistrationDetailsVerified,
		&r.SignatoryDetailsVerified,
		&r.BankDetailsVerified,
		&r.DocumentsUploaded,
		&r.WebsiteDetailsVerified,
		&r.AdditionalDetailsVerified,
	}
	completed := true
	for i := range r.Steps {
		verified := r.Steps[i].Status == StepStatusVerified
		*flags[i] = verified
		if !verified {
			completed = false
		}
	}
	r.KYCCompleted = completed
}

// Recompute re-derives the flags from step statuses. Stores call this after
// loading a record so derived state never drifts from the steps themselves.
func (r *Record) Recompute() { r.recompute() }

// Clone returns a deep copy so in-memory stores never hand out aliased state.
func (r *Record) Clone() *Record {
	dup := *r
	dup.Steps = make([]StepRecord, len(r.Steps))
	copy(dup.Steps, r.Steps)
	for i := range dup.Steps {
		if r.Steps[i].Data != nil {
			data := make(map[string]any, len(r.Steps[i].Data))
			for k, v := range r.Steps[i].Data {
				data[k] = v
			}
			dup.Steps[i].Data = data
		}
	}
	return &dup
}
