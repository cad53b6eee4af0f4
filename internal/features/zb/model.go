package zb

import (
	"errors"

	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/internal/common/models"
)

var (
	// ErrInvalidStateForDecision rejects decisioning calls against a
	// step outside the pending-decision set.
	ErrInvalidStateForDecision = errors.New("application is not in a ZB decisioning step")
	// ErrCheckerReviewMissing enforces checker-before-approver: no
	// approver identity is recorded until a checker review exists.
	ErrCheckerReviewMissing = errors.New("checker review has not been recorded")
	// ErrAutomatedCheckFailed surfaces a post-approval check failure
	// without mutating the state further.
	ErrAutomatedCheckFailed = errors.New("automated post-approval checks failed")
	// ErrValidation covers missing or malformed decision fields.
	ErrValidation = errors.New("invalid ZB decision input")
)

const (
	installmentYes        = "yes"
	installmentNo         = "no"
	installmentBorderline = "borderline"
)

// CheckerReview is the structured checklist recorded by the first of
// the two human review stages.
type CheckerReview struct {
	DepositConsistent      bool   `json:"deposit_consistent"`
	InstallmentSufficiency string `json:"installment_sufficiency"`
	Notes                  string `json:"notes,omitempty"`
}

func (r CheckerReview) validate() error {
	switch r.InstallmentSufficiency {
	case installmentYes, installmentNo, installmentBorderline:
		return nil
	}
	return ErrValidation
}

// passed reports whether the checklist allows the application to move
// on to the approver. A borderline installment check is escalated, not
// rejected.
func (r CheckerReview) passed() bool {
	return r.DepositConsistent && r.InstallmentSufficiency != installmentNo
}

var pendingDecisionSteps = map[string]bool{
	models.StepZBPending:     true,
	models.StepSentForChecks: true,
	models.StepProcessing:    true,
}

var allowedTransitions = map[string][]string{
	models.StepInitial:             {models.StepZBPending},
	models.StepPendingVerification: {models.StepZBPending},
	models.StepZBPending: {
		models.StepApproved,
		models.StepRejected,
		models.StepInsufficientSalaryOffer,
	},
	models.StepSentForChecks: {
		models.StepApproved,
		models.StepRejected,
		models.StepInsufficientSalaryOffer,
		models.StepProcessing,
		models.StepCompleted,
	},
	models.StepProcessing: {
		models.StepApproved,
		models.StepRejected,
		models.StepInsufficientSalaryOffer,
		models.StepCompleted,
	},
	models.StepZBVerificationPending: {
		models.StepZBApprovalPending,
		models.StepRejected,
	},
	models.StepZBApprovalPending: {
		models.StepApproved,
		models.StepRejected,
	},
	models.StepApproved: {
		models.StepSentForChecks,
		models.StepCompleted,
	},
}

func canTransition(from, to string) bool {
	for _, t := range allowedTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}
