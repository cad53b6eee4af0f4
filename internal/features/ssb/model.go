package ssb

import (
	"errors"

	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/internal/common/models"
)

var (
	// ErrUnknownDecisionOutcome fails closed: an unrecognized response
	// type performs no transition at all.
	ErrUnknownDecisionOutcome = errors.New("unknown SSB decision outcome")
	// ErrInvalidStateForDecision rejects decisioning calls against a
	// state that is not awaiting an SSB decision.
	ErrInvalidStateForDecision = errors.New("application is not in an SSB decisioning step")
	// ErrValidation covers missing required response fields.
	ErrValidation = errors.New("invalid SSB response")
)

// Response types delivered by the SSB (government payroll) decisioning
// back office.
const (
	ResponseApproved           = "approved"
	ResponseInsufficientSalary = "insufficient_salary"
	ResponseInvalidID          = "invalid_id"
	ResponseContractExpiring   = "contract_expiring"
	ResponseRejected           = "rejected"
)

// SSBResponse is the decision payload consumed from the back office.
type SSBResponse struct {
	ResponseType       string `json:"response_type"`
	RecommendedPeriod  int    `json:"recommended_period,omitempty"`
	ContractExpiryDate string `json:"contract_expiry_date,omitempty"`
	ErrorMessage       string `json:"error_message,omitempty"`
	Notes              string `json:"notes,omitempty"`
}

// allowedTransitions is the SSB product's own state machine. Keeping the
// table here, not in a shared enum, is what stops cross-product
// transitions while the stored step stays a plain string.
var allowedTransitions = map[string][]string{
	models.StepInitial:             {models.StepSSBPending},
	models.StepPendingVerification: {models.StepSSBPending},
	models.StepSSBPending: {
		models.StepApproved,
		models.StepRejected,
		models.StepInsufficientSalaryOffer,
		models.StepContractExpiringOffer,
	},
}

func canTransition(from, to string) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
