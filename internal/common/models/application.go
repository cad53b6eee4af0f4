package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Channel is the originating interaction surface for a session.
type Channel string

const (
	ChannelWeb       Channel = "web"
	ChannelWhatsApp  Channel = "whatsapp"
	ChannelUSSD      Channel = "ussd"
	ChannelMobileApp Channel = "mobile_app"
)

// Workflow step vocabulary. The storage field is a plain string on
// purpose; each decisioning service enforces validity through its own
// transition table.
const (
	StepInitial                 = "initial"
	StepLanguage                = "language"
	StepIntent                  = "intent"
	StepPendingVerification     = "pending_verification"
	StepSSBPending              = "ssb_pending"
	StepZBPending               = "zb_pending"
	StepZBVerificationPending   = "zb_verification_pending"
	StepZBApprovalPending       = "zb_approval_pending"
	StepSentForChecks           = "sent_for_checks"
	StepProcessing              = "processing"
	StepApproved                = "approved"
	StepRejected                = "rejected"
	StepCompleted               = "completed"
	StepInsufficientSalaryOffer = "insufficient_salary_offer"
	StepContractExpiringOffer   = "contract_expiring_offer"
)

// TerminalSteps are excluded from active-session queries such as the
// duplicate detector.
var TerminalSteps = []string{StepCompleted, StepApproved, StepRejected}

func IsTerminalStep(step string) bool {
	for _, s := range TerminalSteps {
		if s == step {
			return true
		}
	}
	return false
}

// Workflow type tags stored in metadata.workflow_type.
const (
	WorkflowTypeSSB = "ssb"
	WorkflowTypeZB  = "zb"
)

// StateTransition is an append-only audit entry recorded for every
// accepted step change. Entries are embedded in the parent
// ApplicationState document so the step update and the audit append are
// one atomic write, and a hard delete of the parent takes its trail
// with it.
type StateTransition struct {
	FromStep       string         `bson:"from_step" json:"from_step"`
	ToStep         string         `bson:"to_step" json:"to_step"`
	Channel        string         `bson:"channel" json:"channel"`
	TransitionData map[string]any `bson:"transition_data,omitempty" json:"transition_data,omitempty"`
	CreatedAt      time.Time      `bson:"created_at" json:"created_at"`
}

// ApplicationState is the aggregate root: one in-flight or completed
// loan/account-opening application.
type ApplicationState struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID      string             `bson:"session_id" json:"session_id"`
	Channel        string             `bson:"channel" json:"channel"`
	UserIdentifier string             `bson:"user_identifier" json:"user_identifier"`
	CurrentStep    string             `bson:"current_step" json:"current_step"`

	// FormData holds the business data accumulated across steps and
	// Metadata the out-of-band process data (checker/approver sign-off,
	// workflow_type, submission ip). Both are merged on update, never
	// wholesale-replaced.
	FormData map[string]any `bson:"form_data" json:"form_data"`
	Metadata map[string]any `bson:"metadata" json:"metadata"`

	ReferenceCode          string     `bson:"reference_code,omitempty" json:"reference_code,omitempty"`
	ReferenceCodeExpiresAt *time.Time `bson:"reference_code_expires_at,omitempty" json:"reference_code_expires_at,omitempty"`

	ExpiresAt  time.Time `bson:"expires_at" json:"expires_at"`
	IsArchived bool      `bson:"is_archived" json:"is_archived"`

	Transitions []StateTransition `bson:"transitions,omitempty" json:"transitions,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// HasActiveCode reports whether the state carries a non-expired
// reference code at the given instant.
func (s *ApplicationState) HasActiveCode(now time.Time) bool {
	return s.ReferenceCode != "" && s.ReferenceCodeExpiresAt != nil && s.ReferenceCodeExpiresAt.After(now)
}
