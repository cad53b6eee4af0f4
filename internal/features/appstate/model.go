package appstate

import (
	"errors"
	"time"

	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/internal/common/models"
)

var (
	// ErrNotFound is a normal outcome for lookups, not a failure.
	ErrNotFound = errors.New("application state not found")
	// ErrDuplicateSession is returned by final submission when another
	// in-flight application exists for the same phone number.
	ErrDuplicateSession = errors.New("active duplicate session exists for this applicant")
	// ErrValidation covers malformed input to a public operation.
	ErrValidation = errors.New("invalid input")
	// ErrNotImplemented marks reserved operations (linkSessions).
	ErrNotImplemented = errors.New("not implemented")
)

// SaveStateInput carries one step's contribution to a session.
type SaveStateInput struct {
	SessionID      string         `json:"session_id"`
	Channel        string         `json:"channel"`
	UserIdentifier string         `json:"user_identifier"`
	CurrentStep    string         `json:"current_step"`
	FormData       map[string]any `json:"form_data"`
	Metadata       map[string]any `json:"metadata"`
	ClientIP       string         `json:"-"`
}

// DuplicateCheckResult is what checkExistingSession hands back to the
// channel adapter: a possible duplicate to confirm or discard, never an
// auto-merge.
type DuplicateCheckResult struct {
	Duplicate *models.ApplicationState `json:"duplicate,omitempty"`
	Found     bool                     `json:"found"`
}

// AccountOpening is the account-opening record created alongside final
// submission when the applicant asked for a new account.
type AccountOpening struct {
	SessionID      string         `bson:"session_id" json:"session_id"`
	UserIdentifier string         `bson:"user_identifier" json:"user_identifier"`
	Channel        string         `bson:"channel" json:"channel"`
	FormData       map[string]any `bson:"form_data" json:"form_data"`
	CreatedAt      time.Time      `bson:"created_at" json:"created_at"`
}

func validChannel(ch string) bool {
	switch models.Channel(ch) {
	case models.ChannelWeb, models.ChannelWhatsApp, models.ChannelUSSD, models.ChannelMobileApp:
		return true
	}
	return false
}
