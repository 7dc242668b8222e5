package orchestrator

import (
	"errors"
	"time"

	"socialpay/internal/checkout"
	"socialpay/internal/models"
	"socialpay/internal/otp"
)

// State of an orchestration session.
type State string

const (
	StateIdle                     State = "idle"
	StateSubmitting               State = "submitting"
	StateAwaitingVerification     State = "awaiting_verification"
	StateAwaitingExternalCheckout State = "awaiting_external_checkout"
	StatePolling                  State = "polling"
	StateSuccess                  State = "success"
	StateFailed                   State = "failed"
	StateClosed                   State = "closed"
)

// polling states are the ones in which status checks run.
func (s State) polling() bool {
	return s == StatePolling || s == StateAwaitingExternalCheckout
}

// Terminal reports an observed outcome.
func (s State) Terminal() bool {
	return s == StateSuccess || s == StateFailed
}

// ExternalMode says how an external checkout surface is presented.
type ExternalMode string

const (
	ExternalNone         ExternalMode = "none"
	ExternalEmbedded     ExternalMode = "embedded"
	ExternalFullRedirect ExternalMode = "full_redirect"
)

// ExternalCheckout is the backend-provided surface the payer interacts with.
type ExternalCheckout struct {
	Mode ExternalMode `json:"mode"`
	URL  string       `json:"url,omitempty"`
}

// ErrorKind separates the ways a session can end in Failed.
type ErrorKind string

const (
	ErrorNone      ErrorKind = ""
	ErrorTransport ErrorKind = "transport"
	ErrorDeclared  ErrorKind = "declared"
	ErrorPayment   ErrorKind = "payment"
)

const (
	transportMessage = "Something went wrong. Please try again."
	declaredMessage  = "The payment could not be processed."
	failedMessage    = "The payment was not completed."
)

var (
	ErrAlreadySubmitted = errors.New("session already submitted")
	ErrSessionClosed    = errors.New("session closed")
	ErrNoVerification   = errors.New("session is not awaiting verification")
	ErrSessionNotFound  = errors.New("session not found")

	errMissingTransaction = errors.New("accepted without transaction id")
)

// DeclaredFailure is a backend answer of success:false.
type DeclaredFailure struct {
	Message string
}

func (e *DeclaredFailure) Error() string {
	return e.Message
}

// Snapshot is a consistent copy of a session's observable state.
type Snapshot struct {
	SessionID     string                    `json:"session_id"`
	Variant       models.FlowVariant        `json:"variant"`
	State         State                     `json:"state"`
	Medium        string                    `json:"medium,omitempty"`
	TransactionID string                    `json:"transaction_id,omitempty"`
	External      ExternalCheckout          `json:"external_checkout"`
	PopupVisible  bool                      `json:"popup_visible"`
	Transaction   *models.Transaction       `json:"transaction,omitempty"`
	ErrorKind     ErrorKind                 `json:"error_kind,omitempty"`
	ErrorMessage  string                    `json:"error_message,omitempty"`
	Validation    *checkout.ValidationError `json:"-"`
	Countdown     int                       `json:"countdown"`
	CountdownFrom int                       `json:"countdown_from"`
	RedirectURL   string                    `json:"redirect_url,omitempty"`
	Redirects     checkout.Redirects        `json:"-"`
	Checks        int                       `json:"checks"`
	LastCheckedAt time.Time                 `json:"last_checked_at"`
	OTP           *otp.Snapshot             `json:"otp,omitempty"`
	Mediums       []models.PaymentMedium    `json:"mediums,omitempty"`
	CreatedAt     time.Time                 `json:"created_at"`
	UpdatedAt     time.Time                 `json:"updated_at"`
}
