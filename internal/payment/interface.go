package payment

import (
	"context"

	"socialpay/internal/models"
)

// Payload is the JSON body of a payment initiation. Keys that are absent are
// not sent at all, which is how optional tip fields stay off the wire.
type Payload map[string]interface{}

// InitiateResult is the common contract of every initiation endpoint.
type InitiateResult struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"socialpay_transaction_id"`
	PaymentURL    string `json:"payment_url,omitempty"`
	Message       string `json:"message,omitempty"`
	OTPToken      string `json:"otp_token,omitempty"`
}

// VerifyResult contains the result of a secondary-code verification.
type VerifyResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Backend defines the remote payment API the checkout talks to.
type Backend interface {
	// ListGateways returns every gateway the backend knows about.
	ListGateways(ctx context.Context) ([]models.Gateway, error)

	// InitiatePayment submits a payment for the given flow variant.
	InitiatePayment(ctx context.Context, variant models.FlowVariant, payload Payload) (*InitiateResult, error)

	// GetTransactionStatus returns the current backend view of a transaction.
	GetTransactionStatus(ctx context.Context, transactionID string) (*models.Transaction, error)

	// GetReceipt returns the receipt details of a transaction.
	GetReceipt(ctx context.Context, transactionID string) (*models.Receipt, error)

	// VerifySecondaryCode checks an OTP against the token issued at initiation.
	VerifySecondaryCode(ctx context.Context, token, code string) (*VerifyResult, error)
}
