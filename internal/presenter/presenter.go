package presenter

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"socialpay/internal/checkout"
	"socialpay/internal/orchestrator"
	"socialpay/internal/otp"
)

// Phase is what the payer is looking at.
type Phase string

const (
	PhaseForm         Phase = "form"
	PhaseProcessing   Phase = "processing"
	PhaseVerification Phase = "verification"
	PhaseExternal     Phase = "external"
	PhasePending      Phase = "pending"
	PhaseSuccess      Phase = "success"
	PhaseFailed       Phase = "failed"
	PhaseClosed       Phase = "closed"
)

// Countdown is the auto-redirect timer. Progress runs from 1 down to 0.
type Countdown struct {
	Remaining int     `json:"remaining"`
	Total     int     `json:"total"`
	Progress  float64 `json:"progress"`
}

// Amounts are rendered as fixed two-decimal strings.
type Amounts struct {
	Amount   string `json:"amount"`
	Fee      string `json:"fee"`
	Total    string `json:"total"`
	Currency string `json:"currency,omitempty"`
}

// View is the renderable form of a session snapshot.
type View struct {
	SessionID     string                         `json:"session_id"`
	Phase         Phase                          `json:"phase"`
	Title         string                         `json:"title"`
	Message       string                         `json:"message,omitempty"`
	TransactionID string                         `json:"transaction_id,omitempty"`
	Reference     string                         `json:"reference,omitempty"`
	Amounts       *Amounts                       `json:"amounts,omitempty"`
	ReceiptURL    string                         `json:"receipt_url,omitempty"`
	Countdown     *Countdown                     `json:"countdown,omitempty"`
	External      *orchestrator.ExternalCheckout `json:"external_checkout,omitempty"`
	RedirectURL   string                         `json:"redirect_url,omitempty"`
	FieldErrors   map[string]string              `json:"field_errors,omitempty"`
	OTP           *otp.Snapshot                  `json:"otp,omitempty"`
	CanDismiss    bool                           `json:"can_dismiss"`
}

var fieldMessages = map[checkout.ValidationKind]string{
	checkout.MissingAmount: "Enter an amount greater than zero.",
	checkout.MissingMedium: "Choose a payment method.",
	checkout.InvalidPhone:  "Enter a valid phone number.",
}

// Render is a pure function of the snapshot. receiptURL is a format string
// taking the transaction id; an empty template disables the receipt action.
func Render(s orchestrator.Snapshot, receiptURL string) View {
	v := View{
		SessionID:     s.SessionID,
		TransactionID: s.TransactionID,
		RedirectURL:   s.RedirectURL,
	}

	switch s.State {
	case orchestrator.StateIdle:
		v.Phase = PhaseForm
		v.Title = "Payment details"
		if s.Validation != nil {
			v.FieldErrors = map[string]string{s.Validation.Field: fieldMessages[s.Validation.Kind]}
		}
	case orchestrator.StateSubmitting:
		v.Phase = PhaseProcessing
		v.Title = "Processing payment"
	case orchestrator.StateAwaitingVerification:
		v.Phase = PhaseVerification
		v.Title = "Enter verification code"
		v.Message = "We sent a 6-digit code to your phone."
		v.OTP = s.OTP
	case orchestrator.StateAwaitingExternalCheckout:
		v.Phase = PhaseExternal
		v.Title = "Complete your payment"
		v.Message = "Follow the instructions in the payment window."
	case orchestrator.StatePolling:
		v.Phase = PhasePending
		v.Title = "Waiting for confirmation"
		v.Message = "Confirm the payment on your phone. This page updates automatically."
	case orchestrator.StateSuccess:
		v.Phase = PhaseSuccess
		v.Title = "Payment successful"
		if receiptURL != "" && s.TransactionID != "" {
			v.ReceiptURL = fmt.Sprintf(receiptURL, s.TransactionID)
		}
	case orchestrator.StateFailed:
		v.Phase = PhaseFailed
		v.Title = "Payment failed"
		v.Message = s.ErrorMessage
	case orchestrator.StateClosed:
		v.Phase = PhaseClosed
		v.Title = "Checkout closed"
	}

	if s.External.Mode == orchestrator.ExternalEmbedded && s.PopupVisible {
		ext := s.External
		v.External = &ext
	}
	if s.External.Mode == orchestrator.ExternalFullRedirect {
		ext := s.External
		v.External = &ext
		v.Message = "Redirecting to your bank."
	}

	if tx := s.Transaction; tx != nil {
		v.Reference = tx.Reference
		if !tx.Amount.IsZero() {
			v.Amounts = &Amounts{
				Amount:   tx.Amount.StringFixed(2),
				Fee:      tx.FeeAmount.StringFixed(2),
				Total:    tx.Amount.Add(tx.FeeAmount).StringFixed(2),
				Currency: strings.ToUpper(tx.Currency),
			}
		}
	}

	if s.State.Terminal() && s.CountdownFrom > 0 && s.Countdown > 0 {
		v.Countdown = &Countdown{
			Remaining: s.Countdown,
			Total:     s.CountdownFrom,
			Progress:  progress(s.Countdown, s.CountdownFrom),
		}
	}

	v.CanDismiss = s.State != orchestrator.StateSubmitting && s.State != orchestrator.StateClosed
	return v
}

func progress(remaining, total int) float64 {
	p, _ := decimal.NewFromInt(int64(remaining)).
		DivRound(decimal.NewFromInt(int64(total)), 4).
		Float64()
	return p
}
