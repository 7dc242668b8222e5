package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus is owned by the backend; the client only observes it.
type TransactionStatus string

const (
	TransactionPending TransactionStatus = "PENDING"
	TransactionSuccess TransactionStatus = "SUCCESS"
	TransactionFailed  TransactionStatus = "FAILED"
)

// Terminal reports whether no further transition can happen.
func (s TransactionStatus) Terminal() bool {
	return s == TransactionSuccess || s == TransactionFailed
}

// Transaction is the read-only view returned by the status endpoint.
type Transaction struct {
	ID        string            `json:"id"`
	Status    TransactionStatus `json:"status"`
	Reference string            `json:"reference"`
	Amount    decimal.Decimal   `json:"amount"`
	FeeAmount decimal.Decimal   `json:"fee_amount"`
	Currency  string            `json:"currency"`
	Medium    string            `json:"medium"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Receipt holds what the receipt view renders.
type Receipt struct {
	TransactionID string            `json:"transaction_id"`
	Reference     string            `json:"reference"`
	Status        TransactionStatus `json:"status"`
	Amount        decimal.Decimal   `json:"amount"`
	FeeAmount     decimal.Decimal   `json:"fee_amount"`
	TotalAmount   decimal.Decimal   `json:"total_amount"`
	TipAmount     decimal.Decimal   `json:"tip_amount"`
	Currency      string            `json:"currency"`
	Medium        string            `json:"medium"`
	PayerPhone    string            `json:"payer_phone"`
	MerchantName  string            `json:"merchant_name"`
	Description   string            `json:"description"`
	CreatedAt     time.Time         `json:"created_at"`
}
