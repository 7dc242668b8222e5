package models

import "time"

// CheckoutAttempt maps to the `checkout_attempts` table. One row per
// orchestration session that got past submission.
type CheckoutAttempt struct {
	ID            uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	SessionID     string    `gorm:"column:session_id;size:64;uniqueIndex" json:"session_id"`
	Variant       string    `gorm:"column:variant;size:32" json:"variant"`
	TargetID      string    `gorm:"column:target_id;size:200;index" json:"target_id"`
	TransactionID string    `gorm:"column:transaction_id;size:200;index" json:"transaction_id"`
	Medium        string    `gorm:"column:medium;size:100" json:"medium"`
	Amount        string    `gorm:"column:amount;size:100" json:"amount"`
	TipAmount     string    `gorm:"column:tip_amount;size:100" json:"tip_amount"`
	Status        string    `gorm:"column:status;size:32" json:"status"`
	Reference     string    `gorm:"column:reference;size:200" json:"reference"`
	ExitMode      string    `gorm:"column:exit_mode;size:32" json:"exit_mode"`
	Message       string    `gorm:"column:message;type:text" json:"message"`
	CreatedAt     time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (CheckoutAttempt) TableName() string {
	return "checkout_attempts"
}
