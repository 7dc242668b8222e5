package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"socialpay/internal/models"
)

// AttemptRepository stores checkout attempts.
type AttemptRepository struct {
	db *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{db: db}
}

// Record inserts the attempt, or updates the existing row for its session.
func (r *AttemptRepository) Record(ctx context.Context, attempt *models.CheckoutAttempt) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "session_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"transaction_id", "medium", "amount", "tip_amount",
			"status", "reference", "exit_mode", "message", "updated_at",
		}),
	}).Create(attempt).Error
}

// FindAll returns attempts with pagination and search.
func (r *AttemptRepository) FindAll(ctx context.Context, limit, page int, query string) ([]models.CheckoutAttempt, int64, error) {
	var attempts []models.CheckoutAttempt
	var total int64

	db := r.db.WithContext(ctx).Model(&models.CheckoutAttempt{})

	if query != "" {
		search := "%" + query + "%"
		db = db.Where("transaction_id LIKE ? OR target_id LIKE ? OR reference LIKE ?",
			search, search, search)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 50
	}
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit

	if err := db.Limit(limit).Offset(offset).Order("created_at DESC").Find(&attempts).Error; err != nil {
		return nil, 0, err
	}
	return attempts, total, nil
}

// FindByTransactionID returns the attempt for a backend transaction.
func (r *AttemptRepository) FindByTransactionID(ctx context.Context, transactionID string) (*models.CheckoutAttempt, error) {
	var attempt models.CheckoutAttempt
	if err := r.db.WithContext(ctx).Where("transaction_id = ?", transactionID).First(&attempt).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}
