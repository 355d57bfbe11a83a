package services

import (
	"time"

	"github.com/lyricforge/lyricforge-api/internal/models"
	"gorm.io/gorm"
)

// CreditsService is the credit ledger: it debits before a job starts and
// refunds on every failed outcome. Debits are row-locked so concurrent jobs
// for one user cannot double-spend.
type CreditsService struct {
	db *gorm.DB
}

func NewCreditsService(db *gorm.DB) *CreditsService {
	return &CreditsService{db: db}
}

// GetUserCredits retrieves the current credit balance for a user
func (s *CreditsService) GetUserCredits(userID uint) (*models.UserCredits, error) {
	var credits models.UserCredits
	if err := s.db.Where("user_id = ?", userID).First(&credits).Error; err != nil {
		return nil, err
	}
	return &credits, nil
}

// TryDebit atomically deducts credits if the balance covers the amount.
// It returns false, without deducting, when it does not; callers must not
// start a job in that case. Users with unlimited-credit roles always pass
// and are never deducted.
func (s *CreditsService) TryDebit(userID uint, amount int) (bool, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return false, err
	}
	if models.HasUnlimitedCredits(user.Role) {
		return true, nil
	}

	allowed := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var userCredits models.UserCredits
		if err := tx.Raw("SELECT * FROM user_credits WHERE user_id = ? FOR UPDATE", userID).
			Scan(&userCredits).Error; err != nil {
			return err
		}

		if userCredits.Credits < amount {
			return nil // insufficient: leave the balance untouched
		}

		userCredits.Credits -= amount
		if err := tx.Save(&userCredits).Error; err != nil {
			return err
		}
		allowed = true
		return nil
	})
	return allowed, err
}

// Refund returns a debit after a failed job. The job runner guarantees it
// is called at most once per job; unlimited-credit users were never
// deducted, so for them this is a no-op.
func (s *CreditsService) Refund(userID uint, amount int) error {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return err
	}
	if models.HasUnlimitedCredits(user.Role) {
		return nil
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var userCredits models.UserCredits
		if err := tx.Raw("SELECT * FROM user_credits WHERE user_id = ? FOR UPDATE", userID).
			Scan(&userCredits).Error; err != nil {
			return err
		}
		userCredits.Credits += amount
		return tx.Save(&userCredits).Error
	})
}

// AddCredits adds credits to a user's balance (purchases, admin grants).
func (s *CreditsService) AddCredits(userID uint, credits int) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var userCredits models.UserCredits
		if err := tx.Raw("SELECT * FROM user_credits WHERE user_id = ? FOR UPDATE", userID).
			Scan(&userCredits).Error; err != nil {
			return err
		}
		userCredits.Credits += credits
		return tx.Save(&userCredits).Error
	})
}

// LogUsage logs API usage and credit consumption
func (s *CreditsService) LogUsage(log *models.UsageLog) error {
	return s.db.Create(log).Error
}

// GetUserUsageStats retrieves usage statistics for a user
func (s *CreditsService) GetUserUsageStats(userID uint, from, to time.Time) (*UsageStats, error) {
	var stats UsageStats

	query := s.db.Model(&models.UsageLog{}).Where("user_id = ?", userID)

	if !from.IsZero() {
		query = query.Where("created_at >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("created_at <= ?", to)
	}

	if err := query.Select(
		"COUNT(*) as total_requests",
		"COALESCE(SUM(credits_charged), 0) as total_credits_used",
		"COALESCE(SUM(total_tokens), 0) as total_tokens_used",
		"COALESCE(AVG(duration_ms), 0) as avg_duration_ms",
	).Scan(&stats).Error; err != nil {
		return nil, err
	}

	return &stats, nil
}

type UsageStats struct {
	TotalRequests    int64   `json:"total_requests"`
	TotalTokensUsed  int64   `json:"total_tokens_used"`
	TotalCreditsUsed int64   `json:"total_credits_used"`
	AvgDurationMS    float64 `json:"avg_duration_ms"`
}
