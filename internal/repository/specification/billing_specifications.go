package specification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"plugin-billing-be/internal/entity"
)

// BySubscriptionID filters billing records for one subscription
type BySubscriptionID struct {
	SubscriptionID uuid.UUID
}

func (s BySubscriptionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("subscription_id = ?", s.SubscriptionID)
}

// BillingPastDue selects pending billings whose due date has passed.
type BillingPastDue struct {
	Now time.Time
}

func (s BillingPastDue) Apply(db *gorm.DB) *gorm.DB {
	return db.
		Where("status = ?", string(entity.BillingStatusPending)).
		Where("due_date < ?", s.Now)
}
