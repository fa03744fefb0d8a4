package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Seller represents a vendor storefront fulfilling order items.
type Seller struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OwnerUserID  uuid.UUID `gorm:"column:owner_user_id;type:uuid;not null;index"`
	Name         string    `gorm:"column:name;not null"`
	ContactEmail string    `gorm:"column:contact_email;not null"`
	ContactPhone *string   `gorm:"column:contact_phone"`
	City         *string   `gorm:"column:city"`
	// CommissionPct is a percentage (15 means the platform keeps 15%).
	CommissionPct decimal.Decimal `gorm:"column:commission_pct;type:numeric(5,2);not null"`
	IsActive      bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
