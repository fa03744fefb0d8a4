package models

import (
	"time"

	"github.com/google/uuid"
)

// Address is a stored delivery address owned by a user.
type Address struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index"`
	Label     string     `gorm:"column:label;not null"`
	Recipient string     `gorm:"column:recipient;not null"`
	Phone     *string    `gorm:"column:phone"`
	Street    string     `gorm:"column:street;not null"`
	Landmark  *string    `gorm:"column:landmark"`
	City      string     `gorm:"column:city;not null"`
	State     string     `gorm:"column:state;not null"`
	Pincode   string     `gorm:"column:pincode;not null"`
	IsDefault bool       `gorm:"column:is_default;not null;default:false"`
	DeletedAt *time.Time `gorm:"column:deleted_at;index"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
