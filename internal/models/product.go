package models

import (
	"time"

	"gorm.io/gorm"
)

// Product represents a product in the store. Deleted products keep their row
// (DeletedAt set) so historical order items still resolve.
type Product struct {
	ID         string         `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name       string         `json:"name" gorm:"uniqueIndex;type:varchar(255);not null"`
	Price      Money          `json:"price" gorm:"type:decimal(12,2);not null"`
	Quantity   int            `json:"quantity" gorm:"not null;default:0"`
	CategoryID string         `json:"category_id" gorm:"index;type:varchar(36);not null"`
	Category   *Category      `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
