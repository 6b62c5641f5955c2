package models

import (
	"time"

	"gorm.io/gorm"
)

// BaseModel carries the audit timestamps every persisted record shares.
// Timestamps are written in UTC so fine arithmetic and overdue sweeps
// compare against a single reference frame regardless of server locale.
type BaseModel struct {
	CreatedAt time.Time `gorm:"column:created_at;default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

// BeforeCreate stamps both timestamps on insert.
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now
	return nil
}

// BeforeUpdate refreshes the update timestamp.
func (b *BaseModel) BeforeUpdate(tx *gorm.DB) error {
	b.UpdatedAt = time.Now().UTC()
	return nil
}
