package models

import "time"

type UsageEventType string

const (
	UsageEventCheckout UsageEventType = "checkout"
	UsageEventReturn   UsageEventType = "return"
)

// UsageEvent: append-only audit record of a checkout or return. Never
// updated or deleted by the application.
type UsageEvent struct {
	ID          uint `gorm:"primaryKey"`
	InventoryID uint `gorm:"index;not null"`
	ReagentID   uint `gorm:"index;not null"`
	Reagent     Reagent

	Type      UsageEventType `gorm:"size:20;not null"`
	ActorID   uint           `gorm:"not null"`
	ActorName string         `gorm:"size:100;not null"` // denormalized display name

	PlannedAmount *float64
	PlannedUnit   *string `gorm:"size:20"`
	ActualAmount  *float64
	ActualUnit    *string `gorm:"size:20"`
	Note          *string `gorm:"size:500"`

	CreatedAt time.Time `gorm:"index"`
}
