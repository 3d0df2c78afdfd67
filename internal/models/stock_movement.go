package models

import "time"

type MovementType string

const (
	MovementIn  MovementType = "in"
	MovementOut MovementType = "out"
)

// StockMovement: manual stock adjustment ledger, outside the checkout/return
// flow. Append-only.
type StockMovement struct {
	ID        uint `gorm:"primaryKey"`
	ReagentID uint `gorm:"index;not null"`
	Reagent   Reagent

	Type   MovementType `gorm:"size:10;not null"`
	Amount float64      `gorm:"not null"`
	Unit   string       `gorm:"size:20;not null"`
	Reason *string      `gorm:"size:255"`

	ByUserID   uint   `gorm:"not null"`
	ByUserName string `gorm:"size:100;not null"`

	CreatedAt time.Time `gorm:"index"`
}
