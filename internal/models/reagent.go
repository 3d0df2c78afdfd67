package models

import "time"

type Reagent struct {
	ID          uint `gorm:"primaryKey"`
	InventoryID uint `gorm:"index;not null"`
	Inventory   Inventory

	Name     string  `gorm:"size:255;not null;index"`
	Synonyms *string `gorm:"size:500"`
	CAS      *string `gorm:"size:64;index"`
	Code     *string `gorm:"size:100"`
	Smiles   *string `gorm:"type:text"`
	Category string  `gorm:"size:50;not null;default:organico"`

	Quantity float64 `gorm:"not null;default:0"` // current stock, in Unit
	Unit     string  `gorm:"size:20;not null"`   // g, mg, kg, L, mL, uL
	MinStock float64 `gorm:"not null;default:0"`

	Location    *string `gorm:"size:100"`
	Sublocation *string `gorm:"size:100"`
	Type        *string `gorm:"size:50"`
	Vendor      *string `gorm:"size:100"`
	CatalogCode *string `gorm:"size:100"`
	Lot         *string `gorm:"size:100"`
	Purity      *string `gorm:"size:50"`

	Appearance    *string  `gorm:"size:255"`
	Density       *float64 // g/mL
	BoilingPointC *float64
	MeltingPointC *float64

	Keywords     *string `gorm:"size:500"` // comma separated
	Observations *string `gorm:"type:text"`
	HazardCodes  *string `gorm:"size:255"`
	State        *string `gorm:"size:50"` // solid / liquid / gas
	Status       *string `gorm:"size:50"`
	OpenedAt     *time.Time
	ExpiresAt    *time.Time

	// Usage state. A reagent is either available or checked out by exactly
	// one user; the open checkout's details live inline so listing pages
	// don't need to join the event history.
	InUse            bool `gorm:"not null;default:false;index"`
	CheckedOutByID   *uint
	CheckedOutByName *string `gorm:"size:100"`
	CheckedOutAt     *time.Time
	PlannedAmount    *float64
	PlannedUnit      *string `gorm:"size:20"`
	CheckoutNote     *string `gorm:"size:500"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
