package models

import "time"

// GeneralSlug is the reserved slug of the shared deployment-wide inventory.
// It is seeded at boot, has no owner row and can never be deleted.
const GeneralSlug = "general"

type Inventory struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:100;not null;unique"`
	Slug        string `gorm:"size:100;not null;uniqueIndex"`
	IsPrivate   bool   `gorm:"not null"`
	OwnerUserID *uint  `gorm:"index"` // nil for general
	Owner       *User  `gorm:"foreignKey:OwnerUserID"`
	InviteCode  string `gorm:"size:64;uniqueIndex;not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (i *Inventory) IsGeneral() bool {
	return i.Slug == GeneralSlug
}
