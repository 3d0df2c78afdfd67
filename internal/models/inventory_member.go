package models

import "time"

// InventoryMember: membership granted by joining with an invite code.
// Ownership and access to general are implicit and not stored here.
type InventoryMember struct {
	ID          uint `gorm:"primaryKey"`
	InventoryID uint `gorm:"index:idx_member_inv_user,unique;not null"`
	Inventory   Inventory
	UserID      uint `gorm:"index:idx_member_inv_user,unique;not null"`
	User        User
	CreatedAt   time.Time
}
