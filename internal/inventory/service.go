package inventory

import (
	"errors"
	"strings"

	"labstock-backend/internal/access"
	"labstock-backend/internal/database"
	"labstock-backend/internal/models"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

var (
	ErrNameRequired = errors.New("inventory name is required")
	ErrSlugEmpty    = errors.New("inventory name yields an empty slug")
	ErrNameTaken    = errors.New("inventory name is already in use")
	ErrSlugTaken    = errors.New("inventory slug is already in use")
	ErrSlugReserved = errors.New("inventory slug is reserved")
	ErrOwnerQuota   = errors.New("user already owns an inventory")
	ErrNotOwner     = errors.New("only the owner may do this")
	ErrGeneral      = errors.New("the general inventory cannot be deleted")
	ErrInvalidCode  = errors.New("invalid or unknown invite code")
	ErrNotFound     = errors.New("inventory not found")
)

// Slugify derives a URL-safe slug from a display name: diacritics stripped,
// lowercased, non-alphanumeric runs collapsed to single hyphens. slug.Make
// keeps underscores, which our slugs don't allow, so those are folded too.
func Slugify(name string) string {
	s := slug.Make(name)
	s = strings.ReplaceAll(s, "_", "-")
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	return strings.Trim(s, "-")
}

// Create makes a new inventory owned by the actor. The slug defaults to a
// slugified name. A user may own at most one inventory besides general.
func Create(name, requestedSlug string, isPrivate bool, actor access.Actor) (*models.Inventory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	s := strings.TrimSpace(requestedSlug)
	if s == "" {
		s = Slugify(name)
	} else {
		s = Slugify(s)
	}
	if s == "" {
		return nil, ErrSlugEmpty
	}
	if s == models.GeneralSlug {
		return nil, ErrSlugReserved
	}

	var inv models.Inventory
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var owned int64
		if err := tx.Model(&models.Inventory{}).
			Where("owner_user_id = ?", actor.ID).
			Count(&owned).Error; err != nil {
			return err
		}
		if owned > 0 {
			return ErrOwnerQuota
		}

		var clash int64
		if err := tx.Model(&models.Inventory{}).
			Where("LOWER(name) = LOWER(?)", name).
			Count(&clash).Error; err != nil {
			return err
		}
		if clash > 0 {
			return ErrNameTaken
		}
		if err := tx.Model(&models.Inventory{}).
			Where("slug = ?", s).
			Count(&clash).Error; err != nil {
			return err
		}
		if clash > 0 {
			return ErrSlugTaken
		}

		ownerID := actor.ID
		inv = models.Inventory{
			Name:        name,
			Slug:        s,
			IsPrivate:   isPrivate,
			OwnerUserID: &ownerID,
			InviteCode:  database.NewInviteCode(),
		}
		return tx.Create(&inv).Error
	})
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// RotateInvite regenerates the invite code. Owner or admin only.
func RotateInvite(invSlug string, actor access.Actor) (*models.Inventory, error) {
	var inv models.Inventory
	if err := database.DB.Where("slug = ?", invSlug).First(&inv).Error; err != nil {
		return nil, ErrNotFound
	}
	if !access.CanManage(actor, &inv) {
		return nil, ErrNotOwner
	}

	inv.InviteCode = database.NewInviteCode()
	if err := database.DB.Model(&inv).Update("invite_code", inv.InviteCode).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

// Join grants the actor membership of the inventory matching the invite
// code and returns it. Joining twice is a no-op.
func Join(code string, actor access.Actor) (*models.Inventory, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrInvalidCode
	}

	var inv models.Inventory
	if err := database.DB.Where("invite_code = ?", code).First(&inv).Error; err != nil {
		return nil, ErrInvalidCode
	}

	// Owners and general need no membership row.
	if inv.IsGeneral() || (inv.OwnerUserID != nil && *inv.OwnerUserID == actor.ID) {
		return &inv, nil
	}

	var existing int64
	database.DB.Model(&models.InventoryMember{}).
		Where("inventory_id = ? AND user_id = ?", inv.ID, actor.ID).
		Count(&existing)
	if existing > 0 {
		return &inv, nil
	}

	member := models.InventoryMember{InventoryID: inv.ID, UserID: actor.ID}
	if err := database.DB.Create(&member).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

// Delete removes an inventory together with its reagents, usage events,
// stock movements and memberships. Owner only, never general.
func Delete(invSlug string, actor access.Actor) error {
	var inv models.Inventory
	if err := database.DB.Where("slug = ?", invSlug).First(&inv).Error; err != nil {
		return ErrNotFound
	}
	if inv.IsGeneral() {
		return ErrGeneral
	}
	if inv.OwnerUserID == nil || *inv.OwnerUserID != actor.ID {
		return ErrNotOwner
	}

	return database.DB.Transaction(func(tx *gorm.DB) error {
		var reagentIDs []uint
		if err := tx.Model(&models.Reagent{}).
			Where("inventory_id = ?", inv.ID).
			Pluck("id", &reagentIDs).Error; err != nil {
			return err
		}
		if len(reagentIDs) > 0 {
			if err := tx.Where("reagent_id IN ?", reagentIDs).
				Delete(&models.StockMovement{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("inventory_id = ?", inv.ID).
			Delete(&models.UsageEvent{}).Error; err != nil {
			return err
		}
		if err := tx.Where("inventory_id = ?", inv.ID).
			Delete(&models.Reagent{}).Error; err != nil {
			return err
		}
		if err := tx.Where("inventory_id = ?", inv.ID).
			Delete(&models.InventoryMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(&inv).Error
	})
}

// ListForActor returns the inventories the actor can see: general, public
// ones, owned ones and joined ones. Admins see everything.
func ListForActor(actor access.Actor) ([]models.Inventory, error) {
	var invs []models.Inventory
	q := database.DB.Order("slug asc")
	if !actor.IsAdmin() {
		q = q.Where(
			"slug = ? OR is_private = ? OR owner_user_id = ? OR id IN (?)",
			models.GeneralSlug,
			false,
			actor.ID,
			database.DB.Model(&models.InventoryMember{}).
				Select("inventory_id").
				Where("user_id = ?", actor.ID),
		)
	}
	if err := q.Find(&invs).Error; err != nil {
		return nil, err
	}
	return invs, nil
}
