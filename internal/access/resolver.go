// Package access is the single authority for inventory access decisions.
// Handlers and services ask it who may see or manage an inventory; no other
// package duplicates these rules.
package access

import (
	"labstock-backend/internal/auth"
	"labstock-backend/internal/database"
	"labstock-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Actor is the authenticated caller, passed explicitly into every operation.
type Actor struct {
	ID   uint
	Name string
	Role models.UserRole
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// ActorFromCtx builds the Actor from the JWT middleware locals. The display
// name is loaded from the users table so event ledgers can denormalize it.
func ActorFromCtx(c *fiber.Ctx) (Actor, error) {
	userIDVal := c.Locals(auth.CtxUserIDKey)
	userID, ok := userIDVal.(uint)
	if !ok {
		return Actor{}, fiber.NewError(fiber.StatusUnauthorized, "Could not resolve user")
	}

	roleVal := c.Locals(auth.CtxUserRoleKey)
	role, ok := roleVal.(models.UserRole)
	if !ok {
		return Actor{}, fiber.NewError(fiber.StatusForbidden, "Could not resolve role")
	}

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		return Actor{}, fiber.NewError(fiber.StatusUnauthorized, "User no longer exists")
	}

	return Actor{ID: user.ID, Name: user.FullName, Role: role}, nil
}

// CanView reports whether the actor may read the inventory: general and
// public inventories are open, otherwise owner, member or admin.
func CanView(actor Actor, inv *models.Inventory) bool {
	if inv.IsGeneral() || !inv.IsPrivate || actor.IsAdmin() {
		return true
	}
	if inv.OwnerUserID != nil && *inv.OwnerUserID == actor.ID {
		return true
	}
	var count int64
	database.DB.Model(&models.InventoryMember{}).
		Where("inventory_id = ? AND user_id = ?", inv.ID, actor.ID).
		Count(&count)
	return count > 0
}

// CanManage: owner or admin.
func CanManage(actor Actor, inv *models.Inventory) bool {
	if actor.IsAdmin() {
		return true
	}
	return inv.OwnerUserID != nil && *inv.OwnerUserID == actor.ID
}

// CanCreateReagent: owner of the inventory, or admin acting on general.
func CanCreateReagent(actor Actor, inv *models.Inventory) bool {
	if inv.OwnerUserID != nil && *inv.OwnerUserID == actor.ID {
		return true
	}
	return actor.IsAdmin() && inv.IsGeneral()
}

// ResolveInventory maps a requested slug (empty means general) to the
// inventory the actor may act on. It returns a zero ID, never an error, when
// access cannot be established; callers treat a zero ID as "no access".
func ResolveInventory(slug string, actor Actor) (string, uint) {
	s := slug
	if s == "" {
		s = models.GeneralSlug
	}

	var inv models.Inventory
	if err := database.DB.Where("slug = ?", s).First(&inv).Error; err != nil {
		return s, 0
	}
	if !CanView(actor, &inv) {
		// Indistinguishable from not found, by contract.
		return s, 0
	}
	return s, inv.ID
}

// MustResolve is ResolveInventory for handlers that want the full row.
func MustResolve(slug string, actor Actor) (*models.Inventory, error) {
	s, id := ResolveInventory(slug, actor)
	if id == 0 {
		return nil, fiber.NewError(fiber.StatusForbidden, "No access to inventory '"+s+"'")
	}
	var inv models.Inventory
	if err := database.DB.First(&inv, id).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Inventory not found")
	}
	return &inv, nil
}
