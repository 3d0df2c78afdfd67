package inventory

import (
	"errors"

	"labstock-backend/internal/access"
	"labstock-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CreateInventoryRequest struct {
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	IsPrivate bool   `json:"is_private"`
}

type JoinInventoryRequest struct {
	Code string `json:"code"`
}

type InventoryResponse struct {
	ID         uint   `json:"id"`
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	IsPrivate  bool   `json:"is_private"`
	IsOwner    bool   `json:"is_owner"`
	InviteCode string `json:"invite_code,omitempty"` // only for managers
	CreatedAt  string `json:"created_at"`
}

func toResponse(inv *models.Inventory, actor access.Actor) InventoryResponse {
	res := InventoryResponse{
		ID:        inv.ID,
		Name:      inv.Name,
		Slug:      inv.Slug,
		IsPrivate: inv.IsPrivate,
		IsOwner:   inv.OwnerUserID != nil && *inv.OwnerUserID == actor.ID,
		CreatedAt: inv.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if access.CanManage(actor, inv) {
		res.InviteCode = inv.InviteCode
	}
	return res
}

func serviceError(err error) error {
	switch {
	case errors.Is(err, ErrNameRequired):
		return fiber.NewError(fiber.StatusBadRequest, "Name is required")
	case errors.Is(err, ErrSlugEmpty):
		return fiber.NewError(fiber.StatusBadRequest, "Name must contain at least one letter or digit")
	case errors.Is(err, ErrNameTaken):
		return fiber.NewError(fiber.StatusConflict, "An inventory with that name already exists")
	case errors.Is(err, ErrSlugTaken):
		return fiber.NewError(fiber.StatusConflict, "The slug is already in use, pick another or leave it empty")
	case errors.Is(err, ErrSlugReserved):
		return fiber.NewError(fiber.StatusConflict, "That slug is reserved")
	case errors.Is(err, ErrOwnerQuota):
		return fiber.NewError(fiber.StatusForbidden, "You already own an inventory")
	case errors.Is(err, ErrNotOwner):
		return fiber.NewError(fiber.StatusForbidden, "Only the owner may do this")
	case errors.Is(err, ErrGeneral):
		return fiber.NewError(fiber.StatusForbidden, "The general inventory cannot be deleted")
	case errors.Is(err, ErrInvalidCode):
		return fiber.NewError(fiber.StatusBadRequest, "Invalid invite code")
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Inventory not found")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "Inventory operation failed")
	}
}

// GET /api/inventories
func ListInventoriesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := access.ActorFromCtx(c)
		if err != nil {
			return err
		}

		invs, err := ListForActor(actor)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list inventories")
		}

		res := make([]InventoryResponse, 0, len(invs))
		for i := range invs {
			res = append(res, toResponse(&invs[i], actor))
		}
		return c.JSON(res)
	}
}

// POST /api/inventories
func CreateInventoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := access.ActorFromCtx(c)
		if err != nil {
			return err
		}

		var body CreateInventoryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		inv, err := Create(body.Name, body.Slug, body.IsPrivate, actor)
		if err != nil {
			return serviceError(err)
		}

		return c.Status(fiber.StatusCreated).JSON(toResponse(inv, actor))
	}
}

// POST /api/inventories/:slug/rotate-invite
func RotateInviteHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := access.ActorFromCtx(c)
		if err != nil {
			return err
		}

		inv, err := RotateInvite(c.Params("slug"), actor)
		if err != nil {
			return serviceError(err)
		}

		return c.JSON(fiber.Map{
			"slug":        inv.Slug,
			"invite_code": inv.InviteCode,
		})
	}
}

// POST /api/inventories/join
func JoinInventoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := access.ActorFromCtx(c)
		if err != nil {
			return err
		}

		var body JoinInventoryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		inv, err := Join(body.Code, actor)
		if err != nil {
			return serviceError(err)
		}

		// Ambiguous resolutions land on general for display.
		slug := inv.Slug
		if slug == "" {
			slug = models.GeneralSlug
		}
		return c.JSON(fiber.Map{"slug": slug})
	}
}

// DELETE /api/inventories/:slug
func DeleteInventoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := access.ActorFromCtx(c)
		if err != nil {
			return err
		}

		if err := Delete(c.Params("slug"), actor); err != nil {
			return serviceError(err)
		}
		return c.JSON(fiber.Map{"ok": true})
	}
}
