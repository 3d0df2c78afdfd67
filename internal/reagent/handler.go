package reagent

import (
	"errors"
	"log"
	"strings"
	"time"

	"labstock-backend/internal/access"
	"labstock-backend/internal/chem"
	"labstock-backend/internal/database"
	"labstock-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CreateReagentRequest struct {
	InventorySlug string `json:"inv_slug"`

	Name     string  `json:"name"`
	Synonyms *string `json:"synonyms"`
	CAS      *string `json:"cas"`
	Code     *string `json:"code"`
	Smiles   *string `json:"smiles"`
	Category string  `json:"category"`

	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	MinStock float64 `json:"min_stock"`

	Location    *string `json:"location"`
	Sublocation *string `json:"sublocation"`
	Type        *string `json:"type"`
	Vendor      *string `json:"vendor"`
	CatalogCode *string `json:"catalog_code"`
	Lot         *string `json:"lot"`
	Purity      *string `json:"purity"`

	Appearance    *string  `json:"appearance"`
	Density       *float64 `json:"density"`
	BoilingPointC *float64 `json:"boiling_point_c"`
	MeltingPointC *float64 `json:"melting_point_c"`

	Keywords     *string `json:"keywords"`
	Observations *string `json:"observations"`
	HazardCodes  *string `json:"hazard_codes"`
	State        *string `json:"state"`
	Status       *string `json:"status"`
	OpenedAt     *string `json:"opened_at"`  // YYYY-MM-DD
	ExpiresAt    *string `json:"expires_at"` // YYYY-MM-DD
}

type UsageStateResponse struct {
	InUse         bool     `json:"in_use"`
	ByName        *string  `json:"by,omitempty"`
	At            *string  `json:"at,omitempty"`
	PlannedAmount *float64 `json:"planned_amount,omitempty"`
	PlannedUnit   *string  `json:"planned_unit,omitempty"`
	Note          *string  `json:"note,omitempty"`
}

type ReagentResponse struct {
	ID          uint    `json:"id"`
	InventoryID uint    `json:"inventory_id"`
	Name        string  `json:"name"`
	Synonyms    *string `json:"synonyms"`
	CAS         *string `json:"cas"`
	Code        *string `json:"code"`
	Smiles      *string `json:"smiles"`
	Category    string  `json:"category"`

	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	MinStock float64 `json:"min_stock"`

	Location    *string `json:"location"`
	Sublocation *string `json:"sublocation"`
	Type        *string `json:"type"`
	Vendor      *string `json:"vendor"`

	Keywords     *string `json:"keywords"`
	Observations *string `json:"observations"`

	Usage     UsageStateResponse `json:"usage"`
	UpdatedAt string             `json:"updated_at"`
}

func toReagentResponse(r *models.Reagent) ReagentResponse {
	usage := UsageStateResponse{InUse: r.InUse}
	if r.InUse {
		usage.ByName = r.CheckedOutByName
		if r.CheckedOutAt != nil {
			at := r.CheckedOutAt.Format(time.RFC3339)
			usage.At = &at
		}
		usage.PlannedAmount = r.PlannedAmount
		usage.PlannedUnit = r.PlannedUnit
		usage.Note = r.CheckoutNote
	}
	return ReagentResponse{
		ID:           r.ID,
		InventoryID:  r.InventoryID,
		Name:         r.Name,
		Synonyms:     r.Synonyms,
		CAS:          r.CAS,
		Code:         r.Code,
		Smiles:       r.Smiles,
		Category:     r.Category,
		Quantity:     r.Quantity,
		Unit:         r.Unit,
		MinStock:     r.MinStock,
		Location:     r.Location,
		Sublocation:  r.Sublocation,
		Type:         r.Type,
		Vendor:       r.Vendor,
		Keywords:     r.Keywords,
		Observations: r.Observations,
		Usage:        usage,
		UpdatedAt:    r.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}

func parseDate(s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	d, err := time.Parse("2006-01-02", strings.TrimSpace(*s))
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// GET /api/reagents?inv=slug&q=&page=&page_size=
// Dashboard listing: paginated, filtered, with the summary counters the
// dashboard cards show. A failed query degrades to an empty page.
func ListReagentsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := access.ActorFromCtx(c)
		if err != nil {
			return err
		}

		slug, invID := access.ResolveInventory(c.Query("inv"), actor)
		if invID == 0 {
			return c.JSON(fiber.Map{
				"inventory":   slug,
				"no_access":   true,
				"rows":        []ReagentResponse{},
				"total_count": 0,
			})
		}

		page := c.QueryInt("page", 1)
		pageSize := c.QueryInt("page_size", DefaultPageSize)
		if pageSize > 100 {
			pageSize = 100
		}

		rows, total, err := ListReagents(invID, c.Query("q"), page, pageSize)
		if err != nil {
			log.Println("[reagents] list failed:", err)
			rows, total = nil, 0
		}

		outOfStock := 0
		lowStock := 0
		res := make([]ReagentResponse, 0, len(rows))
		for i := range rows {
			r := &rows[i]
			if r.Quantity == 0 {
				outOfStock++
			} else if r.Quantity <= r.MinStock {
				lowStock++
			}
			res = append(res, toReagentResponse(r))
		}

		return c.JSON(fiber.Map{
			"inventory":    slug,
			"rows":         res,
			"total_count":  total,
			"page":         page,
			"page_size":    pageSize,
			"out_of_stock": outOfStock,
			"low_stock":    lowStock,
		})
	}
}

// POST /api/reagents
func CreateReagentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := access.ActorFromCtx(c)
		if err != nil {
			return err
		}

		var body CreateReagentRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		inv, err := access.MustResolve(body.InventorySlug, actor)
		if err != nil {
			return err
		}
		if !access.CanCreateReagent(actor, inv) {
			return fiber.NewError(fiber.StatusForbidden, "You may not add reagents to this inventory")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Name is required")
		}
		if body.Quantity < 0 || body.MinStock < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Quantity and min_stock must not be negative")
		}
		if body.Unit == "" {
			body.Unit = "g"
		}
		if !ValidUnit(body.Unit) {
			return fiber.NewError(fiber.StatusBadRequest, "Unknown unit, use kg/g/mg or L/mL/uL")
		}
		if body.Category == "" {
			body.Category = "organico"
		}

		openedAt, err := parseDate(body.OpenedAt)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "opened_at must be 'YYYY-MM-DD'")
		}
		expiresAt, err := parseDate(body.ExpiresAt)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "expires_at must be 'YYYY-MM-DD'")
		}

		r := models.Reagent{
			InventoryID:   inv.ID,
			Name:          body.Name,
			Synonyms:      body.Synonyms,
			CAS:           body.CAS,
			Code:          body.Code,
			Smiles:        body.Smiles,
			Category:      body.Category,
			Quantity:      body.Quantity,
			Unit:          body.Unit,
			MinStock:      body.MinStock,
			Location:      body.Location,
			Sublocation:   body.Sublocation,
			Type:          body.Type,
			Vendor:        body.Vendor,
			CatalogCode:   body.CatalogCode,
			Lot:           body.Lot,
			Purity:        body.Purity,
			Appearance:    body.Appearance,
			Density:       body.Density,
			BoilingPointC: body.BoilingPointC,
			MeltingPointC: body.MeltingPointC,
			Keywords:      body.Keywords,
			Observations:  body.Observations,
			HazardCodes:   body.HazardCodes,
			State:         body.State,
			Status:        body.Status,
			OpenedAt:      openedAt,
			ExpiresAt:     expiresAt,
		}

		if err := database.DB.Create(&r).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create reagent")
		}

		return c.Status(fiber.StatusCreated).JSON(toReagentResponse(&r))
	}
}

// GET /api/reagents/:id
// Detail view; enriches with rendered structure and computed descriptors
// when the reagent has a SMILES and the renderer is reachable.
func GetReagentHandler(renderer *chem.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := access.ActorFromCtx(c)
		if err != nil {
			return err
		}

		var r models.Reagent
		if err := database.DB.First(&r, c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Reagent not found")
		}

		var inv models.Inventory
		if err := database.DB.First(&inv, r.InventoryID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Reagent not found")
		}
		if !access.CanView(actor, &inv) {
			return fiber.NewError(fiber.StatusForbidden, "No access to this reagent")
		}

		res := fiber.Map{
			"reagent":    toReagentResponse(&r),
			"can_manage": access.CanManage(actor, &inv),
		}

		if r.Smiles != nil && *r.Smiles != "" {
			if svg, err := renderer.RenderStructure(*r.Smiles); err == nil {
				res["structure_svg"] = svg
			} else {
				res["structure_svg"] = chem.PlaceholderSVG
			}
			if d, err := renderer.ComputeDescriptors(*r.Smiles); err == nil {
				res["formula"] = d.Formula
				res["molecular_weight"] = d.MolecularWeight
			}
		}

		return c.JSON(res)
	}
}

// PUT /api/reagents/:id
// Partial update: only the fields present in the body change.
func UpdateReagentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := access.ActorFromCtx(c)
		if err != nil {
			return err
		}

		var r models.Reagent
		if err := database.DB.First(&r, c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Reagent not found")
		}

		var inv models.Inventory
		if err := database.DB.First(&inv, r.InventoryID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Reagent not found")
		}
		if !access.CanManage(actor, &inv) {
			return fiber.NewError(fiber.StatusForbidden, "Only the owner may edit this reagent")
		}

		var body UpdateReagentRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		updates, err := body.toUpdates()
		if err != nil {
			if errors.Is(err, ErrUnknownUnit) {
				return fiber.NewError(fiber.StatusBadRequest, "Unknown unit, use kg/g/mg or L/mL/uL")
			}
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if len(updates) == 0 {
			return c.JSON(toReagentResponse(&r))
		}

		if err := database.DB.Model(&r).Updates(updates).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update reagent")
		}

		if err := database.DB.First(&r, r.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not reload reagent")
		}
		return c.JSON(toReagentResponse(&r))
	}
}

// DELETE /api/reagents/:id
func DeleteReagentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := access.ActorFromCtx(c)
		if err != nil {
			return err
		}

		var r models.Reagent
		if err := database.DB.First(&r, c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Reagent not found")
		}

		var inv models.Inventory
		if err := database.DB.First(&inv, r.InventoryID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Reagent not found")
		}
		if !access.CanManage(actor, &inv) {
			return fiber.NewError(fiber.StatusForbidden, "Only the owner may delete this reagent")
		}

		if err := database.DB.Delete(&r).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete reagent")
		}
		return c.JSON(fiber.Map{"ok": true})
	}
}

type UsageRequest struct {
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
	Note   string  `json:"note"`
}

func usageError(err error) error {
	switch {
	case errors.Is(err, ErrReagentNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Reagent not found")
	case errors.Is(err, ErrAlreadyCheckedOut):
		return fiber.NewError(fiber.StatusConflict, "Reagent is already checked out")
	case errors.Is(err, ErrNotCheckedOut):
		return fiber.NewError(fiber.StatusConflict, "Reagent is not checked out")
	case errors.Is(err, ErrInvalidAmount):
		return fiber.NewError(fiber.StatusBadRequest, "Amount must be a number >= 0")
	case errors.Is(err, ErrUnknownUnit):
		return fiber.NewError(fiber.StatusBadRequest, "Unknown unit, use kg/g/mg or L/mL/uL")
	case errors.Is(err, ErrUnitMismatch):
		return fiber.NewError(fiber.StatusBadRequest, "Unit does not match the reagent's unit family")
	case errors.Is(err, ErrNoInventoryAccess):
		return fiber.NewError(fiber.StatusForbidden, "No access to this reagent")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "Usage operation failed")
	}
}

// POST /api/reagents/:id/checkout
func CheckoutHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := access.ActorFromCtx(c)
		if err != nil {
			return err
		}

		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid reagent id")
		}

		var body UsageRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if err := Checkout(uint(id), body.Amount, body.Unit, body.Note, actor); err != nil {
			return usageError(err)
		}
		return c.JSON(fiber.Map{"ok": true})
	}
}

// POST /api/reagents/:id/return
func ReturnHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := access.ActorFromCtx(c)
		if err != nil {
			return err
		}

		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid reagent id")
		}

		var body UsageRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if err := Return(uint(id), body.Amount, body.Unit, body.Note, actor); err != nil {
			return usageError(err)
		}
		return c.JSON(fiber.Map{"ok": true})
	}
}

// GET /api/usage-events?inv=slug&page=&page_size=
func ListUsageEventsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := access.ActorFromCtx(c)
		if err != nil {
			return err
		}

		slug, invID := access.ResolveInventory(c.Query("inv"), actor)
		if invID == 0 {
			return c.JSON(fiber.Map{
				"inventory":   slug,
				"no_access":   true,
				"rows":        []fiber.Map{},
				"total_count": 0,
			})
		}

		page := c.QueryInt("page", 1)
		pageSize := c.QueryInt("page_size", DefaultPageSize)
		if pageSize > 100 {
			pageSize = 100
		}

		rows, total, err := ListUsageEvents(invID, page, pageSize)
		if err != nil {
			log.Println("[usage-events] list failed:", err)
			rows, total = nil, 0
		}

		type eventResponse struct {
			ID            uint     `json:"id"`
			ReagentID     uint     `json:"reagent_id"`
			Type          string   `json:"type"`
			ActorName     string   `json:"actor_name"`
			PlannedAmount *float64 `json:"planned_amount"`
			PlannedUnit   *string  `json:"planned_unit"`
			ActualAmount  *float64 `json:"actual_amount"`
			ActualUnit    *string  `json:"actual_unit"`
			Note          *string  `json:"note"`
			CreatedAt     string   `json:"created_at"`
		}

		res := make([]eventResponse, 0, len(rows))
		for _, e := range rows {
			res = append(res, eventResponse{
				ID:            e.ID,
				ReagentID:     e.ReagentID,
				Type:          string(e.Type),
				ActorName:     e.ActorName,
				PlannedAmount: e.PlannedAmount,
				PlannedUnit:   e.PlannedUnit,
				ActualAmount:  e.ActualAmount,
				ActualUnit:    e.ActualUnit,
				Note:          e.Note,
				CreatedAt:     e.CreatedAt.Format("2006-01-02 15:04:05"),
			})
		}

		return c.JSON(fiber.Map{
			"inventory":   slug,
			"rows":        res,
			"total_count": total,
			"page":        page,
			"page_size":   pageSize,
		})
	}
}
