package movement

import (
	"log"

	"labstock-backend/internal/access"
	"labstock-backend/internal/database"
	"labstock-backend/internal/models"
	"labstock-backend/internal/reagent"

	"github.com/gofiber/fiber/v2"
)

type CreateMovementRequest struct {
	ReagentID uint    `json:"reagent_id"`
	Type      string  `json:"type"` // in / out
	Amount    float64 `json:"amount"`
	Unit      string  `json:"unit"`
	Reason    string  `json:"reason"`
}

type MovementResponse struct {
	ID         uint    `json:"id"`
	ReagentID  uint    `json:"reagent_id"`
	Type       string  `json:"type"`
	Amount     float64 `json:"amount"`
	Unit       string  `json:"unit"`
	Reason     *string `json:"reason"`
	ByUserName string  `json:"by"`
	CreatedAt  string  `json:"created_at"`
}

// POST /api/movements
// Appends a manual adjustment to the ledger. This is bookkeeping outside the
// checkout/return flow and does not touch the reagent's usage state.
func CreateMovementHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := access.ActorFromCtx(c)
		if err != nil {
			return err
		}

		var body CreateMovementRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if body.ReagentID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "reagent_id is required")
		}
		if body.Type != string(models.MovementIn) && body.Type != string(models.MovementOut) {
			return fiber.NewError(fiber.StatusBadRequest, "type must be 'in' or 'out'")
		}
		if body.Amount < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "amount must not be negative")
		}
		if body.Unit == "" {
			body.Unit = "g"
		}
		if !reagent.ValidUnit(body.Unit) {
			return fiber.NewError(fiber.StatusBadRequest, "Unknown unit, use kg/g/mg or L/mL/uL")
		}

		var r models.Reagent
		if err := database.DB.First(&r, body.ReagentID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Reagent not found")
		}

		var inv models.Inventory
		if err := database.DB.First(&inv, r.InventoryID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Reagent not found")
		}
		if !access.CanView(actor, &inv) {
			return fiber.NewError(fiber.StatusForbidden, "No access to this reagent")
		}

		m := models.StockMovement{
			ReagentID:  r.ID,
			Type:       models.MovementType(body.Type),
			Amount:     body.Amount,
			Unit:       body.Unit,
			ByUserID:   actor.ID,
			ByUserName: actor.Name,
		}
		if body.Reason != "" {
			m.Reason = &body.Reason
		}

		if err := database.DB.Create(&m).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not record movement")
		}

		return c.Status(fiber.StatusCreated).JSON(toMovementResponse(&m))
	}
}

// GET /api/movements?inv=slug&page=&page_size=
func ListMovementsHandler() fiber.Handler {
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
				"rows":        []MovementResponse{},
				"total_count": 0,
			})
		}

		page := c.QueryInt("page", 1)
		if page < 1 {
			page = 1
		}
		pageSize := c.QueryInt("page_size", reagent.DefaultPageSize)
		if pageSize < 1 {
			pageSize = reagent.DefaultPageSize
		}
		if pageSize > 100 {
			pageSize = 100
		}

		dbq := database.DB.Model(&models.StockMovement{}).
			Joins("JOIN reagents ON reagents.id = stock_movements.reagent_id").
			Where("reagents.inventory_id = ?", invID)

		var total int64
		if err := dbq.Count(&total).Error; err != nil {
			log.Println("[movements] count failed:", err)
			return c.JSON(fiber.Map{"inventory": slug, "rows": []MovementResponse{}, "total_count": 0})
		}

		var rows []models.StockMovement
		if err := dbq.Order("stock_movements.created_at desc, stock_movements.id desc").
			Offset((page - 1) * pageSize).
			Limit(pageSize).
			Find(&rows).Error; err != nil {
			log.Println("[movements] list failed:", err)
			rows, total = nil, 0
		}

		res := make([]MovementResponse, 0, len(rows))
		for i := range rows {
			res = append(res, toMovementResponse(&rows[i]))
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

func toMovementResponse(m *models.StockMovement) MovementResponse {
	return MovementResponse{
		ID:         m.ID,
		ReagentID:  m.ReagentID,
		Type:       string(m.Type),
		Amount:     m.Amount,
		Unit:       m.Unit,
		Reason:     m.Reason,
		ByUserName: m.ByUserName,
		CreatedAt:  m.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}
