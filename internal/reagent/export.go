package reagent

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"labstock-backend/internal/access"
	"labstock-backend/internal/database"
	"labstock-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Column order is fixed; downstream spreadsheets depend on it.
var exportHeader = []string{
	"id", "name", "cas", "code", "quantity", "unit",
	"location", "sublocation", "category", "smiles",
	"min_stock", "type", "vendor", "keywords", "observations",
	"in_use", "updated_at",
}

// ExportCSV writes the inventory's reagents as UTF-8 CSV. The leading BOM
// keeps Excel from mangling accented names.
func ExportCSV(reagents []models.Reagent) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("\uFEFF")

	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, err
	}

	str := func(p *string) string {
		if p == nil {
			return ""
		}
		return *p
	}

	for i := range reagents {
		r := &reagents[i]
		row := []string{
			fmt.Sprintf("%d", r.ID),
			r.Name,
			str(r.CAS),
			str(r.Code),
			fmt.Sprintf("%g", r.Quantity),
			r.Unit,
			str(r.Location),
			str(r.Sublocation),
			r.Category,
			str(r.Smiles),
			fmt.Sprintf("%g", r.MinStock),
			str(r.Type),
			str(r.Vendor),
			str(r.Keywords),
			str(r.Observations),
			fmt.Sprintf("%t", r.InUse),
			r.UpdatedAt.Format("2006-01-02 15:04:05"),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type ExportRequest struct {
	Slug string `json:"slug"`
}

// POST /api/inventories/export
// Exporting general requires admin; any other inventory its owner.
func ExportCSVHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := access.ActorFromCtx(c)
		if err != nil {
			return err
		}

		var body ExportRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.Slug == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Slug is required")
		}

		var inv models.Inventory
		if err := database.DB.Where("slug = ?", body.Slug).First(&inv).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Inventory not found")
		}

		if inv.IsGeneral() {
			if !actor.IsAdmin() {
				return fiber.NewError(fiber.StatusForbidden, "Only admins may export the general inventory")
			}
		} else if inv.OwnerUserID == nil || *inv.OwnerUserID != actor.ID {
			return fiber.NewError(fiber.StatusForbidden, "Only the owner may export this inventory")
		}

		var reagents []models.Reagent
		if err := database.DB.
			Where("inventory_id = ?", inv.ID).
			Order("name asc").
			Find(&reagents).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not query reagents")
		}

		out, err := ExportCSV(reagents)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not build CSV")
		}

		c.Set("Content-Type", "text/csv; charset=utf-8")
		c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", inv.Slug+"-reagents.csv"))
		return c.Send(out)
	}
}
