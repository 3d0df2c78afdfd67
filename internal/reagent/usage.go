package reagent

import (
	"errors"
	"math"
	"time"

	"labstock-backend/internal/access"
	"labstock-backend/internal/database"
	"labstock-backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrReagentNotFound   = errors.New("reagent not found")
	ErrAlreadyCheckedOut = errors.New("reagent is already checked out")
	ErrNotCheckedOut     = errors.New("reagent is not checked out")
	ErrInvalidAmount     = errors.New("amount must be a finite number >= 0")
	ErrNoInventoryAccess = errors.New("no access to the reagent's inventory")
)

func loadForUsage(reagentID uint, actor access.Actor) (*models.Reagent, error) {
	var r models.Reagent
	if err := database.DB.First(&r, reagentID).Error; err != nil {
		return nil, ErrReagentNotFound
	}
	var inv models.Inventory
	if err := database.DB.First(&inv, r.InventoryID).Error; err != nil {
		return nil, ErrReagentNotFound
	}
	if !access.CanView(actor, &inv) {
		return nil, ErrNoInventoryAccess
	}
	return &r, nil
}

// Checkout marks the reagent as in use by the actor, recording the planned
// consumption. The precondition check and the state flip happen in one
// conditional UPDATE so two concurrent checkouts can never both succeed.
// A planned amount of exactly 0 is accepted.
func Checkout(reagentID uint, planned float64, plannedUnit, note string, actor access.Actor) error {
	if planned < 0 || math.IsNaN(planned) || math.IsInf(planned, 0) {
		return ErrInvalidAmount
	}
	if plannedUnit != "" && !ValidUnit(plannedUnit) {
		return ErrUnknownUnit
	}

	r, err := loadForUsage(reagentID, actor)
	if err != nil {
		return err
	}

	return database.DB.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&models.Reagent{}).
			Where("id = ? AND in_use = ?", reagentID, false).
			Updates(map[string]interface{}{
				"in_use":              true,
				"checked_out_by_id":   actor.ID,
				"checked_out_by_name": actor.Name,
				"checked_out_at":      now,
				"planned_amount":      planned,
				"planned_unit":        nilIfEmpty(plannedUnit),
				"checkout_note":       nilIfEmpty(note),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyCheckedOut
		}

		event := models.UsageEvent{
			InventoryID:   r.InventoryID,
			ReagentID:     r.ID,
			Type:          models.UsageEventCheckout,
			ActorID:       actor.ID,
			ActorName:     actor.Name,
			PlannedAmount: &planned,
			PlannedUnit:   nilIfEmpty(plannedUnit),
			Note:          nilIfEmpty(note),
		}
		return tx.Create(&event).Error
	})
}

// Return closes the open checkout, decrements stock by the actual consumed
// amount (converted into the reagent's own unit when the families match) and
// appends a return event carrying both planned and actual for audit.
func Return(reagentID uint, actual float64, actualUnit, note string, actor access.Actor) error {
	if actual < 0 || math.IsNaN(actual) || math.IsInf(actual, 0) {
		return ErrInvalidAmount
	}
	if actualUnit != "" && !ValidUnit(actualUnit) {
		return ErrUnknownUnit
	}

	r, err := loadForUsage(reagentID, actor)
	if err != nil {
		return err
	}
	if !r.InUse {
		return ErrNotCheckedOut
	}

	consumed := actual
	if actualUnit != "" && actual > 0 {
		conv, err := ConvertAmount(actual, actualUnit, r.Unit)
		if err != nil {
			return err
		}
		consumed = conv
	}

	newQty := r.Quantity - consumed
	if newQty < 0 {
		newQty = 0 // stock can never go negative
	}

	return database.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Reagent{}).
			Where("id = ? AND in_use = ?", reagentID, true).
			Updates(map[string]interface{}{
				"in_use":              false,
				"quantity":            newQty,
				"checked_out_by_id":   nil,
				"checked_out_by_name": nil,
				"checked_out_at":      nil,
				"planned_amount":      nil,
				"planned_unit":        nil,
				"checkout_note":       nil,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotCheckedOut
		}

		event := models.UsageEvent{
			InventoryID:   r.InventoryID,
			ReagentID:     r.ID,
			Type:          models.UsageEventReturn,
			ActorID:       actor.ID,
			ActorName:     actor.Name,
			PlannedAmount: r.PlannedAmount,
			PlannedUnit:   r.PlannedUnit,
			ActualAmount:  &actual,
			ActualUnit:    nilIfEmpty(actualUnit),
			Note:          nilIfEmpty(note),
		}
		return tx.Create(&event).Error
	})
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
