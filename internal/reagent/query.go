package reagent

import (
	"strings"

	"labstock-backend/internal/database"
	"labstock-backend/internal/models"
)

const DefaultPageSize = 25

// SanitizeSearch strips commas from the search text so the multi-field OR
// filter can never be broken apart by a delimiter inside the term.
func SanitizeSearch(q string) string {
	return strings.TrimSpace(strings.ReplaceAll(q, ",", " "))
}

// ListReagents returns one page of an inventory's reagents ordered by name,
// plus the total count for the same filter. A non-empty search matches
// case-insensitive substrings of name, synonyms, CAS, code and SMILES.
func ListReagents(inventoryID uint, search string, page, pageSize int) ([]models.Reagent, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	dbq := database.DB.Model(&models.Reagent{}).
		Where("inventory_id = ?", inventoryID)

	if q := SanitizeSearch(search); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		dbq = dbq.Where(
			"LOWER(name) LIKE ? OR LOWER(COALESCE(synonyms, '')) LIKE ? OR LOWER(COALESCE(cas, '')) LIKE ? OR LOWER(COALESCE(code, '')) LIKE ? OR LOWER(COALESCE(smiles, '')) LIKE ?",
			pattern, pattern, pattern, pattern, pattern,
		)
	}

	var total int64
	if err := dbq.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Reagent
	if err := dbq.Order("name asc").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListUsageEvents returns one page of an inventory's usage-event history,
// newest first, plus the total count.
func ListUsageEvents(inventoryID uint, page, pageSize int) ([]models.UsageEvent, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	dbq := database.DB.Model(&models.UsageEvent{}).
		Where("inventory_id = ?", inventoryID)

	var total int64
	if err := dbq.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.UsageEvent
	if err := dbq.Order("created_at desc, id desc").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
