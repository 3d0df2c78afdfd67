package reagent

import (
	"errors"
)

// UpdateReagentRequest: every field optional, nil means "leave unchanged".
// Empty strings clear the corresponding nullable column.
type UpdateReagentRequest struct {
	Name     *string `json:"name"`
	Synonyms *string `json:"synonyms"`
	CAS      *string `json:"cas"`
	Code     *string `json:"code"`
	Smiles   *string `json:"smiles"`
	Category *string `json:"category"`

	Quantity *float64 `json:"quantity"`
	Unit     *string  `json:"unit"`
	MinStock *float64 `json:"min_stock"`

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
	OpenedAt     *string `json:"opened_at"`
	ExpiresAt    *string `json:"expires_at"`
}

func (b *UpdateReagentRequest) toUpdates() (map[string]interface{}, error) {
	updates := map[string]interface{}{}

	setStr := func(col string, v *string) {
		if v == nil {
			return
		}
		if *v == "" {
			updates[col] = nil
		} else {
			updates[col] = *v
		}
	}

	if b.Name != nil {
		if *b.Name == "" {
			return nil, errors.New("name cannot be empty")
		}
		updates["name"] = *b.Name
	}
	setStr("synonyms", b.Synonyms)
	setStr("cas", b.CAS)
	setStr("code", b.Code)
	setStr("smiles", b.Smiles)
	if b.Category != nil && *b.Category != "" {
		updates["category"] = *b.Category
	}

	if b.Quantity != nil {
		if *b.Quantity < 0 {
			return nil, errors.New("quantity must not be negative")
		}
		updates["quantity"] = *b.Quantity
	}
	if b.Unit != nil {
		if !ValidUnit(*b.Unit) {
			return nil, ErrUnknownUnit
		}
		updates["unit"] = *b.Unit
	}
	if b.MinStock != nil {
		if *b.MinStock < 0 {
			return nil, errors.New("min_stock must not be negative")
		}
		updates["min_stock"] = *b.MinStock
	}

	setStr("location", b.Location)
	setStr("sublocation", b.Sublocation)
	setStr("type", b.Type)
	setStr("vendor", b.Vendor)
	setStr("catalog_code", b.CatalogCode)
	setStr("lot", b.Lot)
	setStr("purity", b.Purity)
	setStr("appearance", b.Appearance)

	if b.Density != nil {
		updates["density"] = *b.Density
	}
	if b.BoilingPointC != nil {
		updates["boiling_point_c"] = *b.BoilingPointC
	}
	if b.MeltingPointC != nil {
		updates["melting_point_c"] = *b.MeltingPointC
	}

	setStr("keywords", b.Keywords)
	setStr("observations", b.Observations)
	setStr("hazard_codes", b.HazardCodes)
	setStr("state", b.State)
	setStr("status", b.Status)

	if b.OpenedAt != nil {
		if *b.OpenedAt == "" {
			updates["opened_at"] = nil
		} else {
			d, err := parseDate(b.OpenedAt)
			if err != nil {
				return nil, errors.New("opened_at must be 'YYYY-MM-DD'")
			}
			updates["opened_at"] = d
		}
	}
	if b.ExpiresAt != nil {
		if *b.ExpiresAt == "" {
			updates["expires_at"] = nil
		} else {
			d, err := parseDate(b.ExpiresAt)
			if err != nil {
				return nil, errors.New("expires_at must be 'YYYY-MM-DD'")
			}
			updates["expires_at"] = d
		}
	}

	return updates, nil
}
