package reagent

import (
	"errors"
	"strings"
)

type UnitFamily string

const (
	FamilyMass   UnitFamily = "mass"
	FamilyVolume UnitFamily = "volume"
)

var (
	ErrUnknownUnit  = errors.New("unknown unit")
	ErrUnitMismatch = errors.New("units belong to different families")
)

// factor to the family base unit (g for mass, mL for volume)
var unitFactors = map[string]struct {
	family UnitFamily
	factor float64
}{
	"kg": {FamilyMass, 1000},
	"g":  {FamilyMass, 1},
	"mg": {FamilyMass, 0.001},
	"l":  {FamilyVolume, 1000},
	"ml": {FamilyVolume, 1},
	"ul": {FamilyVolume, 0.001},
}

func lookupUnit(u string) (UnitFamily, float64, error) {
	key := strings.ToLower(strings.TrimSpace(u))
	// tolerate the micro sign in user input
	key = strings.ReplaceAll(key, "µ", "u")
	e, ok := unitFactors[key]
	if !ok {
		return "", 0, ErrUnknownUnit
	}
	return e.family, e.factor, nil
}

// familyOf returns the unit's family (mass or volume).
func familyOf(u string) (UnitFamily, error) {
	f, _, err := lookupUnit(u)
	return f, err
}

// ConvertAmount converts amount from one unit to another within the same
// family. Cross-family conversion is refused.
func ConvertAmount(amount float64, from, to string) (float64, error) {
	ff, fromFactor, err := lookupUnit(from)
	if err != nil {
		return 0, err
	}
	tf, toFactor, err := lookupUnit(to)
	if err != nil {
		return 0, err
	}
	if ff != tf {
		return 0, ErrUnitMismatch
	}
	return amount * fromFactor / toFactor, nil
}

// ValidUnit reports whether u names a supported mass or volume unit.
func ValidUnit(u string) bool {
	_, _, err := lookupUnit(u)
	return err == nil
}
