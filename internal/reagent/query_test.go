package reagent

import (
	"fmt"
	"testing"

	"labstock-backend/internal/database"
	"labstock-backend/internal/models"
)

func TestListReagentsPagination(t *testing.T) {
	setupTestDB(t)
	owner := createUser(t, "ana", models.RoleUser)
	inv := createInventory(t, "lab-x", owner)

	for i := 0; i < 23; i++ {
		createReagent(t, inv.ID, fmt.Sprintf("reagent-%02d", i), 1, "g")
	}

	var seen int
	var firstTotal int64
	for page := 1; ; page++ {
		rows, total, err := ListReagents(inv.ID, "", page, 10)
		if err != nil {
			t.Fatalf("page %d: %v", page, err)
		}
		if page == 1 {
			firstTotal = total
		}
		if total != firstTotal {
			t.Errorf("total changed across pages: %d vs %d", total, firstTotal)
		}
		if len(rows) > 10 {
			t.Errorf("page %d has %d rows, page size is 10", page, len(rows))
		}
		seen += len(rows)
		if len(rows) == 0 {
			break
		}
	}

	if firstTotal != 23 {
		t.Errorf("total = %d, want 23", firstTotal)
	}
	if seen != 23 {
		t.Errorf("walked %d rows, want 23", seen)
	}
}

func TestListReagentsOrderedByName(t *testing.T) {
	setupTestDB(t)
	owner := createUser(t, "ana", models.RoleUser)
	inv := createInventory(t, "lab-x", owner)

	createReagent(t, inv.ID, "zinc chloride", 1, "g")
	createReagent(t, inv.ID, "acetone", 1, "mL")
	createReagent(t, inv.ID, "methanol", 1, "mL")

	rows, _, err := ListReagents(inv.ID, "", 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if rows[0].Name != "acetone" || rows[2].Name != "zinc chloride" {
		t.Errorf("order wrong: %s .. %s", rows[0].Name, rows[2].Name)
	}
}

func TestListReagentsSearch(t *testing.T) {
	setupTestDB(t)
	owner := createUser(t, "ana", models.RoleUser)
	inv := createInventory(t, "lab-x", owner)

	cas := "7647-14-5"
	syn := "table salt"
	r := createReagent(t, inv.ID, "Sodium chloride", 1, "g")
	if err := setFields(r.ID, map[string]interface{}{"cas": cas, "synonyms": syn}); err != nil {
		t.Fatal(err)
	}
	createReagent(t, inv.ID, "Potassium nitrate", 1, "g")

	for _, q := range []string{"sodium", "SALT", "7647-14-5"} {
		rows, total, err := ListReagents(inv.ID, q, 1, 10)
		if err != nil {
			t.Fatalf("search %q: %v", q, err)
		}
		if total != 1 || len(rows) != 1 || rows[0].Name != "Sodium chloride" {
			t.Errorf("search %q matched %d rows", q, total)
		}
	}

	// no match
	_, total, err := ListReagents(inv.ID, "benzene", 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if total != 0 {
		t.Errorf("search benzene matched %d rows, want 0", total)
	}
}

func TestSanitizeSearchStripsCommas(t *testing.T) {
	if got := SanitizeSearch("a,b"); got != "a b" {
		t.Errorf("SanitizeSearch(a,b) = %q, want %q", got, "a b")
	}
	if got := SanitizeSearch(" , salt , "); got != "salt" {
		t.Errorf("SanitizeSearch = %q, want %q", got, "salt")
	}

	// a comma-laden query must not error out the filter
	setupTestDB(t)
	owner := createUser(t, "ana", models.RoleUser)
	inv := createInventory(t, "lab-x", owner)
	createReagent(t, inv.ID, "anything", 1, "g")
	if _, _, err := ListReagents(inv.ID, "a,b,c", 1, 10); err != nil {
		t.Errorf("comma search errored: %v", err)
	}
}

func TestListUsageEventsNewestFirst(t *testing.T) {
	setupTestDB(t)
	owner := createUser(t, "ana", models.RoleUser)
	inv := createInventory(t, "lab-x", owner)
	r := createReagent(t, inv.ID, "NaCl", 100, "g")

	for i := 0; i < 3; i++ {
		if err := Checkout(r.ID, 1, "g", "", owner); err != nil {
			t.Fatal(err)
		}
		if err := Return(r.ID, 1, "g", "", owner); err != nil {
			t.Fatal(err)
		}
	}

	rows, total, err := ListUsageEvents(inv.ID, 1, 4)
	if err != nil {
		t.Fatal(err)
	}
	if total != 6 {
		t.Errorf("total = %d, want 6", total)
	}
	if len(rows) != 4 {
		t.Errorf("page has %d rows, want 4", len(rows))
	}
	// newest first means the last return comes first
	if rows[0].Type != models.UsageEventReturn {
		t.Errorf("first row type = %s, want return", rows[0].Type)
	}
	for i := 1; i < len(rows); i++ {
		if rows[i].ID > rows[i-1].ID {
			t.Errorf("rows not in descending order at %d", i)
		}
	}
}

func setFields(id uint, updates map[string]interface{}) error {
	return database.DB.Model(&models.Reagent{}).Where("id = ?", id).Updates(updates).Error
}
