package reagent

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"labstock-backend/internal/auth"
	"labstock-backend/internal/database"
	"labstock-backend/internal/inventory"
	"labstock-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// testApp wires the reagent and inventory routes behind a stub auth
// middleware that trusts the X-User-ID header.
func testApp() *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{"error": e.Message})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(func(c *fiber.Ctx) error {
		idStr := c.Get("X-User-ID")
		if idStr == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "no user")
		}
		id, err := strconv.Atoi(idStr)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "bad user")
		}
		var u models.User
		if err := database.DB.First(&u, id).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "unknown user")
		}
		c.Locals(auth.CtxUserIDKey, u.ID)
		c.Locals(auth.CtxUserRoleKey, u.Role)
		return c.Next()
	})

	app.Post("/api/inventories", inventory.CreateInventoryHandler())
	app.Post("/api/inventories/export", ExportCSVHandler())
	app.Get("/api/reagents", ListReagentsHandler())
	app.Post("/api/reagents", CreateReagentHandler())
	app.Post("/api/reagents/:id/checkout", CheckoutHandler())
	app.Post("/api/reagents/:id/return", ReturnHandler())
	app.Get("/api/usage-events", ListUsageEventsHandler())
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}, userID uint) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-User-ID", fmt.Sprintf("%d", userID))
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var out map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

// Full walk through the lifecycle: owner-only reagent creation, single open
// checkout, return decrements stock.
func TestLifecycleEndToEnd(t *testing.T) {
	setupTestDB(t)
	app := testApp()

	ana := createUser(t, "ana", models.RoleUser)
	bob := createUser(t, "bob", models.RoleUser)

	// Ana creates "Lab X", slug auto-derived
	code, out := doJSON(t, app, "POST", "/api/inventories", map[string]interface{}{
		"name": "Lab X", "is_private": true,
	}, ana.ID)
	if code != fiber.StatusCreated {
		t.Fatalf("create inventory status = %d (%v)", code, out)
	}
	if out["slug"] != "lab-x" {
		t.Fatalf("slug = %v, want lab-x", out["slug"])
	}
	if out["is_owner"] != true {
		t.Error("creator must be owner")
	}

	// Bob may not add reagents to lab-x
	code, _ = doJSON(t, app, "POST", "/api/reagents", map[string]interface{}{
		"inv_slug": "lab-x", "name": "NaCl", "quantity": 100, "unit": "g",
	}, bob.ID)
	if code != fiber.StatusForbidden {
		t.Fatalf("bob create reagent status = %d, want 403", code)
	}

	// Ana adds the reagent
	code, out = doJSON(t, app, "POST", "/api/reagents", map[string]interface{}{
		"inv_slug": "lab-x", "name": "NaCl", "quantity": 100, "unit": "g",
	}, ana.ID)
	if code != fiber.StatusCreated {
		t.Fatalf("ana create reagent status = %d (%v)", code, out)
	}
	reagentID := int(out["id"].(float64))

	// checkout 10 g
	code, _ = doJSON(t, app, "POST", fmt.Sprintf("/api/reagents/%d/checkout", reagentID), map[string]interface{}{
		"amount": 10, "unit": "g", "note": "synthesis",
	}, ana.ID)
	if code != fiber.StatusOK {
		t.Fatalf("checkout status = %d", code)
	}

	// second checkout conflicts
	code, _ = doJSON(t, app, "POST", fmt.Sprintf("/api/reagents/%d/checkout", reagentID), map[string]interface{}{
		"amount": 1, "unit": "g",
	}, ana.ID)
	if code != fiber.StatusConflict {
		t.Fatalf("double checkout status = %d, want 409", code)
	}

	// return 8 g
	code, _ = doJSON(t, app, "POST", fmt.Sprintf("/api/reagents/%d/return", reagentID), map[string]interface{}{
		"amount": 8, "unit": "g",
	}, ana.ID)
	if code != fiber.StatusOK {
		t.Fatalf("return status = %d", code)
	}

	got := reloadReagent(t, uint(reagentID))
	if got.InUse {
		t.Error("reagent should be available after return")
	}
	if got.Quantity != 92 {
		t.Errorf("quantity = %v, want 92", got.Quantity)
	}
}

func TestListHandlerNoAccessDegrades(t *testing.T) {
	setupTestDB(t)
	app := testApp()

	ana := createUser(t, "ana", models.RoleUser)
	bob := createUser(t, "bob", models.RoleUser)
	createInventory(t, "secret", ana)

	for _, path := range []string{"/api/reagents?inv=secret", "/api/usage-events?inv=secret"} {
		code, out := doJSON(t, app, "GET", path, nil, bob.ID)
		if code != fiber.StatusOK {
			t.Fatalf("%s status = %d, want 200 with empty page", path, code)
		}
		if out["no_access"] != true {
			t.Errorf("%s: expected no_access marker, got %v", path, out)
		}
	}
}

func TestExportHandlerPermissions(t *testing.T) {
	setupTestDB(t)
	app := testApp()

	ana := createUser(t, "ana", models.RoleUser)
	bob := createUser(t, "bob", models.RoleUser)
	admin := createUser(t, "root", models.RoleAdmin)
	inv := createInventory(t, "lab-x", ana)
	createReagent(t, inv.ID, "NaCl, pure", 5, "g")

	// owner exports
	req := httptest.NewRequest("POST", "/api/inventories/export", strings.NewReader(`{"slug":"lab-x"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", fmt.Sprintf("%d", ana.ID))
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("owner export status = %d", resp.StatusCode)
	}
	if !strings.HasPrefix(string(body), "\uFEFF") {
		t.Error("export must start with a BOM")
	}
	if !strings.Contains(string(body), `"NaCl, pure"`) {
		t.Error("comma name must be quoted")
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("content type = %q", ct)
	}

	// non-owner denied
	code, _ := doJSON(t, app, "POST", "/api/inventories/export", map[string]string{"slug": "lab-x"}, bob.ID)
	if code != fiber.StatusForbidden {
		t.Errorf("non-owner export status = %d, want 403", code)
	}

	// general: admin only — even the admin role cannot export someone
	// else's inventory, and plain users cannot export general
	code, _ = doJSON(t, app, "POST", "/api/inventories/export", map[string]string{"slug": "general"}, bob.ID)
	if code != fiber.StatusForbidden {
		t.Errorf("user export of general status = %d, want 403", code)
	}
	code, _ = doJSON(t, app, "POST", "/api/inventories/export", map[string]string{"slug": "general"}, admin.ID)
	if code != fiber.StatusOK {
		t.Errorf("admin export of general status = %d, want 200", code)
	}
	code, _ = doJSON(t, app, "POST", "/api/inventories/export", map[string]string{"slug": "lab-x"}, admin.ID)
	if code != fiber.StatusForbidden {
		t.Errorf("admin export of lab-x status = %d, want 403", code)
	}
}
