package reagent

import (
	"fmt"
	"testing"

	"labstock-backend/internal/access"
	"labstock-backend/internal/database"
	"labstock-backend/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap test db: %v", err)
	}
	// one in-memory database, not one per pooled connection
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	if err := database.EnsureGeneralInventory(db); err != nil {
		t.Fatalf("seed general: %v", err)
	}

	database.DB = db
}

func createUser(t *testing.T, name string, role models.UserRole) access.Actor {
	t.Helper()
	u := models.User{
		FullName:     name,
		Email:        fmt.Sprintf("%s@lab.test", name),
		PasswordHash: "x",
		Role:         role,
	}
	if err := database.DB.Create(&u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return access.Actor{ID: u.ID, Name: u.FullName, Role: u.Role}
}

func createInventory(t *testing.T, name string, owner access.Actor) *models.Inventory {
	t.Helper()
	ownerID := owner.ID
	inv := models.Inventory{
		Name:        name,
		Slug:        name,
		IsPrivate:   true,
		OwnerUserID: &ownerID,
		InviteCode:  database.NewInviteCode(),
	}
	if err := database.DB.Create(&inv).Error; err != nil {
		t.Fatalf("create inventory: %v", err)
	}
	return &inv
}

func createReagent(t *testing.T, invID uint, name string, qty float64, unit string) *models.Reagent {
	t.Helper()
	r := models.Reagent{
		InventoryID: invID,
		Name:        name,
		Category:    "organico",
		Quantity:    qty,
		Unit:        unit,
	}
	if err := database.DB.Create(&r).Error; err != nil {
		t.Fatalf("create reagent: %v", err)
	}
	return &r
}

func reloadReagent(t *testing.T, id uint) *models.Reagent {
	t.Helper()
	var r models.Reagent
	if err := database.DB.First(&r, id).Error; err != nil {
		t.Fatalf("reload reagent: %v", err)
	}
	return &r
}
