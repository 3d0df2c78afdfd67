package database

import (
	"log"
	"strings"

	"labstock-backend/internal/config"
	"labstock-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Could not connect to database: %v", err)
	}

	if err := Migrate(DB); err != nil {
		log.Fatalf("AutoMigrate failed: %v", err)
	}

	if err := EnsureGeneralInventory(DB); err != nil {
		log.Fatalf("Could not seed the general inventory: %v", err)
	}

	log.Println("Database connected, migrations complete")
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Inventory{},
		&models.InventoryMember{},
		&models.Reagent{},
		&models.UsageEvent{},
		&models.StockMovement{},
	)
}

// EnsureGeneralInventory seeds the shared `general` inventory. Exactly one
// exists per deployment; it has no owner and is managed by admins only.
func EnsureGeneralInventory(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Inventory{}).
		Where("slug = ?", models.GeneralSlug).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	inv := models.Inventory{
		Name:       "General",
		Slug:       models.GeneralSlug,
		IsPrivate:  false,
		InviteCode: NewInviteCode(),
	}
	return db.Create(&inv).Error
}

// NewInviteCode returns a fresh unguessable invite token.
func NewInviteCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
