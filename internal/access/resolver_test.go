package access

import (
	"fmt"
	"testing"

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
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	if err := database.EnsureGeneralInventory(db); err != nil {
		t.Fatalf("seed general: %v", err)
	}

	database.DB = db
}

func createUser(t *testing.T, name string, role models.UserRole) Actor {
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
	return Actor{ID: u.ID, Name: u.FullName, Role: u.Role}
}

func createInventory(t *testing.T, slug string, private bool, owner *Actor) *models.Inventory {
	t.Helper()
	inv := models.Inventory{
		Name:       slug,
		Slug:       slug,
		IsPrivate:  private,
		InviteCode: database.NewInviteCode(),
	}
	if owner != nil {
		id := owner.ID
		inv.OwnerUserID = &id
	}
	if err := database.DB.Create(&inv).Error; err != nil {
		t.Fatalf("create inventory: %v", err)
	}
	return &inv
}

func TestResolveDefaultsToGeneral(t *testing.T) {
	setupTestDB(t)
	ana := createUser(t, "ana", models.RoleUser)

	slug, id := ResolveInventory("", ana)
	if slug != models.GeneralSlug {
		t.Errorf("slug = %q, want general", slug)
	}
	if id == 0 {
		t.Error("everyone can resolve general")
	}
}

func TestResolveDeniedIsZeroNotError(t *testing.T) {
	setupTestDB(t)
	ana := createUser(t, "ana", models.RoleUser)
	bob := createUser(t, "bob", models.RoleUser)
	createInventory(t, "secret-lab", true, &ana)

	// stranger: access denied looks exactly like not found
	if _, id := ResolveInventory("secret-lab", bob); id != 0 {
		t.Error("private inventory must not resolve for strangers")
	}
	if _, id := ResolveInventory("no-such-slug", bob); id != 0 {
		t.Error("unknown slug must resolve to zero")
	}

	// owner resolves fine
	if _, id := ResolveInventory("secret-lab", ana); id == 0 {
		t.Error("owner must resolve their own inventory")
	}
}

func TestResolveMemberAndPublicAndAdmin(t *testing.T) {
	setupTestDB(t)
	ana := createUser(t, "ana", models.RoleUser)
	bob := createUser(t, "bob", models.RoleUser)
	admin := createUser(t, "root", models.RoleAdmin)

	private := createInventory(t, "secret-lab", true, &ana)
	createInventory(t, "open-lab", false, &ana)

	// membership row grants access
	m := models.InventoryMember{InventoryID: private.ID, UserID: bob.ID}
	if err := database.DB.Create(&m).Error; err != nil {
		t.Fatal(err)
	}
	if _, id := ResolveInventory("secret-lab", bob); id == 0 {
		t.Error("member must resolve the joined inventory")
	}

	// public inventories are visible to everyone
	carl := createUser(t, "carl", models.RoleUser)
	if _, id := ResolveInventory("open-lab", carl); id == 0 {
		t.Error("public inventory must resolve for any user")
	}

	// admin sees everything
	if _, id := ResolveInventory("secret-lab", admin); id == 0 {
		t.Error("admin must resolve any inventory")
	}
}

func TestCanManage(t *testing.T) {
	setupTestDB(t)
	ana := createUser(t, "ana", models.RoleUser)
	bob := createUser(t, "bob", models.RoleUser)
	admin := createUser(t, "root", models.RoleAdmin)

	inv := createInventory(t, "lab-x", true, &ana)

	if !CanManage(ana, inv) {
		t.Error("owner manages own inventory")
	}
	if CanManage(bob, inv) {
		t.Error("stranger must not manage")
	}
	if !CanManage(admin, inv) {
		t.Error("admin manages everything")
	}

	// membership grants viewing, not managing
	m := models.InventoryMember{InventoryID: inv.ID, UserID: bob.ID}
	if err := database.DB.Create(&m).Error; err != nil {
		t.Fatal(err)
	}
	if CanManage(bob, inv) {
		t.Error("member must not manage")
	}
}

func TestCanCreateReagent(t *testing.T) {
	setupTestDB(t)
	ana := createUser(t, "ana", models.RoleUser)
	bob := createUser(t, "bob", models.RoleUser)
	admin := createUser(t, "root", models.RoleAdmin)

	inv := createInventory(t, "lab-x", true, &ana)

	var general models.Inventory
	if err := database.DB.Where("slug = ?", models.GeneralSlug).First(&general).Error; err != nil {
		t.Fatal(err)
	}

	if !CanCreateReagent(ana, inv) {
		t.Error("owner creates reagents in own inventory")
	}
	if CanCreateReagent(bob, inv) {
		t.Error("non-owner must not create reagents")
	}
	// admin override applies to general only
	if !CanCreateReagent(admin, &general) {
		t.Error("admin creates reagents in general")
	}
	if CanCreateReagent(admin, inv) {
		t.Error("admin must not create in someone else's inventory")
	}
	if CanCreateReagent(ana, &general) {
		t.Error("plain user must not create in general")
	}
}
