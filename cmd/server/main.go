package main

import (
	"log"
	"strings"

	"labstock-backend/internal/auth"
	"labstock-backend/internal/chem"
	"labstock-backend/internal/config"
	"labstock-backend/internal/database"
	"labstock-backend/internal/inventory"
	"labstock-backend/internal/models"
	"labstock-backend/internal/movement"
	"labstock-backend/internal/reagent"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment")
	}

	cfg := config.Load()
	database.Init(cfg)

	renderer := chem.NewClient(cfg.ChemRendererURL)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Unexpected server error",
			})
		},
	})

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-admin", auth.RegisterAdminHandler(cfg))
	api.Post("/auth/register", auth.RegisterHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Admin-only
	admin := protected.Group("/admin", auth.RequireRole(models.RoleAdmin))
	admin.Get("/users", auth.ListUsersHandler())

	// Inventories
	protected.Get("/inventories", inventory.ListInventoriesHandler())
	protected.Post("/inventories", inventory.CreateInventoryHandler())
	protected.Post("/inventories/join", inventory.JoinInventoryHandler())
	protected.Post("/inventories/export", reagent.ExportCSVHandler())
	protected.Post("/inventories/:slug/rotate-invite", inventory.RotateInviteHandler())
	protected.Delete("/inventories/:slug", inventory.DeleteInventoryHandler())

	// Reagents (dashboard listing, detail, create, edit, delete)
	protected.Get("/reagents", reagent.ListReagentsHandler())
	protected.Post("/reagents", reagent.CreateReagentHandler())
	protected.Get("/reagents/:id", reagent.GetReagentHandler(renderer))
	protected.Put("/reagents/:id", reagent.UpdateReagentHandler())
	protected.Delete("/reagents/:id", reagent.DeleteReagentHandler())

	// Checkout / return lifecycle
	protected.Post("/reagents/:id/checkout", reagent.CheckoutHandler())
	protected.Post("/reagents/:id/return", reagent.ReturnHandler())
	protected.Get("/usage-events", reagent.ListUsageEventsHandler())

	// Manual stock movement ledger
	protected.Post("/movements", movement.CreateMovementHandler())
	protected.Get("/movements", movement.ListMovementsHandler())

	log.Println("Server listening on port", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
