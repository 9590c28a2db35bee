package main

import (
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"comercial-stock-backend/internal/handler"
	"comercial-stock-backend/internal/middleware"
	"comercial-stock-backend/internal/model"
	"comercial-stock-backend/internal/repository"
	"comercial-stock-backend/internal/service"
	"comercial-stock-backend/internal/ws"
	"comercial-stock-backend/pkg/database"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// 2. Setup Database
	db := database.ConnectDB()
	// Auto Migrate (Hati-hati di production, sebaiknya pakai tools migrasi terpisah)
	db.AutoMigrate(
		&model.Category{},
		&model.Product{},
		&model.StockRecord{},
		&model.MovementEntry{},
		&model.Sale{},
		&model.SaleItem{},
		&model.User{},
	)

	// 3. Seed default admin user
	seedAdmin(db)

	// 4. Setup WebSocket Hub
	wsHub := ws.NewHub()
	go wsHub.Run()

	// 5. Dependency Injection (Wiring Layers)
	productRepo := repository.NewProductRepo(db)
	stockRepo := repository.NewStockRepo(db)
	movementRepo := repository.NewMovementRepo(db)
	saleRepo := repository.NewSaleRepo(db)
	userRepo := repository.NewUserRepo(db)

	ledgerService := service.NewLedgerService(db, stockRepo, movementRepo, wsHub)
	stockService := service.NewStockService(stockRepo, productRepo, movementRepo, ledgerService, wsHub)
	adjustmentService := service.NewAdjustmentService(db, stockRepo, ledgerService, wsHub)
	stockValidator := service.NewStockValidatorService(productRepo)
	alertService := service.NewAlertService(stockRepo, saleRepo, lowStockBufferFromEnv())
	saleService := service.NewSaleService(db, saleRepo, productRepo, ledgerService, stockValidator, wsHub)
	dashService := service.NewDashboardService(stockRepo, movementRepo, alertService)
	productService := service.NewProductService(productRepo)
	authService := service.NewAuthService(userRepo, wsHub)
	userService := service.NewUserService(userRepo)

	invHandler := handler.NewInventoryHandler(stockService, adjustmentService, ledgerService)
	productHandler := handler.NewProductHandler(productService)
	saleHandler := handler.NewSaleHandler(saleService, stockValidator)
	alertHandler := handler.NewAlertHandler(alertService)
	dashHandler := handler.NewDashboardHandler(dashService)
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "Comercial Stock Backend v1.0",
	})

	// Middleware
	app.Use(logger.New())  // Logging request
	app.Use(recover.New()) // Panic recovery
	app.Use(cors.New())    // CORS

	// 7. Routes
	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	// Auth Routes (No authentication required)
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/reset-password", authHandler.ResetPassword)
	auth.Post("/validate-token", authHandler.ValidateToken)
	auth.Post("/heartbeat", middleware.RequireAuth(userRepo), authHandler.Heartbeat)

	// ============ PROTECTED ROUTES ============
	// All routes below require authentication
	protected := api.Group("", middleware.RequireAuth(userRepo))

	// Dashboard Routes (authenticated users can view)
	protected.Get("/dashboard/stats", dashHandler.GetDashboardStats)
	protected.Get("/dashboard/stock-movement", dashHandler.GetStockMovement)

	// Product Routes
	protected.Get("/products", productHandler.GetProducts)
	protected.Get("/products/:id", productHandler.GetProduct)
	protected.Post("/products", middleware.RequireRole(model.RoleAdmin, model.RoleManager), productHandler.CreateProduct)
	protected.Put("/products/:id", middleware.RequireRole(model.RoleAdmin, model.RoleManager), productHandler.UpdateProduct)

	// Stock Routes
	protected.Get("/stock", invHandler.GetStocks)
	protected.Get("/stock/stats", invHandler.GetStats)
	protected.Post("/stock", middleware.RequireRole(model.RoleAdmin, model.RoleManager), invHandler.CreateStock)
	protected.Get("/stock/:productId", invHandler.GetStock)
	protected.Get("/stock/:productId/check", invHandler.CheckStock)
	protected.Get("/stock/:productId/movements", invHandler.GetMovements)
	protected.Put("/stock/:productId/thresholds", middleware.RequireRole(model.RoleAdmin, model.RoleManager), invHandler.UpdateThresholds)
	protected.Put("/stock/:productId/location", middleware.RequireRole(model.RoleAdmin, model.RoleManager), invHandler.UpdateLocation)

	// Adjustment Routes (preview then confirm)
	protected.Post("/stock/adjust/preview", middleware.RequireRole(model.RoleAdmin, model.RoleManager), invHandler.PreviewAdjustment)
	protected.Post("/stock/adjust", middleware.RequireRole(model.RoleAdmin, model.RoleManager), invHandler.ConfirmAdjustment)

	// Alert Routes
	protected.Get("/alerts", alertHandler.GetAlerts)
	protected.Get("/alerts/badges", alertHandler.GetBadges)

	// Sale Routes
	protected.Get("/sales", saleHandler.GetSales)
	protected.Get("/sales/:id", saleHandler.GetSale)
	protected.Post("/sales", saleHandler.CreateSale)
	protected.Post("/sales/validate-stock", saleHandler.ValidateStock)
	protected.Post("/sales/:id/complete", saleHandler.CompleteSale)
	protected.Post("/sales/:id/cancel", middleware.RequireRole(model.RoleAdmin, model.RoleManager), saleHandler.CancelSale)

	// User Management Routes (admin only)
	protected.Get("/users", userHandler.GetUsers)
	protected.Get("/users/:id", userHandler.GetUser)
	protected.Post("/users", middleware.RequireRole(model.RoleAdmin), userHandler.CreateUser)
	protected.Put("/users/:id", middleware.RequireRole(model.RoleAdmin), userHandler.UpdateUser)
	protected.Delete("/users/:id", middleware.RequireRole(model.RoleAdmin), userHandler.DeleteUser)

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHub.Register <- c
		defer func() { wsHub.Unregister <- c }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 8. Graceful Shutdown
	go func() {
		port := os.Getenv("PORT")
		if port == "" {
			port = "3000"
		}
		if err := app.Listen(":" + port); err != nil {
			log.Panic(err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}

// lowStockBufferFromEnv reads the LOW urgency buffer multiplier, 0 keeps the
// service default.
func lowStockBufferFromEnv() float64 {
	raw := os.Getenv("LOW_STOCK_BUFFER")
	if raw == "" {
		return 0
	}
	buffer, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("Warning: invalid LOW_STOCK_BUFFER %q, using default", raw)
		return 0
	}
	return buffer
}

// seedAdmin creates the default admin user if it doesn't exist
func seedAdmin(db *gorm.DB) {
	userRepo := repository.NewUserRepo(db)

	_, err := userRepo.FindByEmail("admin@example.com")
	if err == nil {
		return
	}

	admin := &model.User{
		Email:    "admin@example.com",
		FullName: "Administrator",
		Role:     model.RoleAdmin,
		IsActive: true,
	}
	admin.CreatedBy = "system"
	admin.UpdatedBy = "system"

	if err := admin.SetPassword("admin123"); err != nil {
		log.Printf("Warning: Failed to hash admin password: %v", err)
		return
	}

	if err := userRepo.Create(admin); err != nil {
		log.Printf("Warning: Failed to create admin user: %v", err)
	} else {
		log.Println("✅ Admin user created: admin@example.com / admin123 (ADMIN)")
	}
}
