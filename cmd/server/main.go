package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pallet-backend/internal/auth"
	"pallet-backend/internal/cache"
	"pallet-backend/internal/config"
	"pallet-backend/internal/dashboard"
	"pallet-backend/internal/database"
	"pallet-backend/internal/db"
	"pallet-backend/internal/handlers"
	"pallet-backend/internal/health"
	h "pallet-backend/internal/http"
	"pallet-backend/internal/middleware"
	"pallet-backend/internal/repositories"
	"pallet-backend/internal/services"
	"pallet-backend/internal/storage"
	"pallet-backend/internal/timeutil"
	"pallet-backend/migrations"
)

func main() {
	port := flag.Int("port", 0, "Server port (overrides config)")
	flag.Parse()

	// Load configuration
	cfg := config.Load()
	if *port != 0 {
		cfg.Server.Port = *port
	}

	if err := timeutil.SetLocation(cfg.Timezone); err != nil {
		log.Printf("[Config] %v, keeping default zone", err)
	}

	pool := db.Connect(cfg)
	defer pool.Close()

	// Run database migrations
	log.Println("Running database migrations...")
	migrator := database.NewMigratorWithFS(pool, migrations.FS, ".")
	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	if err := migrator.RunMigrations(migrateCtx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	cancelMigrate()

	// Initialize Redis cache (optional - graceful fallback if unavailable)
	if err := cache.Init(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err != nil {
		log.Printf("[Redis] Cache unavailable: %v (queries go straight to the database)", err)
	} else {
		log.Println("[Redis] Cache connected successfully")
	}
	defer cache.Close()

	labelStore, err := storage.NewLabelStore(context.Background(), cfg)
	if err != nil {
		log.Printf("[Storage] %v, label PDFs will not be uploaded", err)
	}

	jwtManager := auth.NewJWTManager(cfg)

	// Initialize repositories
	userRepo := repositories.NewUserRepository(pool)
	operatorRepo := repositories.NewOperatorRepository(pool)
	palletRepo := repositories.NewPalletRepository(pool)
	historyRepo := repositories.NewHistoryRepository(pool)
	inventoryRepo := repositories.NewInventoryRepository(pool)
	acoRepo := repositories.NewACORepository(pool)
	grnRepo := repositories.NewGRNRepository(pool)
	productRepo := repositories.NewProductRepository(pool)
	stockLevelRepo := repositories.NewStockLevelRepository(pool)
	reportLogRepo := repositories.NewReportLogRepository(pool)
	voidReportRepo := repositories.NewVoidReportRepository(pool)
	transferRepo := repositories.NewTransferRepository(pool)

	hub := dashboard.NewHub()
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go hub.Run(hubCtx)

	// Initialize services
	userService := services.NewUserService(userRepo, operatorRepo, jwtManager)
	searchService := services.NewPalletSearchService(palletRepo, historyRepo)
	historyService := services.NewPalletHistoryService(searchService, historyRepo, inventoryRepo, productRepo, operatorRepo)
	verifier := services.NewPasswordVerifier(operatorRepo, userRepo)

	voidService := services.NewVoidService(searchService, verifier, services.VoidStores{
		Pallets:     palletRepo,
		History:     historyRepo,
		Inventory:   inventoryRepo,
		ACO:         acoRepo,
		GRN:         grnRepo,
		Reports:     voidReportRepo,
		ErrorLogs:   reportLogRepo,
		StockLevels: stockLevelRepo,
	}, hub)
	batchService := services.NewBatchVoidService(searchService, voidService, hub, cfg.Void.MaxBatchSize)

	reprintService := services.NewReprintService(palletRepo, historyRepo, productRepo, stockLevelRepo, reportLogRepo, hub)
	// Assign only when configured so the interfaces stay nil otherwise
	if labelStore != nil {
		reprintService.Labels = labelStore
	}
	if cfg.Printer.Enabled {
		timeout := time.Duration(cfg.Printer.TimeoutSeconds) * time.Second
		if printer := services.NewPrinterService(cfg.Printer.URL, timeout); printer != nil {
			reprintService.Printer = printer
			log.Printf("[Printer] Label printing enabled via %s", cfg.Printer.URL)
		}
	}

	voidReportService := services.NewVoidReportService(voidReportRepo)
	transferService := services.NewTransferService(transferRepo)

	widgetService := dashboard.NewWidgetService(palletRepo, inventoryRepo, transferRepo, historyRepo, productRepo, stockLevelRepo, acoRepo)
	widgetService.Clients = hub.Clients
	hub.Reset = widgetService.Reset
	fetcher := dashboard.NewFetcher(dashboard.RedisStore(), widgetService.BatchSource(), dashboard.SourceFunc(widgetService.Fetch))
	fetcher.RegisterPreWarm(dashboard.ThemeOverview)
	fetcher.RegisterPreWarm(dashboard.ThemeWarehouse)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, userRepo)
	corsMiddleware := middleware.NewCORS(cfg)
	apiLoggingMiddleware := middleware.NewAPILoggingMiddleware(reportLogRepo)
	defer apiLoggingMiddleware.Close()

	router := h.NewRouter(h.Handlers{
		Auth:      handlers.NewAuthHandler(userService),
		Pallet:    handlers.NewPalletHandler(searchService, historyService),
		Void:      handlers.NewVoidHandler(voidService, batchService),
		Reprint:   handlers.NewReprintHandler(reprintService),
		Printer:   handlers.NewPrinterHandler(reprintService),
		Report:    handlers.NewReportHandler(voidReportService, transferService),
		Dashboard: handlers.NewDashboardHandler(fetcher, hub),
		Health:    handlers.NewHealthHandler(health.NewHealthChecker(pool)),
	}, authMiddleware)

	handler := middleware.PanicRecovery(middleware.MetricsMiddleware(corsMiddleware(apiLoggingMiddleware.Handler(router))))

	// Pre-warm cache in background (non-blocking)
	go cache.PreWarmCache()
	log.Println("[Redis] Pre-warming cache in background...")

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server running on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
