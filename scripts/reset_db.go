package main

import (
	"context"
	"fmt"
	"log"

	"pallet-backend/internal/auth"
	"pallet-backend/internal/cache"
	"pallet-backend/internal/config"
	"pallet-backend/internal/db"
)

func main() {
	fmt.Println("========================================")
	fmt.Println("   Reset Pallet Data for Testing")
	fmt.Println("========================================")
	fmt.Println()
	fmt.Println("⚠️  WARNING: This will DELETE ALL PALLET RECORDS!")
	fmt.Println()
	fmt.Println("This will:")
	fmt.Println("  - Delete all pallets and their history")
	fmt.Println("  - Delete all transfers, voids and error logs")
	fmt.Println("  - Zero inventory and stock levels")
	fmt.Println("  - Flush dashboard caches")
	fmt.Println()
	fmt.Print("Type 'yes' to confirm: ")

	var confirm string
	fmt.Scanln(&confirm)

	if confirm != "yes" {
		fmt.Println("Reset cancelled.")
		return
	}

	cfg := config.Load()
	pool := db.Connect(cfg)
	defer pool.Close()

	fmt.Println()
	fmt.Println("🔄 Resetting database...")

	ctx := context.Background()

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("Failed to begin transaction: %v\n", err)
	}
	defer tx.Rollback(ctx)

	// Children first; record_palletinfo is referenced by most of these
	tables := []string{
		"report_void",
		"report_log",
		"record_transfer",
		"record_history",
		"record_grn",
		"record_aco",
		"record_inventory",
		"stock_level",
		"record_palletinfo",
	}

	for _, table := range tables {
		if _, err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
			log.Fatalf("Failed to truncate %s: %v\n", table, err)
		}
		fmt.Printf("  ✓ Cleared %s\n", table)
	}

	// Password: admin123
	hash, err := auth.HashPassword("admin123")
	if err != nil {
		log.Fatalf("Failed to hash admin password: %v\n", err)
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO users (email, password_hash, role)
		VALUES ($1, $2, 'admin')
		ON CONFLICT (email) DO UPDATE SET password_hash = EXCLUDED.password_hash, is_active = TRUE`,
		"admin@pallet.local", hash,
	)
	if err != nil {
		log.Fatalf("Failed to create admin user: %v\n", err)
	}
	fmt.Println("  ✓ Ensured admin user")

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("Failed to commit transaction: %v\n", err)
	}

	if err := cache.Init(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err == nil {
		cache.InvalidatePalletCaches(ctx)
		cache.Close()
		fmt.Println("  ✓ Flushed pallet caches")
	} else {
		fmt.Printf("  - Redis unavailable, caches not flushed: %v\n", err)
	}

	fmt.Println()
	fmt.Println("✅ Database reset successful!")
	fmt.Println()
	fmt.Println("Default credentials:")
	fmt.Println("  Email:    admin@pallet.local")
	fmt.Println("  Password: admin123")
}
