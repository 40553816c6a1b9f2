package main

import (
	"log"
	"os"

	"plugin-billing-be/internal/model"
	"plugin-billing-be/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting GORM Migration...")

	// 3. Pre-Migration: Extensions & Enums (things AutoMigrate doesn't do)
	log.Println("Step 1: Setting up Extensions and Enums...")

	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,

		`DO $$ BEGIN IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'plugin_status') THEN CREATE TYPE plugin_status AS ENUM ('active', 'inactive', 'deprecated', 'archived'); END IF; END $$;`,
		`DO $$ BEGIN IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'subscription_scope') THEN CREATE TYPE subscription_scope AS ENUM ('USER', 'ORGANIZATION', 'TENANT'); END IF; END $$;`,
		`DO $$ BEGIN IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'subscription_status') THEN CREATE TYPE subscription_status AS ENUM ('active', 'trial', 'suspended', 'cancelled', 'expired'); END IF; END $$;`,
		`DO $$ BEGIN IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'billing_status') THEN CREATE TYPE billing_status AS ENUM ('pending', 'paid', 'failed', 'overdue'); END IF; END $$;`,
		`DO $$ BEGIN IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'billing_period') THEN CREATE TYPE billing_period AS ENUM ('daily', 'weekly', 'monthly', 'quarterly', 'yearly', 'one_time'); END IF; END $$;`,
	}

	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	// 4. AutoMigrate All Models
	log.Println("Step 2: Running AutoMigrate...")

	models := []interface{}{
		&model.Plugin{},
		&model.PluginVersion{},
		&model.SubscriptionPlan{},
		&model.PluginSubscription{},
		&model.PluginBilling{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		log.Fatal("Error: AutoMigrate failed:", err)
	}

	// 5. Post-Migration: indexes the hot paths depend on
	log.Println("Step 3: Creating Indexes...")

	indexSQL := []string{
		`CREATE INDEX IF NOT EXISTS idx_subscriptions_plugin_tenant ON plugin_subscriptions (plugin_id, tenant_id);`,
		`CREATE INDEX IF NOT EXISTS idx_subscriptions_renewal ON plugin_subscriptions (auto_renew, status, end_date);`,
		`CREATE INDEX IF NOT EXISTS idx_billings_subscription ON plugin_billings (subscription_id);`,
		`CREATE INDEX IF NOT EXISTS idx_billings_due ON plugin_billings (status, due_date);`,
	}

	for _, sql := range indexSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to create index: %v. Continuing...", err)
		}
	}

	log.Println("Migration complete.")
}
