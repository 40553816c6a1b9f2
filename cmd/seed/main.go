package main

import (
	"log"
	"os"

	"plugin-billing-be/internal/model"
	"plugin-billing-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// Seeds a demo tenant catalog: one free plugin and one paid plugin with a
// three-plan ladder. Idempotent on slugs.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	tenantId := uuid.New()
	if v := os.Getenv("SEED_TENANT_ID"); v != "" {
		parsed, err := uuid.Parse(v)
		if err != nil {
			log.Fatalf("Error: SEED_TENANT_ID is not a UUID: %v", err)
		}
		tenantId = parsed
	}

	freePlugin := &model.Plugin{
		Id:          uuid.New(),
		TenantId:    tenantId,
		Name:        "Markdown Exporter",
		Slug:        "markdown-exporter",
		Description: "Export workspace content as markdown bundles.",
		Status:      "active",
		HasPlan:     false,
	}

	paidPlugin := &model.Plugin{
		Id:          uuid.New(),
		TenantId:    tenantId,
		Name:        "Analytics Suite",
		Slug:        "analytics-suite",
		Description: "Usage dashboards, funnels and scheduled reports.",
		Status:      "active",
		HasPlan:     true,
	}

	for _, p := range []*model.Plugin{freePlugin, paidPlugin} {
		res := db.Where("slug = ?", p.Slug).FirstOrCreate(p)
		if res.Error != nil {
			log.Fatalf("Error: failed to seed plugin %s: %v", p.Slug, res.Error)
		}
	}

	plans := []*model.SubscriptionPlan{
		{
			Id:            uuid.New(),
			PluginId:      paidPlugin.Id,
			Name:          "Starter",
			Slug:          "analytics-starter",
			Description:   "Core dashboards for small teams.",
			Price:         19.00,
			Currency:      "USD",
			BillingPeriod: "monthly",
			TrialDays:     14,
			SortOrder:     1,
			IsActive:      true,
		},
		{
			Id:                 uuid.New(),
			PluginId:           paidPlugin.Id,
			Name:               "Pro",
			Slug:               "analytics-pro",
			Description:        "Funnels, cohorts and scheduled reports.",
			Price:              49.00,
			Currency:           "USD",
			DiscountPercentage: 10,
			SetupFee:           25,
			BillingPeriod:      "monthly",
			SortOrder:          2,
			IsActive:           true,
		},
		{
			Id:            uuid.New(),
			PluginId:      paidPlugin.Id,
			Name:          "Enterprise Annual",
			Slug:          "analytics-enterprise",
			Description:   "Everything in Pro, billed yearly.",
			Price:         490.00,
			Currency:      "USD",
			BillingPeriod: "yearly",
			SortOrder:     3,
			IsActive:      true,
		},
	}

	for _, p := range plans {
		res := db.Where("slug = ?", p.Slug).FirstOrCreate(p)
		if res.Error != nil {
			log.Fatalf("Error: failed to seed plan %s: %v", p.Slug, res.Error)
		}
	}

	log.Printf("Seed complete. tenant=%s plugins=2 plans=%d", tenantId, len(plans))
}
