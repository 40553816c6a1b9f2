package main

import (
	"context"
	"log"

	"plugin-billing-be/internal/bootstrap"
	"plugin-billing-be/internal/config"
	"plugin-billing-be/internal/server"
	"plugin-billing-be/internal/tracer"
	"plugin-billing-be/pkg/database"
)

func main() {
	// 0. Initialize Tracer
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Start Background Services
	go func() {
		log.Println("Background: Starting Billing Event Reactor...")
		if err := container.ReactorService.Consume(context.Background()); err != nil {
			log.Printf("Background Reactor Error: %v", err)
		}
	}()
	container.Scheduler.Start()
	defer container.Scheduler.Stop()

	// 5. Initialize Server
	srv := server.New(cfg, container)

	// 6. Run Server
	log.Fatal(srv.Run())
}
