package main

import (
	"flag"
	"log"

	"order-api/config"
	"order-api/internal/store"
)

func main() {
	direction := flag.String("direction", "up", "migration direction: up or down")
	flag.Parse()

	cfg := config.Load()

	if err := store.RunMigrations(cfg.Database.URL, *direction); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Printf("Migrations applied: direction=%s", *direction)
}
