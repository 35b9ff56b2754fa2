package main

import (
	"flag"
	"log"

	"github.com/ItsAdel/morpho-apr/internal/config"
	"github.com/ItsAdel/morpho-apr/internal/db"
)

func main() {
	var (
		action = flag.String("action", "up", "Migration action: up, down, version")
		path   = flag.String("path", "internal/db/migrations", "Migrations directory")
	)
	flag.Parse()

	cfg := config.Load()

	switch *action {
	case "up":
		if err := db.RunMigrations(cfg.DatabaseURL, *path); err != nil {
			log.Fatalf("migrations failed: %v", err)
		}
		log.Println("migrations applied")
	case "down":
		if err := db.RollbackMigrations(cfg.DatabaseURL, *path); err != nil {
			log.Fatalf("rollback failed: %v", err)
		}
		log.Println("migration rolled back")
	case "version":
		v, dirty, err := db.MigrationVersion(cfg.DatabaseURL, *path)
		if err != nil {
			log.Fatalf("version lookup failed: %v", err)
		}
		log.Printf("migration version: %d (dirty: %v)", v, dirty)
	default:
		log.Fatalf("unknown action: %s", *action)
	}
}
