// Package main provides the saved-route database migration runner.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/cory-johannsen/starmap/internal/config"
	"github.com/cory-johannsen/starmap/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	envFile := flag.String("env-file", ".env", "optional dotenv file")
	source := flag.String("source", "file://migrations", "migration source URL")
	direction := flag.String("direction", "up", "migration direction: up or down")
	steps := flag.Int("steps", 0, "number of steps (0 = all)")
	flag.Parse()

	if err := config.LoadDotEnv(*envFile); err != nil {
		log.Fatalf("loading env file: %v", err)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	dsn := cfg.Database.DSN()

	var (
		version uint
		dirty   bool
	)
	switch *direction {
	case "up":
		version, dirty, err = postgres.Migrate(*source, dsn, *steps)
	case "down":
		if *steps > 0 {
			version, dirty, err = postgres.Migrate(*source, dsn, -*steps)
		} else {
			err = postgres.MigrateDown(*source, dsn)
		}
	default:
		log.Fatalf("invalid direction %q: must be 'up' or 'down'", *direction)
	}
	if err != nil {
		log.Fatalf("%v", err)
	}

	fmt.Fprintf(os.Stdout, "migrated %s to version=%d dirty=%v [%s]\n", *direction, version, dirty, time.Since(start))
}
