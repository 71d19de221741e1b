package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/woowonjae/blogauth/internal/auth/app"
)

func main() {
	migrateOnly := flag.Bool("migrate-passwords", false,
		"re-encode legacy plaintext credentials once and exit")
	flag.Parse()

	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	if *migrateOnly {
		report, err := application.MigratePasswords(context.Background())
		if err != nil {
			log.Fatalf("credential migration failed: %v", err)
		}
		_ = application.Close()
		fmt.Printf("scanned=%d migrated=%d failed=%d\n",
			report.Scanned, report.Migrated, report.Failed)
		return
	}

	if err := application.Run(); err != nil {
		log.Fatalf("application error: %v", err)
	}
}
