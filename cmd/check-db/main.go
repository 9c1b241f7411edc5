// Package main is a diagnostic tool for the archive table. It loads the server
// configuration, verifies the table is reachable, and prints a summary of the cases
// and their members. The binary exits with a non-zero code on any failure so it can
// gate deployments on a reachable, correctly configured table.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/digital-evidence-archive/dea-backend/internal/awsconfig"
	"github.com/digital-evidence-archive/dea-backend/internal/config"
	"github.com/digital-evidence-archive/dea-backend/internal/db"
	"github.com/digital-evidence-archive/dea-backend/internal/db/repositories"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	awsCfg, err := awsconfig.Load(ctx, &cfg.AWS)
	if err != nil {
		log.Fatalf("Failed to load AWS config: %v", err)
	}

	table := db.Connect(awsCfg, &cfg.DynamoDB)
	if err := table.Ping(ctx); err != nil {
		log.Fatalf("Table check failed: %v", err)
	}
	fmt.Printf("Table %s is reachable\n", table.Name)

	cases, err := repositories.NewCaseRepository(table).ListAll(ctx)
	if err != nil {
		log.Fatalf("Listing cases failed: %v", err)
	}
	members := repositories.NewCaseUserRepository(table)

	fmt.Println("\n=== CASES ===")
	for _, c := range cases {
		users, err := members.ListByCase(ctx, c.ULID)
		if err != nil {
			log.Printf("Warning: failed to list members of %s: %v", c.ULID, err)
			continue
		}
		fmt.Printf("Case: %s %q (%s, %d files, %d members)\n", c.ULID, c.Name, c.Status, c.ObjectCount, len(users))
	}

	fmt.Printf("\nTotal cases: %d\n", len(cases))
}
