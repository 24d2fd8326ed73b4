package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/rscoates/magic-library/internal/config"
	"github.com/rscoates/magic-library/internal/repository"
	"github.com/rscoates/magic-library/internal/services"
)

// consolidate renumbers binder positions for a user's binders so every
// distinct card name holds one position and positions run 1..N with no gaps.
func main() {
	var (
		username    = flag.String("user", "", "username whose binders to consolidate (default: configured default user)")
		containerID = flag.Int64("container", 0, "consolidate a single binder by container ID instead of all binders")
		dryRun      = flag.Bool("dry-run", false, "report the plan without writing changes")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	var db *sql.DB
	if cfg.UsePostgres() {
		db, err = repository.NewPostgresDB(cfg.DatabaseURL)
	} else {
		db, err = repository.NewSQLiteDB(cfg.DatabasePath)
	}
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	userRepo := repository.NewUserRepository(db)
	containerRepo := repository.NewContainerRepository(db)
	entryRepo := repository.NewEntryRepository(db)
	binderService := services.NewBinderService(entryRepo, containerRepo)

	ctx := context.Background()

	name := *username
	if name == "" {
		name = cfg.Auth.DefaultUsername
	}
	user, err := userRepo.GetByUsername(ctx, name)
	if err != nil {
		log.Fatalf("Failed to look up user %q: %v", name, err)
	}
	if user == nil {
		log.Fatalf("User %q not found", name)
	}

	if *dryRun {
		if *containerID == 0 {
			fmt.Fprintln(os.Stderr, "dry-run requires -container")
			os.Exit(2)
		}
		entries, err := entryRepo.ListBinderEntries(ctx, *containerID, user.ID)
		if err != nil {
			log.Fatalf("Failed to load binder entries: %v", err)
		}
		plan := services.PlanConsolidation(entries)
		fmt.Printf("Would update %d entries in container %d\n", len(plan), *containerID)
		for _, p := range plan {
			fmt.Printf("  entry %d -> position %d\n", p.EntryID, p.Position)
		}
		return
	}

	var updated int
	if *containerID != 0 {
		updated, err = binderService.Consolidate(ctx, *containerID, user.ID)
	} else {
		updated, err = binderService.ConsolidateAll(ctx, user.ID)
	}
	if err != nil {
		log.Fatalf("Consolidation failed: %v", err)
	}

	fmt.Printf("Consolidated binder positions for %s: %d entries updated\n", name, updated)
}
