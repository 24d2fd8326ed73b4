package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rscoates/magic-library/internal/config"
	"github.com/rscoates/magic-library/internal/models"
	"github.com/rscoates/magic-library/internal/repository"
)

// scryfallEntry is the subset of a Scryfall bulk-data card object the
// catalog import needs.
type scryfallEntry struct {
	Lang            string `json:"lang"`
	Name            string `json:"name"`
	Set             string `json:"set"`
	SetName         string `json:"set_name"`
	CollectorNumber string `json:"collector_number"`
	Rarity          string `json:"rarity"`
	ReleasedAt      string `json:"released_at"`
}

// importcatalog streams a Scryfall default-cards bulk export into the card
// and set catalog tables. Re-running it upserts, so a newer dump can be
// loaded over an older one.
func main() {
	var (
		filePath = flag.String("file", "", "path to a Scryfall default-cards*.json dump (default: newest in data dir)")
		verbose  = flag.Bool("verbose", false, "log progress every 10000 cards")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	path := *filePath
	if path == "" {
		path = findDump(cfg.DataDir)
	}
	if path == "" {
		log.Fatalf("No default-cards*.json dump found in %s; pass -file", cfg.DataDir)
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

	cardRepo := repository.NewCardRepository(db)
	setRepo := repository.NewSetRepository(db)

	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", path, err)
	}
	defer f.Close()

	ctx := context.Background()
	start := time.Now()

	cards, sets, err := streamDump(ctx, f, cardRepo, setRepo, *verbose)
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	fmt.Printf("Imported %d cards across %d sets from %s in %s\n",
		cards, sets, filepath.Base(path), time.Since(start).Round(time.Second))
}

// streamDump decodes the top-level JSON array one card at a time so a
// multi-gigabyte dump never has to fit in memory.
func streamDump(ctx context.Context, f *os.File, cardRepo *repository.CardRepository, setRepo *repository.SetRepository, verbose bool) (int, int, error) {
	dec := json.NewDecoder(f)

	tok, err := dec.Token()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read dump: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return 0, 0, fmt.Errorf("expected a JSON array, got %v", tok)
	}

	seenSets := make(map[string]bool)
	cards := 0

	for dec.More() {
		var entry scryfallEntry
		if err := dec.Decode(&entry); err != nil {
			return cards, len(seenSets), fmt.Errorf("failed to decode card %d: %w", cards+1, err)
		}
		if entry.Lang != "" && entry.Lang != "en" {
			continue
		}
		if entry.Set == "" || entry.CollectorNumber == "" || entry.Name == "" {
			continue
		}

		code := strings.ToUpper(entry.Set)
		if !seenSets[code] {
			set := &models.Set{Code: code, Name: entry.SetName}
			if t, err := time.Parse("2006-01-02", entry.ReleasedAt); err == nil {
				set.ReleaseDate = &t
			}
			if err := setRepo.Upsert(ctx, set); err != nil {
				return cards, len(seenSets), fmt.Errorf("failed to upsert set %s: %w", code, err)
			}
			seenSets[code] = true
		}

		card := &models.Card{
			SetCode: code,
			Number:  entry.CollectorNumber,
			Name:    entry.Name,
			Rarity:  entry.Rarity,
		}
		if err := cardRepo.Upsert(ctx, card); err != nil {
			return cards, len(seenSets), fmt.Errorf("failed to upsert card %s/%s: %w", code, entry.CollectorNumber, err)
		}
		cards++

		if verbose && cards%10000 == 0 {
			log.Printf("imported %d cards...", cards)
		}
	}

	return cards, len(seenSets), nil
}

// findDump returns the lexically newest default-cards dump in dir, matching
// the dated filenames Scryfall publishes.
func findDump(dir string) string {
	matches, err := filepath.Glob(filepath.Join(dir, "default-cards*.json"))
	if err != nil || len(matches) == 0 {
		return ""
	}
	sort.Strings(matches)
	return matches[len(matches)-1]
}
