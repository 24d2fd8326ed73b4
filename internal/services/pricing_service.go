package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/rscoates/magic-library/internal/models"
	"github.com/rscoates/magic-library/internal/observability"
	"github.com/rscoates/magic-library/internal/repository"
)

// priceEntry holds the three USD price points Scryfall publishes per printing.
type priceEntry struct {
	usd       *float64
	usdFoil   *float64
	usdEtched *float64
}

type priceKey struct {
	setCode string
	number  string
}

// PricingService keeps an in-memory price table loaded from a Scryfall
// default-cards JSON dump. Lookups are lock-free reads under a RWMutex so
// page-value requests never block a reload for long.
type PricingService struct {
	entryRepo     repository.EntryRepo
	cardRepo      repository.CardRepo
	containerRepo repository.ContainerRepo
	metadataRepo  repository.MetadataRepo
	dataDir       string
	logger        *observability.Logger

	mu     sync.RWMutex
	prices map[priceKey]priceEntry
	loaded bool
}

// NewPricingService creates a new PricingService
func NewPricingService(
	entryRepo repository.EntryRepo,
	cardRepo repository.CardRepo,
	containerRepo repository.ContainerRepo,
	metadataRepo repository.MetadataRepo,
	dataDir string,
	logger *observability.Logger,
) *PricingService {
	return &PricingService{
		entryRepo:     entryRepo,
		cardRepo:      cardRepo,
		containerRepo: containerRepo,
		metadataRepo:  metadataRepo,
		dataDir:       dataDir,
		logger:        logger,
		prices:        make(map[priceKey]priceEntry),
	}
}

// scryfallCard is the subset of a Scryfall card object the loader reads.
type scryfallCard struct {
	Lang            string            `json:"lang"`
	Set             string            `json:"set"`
	CollectorNumber string            `json:"collector_number"`
	Prices          map[string]string `json:"prices"`
}

// findScryfallFile looks for a default-cards*.json dump in the data
// directory.
func (s *PricingService) findScryfallFile() string {
	matches, err := filepath.Glob(filepath.Join(s.dataDir, "default-cards*.json"))
	if err != nil || len(matches) == 0 {
		return ""
	}
	sort.Strings(matches)
	// Most recent dump sorts last (filenames carry a timestamp).
	return matches[len(matches)-1]
}

// Load reads the price dump from disk, replacing the current table. Only
// English printings are kept, so one card maps to one price row. Returns the
// number of printings loaded.
func (s *PricingService) Load(path string) (int, error) {
	if path == "" {
		path = s.findScryfallFile()
	}
	if path == "" {
		s.mu.Lock()
		s.loaded = false
		s.mu.Unlock()
		s.logger.WithField("data_dir", s.dataDir).Warn("no Scryfall default-cards JSON found, pricing unavailable")
		return 0, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read price file: %w", err)
	}
	var cards []scryfallCard
	if err := json.Unmarshal(data, &cards); err != nil {
		return 0, fmt.Errorf("failed to parse price file: %w", err)
	}

	next := make(map[priceKey]priceEntry, len(cards))
	for _, c := range cards {
		if c.Lang != "en" || c.Set == "" || c.CollectorNumber == "" {
			continue
		}
		next[priceKey{strings.ToUpper(c.Set), c.CollectorNumber}] = priceEntry{
			usd:       parsePrice(c.Prices["usd"]),
			usdFoil:   parsePrice(c.Prices["usd_foil"]),
			usdEtched: parsePrice(c.Prices["usd_etched"]),
		}
	}

	s.mu.Lock()
	s.prices = next
	s.loaded = len(next) > 0
	s.mu.Unlock()

	s.logger.WithFields(map[string]interface{}{
		"path":      path,
		"printings": len(next),
	}).Info("loaded pricing data")
	return len(next), nil
}

func parsePrice(v string) *float64 {
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &f
}

// Loaded reports whether a price table is in memory.
func (s *PricingService) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Value resolves the USD value of one printing under a finish. Nil finish is
// the base price; foil and etched each fall back toward the base price when
// their own price point is missing.
func (s *PricingService) Value(setCode, number string, finishName *string) *float64 {
	s.mu.RLock()
	entry, ok := s.prices[priceKey{strings.ToUpper(setCode), number}]
	s.mu.RUnlock()
	if !ok {
		return nil
	}

	if finishName == nil {
		return entry.usd
	}
	switch strings.ToLower(*finishName) {
	case "etched":
		if entry.usdEtched != nil {
			return entry.usdEtched
		}
		fallthrough
	case "foil":
		if entry.usdFoil != nil {
			return entry.usdFoil
		}
		return entry.usd
	default:
		if entry.usdFoil != nil {
			return entry.usdFoil
		}
		return entry.usd
	}
}

// Status describes the price table for the status endpoint.
func (s *PricingService) Status() *models.PricingStatusResponse {
	if s.Loaded() {
		return &models.PricingStatusResponse{Loaded: true, Message: "Pricing data is loaded."}
	}
	return &models.PricingStatusResponse{
		Loaded:  false,
		Message: "Pricing data is not available. Place a Scryfall default-cards JSON in the data directory and reload.",
	}
}

// CollectionValue prices every entry (optionally one container), returning a
// summary plus the top entries by total value. Sold containers are excluded
// unless includeSold is set or a specific container is requested.
func (s *PricingService) CollectionValue(ctx context.Context, userID string, containerID *int64, includeSold bool, limit int) (*models.TopCardsResponse, error) {
	entries, err := s.entryRepo.List(ctx, userID, containerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}

	var sold map[int64]bool
	if containerID == nil && !includeSold {
		sold, err = s.containerRepo.ListSoldIDs(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to list sold containers: %w", err)
		}
	}

	cardNames := make(map[priceKey]string)
	finishNames := make(map[int64]*string)
	containerNames := make(map[int64]string)

	var priced []models.PricedCard
	summary := models.CollectionValueSummary{PricingAvailable: s.Loaded()}

	for _, e := range entries {
		if sold != nil && sold[e.ContainerID] {
			continue
		}
		summary.TotalUnique++
		summary.TotalCards += e.Quantity

		key := priceKey{e.SetCode, e.CardNumber}
		name, ok := cardNames[key]
		if !ok {
			name = "Unknown"
			if card, err := s.cardRepo.GetBySetNumber(ctx, e.SetCode, e.CardNumber); err == nil && card != nil {
				name = card.Name
			}
			cardNames[key] = name
		}

		var finishName *string
		if e.FinishID != nil {
			fn, ok := finishNames[*e.FinishID]
			if !ok {
				if finish, err := s.metadataRepo.GetFinish(ctx, *e.FinishID); err == nil && finish != nil {
					fn = &finish.Name
				}
				finishNames[*e.FinishID] = fn
			}
			finishName = fn
		}

		containerName, ok := containerNames[e.ContainerID]
		if !ok {
			containerName = "Unknown"
			if container, err := s.containerRepo.GetByID(ctx, e.ContainerID, userID); err == nil && container != nil {
				containerName = container.Name
			}
			containerNames[e.ContainerID] = containerName
		}

		unit := s.Value(e.SetCode, e.CardNumber, finishName)
		var total *float64
		if unit != nil {
			t := *unit * float64(e.Quantity)
			total = &t
			summary.PricedCards++
			summary.TotalValue += t
		} else {
			summary.UnpricedCards++
		}

		priced = append(priced, models.PricedCard{
			EntryID:       e.ID,
			CardName:      name,
			SetCode:       e.SetCode,
			CardNumber:    e.CardNumber,
			FinishName:    finishName,
			Quantity:      e.Quantity,
			UnitPrice:     unit,
			TotalPrice:    total,
			ContainerName: containerName,
			ContainerID:   e.ContainerID,
		})
	}

	sort.SliceStable(priced, func(i, j int) bool {
		ti, tj := priced[i].TotalPrice, priced[j].TotalPrice
		if (ti != nil) != (tj != nil) {
			return ti != nil
		}
		if ti == nil {
			return false
		}
		return *ti > *tj
	})
	if limit > 0 && len(priced) > limit {
		priced = priced[:limit]
	}

	summary.TotalValue = math.Round(summary.TotalValue*100) / 100
	return &models.TopCardsResponse{Summary: summary, Cards: priced}, nil
}
