package services

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/rscoates/magic-library/internal/models"
	"github.com/rscoates/magic-library/internal/repository"
)

// decklistLine matches "4 Lightning Bolt" and "4x Lightning Bolt".
var decklistLine = regexp.MustCompile(`^(\d+)x?\s+(.+)$`)

// DecklistService checks MTGO-format decklists against the collection.
type DecklistService struct {
	entryRepo     repository.EntryRepo
	cardRepo      repository.CardRepo
	containerRepo repository.ContainerRepo
	metadataRepo  repository.MetadataRepo
	collection    *CollectionService
}

// NewDecklistService creates a new DecklistService
func NewDecklistService(
	entryRepo repository.EntryRepo,
	cardRepo repository.CardRepo,
	containerRepo repository.ContainerRepo,
	metadataRepo repository.MetadataRepo,
	collection *CollectionService,
) *DecklistService {
	return &DecklistService{
		entryRepo:     entryRepo,
		cardRepo:      cardRepo,
		containerRepo: containerRepo,
		metadataRepo:  metadataRepo,
		collection:    collection,
	}
}

type decklistCard struct {
	name        string
	quantity    int
	isSideboard bool
}

// parseDecklist reads MTGO text: "N CardName" lines, with a "Sideboard"
// divider. Unparseable lines are skipped.
func parseDecklist(text string) []decklistCard {
	var cards []decklistCard
	sideboard := false
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch strings.ToLower(line) {
		case "sideboard", "sideboard:":
			sideboard = true
			continue
		}
		m := decklistLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		qty, err := strconv.Atoi(m[1])
		if err != nil || qty < 1 {
			continue
		}
		cards = append(cards, decklistCard{
			name:        strings.TrimSpace(m[2]),
			quantity:    qty,
			isSideboard: sideboard,
		})
	}
	return cards
}

// scoredLocation carries the language id needed for grouping alongside the
// response shape.
type scoredLocation struct {
	models.DecklistCardLocation
	languageID int64
}

// scoreLocations orders holdings so a single grab can satisfy the line:
// (set, language) groups that cover the requested quantity come first, then
// larger groups before smaller ones.
func scoreLocations(locations []scoredLocation, requested int) []scoredLocation {
	if len(locations) == 0 {
		return nil
	}

	type groupKey struct {
		setCode    string
		languageID int64
	}
	groups := make(map[groupKey][]scoredLocation)
	var order []groupKey
	for _, loc := range locations {
		key := groupKey{loc.SetCode, loc.languageID}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], loc)
	}

	type scoredGroup struct {
		canSatisfy bool
		total      int
		locations  []scoredLocation
	}
	scored := make([]scoredGroup, 0, len(groups))
	for _, key := range order {
		locs := groups[key]
		total := 0
		for _, l := range locs {
			total += l.Quantity
		}
		scored = append(scored, scoredGroup{total >= requested, total, locs})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].canSatisfy != scored[j].canSatisfy {
			return scored[i].canSatisfy
		}
		return scored[i].total > scored[j].total
	})

	var result []scoredLocation
	for _, g := range scored {
		result = append(result, g.locations...)
	}
	return result
}

// Check resolves each decklist line against owned entries, skipping holdings
// in sold containers (and anything inside one).
func (s *DecklistService) Check(ctx context.Context, userID string, req *models.DecklistRequest) (*models.DecklistResult, error) {
	parsed := parseDecklist(req.Decklist)

	sold, err := s.containerRepo.ListSoldIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sold containers: %w", err)
	}

	result := &models.DecklistResult{Cards: []models.DecklistCardResult{}}
	for _, dc := range parsed {
		result.TotalCardsRequested += dc.quantity

		printings, err := s.cardRepo.ListByName(ctx, dc.name)
		if err != nil {
			return nil, fmt.Errorf("failed to look up card: %w", err)
		}

		var locations []scoredLocation
		for _, card := range printings {
			entries, err := s.entryRepo.ListByCard(ctx, card.SetCode, card.Number, userID)
			if err != nil {
				return nil, fmt.Errorf("failed to list entries: %w", err)
			}
			for _, e := range entries {
				if sold[e.ContainerID] {
					continue
				}
				loc, err := s.locationFor(ctx, e, userID)
				if err != nil {
					return nil, err
				}
				locations = append(locations, *loc)
			}
		}

		ranked := scoreLocations(locations, dc.quantity)
		owned := 0
		for _, loc := range ranked {
			owned += loc.Quantity
		}
		missing := dc.quantity - owned
		if missing < 0 {
			missing = 0
		}
		usable := owned
		if usable > dc.quantity {
			usable = dc.quantity
		}
		result.TotalCardsOwned += usable
		result.TotalCardsMissing += missing

		cardResult := models.DecklistCardResult{
			CardName:          dc.name,
			RequestedQuantity: dc.quantity,
			OwnedQuantity:     owned,
			MissingQuantity:   missing,
			Locations:         []models.DecklistCardLocation{},
			IsSideboard:       dc.isSideboard,
		}
		for _, loc := range ranked {
			cardResult.Locations = append(cardResult.Locations, loc.DecklistCardLocation)
		}
		result.Cards = append(result.Cards, cardResult)
	}
	return result, nil
}

func (s *DecklistService) locationFor(ctx context.Context, e *models.CollectionEntry, userID string) (*scoredLocation, error) {
	loc := scoredLocation{
		DecklistCardLocation: models.DecklistCardLocation{
			EntryID:       e.ID,
			SetCode:       e.SetCode,
			CardNumber:    e.CardNumber,
			ContainerName: "Unknown",
			ContainerPath: "Unknown",
			Quantity:      e.Quantity,
			LanguageName:  "Unknown",
		},
		languageID: e.LanguageID,
	}

	container, err := s.containerRepo.GetByID(ctx, e.ContainerID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up container: %w", err)
	}
	if container != nil {
		loc.ContainerName = container.Name
		loc.ContainerPath, err = s.collection.ContainerPath(ctx, container, userID)
		if err != nil {
			return nil, err
		}
	}
	if e.FinishID != nil {
		if finish, err := s.metadataRepo.GetFinish(ctx, *e.FinishID); err == nil && finish != nil {
			loc.FinishName = &finish.Name
		}
	}
	if lang, err := s.metadataRepo.GetLanguage(ctx, e.LanguageID); err == nil && lang != nil {
		loc.LanguageName = lang.Name
	}
	return &loc, nil
}
