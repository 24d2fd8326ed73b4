package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rscoates/magic-library/internal/models"
	"github.com/rscoates/magic-library/internal/repository"
)

// fillRowVariantCap bounds how many variants of one position fill-row mode
// will surface.
const fillRowVariantCap = 4

// releaseSentinel stands in for a missing or unknown set release date so that
// unknown sets always rank after known ones.
var releaseSentinel = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

// BinderService renders binder pages and maintains positions. The ordering
// and grouping logic is kept in pure functions over loaded entries so it can
// be exercised without storage.
type BinderService struct {
	entryRepo     repository.EntryRepo
	containerRepo repository.ContainerRepo
}

// NewBinderService creates a new BinderService
func NewBinderService(entryRepo repository.EntryRepo, containerRepo repository.ContainerRepo) *BinderService {
	return &BinderService{entryRepo: entryRepo, containerRepo: containerRepo}
}

// rankKey is the total order used everywhere a "best" entry is chosen:
// English first, then oldest set, then lowest entry id.
type rankKey struct {
	notEnglish bool
	release    time.Time
	id         int64
}

func keyFor(e *models.BinderEntry) rankKey {
	k := rankKey{
		notEnglish: !strings.EqualFold(e.LanguageName, "English"),
		release:    releaseSentinel,
		id:         e.ID,
	}
	if e.ReleaseDate != nil {
		k.release = *e.ReleaseDate
	}
	return k
}

func (k rankKey) less(other rankKey) bool {
	if k.notEnglish != other.notEnglish {
		return !k.notEnglish
	}
	if !k.release.Equal(other.release) {
		return k.release.Before(other.release)
	}
	return k.id < other.id
}

// rankEntries sorts a position group into representative order.
func rankEntries(entries []*models.BinderEntry) []*models.BinderEntry {
	ranked := make([]*models.BinderEntry, len(entries))
	copy(ranked, entries)
	sort.Slice(ranked, func(i, j int) bool {
		return keyFor(ranked[i]).less(keyFor(ranked[j]))
	})
	return ranked
}

// groupByPosition buckets entries by their non-null position. Entries without
// a position are excluded; consolidation backfills them.
func groupByPosition(entries []*models.BinderEntry) map[int][]*models.BinderEntry {
	groups := make(map[int][]*models.BinderEntry)
	for _, e := range entries {
		if e.Position == nil {
			continue
		}
		groups[*e.Position] = append(groups[*e.Position], e)
	}
	return groups
}

func maxPosition(groups map[int][]*models.BinderEntry) int {
	max := 0
	for pos := range groups {
		if pos > max {
			max = pos
		}
	}
	return max
}

func sortedPositions(groups map[int][]*models.BinderEntry) []int {
	positions := make([]int, 0, len(groups))
	for pos := range groups {
		positions = append(positions, pos)
	}
	sort.Ints(positions)
	return positions
}

func filledSlot(position int, e *models.BinderEntry, overflow int) models.BinderSlot {
	slot := models.BinderSlot{
		Position:     position,
		EntryID:      &e.ID,
		SetCode:      &e.SetCode,
		CardNumber:   &e.CardNumber,
		CardName:     &e.CardName,
		Quantity:     e.Quantity,
		FinishName:   e.FinishName,
		LanguageName: &e.LanguageName,
	}
	if overflow > 0 {
		slot.OverflowCount = &overflow
	}
	return slot
}

func emptySlot(position int) models.BinderSlot {
	return models.BinderSlot{Position: position, IsEmpty: true}
}

// buildSinglePage renders the page as a numeric window over position values,
// so gaps left by deleted groups show up as empty slots.
func buildSinglePage(groups map[int][]*models.BinderEntry, page, slotsPerPage int) (slots []models.BinderSlot, totalPages int) {
	max := maxPosition(groups)
	totalPages = (max + slotsPerPage - 1) / slotsPerPage
	if totalPages < 1 {
		totalPages = 1
	}

	start := (page-1)*slotsPerPage + 1
	for pos := start; pos < start+slotsPerPage; pos++ {
		group, ok := groups[pos]
		if !ok {
			slots = append(slots, emptySlot(pos))
			continue
		}
		ranked := rankEntries(group)
		slots = append(slots, filledSlot(pos, ranked[0], len(group)-1))
	}
	return slots, totalPages
}

// buildFillRowPage expands every position into up to four ranked variant
// slots, flattens them in position order, and slices the flat list by index.
// The final page is padded with position-zero empty slots.
func buildFillRowPage(groups map[int][]*models.BinderEntry, page, slotsPerPage int) (slots []models.BinderSlot, totalPages int) {
	var flat []models.BinderSlot
	for _, pos := range sortedPositions(groups) {
		ranked := rankEntries(groups[pos])
		if len(ranked) > fillRowVariantCap {
			ranked = ranked[:fillRowVariantCap]
		}
		for _, e := range ranked {
			flat = append(flat, filledSlot(pos, e, 0))
		}
	}

	totalPages = (len(flat) + slotsPerPage - 1) / slotsPerPage
	if totalPages < 1 {
		totalPages = 1
	}

	start := (page - 1) * slotsPerPage
	for i := start; i < start+slotsPerPage; i++ {
		if i < len(flat) {
			slots = append(slots, flat[i])
		} else {
			slots = append(slots, emptySlot(0))
		}
	}
	return slots, totalPages
}

// RenderPage renders one binder page in the container's configured mode.
func (s *BinderService) RenderPage(ctx context.Context, containerID int64, page int, userID string) (*models.BinderPageResponse, error) {
	if page < 1 {
		return nil, models.ErrInvalidPage
	}
	container, err := s.binder(ctx, containerID, userID)
	if err != nil {
		return nil, err
	}

	entries, err := s.entryRepo.ListBinderEntries(ctx, containerID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load binder entries: %w", err)
	}
	groups := groupByPosition(entries)

	var slots []models.BinderSlot
	var totalPages int
	if container.BinderFillRow {
		slots, totalPages = buildFillRowPage(groups, page, container.SlotsPerPage())
	} else {
		slots, totalPages = buildSinglePage(groups, page, container.SlotsPerPage())
	}

	return &models.BinderPageResponse{
		ContainerID:   container.ID,
		ContainerName: container.Name,
		Page:          page,
		TotalPages:    totalPages,
		Slots:         slots,
		MaxPosition:   maxPosition(groups),
		BinderColumns: container.BinderColumns,
		BinderFillRow: container.BinderFillRow,
	}, nil
}

// PositionDetail lists every entry sharing one position, in representative
// order.
func (s *BinderService) PositionDetail(ctx context.Context, containerID int64, position int, userID string) (*models.PositionEntriesResponse, error) {
	if _, err := s.binder(ctx, containerID, userID); err != nil {
		return nil, err
	}

	entries, err := s.entryRepo.ListBinderEntries(ctx, containerID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load binder entries: %w", err)
	}
	group := groupByPosition(entries)[position]
	if len(group) == 0 {
		return nil, models.ErrPositionEmpty
	}

	ranked := rankEntries(group)
	resp := &models.PositionEntriesResponse{
		Position: position,
		CardName: ranked[0].CardName,
		Entries:  make([]models.PositionEntryResponse, 0, len(ranked)),
	}
	for _, e := range ranked {
		item := models.PositionEntryResponse{
			EntryID:      e.ID,
			SetCode:      e.SetCode,
			CardNumber:   e.CardNumber,
			CardName:     e.CardName,
			Quantity:     e.Quantity,
			FinishName:   e.FinishName,
			LanguageName: e.LanguageName,
		}
		if e.ReleaseDate != nil {
			d := e.ReleaseDate.Format("2006-01-02")
			item.ReleaseDate = &d
		}
		resp.Entries = append(resp.Entries, item)
		resp.TotalQuantity += e.Quantity
	}
	return resp, nil
}

// BulkReposition applies each update independently, counting rows that
// matched. Bad rows are skipped rather than aborting the batch.
func (s *BinderService) BulkReposition(ctx context.Context, containerID int64, userID string, req *models.BulkPositionUpdateRequest) (*models.BulkPositionUpdateResponse, error) {
	if _, err := s.binder(ctx, containerID, userID); err != nil {
		return nil, err
	}

	updated := 0
	for _, u := range req.Updates {
		if u.Position != nil && *u.Position < 1 {
			continue
		}
		ok, err := s.entryRepo.UpdatePosition(ctx, u.EntryID, containerID, userID, u.Position)
		if err != nil {
			return nil, fmt.Errorf("failed to update position: %w", err)
		}
		if ok {
			updated++
		}
	}
	return &models.BulkPositionUpdateResponse{Success: true, UpdatedCount: updated}, nil
}

// PlanConsolidation computes fresh positions for a binder's entries: sorted by
// (card name, rank key), each newly-seen name takes the next position starting
// at 1. Pure so the numbering is testable without storage.
func PlanConsolidation(entries []*models.BinderEntry) []models.PositionAssignment {
	sorted := make([]*models.BinderEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		ni, nj := strings.ToLower(sorted[i].CardName), strings.ToLower(sorted[j].CardName)
		if ni != nj {
			return ni < nj
		}
		return keyFor(sorted[i]).less(keyFor(sorted[j]))
	})

	var plan []models.PositionAssignment
	positions := make(map[string]int)
	next := 1
	for _, e := range sorted {
		name := strings.ToLower(e.CardName)
		pos, seen := positions[name]
		if !seen {
			pos = next
			positions[name] = pos
			next++
		}
		plan = append(plan, models.PositionAssignment{EntryID: e.ID, Position: pos})
	}
	return plan
}

// Consolidate re-derives positions for one binder and writes them in a single
// transaction. Also repairs groups split by concurrent first-inserts of the
// same name.
func (s *BinderService) Consolidate(ctx context.Context, containerID int64, userID string) (int, error) {
	if _, err := s.binder(ctx, containerID, userID); err != nil {
		return 0, err
	}
	entries, err := s.entryRepo.ListBinderEntries(ctx, containerID, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to load binder entries: %w", err)
	}
	plan := PlanConsolidation(entries)
	if err := s.entryRepo.ApplyPositions(ctx, userID, plan); err != nil {
		return 0, fmt.Errorf("failed to apply positions: %w", err)
	}
	return len(plan), nil
}

// ConsolidateAll runs consolidation over every binder the user owns.
func (s *BinderService) ConsolidateAll(ctx context.Context, userID string) (int, error) {
	binders, err := s.containerRepo.ListBinders(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to list binders: %w", err)
	}
	total := 0
	for _, b := range binders {
		n, err := s.Consolidate(ctx, b.ID, userID)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func (s *BinderService) binder(ctx context.Context, containerID int64, userID string) (*models.Container, error) {
	container, err := s.containerRepo.GetByID(ctx, containerID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up container: %w", err)
	}
	if container == nil {
		return nil, models.ErrContainerNotFound
	}
	if !container.IsBinder() {
		return nil, models.ErrNotBinder
	}
	return container, nil
}
