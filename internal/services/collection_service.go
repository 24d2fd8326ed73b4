package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rscoates/magic-library/internal/models"
	"github.com/rscoates/magic-library/internal/repository"
)

// CollectionService handles collection entry business logic. Every path that
// puts an entry into a binder goes through addEntry, so binder positions are
// assigned by a single policy no matter how the card arrives.
type CollectionService struct {
	entryRepo     repository.EntryRepo
	cardRepo      repository.CardRepo
	containerRepo repository.ContainerRepo
	metadataRepo  repository.MetadataRepo
}

// NewCollectionService creates a new CollectionService
func NewCollectionService(
	entryRepo repository.EntryRepo,
	cardRepo repository.CardRepo,
	containerRepo repository.ContainerRepo,
	metadataRepo repository.MetadataRepo,
) *CollectionService {
	return &CollectionService{
		entryRepo:     entryRepo,
		cardRepo:      cardRepo,
		containerRepo: containerRepo,
		metadataRepo:  metadataRepo,
	}
}

// AddEntry adds a card to a container, merging into an existing entry of the
// same variant when one exists.
func (s *CollectionService) AddEntry(ctx context.Context, userID string, req *models.CreateEntryRequest) (*models.EntryResponse, bool, error) {
	if req.Quantity <= 0 {
		return nil, false, models.ErrInvalidQuantity
	}

	card, err := s.cardRepo.GetBySetNumber(ctx, req.SetCode, req.CardNumber)
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up card: %w", err)
	}
	if card == nil {
		return nil, false, models.ErrCardNotFound
	}

	container, err := s.containerRepo.GetByID(ctx, req.ContainerID, userID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up container: %w", err)
	}
	if container == nil {
		return nil, false, models.ErrContainerNotFound
	}

	lang, err := s.metadataRepo.GetLanguage(ctx, req.LanguageID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up language: %w", err)
	}
	if lang == nil {
		return nil, false, models.ErrInvalidLanguage
	}

	var finishName *string
	if req.FinishID != nil {
		finish, err := s.metadataRepo.GetFinish(ctx, *req.FinishID)
		if err != nil {
			return nil, false, fmt.Errorf("failed to look up finish: %w", err)
		}
		if finish == nil {
			return nil, false, models.ErrInvalidFinish
		}
		finishName = &finish.Name
	}

	entry := &models.CollectionEntry{
		SetCode:     card.SetCode,
		CardNumber:  card.Number,
		ContainerID: container.ID,
		Quantity:    req.Quantity,
		FinishID:    req.FinishID,
		LanguageID:  req.LanguageID,
		Comments:    req.Comments,
		UserID:      userID,
		Position:    req.Position,
	}

	saved, merged, err := s.entryRepo.CreateOrMerge(ctx, entry, container.IsBinder(), card.Name)
	if err != nil {
		return nil, false, fmt.Errorf("failed to save entry: %w", err)
	}

	resp := s.toResponse(saved, card.Name, container.Name)
	resp.FinishName = finishName
	resp.LanguageName = lang.Name
	return resp, merged, nil
}

// GetEntry retrieves one entry with card and container names resolved.
func (s *CollectionService) GetEntry(ctx context.Context, id int64, userID string) (*models.EntryResponse, error) {
	entry, err := s.entryRepo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	if entry == nil {
		return nil, models.ErrEntryNotFound
	}
	return s.decorate(ctx, entry, userID)
}

// ListEntries lists entries, optionally restricted to one container.
func (s *CollectionService) ListEntries(ctx context.Context, userID string, containerID *int64) ([]*models.EntryResponse, error) {
	if containerID != nil {
		container, err := s.containerRepo.GetByID(ctx, *containerID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up container: %w", err)
		}
		if container == nil {
			return nil, models.ErrContainerNotFound
		}
	}

	entries, err := s.entryRepo.List(ctx, userID, containerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}

	responses := make([]*models.EntryResponse, 0, len(entries))
	for _, e := range entries {
		resp, err := s.decorate(ctx, e, userID)
		if err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}
	return responses, nil
}

// Summarize aggregates every holding of one card across the collection,
// sorted by quantity descending.
func (s *CollectionService) Summarize(ctx context.Context, setCode, cardNumber, userID string) (*models.CollectionSummary, error) {
	card, err := s.cardRepo.GetBySetNumber(ctx, setCode, cardNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to look up card: %w", err)
	}
	if card == nil {
		return nil, models.ErrCardNotFound
	}

	entries, err := s.entryRepo.ListByCard(ctx, card.SetCode, card.Number, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}

	summary := &models.CollectionSummary{
		SetCode:    card.SetCode,
		CardNumber: card.Number,
		CardName:   card.Name,
		Rarity:     card.Rarity,
		Locations:  []models.CollectionLocation{},
	}
	for _, e := range entries {
		container, err := s.containerRepo.GetByID(ctx, e.ContainerID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up container: %w", err)
		}
		loc := models.CollectionLocation{
			Quantity: e.Quantity,
			Comments: e.Comments,
		}
		if container != nil {
			loc.ContainerID = container.ID
			loc.ContainerName = container.Name
			loc.ContainerPath, err = s.ContainerPath(ctx, container, userID)
			if err != nil {
				return nil, err
			}
		}
		if e.FinishID != nil {
			if finish, _ := s.metadataRepo.GetFinish(ctx, *e.FinishID); finish != nil {
				loc.FinishName = &finish.Name
			}
		}
		if lang, _ := s.metadataRepo.GetLanguage(ctx, e.LanguageID); lang != nil {
			loc.LanguageName = lang.Name
		}
		summary.TotalQuantity += e.Quantity
		summary.Locations = append(summary.Locations, loc)
	}
	sort.SliceStable(summary.Locations, func(i, j int) bool {
		return summary.Locations[i].Quantity > summary.Locations[j].Quantity
	})
	return summary, nil
}

// UpdateEntry applies a partial update. Changing the container re-runs
// position assignment when the new container is a binder, and clears the
// position otherwise.
func (s *CollectionService) UpdateEntry(ctx context.Context, id int64, userID string, req *models.UpdateEntryRequest) (*models.EntryResponse, error) {
	entry, err := s.entryRepo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	if entry == nil {
		return nil, models.ErrEntryNotFound
	}

	if req.Quantity != nil {
		if *req.Quantity <= 0 {
			return nil, models.ErrInvalidQuantity
		}
		entry.Quantity = *req.Quantity
	}
	if req.FinishID != nil {
		finish, err := s.metadataRepo.GetFinish(ctx, *req.FinishID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up finish: %w", err)
		}
		if finish == nil {
			return nil, models.ErrInvalidFinish
		}
		entry.FinishID = req.FinishID
	}
	if req.LanguageID != nil {
		lang, err := s.metadataRepo.GetLanguage(ctx, *req.LanguageID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up language: %w", err)
		}
		if lang == nil {
			return nil, models.ErrInvalidLanguage
		}
		entry.LanguageID = *req.LanguageID
	}
	if req.Comments != nil {
		entry.Comments = req.Comments
	}
	if req.ContainerID != nil && *req.ContainerID != entry.ContainerID {
		target, err := s.containerRepo.GetByID(ctx, *req.ContainerID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up container: %w", err)
		}
		if target == nil {
			return nil, models.ErrContainerNotFound
		}
		entry.ContainerID = target.ID
		entry.Position = nil
		if target.IsBinder() {
			pos, err := s.positionFor(ctx, entry, target, userID)
			if err != nil {
				return nil, err
			}
			entry.Position = pos
		}
	}

	if err := s.entryRepo.Update(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to update entry: %w", err)
	}
	return s.decorate(ctx, entry, userID)
}

// DeleteEntry removes an entry entirely
func (s *CollectionService) DeleteEntry(ctx context.Context, id int64, userID string) error {
	entry, err := s.entryRepo.GetByID(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("failed to get entry: %w", err)
	}
	if entry == nil {
		return models.ErrEntryNotFound
	}
	if err := s.entryRepo.Delete(ctx, id, userID); err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	return nil
}

// MoveQuantity moves some or all of an entry's quantity to another container.
// A full move deletes the source entry; a partial move splits it. The target
// side reuses CreateOrMerge, so moving into a binder assigns a position under
// the same policy as adding.
func (s *CollectionService) MoveQuantity(ctx context.Context, entryID int64, userID string, req *models.MoveRequest) (*models.MoveResponse, error) {
	if req.Quantity <= 0 {
		return nil, models.ErrInvalidQuantity
	}

	entry, err := s.entryRepo.GetByID(ctx, entryID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	if entry == nil {
		return nil, models.ErrEntryNotFound
	}
	if req.Quantity > entry.Quantity {
		return nil, models.ErrMoveExceedsQuantity
	}
	if req.TargetContainerID == entry.ContainerID {
		return nil, models.ErrSameContainer
	}

	target, err := s.containerRepo.GetByID(ctx, req.TargetContainerID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up container: %w", err)
	}
	if target == nil {
		return nil, models.ErrContainerNotFound
	}

	card, err := s.cardRepo.GetBySetNumber(ctx, entry.SetCode, entry.CardNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to look up card: %w", err)
	}
	cardName := ""
	if card != nil {
		cardName = card.Name
	}

	moved := &models.CollectionEntry{
		SetCode:     entry.SetCode,
		CardNumber:  entry.CardNumber,
		ContainerID: target.ID,
		Quantity:    req.Quantity,
		FinishID:    entry.FinishID,
		LanguageID:  entry.LanguageID,
		Comments:    entry.Comments,
		UserID:      userID,
	}
	saved, _, err := s.entryRepo.CreateOrMerge(ctx, moved, target.IsBinder(), cardName)
	if err != nil {
		return nil, fmt.Errorf("failed to move entry: %w", err)
	}

	remaining := entry.Quantity - req.Quantity
	if remaining == 0 {
		if err := s.entryRepo.Delete(ctx, entry.ID, userID); err != nil {
			return nil, fmt.Errorf("failed to remove source entry: %w", err)
		}
	} else {
		entry.Quantity = remaining
		if err := s.entryRepo.Update(ctx, entry); err != nil {
			return nil, fmt.Errorf("failed to update source entry: %w", err)
		}
	}

	path, err := s.ContainerPath(ctx, target, userID)
	if err != nil {
		return nil, err
	}
	return &models.MoveResponse{
		Success:                 true,
		Message:                 fmt.Sprintf("moved %d to %s", req.Quantity, target.Name),
		SourceEntryID:           entry.ID,
		SourceRemainingQuantity: remaining,
		TargetEntryID:           saved.ID,
		TargetQuantity:          saved.Quantity,
		TargetContainerName:     target.Name,
		TargetContainerPath:     path,
	}, nil
}

// ContainerPath renders "Grandparent > Parent > Container".
func (s *CollectionService) ContainerPath(ctx context.Context, container *models.Container, userID string) (string, error) {
	names := []string{container.Name}
	for cursor := container; cursor.ParentID != nil; {
		parent, err := s.containerRepo.GetByID(ctx, *cursor.ParentID, userID)
		if err != nil {
			return "", fmt.Errorf("failed to walk container path: %w", err)
		}
		if parent == nil {
			break
		}
		names = append([]string{parent.Name}, names...)
		cursor = parent
	}
	return strings.Join(names, " > "), nil
}

// positionFor resolves a binder position for an entry outside CreateOrMerge
// (the update-entry path, which mutates an existing row in place).
func (s *CollectionService) positionFor(ctx context.Context, entry *models.CollectionEntry, binder *models.Container, userID string) (*int, error) {
	card, err := s.cardRepo.GetBySetNumber(ctx, entry.SetCode, entry.CardNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to look up card: %w", err)
	}
	binderEntries, err := s.entryRepo.ListBinderEntries(ctx, binder.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list binder entries: %w", err)
	}

	max := 0
	for _, be := range binderEntries {
		if be.Position == nil {
			continue
		}
		if card != nil && strings.EqualFold(be.CardName, card.Name) {
			p := *be.Position
			return &p, nil
		}
		if *be.Position > max {
			max = *be.Position
		}
	}
	next := max + 1
	return &next, nil
}

func (s *CollectionService) toResponse(e *models.CollectionEntry, cardName, containerName string) *models.EntryResponse {
	return &models.EntryResponse{
		ID:            e.ID,
		SetCode:       e.SetCode,
		CardNumber:    e.CardNumber,
		ContainerID:   e.ContainerID,
		Quantity:      e.Quantity,
		FinishID:      e.FinishID,
		LanguageID:    e.LanguageID,
		Comments:      e.Comments,
		CardName:      cardName,
		ContainerName: containerName,
		Position:      e.Position,
	}
}

func (s *CollectionService) decorate(ctx context.Context, e *models.CollectionEntry, userID string) (*models.EntryResponse, error) {
	resp := s.toResponse(e, "", "")
	if card, err := s.cardRepo.GetBySetNumber(ctx, e.SetCode, e.CardNumber); err != nil {
		return nil, fmt.Errorf("failed to look up card: %w", err)
	} else if card != nil {
		resp.CardName = card.Name
	}
	if container, err := s.containerRepo.GetByID(ctx, e.ContainerID, userID); err != nil {
		return nil, fmt.Errorf("failed to look up container: %w", err)
	} else if container != nil {
		resp.ContainerName = container.Name
	}
	if e.FinishID != nil {
		if finish, err := s.metadataRepo.GetFinish(ctx, *e.FinishID); err == nil && finish != nil {
			resp.FinishName = &finish.Name
		}
	}
	if lang, err := s.metadataRepo.GetLanguage(ctx, e.LanguageID); err == nil && lang != nil {
		resp.LanguageName = lang.Name
	}
	return resp, nil
}
