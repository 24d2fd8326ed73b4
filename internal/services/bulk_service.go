package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/rscoates/magic-library/internal/models"
	"github.com/rscoates/magic-library/internal/repository"
)

// importRowLimit caps how many error and warning messages an import reports.
const importRowLimit = 50

// BulkService imports and exports collection CSVs. Imported rows flow through
// EntryRepo.CreateOrMerge, the same path as a manual add, so binder positions
// come out identical regardless of how a card arrived.
type BulkService struct {
	entryRepo     repository.EntryRepo
	cardRepo      repository.CardRepo
	containerRepo repository.ContainerRepo
	metadataRepo  repository.MetadataRepo
}

// NewBulkService creates a new BulkService
func NewBulkService(
	entryRepo repository.EntryRepo,
	cardRepo repository.CardRepo,
	containerRepo repository.ContainerRepo,
	metadataRepo repository.MetadataRepo,
) *BulkService {
	return &BulkService{
		entryRepo:     entryRepo,
		cardRepo:      cardRepo,
		containerRepo: containerRepo,
		metadataRepo:  metadataRepo,
	}
}

// parsedRow is the format-independent shape of one CSV line.
type parsedRow struct {
	cardName   string
	setCode    string
	cardNumber string
	quantity   int
	finishStr  string
	langStr    string
}

// detectFormat guesses the layout from header column names.
func detectFormat(header []string) models.CSVFormat {
	lower := make(map[string]bool, len(header))
	for _, h := range header {
		lower[strings.ToLower(strings.TrimSpace(h))] = true
	}
	if lower["set id"] || lower["set name"] {
		return models.FormatMTGGoldfish
	}
	if lower["tradelist count"] || lower["card number"] {
		return models.FormatDeckbox
	}
	return models.FormatSimple
}

func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func cell(row []string, idx map[string]int, name string, fallback int) string {
	i, ok := idx[name]
	if !ok {
		i = fallback
	}
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseQuantity(s string) (int, error) {
	if s == "" {
		return 1, nil
	}
	return strconv.Atoi(s)
}

func parseRow(format models.CSVFormat, row []string, idx map[string]int) (*parsedRow, error) {
	var p parsedRow
	var err error
	switch format {
	case models.FormatMTGGoldfish:
		p.cardName = cell(row, idx, "card", 0)
		p.setCode = cell(row, idx, "set id", 1)
		p.quantity, err = parseQuantity(cell(row, idx, "quantity", 3))
		p.finishStr = cell(row, idx, "foil", 4)
		p.langStr = "English"
	case models.FormatDeckbox:
		p.quantity, err = parseQuantity(cell(row, idx, "count", 0))
		p.cardName = cell(row, idx, "name", 2)
		p.setCode = cell(row, idx, "edition", 3)
		p.cardNumber = cell(row, idx, "card number", 4)
		p.langStr = cell(row, idx, "language", 6)
		p.finishStr = cell(row, idx, "foil", 7)
	default:
		p.quantity, err = parseQuantity(cell(row, idx, "quantity", 0))
		p.cardName = cell(row, idx, "name", 1)
		p.setCode = cell(row, idx, "set", 2)
		p.cardNumber = cell(row, idx, "number", 3)
		p.finishStr = cell(row, idx, "foil", 4)
		p.langStr = cell(row, idx, "language", 5)
	}
	if err != nil {
		return nil, fmt.Errorf("bad quantity: %w", err)
	}
	if p.quantity < 1 {
		return nil, models.ErrInvalidQuantity
	}
	return &p, nil
}

// resolveFinish maps CSV foil spellings to a finish id. Empty and "regular"
// spellings mean the base finish (nil).
func (s *BulkService) resolveFinish(ctx context.Context, name string) (*int64, error) {
	lower := strings.ToLower(strings.TrimSpace(name))
	switch lower {
	case "", "no", "regular", "normal":
		return nil, nil
	case "yes", "foil", "true", "1":
		lower = "foil"
	case "foil_etched":
		lower = "etched"
	}
	finish, err := s.metadataRepo.GetFinishByName(ctx, lower)
	if err != nil {
		return nil, err
	}
	if finish == nil {
		return nil, nil
	}
	return &finish.ID, nil
}

func (s *BulkService) resolveLanguage(ctx context.Context, name string, defaultID int64) int64 {
	if strings.TrimSpace(name) == "" {
		return defaultID
	}
	lang, err := s.metadataRepo.GetLanguageByName(ctx, name)
	if err != nil || lang == nil {
		return defaultID
	}
	return lang.ID
}

// resolveCard finds the catalog row for a parsed line: exact set+number when
// both are present, then name within the set, then name anywhere.
func (s *BulkService) resolveCard(ctx context.Context, p *parsedRow) (*models.Card, error) {
	if p.setCode != "" && p.cardNumber != "" {
		card, err := s.cardRepo.GetBySetNumber(ctx, p.setCode, p.cardNumber)
		if err != nil || card != nil {
			return card, err
		}
	}
	if p.setCode != "" {
		card, err := s.cardRepo.FindByName(ctx, p.cardName, p.setCode)
		if err != nil || card != nil {
			return card, err
		}
	}
	return s.cardRepo.FindByName(ctx, p.cardName, "")
}

// Import parses CSV data and loads it into one container, row by row.
func (s *BulkService) Import(ctx context.Context, userID string, req *models.ImportRequest) (*models.ImportResult, error) {
	if !models.IsValidImportFormat(req.Format) {
		return nil, models.ErrInvalidFormat
	}

	container, err := s.containerRepo.GetByID(ctx, req.ContainerID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up container: %w", err)
	}
	if container == nil {
		return nil, models.ErrContainerNotFound
	}

	reader := csv.NewReader(strings.NewReader(req.CSVData))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(rows) < 2 {
		return nil, models.ErrCSVTooShort
	}

	header := rows[0]
	format := req.Format
	if format == models.FormatAuto {
		format = detectFormat(header)
	}
	idx := headerIndex(header)

	defaultLangID := int64(1)
	if english, err := s.metadataRepo.GetLanguageByName(ctx, "English"); err == nil && english != nil {
		defaultLangID = english.ID
	}

	result := &models.ImportResult{Errors: []string{}, Warnings: []string{}}
	recordError := func(msg string) {
		result.ErrorCount++
		if len(result.Errors) < importRowLimit {
			result.Errors = append(result.Errors, msg)
		}
	}

	for i, row := range rows[1:] {
		rowNum := i + 2
		if isBlankRow(row) {
			continue
		}

		p, err := parseRow(format, row, idx)
		if err != nil {
			recordError(fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}

		card, err := s.resolveCard(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("failed to look up card: %w", err)
		}
		if card == nil {
			recordError(fmt.Sprintf("row %d: card not found - %q (set: %s)", rowNum, p.cardName, p.setCode))
			continue
		}

		finishID, err := s.resolveFinish(ctx, p.finishStr)
		if err != nil {
			return nil, fmt.Errorf("failed to look up finish: %w", err)
		}

		entry := &models.CollectionEntry{
			SetCode:     card.SetCode,
			CardNumber:  card.Number,
			ContainerID: container.ID,
			Quantity:    p.quantity,
			FinishID:    finishID,
			LanguageID:  s.resolveLanguage(ctx, p.langStr, defaultLangID),
			UserID:      userID,
		}
		_, merged, err := s.entryRepo.CreateOrMerge(ctx, entry, container.IsBinder(), card.Name)
		if err != nil {
			recordError(fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}
		if merged && len(result.Warnings) < importRowLimit {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("row %d: added %d to existing entry for %q", rowNum, p.quantity, card.Name))
		}
		result.ImportedCount++
	}

	result.Success = result.ErrorCount == 0
	return result, nil
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Export renders the collection (or one container) in the requested layout.
func (s *BulkService) Export(ctx context.Context, userID string, req *models.ExportRequest) ([]byte, error) {
	if !models.IsValidExportFormat(req.Format) {
		return nil, models.ErrInvalidFormat
	}
	if req.ContainerID != nil {
		container, err := s.containerRepo.GetByID(ctx, *req.ContainerID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up container: %w", err)
		}
		if container == nil {
			return nil, models.ErrContainerNotFound
		}
	}

	entries, err := s.entryRepo.List(ctx, userID, req.ContainerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}

	var sb strings.Builder
	w := csv.NewWriter(&sb)

	switch req.Format {
	case models.FormatMTGGoldfish:
		w.Write([]string{"Card", "Set ID", "Set Name", "Quantity", "Foil", "Variation"})
		for _, e := range entries {
			name, finishName, _, _ := s.exportNames(ctx, e, userID)
			foil := "REGULAR"
			if finishName != "" {
				foil = strings.ToUpper(finishName)
			}
			w.Write([]string{name, e.SetCode, e.SetCode, strconv.Itoa(e.Quantity), foil, ""})
		}
	case models.FormatDeckbox:
		w.Write([]string{"Count", "Tradelist Count", "Name", "Edition", "Card Number", "Condition", "Language", "Foil"})
		for _, e := range entries {
			name, finishName, langName, _ := s.exportNames(ctx, e, userID)
			foil := ""
			if strings.Contains(strings.ToLower(finishName), "foil") {
				foil = "foil"
			}
			w.Write([]string{strconv.Itoa(e.Quantity), "0", name, e.SetCode, e.CardNumber, "Near Mint", langName, foil})
		}
	default:
		w.Write([]string{"Quantity", "Name", "Set", "Number", "Foil", "Language", "Container"})
		for _, e := range entries {
			name, finishName, langName, containerName := s.exportNames(ctx, e, userID)
			w.Write([]string{strconv.Itoa(e.Quantity), name, e.SetCode, e.CardNumber, finishName, langName, containerName})
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to write CSV: %w", err)
	}
	return []byte(sb.String()), nil
}

func (s *BulkService) exportNames(ctx context.Context, e *models.CollectionEntry, userID string) (cardName, finishName, langName, containerName string) {
	cardName = "Unknown"
	if card, err := s.cardRepo.GetBySetNumber(ctx, e.SetCode, e.CardNumber); err == nil && card != nil {
		cardName = card.Name
	}
	if e.FinishID != nil {
		if finish, err := s.metadataRepo.GetFinish(ctx, *e.FinishID); err == nil && finish != nil {
			finishName = finish.Name
		}
	}
	langName = "English"
	if lang, err := s.metadataRepo.GetLanguage(ctx, e.LanguageID); err == nil && lang != nil {
		langName = lang.Name
	}
	if container, err := s.containerRepo.GetByID(ctx, e.ContainerID, userID); err == nil && container != nil {
		containerName = container.Name
	}
	return
}

// ListFormats documents the supported layouts.
func (s *BulkService) ListFormats() *models.FormatsResponse {
	return &models.FormatsResponse{
		ImportFormats: []models.FormatDescription{
			{ID: "auto", Name: "Auto-detect", Description: "Automatically detect format from CSV header"},
			{ID: "mtggoldfish", Name: "MTGGoldfish", Description: "Card,Set ID,Set Name,Quantity,Foil,Variation", Example: `Aether Vial,MMA,Modern Masters,1,FOIL,""`},
			{ID: "deckbox", Name: "Deckbox", Description: "Count,Tradelist Count,Name,Edition,Card Number,Condition,Language,Foil", Example: "4,0,Angel of Serenity,RTR,1,Near Mint,English,"},
			{ID: "simple", Name: "Simple", Description: "Quantity,Name,Set,Number,Foil,Language", Example: "4,Lightning Bolt,M10,146,,"},
		},
		ExportFormats: []models.FormatDescription{
			{ID: "mtggoldfish", Name: "MTGGoldfish", Description: "Compatible with MTGGoldfish collection import"},
			{ID: "deckbox", Name: "Deckbox", Description: "Compatible with Deckbox.org collection import"},
			{ID: "simple", Name: "Simple", Description: "Simple format with container info for backup/restore"},
		},
	}
}
