package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rscoates/magic-library/internal/models"
)

func setupBulk() (*BulkService, *fakeEntryRepo, *fakeContainerRepo) {
	entryRepo := newFakeEntryRepo()
	cardRepo := &fakeCardRepo{cards: []*models.Card{
		{ID: 1, SetCode: "M10", Number: "146", Name: "Lightning Bolt", Rarity: "common"},
		{ID: 2, SetCode: "M10", Number: "155", Name: "Shock", Rarity: "common"},
		{ID: 3, SetCode: "RTR", Number: "1", Name: "Angel of Serenity", Rarity: "mythic"},
	}}
	containerRepo := newFakeContainerRepo()
	return NewBulkService(entryRepo, cardRepo, containerRepo, newFakeMetadataRepo()), entryRepo, containerRepo
}

func TestDetectFormat(t *testing.T) {
	cases := []struct {
		name   string
		header []string
		want   models.CSVFormat
	}{
		{"mtggoldfish by set id", []string{"Card", "Set ID", "Set Name", "Quantity", "Foil"}, models.FormatMTGGoldfish},
		{"deckbox by tradelist count", []string{"Count", "Tradelist Count", "Name", "Edition"}, models.FormatDeckbox},
		{"deckbox by card number", []string{"Count", "Name", "Edition", "Card Number"}, models.FormatDeckbox},
		{"simple fallback", []string{"Quantity", "Name", "Set", "Number"}, models.FormatSimple},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, detectFormat(tc.header))
		})
	}
}

func TestParseRow(t *testing.T) {
	t.Run("mtggoldfish", func(t *testing.T) {
		header := []string{"Card", "Set ID", "Set Name", "Quantity", "Foil", "Variation"}
		row := []string{"Aether Vial", "MMA", "Modern Masters", "2", "FOIL", ""}

		p, err := parseRow(models.FormatMTGGoldfish, row, headerIndex(header))
		require.NoError(t, err)
		assert.Equal(t, "Aether Vial", p.cardName)
		assert.Equal(t, "MMA", p.setCode)
		assert.Equal(t, 2, p.quantity)
		assert.Equal(t, "FOIL", p.finishStr)
		assert.Equal(t, "English", p.langStr)
	})

	t.Run("deckbox", func(t *testing.T) {
		header := []string{"Count", "Tradelist Count", "Name", "Edition", "Card Number", "Condition", "Language", "Foil"}
		row := []string{"4", "0", "Angel of Serenity", "RTR", "1", "Near Mint", "Japanese", "foil"}

		p, err := parseRow(models.FormatDeckbox, row, headerIndex(header))
		require.NoError(t, err)
		assert.Equal(t, 4, p.quantity)
		assert.Equal(t, "Angel of Serenity", p.cardName)
		assert.Equal(t, "RTR", p.setCode)
		assert.Equal(t, "1", p.cardNumber)
		assert.Equal(t, "Japanese", p.langStr)
	})

	t.Run("simple with empty quantity defaults to one", func(t *testing.T) {
		header := []string{"Quantity", "Name", "Set", "Number", "Foil", "Language"}
		row := []string{"", "Lightning Bolt", "M10", "146", "", ""}

		p, err := parseRow(models.FormatSimple, row, headerIndex(header))
		require.NoError(t, err)
		assert.Equal(t, 1, p.quantity)
	})

	t.Run("rejects garbage quantity", func(t *testing.T) {
		header := []string{"Quantity", "Name", "Set", "Number"}
		_, err := parseRow(models.FormatSimple, []string{"lots", "Shock", "M10", "155"}, headerIndex(header))
		assert.Error(t, err)
	})

	t.Run("rejects zero quantity", func(t *testing.T) {
		header := []string{"Quantity", "Name", "Set", "Number"}
		_, err := parseRow(models.FormatSimple, []string{"0", "Shock", "M10", "155"}, headerIndex(header))
		assert.ErrorIs(t, err, models.ErrInvalidQuantity)
	})
}

func TestBulkService_ResolveFinish(t *testing.T) {
	svc, _, _ := setupBulk()
	ctx := context.Background()

	t.Run("base finish spellings map to nil", func(t *testing.T) {
		for _, s := range []string{"", "no", "No", "regular", "NORMAL"} {
			id, err := svc.resolveFinish(ctx, s)
			require.NoError(t, err)
			assert.Nil(t, id, "spelling %q", s)
		}
	})

	t.Run("foil spellings map to the foil finish", func(t *testing.T) {
		for _, s := range []string{"yes", "FOIL", "true", "1"} {
			id, err := svc.resolveFinish(ctx, s)
			require.NoError(t, err)
			require.NotNil(t, id, "spelling %q", s)
			assert.Equal(t, int64(1), *id)
		}
	})

	t.Run("foil_etched maps to etched", func(t *testing.T) {
		id, err := svc.resolveFinish(ctx, "foil_etched")
		require.NoError(t, err)
		require.NotNil(t, id)
		assert.Equal(t, int64(2), *id)
	})

	t.Run("unknown finish falls back to base", func(t *testing.T) {
		id, err := svc.resolveFinish(ctx, "glossy")
		require.NoError(t, err)
		assert.Nil(t, id)
	})
}

func TestBulkService_Import(t *testing.T) {
	ctx := context.Background()

	t.Run("imports simple CSV rows", func(t *testing.T) {
		svc, entryRepo, containerRepo := setupBulk()
		box := addBox(containerRepo, "Bulk Box", "u1")

		csvData := strings.Join([]string{
			"Quantity,Name,Set,Number,Foil,Language",
			"4,Lightning Bolt,M10,146,,",
			"2,Shock,M10,155,foil,Japanese",
		}, "\n")

		result, err := svc.Import(ctx, "u1", &models.ImportRequest{
			ContainerID: box.ID, Format: models.FormatAuto, CSVData: csvData,
		})
		require.NoError(t, err)

		assert.True(t, result.Success)
		assert.Equal(t, 2, result.ImportedCount)
		assert.Equal(t, 0, result.ErrorCount)

		entries, _ := entryRepo.List(ctx, "u1", nil)
		require.Len(t, entries, 2)
		assert.Equal(t, 4, entries[0].Quantity)
		require.NotNil(t, entries[1].FinishID)
		assert.Equal(t, int64(2), entries[1].LanguageID)
	})

	t.Run("unknown cards are reported per row", func(t *testing.T) {
		svc, _, containerRepo := setupBulk()
		box := addBox(containerRepo, "Bulk Box", "u1")

		csvData := "Quantity,Name,Set,Number\n1,Storm Crow,9ED,100\n1,Shock,M10,155"
		result, err := svc.Import(ctx, "u1", &models.ImportRequest{
			ContainerID: box.ID, Format: models.FormatSimple, CSVData: csvData,
		})
		require.NoError(t, err)

		assert.False(t, result.Success)
		assert.Equal(t, 1, result.ImportedCount)
		assert.Equal(t, 1, result.ErrorCount)
		require.Len(t, result.Errors, 1)
		assert.Contains(t, result.Errors[0], "row 2")
		assert.Contains(t, result.Errors[0], "Storm Crow")
	})

	t.Run("duplicate rows merge with a warning", func(t *testing.T) {
		svc, entryRepo, containerRepo := setupBulk()
		box := addBox(containerRepo, "Bulk Box", "u1")

		csvData := "Quantity,Name,Set,Number\n1,Shock,M10,155\n3,Shock,M10,155"
		result, err := svc.Import(ctx, "u1", &models.ImportRequest{
			ContainerID: box.ID, Format: models.FormatSimple, CSVData: csvData,
		})
		require.NoError(t, err)

		assert.Equal(t, 2, result.ImportedCount)
		require.Len(t, result.Warnings, 1)
		assert.Contains(t, result.Warnings[0], "existing entry")

		entries, _ := entryRepo.List(ctx, "u1", nil)
		require.Len(t, entries, 1)
		assert.Equal(t, 4, entries[0].Quantity)
	})

	t.Run("binder import assigns shared positions", func(t *testing.T) {
		svc, entryRepo, containerRepo := setupBulk()
		binder := addFile(containerRepo, "Trade Binder", "u1")

		csvData := strings.Join([]string{
			"Quantity,Name,Set,Number,Foil",
			"1,Lightning Bolt,M10,146,",
			"1,Lightning Bolt,M10,146,foil",
			"1,Shock,M10,155,",
		}, "\n")
		result, err := svc.Import(ctx, "u1", &models.ImportRequest{
			ContainerID: binder.ID, Format: models.FormatSimple, CSVData: csvData,
		})
		require.NoError(t, err)
		require.True(t, result.Success)

		entries, _ := entryRepo.List(ctx, "u1", nil)
		require.Len(t, entries, 3)
		require.NotNil(t, entries[0].Position)
		require.NotNil(t, entries[1].Position)
		require.NotNil(t, entries[2].Position)
		assert.Equal(t, *entries[0].Position, *entries[1].Position)
		assert.NotEqual(t, *entries[0].Position, *entries[2].Position)
	})

	t.Run("blank rows are skipped", func(t *testing.T) {
		svc, _, containerRepo := setupBulk()
		box := addBox(containerRepo, "Bulk Box", "u1")

		csvData := "Quantity,Name,Set,Number\n1,Shock,M10,155\n,,,\n"
		result, err := svc.Import(ctx, "u1", &models.ImportRequest{
			ContainerID: box.ID, Format: models.FormatSimple, CSVData: csvData,
		})
		require.NoError(t, err)
		assert.Equal(t, 1, result.ImportedCount)
		assert.Equal(t, 0, result.ErrorCount)
	})

	t.Run("header-only CSV is rejected", func(t *testing.T) {
		svc, _, containerRepo := setupBulk()
		box := addBox(containerRepo, "Bulk Box", "u1")

		_, err := svc.Import(ctx, "u1", &models.ImportRequest{
			ContainerID: box.ID, Format: models.FormatSimple, CSVData: "Quantity,Name,Set,Number",
		})
		assert.ErrorIs(t, err, models.ErrCSVTooShort)
	})

	t.Run("unknown format and container", func(t *testing.T) {
		svc, _, containerRepo := setupBulk()
		box := addBox(containerRepo, "Bulk Box", "u1")

		_, err := svc.Import(ctx, "u1", &models.ImportRequest{
			ContainerID: box.ID, Format: "spreadsheet", CSVData: "a\nb",
		})
		assert.ErrorIs(t, err, models.ErrInvalidFormat)

		_, err = svc.Import(ctx, "u1", &models.ImportRequest{
			ContainerID: 999, Format: models.FormatSimple, CSVData: "a\nb",
		})
		assert.ErrorIs(t, err, models.ErrContainerNotFound)
	})
}

func TestBulkService_Export(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T) (*BulkService, *models.Container) {
		svc, entryRepo, containerRepo := setupBulk()
		box := addBox(containerRepo, "Bulk Box", "u1")
		foil := int64(1)
		_, _, err := entryRepo.CreateOrMerge(ctx, &models.CollectionEntry{
			SetCode: "M10", CardNumber: "146", ContainerID: box.ID, Quantity: 4, LanguageID: 1, UserID: "u1",
		}, false, "Lightning Bolt")
		require.NoError(t, err)
		_, _, err = entryRepo.CreateOrMerge(ctx, &models.CollectionEntry{
			SetCode: "M10", CardNumber: "155", ContainerID: box.ID, Quantity: 1, LanguageID: 2, FinishID: &foil, UserID: "u1",
		}, false, "Shock")
		require.NoError(t, err)
		return svc, box
	}

	t.Run("simple format carries the container column", func(t *testing.T) {
		svc, _ := seed(t)

		data, err := svc.Export(ctx, "u1", &models.ExportRequest{Format: models.FormatSimple})
		require.NoError(t, err)

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		require.Len(t, lines, 3)
		assert.Equal(t, "Quantity,Name,Set,Number,Foil,Language,Container", lines[0])
		assert.Equal(t, "4,Lightning Bolt,M10,146,,English,Bulk Box", lines[1])
		assert.Equal(t, "1,Shock,M10,155,foil,Japanese,Bulk Box", lines[2])
	})

	t.Run("deckbox format flags foils", func(t *testing.T) {
		svc, _ := seed(t)

		data, err := svc.Export(ctx, "u1", &models.ExportRequest{Format: models.FormatDeckbox})
		require.NoError(t, err)

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		require.Len(t, lines, 3)
		assert.Equal(t, "Count,Tradelist Count,Name,Edition,Card Number,Condition,Language,Foil", lines[0])
		assert.Equal(t, "1,0,Shock,M10,155,Near Mint,Japanese,foil", lines[2])
	})

	t.Run("mtggoldfish format uppercases finishes", func(t *testing.T) {
		svc, _ := seed(t)

		data, err := svc.Export(ctx, "u1", &models.ExportRequest{Format: models.FormatMTGGoldfish})
		require.NoError(t, err)

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		require.Len(t, lines, 3)
		assert.Contains(t, lines[1], "REGULAR")
		assert.Contains(t, lines[2], "FOIL")
	})

	t.Run("rejects auto as an export format", func(t *testing.T) {
		svc, _ := seed(t)

		_, err := svc.Export(ctx, "u1", &models.ExportRequest{Format: models.FormatAuto})
		assert.ErrorIs(t, err, models.ErrInvalidFormat)
	})
}

func TestBulkService_ListFormats(t *testing.T) {
	svc, _, _ := setupBulk()
	formats := svc.ListFormats()

	assert.Len(t, formats.ImportFormats, 4)
	assert.Len(t, formats.ExportFormats, 3)
	assert.Equal(t, "auto", formats.ImportFormats[0].ID)
}
