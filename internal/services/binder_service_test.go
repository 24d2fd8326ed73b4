package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rscoates/magic-library/internal/models"
)

func date(y, m, d int) *time.Time {
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	return &t
}

func intPtr(v int) *int { return &v }

func binderEntry(id int64, name, lang string, release *time.Time, position int) *models.BinderEntry {
	var pos *int
	if position > 0 {
		pos = &position
	}
	return &models.BinderEntry{
		ID:           id,
		SetCode:      "M10",
		CardNumber:   "146",
		CardName:     name,
		Quantity:     1,
		LanguageID:   1,
		LanguageName: lang,
		Position:     pos,
		ReleaseDate:  release,
	}
}

func setupBinder(fillRow bool, columns int) (*BinderService, *fakeEntryRepo, *fakeContainerRepo, *models.Container) {
	entryRepo := newFakeEntryRepo()
	containerRepo := newFakeContainerRepo()
	binder := containerRepo.put(&models.Container{
		Name:          "Trade Binder",
		TypeID:        2,
		TypeName:      "file",
		Depth:         1,
		UserID:        "u1",
		BinderColumns: columns,
		BinderFillRow: fillRow,
	})
	return NewBinderService(entryRepo, containerRepo), entryRepo, containerRepo, binder
}

func TestRankEntries(t *testing.T) {
	t.Run("English outranks other languages", func(t *testing.T) {
		jp := binderEntry(1, "Lightning Bolt", "Japanese", date(1999, 1, 1), 1)
		en := binderEntry(2, "Lightning Bolt", "English", date(2005, 6, 1), 1)

		ranked := rankEntries([]*models.BinderEntry{jp, en})
		assert.Equal(t, int64(2), ranked[0].ID)
	})

	t.Run("older release outranks newer within a language", func(t *testing.T) {
		newer := binderEntry(1, "Lightning Bolt", "English", date(2010, 1, 1), 1)
		older := binderEntry(2, "Lightning Bolt", "English", date(1999, 1, 1), 1)

		ranked := rankEntries([]*models.BinderEntry{newer, older})
		assert.Equal(t, int64(2), ranked[0].ID)
	})

	t.Run("missing release date ranks last", func(t *testing.T) {
		unknown := binderEntry(1, "Lightning Bolt", "English", nil, 1)
		dated := binderEntry(2, "Lightning Bolt", "English", date(2020, 1, 1), 1)

		ranked := rankEntries([]*models.BinderEntry{unknown, dated})
		assert.Equal(t, int64(2), ranked[0].ID)
	})

	t.Run("entry id breaks remaining ties", func(t *testing.T) {
		a := binderEntry(7, "Lightning Bolt", "English", date(1999, 1, 1), 1)
		b := binderEntry(3, "Lightning Bolt", "English", date(1999, 1, 1), 1)

		ranked := rankEntries([]*models.BinderEntry{a, b})
		assert.Equal(t, int64(3), ranked[0].ID)
	})

	t.Run("does not mutate its input", func(t *testing.T) {
		entries := []*models.BinderEntry{
			binderEntry(2, "Lightning Bolt", "English", nil, 1),
			binderEntry(1, "Lightning Bolt", "English", nil, 1),
		}
		rankEntries(entries)
		assert.Equal(t, int64(2), entries[0].ID)
	})
}

func TestBinderService_RenderPage(t *testing.T) {
	ctx := context.Background()

	t.Run("single mode windows over position values", func(t *testing.T) {
		svc, entryRepo, _, binder := setupBinder(false, 3)
		// One card at position 10 and nothing else: 9 slots per page, so
		// page 1 is all gaps and page 2 opens with the card.
		entryRepo.binder[binder.ID] = []*models.BinderEntry{
			binderEntry(1, "Lightning Bolt", "English", date(2009, 7, 17), 10),
		}

		resp, err := svc.RenderPage(ctx, binder.ID, 2, "u1")
		require.NoError(t, err)

		assert.Equal(t, 2, resp.TotalPages)
		assert.Equal(t, 10, resp.MaxPosition)
		require.Len(t, resp.Slots, 9)
		assert.Equal(t, 10, resp.Slots[0].Position)
		assert.False(t, resp.Slots[0].IsEmpty)
		require.NotNil(t, resp.Slots[0].CardName)
		assert.Equal(t, "Lightning Bolt", *resp.Slots[0].CardName)
		for _, slot := range resp.Slots[1:] {
			assert.True(t, slot.IsEmpty)
		}
	})

	t.Run("single mode shows the best variant with an overflow count", func(t *testing.T) {
		svc, entryRepo, _, binder := setupBinder(false, 3)
		entryRepo.binder[binder.ID] = []*models.BinderEntry{
			binderEntry(1, "Lightning Bolt", "Japanese", date(1999, 1, 1), 1),
			binderEntry(2, "Lightning Bolt", "English", date(2005, 1, 1), 1),
			binderEntry(3, "Lightning Bolt", "English", date(1999, 1, 1), 1),
		}

		resp, err := svc.RenderPage(ctx, binder.ID, 1, "u1")
		require.NoError(t, err)

		slot := resp.Slots[0]
		require.NotNil(t, slot.EntryID)
		assert.Equal(t, int64(3), *slot.EntryID)
		require.NotNil(t, slot.OverflowCount)
		assert.Equal(t, 2, *slot.OverflowCount)
	})

	t.Run("two columns give a four slot spread", func(t *testing.T) {
		svc, entryRepo, _, binder := setupBinder(false, 2)
		entryRepo.binder[binder.ID] = []*models.BinderEntry{
			binderEntry(1, "Lightning Bolt", "English", nil, 5),
		}

		resp, err := svc.RenderPage(ctx, binder.ID, 1, "u1")
		require.NoError(t, err)

		assert.Len(t, resp.Slots, 4)
		assert.Equal(t, 2, resp.TotalPages)
	})

	t.Run("empty binder renders one page of empty slots", func(t *testing.T) {
		svc, _, _, binder := setupBinder(false, 3)

		resp, err := svc.RenderPage(ctx, binder.ID, 1, "u1")
		require.NoError(t, err)

		assert.Equal(t, 1, resp.TotalPages)
		assert.Equal(t, 0, resp.MaxPosition)
		require.Len(t, resp.Slots, 9)
		for _, slot := range resp.Slots {
			assert.True(t, slot.IsEmpty)
		}
	})

	t.Run("fill-row mode caps variants per position", func(t *testing.T) {
		svc, entryRepo, _, binder := setupBinder(true, 3)
		var entries []*models.BinderEntry
		for i := int64(1); i <= 6; i++ {
			entries = append(entries, binderEntry(i, "Lightning Bolt", "English", date(2000+int(i), 1, 1), 1))
		}
		entryRepo.binder[binder.ID] = entries

		resp, err := svc.RenderPage(ctx, binder.ID, 1, "u1")
		require.NoError(t, err)

		filled := 0
		for _, slot := range resp.Slots {
			if !slot.IsEmpty {
				filled++
			}
		}
		assert.Equal(t, 4, filled)
		// Oldest release fills the first slot.
		require.NotNil(t, resp.Slots[0].EntryID)
		assert.Equal(t, int64(1), *resp.Slots[0].EntryID)
	})

	t.Run("fill-row mode pads the final page with position zero slots", func(t *testing.T) {
		svc, entryRepo, _, binder := setupBinder(true, 3)
		entryRepo.binder[binder.ID] = []*models.BinderEntry{
			binderEntry(1, "Lightning Bolt", "English", nil, 1),
			binderEntry(2, "Shock", "English", nil, 2),
		}

		resp, err := svc.RenderPage(ctx, binder.ID, 1, "u1")
		require.NoError(t, err)

		require.Len(t, resp.Slots, 9)
		assert.False(t, resp.Slots[0].IsEmpty)
		assert.False(t, resp.Slots[1].IsEmpty)
		for _, slot := range resp.Slots[2:] {
			assert.True(t, slot.IsEmpty)
			assert.Equal(t, 0, slot.Position)
		}
	})

	t.Run("rejects page below one", func(t *testing.T) {
		svc, _, _, binder := setupBinder(false, 3)

		_, err := svc.RenderPage(ctx, binder.ID, 0, "u1")
		assert.ErrorIs(t, err, models.ErrInvalidPage)
	})

	t.Run("rejects non-binder containers", func(t *testing.T) {
		svc, _, containerRepo, _ := setupBinder(false, 3)
		box := containerRepo.put(&models.Container{Name: "Bulk Box", TypeID: 1, TypeName: "box", Depth: 1, UserID: "u1"})

		_, err := svc.RenderPage(ctx, box.ID, 1, "u1")
		assert.ErrorIs(t, err, models.ErrNotBinder)
	})

	t.Run("unknown container", func(t *testing.T) {
		svc, _, _, _ := setupBinder(false, 3)

		_, err := svc.RenderPage(ctx, 999, 1, "u1")
		assert.ErrorIs(t, err, models.ErrContainerNotFound)
	})
}

func TestBinderService_PositionDetail(t *testing.T) {
	ctx := context.Background()

	t.Run("lists the group in representative order", func(t *testing.T) {
		svc, entryRepo, _, binder := setupBinder(false, 3)
		jp := binderEntry(1, "Lightning Bolt", "Japanese", date(1999, 1, 1), 3)
		jp.Quantity = 2
		en := binderEntry(2, "Lightning Bolt", "English", date(2005, 1, 1), 3)
		entryRepo.binder[binder.ID] = []*models.BinderEntry{jp, en}

		resp, err := svc.PositionDetail(ctx, binder.ID, 3, "u1")
		require.NoError(t, err)

		assert.Equal(t, "Lightning Bolt", resp.CardName)
		assert.Equal(t, 3, resp.TotalQuantity)
		require.Len(t, resp.Entries, 2)
		assert.Equal(t, int64(2), resp.Entries[0].EntryID)
		require.NotNil(t, resp.Entries[1].ReleaseDate)
		assert.Equal(t, "1999-01-01", *resp.Entries[1].ReleaseDate)
	})

	t.Run("empty position", func(t *testing.T) {
		svc, _, _, binder := setupBinder(false, 3)

		_, err := svc.PositionDetail(ctx, binder.ID, 1, "u1")
		assert.ErrorIs(t, err, models.ErrPositionEmpty)
	})
}

func TestBinderService_BulkReposition(t *testing.T) {
	ctx := context.Background()
	svc, entryRepo, _, binder := setupBinder(false, 3)

	e1, _, err := entryRepo.CreateOrMerge(ctx, &models.CollectionEntry{
		SetCode: "M10", CardNumber: "146", ContainerID: binder.ID, Quantity: 1, LanguageID: 1, UserID: "u1",
	}, true, "Lightning Bolt")
	require.NoError(t, err)
	e2, _, err := entryRepo.CreateOrMerge(ctx, &models.CollectionEntry{
		SetCode: "M10", CardNumber: "155", ContainerID: binder.ID, Quantity: 1, LanguageID: 1, UserID: "u1",
	}, true, "Shock")
	require.NoError(t, err)

	resp, err := svc.BulkReposition(ctx, binder.ID, "u1", &models.BulkPositionUpdateRequest{
		Updates: []models.PositionUpdate{
			{EntryID: e1.ID, Position: intPtr(5)},
			{EntryID: e2.ID, Position: intPtr(0)}, // below one, skipped
			{EntryID: 999, Position: intPtr(2)},   // unknown entry, no match
		},
	})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.UpdatedCount)
	moved, _ := entryRepo.GetByID(ctx, e1.ID, "u1")
	require.NotNil(t, moved.Position)
	assert.Equal(t, 5, *moved.Position)
}

func TestPlanConsolidation(t *testing.T) {
	t.Run("one position per name in alphabetical order", func(t *testing.T) {
		entries := []*models.BinderEntry{
			binderEntry(1, "Lightning Bolt", "English", date(1999, 1, 1), 7),
			binderEntry(2, "Lightning Bolt", "Japanese", date(2005, 1, 1), 9),
			binderEntry(3, "Shock", "English", date(2002, 1, 1), 2),
		}

		plan := PlanConsolidation(entries)
		require.Len(t, plan, 3)

		byEntry := make(map[int64]int)
		for _, p := range plan {
			byEntry[p.EntryID] = p.Position
		}
		assert.Equal(t, 1, byEntry[1])
		assert.Equal(t, 1, byEntry[2])
		assert.Equal(t, 2, byEntry[3])
	})

	t.Run("name matching ignores case", func(t *testing.T) {
		entries := []*models.BinderEntry{
			binderEntry(1, "Lightning Bolt", "English", nil, 1),
			binderEntry(2, "LIGHTNING BOLT", "English", nil, 4),
		}

		plan := PlanConsolidation(entries)
		byEntry := make(map[int64]int)
		for _, p := range plan {
			byEntry[p.EntryID] = p.Position
		}
		assert.Equal(t, byEntry[1], byEntry[2])
	})

	t.Run("entries without positions are numbered too", func(t *testing.T) {
		entries := []*models.BinderEntry{
			binderEntry(1, "Shock", "English", nil, 0),
			binderEntry(2, "Lightning Bolt", "English", nil, 3),
		}

		plan := PlanConsolidation(entries)
		byEntry := make(map[int64]int)
		for _, p := range plan {
			byEntry[p.EntryID] = p.Position
		}
		assert.Equal(t, 1, byEntry[2])
		assert.Equal(t, 2, byEntry[1])
	})

	t.Run("idempotent over its own output", func(t *testing.T) {
		entries := []*models.BinderEntry{
			binderEntry(1, "Shock", "English", nil, 5),
			binderEntry(2, "Lightning Bolt", "Japanese", date(2005, 1, 1), 5),
			binderEntry(3, "Lightning Bolt", "English", date(1999, 1, 1), 8),
		}

		first := PlanConsolidation(entries)
		byEntry := make(map[int64]int)
		for _, p := range first {
			byEntry[p.EntryID] = p.Position
		}
		for _, e := range entries {
			p := byEntry[e.ID]
			e.Position = &p
		}
		second := PlanConsolidation(entries)
		assert.Equal(t, first, second)
	})
}

func TestBinderService_Consolidate(t *testing.T) {
	ctx := context.Background()
	svc, entryRepo, _, binder := setupBinder(false, 3)
	entryRepo.binder[binder.ID] = []*models.BinderEntry{
		binderEntry(1, "Shock", "English", nil, 9),
		binderEntry(2, "Lightning Bolt", "English", nil, 4),
	}

	count, err := svc.Consolidate(ctx, binder.ID, "u1")
	require.NoError(t, err)

	assert.Equal(t, 2, count)
	require.Len(t, entryRepo.applied, 2)
	byEntry := make(map[int64]int)
	for _, a := range entryRepo.applied {
		byEntry[a.EntryID] = a.Position
	}
	assert.Equal(t, 1, byEntry[2])
	assert.Equal(t, 2, byEntry[1])
}
