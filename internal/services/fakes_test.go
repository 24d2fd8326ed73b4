package services

import (
	"context"
	"sort"
	"strings"

	"github.com/rscoates/magic-library/internal/models"
)

// In-memory repository fakes. They reproduce just enough storage behavior
// for the services under test: variant merging, the binder position policy,
// and sold-container descent.

type fakeEntryRepo struct {
	nextID  int64
	entries map[int64]*models.CollectionEntry
	names   map[int64]string // entry id -> card name, for the position policy
	binder  map[int64][]*models.BinderEntry
	applied []models.PositionAssignment
}

func newFakeEntryRepo() *fakeEntryRepo {
	return &fakeEntryRepo{
		entries: make(map[int64]*models.CollectionEntry),
		names:   make(map[int64]string),
		binder:  make(map[int64][]*models.BinderEntry),
	}
}

func (r *fakeEntryRepo) GetByID(_ context.Context, id int64, userID string) (*models.CollectionEntry, error) {
	e, ok := r.entries[id]
	if !ok || e.UserID != userID {
		return nil, nil
	}
	clone := *e
	return &clone, nil
}

func (r *fakeEntryRepo) List(_ context.Context, userID string, containerID *int64) ([]*models.CollectionEntry, error) {
	var out []*models.CollectionEntry
	for _, e := range r.entries {
		if e.UserID != userID {
			continue
		}
		if containerID != nil && e.ContainerID != *containerID {
			continue
		}
		clone := *e
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeEntryRepo) ListByCard(_ context.Context, setCode, cardNumber, userID string) ([]*models.CollectionEntry, error) {
	var out []*models.CollectionEntry
	for _, e := range r.entries {
		if e.UserID != userID || e.SetCode != setCode || e.CardNumber != cardNumber {
			continue
		}
		clone := *e
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func sameFinish(a, b *int64) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || *a == *b
}

func (r *fakeEntryRepo) CreateOrMerge(_ context.Context, entry *models.CollectionEntry, assignPosition bool, cardName string) (*models.CollectionEntry, bool, error) {
	for _, e := range r.entries {
		if e.UserID == entry.UserID && e.ContainerID == entry.ContainerID &&
			e.SetCode == entry.SetCode && e.CardNumber == entry.CardNumber &&
			e.LanguageID == entry.LanguageID && sameFinish(e.FinishID, entry.FinishID) {
			e.Quantity += entry.Quantity
			clone := *e
			return &clone, true, nil
		}
	}

	if assignPosition && entry.Position == nil {
		max := 0
		for id, e := range r.entries {
			if e.UserID != entry.UserID || e.ContainerID != entry.ContainerID || e.Position == nil {
				continue
			}
			if strings.EqualFold(r.names[id], cardName) {
				p := *e.Position
				entry.Position = &p
				break
			}
			if *e.Position > max {
				max = *e.Position
			}
		}
		if entry.Position == nil {
			next := max + 1
			entry.Position = &next
		}
	}

	r.nextID++
	stored := *entry
	stored.ID = r.nextID
	r.entries[stored.ID] = &stored
	r.names[stored.ID] = cardName

	clone := stored
	return &clone, false, nil
}

func (r *fakeEntryRepo) Update(_ context.Context, entry *models.CollectionEntry) error {
	clone := *entry
	r.entries[entry.ID] = &clone
	return nil
}

func (r *fakeEntryRepo) Delete(_ context.Context, id int64, userID string) error {
	e, ok := r.entries[id]
	if !ok || e.UserID != userID {
		return nil
	}
	delete(r.entries, id)
	return nil
}

func (r *fakeEntryRepo) ListBinderEntries(_ context.Context, containerID int64, _ string) ([]*models.BinderEntry, error) {
	return r.binder[containerID], nil
}

func (r *fakeEntryRepo) UpdatePosition(_ context.Context, entryID, containerID int64, userID string, position *int) (bool, error) {
	e, ok := r.entries[entryID]
	if !ok || e.UserID != userID || e.ContainerID != containerID {
		return false, nil
	}
	e.Position = position
	return true, nil
}

func (r *fakeEntryRepo) ApplyPositions(_ context.Context, _ string, assignments []models.PositionAssignment) error {
	r.applied = append(r.applied, assignments...)
	for _, a := range assignments {
		if e, ok := r.entries[a.EntryID]; ok {
			p := a.Position
			e.Position = &p
		}
	}
	return nil
}

type fakeContainerRepo struct {
	nextID     int64
	containers map[int64]*models.Container
	types      map[int64]*models.ContainerType
}

func newFakeContainerRepo() *fakeContainerRepo {
	return &fakeContainerRepo{
		containers: make(map[int64]*models.Container),
		types: map[int64]*models.ContainerType{
			1: {ID: 1, Name: "box"},
			2: {ID: 2, Name: "file"},
			3: {ID: 3, Name: "deck"},
		},
	}
}

func (r *fakeContainerRepo) put(c *models.Container) *models.Container {
	if c.ID == 0 {
		r.nextID++
		c.ID = r.nextID
	} else if c.ID > r.nextID {
		r.nextID = c.ID
	}
	r.containers[c.ID] = c
	return c
}

func (r *fakeContainerRepo) GetByID(_ context.Context, id int64, userID string) (*models.Container, error) {
	c, ok := r.containers[id]
	if !ok || c.UserID != userID {
		return nil, nil
	}
	clone := *c
	return &clone, nil
}

func (r *fakeContainerRepo) ListByParent(_ context.Context, parentID *int64, userID string) ([]*models.Container, error) {
	var out []*models.Container
	for _, c := range r.containers {
		if c.UserID != userID {
			continue
		}
		if parentID == nil && c.ParentID != nil {
			continue
		}
		if parentID != nil && (c.ParentID == nil || *c.ParentID != *parentID) {
			continue
		}
		clone := *c
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeContainerRepo) ListAll(_ context.Context, userID string) ([]*models.Container, error) {
	var out []*models.Container
	for _, c := range r.containers {
		if c.UserID != userID {
			continue
		}
		clone := *c
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeContainerRepo) ListBinders(_ context.Context, userID string) ([]*models.Container, error) {
	var out []*models.Container
	for _, c := range r.containers {
		if c.UserID != userID || !c.IsBinder() {
			continue
		}
		clone := *c
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeContainerRepo) ListSoldIDs(ctx context.Context, userID string) (map[int64]bool, error) {
	all, _ := r.ListAll(ctx, userID)
	children := make(map[int64][]int64)
	sold := make(map[int64]bool)
	var queue []int64
	for _, c := range all {
		if c.ParentID != nil {
			children[*c.ParentID] = append(children[*c.ParentID], c.ID)
		}
		if c.IsSold {
			sold[c.ID] = true
			queue = append(queue, c.ID)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, child := range children[id] {
			if !sold[child] {
				sold[child] = true
				queue = append(queue, child)
			}
		}
	}
	return sold, nil
}

func (r *fakeContainerRepo) HasChildren(_ context.Context, id int64) (bool, error) {
	for _, c := range r.containers {
		if c.ParentID != nil && *c.ParentID == id {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeContainerRepo) Add(_ context.Context, container *models.Container) error {
	r.put(container)
	return nil
}

func (r *fakeContainerRepo) Update(_ context.Context, container *models.Container) error {
	clone := *container
	r.containers[container.ID] = &clone
	return nil
}

func (r *fakeContainerRepo) Delete(_ context.Context, id int64, userID string) error {
	if c, ok := r.containers[id]; ok && c.UserID == userID {
		delete(r.containers, id)
	}
	return nil
}

func (r *fakeContainerRepo) ListTypes(_ context.Context) ([]*models.ContainerType, error) {
	var out []*models.ContainerType
	for _, t := range r.types {
		clone := *t
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeContainerRepo) GetType(_ context.Context, id int64) (*models.ContainerType, error) {
	t, ok := r.types[id]
	if !ok {
		return nil, nil
	}
	clone := *t
	return &clone, nil
}

func (r *fakeContainerRepo) GetTypeByName(_ context.Context, name string) (*models.ContainerType, error) {
	for _, t := range r.types {
		if strings.EqualFold(t.Name, name) {
			clone := *t
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeContainerRepo) AddType(_ context.Context, t *models.ContainerType) error {
	id := int64(len(r.types) + 1)
	for r.types[id] != nil {
		id++
	}
	t.ID = id
	r.types[id] = t
	return nil
}

type fakeCardRepo struct {
	cards []*models.Card
}

func (r *fakeCardRepo) GetBySetNumber(_ context.Context, setCode, number string) (*models.Card, error) {
	for _, c := range r.cards {
		if strings.EqualFold(c.SetCode, setCode) && c.Number == number {
			clone := *c
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeCardRepo) Search(_ context.Context, q string, limit int) ([]*models.Card, error) {
	var out []*models.Card
	for _, c := range r.cards {
		if strings.Contains(strings.ToLower(c.Name), strings.ToLower(q)) {
			clone := *c
			out = append(out, &clone)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *fakeCardRepo) FindByName(_ context.Context, name string, setCode string) (*models.Card, error) {
	for _, c := range r.cards {
		if !strings.EqualFold(c.Name, name) {
			continue
		}
		if setCode != "" && !strings.EqualFold(c.SetCode, setCode) {
			continue
		}
		clone := *c
		return &clone, nil
	}
	return nil, nil
}

func (r *fakeCardRepo) ListByName(_ context.Context, name string) ([]*models.Card, error) {
	var out []*models.Card
	for _, c := range r.cards {
		if strings.EqualFold(c.Name, name) {
			clone := *c
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeCardRepo) ListSetCodes(_ context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, c := range r.cards {
		if !seen[c.SetCode] {
			seen[c.SetCode] = true
			out = append(out, c.SetCode)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *fakeCardRepo) ListNumbersInSet(_ context.Context, setCode string) ([]string, error) {
	var out []string
	for _, c := range r.cards {
		if strings.EqualFold(c.SetCode, setCode) {
			out = append(out, c.Number)
		}
	}
	return out, nil
}

func (r *fakeCardRepo) Upsert(_ context.Context, card *models.Card) error {
	r.cards = append(r.cards, card)
	return nil
}

type fakeMetadataRepo struct {
	languages []*models.Language
	finishes  []*models.Finish
}

func newFakeMetadataRepo() *fakeMetadataRepo {
	return &fakeMetadataRepo{
		languages: []*models.Language{
			{ID: 1, Code: "en", Name: "English"},
			{ID: 2, Code: "ja", Name: "Japanese"},
		},
		finishes: []*models.Finish{
			{ID: 1, Name: "foil"},
			{ID: 2, Name: "etched"},
		},
	}
}

func (r *fakeMetadataRepo) ListLanguages(_ context.Context) ([]*models.Language, error) {
	return r.languages, nil
}

func (r *fakeMetadataRepo) GetLanguage(_ context.Context, id int64) (*models.Language, error) {
	for _, l := range r.languages {
		if l.ID == id {
			clone := *l
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeMetadataRepo) GetLanguageByName(_ context.Context, name string) (*models.Language, error) {
	for _, l := range r.languages {
		if strings.EqualFold(l.Name, name) || strings.EqualFold(l.Code, name) {
			clone := *l
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeMetadataRepo) ListFinishes(_ context.Context) ([]*models.Finish, error) {
	return r.finishes, nil
}

func (r *fakeMetadataRepo) GetFinish(_ context.Context, id int64) (*models.Finish, error) {
	for _, f := range r.finishes {
		if f.ID == id {
			clone := *f
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeMetadataRepo) GetFinishByName(_ context.Context, name string) (*models.Finish, error) {
	for _, f := range r.finishes {
		if strings.EqualFold(f.Name, name) {
			clone := *f
			return &clone, nil
		}
	}
	return nil, nil
}

type fakeUserRepo struct {
	users map[string]*models.User // keyed by id
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.User)}
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	clone := *u
	return &clone, nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			clone := *u
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) Add(_ context.Context, user *models.User) error {
	clone := *user
	r.users[user.ID] = &clone
	return nil
}
