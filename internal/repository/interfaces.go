package repository

import (
	"context"

	"github.com/rscoates/magic-library/internal/models"
)

// UserRepo defines the interface for user persistence operations
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Add(ctx context.Context, user *models.User) error
}

// CardRepo defines the interface for the read-only card catalog
type CardRepo interface {
	GetBySetNumber(ctx context.Context, setCode, number string) (*models.Card, error)
	Search(ctx context.Context, q string, limit int) ([]*models.Card, error)
	FindByName(ctx context.Context, name string, setCode string) (*models.Card, error)
	ListByName(ctx context.Context, name string) ([]*models.Card, error)
	ListSetCodes(ctx context.Context) ([]string, error)
	ListNumbersInSet(ctx context.Context, setCode string) ([]string, error)
	Upsert(ctx context.Context, card *models.Card) error
}

// SetRepo defines the interface for the read-only set catalog
type SetRepo interface {
	GetByCode(ctx context.Context, code string) (*models.Set, error)
	Upsert(ctx context.Context, set *models.Set) error
}

// MetadataRepo defines the interface for languages and finishes
type MetadataRepo interface {
	ListLanguages(ctx context.Context) ([]*models.Language, error)
	GetLanguage(ctx context.Context, id int64) (*models.Language, error)
	GetLanguageByName(ctx context.Context, name string) (*models.Language, error)
	ListFinishes(ctx context.Context) ([]*models.Finish, error)
	GetFinish(ctx context.Context, id int64) (*models.Finish, error)
	GetFinishByName(ctx context.Context, name string) (*models.Finish, error)
}

// ContainerRepo defines the interface for container tree persistence
type ContainerRepo interface {
	GetByID(ctx context.Context, id int64, userID string) (*models.Container, error)
	ListByParent(ctx context.Context, parentID *int64, userID string) ([]*models.Container, error)
	ListAll(ctx context.Context, userID string) ([]*models.Container, error)
	ListBinders(ctx context.Context, userID string) ([]*models.Container, error)
	ListSoldIDs(ctx context.Context, userID string) (map[int64]bool, error)
	HasChildren(ctx context.Context, id int64) (bool, error)
	Add(ctx context.Context, container *models.Container) error
	Update(ctx context.Context, container *models.Container) error
	Delete(ctx context.Context, id int64, userID string) error
	ListTypes(ctx context.Context) ([]*models.ContainerType, error)
	GetType(ctx context.Context, id int64) (*models.ContainerType, error)
	GetTypeByName(ctx context.Context, name string) (*models.ContainerType, error)
	AddType(ctx context.Context, t *models.ContainerType) error
}

// EntryRepo defines the interface for collection entry persistence, including
// the transactional create-or-merge that hosts the binder position policy.
type EntryRepo interface {
	GetByID(ctx context.Context, id int64, userID string) (*models.CollectionEntry, error)
	List(ctx context.Context, userID string, containerID *int64) ([]*models.CollectionEntry, error)
	ListByCard(ctx context.Context, setCode, cardNumber, userID string) ([]*models.CollectionEntry, error)
	CreateOrMerge(ctx context.Context, entry *models.CollectionEntry, assignPosition bool, cardName string) (*models.CollectionEntry, bool, error)
	Update(ctx context.Context, entry *models.CollectionEntry) error
	Delete(ctx context.Context, id int64, userID string) error
	ListBinderEntries(ctx context.Context, containerID int64, userID string) ([]*models.BinderEntry, error)
	UpdatePosition(ctx context.Context, entryID, containerID int64, userID string, position *int) (bool, error)
	ApplyPositions(ctx context.Context, userID string, assignments []models.PositionAssignment) error
}
