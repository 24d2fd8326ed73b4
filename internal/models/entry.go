package models

import "time"

// CollectionEntry is a quantity of one card variant held in one container.
// Position is meaningful only while the container is a binder: all entries
// whose card shares a printed name carry the same position, and entries for
// different names never share one.
type CollectionEntry struct {
	ID          int64   `json:"id"`
	SetCode     string  `json:"set_code"`
	CardNumber  string  `json:"card_number"`
	ContainerID int64   `json:"container_id"`
	Quantity    int     `json:"quantity"`
	FinishID    *int64  `json:"finish_id,omitempty"`
	LanguageID  int64   `json:"language_id"`
	Comments    *string `json:"comments,omitempty"`
	UserID      string  `json:"-"`
	Position    *int    `json:"position,omitempty"`
}

// BinderEntry is a collection entry joined to the catalog fields the binder
// core sorts on. ReleaseDate is nil when the set row is missing or undated.
type BinderEntry struct {
	ID           int64
	SetCode      string
	CardNumber   string
	CardName     string
	Quantity     int
	FinishID     *int64
	FinishName   *string
	LanguageID   int64
	LanguageName string
	Position     *int
	ReleaseDate  *time.Time
}

// PositionAssignment is one row of a consolidation plan.
type PositionAssignment struct {
	EntryID  int64
	Position int
}

// EntryError is a typed error for collection entry operations
type EntryError struct {
	Message string
}

func (e EntryError) Error() string {
	return e.Message
}

var (
	ErrEntryNotFound       = EntryError{"entry not found"}
	ErrInvalidQuantity     = EntryError{"quantity must be at least 1"}
	ErrMoveExceedsQuantity = EntryError{"cannot move more cards than available"}
	ErrSameContainer       = EntryError{"source and target containers are the same"}
	ErrPositionEmpty       = EntryError{"no entries at this position"}
	ErrInvalidPage         = EntryError{"page must be at least 1"}
)
