package models

// CreateEntryRequest adds a card to the collection. Position is normally left
// nil so binder containers assign one; a non-nil value bypasses assignment
// (drag-and-drop reordering).
type CreateEntryRequest struct {
	SetCode     string  `json:"set_code"`
	CardNumber  string  `json:"card_number"`
	ContainerID int64   `json:"container_id"`
	Quantity    int     `json:"quantity"`
	FinishID    *int64  `json:"finish_id,omitempty"`
	LanguageID  int64   `json:"language_id"`
	Comments    *string `json:"comments,omitempty"`
	Position    *int    `json:"position,omitempty"`
}

// UpdateEntryRequest updates an entry; nil fields are left unchanged.
type UpdateEntryRequest struct {
	Quantity    *int    `json:"quantity,omitempty"`
	FinishID    *int64  `json:"finish_id,omitempty"`
	LanguageID  *int64  `json:"language_id,omitempty"`
	ContainerID *int64  `json:"container_id,omitempty"`
	Comments    *string `json:"comments,omitempty"`
}

// EntryResponse is an entry decorated with catalog and container names.
type EntryResponse struct {
	ID            int64   `json:"id"`
	SetCode       string  `json:"set_code"`
	CardNumber    string  `json:"card_number"`
	ContainerID   int64   `json:"container_id"`
	Quantity      int     `json:"quantity"`
	FinishID      *int64  `json:"finish_id,omitempty"`
	FinishName    *string `json:"finish_name,omitempty"`
	LanguageID    int64   `json:"language_id"`
	LanguageName  string  `json:"language_name"`
	Comments      *string `json:"comments,omitempty"`
	CardName      string  `json:"card_name"`
	ContainerName string  `json:"container_name"`
	Position      *int    `json:"position,omitempty"`
}

// CollectionLocation is one holding of a card within the search summary.
type CollectionLocation struct {
	ContainerID   int64   `json:"container_id"`
	ContainerName string  `json:"container_name"`
	ContainerPath string  `json:"container_path"`
	Quantity      int     `json:"quantity"`
	FinishName    *string `json:"finish_name,omitempty"`
	LanguageName  string  `json:"language_name"`
	Comments      *string `json:"comments,omitempty"`
}

// CollectionSummary aggregates all holdings of one card.
type CollectionSummary struct {
	SetCode       string               `json:"set_code"`
	CardNumber    string               `json:"card_number"`
	CardName      string               `json:"card_name"`
	Rarity        string               `json:"rarity"`
	TotalQuantity int                  `json:"total_quantity"`
	Locations     []CollectionLocation `json:"locations"`
}

// MoveRequest moves a quantity of an entry into another container.
type MoveRequest struct {
	TargetContainerID int64 `json:"target_container_id"`
	Quantity          int   `json:"quantity"`
}

// MoveResponse reports the outcome of a quantity move.
type MoveResponse struct {
	Success                 bool   `json:"success"`
	Message                 string `json:"message"`
	SourceEntryID           int64  `json:"source_entry_id"`
	SourceRemainingQuantity int    `json:"source_remaining_quantity"`
	TargetEntryID           int64  `json:"target_entry_id"`
	TargetQuantity          int    `json:"target_quantity"`
	TargetContainerName     string `json:"target_container_name"`
	TargetContainerPath     string `json:"target_container_path"`
}
