package models

// BinderSlot is a single display slot on a binder page. Empty slots carry
// only a position (0 for fill-row padding) and IsEmpty=true.
type BinderSlot struct {
	Position      int     `json:"position"`
	EntryID       *int64  `json:"entry_id,omitempty"`
	SetCode       *string `json:"set_code,omitempty"`
	CardNumber    *string `json:"card_number,omitempty"`
	CardName      *string `json:"card_name,omitempty"`
	Quantity      int     `json:"quantity"`
	FinishName    *string `json:"finish_name,omitempty"`
	LanguageName  *string `json:"language_name,omitempty"`
	IsEmpty       bool    `json:"is_empty"`
	OverflowCount *int    `json:"overflow_count,omitempty"`
}

// BinderPageResponse is one rendered binder page.
type BinderPageResponse struct {
	ContainerID   int64        `json:"container_id"`
	ContainerName string       `json:"container_name"`
	Page          int          `json:"page"`
	TotalPages    int          `json:"total_pages"`
	Slots         []BinderSlot `json:"slots"`
	MaxPosition   int          `json:"max_position"`
	BinderColumns int          `json:"binder_columns"`
	BinderFillRow bool         `json:"binder_fill_row"`
}

// PositionEntryResponse is one ranked entry within a position group.
type PositionEntryResponse struct {
	EntryID      int64   `json:"entry_id"`
	SetCode      string  `json:"set_code"`
	CardNumber   string  `json:"card_number"`
	CardName     string  `json:"card_name"`
	Quantity     int     `json:"quantity"`
	FinishName   *string `json:"finish_name,omitempty"`
	LanguageName string  `json:"language_name"`
	ReleaseDate  *string `json:"release_date,omitempty"`
}

// PositionEntriesResponse lists every entry sharing one binder position.
type PositionEntriesResponse struct {
	Position      int                     `json:"position"`
	CardName      string                  `json:"card_name"`
	Entries       []PositionEntryResponse `json:"entries"`
	TotalQuantity int                     `json:"total_quantity"`
}

// PositionUpdate sets or clears one entry's position.
type PositionUpdate struct {
	EntryID  int64 `json:"entry_id"`
	Position *int  `json:"position"`
}

// BulkPositionUpdateRequest repositions entries in a binder, best-effort per
// row.
type BulkPositionUpdateRequest struct {
	Updates []PositionUpdate `json:"updates"`
}

// BulkPositionUpdateResponse reports how many rows were updated.
type BulkPositionUpdateResponse struct {
	Success      bool `json:"success"`
	UpdatedCount int  `json:"updated_count"`
}
