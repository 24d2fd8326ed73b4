package models

// DecklistRequest checks an MTGO-format decklist against the collection.
type DecklistRequest struct {
	Decklist string `json:"decklist"`
}

// DecklistCardLocation is one holding usable to satisfy a decklist line.
type DecklistCardLocation struct {
	EntryID       int64   `json:"entry_id"`
	SetCode       string  `json:"set_code"`
	CardNumber    string  `json:"card_number"`
	ContainerName string  `json:"container_name"`
	ContainerPath string  `json:"container_path"`
	Quantity      int     `json:"quantity"`
	FinishName    *string `json:"finish_name,omitempty"`
	LanguageName  string  `json:"language_name"`
}

// DecklistCardResult is the ownership result for one decklist line.
type DecklistCardResult struct {
	CardName          string                 `json:"card_name"`
	RequestedQuantity int                    `json:"requested_quantity"`
	OwnedQuantity     int                    `json:"owned_quantity"`
	MissingQuantity   int                    `json:"missing_quantity"`
	Locations         []DecklistCardLocation `json:"locations"`
	IsSideboard       bool                   `json:"is_sideboard"`
}

// DecklistResult is the full decklist check.
type DecklistResult struct {
	Cards               []DecklistCardResult `json:"cards"`
	TotalCardsRequested int                  `json:"total_cards_requested"`
	TotalCardsOwned     int                  `json:"total_cards_owned"`
	TotalCardsMissing   int                  `json:"total_cards_missing"`
}
