package models

// PricedCard is one collection entry with its resolved market price.
type PricedCard struct {
	EntryID       int64    `json:"entry_id"`
	CardName      string   `json:"card_name"`
	SetCode       string   `json:"set_code"`
	CardNumber    string   `json:"card_number"`
	FinishName    *string  `json:"finish_name,omitempty"`
	Quantity      int      `json:"quantity"`
	UnitPrice     *float64 `json:"unit_price,omitempty"`
	TotalPrice    *float64 `json:"total_price,omitempty"`
	ContainerName string   `json:"container_name"`
	ContainerID   int64    `json:"container_id"`
}

// CollectionValueSummary aggregates value over the priced entries.
type CollectionValueSummary struct {
	TotalValue       float64 `json:"total_value"`
	TotalCards       int     `json:"total_cards"`
	TotalUnique      int     `json:"total_unique"`
	PricedCards      int     `json:"priced_cards"`
	UnpricedCards    int     `json:"unpriced_cards"`
	PricingAvailable bool    `json:"pricing_available"`
}

// TopCardsResponse is the value summary plus the most valuable entries.
type TopCardsResponse struct {
	Summary CollectionValueSummary `json:"summary"`
	Cards   []PricedCard           `json:"cards"`
}

// PricingStatusResponse reports whether the price table is loaded.
type PricingStatusResponse struct {
	Loaded  bool   `json:"loaded"`
	Message string `json:"message"`
}
