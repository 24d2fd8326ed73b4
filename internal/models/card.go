package models

import "time"

// Card is an immutable catalog row identified by (set_code, number). Many
// collection entries may reference one card.
type Card struct {
	ID      int64  `json:"id"`
	SetCode string `json:"set_code"`
	Number  string `json:"number"`
	Name    string `json:"name"`
	Rarity  string `json:"rarity"`
}

// Set is an immutable catalog row. ReleaseDate is used only for binder
// tie-break ordering; a missing row or nil date sorts as infinitely new.
type Set struct {
	Code        string     `json:"code"`
	Name        string     `json:"name"`
	ReleaseDate *time.Time `json:"release_date,omitempty"`
}

// CardError is a typed error for catalog lookups
type CardError struct {
	Message string
}

func (e CardError) Error() string {
	return e.Message
}

var (
	ErrCardNotFound = CardError{"card not found"}
	ErrSetNotFound  = CardError{"set not found"}
)
