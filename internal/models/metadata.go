package models

// Language is a card language (e.g. English, Japanese).
type Language struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// Finish is a card finish (foil, etched). A nil finish on an entry means the
// base non-foil printing.
type Finish struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// MetadataError is a typed error for language/finish validation
type MetadataError struct {
	Message string
}

func (e MetadataError) Error() string {
	return e.Message
}

var (
	ErrInvalidLanguage = MetadataError{"invalid language"}
	ErrInvalidFinish   = MetadataError{"invalid finish"}
)
