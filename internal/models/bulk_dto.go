package models

// CSVFormat identifies a supported import/export column layout.
type CSVFormat string

const (
	FormatMTGGoldfish CSVFormat = "mtggoldfish"
	FormatDeckbox     CSVFormat = "deckbox"
	FormatSimple      CSVFormat = "simple"
	FormatAuto        CSVFormat = "auto" // import only: detect from header
)

// IsValidImportFormat checks an import format value.
func IsValidImportFormat(f CSVFormat) bool {
	switch f {
	case FormatMTGGoldfish, FormatDeckbox, FormatSimple, FormatAuto:
		return true
	}
	return false
}

// IsValidExportFormat checks an export format value.
func IsValidExportFormat(f CSVFormat) bool {
	switch f {
	case FormatMTGGoldfish, FormatDeckbox, FormatSimple:
		return true
	}
	return false
}

// ImportRequest imports CSV rows into one container.
type ImportRequest struct {
	ContainerID int64     `json:"container_id"`
	Format      CSVFormat `json:"format"`
	CSVData     string    `json:"csv_data"`
}

// ImportResult reports per-row outcomes of an import.
type ImportResult struct {
	Success       bool     `json:"success"`
	ImportedCount int      `json:"imported_count"`
	SkippedCount  int      `json:"skipped_count"`
	ErrorCount    int      `json:"error_count"`
	Errors        []string `json:"errors"`
	Warnings      []string `json:"warnings"`
}

// ExportRequest exports a container (or the whole collection) as CSV.
type ExportRequest struct {
	ContainerID *int64    `json:"container_id,omitempty"`
	Format      CSVFormat `json:"format"`
}

// FormatDescription documents one CSV layout for the formats endpoint.
type FormatDescription struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Example     string `json:"example,omitempty"`
}

// FormatsResponse lists supported import and export layouts.
type FormatsResponse struct {
	ImportFormats []FormatDescription `json:"import_formats"`
	ExportFormats []FormatDescription `json:"export_formats"`
}

// BulkError is a typed error for import/export operations
type BulkError struct {
	Message string
}

func (e BulkError) Error() string {
	return e.Message
}

var (
	ErrCSVTooShort     = BulkError{"CSV must have at least a header and one data row"}
	ErrInvalidFormat   = BulkError{"unknown CSV format"}
)
