package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/rscoates/magic-library/internal/models"
)

// MetadataRepository implements MetadataRepo for PostgreSQL/SQLite
type MetadataRepository struct {
	db *sql.DB
}

// NewMetadataRepository creates a new MetadataRepository
func NewMetadataRepository(db *sql.DB) *MetadataRepository {
	return &MetadataRepository{db: db}
}

func (r *MetadataRepository) ListLanguages(ctx context.Context) ([]*models.Language, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, code, name FROM languages ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var langs []*models.Language
	for rows.Next() {
		var l models.Language
		if err := rows.Scan(&l.ID, &l.Code, &l.Name); err != nil {
			return nil, err
		}
		langs = append(langs, &l)
	}
	return langs, rows.Err()
}

func (r *MetadataRepository) GetLanguage(ctx context.Context, id int64) (*models.Language, error) {
	var l models.Language
	err := r.db.QueryRowContext(ctx, `SELECT id, code, name FROM languages WHERE id = $1`, id).Scan(
		&l.ID, &l.Code, &l.Name,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// GetLanguageByName matches either the display name or the two-letter code,
// case-insensitively.
func (r *MetadataRepository) GetLanguageByName(ctx context.Context, name string) (*models.Language, error) {
	query := `SELECT id, code, name FROM languages WHERE LOWER(name) = $1 OR LOWER(code) = $1`

	var l models.Language
	err := r.db.QueryRowContext(ctx, query, strings.ToLower(strings.TrimSpace(name))).Scan(
		&l.ID, &l.Code, &l.Name,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *MetadataRepository) ListFinishes(ctx context.Context) ([]*models.Finish, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM finishes ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var finishes []*models.Finish
	for rows.Next() {
		var f models.Finish
		if err := rows.Scan(&f.ID, &f.Name); err != nil {
			return nil, err
		}
		finishes = append(finishes, &f)
	}
	return finishes, rows.Err()
}

func (r *MetadataRepository) GetFinish(ctx context.Context, id int64) (*models.Finish, error) {
	var f models.Finish
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM finishes WHERE id = $1`, id).Scan(&f.ID, &f.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *MetadataRepository) GetFinishByName(ctx context.Context, name string) (*models.Finish, error) {
	var f models.Finish
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM finishes WHERE LOWER(name) = $1`,
		strings.ToLower(strings.TrimSpace(name))).Scan(&f.ID, &f.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}
