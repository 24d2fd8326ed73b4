package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/rscoates/magic-library/internal/models"
)

// SetRepository implements SetRepo for PostgreSQL/SQLite
type SetRepository struct {
	db *sql.DB
}

// NewSetRepository creates a new SetRepository
func NewSetRepository(db *sql.DB) *SetRepository {
	return &SetRepository{db: db}
}

func (r *SetRepository) GetByCode(ctx context.Context, code string) (*models.Set, error) {
	query := `SELECT code, name, release_date FROM sets WHERE code = $1`

	var s models.Set
	var release sql.NullTime
	err := r.db.QueryRowContext(ctx, query, strings.ToUpper(code)).Scan(&s.Code, &s.Name, &release)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if release.Valid {
		t := release.Time
		s.ReleaseDate = &t
	}
	return &s, nil
}

func (r *SetRepository) Upsert(ctx context.Context, set *models.Set) error {
	query := `INSERT INTO sets (code, name, release_date) VALUES ($1, $2, $3)
			  ON CONFLICT (code) DO UPDATE SET name = $2, release_date = $3`

	var release interface{}
	if set.ReleaseDate != nil {
		release = set.ReleaseDate.Format("2006-01-02")
	}
	_, err := r.db.ExecContext(ctx, query, strings.ToUpper(set.Code), set.Name, release)
	return err
}
