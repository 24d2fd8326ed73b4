package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/rscoates/magic-library/internal/models"
)

// CardRepository implements CardRepo for PostgreSQL/SQLite
type CardRepository struct {
	db *sql.DB
}

// NewCardRepository creates a new CardRepository
func NewCardRepository(db *sql.DB) *CardRepository {
	return &CardRepository{db: db}
}

func (r *CardRepository) GetBySetNumber(ctx context.Context, setCode, number string) (*models.Card, error) {
	query := `SELECT id, set_code, number, name, rarity FROM cards
			  WHERE set_code = $1 AND number = $2`

	var c models.Card
	err := r.db.QueryRowContext(ctx, query, strings.ToUpper(setCode), number).Scan(
		&c.ID, &c.SetCode, &c.Number, &c.Name, &c.Rarity,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Search matches cards by name substring, set code substring, or number
// prefix, case-insensitively.
func (r *CardRepository) Search(ctx context.Context, q string, limit int) ([]*models.Card, error) {
	query := `SELECT id, set_code, number, name, rarity FROM cards
			  WHERE LOWER(name) LIKE $1 OR LOWER(set_code) LIKE $1 OR LOWER(number) LIKE $2
			  ORDER BY name, set_code, number
			  LIMIT $3`

	needle := strings.ToLower(strings.TrimSpace(q))
	rows, err := r.db.QueryContext(ctx, query, "%"+needle+"%", needle+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanCards(rows)
}

// FindByName returns the first card with an exact (case-insensitive) name,
// optionally restricted to one set.
func (r *CardRepository) FindByName(ctx context.Context, name string, setCode string) (*models.Card, error) {
	query := `SELECT id, set_code, number, name, rarity FROM cards WHERE LOWER(name) = $1`
	args := []interface{}{strings.ToLower(name)}

	if setCode != "" {
		query += ` AND set_code = $2`
		args = append(args, strings.ToUpper(setCode))
	}
	query += ` ORDER BY id LIMIT 1`

	var c models.Card
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&c.ID, &c.SetCode, &c.Number, &c.Name, &c.Rarity)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListByName returns every printing that matches a name exactly,
// case-insensitively.
func (r *CardRepository) ListByName(ctx context.Context, name string) ([]*models.Card, error) {
	query := `SELECT id, set_code, number, name, rarity FROM cards
			  WHERE LOWER(name) = $1 ORDER BY set_code, number`

	rows, err := r.db.QueryContext(ctx, query, strings.ToLower(name))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanCards(rows)
}

func (r *CardRepository) ListSetCodes(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT set_code FROM cards ORDER BY set_code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

func (r *CardRepository) ListNumbersInSet(ctx context.Context, setCode string) ([]string, error) {
	query := `SELECT number FROM cards WHERE set_code = $1 ORDER BY number`

	rows, err := r.db.QueryContext(ctx, query, strings.ToUpper(setCode))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var numbers []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		numbers = append(numbers, n)
	}
	return numbers, rows.Err()
}

// Upsert inserts or refreshes one catalog row. Used by the catalog importer.
func (r *CardRepository) Upsert(ctx context.Context, card *models.Card) error {
	query := `INSERT INTO cards (set_code, number, name, rarity) VALUES ($1, $2, $3, $4)
			  ON CONFLICT (set_code, number) DO UPDATE SET name = $3, rarity = $4`

	_, err := r.db.ExecContext(ctx, query, strings.ToUpper(card.SetCode), card.Number, card.Name, card.Rarity)
	return err
}

func scanCards(rows *sql.Rows) ([]*models.Card, error) {
	var cards []*models.Card
	for rows.Next() {
		var c models.Card
		if err := rows.Scan(&c.ID, &c.SetCode, &c.Number, &c.Name, &c.Rarity); err != nil {
			return nil, err
		}
		cards = append(cards, &c)
	}
	return cards, rows.Err()
}
