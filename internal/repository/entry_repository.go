package repository

import (
	"context"
	"database/sql"

	"github.com/rscoates/magic-library/internal/models"
)

// EntryRepository implements EntryRepo for PostgreSQL/SQLite
type EntryRepository struct {
	db *sql.DB
}

// NewEntryRepository creates a new EntryRepository
func NewEntryRepository(db *sql.DB) *EntryRepository {
	return &EntryRepository{db: db}
}

const entryColumns = `id, set_code, card_number, container_id, quantity, finish_id,
	language_id, comments, user_id, position`

func (r *EntryRepository) GetByID(ctx context.Context, id int64, userID string) (*models.CollectionEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM collection_entries WHERE id = $1 AND user_id = $2`

	row := r.db.QueryRowContext(ctx, query, id, userID)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *EntryRepository) List(ctx context.Context, userID string, containerID *int64) ([]*models.CollectionEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM collection_entries WHERE user_id = $1`
	args := []interface{}{userID}
	if containerID != nil {
		query += ` AND container_id = $2`
		args = append(args, *containerID)
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}

func (r *EntryRepository) ListByCard(ctx context.Context, setCode, cardNumber, userID string) ([]*models.CollectionEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM collection_entries
			  WHERE set_code = $1 AND card_number = $2 AND user_id = $3 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, setCode, cardNumber, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}

// CreateOrMerge inserts a collection entry, or increments the quantity of an
// existing entry with the same card, container, finish and language. When
// assignPosition is set and the entry carries no explicit position, a position
// is chosen inside the same transaction: the position already held by an entry
// of the same card name in the container, or one past the container's highest
// occupied position. cardName is the display name used for the same-name
// lookup.
func (r *EntryRepository) CreateOrMerge(ctx context.Context, entry *models.CollectionEntry, assignPosition bool, cardName string) (*models.CollectionEntry, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback()

	finish := toNullInt64(entry.FinishID)

	// An existing row for the same unique variant absorbs the quantity.
	findQuery := `SELECT ` + entryColumns + ` FROM collection_entries
				  WHERE set_code = $1 AND card_number = $2 AND container_id = $3
					AND language_id = $4 AND user_id = $5
					AND ((finish_id IS NULL AND $6) OR finish_id = $7)`

	row := tx.QueryRowContext(ctx, findQuery,
		entry.SetCode, entry.CardNumber, entry.ContainerID,
		entry.LanguageID, entry.UserID, !finish.Valid, finish)
	existing, err := scanEntry(row)
	if err != nil && err != sql.ErrNoRows {
		return nil, false, err
	}

	if existing != nil {
		existing.Quantity += entry.Quantity
		_, err = tx.ExecContext(ctx,
			`UPDATE collection_entries SET quantity = $1 WHERE id = $2`,
			existing.Quantity, existing.ID)
		if err != nil {
			return nil, false, err
		}
		if err := tx.Commit(); err != nil {
			return nil, false, err
		}
		return existing, true, nil
	}

	if assignPosition && entry.Position == nil {
		pos, err := nextPosition(ctx, tx, entry.ContainerID, entry.UserID, cardName)
		if err != nil {
			return nil, false, err
		}
		entry.Position = &pos
	}

	insertQuery := `INSERT INTO collection_entries
					(set_code, card_number, container_id, quantity, finish_id, language_id, comments, user_id, position)
					VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`

	err = tx.QueryRowContext(ctx, insertQuery,
		entry.SetCode, entry.CardNumber, entry.ContainerID, entry.Quantity,
		finish, entry.LanguageID, entry.Comments, entry.UserID, entry.Position,
	).Scan(&entry.ID)
	if err != nil {
		return nil, false, err
	}
	if err := tx.Commit(); err != nil {
		return nil, false, err
	}
	return entry, false, nil
}

// nextPosition runs inside the caller's transaction so two concurrent adds of
// the same name cannot both observe "no position yet".
func nextPosition(ctx context.Context, tx *sql.Tx, containerID int64, userID, cardName string) (int, error) {
	sameName := `SELECT e.position FROM collection_entries e
				 JOIN cards k ON k.set_code = e.set_code AND k.number = e.card_number
				 WHERE e.container_id = $1 AND e.user_id = $2
				   AND LOWER(k.name) = LOWER($3) AND e.position IS NOT NULL
				 ORDER BY e.position LIMIT 1`

	var pos int
	err := tx.QueryRowContext(ctx, sameName, containerID, userID, cardName).Scan(&pos)
	if err == nil {
		return pos, nil
	}
	if err != sql.ErrNoRows {
		return 0, err
	}

	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position), 0) FROM collection_entries WHERE container_id = $1 AND user_id = $2`,
		containerID, userID).Scan(&pos)
	if err != nil {
		return 0, err
	}
	return pos + 1, nil
}

func (r *EntryRepository) Update(ctx context.Context, e *models.CollectionEntry) error {
	query := `UPDATE collection_entries SET container_id = $1, quantity = $2, finish_id = $3,
			  language_id = $4, comments = $5, position = $6
			  WHERE id = $7 AND user_id = $8`

	_, err := r.db.ExecContext(ctx, query,
		e.ContainerID, e.Quantity, toNullInt64(e.FinishID), e.LanguageID,
		e.Comments, e.Position, e.ID, e.UserID)
	return err
}

func (r *EntryRepository) Delete(ctx context.Context, id int64, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM collection_entries WHERE id = $1 AND user_id = $2`, id, userID)
	return err
}

// ListBinderEntries loads everything a binder view needs in one query: each
// entry joined to its card, set release date, finish and language names.
func (r *EntryRepository) ListBinderEntries(ctx context.Context, containerID int64, userID string) ([]*models.BinderEntry, error) {
	query := `SELECT e.id, e.set_code, e.card_number, k.name, e.quantity,
					 e.finish_id, f.name, e.language_id, l.name, e.position, s.release_date
			  FROM collection_entries e
			  JOIN cards k ON k.set_code = e.set_code AND k.number = e.card_number
			  JOIN languages l ON l.id = e.language_id
			  LEFT JOIN finishes f ON f.id = e.finish_id
			  LEFT JOIN sets s ON s.code = e.set_code
			  WHERE e.container_id = $1 AND e.user_id = $2
			  ORDER BY e.id`

	rows, err := r.db.QueryContext(ctx, query, containerID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.BinderEntry
	for rows.Next() {
		var e models.BinderEntry
		var finishName sql.NullString
		var release sql.NullTime
		err := rows.Scan(&e.ID, &e.SetCode, &e.CardNumber, &e.CardName, &e.Quantity,
			&e.FinishID, &finishName, &e.LanguageID, &e.LanguageName, &e.Position, &release)
		if err != nil {
			return nil, err
		}
		if finishName.Valid {
			e.FinishName = &finishName.String
		}
		if release.Valid {
			t := release.Time
			e.ReleaseDate = &t
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// UpdatePosition sets or clears one entry's position, scoped to a container so
// a stale entry id cannot reposition something that moved elsewhere. Returns
// whether a row matched.
func (r *EntryRepository) UpdatePosition(ctx context.Context, entryID, containerID int64, userID string, position *int) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE collection_entries SET position = $1 WHERE id = $2 AND container_id = $3 AND user_id = $4`,
		position, entryID, containerID, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ApplyPositions writes a consolidation plan in one transaction.
func (r *EntryRepository) ApplyPositions(ctx context.Context, userID string, assignments []models.PositionAssignment) error {
	if len(assignments) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, a := range assignments {
		_, err := tx.ExecContext(ctx,
			`UPDATE collection_entries SET position = $1 WHERE id = $2 AND user_id = $3`,
			a.Position, a.EntryID, userID)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func toNullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func scanEntry(row rowScanner) (*models.CollectionEntry, error) {
	var e models.CollectionEntry
	var finish sql.NullInt64
	err := row.Scan(&e.ID, &e.SetCode, &e.CardNumber, &e.ContainerID, &e.Quantity,
		&finish, &e.LanguageID, &e.Comments, &e.UserID, &e.Position)
	if err != nil {
		return nil, err
	}
	if finish.Valid {
		e.FinishID = &finish.Int64
	}
	return &e, nil
}

func scanEntries(rows *sql.Rows) ([]*models.CollectionEntry, error) {
	var entries []*models.CollectionEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
