package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/rscoates/magic-library/internal/models"
)

// ContainerRepository implements ContainerRepo for PostgreSQL/SQLite
type ContainerRepository struct {
	db *sql.DB
}

// NewContainerRepository creates a new ContainerRepository
func NewContainerRepository(db *sql.DB) *ContainerRepository {
	return &ContainerRepository{db: db}
}

const containerColumns = `c.id, c.name, c.description, c.type_id, c.parent_id, c.depth,
	c.user_id, c.is_sold, c.binder_columns, c.binder_fill_row, c.created_at, t.name`

func (r *ContainerRepository) GetByID(ctx context.Context, id int64, userID string) (*models.Container, error) {
	query := `SELECT ` + containerColumns + `
			  FROM containers c JOIN container_types t ON c.type_id = t.id
			  WHERE c.id = $1 AND c.user_id = $2`

	row := r.db.QueryRowContext(ctx, query, id, userID)
	c, err := scanContainer(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *ContainerRepository) ListByParent(ctx context.Context, parentID *int64, userID string) ([]*models.Container, error) {
	query := `SELECT ` + containerColumns + `
			  FROM containers c JOIN container_types t ON c.type_id = t.id
			  WHERE c.user_id = $1 AND `
	args := []interface{}{userID}
	if parentID == nil {
		query += `c.parent_id IS NULL`
	} else {
		query += `c.parent_id = $2`
		args = append(args, *parentID)
	}
	query += ` ORDER BY c.name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanContainers(rows)
}

func (r *ContainerRepository) ListAll(ctx context.Context, userID string) ([]*models.Container, error) {
	query := `SELECT ` + containerColumns + `
			  FROM containers c JOIN container_types t ON c.type_id = t.id
			  WHERE c.user_id = $1 ORDER BY c.name`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanContainers(rows)
}

// ListBinders returns every container whose type is the binder type.
func (r *ContainerRepository) ListBinders(ctx context.Context, userID string) ([]*models.Container, error) {
	query := `SELECT ` + containerColumns + `
			  FROM containers c JOIN container_types t ON c.type_id = t.id
			  WHERE c.user_id = $1 AND LOWER(t.name) = $2 ORDER BY c.id`

	rows, err := r.db.QueryContext(ctx, query, userID, strings.ToLower(models.BinderTypeName))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanContainers(rows)
}

// ListSoldIDs returns the ids of containers marked sold, including every
// descendant of a sold container.
func (r *ContainerRepository) ListSoldIDs(ctx context.Context, userID string) (map[int64]bool, error) {
	all, err := r.ListAll(ctx, userID)
	if err != nil {
		return nil, err
	}

	children := make(map[int64][]int64)
	sold := make(map[int64]bool)
	var queue []int64
	for _, c := range all {
		if c.ParentID != nil {
			children[*c.ParentID] = append(children[*c.ParentID], c.ID)
		}
		if c.IsSold {
			sold[c.ID] = true
			queue = append(queue, c.ID)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, child := range children[id] {
			if !sold[child] {
				sold[child] = true
				queue = append(queue, child)
			}
		}
	}
	return sold, nil
}

func (r *ContainerRepository) HasChildren(ctx context.Context, id int64) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM containers WHERE parent_id = $1`, id).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *ContainerRepository) Add(ctx context.Context, c *models.Container) error {
	query := `INSERT INTO containers (name, description, type_id, parent_id, depth, user_id, is_sold, binder_columns, binder_fill_row)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id, created_at`

	return r.db.QueryRowContext(ctx, query,
		c.Name, c.Description, c.TypeID, c.ParentID, c.Depth, c.UserID,
		c.IsSold, c.BinderColumns, c.BinderFillRow,
	).Scan(&c.ID, &c.CreatedAt)
}

func (r *ContainerRepository) Update(ctx context.Context, c *models.Container) error {
	query := `UPDATE containers SET name = $1, description = $2, type_id = $3, parent_id = $4,
			  depth = $5, is_sold = $6, binder_columns = $7, binder_fill_row = $8
			  WHERE id = $9 AND user_id = $10`

	_, err := r.db.ExecContext(ctx, query,
		c.Name, c.Description, c.TypeID, c.ParentID, c.Depth,
		c.IsSold, c.BinderColumns, c.BinderFillRow, c.ID, c.UserID)
	return err
}

func (r *ContainerRepository) Delete(ctx context.Context, id int64, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM containers WHERE id = $1 AND user_id = $2`, id, userID)
	return err
}

func (r *ContainerRepository) ListTypes(ctx context.Context) ([]*models.ContainerType, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM container_types ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []*models.ContainerType
	for rows.Next() {
		var t models.ContainerType
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		types = append(types, &t)
	}
	return types, rows.Err()
}

func (r *ContainerRepository) GetType(ctx context.Context, id int64) (*models.ContainerType, error) {
	var t models.ContainerType
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name FROM container_types WHERE id = $1`, id).Scan(&t.ID, &t.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *ContainerRepository) GetTypeByName(ctx context.Context, name string) (*models.ContainerType, error) {
	var t models.ContainerType
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name FROM container_types WHERE LOWER(name) = $1`,
		strings.ToLower(strings.TrimSpace(name))).Scan(&t.ID, &t.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *ContainerRepository) AddType(ctx context.Context, t *models.ContainerType) error {
	return r.db.QueryRowContext(ctx,
		`INSERT INTO container_types (name) VALUES ($1) RETURNING id`, t.Name).Scan(&t.ID)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanContainer(row rowScanner) (*models.Container, error) {
	var c models.Container
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.TypeID, &c.ParentID, &c.Depth,
		&c.UserID, &c.IsSold, &c.BinderColumns, &c.BinderFillRow, &c.CreatedAt, &c.TypeName)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func scanContainers(rows *sql.Rows) ([]*models.Container, error) {
	var containers []*models.Container
	for rows.Next() {
		c, err := scanContainer(rows)
		if err != nil {
			return nil, err
		}
		containers = append(containers, c)
	}
	return containers, rows.Err()
}
