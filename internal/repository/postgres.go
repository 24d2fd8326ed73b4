package repository

import (
	"database/sql"

	_ "github.com/lib/pq"
)

// NewPostgresDB creates and initializes a PostgreSQL database connection.
//
// Postgres runs the binder position policy at READ COMMITTED; two concurrent
// first-time inserts of one card name can still allocate two positions. The
// consolidation pass repairs split groups.
func NewPostgresDB(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	if err := createPostgresTables(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := seedPostgresReferenceData(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func createPostgresTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_users_username ON users(username);

	CREATE TABLE IF NOT EXISTS languages (
		id BIGSERIAL PRIMARY KEY,
		code TEXT UNIQUE NOT NULL,
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS finishes (
		id BIGSERIAL PRIMARY KEY,
		name TEXT UNIQUE NOT NULL
	);

	CREATE TABLE IF NOT EXISTS cards (
		id BIGSERIAL PRIMARY KEY,
		set_code TEXT NOT NULL,
		number TEXT NOT NULL,
		name TEXT NOT NULL,
		rarity TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_cards_set_number ON cards(set_code, number);
	CREATE INDEX IF NOT EXISTS idx_cards_name ON cards(name);

	CREATE TABLE IF NOT EXISTS sets (
		code TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		release_date DATE
	);

	CREATE TABLE IF NOT EXISTS container_types (
		id BIGSERIAL PRIMARY KEY,
		name TEXT UNIQUE NOT NULL
	);

	CREATE TABLE IF NOT EXISTS containers (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		type_id BIGINT NOT NULL REFERENCES container_types(id),
		parent_id BIGINT REFERENCES containers(id),
		depth INTEGER NOT NULL DEFAULT 0 CHECK (depth <= 10),
		user_id TEXT NOT NULL REFERENCES users(id),
		is_sold BOOLEAN NOT NULL DEFAULT FALSE,
		binder_columns INTEGER NOT NULL DEFAULT 3 CHECK (binder_columns IN (2, 3, 4)),
		binder_fill_row BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_containers_user_id ON containers(user_id);
	CREATE INDEX IF NOT EXISTS idx_containers_parent_id ON containers(parent_id);

	CREATE TABLE IF NOT EXISTS collection_entries (
		id BIGSERIAL PRIMARY KEY,
		set_code TEXT NOT NULL,
		card_number TEXT NOT NULL,
		container_id BIGINT NOT NULL REFERENCES containers(id) ON DELETE CASCADE,
		quantity INTEGER NOT NULL DEFAULT 1 CHECK (quantity >= 1),
		finish_id BIGINT REFERENCES finishes(id),
		language_id BIGINT NOT NULL REFERENCES languages(id),
		comments TEXT,
		user_id TEXT NOT NULL REFERENCES users(id),
		position INTEGER,
		UNIQUE(set_code, card_number, container_id, finish_id, language_id, user_id)
	);

	CREATE INDEX IF NOT EXISTS idx_entries_container_id ON collection_entries(container_id);
	CREATE INDEX IF NOT EXISTS idx_entries_user_id ON collection_entries(user_id);
	CREATE INDEX IF NOT EXISTS idx_entries_card ON collection_entries(set_code, card_number);
	CREATE INDEX IF NOT EXISTS idx_entries_position ON collection_entries(container_id, position);
	`

	_, err := db.Exec(schema)
	return err
}

func seedPostgresReferenceData(db *sql.DB) error {
	seed := `
	INSERT INTO container_types (name) VALUES
		('box'), ('file'), ('deck'), ('cupboard'), ('drawer')
	ON CONFLICT (name) DO NOTHING;

	INSERT INTO languages (code, name) VALUES
		('en', 'English'), ('ja', 'Japanese'), ('de', 'German'), ('fr', 'French'),
		('it', 'Italian'), ('es', 'Spanish'), ('pt', 'Portuguese'), ('ru', 'Russian'),
		('ko', 'Korean'), ('zhs', 'Chinese Simplified'), ('zht', 'Chinese Traditional')
	ON CONFLICT (code) DO NOTHING;

	INSERT INTO finishes (name) VALUES ('foil'), ('etched')
	ON CONFLICT (name) DO NOTHING;
	`

	_, err := db.Exec(seed)
	return err
}
