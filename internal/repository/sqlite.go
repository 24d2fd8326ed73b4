package repository

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// NewSQLiteDB creates and initializes a SQLite database.
//
// The DSN takes the write lock at transaction begin (_txlock=immediate) so the
// read-then-decide half of binder position assignment is serialized against
// concurrent inserts of the same card name.
func NewSQLiteDB(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_txlock=immediate")
	if err != nil {
		return nil, err
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := seedReferenceData(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func createTables(db *sql.DB) error {
	schema := `
	-- Users table
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_users_username ON users(username);

	-- Card languages
	CREATE TABLE IF NOT EXISTS languages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		code TEXT UNIQUE NOT NULL,
		name TEXT NOT NULL
	);

	-- Card finishes (NULL finish on an entry means non-foil)
	CREATE TABLE IF NOT EXISTS finishes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT UNIQUE NOT NULL
	);

	-- Card catalog (immutable reference data)
	CREATE TABLE IF NOT EXISTS cards (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		set_code TEXT NOT NULL,
		number TEXT NOT NULL,
		name TEXT NOT NULL,
		rarity TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_cards_set_number ON cards(set_code, number);
	CREATE INDEX IF NOT EXISTS idx_cards_name ON cards(name);

	-- Set catalog, used for binder tie-break ordering
	CREATE TABLE IF NOT EXISTS sets (
		code TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		release_date DATE
	);

	-- Container types (box, file, deck, cupboard, drawer)
	CREATE TABLE IF NOT EXISTS container_types (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT UNIQUE NOT NULL
	);

	-- Containers (per-user tree, depth bounded)
	CREATE TABLE IF NOT EXISTS containers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		description TEXT,
		type_id INTEGER NOT NULL REFERENCES container_types(id),
		parent_id INTEGER REFERENCES containers(id),
		depth INTEGER NOT NULL DEFAULT 0 CHECK (depth <= 10),
		user_id TEXT NOT NULL REFERENCES users(id),
		is_sold INTEGER NOT NULL DEFAULT 0,
		binder_columns INTEGER NOT NULL DEFAULT 3 CHECK (binder_columns IN (2, 3, 4)),
		binder_fill_row INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_containers_user_id ON containers(user_id);
	CREATE INDEX IF NOT EXISTS idx_containers_parent_id ON containers(parent_id);

	-- Collection entries (one row per card variant per container per user)
	CREATE TABLE IF NOT EXISTS collection_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		set_code TEXT NOT NULL,
		card_number TEXT NOT NULL,
		container_id INTEGER NOT NULL REFERENCES containers(id) ON DELETE CASCADE,
		quantity INTEGER NOT NULL DEFAULT 1 CHECK (quantity >= 1),
		finish_id INTEGER REFERENCES finishes(id),
		language_id INTEGER NOT NULL REFERENCES languages(id),
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

func seedReferenceData(db *sql.DB) error {
	seed := `
	INSERT OR IGNORE INTO container_types (name) VALUES
		('box'), ('file'), ('deck'), ('cupboard'), ('drawer');

	INSERT OR IGNORE INTO languages (code, name) VALUES
		('en', 'English'), ('ja', 'Japanese'), ('de', 'German'), ('fr', 'French'),
		('it', 'Italian'), ('es', 'Spanish'), ('pt', 'Portuguese'), ('ru', 'Russian'),
		('ko', 'Korean'), ('zhs', 'Chinese Simplified'), ('zht', 'Chinese Traditional');

	INSERT OR IGNORE INTO finishes (name) VALUES ('foil'), ('etched');
	`

	_, err := db.Exec(seed)
	return err
}
