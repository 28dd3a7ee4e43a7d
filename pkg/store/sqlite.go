package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ritzau/dataflows/pkg/logging"
	"github.com/ritzau/dataflows/pkg/model"
	"github.com/ritzau/dataflows/pkg/scene"
)

// SQLiteStore keeps one row per scene with the JSON payload in a column
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath in WAL mode
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("schema migration failed: %w", err)
	}

	logging.Debug("opened sqlite scene store", "path", dbPath)
	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS scenes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		payload JSON NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := s.db.Exec(query)
	return err
}

func (s *SQLiteStore) Fetch(ctx context.Context, id int) (*scene.Scene, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, "SELECT payload FROM scenes WHERE id = ?", id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("scene %d: %w", id, model.ErrSceneNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query scene %d: %w", id, err)
	}
	return decode(payload, id)
}

func (s *SQLiteStore) FetchAll(ctx context.Context) ([]*scene.Scene, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, payload FROM scenes ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query scenes: %w", err)
	}
	defer rows.Close()

	out := make([]*scene.Scene, 0)
	for rows.Next() {
		var (
			id      int
			payload []byte
		)
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan scene row: %w", err)
		}
		sc, err := decode(payload, id)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Save(ctx context.Context, sc *scene.Scene, isNew bool) (int, error) {
	if isNew {
		return s.insert(ctx, sc)
	}

	payload, err := encode(sc, sc.ID)
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE scenes SET name = ?, payload = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		sc.Name, payload, sc.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to update scene %d: %w", sc.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, fmt.Errorf("update scene %d: %w", sc.ID, model.ErrSceneNotFound)
	}
	return sc.ID, nil
}

// insert stores a new row and then rewrites its payload with the assigned id
func (s *SQLiteStore) insert(ctx context.Context, sc *scene.Scene) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "INSERT INTO scenes (name, payload) VALUES (?, '{}')", sc.Name)
	if err != nil {
		return 0, fmt.Errorf("failed to insert scene: %w", err)
	}
	id64, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read scene id: %w", err)
	}
	id := int(id64)

	payload, err := encode(sc, id)
	if err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, "UPDATE scenes SET payload = ? WHERE id = ?", payload, id); err != nil {
		return 0, fmt.Errorf("failed to store scene %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit scene %d: %w", id, err)
	}
	return id, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM scenes WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete scene %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete scene %d: %w", id, model.ErrSceneNotFound)
	}
	return nil
}
