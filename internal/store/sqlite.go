// Package store keeps the latest host checkpoint per game so a participant
// that connects late can be brought up to date.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// ErrNotFound is returned when no checkpoint exists for a game.
var ErrNotFound = errors.New("checkpoint not found")

// Checkpoint is one saved full-snapshot frame.
type Checkpoint struct {
	GameID    string
	Hash      string
	Payload   []byte // the encoded frame, replayed verbatim
	SavedBy   string
	Turn      int
	UpdatedAt time.Time
}

// SQLite is a checkpoint store backed by a SQLite file.
type SQLite struct {
	db *sql.DB
}

// Open opens (or creates) the store at path and applies the schema.
func Open(path string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close releases the connection.
func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save replaces the game's checkpoint.
func (s *SQLite) Save(ctx context.Context, cp Checkpoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cp.GameID = strings.TrimSpace(cp.GameID)
	if cp.GameID == "" {
		return errors.New("game id is required")
	}
	if len(cp.Payload) == 0 {
		return errors.New("payload is required")
	}
	if cp.UpdatedAt.IsZero() {
		cp.UpdatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO checkpoints (game_id, hash, payload, saved_by, turn, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (game_id) DO UPDATE SET
	hash = excluded.hash,
	payload = excluded.payload,
	saved_by = excluded.saved_by,
	turn = excluded.turn,
	updated_at = excluded.updated_at
`,
		cp.GameID, cp.Hash, cp.Payload, cp.SavedBy, cp.Turn, cp.UpdatedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save checkpoint %s: %w", cp.GameID, err)
	}
	return nil
}

// Latest returns the game's checkpoint or ErrNotFound.
func (s *SQLite) Latest(ctx context.Context, gameID string) (Checkpoint, error) {
	if err := ctx.Err(); err != nil {
		return Checkpoint{}, err
	}
	row := s.db.QueryRowContext(ctx, `
SELECT game_id, hash, payload, saved_by, turn, updated_at
FROM checkpoints
WHERE game_id = ?
`, strings.TrimSpace(gameID))
	cp, err := scanCheckpoint(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Checkpoint{}, ErrNotFound
	}
	if err != nil {
		return Checkpoint{}, fmt.Errorf("load checkpoint %s: %w", gameID, err)
	}
	return cp, nil
}

// Games lists checkpointed game ids, most recently updated first.
func (s *SQLite) Games(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT game_id FROM checkpoints ORDER BY updated_at DESC, game_id`)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan game id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate games: %w", err)
	}
	return ids, nil
}

// Delete drops a game's checkpoint. Deleting a missing game is not an error.
func (s *SQLite) Delete(ctx context.Context, gameID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM checkpoints WHERE game_id = ?`, gameID); err != nil {
		return fmt.Errorf("delete checkpoint %s: %w", gameID, err)
	}
	return nil
}

func scanCheckpoint(row *sql.Row) (Checkpoint, error) {
	var (
		cp      Checkpoint
		updated int64
	)
	if err := row.Scan(&cp.GameID, &cp.Hash, &cp.Payload, &cp.SavedBy, &cp.Turn, &updated); err != nil {
		return Checkpoint{}, err
	}
	cp.UpdatedAt = time.UnixMilli(updated).UTC()
	return cp, nil
}
