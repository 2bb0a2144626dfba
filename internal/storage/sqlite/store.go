package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"servicos/internal/board"
	"servicos/internal/models"
)

// MemoryPath opens a database that lives only as long as the process.
const MemoryPath = ":memory:"

// Store wraps access to the SQLite database and exposes high level helpers.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open initializes a new SQLite store and runs the required migrations.
func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("empty database path")
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	dsn := "file::memory:?_busy_timeout=5000&_foreign_keys=ON"
	if dbPath != MemoryPath {
		if err := ensureDir(dbPath); err != nil {
			return nil, err
		}
		dsn = fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=ON", dbPath)
	}

	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// A single connection keeps an in-memory database alive and serializes writers.
	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(0)

	s := &Store{db: conn, logger: logger}
	if err := s.migrate(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	logger.Info("card store ready", slog.String("path", dbPath))
	return s, nil
}

// Close releases the database resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func ensureDir(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS cards (
            id TEXT PRIMARY KEY,
            identifier TEXT NOT NULL UNIQUE,
            title TEXT NOT NULL DEFAULT '',
            description TEXT NOT NULL DEFAULT '',
            due_date DATETIME,
            priority TEXT NOT NULL DEFAULT 'medium',
            assigned_to TEXT NOT NULL DEFAULT '',
            date_inicio DATETIME NOT NULL,
            column_id TEXT NOT NULL,
            position INTEGER NOT NULL DEFAULT 0,
            comments TEXT NOT NULL DEFAULT '[]',
            attachments TEXT NOT NULL DEFAULT '[]',
            history TEXT NOT NULL DEFAULT '[]',
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE INDEX IF NOT EXISTS idx_cards_column_position ON cards(column_id, position);`,
		`CREATE TRIGGER IF NOT EXISTS trg_cards_updated
            AFTER UPDATE ON cards
            FOR EACH ROW BEGIN
                UPDATE cards SET updated_at = CURRENT_TIMESTAMP WHERE id = OLD.id;
            END;`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// ListCards returns every card with its column, ordered by position within
// each column.
func (s *Store) ListCards(ctx context.Context) ([]board.Placement, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, identifier, title, description, due_date, priority, assigned_to,
            date_inicio, column_id, comments, attachments, history
        FROM cards ORDER BY column_id, position, rowid`)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	var placements []board.Placement
	for rows.Next() {
		p, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		placements = append(placements, p)
	}
	return placements, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCard(row scanner) (board.Placement, error) {
	var (
		p                              board.Placement
		due                            sql.NullTime
		comments, attachments, history string
	)
	c := &p.Card
	err := row.Scan(&c.ID, &c.Identifier, &c.Title, &c.Description, &due, &c.Priority, &c.AssignedTo,
		&c.DateInicio, &p.ColumnID, &comments, &attachments, &history)
	if err != nil {
		return board.Placement{}, fmt.Errorf("scan card: %w", err)
	}
	if due.Valid {
		d := due.Time
		c.DueDate = &d
	}
	if err := json.Unmarshal([]byte(comments), &c.Comments); err != nil {
		return board.Placement{}, fmt.Errorf("decode comments of %s: %w", c.ID, err)
	}
	if err := json.Unmarshal([]byte(attachments), &c.Attachments); err != nil {
		return board.Placement{}, fmt.Errorf("decode attachments of %s: %w", c.ID, err)
	}
	if err := json.Unmarshal([]byte(history), &c.History); err != nil {
		return board.Placement{}, fmt.Errorf("decode history of %s: %w", c.ID, err)
	}
	return p, nil
}

// PutCard inserts or replaces a card. A card saved into the column it is
// already in keeps its position; one entering a column goes to the end.
func (s *Store) PutCard(ctx context.Context, card models.Card, columnID string) error {
	comments, err := encodeList(card.Comments)
	if err != nil {
		return fmt.Errorf("encode comments: %w", err)
	}
	attachments, err := encodeList(card.Attachments)
	if err != nil {
		return fmt.Errorf("encode attachments: %w", err)
	}
	history, err := encodeList(card.History)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var (
		currentColumn string
		position      int64
	)
	err = tx.QueryRowContext(ctx, `SELECT column_id, position FROM cards WHERE id = ?`, card.ID).Scan(&currentColumn, &position)
	switch {
	case errors.Is(err, sql.ErrNoRows), err == nil && currentColumn != columnID:
		position, err = nextPosition(ctx, tx, columnID)
		if err != nil {
			return err
		}
	case err != nil:
		return fmt.Errorf("select card: %w", err)
	}

	var due sql.NullTime
	if card.DueDate != nil {
		due = sql.NullTime{Time: *card.DueDate, Valid: true}
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO cards(id, identifier, title, description, due_date, priority, assigned_to,
            date_inicio, column_id, position, comments, attachments, history)
        VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            identifier = excluded.identifier,
            title = excluded.title,
            description = excluded.description,
            due_date = excluded.due_date,
            priority = excluded.priority,
            assigned_to = excluded.assigned_to,
            date_inicio = excluded.date_inicio,
            column_id = excluded.column_id,
            position = excluded.position,
            comments = excluded.comments,
            attachments = excluded.attachments,
            history = excluded.history,
            updated_at = CURRENT_TIMESTAMP`,
		card.ID, card.Identifier, card.Title, card.Description, due, string(card.Priority), card.AssignedTo,
		card.DateInicio, columnID, position, comments, attachments, history)
	if err != nil {
		return fmt.Errorf("upsert card: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Debug("card stored", slog.String("card", card.Identifier), slog.String("column", columnID), slog.Int64("position", position))
	return nil
}

func encodeList[T any](items []T) (string, error) {
	if items == nil {
		items = []T{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func nextPosition(ctx context.Context, tx *sql.Tx, columnID string) (int64, error) {
	var position sql.NullInt64
	err := tx.QueryRowContext(ctx, `SELECT MAX(position) FROM cards WHERE column_id = ?`, columnID).Scan(&position)
	if err != nil {
		return 0, fmt.Errorf("select position: %w", err)
	}
	if position.Valid {
		return position.Int64 + 1, nil
	}
	return 0, nil
}

// Ping reports whether the database answers within ctx.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.db.PingContext(ctx)
}
