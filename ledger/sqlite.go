package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/decred/slog"
	_ "modernc.org/sqlite"
)

// SQLiteStore writes hand records into a local sqlite file.
type SQLiteStore struct {
	db  *sql.DB
	log slog.Logger
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (and creates if needed) the database at dbPath.
// ":memory:" is accepted for tests.
func NewSQLiteStore(dbPath string, log slog.Logger) (*SQLiteStore, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, ErrEmptyPath
	}
	if log == nil {
		log = slog.Disabled
	}
	if dbPath != ":memory:" {
		parent := filepath.Dir(dbPath)
		if parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, fmt.Errorf("create ledger directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, pragma := range []string{
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA journal_mode = WAL;`,
		`PRAGMA foreign_keys = ON;`,
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ledger %s: %w", pragma, err)
		}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ledger schema: %w", err)
	}

	log.Infof("Hand ledger opened at %s", dbPath)
	return &SQLiteStore{db: db, log: log}, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) RecordHand(ctx context.Context, rec HandRecord) error {
	winners, err := json.Marshal(rec.Winners)
	if err != nil {
		return fmt.Errorf("marshal winners: %w", err)
	}
	rankings, err := json.Marshal(rec.Rankings)
	if err != nil {
		return fmt.Errorf("marshal rankings: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO hand_history (
    table_id, hand_id, hand_number, pot, distributed, remainder,
    win_by_fold, refunded, board, winners_json, rankings_json, settled_at_ms
)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (hand_id) DO NOTHING
`, rec.TableID, rec.HandID, rec.HandNumber, rec.Pot, rec.Distributed, rec.Remainder,
		boolToInt(rec.WinByFold), boolToInt(rec.Refunded), rec.Board,
		string(winners), string(rankings), rec.SettledAt.UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("record hand %s: %w", rec.HandID, err)
	}

	s.log.Debugf("Recorded hand #%d (%s) of table %s", rec.HandNumber, rec.HandID, rec.TableID)
	return nil
}

func (s *SQLiteStore) RecentHands(ctx context.Context, tableID string, limit int) ([]HandRecord, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT table_id, hand_id, hand_number, pot, distributed, remainder,
       win_by_fold, refunded, board, winners_json, rankings_json, settled_at_ms
FROM hand_history
WHERE table_id = ?
ORDER BY settled_at_ms DESC, id DESC
LIMIT ?
`, tableID, limit)
	if err != nil {
		return nil, fmt.Errorf("query hands of %s: %w", tableID, err)
	}
	defer rows.Close()

	out := make([]HandRecord, 0, limit)
	for rows.Next() {
		var (
			rec                 HandRecord
			winByFold, refunded int
			winners, rankings   string
			settledAtMs         int64
		)
		if err := rows.Scan(
			&rec.TableID, &rec.HandID, &rec.HandNumber, &rec.Pot, &rec.Distributed, &rec.Remainder,
			&winByFold, &refunded, &rec.Board, &winners, &rankings, &settledAtMs,
		); err != nil {
			return nil, err
		}
		rec.WinByFold = winByFold != 0
		rec.Refunded = refunded != 0
		rec.SettledAt = time.UnixMilli(settledAtMs).UTC()
		if err := json.Unmarshal([]byte(winners), &rec.Winners); err != nil {
			return nil, fmt.Errorf("decode winners of %s: %w", rec.HandID, err)
		}
		if err := json.Unmarshal([]byte(rankings), &rec.Rankings); err != nil {
			return nil, fmt.Errorf("decode rankings of %s: %w", rec.HandID, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`
CREATE TABLE IF NOT EXISTS hand_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    table_id TEXT NOT NULL,
    hand_id TEXT NOT NULL UNIQUE,
    hand_number INTEGER NOT NULL,
    pot INTEGER NOT NULL,
    distributed INTEGER NOT NULL,
    remainder INTEGER NOT NULL DEFAULT 0,
    win_by_fold INTEGER NOT NULL DEFAULT 0,
    refunded INTEGER NOT NULL DEFAULT 0,
    board TEXT NOT NULL DEFAULT '',
    winners_json TEXT NOT NULL DEFAULT '[]',
    rankings_json TEXT NOT NULL DEFAULT '[]',
    settled_at_ms INTEGER NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_hand_history_table_recent ON hand_history(table_id, settled_at_ms DESC)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
