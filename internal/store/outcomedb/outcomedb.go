// Package outcomedb reads the completed-trade feed from the execution
// system's SQLite database. Read-only: the engine never writes here.
package outcomedb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"signalcore/internal/logger"
	"signalcore/internal/store"
	"signalcore/internal/types"

	_ "modernc.org/sqlite"
)

// Repo implements store.TradeOutcomeRepository over a trade_outcomes
// table whose rows carry loosely-typed JSON payloads.
type Repo struct {
	db *sql.DB
}

var _ store.TradeOutcomeRepository = (*Repo)(nil)

func Open(path string) (*Repo, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("outcome db: path cannot be empty")
	}
	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(2)
	return &Repo{db: db}, nil
}

// Close releases the connection pool.
func (r *Repo) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// GetRecentCompleted returns up to limit completed trades newer than
// sinceDays, in chronological order (oldest first, like every other
// repository implementation). The query selects newest-first so the
// LIMIT keeps the most recent rows, then the batch is reversed.
// Malformed rows are logged and skipped; a partially decodable feed
// still trains the engine.
func (r *Repo) GetRecentCompleted(ctx context.Context, limit, sinceDays int) ([]types.TradeOutcome, error) {
	if limit <= 0 {
		limit = 100
	}
	cutoff := time.Now().AddDate(0, 0, -sinceDays).Unix()
	rows, err := r.db.QueryContext(ctx,
		`SELECT raw_data FROM trade_outcomes WHERE created_at >= ? ORDER BY created_at DESC LIMIT ?`,
		cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("querying trade outcomes: %w", err)
	}
	defer rows.Close()

	var out []types.TradeOutcome
	skipped := 0
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		outcome, err := store.DecodeOutcome(raw)
		if err != nil {
			skipped++
			continue
		}
		out = append(out, outcome)
	}
	if skipped > 0 {
		logger.Warnf("outcome db: skipped %d malformed rows", skipped)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, rows.Err()
}
