// Package store provides the SQLite-backed prediction history and chat log.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/fincast/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// History records one row per distinct prediction seen by the poller.
type History struct {
	db *sql.DB
}

// DefaultPath returns the history database location, honoring XDG_CACHE_HOME.
func DefaultPath() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "fincast", "history.db")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "fincast", "history.db")
}

// Open opens or creates the history database at the given path.
func Open(dbPath string) (*History, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("store: creating dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("store: opening db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: creating schema: %w", err)
	}

	return &History{db: db}, nil
}

// Close closes the database.
func (h *History) Close() error {
	return h.db.Close()
}

// Record stores a snapshot. It reports false if a snapshot with the same
// hash already exists.
func (h *History) Record(s model.Snapshot, predictionID string) (bool, error) {
	res, err := h.db.Exec(`INSERT OR IGNORE INTO snapshots
		(hash, prediction_id, recorded_at, income, total_expenses, savings_potential,
		 target_savings, recommended_savings, confidence, risk_score)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.Hash, predictionID, s.RecordedAt.UTC().Format(timeLayout),
		s.Income, s.TotalExpenses, s.SavingsPotential,
		s.TargetSavings, s.RecommendedSavings, s.Confidence, s.RiskScore,
	)
	if err != nil {
		return false, fmt.Errorf("store: recording snapshot: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Recent returns up to n snapshots, newest first. n <= 0 returns all.
func (h *History) Recent(n int) ([]model.Snapshot, error) {
	query := `SELECT hash, recorded_at, income, total_expenses, savings_potential,
		target_savings, recommended_savings, confidence, risk_score
		FROM snapshots ORDER BY recorded_at DESC`
	var args []any
	if n > 0 {
		query += " LIMIT ?"
		args = append(args, n)
	}

	rows, err := h.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: querying snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var snaps []model.Snapshot
	for rows.Next() {
		var s model.Snapshot
		var recorded string
		if err := rows.Scan(&s.Hash, &recorded, &s.Income, &s.TotalExpenses, &s.SavingsPotential,
			&s.TargetSavings, &s.RecommendedSavings, &s.Confidence, &s.RiskScore); err != nil {
			return nil, err
		}
		s.RecordedAt, _ = time.Parse(timeLayout, recorded)
		snaps = append(snaps, s)
	}
	return snaps, rows.Err()
}

// Count returns the number of recorded snapshots.
func (h *History) Count() (int, error) {
	var count int
	err := h.db.QueryRow("SELECT COUNT(*) FROM snapshots").Scan(&count)
	return count, err
}

// Prune keeps the newest keep snapshots and deletes the rest.
func (h *History) Prune(keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := h.db.Exec(`DELETE FROM snapshots WHERE hash NOT IN
		(SELECT hash FROM snapshots ORDER BY recorded_at DESC LIMIT ?)`, keep)
	if err != nil {
		return 0, fmt.Errorf("store: pruning snapshots: %w", err)
	}
	return res.RowsAffected()
}
