// Package store persists the review queue and merge decisions between the
// batch run and the review web UI. This is deliberately thin plumbing:
// the matching core never touches it.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"vcardmerge/internal/core/model"
	"vcardmerge/internal/core/review"
)

var ErrNotFound = errors.New("store: item not found")

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS review_items (
  id TEXT PRIMARY KEY,
  matchBasis TEXT NOT NULL,
  confidence REAL NOT NULL,
  class TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  membersJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  decidedAt TEXT
);
CREATE INDEX IF NOT EXISTS idx_review_items_status ON review_items(status);

CREATE TABLE IF NOT EXISTS merge_decisions (
  id TEXT PRIMARY KEY,
  primaryId TEXT,
  secondaryIds TEXT NOT NULL,
  fieldResolution TEXT,
  matchBasis TEXT,
  confidence REAL,
  requiresReview INTEGER NOT NULL DEFAULT 0,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`
	_, err := d.conn.Exec(schema)
	return err
}

// SaveQueue inserts queue items, skipping IDs already present so a
// re-review pass never resets an existing verdict.
func (d *DB) SaveQueue(items []model.ReviewItem) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, item := range items {
		members, err := json.Marshal(item.Members)
		if err != nil {
			return fmt.Errorf("failed to marshal members of %s: %w", item.ID, err)
		}
		status := item.Status
		if status == "" {
			status = model.ReviewPending
		}
		_, err = tx.Exec(
			`INSERT OR IGNORE INTO review_items (id, matchBasis, confidence, class, status, membersJson)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			item.ID, string(item.MatchBasis), item.Confidence, string(item.Class), string(status), string(members),
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// PendingItems returns undecided queue entries, oldest first.
func (d *DB) PendingItems() ([]model.ReviewItem, error) {
	rows, err := d.conn.Query(
		`SELECT id, matchBasis, confidence, class, status, membersJson
		 FROM review_items WHERE status = ? ORDER BY createdAt, id`,
		string(model.ReviewPending),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ReviewItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (d *DB) GetItem(id string) (model.ReviewItem, error) {
	row := d.conn.QueryRow(
		`SELECT id, matchBasis, confidence, class, status, membersJson
		 FROM review_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return model.ReviewItem{}, ErrNotFound
	}
	return item, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (model.ReviewItem, error) {
	var item model.ReviewItem
	var basis, class, status, members string
	if err := row.Scan(&item.ID, &basis, &item.Confidence, &class, &status, &members); err != nil {
		return model.ReviewItem{}, err
	}
	item.MatchBasis = model.MatchBasis(basis)
	item.Class = model.CrossClass(class)
	item.Status = model.ReviewStatus(status)
	if err := json.Unmarshal([]byte(members), &item.Members); err != nil {
		return model.ReviewItem{}, fmt.Errorf("failed to unmarshal members of %s: %w", item.ID, err)
	}
	return item, nil
}

// RecordDecision stores a verdict. Deciding an unknown item is an error;
// repeating the same verdict is a no-op.
func (d *DB) RecordDecision(dec review.Decision) error {
	res, err := d.conn.Exec(
		`UPDATE review_items SET status = ?, decidedAt = CURRENT_TIMESTAMP WHERE id = ?`,
		string(dec.Status), dec.ItemID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *DB) SaveDecisions(decisions []model.MergeDecision) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, dec := range decisions {
		secondaries, err := json.Marshal(dec.SecondaryIDs)
		if err != nil {
			return err
		}
		resolution, err := json.Marshal(dec.FieldResolution)
		if err != nil {
			return err
		}
		_, err = tx.Exec(
			`INSERT OR REPLACE INTO merge_decisions
			 (id, primaryId, secondaryIds, fieldResolution, matchBasis, confidence, requiresReview)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			dec.ID, dec.PrimaryID, string(secondaries), string(resolution),
			string(dec.MatchBasis), dec.Confidence, boolToInt(dec.RequiresReview),
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) Decisions() ([]model.MergeDecision, error) {
	rows, err := d.conn.Query(
		`SELECT id, primaryId, secondaryIds, fieldResolution, matchBasis, confidence, requiresReview
		 FROM merge_decisions ORDER BY createdAt, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.MergeDecision
	for rows.Next() {
		var dec model.MergeDecision
		var secondaries, resolution, basis string
		var requires int
		if err := rows.Scan(&dec.ID, &dec.PrimaryID, &secondaries, &resolution, &basis, &dec.Confidence, &requires); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(secondaries), &dec.SecondaryIDs); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(resolution), &dec.FieldResolution); err != nil {
			return nil, err
		}
		dec.MatchBasis = model.MatchBasis(basis)
		dec.RequiresReview = requires != 0
		out = append(out, dec)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
