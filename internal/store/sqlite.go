package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/bid-sniper/internal/model"
)

// SQLiteStore implements BidStore using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// One connection keeps the pragmas below in force for every statement.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS bids (
	id         TEXT PRIMARY KEY,
	job_type   TEXT NOT NULL,
	record     TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_bids_created_at ON bids(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Put implements BidStore.
func (s *SQLiteStore) Put(ctx context.Context, bid *model.BidRecord) error {
	if err := validateBid(bid); err != nil {
		return err
	}
	data, err := encodeBid(bid)
	if err != nil {
		return err
	}
	createdAt := bid.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO bids (id, job_type, record, created_at) VALUES (?, ?, ?, ?) ON CONFLICT(id) DO NOTHING`,
		bid.ID, string(bid.Request.JobType), string(data), createdAt.UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: put bid %s", bid.ID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrapf(err, "sqlite: put bid %s", bid.ID)
	}
	if n == 0 {
		return eris.Wrapf(ErrBidExists, "sqlite: put bid %s", bid.ID)
	}
	return nil
}

// Get implements BidStore.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*model.BidRecord, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT record FROM bids WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrBidNotFound, "sqlite: get bid %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get bid %s", id)
	}
	return decodeBid([]byte(data))
}
