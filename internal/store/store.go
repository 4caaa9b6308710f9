// Package store persists bid records. Records are write-once: Put never
// overwrites an existing id.
package store

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/sells-group/bid-sniper/internal/model"
)

var (
	// ErrBidNotFound is returned by Get for an unknown id.
	ErrBidNotFound = eris.New("store: bid not found")
	// ErrBidExists is returned by Put when the id is already stored.
	ErrBidExists = eris.New("store: bid already exists")
)

// BidStore maps bid ids to records.
type BidStore interface {
	Put(ctx context.Context, bid *model.BidRecord) error
	Get(ctx context.Context, id string) (*model.BidRecord, error)
	Migrate(ctx context.Context) error
	Close() error
}

// DefaultSQLitePath is used when the sqlite driver has no database_url.
const DefaultSQLitePath = "bids.db"

// Open creates a store for the named driver: "memory", "sqlite" or
// "postgres". The store is not migrated.
func Open(ctx context.Context, driver, dsn string) (BidStore, error) {
	switch driver {
	case "", "memory":
		return NewMemory(), nil
	case "sqlite":
		if dsn == "" {
			dsn = DefaultSQLitePath
		}
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, dsn, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}

func validateBid(bid *model.BidRecord) error {
	if bid == nil {
		return eris.New("store: nil bid")
	}
	if bid.ID == "" {
		return eris.New("store: bid has no id")
	}
	return nil
}

func encodeBid(bid *model.BidRecord) ([]byte, error) {
	data, err := json.Marshal(bid)
	if err != nil {
		return nil, eris.Wrap(err, "store: encode bid")
	}
	return data, nil
}

func decodeBid(data []byte) (*model.BidRecord, error) {
	var bid model.BidRecord
	if err := json.Unmarshal(data, &bid); err != nil {
		return nil, eris.Wrap(err, "store: decode bid")
	}
	return &bid, nil
}
