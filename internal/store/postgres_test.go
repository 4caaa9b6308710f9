package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS bids`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Put(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO bids \(id, job_type, record, created_at\) VALUES \(\$1, \$2, \$3, \$4\) ON CONFLICT \(id\) DO NOTHING`).
		WithArgs("bid-1", "roof_repair", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.Put(context.Background(), sampleBid("bid-1")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Put_Exists(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO bids`).
		WithArgs("bid-1", "roof_repair", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	err := s.Put(context.Background(), sampleBid("bid-1"))
	assert.ErrorIs(t, err, ErrBidExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Put_Error(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO bids`).
		WithArgs("bid-1", "roof_repair", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("connection reset"))

	err := s.Put(context.Background(), sampleBid("bid-1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: put bid bid-1")
	assert.NotErrorIs(t, err, ErrBidExists)
}

func TestPostgresStore_Get(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	data, err := json.Marshal(sampleBid("bid-1"))
	require.NoError(t, err)
	mock.ExpectQuery(`SELECT record FROM bids WHERE id = \$1`).
		WithArgs("bid-1").
		WillReturnRows(pgxmock.NewRows([]string{"record"}).AddRow(data))

	got, err := s.Get(context.Background(), "bid-1")
	require.NoError(t, err)
	assert.Equal(t, "bid-1", got.ID)
	assert.Equal(t, 1625.0, got.Pricing.PriceBands.Balanced)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Get_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT record FROM bids`).
		WithArgs("nonexistent").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.Get(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrBidNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewPostgres_BadConnString(t *testing.T) {
	_, err := NewPostgres(context.Background(), "://not-a-url", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: parse config")
}
