package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-certs/core"
	"github.com/trezcool/masomo-certs/core/certificate"
)

const (
	upsertQuery = `INSERT INTO local_storage (item_key, item_value, stored_at) VALUES (?, ?, ?)
ON CONFLICT (item_key) DO UPDATE SET item_value = excluded.item_value, stored_at = excluded.stored_at`
	sizeQuery   = `SELECT COALESCE(SUM(LENGTH(item_key) + LENGTH(item_value)), 0) FROM local_storage`
	getQuery    = `SELECT item_key, item_value, stored_at FROM local_storage WHERE item_key = ?`
	keysQuery   = `SELECT item_key FROM local_storage ORDER BY seq`
	removeQuery = `DELETE FROM local_storage WHERE item_key IN (?)`
)

type row struct {
	Key      string `db:"item_key"`
	Value    string `db:"item_value"`
	StoredAt int64  `db:"stored_at"` // unix nanoseconds
}

func (r row) item() certificate.Item {
	return certificate.Item{
		Key:      r.Key,
		Value:    r.Value,
		StoredAt: time.Unix(0, r.StoredAt).UTC(),
	}
}

// Store is a certificate.Store backed by a single SQL table.
// Its size is the number of characters of all keys and values.
type Store struct {
	db    core.DB
	quota int // chars; 0 disables the check
}

var _ certificate.Store = (*Store)(nil)

func New(db core.DB, quota int) *Store {
	return &Store{db: db, quota: quota}
}

func (s *Store) Get(ctx context.Context, key string) (certificate.Item, error) {
	var r row
	if err := s.db.GetContext(ctx, &r, s.db.Rebind(getQuery), key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return certificate.Item{}, certificate.ErrItemNotFound
		}
		return certificate.Item{}, errors.Wrap(err, "querying item")
	}
	return r.item(), nil
}

func (s *Store) Set(ctx context.Context, items ...certificate.Item) (err error) {
	if len(items) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "starting transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := certificate.NowFunc().UnixNano()
	upsert := tx.Rebind(upsertQuery)
	for _, item := range items {
		if _, err = tx.ExecContext(ctx, upsert, item.Key, item.Value, now); err != nil {
			return errors.Wrapf(err, "saving %q", item.Key)
		}
	}

	if s.quota > 0 {
		var size int
		if err = tx.GetContext(ctx, &size, sizeQuery); err != nil {
			return errors.Wrap(err, "computing storage size")
		}
		if size > s.quota {
			err = certificate.ErrQuotaExceeded
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "committing transaction")
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	q, args, err := sqlx.In(removeQuery, keys)
	if err != nil {
		return errors.Wrap(err, "building remove query")
	}
	if _, err = s.db.ExecContext(ctx, s.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "removing items")
	}
	return nil
}

func (s *Store) Keys(ctx context.Context) ([]string, error) {
	keys := make([]string, 0)
	if err := s.db.SelectContext(ctx, &keys, keysQuery); err != nil {
		return nil, errors.Wrap(err, "querying keys")
	}
	return keys, nil
}

// Size returns the number of characters currently stored.
func (s *Store) Size(ctx context.Context) (int, error) {
	var size int
	if err := s.db.GetContext(ctx, &size, sizeQuery); err != nil {
		return 0, errors.Wrap(err, "computing storage size")
	}
	return size, nil
}
