// Package postgres is implementation of storage interface.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/monadsocial/agora/internal/storage"
)

var log = logrus.WithField("layer", "storage").WithField("package", "postgres")

type pg struct {
	ext sqlx.ExtContext
	db  *sql.DB
}

type snapshotDTO struct {
	Collection string    `db:"collection"`
	Data       []byte    `db:"data"`
	SavedAt    time.Time `db:"saved_at"`
}

// New creates new instance of pg.
func New(db *sql.DB) storage.Storage {
	return pg{
		ext: sqlx.NewDb(db, "postgres"),
		db:  db,
	}
}

func (s pg) Save(ctx context.Context, c storage.Collection, data []byte) error {
	if _, err := sqlx.NamedExecContext(ctx, s.ext,
		`
			INSERT INTO snapshot(collection, data, saved_at)
			VALUES(:collection, :data, :saved_at)
			ON CONFLICT(collection) DO UPDATE SET
			data=excluded.data, saved_at=excluded.saved_at
		`, map[string]interface{}{
			"collection": string(c),
			"data":       data,
			"saved_at":   time.Now().UTC(),
		},
	); err != nil {
		return fmt.Errorf("failed to exec: %w", err)
	}

	log.WithField("collection", c).WithField("size", len(data)).Debug("snapshot saved")

	return nil
}

func (s pg) Load(ctx context.Context, c storage.Collection) ([]byte, error) {
	var p snapshotDTO

	if err := sqlx.GetContext(ctx, s.ext, &p, `
			SELECT collection, data, saved_at
			FROM snapshot
			WHERE collection = $1
		`,
		string(c),
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}

		return nil, fmt.Errorf("failed to query: %w", err)
	}

	return p.Data, nil
}

func (s pg) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	return nil
}
