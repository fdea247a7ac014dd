package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kode4food/tremor"
	"github.com/kode4food/tremor/store"
)

// Archive keeps catalogs in PostgreSQL, one row per event
type Archive struct {
	pool *pgxpool.Pool
}

const schema = `
CREATE TABLE IF NOT EXISTS datasets (
	name         TEXT PRIMARY KEY,
	extent_start TIMESTAMPTZ NOT NULL,
	extent_end   TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS events (
	dataset   TEXT NOT NULL REFERENCES datasets(name) ON DELETE CASCADE,
	seq       INTEGER NOT NULL,
	id        BIGINT NOT NULL,
	ts        TIMESTAMPTZ NOT NULL,
	location  TEXT NOT NULL,
	intensity TEXT NOT NULL,
	latitude  DOUBLE PRECISION NOT NULL,
	longitude DOUBLE PRECISION NOT NULL,
	magnitude DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (dataset, seq)
);

CREATE INDEX IF NOT EXISTS events_dataset_ts ON events (dataset, ts);
`

var eventColumns = []string{
	"dataset", "seq", "id", "ts", "location", "intensity",
	"latitude", "longitude", "magnitude",
}

// Open connects to the database and creates the schema if needed
func Open(ctx context.Context, dsn string) (*Archive, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Archive{pool: pool}, nil
}

// Close releases the pool
func (a *Archive) Close() error {
	a.pool.Close()
	return nil
}

// Pool exposes the connection pool
func (a *Archive) Pool() *pgxpool.Pool {
	return a.pool
}

// Put replaces the named dataset within a single transaction
func (a *Archive) Put(
	ctx context.Context, name string, rec *store.Record,
) error {
	if err := store.CheckName(name); err != nil {
		return err
	}

	tx, err := a.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`DELETE FROM datasets WHERE name = $1`, name,
	); err != nil {
		return fmt.Errorf("put %s: %w", name, err)
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO datasets (name, extent_start, extent_end)
		 VALUES ($1, $2, $3)`,
		name, rec.Extent.Start, rec.Extent.End,
	); err != nil {
		return fmt.Errorf("put %s: %w", name, err)
	}

	rows := make([][]any, len(rec.Events))
	for i, ev := range rec.Events {
		rows[i] = []any{
			name, i, int64(ev.ID), ev.Timestamp, ev.Location,
			string(ev.Intensity), ev.Latitude, ev.Longitude, ev.Magnitude,
		}
	}
	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"events"}, eventColumns, pgx.CopyFromRows(rows),
	); err != nil {
		return fmt.Errorf("put %s: %w", name, err)
	}
	return tx.Commit(ctx)
}

// Get loads the named dataset
func (a *Archive) Get(
	ctx context.Context, name string,
) (*store.Record, error) {
	res := &store.Record{}
	err := a.pool.QueryRow(ctx,
		`SELECT extent_start, extent_end FROM datasets WHERE name = $1`,
		name,
	).Scan(&res.Extent.Start, &res.Extent.End)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", name, err)
	}

	rows, err := a.pool.Query(ctx,
		`SELECT id, ts, location, intensity, latitude, longitude, magnitude
		 FROM events WHERE dataset = $1 ORDER BY seq`,
		name,
	)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", name, err)
	}
	defer rows.Close()

	res.Events = []tremor.Event{}
	for rows.Next() {
		var ev tremor.Event
		var id int64
		var intensity string
		if err := rows.Scan(
			&id, &ev.Timestamp, &ev.Location, &intensity,
			&ev.Latitude, &ev.Longitude, &ev.Magnitude,
		); err != nil {
			return nil, fmt.Errorf("get %s: %w", name, err)
		}
		ev.ID = tremor.EventID(id)
		ev.Intensity = tremor.Intensity(intensity)
		res.Events = append(res.Events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get %s: %w", name, err)
	}
	return res, nil
}

// Delete removes the named dataset and its events
func (a *Archive) Delete(ctx context.Context, name string) error {
	tag, err := a.pool.Exec(ctx, `DELETE FROM datasets WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", store.ErrNotFound, name)
	}
	return nil
}

// List returns the archived dataset names in sorted order
func (a *Archive) List(ctx context.Context) ([]string, error) {
	rows, err := a.pool.Query(ctx, `SELECT name FROM datasets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	return names, nil
}
