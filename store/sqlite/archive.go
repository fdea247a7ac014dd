package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kode4food/tremor"
	"github.com/kode4food/tremor/store"
)

// Archive keeps catalogs in a SQLite database file
type Archive struct {
	db *sql.DB
}

const schema = `
PRAGMA busy_timeout = 5000;

CREATE TABLE IF NOT EXISTS datasets (
	name         TEXT PRIMARY KEY,
	extent_start TEXT NOT NULL,
	extent_end   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS events (
	dataset   TEXT NOT NULL,
	seq       INTEGER NOT NULL,
	id        INTEGER NOT NULL,
	ts        INTEGER NOT NULL,
	location  TEXT NOT NULL,
	intensity TEXT NOT NULL,
	latitude  REAL NOT NULL,
	longitude REAL NOT NULL,
	magnitude REAL NOT NULL,
	PRIMARY KEY (dataset, seq)
);

CREATE INDEX IF NOT EXISTS events_dataset_ts ON events (dataset, ts);
`

// Open opens or creates the database at path
func Open(ctx context.Context, path string) (*Archive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Archive{db: db}, nil
}

// Close closes the database
func (a *Archive) Close() error {
	return a.db.Close()
}

// Put replaces the named dataset within a single transaction
func (a *Archive) Put(
	ctx context.Context, name string, rec *store.Record,
) error {
	if err := store.CheckName(name); err != nil {
		return err
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := a.remove(ctx, tx, name); err != nil {
		return fmt.Errorf("put %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO datasets (name, extent_start, extent_end)
		 VALUES (?, ?, ?)`,
		name,
		rec.Extent.Start.Format(time.RFC3339Nano),
		rec.Extent.End.Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("put %s: %w", name, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO events (dataset, seq, id, ts, location, intensity,
		                     latitude, longitude, magnitude)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("put %s: %w", name, err)
	}
	defer func() { _ = stmt.Close() }()

	for i, ev := range rec.Events {
		if _, err := stmt.ExecContext(ctx,
			name, i, int64(ev.ID), ev.Timestamp.UnixNano(), ev.Location,
			string(ev.Intensity), ev.Latitude, ev.Longitude, ev.Magnitude,
		); err != nil {
			return fmt.Errorf("put %s: %w", name, err)
		}
	}
	return tx.Commit()
}

// Get loads the named dataset
func (a *Archive) Get(
	ctx context.Context, name string,
) (*store.Record, error) {
	var start, end string
	err := a.db.QueryRowContext(ctx,
		`SELECT extent_start, extent_end FROM datasets WHERE name = ?`, name,
	).Scan(&start, &end)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", name, err)
	}

	res := &store.Record{Events: []tremor.Event{}}
	if res.Extent, err = parseExtent(start, end); err != nil {
		return nil, fmt.Errorf("get %s: %w", name, err)
	}

	rows, err := a.db.QueryContext(ctx,
		`SELECT id, ts, location, intensity, latitude, longitude, magnitude
		 FROM events WHERE dataset = ? ORDER BY seq`,
		name,
	)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", name, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var ev tremor.Event
		var id, ts int64
		var intensity string
		if err := rows.Scan(
			&id, &ts, &ev.Location, &intensity,
			&ev.Latitude, &ev.Longitude, &ev.Magnitude,
		); err != nil {
			return nil, fmt.Errorf("get %s: %w", name, err)
		}
		ev.ID = tremor.EventID(id)
		ev.Timestamp = time.Unix(0, ts).In(res.Extent.Start.Location())
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
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM datasets WHERE name = ?`, name,
	)
	if err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	} else if n == 0 {
		return fmt.Errorf("%w: %s", store.ErrNotFound, name)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM events WHERE dataset = ?`, name,
	); err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	return tx.Commit()
}

// List returns the archived dataset names in sorted order
func (a *Archive) List(ctx context.Context) ([]string, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT name FROM datasets ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	defer func() { _ = rows.Close() }()

	res := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("list: %w", err)
		}
		res = append(res, name)
	}
	return res, rows.Err()
}

func (a *Archive) remove(ctx context.Context, tx *sql.Tx, name string) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM events WHERE dataset = ?`, name,
	); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `DELETE FROM datasets WHERE name = ?`, name)
	return err
}

func parseExtent(start, end string) (tremor.Extent, error) {
	s, err := time.Parse(time.RFC3339Nano, start)
	if err != nil {
		return tremor.Extent{}, err
	}
	e, err := time.Parse(time.RFC3339Nano, end)
	if err != nil {
		return tremor.Extent{}, err
	}
	return tremor.NewExtent(s, e), nil
}
