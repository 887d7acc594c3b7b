package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/commonsfund/treasury/pkg/treasury"
)

// EventDB is the append-only notification log. Ids are assigned by the table
// and increase monotonically; rows are never updated or deleted, so the log
// can be replayed to reconstruct history without re-querying full state.
type EventDB struct {
	suffix string
	db     *sql.DB
	rdb    *sql.DB
}

// NewEventDB creates a new DB
func NewEventDB(db, rdb *sql.DB, suffix string) *EventDB {
	return &EventDB{
		suffix: suffix,
		db:     db,
		rdb:    rdb,
	}
}

// CreateEventTable creates the table to store events
func (db *EventDB) CreateEventTable() error {
	_, err := db.db.Exec(fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS t_events_%s(
		id integer PRIMARY KEY AUTOINCREMENT,
		name text NOT NULL,
		actor text NOT NULL,
		payload jsonb NOT NULL,
		created_at timestamp NOT NULL
	);
	`, db.suffix))

	return err
}

// CreateEventTableIndexes creates the indexes for events
func (db *EventDB) CreateEventTableIndexes() error {
	_, err := db.db.Exec(fmt.Sprintf(`
	CREATE INDEX IF NOT EXISTS idx_events_%s_name ON t_events_%s (name);
	`, db.suffix, db.suffix))

	return err
}

// Emit appends an event and assigns its monotonic id
func (db *EventDB) Emit(ev *treasury.Event) error {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}

	res, err := db.db.Exec(fmt.Sprintf(`
	INSERT INTO t_events_%s (name, actor, payload, created_at)
	VALUES ($1, $2, $3, $4)
	`, db.suffix), string(ev.Name), ev.Actor, ev.Payload, sqlTime(ev.CreatedAt))
	if err != nil {
		return err
	}

	ev.ID, err = res.LastInsertId()

	return err
}

// Events returns a page of events, newest first
func (db *EventDB) Events(limit, offset int) ([]*treasury.Event, error) {
	return db.queryEvents(fmt.Sprintf(`
	SELECT id, name, actor, payload, created_at
	FROM t_events_%s
	ORDER BY id DESC
	LIMIT $1 OFFSET $2
	`, db.suffix), limit, offset)
}

// EventsSince returns up to limit events with an id greater than since, oldest
// first, for callers tailing the log
func (db *EventDB) EventsSince(since int64, limit int) ([]*treasury.Event, error) {
	return db.queryEvents(fmt.Sprintf(`
	SELECT id, name, actor, payload, created_at
	FROM t_events_%s
	WHERE id > $1
	ORDER BY id ASC
	LIMIT $2
	`, db.suffix), since, limit)
}

func (db *EventDB) queryEvents(query string, args ...any) ([]*treasury.Event, error) {
	rows, err := db.rdb.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []*treasury.Event{}
	for rows.Next() {
		var ev treasury.Event
		var name string
		var createdAt treasury.SQLiteTime

		err = rows.Scan(&ev.ID, &name, &ev.Actor, &ev.Payload, &createdAt)
		if err != nil {
			return nil, err
		}

		ev.Name = treasury.EventName(name)
		ev.CreatedAt = createdAt.Time()

		events = append(events, &ev)
	}

	return events, nil
}
