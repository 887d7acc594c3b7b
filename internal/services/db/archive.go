package db

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/commonsfund/treasury/pkg/treasury"
	"github.com/commonsfund/treasury/pkg/vault"
	_ "github.com/lib/pq"
)

// ArchiveDB mirrors the event log to an off-box postgres database. The local
// sqlite log stays authoritative; the mirror exists so the audit trail
// survives the loss of the host. Rows carry the id assigned by the primary
// log, so ordering is identical on both sides.
type ArchiveDB struct {
	suffix string
	db     *sql.DB
}

// NewArchiveDB connects to the archive database and ensures the table exists
func NewArchiveDB(username, password, name, host, instance string) (*ArchiveDB, error) {
	connStr := fmt.Sprintf("user=%s password=%s dbname=%s host=%s port=5432 sslmode=disable", username, password, name, host)
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.Ping()
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	adb := &ArchiveDB{
		suffix: TableNameSuffix(instance),
		db:     db,
	}

	if err := adb.CreateEventArchiveTable(); err != nil {
		return nil, err
	}

	return adb, nil
}

// CreateEventArchiveTable creates the archive table
func (db *ArchiveDB) CreateEventArchiveTable() error {
	_, err := db.db.Exec(fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS t_events_archive_%s(
		id bigint NOT NULL PRIMARY KEY,
		name text NOT NULL,
		actor text NOT NULL,
		payload jsonb NOT NULL,
		created_at timestamp NOT NULL
	);
	`, db.suffix))

	return err
}

// Emit mirrors one event; replays of an already archived id are a no-op
func (db *ArchiveDB) Emit(ev *treasury.Event) error {
	_, err := db.db.Exec(fmt.Sprintf(`
	INSERT INTO t_events_archive_%s (id, name, actor, payload, created_at)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (id) DO NOTHING
	`, db.suffix), ev.ID, string(ev.Name), ev.Actor, ev.Payload, sqlTime(ev.CreatedAt))

	return err
}

// Close closes the db
func (db *ArchiveDB) Close() error {
	return db.db.Close()
}

// TeeEmitter appends to the primary log and then mirrors to the archive. A
// mirror failure is logged but does not fail the invocation: the primary
// append already committed.
type TeeEmitter struct {
	primary vault.Emitter
	mirror  vault.Emitter
}

func NewTeeEmitter(primary, mirror vault.Emitter) *TeeEmitter {
	return &TeeEmitter{
		primary: primary,
		mirror:  mirror,
	}
}

func (e *TeeEmitter) Emit(ev *treasury.Event) error {
	if err := e.primary.Emit(ev); err != nil {
		return err
	}

	if err := e.mirror.Emit(ev); err != nil {
		log.Default().Println("event archive mirror failed: ", err)
	}

	return nil
}
