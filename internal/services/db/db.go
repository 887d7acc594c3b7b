package db

import (
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/commonsfund/treasury/internal/storage"
	_ "github.com/mattn/go-sqlite3"
)

const (
	dbConfigString = "cache=private&_journal=WAL&mode=rwc&_txlock=immediate&_busy_timeout=10000"
)

var suffixRe = regexp.MustCompile(`[^a-z0-9_]`)

// DB owns the durable storage tiers of one treasury instance: the signer set
// and config (durable-small), proposals, payments and history (durable-large),
// the event log and the internal transfer ledger.
type DB struct {
	suffix string
	mu     sync.Mutex
	db     *sql.DB
	rdb    *sql.DB

	SettingsDB *SettingsDB
	ProposalDB *ProposalDB
	PaymentDB  *PaymentDB
	EventDB    *EventDB
	TransferDB *TransferDB
}

// NewDB instantiates a new DB for the named treasury instance
func NewDB(name, basePath string) (*DB, error) {
	// check if directory exists
	if !storage.Exists(basePath) {
		err := storage.CreateDir(basePath)
		if err != nil {
			return nil, err
		}
	}

	suffix := TableNameSuffix(name)

	path := fmt.Sprintf("%s/treasury_%s.db", basePath, suffix)

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", path, dbConfigString))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.Ping()
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(1)

	d := &DB{
		suffix:     suffix,
		db:         db,
		rdb:        db,
		SettingsDB: NewSettingsDB(db, db, suffix),
		ProposalDB: NewProposalDB(db, db, suffix),
		PaymentDB:  NewPaymentDB(db, db, suffix),
		EventDB:    NewEventDB(db, db, suffix),
		TransferDB: NewTransferDB(db, db, suffix),
	}

	if err := d.SettingsDB.CreateSignerTable(); err != nil {
		return nil, err
	}

	if err := d.SettingsDB.CreateConfigTable(); err != nil {
		return nil, err
	}

	if err := d.ProposalDB.CreateProposalTable(); err != nil {
		return nil, err
	}

	if err := d.ProposalDB.CreateProposalTableIndexes(); err != nil {
		return nil, err
	}

	if err := d.PaymentDB.CreatePaymentTables(); err != nil {
		return nil, err
	}

	if err := d.PaymentDB.CreatePaymentTableIndexes(); err != nil {
		return nil, err
	}

	if err := d.EventDB.CreateEventTable(); err != nil {
		return nil, err
	}

	if err := d.EventDB.CreateEventTableIndexes(); err != nil {
		return nil, err
	}

	if err := d.TransferDB.CreateTransferTable(); err != nil {
		return nil, err
	}

	if err := d.TransferDB.CreateTransferTableIndexes(); err != nil {
		return nil, err
	}

	return d, nil
}

// TableNameSuffix normalizes an instance name into a sql-safe table suffix
func TableNameSuffix(name string) string {
	return suffixRe.ReplaceAllString(strings.ToLower(name), "_")
}

// Close closes the db
func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.db.Close()
}
