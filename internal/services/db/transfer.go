package db

import (
	"database/sql"
	"fmt"

	"github.com/commonsfund/treasury/pkg/treasury"
)

// TransferDB is the internal outgoing-transfer ledger. Rows are inserted by
// the proposal and payment settle paths inside the same transaction as the
// release they record, so every transfer row maps to exactly one executed
// proposal or recurring installment.
type TransferDB struct {
	suffix string
	db     *sql.DB
	rdb    *sql.DB
}

// NewTransferDB creates a new DB
func NewTransferDB(db, rdb *sql.DB, suffix string) *TransferDB {
	return &TransferDB{
		suffix: suffix,
		db:     db,
		rdb:    rdb,
	}
}

// CreateTransferTable creates the table to store transfers
func (db *TransferDB) CreateTransferTable() error {
	_, err := db.db.Exec(fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS t_transfers_%s(
		ref text NOT NULL PRIMARY KEY,
		origin text NOT NULL,
		origin_id integer NOT NULL,
		asset text NOT NULL,
		to_addr text NOT NULL,
		amount text NOT NULL,
		memo text NOT NULL DEFAULT '',
		created_at timestamp NOT NULL
	);
	`, db.suffix))

	return err
}

// CreateTransferTableIndexes creates the indexes for transfers
func (db *TransferDB) CreateTransferTableIndexes() error {
	_, err := db.db.Exec(fmt.Sprintf(`
	CREATE INDEX IF NOT EXISTS idx_transfers_%s_to_addr ON t_transfers_%s (to_addr);
	`, db.suffix, db.suffix))
	if err != nil {
		return err
	}

	_, err = db.db.Exec(fmt.Sprintf(`
	CREATE INDEX IF NOT EXISTS idx_transfers_%s_origin ON t_transfers_%s (origin, origin_id);
	`, db.suffix, db.suffix))

	return err
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// insertTransfer records one release; the settle paths pass their transaction
// so the transfer row commits together with the state it belongs to
func insertTransfer(x execer, suffix string, t *treasury.Transfer) error {
	_, err := x.Exec(fmt.Sprintf(`
	INSERT INTO t_transfers_%s (ref, origin, origin_id, asset, to_addr, amount, memo, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, suffix), t.Ref, string(t.Origin), t.OriginID, t.Asset, t.To, bigToString(t.Amount), t.Memo, sqlTime(t.CreatedAt))

	return err
}

// Transfers returns a page of recorded transfers, newest first
func (db *TransferDB) Transfers(limit, offset int) ([]*treasury.Transfer, error) {
	rows, err := db.rdb.Query(fmt.Sprintf(`
	SELECT ref, origin, origin_id, asset, to_addr, amount, memo, created_at
	FROM t_transfers_%s
	ORDER BY created_at DESC
	LIMIT $1 OFFSET $2
	`, db.suffix), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transfers := []*treasury.Transfer{}
	for rows.Next() {
		var t treasury.Transfer
		var origin, amount string
		var createdAt treasury.SQLiteTime

		err = rows.Scan(&t.Ref, &origin, &t.OriginID, &t.Asset, &t.To, &amount, &t.Memo, &createdAt)
		if err != nil {
			return nil, err
		}

		t.Origin = treasury.TransferOrigin(origin)
		t.Amount = stringToBig(amount)
		t.CreatedAt = createdAt.Time()

		transfers = append(transfers, &t)
	}

	return transfers, nil
}
