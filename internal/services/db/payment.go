package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/commonsfund/treasury/pkg/treasury"
)

// PaymentDB is part of the durable-large tier: recurring payments persist
// indefinitely and execution history grows unbounded, one small row per
// release, because the audit value outweighs the storage cost.
type PaymentDB struct {
	suffix string
	db     *sql.DB
	rdb    *sql.DB
}

// NewPaymentDB creates a new DB
func NewPaymentDB(db, rdb *sql.DB, suffix string) *PaymentDB {
	return &PaymentDB{
		suffix: suffix,
		db:     db,
		rdb:    rdb,
	}
}

// CreatePaymentTables creates the tables to store recurring payments and their history
func (db *PaymentDB) CreatePaymentTables() error {
	_, err := db.db.Exec(fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS t_payments_%s(
		id integer PRIMARY KEY AUTOINCREMENT,
		creator text NOT NULL,
		recipient text NOT NULL,
		asset text NOT NULL,
		amount text NOT NULL,
		memo text NOT NULL DEFAULT '',
		interval integer NOT NULL,
		next_payment_time timestamp NOT NULL,
		total_payments integer NOT NULL DEFAULT 0,
		status text NOT NULL,
		created_at timestamp NOT NULL
	);
	`, db.suffix))
	if err != nil {
		return err
	}

	_, err = db.db.Exec(fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS t_payment_history_%s(
		id integer PRIMARY KEY AUTOINCREMENT,
		payment_id integer NOT NULL,
		executed_at timestamp NOT NULL,
		tx_ref text NOT NULL,
		amount text NOT NULL,
		success integer NOT NULL DEFAULT 1
	);
	`, db.suffix))

	return err
}

// CreatePaymentTableIndexes creates the indexes for payments and history
func (db *PaymentDB) CreatePaymentTableIndexes() error {
	_, err := db.db.Exec(fmt.Sprintf(`
	CREATE INDEX IF NOT EXISTS idx_payments_%s_status_due ON t_payments_%s (status, next_payment_time);
	`, db.suffix, db.suffix))
	if err != nil {
		return err
	}

	_, err = db.db.Exec(fmt.Sprintf(`
	CREATE INDEX IF NOT EXISTS idx_payment_history_%s_payment ON t_payment_history_%s (payment_id);
	`, db.suffix, db.suffix))

	return err
}

// AddPayment inserts a recurring payment and returns its assigned id
func (db *PaymentDB) AddPayment(p *treasury.RecurringPayment) (int64, error) {
	res, err := db.db.Exec(fmt.Sprintf(`
	INSERT INTO t_payments_%s (creator, recipient, asset, amount, memo, interval, next_payment_time, total_payments, status, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, db.suffix), p.Creator, p.Recipient, p.Asset, bigToString(p.Amount), p.Memo, p.Interval, sqlTime(p.NextPaymentTime), p.TotalPayments, string(p.Status), sqlTime(p.CreatedAt))
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

// Payment returns a recurring payment by id
func (db *PaymentDB) Payment(id int64) (*treasury.RecurringPayment, error) {
	row := db.rdb.QueryRow(fmt.Sprintf(`
	SELECT id, creator, recipient, asset, amount, memo, interval, next_payment_time, total_payments, status, created_at
	FROM t_payments_%s
	WHERE id = $1
	`, db.suffix), id)

	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("payment %d: %w", id, treasury.ErrNotFound)
		}

		return nil, err
	}

	return p, nil
}

// UpdatePayment persists the mutable fields of a recurring payment
func (db *PaymentDB) UpdatePayment(p *treasury.RecurringPayment) error {
	_, err := db.db.Exec(fmt.Sprintf(`
	UPDATE t_payments_%s
	SET next_payment_time = $1, total_payments = $2, status = $3
	WHERE id = $4
	`, db.suffix), sqlTime(p.NextPaymentTime), p.TotalPayments, string(p.Status), p.ID)

	return err
}

// SettlePayment stores the advanced schedule, the execution record and the
// ledger transfer in one transaction
func (db *PaymentDB) SettlePayment(p *treasury.RecurringPayment, e *treasury.PaymentHistoryEntry, t *treasury.Transfer) error {
	tx, err := db.db.Begin()
	if err != nil {
		return err
	}

	if err := insertTransfer(tx, db.suffix, t); err != nil {
		tx.Rollback()
		return err
	}

	_, err = tx.Exec(fmt.Sprintf(`
	UPDATE t_payments_%s
	SET next_payment_time = $1, total_payments = $2, status = $3
	WHERE id = $4
	`, db.suffix), sqlTime(p.NextPaymentTime), p.TotalPayments, string(p.Status), p.ID)
	if err != nil {
		tx.Rollback()
		return err
	}

	res, err := tx.Exec(fmt.Sprintf(`
	INSERT INTO t_payment_history_%s (payment_id, executed_at, tx_ref, amount, success)
	VALUES ($1, $2, $3, $4, $5)
	`, db.suffix), e.PaymentID, sqlTime(e.ExecutedAt), e.TxRef, bigToString(e.Amount), e.Success)
	if err != nil {
		tx.Rollback()
		return err
	}

	if e.ID, err = res.LastInsertId(); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// Payments returns a page of recurring payments, newest first
func (db *PaymentDB) Payments(limit, offset int) ([]*treasury.RecurringPayment, error) {
	rows, err := db.rdb.Query(fmt.Sprintf(`
	SELECT id, creator, recipient, asset, amount, memo, interval, next_payment_time, total_payments, status, created_at
	FROM t_payments_%s
	ORDER BY id DESC
	LIMIT $1 OFFSET $2
	`, db.suffix), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := []*treasury.RecurringPayment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}

		payments = append(payments, p)
	}

	return payments, nil
}

// DuePayments returns the ids of active payments whose due time has passed
func (db *PaymentDB) DuePayments(now time.Time) ([]int64, error) {
	rows, err := db.rdb.Query(fmt.Sprintf(`
	SELECT id
	FROM t_payments_%s
	WHERE status = $1 AND next_payment_time <= $2
	ORDER BY next_payment_time ASC
	`, db.suffix), string(treasury.PaymentStatusActive), sqlTime(now))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}

		ids = append(ids, id)
	}

	return ids, nil
}

// AddHistoryEntry appends one execution record for a payment
func (db *PaymentDB) AddHistoryEntry(e *treasury.PaymentHistoryEntry) error {
	res, err := db.db.Exec(fmt.Sprintf(`
	INSERT INTO t_payment_history_%s (payment_id, executed_at, tx_ref, amount, success)
	VALUES ($1, $2, $3, $4, $5)
	`, db.suffix), e.PaymentID, sqlTime(e.ExecutedAt), e.TxRef, bigToString(e.Amount), e.Success)
	if err != nil {
		return err
	}

	e.ID, err = res.LastInsertId()

	return err
}

// PaymentHistory returns a page of execution records for a payment, newest first
func (db *PaymentDB) PaymentHistory(paymentID int64, limit, offset int) ([]*treasury.PaymentHistoryEntry, error) {
	rows, err := db.rdb.Query(fmt.Sprintf(`
	SELECT id, payment_id, executed_at, tx_ref, amount, success
	FROM t_payment_history_%s
	WHERE payment_id = $1
	ORDER BY id DESC
	LIMIT $2 OFFSET $3
	`, db.suffix), paymentID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []*treasury.PaymentHistoryEntry{}
	for rows.Next() {
		var e treasury.PaymentHistoryEntry
		var amount string
		var executedAt treasury.SQLiteTime

		err = rows.Scan(&e.ID, &e.PaymentID, &executedAt, &e.TxRef, &amount, &e.Success)
		if err != nil {
			return nil, err
		}

		e.Amount = stringToBig(amount)
		e.ExecutedAt = executedAt.Time()

		entries = append(entries, &e)
	}

	return entries, nil
}

func scanPayment(row rowScanner) (*treasury.RecurringPayment, error) {
	var p treasury.RecurringPayment
	var amount, status string
	var nextPaymentTime, createdAt treasury.SQLiteTime

	err := row.Scan(&p.ID, &p.Creator, &p.Recipient, &p.Asset, &amount, &p.Memo, &p.Interval, &nextPaymentTime, &p.TotalPayments, &status, &createdAt)
	if err != nil {
		return nil, err
	}

	p.Amount = stringToBig(amount)
	p.Status = treasury.PaymentStatus(status)
	p.NextPaymentTime = nextPaymentTime.Time()
	p.CreatedAt = createdAt.Time()

	return &p, nil
}
