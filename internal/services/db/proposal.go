package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/commonsfund/treasury/pkg/treasury"
)

// ProposalDB is part of the durable-large tier: proposals persist
// indefinitely, terminal states included, so the audit trail is never lost.
type ProposalDB struct {
	suffix string
	db     *sql.DB
	rdb    *sql.DB
}

// NewProposalDB creates a new DB
func NewProposalDB(db, rdb *sql.DB, suffix string) *ProposalDB {
	return &ProposalDB{
		suffix: suffix,
		db:     db,
		rdb:    rdb,
	}
}

// CreateProposalTable creates the table to store proposals
func (db *ProposalDB) CreateProposalTable() error {
	_, err := db.db.Exec(fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS t_proposals_%s(
		id integer PRIMARY KEY AUTOINCREMENT,
		proposer text NOT NULL,
		recipient text NOT NULL,
		asset text NOT NULL,
		amount text NOT NULL,
		memo text NOT NULL DEFAULT '',
		approvals jsonb NOT NULL,
		state text NOT NULL,
		created_at timestamp NOT NULL,
		unlock_at timestamp NOT NULL DEFAULT '',
		executed_at timestamp NOT NULL DEFAULT '',
		tx_ref text NOT NULL DEFAULT ''
	);
	`, db.suffix))

	return err
}

// CreateProposalTableIndexes creates the indexes for proposals
func (db *ProposalDB) CreateProposalTableIndexes() error {
	_, err := db.db.Exec(fmt.Sprintf(`
	CREATE INDEX IF NOT EXISTS idx_proposals_%s_state ON t_proposals_%s (state);
	`, db.suffix, db.suffix))
	if err != nil {
		return err
	}

	_, err = db.db.Exec(fmt.Sprintf(`
	CREATE INDEX IF NOT EXISTS idx_proposals_%s_proposer ON t_proposals_%s (proposer);
	`, db.suffix, db.suffix))

	return err
}

// AddProposal inserts a proposal and returns its assigned id
func (db *ProposalDB) AddProposal(p *treasury.Proposal) (int64, error) {
	res, err := db.db.Exec(fmt.Sprintf(`
	INSERT INTO t_proposals_%s (proposer, recipient, asset, amount, memo, approvals, state, created_at, unlock_at, executed_at, tx_ref)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, db.suffix), p.Proposer, p.Recipient, p.Asset, bigToString(p.Amount), p.Memo, p.Approvals, string(p.State), sqlTime(p.CreatedAt), sqlOptTime(p.UnlockAt), sqlOptTime(p.ExecutedAt), p.TxRef)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

// Proposal returns a proposal by id
func (db *ProposalDB) Proposal(id int64) (*treasury.Proposal, error) {
	row := db.rdb.QueryRow(fmt.Sprintf(`
	SELECT id, proposer, recipient, asset, amount, memo, approvals, state, created_at, unlock_at, executed_at, tx_ref
	FROM t_proposals_%s
	WHERE id = $1
	`, db.suffix), id)

	p, err := scanProposal(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("proposal %d: %w", id, treasury.ErrNotFound)
		}

		return nil, err
	}

	return p, nil
}

// UpdateProposal persists the mutable fields of a proposal
func (db *ProposalDB) UpdateProposal(p *treasury.Proposal) error {
	_, err := db.db.Exec(fmt.Sprintf(`
	UPDATE t_proposals_%s
	SET approvals = $1, state = $2, unlock_at = $3, executed_at = $4, tx_ref = $5
	WHERE id = $6
	`, db.suffix), p.Approvals, string(p.State), sqlOptTime(p.UnlockAt), sqlOptTime(p.ExecutedAt), p.TxRef, p.ID)

	return err
}

// SettleProposal stores the terminal proposal update and its ledger transfer
// in one transaction, so a release is either fully recorded or not at all
func (db *ProposalDB) SettleProposal(p *treasury.Proposal, t *treasury.Transfer) error {
	tx, err := db.db.Begin()
	if err != nil {
		return err
	}

	if err := insertTransfer(tx, db.suffix, t); err != nil {
		tx.Rollback()
		return err
	}

	_, err = tx.Exec(fmt.Sprintf(`
	UPDATE t_proposals_%s
	SET approvals = $1, state = $2, unlock_at = $3, executed_at = $4, tx_ref = $5
	WHERE id = $6
	`, db.suffix), p.Approvals, string(p.State), sqlOptTime(p.UnlockAt), sqlOptTime(p.ExecutedAt), p.TxRef, p.ID)
	if err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// Proposals returns a page of proposals, newest first
func (db *ProposalDB) Proposals(limit, offset int) ([]*treasury.Proposal, error) {
	rows, err := db.rdb.Query(fmt.Sprintf(`
	SELECT id, proposer, recipient, asset, amount, memo, approvals, state, created_at, unlock_at, executed_at, tx_ref
	FROM t_proposals_%s
	ORDER BY id DESC
	LIMIT $1 OFFSET $2
	`, db.suffix), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	proposals := []*treasury.Proposal{}
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, err
		}

		proposals = append(proposals, p)
	}

	return proposals, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProposal(row rowScanner) (*treasury.Proposal, error) {
	var p treasury.Proposal
	var amount, state string
	var createdAt, unlockAt, executedAt treasury.SQLiteTime

	err := row.Scan(&p.ID, &p.Proposer, &p.Recipient, &p.Asset, &amount, &p.Memo, &p.Approvals, &state, &createdAt, &unlockAt, &executedAt, &p.TxRef)
	if err != nil {
		return nil, err
	}

	p.Amount = stringToBig(amount)
	p.State = treasury.ProposalState(state)
	p.CreatedAt = createdAt.Time()
	p.UnlockAt = unlockAt.Time()
	p.ExecutedAt = executedAt.Time()

	return &p, nil
}
