package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/commonsfund/treasury/internal/common"
	"github.com/commonsfund/treasury/pkg/treasury"
)

// SettingsDB is the durable-small tier: the config row and the signer role
// map, read on nearly every invocation.
type SettingsDB struct {
	suffix string
	db     *sql.DB
	rdb    *sql.DB
}

// NewSettingsDB creates a new DB
func NewSettingsDB(db, rdb *sql.DB, suffix string) *SettingsDB {
	return &SettingsDB{
		suffix: suffix,
		db:     db,
		rdb:    rdb,
	}
}

// CreateSignerTable creates the table to store the signer role map
func (db *SettingsDB) CreateSignerTable() error {
	_, err := db.db.Exec(fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS t_signers_%s(
		address text NOT NULL PRIMARY KEY,
		role text NOT NULL,
		created_at timestamp NOT NULL,
		updated_at timestamp NOT NULL
	);
	`, db.suffix))

	return err
}

// CreateConfigTable creates the single-row table holding the treasury policy
func (db *SettingsDB) CreateConfigTable() error {
	_, err := db.db.Exec(fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS t_config_%s(
		id integer NOT NULL PRIMARY KEY CHECK (id = 1),
		threshold integer NOT NULL,
		timelock_threshold text NOT NULL DEFAULT '',
		timelock_delay integer NOT NULL DEFAULT 0,
		daily_limit text NOT NULL DEFAULT '',
		weekly_limit text NOT NULL DEFAULT '',
		updated_at timestamp NOT NULL
	);
	`, db.suffix))

	return err
}

// Config returns the policy row, or nil when the treasury was never initialized
func (db *SettingsDB) Config() (*treasury.Config, error) {
	var cfg treasury.Config
	var timelockThreshold, dailyLimit, weeklyLimit string

	err := db.rdb.QueryRow(fmt.Sprintf(`
	SELECT threshold, timelock_threshold, timelock_delay, daily_limit, weekly_limit
	FROM t_config_%s
	WHERE id = 1
	`, db.suffix)).Scan(&cfg.Threshold, &timelockThreshold, &cfg.TimelockDelay, &dailyLimit, &weeklyLimit)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	cfg.TimelockThreshold = stringToBig(timelockThreshold)
	cfg.DailyLimit = stringToBig(dailyLimit)
	cfg.WeeklyLimit = stringToBig(weeklyLimit)

	return &cfg, nil
}

// SetConfig inserts or replaces the policy row
func (db *SettingsDB) SetConfig(cfg *treasury.Config) error {
	_, err := db.db.Exec(fmt.Sprintf(`
	INSERT INTO t_config_%s (id, threshold, timelock_threshold, timelock_delay, daily_limit, weekly_limit, updated_at)
	VALUES (1, $1, $2, $3, $4, $5, $6)
	ON CONFLICT(id) DO UPDATE SET
		threshold = excluded.threshold,
		timelock_threshold = excluded.timelock_threshold,
		timelock_delay = excluded.timelock_delay,
		daily_limit = excluded.daily_limit,
		weekly_limit = excluded.weekly_limit,
		updated_at = excluded.updated_at
	`, db.suffix), cfg.Threshold, bigToString(cfg.TimelockThreshold), cfg.TimelockDelay, bigToString(cfg.DailyLimit), bigToString(cfg.WeeklyLimit), treasury.SQLiteTime(time.Now().UTC()))

	return err
}

// Role returns the role of an address, RoleNone when the address is not a signer
func (db *SettingsDB) Role(addr string) (treasury.Role, error) {
	var role string

	err := db.rdb.QueryRow(fmt.Sprintf(`
	SELECT role
	FROM t_signers_%s
	WHERE address = $1
	`, db.suffix), common.ChecksumAddress(addr)).Scan(&role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return treasury.RoleNone, nil
		}

		return treasury.RoleNone, err
	}

	return treasury.Role(role), nil
}

// SetRole inserts or updates the role of an address
func (db *SettingsDB) SetRole(addr string, role treasury.Role) error {
	now := treasury.SQLiteTime(time.Now().UTC())

	_, err := db.db.Exec(fmt.Sprintf(`
	INSERT INTO t_signers_%s (address, role, created_at, updated_at)
	VALUES ($1, $2, $3, $3)
	ON CONFLICT(address) DO UPDATE SET
		role = excluded.role,
		updated_at = excluded.updated_at
	`, db.suffix), common.ChecksumAddress(addr), string(role), now)

	return err
}

// RemoveRole deletes an address from the signer set
func (db *SettingsDB) RemoveRole(addr string) error {
	_, err := db.db.Exec(fmt.Sprintf(`
	DELETE FROM t_signers_%s WHERE address = $1
	`, db.suffix), common.ChecksumAddress(addr))

	return err
}

// CountRole counts the signers holding the given role
func (db *SettingsDB) CountRole(role treasury.Role) (int, error) {
	var count int

	err := db.rdb.QueryRow(fmt.Sprintf(`
	SELECT COUNT(address) FROM t_signers_%s WHERE role = $1
	`, db.suffix), string(role)).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

// CountSigners counts all signers
func (db *SettingsDB) CountSigners() (int, error) {
	var count int

	err := db.rdb.QueryRow(fmt.Sprintf(`
	SELECT COUNT(address) FROM t_signers_%s
	`, db.suffix)).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Signers returns the full signer set
func (db *SettingsDB) Signers() ([]*treasury.Signer, error) {
	rows, err := db.rdb.Query(fmt.Sprintf(`
	SELECT address, role, created_at, updated_at
	FROM t_signers_%s
	ORDER BY created_at ASC
	`, db.suffix))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	signers := []*treasury.Signer{}
	for rows.Next() {
		var s treasury.Signer
		var role string
		var createdAt, updatedAt treasury.SQLiteTime

		err = rows.Scan(&s.Address, &role, &createdAt, &updatedAt)
		if err != nil {
			return nil, err
		}

		s.Role = treasury.Role(role)
		s.CreatedAt = createdAt.Time()
		s.UpdatedAt = updatedAt.Time()

		signers = append(signers, &s)
	}

	return signers, nil
}
