package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/warrantd/warrant/internal/model"
)

const lastUpdatedKey = "last_updated"

// SQLiteStore persists activation records in a SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) the activation database under dataDir.
// Pass empty string for in-memory.
func NewSQLiteStore(dataDir string) (*SQLiteStore, error) {
	var dsn string
	if dataDir == "" {
		dsn = ":memory:?_journal_mode=WAL"
	} else {
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		dsn = filepath.Join(dataDir, "warrant.db") + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open activation database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate activation database: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// activationRow maps 1:1 to the activations table. The nested Token struct
// and the device-info map don't scan directly, so the token is flattened
// into columns and the device info stored as JSON.
type activationRow struct {
	WorkerID        string       `db:"worker_id"`
	DeviceInfoJSON  string       `db:"device_info_json"`
	ActivateTime    time.Time    `db:"activate_time"`
	LastVerifyTime  time.Time    `db:"last_verify_time"`
	ExpiredTime     sql.NullTime `db:"expired_time"`
	TokenIssueTime  int64        `db:"token_issue_time"`
	TokenExpireTime int64        `db:"token_expire_time"`
	TokenID         string       `db:"token_id"`
	TokenSignature  string       `db:"token_signature"`
	Status          string       `db:"status"`
	ActivateCount   int          `db:"activate_count"`
}

func rowFromRecord(rec *model.ActivationRecord) (activationRow, error) {
	info := rec.DeviceInfo
	if info == nil {
		info = map[string]string{}
	}
	infoJSON, err := json.Marshal(info)
	if err != nil {
		return activationRow{}, fmt.Errorf("marshal device info: %w", err)
	}

	row := activationRow{
		WorkerID:        rec.WorkerID,
		DeviceInfoJSON:  string(infoJSON),
		ActivateTime:    rec.ActivateTime,
		LastVerifyTime:  rec.LastVerifyTime,
		TokenIssueTime:  rec.Token.IssueTime,
		TokenExpireTime: rec.Token.ExpireTime,
		TokenID:         rec.Token.TokenID,
		TokenSignature:  rec.Token.Signature,
		Status:          rec.Status,
		ActivateCount:   rec.ActivateCount,
	}
	if rec.ExpiredTime != nil {
		row.ExpiredTime = sql.NullTime{Time: *rec.ExpiredTime, Valid: true}
	}
	return row, nil
}

func (r activationRow) toRecord() (model.ActivationRecord, error) {
	var info map[string]string
	if r.DeviceInfoJSON != "" && r.DeviceInfoJSON != "{}" {
		if err := json.Unmarshal([]byte(r.DeviceInfoJSON), &info); err != nil {
			return model.ActivationRecord{}, fmt.Errorf("unmarshal device info: %w", err)
		}
	}
	if info == nil {
		info = map[string]string{}
	}

	rec := model.ActivationRecord{
		WorkerID:       r.WorkerID,
		DeviceInfo:     info,
		ActivateTime:   r.ActivateTime,
		LastVerifyTime: r.LastVerifyTime,
		Token: model.Token{
			WorkerID:   r.WorkerID,
			IssueTime:  r.TokenIssueTime,
			ExpireTime: r.TokenExpireTime,
			TokenID:    r.TokenID,
			Signature:  r.TokenSignature,
		},
		Status:        r.Status,
		ActivateCount: r.ActivateCount,
	}
	if r.ExpiredTime.Valid {
		t := r.ExpiredTime.Time
		rec.ExpiredTime = &t
	}
	return rec, nil
}

// Get returns the activation record for a worker.
func (s *SQLiteStore) Get(ctx context.Context, workerID string) (*model.ActivationRecord, error) {
	var row activationRow
	if err := s.db.GetContext(ctx, &row, "SELECT * FROM activations WHERE worker_id = ?", workerID); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get activation: %w", err)
	}
	rec, err := row.toRecord()
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Upsert writes the record and bumps last_updated in one transaction.
func (s *SQLiteStore) Upsert(ctx context.Context, rec *model.ActivationRecord) error {
	row, err := rowFromRecord(rec)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const q = `INSERT INTO activations
		(worker_id, device_info_json, activate_time, last_verify_time, expired_time,
		 token_issue_time, token_expire_time, token_id, token_signature, status, activate_count)
		VALUES
		(:worker_id, :device_info_json, :activate_time, :last_verify_time, :expired_time,
		 :token_issue_time, :token_expire_time, :token_id, :token_signature, :status, :activate_count)
		ON CONFLICT(worker_id) DO UPDATE SET
		 device_info_json = excluded.device_info_json,
		 activate_time = excluded.activate_time,
		 last_verify_time = excluded.last_verify_time,
		 expired_time = excluded.expired_time,
		 token_issue_time = excluded.token_issue_time,
		 token_expire_time = excluded.token_expire_time,
		 token_id = excluded.token_id,
		 token_signature = excluded.token_signature,
		 status = excluded.status,
		 activate_count = excluded.activate_count`

	if _, err := tx.NamedExecContext(ctx, q, row); err != nil {
		return fmt.Errorf("upsert activation: %w", err)
	}
	if err := touchLastUpdated(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

// UpdateLastVerify touches a record's last-verify timestamp.
func (s *SQLiteStore) UpdateLastVerify(ctx context.Context, workerID string, t time.Time) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	result, err := tx.ExecContext(ctx,
		"UPDATE activations SET last_verify_time = ? WHERE worker_id = ?", t, workerID)
	if err != nil {
		return fmt.Errorf("update last verify: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update last verify rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	if err := touchLastUpdated(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

// MarkExpired transitions stale active records in a single statement.
func (s *SQLiteStore) MarkExpired(ctx context.Context, cutoff time.Time, stamp time.Time) (int, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	result, err := tx.ExecContext(ctx,
		`UPDATE activations SET status = ?, expired_time = ?
		 WHERE status = ? AND token_expire_time < ?`,
		model.ActivationStatusExpired, stamp, model.ActivationStatusActive, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("mark expired: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark expired rows affected: %w", err)
	}
	if err := touchLastUpdated(ctx, tx); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return int(n), nil
}

// List returns every activation record ordered by worker ID.
func (s *SQLiteStore) List(ctx context.Context) ([]model.ActivationRecord, error) {
	var rows []activationRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT * FROM activations ORDER BY worker_id"); err != nil {
		return nil, fmt.Errorf("list activations: %w", err)
	}

	records := make([]model.ActivationRecord, 0, len(rows))
	for _, r := range rows {
		rec, err := r.toRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// ActiveCount returns the number of records with status active.
func (s *SQLiteStore) ActiveCount(ctx context.Context) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM activations WHERE status = ?", model.ActivationStatusActive); err != nil {
		return 0, fmt.Errorf("count active activations: %w", err)
	}
	return count, nil
}

// LastUpdated returns the time of the most recent mutation.
func (s *SQLiteStore) LastUpdated(ctx context.Context) (time.Time, error) {
	var val string
	err := s.db.GetContext(ctx, &val, "SELECT value FROM settings WHERE key = ?", lastUpdatedKey)
	if err != nil {
		if err == sql.ErrNoRows {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("get last updated: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, val)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse last updated: %w", err)
	}
	return t, nil
}

func touchLastUpdated(ctx context.Context, tx *sqlx.Tx) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := tx.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, lastUpdatedKey, now)
	if err != nil {
		return fmt.Errorf("touch last updated: %w", err)
	}
	return nil
}
