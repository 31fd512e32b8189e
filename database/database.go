package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/Nathansuares/SkySafe/apperr"
	"github.com/Nathansuares/SkySafe/config"

	"github.com/apex/log"
	"github.com/go-sql-driver/mysql"
)

// Database handles all database operations
type Database struct {
	db  *sql.DB
	now func() time.Time
}

// New wraps an already opened connection pool.
func New(db *sql.DB) *Database {
	return &Database{
		db: db,
		now: func() time.Time {
			return time.Now().UTC().Truncate(time.Second)
		},
	}
}

// NewDatabase opens the MySQL pool and waits for it to answer.
func NewDatabase(ctx context.Context, cfg *config.Config) (*Database, error) {
	db, err := sql.Open("mysql", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.DBMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
	if cfg.DBConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.DBConnMaxLifetime)
	}

	if err := waitForPing(ctx, db, cfg.DBPingMaxWait); err != nil {
		db.Close()
		return nil, err
	}

	log.WithFields(log.Fields{
		"host":          cfg.DBHost,
		"db":            cfg.DBName,
		"max_open":      cfg.DBMaxOpenConns,
		"max_idle":      cfg.DBMaxIdleConns,
		"conn_lifetime": cfg.DBConnMaxLifetime.String(),
	}).Info("Database connected")

	return New(db), nil
}

// DSN builds the driver connection string. ClientFoundRows makes UPDATE report
// matched rows, so repeating a transition within one second is not a miss.
func DSN(cfg *config.Config) string {
	c := mysql.NewConfig()
	c.User = cfg.DBUser
	c.Passwd = cfg.DBPassword
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(cfg.DBHost, cfg.DBPort)
	c.DBName = cfg.DBName
	c.ParseTime = true
	c.Loc = time.UTC
	c.ClientFoundRows = true
	c.Params = map[string]string{"time_zone": "'+00:00'"}
	return c.FormatDSN()
}

func waitForPing(ctx context.Context, db *sql.DB, maxWait time.Duration) error {
	deadline := time.Now().Add(maxWait)
	wait := time.Second
	for {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := db.PingContext(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("database ping timeout after %s: %w", maxWait, err)
		}
		log.WithError(err).Warnf("Database connection failed, retrying in %v", wait)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
		if wait > 30*time.Second {
			wait = 30 * time.Second
		}
	}
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const (
	mysqlDuplicateEntry  = 1062
	mysqlLockWaitTimeout = 1205
	mysqlDeadlock        = 1213
)

func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// isLockConflict reports whether InnoDB aborted the statement because another
// transaction held the row.
func isLockConflict(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && (me.Number == mysqlDeadlock || me.Number == mysqlLockWaitTimeout)
}

// txFailure classifies an error inside a row-mutating transaction. Losing a
// lock race is a Conflict, anything else a Storage failure.
func txFailure(msg string, err error) error {
	if isLockConflict(err) {
		return apperr.Conflict("Record was changed by another request.")
	}
	return apperr.Storage(msg, err)
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
