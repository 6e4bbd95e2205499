package database

import (
	"context"
	"database/sql"

	_ "github.com/go-sql-driver/mysql"

	"github.com/iliyamo/campus-facility-reservation/internal/config"
)

// Open connects to MySQL, applies the pool bounds and verifies the
// connection within the configured connect timeout.
func Open(ctx context.Context, dsn string, pool config.PoolConfig) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxIdleTime(pool.IdleTimeout)

	ctx, cancel := context.WithTimeout(ctx, pool.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
