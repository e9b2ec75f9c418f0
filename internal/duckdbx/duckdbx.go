// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

// Package duckdbx wraps the DuckDB database/sql driver with per-connection
// setup (object cache, memory limit, thread count, temp directory) so query
// code never has to think about session configuration.
package duckdbx

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb/v2"
)

type option func(*Config)

type Config struct {
	MemoryLimitMB int64
	Threads       int
	TempDirectory string
	Metrics       bool
	MetricsPeriod time.Duration

	pollerContext context.Context
}

// WithMemoryLimitMB sets a memory limit for DuckDB in megabytes.
// DuckDB spills sorts that exceed the limit to its temp directory.
func WithMemoryLimitMB(limit int64) option {
	return func(c *Config) {
		c.MemoryLimitMB = limit
	}
}

// WithThreads sets the number of threads DuckDB may use per query.
func WithThreads(n int) option {
	return func(c *Config) {
		c.Threads = n
	}
}

// WithTempDirectory sets the directory DuckDB uses for spill files.
func WithTempDirectory(dir string) option {
	return func(c *Config) {
		c.TempDirectory = dir
	}
}

// WithMetrics enables periodic polling of DuckDB memory metrics.
// The period argument specifies how often to poll the metrics.
func WithMetrics(period time.Duration) option {
	return func(c *Config) {
		c.Metrics = true
		c.MetricsPeriod = period
	}
}

// WithMetricsContext sets the context used for metrics polling.
// If the context is cancelled, metrics polling will stop.
func WithMetricsContext(ctx context.Context) option {
	return func(c *Config) {
		c.pollerContext = ctx
	}
}

type DB struct {
	db     *sql.DB
	config Config
}

// Open opens a DuckDB database with the given data source name and options.
// This is generally called once; the returned DB is shared and used to
// create configured connections.
func Open(dataSourceName string, opts ...option) (*DB, error) {
	db, err := sql.Open("duckdb", dataSourceName)
	if err != nil {
		return nil, err
	}

	config := Config{
		MetricsPeriod: 10 * time.Second,
		pollerContext: context.Background(),
	}
	for _, opt := range opts {
		opt(&config)
	}

	d := &DB{db: db, config: config}

	if config.Metrics {
		go d.pollMemoryMetrics(config.pollerContext)
	}

	return d, nil
}

// Conn returns a new connection to the database with session setup
// (object cache, memory limit, threads, temp directory) already performed.
func (d *DB) Conn(ctx context.Context) (*sql.Conn, error) {
	conn, err := d.db.Conn(ctx)
	if err != nil {
		return nil, err
	}

	if err := d.setupConn(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return conn, nil
}

func (d *DB) setupConn(ctx context.Context, conn *sql.Conn) error {
	// Reuse internal structures across queries against the same files
	if _, err := conn.ExecContext(ctx, "PRAGMA enable_object_cache;"); err != nil {
		return fmt.Errorf("failed to enable object cache: %w", err)
	}

	if d.config.MemoryLimitMB > 0 {
		stmt := fmt.Sprintf("SET memory_limit='%dMB';", d.config.MemoryLimitMB)
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to set memory limit: %w", err)
		}
	}
	if d.config.Threads > 0 {
		stmt := fmt.Sprintf("SET threads=%d;", d.config.Threads)
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to set threads: %w", err)
		}
	}
	if d.config.TempDirectory != "" {
		stmt := fmt.Sprintf("SET temp_directory='%s';", strings.ReplaceAll(d.config.TempDirectory, "'", "''"))
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to set temp directory: %w", err)
		}
	}
	return nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

// QueryContext executes a query on a fresh configured connection and returns
// the rows together with the connection. The caller must close the rows and
// then the connection, in that order.
func (d *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, *sql.Conn, error) {
	conn, err := d.Conn(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get duckdb connection: %w", err)
	}

	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		closeErr := conn.Close()
		if closeErr != nil {
			return nil, nil, fmt.Errorf("query failed, and closing connection also failed: %v; %v", err, closeErr)
		}
		return nil, nil, fmt.Errorf("query execution failed: %w", err)
	}

	return rows, conn, nil
}

// ExecContext executes a statement on a fresh configured connection, closing
// the connection before returning.
func (d *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	conn, err := d.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get duckdb connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	result, err := conn.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("exec execution failed: %w", err)
	}

	return result, nil
}
