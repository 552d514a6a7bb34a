// Package adapter provides the warehouse adapter contract for ailink.
//
// This package contains the interface that all warehouse adapters must
// implement plus shared database/sql plumbing. Concrete adapter
// implementations are in pkg/adapters/ subdirectories and register
// themselves in their init() functions.
package adapter

import (
	"context"

	"github.com/ailink-labs/ailink/pkg/core"
)

// Config holds configuration for connecting to a warehouse.
type Config struct {
	Type     string
	Path     string
	Host     string
	Port     int
	Database string
	Schema   string
	Username string
	Password string
	Options  map[string]string
}

// ColumnInfo describes one column of a warehouse table.
type ColumnInfo struct {
	Name     string
	Type     string
	Nullable bool
	Position int
}

// WriteMode is the conflict policy for WriteFrame when the target table
// already exists.
type WriteMode string

const (
	// WriteFail aborts when the table exists.
	WriteFail WriteMode = "fail"
	// WriteReplace drops and recreates the table.
	WriteReplace WriteMode = "replace"
	// WriteAppend inserts into the existing table.
	WriteAppend WriteMode = "append"
)

// Adapter defines the interface that all warehouse adapters must implement.
// Implementations are synchronous; every method that can reach the network
// takes a context.
type Adapter interface {
	// Connect establishes a connection using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the connection and releases resources.
	Close() error

	// Exec executes a SQL statement that doesn't return rows.
	Exec(ctx context.Context, sql string) error

	// ExecStatements executes a list of SQL statements in one transaction.
	ExecStatements(ctx context.Context, statements []string) error

	// Query executes a SQL statement and reads the full result set.
	Query(ctx context.Context, sql string) (*core.Frame, error)

	// TableColumns retrieves column metadata for a table, optionally
	// qualified as schema.table.
	TableColumns(ctx context.Context, table string) ([]ColumnInfo, error)

	// Database and Schema identify where unqualified tables resolve.
	Database() string
	Schema() string

	// Quote returns the identifier quote character for this warehouse.
	Quote() string

	// WriteFrame writes a frame into the named table, batching rows into
	// fixed-size chunks per statement. Chunks execute sequentially.
	WriteFrame(ctx context.Context, table string, frame *core.Frame, mode WriteMode, chunkSize int) error
}
