package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ailink-labs/ailink/pkg/core"
)

// BaseSQLAdapter provides common database/sql functionality for adapters.
// Embed this struct in concrete adapter implementations to get standard
// Close, Exec, Query, ExecStatements, metadata and writeback implementations.
type BaseSQLAdapter struct {
	DB     *sql.DB
	Cfg    Config
	Logger *slog.Logger

	// QuoteChar is the identifier quote for this warehouse. Defaults to `"`.
	QuoteChar string

	// DefaultSchema is used when Cfg.Schema is empty.
	DefaultSchema string

	// PlaceholderFunc formats the n-th query parameter ("?" or "$n").
	// Defaults to "?".
	PlaceholderFunc func(n int) string

	// TypeForFunc maps a Go value to this warehouse's SQL column type for
	// writeback table creation. Defaults to SQLTypeFor.
	TypeForFunc func(v any) string
}

// Close closes the database connection.
func (b *BaseSQLAdapter) Close() error {
	if b.DB != nil {
		if b.Logger != nil {
			b.Logger.Debug("closing warehouse connection")
		}
		return b.DB.Close()
	}
	return nil
}

// Database returns the configured database name.
func (b *BaseSQLAdapter) Database() string { return b.Cfg.Database }

// Schema returns the configured schema, or the adapter default.
func (b *BaseSQLAdapter) Schema() string {
	if b.Cfg.Schema != "" {
		return b.Cfg.Schema
	}
	return b.DefaultSchema
}

// Quote returns the identifier quote character.
func (b *BaseSQLAdapter) Quote() string {
	if b.QuoteChar == "" {
		return `"`
	}
	return b.QuoteChar
}

// IsConnected reports whether the connection is established.
func (b *BaseSQLAdapter) IsConnected() bool { return b.DB != nil }

// Exec executes a SQL statement that doesn't return rows.
func (b *BaseSQLAdapter) Exec(ctx context.Context, sqlStr string) error {
	if b.DB == nil {
		return fmt.Errorf("warehouse connection not established")
	}
	if _, err := b.DB.ExecContext(ctx, sqlStr); err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}

// ExecStatements executes statements sequentially inside one transaction,
// rolling back on the first failure.
func (b *BaseSQLAdapter) ExecStatements(ctx context.Context, statements []string) error {
	if b.DB == nil {
		return fmt.Errorf("warehouse connection not established")
	}
	tx, err := b.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to execute statement: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Query executes a SQL statement and reads the full result set into a frame.
func (b *BaseSQLAdapter) Query(ctx context.Context, sqlStr string) (*core.Frame, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("warehouse connection not established")
	}
	rows, err := b.DB.QueryContext(ctx, sqlStr)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}
	frame := core.NewFrame(cols...)
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		if err := frame.AppendRow(values...); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating result rows: %w", err)
	}
	return frame, nil
}

// TableColumns retrieves column metadata from information_schema.
func (b *BaseSQLAdapter) TableColumns(ctx context.Context, table string) ([]ColumnInfo, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("warehouse connection not established")
	}

	schema, name := b.splitQualified(table)

	//nolint:gosec // placeholders come from PlaceholderFunc, not user input
	query := fmt.Sprintf(`
		SELECT
			column_name,
			data_type,
			is_nullable,
			ordinal_position
		FROM information_schema.columns
		WHERE table_schema = %s AND table_name = %s
		ORDER BY ordinal_position
	`, b.placeholder(1), b.placeholder(2))

	rows, err := b.DB.QueryContext(ctx, query, schema, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []ColumnInfo
	for rows.Next() {
		var col ColumnInfo
		var nullable string
		if err := rows.Scan(&col.Name, &col.Type, &nullable, &col.Position); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Nullable = strings.EqualFold(nullable, "YES")
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}
	return columns, nil
}

func (b *BaseSQLAdapter) placeholder(n int) string {
	if b.PlaceholderFunc != nil {
		return b.PlaceholderFunc(n)
	}
	return "?"
}

func (b *BaseSQLAdapter) splitQualified(table string) (schema, name string) {
	if parts := strings.SplitN(table, ".", 2); len(parts) == 2 {
		return parts[0], parts[1]
	}
	return b.Schema(), table
}

// QuoteIdent quotes an identifier with the adapter's quote character,
// doubling any embedded quote characters.
func (b *BaseSQLAdapter) QuoteIdent(name string) string {
	q := b.Quote()
	return q + strings.ReplaceAll(name, q, q+q) + q
}

// TablePath returns the fully qualified, quoted path for a table name.
func (b *BaseSQLAdapter) TablePath(table string) string {
	schema, name := b.splitQualified(table)
	if schema == "" {
		return b.QuoteIdent(name)
	}
	return b.QuoteIdent(schema) + "." + b.QuoteIdent(name)
}
