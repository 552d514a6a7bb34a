package adapter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ailink-labs/ailink/pkg/core"
)

// DefaultChunkSize bounds the number of rows rendered into a single INSERT
// statement by WriteFrame.
const DefaultChunkSize = 250

// SQLTypeFor maps a Go value to a generic SQL column type. Adapters with
// non-standard type names can shadow this by overriding TypeFor.
func SQLTypeFor(v any) string {
	switch v.(type) {
	case int, int32, int64, uint32:
		return "BIGINT"
	case float32, float64:
		return "DOUBLE PRECISION"
	case bool:
		return "BOOLEAN"
	case time.Time:
		return "TIMESTAMP"
	default:
		return "VARCHAR(4096)"
	}
}

// TypeFor maps a Go value to the adapter's SQL column type.
func (b *BaseSQLAdapter) TypeFor(v any) string {
	if b.TypeForFunc != nil {
		return b.TypeForFunc(v)
	}
	return SQLTypeFor(v)
}

// inferTypes picks a column type from the first non-nil value in each column.
func inferTypes(frame *core.Frame, typeFor func(any) string) []string {
	cols := frame.Columns()
	types := make([]string, len(cols))
	for i := range cols {
		types[i] = typeFor("")
		for r := 0; r < frame.NumRows(); r++ {
			if v := frame.Row(r)[i]; v != nil {
				types[i] = typeFor(v)
				break
			}
		}
	}
	return types
}

// sqlLiteral renders a value as a SQL literal, escaping embedded quotes.
func sqlLiteral(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if t {
			return "TRUE"
		}
		return "FALSE"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", t)
	case float32, float64:
		return fmt.Sprintf("%v", t)
	case time.Time:
		return "'" + t.UTC().Format("2006-01-02 15:04:05") + "'"
	default:
		return "'" + strings.ReplaceAll(fmt.Sprintf("%v", t), "'", "''") + "'"
	}
}

// WriteFrame writes a frame into the named table. Rows are batched into
// fixed-size chunks, each rendered as one INSERT ... SELECT ... UNION ALL
// statement to bound single-statement size. Chunk boundaries are independent
// and executed sequentially.
func (b *BaseSQLAdapter) WriteFrame(ctx context.Context, table string, frame *core.Frame, mode WriteMode, chunkSize int) error {
	if b.DB == nil {
		return fmt.Errorf("warehouse connection not established")
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	exists := true
	if _, err := b.TableColumns(ctx, table); err != nil {
		exists = false
	}

	path := b.TablePath(table)
	cols := frame.Columns()

	switch {
	case exists && mode == WriteFail:
		return &core.UserError{Msg: fmt.Sprintf(
			"a table or view named %q already exists in schema %q", table, b.Schema())}
	case exists && mode == WriteReplace:
		if err := b.Exec(ctx, "DROP TABLE "+path); err != nil {
			return fmt.Errorf("failed to drop existing table: %w", err)
		}
		if err := b.createTable(ctx, path, cols, frame); err != nil {
			return err
		}
	case !exists:
		if err := b.createTable(ctx, path, cols, frame); err != nil {
			return err
		}
	}

	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = b.QuoteIdent(c)
	}
	prefix := fmt.Sprintf("INSERT INTO %s (%s) ", path, strings.Join(quoted, ", "))

	if b.Logger != nil {
		b.Logger.Debug("writing frame",
			"table", table, "rows", frame.NumRows(), "chunk_size", chunkSize)
	}

	for start := 0; start < frame.NumRows(); start += chunkSize {
		end := start + chunkSize
		if end > frame.NumRows() {
			end = frame.NumRows()
		}
		selects := make([]string, 0, end-start)
		for r := start; r < end; r++ {
			row := frame.Row(r)
			literals := make([]string, len(row))
			for i, v := range row {
				literals[i] = sqlLiteral(v)
			}
			selects = append(selects, "SELECT "+strings.Join(literals, ", "))
		}
		if err := b.Exec(ctx, prefix+strings.Join(selects, " UNION ALL ")); err != nil {
			return fmt.Errorf("failed to write chunk starting at row %d: %w", start, err)
		}
	}
	return nil
}

func (b *BaseSQLAdapter) createTable(ctx context.Context, path string, cols []string, frame *core.Frame) error {
	types := inferTypes(frame, b.TypeFor)
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = b.QuoteIdent(c) + " " + types[i]
	}
	stmt := fmt.Sprintf("CREATE TABLE %s (%s)", path, strings.Join(defs, ", "))
	if err := b.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}
