// ast.go - predicate nodes for compiled semantic-layer queries.
package query

import (
	"fmt"
	"strconv"
	"strings"
)

// Op is a predicate operator.
type Op string

const (
	OpEq      Op = "="
	OpGt      Op = ">"
	OpLt      Op = "<"
	OpGe      Op = ">="
	OpLe      Op = "<="
	OpNe      Op = "<>"
	OpLike    Op = "LIKE"
	OpRLike   Op = "RLIKE"
	OpIn      Op = "IN"
	OpBetween Op = "BETWEEN"
	OpIsNull  Op = "IS NULL"
	OpNotNull Op = "IS NOT NULL"
)

// Cond is one filter predicate over a feature. Values holds zero operands for
// the null checks, one for the binary operators, two for BETWEEN and any
// number for IN. String operands of the comparison operators render as a
// backtick-quoted cross-reference when they name another catalog feature,
// else as a single-quoted literal; numeric and boolean operands render bare.
type Cond struct {
	Feature string
	Op      Op
	Values  []any
}

func Eq(feature string, value any) Cond { return Cond{Feature: feature, Op: OpEq, Values: []any{value}} }
func Gt(feature string, value any) Cond { return Cond{Feature: feature, Op: OpGt, Values: []any{value}} }
func Lt(feature string, value any) Cond { return Cond{Feature: feature, Op: OpLt, Values: []any{value}} }
func Ge(feature string, value any) Cond { return Cond{Feature: feature, Op: OpGe, Values: []any{value}} }
func Le(feature string, value any) Cond { return Cond{Feature: feature, Op: OpLe, Values: []any{value}} }
func Ne(feature string, value any) Cond { return Cond{Feature: feature, Op: OpNe, Values: []any{value}} }

// Like matches the feature against a SQL LIKE pattern.
func Like(feature, pattern string) Cond {
	return Cond{Feature: feature, Op: OpLike, Values: []any{pattern}}
}

// RLike matches the feature against a regular expression.
func RLike(feature, pattern string) Cond {
	return Cond{Feature: feature, Op: OpRLike, Values: []any{pattern}}
}

// In restricts the feature to a set of values.
func In(feature string, values ...any) Cond {
	return Cond{Feature: feature, Op: OpIn, Values: values}
}

// Between restricts the feature to the inclusive range [lo, hi].
func Between(feature string, lo, hi any) Cond {
	return Cond{Feature: feature, Op: OpBetween, Values: []any{lo, hi}}
}

func IsNull(feature string) Cond  { return Cond{Feature: feature, Op: OpIsNull} }
func NotNull(feature string) Cond { return Cond{Feature: feature, Op: OpNotNull} }

// render serializes the predicate. known is the set of catalog query names
// eligible as cross-references; pattern and membership operands are always
// literals, so those paths pass nil.
func (c Cond) render(known map[string]struct{}) string {
	ident := quoteIdent(c.Feature)
	switch c.Op {
	case OpIsNull, OpNotNull:
		return fmt.Sprintf("(%s %s)", ident, c.Op)
	case OpLike, OpRLike:
		return fmt.Sprintf("(%s %s %s)", ident, c.Op, renderValue(c.Values[0], nil))
	case OpIn:
		parts := make([]string, len(c.Values))
		for i, v := range c.Values {
			parts[i] = renderValue(v, nil)
		}
		return fmt.Sprintf("(%s IN (%s))", ident, strings.Join(parts, ", "))
	case OpBetween:
		return fmt.Sprintf("(%s BETWEEN %s and %s)",
			ident, renderValue(c.Values[0], known), renderValue(c.Values[1], known))
	default:
		return fmt.Sprintf("(%s %s %s)", ident, c.Op, renderValue(c.Values[0], known))
	}
}

func quoteIdent(name string) string {
	return "`" + name + "`"
}

func renderValue(v any, known map[string]struct{}) string {
	switch val := v.(type) {
	case string:
		if known != nil {
			if _, ok := known[val]; ok {
				return quoteIdent(val)
			}
		}
		return "'" + strings.ReplaceAll(val, "'", "''") + "'"
	case bool:
		return strconv.FormatBool(val)
	case nil:
		return "NULL"
	default:
		return fmt.Sprintf("%v", val)
	}
}
