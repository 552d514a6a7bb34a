// compiler.go - translates feature/filter/order requests into the semantic
// layer's SQL dialect.
package query

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/ailink-labs/ailink/internal/project"
	"github.com/ailink-labs/ailink/pkg/core"
)

// Order is one ORDER BY entry.
type Order struct {
	Feature   string
	Direction string // "ASC" or "DESC", case-insensitive
}

// Request describes one query against a published model. Filters are applied
// in slice order and conjoined with AND; with no OrderBy the engine-side
// default is the categorical features of the select list, in their given
// order.
type Request struct {
	Features []string
	Filters  []Cond
	OrderBy  []Order

	// Limit caps the result rows; zero means no limit.
	Limit int

	// Comment is appended to the query as a trailing SQL comment.
	Comment string

	// UseAggs and GenerateAggs control the engine's aggregate usage for this
	// query. NewRequest enables both; a false value is compiled into the
	// corresponding control comment.
	UseAggs      bool
	GenerateAggs bool

	// Keys optionally maps base level names to their key columns, as
	// returned by project.FeatureKeys. When set, selecting a categorical
	// feature whose level has a compound key without the rest of the key
	// logs a warning, since partial keys can produce ambiguous results.
	Keys map[string]project.FeatureKey

	Logger *slog.Logger
}

// NewRequest returns a Request for the given features with aggregate usage
// and generation enabled.
func NewRequest(features ...string) Request {
	return Request{Features: features, UseAggs: true, GenerateAggs: true}
}

// Compile validates the request against the catalog and renders the query
// string. Unknown names anywhere in the request are collected into one
// error, as are malformed OrderBy entries. Duplicate features are dropped,
// keeping the first occurrence.
func Compile(catalog core.FeatureMap, projectName, modelName string, req Request) (string, error) {
	logger := req.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	known := catalog.Names()

	ordering, err := orderStrings(req.OrderBy)
	if err != nil {
		return "", err
	}

	features, repeats := dedupe(req.Features)
	if len(repeats) > 0 {
		logger.Info("dropping repeat occurrences of features that appear more than once",
			slog.Any("features", repeats))
	}

	if err := checkNames(catalog, req, features); err != nil {
		return "", err
	}
	warnCompoundKeys(catalog, features, req.Keys, logger)

	var sb strings.Builder
	fmt.Fprintf(&sb, "/* AI-Link Library Version: %s */ SELECT", core.Version)
	if !req.UseAggs {
		sb.WriteString(" /* use_aggs(false) */")
	}
	if !req.GenerateAggs {
		sb.WriteString(" /* generate_aggs(false) */")
	}
	sb.WriteString(" " + joinIdents(features))
	fmt.Fprintf(&sb, " FROM %s.%s", quoteIdent(projectName), quoteIdent(modelName))

	if len(req.Filters) > 0 {
		parts := make([]string, len(req.Filters))
		for i, cond := range req.Filters {
			parts[i] = cond.render(known)
		}
		sb.WriteString(" WHERE " + strings.Join(parts, " and "))
	}

	if len(ordering) == 0 {
		for _, name := range features {
			if catalog[name].FeatureType == core.FeatureTypeCategorical {
				ordering = append(ordering, quoteIdent(name))
			}
		}
	}
	if len(ordering) > 0 {
		sb.WriteString(" ORDER BY " + strings.Join(ordering, ", "))
	}

	if req.Limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", req.Limit)
	}
	if req.Comment != "" {
		fmt.Fprintf(&sb, " /* %s */", req.Comment)
	}
	return sb.String(), nil
}

// orderStrings validates the OrderBy entries and renders the well-formed
// ones, collecting every malformed entry into one error.
func orderStrings(orderBy []Order) ([]string, error) {
	var rendered []string
	var malformed []string
	for _, o := range orderBy {
		dir := strings.ToUpper(o.Direction)
		if o.Feature == "" || (dir != "ASC" && dir != "DESC") {
			malformed = append(malformed, fmt.Sprintf("(%q, %q)", o.Feature, o.Direction))
			continue
		}
		rendered = append(rendered, quoteIdent(o.Feature)+" "+dir)
	}
	if len(malformed) > 0 {
		return nil, core.UserErrorf(
			"all OrderBy entries must pair a feature name with \"ASC\" or \"DESC\"; "+
				"the following do not comply: %s", strings.Join(malformed, ", "))
	}
	return rendered, nil
}

func dedupe(features []string) (kept, repeats []string) {
	seen := make(map[string]struct{}, len(features))
	for _, f := range features {
		if _, ok := seen[f]; ok {
			if !contains(repeats, f) {
				repeats = append(repeats, f)
			}
			continue
		}
		seen[f] = struct{}{}
		kept = append(kept, f)
	}
	return kept, repeats
}

// checkNames verifies every name the request references, across the select
// list, the filter predicates and the ordering, in one pass.
func checkNames(catalog core.FeatureMap, req Request, features []string) error {
	var missing []string
	note := func(name string) {
		if _, ok := catalog[name]; !ok && !contains(missing, name) {
			missing = append(missing, name)
		}
	}
	for _, name := range features {
		note(name)
	}
	for _, cond := range req.Filters {
		note(cond.Feature)
	}
	for _, o := range req.OrderBy {
		note(o.Feature)
	}
	if len(missing) > 0 {
		return core.UserErrorf(
			"the following features do not exist in the published data model: %s",
			strings.Join(missing, ", "))
	}
	return nil
}

func warnCompoundKeys(catalog core.FeatureMap, features []string, keys map[string]project.FeatureKey, logger *slog.Logger) {
	if keys == nil {
		return
	}
	for _, name := range features {
		f := catalog[name]
		if f.FeatureType != core.FeatureTypeCategorical {
			continue
		}
		base := f.BaseName
		if base == "" {
			base = name
		}
		if key, ok := keys[base]; ok && key.MultiKey() {
			logger.Warn("feature has a compound key; include features for all key columns to avoid ambiguous results",
				slog.String("feature", name),
				slog.Any("key_columns", key.KeyCols))
		}
	}
}

func joinIdents(names []string) string {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = quoteIdent(name)
	}
	return strings.Join(quoted, ", ")
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
