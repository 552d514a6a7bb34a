// Package joins validates and normalizes join specifications: mappings from
// an external table's columns onto the key columns of hierarchy levels,
// used before writing data back alongside a semantic model.
package joins

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/ailink-labs/ailink/internal/catalog"
	"github.com/ailink-labs/ailink/internal/project"
	"github.com/ailink-labs/ailink/pkg/adapter"
	"github.com/ailink-labs/ailink/pkg/core"
)

// Spec is a join specification: one entry per join feature, with the
// external columns mapped onto the feature's key columns and an optional
// roleplay name per feature.
type Spec struct {
	// Features are the hierarchy levels being joined to, by query name.
	Features []string
	// Columns holds the external columns per feature. Nil defaults to one
	// column per feature named after the feature itself; after validation
	// every entry is a list matching the feature's key-column count.
	Columns [][]string
	// Roleplays optionally names the roleplay instance per feature. Nil
	// defaults to empty strings.
	Roleplays []string
}

// ValueColumnQuestion is put to the decision callback when a supplied join
// column matches neither the key nor the value column of a single-key
// feature and the validator cannot tell which one it aliases.
type ValueColumnQuestion struct {
	Feature     string
	JoinColumn  string
	KeyColumn   string
	ValueColumn string
}

// DecisionFunc answers whether the join column holds values (true) rather
// than keys (false). Answering true makes the validator fetch the
// authoritative key column from the warehouse and rewrite the join.
type DecisionFunc func(q ValueColumnQuestion) (bool, error)

// FailClosed is the default decision: it refuses to guess and returns a
// UserError directing the caller to supply a decision callback.
func FailClosed(q ValueColumnQuestion) (bool, error) {
	return false, core.UserErrorf(
		"join column %q of feature %q cannot be mapped to its key column %q or value column %q; "+
			"supply a decision callback to resolve the ambiguity",
		q.JoinColumn, q.Feature, q.KeyColumn, q.ValueColumn)
}

// Options carries the optional collaborators of Validate.
type Options struct {
	// Adapter and Frame enable the key/value disambiguation path: when both
	// are set, ambiguous value columns are resolved by fetching key columns
	// from the warehouse and joining them into the frame. When either is
	// nil the ambiguity is only logged.
	Adapter adapter.Adapter
	Frame   *core.Frame

	// Decision resolves ambiguous columns. Defaults to FailClosed.
	Decision DecisionFunc

	// Catalog and Keys skip re-resolving them when the caller already has
	// them.
	Catalog core.FeatureMap
	Keys    map[string]project.FeatureKey

	Logger *slog.Logger
}

// Validate checks a join specification against the model and the external
// column set, returning the normalized spec and the (possibly augmented)
// frame. Violations of one rule are collected and reported together.
func Validate(
	ctx context.Context,
	p *project.Project,
	cubeID string,
	spec Spec,
	columnSet map[string]struct{},
	opts Options,
) (Spec, *core.Frame, error) {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Decision == nil {
		opts.Decision = FailClosed
	}

	spec, err := normalize(spec)
	if err != nil {
		return Spec{}, nil, err
	}

	cube, err := p.CubeByID(cubeID)
	if err != nil {
		return Spec{}, nil, err
	}
	features := opts.Catalog
	if features == nil {
		features, err = catalog.DraftFeatures(p, cube.Name)
		if err != nil {
			return Spec{}, nil, err
		}
	}

	known, levels := levelIndex(features)
	if err := checkFeatures(spec.Features, known, levels); err != nil {
		return Spec{}, nil, err
	}

	keys := opts.Keys
	if keys == nil {
		keys, err = p.FeatureKeys(cubeID, spec.Features)
		if err != nil {
			return Spec{}, nil, err
		}
	}

	if err := checkColumns(spec.Columns, columnSet); err != nil {
		return Spec{}, nil, err
	}

	frame := opts.Frame
	for i, feature := range spec.Features {
		key, ok := keys[feature]
		if !ok {
			continue
		}
		cols := spec.Columns[i]
		if len(cols) != len(key.KeyCols) {
			plural := ""
			if len(key.KeyCols) > 1 {
				plural = "s"
			}
			return Spec{}, nil, core.UserErrorf(
				"relationship for feature %q requires %d key%s: %v but received %d: %v",
				feature, len(key.KeyCols), plural, key.KeyCols, len(cols), cols)
		}

		frame, err = disambiguate(ctx, spec, i, key, frame, opts)
		if err != nil {
			return Spec{}, nil, err
		}
	}

	return spec, frame, nil
}

// normalize applies the defaulting and length rules.
func normalize(spec Spec) (Spec, error) {
	if spec.Columns == nil {
		spec.Columns = make([][]string, len(spec.Features))
		for i, f := range spec.Features {
			spec.Columns[i] = []string{f}
		}
	} else if len(spec.Columns) != len(spec.Features) {
		return Spec{}, core.UserErrorf(
			"join features and join columns must be equal lengths; got %d features and %d column entries",
			len(spec.Features), len(spec.Columns))
	} else {
		// Copy before rewriting, the caller may reuse the slice.
		cols := make([][]string, len(spec.Columns))
		for i, c := range spec.Columns {
			cols[i] = append([]string(nil), c...)
		}
		spec.Columns = cols
	}

	if spec.Roleplays == nil {
		spec.Roleplays = make([]string, len(spec.Features))
	} else if len(spec.Roleplays) != len(spec.Features) {
		return Spec{}, core.UserErrorf(
			"join features and roleplay features must be equal lengths; got %d features and %d roleplays",
			len(spec.Features), len(spec.Roleplays))
	}
	return spec, nil
}

// levelIndex derives the names joins can reference. known holds every
// catalog name plus the base names of roleplayed entries; levels holds only
// the base names of non-secondary hierarchy levels, the sole valid join
// targets.
func levelIndex(features core.FeatureMap) (known, levels map[string]struct{}) {
	known = make(map[string]struct{}, len(features))
	levels = make(map[string]struct{})
	for name, f := range features {
		known[name] = struct{}{}
		if f.FeatureType != core.FeatureTypeCategorical {
			continue
		}
		if f.Roleplayed(name) {
			known[f.BaseName] = struct{}{}
		}
		if !f.SecondaryAttribute {
			base := name
			if f.BaseName != "" {
				base = f.BaseName
			}
			levels[base] = struct{}{}
		}
	}
	return known, levels
}

// checkFeatures verifies every join feature resolves to a non-secondary
// hierarchy level, partitioning violations into unknown vs non-level.
func checkFeatures(joinFeatures []string, known, levels map[string]struct{}) error {
	var notInModel, nonLevel []string
	for _, f := range joinFeatures {
		if _, ok := known[f]; !ok {
			notInModel = append(notInModel, f)
			continue
		}
		if _, ok := levels[f]; !ok {
			nonLevel = append(nonLevel, f)
		}
	}

	var msgs []string
	if len(notInModel) > 0 {
		msgs = append(msgs, fmt.Sprintf(
			"the following join features do not exist in the data model: %v", notInModel))
	}
	if len(nonLevel) > 0 {
		msgs = append(msgs, fmt.Sprintf(
			"joins must be made exclusively to hierarchy levels; the following join features "+
				"are not levels of a hierarchy: %v", nonLevel))
	}
	if len(msgs) > 0 {
		return &core.UserError{Msg: strings.Join(msgs, "\n")}
	}
	return nil
}

// checkColumns verifies every join column exists in the external column
// set.
func checkColumns(columns [][]string, columnSet map[string]struct{}) error {
	var missing []string
	for _, cols := range columns {
		for _, c := range cols {
			if _, ok := columnSet[c]; !ok {
				missing = append(missing, c)
			}
		}
	}
	if len(missing) > 0 {
		return core.UserErrorf(
			"the following join columns do not exist in the column set: %v", missing)
	}
	return nil
}

// disambiguate handles a single-key feature whose key and value columns
// differ: the supplied join column may alias the value column, in which
// case the real key values must be fetched from the warehouse and joined
// into the frame before writeback.
func disambiguate(
	ctx context.Context,
	spec Spec,
	i int,
	key project.FeatureKey,
	frame *core.Frame,
	opts Options,
) (*core.Frame, error) {
	feature := spec.Features[i]
	joinCol := spec.Columns[i][0]

	if key.MultiKey() || key.KeyCols[0] == key.ValueCol || joinCol == key.KeyCols[0] {
		return frame, nil
	}

	if opts.Adapter == nil || frame == nil {
		opts.Logger.Warn("feature has different key and value columns; the join may produce unexpected results",
			slog.String("feature", feature),
			slog.String("join_column", joinCol),
			slog.String("key_column", key.KeyCols[0]))
		return frame, nil
	}

	if joinCol != key.ValueCol && joinCol != feature {
		isValue, err := opts.Decision(ValueColumnQuestion{
			Feature:     feature,
			JoinColumn:  joinCol,
			KeyColumn:   key.KeyCols[0],
			ValueColumn: key.ValueCol,
		})
		if err != nil {
			return nil, err
		}
		if !isValue {
			return frame, nil
		}
	}

	keyFrame, err := fetchKeyColumns(ctx, opts.Adapter, key)
	if err != nil {
		return nil, err
	}
	if joinCol != key.ValueCol {
		if err := keyFrame.Rename(key.ValueCol, joinCol); err != nil {
			return nil, err
		}
	}
	joined, err := frame.LeftJoin(keyFrame, joinCol)
	if err != nil {
		return nil, fmt.Errorf("failed to join key columns for feature %q: %w", feature, err)
	}
	spec.Columns[i] = []string{key.KeyCols[0]}
	return joined, nil
}

// fetchKeyColumns reads the distinct key/value column pairs of a feature's
// backing dataset from the warehouse.
func fetchKeyColumns(ctx context.Context, ad adapter.Adapter, key project.FeatureKey) (*core.Frame, error) {
	q := ad.Quote()
	quote := func(ident string) string {
		return q + strings.ReplaceAll(ident, q, q+q) + q
	}

	var table strings.Builder
	if key.Database != "" {
		table.WriteString(quote(key.Database))
		table.WriteString(".")
	}
	if key.Schema != "" {
		table.WriteString(quote(key.Schema))
		table.WriteString(".")
	}
	table.WriteString(quote(key.Table))

	query := fmt.Sprintf("SELECT DISTINCT %s, %s FROM %s",
		quote(key.KeyCols[0]), quote(key.ValueCol), table.String())
	frame, err := ad.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch key columns: %w", err)
	}
	return frame, nil
}
