// Package stats computes feature statistics warehouse-side. The semantic
// query for the requested features is compiled, the outbound warehouse SQL
// is recovered through the planner, and the statistic is pushed down as one
// aggregate over that query, so no row data ever reaches the client.
package stats

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ailink-labs/ailink/internal/query"
	"github.com/ailink-labs/ailink/pkg/adapter"
	"github.com/ailink-labs/ailink/pkg/core"
)

// Analyzer binds the collaborators one statistics session needs: the
// warehouse adapter the aggregate runs on, the service client that recovers
// outbound SQL, and the published catalog for validation.
type Analyzer struct {
	Adapter adapter.Adapter
	Service query.Explainer
	Catalog core.FeatureMap

	// Project is the published project name, Model the data model name.
	Project string
	Model   string

	Logger *slog.Logger
}

// Variance returns the variance of a numeric feature at the granularity of
// the given categorical features. sample selects the sample estimator over
// the population one.
func (a *Analyzer) Variance(ctx context.Context, feature string, granularity []string, sample bool) (float64, error) {
	fn := "VAR_POP"
	if sample {
		fn = "VAR_SAMP"
	}
	return a.aggregate(ctx, []string{feature}, granularity,
		fmt.Sprintf("%s(%s)", fn, a.quote(feature)))
}

// Std returns the standard deviation of a numeric feature at the given
// granularity.
func (a *Analyzer) Std(ctx context.Context, feature string, granularity []string, sample bool) (float64, error) {
	fn := "STDDEV_POP"
	if sample {
		fn = "STDDEV_SAMP"
	}
	return a.aggregate(ctx, []string{feature}, granularity,
		fmt.Sprintf("%s(%s)", fn, a.quote(feature)))
}

// Covariance returns the covariance of two numeric features at the given
// granularity.
func (a *Analyzer) Covariance(ctx context.Context, feature1, feature2 string, granularity []string, sample bool) (float64, error) {
	fn := "COVAR_POP"
	if sample {
		fn = "COVAR_SAMP"
	}
	return a.aggregate(ctx, []string{feature1, feature2}, granularity,
		fmt.Sprintf("%s(%s, %s)", fn, a.quote(feature1), a.quote(feature2)))
}

// Corrcoef returns the Pearson correlation coefficient of two numeric
// features at the given granularity.
func (a *Analyzer) Corrcoef(ctx context.Context, feature1, feature2 string, granularity []string) (float64, error) {
	return a.aggregate(ctx, []string{feature1, feature2}, granularity,
		fmt.Sprintf("CORR(%s, %s)", a.quote(feature1), a.quote(feature2)))
}

func (a *Analyzer) aggregate(ctx context.Context, features, granularity []string, expr string) (float64, error) {
	if err := a.check(features, granularity); err != nil {
		return 0, err
	}
	logger := a.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	req := query.NewRequest(append(append([]string(nil), granularity...), features...)...)
	req.Logger = logger
	compiled, err := query.Compile(a.Catalog, a.Project, a.Model, req)
	if err != nil {
		return 0, err
	}

	outbound, err := query.Explain(ctx, a.Service, a.Project, compiled,
		query.ExplainOptions{UseAggs: true, GenerateAggs: true, Logger: logger})
	if err != nil {
		return 0, err
	}
	if outbound == "" {
		return 0, &core.ServerError{Msg: "the warehouse query for the statistic could not be recovered from the query log"}
	}

	sql := fmt.Sprintf("SELECT %s FROM (%s) AS base_query", expr, outbound)
	logger.Debug("running warehouse statistic", slog.String("sql", sql))
	frame, err := a.Adapter.Query(ctx, sql)
	if err != nil {
		return 0, fmt.Errorf("running warehouse statistic: %w", err)
	}
	if frame.NumRows() != 1 || len(frame.Columns()) != 1 {
		return 0, fmt.Errorf("statistic query returned %d rows and %d columns, expected a single value",
			frame.NumRows(), len(frame.Columns()))
	}
	return asFloat(frame.Row(0)[0])
}

// check validates the request against the catalog, aggregating every
// offending name into one error per rule.
func (a *Analyzer) check(features, granularity []string) error {
	var missing, nonNumeric, nonCategorical []string
	for _, name := range features {
		f, ok := a.Catalog[name]
		switch {
		case !ok:
			missing = append(missing, name)
		case f.FeatureType != core.FeatureTypeNumeric:
			nonNumeric = append(nonNumeric, name)
		}
	}
	for _, name := range granularity {
		f, ok := a.Catalog[name]
		switch {
		case !ok:
			missing = append(missing, name)
		case f.FeatureType != core.FeatureTypeCategorical:
			nonCategorical = append(nonCategorical, name)
		}
	}

	var offenses []string
	if len(missing) > 0 {
		offenses = append(offenses,
			"the following features do not exist in the data model: "+strings.Join(missing, ", "))
	}
	if len(nonNumeric) > 0 {
		offenses = append(offenses,
			"the following features are not numeric: "+strings.Join(nonNumeric, ", "))
	}
	if len(nonCategorical) > 0 {
		offenses = append(offenses,
			"the following granularity levels are not categorical: "+strings.Join(nonCategorical, ", "))
	}
	if len(granularity) == 0 {
		offenses = append(offenses, "at least one granularity level is required")
	}
	if len(offenses) > 0 {
		return &core.UserError{Msg: strings.Join(offenses, "\n")}
	}
	return nil
}

func (a *Analyzer) quote(name string) string {
	q := a.Adapter.Quote()
	return q + name + q
}

func asFloat(v any) (float64, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case float32:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case int:
		return float64(val), nil
	case string:
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, fmt.Errorf("statistic result %q is not numeric: %w", val, err)
		}
		return f, nil
	case nil:
		return 0, fmt.Errorf("statistic result is null")
	default:
		return 0, fmt.Errorf("statistic result has unsupported type %T", v)
	}
}
