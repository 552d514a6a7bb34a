package stats

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ailink-labs/ailink/internal/testutil"
	"github.com/ailink-labs/ailink/pkg/adapter"
	"github.com/ailink-labs/ailink/pkg/core"
)

// fakeService resolves every planned query to a fixed outbound warehouse
// query.
type fakeService struct {
	outbound  string
	submitted string
}

func (f *fakeService) SubmitQueryPlan(_ context.Context, _, query string, _, _ bool) error {
	f.submitted = query
	return nil
}

func (f *fakeService) QueryLog(context.Context, time.Time) ([]map[string]any, error) {
	return []map[string]any{{
		"query_id":   "q1",
		"query_text": f.submitted,
		"succeeded":  true,
		"timeline_events": []any{map[string]any{
			"type": "SubqueriesWall",
			"children": []any{map[string]any{
				"query_id":             "sub1",
				"query_text":           f.outbound,
				"query_text_truncated": false,
			}},
		}},
	}}, nil
}

func (f *fakeService) FullQueryText(context.Context, string, string) (string, error) {
	return "", nil
}

// fakeAdapter records the statistic SQL and serves a single-value frame.
type fakeAdapter struct {
	value     any
	lastQuery string
}

func (a *fakeAdapter) Connect(context.Context, adapter.Config) error  { return nil }
func (a *fakeAdapter) Close() error                                   { return nil }
func (a *fakeAdapter) Exec(context.Context, string) error             { return nil }
func (a *fakeAdapter) ExecStatements(context.Context, []string) error { return nil }
func (a *fakeAdapter) Query(_ context.Context, sql string) (*core.Frame, error) {
	a.lastQuery = sql
	frame := core.NewFrame("stat")
	_ = frame.AppendRow(a.value)
	return frame, nil
}
func (a *fakeAdapter) TableColumns(context.Context, string) ([]adapter.ColumnInfo, error) {
	return nil, nil
}
func (a *fakeAdapter) Database() string { return "wh" }
func (a *fakeAdapter) Schema() string   { return "public" }
func (a *fakeAdapter) Quote() string    { return `"` }
func (a *fakeAdapter) WriteFrame(context.Context, string, *core.Frame, adapter.WriteMode, int) error {
	return nil
}

func testAnalyzer(t *testing.T, value any) (*Analyzer, *fakeAdapter, *fakeService) {
	t.Helper()
	db := &fakeAdapter{value: value}
	svc := &fakeService{outbound: "SELECT region, sales FROM warehouse.facts"}
	return &Analyzer{
		Adapter: db,
		Service: svc,
		Catalog: core.FeatureMap{
			"Region": {FeatureType: core.FeatureTypeCategorical},
			"Sales":  {FeatureType: core.FeatureTypeNumeric},
			"Cost":   {FeatureType: core.FeatureTypeNumeric},
		},
		Project: "Internet Sales",
		Model:   "Sales Cube",
		Logger:  testutil.NewTestLogger(t),
	}, db, svc
}

func TestVarianceSample(t *testing.T) {
	a, db, svc := testAnalyzer(t, 2.5)

	got, err := a.Variance(context.Background(), "Sales", []string{"Region"}, true)
	require.NoError(t, err)
	assert.Equal(t, 2.5, got)
	assert.True(t, strings.HasPrefix(db.lastQuery, `SELECT VAR_SAMP("Sales") FROM (`))
	assert.Contains(t, db.lastQuery, svc.outbound)
	assert.Contains(t, svc.submitted, "`Region`, `Sales`")
}

func TestVariancePopulation(t *testing.T) {
	a, db, _ := testAnalyzer(t, "1.25")

	got, err := a.Variance(context.Background(), "Sales", []string{"Region"}, false)
	require.NoError(t, err)
	assert.Equal(t, 1.25, got)
	assert.Contains(t, db.lastQuery, `VAR_POP("Sales")`)
}

func TestStd(t *testing.T) {
	a, db, _ := testAnalyzer(t, 1.5)

	_, err := a.Std(context.Background(), "Sales", []string{"Region"}, true)
	require.NoError(t, err)
	assert.Contains(t, db.lastQuery, `STDDEV_SAMP("Sales")`)

	_, err = a.Std(context.Background(), "Sales", []string{"Region"}, false)
	require.NoError(t, err)
	assert.Contains(t, db.lastQuery, `STDDEV_POP("Sales")`)
}

func TestCovariance(t *testing.T) {
	a, db, _ := testAnalyzer(t, 0.75)

	got, err := a.Covariance(context.Background(), "Sales", "Cost", []string{"Region"}, true)
	require.NoError(t, err)
	assert.Equal(t, 0.75, got)
	assert.Contains(t, db.lastQuery, `COVAR_SAMP("Sales", "Cost")`)
}

func TestCorrcoef(t *testing.T) {
	a, db, _ := testAnalyzer(t, 0.9)

	got, err := a.Corrcoef(context.Background(), "Sales", "Cost", []string{"Region"})
	require.NoError(t, err)
	assert.Equal(t, 0.9, got)
	assert.Contains(t, db.lastQuery, `CORR("Sales", "Cost")`)
}

func TestChecksAggregateOffenses(t *testing.T) {
	a, _, _ := testAnalyzer(t, 0.0)

	_, err := a.Variance(context.Background(), "Region", []string{"Sales", "Bogus"}, true)
	require.Error(t, err)
	var userErr *core.UserError
	require.ErrorAs(t, err, &userErr)
	assert.Contains(t, err.Error(), "are not numeric: Region")
	assert.Contains(t, err.Error(), "are not categorical: Sales")
	assert.Contains(t, err.Error(), "do not exist in the data model: Bogus")
}

func TestChecksRequireGranularity(t *testing.T) {
	a, _, _ := testAnalyzer(t, 0.0)

	_, err := a.Variance(context.Background(), "Sales", nil, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "granularity level is required")
}
