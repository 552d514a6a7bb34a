package joins

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ailink-labs/ailink/internal/testutil"
	"github.com/ailink-labs/ailink/pkg/adapter"
	"github.com/ailink-labs/ailink/pkg/core"
)

func columnSet(names ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

// fakeAdapter serves canned query results for the disambiguation path.
type fakeAdapter struct {
	result    *core.Frame
	lastQuery string
}

func (a *fakeAdapter) Connect(context.Context, adapter.Config) error { return nil }
func (a *fakeAdapter) Close() error                                  { return nil }
func (a *fakeAdapter) Exec(context.Context, string) error            { return nil }
func (a *fakeAdapter) ExecStatements(context.Context, []string) error {
	return nil
}
func (a *fakeAdapter) Query(_ context.Context, sql string) (*core.Frame, error) {
	a.lastQuery = sql
	return a.result, nil
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

func TestValidateDefaultsColumnsToFeatures(t *testing.T) {
	p := testutil.SampleProject(t)

	spec, frame, err := Validate(context.Background(), p, "cube1",
		Spec{Features: []string{"Day"}},
		columnSet("Day"),
		Options{Logger: testutil.NewTestLogger(t)})
	require.NoError(t, err)
	assert.Nil(t, frame)
	assert.Equal(t, [][]string{{"Day"}}, spec.Columns)
	assert.Equal(t, []string{""}, spec.Roleplays)
}

func TestValidateLengthMismatches(t *testing.T) {
	p := testutil.SampleProject(t)
	ctx := context.Background()

	_, _, err := Validate(ctx, p, "cube1",
		Spec{Features: []string{"Day"}, Columns: [][]string{{"a"}, {"b"}}},
		columnSet("a", "b"), Options{})
	require.Error(t, err)
	var userErr *core.UserError
	require.ErrorAs(t, err, &userErr)
	assert.Contains(t, err.Error(), "equal lengths")

	_, _, err = Validate(ctx, p, "cube1",
		Spec{Features: []string{"Day"}, Roleplays: []string{"Order Day", "Ship Day"}},
		columnSet("Day"), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "roleplay")
}

func TestValidateUnknownAndNonLevelFeatures(t *testing.T) {
	p := testutil.SampleProject(t)

	_, _, err := Validate(context.Background(), p, "cube1",
		Spec{Features: []string{"Nope", "Sales", "Population Band"}},
		columnSet("Nope", "Sales", "Population Band"), Options{})
	require.Error(t, err)
	var userErr *core.UserError
	require.ErrorAs(t, err, &userErr)
	// Violations are partitioned and reported together.
	assert.Contains(t, err.Error(), "do not exist in the data model: [Nope]")
	assert.Contains(t, err.Error(), "not levels of a hierarchy")
	assert.Contains(t, err.Error(), "Sales")
	assert.Contains(t, err.Error(), "Population Band")
}

func TestValidateMissingColumns(t *testing.T) {
	p := testutil.SampleProject(t)

	_, _, err := Validate(context.Background(), p, "cube1",
		Spec{Features: []string{"Day"}, Columns: [][]string{{"order_date"}}},
		columnSet("other_col"), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "do not exist in the column set")
	assert.Contains(t, err.Error(), "order_date")
}

func TestValidateKeyCountMismatch(t *testing.T) {
	p := testutil.SampleProject(t)

	// City joins on a compound (city_id, country_id) key.
	_, _, err := Validate(context.Background(), p, "cube1",
		Spec{Features: []string{"City"}, Columns: [][]string{{"city_id"}}},
		columnSet("city_id"), Options{})
	require.Error(t, err)
	var userErr *core.UserError
	require.ErrorAs(t, err, &userErr)
	assert.Contains(t, err.Error(), "requires 2 keys")
	assert.Contains(t, err.Error(), "received 1")

	// The full key passes.
	spec, _, err := Validate(context.Background(), p, "cube1",
		Spec{Features: []string{"City"}, Columns: [][]string{{"city_id", "country_id"}}},
		columnSet("city_id", "country_id"), Options{})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"city_id", "country_id"}}, spec.Columns)
}

func TestValidateWarnsWithoutFrame(t *testing.T) {
	p := testutil.SampleProject(t)

	// Country's key column (country_id) differs from its value column
	// (country_name); without an adapter and frame this is only logged.
	spec, frame, err := Validate(context.Background(), p, "cube1",
		Spec{Features: []string{"Country"}, Columns: [][]string{{"Country"}}},
		columnSet("Country"),
		Options{Logger: testutil.NewTestLogger(t)})
	require.NoError(t, err)
	assert.Nil(t, frame)
	assert.Equal(t, [][]string{{"Country"}}, spec.Columns)
}

func TestValidateFetchesKeysForValueColumn(t *testing.T) {
	p := testutil.SampleProject(t)

	keyFrame := core.NewFrame("country_id", "country_name")
	require.NoError(t, keyFrame.AppendRow(1, "France"))
	require.NoError(t, keyFrame.AppendRow(2, "Japan"))
	ad := &fakeAdapter{result: keyFrame}

	data := core.NewFrame("Country", "Sales")
	require.NoError(t, data.AppendRow("France", 100.0))
	require.NoError(t, data.AppendRow("Japan", 200.0))

	// The join column matches the feature name, so it is taken as a value
	// column without consulting the decision callback.
	spec, joined, err := Validate(context.Background(), p, "cube1",
		Spec{Features: []string{"Country"}},
		data.ColumnSet(),
		Options{Adapter: ad, Frame: data, Logger: testutil.NewTestLogger(t)})
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"country_id"}}, spec.Columns)
	assert.Contains(t, ad.lastQuery, `SELECT DISTINCT "country_id", "country_name"`)
	assert.Contains(t, ad.lastQuery, `"wh"."public"."country_dim"`)

	require.NotNil(t, joined)
	assert.Equal(t, []string{"Country", "Sales", "country_id"}, joined.Columns())
	require.Equal(t, 2, joined.NumRows())
	assert.Equal(t, 1, joined.Row(0)[2])
	assert.Equal(t, 2, joined.Row(1)[2])
}

func TestValidateAmbiguousColumnAsksDecision(t *testing.T) {
	p := testutil.SampleProject(t)

	keyFrame := core.NewFrame("country_id", "country_name")
	require.NoError(t, keyFrame.AppendRow(1, "France"))
	ad := &fakeAdapter{result: keyFrame}

	data := core.NewFrame("ctry", "Sales")
	require.NoError(t, data.AppendRow("France", 100.0))

	var asked ValueColumnQuestion
	spec, joined, err := Validate(context.Background(), p, "cube1",
		Spec{Features: []string{"Country"}, Columns: [][]string{{"ctry"}}},
		data.ColumnSet(),
		Options{
			Adapter: ad,
			Frame:   data,
			Decision: func(q ValueColumnQuestion) (bool, error) {
				asked = q
				return true, nil
			},
			Logger: testutil.NewTestLogger(t),
		})
	require.NoError(t, err)

	assert.Equal(t, "Country", asked.Feature)
	assert.Equal(t, "ctry", asked.JoinColumn)
	assert.Equal(t, "country_id", asked.KeyColumn)
	assert.Equal(t, "country_name", asked.ValueColumn)

	assert.Equal(t, [][]string{{"country_id"}}, spec.Columns)
	require.NotNil(t, joined)
	assert.Equal(t, []string{"ctry", "Sales", "country_id"}, joined.Columns())
}

func TestValidateAmbiguousColumnDeclinedLeavesJoin(t *testing.T) {
	p := testutil.SampleProject(t)
	ad := &fakeAdapter{result: core.NewFrame("country_id", "country_name")}

	data := core.NewFrame("ctry")
	require.NoError(t, data.AppendRow("France"))

	spec, joined, err := Validate(context.Background(), p, "cube1",
		Spec{Features: []string{"Country"}, Columns: [][]string{{"ctry"}}},
		data.ColumnSet(),
		Options{
			Adapter:  ad,
			Frame:    data,
			Decision: func(ValueColumnQuestion) (bool, error) { return false, nil },
		})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"ctry"}}, spec.Columns)
	assert.Empty(t, ad.lastQuery)
	assert.Same(t, data, joined)
}

func TestValidateAmbiguousColumnFailsClosedByDefault(t *testing.T) {
	p := testutil.SampleProject(t)
	ad := &fakeAdapter{result: core.NewFrame("country_id", "country_name")}

	data := core.NewFrame("ctry")
	require.NoError(t, data.AppendRow("France"))

	_, _, err := Validate(context.Background(), p, "cube1",
		Spec{Features: []string{"Country"}, Columns: [][]string{{"ctry"}}},
		data.ColumnSet(),
		Options{Adapter: ad, Frame: data})
	require.Error(t, err)
	var userErr *core.UserError
	require.ErrorAs(t, err, &userErr)
	assert.Contains(t, err.Error(), "decision callback")
}
