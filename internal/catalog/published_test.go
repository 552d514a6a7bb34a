package catalog

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ailink-labs/ailink/pkg/core"
)

type fakeDMV struct {
	licensed bool
	queries  []string
}

func (f *fakeDMV) LicenseEnabled(_ context.Context, capability string) (bool, error) {
	if capability != LicenseDataCatalog {
		return false, nil
	}
	return f.licensed, nil
}

func (f *fakeDMV) SubmitDMVQuery(_ context.Context, query string) (*core.Frame, error) {
	f.queries = append(f.queries, query)
	switch {
	case strings.Contains(query, "MDSCHEMA_HIERARCHIES"):
		fr := core.NewFrame("HIERARCHY_NAME", "FOLDER")
		fr.AppendRow("Order Date Rollup", "Time")
		fr.AppendRow("Geo Rollup", "Places")
		return fr, nil
	case strings.Contains(query, "MDSCHEMA_LEVELS"):
		cols := []string{
			"LEVEL_NAME", "LEVEL_CAPTION", "LEVEL_TYPE", "DESCRIPTION",
			"HIERARCHY_NAME", "DIMENSION_NAME", "DATA_TYPE",
		}
		if f.licensed {
			cols = append(cols, "IS_SECONDARY")
		}
		fr := core.NewFrame(cols...)
		if f.licensed {
			fr.AppendRow("Order Day", "Order Day", "TimeDays", "Calendar day", "Order Date Rollup", "Order Date", "string", false)
			fr.AppendRow("Population Band", "Population Band", "Regular", "", "Geo Rollup", "Geography", "string", true)
		} else {
			fr.AppendRow("Order Day", "Order Day", "TimeDays", "Calendar day", "Order Date Rollup", "Order Date", "string")
			fr.AppendRow("Population Band", "Population Band", "Regular", "", "Geo Rollup", "Geography", "string")
		}
		return fr, nil
	case strings.Contains(query, "MDSCHEMA_MEASURES"):
		cols := []string{
			"MEASURE_NAME", "MEASURE_CAPTION", "MEASURE_AGGREGATOR",
			"DESCRIPTION", "MEASUREGROUP_NAME", "DATA_TYPE",
		}
		if f.licensed {
			cols = append(cols, "EXPRESSION")
		}
		fr := core.NewFrame(cols...)
		if f.licensed {
			fr.AppendRow("Sales", "Sales", "SUM", "", "Money", "double", "")
			fr.AppendRow("Profit", "Profit", "Calculated", "", "Money", "double", "[Sales]-[Cost]")
		} else {
			fr.AppendRow("Sales", "Sales", "SUM", "", "Money", "double")
			fr.AppendRow("Profit", "Profit", "Calculated", "", "Money", "double")
		}
		return fr, nil
	}
	return core.NewFrame(), nil
}

func TestPublishedFeaturesLicensed(t *testing.T) {
	svc := &fakeDMV{licensed: true}
	fm, err := PublishedFeatures(context.Background(), svc, "Sales Cube")
	require.NoError(t, err)

	day, ok := fm["Order Day"]
	require.True(t, ok)
	assert.Equal(t, core.FeatureTypeCategorical, day.FeatureType)
	assert.Equal(t, "TimeDays", day.AtScaleType)
	assert.Equal(t, []string{"Order Date Rollup"}, day.Hierarchy)
	assert.Equal(t, []string{"Time"}, day.Folder)
	assert.Equal(t, "string", day.DataType)
	assert.False(t, day.SecondaryAttribute)

	band, ok := fm["Population Band"]
	require.True(t, ok)
	assert.True(t, band.SecondaryAttribute)

	profit, ok := fm["Profit"]
	require.True(t, ok)
	assert.Equal(t, core.TypeCalculated, profit.AtScaleType)
	assert.Equal(t, "[Sales]-[Cost]", profit.Expression)
}

func TestPublishedFeaturesUnlicensedDefaultsGatedFields(t *testing.T) {
	svc := &fakeDMV{licensed: false}
	fm, err := PublishedFeatures(context.Background(), svc, "Sales Cube")
	require.NoError(t, err)

	band, ok := fm["Population Band"]
	require.True(t, ok)
	assert.False(t, band.SecondaryAttribute)

	profit, ok := fm["Profit"]
	require.True(t, ok)
	assert.Empty(t, profit.Expression)

	for _, q := range svc.queries {
		assert.NotContains(t, q, "[EXPRESSION]")
		assert.NotContains(t, q, "[IS_SECONDARY]")
	}
}

func TestPublishedFeaturesScopesQueriesToModel(t *testing.T) {
	svc := &fakeDMV{licensed: true}
	_, err := PublishedFeatures(context.Background(), svc, "Sales Cube",
		WithFeatures("Order Day"), WithFolders("Time"))
	require.NoError(t, err)

	for _, q := range svc.queries {
		assert.Contains(t, q, "[CUBE_NAME] = 'Sales Cube'")
	}
	joined := strings.Join(svc.queries, "\n")
	assert.Contains(t, joined, "[FOLDER] IN ('Time')")
	assert.Contains(t, joined, "[LEVEL_NAME] IN ('Order Day')")
}

func TestPublishedFeaturesTypeFilterSkipsQueries(t *testing.T) {
	svc := &fakeDMV{licensed: true}
	fm, err := PublishedFeatures(context.Background(), svc, "Sales Cube",
		WithType(core.FeatureTypeNumeric))
	require.NoError(t, err)

	assert.Contains(t, fm, "Sales")
	assert.NotContains(t, fm, "Order Day")
	for _, q := range svc.queries {
		assert.NotContains(t, q, "MDSCHEMA_LEVELS")
	}
}
