package project_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ailink-labs/ailink/internal/project"
	"github.com/ailink-labs/ailink/internal/testutil"
	"github.com/ailink-labs/ailink/pkg/core"
)

func TestParseAndMarshalRoundTrip(t *testing.T) {
	p := testutil.SampleProject(t)

	assert.Equal(t, "proj1", p.ID)
	assert.Equal(t, "Internet Sales", p.Name)

	data, err := p.Marshal()
	require.NoError(t, err)

	again, err := project.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, p.ID, again.ID)
	assert.Equal(t, p.Name, again.Name)
	assert.Len(t, again.Cubes.Cubes, len(p.Cubes.Cubes))
	assert.Len(t, again.Dimensions.Dimensions, len(p.Dimensions.Dimensions))
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := project.Parse([]byte("not json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse project descriptor")
}

func TestCloneIsIndependent(t *testing.T) {
	p := testutil.SampleProject(t)
	c := p.Clone()

	c.Name = "changed"
	c.Cubes.Cubes[0].Name = "changed cube"

	assert.Equal(t, "Internet Sales", p.Name)
	assert.Equal(t, "Sales Cube", p.Cubes.Cubes[0].Name)
}

func TestCubeLookups(t *testing.T) {
	p := testutil.SampleProject(t)

	byID, err := p.CubeByID("cube1")
	require.NoError(t, err)
	assert.Equal(t, "Sales Cube", byID.Name)

	byName, err := p.CubeByName("Sales Cube")
	require.NoError(t, err)
	assert.Equal(t, "cube1", byName.ID)

	var userErr *core.UserError
	_, err = p.CubeByID("nope")
	require.ErrorAs(t, err, &userErr)
	assert.Contains(t, err.Error(), `no data model with id "nope"`)

	_, err = p.CubeByName("nope")
	require.ErrorAs(t, err, &userErr)
	assert.Contains(t, err.Error(), `no data model named "nope"`)
}

func TestAllDimensionsIncludesDegenerate(t *testing.T) {
	p := testutil.SampleProject(t)
	cube, err := p.CubeByID("cube1")
	require.NoError(t, err)

	dims := p.AllDimensions(cube)
	var names []string
	for _, d := range dims {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"Date", "Geography", "Product", "Status"}, names)
}

func TestAttributeLookups(t *testing.T) {
	p := testutil.SampleProject(t)
	cube, err := p.CubeByID("cube1")
	require.NoError(t, err)

	city, ok := p.KeyedAttributeByName(cube, "City")
	require.True(t, ok)
	assert.Equal(t, "a_city", city.ID)

	status, ok := p.KeyedAttributeByName(cube, "Order Status")
	require.True(t, ok)
	assert.Equal(t, "a_status", status.ID)

	_, ok = p.KeyedAttributeByName(cube, "Nope")
	assert.False(t, ok)

	sales, ok := p.MetricalAttributeByName(cube, "Sales")
	require.True(t, ok)
	assert.Equal(t, "m_sales", sales.ID)

	head, ok := p.MetricalAttributeByName(cube, "Headcount")
	require.True(t, ok)
	assert.Equal(t, "a_head", head.ID)

	profit, ok := p.CalculatedMemberByName("Profit")
	require.True(t, ok)
	assert.Equal(t, "[Sales]-[Cost]", profit.Expression)

	_, ok = p.CalculatedMemberByName("Nope")
	assert.False(t, ok)
}

func TestFeatureKeys(t *testing.T) {
	p := testutil.SampleProject(t)

	keys, err := p.FeatureKeys("cube1", []string{"City", "Country", "Day"})
	require.NoError(t, err)
	require.Len(t, keys, 3)

	city := keys["City"]
	assert.Equal(t, []string{"city_id", "country_id"}, city.KeyCols)
	assert.Equal(t, "city_name", city.ValueCol)
	assert.Equal(t, "city_dim", city.Table)
	assert.Equal(t, "public", city.Schema)
	assert.Equal(t, "wh", city.Database)
	assert.True(t, city.MultiKey())

	country := keys["Country"]
	assert.Equal(t, []string{"country_id"}, country.KeyCols)
	assert.Equal(t, "country_name", country.ValueCol)
	assert.False(t, country.MultiKey())

	day := keys["Day"]
	assert.Equal(t, []string{"date_key"}, day.KeyCols)
	assert.Equal(t, "date_name", day.ValueCol)
}

func TestFeatureKeysAggregatesMissing(t *testing.T) {
	p := testutil.SampleProject(t)

	_, err := p.FeatureKeys("cube1", []string{"City", "Zebra", "Aardvark"})
	require.Error(t, err)

	var userErr *core.UserError
	require.ErrorAs(t, err, &userErr)
	assert.Contains(t, err.Error(), "no join key could be resolved")
	assert.Contains(t, err.Error(), "Aardvark, Zebra")
}

func TestFeatureKeysUnknownCube(t *testing.T) {
	p := testutil.SampleProject(t)

	_, err := p.FeatureKeys("bogus", []string{"City"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no data model with id "bogus"`)
}
