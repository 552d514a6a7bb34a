package catalog

// measures.go - cube measures and calculated members

import (
	"github.com/ailink-labs/ailink/internal/project"
	"github.com/ailink-labs/ailink/pkg/core"
)

// aggKind derives the aggregation kind shown for a measure from its declared
// properties: count-nonnull and count-distinct beat the declared default
// aggregation, and an attribute declaring nothing shows the generic kind.
func aggKind(props project.Properties) string {
	t := props.Type
	if t == nil {
		return core.AggDefault
	}
	if t.HasCountNonNull() {
		return core.AggNonDistinctCount
	}
	if t.CountDistinct != nil {
		if t.CountDistinct.Approximate {
			return core.AggDistinctCountEstimate
		}
		return core.AggDistinctCount
	}
	if t.Measure != nil && t.Measure.DefaultAggregation != "" {
		return t.Measure.DefaultAggregation
	}
	return core.AggDefault
}

// aggregateFeatures parses the cube's own measures.
func aggregateFeatures(cube *project.Cube) core.FeatureMap {
	out := make(core.FeatureMap, len(cube.Attributes.Attributes))
	for i := range cube.Attributes.Attributes {
		attr := &cube.Attributes.Attributes[i]
		out[attr.Name] = &core.Feature{
			AttributeID: attr.ID,
			Caption:     attr.Properties.Caption,
			Description: attr.Properties.Description,
			AtScaleType: aggKind(attr.Properties),
			FeatureType: core.FeatureTypeNumeric,
			Folder:      []string{attr.Properties.Folder},
			Expression:  "",
			Queryable:   true,
			BaseName:    attr.Name,
		}
	}
	return out
}

// calculatedFeatures parses the project calculated members referenced from
// the cube. The expression is carried verbatim.
func calculatedFeatures(p *project.Project, cube *project.Cube) core.FeatureMap {
	refs := make(map[string]struct{}, len(cube.CalculatedMembers.Refs))
	for _, r := range cube.CalculatedMembers.Refs {
		refs[r.ID] = struct{}{}
	}

	out := make(core.FeatureMap)
	for i := range p.CalculatedMembers.Members {
		m := &p.CalculatedMembers.Members[i]
		if _, ok := refs[m.ID]; !ok {
			continue
		}
		out[m.Name] = &core.Feature{
			AttributeID: m.ID,
			Caption:     m.Properties.Caption,
			Description: m.Properties.Description,
			AtScaleType: core.TypeCalculated,
			FeatureType: core.FeatureTypeNumeric,
			Folder:      []string{m.Properties.Folder},
			Expression:  m.Expression,
			Queryable:   true,
			BaseName:    m.Name,
		}
	}
	return out
}
