package catalog

// denormalized.go - cube-local (degenerate) dimension features

import (
	"github.com/ailink-labs/ailink/internal/project"
	"github.com/ailink-labs/ailink/pkg/core"
)

// levelMembership records where an attribute surfaces inside the cube's own
// dimension trees. Degenerate dimensions cannot roleplay, so membership is
// keyed by the bare attribute id.
type levelMembership struct {
	folders   []string
	hierarchy []string
	dimension string
	levelType string
	secondary bool
	metrical  bool
}

// denormalizedFeatures parses the categorical features defined by the cube's
// own dimensions. These are built directly on fact-table columns and carry
// no roleplay; a level appearing in several hierarchies extends its folder
// and hierarchy lists instead of duplicating the entry.
func denormalizedFeatures(p *project.Project, cube *project.Cube) core.FeatureMap {
	membership := make(map[string]*levelMembership)

	for _, dim := range cube.Dimensions.Dimensions {
		for _, hier := range dim.Hierarchies {
			folder := hier.Properties.Folder
			for _, level := range hier.Levels {
				ids := []string{level.PrimaryAttribute}
				metricals := make(map[string]struct{})
				for _, attr := range level.KeyedAttributeRefs {
					ids = append(ids, attr.AttributeID)
				}
				for _, attr := range level.AttributeRefs {
					ids = append(ids, attr.AttributeID)
					metricals[attr.AttributeID] = struct{}{}
				}
				for _, id := range ids {
					if m, ok := membership[id]; ok {
						if !contains(m.hierarchy, hier.Name) {
							m.folders = append(m.folders, folder)
							m.hierarchy = append(m.hierarchy, hier.Name)
						}
						continue
					}
					levelType := level.Properties.LevelType
					if levelType == "" {
						levelType = core.LevelTypeRegular
					}
					m := &levelMembership{
						folders:   []string{folder},
						hierarchy: []string{hier.Name},
						dimension: dim.Name,
						levelType: levelType,
						secondary: id != level.PrimaryAttribute,
					}
					if _, ok := metricals[id]; ok {
						m.metrical = true
					}
					membership[id] = m
				}
			}
		}
	}

	out := make(core.FeatureMap)
	emit := func(id, name string, props project.Properties) {
		m, ok := membership[id]
		if !ok {
			return
		}
		if m.metrical {
			out[name] = &core.Feature{
				AttributeID: id,
				Caption:     props.Caption,
				Description: props.Description,
				AtScaleType: aggKind(props),
				FeatureType: core.FeatureTypeNumeric,
				Folder:      append([]string(nil), m.folders...),
				Expression:  "",
				Queryable:   true,
				BaseName:    name,
			}
			return
		}
		f := &core.Feature{
			AttributeID:        id,
			Caption:            props.Caption,
			Description:        props.Description,
			AtScaleType:        m.levelType,
			FeatureType:        core.FeatureTypeCategorical,
			Folder:             append([]string(nil), m.folders...),
			Hierarchy:          append([]string(nil), m.hierarchy...),
			Dimension:          m.dimension,
			Queryable:          true,
			SecondaryAttribute: m.secondary,
			BaseName:           name,
		}
		if m.secondary {
			// Secondary attributes group under their own name and keep
			// their own folder when one is declared.
			if props.Folder != "" {
				f.Folder = []string{props.Folder}
			}
			f.Hierarchy = []string{name}
		}
		out[name] = f
	}

	for i := range cube.Attributes.KeyedAttributes {
		a := &cube.Attributes.KeyedAttributes[i]
		emit(a.ID, a.Name, a.Properties)
	}
	// Cube dimension levels can also reference project-level attributes.
	for i := range p.Attributes.KeyedAttributes {
		a := &p.Attributes.KeyedAttributes[i]
		emit(a.ID, a.Name, a.Properties)
	}
	for i := range p.Attributes.Attributes {
		a := &p.Attributes.Attributes[i]
		emit(a.ID, a.Name, a.Properties)
	}
	return out
}
