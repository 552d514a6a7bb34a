package catalog

// roleplay.go - roleplay reference resolution and categorical feature parsing

import (
	"strings"

	"github.com/ailink-labs/ailink/internal/project"
	"github.com/ailink-labs/ailink/pkg/core"
)

// roleplayRef is one (naming template, reference id) pair. The template
// contains "{0}" where the base name is substituted; a ref id of "" marks
// the no-op identity roleplay.
type roleplayRef struct {
	naming string
	refID  string
}

func identityRef() roleplayRef {
	return roleplayRef{naming: project.IdentityTemplate, refID: ""}
}

// roleplayTable maps a physical attribute id to the roleplay references it
// appears under. An attribute absent from the table was never reached by a
// roleplay seed; levels backed by such attributes are not queryable.
type roleplayTable map[string][]roleplayRef

// add appends ref to the attribute's list unless an equal pair is already
// present, and reports whether the table grew. Deduplication keeps the fixed
// point idempotent on a stable table.
func (t roleplayTable) add(attrID string, ref roleplayRef) bool {
	for _, have := range t[attrID] {
		if have == ref {
			return false
		}
	}
	t[attrID] = append(t[attrID], ref)
	return true
}

// buildRoleplayTable resolves which roleplay references apply to every
// attribute reachable from the cube's datasets.
//
// Seeds come from dataset key-refs marked incomplete: those are join keys
// into another dataset, and their ref-path carries the naming template for
// the roleplayed copy. The seeds attach to the keyed attributes backed by
// those keys, then propagate down the dimension trees: a level whose primary
// attribute is roleplayed passes its accumulated references to every
// secondary and metrical attribute attached to the level, composing naming
// templates along the way. Dimensions can snowflake (a level's attribute can
// be the key of another dataset), so propagation iterates to a fixed point
// instead of recursing. A final pass assigns the identity reference to
// attached attributes of levels the seeds never reached.
func buildRoleplayTable(p *project.Project, cube *project.Cube) roleplayTable {
	keyRefs := make(map[string][]roleplayRef)
	for _, dsr := range cube.DataSets.DataSetRefs {
		for _, key := range dsr.Logical.KeyRefs {
			if key.Complete != "false" {
				continue
			}
			ref := identityRef()
			if key.RefPath != nil {
				ref = roleplayRef{
					naming: key.RefPath.NewRef.RefNaming,
					refID:  key.RefPath.NewRef.RefID,
				}
			}
			keyRefs[key.ID] = append(keyRefs[key.ID], ref)
		}
	}

	table := make(roleplayTable)
	for _, attr := range p.Attributes.KeyedAttributes {
		if attr.KeyRef == "" {
			continue
		}
		for _, ref := range keyRefs[attr.KeyRef] {
			table.add(attr.ID, ref)
		}
	}
	for _, attr := range p.Attributes.Attributes {
		if refs, ok := keyRefs[attr.KeyRef]; ok && attr.KeyRef != "" {
			for _, ref := range refs {
				table.add(attr.ID, ref)
			}
		} else if refs, ok := keyRefs[attr.ID]; ok {
			// Snowflaked dimensions key metrical attributes by their own id.
			for _, ref := range refs {
				table.add(attr.ID, ref)
			}
		}
	}

	propagate := func(finalPass bool) bool {
		grew := false
		for _, dim := range p.Dimensions.Dimensions {
			for _, hier := range dim.Hierarchies {
				for _, level := range hier.Levels {
					baseRefs, seeded := table[level.PrimaryAttribute]
					if !seeded {
						if !finalPass {
							continue
						}
						baseRefs = []roleplayRef{identityRef()}
					}
					if !level.Properties.IsVisible() {
						continue
					}
					for _, key := range level.KeyedAttributeRefs {
						for _, base := range baseRefs {
							ref := identityRef()
							ref.naming = base.naming
							if rp := key.Properties.RefPath; rp != nil {
								ref = roleplayRef{
									naming: strings.Replace(base.naming, "{0}", rp.NewRef.RefNaming, 1),
									refID:  rp.NewRef.RefID,
								}
							}
							if table.add(key.AttributeID, ref) {
								grew = true
							}
						}
					}
					for _, key := range level.AttributeRefs {
						for _, base := range baseRefs {
							if table.add(key.AttributeID, roleplayRef{naming: base.naming}) {
								grew = true
							}
						}
					}
				}
			}
		}
		return grew
	}

	for propagate(false) {
	}
	propagate(true)

	return table
}

// attrIndex indexes every attribute definition visible to the walk and
// carries the derived metadata for metrical attributes.
type attrIndex struct {
	keyed    map[string]*project.KeyedAttribute
	metrical map[string]*project.MetricalAttribute
}

func indexAttributes(p *project.Project) attrIndex {
	idx := attrIndex{
		keyed:    make(map[string]*project.KeyedAttribute),
		metrical: make(map[string]*project.MetricalAttribute),
	}
	for i := range p.Attributes.KeyedAttributes {
		a := &p.Attributes.KeyedAttributes[i]
		idx.keyed[a.ID] = a
	}
	for i := range p.Attributes.Attributes {
		a := &p.Attributes.Attributes[i]
		idx.metrical[a.ID] = a
	}
	return idx
}

func (idx attrIndex) name(attrID string) string {
	if a, ok := idx.keyed[attrID]; ok {
		return a.Name
	}
	if a, ok := idx.metrical[attrID]; ok {
		return a.Name
	}
	return ""
}

func (idx attrIndex) properties(attrID string) project.Properties {
	if a, ok := idx.keyed[attrID]; ok {
		return a.Properties
	}
	if a, ok := idx.metrical[attrID]; ok {
		return a.Properties
	}
	return project.Properties{}
}

// apply substitutes the base name into the naming template.
func (r roleplayRef) apply(base string) string {
	return strings.Replace(r.naming, "{0}", base, 1)
}

// categoricalFeatures emits one catalog entry per (attribute, roleplay
// reference) pair found in the project-level dimension trees.
//
// Hierarchies are walked leaf to root because a roleplay declared at a
// parent level applies to every level at or below it: the walk accumulates
// the roleplayed attribute ids seen so far and re-applies the whole set at
// each level. When two hierarchies produce the same resolved display name
// the entries merge: list fields extend, scalar fields take the last write.
func categoricalFeatures(p *project.Project, cube *project.Cube) core.FeatureMap {
	table := buildRoleplayTable(p, cube)
	idx := indexAttributes(p)

	out := make(core.FeatureMap)

	for _, dim := range p.Dimensions.Dimensions {
		for _, hier := range dim.Hierarchies {
			folder := hier.Properties.Folder

			// Attribute ids whose roleplays govern the current level; grows
			// as the walk climbs from the leaf.
			governing := make(map[string]struct{})

			for li := len(hier.Levels) - 1; li >= 0; li-- {
				level := hier.Levels[li]
				if !level.Properties.IsVisible() {
					continue
				}
				if _, ok := table[level.PrimaryAttribute]; ok {
					governing[level.PrimaryAttribute] = struct{}{}
				}
				apply := make([]string, 0, len(governing))
				for id := range governing {
					apply = append(apply, id)
				}
				if len(apply) == 0 {
					apply = []string{level.PrimaryAttribute}
				}

				for _, govID := range apply {
					refs, queryable := table[govID]
					if !queryable {
						refs = append(refs, identityRef())
					}
					emitLevel(out, idx, dim, hier, level, folder, refs, queryable)
					emitSecondaries(out, idx, dim, hier, level, folder, refs, queryable)
					emitMetricals(out, idx, hier, level, folder, refs, queryable)
				}
			}
		}
	}
	return out
}

// emitLevel adds the entries for a level's primary attribute.
func emitLevel(
	out core.FeatureMap,
	idx attrIndex,
	dim project.Dimension,
	hier project.Hierarchy,
	level project.Level,
	folder string,
	refs []roleplayRef,
	queryable bool,
) {
	baseName := idx.name(level.PrimaryAttribute)
	props := idx.properties(level.PrimaryAttribute)
	levelType := level.Properties.LevelType
	if levelType == "" {
		levelType = core.LevelTypeRegular
	}

	for _, ref := range refs {
		name := ref.apply(baseName)
		f := &core.Feature{
			AttributeID:        level.PrimaryAttribute,
			Caption:            ref.apply(props.Caption),
			Description:        props.Description,
			AtScaleType:        levelType,
			FeatureType:        core.FeatureTypeCategorical,
			Folder:             []string{folder},
			Hierarchy:          []string{ref.apply(hier.Name)},
			Dimension:          ref.apply(dim.Name),
			Queryable:          queryable,
			BaseName:           baseName,
			BaseHierarchy:      []string{hier.Name},
			BaseDimension:      dim.Name,
			RoleplayExpression: ref.naming,
			RoleplayRefID:      ref.refID,
		}
		if have, ok := out[name]; ok {
			if !contains(have.Hierarchy, f.Hierarchy[0]) {
				have.Merge(f)
			}
		} else {
			out[name] = f
		}
	}
}

// emitSecondaries adds entries for the level's attached secondary
// attributes. A ref carrying an explicit ref-id belongs to a join handled
// outside roleplay resolution and is skipped here.
func emitSecondaries(
	out core.FeatureMap,
	idx attrIndex,
	dim project.Dimension,
	hier project.Hierarchy,
	level project.Level,
	folder string,
	refs []roleplayRef,
	queryable bool,
) {
	for _, attr := range level.KeyedAttributeRefs {
		if attr.RefID != "" {
			continue
		}
		baseName := idx.name(attr.AttributeID)
		props := idx.properties(attr.AttributeID)
		attrFolder := folder
		if props.Folder != "" {
			attrFolder = props.Folder
		}
		for _, ref := range refs {
			name := ref.apply(baseName)
			out[name] = &core.Feature{
				AttributeID:        attr.AttributeID,
				Caption:            ref.apply(props.Caption),
				Description:        props.Description,
				AtScaleType:        core.LevelTypeRegular,
				FeatureType:        core.FeatureTypeCategorical,
				Folder:             []string{attrFolder},
				Hierarchy:          []string{ref.apply(baseName)},
				Dimension:          ref.apply(dim.Name),
				Queryable:          queryable,
				SecondaryAttribute: true,
				BaseName:           baseName,
				BaseHierarchy:      []string{hier.Name},
				BaseDimension:      dim.Name,
				RoleplayExpression: ref.naming,
				RoleplayRefID:      ref.refID,
			}
		}
	}
}

// emitMetricals adds entries for the level's attached metrical attributes.
// They surface as numeric features with no hierarchy membership.
func emitMetricals(
	out core.FeatureMap,
	idx attrIndex,
	hier project.Hierarchy,
	level project.Level,
	folder string,
	refs []roleplayRef,
	queryable bool,
) {
	for _, attr := range level.AttributeRefs {
		if attr.RefID != "" {
			continue
		}
		def, ok := idx.metrical[attr.AttributeID]
		if !ok {
			continue
		}
		attrFolder := folder
		if def.Properties.Folder != "" {
			attrFolder = def.Properties.Folder
		}
		for _, ref := range refs {
			name := ref.apply(def.Name)
			out[name] = &core.Feature{
				AttributeID:        attr.AttributeID,
				Caption:            ref.apply(def.Properties.Caption),
				Description:        def.Properties.Description,
				AtScaleType:        aggKind(def.Properties),
				FeatureType:        core.FeatureTypeNumeric,
				Folder:             []string{attrFolder},
				Expression:         "",
				Queryable:          queryable,
				BaseName:           def.Name,
				BaseHierarchy:      []string{hier.Name},
				RoleplayExpression: ref.naming,
				RoleplayRefID:      ref.refID,
			}
		}
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
