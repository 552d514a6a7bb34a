package core

// FeatureType classifies a catalog entry as categorical or numeric.
type FeatureType string

const (
	// FeatureTypeAll matches every feature when filtering.
	FeatureTypeAll FeatureType = "All"
	// FeatureTypeCategorical marks hierarchy levels and secondary attributes.
	FeatureTypeCategorical FeatureType = "Categorical"
	// FeatureTypeNumeric marks measures and calculated members.
	FeatureTypeNumeric FeatureType = "Numeric"
)

// Aggregation kinds derived from an attribute's properties. Anything else is
// the attribute's declared default aggregation (SUM, AVG, ...).
const (
	AggNonDistinctCount       = "NDC"
	AggDistinctCount          = "DC"
	AggDistinctCountEstimate  = "DCE"
	AggDefault                = "Aggregate"
	TypeCalculated            = "Calculated"
	LevelTypeRegular          = "Regular"
)

// Feature is one entry of the flat feature catalog, keyed externally by its
// query name. Roleplayed instances of one physical attribute are distinct
// entries sharing AttributeID and BaseName.
type Feature struct {
	// AttributeID is the id of the backing physical attribute, when known.
	AttributeID string

	Caption     string
	Description string

	// AtScaleType is a level-type for categorical entries, an aggregation
	// kind for measures, or "Calculated" for calculated members.
	AtScaleType string

	// DataType is populated by the published (DMV) catalog only.
	DataType string

	FeatureType FeatureType

	// Folder and Hierarchy are list-valued: a level can surface in several
	// hierarchies, each with its own folder.
	Folder    []string
	Hierarchy []string
	Dimension string

	// Expression is the calculation text for calculated members; empty for
	// physical measures.
	Expression string

	// Queryable is false for roleplayed levels that never received a real
	// roleplay reference.
	Queryable bool

	SecondaryAttribute bool

	// Roleplay resolution. BaseName always resolves to a primary
	// (non-roleplayed) entry; RoleplayExpression is the naming template.
	BaseName           string
	BaseHierarchy      []string
	BaseDimension      string
	RoleplayExpression string
	RoleplayRefID      string
}

// Roleplayed reports whether this entry is a roleplayed instance of its
// backing attribute rather than the primary one.
func (f *Feature) Roleplayed(queryName string) bool {
	return f.BaseName != "" && f.BaseName != queryName
}

// Clone returns a deep copy of the feature.
func (f *Feature) Clone() *Feature {
	c := *f
	c.Folder = append([]string(nil), f.Folder...)
	c.Hierarchy = append([]string(nil), f.Hierarchy...)
	c.BaseHierarchy = append([]string(nil), f.BaseHierarchy...)
	return &c
}

// Merge folds other into f following the catalog merge rule: list-valued
// fields are extended, scalar fields take the incoming value.
func (f *Feature) Merge(other *Feature) {
	f.Folder = append(f.Folder, other.Folder...)
	f.Hierarchy = append(f.Hierarchy, other.Hierarchy...)
	f.BaseHierarchy = append(f.BaseHierarchy, other.BaseHierarchy...)

	f.AttributeID = other.AttributeID
	f.Caption = other.Caption
	f.Description = other.Description
	f.AtScaleType = other.AtScaleType
	f.DataType = other.DataType
	f.FeatureType = other.FeatureType
	f.Dimension = other.Dimension
	f.Expression = other.Expression
	f.Queryable = other.Queryable
	f.SecondaryAttribute = other.SecondaryAttribute
	f.BaseName = other.BaseName
	f.BaseDimension = other.BaseDimension
	f.RoleplayExpression = other.RoleplayExpression
	f.RoleplayRefID = other.RoleplayRefID
}

// FeatureMap is a feature catalog: query name to metadata.
type FeatureMap map[string]*Feature

// Names returns the catalog's query names as a set for constant-time lookup.
func (m FeatureMap) Names() map[string]struct{} {
	set := make(map[string]struct{}, len(m))
	for name := range m {
		set[name] = struct{}{}
	}
	return set
}

// Clone returns a deep copy of the catalog.
func (m FeatureMap) Clone() FeatureMap {
	out := make(FeatureMap, len(m))
	for name, f := range m {
		out[name] = f.Clone()
	}
	return out
}
