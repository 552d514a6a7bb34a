// Package project models the semantic-layer project descriptor: dimensions,
// hierarchies, levels, attributes, measures, calculated members, datasets
// and perspectives, as exchanged with the design-time service API.
//
// The descriptor is read-only for catalog resolution and query compilation;
// perspective writes operate on a Clone and hand the patched copy back to
// the service. Concurrent edits of one descriptor are not guarded; callers
// must serialize writes externally.
package project

import "encoding/json"

// Identity is the no-op roleplay naming template.
const IdentityTemplate = "{0}"

// Project is the root of the descriptor tree.
type Project struct {
	ID                string                 `json:"id"`
	Name              string                 `json:"name"`
	Attributes        AttributeBlock         `json:"attributes"`
	Dimensions        DimensionBlock         `json:"dimensions"`
	Datasets          DatasetBlock           `json:"datasets"`
	Cubes             CubeBlock              `json:"cubes"`
	CalculatedMembers CalculatedMemberBlock  `json:"calculated-members"`
	Perspectives      PerspectiveBlock       `json:"perspectives"`
}

// AttributeBlock groups keyed (categorical) and metrical attributes.
type AttributeBlock struct {
	KeyedAttributes []KeyedAttribute    `json:"keyed-attribute,omitempty"`
	Attributes      []MetricalAttribute `json:"attribute,omitempty"`
}

// Properties carries the display metadata shared by descriptor nodes.
type Properties struct {
	Caption     string `json:"caption,omitempty"`
	Description string `json:"description,omitempty"`
	Folder      string `json:"folder,omitempty"`
	// Visible defaults to true when absent.
	Visible   *bool  `json:"visible,omitempty"`
	LevelType string `json:"level-type,omitempty"`
	// Type is set on metrical attributes and cube measures only.
	Type *AggTypeProps `json:"type,omitempty"`
}

// IsVisible treats a missing visible flag as true.
func (p Properties) IsVisible() bool {
	return p.Visible == nil || *p.Visible
}

// KeyedAttribute is a categorical attribute definition. KeyRef names the
// logical key that backs it.
type KeyedAttribute struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	KeyRef     string     `json:"key-ref,omitempty"`
	Properties Properties `json:"properties"`
}

// MetricalAttribute is a numeric attribute attached to a dimension level.
// Its aggregation is declared under Properties.Type.
type MetricalAttribute struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	KeyRef     string     `json:"key-ref,omitempty"`
	Properties Properties `json:"properties"`
}

// AggTypeProps describes how a metrical attribute or measure aggregates.
type AggTypeProps struct {
	CountNonNull  json.RawMessage `json:"count-nonnull,omitempty"`
	CountDistinct *CountDistinct  `json:"count-distinct,omitempty"`
	Measure       *MeasureProps   `json:"measure,omitempty"`
}

// HasCountNonNull reports whether a count-nonnull aggregation is declared.
func (a AggTypeProps) HasCountNonNull() bool {
	return len(a.CountNonNull) > 0 && string(a.CountNonNull) != "null"
}

// CountDistinct marks a distinct-count aggregation, possibly approximate.
type CountDistinct struct {
	Approximate bool `json:"approximate,omitempty"`
}

// MeasureProps carries the declared default aggregation (SUM, AVG, ...).
type MeasureProps struct {
	DefaultAggregation string `json:"default-aggregation,omitempty"`
}

// DimensionBlock wraps the dimension list.
type DimensionBlock struct {
	Dimensions []Dimension `json:"dimension,omitempty"`
}

// Dimension is a top-level grouping of hierarchies.
type Dimension struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Properties  Properties  `json:"properties"`
	Hierarchies []Hierarchy `json:"hierarchy,omitempty"`
}

// Hierarchy is an ordered drill path of levels.
type Hierarchy struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Properties Properties `json:"properties"`
	Levels     []Level    `json:"level,omitempty"`
}

// Level is one grouping granularity in a hierarchy. PrimaryAttribute is the
// id of the keyed attribute that defines it; KeyedAttributeRefs are attached
// secondary attributes and AttributeRefs attached metrical attributes.
type Level struct {
	ID               string         `json:"id"`
	PrimaryAttribute string         `json:"primary-attribute"`
	Properties       Properties     `json:"properties"`
	KeyedAttributeRefs []AttributeRef `json:"keyed-attribute-ref,omitempty"`
	AttributeRefs      []AttributeRef `json:"attribute-ref,omitempty"`
}

// AttributeRef attaches an attribute to a level. A ref carrying an explicit
// RefID belongs to a join handled outside roleplay resolution.
type AttributeRef struct {
	AttributeID string        `json:"attribute-id"`
	RefID       string        `json:"ref-id,omitempty"`
	Properties  RefProperties `json:"properties"`
}

// RefProperties optionally carries a roleplay reference path.
type RefProperties struct {
	RefPath *RefPath `json:"ref-path,omitempty"`
}

// RefPath declares a roleplay: a naming template plus the reference id.
type RefPath struct {
	NewRef NewRef `json:"new-ref"`
}

// NewRef is the body of a roleplay reference path. RefNaming is a template
// containing "{0}" where the base name is substituted.
type NewRef struct {
	RefNaming string `json:"ref-naming"`
	RefID     string `json:"ref-id"`
}

// DatasetBlock wraps the project-level dataset list.
type DatasetBlock struct {
	Datasets []Dataset `json:"data-set,omitempty"`
}

// Dataset binds a physical table to logical keys and attribute columns.
type Dataset struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Physical PhysicalTable `json:"physical"`
	Logical  Logical       `json:"logical"`
}

// PhysicalTable locates the warehouse table behind a dataset.
type PhysicalTable struct {
	Table    string `json:"name,omitempty"`
	Schema   string `json:"schema,omitempty"`
	Database string `json:"database,omitempty"`
}

// Logical lists a dataset's key definitions and attribute column bindings.
type Logical struct {
	KeyRefs       []DataKeyRef          `json:"key-ref,omitempty"`
	AttributeRefs []LogicalAttributeRef `json:"attribute-ref,omitempty"`
}

// DataKeyRef defines (or references) a logical key over dataset columns.
// Complete=="false" on a cube dataset reference marks an incomplete join key
// whose RefPath seeds roleplay resolution.
type DataKeyRef struct {
	ID       string   `json:"id"`
	Complete string   `json:"complete,omitempty"`
	Unique   bool     `json:"unique,omitempty"`
	Columns  []string `json:"column,omitempty"`
	RefPath  *RefPath `json:"ref-path,omitempty"`
}

// LogicalAttributeRef binds an attribute id to its value column(s).
type LogicalAttributeRef struct {
	ID      string   `json:"id"`
	Columns []string `json:"column,omitempty"`
}

// CubeBlock wraps the cube list.
type CubeBlock struct {
	Cubes []Cube `json:"cube,omitempty"`
}

// Cube is a data model: dataset references plus cube-local attributes,
// dimensions and calculated-member references.
type Cube struct {
	ID                string                   `json:"id"`
	Name              string                   `json:"name"`
	Properties        Properties               `json:"properties"`
	DataSets          DataSetRefBlock          `json:"data-sets"`
	Attributes        AttributeBlock           `json:"attributes"`
	Dimensions        DimensionBlock           `json:"dimensions"`
	CalculatedMembers CalculatedMemberRefBlock `json:"calculated-members"`
}

// DataSetRefBlock wraps a cube's dataset references.
type DataSetRefBlock struct {
	DataSetRefs []DataSetRef `json:"data-set-ref,omitempty"`
}

// DataSetRef references a project dataset from a cube.
type DataSetRef struct {
	ID      string  `json:"id"`
	Logical Logical `json:"logical"`
}

// CalculatedMemberBlock wraps the project-level calculated member list.
type CalculatedMemberBlock struct {
	Members []CalculatedMember `json:"calculated-member,omitempty"`
}

// CalculatedMember is a measure defined by an expression over other
// measures rather than a physical column aggregation.
type CalculatedMember struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Expression string     `json:"expression"`
	Properties Properties `json:"properties"`
}

// CalculatedMemberRefBlock wraps a cube's calculated-member references.
type CalculatedMemberRefBlock struct {
	Refs []IDRef `json:"calculated-member-ref,omitempty"`
}

// IDRef is a bare id reference.
type IDRef struct {
	ID string `json:"id"`
}
