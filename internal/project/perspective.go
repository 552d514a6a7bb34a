package project

// PerspectiveBlock wraps the perspective list.
type PerspectiveBlock struct {
	Perspectives []Perspective `json:"perspective,omitempty"`
}

// Perspective is a named visibility overlay on a cube. It records which
// dimensions, hierarchies, levels, flat attributes and calculated members
// the overlay hides from consumers.
type Perspective struct {
	ID                string              `json:"id"`
	Name              string              `json:"name"`
	CubeRef           string              `json:"cube-ref"`
	CalculatedMembers PerspCalcBlock      `json:"calculated-members"`
	FlatAttributes    FlatAttributeBlock  `json:"flat-attributes"`
	FlatDimensions    FlatDimensionBlock  `json:"flat-dimensions"`
}

// PerspCalcBlock wraps hidden calculated-member references.
type PerspCalcBlock struct {
	Refs []FlatRef `json:"calculated-member-ref,omitempty"`
}

// FlatAttributeBlock wraps hidden measure and secondary-attribute references.
// Secondary categorical attributes land here rather than under a hierarchy,
// mirroring an asymmetry in the underlying protocol schema.
type FlatAttributeBlock struct {
	Refs []FlatRef `json:"flat-attribute-ref,omitempty"`
}

// FlatDimensionBlock wraps the per-dimension overlay nodes.
type FlatDimensionBlock struct {
	Refs []FlatDimensionRef `json:"flat-dimension-ref,omitempty"`
}

// FlatDimensionRef overlays one dimension. Visible=false hides the whole
// dimension; Visible=true carries nested hierarchy overlays.
type FlatDimensionRef struct {
	ID          string             `json:"id"`
	Properties  VisibleProps       `json:"properties"`
	RefPath     *OverlayRefPath    `json:"ref-path,omitempty"`
	Hierarchies []FlatHierarchyRef `json:"flat-hierarchy-ref,omitempty"`
}

// FlatHierarchyRef overlays one hierarchy within a dimension node.
type FlatHierarchyRef struct {
	ID         string         `json:"id"`
	Properties VisibleProps   `json:"properties"`
	Levels     []FlatLevelRef `json:"flat-level-ref,omitempty"`
}

// FlatLevelRef hides one level by its primary attribute id.
type FlatLevelRef struct {
	PrimaryAttribute string       `json:"primary-attribute"`
	Properties       VisibleProps `json:"properties"`
}

// FlatRef hides one flat attribute or calculated member. RefPath carries the
// roleplay reference when the hidden object is a roleplayed instance.
type FlatRef struct {
	ID         string          `json:"id"`
	Properties VisibleProps    `json:"properties"`
	RefPath    *OverlayRefPath `json:"ref-path,omitempty"`
}

// VisibleProps is the properties block carried by every overlay node.
// Hidden objects are recorded with visible set to false.
type VisibleProps struct {
	Visible bool `json:"visible"`
}

// OverlayRefPath is the roleplay reference carried by overlay nodes.
type OverlayRefPath struct {
	Refs []IDRef `json:"ref,omitempty"`
}

// RefID returns the first roleplay reference id, or "".
func (p *OverlayRefPath) RefID() string {
	if p == nil || len(p.Refs) == 0 {
		return ""
	}
	return p.Refs[0].ID
}
