// Package perspective builds and updates perspectives: named visibility
// overlays that hide a chosen subset of a model's dimensions, hierarchies
// and features from consumers.
//
// Hiding is hierarchical. A hidden dimension implicitly hides all its
// hierarchies and levels, so the builder suppresses overlay entries for
// objects whose ancestor is already hidden, and merges hide requests that
// land on the same dimension or hierarchy node (matched by id and roleplay
// reference path) into one node instead of duplicating it.
package perspective

import (
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/ailink-labs/ailink/internal/catalog"
	"github.com/ailink-labs/ailink/internal/project"
	"github.com/ailink-labs/ailink/pkg/core"
)

// Request names what the perspective hides. All object names are display
// names, so roleplayed instances are addressed by their roleplayed name.
type Request struct {
	Name        string
	Dimensions  []string
	Hierarchies []string
	Categorical []string
	Numeric     []string
	// Update mutates the existing perspective with this name instead of
	// creating a new one.
	Update bool

	Logger *slog.Logger
}

// Build assembles the perspective and returns its id together with a
// patched copy of the descriptor. The original descriptor is not touched;
// handing the patched copy to the service is the caller's concern.
func Build(p *project.Project, modelName string, req Request) (string, *project.Project, error) {
	logger := req.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	patched := p.Clone()
	cube, err := patched.CubeByName(modelName)
	if err != nil {
		return "", nil, err
	}

	var perspectiveID string
	if req.Update {
		existing := patched.PerspectiveByName(req.Name)
		if existing == nil {
			return "", nil, core.UserErrorf("no perspective named %q exists", req.Name)
		}
		perspectiveID = existing.ID
	} else {
		if patched.PerspectiveByName(req.Name) != nil {
			return "", nil, core.UserErrorf("a perspective named %q already exists", req.Name)
		}
		perspectiveID = uuid.NewString()
	}

	numericInfo, err := catalog.DraftFeatures(patched, modelName, catalog.WithType(core.FeatureTypeNumeric))
	if err != nil {
		return "", nil, err
	}
	categoricalInfo, err := catalog.DraftFeatures(patched, modelName, catalog.WithType(core.FeatureTypeCategorical))
	if err != nil {
		return "", nil, err
	}
	rp := indexRoleplays(categoricalInfo)

	if err := checkNamed(req.Numeric, numericInfo.Names(), "numeric features"); err != nil {
		return "", nil, err
	}
	if err := checkNamed(req.Categorical, categoricalInfo.Names(), "categorical features"); err != nil {
		return "", nil, err
	}
	if err := checkNamed(req.Hierarchies, rp.realHierarchies, "hierarchies"); err != nil {
		return "", nil, err
	}

	persp := project.Perspective{
		ID:      perspectiveID,
		Name:    req.Name,
		CubeRef: cube.ID,
	}

	b := &builder{
		project:         patched,
		cube:            cube,
		persp:           &persp,
		roleplays:       rp,
		numericInfo:     numericInfo,
		categoricalInfo: categoricalInfo,
		logger:          logger,
	}

	if err := b.hideNumeric(req.Numeric); err != nil {
		return "", nil, err
	}
	if err := b.hideDimensions(req.Dimensions); err != nil {
		return "", nil, err
	}
	b.hideHierarchies(req.Hierarchies)
	b.hideCategorical(req.Categorical)

	perspectives := &patched.Perspectives.Perspectives
	if req.Update {
		for i := range *perspectives {
			if (*perspectives)[i].ID == perspectiveID {
				(*perspectives)[i] = persp
			}
		}
	} else {
		*perspectives = append(*perspectives, persp)
	}

	logger.Info("built perspective",
		slog.String("name", req.Name),
		slog.String("id", perspectiveID),
		slog.Bool("update", req.Update))

	return perspectiveID, patched, nil
}

// checkNamed verifies every requested name exists, aggregating the missing
// ones into a single error.
func checkNamed(requested []string, known map[string]struct{}, kind string) error {
	var missing []string
	for _, name := range requested {
		if _, ok := known[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return core.UserErrorf("the following %s do not exist in the data model: %s",
			kind, strings.Join(missing, ", "))
	}
	return nil
}

// roleplayIndex maps display names of hierarchies and dimensions back to
// their base objects and roleplay reference ids.
type roleplayIndex struct {
	hierarchies     map[string]roleplayTarget
	dimensions      map[string]roleplayTarget
	realHierarchies map[string]struct{}
}

type roleplayTarget struct {
	base  string
	refID string
}

func indexRoleplays(categorical core.FeatureMap) roleplayIndex {
	rp := roleplayIndex{
		hierarchies:     make(map[string]roleplayTarget),
		dimensions:      make(map[string]roleplayTarget),
		realHierarchies: make(map[string]struct{}),
	}
	for _, f := range categorical {
		baseHier := f.BaseHierarchy
		if len(baseHier) == 0 {
			baseHier = f.Hierarchy
		}
		for i, hier := range f.Hierarchy {
			if _, ok := rp.hierarchies[hier]; !ok && i < len(baseHier) {
				rp.hierarchies[hier] = roleplayTarget{base: baseHier[i], refID: f.RoleplayRefID}
			}
			if !f.SecondaryAttribute {
				rp.realHierarchies[hier] = struct{}{}
			}
		}
		if f.Dimension != "" {
			if _, ok := rp.dimensions[f.Dimension]; !ok {
				base := f.Dimension
				if f.BaseDimension != "" {
					base = f.BaseDimension
				}
				rp.dimensions[f.Dimension] = roleplayTarget{base: base, refID: f.RoleplayRefID}
			}
		}
	}
	return rp
}

// builder carries the state threaded through the hide phases.
type builder struct {
	project         *project.Project
	cube            *project.Cube
	persp           *project.Perspective
	roleplays       roleplayIndex
	numericInfo     core.FeatureMap
	categoricalInfo core.FeatureMap
	logger          *slog.Logger

	hiddenDimensions  []string
	hiddenHierarchies []string
}

func refPathFor(refID string) *project.OverlayRefPath {
	if refID == "" {
		return nil
	}
	return &project.OverlayRefPath{Refs: []project.IDRef{{ID: refID}}}
}

// hideNumeric routes numeric features to flat-attribute entries (measures)
// or calculated-member entries, depending on how they aggregate.
func (b *builder) hideNumeric(names []string) error {
	for _, name := range names {
		info := b.numericInfo[name]
		base := name
		if info.BaseName != "" {
			base = info.BaseName
		}
		if info.AtScaleType == core.TypeCalculated {
			member, ok := b.project.CalculatedMemberByName(name)
			if !ok {
				return core.UserErrorf("no calculated member named %q found", name)
			}
			b.persp.CalculatedMembers.Refs = append(b.persp.CalculatedMembers.Refs, project.FlatRef{
				ID: member.ID,
			})
			continue
		}
		attr, ok := b.project.MetricalAttributeByName(b.cube, base)
		if !ok {
			return core.UserErrorf("no measure named %q found", base)
		}
		ref := project.FlatRef{ID: attr.ID}
		if base != name {
			ref.RefPath = refPathFor(info.RoleplayRefID)
		}
		b.persp.FlatAttributes.Refs = append(b.persp.FlatAttributes.Refs, ref)
	}
	return nil
}

// hideDimensions emits one hidden dimension node per requested dimension.
func (b *builder) hideDimensions(names []string) error {
	for _, name := range names {
		target, ok := b.roleplays.dimensions[name]
		if !ok {
			return core.UserErrorf("no dimension named %q found", name)
		}
		var node *project.FlatDimensionRef
		for _, dim := range b.project.AllDimensions(b.cube) {
			if dim.Name != target.base {
				continue
			}
			node = &project.FlatDimensionRef{ID: dim.ID}
			if name != target.base {
				node.RefPath = refPathFor(target.refID)
			}
			break
		}
		if node == nil {
			return core.UserErrorf("no dimension named %q found", name)
		}
		b.persp.FlatDimensions.Refs = append(b.persp.FlatDimensions.Refs, *node)
		b.hiddenDimensions = append(b.hiddenDimensions, name)
	}
	return nil
}

// hideHierarchies emits hierarchy overlays nested under their dimension
// node, skipping hierarchies whose dimension is already hidden and merging
// into an existing dimension node when the roleplay reference matches.
func (b *builder) hideHierarchies(names []string) {
	for _, name := range names {
		target, ok := b.roleplays.hierarchies[name]
		if !ok {
			continue
		}
		dim, hier := b.findHierarchy(target.base)
		if dim == nil {
			continue
		}
		if contains(b.hiddenDimensions, dim.Name) {
			continue
		}
		hierNode := project.FlatHierarchyRef{
			ID: hier.ID,
			// Visible stays false: the hierarchy itself is hidden.
		}
		roleplayed := name != target.base
		if node := b.findDimensionNode(dim.ID, target.refID, !roleplayed); node != nil {
			node.Hierarchies = append(node.Hierarchies, hierNode)
		} else {
			dimNode := project.FlatDimensionRef{
				ID:          dim.ID,
				Properties:  project.VisibleProps{Visible: true},
				Hierarchies: []project.FlatHierarchyRef{hierNode},
			}
			if roleplayed {
				dimNode.RefPath = refPathFor(target.refID)
			}
			b.persp.FlatDimensions.Refs = append(b.persp.FlatDimensions.Refs, dimNode)
		}
		b.hiddenHierarchies = append(b.hiddenHierarchies, name)
	}
}

// hideCategorical emits level overlays for categorical features, or
// flat-attribute entries for secondary attributes.
func (b *builder) hideCategorical(names []string) {
	for _, name := range names {
		info := b.categoricalInfo[name]
		base := name
		if info.BaseName != "" {
			base = info.BaseName
		}

		secondary := true
		if len(info.Hierarchy) > 0 {
			if _, real := b.roleplays.realHierarchies[info.Hierarchy[0]]; real {
				secondary = false
			}
		}

		if secondary {
			attr, ok := b.project.KeyedAttributeByName(b.cube, base)
			if !ok {
				continue
			}
			ref := project.FlatRef{ID: attr.ID}
			if name != base {
				ref.RefPath = refPathFor(info.RoleplayRefID)
			}
			b.persp.FlatAttributes.Refs = append(b.persp.FlatAttributes.Refs, ref)
			continue
		}

		// Ancestors already hidden cover the level.
		if contains(b.hiddenDimensions, info.Dimension) {
			continue
		}
		visibleHier := false
		for _, h := range info.Hierarchy {
			if !contains(b.hiddenHierarchies, h) {
				visibleHier = true
			}
		}
		if !visibleHier {
			continue
		}

		b.hideLevel(name, base, info)
	}
}

// hideLevel nests a hidden level under its dimension and hierarchy nodes,
// creating or merging the ancestors as needed. A level appearing in several
// hierarchies only needs hiding under one of them.
func (b *builder) hideLevel(name, base string, info *core.Feature) {
	attr, ok := b.project.KeyedAttributeByName(b.cube, base)
	if !ok {
		return
	}
	var hierName string
	for _, h := range info.Hierarchy {
		if !contains(b.hiddenHierarchies, h) {
			hierName = h
			break
		}
	}
	target, ok := b.roleplays.hierarchies[hierName]
	if !ok {
		return
	}
	dim, hier := b.findHierarchy(target.base)
	if dim == nil {
		return
	}

	levelNode := project.FlatLevelRef{PrimaryAttribute: attr.ID}
	roleplayed := name != base

	node := b.findDimensionNode(dim.ID, info.RoleplayRefID, !roleplayed)
	if node == nil {
		b.persp.FlatDimensions.Refs = append(b.persp.FlatDimensions.Refs, project.FlatDimensionRef{
			ID:         dim.ID,
			Properties: project.VisibleProps{Visible: true},
			RefPath:    refPathForRoleplay(roleplayed, info.RoleplayRefID),
			Hierarchies: []project.FlatHierarchyRef{{
				ID:         hier.ID,
				Properties: project.VisibleProps{Visible: true},
				Levels:     []project.FlatLevelRef{levelNode},
			}},
		})
		return
	}
	for i := range node.Hierarchies {
		if node.Hierarchies[i].ID == hier.ID {
			node.Hierarchies[i].Levels = append(node.Hierarchies[i].Levels, levelNode)
			return
		}
	}
	node.Hierarchies = append(node.Hierarchies, project.FlatHierarchyRef{
		ID:         hier.ID,
		Properties: project.VisibleProps{Visible: true},
		Levels:     []project.FlatLevelRef{levelNode},
	})
}

func refPathForRoleplay(roleplayed bool, refID string) *project.OverlayRefPath {
	if !roleplayed {
		return nil
	}
	return refPathFor(refID)
}

// findDimensionNode locates an existing overlay node for the dimension with
// a matching roleplay reference path: either both reference the same
// roleplay id, or neither side is roleplayed.
func (b *builder) findDimensionNode(dimID, refID string, wantBare bool) *project.FlatDimensionRef {
	for i := range b.persp.FlatDimensions.Refs {
		node := &b.persp.FlatDimensions.Refs[i]
		if node.ID != dimID {
			continue
		}
		if node.RefPath.RefID() != "" {
			if node.RefPath.RefID() == refID {
				return node
			}
		} else if wantBare {
			return node
		}
	}
	return nil
}

// findHierarchy locates a hierarchy by base name across project and cube
// dimensions.
func (b *builder) findHierarchy(baseName string) (*project.Dimension, *project.Hierarchy) {
	dims := b.project.AllDimensions(b.cube)
	for i := range dims {
		for j := range dims[i].Hierarchies {
			if dims[i].Hierarchies[j].Name == baseName {
				return &dims[i], &dims[i].Hierarchies[j]
			}
		}
	}
	return nil, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
