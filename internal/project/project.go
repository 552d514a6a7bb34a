package project

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/ailink-labs/ailink/pkg/core"
)

// Parse decodes a raw project descriptor document.
func Parse(data []byte) (*Project, error) {
	var p Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse project descriptor: %w", err)
	}
	return &p, nil
}

// Marshal encodes the descriptor back into its wire form.
func (p *Project) Marshal() ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode project descriptor: %w", err)
	}
	return data, nil
}

// Clone returns a deep copy of the descriptor. Perspective writes patch the
// copy and hand it back to the service, leaving the original untouched.
func (p *Project) Clone() *Project {
	data, err := json.Marshal(p)
	if err != nil {
		// The descriptor is plain data; marshal cannot fail on it.
		panic(fmt.Sprintf("project clone: %v", err))
	}
	var out Project
	if err := json.Unmarshal(data, &out); err != nil {
		panic(fmt.Sprintf("project clone: %v", err))
	}
	return &out
}

// CubeByID returns the cube with the given id.
func (p *Project) CubeByID(id string) (*Cube, error) {
	for i := range p.Cubes.Cubes {
		if p.Cubes.Cubes[i].ID == id {
			return &p.Cubes.Cubes[i], nil
		}
	}
	return nil, core.UserErrorf("no data model with id %q exists in the project", id)
}

// CubeByName returns the cube with the given name.
func (p *Project) CubeByName(name string) (*Cube, error) {
	for i := range p.Cubes.Cubes {
		if p.Cubes.Cubes[i].Name == name {
			return &p.Cubes.Cubes[i], nil
		}
	}
	return nil, core.UserErrorf("no data model named %q exists in the project", name)
}

// PerspectiveByName returns the perspective with the given name, or nil.
func (p *Project) PerspectiveByName(name string) *Perspective {
	for i := range p.Perspectives.Perspectives {
		if p.Perspectives.Perspectives[i].Name == name {
			return &p.Perspectives.Perspectives[i]
		}
	}
	return nil
}

// AllDimensions returns the project-level dimensions followed by the cube's
// own (degenerate) dimensions.
func (p *Project) AllDimensions(cube *Cube) []Dimension {
	out := append([]Dimension(nil), p.Dimensions.Dimensions...)
	if cube != nil {
		out = append(out, cube.Dimensions.Dimensions...)
	}
	return out
}

// KeyedAttributeByName looks up a keyed attribute by name across the project
// and cube attribute blocks.
func (p *Project) KeyedAttributeByName(cube *Cube, name string) (*KeyedAttribute, bool) {
	for i := range p.Attributes.KeyedAttributes {
		if p.Attributes.KeyedAttributes[i].Name == name {
			return &p.Attributes.KeyedAttributes[i], true
		}
	}
	if cube != nil {
		for i := range cube.Attributes.KeyedAttributes {
			if cube.Attributes.KeyedAttributes[i].Name == name {
				return &cube.Attributes.KeyedAttributes[i], true
			}
		}
	}
	return nil, false
}

// MetricalAttributeByName looks up a metrical attribute by name across the
// project and cube attribute blocks.
func (p *Project) MetricalAttributeByName(cube *Cube, name string) (*MetricalAttribute, bool) {
	for i := range p.Attributes.Attributes {
		if p.Attributes.Attributes[i].Name == name {
			return &p.Attributes.Attributes[i], true
		}
	}
	if cube != nil {
		for i := range cube.Attributes.Attributes {
			if cube.Attributes.Attributes[i].Name == name {
				return &cube.Attributes.Attributes[i], true
			}
		}
	}
	return nil, false
}

// CalculatedMemberByName looks up a project calculated member by name.
func (p *Project) CalculatedMemberByName(name string) (*CalculatedMember, bool) {
	for i := range p.CalculatedMembers.Members {
		if p.CalculatedMembers.Members[i].Name == name {
			return &p.CalculatedMembers.Members[i], true
		}
	}
	return nil, false
}

// FeatureKey describes the physical join key behind a hierarchy level: the
// key columns, the display value column, and the dataset table they live in.
type FeatureKey struct {
	KeyCols  []string
	ValueCol string
	Table    string
	Schema   string
	Database string
}

// MultiKey reports whether the level joins on a compound key.
func (k FeatureKey) MultiKey() bool { return len(k.KeyCols) > 1 }

// FeatureKeys resolves the join keys for the given base feature names in the
// cube. Missing features or keys are aggregated into one UserError.
func (p *Project) FeatureKeys(cubeID string, features []string) (map[string]FeatureKey, error) {
	cube, err := p.CubeByID(cubeID)
	if err != nil {
		return nil, err
	}

	keys := make(map[string]FeatureKey, len(features))
	var missing []string
	for _, name := range features {
		attr, ok := p.KeyedAttributeByName(cube, name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		key, ok := p.lookupKey(attr)
		if !ok {
			missing = append(missing, name)
			continue
		}
		keys[name] = key
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, core.UserErrorf(
			"no join key could be resolved for the following features: %s",
			strings.Join(missing, ", "))
	}
	return keys, nil
}

// lookupKey finds the dataset key definition backing a keyed attribute.
func (p *Project) lookupKey(attr *KeyedAttribute) (FeatureKey, bool) {
	for _, ds := range p.Datasets.Datasets {
		for _, kr := range ds.Logical.KeyRefs {
			if kr.ID != attr.KeyRef || len(kr.Columns) == 0 {
				continue
			}
			key := FeatureKey{
				KeyCols:  append([]string(nil), kr.Columns...),
				ValueCol: kr.Columns[0],
				Table:    ds.Physical.Table,
				Schema:   ds.Physical.Schema,
				Database: ds.Physical.Database,
			}
			// The display value column can differ from the key column.
			for _, ar := range ds.Logical.AttributeRefs {
				if ar.ID == attr.ID && len(ar.Columns) > 0 {
					key.ValueCol = ar.Columns[0]
					break
				}
			}
			return key, true
		}
	}
	return FeatureKey{}, false
}
