package catalog

// render.go - human-readable catalog listing for reporting layers

import (
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/ailink-labs/ailink/pkg/core"
)

// RenderTable formats a feature catalog as a text table sorted by query
// name.
func RenderTable(fm core.FeatureMap) string {
	names := make([]string, 0, len(fm))
	for name := range fm {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	t := table.NewWriter()
	t.SetOutputMirror(&sb)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Feature", "Type", "AtScale Type", "Dimension", "Hierarchy", "Folder"})

	for _, name := range names {
		f := fm[name]
		t.AppendRow(table.Row{
			name,
			string(f.FeatureType),
			f.AtScaleType,
			f.Dimension,
			strings.Join(f.Hierarchy, ", "),
			strings.Join(f.Folder, ", "),
		})
	}
	t.Render()
	return sb.String()
}
