package catalog

// published.go - feature catalog of a published model via the DMV interface

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ailink-labs/ailink/pkg/core"
)

// DMVClient is the slice of the service client the published catalog needs:
// schema queries against the published model and the license check that
// gates the data-catalog fields.
type DMVClient interface {
	SubmitDMVQuery(ctx context.Context, query string) (*core.Frame, error)
	LicenseEnabled(ctx context.Context, capability string) (bool, error)
}

// LicenseDataCatalog gates the expression and secondary-attribute fields of
// the published catalog.
const LicenseDataCatalog = "data_catalog_api"

// PublishedFeatures resolves the feature catalog of a published model by
// querying the service's schema views instead of parsing the raw
// descriptor. When the data-catalog capability is not licensed the
// expression and secondary-attribute fields are defaulted rather than
// queried.
func PublishedFeatures(ctx context.Context, svc DMVClient, modelName string, opts ...Option) (core.FeatureMap, error) {
	o := buildOptions(opts)

	licensed, err := svc.LicenseEnabled(ctx, LicenseDataCatalog)
	if err != nil {
		return nil, fmt.Errorf("failed to check data catalog license: %w", err)
	}

	out := make(core.FeatureMap)
	if o.Type == core.FeatureTypeAll || o.Type == core.FeatureTypeCategorical {
		if err := publishedLevels(ctx, svc, modelName, o, licensed, out); err != nil {
			return nil, err
		}
	}
	if o.Type == core.FeatureTypeAll || o.Type == core.FeatureTypeNumeric {
		if err := publishedMeasures(ctx, svc, modelName, o, licensed, out); err != nil {
			return nil, err
		}
	}

	o.Logger.Debug("resolved published feature catalog",
		slog.String("model", modelName),
		slog.Int("features", len(out)))

	return applyFilters(out, o), nil
}

func publishedLevels(
	ctx context.Context,
	svc DMVClient,
	modelName string,
	o Options,
	licensed bool,
	out core.FeatureMap,
) error {
	hierWhere := []string{fmt.Sprintf("[CUBE_NAME] = %s", dmvLiteral(modelName))}
	if len(o.Folders) > 0 {
		hierWhere = append(hierWhere, dmvIn("[FOLDER]", o.Folders))
	}
	hierQuery := "SELECT [HIERARCHY_NAME], [FOLDER] FROM $system.MDSCHEMA_HIERARCHIES WHERE " +
		strings.Join(hierWhere, " AND ")
	hierFrame, err := svc.SubmitDMVQuery(ctx, hierQuery)
	if err != nil {
		return fmt.Errorf("failed to query published hierarchies: %w", err)
	}
	folders := make(map[string]string, hierFrame.NumRows())
	hierNames := make([]string, 0, hierFrame.NumRows())
	for i := 0; i < hierFrame.NumRows(); i++ {
		row := hierFrame.Row(i)
		name := asString(row[0])
		folders[name] = asString(row[1])
		hierNames = append(hierNames, name)
	}

	fields := []string{
		"[LEVEL_NAME]", "[LEVEL_CAPTION]", "[LEVEL_TYPE]", "[DESCRIPTION]",
		"[HIERARCHY_NAME]", "[DIMENSION_NAME]", "[DATA_TYPE]",
	}
	if licensed {
		fields = append(fields, "[IS_SECONDARY]")
	}
	where := []string{fmt.Sprintf("[CUBE_NAME] = %s", dmvLiteral(modelName))}
	if len(o.Features) > 0 {
		where = append(where, dmvIn("[LEVEL_NAME]", o.Features))
	}
	if len(hierNames) > 0 {
		where = append(where, dmvIn("[HIERARCHY_NAME]", hierNames))
	}
	query := "SELECT " + strings.Join(fields, ", ") +
		" FROM $system.MDSCHEMA_LEVELS WHERE " + strings.Join(where, " AND ")
	frame, err := svc.SubmitDMVQuery(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to query published levels: %w", err)
	}

	// One row per (level, hierarchy); a level surfacing in several
	// hierarchies merges its hierarchy and folder lists.
	for i := 0; i < frame.NumRows(); i++ {
		row := frame.Row(i)
		name := asString(row[0])
		hierName := asString(row[4])
		f := &core.Feature{
			Caption:     asString(row[1]),
			AtScaleType: asString(row[2]),
			Description: asString(row[3]),
			Hierarchy:   []string{hierName},
			Dimension:   asString(row[5]),
			DataType:    asString(row[6]),
			Folder:      []string{folders[hierName]},
			FeatureType: core.FeatureTypeCategorical,
			Queryable:   true,
			BaseName:    name,
		}
		if licensed {
			f.SecondaryAttribute = asBool(row[7])
		}
		if have, ok := out[name]; ok {
			if !contains(have.Hierarchy, hierName) {
				have.Merge(f)
			}
		} else {
			out[name] = f
		}
	}
	return nil
}

func publishedMeasures(
	ctx context.Context,
	svc DMVClient,
	modelName string,
	o Options,
	licensed bool,
	out core.FeatureMap,
) error {
	fields := []string{
		"[MEASURE_NAME]", "[MEASURE_CAPTION]", "[MEASURE_AGGREGATOR]",
		"[DESCRIPTION]", "[MEASUREGROUP_NAME]", "[DATA_TYPE]",
	}
	if licensed {
		fields = append(fields, "[EXPRESSION]")
	}
	where := []string{fmt.Sprintf("[CUBE_NAME] = %s", dmvLiteral(modelName))}
	if len(o.Features) > 0 {
		where = append(where, dmvIn("[MEASURE_NAME]", o.Features))
	}
	if len(o.Folders) > 0 {
		where = append(where, dmvIn("[MEASUREGROUP_NAME]", o.Folders))
	}
	query := "SELECT " + strings.Join(fields, ", ") +
		" FROM $system.MDSCHEMA_MEASURES WHERE " + strings.Join(where, " AND ")
	frame, err := svc.SubmitDMVQuery(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to query published measures: %w", err)
	}

	for i := 0; i < frame.NumRows(); i++ {
		row := frame.Row(i)
		name := asString(row[0])
		f := &core.Feature{
			Caption:     asString(row[1]),
			AtScaleType: asString(row[2]),
			Description: asString(row[3]),
			Folder:      []string{asString(row[4])},
			DataType:    asString(row[5]),
			FeatureType: core.FeatureTypeNumeric,
			Queryable:   true,
			BaseName:    name,
		}
		if licensed {
			f.Expression = asString(row[6])
		}
		out[name] = f
	}
	return nil
}

// dmvLiteral quotes a string for a DMV predicate.
func dmvLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func dmvIn(field string, values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = dmvLiteral(v)
	}
	return fmt.Sprintf("%s IN (%s)", field, strings.Join(quoted, ", "))
}

func asString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func asBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return strings.EqualFold(t, "true")
	default:
		return false
	}
}
