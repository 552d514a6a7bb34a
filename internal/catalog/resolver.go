// Package catalog resolves a project descriptor into a flat feature
// catalog: one entry per queryable feature (hierarchy levels, secondary
// attributes, measures, calculated members) keyed by query name, with
// roleplayed attributes expanded into one entry per reference.
//
// Two resolution paths exist. DraftFeatures parses the raw design-time
// descriptor; PublishedFeatures queries the service's DMV interface for the
// published model instead.
package catalog

import (
	"io"
	"log/slog"

	"github.com/ailink-labs/ailink/internal/project"
	"github.com/ailink-labs/ailink/pkg/core"
)

// Options filter the resolved catalog.
type Options struct {
	// Features keeps only entries whose query name matches exactly.
	Features []string
	// Folders keeps entries whose folder list intersects the given folders.
	Folders []string
	// Type keeps entries of one feature type. FeatureTypeAll keeps both.
	Type core.FeatureType

	Logger *slog.Logger
}

// Option configures catalog resolution.
type Option func(*Options)

// WithFeatures restricts the catalog to the named features.
func WithFeatures(names ...string) Option {
	return func(o *Options) { o.Features = append(o.Features, names...) }
}

// WithFolders restricts the catalog to features in the given folders.
func WithFolders(folders ...string) Option {
	return func(o *Options) { o.Folders = append(o.Folders, folders...) }
}

// WithType restricts the catalog to one feature type.
func WithType(t core.FeatureType) Option {
	return func(o *Options) { o.Type = t }
}

// WithLogger sets the logger used during resolution.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

func buildOptions(opts []Option) Options {
	o := Options{
		Type:   core.FeatureTypeAll,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Type == "" {
		o.Type = core.FeatureTypeAll
	}
	return o
}

// DraftFeatures resolves the feature catalog of the named data model from
// the raw project descriptor.
func DraftFeatures(p *project.Project, modelName string, opts ...Option) (core.FeatureMap, error) {
	o := buildOptions(opts)
	cube, err := p.CubeByName(modelName)
	if err != nil {
		return nil, err
	}

	out := make(core.FeatureMap)
	merge := func(fm core.FeatureMap) {
		for name, f := range fm {
			out[name] = f
		}
	}
	merge(categoricalFeatures(p, cube))
	merge(denormalizedFeatures(p, cube))
	if o.Type == core.FeatureTypeAll || o.Type == core.FeatureTypeNumeric {
		merge(aggregateFeatures(cube))
		merge(calculatedFeatures(p, cube))
	}

	o.Logger.Debug("resolved draft feature catalog",
		slog.String("model", modelName),
		slog.Int("features", len(out)))

	return applyFilters(out, o), nil
}

// applyFilters prunes the assembled catalog per the options. The feature
// filter is an exact name match; the folder filter keeps a feature when any
// of its folders is listed; the type filter compares the feature type.
func applyFilters(fm core.FeatureMap, o Options) core.FeatureMap {
	var keepName map[string]struct{}
	if o.Features != nil {
		keepName = make(map[string]struct{}, len(o.Features))
		for _, n := range o.Features {
			keepName[n] = struct{}{}
		}
	}
	var keepFolder map[string]struct{}
	if o.Folders != nil {
		keepFolder = make(map[string]struct{}, len(o.Folders))
		for _, f := range o.Folders {
			keepFolder[f] = struct{}{}
		}
	}

	out := make(core.FeatureMap, len(fm))
	for name, f := range fm {
		if keepName != nil {
			if _, ok := keepName[name]; !ok {
				continue
			}
		}
		if keepFolder != nil {
			found := false
			for _, folder := range f.Folder {
				if _, ok := keepFolder[folder]; ok {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		if o.Type != core.FeatureTypeAll && f.FeatureType != o.Type {
			continue
		}
		out[name] = f
	}
	return out
}
