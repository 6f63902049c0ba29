package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/propinspect/pkg/inspector"
	"github.com/oakwood-commons/propinspect/pkg/instance"
	"github.com/oakwood-commons/propinspect/pkg/loader"
	"github.com/oakwood-commons/propinspect/pkg/value"
)

// workspace is one schema file, one instance of it and the cache over both.
type workspace struct {
	schemaPath   string
	instancePath string

	schema *loader.Schema
	inst   *loader.Instance
	cache  *inspector.Cache
}

// livePresets resolves presets against the workspace's current schema, so a
// reloaded schema brings its preset tables with it.
type livePresets struct{ w *workspace }

func (p livePresets) ResolveActivePreset(ref string, selector value.Value) (instance.Preset, bool) {
	return p.w.schema.Presets().ResolveActivePreset(ref, selector)
}

// open loads the schema and, when instancePath is set, the instance. With no
// instance path the schema's declared defaults stand in for the values.
func (a *app) open(schemaPath, instancePath string) (*workspace, error) {
	w := &workspace{schemaPath: schemaPath, instancePath: instancePath}
	if err := w.reloadSchema(); err != nil {
		return nil, err
	}
	if err := w.reloadInstance(); err != nil {
		return nil, err
	}
	w.cache = inspector.New(
		inspector.WithLogger(a.log.WithName("inspector")),
		inspector.WithPresets(livePresets{w}),
	)
	return w, nil
}

func (w *workspace) reloadSchema() error {
	s, err := loader.LoadSchema(w.schemaPath)
	if err != nil {
		return fmt.Errorf("load schema: %w", err)
	}
	w.schema = s
	return nil
}

func (w *workspace) reloadInstance() error {
	if w.instancePath == "" {
		inst, err := loader.NewInstance(loader.InstanceDocument{ID: w.schema.ID() + "-defaults"}, w.schema)
		if err != nil {
			return err
		}
		w.inst = inst
		return nil
	}
	inst, err := loader.LoadInstance(w.instancePath, w.schema)
	if err != nil {
		return fmt.Errorf("load instance: %w", err)
	}
	w.inst = inst
	return nil
}

// query runs one cache query and applies the command's session flags.
func (a *app) query(cmd *cobra.Command, w *workspace) (*inspector.View, error) {
	v, err := w.cache.GetOrBuild(w.schema, w.inst, sessionID)
	if err != nil {
		return nil, err
	}
	for _, d := range v.Schema.Diagnostics {
		a.log.V(1).Info("schema diagnostic", "diagnostic", d.String())
	}
	for _, d := range v.Instance.Diagnostics {
		a.log.V(1).Info("instance diagnostic", "diagnostic", d.String())
	}
	if len(v.RevertedSinceLastQuery) > 0 {
		a.log.Info("properties reverted", "properties", v.RevertedSinceLastQuery)
	}

	mode, err := a.searchMode()
	if err != nil {
		return nil, err
	}
	v.SetDisplayMode(a.displayMode(cmd))
	v.SetSearch(a.view.search, mode)

	var errs []error
	for _, name := range a.view.expand {
		errs = append(errs, v.SetExpanded(name, true))
	}
	for _, name := range a.view.collapse {
		errs = append(errs, v.SetExpanded(name, false))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return v, nil
}
