// Package catalog holds the equipment modules and vehicle blueprints that
// projects refer to by SKU and id. A default catalog is embedded in the
// binary; deployments can point at a directory of JSON or YAML documents
// laid out as vehicles/*.json and modules/*.yaml.
package catalog

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/chazu/upfit/pkg/model"
)

//go:embed data
var defaultData embed.FS

const (
	vehiclesDir = "vehicles"
	modulesDir  = "modules"
)

// Catalog is an immutable index of modules and vehicles.
type Catalog struct {
	modules  map[string]model.ModuleDefinition
	vehicles map[string]model.VehicleBlueprint
}

// New builds a catalog from in-memory definitions. Later entries with the same
// key are rejected rather than silently replacing earlier ones.
func New(modules []model.ModuleDefinition, vehicles []model.VehicleBlueprint) (*Catalog, error) {
	c := &Catalog{
		modules:  make(map[string]model.ModuleDefinition, len(modules)),
		vehicles: make(map[string]model.VehicleBlueprint, len(vehicles)),
	}
	for _, m := range modules {
		if err := c.addModule(m, m.SKU); err != nil {
			return nil, err
		}
	}
	for _, v := range vehicles {
		if err := c.addVehicle(v, v.ID); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Default returns the catalog embedded in the binary.
func Default() (*Catalog, error) {
	sub, err := fs.Sub(defaultData, "data")
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	return LoadFS(sub)
}

// LoadDir reads a catalog from a directory on disk.
func LoadDir(dir string) (*Catalog, error) {
	return LoadFS(os.DirFS(dir))
}

// LoadFS reads every .json, .yaml and .yml document under vehicles/ and
// modules/ in fsys. Missing subdirectories are treated as empty.
func LoadFS(fsys fs.FS) (*Catalog, error) {
	c := &Catalog{
		modules:  make(map[string]model.ModuleDefinition),
		vehicles: make(map[string]model.VehicleBlueprint),
	}

	err := walkDocuments(fsys, modulesDir, func(name string, data []byte) error {
		var m model.ModuleDefinition
		if err := model.Decode(data, model.FormatForPath(name), &m); err != nil {
			return err
		}
		return c.addModule(m, name)
	})
	if err != nil {
		return nil, err
	}

	err = walkDocuments(fsys, vehiclesDir, func(name string, data []byte) error {
		var v model.VehicleBlueprint
		if err := model.Decode(data, model.FormatForPath(name), &v); err != nil {
			return err
		}
		return c.addVehicle(v, name)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func walkDocuments(fsys fs.FS, dir string, fn func(name string, data []byte) error) error {
	entries, err := fs.ReadDir(fsys, dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("catalog: read %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() || !isDocument(e.Name()) {
			continue
		}
		name := path.Join(dir, e.Name())
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("catalog: read %s: %w", name, err)
		}
		if err := fn(name, data); err != nil {
			return fmt.Errorf("catalog: %s: %w", name, err)
		}
	}
	return nil
}

func isDocument(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

func (c *Catalog) addModule(m model.ModuleDefinition, source string) error {
	if errs := model.ValidateModule(&m); len(errs) > 0 {
		return fmt.Errorf("invalid module %q: %w", source, joinValidation(errs))
	}
	if _, dup := c.modules[m.SKU]; dup {
		return fmt.Errorf("duplicate module sku %q", m.SKU)
	}
	c.modules[m.SKU] = m
	return nil
}

func (c *Catalog) addVehicle(v model.VehicleBlueprint, source string) error {
	if errs := model.ValidateVehicle(&v); len(errs) > 0 {
		return fmt.Errorf("invalid vehicle %q: %w", source, joinValidation(errs))
	}
	if _, dup := c.vehicles[v.ID]; dup {
		return fmt.Errorf("duplicate vehicle id %q", v.ID)
	}
	c.vehicles[v.ID] = v
	return nil
}

func joinValidation(errs []model.ValidationError) error {
	out := make([]error, len(errs))
	for i, e := range errs {
		out[i] = e
	}
	return errors.Join(out...)
}

// Module looks up a module definition by SKU.
func (c *Catalog) Module(sku string) (model.ModuleDefinition, bool) {
	m, ok := c.modules[sku]
	return m, ok
}

// Vehicle looks up a vehicle blueprint by id.
func (c *Catalog) Vehicle(id string) (model.VehicleBlueprint, bool) {
	v, ok := c.vehicles[id]
	return v, ok
}

// Modules returns all module definitions ordered by SKU.
func (c *Catalog) Modules() []model.ModuleDefinition {
	out := make([]model.ModuleDefinition, 0, len(c.modules))
	for _, m := range c.modules {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out
}

// Vehicles returns all vehicle blueprints ordered by id.
func (c *Catalog) Vehicles() []model.VehicleBlueprint {
	out := make([]model.VehicleBlueprint, 0, len(c.vehicles))
	for _, v := range c.vehicles {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Overlay returns a new catalog holding every entry of c plus those of top.
// Entries in top replace entries of c with the same key.
func (c *Catalog) Overlay(top *Catalog) *Catalog {
	out := &Catalog{
		modules:  make(map[string]model.ModuleDefinition, len(c.modules)+len(top.modules)),
		vehicles: make(map[string]model.VehicleBlueprint, len(c.vehicles)+len(top.vehicles)),
	}
	for k, v := range c.modules {
		out.modules[k] = v
	}
	for k, v := range top.modules {
		out.modules[k] = v
	}
	for k, v := range c.vehicles {
		out.vehicles[k] = v
	}
	for k, v := range top.vehicles {
		out.vehicles[k] = v
	}
	return out
}
