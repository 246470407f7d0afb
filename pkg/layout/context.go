// Package layout resolves a project's placements against the module catalog
// and a vehicle blueprint, producing the immutable Context every rule
// evaluator and exporter reads from.
package layout

import (
	"github.com/chazu/upfit/pkg/geom"
	"github.com/chazu/upfit/pkg/model"
)

// DefaultWalkwayMM is the corridor width used when neither the caller nor the
// project sets one.
const DefaultWalkwayMM = 500.0

// ModuleSource resolves module definitions by SKU.
type ModuleSource interface {
	Module(sku string) (model.ModuleDefinition, bool)
}

// VehicleSource resolves vehicle blueprints by id.
type VehicleSource interface {
	Vehicle(id string) (model.VehicleBlueprint, bool)
}

// ModuleMap is a ModuleSource backed by a map.
type ModuleMap map[string]model.ModuleDefinition

// Module implements ModuleSource.
func (m ModuleMap) Module(sku string) (model.ModuleDefinition, bool) {
	d, ok := m[sku]
	return d, ok
}

// ModuleInstance is a placement joined with its definition and bounding
// volumes.
type ModuleInstance struct {
	Placement model.Placement
	Module    model.ModuleDefinition
	OBB       geom.OBB
	AABB      geom.AABB
}

// Position returns the placement centre.
func (m *ModuleInstance) Position() geom.Vec3 { return geom.FromArray(m.Placement.Position) }

// Rotation returns the placement Euler angles in degrees.
func (m *ModuleInstance) Rotation() geom.Vec3 { return geom.FromArray(m.Placement.Rotation) }

// Size returns the unrotated module dimensions (length, width, height).
func (m *ModuleInstance) Size() geom.Vec3 {
	return geom.V(m.Module.BBox.Length, m.Module.BBox.Width, m.Module.BBox.Height)
}

// Context is the resolved, read-only view of a project.
type Context struct {
	Project model.Project
	Vehicle model.VehicleBlueprint
	Modules []ModuleInstance
	// WalkwayMinWidth is the full corridor width in mm, centred on y = 0.
	WalkwayMinWidth float64
}

// HalfWalkway returns half the corridor width.
func (c *Context) HalfWalkway() float64 { return c.WalkwayMinWidth / 2 }

// InteriorAABB returns the usable cargo volume: x and y centred on the
// origin, z from the floor up. ok is false when the blueprint has none.
func (c *Context) InteriorAABB() (box geom.AABB, ok bool) {
	in := c.Vehicle.Interior
	if in == nil {
		return geom.AABB{}, false
	}
	return geom.AABB{
		Min: geom.V(-in.Length/2, -in.Width/2, 0),
		Max: geom.V(in.Length/2, in.Width/2, in.Height),
	}, true
}

// Instance finds a module instance by placement id.
func (c *Context) Instance(id string) (*ModuleInstance, bool) {
	for i := range c.Modules {
		if c.Modules[i].Placement.InstanceID == id {
			return &c.Modules[i], true
		}
	}
	return nil, false
}

type options struct {
	walkwayOverride *float64
}

// Option configures Build.
type Option func(*options)

// WithWalkwayOverride forces the corridor width, taking precedence over the
// project settings.
func WithWalkwayOverride(mm float64) Option {
	return func(o *options) { o.walkwayOverride = &mm }
}

// Build resolves every placement and computes its bounding volumes.
// Definitions from the project's inline catalog win over modules. An unknown
// SKU fails the whole build with a *ResolutionError; axles that are not
// ordered front to rear fail it with a *BlueprintError.
func Build(project *model.Project, vehicle *model.VehicleBlueprint, modules ModuleSource, opts ...Option) (*Context, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if vehicle == nil {
		return nil, &ResolutionError{Kind: KindVehicle, ID: project.Vehicle.BlueprintID}
	}
	for i := 1; i < len(vehicle.Axles); i++ {
		if vehicle.Axles[i].X < vehicle.Axles[i-1].X {
			return nil, &BlueprintError{VehicleID: vehicle.ID, Err: ErrUnsortedAxles}
		}
	}

	inline := make(map[string]int, len(project.ModulesCatalog))
	for i := len(project.ModulesCatalog) - 1; i >= 0; i-- {
		inline[project.ModulesCatalog[i].SKU] = i
	}

	ctx := &Context{
		Project:         cloneProject(project),
		Vehicle:         cloneVehicle(vehicle),
		Modules:         make([]ModuleInstance, 0, len(project.Placements)),
		WalkwayMinWidth: walkwayWidth(project, o),
	}

	for _, pl := range ctx.Project.Placements {
		var def model.ModuleDefinition
		if i, ok := inline[pl.ModuleSKU]; ok {
			def = ctx.Project.ModulesCatalog[i]
		} else {
			found, ok := lookup(modules, pl.ModuleSKU)
			if !ok {
				return nil, &ResolutionError{Kind: KindModule, ID: pl.ModuleSKU, InstanceID: pl.InstanceID}
			}
			def = cloneModule(found)
		}
		ctx.Modules = append(ctx.Modules, newInstance(pl, def))
	}
	return ctx, nil
}

// ResolveVehicle looks up the project's blueprint.
func ResolveVehicle(project *model.Project, vehicles VehicleSource) (*model.VehicleBlueprint, error) {
	v, ok := vehicles.Vehicle(project.Vehicle.BlueprintID)
	if !ok {
		return nil, &ResolutionError{Kind: KindVehicle, ID: project.Vehicle.BlueprintID}
	}
	return &v, nil
}

func lookup(src ModuleSource, sku string) (model.ModuleDefinition, bool) {
	if src == nil {
		return model.ModuleDefinition{}, false
	}
	return src.Module(sku)
}

func walkwayWidth(p *model.Project, o options) float64 {
	if o.walkwayOverride != nil {
		return *o.walkwayOverride
	}
	if w := p.Settings.Walkway.MinWidth; w > 0 {
		return w
	}
	return DefaultWalkwayMM
}

func newInstance(pl model.Placement, def model.ModuleDefinition) ModuleInstance {
	size := geom.V(def.BBox.Length, def.BBox.Width, def.BBox.Height)
	obb := geom.NewOBB(geom.FromArray(pl.Position), size, geom.FromArray(pl.Rotation))
	return ModuleInstance{
		Placement: pl,
		Module:    def,
		OBB:       obb,
		AABB:      obb.AABB(),
	}
}
