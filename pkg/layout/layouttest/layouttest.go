// Package layouttest provides small vehicle, module and project fixtures for
// tests of packages that consume a layout.Context.
package layouttest

import (
	"testing"

	"github.com/chazu/upfit/pkg/layout"
	"github.com/chazu/upfit/pkg/model"
)

// Van returns a 4000 x 2000 x 2000 mm interior with two axles at x = -1500
// and x = +1500, each rated 1800 kg, and a 3500 kg GVW.
func Van() *model.VehicleBlueprint {
	return &model.VehicleBlueprint{
		ID:        "test-van",
		Label:     "Test van",
		Maker:     "Test",
		GVW:       3500,
		Wheelbase: 3000,
		Interior:  &model.InteriorBox{Length: 4000, Width: 2000, Height: 2000},
		Openings: &model.Openings{
			RearDoor: &model.DoorOpening{Width: 1500, Height: 1800},
		},
		Axles: []model.Axle{
			{Index: 0, X: -1500, MaxLoad: model.Float(1800)},
			{Index: 1, X: 1500, MaxLoad: model.Float(1800)},
		},
	}
}

// Module returns a floor module with the given box and mass and medium reach
// priority.
func Module(sku string, length, width, height, mass float64) model.ModuleDefinition {
	return model.ModuleDefinition{
		SKU:           sku,
		Name:          sku,
		BBox:          model.Dimensions{Length: length, Width: width, Height: height},
		Mass:          mass,
		Mounting:      model.Mounting{Type: model.MountFloor},
		ReachPriority: model.ReachMedium,
	}
}

// Place returns a placement centred at (x, y, z) with no rotation.
func Place(id, sku string, x, y, z float64) model.Placement {
	return model.Placement{InstanceID: id, ModuleSKU: sku, Position: [3]float64{x, y, z}}
}

// Project wraps placements in a project that uses Van.
func Project(placements ...model.Placement) *model.Project {
	return &model.Project{
		ID:         "test-project",
		Name:       "Test project",
		Vehicle:    model.ProjectVehicle{BlueprintID: "test-van"},
		Placements: placements,
	}
}

// Catalog indexes modules by SKU.
func Catalog(modules ...model.ModuleDefinition) layout.ModuleMap {
	m := make(layout.ModuleMap, len(modules))
	for _, d := range modules {
		m[d.SKU] = d
	}
	return m
}

// Build builds a context or fails the test.
func Build(t testing.TB, p *model.Project, v *model.VehicleBlueprint, modules layout.ModuleSource, opts ...layout.Option) *layout.Context {
	t.Helper()
	ctx, err := layout.Build(p, v, modules, opts...)
	if err != nil {
		t.Fatalf("layout.Build: %v", err)
	}
	return ctx
}
