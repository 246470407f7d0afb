// Package tessellate turns the modules of a layout into triangle meshes
// using a geometry kernel. One mesh is produced per module, optionally
// followed by the vehicle floor and the forbidden zones.
package tessellate

import (
	"fmt"

	"github.com/chazu/upfit/pkg/kernel"
	"github.com/chazu/upfit/pkg/layout"
)

const (
	// FloorMesh and ZonesMesh name the context meshes.
	FloorMesh = "floor"
	ZonesMesh = "zones"

	// floorThicknessMM is the depth of the plate drawn under the interior.
	floorThicknessMM = 50.0
)

// Options selects the context geometry added after the modules.
type Options struct {
	// Floor adds a plate under the interior box, top face at Z = 0.
	Floor bool
	// Zones adds the union of all forbidden zones as a single mesh.
	Zones bool
}

// Tessellate meshes every module of ctx in placement order. Each module box
// is rotated about its centre and then moved to its placement position; the
// mesh is named after the instance id. Tessellate never mutates ctx.
func Tessellate(ctx *layout.Context, k kernel.Kernel, opts Options) ([]*kernel.Mesh, error) {
	if ctx == nil {
		return nil, nil
	}

	meshes := make([]*kernel.Mesh, 0, len(ctx.Modules)+2)
	for i := range ctx.Modules {
		m := &ctx.Modules[i]
		size := m.Size()
		solid := k.Box(size.X, size.Y, size.Z)

		rot := m.Rotation()
		if !rot.IsZero() {
			solid = k.Rotate(solid, rot.X, rot.Y, rot.Z)
		}
		pos := m.Position()
		if !pos.IsZero() {
			solid = k.Translate(solid, pos.X, pos.Y, pos.Z)
		}

		mesh, err := k.ToMesh(solid)
		if err != nil {
			return nil, fmt.Errorf("tessellate: module %s: %w", m.Placement.InstanceID, err)
		}
		mesh.Name = m.Placement.InstanceID
		meshes = append(meshes, mesh)
	}

	if opts.Floor {
		if in := ctx.Vehicle.Interior; in != nil {
			plate := k.Translate(k.Box(in.Length, in.Width, floorThicknessMM), 0, 0, -floorThicknessMM/2)
			mesh, err := k.ToMesh(plate)
			if err != nil {
				return nil, fmt.Errorf("tessellate: floor: %w", err)
			}
			mesh.Name = FloorMesh
			meshes = append(meshes, mesh)
		}
	}

	if opts.Zones && len(ctx.Vehicle.ForbiddenZones) > 0 {
		var zones kernel.Solid
		for _, z := range ctx.Vehicle.ForbiddenZones {
			s := k.Translate(k.Box(z.Size[0], z.Size[1], z.Size[2]), z.Origin[0], z.Origin[1], z.Origin[2])
			if zones == nil {
				zones = s
			} else {
				zones = k.Union(zones, s)
			}
		}
		mesh, err := k.ToMesh(zones)
		if err != nil {
			return nil, fmt.Errorf("tessellate: forbidden zones: %w", err)
		}
		mesh.Name = ZonesMesh
		meshes = append(meshes, mesh)
	}

	return meshes, nil
}
