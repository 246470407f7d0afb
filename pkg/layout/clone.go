package layout

import "github.com/chazu/upfit/pkg/model"

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

func cloneModule(m model.ModuleDefinition) model.ModuleDefinition {
	if c := m.Clearances; c != nil {
		m.Clearances = &model.Clearances{
			Front:  cloneFloat(c.Front),
			Rear:   cloneFloat(c.Rear),
			Left:   cloneFloat(c.Left),
			Right:  cloneFloat(c.Right),
			Top:    cloneFloat(c.Top),
			Bottom: cloneFloat(c.Bottom),
			Extend: cloneFloat(c.Extend),
		}
	}
	m.Tags = append([]string(nil), m.Tags...)
	m.Mounting.Hardware = append([]string(nil), m.Mounting.Hardware...)
	return m
}

func cloneDoor(d *model.DoorOpening) *model.DoorOpening {
	if d == nil {
		return nil
	}
	out := *d
	out.OpeningAngle = cloneFloat(d.OpeningAngle)
	out.OffsetFromRear = cloneFloat(d.OffsetFromRear)
	return &out
}

func cloneVehicle(v *model.VehicleBlueprint) model.VehicleBlueprint {
	out := *v
	if v.Interior != nil {
		in := *v.Interior
		out.Interior = &in
	}
	if v.Openings != nil {
		out.Openings = &model.Openings{
			SlidingDoor: cloneDoor(v.Openings.SlidingDoor),
			RearDoor:    cloneDoor(v.Openings.RearDoor),
		}
	}
	out.Axles = make([]model.Axle, len(v.Axles))
	for i, a := range v.Axles {
		a.MaxLoad = cloneFloat(a.MaxLoad)
		out.Axles[i] = a
	}
	out.ForbiddenZones = append([]model.ForbiddenZone(nil), v.ForbiddenZones...)
	return out
}

func cloneProject(p *model.Project) model.Project {
	out := *p
	out.Vehicle.PayloadReserve = cloneFloat(p.Vehicle.PayloadReserve)
	out.Placements = append([]model.Placement(nil), p.Placements...)
	out.ModulesCatalog = make([]model.ModuleDefinition, len(p.ModulesCatalog))
	for i, m := range p.ModulesCatalog {
		out.ModulesCatalog[i] = cloneModule(m)
	}
	return out
}
