package model

import (
	"fmt"
	"math"
)

// ValidationError describes a single structural problem in a document.
type ValidationError struct {
	Path    string // dotted field path, e.g. "placements[2].moduleSku"
	Message string
}

func (e ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func invalid(path, format string, args ...any) ValidationError {
	return ValidationError{Path: path, Message: fmt.Sprintf(format, args...)}
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// ValidateModule checks a catalog entry. An empty slice means it is usable.
func ValidateModule(m *ModuleDefinition) []ValidationError {
	var errs []ValidationError
	if m.SKU == "" {
		errs = append(errs, invalid("sku", "must not be empty"))
	}
	if m.Name == "" {
		errs = append(errs, invalid("name", "must not be empty"))
	}
	dims := []struct {
		path string
		v    float64
	}{
		{"bbox_mm.length_mm", m.BBox.Length},
		{"bbox_mm.width_mm", m.BBox.Width},
		{"bbox_mm.height_mm", m.BBox.Height},
	}
	for _, d := range dims {
		if !finite(d.v) || d.v <= 0 {
			errs = append(errs, invalid(d.path, "must be positive, got %v", d.v))
		}
	}
	if !finite(m.Mass) || m.Mass < 0 {
		errs = append(errs, invalid("mass_kg", "must be non-negative, got %v", m.Mass))
	}
	if c := m.Clearances; c != nil {
		sides := []struct {
			path string
			v    *float64
		}{
			{"front_mm", c.Front}, {"rear_mm", c.Rear},
			{"left_mm", c.Left}, {"right_mm", c.Right},
			{"top_mm", c.Top}, {"bottom_mm", c.Bottom},
			{"extend_mm", c.Extend},
		}
		for _, s := range sides {
			if s.v != nil && (!finite(*s.v) || *s.v < 0) {
				errs = append(errs, invalid("clearances_mm."+s.path, "must be non-negative, got %v", *s.v))
			}
		}
	}
	switch m.ReachPriority {
	case ReachHigh, ReachMedium, ReachLow:
	default:
		errs = append(errs, invalid("reachPriority", "unknown value %q", m.ReachPriority))
	}
	switch m.Mounting.Type {
	case MountFloor, MountWall, MountCeiling, MountRail, MountMixed:
	default:
		errs = append(errs, invalid("mounting.type", "unknown value %q", m.Mounting.Type))
	}
	return errs
}

// ValidateVehicle checks a vehicle blueprint.
func ValidateVehicle(v *VehicleBlueprint) []ValidationError {
	var errs []ValidationError
	if v.ID == "" {
		errs = append(errs, invalid("id", "must not be empty"))
	}
	if !finite(v.GVW) || v.GVW <= 0 {
		errs = append(errs, invalid("gvw_kg", "must be positive, got %v", v.GVW))
	}
	if !finite(v.Wheelbase) || v.Wheelbase <= 0 {
		errs = append(errs, invalid("wheelbase_mm", "must be positive, got %v", v.Wheelbase))
	}
	seen := make(map[int]bool)
	for i, a := range v.Axles {
		path := fmt.Sprintf("axles[%d]", i)
		if a.Index < 0 {
			errs = append(errs, invalid(path+".index", "must be non-negative"))
		}
		if seen[a.Index] {
			errs = append(errs, invalid(path+".index", "duplicate axle index %d", a.Index))
		}
		seen[a.Index] = true
		if !finite(a.X) {
			errs = append(errs, invalid(path+".x_mm", "must be finite"))
		}
		if a.MaxLoad != nil && (!finite(*a.MaxLoad) || *a.MaxLoad <= 0) {
			errs = append(errs, invalid(path+".maxLoad_kg", "must be positive, got %v", *a.MaxLoad))
		}
	}
	for i, z := range v.ForbiddenZones {
		path := fmt.Sprintf("forbiddenZones[%d]", i)
		if z.ID == "" {
			errs = append(errs, invalid(path+".id", "must not be empty"))
		}
		for k, s := range z.Size {
			if !finite(s) || s <= 0 {
				errs = append(errs, invalid(fmt.Sprintf("%s.size_mm[%d]", path, k), "must be positive, got %v", s))
			}
		}
	}
	return errs
}

// ValidateProject checks a project document, including any inline catalog
// entries. Unknown SKUs are not reported here; they surface when the layout
// context is built.
func ValidateProject(p *Project) []ValidationError {
	var errs []ValidationError
	if p.ID == "" {
		errs = append(errs, invalid("id", "must not be empty"))
	}
	if p.Vehicle.BlueprintID == "" {
		errs = append(errs, invalid("vehicle.blueprintId", "must not be empty"))
	}
	if r := p.Vehicle.PayloadReserve; r != nil && (!finite(*r) || *r < 0) {
		errs = append(errs, invalid("vehicle.payloadReserve_kg", "must be non-negative, got %v", *r))
	}
	if w := p.Settings.Walkway.MinWidth; !finite(w) || w < 0 {
		errs = append(errs, invalid("settings.walkway.minWidth_mm", "must not be negative, got %v", w))
	}

	ids := make(map[string]int)
	for i, pl := range p.Placements {
		path := fmt.Sprintf("placements[%d]", i)
		if pl.InstanceID == "" {
			errs = append(errs, invalid(path+".instanceId", "must not be empty"))
		} else if prev, dup := ids[pl.InstanceID]; dup {
			errs = append(errs, invalid(path+".instanceId", "duplicate of placements[%d]", prev))
		} else {
			ids[pl.InstanceID] = i
		}
		if pl.ModuleSKU == "" {
			errs = append(errs, invalid(path+".moduleSku", "must not be empty"))
		}
		for k := 0; k < 3; k++ {
			if !finite(pl.Position[k]) || !finite(pl.Rotation[k]) {
				errs = append(errs, invalid(path, "position and rotation must be finite"))
				break
			}
		}
	}

	for i := range p.ModulesCatalog {
		for _, e := range ValidateModule(&p.ModulesCatalog[i]) {
			e.Path = fmt.Sprintf("modulesCatalog[%d].%s", i, e.Path)
			errs = append(errs, e)
		}
	}
	return errs
}
