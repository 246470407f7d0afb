package rules

import (
	"math"

	"github.com/chazu/upfit/pkg/layout"
	"github.com/chazu/upfit/pkg/model"
)

// nearLimitUtilization is the utilization above which an axle that is not
// overloaded still gets a warning.
const nearLimitUtilization = 0.9

// AxleLoad is the computed load on one axle.
type AxleLoad struct {
	Index       int      `json:"index"`
	Position    float64  `json:"position_mm"`
	Load        float64  `json:"load_kg"`
	MaxLoad     *float64 `json:"maxLoad_kg"`
	Utilization float64  `json:"utilization"`
}

// AxleCondition classifies an axle load against its limit.
type AxleCondition int

const (
	AxleWithinLimit AxleCondition = iota
	AxleNearLimit
	AxleOverloaded
)

// rated reports the axle's rated maximum. A zero rating means unrated.
func rated(rating *float64) (float64, bool) {
	if rating == nil || *rating <= 0 {
		return 0, false
	}
	return *rating, true
}

// Condition classifies the load. Only an axle with a rated maximum can be
// overloaded; any axle can be near its limit.
func (a AxleLoad) Condition() AxleCondition {
	if limit, ok := rated(a.MaxLoad); ok && a.Load > limit {
		return AxleOverloaded
	}
	if a.Utilization > nearLimitUtilization {
		return AxleNearLimit
	}
	return AxleWithinLimit
}

// ModuleMassContribution is how one module's mass splits across the axles.
type ModuleMassContribution struct {
	InstanceID string    `json:"instanceId"`
	SKU        string    `json:"moduleSku"`
	Name       string    `json:"moduleName"`
	Mass       float64   `json:"mass_kg"`
	AxleLoads  []float64 `json:"axleLoads_kg"`
}

// MassAnalysis summarises the mass of the fitted equipment.
type MassAnalysis struct {
	TotalMass     float64                  `json:"totalMass_kg"`
	CenterOfMassX float64                  `json:"barycenterX_mm"`
	Axles         []AxleLoad               `json:"axleLoads"`
	PayloadMargin *float64                 `json:"payloadMargin_kg"`
	Contributions []ModuleMassContribution `json:"moduleContributions"`
}

// MassResult is the output of EvaluateMass.
type MassResult struct {
	Analysis MassAnalysis
	Issues   []Issue
}

// DistributeMass splits a point mass at longitudinal position x across axles,
// which must be ordered front to rear. Between two axles the mass is shared by
// linear interpolation; beyond the outermost axles it goes entirely to the
// nearest one. The result has one entry per axle and sums to mass.
func DistributeMass(axles []model.Axle, mass, x float64) []float64 {
	n := len(axles)
	switch n {
	case 0:
		return nil
	case 1:
		return []float64{mass}
	}
	loads := make([]float64, n)
	if x <= axles[0].X {
		loads[0] = mass
		return loads
	}
	if x >= axles[n-1].X {
		loads[n-1] = mass
		return loads
	}
	for i := 0; i < n-1; i++ {
		left, right := axles[i].X, axles[i+1].X
		if x < left || x > right {
			continue
		}
		ratio := 0.5
		if span := right - left; span != 0 {
			ratio = (x - left) / span
		}
		loads[i] = mass * (1 - ratio)
		loads[i+1] = mass * ratio
		return loads
	}
	loads[0] = mass
	return loads
}

// EvaluateMass computes total mass, longitudinal centre of mass and axle
// loads, and flags GVW, axle and payload-reserve violations.
func EvaluateMass(ctx *layout.Context) MassResult {
	v := &ctx.Vehicle
	axleTotals := make([]float64, len(v.Axles))
	contributions := make([]ModuleMassContribution, 0, len(ctx.Modules))
	var total, weightedX float64

	for i := range ctx.Modules {
		m := &ctx.Modules[i]
		mass := m.Module.Mass
		x := m.OBB.Center.X
		total += mass
		weightedX += mass * x

		loads := DistributeMass(v.Axles, mass, x)
		for k, l := range loads {
			axleTotals[k] += l
		}
		contributions = append(contributions, ModuleMassContribution{
			InstanceID: m.Placement.InstanceID,
			SKU:        m.Module.SKU,
			Name:       m.Module.Name,
			Mass:       mass,
			AxleLoads:  loads,
		})
	}

	a := MassAnalysis{
		TotalMass:     total,
		Axles:         make([]AxleLoad, len(v.Axles)),
		Contributions: contributions,
	}
	if total != 0 {
		a.CenterOfMassX = weightedX / total
	}
	if r := ctx.Project.Vehicle.PayloadReserve; r != nil {
		margin := *r - total
		a.PayloadMargin = &margin
	}

	fallback := v.GVW / math.Max(1, float64(len(v.Axles)))
	for k, axle := range v.Axles {
		limit := fallback
		if r, ok := rated(axle.MaxLoad); ok {
			limit = r
		}
		util := 0.0
		if limit != 0 {
			util = axleTotals[k] / limit
		}
		a.Axles[k] = AxleLoad{
			Index:       axle.Index,
			Position:    axle.X,
			Load:        axleTotals[k],
			MaxLoad:     axle.MaxLoad,
			Utilization: util,
		}
	}

	return MassResult{Analysis: a, Issues: massIssues(v, a)}
}

func massIssues(v *model.VehicleBlueprint, a MassAnalysis) []Issue {
	var issues []Issue
	if a.TotalMass > v.GVW {
		issues = append(issues, newIssue(CodeMassTotal, SeverityCritical, nil, nil,
			"equipment mass (%.1f kg) exceeds the GVW (%g kg)", a.TotalMass, v.GVW))
	}
	for _, axle := range a.Axles {
		switch axle.Condition() {
		case AxleOverloaded:
			issues = append(issues, newIssue(CodeMassAxleOverload, SeverityCritical, nil,
				map[string]any{"axleIndex": axle.Index, "load_kg": axle.Load, "max_kg": *axle.MaxLoad},
				"axle %d is overloaded (%.1f kg > %g kg)", axle.Index, axle.Load, *axle.MaxLoad))
		case AxleNearLimit:
			issues = append(issues, newIssue(CodeMassAxleNearLimit, SeverityWarning, nil,
				map[string]any{"axleIndex": axle.Index, "utilization": axle.Utilization},
				"axle %d is at %.0f%% of its rated load", axle.Index, math.Round(axle.Utilization*100)))
		}
	}
	if a.PayloadMargin != nil && *a.PayloadMargin < 0 {
		issues = append(issues, newIssue(CodeMassPayloadReserve, SeverityCritical, nil, nil,
			"payload reserve exceeded (%.1f kg)", *a.PayloadMargin))
	}
	return issues
}
