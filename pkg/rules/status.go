package rules

import (
	"math"
	"sort"
	"strings"
)

// UtilizationSeverity grades an axle utilization ratio for display: at or
// above 1 is critical, 0.9 warning, 0.75 info. Lower or non-finite values
// return "".
func UtilizationSeverity(u float64) Severity {
	switch {
	case math.IsNaN(u) || math.IsInf(u, 0):
		return ""
	case u >= 1:
		return SeverityCritical
	case u >= 0.9:
		return SeverityWarning
	case u >= 0.75:
		return SeverityInfo
	}
	return ""
}

// MassStatus groups the mass-related issues of an evaluation.
type MassStatus struct {
	Severity   Severity `json:"severity,omitempty"`
	Overloaded []Issue  `json:"overloaded"`
	NearLimit  []Issue  `json:"nearLimit"`
}

// DeriveMassStatus groups mass issues into hard overloads (GVW, axle,
// payload reserve) and near-limit warnings.
func DeriveMassStatus(issues []Issue) MassStatus {
	var st MassStatus
	for _, is := range issues {
		switch is.Code {
		case CodeMassTotal, CodeMassAxleOverload, CodeMassPayloadReserve:
			st.Overloaded = append(st.Overloaded, is)
		case CodeMassAxleNearLimit:
			st.NearLimit = append(st.NearLimit, is)
		default:
			continue
		}
		if is.Severity.Rank() > st.Severity.Rank() {
			st.Severity = is.Severity
		}
	}
	return st
}

// WalkwayStatus summarises the walkway issues of an evaluation.
type WalkwayStatus struct {
	Severity Severity `json:"severity,omitempty"`
	Issues   []Issue  `json:"issues"`
}

// Clear reports whether nothing intrudes on the walkway.
func (w WalkwayStatus) Clear() bool { return len(w.Issues) == 0 }

// DeriveWalkwayStatus picks out walkway.* issues.
func DeriveWalkwayStatus(issues []Issue) WalkwayStatus {
	var st WalkwayStatus
	for _, is := range issues {
		if !strings.HasPrefix(is.Code, "walkway.") {
			continue
		}
		st.Issues = append(st.Issues, is)
		if is.Severity.Rank() > st.Severity.Rank() {
			st.Severity = is.Severity
		}
	}
	return st
}

// AxleContribution is one module's share of an axle load.
type AxleContribution struct {
	InstanceID string  `json:"instanceId"`
	SKU        string  `json:"moduleSku"`
	Name       string  `json:"moduleName"`
	Load       float64 `json:"load_kg"`
	Share      float64 `json:"share"`
}

// AxleContributionSummary lists the main contributors to one axle load.
type AxleContributionSummary struct {
	Axle          AxleLoad           `json:"axle"`
	Contributions []AxleContribution `json:"contributions"`
	OthersLoad    float64            `json:"othersLoad_kg"`
	OthersShare   float64            `json:"othersShare"`
}

// SummarizeAxleContributions returns, per axle, the heaviest contributors.
// Contributors below minShare of the axle load are folded into "others"
// unless none reach it; at most maxItems are listed.
func SummarizeAxleContributions(a MassAnalysis, maxItems int, minShare float64) []AxleContributionSummary {
	out := make([]AxleContributionSummary, 0, len(a.Axles))
	for k, axle := range a.Axles {
		var all []AxleContribution
		for _, c := range a.Contributions {
			if k >= len(c.AxleLoads) || c.AxleLoads[k] <= 0 {
				continue
			}
			share := 0.0
			if axle.Load != 0 {
				share = c.AxleLoads[k] / axle.Load
			}
			all = append(all, AxleContribution{
				InstanceID: c.InstanceID,
				SKU:        c.SKU,
				Name:       c.Name,
				Load:       c.AxleLoads[k],
				Share:      share,
			})
		}
		sort.SliceStable(all, func(i, j int) bool { return all[i].Load > all[j].Load })

		var shown []AxleContribution
		for _, c := range all {
			if c.Share >= minShare {
				shown = append(shown, c)
			}
		}
		if len(shown) == 0 {
			shown = all
		}
		if len(shown) > maxItems {
			shown = shown[:maxItems]
		}

		accounted := 0.0
		for _, c := range shown {
			accounted += c.Load
		}
		s := AxleContributionSummary{
			Axle:          axle,
			Contributions: shown,
			OthersLoad:    math.Max(0, axle.Load-accounted),
		}
		if axle.Load != 0 {
			s.OthersShare = s.OthersLoad / axle.Load
		}
		out = append(out, s)
	}
	return out
}

// DominantContributor is a module ranked by its share of its most loaded
// axle.
type DominantContributor struct {
	InstanceID string  `json:"instanceId"`
	SKU        string  `json:"moduleSku"`
	Name       string  `json:"moduleName"`
	Mass       float64 `json:"mass_kg"`
	// AxleIndex is the index of the axle this module loads most, or -1.
	AxleIndex int     `json:"heaviestAxleIndex"`
	Load      float64 `json:"heaviestLoad_kg"`
	Share     float64 `json:"heaviestShare"`
}

// DominantContributors ranks modules by the share they contribute to the axle
// they load most, breaking ties by load, and returns at most limit entries.
func DominantContributors(a MassAnalysis, limit int) []DominantContributor {
	out := make([]DominantContributor, 0, len(a.Contributions))
	for _, c := range a.Contributions {
		d := DominantContributor{
			InstanceID: c.InstanceID,
			SKU:        c.SKU,
			Name:       c.Name,
			Mass:       c.Mass,
			AxleIndex:  -1,
		}
		heaviest := -1
		for k, l := range c.AxleLoads {
			if l > d.Load {
				d.Load = l
				heaviest = k
			}
		}
		if heaviest >= 0 && heaviest < len(a.Axles) {
			axle := a.Axles[heaviest]
			d.AxleIndex = axle.Index
			if axle.Load > 0 {
				d.Share = d.Load / axle.Load
			}
		}
		out = append(out, d)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Share == out[j].Share {
			return out[i].Load > out[j].Load
		}
		return out[i].Share > out[j].Share
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
