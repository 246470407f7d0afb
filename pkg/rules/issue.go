// Package rules evaluates a layout.Context and reports what is wrong with it.
// Each evaluator is a pure function of the context: collisions against other
// modules, the vehicle shell and forbidden zones; service clearances and the
// central walkway; mass distribution across the axles; and a per-module
// placement score. Findings are Issue values, never errors.
package rules

import "fmt"

// Severity grades an issue.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Rank orders severities: info < warning < critical. Unknown values rank
// below info.
func (s Severity) Rank() int {
	switch s {
	case SeverityInfo:
		return 1
	case SeverityWarning:
		return 2
	case SeverityCritical:
		return 3
	}
	return 0
}

// Issue codes.
const (
	CodeCollisionModules   = "collision.modules"
	CodeInteriorMinX       = "vehicle.interior.minX"
	CodeInteriorMaxX       = "vehicle.interior.maxX"
	CodeInteriorMinY       = "vehicle.interior.minY"
	CodeInteriorMaxY       = "vehicle.interior.maxY"
	CodeInteriorMaxZ       = "vehicle.interior.maxZ"
	CodeForbiddenCritical  = "forbidden.critical"
	CodeForbiddenZone      = "forbidden.zone"
	CodeWalkwayBlocked     = "walkway.blocked"
	CodeClearanceBlocked   = "clearance.blocked"
	CodeExtensionBlocked   = "extension.blocked"
	CodeMassTotal          = "mass.total"
	CodeMassAxleOverload   = "mass.axle.overload"
	CodeMassAxleNearLimit  = "mass.axle.nearLimit"
	CodeMassPayloadReserve = "mass.payload.reserve"
)

// Issue is one finding about a layout.
type Issue struct {
	Code               string         `json:"code"`
	Message            string         `json:"message"`
	Severity           Severity       `json:"severity"`
	RelatedInstanceIDs []string       `json:"relatedInstanceIds,omitempty"`
	Metadata           map[string]any `json:"metadata,omitempty"`
}

func (i Issue) String() string {
	return fmt.Sprintf("[%s] %s: %s", i.Severity, i.Code, i.Message)
}

func newIssue(code string, sev Severity, related []string, meta map[string]any, format string, args ...any) Issue {
	return Issue{
		Code:               code,
		Message:            fmt.Sprintf(format, args...),
		Severity:           sev,
		RelatedInstanceIDs: related,
		Metadata:           meta,
	}
}

// MaxSeverity returns the highest severity among issues, or "" when there are
// none.
func MaxSeverity(issues []Issue) Severity {
	var max Severity
	for _, is := range issues {
		if is.Severity.Rank() > max.Rank() {
			max = is.Severity
		}
	}
	return max
}

// CountBySeverity tallies issues per severity.
func CountBySeverity(issues []Issue) map[Severity]int {
	out := make(map[Severity]int, 3)
	for _, is := range issues {
		out[is.Severity]++
	}
	return out
}

// HasCritical reports whether any issue is critical.
func HasCritical(issues []Issue) bool {
	return MaxSeverity(issues) == SeverityCritical
}
