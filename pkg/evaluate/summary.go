package evaluate

import (
	"github.com/chazu/upfit/pkg/export"
	"github.com/chazu/upfit/pkg/rules"
)

// axleSummaryItems and axleSummaryMinShare bound the per-axle contributor
// lists of a summary.
const (
	axleSummaryItems    = 3
	axleSummaryMinShare = 0.05
)

// ExportInfo describes a built-in payload without its content.
type ExportInfo struct {
	Format   export.Format `json:"format"`
	Filename string        `json:"filename"`
	MIME     string        `json:"mime"`
	Size     int           `json:"size"`
}

// Summary is the JSON view of an evaluation returned by the CLI and the
// HTTP service.
type Summary struct {
	ProjectID       string                          `json:"projectId"`
	ProjectName     string                          `json:"projectName"`
	VehicleID       string                          `json:"vehicleId"`
	WalkwayMinWidth float64                         `json:"walkwayMinWidth_mm"`
	MaxSeverity     rules.Severity                  `json:"maxSeverity,omitempty"`
	IssueCounts     map[rules.Severity]int          `json:"issueCounts"`
	Issues          []rules.Issue                   `json:"issues"`
	Mass            rules.MassAnalysis              `json:"mass"`
	MassStatus      rules.MassStatus                `json:"massStatus"`
	Walkway         rules.WalkwayStatus             `json:"walkway"`
	AxleSummaries   []rules.AxleContributionSummary `json:"axleContributions"`
	Influential     []rules.DominantContributor     `json:"influentialModules"`
	Scores          []rules.ModuleScore             `json:"scores"`
	BOM             []export.BOMEntry               `json:"bom"`
	Exports         []ExportInfo                    `json:"exports"`
}

// Summary condenses the evaluation for reporting.
func (e *Evaluation) Summary() Summary {
	ctx := e.Context
	s := Summary{
		ProjectID:       ctx.Project.ID,
		ProjectName:     ctx.Project.Name,
		VehicleID:       ctx.Vehicle.ID,
		WalkwayMinWidth: ctx.WalkwayMinWidth,
		MaxSeverity:     rules.MaxSeverity(e.Issues),
		IssueCounts:     rules.CountBySeverity(e.Issues),
		Issues:          e.Issues,
		Mass:            e.Mass,
		MassStatus:      rules.DeriveMassStatus(e.Issues),
		Walkway:         rules.DeriveWalkwayStatus(e.Issues),
		AxleSummaries:   rules.SummarizeAxleContributions(e.Mass, axleSummaryItems, axleSummaryMinShare),
		Influential:     e.Influential,
		Scores:          e.Scores,
		BOM:             e.BOM,
	}
	if s.Issues == nil {
		s.Issues = []rules.Issue{}
	}
	for _, p := range e.Exports {
		s.Exports = append(s.Exports, ExportInfo{Format: p.Format, Filename: p.Filename, MIME: p.MIME, Size: len(p.Content)})
	}
	return s
}
