package rules

import (
	"testing"

	"github.com/chazu/upfit/pkg/model"
)

func TestUtilizationSeverity(t *testing.T) {
	tests := []struct {
		u    float64
		want Severity
	}{
		{0.5, ""},
		{0.75, SeverityInfo},
		{0.9, SeverityWarning},
		{0.99, SeverityWarning},
		{1, SeverityCritical},
		{1.4, SeverityCritical},
	}
	for _, tt := range tests {
		if got := UtilizationSeverity(tt.u); got != tt.want {
			t.Errorf("UtilizationSeverity(%g) = %q, want %q", tt.u, got, tt.want)
		}
	}
}

func TestDeriveMassStatus(t *testing.T) {
	issues := []Issue{
		{Code: CodeCollisionModules, Severity: SeverityCritical},
		{Code: CodeMassAxleNearLimit, Severity: SeverityWarning},
	}
	st := DeriveMassStatus(issues)
	if st.Severity != SeverityWarning || len(st.NearLimit) != 1 || len(st.Overloaded) != 0 {
		t.Fatalf("status = %+v", st)
	}

	issues = append(issues, Issue{Code: CodeMassPayloadReserve, Severity: SeverityCritical})
	st = DeriveMassStatus(issues)
	if st.Severity != SeverityCritical || len(st.Overloaded) != 1 {
		t.Fatalf("status = %+v", st)
	}

	if st := DeriveMassStatus(nil); st.Severity != "" {
		t.Fatalf("empty status = %+v", st)
	}
}

func TestDeriveWalkwayStatus(t *testing.T) {
	st := DeriveWalkwayStatus([]Issue{{Code: CodeClearanceBlocked, Severity: SeverityCritical}})
	if !st.Clear() {
		t.Fatalf("expected clear walkway, got %+v", st)
	}
	st = DeriveWalkwayStatus([]Issue{{Code: CodeWalkwayBlocked, Severity: SeverityWarning}})
	if st.Clear() || st.Severity != SeverityWarning {
		t.Fatalf("status = %+v", st)
	}
}

func sampleAnalysis() MassAnalysis {
	return MassAnalysis{
		TotalMass: 100,
		Axles: []AxleLoad{
			{Index: 0, Position: -1500, Load: 60, MaxLoad: model.Float(1800)},
			{Index: 1, Position: 1500, Load: 40, MaxLoad: model.Float(1800)},
		},
		Contributions: []ModuleMassContribution{
			{InstanceID: "a", SKU: "A", Mass: 50, AxleLoads: []float64{50, 0}},
			{InstanceID: "b", SKU: "B", Mass: 48, AxleLoads: []float64{8, 40}},
			{InstanceID: "c", SKU: "C", Mass: 2, AxleLoads: []float64{2, 0}},
		},
	}
}

func TestSummarizeAxleContributions(t *testing.T) {
	sum := SummarizeAxleContributions(sampleAnalysis(), 3, 0.05)
	if len(sum) != 2 {
		t.Fatalf("summaries = %+v", sum)
	}

	front := sum[0]
	if len(front.Contributions) != 2 || front.Contributions[0].InstanceID != "a" || front.Contributions[1].InstanceID != "b" {
		t.Fatalf("front contributions = %+v", front.Contributions)
	}
	if !approx(front.OthersLoad, 2) || !approx(front.OthersShare, 2.0/60) {
		t.Errorf("others = %g (%g)", front.OthersLoad, front.OthersShare)
	}

	rear := sum[1]
	if len(rear.Contributions) != 1 || rear.Contributions[0].InstanceID != "b" || !approx(rear.Contributions[0].Share, 1) {
		t.Fatalf("rear contributions = %+v", rear.Contributions)
	}

	limited := SummarizeAxleContributions(sampleAnalysis(), 1, 0.05)
	if len(limited[0].Contributions) != 1 || !approx(limited[0].OthersLoad, 10) {
		t.Fatalf("limited = %+v", limited[0])
	}
}

func TestSummarizeFallsBackBelowMinShare(t *testing.T) {
	sum := SummarizeAxleContributions(sampleAnalysis(), 5, 0.99)
	if len(sum[0].Contributions) != 3 {
		t.Fatalf("expected every contributor when none reach the threshold, got %+v", sum[0].Contributions)
	}
}

func TestDominantContributors(t *testing.T) {
	got := DominantContributors(sampleAnalysis(), 2)
	if len(got) != 2 {
		t.Fatalf("got %+v", got)
	}
	// b carries the whole rear axle; a carries 50/60 of the front.
	if got[0].InstanceID != "b" || got[0].AxleIndex != 1 || !approx(got[0].Share, 1) {
		t.Errorf("first = %+v", got[0])
	}
	if got[1].InstanceID != "a" || got[1].AxleIndex != 0 || !approx(got[1].Share, 50.0/60) {
		t.Errorf("second = %+v", got[1])
	}
}

func TestDominantContributorWithoutAxles(t *testing.T) {
	a := MassAnalysis{Contributions: []ModuleMassContribution{{InstanceID: "x", Mass: 5}}}
	got := DominantContributors(a, 5)
	if len(got) != 1 || got[0].AxleIndex != -1 || got[0].Share != 0 {
		t.Fatalf("got %+v", got)
	}
}
