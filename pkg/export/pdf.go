package export

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/chazu/upfit/pkg/layout"
	"github.com/chazu/upfit/pkg/rules"
)

// Page geometry in PDF points (A4 portrait).
const (
	pdfPageWidth    = 595
	pdfPageHeight   = 842
	pdfTop          = 800.0
	pdfBottom       = 50.0
	pdfLineStep     = 16.0
	pdfMarginLeft   = 50.0
	pdfFontSize     = 12
	pdfMaxIssues    = 6
	pdfMaxScores    = 5
	pdfMaxBOM       = 5
	pdfMaxDominants = 5
)

// Report gathers what the PDF summary prints.
type Report struct {
	Context     *layout.Context
	Mass        rules.MassAnalysis
	Issues      []rules.Issue
	Scores      []rules.ModuleScore
	BOM         []BOMEntry
	Influential []rules.DominantContributor
}

// reportLines renders the report as plain text lines.
func reportLines(r Report) []string {
	var lines []string
	add := func(format string, args ...any) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}
	ctx := r.Context

	add("Project: %s", ctx.Project.Name)
	add("Vehicle: %s", ctx.Vehicle.Label)
	add("Walkway min: %s mm", fixed(ctx.WalkwayMinWidth, 0))
	add("Total mass: %s kg - Center of mass X: %s mm", fixed(r.Mass.TotalMass, 1), fixed(r.Mass.CenterOfMassX, 1))
	for _, a := range r.Mass.Axles {
		add("Axle %d: %s kg (%d%%)", a.Index, fixed(a.Load, 1), int(math.Round(a.Utilization*100)))
	}
	if r.Mass.PayloadMargin != nil {
		add("Payload margin: %s kg", fixed(*r.Mass.PayloadMargin, 1))
	}

	if len(r.Issues) == 0 {
		add("No issues.")
	} else {
		add("Issues:")
		for i, is := range r.Issues {
			if i == pdfMaxIssues {
				break
			}
			add("- [%s] %s", is.Severity, is.Code)
		}
	}

	if ws := rules.DeriveWalkwayStatus(r.Issues); ws.Clear() {
		add("Walkway: clear.")
	} else {
		add("Walkway: %d issue(s).", len(ws.Issues))
	}

	add("Module scores (top %d):", pdfMaxScores)
	scores := append([]rules.ModuleScore(nil), r.Scores...)
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Total > scores[j].Total })
	for i, s := range scores {
		if i == pdfMaxScores {
			break
		}
		add("- %s: %s", s.InstanceID, fixed(s.Total, 2))
	}

	add("Influential modules:")
	for i, d := range r.Influential {
		if i == pdfMaxDominants {
			break
		}
		if d.AxleIndex < 0 {
			add("- %s (%s): %s kg", d.SKU, d.InstanceID, fixed(d.Mass, 1))
			continue
		}
		add("- %s (%s): %d%% of axle %d", d.SKU, d.InstanceID, int(math.Round(d.Share*100)), d.AxleIndex)
	}

	add("BOM (first entries):")
	for i, e := range r.BOM {
		if i == pdfMaxBOM {
			break
		}
		add("- %s (%s kg)", e.SKU, fixed(e.Mass, 1))
	}
	return lines
}

// pdfText escapes s for a PDF literal string in WinAnsiEncoding. Latin-1
// letters are written as octal escapes, which WinAnsi maps to the same code
// points; anything else becomes '?'.
func pdfText(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '\\' || r == '(' || r == ')':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r >= 0x20 && r <= 0x7e:
			b.WriteRune(r)
		case r >= 0xa0 && r <= 0xff:
			fmt.Fprintf(&b, "\\%03o", r)
		default:
			b.WriteByte('?')
		}
	}
	return b.String()
}

// paginate splits lines into pages so that no line is drawn below the
// bottom margin.
func paginate(lines []string) [][]string {
	perPage := int(math.Floor((pdfTop-pdfBottom)/pdfLineStep)) + 1
	var pages [][]string
	for len(lines) > perPage {
		pages = append(pages, lines[:perPage])
		lines = lines[perPage:]
	}
	return append(pages, lines)
}

func pageContent(lines []string) string {
	var b strings.Builder
	y := pdfTop
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "BT /F1 %d Tf %s %s Td (%s) Tj ET", pdfFontSize, fixed(pdfMarginLeft, 2), fixed(y, 2), pdfText(l))
		y -= pdfLineStep
	}
	return b.String()
}

// PDF writes a minimal PDF 1.4 document with the report text in Helvetica.
// Objects are the catalog (1), the page tree (2), the font (3), then a page
// and its content stream for each page. The cross-reference table carries
// exact byte offsets and the file ends with %%EOF.
func PDF(r Report) []byte {
	pages := paginate(reportLines(r))

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"", // page tree, filled in below
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}
	kids := make([]string, 0, len(pages))
	for i, lines := range pages {
		pageID, contentID := 4+2*i, 5+2*i
		kids = append(kids, fmt.Sprintf("%d 0 R", pageID))
		content := pageContent(lines)
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %d %d] /Contents %d 0 R /Resources << /Font << /F1 3 0 R >> >> >>",
				pdfPageWidth, pdfPageHeight, contentID),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
	}
	objects[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages))

	var b strings.Builder
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, body := range objects {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}

	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", len(objects)+1)
	b.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF", len(objects)+1, xref)
	return []byte(b.String())
}
