// Package export renders an evaluated layout into the files a fitter hands
// over: a bill of materials, a 2D floor plan, 3D scenes and a PDF summary.
// Every encoder is deterministic for a given context.
package export

import (
	"fmt"
	"strconv"
)

// Format names an export.
type Format string

const (
	FormatBOMCSV  Format = "bom-csv"
	FormatBOMJSON Format = "bom-json"
	FormatDXF     Format = "dxf"
	FormatOBJ     Format = "obj"
	FormatGLTF    Format = "gltf"
	FormatPDF     Format = "pdf"
	FormatSVG     Format = "svg"
	FormatSTL     Format = "stl"
)

type formatInfo struct {
	filename string
	mime     string
}

var formatTable = map[Format]formatInfo{
	FormatBOMCSV:  {"bill-of-materials.csv", "text/csv"},
	FormatBOMJSON: {"bill-of-materials.json", "application/json"},
	FormatDXF:     {"floorplan.dxf", "image/vnd.dxf"},
	FormatOBJ:     {"scene.obj", "text/plain"},
	FormatGLTF:    {"scene.gltf", "model/gltf+json"},
	FormatPDF:     {"report.pdf", "application/pdf"},
	FormatSVG:     {"floorplan.svg", "image/svg+xml"},
	FormatSTL:     {"scene.stl", "model/stl"},
}

// BuiltinFormats are produced by every evaluation, in this order.
var BuiltinFormats = []Format{FormatBOMCSV, FormatBOMJSON, FormatDXF, FormatOBJ, FormatGLTF, FormatPDF}

// Formats lists every supported format: the built-in ones followed by the
// formats rendered on demand.
func Formats() []Format {
	return append(append([]Format(nil), BuiltinFormats...), FormatSVG, FormatSTL)
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(s)
	if _, ok := formatTable[f]; !ok {
		return "", fmt.Errorf("export: unknown format %q", s)
	}
	return f, nil
}

// Filename is the conventional file name for the format.
func (f Format) Filename() string { return formatTable[f].filename }

// MIME is the media type of the format.
func (f Format) MIME() string { return formatTable[f].mime }

// Payload is one rendered export.
type Payload struct {
	Format   Format `json:"format"`
	Filename string `json:"filename"`
	MIME     string `json:"mime"`
	Content  []byte `json:"-"`
}

// NewPayload wraps content with the metadata of f.
func NewPayload(f Format, content []byte) Payload {
	return Payload{Format: f, Filename: f.Filename(), MIME: f.MIME(), Content: content}
}

// fixed formats v with prec decimals. Values that round to zero never carry
// a minus sign.
func fixed(v float64, prec int) string {
	s := strconv.FormatFloat(v, 'f', prec, 64)
	if s[0] == '-' {
		zero := true
		for _, c := range s[1:] {
			if c != '0' && c != '.' {
				zero = false
				break
			}
		}
		if zero {
			s = s[1:]
		}
	}
	return s
}
