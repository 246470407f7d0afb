package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"

	"github.com/chazu/upfit/pkg/layout"
)

// BOMEntry is one line of the bill of materials. Every placement is its own
// line with quantity 1.
type BOMEntry struct {
	InstanceID string     `json:"instanceId"`
	SKU        string     `json:"sku"`
	Name       string     `json:"name"`
	Quantity   int        `json:"quantity"`
	Mass       float64    `json:"mass_kg"`
	Position   [3]float64 `json:"position_mm"`
}

var bomHeader = []string{"instanceId", "sku", "name", "quantity", "mass_kg", "pos_x_mm", "pos_y_mm", "pos_z_mm"}

// BuildBOM lists the modules of ctx in placement order.
func BuildBOM(ctx *layout.Context) []BOMEntry {
	out := make([]BOMEntry, 0, len(ctx.Modules))
	for i := range ctx.Modules {
		m := &ctx.Modules[i]
		out = append(out, BOMEntry{
			InstanceID: m.Placement.InstanceID,
			SKU:        m.Module.SKU,
			Name:       m.Module.Name,
			Quantity:   1,
			Mass:       m.Module.Mass,
			Position:   m.Placement.Position,
		})
	}
	return out
}

// BOMCSV encodes entries as RFC 4180 CSV with a header row. Records are
// separated by newlines; the last one is not terminated, so splitting on
// "\n" yields one line per placement plus the header.
func BOMCSV(entries []BOMEntry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(bomHeader); err != nil {
		return nil, fmt.Errorf("bom csv: %w", err)
	}
	for _, e := range entries {
		rec := []string{
			e.InstanceID,
			e.SKU,
			e.Name,
			fmt.Sprint(e.Quantity),
			fixed(e.Mass, 2),
			fixed(e.Position[0], 1),
			fixed(e.Position[1], 1),
			fixed(e.Position[2], 1),
		}
		if err := w.Write(rec); err != nil {
			return nil, fmt.Errorf("bom csv: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("bom csv: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// BOMJSON encodes entries as a JSON array indented by two spaces. An empty
// bill of materials is "[]".
func BOMJSON(entries []BOMEntry) ([]byte, error) {
	if entries == nil {
		entries = []BOMEntry{}
	}
	b, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("bom json: %w", err)
	}
	return b, nil
}
