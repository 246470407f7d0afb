// Package evaluate runs the whole rule pipeline over a project and collects
// the results, ready-made exports included, into one immutable Evaluation.
package evaluate

import (
	"fmt"

	"github.com/chazu/upfit/pkg/catalog"
	"github.com/chazu/upfit/pkg/export"
	"github.com/chazu/upfit/pkg/kernel"
	"github.com/chazu/upfit/pkg/kernel/sdfx"
	"github.com/chazu/upfit/pkg/layout"
	"github.com/chazu/upfit/pkg/model"
	"github.com/chazu/upfit/pkg/rules"
	"github.com/chazu/upfit/pkg/tessellate"
)

// influentialLimit is how many dominant contributors the report lists.
const influentialLimit = 5

type options struct {
	layout []layout.Option
	kernel kernel.Kernel
}

// Option configures an evaluation.
type Option func(*options)

// WithWalkwayOverride forces the walkway width, ignoring project settings.
func WithWalkwayOverride(mm float64) Option {
	return func(o *options) { o.layout = append(o.layout, layout.WithWalkwayOverride(mm)) }
}

// WithKernel sets the geometry kernel used to render the STL preview.
func WithKernel(k kernel.Kernel) Option {
	return func(o *options) { o.kernel = k }
}

// Evaluation is the result of evaluating one project. It is never mutated
// after Evaluate returns.
type Evaluation struct {
	Context *layout.Context
	// Issues holds collision issues, then clearance issues, then mass issues.
	Issues      []rules.Issue
	Collisions  rules.CollisionResult
	Mass        rules.MassAnalysis
	Scores      []rules.ModuleScore
	BOM         []export.BOMEntry
	Influential []rules.DominantContributor
	// Exports holds the built-in payloads in export.BuiltinFormats order.
	Exports []export.Payload

	kernel kernel.Kernel
}

// Evaluate builds the layout context and runs every evaluator and built-in
// encoder. The only failures are unresolved references and malformed
// blueprints; rule violations are reported as issues.
func Evaluate(project *model.Project, vehicle *model.VehicleBlueprint, modules layout.ModuleSource, opts ...Option) (*Evaluation, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	ctx, err := layout.Build(project, vehicle, modules, o.layout...)
	if err != nil {
		return nil, err
	}

	collisions := rules.CheckCollisions(ctx)
	clearances := rules.CheckClearances(ctx)
	mass := rules.EvaluateMass(ctx)

	issues := make([]rules.Issue, 0, len(collisions.Issues)+len(clearances)+len(mass.Issues))
	issues = append(issues, collisions.Issues...)
	issues = append(issues, clearances...)
	issues = append(issues, mass.Issues...)

	e := &Evaluation{
		Context:     ctx,
		Issues:      issues,
		Collisions:  collisions,
		Mass:        mass.Analysis,
		Scores:      rules.ScoreModules(ctx, mass.Analysis),
		BOM:         export.BuildBOM(ctx),
		Influential: rules.DominantContributors(mass.Analysis, influentialLimit),
		kernel:      o.kernel,
	}

	for _, f := range export.BuiltinFormats {
		content, err := e.encode(f)
		if err != nil {
			return nil, fmt.Errorf("evaluate: %s export: %w", f, err)
		}
		e.Exports = append(e.Exports, export.NewPayload(f, content))
	}
	return e, nil
}

// EvaluateProject resolves the project's vehicle blueprint and modules from
// cat and evaluates it.
func EvaluateProject(project *model.Project, cat *catalog.Catalog, opts ...Option) (*Evaluation, error) {
	vehicle, err := layout.ResolveVehicle(project, cat)
	if err != nil {
		return nil, err
	}
	return Evaluate(project, vehicle, cat, opts...)
}

// Payload returns a built-in export.
func (e *Evaluation) Payload(f export.Format) (export.Payload, bool) {
	for _, p := range e.Exports {
		if p.Format == f {
			return p, true
		}
	}
	return export.Payload{}, false
}

// Render returns any supported export: built-in payloads are returned as
// computed, the SVG plan and STL preview are rendered on demand.
func (e *Evaluation) Render(f export.Format) (export.Payload, error) {
	if p, ok := e.Payload(f); ok {
		return p, nil
	}
	if _, err := export.ParseFormat(string(f)); err != nil {
		return export.Payload{}, err
	}
	content, err := e.encode(f)
	if err != nil {
		return export.Payload{}, fmt.Errorf("evaluate: %s export: %w", f, err)
	}
	return export.NewPayload(f, content), nil
}

func (e *Evaluation) encode(f export.Format) ([]byte, error) {
	switch f {
	case export.FormatBOMCSV:
		return export.BOMCSV(e.BOM)
	case export.FormatBOMJSON:
		return export.BOMJSON(e.BOM)
	case export.FormatDXF:
		return export.DXF(e.Context), nil
	case export.FormatOBJ:
		return export.OBJ(e.Context), nil
	case export.FormatGLTF:
		return export.GLTF(e.Context)
	case export.FormatPDF:
		return export.PDF(export.Report{
			Context:     e.Context,
			Mass:        e.Mass,
			Issues:      e.Issues,
			Scores:      e.Scores,
			BOM:         e.BOM,
			Influential: e.Influential,
		}), nil
	case export.FormatSVG:
		return export.SVG(e.Context, e.Issues), nil
	case export.FormatSTL:
		k := e.kernel
		if k == nil {
			k = sdfx.New()
		}
		meshes, err := tessellate.Tessellate(e.Context, k, tessellate.Options{Floor: true})
		if err != nil {
			return nil, err
		}
		return export.STL(e.Context.Project.Name, meshes)
	}
	return nil, fmt.Errorf("unknown format %q", f)
}
