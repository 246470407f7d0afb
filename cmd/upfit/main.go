// Command upfit evaluates vehicle layout projects from the command line.
//
// Usage:
//
//	upfit evaluate [-strict] [-json] project.json...
//	upfit export -format dxf [-o floorplan.dxf] project.json
//	upfit catalog [-json]
//	upfit script [-json] layout.lisp
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"text/tabwriter"

	"golang.org/x/sync/errgroup"

	"github.com/chazu/upfit/internal/config"
	"github.com/chazu/upfit/internal/logging"
	"github.com/chazu/upfit/pkg/catalog"
	"github.com/chazu/upfit/pkg/engine"
	"github.com/chazu/upfit/pkg/evaluate"
	"github.com/chazu/upfit/pkg/export"
	"github.com/chazu/upfit/pkg/model"
	"github.com/chazu/upfit/pkg/rules"
)

// Exit codes.
const (
	exitOK       = 0
	exitFailure  = 1 // unreadable, invalid or unresolvable input
	exitUsage    = 2
	exitCritical = 3 // -strict and at least one critical issue
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// app carries what every subcommand needs.
type app struct {
	cfg    config.Config
	log    logging.Logger
	stdout io.Writer
	stderr io.Writer
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return exitUsage
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "upfit: %v\n", err)
		return exitFailure
	}
	a := &app{cfg: cfg, stdout: stdout, stderr: stderr}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "evaluate":
		return a.evaluate(rest)
	case "export":
		return a.export(rest)
	case "catalog":
		return a.catalog(rest)
	case "script":
		return a.script(rest)
	case "help", "-h", "-help", "--help":
		usage(stdout)
		return exitOK
	}
	fmt.Fprintf(stderr, "upfit: unknown command %q\n", cmd)
	usage(stderr)
	return exitUsage
}

func usage(w io.Writer) {
	fmt.Fprint(w, `usage:
  upfit evaluate [-strict] [-json] project...   evaluate project files
  upfit export -format FORMAT [-o FILE] project  write one export
  upfit catalog [-json]                          list catalog modules and vehicles
  upfit script [-json] layout.lisp               evaluate a layout script
`)
}

// flags returns a flag set with the shared configuration flags registered.
func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet("upfit "+name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	a.cfg.RegisterFlags(fs)
	return fs
}

// setup builds the logger and catalog once flags are parsed.
func (a *app) setup() (*catalog.Catalog, bool) {
	a.log = logging.New(logging.Config{Level: a.cfg.LogLevel, Format: a.cfg.LogFormat, Output: a.stderr})
	cat, err := a.cfg.Catalog()
	if err != nil {
		fmt.Fprintf(a.stderr, "upfit: %v\n", err)
		return nil, false
	}
	return cat, true
}

func (a *app) fail(format string, args ...any) int {
	fmt.Fprintf(a.stderr, "upfit: "+format+"\n", args...)
	return exitFailure
}

// loadProject reads and validates a project file.
func loadProject(path string) (*model.Project, error) {
	p, err := model.LoadProject(path)
	if err != nil {
		return nil, err
	}
	if errs := model.ValidateProject(p); len(errs) > 0 {
		return nil, fmt.Errorf("%s: %w", path, errors.Join(validationErrors(errs)...))
	}
	return p, nil
}

func validationErrors(errs []model.ValidationError) []error {
	out := make([]error, len(errs))
	for i, e := range errs {
		out[i] = e
	}
	return out
}

// fileResult is the outcome of evaluating one file.
type fileResult struct {
	path string
	eval *evaluate.Evaluation
}

func (a *app) evaluate(args []string) int {
	fs := a.flags("evaluate")
	strict := fs.Bool("strict", false, "exit with status 3 when any issue is critical")
	asJSON := fs.Bool("json", false, "print summaries as JSON")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(a.stderr, "upfit evaluate: no project files")
		return exitUsage
	}
	cat, ok := a.setup()
	if !ok {
		return exitFailure
	}

	files := fs.Args()
	results := make([]fileResult, len(files))
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p, err := loadProject(path)
			if err != nil {
				return err
			}
			e, err := evaluate.EvaluateProject(p, cat, a.cfg.EvaluateOptions()...)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			a.log.Debug(ctx, "evaluated", logging.String("file", path), logging.Int("issues", len(e.Issues)))
			results[i] = fileResult{path: path, eval: e}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return a.fail("%v", err)
	}

	critical := false
	if *asJSON {
		summaries := make([]evaluate.Summary, len(results))
		for i, r := range results {
			summaries[i] = r.eval.Summary()
			critical = critical || rules.HasCritical(r.eval.Issues)
		}
		if err := writeJSON(a.stdout, summaries); err != nil {
			return a.fail("%v", err)
		}
	} else {
		for _, r := range results {
			writeReport(a.stdout, r.path, r.eval)
			critical = critical || rules.HasCritical(r.eval.Issues)
		}
	}

	if *strict && critical {
		return exitCritical
	}
	return exitOK
}

func (a *app) export(args []string) int {
	fs := a.flags("export")
	format := fs.String("format", string(export.FormatPDF), "export format: "+formatList())
	out := fs.String("o", "", "output file (default: the format's file name, - for stdout)")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(a.stderr, "upfit export: exactly one project file required")
		return exitUsage
	}
	f, err := export.ParseFormat(*format)
	if err != nil {
		fmt.Fprintf(a.stderr, "upfit export: %v (want one of %s)\n", err, formatList())
		return exitUsage
	}
	cat, ok := a.setup()
	if !ok {
		return exitFailure
	}

	p, err := loadProject(fs.Arg(0))
	if err != nil {
		return a.fail("%v", err)
	}
	e, err := evaluate.EvaluateProject(p, cat, a.cfg.EvaluateOptions()...)
	if err != nil {
		return a.fail("%s: %v", fs.Arg(0), err)
	}
	payload, err := e.Render(f)
	if err != nil {
		return a.fail("%v", err)
	}

	switch dest := *out; dest {
	case "-":
		_, err = a.stdout.Write(payload.Content)
	default:
		if dest == "" {
			dest = payload.Filename
		}
		err = os.WriteFile(dest, payload.Content, 0o644)
		if err == nil {
			fmt.Fprintf(a.stdout, "wrote %s (%d bytes, %s)\n", dest, len(payload.Content), payload.MIME)
		}
	}
	if err != nil {
		return a.fail("%v", err)
	}
	return exitOK
}

func formatList() string {
	var names []string
	for _, f := range export.Formats() {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}

func (a *app) catalog(args []string) int {
	fs := a.flags("catalog")
	asJSON := fs.Bool("json", false, "print the catalog as JSON")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	cat, ok := a.setup()
	if !ok {
		return exitFailure
	}

	if *asJSON {
		err := writeJSON(a.stdout, map[string]any{"modules": cat.Modules(), "vehicles": cat.Vehicles()})
		if err != nil {
			return a.fail("%v", err)
		}
		return exitOK
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SKU\tNAME\tSIZE (mm)\tMASS (kg)")
	for _, m := range cat.Modules() {
		fmt.Fprintf(tw, "%s\t%s\t%gx%gx%g\t%g\n", m.SKU, m.Name, m.BBox.Length, m.BBox.Width, m.BBox.Height, m.Mass)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "VEHICLE\tLABEL\tGVW (kg)\tAXLES")
	for _, v := range cat.Vehicles() {
		fmt.Fprintf(tw, "%s\t%s\t%g\t%d\n", v.ID, v.Label, v.GVW, len(v.Axles))
	}
	if err := tw.Flush(); err != nil {
		return a.fail("%v", err)
	}
	return exitOK
}

func (a *app) script(args []string) int {
	fs := a.flags("script")
	asJSON := fs.Bool("json", false, "print the project and its summary as JSON")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(a.stderr, "upfit script: exactly one script file required")
		return exitUsage
	}
	cat, ok := a.setup()
	if !ok {
		return exitFailure
	}

	path := fs.Arg(0)
	src, err := os.ReadFile(path)
	if err != nil {
		return a.fail("%v", err)
	}
	p, evalErrs, err := engine.NewEngine(engine.WithTimeout(a.cfg.ScriptTimeout)).Evaluate(string(src))
	if err != nil {
		return a.fail("%s: %v", path, err)
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			fmt.Fprintf(a.stderr, "%s: %v\n", path, e)
		}
		return exitFailure
	}
	if errs := model.ValidateProject(p); len(errs) > 0 {
		return a.fail("%s: %v", path, errors.Join(validationErrors(errs)...))
	}

	e, err := evaluate.EvaluateProject(p, cat, a.cfg.EvaluateOptions()...)
	if err != nil {
		return a.fail("%s: %v", path, err)
	}
	if *asJSON {
		if err := writeJSON(a.stdout, map[string]any{"project": p, "summary": e.Summary()}); err != nil {
			return a.fail("%v", err)
		}
		return exitOK
	}
	writeReport(a.stdout, path, e)
	return exitOK
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeReport prints a human-readable evaluation summary.
func writeReport(w io.Writer, path string, e *evaluate.Evaluation) {
	ctx := e.Context
	fmt.Fprintf(w, "%s: %s (%s) on %s\n", path, ctx.Project.ID, ctx.Project.Name, ctx.Vehicle.ID)
	fmt.Fprintf(w, "  mass %.1f kg, centre of mass x=%.0f mm\n", e.Mass.TotalMass, e.Mass.CenterOfMassX)
	for _, axle := range e.Mass.Axles {
		fmt.Fprintf(w, "  axle %d: %.1f kg (%.0f%%)\n", axle.Index, axle.Load, axle.Utilization*100)
	}
	if m := e.Mass.PayloadMargin; m != nil {
		fmt.Fprintf(w, "  payload margin: %.1f kg\n", *m)
	}
	if len(e.Issues) == 0 {
		fmt.Fprintln(w, "  no issues")
		return
	}
	fmt.Fprintf(w, "  %d issue(s):\n", len(e.Issues))
	for _, is := range e.Issues {
		fmt.Fprintf(w, "    %s\n", is)
	}
}
