package engine

import (
	"fmt"
	"strings"

	"github.com/chazu/upfit/pkg/model"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource rewrites layout script source into something zygomys can
// read:
//
//   - :keyword becomes the string "__kw_keyword", so (place "EXT-6KG" :at ...)
//     passes its options as tagged strings instead of unbound symbols.
//   - kebab-case identifiers become snake_case (def-module -> def_module,
//     left-y -> left_y); zygomys reads a bare hyphen as subtraction.
//   - ; and ;; comments become // comments.
//
// String literals are copied untouched, so SKUs such as "RACK-ARI-DOUBLE"
// and instance ids keep their hyphens. Negative numbers are left alone.
func preprocessSource(source string) string {
	sc := &scriptScanner{src: []byte(source), out: make([]byte, 0, len(source)+len(source)/4)}
	for sc.pos < len(sc.src) {
		switch c := sc.src[sc.pos]; {
		case c == '"':
			sc.quoted('"', true)
		case c == '`':
			sc.quoted('`', false)
		case c == ';':
			sc.comment()
		case c == ':' && sc.keyword():
		case c == '-' && sc.inIdentifier():
			sc.out = append(sc.out, '_')
			sc.pos++
		default:
			sc.out = append(sc.out, c)
			sc.pos++
		}
	}
	return string(sc.out)
}

type scriptScanner struct {
	src []byte
	out []byte
	pos int
}

// quoted copies a literal up to and including its closing delimiter.
func (sc *scriptScanner) quoted(delim byte, escapes bool) {
	sc.out = append(sc.out, delim)
	sc.pos++
	for sc.pos < len(sc.src) && sc.src[sc.pos] != delim {
		if escapes && sc.src[sc.pos] == '\\' && sc.pos+1 < len(sc.src) {
			sc.out = append(sc.out, sc.src[sc.pos], sc.src[sc.pos+1])
			sc.pos += 2
			continue
		}
		sc.out = append(sc.out, sc.src[sc.pos])
		sc.pos++
	}
	if sc.pos < len(sc.src) {
		sc.out = append(sc.out, delim)
		sc.pos++
	}
}

func (sc *scriptScanner) comment() {
	sc.out = append(sc.out, '/', '/')
	for sc.pos < len(sc.src) && sc.src[sc.pos] == ';' {
		sc.pos++
	}
	for sc.pos < len(sc.src) && sc.src[sc.pos] != '\n' {
		sc.out = append(sc.out, sc.src[sc.pos])
		sc.pos++
	}
}

// keyword rewrites :name at pos and reports whether it did. := is copied
// as the assignment operator.
func (sc *scriptScanner) keyword() bool {
	if sc.pos+1 >= len(sc.src) {
		return false
	}
	next := sc.src[sc.pos+1]
	if next == '=' {
		sc.out = append(sc.out, ':', '=')
		sc.pos += 2
		return true
	}
	if !isLetter(next) {
		return false
	}
	end := sc.pos + 1
	for end < len(sc.src) && isKWChar(sc.src[end]) {
		end++
	}
	sc.out = append(sc.out, '"')
	sc.out = append(sc.out, kwPrefix...)
	sc.out = append(sc.out, sc.src[sc.pos+1:end]...)
	sc.out = append(sc.out, '"')
	sc.pos = end
	return true
}

// inIdentifier reports whether the hyphen at pos joins two parts of a
// kebab-case name rather than acting as minus.
func (sc *scriptScanner) inIdentifier() bool {
	i := sc.pos
	return i > 0 && i+1 < len(sc.src) && isIdentChar(sc.src[i-1]) && isLetter(sc.src[i+1])
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec3 wraps a position or rotation triple.
type sexpVec3 struct {
	vec [3]float64
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %.1f %.1f %.1f)", v.vec[0], v.vec[1], v.vec[2])
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value: treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_high) and plain strings ("high").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toVec3 extracts a triple from a sexpVec3.
func toVec3(s zygo.Sexp) ([3]float64, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return [3]float64{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// toReach converts :high, :med or :low to a reach priority.
func toReach(s zygo.Sexp) (model.ReachPriority, error) {
	name, err := toKeywordString(s)
	if err != nil {
		return "", err
	}
	switch r := model.ReachPriority(name); r {
	case model.ReachHigh, model.ReachMedium, model.ReachLow:
		return r, nil
	}
	return "", fmt.Errorf("invalid reach %q, expected high, med or low", name)
}

// toMounting converts a keyword or string to a mounting type.
func toMounting(s zygo.Sexp) (model.MountingType, error) {
	name, err := toKeywordString(s)
	if err != nil {
		return "", err
	}
	switch m := model.MountingType(name); m {
	case model.MountFloor, model.MountWall, model.MountCeiling, model.MountRail, model.MountMixed:
		return m, nil
	}
	return "", fmt.Errorf("invalid mounting %q", name)
}

// ---------------------------------------------------------------------------
// Script state
// ---------------------------------------------------------------------------

// builder accumulates the project a script describes.
type builder struct {
	project model.Project
	ids     map[string]int // instance id -> index into project.Placements
	counter map[string]int // per-SKU suffix for generated instance ids
}

func newBuilder() *builder {
	return &builder{
		project: model.Project{Placements: []model.Placement{}},
		ids:     make(map[string]int),
		counter: make(map[string]int),
	}
}

// nextID generates an instance id for an unnamed placement: the lower-case
// SKU plus a per-SKU counter, skipping ids the script already used.
func (b *builder) nextID(sku string) string {
	base := strings.ToLower(sku)
	for {
		b.counter[sku]++
		id := fmt.Sprintf("%s-%d", base, b.counter[sku])
		if _, taken := b.ids[id]; !taken {
			return id
		}
	}
}

// floatKW reads an optional numeric keyword argument into dst.
func floatKW(pa kwArgs, key string, dst **float64) error {
	v, ok := pa.kw[key]
	if !ok {
		return nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = &f
	return nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the layout DSL builtins into a zygomys
// environment. The builtins populate b during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, b *builder) {

	// -----------------------------------------------------------------------
	// (project "VSAV demo" :id "vsav-demo" :description "...")
	// -----------------------------------------------------------------------
	env.AddFunction("project", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) > 0 {
			s, err := toString(pa.positional[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("project: name: %w", err)
			}
			b.project.Name = s
		}
		for key, dst := range map[string]*string{
			"id":          &b.project.ID,
			"description": &b.project.Description,
			"version":     &b.project.Version,
			"notes":       &b.project.Notes,
		} {
			v, ok := pa.kw[key]
			if !ok {
				continue
			}
			s, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("project: %s: %w", key, err)
			}
			*dst = s
		}
		return &zygo.SexpStr{S: b.project.ID}, nil
	})

	// -----------------------------------------------------------------------
	// (vehicle "vsav-master-l2h2" :payload-reserve 600)
	// -----------------------------------------------------------------------
	env.AddFunction("vehicle", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("vehicle requires a blueprint id")
		}
		id, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vehicle: blueprint: %w", err)
		}
		b.project.Vehicle.BlueprintID = id
		if err := floatKW(pa, "payload-reserve", &b.project.Vehicle.PayloadReserve); err != nil {
			return zygo.SexpNull, fmt.Errorf("vehicle: %w", err)
		}
		return &zygo.SexpStr{S: id}, nil
	})

	// -----------------------------------------------------------------------
	// (walkway 600)
	// -----------------------------------------------------------------------
	env.AddFunction("walkway", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("walkway requires exactly 1 argument, got %d", len(args))
		}
		w, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("walkway: %w", err)
		}
		if w <= 0 {
			return zygo.SexpNull, fmt.Errorf("walkway: width must be positive, got %g", w)
		}
		b.project.Settings.Walkway.MinWidth = w
		return args[0], nil
	})

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}

		var v sexpVec3
		for i, axis := range []string{"x", "y", "z"} {
			f, err := toFloat64(args[i])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %s: %w", axis, err)
			}
			v.vec[i] = f
		}
		return &v, nil
	})

	// -----------------------------------------------------------------------
	// (def-module "SHELF-900" :name "Shelf" :size (vec3 900 400 1000)
	//             :mass 25 :reach :high :mount :wall :extend 500 :top 100)
	//
	// Registered as "def_module"; the preprocessor converts def-module.
	// -----------------------------------------------------------------------
	env.AddFunction("def_module", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("def-module requires a SKU")
		}
		sku, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("def-module: sku: %w", err)
		}
		m := model.ModuleDefinition{
			SKU:           sku,
			Name:          sku,
			Mounting:      model.Mounting{Type: model.MountFloor},
			ReachPriority: model.ReachMedium,
		}
		if v, ok := pa.kw["name"]; ok {
			if m.Name, err = toString(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("def-module: name: %w", err)
			}
		}
		v, ok := pa.kw["size"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("def-module %s: :size is required", sku)
		}
		size, err := toVec3(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("def-module: size: %w", err)
		}
		m.BBox = model.Dimensions{Length: size[0], Width: size[1], Height: size[2]}
		if v, ok := pa.kw["mass"]; ok {
			if m.Mass, err = toFloat64(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("def-module: mass: %w", err)
			}
		}
		if v, ok := pa.kw["reach"]; ok {
			if m.ReachPriority, err = toReach(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("def-module: reach: %w", err)
			}
		}
		if v, ok := pa.kw["mount"]; ok {
			if m.Mounting.Type, err = toMounting(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("def-module: mount: %w", err)
			}
		}

		var c model.Clearances
		sides := []struct {
			key string
			dst **float64
		}{
			{"front", &c.Front}, {"rear", &c.Rear},
			{"left", &c.Left}, {"right", &c.Right},
			{"top", &c.Top}, {"bottom", &c.Bottom},
			{"extend", &c.Extend},
		}
		set := false
		for _, s := range sides {
			if err := floatKW(pa, s.key, s.dst); err != nil {
				return zygo.SexpNull, fmt.Errorf("def-module: %w", err)
			}
			set = set || *s.dst != nil
		}
		if set {
			m.Clearances = &c
		}

		if errs := model.ValidateModule(&m); len(errs) > 0 {
			return zygo.SexpNull, fmt.Errorf("def-module %s: %v", sku, errs[0])
		}
		for _, existing := range b.project.ModulesCatalog {
			if existing.SKU == sku {
				return zygo.SexpNull, fmt.Errorf("def-module: duplicate SKU %q", sku)
			}
		}
		b.project.ModulesCatalog = append(b.project.ModulesCatalog, m)
		return &zygo.SexpStr{S: sku}, nil
	})

	// -----------------------------------------------------------------------
	// (place "DRAWER-1200" :id "drawer-1" :at (vec3 -850 550 230)
	//        :rot (vec3 0 0 90) :group "left-wall")
	// -----------------------------------------------------------------------
	env.AddFunction("place", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)

		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("place requires a module SKU as first argument")
		}
		sku, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("place: sku: %w", err)
		}

		pl := model.Placement{ModuleSKU: sku}
		if v, ok := pa.kw["id"]; ok {
			if pl.InstanceID, err = toString(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("place: id: %w", err)
			}
			if _, dup := b.ids[pl.InstanceID]; dup {
				return zygo.SexpNull, fmt.Errorf("place: duplicate instance id %q", pl.InstanceID)
			}
		} else {
			pl.InstanceID = b.nextID(sku)
		}
		if v, ok := pa.kw["at"]; ok {
			if pl.Position, err = toVec3(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("place: at: %w", err)
			}
		}
		if v, ok := pa.kw["rot"]; ok {
			if pl.Rotation, err = toVec3(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("place: rot: %w", err)
			}
		}
		if v, ok := pa.kw["group"]; ok {
			if pl.GroupID, err = toString(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("place: group: %w", err)
			}
		}

		b.ids[pl.InstanceID] = len(b.project.Placements)
		b.project.Placements = append(b.project.Placements, pl)
		return &zygo.SexpStr{S: pl.InstanceID}, nil
	})

	// -----------------------------------------------------------------------
	// (lock "drawer-1")
	// -----------------------------------------------------------------------
	env.AddFunction("lock", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		for _, a := range args {
			id, err := toString(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("lock: %w", err)
			}
			i, ok := b.ids[id]
			if !ok {
				return zygo.SexpNull, fmt.Errorf("lock: no placement with id %q", id)
			}
			b.project.Placements[i].Locked = true
		}
		return zygo.SexpNull, nil
	})
}
