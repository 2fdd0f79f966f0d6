package manager

import (
	"reflect"
	"strings"

	"stash/pkg/logging"
)

// Runner is a unit of command logic. Exported fields of the implementing
// struct form the command's parameter list; Run executes with those fields
// bound to resolved values and returns the value handed to the output
// normalizer.
type Runner interface {
	Run() (any, error)
}

// Describer optionally supplies a command description. Only its first line
// is used, mirroring a one-line doc summary.
type Describer interface {
	Describe() string
}

// signature is the result of inspecting a Runner: the derived argument
// list plus the struct plumbing needed to bind values back at dispatch.
type signature struct {
	args       []*Arg
	fields     map[string]int // argument name -> struct field index
	captureAll bool
	capture    int // field index of the capture-all slice, -1 when absent
	extra      int // field index of the keyword catch-all map, -1 when absent
}

// inspect derives an ordered argument list from a Runner's exported fields.
//
// The rules mirror a source parameter list:
//   - a plain field with no `default` tag is a required positional;
//   - a field with `default:"v"` is optional and typed by the field's kind;
//   - a *string field is optional with no default and no declared type,
//     leaving command-line input free-form;
//   - a []string field tagged `arg:",capture"` captures the raw residual
//     argument list and must be the runner's only declared field;
//   - a map[string]string field tagged `arg:",extra"` accepts undeclared
//     option flags and passes them through as extra named values.
//
// The `arg` tag's name part overrides the derived lower-snake-case name;
// `arg:"-"` skips the field.
func inspect(r Runner) (*signature, error) {
	v := reflect.ValueOf(r)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return nil, schemaErrorf("command handler must be a pointer to a struct, got %T", r)
	}
	t := v.Elem().Type()

	sig := &signature{
		fields:  make(map[string]int),
		capture: -1,
		extra:   -1,
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, mode := parseArgTag(f.Tag.Get("arg"))
		if name == "-" {
			continue
		}
		if name == "" {
			name = snakeCase(f.Name)
		}

		switch mode {
		case "capture":
			if f.Type != reflect.TypeOf([]string(nil)) {
				return nil, schemaErrorf("capture-all field %s must be a []string", f.Name)
			}
			if sig.capture >= 0 {
				return nil, schemaErrorf("command declares more than one capture-all field")
			}
			sig.capture = i
			sig.captureAll = true
			continue
		case "extra":
			if f.Type != reflect.TypeOf(map[string]string(nil)) {
				return nil, schemaErrorf("extra field %s must be a map[string]string", f.Name)
			}
			if sig.extra >= 0 {
				return nil, schemaErrorf("command declares more than one extra field")
			}
			sig.extra = i
			continue
		case "":
		default:
			return nil, schemaErrorf("field %s: unknown arg mode %q", f.Name, mode)
		}

		arg, err := inspectField(f, name)
		if err != nil {
			return nil, err
		}
		if _, dup := sig.fields[name]; dup {
			return nil, schemaErrorf("duplicate argument name %q", name)
		}
		sig.fields[name] = i
		sig.args = append(sig.args, arg)
	}

	// A capture-all command takes over the whole argument list; it cannot
	// coexist with typed arguments or a keyword catch-all.
	if sig.captureAll && (len(sig.args) > 0 || sig.extra >= 0) {
		return nil, schemaErrorf("a capture-all field must be the command's only argument")
	}

	logging.Debug("manager", "inspected %T: %d argument(s), capture_all=%v",
		r, len(sig.args), sig.captureAll)
	return sig, nil
}

// inspectField derives one descriptor from a struct field.
func inspectField(f reflect.StructField, name string) (*Arg, error) {
	// Pointer fields express "optional, no default, untyped".
	if f.Type.Kind() == reflect.Pointer {
		if f.Type.Elem().Kind() != reflect.String {
			return nil, schemaErrorf("field %s: optional untyped arguments must be *string", f.Name)
		}
		return &Arg{Name: name}, nil
	}

	kind, err := fieldKind(f)
	if err != nil {
		return nil, err
	}

	def, hasDefault := f.Tag.Lookup("default")
	if !hasDefault {
		// No default: a required positional. String fields stay untyped
		// so command-line input remains free-form; other field kinds
		// keep their kind for coercion at bind time.
		a := &Arg{Name: name, Required: true}
		if kind != KindString {
			a.Type = kind
		}
		return a, nil
	}

	a := &Arg{Name: name, Type: kind}
	v, err := a.coerce(def)
	if err != nil {
		return nil, schemaErrorf("field %s: bad default: %v", f.Name, err)
	}
	a.Default = v
	return a, nil
}

func fieldKind(f reflect.StructField) (Kind, error) {
	switch f.Type.Kind() {
	case reflect.String:
		return KindString, nil
	case reflect.Bool:
		return KindBool, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return KindInt, nil
	case reflect.Float32, reflect.Float64:
		return KindFloat, nil
	default:
		return KindNone, schemaErrorf("field %s: unsupported argument type %s", f.Name, f.Type)
	}
}

// parseArgTag splits an `arg` tag into its name and mode parts, following
// the usual "name,mode" tag convention.
func parseArgTag(tag string) (name, mode string) {
	if tag == "" {
		return "", ""
	}
	if i := strings.IndexByte(tag, ','); i >= 0 {
		return tag[:i], tag[i+1:]
	}
	return tag, ""
}

// commandName derives a registry name from the runner's type name:
// "ClassBased" registers as "class_based".
func commandName(r Runner) string {
	t := reflect.TypeOf(r)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return snakeCase(t.Name())
}
