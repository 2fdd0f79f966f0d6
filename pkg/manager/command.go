package manager

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/pflag"

	"stash/pkg/logging"
)

// NoDescription is the sentinel shown for commands that declare no
// description.
const NoDescription = "no description"

// Func is the unit of work of a command built without a handler struct.
// Resolved values arrive on the Context: Argv for capture-all commands,
// Values and Extras otherwise.
type Func func(*Context) (any, error)

// Command wraps a unit of work together with its ordered argument
// descriptors and metadata. A command is mutable while it is being
// declared; inserting it into a Manager freezes the schema for good.
type Command struct {
	// Name is the command's bare name within its namespace.
	Name string
	// Namespace groups the command under a dot-separated path segment.
	// Empty means the root namespace.
	Namespace string

	description string
	args        []*Arg
	sig         *signature
	runner      Runner
	fn          Func
	captureAll  bool
	frozen      bool
}

// NewCommand builds a command around a plain function. The argument schema
// starts empty and is declared through options; CaptureAll switches the
// command to raw residual-argument capture instead.
func NewCommand(name string, fn Func, opts ...Option) (*Command, error) {
	c := &Command{
		Name:        name,
		description: NoDescription,
		fn:          fn,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// newRunnerCommand inspects a handler struct and builds a command from its
// derived signature.
func newRunnerCommand(r Runner, opts ...Option) (*Command, error) {
	sig, err := inspect(r)
	if err != nil {
		return nil, err
	}
	c := &Command{
		Name:        commandName(r),
		description: NoDescription,
		args:        sig.args,
		sig:         sig,
		runner:      r,
		captureAll:  sig.captureAll,
	}
	if d, ok := r.(Describer); ok {
		c.description = firstLine(d.Describe())
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Command) validate() error {
	if c.captureAll && len(c.args) > 0 {
		return schemaErrorf("command %s: capture-all cannot be combined with declared arguments", c.Name)
	}
	return nil
}

// Path returns the fully-qualified registry path: "namespace.name", or the
// bare name for root-namespace commands.
func (c *Command) Path() string {
	if c.Namespace == "" {
		return c.Name
	}
	return c.Namespace + "." + c.Name
}

// Description returns the command's one-line description.
func (c *Command) Description() string {
	return c.description
}

// Args returns the command's argument descriptors in declaration order.
func (c *Command) Args() []*Arg {
	return c.args
}

// AddArgument appends a new descriptor to the schema. A descriptor with the
// same name may only be re-declared when the existing entry was synthesized
// for a keyword catch-all; anything else must be refined through
// GetArgument instead.
func (c *Command) AddArgument(a *Arg) error {
	c.mutable()
	if c.captureAll {
		return schemaErrorf("command %s: capture-all cannot be combined with declared arguments", c.Name)
	}
	for i, existing := range c.args {
		if existing.Name != a.Name {
			continue
		}
		if existing.synthesized {
			c.args[i] = a
			return nil
		}
		return schemaErrorf("command %s: argument %q already declared", c.Name, a.Name)
	}
	c.args = append(c.args, a)
	return nil
}

// GetArgument returns the descriptor with the given name and its position
// in the schema.
func (c *Command) GetArgument(name string) (*Arg, int, error) {
	for i, a := range c.args {
		if a.Name == name {
			return a, i, nil
		}
	}
	return nil, 0, schemaErrorf("command %s: no argument named %q", c.Name, name)
}

// freeze makes the schema immutable. Called by the Manager at insertion.
func (c *Command) freeze() {
	c.frozen = true
}

// mutable panics when the schema is refined after registration. That is a
// programmer defect of the same class as a schema error, caught at start-up.
func (c *Command) mutable() {
	if c.frozen {
		panic(fmt.Sprintf("manager: command %s is frozen; declare arguments before registration", c.Path()))
	}
}

func (c *Command) hasExtra() bool {
	return c.sig != nil && c.sig.extra >= 0
}

// UsageLine renders the command's one-line synopsis.
func (c *Command) UsageLine() string {
	var b strings.Builder
	b.WriteString(c.Path())
	if c.captureAll {
		b.WriteString(" [args...]")
		return b.String()
	}
	for _, a := range c.args {
		if a.Required {
			continue
		}
		if a.Boolean() {
			fmt.Fprintf(&b, " [--%s]", a.flagName())
		} else {
			fmt.Fprintf(&b, " [--%s %s]", a.Name, strings.ToUpper(a.Name))
		}
	}
	for _, a := range c.args {
		if a.Required {
			fmt.Fprintf(&b, " <%s>", a.Name)
		}
	}
	return b.String()
}

// Parse tokenizes argv against the command's schema, resolves every
// argument through the command line, environment, prompt and default
// fallbacks, invokes the unit of work and returns its value.
//
// Malformed input returns a *UsageError; a failure the command signals
// explicitly returns a *CommandError. Both are mapped to process output and
// exit status by the dispatcher, never here.
func (c *Command) Parse(ctx *Context, argv []string) (any, error) {
	if c.captureAll {
		ctx.Argv = argv
		return c.invoke(ctx, nil, nil)
	}

	rest := argv
	var extras map[string]string
	if c.hasExtra() {
		var err error
		rest, extras, err = c.collectUnknown(argv)
		if err != nil {
			return nil, err
		}
	}

	fl := pflag.NewFlagSet(c.Path(), pflag.ContinueOnError)
	fl.SetOutput(io.Discard)
	for _, a := range c.args {
		if a.Required {
			continue
		}
		if a.Boolean() {
			fl.BoolP(a.flagName(), a.Shortcut, false, a.Help)
		} else {
			fl.StringP(a.Name, a.Shortcut, "", a.Help)
		}
	}
	if err := fl.Parse(rest); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, &HelpError{Usage: c.UsageLine()}
		}
		return nil, usageErrorf(c.Path(), "%v", err)
	}

	values := make(map[string]any)

	// Positional binding, declaration order.
	pos := fl.Args()
	next := 0
	for _, a := range c.args {
		if !a.Required {
			continue
		}
		if next >= len(pos) {
			return nil, usageErrorf(c.Path(), "missing required argument <%s>", a.Name)
		}
		v, err := a.coerce(pos[next])
		if err != nil {
			return nil, usageErrorf(c.Path(), "%v", err)
		}
		if err := a.checkChoice(v); err != nil {
			return nil, usageErrorf(c.Path(), "%v", err)
		}
		values[a.Name] = v
		next++
	}
	if next < len(pos) {
		return nil, usageErrorf(c.Path(), "unexpected argument %q", pos[next])
	}

	// Explicitly supplied flags.
	for _, a := range c.args {
		if a.Required {
			continue
		}
		if a.Boolean() {
			if fl.Changed(a.flagName()) {
				// A plain flag turns a default-false value on; the
				// negated rendering of a default-true value turns it off.
				values[a.Name] = a.Default != true
			}
			continue
		}
		if !fl.Changed(a.Name) {
			continue
		}
		raw, _ := fl.GetString(a.Name)
		v, err := a.coerce(raw)
		if err != nil {
			return nil, usageErrorf(c.Path(), "%v", err)
		}
		if err := a.checkChoice(v); err != nil {
			return nil, usageErrorf(c.Path(), "%v", err)
		}
		values[a.Name] = v
	}

	// Fallback resolution for everything still unset: environment
	// variable, env side-table injection, interactive prompt, then the
	// static default.
	for _, a := range c.args {
		if _, ok := values[a.Name]; ok || a.Required {
			continue
		}
		v, ok, err := c.resolveFallback(ctx, a)
		if err != nil {
			return nil, err
		}
		if ok {
			values[a.Name] = v
		}
	}

	// Values resolved for descriptors the inspected signature does not
	// declare, and side-table values aimed at names outside the schema,
	// flow into the keyword catch-all when there is one.
	if c.hasExtra() {
		for _, a := range c.args {
			if _, declared := c.sig.fields[a.Name]; declared {
				continue
			}
			if v, ok := values[a.Name]; ok {
				extras[a.Name] = cast.ToString(v)
				delete(values, a.Name)
			}
		}
		for name, raw := range ctx.injected {
			if _, _, err := c.GetArgument(name); err != nil {
				if _, dup := extras[name]; !dup {
					extras[name] = raw
				}
			}
		}
	}

	return c.invoke(ctx, values, extras)
}

func (c *Command) resolveFallback(ctx *Context, a *Arg) (any, bool, error) {
	if a.EnvVar != "" {
		if raw, ok := ctx.lookupEnv(a.EnvVar); ok {
			v, err := a.coerce(raw)
			if err == nil {
				err = a.checkChoice(v)
			}
			if err != nil {
				return nil, false, Errorf("environment variable %s: %v", a.EnvVar, err)
			}
			return v, true, nil
		}
	}
	if raw, ok := ctx.injected[a.Name]; ok {
		v, err := a.coerce(raw)
		if err != nil {
			return nil, false, Errorf("%v", err)
		}
		return v, true, nil
	}
	if a.Prompt != nil {
		opts := *a.Prompt
		opts.Kind = a.Type.promptKind()
		if len(opts.Choices) == 0 {
			opts.Choices = a.Choices
		}
		if opts.Default == nil {
			opts.Default = a.Default
		}
		v, err := ctx.prompter().Ask(a.Name, opts)
		if err != nil {
			return nil, false, Errorf("%s: %v", a.Name, err)
		}
		if v == nil {
			return nil, false, nil
		}
		return v, true, nil
	}
	if a.Default != nil {
		return a.Default, true, nil
	}
	return nil, false, nil
}

// collectUnknown strips undeclared long flags out of argv and returns them
// as a name to raw value mapping, leaving everything the schema declares in
// place for the flag parser. Values supplied on the command line always win
// over an environment binding of the same name.
func (c *Command) collectUnknown(argv []string) ([]string, map[string]string, error) {
	known := make(map[string]bool, len(c.args))
	for _, a := range c.args {
		known[a.flagName()] = true
	}

	extras := make(map[string]string)
	var rest []string
	for i := 0; i < len(argv); i++ {
		tok := argv[i]
		if tok == "--" {
			rest = append(rest, argv[i:]...)
			break
		}
		if !strings.HasPrefix(tok, "--") {
			rest = append(rest, tok)
			continue
		}
		name, value, hasValue := strings.Cut(tok[2:], "=")
		if known[name] || name == "help" {
			rest = append(rest, tok)
			continue
		}
		if !hasValue {
			// The next token is the value unless it reads as another
			// long flag; a single-dash token such as a negative number
			// is a value.
			if i+1 >= len(argv) || strings.HasPrefix(argv[i+1], "--") {
				return nil, nil, usageErrorf(c.Path(), "flag --%s needs a value", name)
			}
			i++
			value = argv[i]
		}
		extras[name] = value
	}
	return rest, extras, nil
}

// invoke runs the unit of work with the resolved bindings.
func (c *Command) invoke(ctx *Context, values map[string]any, extras map[string]string) (any, error) {
	logging.Debug("manager", "invoking %s with %d bound value(s)", c.Path(), len(values))

	if c.runner == nil {
		ctx.Values = values
		ctx.Extras = extras
		return c.fn(ctx)
	}

	// Fresh copy of the registered handler so an invocation never leaks
	// bound values into the prototype.
	proto := reflect.ValueOf(c.runner).Elem()
	fresh := reflect.New(proto.Type())
	fresh.Elem().Set(proto)

	for name, idx := range c.sig.fields {
		v, ok := values[name]
		if !ok || v == nil {
			continue
		}
		if err := setField(fresh.Elem().Field(idx), v); err != nil {
			return nil, Errorf("argument %s: %v", name, err)
		}
	}
	if c.sig.capture >= 0 {
		fresh.Elem().Field(c.sig.capture).Set(reflect.ValueOf(append([]string(nil), ctx.Argv...)))
	}
	if c.sig.extra >= 0 && len(extras) > 0 {
		fresh.Elem().Field(c.sig.extra).Set(reflect.ValueOf(extras))
	}

	return fresh.Interface().(Runner).Run()
}

// setField assigns a resolved value to a handler struct field.
func setField(f reflect.Value, v any) error {
	switch f.Kind() {
	case reflect.String:
		s, err := cast.ToStringE(v)
		if err != nil {
			return err
		}
		f.SetString(s)
	case reflect.Bool:
		b, err := cast.ToBoolE(v)
		if err != nil {
			return err
		}
		f.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := cast.ToInt64E(v)
		if err != nil {
			return err
		}
		f.SetInt(n)
	case reflect.Float32, reflect.Float64:
		fv, err := cast.ToFloat64E(v)
		if err != nil {
			return err
		}
		f.SetFloat(fv)
	case reflect.Pointer:
		s, err := cast.ToStringE(v)
		if err != nil {
			return err
		}
		f.Set(reflect.ValueOf(&s))
	default:
		return fmt.Errorf("unsupported field kind %s", f.Kind())
	}
	return nil
}

// HelpError reports that the user asked for a command's usage with -h or
// --help. The dispatcher prints the usage line to stdout and exits zero.
type HelpError struct {
	Usage string
}

func (e *HelpError) Error() string {
	return "usage: " + e.Usage
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return NoDescription
	}
	return s
}
