package manager

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"stash/pkg/logging"
	"stash/pkg/prompt"
	stashstrings "stash/pkg/strings"
)

// Exit codes returned by Run.
const (
	// ExitCodeSuccess indicates the command ran and did not signal failure.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a failed command: a false return value, a
	// user-facing error or an unexpected one.
	ExitCodeError = 1
	// ExitCodeUsage indicates a malformed invocation; the command was
	// never run.
	ExitCodeUsage = 2
)

// EnvBinding injects an environment variable into a command parameter,
// independent of any command-line flag. A binding without a default is
// required: resolving it while the variable is unset fails with a
// *MissingEnvError before the command runs.
type EnvBinding struct {
	// Var is the environment variable name.
	Var string
	// Default is used when the variable is unset. Only meaningful when
	// HasDefault is true.
	Default string
	// HasDefault marks the binding optional.
	HasDefault bool
	// Param is the target parameter name. Empty derives it by
	// lower-casing Var.
	Param string
}

func (b EnvBinding) param() string {
	if b.Param != "" {
		return b.Param
	}
	return strings.ToLower(b.Var)
}

// Manager is the command registry and top-level dispatcher. Commands are
// registered during program start-up; registration freezes each command's
// schema, and the registry itself is read-only once dispatch begins.
//
// All streams and environment lookups are injectable so tests can run whole
// invocations against buffers; the zero values fall back to the process
// globals.
type Manager struct {
	// Name is the program name shown in the usage banner.
	Name string

	// Stdout, Stderr and Stdin default to the process streams.
	Stdout io.Writer
	Stderr io.Writer
	Stdin  io.Reader
	// Prompter resolves prompted arguments; defaults to a plain-text
	// prompter over Stdin/Stdout.
	Prompter *prompt.Prompter
	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)

	commands map[string]*Command
	envVars  map[string][]EnvBinding
	overlay  map[string]string
}

// New returns an empty registry for the named program.
func New(name string) *Manager {
	return &Manager{
		Name:     name,
		commands: make(map[string]*Command),
		envVars:  make(map[string][]EnvBinding),
		overlay:  make(map[string]string),
	}
}

// Register inspects a handler struct, applies the given options and adds
// the resulting command to the registry.
func (m *Manager) Register(r Runner, opts ...Option) (*Command, error) {
	c, err := newRunnerCommand(r, opts...)
	if err != nil {
		return nil, err
	}
	if err := m.Add(c); err != nil {
		return nil, err
	}
	return c, nil
}

// MustRegister is Register for start-up registration blocks, where a schema
// error is fatal.
func (m *Manager) MustRegister(r Runner, opts ...Option) *Command {
	c, err := m.Register(r, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// RegisterFunc builds a function-based command and adds it to the
// registry.
func (m *Manager) RegisterFunc(name string, fn Func, opts ...Option) (*Command, error) {
	c, err := NewCommand(name, fn, opts...)
	if err != nil {
		return nil, err
	}
	if err := m.Add(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Add inserts a built command at its path and freezes its schema. Two
// commands resolving to the same path is a schema error.
func (m *Manager) Add(c *Command) error {
	path := c.Path()
	if _, exists := m.commands[path]; exists {
		return schemaErrorf("command path %q already registered", path)
	}
	c.freeze()
	m.commands[path] = c
	logging.Debug("manager", "registered command %s", path)
	return nil
}

// Get returns the command registered at path.
func (m *Manager) Get(path string) (*Command, bool) {
	c, ok := m.commands[path]
	return c, ok
}

// Paths returns every registered path, sorted.
func (m *Manager) Paths() []string {
	paths := make([]string, 0, len(m.commands))
	for p := range m.commands {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Merge copies every command of other into this registry. A non-empty
// namespace prefixes each incoming path as "namespace.path"; collisions
// are schema errors either way. The other registry is left untouched.
func (m *Manager) Merge(other *Manager, namespace string) error {
	for _, path := range other.Paths() {
		c := other.commands[path]
		if namespace != "" {
			clone := *c
			if clone.Namespace == "" {
				clone.Namespace = namespace
			} else {
				clone.Namespace = namespace + "." + clone.Namespace
			}
			c = &clone
		}
		if err := m.Add(c); err != nil {
			return err
		}
	}
	return nil
}

// BindEnv records environment bindings for the command at the given path
// in the registry's side table. The bindings are resolved just before
// each dispatch of that command and injected into parameters that no
// command-line value reached.
func (m *Manager) BindEnv(command string, bindings ...EnvBinding) {
	m.envVars[command] = append(m.envVars[command], bindings...)
}

// EnvBindings returns the side-table bindings recorded for a command.
func (m *Manager) EnvBindings(command string) []EnvBinding {
	return m.envVars[command]
}

// resolveBindings evaluates a command's env bindings against the current
// environment. A required binding whose variable is unset fails with a
// *MissingEnvError.
func (m *Manager) resolveBindings(command string, lookup func(string) (string, bool)) (map[string]string, error) {
	bindings := m.envVars[command]
	if len(bindings) == 0 {
		return nil, nil
	}
	resolved := make(map[string]string, len(bindings))
	for _, b := range bindings {
		if v, ok := lookup(b.Var); ok {
			resolved[b.param()] = v
			continue
		}
		if !b.HasDefault {
			return nil, &MissingEnvError{Var: b.Var}
		}
		resolved[b.param()] = b.Default
	}
	return resolved, nil
}

// ParseEnv parses a newline-separated KEY=VALUE blob into a mapping.
// Values may be wrapped in matching single or double quotes, which are
// stripped; keys and values are trimmed; blank lines are skipped and a
// later key overrides an earlier duplicate.
func (m *Manager) ParseEnv(blob string) map[string]string {
	return ParseEnv(blob)
}

// ParseEnv is the registry-independent form of Manager.ParseEnv.
func ParseEnv(blob string) map[string]string {
	env := make(map[string]string)
	for _, line := range strings.Split(blob, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		env[strings.TrimSpace(key)] = unquote(strings.TrimSpace(value))
	}
	return env
}

// SourceEnv parses an env blob and layers it over the process environment
// for every subsequent dispatch through this registry. Explicit process
// variables of the same name are shadowed.
func (m *Manager) SourceEnv(blob string) {
	for k, v := range m.ParseEnv(blob) {
		m.overlay[k] = v
	}
}

// unquote strips a matching quote pair from a value. A double-quoted value
// may carry backslash escapes for newlines, quotes and backslashes, the
// form Export writes so multi-line values survive the line-based blob;
// a double-quoted value that is not valid escaped syntax, and any
// single-quoted value, is taken verbatim inside its quotes.
func unquote(v string) string {
	if len(v) < 2 {
		return v
	}
	switch {
	case v[0] == '"' && v[len(v)-1] == '"':
		if s, err := strconv.Unquote(v); err == nil {
			return s
		}
		return v[1 : len(v)-1]
	case v[0] == '\'' && v[len(v)-1] == '\'':
		return v[1 : len(v)-1]
	}
	return v
}

func (m *Manager) stdout() io.Writer {
	if m.Stdout != nil {
		return m.Stdout
	}
	return os.Stdout
}

func (m *Manager) stderr() io.Writer {
	if m.Stderr != nil {
		return m.Stderr
	}
	return os.Stderr
}

func (m *Manager) lookupEnv(name string) (string, bool) {
	if v, ok := m.overlay[name]; ok {
		return v, true
	}
	if m.LookupEnv != nil {
		return m.LookupEnv(name)
	}
	return os.LookupEnv(name)
}

func (m *Manager) newContext() *Context {
	ctx := &Context{
		Stdout:    m.stdout(),
		Stderr:    m.stderr(),
		Stdin:     m.Stdin,
		Prompter:  m.Prompter,
		LookupEnv: m.lookupEnv,
	}
	if ctx.Stdin == nil {
		ctx.Stdin = os.Stdin
	}
	return ctx
}

// Run resolves argv[0] as a command path, dispatches the invocation and
// returns the process exit status. It is the single place invocation
// errors are turned into output: usage errors print the command synopsis
// to stderr, user-facing command errors print their bare message, and
// anything else propagates with its full detail. The command's return
// value goes through Puts; a failure signal there yields ExitCodeError.
func (m *Manager) Run(argv []string) int {
	if len(argv) == 0 {
		m.Usage(m.stderr())
		return ExitCodeUsage
	}
	if argv[0] == "-h" || argv[0] == "--help" {
		m.Usage(m.stdout())
		return ExitCodeSuccess
	}

	cmd, ok := m.commands[argv[0]]
	if !ok {
		fmt.Fprintf(m.stderr(), "unknown command %q\n\n", argv[0])
		m.Usage(m.stderr())
		return ExitCodeUsage
	}

	ctx := m.newContext()
	injected, err := m.resolveBindings(cmd.Path(), ctx.lookupEnv)
	if err != nil {
		fmt.Fprintln(m.stderr(), err)
		return ExitCodeError
	}
	ctx.injected = injected

	v, err := cmd.Parse(ctx, argv[1:])
	if err != nil {
		var help *HelpError
		if errors.As(err, &help) {
			fmt.Fprintln(m.stdout(), "usage:", m.Name, help.Usage)
			return ExitCodeSuccess
		}
		var usage *UsageError
		if errors.As(err, &usage) {
			fmt.Fprintln(m.stderr(), usage.Message)
			fmt.Fprintln(m.stderr(), "usage:", m.Name, cmd.UsageLine())
			return ExitCodeUsage
		}
		var cmdErr *CommandError
		if errors.As(err, &cmdErr) {
			fmt.Fprintln(m.stderr(), cmdErr.Message)
			return ExitCodeError
		}
		fmt.Fprintln(m.stderr(), err)
		return ExitCodeError
	}

	if Puts(ctx.Stdout, v) {
		return ExitCodeError
	}
	return ExitCodeSuccess
}

// Main dispatches os.Args and exits the process. This is the program's
// only exit point.
func (m *Manager) Main() {
	os.Exit(m.Run(os.Args[1:]))
}

// Usage writes the usage banner and the command listing grouped by
// namespace: root-namespace commands first, unlabeled, then each other
// namespace labeled and indented, all sorted alphabetically.
func (m *Manager) Usage(w io.Writer) {
	fmt.Fprintf(w, "usage: %s <command> [arguments]\n", m.Name)
	if len(m.commands) == 0 {
		return
	}
	fmt.Fprintf(w, "\navailable commands:\n")

	grouped := make(map[string][]*Command)
	for _, c := range m.commands {
		grouped[c.Namespace] = append(grouped[c.Namespace], c)
	}
	namespaces := make([]string, 0, len(grouped))
	for ns := range grouped {
		if ns != "" {
			namespaces = append(namespaces, ns)
		}
	}
	sort.Strings(namespaces)

	m.renderGroup(w, grouped[""], "  ")
	for _, ns := range namespaces {
		fmt.Fprintf(w, "\n  [%s]\n", ns)
		m.renderGroup(w, grouped[ns], "    ")
	}
}

// renderGroup lists one namespace's commands as a borderless two-column
// table, names left-padded under the given indent.
func (m *Manager) renderGroup(w io.Writer, cmds []*Command, indent string) {
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })

	t := table.NewWriter()
	t.SetOutputMirror(w)
	style := table.StyleDefault
	style.Options.DrawBorder = false
	style.Options.SeparateColumns = false
	style.Options.SeparateHeader = false
	style.Options.SeparateRows = false
	t.SetStyle(style)
	for _, c := range cmds {
		desc := stashstrings.Truncate(c.Description(), stashstrings.DefaultDescriptionMaxLen)
		t.AppendRow(table.Row{indent + c.Name, desc})
	}
	t.Render()
}
