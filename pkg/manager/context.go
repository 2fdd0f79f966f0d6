package manager

import (
	"io"
	"os"

	"stash/pkg/prompt"
)

// Context carries the per-invocation environment a command runs against.
// Every stream and lookup a command or the prompt engine touches goes
// through it, so tests can swap in buffers and fixed environments instead
// of mutating process-global state.
type Context struct {
	// Stdout receives normalized command output.
	Stdout io.Writer
	// Stderr receives usage and error messages.
	Stderr io.Writer
	// Stdin feeds the prompt engine when no Prompter is set.
	Stdin io.Reader
	// Prompter resolves prompted arguments. Defaults to a plain-text
	// prompter over Stdin/Stdout.
	Prompter *prompt.Prompter
	// LookupEnv resolves environment variables. Defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)

	// Argv holds the raw residual argument list for capture-all commands.
	Argv []string
	// Values holds the resolved named values for function-based commands.
	Values map[string]any
	// Extras holds undeclared option flags absorbed by a keyword
	// catch-all, for function-based commands.
	Extras map[string]string

	// injected holds environment side-table values resolved by the
	// registry before dispatch.
	injected map[string]string
}

// NewContext returns a Context bound to the process streams and
// environment.
func NewContext() *Context {
	return &Context{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Stdin:  os.Stdin,
	}
}

func (c *Context) lookupEnv(name string) (string, bool) {
	if c.LookupEnv != nil {
		return c.LookupEnv(name)
	}
	return os.LookupEnv(name)
}

func (c *Context) prompter() *prompt.Prompter {
	if c.Prompter == nil {
		c.Prompter = prompt.New(c.Stdin, c.Stdout)
	}
	return c.Prompter
}
