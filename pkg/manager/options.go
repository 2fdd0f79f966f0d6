package manager

import (
	"stash/pkg/prompt"
)

// Option refines a command while it is being declared, before the Manager
// freezes it. Options compose associatively: refining the same argument
// through WithArg, WithEnv and WithPrompt yields the union of their
// effects regardless of ordering.
type Option func(*Command) error

// ArgOption refines a single argument descriptor.
type ArgOption func(*Arg)

// Help sets the descriptor's usage text.
func Help(text string) ArgOption {
	return func(a *Arg) { a.Help = text }
}

// Shortcut sets a single-character flag alias.
func Shortcut(s string) ArgOption {
	return func(a *Arg) { a.Shortcut = s }
}

// Choices restricts accepted values to the given set.
func Choices(values ...string) ArgOption {
	return func(a *Arg) { a.Choices = values }
}

// Required marks the argument as a required positional, dropping any
// declared default.
func Required() ArgOption {
	return func(a *Arg) {
		a.Required = true
		a.Default = nil
	}
}

// Default declares a default value, making the argument optional and
// typing it by the value's runtime kind.
func Default(v any) ArgOption {
	return func(a *Arg) {
		a.Default = v
		a.Required = false
		a.Type = kindOf(v)
	}
}

// WithArg refines the named argument descriptor. Naming an argument the
// inspected signature does not declare is a schema error, unless the
// command has a keyword catch-all, in which case a descriptor is
// synthesized and its parsed value flows through as an extra named value.
func WithArg(name string, opts ...ArgOption) Option {
	return func(c *Command) error {
		c.mutable()
		a, _, err := c.GetArgument(name)
		if err != nil {
			if !c.hasExtra() {
				return err
			}
			a = &Arg{Name: name, synthesized: true}
			if addErr := c.AddArgument(a); addErr != nil {
				return addErr
			}
		}
		for _, opt := range opts {
			opt(a)
		}
		return nil
	}
}

// WithEnv marks the named argument as environment-sourced: when no value
// is supplied on the command line, the variable supplies it before the
// prompt and default fallbacks apply.
func WithEnv(name, envVar string) Option {
	return WithArg(name, func(a *Arg) { a.EnvVar = envVar })
}

// WithPrompt marks the named argument as interactively prompted: a value
// still missing after the command line and environment were consulted is
// read from the prompt engine instead of falling back to the default.
func WithPrompt(name string, opts prompt.Options) Option {
	return WithArg(name, func(a *Arg) { a.Prompt = &opts })
}

// WithName overrides the derived command name.
func WithName(name string) Option {
	return func(c *Command) error {
		c.mutable()
		c.Name = name
		return nil
	}
}

// WithNamespace places the command under a namespace, so it registers at
// "namespace.name".
func WithNamespace(ns string) Option {
	return func(c *Command) error {
		c.mutable()
		c.Namespace = ns
		return nil
	}
}

// WithDescription overrides the command description.
func WithDescription(d string) Option {
	return func(c *Command) error {
		c.mutable()
		c.description = firstLine(d)
		return nil
	}
}

// CaptureAll switches a function-based command to raw residual-argument
// capture. It cannot be combined with declared arguments.
func CaptureAll() Option {
	return func(c *Command) error {
		c.mutable()
		c.captureAll = true
		return c.validate()
	}
}

// Args declares argument descriptors on a function-based command, in
// order.
func Args(args ...*Arg) Option {
	return func(c *Command) error {
		c.mutable()
		for _, a := range args {
			if err := c.AddArgument(a); err != nil {
				return err
			}
		}
		return nil
	}
}

func kindOf(v any) Kind {
	switch v.(type) {
	case bool:
		return KindBool
	case int, int8, int16, int32, int64:
		return KindInt
	case float32, float64:
		return KindFloat
	case string:
		return KindString
	default:
		return KindNone
	}
}
