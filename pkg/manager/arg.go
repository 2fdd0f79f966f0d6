package manager

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/spf13/cast"

	"stash/pkg/prompt"
)

// Kind is the declared type of an argument, inferred from the handler field
// that produced it. KindNone means no type was declared and command-line
// input stays free-form text.
type Kind int

const (
	KindNone Kind = iota
	KindString
	KindBool
	KindInt
	KindFloat
)

// String returns the kind's name for diagnostics.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	default:
		return "none"
	}
}

// promptKind maps a declared kind to the prompt engine's coercion kind.
func (k Kind) promptKind() prompt.Kind {
	switch k {
	case KindBool:
		return prompt.KindBool
	case KindInt:
		return prompt.KindInt
	case KindFloat:
		return prompt.KindFloat
	default:
		return prompt.KindString
	}
}

// NegationPrefix is the prefix a boolean flag is rendered with when its
// default is true, so that presenting the flag turns the value off. A
// boolean flag defaulting to false keeps its plain name and turns the value
// on. This polarity rule is fixed, not inferred per command.
const NegationPrefix = "no-"

// Arg describes one command parameter: how it is rendered on the parser
// surface and how a missing value is resolved. Instances are mutable while
// the owning command is still being declared and freeze with it at
// registration.
type Arg struct {
	// Name is the parameter identifier, unique within a command.
	Name string
	// Required marks a parameter with no declared default. Required
	// arguments are bound positionally, in declaration order.
	Required bool
	// Default is the declared default value, nil when absent.
	Default any
	// Type is the kind inferred from the default, KindNone when the
	// default was absent or untyped.
	Type Kind
	// Choices restricts accepted values to an exact match.
	Choices []string
	// Help is the descriptor's usage text.
	Help string
	// Shortcut is a single-character flag alias.
	Shortcut string
	// EnvVar names an environment variable consulted when no value was
	// supplied on the command line.
	EnvVar string
	// Prompt, when set, resolves a still-missing value interactively
	// instead of falling back to the default.
	Prompt *prompt.Options

	// synthesized marks a descriptor created by refining a name that is
	// not part of the inspected signature but is absorbed by a keyword
	// catch-all. Such an entry may be merged over exactly once.
	synthesized bool
}

// Boolean reports whether the argument parses as a presence flag rather
// than a value-taking option.
func (a *Arg) Boolean() bool {
	return a.Type == KindBool
}

// flagName is the name the argument is registered under on the parser
// surface, carrying the negation prefix for default-true booleans.
func (a *Arg) flagName() string {
	if a.Boolean() && a.Default == true {
		return NegationPrefix + a.Name
	}
	return a.Name
}

// checkChoice validates a resolved value against the choices set.
func (a *Arg) checkChoice(v any) error {
	if len(a.Choices) == 0 {
		return nil
	}
	s := fmt.Sprintf("%v", v)
	for _, c := range a.Choices {
		if c == s {
			return nil
		}
	}
	return fmt.Errorf("argument %s: invalid choice %q (choose from %s)",
		a.Name, s, strings.Join(a.Choices, ", "))
}

// coerce converts a raw textual value to the argument's declared type.
func (a *Arg) coerce(raw string) (any, error) {
	switch a.Type {
	case KindBool:
		b, err := cast.ToBoolE(raw)
		if err != nil {
			return nil, fmt.Errorf("argument %s: %q is not a boolean", a.Name, raw)
		}
		return b, nil
	case KindInt:
		n, err := cast.ToIntE(raw)
		if err != nil {
			return nil, fmt.Errorf("argument %s: %q is not an integer", a.Name, raw)
		}
		return n, nil
	case KindFloat:
		f, err := cast.ToFloat64E(raw)
		if err != nil {
			return nil, fmt.Errorf("argument %s: %q is not a number", a.Name, raw)
		}
		return f, nil
	default:
		return raw, nil
	}
}

// snakeCase derives an argument or command name from a Go identifier:
// "FirstArg" becomes "first_arg".
func snakeCase(ident string) string {
	var b strings.Builder
	for i, r := range ident {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
