// Package prompt resolves argument values interactively from a line-based
// input stream. The resolution algorithm itself is stream-agnostic: it reads
// from an injected reader and writes prompt text to an injected writer, so
// tests can script a whole session with a strings.Reader and a bytes.Buffer.
// Echo suppression for hidden values is a terminal concern and only applies
// to the readline-backed prompter returned by Terminal.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cast"
)

// Kind is the type a resolved value is coerced to before it is returned.
type Kind int

const (
	// KindString returns the entered line verbatim.
	KindString Kind = iota
	// KindBool coerces through the yes/no vocabulary.
	KindBool
	// KindInt coerces to int.
	KindInt
	// KindFloat coerces to float64.
	KindFloat
)

var (
	// ErrRequired is returned when the user enters an empty line, no
	// default is configured and empty input is not allowed.
	ErrRequired = errors.New("a value is required")

	// ErrMismatch is returned in confirmation mode when the two entered
	// values do not compare equal.
	ErrMismatch = errors.New("entered values do not match")
)

// InvalidValueError is returned when the entered value cannot be coerced to
// the requested kind or is not one of the allowed choices.
type InvalidValueError struct {
	// Value is the raw entered line.
	Value string
	// Reason describes what made it invalid.
	Reason string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid value %q: %s", e.Value, e.Reason)
}

// Options control a single Ask invocation.
type Options struct {
	// Kind the returned value is coerced to.
	Kind Kind
	// Hidden marks the value as sensitive. The resolution algorithm reads
	// it as plain text; only terminal-backed prompters suppress echo.
	Hidden bool
	// Confirm asks for the value a second time under an "(again)" prompt
	// and requires both entries to match.
	Confirm bool
	// AllowEmpty lets an empty entry resolve to nil instead of failing
	// when no default is configured.
	AllowEmpty bool
	// Default is used when the user enters an empty line.
	Default any
	// Choices restricts accepted entries to an exact match.
	Choices []string
}

// lineReader reads one line of input for the given prompt text.
type lineReader func(text string, hidden bool) (string, error)

// Prompter asks for values over a fixed pair of streams.
type Prompter struct {
	read lineReader
}

// New returns a Prompter reading lines from in and writing prompt text to
// out. Hidden options are read as plain text.
func New(in io.Reader, out io.Writer) *Prompter {
	br := bufio.NewReader(in)
	return &Prompter{
		read: func(text string, _ bool) (string, error) {
			fmt.Fprintf(out, "%s: ", text)
			line, err := br.ReadString('\n')
			if err != nil && line == "" {
				return "", err
			}
			return strings.TrimRight(line, "\r\n"), nil
		},
	}
}

// Terminal returns a Prompter attached to the controlling terminal via
// readline. Hidden options are read without echo.
func Terminal() *Prompter {
	return &Prompter{
		read: func(text string, hidden bool) (string, error) {
			if hidden {
				b, err := readline.Password(text + ": ")
				if err != nil {
					return "", err
				}
				return string(b), nil
			}
			return readline.Line(text + ": ")
		},
	}
}

// Ask resolves one value. The returned value's type matches opts.Kind, or is
// nil when an allowed-empty entry resolved to nothing.
func (p *Prompter) Ask(text string, opts Options) (any, error) {
	v, err := p.askOnce(text, opts)
	if err != nil {
		return nil, err
	}
	if !opts.Confirm {
		return v, nil
	}
	again, err := p.askOnce(text+" (again)", opts)
	if err != nil {
		return nil, err
	}
	if v != again {
		return nil, ErrMismatch
	}
	return v, nil
}

func (p *Prompter) askOnce(text string, opts Options) (any, error) {
	line, err := p.read(text, opts.Hidden)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	if line == "" {
		if opts.Default != nil {
			return opts.Default, nil
		}
		if opts.AllowEmpty {
			return nil, nil
		}
		return nil, ErrRequired
	}
	if len(opts.Choices) > 0 && !contains(opts.Choices, line) {
		return nil, &InvalidValueError{
			Value:  line,
			Reason: fmt.Sprintf("must be one of %s", strings.Join(opts.Choices, ", ")),
		}
	}
	return coerce(line, opts.Kind)
}

// coerce converts an entered line to the requested kind. Booleans use a
// fixed case-insensitive vocabulary rather than strconv's, so interactive
// "y"/"n" answers work.
func coerce(line string, kind Kind) (any, error) {
	switch kind {
	case KindBool:
		switch strings.ToLower(line) {
		case "y", "yes", "true", "1":
			return true, nil
		case "n", "no", "false", "0":
			return false, nil
		}
		return nil, &InvalidValueError{Value: line, Reason: "expected yes or no"}
	case KindInt:
		n, err := cast.ToIntE(line)
		if err != nil {
			return nil, &InvalidValueError{Value: line, Reason: "expected an integer"}
		}
		return n, nil
	case KindFloat:
		f, err := cast.ToFloat64E(line)
		if err != nil {
			return nil, &InvalidValueError{Value: line, Reason: "expected a number"}
		}
		return f, nil
	default:
		return line, nil
	}
}

func contains(hay []string, needle string) bool {
	for _, h := range hay {
		if h == needle {
			return true
		}
	}
	return false
}
