package manager

import "fmt"

// SchemaError reports a defect in how a command or its arguments were
// declared: duplicate argument names, duplicate registry paths, mixing
// capture-all with typed arguments. Schema errors surface at registration
// time and are fatal to program start-up.
type SchemaError struct {
	Message string
}

func (e *SchemaError) Error() string {
	return e.Message
}

// Is allows errors.Is() matching against any *SchemaError.
func (e *SchemaError) Is(target error) bool {
	_, ok := target.(*SchemaError)
	return ok
}

func schemaErrorf(format string, args ...any) *SchemaError {
	return &SchemaError{Message: fmt.Sprintf(format, args...)}
}

// UsageError reports a malformed invocation: unknown flag, missing required
// positional, invalid choice. The dispatcher prints it to stderr together
// with the command's usage line and exits with ExitCodeUsage; the command is
// never invoked.
type UsageError struct {
	// Command is the path of the command being invoked, if one resolved.
	Command string
	Message string
}

func (e *UsageError) Error() string {
	if e.Command == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Command, e.Message)
}

// Is allows errors.Is() matching against any *UsageError.
func (e *UsageError) Is(target error) bool {
	_, ok := target.(*UsageError)
	return ok
}

func usageErrorf(command, format string, args ...any) *UsageError {
	return &UsageError{Command: command, Message: fmt.Sprintf(format, args...)}
}

// CommandError is a user-facing failure signalled by a command. The
// dispatcher prints its message to stderr without a stack trace and exits
// non-zero. Any other error returned by a command propagates with its full
// detail instead.
type CommandError struct {
	Message string
}

func (e *CommandError) Error() string {
	return e.Message
}

// Is allows errors.Is() matching against any *CommandError.
func (e *CommandError) Is(target error) bool {
	_, ok := target.(*CommandError)
	return ok
}

// Errorf builds a user-facing command error.
func Errorf(format string, args ...any) *CommandError {
	return &CommandError{Message: fmt.Sprintf(format, args...)}
}

// MissingEnvError reports a required environment variable that was not set
// when a command's env bindings were resolved. It indicates a deployment
// defect rather than a bad invocation, so it is not converted to a usage
// message.
type MissingEnvError struct {
	// Var is the name of the missing environment variable.
	Var string
}

func (e *MissingEnvError) Error() string {
	return fmt.Sprintf("required environment variable %s is not set", e.Var)
}

// Is allows errors.Is() matching against any *MissingEnvError.
func (e *MissingEnvError) Is(target error) bool {
	_, ok := target.(*MissingEnvError)
	return ok
}
