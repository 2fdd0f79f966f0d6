// Package manager is a declarative command-registration and
// argument-binding engine for multi-command CLI tools.
//
// Command logic is written as plain handler structs; the engine inspects a
// handler's exported fields to derive an argument schema, lets registration
// options refine that schema (help text, shortcuts, choices, environment
// sourcing, interactive prompting), groups commands into dot-separated
// namespaces and dispatches a parsed invocation to the right handler,
// normalizing its return value into process output and exit status.
//
// A minimal program:
//
//	type Greet struct {
//	    Name     string
//	    Loudly   bool `default:"false"`
//	}
//
//	func (g *Greet) Run() (any, error) {
//	    if g.Loudly {
//	        return strings.ToUpper(g.Name), nil
//	    }
//	    return g.Name, nil
//	}
//
//	func main() {
//	    m := manager.New("greeter")
//	    m.MustRegister(&Greet{}, manager.WithArg("name", manager.Help("who to greet")))
//	    m.Main()
//	}
//
// Registration happens once at start-up and freezes each command's schema;
// dispatch is single-threaded and reads the registry only. The underlying
// flag tokenizer is spf13/pflag; interactive values are resolved through
// the prompt package.
package manager
