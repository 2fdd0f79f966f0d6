package manager

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type namespaced struct {
	Name string
}

func (c *namespaced) Describe() string { return "namespaced command" }

func (c *namespaced) Run() (any, error) { return c.Name, nil }

type raises struct{}

func (c *raises) Run() (any, error) { return nil, Errorf("No way dude!") }

func TestRegister_PathAndDescription(t *testing.T) {
	m := New("test")
	m.MustRegister(&simpleCommand{})
	m.MustRegister(&namespaced{}, WithNamespace("my_namespace"))

	c, ok := m.Get("simple_command")
	require.True(t, ok)
	assert.Equal(t, "simple_command", c.Path())

	c, ok = m.Get("my_namespace.namespaced")
	require.True(t, ok)
	assert.Equal(t, "my_namespace.namespaced", c.Path())
	assert.Equal(t, "namespaced command", c.Description())
	assert.Len(t, c.Args(), 1)
}

func TestRegister_DuplicatePath(t *testing.T) {
	m := New("test")
	m.MustRegister(&simpleCommand{})

	_, err := m.Register(&simpleCommand{})
	require.Error(t, err)
	assert.ErrorIs(t, err, &SchemaError{})
}

func TestRegister_SameRunnerInTwoNamespaces(t *testing.T) {
	m := New("test")
	m.MustRegister(&simpleCommand{}, WithNamespace("a"))
	m.MustRegister(&simpleCommand{}, WithNamespace("b"))

	assert.Equal(t, []string{"a.simple_command", "b.simple_command"}, m.Paths())
}

func TestMerge(t *testing.T) {
	m := New("test")
	m.MustRegister(&simpleCommand{})

	other := New("other")
	_, err := other.RegisterFunc("new_command", func(ctx *Context) (any, error) {
		return nil, nil
	})
	require.NoError(t, err)

	require.NoError(t, m.Merge(other, ""))
	_, ok := m.Get("new_command")
	assert.True(t, ok)
}

func TestMerge_WithNamespace(t *testing.T) {
	m := New("test")
	m.MustRegister(&simpleCommand{})

	other := New("other")
	_, err := other.RegisterFunc("new_command", func(ctx *Context) (any, error) {
		return nil, nil
	})
	require.NoError(t, err)

	require.NoError(t, m.Merge(other, "new_namespace"))

	_, ok := m.Get("new_namespace.new_command")
	assert.True(t, ok)
	// The source registry keeps its own path.
	_, ok = other.Get("new_command")
	assert.True(t, ok)
	// And the target's original commands are unaffected.
	_, ok = m.Get("simple_command")
	assert.True(t, ok)
}

func TestMerge_Collision(t *testing.T) {
	m := New("test")
	m.MustRegister(&simpleCommand{})

	other := New("other")
	other.MustRegister(&simpleCommand{})

	err := m.Merge(other, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, &SchemaError{})
}

func TestParseEnv(t *testing.T) {
	tests := []struct {
		name string
		blob string
		want map[string]string
	}{
		{
			name: "simple",
			blob: "key=value",
			want: map[string]string{"key": "value"},
		},
		{
			name: "single quotes",
			blob: "key='value'",
			want: map[string]string{"key": "value"},
		},
		{
			name: "double quotes",
			blob: `key="value"`,
			want: map[string]string{"key": "value"},
		},
		{
			name: "multiline",
			blob: "key=\"value\"\nanother_key=another value",
			want: map[string]string{"key": "value", "another_key": "another value"},
		},
		{
			name: "blank lines and whitespace",
			blob: "\n  key =  value \n\n",
			want: map[string]string{"key": "value"},
		},
		{
			name: "duplicate keeps last",
			blob: "key=first\nkey=second",
			want: map[string]string{"key": "second"},
		},
		{
			name: "double quotes unescape",
			blob: `key="first line\nsecond line"`,
			want: map[string]string{"key": "first line\nsecond line"},
		},
		{
			name: "escaped quotes and backslashes",
			blob: `key="say \"hi\""` + "\n" + `path="C:\\tmp"`,
			want: map[string]string{"key": "say \"hi\"", "path": `C:\tmp`},
		},
		{
			name: "single quotes stay verbatim",
			blob: `key='a\nb'`,
			want: map[string]string{"key": `a\nb`},
		},
		{
			name: "double quotes with invalid escape stay verbatim",
			blob: `key="C:\path"`,
			want: map[string]string{"key": `C:\path`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseEnv(tt.blob))
		})
	}
}

func TestBindEnv_SideTable(t *testing.T) {
	m := New("test")
	m.BindEnv("throwaway", binding("REQUIRED", "", false))
	m.BindEnv("throwaway", binding("OPTIONAL", "bar", true))

	assert.Len(t, m.EnvBindings("throwaway"), 2)

	lookup := func(string) (string, bool) { return "", false }
	_, err := m.resolveBindings("throwaway", lookup)
	require.Error(t, err)
	var missing *MissingEnvError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "REQUIRED", missing.Var)

	lookup = func(k string) (string, bool) {
		if k == "REQUIRED" {
			return "foo", true
		}
		return "", false
	}
	resolved, err := m.resolveBindings("throwaway", lookup)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"required": "foo", "optional": "bar"}, resolved)
}

// binding keeps the table above readable.
func binding(v, def string, hasDefault bool) EnvBinding {
	return EnvBinding{Var: v, Default: def, HasDefault: hasDefault}
}

func TestSourceEnv_OverlaysLookups(t *testing.T) {
	m := New("test")
	m.LookupEnv = func(string) (string, bool) { return "", false }
	m.SourceEnv("REGION='us'")

	v, ok := m.lookupEnv("REGION")
	require.True(t, ok)
	assert.Equal(t, "us", v)
}

func TestRun_SuccessAndOutput(t *testing.T) {
	var out, errOut bytes.Buffer
	m := New("test")
	m.Stdout = &out
	m.Stderr = &errOut
	m.MustRegister(&simpleCommand{})

	code := m.Run([]string{"simple_command", "world"})
	assert.Equal(t, ExitCodeSuccess, code)
	assert.Equal(t, "world\n", out.String())
	assert.Empty(t, errOut.String())
}

func TestRun_CommandErrorGoesToStderr(t *testing.T) {
	var out, errOut bytes.Buffer
	m := New("test")
	m.Stdout = &out
	m.Stderr = &errOut
	m.MustRegister(&raises{})

	code := m.Run([]string{"raises"})
	assert.Equal(t, ExitCodeError, code)
	assert.Equal(t, "No way dude!\n", errOut.String())
	assert.Empty(t, out.String())
}

func TestRun_FalseReturnFails(t *testing.T) {
	var out bytes.Buffer
	m := New("test")
	m.Stdout = &out
	m.Stderr = &bytes.Buffer{}
	_, err := m.RegisterFunc("nope", func(ctx *Context) (any, error) {
		return false, nil
	})
	require.NoError(t, err)

	code := m.Run([]string{"nope"})
	assert.Equal(t, ExitCodeError, code)
	assert.Equal(t, "FAILED\n", out.String())
}

func TestRun_UsageErrorPrintsSynopsis(t *testing.T) {
	var errOut bytes.Buffer
	m := New("test")
	m.Stdout = &bytes.Buffer{}
	m.Stderr = &errOut
	m.MustRegister(&simpleCommand{})

	code := m.Run([]string{"simple_command"})
	assert.Equal(t, ExitCodeUsage, code)
	assert.Contains(t, errOut.String(), "missing required argument <name>")
	assert.Contains(t, errOut.String(), "usage: test simple_command")
}

func TestRun_UnknownCommand(t *testing.T) {
	var errOut bytes.Buffer
	m := New("test")
	m.Stdout = &bytes.Buffer{}
	m.Stderr = &errOut
	m.MustRegister(&simpleCommand{})

	code := m.Run([]string{"bogus"})
	assert.Equal(t, ExitCodeUsage, code)
	assert.Contains(t, errOut.String(), `unknown command "bogus"`)
	assert.Contains(t, errOut.String(), "simple_command")
}

func TestRun_MissingRequiredEnvBinding(t *testing.T) {
	var errOut bytes.Buffer
	m := New("test")
	m.Stdout = &bytes.Buffer{}
	m.Stderr = &errOut
	m.LookupEnv = func(string) (string, bool) { return "", false }
	m.MustRegister(&simpleCommand{})
	m.BindEnv("simple_command", EnvBinding{Var: "REQUIRED"})

	code := m.Run([]string{"simple_command", "world"})
	assert.Equal(t, ExitCodeError, code)
	assert.Contains(t, errOut.String(), "REQUIRED")
}

func TestRun_EnvBindingInjectsParameter(t *testing.T) {
	var out bytes.Buffer
	m := New("test")
	m.Stdout = &out
	m.Stderr = &bytes.Buffer{}
	m.LookupEnv = func(k string) (string, bool) {
		if k == "GREETING_NAME" {
			return "from env", true
		}
		return "", false
	}
	m.MustRegister(&shortcutCommand{}, WithName("greet"))
	m.BindEnv("greet", EnvBinding{Var: "GREETING_NAME", Param: "first_arg"})

	code := m.Run([]string{"greet"})
	assert.Equal(t, ExitCodeSuccess, code)
	assert.Equal(t, "from env\n", out.String())
}

func TestUsage_GroupsByNamespace(t *testing.T) {
	var out bytes.Buffer
	m := New("test")
	m.MustRegister(&simpleCommand{})
	m.MustRegister(&namespaced{}, WithNamespace("my_namespace"))

	m.Usage(&out)
	s := out.String()

	assert.Contains(t, s, "usage: test")
	assert.Contains(t, s, "simple_command")
	assert.Contains(t, s, "[my_namespace]")
	assert.Contains(t, s, "namespaced")
	// Root commands come before the namespace block.
	assert.Less(t, strings.Index(s, "simple_command"), strings.Index(s, "[my_namespace]"))
}

func TestRun_HelpPrintsUsage(t *testing.T) {
	var out bytes.Buffer
	m := New("test")
	m.Stdout = &out
	m.Stderr = &bytes.Buffer{}
	m.MustRegister(&simpleCommand{})

	code := m.Run([]string{"--help"})
	assert.Equal(t, ExitCodeSuccess, code)
	assert.Contains(t, out.String(), "simple_command")

	code = m.Run(nil)
	assert.Equal(t, ExitCodeUsage, code)
}
