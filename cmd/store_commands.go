package cmd

import (
	"os"

	"stash/internal/store"
	"stash/pkg/manager"
)

// openStore opens the store at the resolved --store path, falling back to
// the default location under the user config dir.
func openStore(flag *string) (*store.Store, error) {
	path := ""
	if flag != nil {
		path = *flag
	}
	if path == "" {
		var err error
		path, err = store.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return store.Open(path)
}

// Set stores a value at a config path.
type Set struct {
	Path  string
	Value string
	Store *string
}

func (c *Set) Describe() string {
	return "Sets a live config value for the given path."
}

func (c *Set) Run() (any, error) {
	st, err := openStore(c.Store)
	if err != nil {
		return nil, err
	}
	if err := st.Set(c.Path, c.Value); err != nil {
		return nil, manager.Errorf("%v", err)
	}
	return true, nil
}

// Get prints the value stored at a config path.
type Get struct {
	Path  string
	Store *string
}

func (c *Get) Describe() string {
	return "Shows the value for the given path."
}

func (c *Get) Run() (any, error) {
	st, err := openStore(c.Store)
	if err != nil {
		return nil, err
	}
	v, ok := st.Get(c.Path)
	if !ok {
		return nil, manager.Errorf("unknown key %s", c.Path)
	}
	return v, nil
}

// Delete removes the entry at a config path.
type Delete struct {
	Path  string
	Store *string
}

func (c *Delete) Describe() string {
	return "Removes the config at the given path."
}

func (c *Delete) Run() (any, error) {
	st, err := openStore(c.Store)
	if err != nil {
		return nil, err
	}
	ok, err := st.Delete(c.Path)
	if err != nil {
		return nil, manager.Errorf("%v", err)
	}
	if !ok {
		return nil, manager.Errorf("unknown key %s", c.Path)
	}
	return true, nil
}

// List prints stored paths and values.
type List struct {
	Namespace string `default:""`
	Expand    bool   `default:"false"`
	Store     *string
}

func (c *List) Describe() string {
	return "Lists all config paths."
}

func (c *List) Run() (any, error) {
	st, err := openStore(c.Store)
	if err != nil {
		return nil, err
	}
	return st.List(c.Namespace, c.Expand), nil
}

// Reset deletes every entry. Without --force the decision is prompted.
type Reset struct {
	Force bool `default:"false"`
	Store *string
}

func (c *Reset) Describe() string {
	return "Deletes all configs."
}

func (c *Reset) Run() (any, error) {
	if !c.Force {
		return nil, manager.Errorf("reset aborted")
	}
	st, err := openStore(c.Store)
	if err != nil {
		return nil, err
	}
	if err := st.Reset(); err != nil {
		return nil, manager.Errorf("%v", err)
	}
	return true, nil
}

// Snapshot copies the store file aside and prints the snapshot id.
type Snapshot struct {
	Store *string
}

func (c *Snapshot) Describe() string {
	return "Writes a snapshot of the store and prints its id."
}

func (c *Snapshot) Run() (any, error) {
	st, err := openStore(c.Store)
	if err != nil {
		return nil, err
	}
	id, err := st.Snapshot()
	if err != nil {
		return nil, manager.Errorf("%v", err)
	}
	return id, nil
}

// Export renders the store as a KEY=VALUE env blob.
type Export struct {
	Store *string
}

func (c *Export) Describe() string {
	return "Exports the store as an env blob."
}

func (c *Export) Run() (any, error) {
	st, err := openStore(c.Store)
	if err != nil {
		return nil, err
	}
	return st.Export(), nil
}

// Import seeds the store from an env blob file.
type Import struct {
	File  string
	Store *string
}

func (c *Import) Describe() string {
	return "Imports entries from an env blob file."
}

func (c *Import) Run() (any, error) {
	data, err := os.ReadFile(c.File)
	if err != nil {
		return nil, manager.Errorf("reading %s: %v", c.File, err)
	}
	st, err := openStore(c.Store)
	if err != nil {
		return nil, err
	}
	env := manager.ParseEnv(string(data))
	if err := st.Import(env); err != nil {
		return nil, manager.Errorf("%v", err)
	}
	return len(env), nil
}

// SecretSet stores a sensitive value; when --value is omitted it is read
// from a hidden, confirmed prompt. Registered as secret.set.
type SecretSet struct {
	Path  string
	Value *string
	Store *string
}

func (c *SecretSet) Describe() string {
	return "Sets a secret value, prompting for it when omitted."
}

func (c *SecretSet) Run() (any, error) {
	if c.Value == nil {
		return nil, manager.Errorf("no value given for %s", c.Path)
	}
	st, err := openStore(c.Store)
	if err != nil {
		return nil, err
	}
	if err := st.Set(c.Path, *c.Value); err != nil {
		return nil, manager.Errorf("%v", err)
	}
	return true, nil
}

// Version prints the build version.
type Version struct{}

func (c *Version) Describe() string {
	return "Prints the stash version."
}

func (c *Version) Run() (any, error) {
	return versionString, nil
}
