// Package store persists the live-config entries the stash commands
// operate on. Entries are namespaced key-value pairs kept in insertion
// order and saved as a YAML document, so a store file diffs cleanly and
// survives hand edits.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"

	"stash/pkg/logging"
	stashstrings "stash/pkg/strings"
)

// DefaultNamespace holds entries addressed by a bare key with no dot.
const DefaultNamespace = "all"

// entry is one persisted key-value pair. Key is always the canonical
// "namespace.key" form.
type entry struct {
	Key   string `yaml:"key"`
	Value string `yaml:"value"`
}

// Store is an insertion-ordered, file-backed configuration store.
type Store struct {
	path    string
	entries []entry
	index   map[string]int
}

// DefaultPath returns the store location used when none is configured:
// stash/store.yaml under the user configuration directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving user config dir: %w", err)
	}
	return filepath.Join(dir, "stash", "store.yaml"), nil
}

// Open loads the store at path, or returns an empty store when the file
// does not exist yet.
func Open(path string) (*Store, error) {
	s := &Store{path: path, index: make(map[string]int)}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading store %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &s.entries); err != nil {
		return nil, fmt.Errorf("parsing store %s: %w", path, err)
	}
	for i, e := range s.entries {
		s.index[e.Key] = i
	}
	return s, nil
}

// Canonical validates a config path and returns its "namespace.key" form.
// A bare key lands in the default namespace; more than one dot is an
// error.
func Canonical(path string) (string, error) {
	parts := strings.Split(path, ".")
	switch {
	case len(parts) == 1 && parts[0] != "":
		return DefaultNamespace + "." + parts[0], nil
	case len(parts) == 2 && parts[0] != "" && parts[1] != "":
		return path, nil
	}
	return "", fmt.Errorf("invalid key path %q", path)
}

// Set stores value at path, overwriting an existing entry in place.
func (s *Store) Set(path, value string) error {
	key, err := Canonical(path)
	if err != nil {
		return err
	}
	if i, ok := s.index[key]; ok {
		s.entries[i].Value = value
	} else {
		s.index[key] = len(s.entries)
		s.entries = append(s.entries, entry{Key: key, Value: value})
	}
	return s.save()
}

// Get returns the value stored at path.
func (s *Store) Get(path string) (string, bool) {
	key, err := Canonical(path)
	if err != nil {
		return "", false
	}
	i, ok := s.index[key]
	if !ok {
		return "", false
	}
	return s.entries[i].Value, true
}

// Delete removes the entry at path and reports whether one existed.
func (s *Store) Delete(path string) (bool, error) {
	key, err := Canonical(path)
	if err != nil {
		return false, err
	}
	i, ok := s.index[key]
	if !ok {
		return false, nil
	}
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	delete(s.index, key)
	for j := i; j < len(s.entries); j++ {
		s.index[s.entries[j].Key] = j
	}
	return true, s.save()
}

// List returns paths and values in store order. With a namespace filter
// only that namespace's entries are returned, under their bare keys;
// unfiltered listings show default-namespace entries bare and everything
// else fully qualified. Unless expand is set, multi-line values shorten to
// their first line.
func (s *Store) List(namespace string, expand bool) *orderedmap.OrderedMap[string, string] {
	out := orderedmap.New[string, string]()
	for _, e := range s.entries {
		ns, key, _ := strings.Cut(e.Key, ".")
		display := e.Key
		switch {
		case namespace != "":
			if ns != namespace {
				continue
			}
			display = key
		case ns == DefaultNamespace:
			display = key
		}
		value := e.Value
		if !expand {
			value = stashstrings.FirstLine(value)
		}
		out.Set(display, value)
	}
	return out
}

// Reset deletes every entry.
func (s *Store) Reset() error {
	s.entries = nil
	s.index = make(map[string]int)
	return s.save()
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	return len(s.entries)
}

// Snapshot copies the store file to a uuid-named sibling and returns the
// snapshot id.
func (s *Store) Snapshot() (string, error) {
	id := uuid.NewString()
	target := filepath.Join(filepath.Dir(s.path), id+".yaml")
	data, err := yaml.Marshal(s.entries)
	if err != nil {
		return "", fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("creating snapshot dir: %w", err)
	}
	if err := os.WriteFile(target, data, 0o600); err != nil {
		return "", fmt.Errorf("writing snapshot %s: %w", target, err)
	}
	logging.Info("store", "snapshot %s written", target)
	return id, nil
}

// Export renders the whole store as a KEY=VALUE env blob, one entry per
// line in store order. Values are double-quoted with escaped newlines,
// quotes and backslashes so every stored value, multi-line included,
// round-trips through the blob parser.
func (s *Store) Export() string {
	var b strings.Builder
	for _, e := range s.entries {
		fmt.Fprintf(&b, "%s=%q\n", e.Key, e.Value)
	}
	return b.String()
}

// Import seeds the store from a parsed env blob mapping. Keys are applied
// in sorted order so imports are deterministic.
func (s *Store) Import(env map[string]string) error {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := s.Set(k, env[k]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) save() error {
	data, err := yaml.Marshal(s.entries)
	if err != nil {
		return fmt.Errorf("encoding store: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating store dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("writing store %s: %w", s.path, err)
	}
	return nil
}
