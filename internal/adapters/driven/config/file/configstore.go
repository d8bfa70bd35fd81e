package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// ConfigFile is the configuration file name inside the data directory.
const ConfigFile = "config.toml"

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// table is a decoded TOML table.
type table = map[string]any

// ConfigStore keeps settings in a TOML file. A dotted key addresses a
// nested table, so "embedding.provider" is written as
//
//	[embedding]
//	provider = "hashing"
//
// Every Set rewrites the file; the in-memory tree only changes once the
// write has succeeded.
type ConfigStore struct {
	mu   sync.RWMutex
	path string
	tree table
}

// DefaultDataDir returns ~/.sercha-kb.
func DefaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".sercha-kb"), nil
}

// NewConfigStore opens <dataDir>/config.toml, creating dataDir if needed.
// An empty dataDir means DefaultDataDir.
func NewConfigStore(dataDir string) (*ConfigStore, error) {
	if dataDir == "" {
		var err error
		if dataDir, err = DefaultDataDir(); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	s := &ConfigStore{path: filepath.Join(dataDir, ConfigFile), tree: table{}}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Get returns the value at key. Tables are not values.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := lookup(s.tree, strings.Split(key, "."))
	if _, isTable := v.(table); isTable {
		return nil, false
	}
	return v, ok
}

// GetString returns "" for missing or non-string values.
func (s *ConfigStore) GetString(key string) string {
	v, _ := s.Get(key)
	str, _ := v.(string)
	return str
}

// GetInt returns 0 for missing or non-integer values. TOML integers
// decode as int64; values set in this process keep their Go type.
func (s *ConfigStore) GetInt(key string) int {
	v, _ := s.Get(key)
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		if n == float64(int(n)) {
			return int(n)
		}
	}
	return 0
}

// GetBool returns false for missing or non-boolean values.
func (s *ConfigStore) GetBool(key string) bool {
	v, _ := s.Get(key)
	b, _ := v.(bool)
	return b
}

// GetStringSlice returns nil for missing values. TOML arrays decode as
// []any; non-string items are dropped.
func (s *ConfigStore) GetStringSlice(key string) []string {
	v, _ := s.Get(key)
	switch list := v.(type) {
	case []string:
		return slices.Clone(list)
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

// Set stores value at key and rewrites the file. A key cannot turn a
// table into a value or reach through a value.
func (s *ConfigStore) Set(key string, value any) error {
	path, err := splitKey(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := cloneTable(s.tree)
	if err := insert(next, path, value); err != nil {
		return fmt.Errorf("config key %q: %w", key, err)
	}
	if err := s.write(next); err != nil {
		return err
	}
	s.tree = next
	return nil
}

// Keys returns every configured key in dotted form, sorted.
func (s *ConfigStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []string
	walk(s.tree, "", func(key string) { keys = append(keys, key) })
	slices.Sort(keys)
	return keys
}

// Save rewrites the file from memory.
func (s *ConfigStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(s.tree)
}

// Load replaces the in-memory tree with the file. A missing file is an
// empty configuration.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.tree = table{}
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}

	loaded := table{}
	if err := toml.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("parsing %s: %w", s.path, err)
	}
	s.tree = loaded
	return nil
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.path
}

// write replaces the file through a temporary file in the same directory,
// so a crash never leaves half a config behind. The file may hold API
// keys and keeps CreateTemp's 0600 mode.
func (s *ConfigStore) write(tree table) error {
	data, err := toml.Marshal(tree)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".config-*.toml")
	if err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func splitKey(key string) ([]string, error) {
	path := strings.Split(key, ".")
	if slices.Contains(path, "") {
		return nil, fmt.Errorf("invalid config key %q", key)
	}
	return path, nil
}

func lookup(node table, path []string) (any, bool) {
	for i, part := range path {
		v, ok := node[part]
		if !ok {
			return nil, false
		}
		if i == len(path)-1 {
			return v, true
		}
		if node, ok = v.(table); !ok {
			return nil, false
		}
	}
	return nil, false
}

func insert(node table, path []string, value any) error {
	for i, part := range path[:len(path)-1] {
		switch child := node[part].(type) {
		case nil:
			created := table{}
			node[part] = created
			node = created
		case table:
			node = child
		default:
			return fmt.Errorf("%s already holds a value", strings.Join(path[:i+1], "."))
		}
	}

	last := path[len(path)-1]
	if _, isTable := node[last].(table); isTable {
		return fmt.Errorf("%s is a table", strings.Join(path, "."))
	}
	node[last] = value
	return nil
}

// walk calls fn with the dotted key of every value under node.
func walk(node table, prefix string, fn func(key string)) {
	for name, v := range node {
		key := name
		if prefix != "" {
			key = prefix + "." + name
		}
		if child, ok := v.(table); ok {
			walk(child, key, fn)
			continue
		}
		fn(key)
	}
}

// cloneTable copies the table structure. Values are shared.
func cloneTable(src table) table {
	dst := make(table, len(src))
	for k, v := range src {
		if child, ok := v.(table); ok {
			v = cloneTable(child)
		}
		dst[k] = v
	}
	return dst
}
