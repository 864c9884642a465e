package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/camdeck/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

const (
	// HomeEnv overrides the camdeck home directory.
	HomeEnv = "CAMDECK_HOME"

	// ConfigFile is the file read from the home directory.
	ConfigFile = "config.toml"

	// EnvPrefix starts the name of every environment override. The key
	// "playback.primary" is overridden by CAMDECK_PLAYBACK_PRIMARY.
	EnvPrefix = "CAMDECK_"
)

// ConfigStore reads config.toml. Tables become dotted keys, so
//
//	[playback]
//	primary = "back"
//
// is the key "playback.primary". An environment override wins over the
// file and is always a string.
type ConfigStore struct {
	path string

	mu     sync.RWMutex
	values map[string]any
}

// HomeDir returns $CAMDECK_HOME, or ~/.camdeck when it is unset.
func HomeDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".camdeck"), nil
}

// NewConfigStore loads dir/config.toml, with dir defaulting to HomeDir.
// A missing file leaves the store empty.
func NewConfigStore(dir string) (*ConfigStore, error) {
	if dir == "" {
		home, err := HomeDir()
		if err != nil {
			return nil, err
		}
		dir = home
	}

	s := &ConfigStore{path: filepath.Join(dir, ConfigFile)}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// EnvName returns the environment variable that overrides key.
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func (s *ConfigStore) Lookup(key string) (any, bool) {
	if v, ok := os.LookupEnv(EnvName(key)); ok {
		return v, true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *ConfigStore) Load() error {
	values := make(map[string]any)

	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return fmt.Errorf("read config: %w", err)
	default:
		var doc map[string]any
		if err := toml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parse %s: %w", s.path, err)
		}
		flatten(values, "", doc)
	}

	s.mu.Lock()
	s.values = values
	s.mu.Unlock()
	return nil
}

func (s *ConfigStore) Path() string {
	return s.path
}

// flatten copies table into dst under dotted keys.
func flatten(dst map[string]any, prefix string, table map[string]any) {
	for k, v := range table {
		if prefix != "" {
			k = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok {
			flatten(dst, k, sub)
			continue
		}
		dst[k] = v
	}
}
