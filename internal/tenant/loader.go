package tenant

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// ErrTenantNotFound is returned when neither the tenant nor the default tenant exists
var ErrTenantNotFound = errors.New("tenant configuration not found")

var extensions = []string{".json", ".yaml", ".yml"}

var envPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Loader reads tenant configurations from a directory and caches them
type Loader struct {
	dir   string
	mu    sync.RWMutex
	cache map[string]*Config
}

// NewLoader creates a loader for dir
func NewLoader(dir string) *Loader {
	return &Loader{
		dir:   dir,
		cache: make(map[string]*Config),
	}
}

// Dir returns the tenants directory
func (l *Loader) Dir() string {
	return l.dir
}

// Load returns the configuration for id, falling back to the default tenant
// when id has no file. Results are cached until Reload.
func (l *Loader) Load(id string) (*Config, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	l.mu.RLock()
	cfg, ok := l.cache[id]
	l.mu.RUnlock()
	if ok {
		return cfg, nil
	}

	cfg, err := l.read(id)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.cache[id] = cfg
	l.mu.Unlock()
	return cfg, nil
}

// Reload drops the cached configuration for id and reads it again
func (l *Loader) Reload(id string) (*Config, error) {
	l.mu.Lock()
	delete(l.cache, id)
	l.mu.Unlock()
	return l.Load(id)
}

// Purge drops every cached configuration
func (l *Loader) Purge() {
	l.mu.Lock()
	l.cache = make(map[string]*Config)
	l.mu.Unlock()
}

// List returns the ids of all tenants with a configuration file
func (l *Loader) List() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debug().Str("dir", l.dir).Msg("Tenants directory does not exist")
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read tenants directory: %w", err)
	}

	seen := make(map[string]bool)
	var ids []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if !isConfigExt(ext) {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ext)
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Add writes a new tenant configuration as JSON
func (l *Loader) Add(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("tenant configuration is nil")
	}
	if err := validateID(cfg.ID); err != nil {
		return err
	}
	if _, err := l.find(cfg.ID); err == nil {
		return fmt.Errorf("tenant '%s' already exists", cfg.ID)
	}

	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return fmt.Errorf("failed to create tenants directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal tenant config: %w", err)
	}

	path := filepath.Join(l.dir, cfg.ID+".json")
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write tenant config: %w", err)
	}

	log.Info().Str("tenant", cfg.ID).Str("path", path).Msg("Created tenant config")
	_, err = l.Reload(cfg.ID)
	return err
}

func (l *Loader) read(id string) (*Config, error) {
	path, err := l.find(id)
	fallback := false
	if err != nil {
		if id == DefaultID {
			return nil, fmt.Errorf("%w: %s", ErrTenantNotFound, id)
		}
		log.Warn().Str("tenant", id).Msg("Tenant not found, using default")
		path, err = l.find(DefaultID)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrTenantNotFound, id)
		}
		fallback = true
	}

	cfg, err := loadFile(path)
	if err != nil {
		return nil, err
	}

	if cfg.ID == "" || fallback {
		cfg.ID = id
	}
	cfg.Fallback = fallback

	log.Debug().Str("tenant", id).Str("path", path).Bool("fallback", fallback).Msg("Loaded tenant config")
	return cfg, nil
}

func (l *Loader) find(id string) (string, error) {
	for _, ext := range extensions {
		path := filepath.Join(l.dir, id+ext)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", os.ErrNotExist
}

func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tenant config: %w", err)
	}

	expanded := []byte(expandEnvVars(string(data)))

	var cfg Config
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(expanded, &cfg)
	default:
		err = json.Unmarshal(expanded, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse tenant config %s: %w", path, err)
	}

	checkFilePermissions(path)
	return &cfg, nil
}

// validateID rejects ids that would escape the tenants directory
func validateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("tenant id cannot be empty")
	}
	if strings.Contains(id, "..") || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("invalid tenant id: path traversal not allowed")
	}
	return nil
}

func isConfigExt(ext string) bool {
	for _, e := range extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// expandEnvVars replaces ${VAR} patterns with environment variable values
func expandEnvVars(input string) string {
	return envPattern.ReplaceAllStringFunc(input, func(match string) string {
		varName := match[2 : len(match)-1]
		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		// Don't log variable names for security reasons
		log.Debug().Msg("Referenced environment variable not set in tenant config")
		return ""
	})
}

func checkFilePermissions(path string) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}

	mode := info.Mode().Perm()
	if mode&0077 != 0 {
		log.Warn().
			Str("path", path).
			Str("permissions", fmt.Sprintf("%04o", mode)).
			Msg("Tenant config may contain secrets but has permissive permissions. Consider: chmod 600")
	}
}
