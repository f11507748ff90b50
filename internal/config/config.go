package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// EnvAPIKey is the environment variable consulted when no --api-key flag is given.
const EnvAPIKey = "SHORTCUTY_API_KEY"

// ErrMissingCredential is returned when no API key can be found in any source.
var ErrMissingCredential = errors.New("no API key found: pass --api-key, set SHORTCUTY_API_KEY, or run 'shortcuty login <key>'")

// Resolver resolves the effective API key for one invocation.
//
// Precedence, first non-empty wins:
//  1. the --api-key flag value
//  2. the SHORTCUTY_API_KEY environment variable
//  3. the api_key field of ~/.shortcuty/config.json
//
// A config file that is unreadable, not valid JSON, or missing the field is
// treated as "no key here", never as a hard error.
type Resolver struct {
	fs         afero.Fs
	configPath string
}

// NewResolver creates a resolver against the OS filesystem and default config path.
func NewResolver() *Resolver {
	return NewResolverWithFilesystem(afero.NewOsFs())
}

// NewResolverWithFilesystem creates a resolver with a custom filesystem (for testing)
func NewResolverWithFilesystem(fs afero.Fs) *Resolver {
	slog.Debug("creating credential resolver", "config_path", DefaultConfigPath())
	return &Resolver{
		fs:         fs,
		configPath: DefaultConfigPath(),
	}
}

// DefaultConfigPath returns ~/.shortcuty/config.json.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		slog.Warn("failed to determine home directory, using current directory", "error", err)
		home = "."
	}
	return filepath.Join(home, ".shortcuty", "config.json")
}

// SetConfigPath overrides the config file location (for testing)
func (r *Resolver) SetConfigPath(path string) {
	r.configPath = path
}

// ConfigPath returns the config file location in effect.
func (r *Resolver) ConfigPath() string {
	return r.configPath
}

// Resolve returns the API key for this invocation. The key is resolved exactly
// once per process run; callers pass the result explicitly to every handler.
func (r *Resolver) Resolve(cliFlag string) (string, error) {
	if cliFlag != "" {
		slog.Debug("API key resolved from --api-key flag")
		return cliFlag, nil
	}

	if envKey := os.Getenv(EnvAPIKey); envKey != "" {
		slog.Debug("API key resolved from environment", "variable", EnvAPIKey)
		return envKey, nil
	}

	if fileKey := r.readFileKey(); fileKey != "" {
		slog.Debug("API key resolved from config file", "path", r.configPath)
		return fileKey, nil
	}

	slog.Debug("no API key found in any source")
	return "", ErrMissingCredential
}

// readFileKey reads api_key from the config file. Every failure mode falls
// through to "not found" so resolution can continue.
func (r *Resolver) readFileKey() string {
	data, err := afero.ReadFile(r.fs, r.configPath)
	if err != nil {
		slog.Debug("config file not readable", "path", r.configPath, "error", err)
		return ""
	}

	var cfg map[string]any
	if err := json.Unmarshal(data, &cfg); err != nil {
		slog.Warn("config file is not valid JSON, ignoring", "path", r.configPath, "error", err)
		return ""
	}

	key, _ := cfg["api_key"].(string)
	return key
}

// SaveAPIKey persists the API key to the config file, creating the directory
// if needed. Unrecognized fields already present in the file are kept.
func (r *Resolver) SaveAPIKey(key string) error {
	if key == "" {
		return fmt.Errorf("cannot save empty API key")
	}

	cfg := r.loadFileMap()
	cfg["api_key"] = key

	return r.writeFileMap(cfg)
}

// ClearAPIKey removes the stored API key from the config file. Clearing a key
// that was never stored is not an error.
func (r *Resolver) ClearAPIKey() error {
	exists, err := afero.Exists(r.fs, r.configPath)
	if err != nil || !exists {
		slog.Debug("no config file to clear", "path", r.configPath)
		return nil
	}

	cfg := r.loadFileMap()
	delete(cfg, "api_key")

	return r.writeFileMap(cfg)
}

func (r *Resolver) loadFileMap() map[string]any {
	cfg := map[string]any{}
	data, err := afero.ReadFile(r.fs, r.configPath)
	if err != nil {
		return cfg
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		slog.Warn("existing config file is not valid JSON, rewriting", "path", r.configPath, "error", err)
		return map[string]any{}
	}
	return cfg
}

func (r *Resolver) writeFileMap(cfg map[string]any) error {
	dir := filepath.Dir(r.configPath)
	if err := r.fs.MkdirAll(dir, 0700); err != nil {
		slog.Error("failed to create config directory", "directory", dir, "error", err)
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// The file holds a credential, keep it owner-only.
	if err := afero.WriteFile(r.fs, r.configPath, data, 0600); err != nil {
		slog.Error("failed to write config file", "path", r.configPath, "error", err)
		return fmt.Errorf("failed to write config file: %w", err)
	}

	slog.Info("config saved", "path", r.configPath)
	return nil
}
