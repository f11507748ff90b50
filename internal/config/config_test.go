package config

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

const testConfigPath = "/home/tester/.shortcuty/config.json"

func newTestResolver(t *testing.T) (*Resolver, afero.Fs) {
	t.Helper()
	memFS := afero.NewMemMapFs()
	r := NewResolverWithFilesystem(memFS)
	r.SetConfigPath(testConfigPath)
	return r, memFS
}

func writeConfigFile(t *testing.T, fs afero.Fs, content string) {
	t.Helper()
	require.NoError(t, fs.MkdirAll("/home/tester/.shortcuty", 0700))
	require.NoError(t, afero.WriteFile(fs, testConfigPath, []byte(content), 0600))
}

func TestResolvePrecedence(t *testing.T) {
	tests := []struct {
		name    string
		cliFlag string
		envKey  string
		fileKey string
		want    string
		wantErr bool
	}{
		{
			name:    "flag wins over env and file",
			cliFlag: "flag-key",
			envKey:  "env-key",
			fileKey: "file-key",
			want:    "flag-key",
		},
		{
			name:    "env wins over file when flag absent",
			envKey:  "env-key",
			fileKey: "file-key",
			want:    "env-key",
		},
		{
			name:    "file used when flag and env absent",
			fileKey: "file-key",
			want:    "file-key",
		},
		{
			name:    "nothing anywhere",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, memFS := newTestResolver(t)
			t.Setenv(EnvAPIKey, tt.envKey)
			if tt.fileKey != "" {
				writeConfigFile(t, memFS, `{"api_key": "`+tt.fileKey+`"}`)
			}

			got, err := r.Resolve(tt.cliFlag)

			if tt.wantErr {
				if !errors.Is(err, ErrMissingCredential) {
					t.Fatalf("Resolve() error = %v, want ErrMissingCredential", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveTolerantFileFailures(t *testing.T) {
	tests := []struct {
		name    string
		content string
		noFile  bool
	}{
		{name: "config file missing", noFile: true},
		{name: "config file is not JSON", content: "{not json"},
		{name: "config file lacks api_key", content: `{"theme": "dark"}`},
		{name: "api_key has wrong type", content: `{"api_key": 42}`},
		{name: "api_key is empty", content: `{"api_key": ""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, memFS := newTestResolver(t)
			t.Setenv(EnvAPIKey, "")
			if !tt.noFile {
				writeConfigFile(t, memFS, tt.content)
			}

			// Broken files must fall through to "not found", never error out.
			_, err := r.Resolve("")
			if !errors.Is(err, ErrMissingCredential) {
				t.Errorf("Resolve() error = %v, want ErrMissingCredential", err)
			}
		})
	}
}

func TestResolveFallsThroughBrokenFileToNothing(t *testing.T) {
	r, memFS := newTestResolver(t)
	t.Setenv(EnvAPIKey, "env-key")
	writeConfigFile(t, memFS, "{definitely broken")

	got, err := r.Resolve("")
	require.NoError(t, err)
	require.Equal(t, "env-key", got)
}

func TestSaveAPIKeyRoundTrip(t *testing.T) {
	r, _ := newTestResolver(t)
	t.Setenv(EnvAPIKey, "")

	require.NoError(t, r.SaveAPIKey("saved-key"))

	got, err := r.Resolve("")
	require.NoError(t, err)
	require.Equal(t, "saved-key", got)
}

func TestSaveAPIKeyRejectsEmpty(t *testing.T) {
	r, _ := newTestResolver(t)
	if err := r.SaveAPIKey(""); err == nil {
		t.Error("SaveAPIKey(\"\") should fail")
	}
}

func TestSaveAPIKeyPreservesUnknownFields(t *testing.T) {
	r, memFS := newTestResolver(t)
	writeConfigFile(t, memFS, `{"api_key": "old", "endpoint": "https://example.com"}`)

	require.NoError(t, r.SaveAPIKey("new"))

	data, err := afero.ReadFile(memFS, testConfigPath)
	require.NoError(t, err)

	var cfg map[string]any
	require.NoError(t, json.Unmarshal(data, &cfg))
	require.Equal(t, "new", cfg["api_key"])
	require.Equal(t, "https://example.com", cfg["endpoint"])
}

func TestClearAPIKey(t *testing.T) {
	r, memFS := newTestResolver(t)
	t.Setenv(EnvAPIKey, "")
	writeConfigFile(t, memFS, `{"api_key": "doomed", "theme": "dark"}`)

	require.NoError(t, r.ClearAPIKey())

	_, err := r.Resolve("")
	require.ErrorIs(t, err, ErrMissingCredential)

	// Other fields survive the logout.
	data, err := afero.ReadFile(memFS, testConfigPath)
	require.NoError(t, err)
	var cfg map[string]any
	require.NoError(t, json.Unmarshal(data, &cfg))
	require.Equal(t, "dark", cfg["theme"])
	require.NotContains(t, cfg, "api_key")
}

func TestClearAPIKeyWithoutConfigFile(t *testing.T) {
	r, _ := newTestResolver(t)
	if err := r.ClearAPIKey(); err != nil {
		t.Errorf("ClearAPIKey() without a config file should be a no-op, got %v", err)
	}
}
