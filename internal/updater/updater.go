// Package updater implements the best-effort CLI update check and the
// cli-update self-update. A failed check never blocks or fails the command it
// runs ahead of.
package updater

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	goversion "github.com/hashicorp/go-version"
	"github.com/spf13/afero"
)

const (
	// VersionURL publishes the latest released version as plain text.
	VersionURL = "https://raw.githubusercontent.com/Shortcuty/Shortcuty-CLI/main/VERSION"

	// installTarget is what the self-update installs.
	installTarget = "github.com/shortcuty/shortcuty-cli@latest"

	checkInterval  = 24 * time.Hour
	checkTimeout   = 5 * time.Second
	installTimeout = 120 * time.Second

	cacheFilename = "last_update_check.json"
)

// Checker queries for a newer published CLI version. The passive notification
// path is throttled through a timestamp cache so at most one network check
// happens per day.
type Checker struct {
	fs         afero.Fs
	httpClient *http.Client
	versionURL string
	cachePath  string
	current    string

	// installCommand builds the self-update command; swapped in tests.
	installCommand func(ctx context.Context) *exec.Cmd
}

// NewChecker creates a checker for the given running version.
func NewChecker(currentVersion string) *Checker {
	return NewCheckerWithFilesystem(currentVersion, afero.NewOsFs())
}

// NewCheckerWithFilesystem creates a checker with a custom filesystem (for testing)
func NewCheckerWithFilesystem(currentVersion string, fs afero.Fs) *Checker {
	cachePath := filepath.Join(xdg.CacheHome, "shortcuty", cacheFilename)
	slog.Debug("creating update checker", "current_version", currentVersion, "cache_path", cachePath)
	return &Checker{
		fs:         fs,
		httpClient: &http.Client{Timeout: checkTimeout},
		versionURL: VersionURL,
		cachePath:  cachePath,
		current:    currentVersion,
		installCommand: func(ctx context.Context) *exec.Cmd {
			return exec.CommandContext(ctx, "go", "install", installTarget)
		},
	}
}

// SetVersionURL overrides the published-version URL (for testing)
func (c *Checker) SetVersionURL(url string) {
	c.versionURL = url
}

// SetCachePath overrides the throttle cache location (for testing)
func (c *Checker) SetCachePath(path string) {
	c.cachePath = path
}

// SetInstallCommand overrides the self-update command (for testing)
func (c *Checker) SetInstallCommand(fn func(ctx context.Context) *exec.Cmd) {
	c.installCommand = fn
}

// MaybeNotify performs the passive pre-command check. It prints at most one
// notice line to stderr (never stdout, which stays clean for scripted and
// JSON consumers) and swallows every failure.
func (c *Checker) MaybeNotify(stderr io.Writer) {
	if !c.shouldCheck() {
		slog.Debug("update check throttled by cache")
		return
	}

	latest, err := c.fetchLatest()
	c.touchCache()
	if err != nil {
		slog.Debug("update check failed, ignoring", "error", err)
		return
	}

	newer, err := c.isNewer(latest)
	if err != nil {
		slog.Debug("version comparison failed, ignoring", "latest", latest, "error", err)
		return
	}

	if newer {
		fmt.Fprintf(stderr, "A new version of shortcuty is available: %s -> %s (run 'shortcuty cli-update')\n", c.current, latest)
	}
}

// Check performs an explicit, unthrottled version check.
func (c *Checker) Check() (current, latest string, newer bool, err error) {
	latest, err = c.fetchLatest()
	if err != nil {
		return c.current, "", false, err
	}

	newer, err = c.isNewer(latest)
	if err != nil {
		return c.current, latest, false, fmt.Errorf("cannot compare versions: %w", err)
	}

	return c.current, latest, newer, nil
}

// Install runs the self-update command with a bounded timeout.
func (c *Checker) Install() error {
	ctx, cancel := context.WithTimeout(context.Background(), installTimeout)
	defer cancel()

	cmd := c.installCommand(ctx)
	slog.Info("running self-update", "command", strings.Join(cmd.Args, " "))

	out, err := cmd.CombinedOutput()
	if err != nil {
		slog.Error("self-update failed", "error", err, "output", string(out))
		return fmt.Errorf("self-update failed: %w", err)
	}

	slog.Info("self-update completed")
	return nil
}

// fetchLatest downloads the published VERSION file and normalizes its content.
func (c *Checker) fetchLatest() (string, error) {
	resp, err := c.httpClient.Get(c.versionURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("version fetch returned %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 256))
	if err != nil {
		return "", err
	}

	latest := strings.TrimPrefix(strings.TrimSpace(string(body)), "v")
	if latest == "" {
		return "", fmt.Errorf("published version file is empty")
	}
	return latest, nil
}

func (c *Checker) isNewer(latest string) (bool, error) {
	latestVersion, err := goversion.NewVersion(latest)
	if err != nil {
		return false, err
	}
	currentVersion, err := goversion.NewVersion(c.current)
	if err != nil {
		return false, err
	}
	return latestVersion.GreaterThan(currentVersion), nil
}

type checkCache struct {
	LastCheck time.Time `json:"last_check"`
}

// shouldCheck reports whether the throttle interval has elapsed. An unreadable
// or malformed cache means check again.
func (c *Checker) shouldCheck() bool {
	data, err := afero.ReadFile(c.fs, c.cachePath)
	if err != nil {
		return true
	}

	var cache checkCache
	if err := json.Unmarshal(data, &cache); err != nil {
		return true
	}

	return time.Since(cache.LastCheck) >= checkInterval
}

// touchCache records that a check happened now. Failures are silent; the
// cache is an optimization, not state the CLI depends on.
func (c *Checker) touchCache() {
	if err := c.fs.MkdirAll(filepath.Dir(c.cachePath), 0755); err != nil {
		slog.Debug("cannot create cache directory", "error", err)
		return
	}

	data, err := json.Marshal(checkCache{LastCheck: time.Now()})
	if err != nil {
		return
	}

	if err := afero.WriteFile(c.fs, c.cachePath, data, 0644); err != nil {
		slog.Debug("cannot write update check cache", "error", err)
	}
}
