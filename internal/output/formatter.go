// Package output renders command results uniformly: a single JSON document in
// --json mode, payload-specific human text otherwise. Failures always go to
// stderr with a nonzero exit code.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/shortcuty/shortcuty-cli/internal/api"
	"github.com/shortcuty/shortcuty-cli/internal/command"
)

// Render writes the result to stdout (success) or stderr (failure) and
// returns the process exit code.
func Render(stdout, stderr io.Writer, res command.Result, jsonMode bool) int {
	if res.Failure != nil {
		renderFailure(stderr, res.Failure, jsonMode)
		return res.ExitCode()
	}

	if jsonMode {
		if err := writeJSON(stdout, res.Payload); err != nil {
			fmt.Fprintf(stderr, "Error: failed to encode result: %v\n", err)
			return 1
		}
		return 0
	}

	fmt.Fprintln(stdout, formatHuman(res.Payload))
	return 0
}

func renderFailure(stderr io.Writer, f *command.Failure, jsonMode bool) {
	slog.Debug("rendering failure", "kind", string(f.Kind), "status", f.Status)

	if jsonMode {
		if err := writeJSON(stderr, f); err != nil {
			fmt.Fprintf(stderr, "Error: %s\n", f.Message)
		}
		return
	}

	fmt.Fprintf(stderr, "Error: %s\n", f.Message)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// formatHuman picks a human-readable rendering per payload shape.
func formatHuman(payload any) string {
	switch p := payload.(type) {
	case command.Categories:
		return formatCategories(p.Categories)
	case *api.Shortcut:
		return formatShortcut(p)
	case *api.ShortcutPage:
		return formatShortcutPage(p)
	case *api.ShortcutDetails:
		return formatShortcutDetails(p)
	case *api.History:
		return formatHistory(p)
	case *api.Message:
		return formatMessage(p)
	case *api.ScreenshotResponse:
		return formatScreenshot(p)
	case command.UpdateStatus:
		return formatUpdateStatus(p)
	case command.Notice:
		return p.Message
	default:
		// Unknown payload shape: JSON is still readable.
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return fmt.Sprintf("%v", payload)
		}
		return string(data)
	}
}

func formatCategories(categories []string) string {
	if len(categories) == 0 {
		return "No categories found."
	}
	lines := make([]string, 0, len(categories))
	for _, cat := range categories {
		lines = append(lines, "  • "+cat)
	}
	return strings.Join(lines, "\n")
}

func formatShortcut(s *api.Shortcut) string {
	description := s.Description
	if len(description) > 100 {
		description = description[:100] + "..."
	}

	lines := []string{
		"UUID: " + orNA(s.UUID),
		"Name: " + orNA(s.Name),
		"Status: " + orNA(s.Status),
		"Category: " + orNone(s.Category),
		"Description: " + orNA(description),
		"Version: " + orNA(s.Version),
		fmt.Sprintf("Downloads: %d", s.Downloads),
		fmt.Sprintf("Likes: %d", s.LikesCount),
		"Sharing URL: " + orNA(s.SharingURL),
		fmt.Sprintf("Requires iOS 26 AI: %t", s.RequiresIOS26AI),
		"Updater Type: " + orNA(s.UpdaterType),
		"Created: " + orNA(s.CreatedAt),
		"Updated: " + orNA(s.UpdatedAt),
	}
	if s.RejectionReason != "" {
		lines = append(lines, "Rejection Reason: "+s.RejectionReason)
	}
	return strings.Join(lines, "\n")
}

func formatShortcutPage(page *api.ShortcutPage) string {
	if len(page.Shortcuts) == 0 {
		return "No shortcuts found."
	}

	lines := []string{fmt.Sprintf("Found %d shortcut(s) (Page %d/%d)\n", page.Total, page.CurrentPage, page.Pages)}
	for _, s := range page.Shortcuts {
		lines = append(lines,
			fmt.Sprintf("  %s (%s)", orNA(s.Name), orNA(s.UUID)),
			"    Status: "+orNA(s.Status),
			"    Category: "+orNone(s.Category),
			"")
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}

func formatShortcutDetails(details *api.ShortcutDetails) string {
	lines := []string{formatShortcut(&details.Shortcut)}

	if len(details.Comments) > 0 {
		lines = append(lines, fmt.Sprintf("\nComments (%d):", len(details.Comments)))
		shown := details.Comments
		if len(shown) > 5 {
			shown = shown[:5]
		}
		for _, comment := range shown {
			lines = append(lines, "  • "+comment)
		}
		if len(details.Comments) > 5 {
			lines = append(lines, fmt.Sprintf("  ... and %d more", len(details.Comments)-5))
		}
	}

	if len(details.Screenshots) > 0 {
		lines = append(lines, fmt.Sprintf("\nScreenshots (%d):", len(details.Screenshots)))
		for _, shot := range details.Screenshots {
			label := shot.URL
			if label == "" {
				label = shot.Filename
			}
			lines = append(lines, "  • "+orNA(label))
		}
	}

	if len(details.LatestUpdate) > 0 {
		lines = append(lines, "\nLatest Update:")
		data, err := json.MarshalIndent(details.LatestUpdate, "  ", "  ")
		if err == nil {
			lines = append(lines, "  "+string(data))
		}
	}

	return strings.Join(lines, "\n")
}

func formatHistory(h *api.History) string {
	lines := []string{
		fmt.Sprintf("History for: %s (%s)", orNA(h.ShortcutName), orNA(h.ShortcutUUID)),
		fmt.Sprintf("Total versions: %d\n", len(h.Changelog)),
	}

	if len(h.Changelog) == 0 {
		return strings.Join(lines, "\n") + "No history found."
	}

	for _, entry := range h.Changelog {
		lines = append(lines, fmt.Sprintf("Version %s - %s", orNA(entry.Version), orNA(entry.Date)))
		lines = append(lines, "  Status: "+orNA(entry.Status))
		if entry.Changelog != "" {
			lines = append(lines, "  Changelog: "+entry.Changelog)
		}
		if entry.Changes != nil {
			if entry.Changes.Name != "" {
				lines = append(lines, "  Name changed: "+entry.Changes.Name)
			}
			if entry.Changes.NewVersion != "" {
				lines = append(lines, "  Version changed: "+entry.Changes.NewVersion)
			}
			if entry.Changes.OldSharingURL != "" {
				lines = append(lines, "  Previous URL: "+entry.Changes.OldSharingURL)
			}
		}
		lines = append(lines, "")
	}

	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}

func formatMessage(m *api.Message) string {
	message := m.Message
	if message == "" {
		message = "Success"
	}
	if m.UpdateID != 0 {
		return fmt.Sprintf("%s (Update ID: %d)", message, m.UpdateID)
	}
	return message
}

func formatScreenshot(resp *api.ScreenshotResponse) string {
	lines := []string{
		"Screenshot uploaded successfully",
		fmt.Sprintf("  ID: %d", resp.Screenshot.ID),
		"  Filename: " + orNA(resp.Screenshot.Filename),
		"  URL: " + orNA(resp.Screenshot.URL),
		"  Uploaded: " + orNA(resp.Screenshot.UploadedAt),
	}
	return strings.Join(lines, "\n")
}

func formatUpdateStatus(status command.UpdateStatus) string {
	if status.UpdateAvailable {
		return fmt.Sprintf("Update available: %s -> %s (run 'shortcuty cli-update' to install)",
			status.CurrentVersion, status.LatestVersion)
	}
	return fmt.Sprintf("shortcuty %s is up to date (latest: %s)", status.CurrentVersion, status.LatestVersion)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func orNone(s string) string {
	if s == "" {
		return "None"
	}
	return s
}
