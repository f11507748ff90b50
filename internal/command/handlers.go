package command

import (
	"fmt"
	"regexp"

	"github.com/shortcuty/shortcuty-cli/internal/api"
)

// sharingURLPattern matches iCloud shortcut sharing links. Checked before the
// network call so a typo fails fast with a usable message.
var sharingURLPattern = regexp.MustCompile(`^https://(www\.)?icloud\.com/shortcuts/[a-zA-Z0-9]+`)

var updaterTypes = map[string]bool{
	"shortcuty":   true,
	"third_party": true,
	"none":        true,
}

func validateUpdaterType(opts Options) Result {
	if v, ok := opts.String("updater-type"); ok && !updaterTypes[v] {
		return Fail(FailInvalidArguments, "invalid updater type %q: must be one of shortcuty, third_party, none", v)
	}
	return Result{}
}

func runCategories(inv Invocation) Result {
	categories, err := inv.Service.Categories()
	if err != nil {
		return fromError(err)
	}
	return OK(Categories{Categories: categories})
}

func runCreate(inv Invocation) Result {
	sharingURL, ok := inv.Options.String("sharing-url")
	if !ok || sharingURL == "" {
		return Fail(FailInvalidArguments, "create requires --sharing-url")
	}
	if !sharingURLPattern.MatchString(sharingURL) {
		return Fail(FailInvalidArguments, "invalid iCloud sharing URL %q: expected https://www.icloud.com/shortcuts/...", sharingURL)
	}
	if res := validateUpdaterType(inv.Options); res.Failure != nil {
		return res
	}

	autoSubmit, _ := inv.Options.Bool("auto-submit")
	req := api.CreateRequest{
		SharingURL:      sharingURL,
		Description:     inv.Options.stringPtr("description"),
		Category:        inv.Options.stringPtr("category"),
		RequiresIOS26AI: inv.Options.boolPtr("requires-ios26-ai"),
		UpdaterType:     inv.Options.stringPtr("updater-type"),
		AutoSubmit:      autoSubmit,
	}

	shortcut, err := inv.Service.Create(req)
	if err != nil {
		return fromError(err)
	}
	return OK(shortcut)
}

func runList(inv Invocation) Result {
	page := 1
	if v, ok := inv.Options.Int("page"); ok {
		page = v
	}
	perPage := 20
	if v, ok := inv.Options.Int("per-page"); ok {
		perPage = v
	}

	result, err := inv.Service.List(page, perPage)
	if err != nil {
		return fromError(err)
	}
	return OK(result)
}

func runGet(inv Invocation) Result {
	details, err := inv.Service.Get(inv.Args[0])
	if err != nil {
		return fromError(err)
	}
	return OK(details)
}

func runHistory(inv Invocation) Result {
	history, err := inv.Service.History(inv.Args[0])
	if err != nil {
		return fromError(err)
	}
	return OK(history)
}

func runSubmit(inv Invocation) Result {
	msg, err := inv.Service.Submit(inv.Args[0])
	if err != nil {
		return fromError(err)
	}
	return OK(msg)
}

func runUpdate(inv Invocation) Result {
	if v, ok := inv.Options.String("sharing-url"); ok && !sharingURLPattern.MatchString(v) {
		return Fail(FailInvalidArguments, "invalid iCloud sharing URL %q: expected https://www.icloud.com/shortcuts/...", v)
	}
	if res := validateUpdaterType(inv.Options); res.Failure != nil {
		return res
	}

	fields := api.UpdateFields{
		Name:            inv.Options.stringPtr("name"),
		Description:     inv.Options.stringPtr("description"),
		SharingURL:      inv.Options.stringPtr("sharing-url"),
		Category:        inv.Options.stringPtr("category"),
		RequiresIOS26AI: inv.Options.boolPtr("requires-ios26-ai"),
		UpdaterType:     inv.Options.stringPtr("updater-type"),
		NewVersion:      inv.Options.stringPtr("version"),
		Changelog:       inv.Options.stringPtr("changelog"),
	}
	if fields.Empty() {
		return Fail(FailInvalidArguments, "update requires at least one field to change")
	}

	msg, err := inv.Service.Update(inv.Args[0], fields)
	if err != nil {
		return fromError(err)
	}
	return OK(msg)
}

func runUploadScreenshot(inv Invocation) Result {
	resp, err := inv.Service.UploadScreenshot(inv.Args[0], inv.Args[1])
	if err != nil {
		return fromError(err)
	}
	return OK(resp)
}

func runDeleteScreenshot(inv Invocation) Result {
	msg, err := inv.Service.DeleteScreenshot(inv.Args[0], inv.Args[1])
	if err != nil {
		return fromError(err)
	}
	return OK(msg)
}

func runCheckUpdates(inv Invocation) Result {
	current, latest, newer, err := inv.Updater.Check()
	if err != nil {
		return fromError(err)
	}
	return OK(UpdateStatus{
		CurrentVersion:  current,
		LatestVersion:   latest,
		UpdateAvailable: newer,
	})
}

func runCLIUpdate(inv Invocation) Result {
	current, latest, newer, err := inv.Updater.Check()
	if err != nil {
		return fromError(err)
	}
	if !newer {
		return OK(Notice{Message: fmt.Sprintf("shortcuty %s is up to date", current)})
	}

	if inv.Confirm == nil {
		return OK(Notice{Message: fmt.Sprintf("update available: %s -> %s; run cli-update from an interactive terminal to install", current, latest)})
	}
	if !inv.Confirm(current, latest) {
		return OK(Notice{Message: "update skipped"})
	}

	if err := inv.Updater.Install(); err != nil {
		return Fail(FailNetworkError, "update installation failed: %v", err)
	}
	return OK(Notice{Message: fmt.Sprintf("updated to version %s; restart the CLI to use it", latest)})
}

func runLogin(inv Invocation) Result {
	if err := inv.Store.SaveAPIKey(inv.Args[0]); err != nil {
		return Fail(FailInvalidArguments, "failed to save API key: %v", err)
	}
	return OK(Notice{Message: "API key saved"})
}

func runLogout(inv Invocation) Result {
	if err := inv.Store.ClearAPIKey(); err != nil {
		return Fail(FailInvalidArguments, "failed to clear API key: %v", err)
	}
	return OK(Notice{Message: "API key removed"})
}
