package command

import (
	"log/slog"
	"strings"

	"github.com/shortcuty/shortcuty-cli/internal/api"
)

// Service is the ApiClient surface handlers depend on. *api.Client implements
// it; tests substitute counting doubles.
type Service interface {
	Categories() ([]string, error)
	Create(req api.CreateRequest) (*api.Shortcut, error)
	List(page, perPage int) (*api.ShortcutPage, error)
	Get(uuid string) (*api.ShortcutDetails, error)
	History(uuid string) (*api.History, error)
	Submit(uuid string) (*api.Message, error)
	Update(uuid string, fields api.UpdateFields) (*api.Message, error)
	UploadScreenshot(uuid, path string) (*api.ScreenshotResponse, error)
	DeleteScreenshot(uuid, screenshotID string) (*api.Message, error)
}

// UpdateService is the update-checker surface used by the check-updates and
// cli-update commands.
type UpdateService interface {
	Check() (current, latest string, newer bool, err error)
	Install() error
}

// CredentialStore persists the API key for the login and logout commands.
type CredentialStore interface {
	SaveAPIKey(key string) error
	ClearAPIKey() error
}

// Options holds the flags the user explicitly supplied for one command.
// Absent keys were never given on the command line, which is what drives
// partial-update semantics.
type Options map[string]any

// String returns a string option and whether it was supplied.
func (o Options) String(name string) (string, bool) {
	v, ok := o[name].(string)
	return v, ok
}

// Bool returns a bool option and whether it was supplied.
func (o Options) Bool(name string) (bool, bool) {
	v, ok := o[name].(bool)
	return v, ok
}

// Int returns an int option and whether it was supplied.
func (o Options) Int(name string) (int, bool) {
	v, ok := o[name].(int)
	return v, ok
}

func (o Options) stringPtr(name string) *string {
	if v, ok := o.String(name); ok {
		return &v
	}
	return nil
}

func (o Options) boolPtr(name string) *bool {
	if v, ok := o.Bool(name); ok {
		return &v
	}
	return nil
}

// Invocation carries everything one dispatch needs. The credential was
// resolved once before dispatch and is immutable for the whole invocation.
type Invocation struct {
	Service    Service
	Updater    UpdateService
	Store      CredentialStore
	Credential string
	Args       []string
	Options    Options

	// Confirm asks the user to approve a self-update. Nil means
	// non-interactive; the update is then skipped with instructions.
	Confirm func(current, latest string) bool
}

type handler struct {
	needsAuth   bool
	positionals []string
	run         func(inv Invocation) Result
}

// Registry maps command names to handlers and enforces the per-handler
// contract before any network call: known command, required arguments,
// credential present when the command needs one.
type Registry struct {
	handlers map[string]handler
}

// NewRegistry creates a registry with every supported command registered.
func NewRegistry() *Registry {
	r := &Registry{handlers: map[string]handler{}}

	r.register("categories", handler{run: runCategories})
	r.register("create", handler{needsAuth: true, run: runCreate})
	r.register("list", handler{needsAuth: true, run: runList})
	r.register("get", handler{needsAuth: true, positionals: []string{"uuid"}, run: runGet})
	r.register("history", handler{needsAuth: true, positionals: []string{"uuid"}, run: runHistory})
	r.register("submit", handler{needsAuth: true, positionals: []string{"uuid"}, run: runSubmit})
	r.register("update", handler{needsAuth: true, positionals: []string{"uuid"}, run: runUpdate})
	r.register("upload-screenshot", handler{needsAuth: true, positionals: []string{"uuid", "file-path"}, run: runUploadScreenshot})
	r.register("delete-screenshot", handler{needsAuth: true, positionals: []string{"uuid", "screenshot-id"}, run: runDeleteScreenshot})
	r.register("check-updates", handler{run: runCheckUpdates})
	r.register("cli-update", handler{run: runCLIUpdate})
	r.register("login", handler{positionals: []string{"api-key"}, run: runLogin})
	r.register("logout", handler{run: runLogout})

	return r
}

func (r *Registry) register(name string, h handler) {
	r.handlers[name] = h
}

// Commands returns the registered command names (for help/tests).
func (r *Registry) Commands() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	return names
}

// Dispatch validates the invocation against the handler contract and runs the
// handler. Validation failures short-circuit without touching the network.
func (r *Registry) Dispatch(name string, inv Invocation) Result {
	h, ok := r.handlers[name]
	if !ok {
		slog.Debug("unknown command", "command", name)
		return Fail(FailUnknownCommand, "unknown command %q", name)
	}

	if len(inv.Args) != len(h.positionals) {
		if len(h.positionals) == 0 {
			return Fail(FailInvalidArguments, "%s takes no arguments, got %d", name, len(inv.Args))
		}
		return Fail(FailInvalidArguments, "%s requires <%s>", name, strings.Join(h.positionals, "> <"))
	}

	for i, argName := range h.positionals {
		if inv.Args[i] == "" {
			return Fail(FailInvalidArguments, "%s: argument <%s> must not be empty", name, argName)
		}
	}

	if h.needsAuth && inv.Credential == "" {
		slog.Debug("command requires credential, none resolved", "command", name)
		return Fail(FailMissingCredential, "%s requires an API key: pass --api-key, set SHORTCUTY_API_KEY, or run 'shortcuty login <key>'", name)
	}

	slog.Debug("dispatching command", "command", name, "args", len(inv.Args))
	return h.run(inv)
}
