package cli

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/shortcuty/shortcuty-cli/internal/api"
	"github.com/shortcuty/shortcuty-cli/internal/command"
	"github.com/shortcuty/shortcuty-cli/internal/config"
	"github.com/shortcuty/shortcuty-cli/internal/output"
	"github.com/shortcuty/shortcuty-cli/internal/updater"
)

const Version = "1.4.0"

// CLI is the top-level dispatcher: it parses argv with cobra, resolves the
// credential once, hands the invocation to the command registry, and renders
// the Result. All decision logic lives below this layer.
type CLI struct {
	rootCmd          *cobra.Command
	registry         *command.Registry
	resolver         *config.Resolver
	checker          *updater.Checker
	terminalDetector TerminalDetector
	fs               afero.Fs

	credential string
	client     *api.Client
	exitCode   int
}

// NewCLI creates a CLI instance against the OS filesystem.
func NewCLI() *CLI {
	return NewCLIWithFilesystem(afero.NewOsFs())
}

// NewCLIWithFilesystem creates a CLI instance with a custom filesystem (for testing)
func NewCLIWithFilesystem(fs afero.Fs) *CLI {
	slog.Debug("creating new CLI instance", "version", Version)

	c := &CLI{
		registry:         command.NewRegistry(),
		resolver:         config.NewResolverWithFilesystem(fs),
		checker:          updater.NewCheckerWithFilesystem(Version, fs),
		terminalDetector: &DefaultTerminalDetector{},
		fs:               fs,
	}
	c.rootCmd = c.newRootCommand()
	return c
}

func (c *CLI) newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "shortcuty",
		Short:   "Manage shortcuts on the Shortcuty Creator API",
		Long:    "shortcuty is a command-line client for the Shortcuty Creator API: create, update, list and submit shortcuts, manage screenshots, and inspect version history.",
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.preRun(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().Bool("json", false, "Output results as JSON")
	rootCmd.PersistentFlags().String("api-key", "", "API key for authentication (overrides SHORTCUTY_API_KEY and the config file)")
	rootCmd.PersistentFlags().String("api-url", "", "Override the API base URL")
	rootCmd.PersistentFlags().Bool("no-check-updates", false, "Skip the automatic update check")

	rootCmd.AddCommand(
		c.newCategoriesCommand(),
		c.newCreateCommand(),
		c.newListCommand(),
		c.newGetCommand(),
		c.newHistoryCommand(),
		c.newSubmitCommand(),
		c.newUpdateCommand(),
		c.newUploadScreenshotCommand(),
		c.newDeleteScreenshotCommand(),
		c.newCheckUpdatesCommand(),
		c.newCLIUpdateCommand(),
		c.newLoginCommand(),
		c.newLogoutCommand(),
	)

	return rootCmd
}

// preRun runs once before every command: logging, credential resolution, API
// client construction, and the passive update check.
func (c *CLI) preRun(cmd *cobra.Command) error {
	setupLogging(cmd.ErrOrStderr())

	apiKeyFlag, _ := cmd.Flags().GetString("api-key")
	credential, err := c.resolver.Resolve(apiKeyFlag)
	if err != nil {
		// Tolerated here: the registry rejects per command, and public
		// commands must keep working without a key.
		slog.Debug("credential resolution came up empty", "error", err)
		credential = ""
	}
	c.credential = credential

	baseURL, _ := cmd.Flags().GetString("api-url")
	if baseURL == "" {
		baseURL = os.Getenv(api.EnvBaseURL)
	}
	c.client = api.NewClientWithFilesystem(baseURL, credential, c.fs)

	noCheck, _ := cmd.Flags().GetBool("no-check-updates")
	name := cmd.Name()
	if !noCheck && name != "check-updates" && name != "cli-update" {
		c.checker.MaybeNotify(cmd.ErrOrStderr())
	}

	return nil
}

// execute dispatches through the registry and renders the Result. Cobra never
// sees handler failures; the exit code is recorded on the CLI instead.
func (c *CLI) execute(cmd *cobra.Command, name string, args []string) error {
	jsonMode, _ := cmd.Flags().GetBool("json")

	inv := command.Invocation{
		Service:    c.client,
		Updater:    c.checker,
		Store:      c.resolver,
		Credential: c.credential,
		Args:       args,
		Options:    collectOptions(cmd),
		Confirm:    c.confirmUpdate(cmd),
	}

	res := c.registry.Dispatch(name, inv)
	c.exitCode = output.Render(cmd.OutOrStdout(), cmd.ErrOrStderr(), res, jsonMode)
	return nil
}

// collectOptions gathers exactly the command-local flags the user supplied.
// Untouched flags stay absent, which is what keeps update payloads partial.
func collectOptions(cmd *cobra.Command) command.Options {
	opts := command.Options{}
	cmd.LocalNonPersistentFlags().VisitAll(func(f *pflag.Flag) {
		if !f.Changed {
			return
		}
		switch f.Value.Type() {
		case "bool":
			v, _ := cmd.Flags().GetBool(f.Name)
			opts[f.Name] = v
		case "int":
			v, _ := cmd.Flags().GetInt(f.Name)
			opts[f.Name] = v
		default:
			v, _ := cmd.Flags().GetString(f.Name)
			opts[f.Name] = v
		}
	})
	return opts
}

// confirmUpdate returns an interactive confirmation prompt, or nil when stdin
// is not a terminal so scripted runs never hang on a prompt.
func (c *CLI) confirmUpdate(cmd *cobra.Command) func(current, latest string) bool {
	stdin, ok := cmd.InOrStdin().(*os.File)
	if !ok || !c.terminalDetector.IsTerminal(int(stdin.Fd())) {
		return nil
	}

	return func(current, latest string) bool {
		fmt.Fprintf(cmd.ErrOrStderr(), "Update available: %s -> %s\nWould you like to update now? [y/N]: ", current, latest)
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil {
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes"
	}
}

// Run executes the CLI with the given arguments and I/O streams and returns
// the process exit code.
func (c *CLI) Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	slog.Debug("CLI run started", "args", args)

	c.rootCmd.SetArgs(args[1:]) // Skip program name
	c.rootCmd.SetIn(stdin)
	c.rootCmd.SetOut(stdout)
	c.rootCmd.SetErr(stderr)

	if err := c.rootCmd.Execute(); err != nil {
		// Cobra-level parse failures (unknown command, bad flag value) never
		// reach the registry; normalize them into the same Result shape.
		res := classifyParseError(err)
		return output.Render(stdout, stderr, res, jsonFlagInArgs(args))
	}

	return c.exitCode
}

func classifyParseError(err error) command.Result {
	if strings.Contains(err.Error(), "unknown command") {
		return command.Fail(command.FailUnknownCommand, "%v", err)
	}
	return command.Fail(command.FailInvalidArguments, "%v", err)
}

// jsonFlagInArgs detects --json from raw argv; used when flag parsing itself
// failed and the parsed value is unavailable.
func jsonFlagInArgs(args []string) bool {
	for _, arg := range args {
		if arg == "--json" {
			return true
		}
	}
	return false
}

// setupLogging configures slog to stderr, with optional rotating file logging
// when SHORTCUTY_LOG_FILE is set. Log output never touches stdout.
func setupLogging(stderr io.Writer) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(os.Getenv("SHORTCUTY_LOG_LEVEL"))); err != nil {
		level = slog.LevelWarn
	}

	writers := []io.Writer{stderr}

	if logFile := os.Getenv("SHORTCUTY_LOG_FILE"); logFile != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   resolveLogFilePath(logFile),
			MaxSize:    10,
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   true,
		})
	}

	handler := slog.NewTextHandler(io.MultiWriter(writers...), &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}

// resolveLogFilePath maps the boolean-ish values of SHORTCUTY_LOG_FILE to the
// XDG cache location; anything else is taken as an explicit path.
func resolveLogFilePath(value string) string {
	switch strings.ToLower(value) {
	case "1", "true", "auto":
		return filepath.Join(xdg.CacheHome, "shortcuty", "logs", "shortcuty.log")
	default:
		return value
	}
}
