package cli

import (
	"github.com/spf13/cobra"
)

// Subcommands are deliberately thin: they declare flags and forward to the
// command registry, which owns argument validation and all decision logic.
// Arity checks stay out of cobra (ArbitraryArgs) so every failure renders
// through the same Result pipeline.

func (c *CLI) newCategoriesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List all available categories (public endpoint)",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.execute(cmd, "categories", args)
		},
	}
}

func (c *CLI) newCreateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new shortcut",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.execute(cmd, "create", args)
		},
	}

	cmd.Flags().String("sharing-url", "", "iCloud sharing URL (required)")
	cmd.Flags().String("description", "", "Shortcut description")
	cmd.Flags().String("category", "", "Category name")
	cmd.Flags().Bool("requires-ios26-ai", false, "Requires iOS 26 AI features")
	cmd.Flags().String("updater-type", "", "Updater type: shortcuty, third_party, or none")
	cmd.Flags().Bool("auto-submit", false, "Submit for review immediately after creation")

	return cmd
}

func (c *CLI) newListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your shortcuts",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.execute(cmd, "list", args)
		},
	}

	cmd.Flags().Int("page", 1, "Page number")
	cmd.Flags().Int("per-page", 20, "Items per page")

	return cmd
}

func (c *CLI) newGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <uuid>",
		Short: "Get shortcut details by UUID",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.execute(cmd, "get", args)
		},
	}
}

func (c *CLI) newHistoryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "history <uuid>",
		Short: "Get version history for a shortcut",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.execute(cmd, "history", args)
		},
	}
}

func (c *CLI) newSubmitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "submit <uuid>",
		Short: "Submit a shortcut for review",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.execute(cmd, "submit", args)
		},
	}
}

func (c *CLI) newUpdateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <uuid>",
		Short: "Update an existing shortcut",
		Long:  "Update an existing shortcut. Only the fields you pass are sent to the server; everything else stays untouched.",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.execute(cmd, "update", args)
		},
	}

	cmd.Flags().String("name", "", "Shortcut name")
	cmd.Flags().String("description", "", "Shortcut description")
	cmd.Flags().String("sharing-url", "", "iCloud sharing URL")
	cmd.Flags().String("category", "", "Category name")
	cmd.Flags().Bool("requires-ios26-ai", false, "Requires iOS 26 AI features")
	cmd.Flags().String("updater-type", "", "Updater type: shortcuty, third_party, or none")
	cmd.Flags().String("version", "", "New version string (e.g. '2.0')")
	cmd.Flags().String("changelog", "", "Changelog text")

	return cmd
}

func (c *CLI) newUploadScreenshotCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "upload-screenshot <uuid> <file-path>",
		Short: "Upload a screenshot for a shortcut",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.execute(cmd, "upload-screenshot", args)
		},
	}
}

func (c *CLI) newDeleteScreenshotCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-screenshot <uuid> <screenshot-id>",
		Short: "Delete a screenshot from a shortcut",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.execute(cmd, "delete-screenshot", args)
		},
	}
}

func (c *CLI) newCheckUpdatesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check-updates",
		Short: "Check whether a newer CLI version is published",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.execute(cmd, "check-updates", args)
		},
	}
}

func (c *CLI) newCLIUpdateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cli-update",
		Short: "Update the CLI to the latest published version",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.execute(cmd, "cli-update", args)
		},
	}
}

func (c *CLI) newLoginCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "login <api-key>",
		Short: "Save an API key to the config file",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.execute(cmd, "login", args)
		},
	}
}

func (c *CLI) newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored API key",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.execute(cmd, "logout", args)
		},
	}
}
