package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"mid-go/internal/app"
	"mid-go/internal/config"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// errReported marks a failure whose Response has already been printed.
var errReported = errors.New("command failed")

// defaultRelaunchArgs is what an elevated copy runs when no command is given.
var defaultRelaunchArgs = []string{"permission", "restart-state"}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// newApp reads the config and creates a MIDApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "WriteIdentifier", "RestoreBackup").
// On failure the returned Response carries a category-level message; the
// detail goes to the log.
func newApp(operation, parameters string, relaunchArgs ...string) (*app.MIDApp, *app.Response) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, app.StartupFailure("", operation, fmt.Errorf("getting defaults: %w", err))
	}

	cfg, err := app.LoadConfig(defaults["config_path"], defaults["base_dir"])
	if err != nil {
		return nil, app.StartupFailure(defaults["log_dir"], operation, fmt.Errorf("reading config: %w", err))
	}

	if len(relaunchArgs) == 0 {
		relaunchArgs = defaultRelaunchArgs
	}

	a, err := app.NewMIDApp(cfg, app.Options{
		Operation:    operation,
		Parameters:   parameters,
		BackupPath:   defaults["backup_path"],
		RelaunchArgs: relaunchArgs,
		StderrLevel:  slog.LevelWarn,
	})
	if err != nil {
		return nil, app.StartupFailure(cfg.LogDir, operation, fmt.Errorf("initializing app: %w", err))
	}

	return a, nil
}

// run creates the app, executes fn and prints its response.
func run(cmd *cobra.Command, operation, parameters string, fn func(a *app.MIDApp) *app.Response) error {
	a, failure := newApp(operation, parameters)
	if failure != nil {
		return report(cmd, failure)
	}
	defer a.Close()

	return report(cmd, fn(a))
}

// report prints resp in the selected output format and turns a failed
// response into errReported.
func report(cmd *cobra.Command, resp *app.Response) error {
	format, _ := cmd.Flags().GetString("output")
	if err := printResponse(cmd.OutOrStdout(), cmd.ErrOrStderr(), format, resp); err != nil {
		return err
	}
	if !resp.Success {
		return errReported
	}
	return nil
}

var rootCmd = &cobra.Command{
	Use:           "mid",
	Short:         "Machine identifier manager",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("output")
		switch format {
		case "text", "json", "yaml":
			return nil
		default:
			return fmt.Errorf("unknown output format %q: use text, json or yaml", format)
		}
	},
}

// show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current machine identifier",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, "ReadIdentifier", "", (*app.MIDApp).ReadIdentifier)
	},
}

// backup command
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage identifier backups",
}

var backupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Back up the current identifier",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		description, _ := cmd.Flags().GetString("description")
		return run(cmd, "BackupCurrent", description, func(a *app.MIDApp) *app.Response {
			return a.BackupCurrent(description)
		})
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List backups, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, "ListBackups", "", (*app.MIDApp).ListBackups)
	},
}

var backupDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a backup",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		if proceed, err := confirm(cmd, fmt.Sprintf("Delete backup %s?", id)); err != nil || !proceed {
			return err
		}
		return run(cmd, "DeleteBackup", id, func(a *app.MIDApp) *app.Response {
			return a.DeleteBackup(id)
		})
	},
}

var backupClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every backup",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if proceed, err := confirm(cmd, "Delete ALL backups? This cannot be undone."); err != nil || !proceed {
			return err
		}
		return run(cmd, "ClearBackups", "", (*app.MIDApp).ClearBackups)
	},
}

var backupCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Count backups",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, "CountBackups", "", (*app.MIDApp).CountBackups)
	},
}

// write command
var writeCmd = &cobra.Command{
	Use:   "write VALUE",
	Short: "Replace the machine identifier",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		value := args[0]
		description, _ := cmd.Flags().GetString("description")
		if proceed, err := confirm(cmd, fmt.Sprintf("Change the machine identifier to %s?", value)); err != nil || !proceed {
			return err
		}
		return run(cmd, "WriteIdentifier", value, func(a *app.MIDApp) *app.Response {
			return a.WriteIdentifier(value, description)
		})
	},
}

// generate command
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Replace the machine identifier with a random one",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		description, _ := cmd.Flags().GetString("description")
		if proceed, err := confirm(cmd, "Replace the machine identifier with a random value?"); err != nil || !proceed {
			return err
		}
		return run(cmd, "GenerateRandom", description, func(a *app.MIDApp) *app.Response {
			return a.GenerateRandom(description)
		})
	},
}

// restore command
var restoreCmd = &cobra.Command{
	Use:   "restore ID",
	Short: "Restore the machine identifier from a backup",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		if proceed, err := confirm(cmd, fmt.Sprintf("Restore the machine identifier from %s?", id)); err != nil || !proceed {
			return err
		}
		return run(cmd, "RestoreBackup", id, func(a *app.MIDApp) *app.Response {
			return a.RestoreBackup(id)
		})
	},
}

// permission command
var permissionCmd = &cobra.Command{
	Use:   "permission",
	Short: "Check and request write privileges",
}

var permissionCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check whether the identifier can be written",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, "CheckPermission", "", (*app.MIDApp).CheckPermission)
	},
}

var permissionElevateCmd = &cobra.Command{
	Use:   "elevate [-- COMMAND...]",
	Short: "Relaunch elevated, optionally running COMMAND",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, failure := newApp("RequestElevation", strings.Join(args, " "), args...)
		if failure != nil {
			return report(cmd, failure)
		}

		resp := a.RequestElevation()
		a.Close()
		if err := report(cmd, resp); err != nil {
			return err
		}

		if resp.ShutdownAfter > 0 {
			time.Sleep(resp.ShutdownAfter)
			os.Exit(0)
		}
		return nil
	},
}

var permissionRestartStateCmd = &cobra.Command{
	Use:   "restart-state",
	Short: "Report whether this process was relaunched by an elevation request",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, "CheckRestartState", "", (*app.MIDApp).CheckRestartState)
	},
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		hostID := uuid.New().String()
		cfg := config.NewConfig(hostID, defaults["base_dir"])

		backupType, _ := cmd.Flags().GetString("backup-type")
		cfg.Backup.Type = backupType

		if root, _ := cmd.Flags().GetString("fs-vault-root"); root != "" {
			cfg.Vaults = append(cfg.Vaults, config.VaultConfig{Type: "filesystem", Name: "local", FSVaultRoot: root})
		}
		if bucket, _ := cmd.Flags().GetString("s3-bucket"); bucket != "" {
			region, _ := cmd.Flags().GetString("s3-region")
			endpoint, _ := cmd.Flags().GetString("s3-endpoint")
			cfg.Vaults = append(cfg.Vaults, config.VaultConfig{
				Type:        "s3",
				Name:        "s3",
				S3Bucket:    bucket,
				S3Region:    region,
				S3Endpoint:  endpoint,
				S3PathStyle: endpoint != "",
			})
		}

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Configuration initialized at %s\n", defaults["config_path"])
		fmt.Fprintf(out, "Host ID: %s\n", hostID)
		fmt.Fprintf(out, "Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := app.LoadConfig(defaults["config_path"], defaults["base_dir"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Configuration from %s:\n\n", defaults["config_path"])
		m := &config.Manager{}
		return m.Write(out, cfg)
	},
}

// archive command
var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Copy the backup history to and from a vault",
}

var archiveInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create archive keys and verify the vault",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		passphrase, err := readPassphrase(cmd, "New archive passphrase: ", true)
		if err != nil {
			return err
		}
		return run(cmd, "ArchiveInit", "", func(a *app.MIDApp) *app.Response {
			return a.ArchiveInit(passphrase)
		})
	},
}

var archiveExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Upload the encrypted backup history",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, "ArchiveExport", "", (*app.MIDApp).ArchiveExport)
	},
}

var archiveImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Merge the archived backup history into the local one",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		passphrase, err := readPassphrase(cmd, "Archive passphrase: ", false)
		if err != nil {
			return err
		}
		return run(cmd, "ArchiveImport", "", func(a *app.MIDApp) *app.Response {
			return a.ArchiveImport(passphrase)
		})
	},
}

var archiveStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the archive status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, "ArchiveStatus", "", (*app.MIDApp).ArchiveStatus)
	},
}

func init() {
	rootCmd.PersistentFlags().StringP("output", "o", "text", "Output format: text, json or yaml")
	rootCmd.PersistentFlags().BoolP("yes", "y", false, "Do not ask for confirmation")

	// backup subcommands
	backupCmd.AddCommand(backupCreateCmd)
	backupCmd.AddCommand(backupListCmd)
	backupCmd.AddCommand(backupDeleteCmd)
	backupCmd.AddCommand(backupClearCmd)
	backupCmd.AddCommand(backupCountCmd)
	backupCreateCmd.Flags().StringP("description", "d", "", "Note stored with the backup")

	// permission subcommands
	permissionCmd.AddCommand(permissionCheckCmd)
	permissionCmd.AddCommand(permissionElevateCmd)
	permissionCmd.AddCommand(permissionRestartStateCmd)

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	configInitCmd.Flags().String("backup-type", "json", "Backup storage: json or sqlite")
	configInitCmd.Flags().String("fs-vault-root", "", "Directory used as a filesystem archive vault")
	configInitCmd.Flags().String("s3-bucket", "", "S3 bucket used as an archive vault")
	configInitCmd.Flags().String("s3-region", "", "Region of the S3 bucket")
	configInitCmd.Flags().String("s3-endpoint", "", "Endpoint of an S3-compatible store")

	// archive subcommands
	archiveCmd.AddCommand(archiveInitCmd)
	archiveCmd.AddCommand(archiveExportCmd)
	archiveCmd.AddCommand(archiveImportCmd)
	archiveCmd.AddCommand(archiveStatusCmd)

	// root commands
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(writeCmd)
	writeCmd.Flags().StringP("description", "d", "", "Note stored with the post-write backup")
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringP("description", "d", "", "Note stored with the post-write backup")
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(permissionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(archiveCmd)
}
