package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/arthur-debert/binstall/internal/version"
	"github.com/arthur-debert/binstall/pkg/commands"
	"github.com/arthur-debert/binstall/pkg/config"
	"github.com/arthur-debert/binstall/pkg/logging"
	"github.com/arthur-debert/binstall/pkg/style"
	"github.com/arthur-debert/binstall/pkg/types"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// rootFlags are the persistent flags shared by every subcommand.
type rootFlags struct {
	verbosity   int
	configFile  string
	scope       string
	root        string
	historyFile string
	format      string
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "binstall",
		Short: "An atomic installer for binaries and scripts",
		Long: `binstall installs executables and scripts into system or per-user binary
directories atomically, validates sources against symlink and path tricks,
and keeps an append-only history of every install and removal.`,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(flags.verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		DisableAutoGenTag: true,
	}

	// Global flags
	rootCmd.PersistentFlags().CountVarP(&flags.verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")
	rootCmd.PersistentFlags().StringVar(&flags.configFile, "config", "", "Path to config file (default $XDG_CONFIG_HOME/binstall/config.toml)")
	rootCmd.PersistentFlags().StringVarP(&flags.scope, "scope", "s", "system", "Installation scope: system or user")
	rootCmd.PersistentFlags().StringVar(&flags.root, "root", "", "Override the installation directory for the scope")
	rootCmd.PersistentFlags().StringVar(&flags.historyFile, "history-file", "", "Override the history log location")
	rootCmd.PersistentFlags().StringVarP(&flags.format, "format", "f", "auto", "Output format: auto, term, text, json, yaml")

	// Add all commands
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newInstallCmd(flags))
	rootCmd.AddCommand(newUninstallCmd(flags))
	rootCmd.AddCommand(newListCmd(flags))
	rootCmd.AddCommand(newHistoryCmd(flags))
	rootCmd.AddCommand(newConfigCmd(flags))

	return rootCmd
}

// resolve loads the configuration and merges it with the persistent
// flags into the options the command layer takes. Flags win over
// config values; config values win over built-in defaults.
func (f *rootFlags) resolve() (commands.Options, error) {
	scope := types.Scope(f.scope)
	if !scope.Valid() {
		return commands.Options{}, fmt.Errorf("unknown scope %q, want system or user", f.scope)
	}

	cfg, err := config.Load(f.configFile)
	if err != nil {
		return commands.Options{}, err
	}

	mode, err := cfg.FileMode()
	if err != nil {
		return commands.Options{}, err
	}

	sc := cfg.Scope(scope)
	root := f.root
	if root == "" {
		root = sc.Root
	}
	historyFile := f.historyFile
	if historyFile == "" {
		historyFile = sc.History
	}

	return commands.Options{
		Scope:         scope,
		Root:          root,
		HistoryFile:   historyFile,
		Mode:          uint32(mode),
		CreateRoot:    cfg.Install.CreateRoot,
		KeepExtension: cfg.Install.KeepExtension,
		LockTimeout:   cfg.History.LockTimeout,
	}, nil
}

func (f *rootFlags) renderer() (style.Renderer, error) {
	format, err := style.ParseFormat(f.format)
	if err != nil {
		return nil, err
	}
	return style.NewRenderer(format, os.Stdout), nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print detailed version information including commit hash and build date`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("binstall version %s\n", version.Version)
			if version.Commit != "" {
				fmt.Printf("Commit: %s\n", version.Commit)
			}
			if version.Date != "" {
				fmt.Printf("Built:  %s\n", version.Date)
			}
		},
	}
}

func newInstallCmd(flags *rootFlags) *cobra.Command {
	var (
		name          string
		force         bool
		keepExtension bool
		createRoot    bool
	)

	cmd := &cobra.Command{
		Use:   "install <source>",
		Short: "Install a binary or script",
		Long: `Install validates the source file, copies it atomically into the scope's
binary directory with executable permissions, and records the install in
the history log.

Script sources get their extension stripped from the installed name
(myscript.py installs as myscript) and a missing or relative shebang line
is normalized.`,
		Args: cobra.ExactArgs(1),
		Example: `  # Install to /usr/local/bin (needs root)
  sudo binstall install ./mytool

  # Install into the per-user directory
  binstall install --scope user ./myscript.py

  # Replace an existing install under a chosen name
  binstall install --name deploy --force ./deploy-v2.sh`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.resolve()
			if err != nil {
				return err
			}
			if keepExtension {
				opts.KeepExtension = true
			}
			if createRoot {
				opts.CreateRoot = true
			}

			warnIfUnprivileged(opts.Scope)

			target, err := commands.Install(commands.InstallOptions{
				Options: opts,
				Source:  args[0],
				Name:    name,
				Force:   force,
			})

			r, rerr := flags.renderer()
			if rerr != nil {
				return rerr
			}
			if err != nil {
				fmt.Fprintln(os.Stderr, r.RenderError(err))
				return err
			}
			fmt.Println(r.RenderTarget(target))
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Install under this name instead of the source filename")
	cmd.Flags().BoolVar(&force, "force", false, "Replace an existing install of the same name")
	cmd.Flags().BoolVar(&keepExtension, "keep-extension", false, "Keep the script extension on the installed name")
	cmd.Flags().BoolVar(&createRoot, "create-root", false, "Create the installation directory if it is missing")

	return cmd
}

func newUninstallCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall <name>",
		Short: "Remove an installed binary or script",
		Long: `Uninstall removes an installed file from the scope's binary directory and
records the removal in the history log.`,
		Args: cobra.ExactArgs(1),
		Example: `  # Remove from /usr/local/bin (needs root)
  sudo binstall uninstall mytool

  # Remove from the per-user directory
  binstall uninstall --scope user myscript`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.resolve()
			if err != nil {
				return err
			}

			warnIfUnprivileged(opts.Scope)

			removed, err := commands.Uninstall(commands.UninstallOptions{
				Options: opts,
				Name:    args[0],
			})

			r, rerr := flags.renderer()
			if rerr != nil {
				return rerr
			}
			if err != nil {
				fmt.Fprintln(os.Stderr, r.RenderError(err))
				return err
			}
			fmt.Println(r.RenderRemoved(removed))
			return nil
		},
	}
}

func newListCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List what is currently installed",
		Long: `List replays the history log and shows what is currently installed in the
scope's binary directory, one entry per name.`,
		Example: `  # List system installs
  binstall list

  # List user installs as JSON
  binstall list --scope user --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.resolve()
			if err != nil {
				return err
			}

			targets, err := commands.CurrentTargets(opts)

			r, rerr := flags.renderer()
			if rerr != nil {
				return rerr
			}
			if err != nil {
				fmt.Fprintln(os.Stderr, r.RenderError(err))
				return err
			}
			fmt.Println(r.RenderTargets(targets))
			return nil
		},
	}
}

func newHistoryCmd(flags *rootFlags) *cobra.Command {
	var (
		name  string
		since string
		until string
	)

	cmd := &cobra.Command{
		Use:   "history [term]",
		Short: "Show the install and removal history",
		Long: `History lists the audit events for the scope, oldest first. An optional
term filters by substring match on the name. Reads never block, so the
history can be inspected while an install is running.`,
		Args: cobra.MaximumNArgs(1),
		Example: `  # Full history
  binstall history

  # Events whose name contains "deploy"
  binstall history deploy

  # Installs of one name in a time range, as YAML
  binstall history --name mytool --since 2025-01-01 --format yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.resolve()
			if err != nil {
				return err
			}

			hopts := commands.HistoryOptions{Options: opts, Name: name}
			if len(args) == 1 {
				hopts.Term = args[0]
			}
			if hopts.Since, err = parseTimeFlag(since); err != nil {
				return err
			}
			if hopts.Until, err = parseTimeFlag(until); err != nil {
				return err
			}

			events, err := commands.History(hopts)

			r, rerr := flags.renderer()
			if rerr != nil {
				return rerr
			}
			if err != nil {
				fmt.Fprintln(os.Stderr, r.RenderError(err))
				return err
			}
			fmt.Println(r.RenderEvents(events))
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Only events for this exact name")
	cmd.Flags().StringVar(&since, "since", "", "Only events at or after this time (RFC 3339 or YYYY-MM-DD)")
	cmd.Flags().StringVar(&until, "until", "", "Only events at or before this time (RFC 3339 or YYYY-MM-DD)")

	return cmd
}

func newConfigCmd(flags *rootFlags) *cobra.Command {
	var defaults bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: `Config prints the effective configuration as TOML: built-in defaults,
overridden by the config file, overridden by BINSTALL_* environment
variables. With --defaults it prints the annotated built-in defaults,
suitable as a starter config file.`,
		Example: `  # Effective configuration
  binstall config

  # Write a starter config file
  binstall config --defaults > ~/.config/binstall/config.toml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if defaults {
				fmt.Print(config.DefaultsContent())
				return nil
			}

			cfg, err := config.Load(flags.configFile)
			if err != nil {
				return err
			}
			out, err := cfg.Dump()
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		},
	}

	cmd.Flags().BoolVar(&defaults, "defaults", false, "Print the built-in defaults instead of the effective configuration")

	return cmd
}

// warnIfUnprivileged warns when a system-scope mutation is attempted
// without root. The operation still runs; the filesystem has the last
// word on permissions.
func warnIfUnprivileged(scope types.Scope) {
	if scope == types.ScopeSystem && os.Geteuid() != 0 {
		fmt.Fprintln(os.Stderr, "Warning: system scope usually requires root, this will likely fail with a permission error.")
	}
}

func parseTimeFlag(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid time %q, want RFC 3339 or YYYY-MM-DD", value)
}
