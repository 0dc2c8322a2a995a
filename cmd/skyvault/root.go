package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	skyvault "github.com/skyvault/skyvault-go"
	"github.com/skyvault/skyvault-go/internal/config"

	// Registered engine providers.
	_ "github.com/skyvault/skyvault-go/pkg/memengine"
)

// version is set at build time via ldflags.
var version = "dev"

// envPassword carries the account password. Passwords never live in the
// config file; a real provider would exchange them for a session key at
// login.
const envPassword = "SKYVAULT_PASSWORD"

// Global persistent flags, bound in newRootCmd().
var (
	flagConfigPath string
	flagProvider   string
	flagDSN        string
	flagEmail      string
	flagLogLevel   string
	flagParallel   int
	flagJSON       bool
	flagVerbose    bool
	flagQuiet      bool
)

// resolvedCfg holds the effective configuration loaded by PersistentPreRunE.
// It is available to all subcommands after the root pre-run phase completes.
var resolvedCfg config.Config

// newRootCmd builds and returns the fully-assembled root command with all
// subcommands registered. Called once from main().
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "skyvault",
		Short:   "SkyVault cloud storage CLI",
		Long:    "A CLI for SkyVault cloud storage: transfer files, manage folders, and share links.",
		Version: version,
		// Silence Cobra's default error/usage printing; main reports errors.
		SilenceErrors: true,
		SilenceUsage:  true,
		// PersistentPreRunE loads configuration before every command. A
		// missing config file resolves to defaults, so no command needs to
		// skip this step.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadConfig(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path")
	cmd.PersistentFlags().StringVar(&flagProvider, "provider", "", "engine provider (e.g. mem)")
	cmd.PersistentFlags().StringVar(&flagDSN, "dsn", "", "provider connection string")
	cmd.PersistentFlags().StringVar(&flagEmail, "email", "", "account email")
	cmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().IntVar(&flagParallel, "parallel", 0, "number of concurrent transfers")
	cmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output in JSON format")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress informational output")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	// Register subcommands.
	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newLogoutCmd())
	cmd.AddCommand(newWhoamiCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newMkdirCmd())
	cmd.AddCommand(newRmCmd())
	cmd.AddCommand(newMvCmd())
	cmd.AddCommand(newCpCmd())
	cmd.AddCommand(newStatCmd())
	cmd.AddCommand(newShareCmd())
	cmd.AddCommand(newExportCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newPutCmd())
	cmd.AddCommand(newCatCmd())
	cmd.AddCommand(newWatchCmd())

	return cmd
}

// loadConfig resolves the effective configuration from the four-layer
// override chain and stores the result in resolvedCfg for use by
// subcommands.
func loadConfig(cmd *cobra.Command) error {
	path := flagConfigPath
	if path == "" {
		var err error

		path, err = config.ConfigPath()
		if err != nil {
			return fmt.Errorf("locating config: %w", err)
		}
	}

	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	cli := config.CLIOverrides{}

	// Only pass flags to the resolver if the user explicitly set them.
	if cmd.Flags().Changed("provider") {
		cli.Provider = &flagProvider
	}

	if cmd.Flags().Changed("dsn") {
		cli.DSN = &flagDSN
	}

	if cmd.Flags().Changed("email") {
		cli.Email = &flagEmail
	}

	if cmd.Flags().Changed("parallel") {
		cli.Parallel = &flagParallel
	}

	if cmd.Flags().Changed("log-level") {
		cli.LogLevel = &flagLogLevel
	}

	if cmd.Flags().Changed("verbose") {
		cli.Verbose = &flagVerbose
	}

	resolvedCfg = config.Resolve(cfg, config.ReadEnvOverrides(), cli)

	return resolvedCfg.Validate()
}

// buildLogger creates an slog.Logger configured by the resolved config and
// CLI flags. Config-file log level provides the baseline; --quiet overrides
// it because CLI flags always win (--verbose and --log-level are already
// merged by the config resolver).
func buildLogger() *slog.Logger {
	level := slog.LevelInfo

	switch resolvedCfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	if flagQuiet {
		level = slog.LevelError
	}

	out := logOutput()
	opts := &slog.HandlerOptions{Level: level}

	if logFormatJSON(out) {
		return slog.New(slog.NewJSONHandler(out, opts))
	}

	return slog.New(slog.NewTextHandler(out, opts))
}

// logOutput returns the log destination: the configured log file when set,
// stderr otherwise. File open failures fall back to stderr so logging never
// blocks a command.
func logOutput() io.Writer {
	path := resolvedCfg.Logging.File
	if path == "" {
		return os.Stderr
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: cannot open log file %s: %v\n", path, err)
		return os.Stderr
	}

	return f
}

// logFormatJSON decides between text and JSON handlers. "auto" picks text
// for interactive terminals and JSON otherwise.
func logFormatJSON(out io.Writer) bool {
	switch resolvedCfg.Logging.Format {
	case "json":
		return true
	case "text":
		return false
	}

	f, ok := out.(*os.File)
	if !ok {
		return true
	}

	return !isTerminal(f)
}

// isTerminal reports whether f is an interactive terminal.
func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// credentials returns the account email and password for this invocation.
func credentials() (email, password string, err error) {
	email = resolvedCfg.Session.Email
	if email == "" {
		return "", "", fmt.Errorf("no account email configured: set session.email, %s, or --email", config.EnvEmail)
	}

	password = os.Getenv(envPassword)
	if password == "" {
		return "", "", fmt.Errorf("no password: set the %s environment variable", envPassword)
	}

	return email, password, nil
}

// openSession opens the configured engine and logs in. Every invocation is
// its own session; the returned cleanup closes the engine.
func openSession(ctx context.Context, logger *slog.Logger) (*skyvault.Client, func(), error) {
	client, err := skyvault.Open(resolvedCfg.Engine.Provider, resolvedCfg.Engine.DSN, logger)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		if closeErr := client.Close(); closeErr != nil {
			logger.Warn("closing engine", slog.String("error", closeErr.Error()))
		}
	}

	email, password, err := credentials()
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	if err := client.Login(ctx, email, password); err != nil {
		cleanup()
		return nil, nil, err
	}

	return client, cleanup, nil
}

// exitOnError prints a user-friendly error message to stderr and exits.
func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
