package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

var Version = "0.1.0"

// errMissingImports makes `check` exit with status 1 without an error message.
var errMissingImports = errors.New("missing imports found")

var (
	currentDir, _ = os.Getwd()
	rootCmd       = &cobra.Command{
		Use:   "auto-import",
		Short: "Find and add missing imports in JavaScript, TypeScript, Python and Rust projects",
		Long: `Scans a project for identifiers that are used but never imported, finds the
project file that exports each of them and inserts the matching import statements.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

var docsCmd = &cobra.Command{
	Use:   "doc-gen",
	Short: "Generate CLI documentation",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := os.MkdirAll("./docs", 0o755); err != nil {
			return err
		}
		return doc.GenMarkdownTree(rootCmd, "./docs")
	},
}

// ---------------- shared flags ----------------

type runFlags struct {
	cwd        string
	configPath string
	dryRun     bool
	extensions []string
	ignore     []string
	noAlias    bool
	tsconfig   string
	jsonOutput bool
	verbose    bool
}

func addRunFlags(command *cobra.Command, flags *runFlags) {
	command.Flags().StringVarP(&flags.cwd, "cwd", "c", currentDir,
		"Project root to scan")
	command.Flags().StringVar(&flags.configPath, "config", "",
		"Path to config file (default: .auto-import.{json,jsonc,yaml,yml,toml} in cwd)")
	command.Flags().StringSliceVar(&flags.extensions, "ext", nil,
		"File extensions to process, e.g. --ext .ts,.tsx")
	command.Flags().StringSliceVarP(&flags.ignore, "ignore", "i", nil,
		"Glob patterns to ignore, relative to cwd")
	command.Flags().BoolVar(&flags.noAlias, "no-alias", false,
		"Always use relative specifiers, ignoring tsconfig paths")
	command.Flags().StringVar(&flags.tsconfig, "tsconfig", "",
		"Path to tsconfig.json or jsconfig.json (default: ./tsconfig.json, then ./jsconfig.json)")
	command.Flags().BoolVar(&flags.jsonOutput, "json", false,
		"Print the report as JSON")
	command.Flags().BoolVarP(&flags.verbose, "verbose", "v", false,
		"Enable debug logging")
}

// resolveRunConfig layers command line flags on top of the project config.
func resolveRunConfig(cmd *cobra.Command, flags *runFlags) (string, Config, error) {
	root := ResolveAbsoluteCwd(flags.cwd)
	cfg, configPath, err := ResolveConfig(root, flags.configPath)
	if err != nil {
		return root, cfg, err
	}
	if cmd.Flags().Changed("dry-run") {
		cfg.DryRun = flags.dryRun
	}
	if len(flags.extensions) > 0 {
		cfg.Extensions = flags.extensions
	}
	cfg.Ignore = append(cfg.Ignore, flags.ignore...)
	if flags.noAlias {
		useAliases := false
		cfg.UseAliases = &useAliases
	}
	if flags.tsconfig != "" {
		cfg.TsConfig = flags.tsconfig
	}
	if flags.verbose {
		cfg.Verbose = true
	}
	setupLogging(cmd.ErrOrStderr(), cfg.Verbose)
	if configPath != "" {
		slog.Debug("config loaded", "path", configPath)
	}
	return root, cfg, nil
}

func setupLogging(w io.Writer, verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

func printRunResult(w io.Writer, root string, cfg Config, flags *runFlags, report RunReport, edits []FileEdit) error {
	if flags.jsonOutput {
		return WriteJSONReport(w, report)
	}
	if cfg.DryRun {
		if err := WriteDiffs(w, edits, root); err != nil {
			return err
		}
	}
	WriteTextReport(w, report, root, cfg.DryRun)
	return nil
}

// ---------------- fix ----------------

var fixFlags runFlags

var fixCmd = &cobra.Command{
	Use:   "fix",
	Short: "Add missing imports to project files",
	Long: `Scans the project, resolves every identifier that is used but not imported
and writes the new import statements. With --dry-run the changes are printed
as unified diffs instead.`,
	Example: "auto-import fix --cwd ./web --dry-run",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, cfg, err := resolveRunConfig(cmd, &fixFlags)
		if err != nil {
			return err
		}
		report, edits, err := Run(RunOptions{Root: root, Config: cfg})
		if err != nil {
			return err
		}
		return printRunResult(cmd.OutOrStdout(), root, cfg, &fixFlags, report, edits)
	},
}

// ---------------- check ----------------

var checkFlags runFlags

var checkCmd = &cobra.Command{
	Use:     "check",
	Short:   "Report missing imports without changing files",
	Long:    `Reports missing imports and exits with status 1 when any are found.`,
	Example: "auto-import check --json",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, cfg, err := resolveRunConfig(cmd, &checkFlags)
		if err != nil {
			return err
		}
		cfg.DryRun = true
		report, _, err := Run(RunOptions{Root: root, Config: cfg})
		if err != nil {
			return err
		}
		if checkFlags.jsonOutput {
			if err := WriteJSONReport(cmd.OutOrStdout(), report); err != nil {
				return err
			}
		} else {
			WriteTextReport(cmd.OutOrStdout(), report, root, true)
		}
		if report.MissingTotal > 0 {
			return errMissingImports
		}
		return nil
	},
}

// ---------------- watch ----------------

var watchFlags runFlags

var watchCmd = &cobra.Command{
	Use:     "watch",
	Short:   "Re-run fix whenever project files change",
	Example: "auto-import watch --cwd ./web",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, cfg, err := resolveRunConfig(cmd, &watchFlags)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		return Watch(cmd.Context(), root, cfg, defaultWatchDebounce, func() {
			report, edits, err := Run(RunOptions{Root: root, Config: cfg})
			if err != nil {
				slog.Error("run failed", "err", err)
				return
			}
			if err := printRunResult(w, root, cfg, &watchFlags, report, edits); err != nil {
				slog.Error("failed to print report", "err", err)
			}
		})
	},
}

// ---------------- init ----------------

var initCwd string

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a config file with an interactive wizard",
	RunE: func(cmd *cobra.Command, args []string) error {
		root := ResolveAbsoluteCwd(initCwd)
		if existing, err := findConfigFile(root); err == nil {
			return fmt.Errorf("config file already exists at %s", existing)
		}
		answers, err := RunSetupWizard(cmd.InOrStdin(), cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if answers == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Setup cancelled.")
			return nil
		}
		path, err := WriteConfigFile(root, answers.Config())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
		return nil
	},
}

// ---------------- list-files ----------------

var listFilesFlags runFlags

var listFilesCmd = &cobra.Command{
	Use:     "list-files",
	Short:   "List the files a run would scan",
	Example: "auto-import list-files --ext .py",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, cfg, err := resolveRunConfig(cmd, &listFilesFlags)
		if err != nil {
			return err
		}
		files, err := GetProjectFiles(root, scannableExtensions(cfg, DefaultPluginRegistry()), cfg.Ignore)
		if err != nil {
			return err
		}
		for _, file := range files {
			fmt.Fprintln(cmd.OutOrStdout(), displayPath(root, file.Path))
		}
		return nil
	},
}

// ---------------- inspect ----------------

var inspectCwd string

var inspectCmd = &cobra.Command{
	Use:     "inspect <file>",
	Short:   "Print what the language plugin extracts from a file",
	Example: "auto-import inspect src/app.ts",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := ResolveAbsoluteCwd(inspectCwd)
		path := args[0]
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		plugin, ok := DefaultPluginRegistry().ForPath(path)
		if !ok {
			return fmt.Errorf("no language plugin for %s", path)
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		file := NewSourceFile(path, string(content))
		out := struct {
			Plugin   string            `json:"plugin"`
			Imports  []ImportStatement `json:"imports"`
			Used     []UsedIdentifier  `json:"used"`
			Exports  []ExportInfo      `json:"exports"`
			Missing  []MissingImport   `json:"missing"`
			InsertAt int               `json:"insertAt"`
		}{
			Plugin:   plugin.Name(),
			Imports:  plugin.ParseImports(file.Content, path),
			Used:     uniqueUsages(plugin.FindUsedIdentifiers(file.Content, path)),
			Exports:  plugin.ParseExports(file.Content, path),
			Missing:  FindMissingImports(file, plugin),
			InsertAt: plugin.GetImportInsertPosition(file.Content, path),
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	addRunFlags(fixCmd, &fixFlags)
	fixCmd.Flags().BoolVarP(&fixFlags.dryRun, "dry-run", "d", false,
		"Print diffs instead of writing files")

	addRunFlags(checkCmd, &checkFlags)

	addRunFlags(watchCmd, &watchFlags)
	watchCmd.Flags().BoolVarP(&watchFlags.dryRun, "dry-run", "d", false,
		"Print diffs instead of writing files")

	addRunFlags(listFilesCmd, &listFilesFlags)

	initCmd.Flags().StringVarP(&initCwd, "cwd", "c", currentDir,
		"Directory to create the config file in")
	inspectCmd.Flags().StringVarP(&inspectCwd, "cwd", "c", currentDir,
		"Working directory for relative file paths")

	rootCmd.AddCommand(fixCmd, checkCmd, watchCmd, initCmd, listFilesCmd, inspectCmd, docsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errMissingImports) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		stop()
		os.Exit(1)
	}
}
