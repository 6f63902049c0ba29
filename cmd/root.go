// Package cmd implements the propinspect command line.
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oakwood-commons/propinspect/internal/config"
	"github.com/oakwood-commons/propinspect/internal/formatter"
	"github.com/oakwood-commons/propinspect/internal/limiter"
	"github.com/oakwood-commons/propinspect/pkg/logger"
	"github.com/oakwood-commons/propinspect/pkg/session"
	"github.com/oakwood-commons/propinspect/pkg/settings"
)

// sessionID names the single session a CLI run drives.
const sessionID = "cli"

// app carries the state shared by every command of one invocation.
type app struct {
	run *settings.Run
	cfg config.Config
	log logr.Logger

	logLevel string
	output   string
	width    int
	view     viewFlags
}

type viewFlags struct {
	search             string
	searchMode         string
	showAdvanced       bool
	showHidden         bool
	onlyModified       bool
	onlyModifiedGroups bool
	expand             []string
	collapse           []string
	window             limiter.Config
}

// Execute runs the root command against os.Args.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	a := &app{run: settings.NewCliParams(), log: logr.Discard()}

	root := &cobra.Command{
		Use:   settings.CliBinaryName,
		Short: "Inspect grouped, conditional property metadata",
		Long: `propinspect builds the display metadata of a property schema and an
instance of it: which properties are grouped, which are modified against
their defaults, and which are visible under the current search and
display filters.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		Version:           settings.VersionInformation.String(),
	}
	root.SetVersionTemplate("{{.Version}}\n")

	pf := root.PersistentFlags()
	pf.StringVar(&a.run.ConfigPath, "config", "", "path to a YAML config file (default $XDG_CONFIG_HOME/propinspect/config.yaml)")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: error|warn|info|debug|trace (default from config)")
	pf.StringVar(&a.run.LogFormat, "log-format", settings.LogFormatConsole, "log format: console|json")
	pf.BoolVar(&a.run.NoColor, "no-color", false, "disable color output")
	pf.BoolVarP(&a.run.IsQuiet, "quiet", "q", false, "suppress informational messages on stderr")

	root.AddCommand(
		a.treeCmd(),
		a.showCmd(),
		a.stateCmd(),
		a.revertCmd(),
		a.watchCmd(),
		a.versionCmd(),
		a.configCmd(),
	)
	return root
}

// setup loads the configuration and the logger before any command runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(config.ResolvePath(a.run.ConfigPath))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg

	levelName := cfg.Log.Level
	if cmd.Flags().Changed("log-level") {
		levelName = a.logLevel
	}
	level, err := settings.ParseLogLevel(levelName)
	if err != nil {
		return err
	}
	a.run.MinLogLevel = level
	if !cmd.Flags().Changed("log-format") {
		a.run.LogFormat = cfg.Log.Format
	}
	switch a.run.LogFormat {
	case settings.LogFormatConsole, settings.LogFormatJSON:
	default:
		return fmt.Errorf("invalid --log-format %q: valid values are console, json", a.run.LogFormat)
	}

	a.log = logger.Init(logger.Options{Level: level, Format: a.run.LogFormat, Writer: cmd.ErrOrStderr()})
	formatter.SetTheme(cfg.Theme)
	cmd.SetContext(settings.IntoContext(logger.WithLogger(cmd.Context(), a.log), a.run))
	return nil
}

// outputFlags registers -o and --width on cmd.
func (a *app) outputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&a.output, "output", "o", "", "output format: tree|table|yaml|json|html (default from config)")
	cmd.Flags().IntVar(&a.width, "width", 0, "table width in columns (default: terminal width)")
}

// viewFlagSet holds the session filters shared by show, state and watch.
func (a *app) viewFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("view", pflag.ContinueOnError)
	fs.StringVarP(&a.view.search, "search", "s", "", "filter by display name tokens")
	fs.StringVar(&a.view.searchMode, "search-mode", "", "search mode: all|modified (default from config)")
	fs.BoolVar(&a.view.showAdvanced, "show-advanced", false, "expand advanced blocks")
	fs.BoolVar(&a.view.showHidden, "show-hidden", false, "show hidden properties")
	fs.BoolVar(&a.view.onlyModified, "only-modified", false, "show only modified properties")
	fs.BoolVar(&a.view.onlyModifiedGroups, "only-modified-groups", false, "show only groups that contain modifications")
	fs.StringSliceVar(&a.view.expand, "expand", nil, "expand these groups")
	fs.StringSliceVar(&a.view.collapse, "collapse", nil, "collapse these groups")
	fs.IntVar(&a.view.window.Limit, "limit", 0, "print at most N rows")
	fs.IntVar(&a.view.window.Offset, "offset", 0, "skip the first N rows")
	fs.IntVar(&a.view.window.Tail, "tail", 0, "print only the last N rows (excludes --limit)")
	return fs
}

// displayMode starts from the config and applies the flags that were set.
func (a *app) displayMode(cmd *cobra.Command) session.DisplayMode {
	m := a.cfg.DisplayMode()
	f := cmd.Flags()
	if f.Changed("show-advanced") {
		m.ShowAdvanced = a.view.showAdvanced
	}
	if f.Changed("show-hidden") {
		m.ShowHidden = a.view.showHidden
	}
	if f.Changed("only-modified") {
		m.ShowOnlyModified = a.view.onlyModified
	}
	if f.Changed("only-modified-groups") {
		m.ShowOnlyModifiedGroups = a.view.onlyModifiedGroups
	}
	return m
}

func (a *app) searchMode() (session.SearchMode, error) {
	mode := a.view.searchMode
	if mode == "" {
		mode = a.cfg.Display.SearchMode
	}
	return session.ParseSearchMode(mode)
}

func (a *app) renderOptions(cmd *cobra.Command) formatter.Options {
	format := a.output
	if format == "" {
		format = a.cfg.Output.Format
	}
	width := a.width
	if width <= 0 {
		width = formatter.TerminalWidth()
	}
	return formatter.Options{Format: format, Color: a.useColor(cmd.OutOrStdout()), Width: width}
}

func (a *app) useColor(w io.Writer) bool {
	if a.run.NoColor {
		return false
	}
	f, _ := w.(*os.File)
	return formatter.UseColor(a.cfg.Output.Color, f)
}

// notef prints an informational line on stderr unless --quiet is set.
func (a *app) notef(cmd *cobra.Command, format string, args ...any) {
	if a.run.IsQuiet {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), format+"\n", args...)
}
