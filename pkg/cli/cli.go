package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/luapack/luapack/internal/exitcode"
	"github.com/luapack/luapack/pkg/api"
)

// errBuildFailed keeps the command runner from printing a second copy of
// diagnostics that already went to stderr.
var errBuildFailed = errors.New("build failed")

type buildFlags struct {
	outfile           string
	defines           []string
	mangle            string
	mangleSentinel    string
	mangleAlphabet    string
	mangleMetamethods bool
	minifyWhitespace  bool
	metafile          string
	logLevel          string
	color             string
	errorLimit        int
	configPath        string
}

func NewRootCommand() *cobra.Command {
	cmd, _ := newRootCommand()
	return cmd
}

func newRootCommand() (*cobra.Command, *buildFlags) {
	flags := &buildFlags{}

	cmd := &cobra.Command{
		Use:   "luapack [flags] entry.lua",
		Short: "Bundle a Lua module tree into a single file",
		Long: `luapack bundles a tree of Lua modules into one self-contained file.

Starting from the entry module, require references to files on disk are
resolved, pulled into the bundle, and rewritten to calls into a lazily
initialized module table. References that do not resolve are left alone
for the host runtime. Property names prefixed with an underscore can be
shortened with --mangle.`,
		Example: `  # Bundle game.lua and everything it requires into game.packed.lua
  luapack game.lua

  # Minified build with mangled marker-prefixed property names
  luapack game.lua --outfile dist/game.lua --minify-whitespace --mangle manual

  # Substitute a literal during bundling
  luapack game.lua --define DEBUG=false`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, flags, args[0])
		},
	}

	cmd.Flags().StringVarP(&flags.outfile, "outfile", "o", "", "output file (default: entry name with .packed.lua)")
	cmd.Flags().StringArrayVar(&flags.defines, "define", nil, "literal FIND=REPLACE substitution in the entry module (repeatable)")
	cmd.Flags().StringVar(&flags.mangle, "mangle", "off", "property name mangling: off, manual or auto")
	cmd.Flags().StringVar(&flags.mangleSentinel, "mangle-sentinel", "__", "prefix that protects names from mangling")
	cmd.Flags().StringVar(&flags.mangleAlphabet, "mangle-alphabet", "wide", "generated name alphabet: wide or lower")
	cmd.Flags().BoolVar(&flags.mangleMetamethods, "mangle-metamethods", false, "mangle sentinel-prefixed names too")
	cmd.Flags().BoolVar(&flags.minifyWhitespace, "minify-whitespace", false, "remove whitespace from the output")
	cmd.Flags().StringVar(&flags.metafile, "metafile", "", "write a JSON build report to this file")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "info", "diagnostic verbosity: debug, info, warning, error or silent")
	cmd.Flags().StringVar(&flags.color, "color", "auto", "color diagnostics: auto, always or never")
	cmd.Flags().IntVar(&flags.errorLimit, "error-limit", 10, "maximum errors to print before going quiet, 0 for no limit")
	cmd.Flags().StringVar(&flags.configPath, "config", "", "config file (default: luapack.toml in the working directory)")

	cmd.AddCommand(newInitCommand())
	return cmd, flags
}

func runBuild(cmd *cobra.Command, flags *buildFlags, entryPath string) error {
	// Bad flag values and a broken config file are invocation problems,
	// not build failures, and exit with their own code.
	if err := applyConfigFile(cmd, flags); err != nil {
		return exitcode.Set(err, 2)
	}

	level, err := parseLogLevel(flags.logLevel)
	if err != nil {
		return exitcode.Set(err, 2)
	}
	color, err := parseColor(flags.color)
	if err != nil {
		return exitcode.Set(err, 2)
	}
	mangle, err := parseMangleMode(flags.mangle)
	if err != nil {
		return exitcode.Set(err, 2)
	}
	alphabet, err := parseAlphabet(flags.mangleAlphabet)
	if err != nil {
		return exitcode.Set(err, 2)
	}
	defines, err := parseDefines(flags.defines)
	if err != nil {
		return exitcode.Set(err, 2)
	}

	outfile := flags.outfile
	if outfile == "" {
		outfile = defaultOutfile(entryPath)
	}

	// An explicitly empty sentinel protects nothing, which is the same
	// thing --mangle-metamethods asks for. The default is never empty.
	mangleMetamethods := flags.mangleMetamethods
	if flags.mangleSentinel == "" {
		mangleMetamethods = true
	}

	status := newStatusLogger(flags.logLevel)

	result := api.Build(api.BuildOptions{
		Color:             color,
		ErrorLimit:        flags.errorLimit,
		LogLevel:          level,
		MinifyWhitespace:  flags.minifyWhitespace,
		Mangle:            mangle,
		MangleSentinel:    flags.mangleSentinel,
		MangleAlphabet:    alphabet,
		MangleMetamethods: mangleMetamethods,
		Defines:           defines,
		EntryPath:         entryPath,
		Outfile:           outfile,
		Metafile:          flags.metafile,
	})
	if len(result.Errors) > 0 {
		return errBuildFailed
	}

	for _, file := range result.OutputFiles {
		if err := os.WriteFile(file.Path, file.Contents, 0644); err != nil {
			// Do not leave a half-written bundle behind
			os.Remove(file.Path)
			return fmt.Errorf("writing %s: %w", file.Path, err)
		}
		status.Info("wrote", "path", file.Path, "bytes", len(file.Contents))
	}
	return nil
}

// newStatusLogger builds the logger for progress lines. Status output is
// informational, so anything stricter than info silences it.
func newStatusLogger(level string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "luapack"})
	switch level {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "warning", "error", "silent":
		logger.SetLevel(log.FatalLevel)
	}
	return logger
}

func parseLogLevel(value string) (api.LogLevel, error) {
	switch value {
	case "debug":
		return api.LogLevelDebug, nil
	case "info":
		return api.LogLevelInfo, nil
	case "warning":
		return api.LogLevelWarning, nil
	case "error":
		return api.LogLevelError, nil
	case "silent":
		return api.LogLevelSilent, nil
	}
	return 0, fmt.Errorf("invalid log level %q, expected debug, info, warning, error or silent", value)
}

func parseColor(value string) (api.StderrColor, error) {
	switch value {
	case "auto":
		return api.ColorIfTerminal, nil
	case "always":
		return api.ColorAlways, nil
	case "never":
		return api.ColorNever, nil
	}
	return 0, fmt.Errorf("invalid color mode %q, expected auto, always or never", value)
}

func parseMangleMode(value string) (api.MangleMode, error) {
	switch value {
	case "off":
		return api.MangleOff, nil
	case "manual":
		return api.MangleManual, nil
	case "auto":
		return api.MangleAuto, nil
	}
	return 0, fmt.Errorf("invalid mangle mode %q, expected off, manual or auto", value)
}

func parseAlphabet(value string) (api.MangleAlphabet, error) {
	switch value {
	case "wide":
		return api.AlphabetWide, nil
	case "lower":
		return api.AlphabetLower, nil
	}
	return 0, fmt.Errorf("invalid mangle alphabet %q, expected wide or lower", value)
}

func parseDefines(pairs []string) ([]api.Define, error) {
	defines := make([]api.Define, 0, len(pairs))
	for _, pair := range pairs {
		equals := strings.IndexByte(pair, '=')
		if equals < 1 {
			return nil, fmt.Errorf("invalid define %q, expected FIND=REPLACE", pair)
		}
		defines = append(defines, api.Define{Find: pair[:equals], Replace: pair[equals+1:]})
	}
	return defines, nil
}

// defaultOutfile derives the output path from the entry path by swapping
// the extension for ".packed.lua".
func defaultOutfile(entryPath string) string {
	switch {
	case strings.HasSuffix(entryPath, ".lua"):
		return strings.TrimSuffix(entryPath, ".lua") + ".packed.lua"
	case strings.HasSuffix(entryPath, ".luau"):
		return strings.TrimSuffix(entryPath, ".luau") + ".packed.lua"
	}
	return entryPath + ".packed.lua"
}
