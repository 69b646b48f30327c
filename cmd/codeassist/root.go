package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dusk-indust/codeassist/internal/config"
)

// rootFlags are the persistent flags shared by every subcommand.
type rootFlags struct {
	verbose    bool
	configPath string
	noSave     bool
	maxFiles   int
	pluginDir  string
}

// app carries the process streams and the state built in PersistentPreRunE.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	flags  rootFlags
	logger *zap.Logger

	// pluginDir is resolved before any project .env is loaded, so a scanned
	// checkout cannot point it at its own descriptors. Empty disables plugins.
	pluginDir string
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{stdin: stdin, stdout: stdout, stderr: stderr, logger: zap.NewNop()}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "codeassist",
		Short: "Code assistant for Python, JavaScript and Java projects",
		Long: `codeassist discovers the source files under a path, parses them and runs
one of six services over the result: testing, refactoring, debugging,
documentation, analysis or planning.

LLM backed features use Gemini when GEMINI_API_KEY is set (also read from a
.env file); every service still produces a result without it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if a.flags.maxFiles < 0 {
				return fmt.Errorf("--max-files must not be negative, got %d", a.flags.maxFiles)
			}
			a.logger = newLogger(a.stderr, a.flags.verbose)

			dir, err := config.PluginDir(a.flags.pluginDir, nil)
			if err != nil {
				a.logger.Debug("config: plugins disabled", zap.Error(err))
			}
			a.pluginDir = dir
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = a.logger.Sync()
		},
	}

	pf := root.PersistentFlags()
	pf.BoolVarP(&a.flags.verbose, "verbose", "v", false, "debug logging and the list of files processed")
	pf.StringVar(&a.flags.configPath, "config", "", "path to codeassist.yml (default: looked up from the target path)")
	pf.BoolVar(&a.flags.noSave, "no-save", false, "skip the JSON result dump")
	pf.IntVar(&a.flags.maxFiles, "max-files", 0, "maximum number of files to process (default 20)")
	pf.StringVar(&a.flags.pluginDir, "plugins", "", "plugin descriptor directory (default $"+config.PluginDirEnv+" or <user config dir>/codeassist/agents)")

	for _, c := range serviceCommands(a) {
		root.AddCommand(c)
	}
	root.AddCommand(
		newInteractiveCmd(a),
		newStatusCmd(a),
		newAgentsCmd(a),
		newExportCmd(a),
		newInitCmd(a),
		newServeMCPCmd(a),
		newVersionCmd(a),
	)
	return root
}

// newLogger writes console-encoded logs to w so stdout stays with the
// presenter. Info by default, Debug when verbose.
func newLogger(w io.Writer, verbose bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(cfg.EncoderConfig),
		zapcore.Lock(zapcore.AddSync(w)),
		level,
	)
	return zap.New(core)
}

// isTerminal reports whether v is a file attached to a terminal.
func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			fmt.Fprintln(a.stdout, version)
		},
	}
}
