package wordsift

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/wordsift/wordsift/internal/config"
	"github.com/wordsift/wordsift/internal/logging"
)

var (
	flagJSON            bool
	flagSARIF           bool
	flagThreads         int
	flagFailOn          string
	flagNoColor         bool
	flagDryRun          bool
	flagNoCache         bool
	flagDefaultExcludes bool
	flagCheckers        string
	flagDicts           []string
	flagStore           string
	flagSet             []string
	flagLogLevel        string
	flagLogFile         string

	version = "0.1.0"

	closeLog func() error
)

// rootCmd is the base Cobra command for the wordsift CLI.
var rootCmd = &cobra.Command{
	Use:               "wordsift",
	Short:             "Find sensitive words in text and files",
	Long:              "wordsift detects sensitive words, URLs, emails, numbers and IPv4 addresses in text, with normalization that sees through width, case and noise tricks.",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogging,
}

// exitError ends the process with code without printing anything.
type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// Execute runs the wordsift CLI. It should be called by the main package.
func Execute() {
	err := rootCmd.Execute()
	if closeLog != nil {
		_ = closeLog()
	}
	if err == nil {
		return
	}
	var ee exitError
	if errors.As(err, &ee) {
		os.Exit(ee.code)
	}
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(2)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&flagJSON, "json", false, "emit JSON")
	pf.BoolVar(&flagSARIF, "sarif", false, "emit SARIF 2.1.0")
	pf.IntVar(&flagThreads, "threads", 0, "worker count (0 = GOMAXPROCS)")
	pf.StringVar(&flagFailOn, "fail-on", "", "fail on low|medium|high (default medium)")
	pf.BoolVar(&flagNoColor, "no-color", false, "disable colorized output")
	pf.BoolVar(&flagDryRun, "dry-run", false, "show what would be scanned without opening files")
	pf.BoolVar(&flagNoCache, "no-cache", false, "disable incremental scan cache")
	pf.BoolVar(&flagDefaultExcludes, "default-excludes", true, "apply built-in exclude list (node_modules, dist, images, etc.)")
	pf.StringVar(&flagCheckers, "checkers", "", "comma-separated checker IDs in consultation order")
	pf.StringArrayVarP(&flagDicts, "dict", "d", nil, "dictionary file (word list or YAML document); repeatable")
	pf.StringVar(&flagStore, "store", "", "persistent term store (bbolt file)")
	pf.StringArrayVar(&flagSet, "set", nil, "detection option as name=value; repeatable")
	pf.StringVar(&flagLogLevel, "log-level", "", "debug|info|warn|error")
	pf.StringVar(&flagLogFile, "log-file", "", "also write JSON logs to this file")
}

func setupLogging(cmd *cobra.Command, _ []string) error {
	var local, global config.LogConfig
	if s, err := loadSettings("."); err == nil {
		if s.local.Log != nil {
			local = *s.local.Log
		}
		if s.global.Log != nil {
			global = *s.global.Log
		}
	}
	level := pickString(flagLogLevel, local.Level, global.Level)
	if level == "" {
		level = "warn"
	}
	_, closer, err := logging.Setup(logging.Options{
		Level:  level,
		File:   pickString(flagLogFile, local.File, global.File),
		Stderr: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	closeLog = closer
	return nil
}
