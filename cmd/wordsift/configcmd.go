package wordsift

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/wordsift/wordsift/internal/config"
	"gopkg.in/yaml.v3"
)

var (
	cfgPreset          string
	cfgOutput          string
	cfgThreads         int
	cfgMaxBytes        int64
	cfgNoColor         bool
	cfgDefaultExcludes bool
	cfgFailOn          string
	cfgReplaceChar     string
	cfgForce           bool
)

func init() {
	cfgCmd := &cobra.Command{Use: "config", Short: "Configuration helpers"}
	rootCmd.AddCommand(cfgCmd)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a .wordsift.yml with selected checkers and options",
		Args:  cobra.NoArgs,
		RunE:  runConfigInit,
	}
	cfgCmd.AddCommand(initCmd)

	initCmd.Flags().StringVar(&cfgPreset, "preset", "standard", "checker preset: minimal | standard | maximal")
	initCmd.Flags().StringVar(&cfgOutput, "output", config.LocalNames[0], "output file path")
	initCmd.Flags().IntVar(&cfgThreads, "threads", 0, "worker threads (0=GOMAXPROCS)")
	initCmd.Flags().Int64Var(&cfgMaxBytes, "max-bytes", defaultMaxBytes, "skip files larger than this")
	initCmd.Flags().BoolVar(&cfgNoColor, "no-color", false, "disable color output by default")
	initCmd.Flags().BoolVar(&cfgDefaultExcludes, "default-excludes", true, "enable default ignore patterns")
	initCmd.Flags().StringVar(&cfgFailOn, "fail-on", "medium", "fail on low|medium|high")
	initCmd.Flags().StringVar(&cfgReplaceChar, "replace-char", "*", "mask character used by replace")
	initCmd.Flags().BoolVar(&cfgForce, "force", false, "overwrite an existing file")

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the merged global and local configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := loadSettings(".")
			if err != nil {
				return err
			}
			m := s.merged()
			return yaml.NewEncoder(cmd.OutOrStdout()).Encode(&m)
		},
	}

	options := &cobra.Command{
		Use:   "options",
		Short: "List detection option names accepted by --set",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			for _, n := range config.OptionNames() {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
		},
	}
	cfgCmd.AddCommand(show, options)
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	var ids []string
	switch strings.ToLower(cfgPreset) {
	case "minimal":
		ids = []string{"word"}
	case "maximal":
		ids = []string{"word", "url", "email", "num", "ipv4"}
	case "standard":
		ids = []string{"word", "url", "email"}
	default:
		return fmt.Errorf("unknown preset %q", cfgPreset)
	}
	if flagCheckers != "" {
		ids = strings.Split(flagCheckers, ",")
	}
	o := config.DefaultOptions()
	if err := o.Set("checkers", strings.Join(ids, ",")); err != nil {
		return err
	}
	if err := o.Set("replace_char", cfgReplaceChar); err != nil {
		return err
	}

	fc := config.FileConfig{
		Checkers:        strPtr(strings.Join(o.Checkers, ",")),
		ReplaceChar:     strPtr(cfgReplaceChar),
		Dictionaries:    flagDicts,
		MaxBytes:        int64Ptr(cfgMaxBytes),
		Threads:         intPtr(cfgThreads),
		NoColor:         boolPtr(cfgNoColor),
		DefaultExcludes: boolPtr(cfgDefaultExcludes),
		FailOn:          strPtr(cfgFailOn),
	}
	if flagStore != "" {
		fc.Store = strPtr(flagStore)
	}

	if _, err := os.Stat(cfgOutput); err == nil && !cfgForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", cfgOutput)
	}
	b, err := yaml.Marshal(&fc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(cfgOutput, b, 0644); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Wrote", cfgOutput)
	return nil
}

func strPtr(s string) *string { return &s }
func intPtr(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}
func int64Ptr(v int64) *int64 { return &v }
func boolPtr(v bool) *bool    { return &v }
