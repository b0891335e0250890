package wordsift

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"github.com/wordsift/wordsift/internal/report"
	"github.com/wordsift/wordsift/pkg/core"
)

var (
	flagFirst       bool
	flagWithTags    bool
	flagReplaceChar string
)

func init() {
	check := &cobra.Command{
		Use:   "check [text...]",
		Short: "Report sensitive words in text (args or stdin); exits 1 when any is found",
		RunE:  runCheck,
	}
	check.Flags().BoolVar(&flagFirst, "first", false, "stop at the first match")
	check.Flags().BoolVar(&flagWithTags, "tags", false, "label dictionary matches with their tags")

	replace := &cobra.Command{
		Use:   "replace [text...]",
		Short: "Mask sensitive words in text (args or stdin)",
		RunE:  runReplace,
	}
	replace.Flags().StringVar(&flagReplaceChar, "char", "", "mask character (default from replace_char)")

	tags := &cobra.Command{
		Use:   "tags <word>",
		Short: "Show the tags of a dictionary word",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, release, err := guardFromCwd(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = release() }()
			for _, t := range g.Tags(args[0]) {
				fmt.Fprintln(cmd.OutOrStdout(), t)
			}
			return nil
		},
	}

	rootCmd.AddCommand(check, replace, tags)
}

func guardFromCwd(cmd *cobra.Command) (*core.Guard, func() error, error) {
	s, err := loadSettings(".")
	if err != nil {
		return nil, nil, err
	}
	return buildGuard(cmd.Context(), s)
}

func runCheck(cmd *cobra.Command, args []string) error {
	text, err := readText(cmd, args)
	if err != nil {
		return err
	}
	g, release, err := guardFromCwd(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = release() }()

	var ms []core.Match
	switch {
	case flagWithTags:
		ms, err = g.FindAllWithTags(text)
		if flagFirst && len(ms) > 1 {
			ms = ms[:1]
		}
	case flagFirst:
		ms, err = g.Scan(text, core.StopAtFirst)
	default:
		ms, err = g.FindAll(text)
	}
	if err != nil {
		return err
	}
	if err := printMatches(cmd, text, ms); err != nil {
		return err
	}
	if len(ms) > 0 {
		return exitError{code: 1}
	}
	return nil
}

func runReplace(cmd *cobra.Command, args []string) error {
	text, err := readText(cmd, args)
	if err != nil {
		return err
	}
	g, release, err := guardFromCwd(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = release() }()

	var out string
	switch utf8.RuneCountInString(flagReplaceChar) {
	case 0:
		out, err = g.Replace(text)
	case 1:
		r, _ := utf8.DecodeRuneInString(flagReplaceChar)
		out, err = g.ReplaceFunc(text, core.MaskWith(r))
	default:
		return fmt.Errorf("--char must be a single character")
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

// printMatches writes ms as JSON, or as the highlighted text followed by one
// line per match.
func printMatches(cmd *cobra.Command, text string, ms []core.Match) error {
	out := cmd.OutOrStdout()
	if flagJSON {
		return core.MarshalMatches(out, ms)
	}
	color := report.ColorEnabled(stdoutFile(cmd), flagNoColor)
	fmt.Fprintln(out, report.Highlight(text, ms, color))
	writeMatchList(out, ms)
	return nil
}

func writeMatchList(w io.Writer, ms []core.Match) {
	for _, m := range ms {
		line := fmt.Sprintf("%d-%d\t%s\t%s", m.Start, m.End, m.Type, m.Text)
		if len(m.Tags) > 0 {
			line += "\t[" + strings.Join(m.Tags, ",") + "]"
		}
		fmt.Fprintln(w, line)
	}
}

func stdoutFile(cmd *cobra.Command) *os.File {
	f, _ := cmd.OutOrStdout().(*os.File)
	return f
}
