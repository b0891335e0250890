package wordsift

import (
	"encoding/json"
	"fmt"
	"runtime/debug"

	semver "github.com/blang/semver/v4"
	"github.com/spf13/cobra"
	"github.com/wordsift/wordsift/internal/report"
)

func init() {
	report.ToolVersion = version
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the wordsift version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := buildVersion()
			if flagJSON {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"version": v.String(),
					"major":   v.Major,
					"minor":   v.Minor,
					"patch":   v.Patch,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wordsift v%s\n", v)
			return nil
		},
	}
	rootCmd.AddCommand(cmd)
}

// buildVersion parses the release version, falling back to the module
// version stamped by `go install`.
func buildVersion() semver.Version {
	v := version
	if info, ok := debug.ReadBuildInfo(); ok && v == "" {
		v = info.Main.Version
	}
	ver, err := semver.ParseTolerant(v)
	if err != nil {
		return semver.MustParse("0.0.0")
	}
	return ver
}
