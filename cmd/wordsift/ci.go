package wordsift

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

const ciScan = "wordsift scan --sarif --fail-on %s > wordsift.sarif"

type ciTemplate struct {
	path string
	body string
}

// ciTemplates hold one %s for the scan step.
var ciTemplates = map[string]ciTemplate{
	"github": {".github/workflows/wordsift.yml", `name: wordsift
on: [push, pull_request]
jobs:
  scan:
    runs-on: ubuntu-latest
    steps:
      - uses: actions/checkout@v4
      - uses: actions/setup-go@v5
        with:
          go-version: '1.25'
      - run: go install github.com/wordsift/wordsift@latest
      - run: %s
      - uses: github/codeql-action/upload-sarif@v3
        if: always()
        with:
          sarif_file: wordsift.sarif
`},
	"gitlab": {".gitlab-ci.yml", `stages: [scan]
wordsift:
  stage: scan
  image: golang:1.25
  script:
    - go install github.com/wordsift/wordsift@latest
    - %s
  artifacts:
    when: always
    paths:
      - wordsift.sarif
`},
	"bitbucket": {"bitbucket-pipelines.yml", `pipelines:
  default:
    - step:
        name: wordsift scan
        image: golang:1.25
        caches:
          - go
        script:
          - go install github.com/wordsift/wordsift@latest
          - %s
        artifacts:
          - wordsift.sarif
`},
	"azure": {"azure-pipelines.yml", `trigger:
- main

pool:
  vmImage: 'ubuntu-latest'

steps:
- task: GoTool@0
  inputs:
    version: '1.25.x'
- script: |
    go install github.com/wordsift/wordsift@latest
    %s
  displayName: 'wordsift scan'
- publish: wordsift.sarif
  artifact: wordsift-sarif
  condition: succeededOrFailed()
`},
}

func ciProviders() []string {
	out := make([]string, 0, len(ciTemplates))
	for k := range ciTemplates {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func init() {
	ci := &cobra.Command{Use: "ci", Short: "CI template helpers for multiple providers"}
	rootCmd.AddCommand(ci)

	var provider string
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a CI pipeline template for your provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tpl, ok := ciTemplates[provider]
			if !ok {
				return fmt.Errorf("unknown --provider %q (supported: %s)", provider, strings.Join(ciProviders(), ", "))
			}
			if err := os.MkdirAll(filepath.Dir(tpl.path), 0755); err != nil {
				return err
			}
			failOn := flagFailOn
			if failOn == "" {
				failOn = "medium"
			}
			body := fmt.Sprintf(tpl.body, fmt.Sprintf(ciScan, failOn))
			if err := os.WriteFile(tpl.path, []byte(body), 0644); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Wrote", tpl.path)
			return nil
		},
	}
	initCmd.Flags().StringVar(&provider, "provider", "", "CI provider: "+strings.Join(ciProviders(), " | "))
	_ = initCmd.MarkFlagRequired("provider")
	ci.AddCommand(initCmd)
}
