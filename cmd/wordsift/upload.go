package wordsift

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wordsift/wordsift/internal/git"
	"github.com/wordsift/wordsift/internal/report"
	"github.com/wordsift/wordsift/internal/types"
)

const uploadSchemaVersion = "1"

type uploadEnvelope struct {
	Tool       string          `json:"tool"`
	Version    string          `json:"version"`
	Schema     string          `json:"schema_version"`
	Source     string          `json:"source"`
	Dictionary string          `json:"dictionary"`
	Repo       string          `json:"repo,omitempty"`
	Commit     string          `json:"commit,omitempty"`
	Branch     string          `json:"branch,omitempty"`
	Findings   []types.Finding `json:"findings"`
}

type upload struct {
	url, token string
	meta, mask bool
	client     *http.Client
}

// send POSTs findings of a scan of root. Matches are masked when u.mask is
// set.
func (u upload) send(ctx context.Context, root, source, dictionary string, findings []types.Finding) error {
	if len(findings) == 0 {
		return nil
	}
	if u.mask {
		findings = report.MaskFindings(findings)
	}
	env := uploadEnvelope{
		Tool:       "wordsift",
		Version:    version,
		Schema:     uploadSchemaVersion,
		Source:     source,
		Dictionary: dictionary,
		Findings:   findings,
	}
	if u.meta {
		md := git.RepoMetadata(ctx, root)
		env.Repo, env.Commit, env.Branch = md.Repo, md.Commit, md.Branch
	}
	body, err := json.Marshal(env)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if u.token != "" {
		req.Header.Set("Authorization", "Bearer "+u.token)
	}
	client := u.client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("upload: %s", resp.Status)
	}
	return nil
}
