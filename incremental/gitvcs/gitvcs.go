// Package gitvcs is the bundled VCSDiff implementation: it shells out to the
// system git binary. No Go git library appears anywhere in the retrieved
// example pack, so os/exec is the justified stdlib exception here (§6, §9;
// see DESIGN.md) — adapted from the teacher's world.ScanGitHistory, which
// shells out to `git log` the same way.
package gitvcs

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/siherrmann/kddindex/incremental"
	"github.com/siherrmann/kddindex/internal/kerr"
)

// Git is an incremental.VCSDiff backed by the `git` CLI.
type Git struct {
	// Dir is the repository working tree git commands run in.
	Dir string
}

// New returns a Git VCSDiff rooted at dir.
func New(dir string) *Git {
	return &Git{Dir: dir}
}

// Head resolves the current HEAD commit hash.
func (g *Git) Head(ctx context.Context) (string, error) {
	out, err := g.run(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", kerr.NewCode("resolve git HEAD", kerr.CodeGitNotAvailable, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// CommitTime resolves commit's committer date, the timestamp the indexer
// threads through a run so artifacts stay byte-identical across repeated
// ingestions of the same commit.
func (g *Git) CommitTime(ctx context.Context, commit string) (time.Time, error) {
	out, err := g.run(ctx, "show", "-s", "--format=%cI", commit)
	if err != nil {
		return time.Time{}, kerr.NewCode("resolve commit time", kerr.CodeGitNotAvailable, err)
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(string(out)))
	if err != nil {
		return time.Time{}, kerr.New("parse commit time", err)
	}
	return t, nil
}

// Diff returns the name-status diff between base and head.
func (g *Git) Diff(ctx context.Context, base, head string) ([]incremental.FileChange, error) {
	if err := g.checkCommit(ctx, base); err != nil {
		return nil, kerr.NewCode("resolve base commit", kerr.CodeCommitNotFound, err)
	}

	out, err := g.run(ctx, "diff", "--name-status", base, head)
	if err != nil {
		return nil, kerr.New("git diff", err)
	}
	return parseNameStatus(out), nil
}

func (g *Git) checkCommit(ctx context.Context, commit string) error {
	_, err := g.run(ctx, "cat-file", "-e", commit)
	return err
}

func (g *Git) run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.Dir
	return cmd.Output()
}

// parseNameStatus parses `git diff --name-status` output, including
// rename/copy lines of the form "R100\told\tnew".
func parseNameStatus(out []byte) []incremental.FileChange {
	var changes []incremental.FileChange
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			continue
		}
		code := fields[0]
		switch code[0] {
		case 'A':
			changes = append(changes, incremental.FileChange{Path: fields[1], Status: incremental.StatusAdded})
		case 'M':
			changes = append(changes, incremental.FileChange{Path: fields[1], Status: incremental.StatusModified})
		case 'D':
			changes = append(changes, incremental.FileChange{Path: fields[1], Status: incremental.StatusDeleted})
		case 'R':
			if len(fields) >= 3 {
				changes = append(changes, incremental.FileChange{
					OldPath: fields[1],
					Path:    fields[2],
					Status:  incremental.StatusRenamed,
				})
			}
		}
	}
	return changes
}
