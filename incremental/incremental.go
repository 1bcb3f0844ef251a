// Package incremental implements the VCS-driven incremental update driver
// (C10): it turns a base..head diff into a minimal sequence of C9 calls plus
// cascade deletes, falling back to a full scan when no prior manifest or
// base commit is available.
package incremental

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/siherrmann/kddindex/event"
	"github.com/siherrmann/kddindex/indexer"
	"github.com/siherrmann/kddindex/internal/kerr"
	"github.com/siherrmann/kddindex/model"
)

// Status is one file's VCS change classification.
type Status string

const (
	StatusAdded    Status = "A"
	StatusModified Status = "M"
	StatusDeleted  Status = "D"
	StatusRenamed  Status = "R"
)

// FileChange is one entry of a VCSDiff result. OldPath is set only for
// StatusRenamed.
type FileChange struct {
	Path    string
	OldPath string
	Status  Status
}

// VCSDiff reports the files that changed between two commits, and the
// current head commit (§6: "one operation: diff(base, head)").
type VCSDiff interface {
	Diff(ctx context.Context, base, head string) ([]FileChange, error)
	Head(ctx context.Context) (string, error)
	// CommitTime resolves a commit's committer time, used to stamp every
	// node/embedding produced by a run instead of the wall clock, so
	// reindexing an unchanged commit is producer-deterministic (§8).
	CommitTime(ctx context.Context, commit string) (time.Time, error)
}

// FileOutcome records what happened to one path during a Run.
type FileOutcome struct {
	Path   string
	Status Status
	Err    error
}

// Result aggregates one Run.
type Result struct {
	GitCommit string
	FullScan  bool
	Outcomes  []FileOutcome
}

// PartialFailure reports whether any file in the result errored, the
// aggregate outcome C10 reports up to its caller (§7).
func (r *Result) PartialFailure() bool {
	for _, o := range r.Outcomes {
		if o.Err != nil {
			return true
		}
	}
	return false
}

// Driver runs the incremental update algorithm over one artifact root.
type Driver struct {
	Indexer *indexer.Indexer
	VCS     VCSDiff
	Bus     *event.Bus

	// Root is the working tree root that diff paths are relative to.
	Root string
	// SpecPrefix restricts both diffs and full scans to paths under this
	// prefix relative to Root, e.g. "specs/".
	SpecPrefix string

	// Walk discovers every spec file for a full scan, returning paths
	// relative to Root. Defaults to walkSpecTree when nil.
	Walk func(root, prefix string) ([]string, error)
}

func (d *Driver) publish(t event.Type, attrs map[string]any) {
	if d.Bus == nil {
		return
	}
	d.Bus.Publish(event.New(t, attrs))
}

// Run performs one incremental update, falling back to a full scan when no
// manifest exists yet or the manifest's base commit is unknown to the VCS.
func (d *Driver) Run(ctx context.Context, force bool) (*Result, error) {
	head, err := d.VCS.Head(ctx)
	if err != nil {
		return nil, kerr.NewCode("resolve HEAD", kerr.CodeGitNotAvailable, err)
	}
	commitTime, err := d.VCS.CommitTime(ctx, head)
	if err != nil {
		return nil, kerr.NewCode("resolve commit time", kerr.CodeGitNotAvailable, err)
	}

	if !d.Indexer.Store.HasManifest() {
		return d.fullScan(ctx, head, commitTime, true)
	}

	manifest, err := d.Indexer.Store.ReadManifest()
	if err != nil {
		return nil, err
	}
	if manifest.GitCommit == "" {
		return d.fullScan(ctx, head, commitTime, true)
	}

	changes, err := d.VCS.Diff(ctx, manifest.GitCommit, head)
	if err != nil {
		if kerr.CodeOf(err) == kerr.CodeCommitNotFound {
			return d.fullScan(ctx, head, commitTime, true)
		}
		return nil, err
	}

	changes = filterPrefix(changes, d.SpecPrefix)
	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })

	result := &Result{GitCommit: head}
	for _, c := range changes {
		result.Outcomes = append(result.Outcomes, d.apply(ctx, c, force, commitTime)...)
	}

	manifest, err = d.Indexer.Store.ReadManifest()
	if err != nil {
		return nil, err
	}
	manifest.GitCommit = head
	if err := d.Indexer.Store.WriteManifest(manifest); err != nil {
		return nil, err
	}
	return result, nil
}

// RunFull forces a full scan of the spec tree regardless of manifest state,
// for callers that need to rebuild the index from scratch (the CLI's
// `index --full`).
func (d *Driver) RunFull(ctx context.Context, force bool) (*Result, error) {
	head, err := d.VCS.Head(ctx)
	if err != nil {
		return nil, kerr.NewCode("resolve HEAD", kerr.CodeGitNotAvailable, err)
	}
	commitTime, err := d.VCS.CommitTime(ctx, head)
	if err != nil {
		return nil, kerr.NewCode("resolve commit time", kerr.CodeGitNotAvailable, err)
	}
	return d.fullScan(ctx, head, commitTime, force)
}

func (d *Driver) fullScan(ctx context.Context, head string, commitTime time.Time, force bool) (*Result, error) {
	walk := d.Walk
	if walk == nil {
		walk = walkSpecTree
	}
	paths, err := walk(d.Root, d.SpecPrefix)
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	result := &Result{GitCommit: head, FullScan: true}
	for _, p := range paths {
		result.Outcomes = append(result.Outcomes, d.indexPath(ctx, p, force, commitTime))
	}

	manifest, err := d.Indexer.Store.ReadManifest()
	if err != nil {
		return nil, err
	}
	manifest.GitCommit = head
	if err := d.Indexer.Store.WriteManifest(manifest); err != nil {
		return nil, err
	}
	return result, nil
}

func (d *Driver) apply(ctx context.Context, c FileChange, force bool, commitTime time.Time) []FileOutcome {
	switch c.Status {
	case StatusAdded, StatusModified:
		return []FileOutcome{d.indexPath(ctx, c.Path, force, commitTime)}
	case StatusDeleted:
		return []FileOutcome{d.deletePath(c.OldPathOrPath())}
	case StatusRenamed:
		return []FileOutcome{d.deletePath(c.OldPath), d.indexPath(ctx, c.Path, force, commitTime)}
	default:
		return []FileOutcome{{
			Path:   c.Path,
			Status: c.Status,
			Err:    kerr.NewMessage("apply diff entry", kerr.CodeInvalidParams, "unknown vcs status "+string(c.Status)),
		}}
	}
}

// OldPathOrPath returns OldPath when set (rename), else Path.
func (c FileChange) OldPathOrPath() string {
	if c.OldPath != "" {
		return c.OldPath
	}
	return c.Path
}

func (d *Driver) indexPath(ctx context.Context, relPath string, force bool, commitTime time.Time) FileOutcome {
	full := filepath.Join(d.Root, relPath)
	_, err := d.Indexer.IndexDocument(ctx, full, force, commitTime)
	return FileOutcome{Path: relPath, Status: StatusAdded, Err: err}
}

func (d *Driver) deletePath(relPath string) FileOutcome {
	full := filepath.Join(d.Root, relPath)
	node, ok := d.findNodeBySourceFile(full)
	if !ok {
		return FileOutcome{Path: relPath, Status: StatusDeleted}
	}

	d.Indexer.Graph.RemoveNode(node.ID)
	d.Indexer.Vector.RemoveDocument(node.Kind, node.DocumentID())
	err := d.Indexer.Store.DeleteDocument(node.Kind, node.DocumentID(), model.TombstoneSourceRemoved)
	if err == nil {
		var manifest *model.IndexManifest
		if manifest, err = d.Indexer.Store.ReadManifest(); err == nil {
			if manifest.Stats.Nodes > 0 {
				manifest.Stats.Nodes--
			}
			manifest.Stats.Edges = d.Indexer.Graph.EdgeCount()
			manifest.Stats.Embeddings = d.Indexer.Vector.Count()
			err = d.Indexer.Store.WriteManifest(manifest)
		}
	}
	d.publish(event.TypeDocumentDeleted, map[string]any{"node_id": node.ID, "path": relPath})
	return FileOutcome{Path: relPath, Status: StatusDeleted, Err: err}
}

func (d *Driver) findNodeBySourceFile(path string) (*model.GraphNode, bool) {
	nodes, err := d.Indexer.Store.AllNodes()
	if err != nil {
		return nil, false
	}
	for _, n := range nodes {
		if n.SourceFile == path {
			return n, true
		}
	}
	return nil, false
}

func filterPrefix(changes []FileChange, prefix string) []FileChange {
	if prefix == "" {
		return changes
	}
	var out []FileChange
	for _, c := range changes {
		if strings.HasPrefix(c.Path, prefix) || (c.Status == StatusRenamed && strings.HasPrefix(c.OldPath, prefix)) {
			out = append(out, c)
		}
	}
	return out
}

// walkSpecTree discovers every .md file under root/prefix, returning paths
// relative to root in slash form so they compare directly with VCS diff
// output.
func walkSpecTree(root, prefix string) ([]string, error) {
	base := filepath.Join(root, prefix)
	var out []string
	err := filepath.WalkDir(base, func(path string, de fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if de.IsDir() {
			return nil
		}
		if strings.ToLower(filepath.Ext(path)) != ".md" {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, kerr.New("walk spec tree", err)
	}
	return out, nil
}
