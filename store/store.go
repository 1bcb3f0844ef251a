// Package store implements the artifact store (C5): the durable,
// content-addressed filesystem layout under an artifact root
// (".kdd-index/" by default), following the teacher's XxxDBHandler
// constructor idiom (database/documents.go) but writing flat files instead
// of issuing SQL.
package store

import (
	"bufio"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/siherrmann/kddindex/internal/kerr"
	"github.com/siherrmann/kddindex/model"
)

// Store handles all artifact-root read/write operations for one root
// directory.
type Store struct {
	root   string
	logger *slog.Logger
}

// New creates a new Store rooted at dir. It does not acquire the advisory
// lock; callers that mutate the store must hold a Lock for the duration.
func New(dir string, logger *slog.Logger) (*Store, error) {
	if dir == "" {
		return nil, kerr.NewMessage("create artifact store", kerr.CodeInvalidParams, "artifact root is empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, kerr.New("create artifact root", err)
	}
	s := &Store{root: dir, logger: logger}
	logger.Info("initialized artifact store", "root", dir)
	return s, nil
}

func (s *Store) manifestPath() string {
	return filepath.Join(s.root, "manifest.json")
}

func (s *Store) nodePath(kind model.Kind, documentID string) string {
	return filepath.Join(s.root, "nodes", string(kind), documentID+".json")
}

func (s *Store) edgesPath() string {
	return filepath.Join(s.root, "edges", "edges.jsonl")
}

func (s *Store) deletionsPath() string {
	return filepath.Join(s.root, "deletions.jsonl")
}

func (s *Store) embeddingsPath(kind model.Kind, documentID string) string {
	return filepath.Join(s.root, "embeddings", string(kind), documentID+".json")
}

// HasManifest reports whether manifest.json has ever been written, letting
// callers distinguish a genuinely empty root (full scan) from a root whose
// manifest simply carries no git_commit yet.
func (s *Store) HasManifest() bool {
	_, err := os.Stat(s.manifestPath())
	return err == nil
}

// ReadManifest returns the current manifest, or a default manifest (version
// 1.0.0, single-domain structure, Stats all 0) when none has been written
// yet.
func (s *Store) ReadManifest() (*model.IndexManifest, error) {
	var m model.IndexManifest
	ok, err := readJSON(s.manifestPath(), &m)
	if err != nil {
		return nil, kerr.New("read manifest", err)
	}
	if !ok {
		return &model.IndexManifest{Version: "1.0.0", Structure: model.StructureSingleDomain}, nil
	}
	return &m, nil
}

// WriteManifest atomically persists m.
func (s *Store) WriteManifest(m *model.IndexManifest) error {
	if err := writeAtomic(s.manifestPath(), m); err != nil {
		return kerr.NewCode("write manifest", kerr.CodeIndexWriteFailed, err)
	}
	return nil
}

// WriteNode atomically persists node.
func (s *Store) WriteNode(node *model.GraphNode) error {
	if err := writeAtomic(s.nodePath(node.Kind, node.DocumentID()), node); err != nil {
		return kerr.NewCode("write node", kerr.CodeIndexWriteFailed, err)
	}
	return nil
}

// ReadNode reads one node by kind and document id. ok is false when absent.
func (s *Store) ReadNode(kind model.Kind, documentID string) (*model.GraphNode, bool, error) {
	var n model.GraphNode
	ok, err := readJSON(s.nodePath(kind, documentID), &n)
	if err != nil {
		return nil, false, kerr.New("read node", err)
	}
	return &n, ok, nil
}

// DeleteNode removes a node's file. Missing files are not an error.
func (s *Store) DeleteNode(kind model.Kind, documentID string) error {
	err := os.Remove(s.nodePath(kind, documentID))
	if err != nil && !os.IsNotExist(err) {
		return kerr.NewCode("delete node", kerr.CodeIndexWriteFailed, err)
	}
	return nil
}

// AllNodes walks nodes/<kind>/*.json and returns every persisted node.
func (s *Store) AllNodes() ([]*model.GraphNode, error) {
	base := filepath.Join(s.root, "nodes")
	var nodes []*model.GraphNode
	entries, err := os.ReadDir(base)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, kerr.New("list node kinds", err)
	}
	for _, kindDir := range entries {
		if !kindDir.IsDir() {
			continue
		}
		files, err := os.ReadDir(filepath.Join(base, kindDir.Name()))
		if err != nil {
			return nil, kerr.New("list nodes", err)
		}
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			var n model.GraphNode
			ok, err := readJSON(filepath.Join(base, kindDir.Name(), f.Name()), &n)
			if err != nil {
				return nil, kerr.New("read node", err)
			}
			if ok {
				nodes = append(nodes, &n)
			}
		}
	}
	return nodes, nil
}

// WriteEmbeddings atomically persists all embeddings for one document.
func (s *Store) WriteEmbeddings(kind model.Kind, documentID string, embeddings []*model.Embedding) error {
	if len(embeddings) == 0 {
		return s.DeleteEmbeddings(kind, documentID)
	}
	if err := writeAtomic(s.embeddingsPath(kind, documentID), embeddings); err != nil {
		return kerr.NewCode("write embeddings", kerr.CodeIndexWriteFailed, err)
	}
	return nil
}

// ReadEmbeddings reads the embeddings persisted for one document.
func (s *Store) ReadEmbeddings(kind model.Kind, documentID string) ([]*model.Embedding, error) {
	var embeddings []*model.Embedding
	ok, err := readJSON(s.embeddingsPath(kind, documentID), &embeddings)
	if err != nil {
		return nil, kerr.New("read embeddings", err)
	}
	if !ok {
		return nil, nil
	}
	return embeddings, nil
}

// DeleteEmbeddings removes a document's embedding file, if any.
func (s *Store) DeleteEmbeddings(kind model.Kind, documentID string) error {
	err := os.Remove(s.embeddingsPath(kind, documentID))
	if err != nil && !os.IsNotExist(err) {
		return kerr.NewCode("delete embeddings", kerr.CodeIndexWriteFailed, err)
	}
	return nil
}

// AllEmbeddings walks embeddings/<kind>/*.json and returns every persisted
// embedding.
func (s *Store) AllEmbeddings() ([]*model.Embedding, error) {
	base := filepath.Join(s.root, "embeddings")
	var out []*model.Embedding
	entries, err := os.ReadDir(base)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, kerr.New("list embedding kinds", err)
	}
	for _, kindDir := range entries {
		if !kindDir.IsDir() {
			continue
		}
		files, err := os.ReadDir(filepath.Join(base, kindDir.Name()))
		if err != nil {
			return nil, kerr.New("list embeddings", err)
		}
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			var embeddings []*model.Embedding
			ok, err := readJSON(filepath.Join(base, kindDir.Name(), f.Name()), &embeddings)
			if err != nil {
				return nil, kerr.New("read embeddings", err)
			}
			if ok {
				out = append(out, embeddings...)
			}
		}
	}
	return out, nil
}

// AppendEdges idempotently unions newEdges into edges.jsonl, keyed by
// (from, to, type); a duplicate's Metadata is merged into the existing
// entry rather than creating a second line.
func (s *Store) AppendEdges(newEdges []model.GraphEdge) error {
	existing, err := s.AllEdges()
	if err != nil {
		return err
	}
	return s.rewriteEdges(unionEdges(existing, newEdges))
}

// RemoveEdgesForNode deletes every edge incident to nodeID (as either
// endpoint), used by cascade delete.
func (s *Store) RemoveEdgesForNode(nodeID string) error {
	existing, err := s.AllEdges()
	if err != nil {
		return err
	}
	kept := existing[:0]
	for _, e := range existing {
		if e.FromNode == nodeID || e.ToNode == nodeID {
			continue
		}
		kept = append(kept, e)
	}
	return s.rewriteEdges(kept)
}

func (s *Store) rewriteEdges(edges []model.GraphEdge) error {
	var buf []byte
	for _, e := range edges {
		line, err := canonicalJSON(e)
		if err != nil {
			return kerr.New("encode edge", err)
		}
		buf = append(buf, line...)
	}
	if err := writeAtomicBytes(s.edgesPath(), buf); err != nil {
		return kerr.NewCode("rewrite edges", kerr.CodeIndexWriteFailed, err)
	}
	return nil
}

func unionEdges(existing []model.GraphEdge, fresh []model.GraphEdge) []model.GraphEdge {
	byKey := make(map[model.EdgeKey]int, len(existing))
	out := make([]model.GraphEdge, len(existing))
	copy(out, existing)
	for i, e := range out {
		byKey[e.Key()] = i
	}
	for _, e := range fresh {
		if idx, ok := byKey[e.Key()]; ok {
			out[idx].Metadata = out[idx].Metadata.Merge(e.Metadata)
			continue
		}
		byKey[e.Key()] = len(out)
		out = append(out, e)
	}
	return out
}

// AllEdges reads every edge from edges.jsonl.
func (s *Store) AllEdges() ([]model.GraphEdge, error) {
	return readJSONLEdges(s.edgesPath())
}

func readJSONLEdges(path string) ([]model.GraphEdge, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, kerr.New("open edges file", err)
	}
	defer f.Close()

	var edges []model.GraphEdge
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e model.GraphEdge
		if err := unmarshalJSON(line, &e); err != nil {
			return nil, kerr.New("decode edge", err)
		}
		edges = append(edges, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, kerr.New("scan edges file", err)
	}
	return edges, nil
}

// AppendTombstone appends a tombstone for nodeID to deletions.jsonl.
func (s *Store) AppendTombstone(nodeID, reason string) error {
	t := model.Tombstone{NodeID: nodeID, DeletedAt: time.Now().UTC(), Reason: reason}
	line, err := canonicalJSON(t)
	if err != nil {
		return kerr.New("encode tombstone", err)
	}
	f, err := os.OpenFile(s.deletionsPath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return kerr.NewCode("open deletions file", kerr.CodeIndexWriteFailed, err)
	}
	defer f.Close()
	if _, err := f.Write(line); err != nil {
		return kerr.NewCode("append tombstone", kerr.CodeIndexWriteFailed, err)
	}
	return nil
}

// AllTombstones reads every tombstone from deletions.jsonl.
func (s *Store) AllTombstones() ([]model.Tombstone, error) {
	f, err := os.Open(s.deletionsPath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, kerr.New("open deletions file", err)
	}
	defer f.Close()

	var tombstones []model.Tombstone
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var t model.Tombstone
		if err := unmarshalJSON(line, &t); err != nil {
			return nil, kerr.New("decode tombstone", err)
		}
		tombstones = append(tombstones, t)
	}
	if err := scanner.Err(); err != nil {
		return nil, kerr.New("scan deletions file", err)
	}
	return tombstones, nil
}

// DeleteDocument removes a node's file, its embeddings, every incident
// edge, and appends a tombstone — the full cascade-delete path used by the
// incremental driver (§4.5, §3.1).
func (s *Store) DeleteDocument(kind model.Kind, documentID, reason string) error {
	nodeID := model.NodeID(kind, documentID)
	if err := s.DeleteNode(kind, documentID); err != nil {
		return err
	}
	if err := s.DeleteEmbeddings(kind, documentID); err != nil {
		return err
	}
	if err := s.RemoveEdgesForNode(nodeID); err != nil {
		return err
	}
	if err := s.AppendTombstone(nodeID, reason); err != nil {
		return err
	}
	return nil
}

// Root returns the artifact root directory.
func (s *Store) Root() string {
	return s.root
}
