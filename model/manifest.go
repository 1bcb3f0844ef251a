package model

import "time"

// Stats holds the manifest's record of artifact counts, kept equal to the
// actual counts in the store at all times.
type Stats struct {
	Nodes       int `json:"nodes"`
	Edges       int `json:"edges"`
	Embeddings  int `json:"embeddings"`
	Enrichments int `json:"enrichments"`
}

// IndexManifest describes one artifact root: its format version, the
// capability level it was built with, and summary stats.
type IndexManifest struct {
	Version             string    `json:"version"`
	KDDVersion          string    `json:"kdd_version"`
	EmbeddingModel      string    `json:"embedding_model,omitempty"`
	EmbeddingDimensions int       `json:"embedding_dimensions,omitempty"`
	IndexedAt           time.Time `json:"indexed_at"`
	IndexedBy           string    `json:"indexed_by"`
	Structure           Structure `json:"structure"`
	IndexLevel          IndexLevel `json:"index_level"`
	Stats               Stats     `json:"stats"`
	Domains             []string  `json:"domains,omitempty"`
	GitCommit           string    `json:"git_commit,omitempty"`
}

// Tombstone marks a node id as explicitly deleted; merge and incremental
// update treat tombstones as authoritative regardless of whether a source
// still lists the id.
type Tombstone struct {
	NodeID    string    `json:"node_id"`
	DeletedAt time.Time `json:"deleted_at"`
	Reason    string    `json:"reason"`
}

const (
	TombstoneSourceRemoved   = "source_removed"
	TombstoneMergeSuperseded = "merge_superseded"
)
