package model

import (
	"strconv"
	"time"
)

// Embedding is a single hierarchical chunk's vector plus the text it was
// generated from. Identity is (DocumentID, SectionPath, ChunkIndex).
type Embedding struct {
	DocumentID   string    `json:"document_id"`
	DocumentKind Kind      `json:"document_kind"`
	SectionPath  string    `json:"section_path"`
	ChunkIndex   int       `json:"chunk_index"`
	RawText      string    `json:"raw_text"`
	ContextText  string    `json:"context_text"`
	Vector       []float32 `json:"vector"`
	Model        string    `json:"model"`
	Dimensions   int       `json:"dimensions"`
	TextHash     string    `json:"text_hash"`
	GeneratedAt  time.Time `json:"generated_at"`
}

// ID formats the embedding's composite identity string.
func (e *Embedding) ID() string {
	return e.DocumentID + ":" + e.SectionPath + ":" + strconv.Itoa(e.ChunkIndex)
}
