// Package pipeline implements the chunking and embedding stage (C4): a
// deterministic hierarchical chunker plus a pluggable EmbedFunc abstraction,
// composed the way the teacher's core/pipeline composes ChunkFunc/EmbedFunc.
package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/siherrmann/kddindex/model"
)

// ChunkFunc splits one embeddable section's text into hierarchical chunks.
type ChunkFunc func(sectionPath string, section *model.Section, ancestorSummaries []string) []Chunk

// EmbedFunc generates a fixed-dimension embedding vector for text. Must be
// pure: the same input text always yields the same vector.
type EmbedFunc func(text string) ([]float32, error)

// Chunk is one hierarchical chunk prior to embedding.
type Chunk struct {
	SectionPath string
	ChunkIndex  int
	RawText     string
	ContextText string
}

// Pipeline composes a ChunkFunc and EmbedFunc, mirroring the teacher's
// core/pipeline.Pipeline{Chunker, Embedder} struct.
type Pipeline struct {
	Chunker  ChunkFunc
	Embedder EmbedFunc
	Model    string
}

// NewPipeline constructs a Pipeline from a chunker and embedder.
func NewPipeline(chunker ChunkFunc, embedder EmbedFunc, modelName string) *Pipeline {
	return &Pipeline{Chunker: chunker, Embedder: embedder, Model: modelName}
}

// minWordsPerChunk is the fusion threshold from SPEC_FULL §4.4 step 2: a
// paragraph shorter than this many words fuses into its neighbor instead of
// starting its own chunk.
const minWordsPerChunk = 20

// maxSummaryChars bounds the ancestor-section summary line folded into a
// chunk's ContextText.
const maxSummaryChars = 160

// HierarchicalChunker implements the C4 chunking algorithm: paragraphs are
// chunk boundaries unless too short (fused forward, or into the previous
// chunk for a trailing short paragraph); whole tables are single chunks.
func HierarchicalChunker(nodeID string, kind model.Kind) ChunkFunc {
	return func(sectionPath string, section *model.Section, ancestorSummaries []string) []Chunk {
		identity := "[" + string(kind) + ": " + nodeID + "]"
		prefix := identity
		if len(ancestorSummaries) > 0 {
			prefix += " " + strings.Join(ancestorSummaries, " > ")
		}

		var rawChunks []string
		var buf []string
		bufWords := 0
		flush := func() {
			if len(buf) == 0 {
				return
			}
			rawChunks = append(rawChunks, strings.Join(buf, " "))
			buf = nil
			bufWords = 0
		}

		for _, para := range section.Body {
			words := len(strings.Fields(para))
			buf = append(buf, para)
			bufWords += words
			if bufWords >= minWordsPerChunk {
				flush()
			}
		}
		if len(buf) > 0 && bufWords < minWordsPerChunk && len(rawChunks) > 0 {
			rawChunks[len(rawChunks)-1] += " " + strings.Join(buf, " ")
			buf = nil
		}
		flush()

		for _, table := range section.Tables {
			rawChunks = append(rawChunks, renderTable(table))
		}

		chunks := make([]Chunk, 0, len(rawChunks))
		for i, raw := range rawChunks {
			chunks = append(chunks, Chunk{
				SectionPath: sectionPath,
				ChunkIndex:  i,
				RawText:     raw,
				ContextText: prefix + " " + raw,
			})
		}
		return chunks
	}
}

func renderTable(t model.Table) string {
	var b strings.Builder
	b.WriteString(strings.Join(t.Header, " | "))
	for _, row := range t.Rows {
		b.WriteString("\n")
		b.WriteString(strings.Join(row, " | "))
	}
	return b.String()
}

// Summarize returns the first sentence of text, up to maxSummaryChars, for
// use as an ancestor-section summary line.
func Summarize(text string) string {
	text = strings.TrimSpace(text)
	end := len(text)
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' {
			end = i + 1
			break
		}
	}
	if end > maxSummaryChars {
		end = maxSummaryChars
	}
	if end > len(text) {
		end = len(text)
	}
	return text[:end]
}

// Embed runs chunk.ContextText through embed, computing the embedding's
// TextHash along the way. existingHash, when equal to the computed hash,
// means regeneration can be skipped by the caller (the caller is
// responsible for checking that before calling Embed). generatedAt is
// supplied by the caller rather than read from the clock, so re-embedding
// unchanged input at the same commit produces a byte-identical artifact
// (§8 producer determinism).
func Embed(embed EmbedFunc, nodeID string, kind model.Kind, modelName string, chunk Chunk, generatedAt time.Time) (*model.Embedding, error) {
	hash := sha256.Sum256([]byte(chunk.ContextText))
	textHash := hex.EncodeToString(hash[:])

	vector, err := embed(chunk.ContextText)
	if err != nil {
		return nil, err
	}

	return &model.Embedding{
		DocumentID:   nodeID,
		DocumentKind: kind,
		SectionPath:  chunk.SectionPath,
		ChunkIndex:   chunk.ChunkIndex,
		RawText:      chunk.RawText,
		ContextText:  chunk.ContextText,
		Vector:       vector,
		Model:        modelName,
		Dimensions:   len(vector),
		TextHash:     textHash,
		GeneratedAt:  generatedAt,
	}, nil
}
