package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/siherrmann/kddindex/model"
	"github.com/siherrmann/kddindex/rules"
)

// ProcessDocument walks every embeddable section of doc (per
// rules.EmbeddableSections(kind)), chunks it, and embeds each chunk. A
// section whose body is entirely empty (e.g. only a fenced code/mermaid
// block captured as opaque text) naturally yields zero chunks.
//
// existing maps "sectionPath:chunkIndex" to a previously persisted
// Embedding; when a freshly computed chunk's hash matches the prior one's
// TextHash, its embedding is reused instead of regenerated, per §4.4 step 5.
// generatedAt stamps any newly generated embedding (see Embed).
func (p *Pipeline) ProcessDocument(nodeID string, doc *model.Document, existing map[string]*model.Embedding, generatedAt time.Time) ([]*model.Embedding, error) {
	embeddable := rules.EmbeddableSections(doc.Kind)
	if len(embeddable) == 0 {
		return nil, nil
	}

	chunker := p.Chunker
	if chunker == nil {
		chunker = HierarchicalChunker(nodeID, doc.Kind)
	}

	var out []*model.Embedding
	var firstErr error
	var walk func(sections []*model.Section, ancestors []string)
	walk = func(sections []*model.Section, ancestors []string) {
		for _, section := range sections {
			if firstErr != nil {
				return
			}
			if embeddable[section.Heading] {
				chunks := chunker(section.Heading, section, ancestors)
				for _, chunk := range chunks {
					key := chunk.SectionPath + ":" + strconv.Itoa(chunk.ChunkIndex)
					hash := contextHash(chunk.ContextText)
					if prior, ok := existing[key]; ok && prior.TextHash == hash {
						out = append(out, prior)
						continue
					}
					embedding, err := Embed(p.Embedder, nodeID, doc.Kind, p.Model, chunk, generatedAt)
					if err != nil {
						firstErr = err
						return
					}
					out = append(out, embedding)
				}
			}
			childAncestors := ancestors
			if summary := sectionSummary(section); summary != "" {
				childAncestors = append(append([]string{}, ancestors...), summary)
			}
			walk(section.Children, childAncestors)
		}
	}
	walk(doc.Sections, nil)
	return out, firstErr
}

func sectionSummary(s *model.Section) string {
	for _, para := range s.Body {
		return Summarize(para)
	}
	return ""
}

func contextHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
