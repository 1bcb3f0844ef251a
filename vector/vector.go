// Package vector implements the in-memory vector store (C7): cosine
// similarity search over every persisted embedding, kept as a flat id map
// plus a per-document index of embedding ids. No approximate nearest
// neighbor library exists anywhere in the retrieved example pack (grepped
// across every go.mod and other_examples/ manifest), so the search itself
// is a hand-rolled brute-force scan with a bounded top-k heap — exact
// rather than approximate, which is the right tradeoff at the node counts
// a single KDD artifact tree produces (§4.7, §9).
package vector

import (
	"container/heap"
	"math"
	"sort"
	"sync"

	"github.com/siherrmann/kddindex/model"
)

// Store holds every embedding in memory, keyed by its composite id.
type Store struct {
	mu         sync.RWMutex
	embeddings map[string]*model.Embedding
	byDocument map[string][]string // "Kind:DocumentID" -> embedding ids
}

// New returns an empty vector Store.
func New() *Store {
	return &Store{
		embeddings: make(map[string]*model.Embedding),
		byDocument: make(map[string][]string),
	}
}

// Build constructs a Store from a full embedding set, as done once at
// startup (§4.8) and after every merge (§4.11).
func Build(embeddings []*model.Embedding) *Store {
	s := New()
	s.Reset(embeddings)
	return s
}

// Reset clears s in place and rebuilds it from embeddings, preserving s's
// identity so holders of the *Store see the rebuilt index without a
// pointer swap.
func (s *Store) Reset(embeddings []*model.Embedding) {
	s.mu.Lock()
	s.embeddings = make(map[string]*model.Embedding)
	s.byDocument = make(map[string][]string)
	s.mu.Unlock()

	for _, e := range embeddings {
		s.Add(e)
	}
}

func documentKey(e *model.Embedding) string {
	return string(e.DocumentKind) + ":" + e.DocumentID
}

// Add inserts or replaces one embedding.
func (s *Store) Add(e *model.Embedding) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := e.ID()
	if _, exists := s.embeddings[id]; !exists {
		key := documentKey(e)
		s.byDocument[key] = append(s.byDocument[key], id)
	}
	s.embeddings[id] = e
}

// Remove deletes a single embedding by id.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.embeddings[id]
	if !ok {
		return
	}
	delete(s.embeddings, id)
	key := documentKey(e)
	ids := s.byDocument[key]
	for i, existing := range ids {
		if existing == id {
			s.byDocument[key] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
}

// RemoveDocument deletes every embedding belonging to one document,
// used by cascade delete (§3.1) and re-embedding on update.
func (s *Store) RemoveDocument(kind model.Kind, documentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := string(kind) + ":" + documentID
	for _, id := range s.byDocument[key] {
		delete(s.embeddings, id)
	}
	delete(s.byDocument, key)
}

// Count returns the number of embeddings held.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.embeddings)
}

// AllEmbeddings returns every embedding currently held, in no particular
// order.
func (s *Store) AllEmbeddings() []*model.Embedding {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Embedding, 0, len(s.embeddings))
	for _, e := range s.embeddings {
		out = append(out, e)
	}
	return out
}

// Hit is one ranked search result.
type Hit struct {
	Embedding  *model.Embedding
	Similarity float32
}

// Search returns the topK embeddings most cosine-similar to query,
// restricted to kinds when non-empty. Ties break on embedding id
// (lexicographic ascending) for stable, reproducible ranking (§9, Open
// Question 4).
func (s *Store) Search(query []float32, topK int, kinds []model.Kind) []Hit {
	if topK <= 0 {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	allowed := make(map[model.Kind]bool, len(kinds))
	for _, k := range kinds {
		allowed[k] = true
	}

	h := &hitHeap{}
	heap.Init(h)
	for _, e := range s.embeddings {
		if len(allowed) > 0 && !allowed[e.DocumentKind] {
			continue
		}
		sim := cosineSimilarity(query, e.Vector)
		heap.Push(h, Hit{Embedding: e, Similarity: sim})
		if h.Len() > topK {
			heap.Pop(h)
		}
	}

	results := make([]Hit, h.Len())
	for i := len(results) - 1; i >= 0; i-- {
		results[i] = heap.Pop(h).(Hit)
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].Embedding.ID() < results[j].Embedding.ID()
	})
	return results
}

// cosineSimilarity is adapted from the teacher's chunker.cosineSimilarity,
// unchanged in algorithm.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dotProduct, normA, normB float32
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dotProduct / (sqrt32(normA) * sqrt32(normB))
}

func sqrt32(f float32) float32 {
	return float32(math.Sqrt(float64(f)))
}
