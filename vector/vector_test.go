package vector_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siherrmann/kddindex/model"
	"github.com/siherrmann/kddindex/vector"
)

func embedding(id string, kind model.Kind, vec []float32) *model.Embedding {
	return &model.Embedding{DocumentID: id, DocumentKind: kind, Vector: vec}
}

func TestSearchRanksBySimilarity(t *testing.T) {
	s := vector.Build([]*model.Embedding{
		embedding("order", model.KindEntity, []float32{1, 0}),
		embedding("customer", model.KindEntity, []float32{0, 1}),
		embedding("product", model.KindEntity, []float32{0.9, 0.1}),
	})

	hits := s.Search([]float32{1, 0}, 2, nil)
	require.Len(t, hits, 2)
	assert.Equal(t, "order", hits[0].Embedding.DocumentID)
	assert.Equal(t, "product", hits[1].Embedding.DocumentID)
}

func TestSearchFiltersByKind(t *testing.T) {
	s := vector.Build([]*model.Embedding{
		embedding("order", model.KindEntity, []float32{1, 0}),
		embedding("place-order", model.KindUseCase, []float32{1, 0}),
	})

	hits := s.Search([]float32{1, 0}, 5, []model.Kind{model.KindUseCase})
	require.Len(t, hits, 1)
	assert.Equal(t, "place-order", hits[0].Embedding.DocumentID)
}

func TestRemoveDocumentRemovesAllChunks(t *testing.T) {
	s := vector.New()
	s.Add(&model.Embedding{DocumentID: "order", DocumentKind: model.KindEntity, ChunkIndex: 0, Vector: []float32{1, 0}})
	s.Add(&model.Embedding{DocumentID: "order", DocumentKind: model.KindEntity, ChunkIndex: 1, Vector: []float32{0, 1}})
	assert.Equal(t, 2, s.Count())

	s.RemoveDocument(model.KindEntity, "order")
	assert.Equal(t, 0, s.Count())
}

func TestSearchTieBreaksByEmbeddingID(t *testing.T) {
	s := vector.Build([]*model.Embedding{
		embedding("b-doc", model.KindEntity, []float32{1, 0}),
		embedding("a-doc", model.KindEntity, []float32{1, 0}),
	})

	hits := s.Search([]float32{1, 0}, 2, nil)
	require.Len(t, hits, 2)
	assert.Equal(t, "a-doc", hits[0].Embedding.DocumentID)
	assert.Equal(t, "b-doc", hits[1].Embedding.DocumentID)
}

func TestSearchZeroTopKReturnsNil(t *testing.T) {
	s := vector.Build([]*model.Embedding{embedding("order", model.KindEntity, []float32{1, 0})})
	assert.Nil(t, s.Search([]float32{1, 0}, 0, nil))
}
