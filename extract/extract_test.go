package extract

import (
	"testing"
	"time"

	"github.com/siherrmann/kddindex/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testIndexedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func newDoc(kind model.Kind, id string) *model.Document {
	return &model.Document{
		ID:          id,
		Kind:        kind,
		SourcePath:  "specs/01-domain/entities/" + id + ".md",
		SourceHash:  "deadbeef",
		FrontMatter: map[string]any{"kind": string(kind)},
	}
}

func TestExtractEntityRelationsAndEvents(t *testing.T) {
	doc := newDoc(model.KindEntity, "Order")
	doc.Sections = []*model.Section{
		{
			Heading: "Relaciones",
			Tables: []model.Table{
				{
					Header: []string{"Entity", "Cardinality", "Relation"},
					Rows: [][]string{
						{"[[Customer]]", "1..1", "belongs to"},
					},
				},
			},
		},
		{Heading: "Eventos Emitidos"},
	}
	doc.WikiLinks = []model.WikiLink{
		{Target: "OrderPlaced", Section: "Eventos Emitidos"},
		{Target: "ShippingPolicy", Section: "Notas"},
	}

	node, edges := Extract(doc, testIndexedAt)
	require.NotNil(t, node)
	assert.Equal(t, "entity:Order", node.ID)

	var domainRelation, businessEdge, emits, tableWiki, bodyWiki bool
	for _, e := range edges {
		switch {
		case e.EdgeType == model.EdgeDomainRelation && e.ToNode == "Customer":
			domainRelation = true
		case e.EdgeType == model.EdgeType("belongs_to") && e.ToNode == "Customer":
			businessEdge = true
		case e.EdgeType == model.EdgeEmits && e.ToNode == "OrderPlaced":
			emits = true
		case e.EdgeType == model.EdgeWikiLink && e.ToNode == "Customer":
			tableWiki = true
		case e.EdgeType == model.EdgeWikiLink && e.ToNode == "ShippingPolicy":
			bodyWiki = true
		}
	}
	assert.True(t, domainRelation, "expected a DOMAIN_RELATION edge to Customer")
	assert.True(t, businessEdge, "expected a business edge named belongs_to")
	assert.True(t, emits, "expected an EMITS edge to OrderPlaced")
	assert.True(t, tableWiki, "expected a generic WIKI_LINK edge to the bracketed relations-table target")
	assert.True(t, bodyWiki, "expected a generic WIKI_LINK edge to ShippingPolicy")
}

func TestExtractUseCaseClassifiesObjectiveLinks(t *testing.T) {
	doc := newDoc(model.KindUseCase, "PlaceOrder")
	doc.WikiLinks = []model.WikiLink{
		{Target: "OBJ-Growth"},
	}

	_, edges := Extract(doc, testIndexedAt)
	require.Len(t, edges, 1)
	assert.Equal(t, model.EdgeUCStory, edges[0].EdgeType)
}

func TestExtractADRDecidesForEveryLink(t *testing.T) {
	doc := newDoc(model.KindADR, "UsePostgres")
	doc.WikiLinks = []model.WikiLink{{Target: "StorageEntity"}, {Target: "CacheEntity"}}

	_, edges := Extract(doc, testIndexedAt)
	require.Len(t, edges, 2)
	for _, e := range edges {
		assert.Equal(t, model.EdgeDecidesFor, e.EdgeType)
	}
}

func TestExtractCrossDomainLink(t *testing.T) {
	doc := newDoc(model.KindEvent, "Shipped")
	doc.WikiLinks = []model.WikiLink{{Target: "Invoice", CrossDomain: "billing"}}

	_, edges := Extract(doc, testIndexedAt)
	require.Len(t, edges, 1)
	assert.Equal(t, model.EdgeCrossDomainRef, edges[0].EdgeType)
	assert.Equal(t, "billing::Invoice", edges[0].ToNode)
}
