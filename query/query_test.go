package query_test

import (
	"github.com/siherrmann/kddindex/event"
	"github.com/siherrmann/kddindex/graph"
	"github.com/siherrmann/kddindex/model"
	"github.com/siherrmann/kddindex/query"
	"github.com/siherrmann/kddindex/vector"
)

// fixtureNodes builds a small, realistic graph: a use-case that executes a
// command which emits an event that an entity both emits and consumes, with
// a business rule constraining the entity and a requirement tracing to the
// entity.
func fixtureNodes() []*model.GraphNode {
	return []*model.GraphNode{
		{
			ID: "entity:order", Kind: model.KindEntity, Layer: model.LayerDomain,
			Aliases: []string{"Order"},
			IndexedFields: map[string]any{
				"descripción": "An order placed by a customer for one or more products.",
				"invariantes": "Total must equal the sum of line items.",
			},
		},
		{
			ID: "business-rule:order-total", Kind: model.KindBusinessRule, Layer: model.LayerDomain,
			IndexedFields: map[string]any{"declaración": "Order total must never be negative."},
		},
		{
			ID: "command:place-order", Kind: model.KindCommand, Layer: model.LayerBehavior,
			IndexedFields: map[string]any{"precondiciones": "Customer must exist."},
		},
		{
			ID: "event:order-placed", Kind: model.KindEvent, Layer: model.LayerBehavior,
		},
		{
			ID: "use-case:place-order", Kind: model.KindUseCase, Layer: model.LayerBehavior,
			IndexedFields: map[string]any{"descripción": "Customer places an order for products."},
		},
		{
			ID: "requirement:req-1", Kind: model.KindRequirement, Layer: model.LayerRequirements,
			IndexedFields: map[string]any{"descripción": "The system must support placing orders."},
		},
	}
}

func fixtureEdges() []model.GraphEdge {
	return []model.GraphEdge{
		{FromNode: "use-case:place-order", ToNode: "command:place-order", EdgeType: model.EdgeUCExecutesCmd},
		{FromNode: "command:place-order", ToNode: "event:order-placed", EdgeType: model.EdgeEmits},
		{FromNode: "entity:order", ToNode: "event:order-placed", EdgeType: model.EdgeConsumes},
		{FromNode: "entity:order", ToNode: "event:order-placed", EdgeType: model.EdgeEmits},
		{FromNode: "business-rule:order-total", ToNode: "entity:order", EdgeType: model.EdgeEntityRule},
		{FromNode: "use-case:place-order", ToNode: "entity:order", EdgeType: model.EdgeWikiLink},
		{FromNode: "requirement:req-1", ToNode: "entity:order", EdgeType: model.EdgeReqTracesTo},
	}
}

func fixtureEmbeddings() []*model.Embedding {
	return []*model.Embedding{
		{
			DocumentID: "order", DocumentKind: model.KindEntity, SectionPath: "descripción",
			RawText: "An order placed by a customer for one or more products.",
			Vector:  []float32{1, 0, 0}, Model: "test-model",
		},
		{
			DocumentID: "place-order", DocumentKind: model.KindUseCase, SectionPath: "descripción",
			RawText: "Customer places an order for products.",
			Vector:  []float32{0.9, 0.1, 0}, Model: "test-model",
		},
	}
}

// newEngine builds a ready Engine over the fixture graph and vector store.
// embed nil forces every semantic pass to degrade as if L1.
func newEngine(embed query.Embedder, level model.IndexLevel) *query.Engine {
	g := graph.Load(fixtureNodes(), fixtureEdges())
	v := vector.Build(fixtureEmbeddings())
	return &query.Engine{
		Graph:      g,
		Vector:     v,
		Embed:      embed,
		Bus:        event.NewBus(),
		IndexLevel: level,
	}
}

func echoEmbed(text string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

// recordingConsumer collects every event published during a test.
type recordingConsumer struct {
	events []event.Event
}

func (r *recordingConsumer) Handle(e event.Event) {
	r.events = append(r.events, e)
}

func typesOf(events []event.Event) []event.Type {
	out := make([]event.Type, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}
