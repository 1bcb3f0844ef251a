// Package extract implements the 15 per-kind Kind Extractors: deterministic
// mappings from a parsed model.Document to a model.GraphNode and its
// outgoing model.GraphEdges.
package extract

import (
	"strings"
	"time"

	"github.com/siherrmann/kddindex/model"
)

// Extractor maps a parsed Document to its node and edges. indexedAt is
// supplied by the caller (the indexer derives it from VCS commit time)
// rather than read from the clock, so two ingestions of the same commit
// produce byte-identical GraphNode.IndexedAt values (§8 producer
// determinism).
type Extractor func(doc *model.Document, indexedAt time.Time) (*model.GraphNode, []model.GraphEdge)

// registry dispatches extraction by Kind, the sum-type pattern called for
// in the design notes (§9 "Polymorphism over kinds").
var registry = map[model.Kind]Extractor{
	model.KindEntity:         extractEntity,
	model.KindEvent:          extractGeneric,
	model.KindBusinessRule:   extractBusinessRule(model.EdgeEntityRule),
	model.KindBusinessPolicy: extractBusinessRule(model.EdgeEntityPolicy),
	model.KindCrossPolicy:    extractBusinessRule(model.EdgeEntityPolicy),
	model.KindCommand:        extractCommand,
	model.KindQuery:          extractGeneric,
	model.KindProcess:        extractGeneric,
	model.KindUseCase:        extractUseCase,
	model.KindUIView:         extractUIView,
	model.KindUIComponent:    extractUIComponent,
	model.KindRequirement:    extractRequirement,
	model.KindObjective:      extractGeneric,
	model.KindPRD:            extractGeneric,
	model.KindADR:            extractADR,
}

// Extract dispatches to the registered Extractor for doc.Kind. Callers must
// have already rejected model.KindUnknown via rules.RouteDocument.
func Extract(doc *model.Document, indexedAt time.Time) (*model.GraphNode, []model.GraphEdge) {
	fn, ok := registry[doc.Kind]
	if !ok {
		fn = extractGeneric
	}
	return fn(doc, indexedAt)
}

func newNode(doc *model.Document, fields map[string]any, indexedAt time.Time) *model.GraphNode {
	status := model.StatusDraft
	if s, ok := doc.FrontMatter["status"].(string); ok && s != "" {
		status = model.Status(s)
	}
	var aliases []string
	if raw, ok := doc.FrontMatter["aliases"].([]any); ok {
		for _, a := range raw {
			if s, ok := a.(string); ok {
				aliases = append(aliases, s)
			}
		}
	}
	return &model.GraphNode{
		ID:            model.NodeID(doc.Kind, doc.ID),
		Kind:          doc.Kind,
		SourceFile:    doc.SourcePath,
		SourceHash:    doc.SourceHash,
		Layer:         doc.Layer,
		Status:        status,
		Aliases:       aliases,
		Domain:        doc.Domain,
		IndexedFields: fields,
		IndexedAt:     indexedAt,
	}
}

func targetNodeID(link model.WikiLink) string {
	if link.CrossDomain != "" {
		return link.CrossDomain + "::" + link.Target
	}
	return link.Target
}

func wikiEdge(doc *model.Document, link model.WikiLink, edgeType model.EdgeType, method model.ExtractionMethod) model.GraphEdge {
	edge := model.GraphEdge{
		FromNode:         model.NodeID(doc.Kind, doc.ID),
		ToNode:           targetNodeID(link),
		EdgeType:         edgeType,
		SourceFile:       doc.SourcePath,
		ExtractionMethod: method,
	}
	if link.CrossDomain != "" {
		edge.EdgeType = model.EdgeCrossDomainRef
		edge.Metadata = model.Metadata{"domain": link.CrossDomain}
	}
	if link.Alias != "" {
		if edge.Metadata == nil {
			edge.Metadata = model.Metadata{}
		}
		edge.Metadata["display_alias"] = link.Alias
	}
	return edge
}

// linksInSection returns the subset of doc.WikiLinks whose Section matches
// heading.
func linksInSection(doc *model.Document, heading string) []model.WikiLink {
	var out []model.WikiLink
	for _, link := range doc.WikiLinks {
		if link.Section == heading {
			out = append(out, link)
		}
	}
	return out
}

// businessEdgeName turns a relation's display name into a lower-snake-case
// free-form business edge type, per §4.3.
func businessEdgeName(name string) model.EdgeType {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "-", "_")
	return model.EdgeType(name)
}

// extractGeneric handles kinds with no structural edges beyond generic
// wiki-links: event, query, process, objective, prd.
func extractGeneric(doc *model.Document, indexedAt time.Time) (*model.GraphNode, []model.GraphEdge) {
	fields := sectionFields(doc)
	node := newNode(doc, fields, indexedAt)
	edges := genericWikiLinkEdges(doc)
	return node, edges
}

func genericWikiLinkEdges(doc *model.Document) []model.GraphEdge {
	var edges []model.GraphEdge
	for _, link := range doc.WikiLinks {
		edges = append(edges, wikiEdge(doc, link, model.EdgeWikiLink, model.ExtractionWikiLink))
	}
	return edges
}

// sectionFields builds the generic indexed_fields map: one entry per
// top-level section, its joined body text (tables are rendered as row
// lists under the same key).
func sectionFields(doc *model.Document) map[string]any {
	fields := make(map[string]any)
	for _, s := range doc.Sections {
		key := sectionKey(s.Heading)
		if len(s.Body) > 0 {
			fields[key] = strings.Join(s.Body, "\n")
		}
		if len(s.Tables) > 0 {
			fields[key+"_table"] = tableRows(s.Tables)
		}
	}
	return fields
}

func sectionKey(heading string) string {
	key := strings.ToLower(strings.TrimSpace(heading))
	key = strings.ReplaceAll(key, " ", "_")
	return key
}

func tableRows(tables []model.Table) []any {
	var rows []any
	for _, t := range tables {
		for _, row := range t.Rows {
			rows = append(rows, row)
		}
	}
	return rows
}
