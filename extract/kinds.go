package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/siherrmann/kddindex/model"
)

// relationCellPattern strips the same [[Target]], [[Target|Alias]] and
// [[domain::Target]] wiki-link syntax parser.extractWikiLinks recognizes
// inline, for a "## Relaciones" table cell. A cell without brackets is
// taken as a bare target name.
var relationCellPattern = regexp.MustCompile(`^\[\[([^\]|]+)(\|[^\]]+)?\]\]$`)

func parseRelationCell(cell string) model.WikiLink {
	cell = strings.TrimSpace(cell)
	m := relationCellPattern.FindStringSubmatch(cell)
	if m == nil {
		return model.WikiLink{Target: cell, Section: "Relaciones"}
	}
	target := m[1]
	alias := strings.TrimPrefix(m[2], "|")
	domain := ""
	if idx := strings.Index(target, "::"); idx >= 0 {
		domain = target[:idx]
		target = target[idx+2:]
	}
	return model.WikiLink{Target: target, Alias: alias, Section: "Relaciones", CrossDomain: domain}
}

// extractEntity handles model.KindEntity: a DOMAIN_RELATION edge per row of
// "## Relaciones", EMITS/CONSUMES from event wiki-links, generic WIKI_LINK
// for everything else, plus a business edge named after the relation.
func extractEntity(doc *model.Document, indexedAt time.Time) (*model.GraphNode, []model.GraphEdge) {
	fields := sectionFields(doc)
	node := newNode(doc, fields, indexedAt)

	var edges []model.GraphEdge
	handled := make(map[string]bool)

	if relaciones := doc.Section("Relaciones"); relaciones != nil {
		for _, table := range relaciones.Tables {
			nameIdx := columnIndex(table.Header, "entity", "name")
			cardIdx := columnIndex(table.Header, "cardinality")
			relationIdx := columnIndex(table.Header, "relation", "relación", "relacion")
			for _, row := range table.Rows {
				if nameIdx < 0 || nameIdx >= len(row) {
					continue
				}
				link := parseRelationCell(row[nameIdx])
				targetID := targetNodeID(link)

				edges = append(edges, wikiEdge(doc, link, model.EdgeWikiLink, model.ExtractionWikiLink))

				edge := model.GraphEdge{
					FromNode:         node.ID,
					ToNode:           targetID,
					EdgeType:         model.EdgeDomainRelation,
					SourceFile:       doc.SourcePath,
					ExtractionMethod: model.ExtractionSectionContent,
				}
				if link.Alias != "" {
					edge.Metadata = model.Metadata{"display_alias": link.Alias}
				}
				if cardIdx >= 0 && cardIdx < len(row) {
					if edge.Metadata == nil {
						edge.Metadata = model.Metadata{}
					}
					edge.Metadata["cardinality"] = row[cardIdx]
				}
				edges = append(edges, edge)
				handled[targetID] = true

				if relationIdx >= 0 && relationIdx < len(row) && row[relationIdx] != "" {
					edges = append(edges, model.GraphEdge{
						FromNode:         node.ID,
						ToNode:           targetID,
						EdgeType:         businessEdgeName(row[relationIdx]),
						SourceFile:       doc.SourcePath,
						ExtractionMethod: model.ExtractionSectionContent,
					})
				}
			}
		}
	}

	for _, section := range []string{"Eventos Emitidos", "Eventos Consumidos"} {
		edgeType := model.EdgeEmits
		if section == "Eventos Consumidos" {
			edgeType = model.EdgeConsumes
		}
		for _, link := range linksInSection(doc, section) {
			edges = append(edges, wikiEdge(doc, link, edgeType, model.ExtractionWikiLink))
			handled[link.Target] = true
		}
	}

	for _, link := range doc.WikiLinks {
		if handled[link.Target] {
			continue
		}
		edges = append(edges, wikiEdge(doc, link, model.EdgeWikiLink, model.ExtractionWikiLink))
	}

	return node, edges
}

func columnIndex(header []string, names ...string) int {
	for i, h := range header {
		for _, n := range names {
			if equalFold(h, n) {
				return i
			}
		}
	}
	return -1
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// extractBusinessRule handles business-rule, business-policy, cross-policy:
// one edgeType edge to any entity wiki-linked from "## Declaración".
func extractBusinessRule(edgeType model.EdgeType) Extractor {
	return func(doc *model.Document, indexedAt time.Time) (*model.GraphNode, []model.GraphEdge) {
		fields := sectionFields(doc)
		node := newNode(doc, fields, indexedAt)

		var edges []model.GraphEdge
		declared := make(map[string]bool)
		for _, link := range linksInSection(doc, "Declaración") {
			edges = append(edges, wikiEdge(doc, link, edgeType, model.ExtractionWikiLink))
			declared[link.Target] = true
		}
		for _, link := range doc.WikiLinks {
			if declared[link.Target] {
				continue
			}
			edges = append(edges, wikiEdge(doc, link, model.EdgeWikiLink, model.ExtractionWikiLink))
		}
		return node, edges
	}
}

// extractCommand handles model.KindCommand: EMITS to events named in
// "## Postcondiciones", WIKI_LINK elsewhere.
func extractCommand(doc *model.Document, indexedAt time.Time) (*model.GraphNode, []model.GraphEdge) {
	fields := sectionFields(doc)
	node := newNode(doc, fields, indexedAt)

	var edges []model.GraphEdge
	emitted := make(map[string]bool)
	for _, link := range linksInSection(doc, "Postcondiciones") {
		edges = append(edges, wikiEdge(doc, link, model.EdgeEmits, model.ExtractionWikiLink))
		emitted[link.Target] = true
	}
	for _, link := range doc.WikiLinks {
		if emitted[link.Target] {
			continue
		}
		edges = append(edges, wikiEdge(doc, link, model.EdgeWikiLink, model.ExtractionWikiLink))
	}
	return node, edges
}

// extractUseCase handles model.KindUseCase: UC_APPLIES_RULE from
// "## Reglas Aplicadas", UC_EXECUTES_CMD from "## Comandos Ejecutados",
// UC_STORY to any OBJ-* reference.
func extractUseCase(doc *model.Document, indexedAt time.Time) (*model.GraphNode, []model.GraphEdge) {
	fields := sectionFields(doc)
	node := newNode(doc, fields, indexedAt)

	var edges []model.GraphEdge
	handled := make(map[string]bool)
	for _, link := range linksInSection(doc, "Reglas Aplicadas") {
		edges = append(edges, wikiEdge(doc, link, model.EdgeUCAppliesRule, model.ExtractionWikiLink))
		handled[link.Target] = true
	}
	for _, link := range linksInSection(doc, "Comandos Ejecutados") {
		edges = append(edges, wikiEdge(doc, link, model.EdgeUCExecutesCmd, model.ExtractionWikiLink))
		handled[link.Target] = true
	}
	for _, link := range doc.WikiLinks {
		if handled[link.Target] {
			continue
		}
		if hasPrefix(link.Target, "OBJ-") {
			edges = append(edges, wikiEdge(doc, link, model.EdgeUCStory, model.ExtractionWikiLink))
			continue
		}
		edges = append(edges, wikiEdge(doc, link, model.EdgeWikiLink, model.ExtractionWikiLink))
	}
	return node, edges
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

// extractUIView handles model.KindUIView: VIEW_TRIGGERS_UC,
// VIEW_USES_COMPONENT.
func extractUIView(doc *model.Document, indexedAt time.Time) (*model.GraphNode, []model.GraphEdge) {
	fields := sectionFields(doc)
	node := newNode(doc, fields, indexedAt)

	var edges []model.GraphEdge
	handled := make(map[string]bool)
	for _, link := range linksInSection(doc, "Casos de Uso Disparados") {
		edges = append(edges, wikiEdge(doc, link, model.EdgeViewTriggersUC, model.ExtractionWikiLink))
		handled[link.Target] = true
	}
	for _, link := range linksInSection(doc, "Componentes Usados") {
		edges = append(edges, wikiEdge(doc, link, model.EdgeViewUsesComp, model.ExtractionWikiLink))
		handled[link.Target] = true
	}
	for _, link := range doc.WikiLinks {
		if handled[link.Target] {
			continue
		}
		edges = append(edges, wikiEdge(doc, link, model.EdgeWikiLink, model.ExtractionWikiLink))
	}
	return node, edges
}

// extractUIComponent handles model.KindUIComponent: COMPONENT_USES_ENTITY.
func extractUIComponent(doc *model.Document, indexedAt time.Time) (*model.GraphNode, []model.GraphEdge) {
	fields := sectionFields(doc)
	node := newNode(doc, fields, indexedAt)

	var edges []model.GraphEdge
	handled := make(map[string]bool)
	for _, link := range linksInSection(doc, "Entidades Usadas") {
		edges = append(edges, wikiEdge(doc, link, model.EdgeComponentUses, model.ExtractionWikiLink))
		handled[link.Target] = true
	}
	for _, link := range doc.WikiLinks {
		if handled[link.Target] {
			continue
		}
		edges = append(edges, wikiEdge(doc, link, model.EdgeWikiLink, model.ExtractionWikiLink))
	}
	return node, edges
}

// extractRequirement handles model.KindRequirement: REQ_TRACES_TO from
// "## Trazabilidad".
func extractRequirement(doc *model.Document, indexedAt time.Time) (*model.GraphNode, []model.GraphEdge) {
	fields := sectionFields(doc)
	node := newNode(doc, fields, indexedAt)

	var edges []model.GraphEdge
	handled := make(map[string]bool)
	for _, link := range linksInSection(doc, "Trazabilidad") {
		edges = append(edges, wikiEdge(doc, link, model.EdgeReqTracesTo, model.ExtractionWikiLink))
		handled[link.Target] = true
	}
	for _, link := range doc.WikiLinks {
		if handled[link.Target] {
			continue
		}
		edges = append(edges, wikiEdge(doc, link, model.EdgeWikiLink, model.ExtractionWikiLink))
	}
	return node, edges
}

// extractADR handles model.KindADR: DECIDES_FOR to every wiki-link anywhere.
func extractADR(doc *model.Document, indexedAt time.Time) (*model.GraphNode, []model.GraphEdge) {
	fields := sectionFields(doc)
	node := newNode(doc, fields, indexedAt)

	var edges []model.GraphEdge
	for _, link := range doc.WikiLinks {
		edges = append(edges, wikiEdge(doc, link, model.EdgeDecidesFor, model.ExtractionWikiLink))
	}
	return node, edges
}
