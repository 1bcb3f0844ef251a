// Package graph implements the in-memory directed labeled multigraph (C6)
// that backs Q-graph, Q-impact, Q-coverage, Q-layer-violations and
// Q-orphans. Node and edge lookups are adapted from the teacher's
// GraphDB-backed traversal (core/graph/traversal.go), replacing its
// context-bound Postgres reads with direct map access since the whole
// graph lives in memory for the process lifetime (§4.6, §9 "global
// mutable state" note).
package graph

import (
	"sort"
	"strings"

	"github.com/siherrmann/kddindex/internal/kerr"
	"github.com/siherrmann/kddindex/model"
)

// Store is the in-memory multigraph: nodes keyed by id, adjacency indexed
// by edge type in both directions, plus a by-kind index and a lexical
// inverted index used by Q-context's hint matching and Q-hybrid's lexical
// signal.
type Store struct {
	nodes map[string]*model.GraphNode

	// out[nodeID][edgeType] holds edges where nodeID is the FromNode.
	out map[string]map[model.EdgeType][]*model.GraphEdge
	// in[nodeID][edgeType] holds edges where nodeID is the ToNode.
	in map[string]map[model.EdgeType][]*model.GraphEdge

	byKind  map[model.Kind][]string
	lexical map[string][]string // lowercase token -> node ids containing it

	// names maps a lowercased bare name (a node's DocumentID or any of its
	// aliases) to its node id, so wiki-link-derived edges — which carry a
	// raw display name like "Customer" rather than "entity:customer" — can
	// be resolved to the node they actually reference (§4.3, §4.6).
	names map[string]string

	orphans []model.OrphanEdge
	edgeN   int
}

// New returns an empty graph Store.
func New() *Store {
	return &Store{
		nodes:   make(map[string]*model.GraphNode),
		out:     make(map[string]map[model.EdgeType][]*model.GraphEdge),
		in:      make(map[string]map[model.EdgeType][]*model.GraphEdge),
		byKind:  make(map[model.Kind][]string),
		lexical: make(map[string][]string),
		names:   make(map[string]string),
	}
}

// Load replaces the graph's contents with nodes and edges, as done once at
// startup by the loader (§4.8) and after every merge (§4.11).
func Load(nodes []*model.GraphNode, edges []model.GraphEdge) *Store {
	s := New()
	s.Reset(nodes, edges)
	return s
}

// Reset clears s in place and rebuilds it from nodes and edges, preserving
// s's identity so holders of the *Store see the rebuilt graph without a
// pointer swap. Used after a batch of incremental IndexDocument calls,
// where edges extracted before their target document was indexed would
// otherwise stay permanently orphaned in the live graph even though the
// target arrives later in the same batch (§4.9).
func (s *Store) Reset(nodes []*model.GraphNode, edges []model.GraphEdge) {
	s.nodes = make(map[string]*model.GraphNode)
	s.out = make(map[string]map[model.EdgeType][]*model.GraphEdge)
	s.in = make(map[string]map[model.EdgeType][]*model.GraphEdge)
	s.byKind = make(map[model.Kind][]string)
	s.lexical = make(map[string][]string)
	s.names = make(map[string]string)
	s.orphans = nil
	s.edgeN = 0

	for _, n := range nodes {
		s.AddNode(n)
	}
	for _, e := range edges {
		s.addEdge(e)
	}
}

// AddNode inserts or replaces a node and indexes it by kind and lexical
// token.
func (s *Store) AddNode(n *model.GraphNode) {
	if _, exists := s.nodes[n.ID]; !exists {
		s.byKind[n.Kind] = append(s.byKind[n.Kind], n.ID)
	}
	s.nodes[n.ID] = n
	for _, text := range n.SearchableText() {
		for _, token := range tokenize(text) {
			s.lexical[token] = appendUnique(s.lexical[token], n.ID)
		}
	}

	s.names[strings.ToLower(n.DocumentID())] = n.ID
	for _, alias := range n.Aliases {
		s.names[strings.ToLower(alias)] = n.ID
	}
}

// resolve maps a raw edge endpoint (a node id, a bare display name, or a
// "domain::Name" cross-domain reference) to the actual node id it names,
// when one is known. Returns the input unchanged when no node matches,
// which addEdge then reports as an orphan.
func (s *Store) resolve(raw string) string {
	if s.HasNode(raw) {
		return raw
	}
	name := raw
	if idx := strings.Index(name, "::"); idx >= 0 {
		name = name[idx+2:]
	}
	if id, ok := s.names[strings.ToLower(name)]; ok {
		return id
	}
	return raw
}

// RemoveNode deletes a node and every edge incident to it (cascading
// delete, §3.1/§4.10).
func (s *Store) RemoveNode(nodeID string) {
	n, ok := s.nodes[nodeID]
	if !ok {
		return
	}
	delete(s.nodes, nodeID)
	s.byKind[n.Kind] = removeString(s.byKind[n.Kind], nodeID)

	for edgeType, edges := range s.out[nodeID] {
		for _, e := range edges {
			s.removeFromIndex(s.in, e.ToNode, edgeType, e)
			s.edgeN--
		}
	}
	delete(s.out, nodeID)

	for edgeType, edges := range s.in[nodeID] {
		for _, e := range edges {
			s.removeFromIndex(s.out, e.FromNode, edgeType, e)
			s.edgeN--
		}
	}
	delete(s.in, nodeID)
}

func (s *Store) removeFromIndex(idx map[string]map[model.EdgeType][]*model.GraphEdge, nodeID string, edgeType model.EdgeType, target *model.GraphEdge) {
	bucket := idx[nodeID][edgeType]
	for i, e := range bucket {
		if e == target {
			idx[nodeID][edgeType] = append(bucket[:i], bucket[i+1:]...)
			return
		}
	}
}

// AddEdges inserts edges into the live graph, resolving each endpoint
// through the name index as it goes. Used by the indexer to register one
// document's freshly extracted edges immediately after persisting them,
// without requiring a full reload.
func (s *Store) AddEdges(edges []model.GraphEdge) {
	for _, e := range edges {
		s.addEdge(e)
	}
}

func (s *Store) addEdge(e model.GraphEdge) {
	edge := e
	edge.FromNode = s.resolve(edge.FromNode)
	edge.ToNode = s.resolve(edge.ToNode)
	if s.out[edge.FromNode] == nil {
		s.out[edge.FromNode] = make(map[model.EdgeType][]*model.GraphEdge)
	}
	s.out[edge.FromNode][edge.EdgeType] = append(s.out[edge.FromNode][edge.EdgeType], &edge)

	if s.in[edge.ToNode] == nil {
		s.in[edge.ToNode] = make(map[model.EdgeType][]*model.GraphEdge)
	}
	s.in[edge.ToNode][edge.EdgeType] = append(s.in[edge.ToNode][edge.EdgeType], &edge)

	s.edgeN++

	_, hasFrom := s.nodes[edge.FromNode]
	_, hasTo := s.nodes[edge.ToNode]
	switch {
	case !hasFrom && !hasTo:
		s.orphans = append(s.orphans, model.OrphanEdge{Edge: edge, Reason: model.OrphanBothMissing})
	case !hasFrom:
		s.orphans = append(s.orphans, model.OrphanEdge{Edge: edge, Reason: model.OrphanMissingSource})
	case !hasTo:
		s.orphans = append(s.orphans, model.OrphanEdge{Edge: edge, Reason: model.OrphanMissingTarget})
	}
}

// HasNode reports whether nodeID is present.
func (s *Store) HasNode(nodeID string) bool {
	_, ok := s.nodes[nodeID]
	return ok
}

// GetNode returns the node for nodeID, or an error tagged CodeNodeNotFound.
func (s *Store) GetNode(nodeID string) (*model.GraphNode, error) {
	n, ok := s.nodes[nodeID]
	if !ok {
		return nil, kerr.NewCode("get node", kerr.CodeNodeNotFound, kerr.NewMessage("get node", kerr.CodeNodeNotFound, nodeID))
	}
	return n, nil
}

// NodesOfKind returns every node id routed to kind, in insertion order.
func (s *Store) NodesOfKind(kind model.Kind) []string {
	out := make([]string, len(s.byKind[kind]))
	copy(out, s.byKind[kind])
	return out
}

// NodeCount returns the number of nodes currently held.
func (s *Store) NodeCount() int {
	return len(s.nodes)
}

// AllNodes returns every node currently held, in no particular order.
func (s *Store) AllNodes() []*model.GraphNode {
	out := make([]*model.GraphNode, 0, len(s.nodes))
	for _, n := range s.nodes {
		out = append(out, n)
	}
	return out
}

// AllEdges returns every edge currently held, in no particular order.
func (s *Store) AllEdges() []model.GraphEdge {
	out := make([]model.GraphEdge, 0, s.edgeN)
	for _, byType := range s.out {
		for _, edges := range byType {
			for _, e := range edges {
				out = append(out, *e)
			}
		}
	}
	return out
}

// EdgeCount returns the number of edges currently held.
func (s *Store) EdgeCount() int {
	return s.edgeN
}

// OutgoingEdges returns edges with FromNode == nodeID, restricted to
// edgeTypes when non-empty, optionally including edges where nodeID is the
// ToNode of a Bidirectional edge of one of edgeTypes.
func (s *Store) OutgoingEdges(nodeID string, edgeTypes []model.EdgeType, followBidirectional bool) []*model.GraphEdge {
	var result []*model.GraphEdge
	result = append(result, matchingByType(s.out[nodeID], edgeTypes)...)
	if followBidirectional {
		for _, e := range matchingByType(s.in[nodeID], edgeTypes) {
			if e.Bidirectional {
				result = append(result, e)
			}
		}
	}
	return result
}

// IncomingEdges returns edges with ToNode == nodeID, restricted to
// edgeTypes when non-empty.
func (s *Store) IncomingEdges(nodeID string, edgeTypes []model.EdgeType) []*model.GraphEdge {
	return matchingByType(s.in[nodeID], edgeTypes)
}

func matchingByType(bucket map[model.EdgeType][]*model.GraphEdge, edgeTypes []model.EdgeType) []*model.GraphEdge {
	if len(edgeTypes) == 0 {
		var all []*model.GraphEdge
		for _, edges := range bucket {
			all = append(all, edges...)
		}
		return all
	}
	var out []*model.GraphEdge
	for _, t := range edgeTypes {
		out = append(out, bucket[t]...)
	}
	return out
}

// OrphanEdges returns every edge whose source and/or target node is absent
// from the loaded node set (Q-orphans, §4.12).
func (s *Store) OrphanEdges() []model.OrphanEdge {
	out := make([]model.OrphanEdge, len(s.orphans))
	copy(out, s.orphans)
	return out
}

// TextSearch returns node ids whose searchable text contains at least one
// token in query (case-insensitive), ranked by number of matched tokens then
// id. A multi-token query is not restricted to nodes containing every token.
func (s *Store) TextSearch(query string) []string {
	tokens := tokenize(query)
	if len(tokens) == 0 {
		return nil
	}
	counts := make(map[string]int)
	for _, token := range tokens {
		for _, id := range s.lexical[token] {
			counts[id]++
		}
	}
	ids := make([]string, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if counts[ids[i]] != counts[ids[j]] {
			return counts[ids[i]] > counts[ids[j]]
		}
		return ids[i] < ids[j]
	})
	return ids
}

// Tokenize exposes the exact tokenizer the lexical index was built with, so
// callers scoring lexical matches (Q-hybrid's lexical pass) tokenize a query
// the same way a node's searchable text was tokenized at index time.
func Tokenize(text string) []string {
	return tokenize(text)
}

// LexicalTokenMatches returns, for every node id whose searchable text
// contains at least one of tokens, the count of distinct tokens matched.
// Duplicate tokens in the input count once.
func (s *Store) LexicalTokenMatches(tokens []string) map[string]int {
	seen := make(map[string]bool, len(tokens))
	counts := make(map[string]int)
	for _, token := range tokens {
		if seen[token] {
			continue
		}
		seen[token] = true
		for _, id := range s.lexical[token] {
			counts[id]++
		}
	}
	return counts
}

// ContainsPhrase reports whether nodeID's searchable text contains phrase
// as a case-insensitive substring, used for Q-hybrid's lexical exact-phrase
// bonus.
func (s *Store) ContainsPhrase(nodeID, phrase string) bool {
	n, ok := s.nodes[nodeID]
	if !ok {
		return false
	}
	phrase = strings.ToLower(phrase)
	if phrase == "" {
		return false
	}
	for _, text := range n.SearchableText() {
		if strings.Contains(strings.ToLower(text), phrase) {
			return true
		}
	}
	return false
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-' || r == '_')
	})
	return fields
}

func appendUnique(existing []string, id string) []string {
	for _, e := range existing {
		if e == id {
			return existing
		}
	}
	return append(existing, id)
}

func removeString(existing []string, id string) []string {
	for i, e := range existing {
		if e == id {
			return append(existing[:i], existing[i+1:]...)
		}
	}
	return existing
}
