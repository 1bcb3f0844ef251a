package model

import "time"

// NodeID formats the stable, globally unique identity of a persisted node.
func NodeID(kind Kind, documentID string) string {
	return string(kind) + ":" + documentID
}

// GraphNode is the persistent, typed representation of one indexed
// document. Exactly one node exists per persisted source document.
type GraphNode struct {
	ID            string         `json:"id"`
	Kind          Kind           `json:"kind"`
	SourceFile    string         `json:"source_file"`
	SourceHash    string         `json:"source_hash"`
	Layer         Layer          `json:"layer"`
	Status        Status         `json:"status"`
	Aliases       []string       `json:"aliases,omitempty"`
	Domain        string         `json:"domain,omitempty"`
	IndexedFields map[string]any `json:"indexed_fields"`
	IndexedAt     time.Time      `json:"indexed_at"`
}

// DocumentID returns the portion of the node id after the "Kind:" prefix.
func (n *GraphNode) DocumentID() string {
	prefix := string(n.Kind) + ":"
	if len(n.ID) > len(prefix) && n.ID[:len(prefix)] == prefix {
		return n.ID[len(prefix):]
	}
	return n.ID
}

// SearchableText returns the tokens the lexical index should see for this
// node: its id, its aliases, and every string value found in IndexedFields.
func (n *GraphNode) SearchableText() []string {
	text := []string{n.ID}
	text = append(text, n.Aliases...)
	for _, v := range n.IndexedFields {
		appendStrings(&text, v)
	}
	return text
}

func appendStrings(out *[]string, v any) {
	switch val := v.(type) {
	case string:
		*out = append(*out, val)
	case []string:
		*out = append(*out, val...)
	case []any:
		for _, item := range val {
			appendStrings(out, item)
		}
	case map[string]any:
		for _, item := range val {
			appendStrings(out, item)
		}
	}
}
