package graph

import "github.com/siherrmann/kddindex/model"

// TraversalResult pairs a node with its hop distance from the traversal
// source and the path taken to reach it, mirroring the teacher's
// TraversalResult{Chunk, Distance, Path} shape with node ids in place of
// chunk uuids.
type TraversalResult struct {
	NodeID   string
	Distance int
	Path     []string
}

// Traverse performs a breadth-first walk from sourceID out to maxHops,
// following edges restricted to edgeTypes (all types when empty) and
// optionally walking Bidirectional edges against their declared direction.
// Used by Q-graph, Q-hybrid and Q-context (§4.6, §4.12).
func (s *Store) Traverse(sourceID string, maxHops int, edgeTypes []model.EdgeType, followBidirectional bool) ([]*TraversalResult, error) {
	if _, err := s.GetNode(sourceID); err != nil {
		return nil, err
	}

	visited := map[string]bool{sourceID: true}
	queue := []TraversalResult{{NodeID: sourceID, Distance: 0, Path: []string{sourceID}}}
	var results []*TraversalResult

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		results = append(results, &current)

		if current.Distance >= maxHops {
			continue
		}

		for _, e := range s.OutgoingEdges(current.NodeID, edgeTypes, followBidirectional) {
			targetID := e.ToNode
			if e.Bidirectional && e.ToNode == current.NodeID {
				targetID = e.FromNode
			}
			if visited[targetID] || !s.HasNode(targetID) {
				continue
			}
			visited[targetID] = true

			path := make([]string, len(current.Path), len(current.Path)+1)
			copy(path, current.Path)
			path = append(path, targetID)

			queue = append(queue, TraversalResult{NodeID: targetID, Distance: current.Distance + 1, Path: path})
		}
	}

	return results, nil
}

// Neighbors returns the immediate (1-hop) neighbors of nodeID.
func (s *Store) Neighbors(nodeID string, edgeTypes []model.EdgeType, followBidirectional bool) ([]string, error) {
	results, err := s.Traverse(nodeID, 1, edgeTypes, followBidirectional)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(results)-1)
	for _, r := range results {
		if r.Distance > 0 {
			out = append(out, r.NodeID)
		}
	}
	return out, nil
}
