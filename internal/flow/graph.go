package flow

import (
	"fmt"

	"figflow/pkg/contracts/domain"
)

// BuildGraph assigns stable node indices in first-seen edge order and emits
// the node/link structure consumed by the rendering layer. Node indices are
// stable within one build only.
//
// Zero-edge aggregation yields a valid empty graph with Empty set; nodes
// appear only as edge endpoints, so filtering can never leave isolated nodes
// dangling in the output.
func BuildGraph(agg *AggregateResult, policy Policy) *domain.FlowGraph {
	graph := &domain.FlowGraph{
		Nodes: []domain.GraphNode{},
		Links: []domain.GraphLink{},
	}
	indices := make(map[NodeKey]int, agg.Len())

	nodeIndex := func(key NodeKey) int {
		if idx, ok := indices[key]; ok {
			return idx
		}
		idx := len(graph.Nodes)
		indices[key] = idx
		graph.Nodes = append(graph.Nodes, domain.GraphNode{
			Region:   key.Region,
			Activity: key.Activity,
			Label:    NodeLabel(key),
		})
		return idx
	}

	agg.Edges(func(key EdgeKey, value float64) {
		if policy.DropZeroEdges && value == 0 {
			return
		}
		graph.Links = append(graph.Links, domain.GraphLink{
			Source: nodeIndex(key.Source),
			Target: nodeIndex(key.Target),
			Value:  value,
		})
	})

	graph.Empty = len(graph.Links) == 0
	return graph
}

// NodeLabel formats a node key as the "region/activity" label shown on the
// diagram.
func NodeLabel(key NodeKey) string {
	return fmt.Sprintf("%s/%s", key.Region, key.Activity)
}
