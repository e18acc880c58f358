// Package flow implements the request-time processing pipeline that turns a
// loaded record set into a renderable flow graph.
//
// The pipeline has three stages, each operating on request-local data:
//
//	Filter: lazy selection of records by year, direction, threshold and
//	region set.
//	Aggregate: classification rollup and summation into weighted
//	(origin, destination) pairs.
//	BuildGraph: stable index assignment and node/link emission.
//
// All three stages are deterministic: the same filter spec against the same
// record set produces byte-identical output, because records are traversed in
// slice order and aggregation keys retain first-seen order.
package flow
