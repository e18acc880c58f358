package flow

import (
	"context"
	"iter"

	"figflow/internal/nace"
	"figflow/pkg/contracts/domain"
)

// Policy holds the configurable edge policies whose behavior the upstream
// data leaves ambiguous. Defaults (both false) keep zero-value edges and
// display self-loops, matching the source dataset's own conventions.
type Policy struct {
	DropZeroEdges     bool `json:"drop_zero_edges"`
	SuppressSelfLoops bool `json:"suppress_self_loops"`
}

// NodeKey identifies a graph node: a (region, rolled-up activity) pair.
type NodeKey struct {
	Region   string
	Activity string
}

// EdgeKey is an ordered (origin, destination) node pair.
type EdgeKey struct {
	Source NodeKey
	Target NodeKey
}

// AggregateResult holds summed edge values keyed by node pair, with edge keys
// retained in first-seen order so graph building is deterministic.
type AggregateResult struct {
	order []EdgeKey
	sums  map[EdgeKey]float64

	// DroppedRecords counts records excluded because their activity code
	// could not be rolled up.
	DroppedRecords int
}

// Edges iterates the aggregated edges in first-seen order.
func (r *AggregateResult) Edges(visit func(key EdgeKey, value float64)) {
	for _, key := range r.order {
		visit(key, r.sums[key])
	}
}

// Len returns the number of distinct aggregated edges.
func (r *AggregateResult) Len() int {
	return len(r.order)
}

// cancelCheckInterval is how many records are processed between context
// checks during aggregation.
const cancelCheckInterval = 4096

// Aggregate rolls every record's endpoints up to the target level and sums
// values per ordered (origin, destination) node pair. Summation is plain
// float64 addition in traversal order; with a deterministic input sequence
// the result is reproducible bit for bit.
//
// Records whose activity code fails rollup are dropped and counted rather
// than failing the request. Cancellation aborts with ctx.Err() and no
// partial result.
func Aggregate(ctx context.Context, records iter.Seq[domain.FlowRecord], h *nace.Hierarchy, level int, policy Policy) (*AggregateResult, error) {
	result := &AggregateResult{
		sums: make(map[EdgeKey]float64),
	}

	n := 0
	for rec := range records {
		n++
		if n%cancelCheckInterval == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}

		originActivity, err := h.Rollup(rec.OriginActivity, level)
		if err != nil {
			result.DroppedRecords++
			continue
		}
		destActivity, err := h.Rollup(rec.DestinationActivity, level)
		if err != nil {
			result.DroppedRecords++
			continue
		}

		key := EdgeKey{
			Source: NodeKey{Region: rec.OriginRegion, Activity: originActivity},
			Target: NodeKey{Region: rec.DestinationRegion, Activity: destActivity},
		}
		if policy.SuppressSelfLoops && key.Source == key.Target {
			continue
		}

		if _, seen := result.sums[key]; !seen {
			result.order = append(result.order, key)
		}
		result.sums[key] += rec.Value
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	return result, nil
}
