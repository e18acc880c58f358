package flow

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"figflow/internal/nace"
	"figflow/pkg/contracts/domain"
)

const epsilon = 1e-9

func buildFor(t *testing.T, rs *domain.RecordSet, spec FilterSpec, policy Policy) *domain.FlowGraph {
	t.Helper()
	agg, err := Aggregate(context.Background(), Filter(rs, spec), nace.NewHierarchy(), spec.Level, policy)
	require.NoError(t, err)
	return BuildGraph(agg, policy)
}

// Two same-pair records at rollup level 2 collapse into a single summed edge.
func TestAggregateRollupScenario(t *testing.T) {
	rs := &domain.RecordSet{
		Records: []domain.FlowRecord{
			{OriginRegion: "AT", OriginActivity: "A0111", DestinationRegion: "DE", DestinationActivity: "C1011", Direction: domain.DirectionExport, Year: 2020, Value: 500},
			{OriginRegion: "AT", OriginActivity: "A0112", DestinationRegion: "DE", DestinationActivity: "C1012", Direction: domain.DirectionExport, Year: 2020, Value: 300},
		},
	}
	spec := FilterSpec{Year: 2020, Level: 2, IncludeExports: true, IncludeImports: true}

	graph := buildFor(t, rs, spec, Policy{})
	require.Len(t, graph.Links, 1)
	require.Len(t, graph.Nodes, 2)
	assert.False(t, graph.Empty)
	assert.Equal(t, "AT/A01", graph.Nodes[graph.Links[0].Source].Label)
	assert.Equal(t, "DE/C10", graph.Nodes[graph.Links[0].Target].Label)
	assert.InDelta(t, 800, graph.Links[0].Value, epsilon)

	t.Run("min value above all records yields empty graph", func(t *testing.T) {
		spec := spec
		spec.MinValue = 900
		graph := buildFor(t, rs, spec, Policy{})
		assert.True(t, graph.Empty)
		assert.Empty(t, graph.Nodes)
		assert.Empty(t, graph.Links)
	})
}

// Conservation: the sum of filtered record values equals the sum of edge
// values in the built graph.
func TestGraphConservation(t *testing.T) {
	rs := testRecordSet()
	specs := []FilterSpec{
		{Year: 2020, Level: 1, IncludeImports: true, IncludeExports: true},
		{Year: 2020, Level: 2, IncludeExports: true},
		{Year: 2019, Level: 4, IncludeImports: true, IncludeExports: true},
		{Year: 2020, Level: 3, MinValue: 200, IncludeImports: true, IncludeExports: true},
	}

	for _, spec := range specs {
		var want float64
		for rec := range Filter(rs, spec) {
			want += rec.Value
		}
		graph := buildFor(t, rs, spec, Policy{})
		assert.InDelta(t, want, graph.TotalValue(), epsilon)
	}
}

// Raising the threshold can only shrink the edge set.
func TestThresholdMonotonic(t *testing.T) {
	rs := testRecordSet()
	base := FilterSpec{Year: 2020, Level: 2, IncludeImports: true, IncludeExports: true}

	prevLinks := -1
	for _, min := range []float64{0, 100, 300, 600, 1e6} {
		spec := base
		spec.MinValue = min
		graph := buildFor(t, rs, spec, Policy{})
		if prevLinks >= 0 {
			assert.LessOrEqual(t, len(graph.Links), prevLinks)
		}
		prevLinks = len(graph.Links)
	}
}

func TestGraphDeterminism(t *testing.T) {
	rs := testRecordSet()
	spec := FilterSpec{Year: 2020, Level: 2, IncludeImports: true, IncludeExports: true}

	first, err := json.Marshal(buildFor(t, rs, spec, Policy{}))
	require.NoError(t, err)
	second, err := json.Marshal(buildFor(t, rs, spec, Policy{}))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAggregatePolicies(t *testing.T) {
	t.Run("self loops kept by default, suppressed on request", func(t *testing.T) {
		rs := &domain.RecordSet{
			Records: []domain.FlowRecord{
				{OriginRegion: "AT", OriginActivity: "A0111", DestinationRegion: "AT", DestinationActivity: "A0112", Direction: domain.DirectionExport, Year: 2020, Value: 50},
			},
		}
		spec := FilterSpec{Year: 2020, Level: 2, IncludeExports: true}

		graph := buildFor(t, rs, spec, Policy{})
		require.Len(t, graph.Links, 1)
		assert.Equal(t, graph.Links[0].Source, graph.Links[0].Target)
		assert.Len(t, graph.Nodes, 1)

		graph = buildFor(t, rs, spec, Policy{SuppressSelfLoops: true})
		assert.True(t, graph.Empty)
		assert.Empty(t, graph.Nodes)
	})

	t.Run("zero-value edges kept by default, pruned on request", func(t *testing.T) {
		rs := &domain.RecordSet{
			Records: []domain.FlowRecord{
				{OriginRegion: "BE", OriginActivity: "J62", DestinationRegion: "FR", DestinationActivity: "C10", Direction: domain.DirectionImport, Year: 2020, Value: 0},
			},
		}
		spec := FilterSpec{Year: 2020, Level: 2, IncludeImports: true}

		graph := buildFor(t, rs, spec, Policy{})
		require.Len(t, graph.Links, 1)
		assert.Zero(t, graph.Links[0].Value)

		graph = buildFor(t, rs, spec, Policy{DropZeroEdges: true})
		assert.True(t, graph.Empty)
	})
}

func TestAggregateDropsUnknownCodes(t *testing.T) {
	rs := &domain.RecordSet{
		Records: []domain.FlowRecord{
			{OriginRegion: "AT", OriginActivity: "Z999", DestinationRegion: "DE", DestinationActivity: "C10", Direction: domain.DirectionExport, Year: 2020, Value: 10},
			{OriginRegion: "AT", OriginActivity: "A01", DestinationRegion: "DE", DestinationActivity: "C10", Direction: domain.DirectionExport, Year: 2020, Value: 20},
		},
	}
	spec := FilterSpec{Year: 2020, Level: 1, IncludeExports: true}

	agg, err := Aggregate(context.Background(), Filter(rs, spec), nace.NewHierarchy(), spec.Level, Policy{})
	require.NoError(t, err)
	assert.Equal(t, 1, agg.DroppedRecords)
	assert.Equal(t, 1, agg.Len())
}

func TestAggregateCancellation(t *testing.T) {
	records := make([]domain.FlowRecord, cancelCheckInterval*2)
	for i := range records {
		records[i] = domain.FlowRecord{
			OriginRegion: "AT", OriginActivity: "A01",
			DestinationRegion: "DE", DestinationActivity: "C10",
			Direction: domain.DirectionExport, Year: 2020, Value: 1,
		}
	}
	rs := &domain.RecordSet{Records: records}
	spec := FilterSpec{Year: 2020, Level: 1, IncludeExports: true}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	agg, err := Aggregate(ctx, Filter(rs, spec), nace.NewHierarchy(), spec.Level, Policy{})
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, agg, "cancellation must not yield a partial result")
}
