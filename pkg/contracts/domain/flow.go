package domain

import (
	"time"
)

// Direction indicates which of the two FIGARO sources a flow record came from.
type Direction string

const (
	DirectionImport Direction = "import"
	DirectionExport Direction = "export"
)

// IsValid reports whether the direction is one of the two known values.
func (d Direction) IsValid() bool {
	return d == DirectionImport || d == DirectionExport
}

// FlowRecord is a single observed monetary trade flow between an origin and a
// destination (region, activity) pair for one year. Records are created once
// at load time and never mutated afterwards.
type FlowRecord struct {
	OriginRegion        string    `json:"origin_region"`
	OriginActivity      string    `json:"origin_activity"`
	DestinationRegion   string    `json:"destination_region"`
	DestinationActivity string    `json:"destination_activity"`
	Direction           Direction `json:"direction"`
	Year                int       `json:"year"`
	Value               float64   `json:"value" validate:"min=0"`
}

// RecordSet is the immutable result of one load of the FIGARO sources.
// It is safe for concurrent readers once constructed; reloads install a
// fresh RecordSet rather than mutating an existing one.
type RecordSet struct {
	SnapshotID string       `json:"snapshot_id"`
	LoadedAt   time.Time    `json:"loaded_at"`
	Records    []FlowRecord `json:"-"`
	Years      []int        `json:"years"`   // sorted ascending
	Regions    []string     `json:"regions"` // sorted ascending
}

// HasYear reports whether the record set contains data for the given year.
func (rs *RecordSet) HasYear(year int) bool {
	for _, y := range rs.Years {
		if y == year {
			return true
		}
	}
	return false
}

// GraphNode is one node of a built flow graph: a (region, rolled-up activity)
// aggregation key. The index of a node in FlowGraph.Nodes is stable for one
// build only; indices may differ between requests.
type GraphNode struct {
	Region   string `json:"region"`
	Activity string `json:"activity"`
	Label    string `json:"label"`
}

// GraphLink is a weighted directed edge between two node indices.
type GraphLink struct {
	Source int     `json:"source"`
	Target int     `json:"target"`
	Value  float64 `json:"value"`
}

// FlowGraph is the node/link structure consumed by the rendering layer.
// An empty graph (no nodes, no links) is valid output, flagged via Empty so
// callers can distinguish it from a failed build.
type FlowGraph struct {
	Nodes []GraphNode `json:"nodes"`
	Links []GraphLink `json:"links"`
	Empty bool        `json:"empty"`
}

// TotalValue returns the sum of all link values in the graph.
func (g *FlowGraph) TotalValue() float64 {
	var total float64
	for _, l := range g.Links {
		total += l.Value
	}
	return total
}
