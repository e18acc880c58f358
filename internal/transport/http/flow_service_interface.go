package http

import (
	"context"

	"figflow/internal/figaro"
	"figflow/internal/services"
)

// FlowServiceInterface is the contract the flows handler needs from the
// service layer. It exists so handler tests can substitute a mock.
type FlowServiceInterface interface {
	// BuildGraph runs the filter, aggregate and build pipeline against the
	// current snapshot.
	BuildGraph(ctx context.Context, req services.GraphRequest) (*services.GraphResult, error)

	// Reload loads both sources and atomically installs a new snapshot.
	Reload(ctx context.Context) error

	// AvailableYears returns the sorted years covered by the snapshot.
	AvailableYears(ctx context.Context) ([]int, error)

	// Regions returns the sorted region codes present in the snapshot.
	Regions(ctx context.Context) ([]string, error)

	// LoadReport returns the row-level quality report of the current
	// snapshot's load.
	LoadReport(ctx context.Context) (*figaro.Report, error)

	// SnapshotID identifies the current snapshot, empty when none loaded.
	SnapshotID() string
}
