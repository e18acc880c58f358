package flow

import (
	"iter"

	"figflow/pkg/contracts/domain"
)

// FilterSpec is the per-request selection of flow records. Constructed fresh
// per request and treated as immutable.
type FilterSpec struct {
	Year           int      `json:"year"`
	Level          int      `json:"level"`
	MinValue       float64  `json:"min_value"`
	Regions        []string `json:"regions,omitempty"` // empty means all regions
	IncludeImports bool     `json:"include_imports"`
	IncludeExports bool     `json:"include_exports"`
}

// Filter returns a lazy, restartable sequence of the records in rs matching
// spec. Records are yielded in record-set order, which makes downstream
// aggregation deterministic.
//
// A record passes iff its year equals spec.Year, its value is at or above
// spec.MinValue, its direction is enabled, and, when the region set is
// non-empty, at least one endpoint region is in the set. With both direction
// flags disabled the sequence is empty; that is valid output, not an error.
// A negative MinValue is clamped to zero.
func Filter(rs *domain.RecordSet, spec FilterSpec) iter.Seq[domain.FlowRecord] {
	minValue := spec.MinValue
	if minValue < 0 {
		minValue = 0
	}

	var regions map[string]struct{}
	if len(spec.Regions) > 0 {
		regions = make(map[string]struct{}, len(spec.Regions))
		for _, r := range spec.Regions {
			regions[r] = struct{}{}
		}
	}

	return func(yield func(domain.FlowRecord) bool) {
		if !spec.IncludeImports && !spec.IncludeExports {
			return
		}
		for _, rec := range rs.Records {
			if rec.Year != spec.Year {
				continue
			}
			if rec.Value < minValue {
				continue
			}
			switch rec.Direction {
			case domain.DirectionImport:
				if !spec.IncludeImports {
					continue
				}
			case domain.DirectionExport:
				if !spec.IncludeExports {
					continue
				}
			default:
				continue
			}
			if regions != nil {
				_, originOK := regions[rec.OriginRegion]
				_, destOK := regions[rec.DestinationRegion]
				if !originOK && !destOK {
					continue
				}
			}
			if !yield(rec) {
				return
			}
		}
	}
}
