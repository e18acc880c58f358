package figaro

// SourceReport summarizes row-level issues encountered while parsing one
// source file. Row-level issues never abort the load; they are counted here
// so the process owner can judge data quality.
type SourceReport struct {
	Path          string   `json:"path"`
	RowsRead      int      `json:"rows_read"`
	RowsLoaded    int      `json:"rows_loaded"`
	RowsExcluded  int      `json:"rows_excluded"`
	MissingValues int      `json:"missing_values"`
	Samples       []string `json:"samples,omitempty"`
}

// maxReportSamples bounds the number of excluded-row samples kept per source.
const maxReportSamples = 5

func (r *SourceReport) exclude(sample string) {
	r.RowsExcluded++
	if len(r.Samples) < maxReportSamples {
		r.Samples = append(r.Samples, sample)
	}
}

// Report aggregates the source reports of one load.
type Report struct {
	Exports SourceReport `json:"exports"`
	Imports SourceReport `json:"imports"`
}

// TotalExcluded returns the combined excluded row count of both sources.
func (r *Report) TotalExcluded() int {
	return r.Exports.RowsExcluded + r.Imports.RowsExcluded
}

// TotalLoaded returns the combined loaded record count of both sources.
func (r *Report) TotalLoaded() int {
	return r.Exports.RowsLoaded + r.Imports.RowsLoaded
}
