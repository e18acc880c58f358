package figaro

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"figflow/internal/nace"
	"figflow/pkg/contracts/domain"
)

// schemaFields is the versioned metadata layout of the first TSV column.
// Any reordering of these fields is a schema mismatch and fails the load.
const schemaFields = "freq,geo,c_geo,nace_r2,c_nace_r2,unit"

// missingValue is the Eurostat placeholder for a value that was not observed.
const missingValue = ":"

// Loader parses FIGARO TSV sources into record sets. It holds no mutable
// state; the caller owns the returned RecordSet and decides whether to cache
// it.
type Loader struct {
	hierarchy *nace.Hierarchy
	logger    *slog.Logger
}

// NewLoader creates a loader that validates activity codes against the given
// hierarchy.
func NewLoader(hierarchy *nace.Hierarchy, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		hierarchy: hierarchy,
		logger:    logger.With(slog.String("component", "figaro_loader")),
	}
}

// Load parses the exports and imports sources concurrently and merges them
// into one direction-tagged record set. Fatal structural problems return a
// *LoadError; row-level problems are recorded in the returned Report.
func (l *Loader) Load(ctx context.Context, exportsPath, importsPath string) (*domain.RecordSet, *Report, error) {
	start := time.Now()

	var (
		exports, imports parsedSource
		g, gctx          = errgroup.WithContext(ctx)
	)

	g.Go(func() error {
		var err error
		exports, err = l.loadSource(gctx, exportsPath, domain.DirectionExport)
		return err
	})
	g.Go(func() error {
		var err error
		imports, err = l.loadSource(gctx, importsPath, domain.DirectionImport)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	report := &Report{
		Exports: exports.report,
		Imports: imports.report,
	}

	records := make([]domain.FlowRecord, 0, len(exports.records)+len(imports.records))
	records = append(records, exports.records...)
	records = append(records, imports.records...)

	rs := &domain.RecordSet{
		SnapshotID: uuid.New().String(),
		LoadedAt:   time.Now().UTC(),
		Records:    records,
		Years:      mergeYears(exports.years, imports.years),
		Regions:    collectRegions(records),
	}

	l.logger.InfoContext(ctx, "record set loaded",
		slog.String("snapshot_id", rs.SnapshotID),
		slog.Int("records", len(rs.Records)),
		slog.Int("years", len(rs.Years)),
		slog.Int("regions", len(rs.Regions)),
		slog.Int("rows_excluded", report.TotalExcluded()),
		slog.Duration("elapsed", time.Since(start)))

	return rs, report, nil
}

// parsedSource is the result of parsing one TSV file.
type parsedSource struct {
	records []domain.FlowRecord
	years   []int
	report  SourceReport
}

func (l *Loader) loadSource(ctx context.Context, path string, dir domain.Direction) (parsedSource, error) {
	out := parsedSource{report: SourceReport{Path: path}}

	file, err := os.Open(path)
	if err != nil {
		return out, &LoadError{Path: path, Err: err}
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return out, &LoadError{Path: path, Err: err}
		}
		return out, &LoadError{Path: path, Err: ErrEmptySource}
	}

	years, err := parseHeader(scanner.Text())
	if err != nil {
		return out, &LoadError{Path: path, Err: err}
	}
	out.years = years

	lineNo := 1
	for scanner.Scan() {
		lineNo++
		if lineNo%1024 == 0 {
			select {
			case <-ctx.Done():
				return out, ctx.Err()
			default:
			}
		}

		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		out.report.RowsRead++

		cells := strings.Split(line, "\t")
		if len(cells) != len(years)+1 {
			return out, &LoadError{
				Path: path,
				Err:  fmt.Errorf("%w: row %d has %d columns, want %d", ErrSchemaMismatch, lineNo, len(cells), len(years)+1),
			}
		}

		meta := strings.Split(cells[0], ",")
		if len(meta) != 6 {
			out.report.exclude(fmt.Sprintf("row %d: malformed metadata %q", lineNo, cells[0]))
			continue
		}

		region := strings.TrimSpace(meta[1])
		counterpartRegion := strings.TrimSpace(meta[2])
		activity := strings.TrimSpace(meta[3])
		counterpartActivity := strings.TrimSpace(meta[4])

		if !validRegion(region) || !validRegion(counterpartRegion) {
			out.report.exclude(fmt.Sprintf("row %d: unrecognized region in %q", lineNo, cells[0]))
			continue
		}
		if !l.hierarchy.Valid(activity) || !l.hierarchy.Valid(counterpartActivity) {
			out.report.exclude(fmt.Sprintf("row %d: unrecognized activity code in %q", lineNo, cells[0]))
			continue
		}

		loaded := false
		for i, year := range years {
			value, ok := parseValue(cells[i+1])
			if !ok {
				out.report.MissingValues++
				continue
			}

			// The imports source reports flows into the reporting
			// region, so origin and destination swap relative to
			// the exports source.
			rec := domain.FlowRecord{
				OriginRegion:        region,
				OriginActivity:      activity,
				DestinationRegion:   counterpartRegion,
				DestinationActivity: counterpartActivity,
				Direction:           dir,
				Year:                year,
				Value:               value,
			}
			if dir == domain.DirectionImport {
				rec.OriginRegion, rec.DestinationRegion = rec.DestinationRegion, rec.OriginRegion
				rec.OriginActivity, rec.DestinationActivity = rec.DestinationActivity, rec.OriginActivity
			}
			out.records = append(out.records, rec)
			loaded = true
		}
		if loaded {
			out.report.RowsLoaded++
		}
	}

	if err := scanner.Err(); err != nil {
		return out, &LoadError{Path: path, Err: err}
	}
	if out.report.RowsRead == 0 {
		return out, &LoadError{Path: path, Err: ErrEmptySource}
	}

	l.logger.DebugContext(ctx, "source parsed",
		slog.String("path", path),
		slog.String("direction", string(dir)),
		slog.Int("rows_loaded", out.report.RowsLoaded),
		slog.Int("rows_excluded", out.report.RowsExcluded))

	return out, nil
}

// parseHeader validates the header row against the versioned schema and
// extracts the year columns. Eurostat headers carry a "\TIME_PERIOD" suffix
// on the metadata cell; it is tolerated and stripped.
func parseHeader(line string) ([]int, error) {
	cells := strings.Split(line, "\t")
	if len(cells) < 2 {
		return nil, fmt.Errorf("%w: header has no year columns", ErrSchemaMismatch)
	}

	metaCell := cells[0]
	if idx := strings.IndexByte(metaCell, '\\'); idx >= 0 {
		metaCell = metaCell[:idx]
	}
	if strings.TrimSpace(metaCell) != schemaFields {
		return nil, fmt.Errorf("%w: metadata header %q, want %q", ErrSchemaMismatch, metaCell, schemaFields)
	}

	years := make([]int, 0, len(cells)-1)
	for _, cell := range cells[1:] {
		year, err := strconv.Atoi(strings.TrimSpace(cell))
		if err != nil {
			return nil, fmt.Errorf("%w: year column %q is not an integer", ErrSchemaMismatch, cell)
		}
		years = append(years, year)
	}
	return years, nil
}

// parseValue parses one year cell. Empty cells, the Eurostat ":" placeholder,
// unparseable numbers and negative values all count as missing: the value is
// excluded rather than guessed.
func parseValue(cell string) (float64, bool) {
	raw := strings.TrimSpace(cell)
	if raw == "" || raw == missingValue {
		return 0, false
	}
	// Strip observation flags ("123.4 p" style suffixes).
	if idx := strings.IndexByte(raw, ' '); idx >= 0 {
		raw = raw[:idx]
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value < 0 {
		return 0, false
	}
	return value, true
}

// validRegion reports whether code looks like a FIGARO geo code: two
// characters, starting with an uppercase letter, followed by an uppercase
// letter or digit (covers both country codes and rest-of-world aggregates).
func validRegion(code string) bool {
	if len(code) != 2 {
		return false
	}
	if code[0] < 'A' || code[0] > 'Z' {
		return false
	}
	c := code[1]
	return (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func mergeYears(a, b []int) []int {
	seen := make(map[int]struct{}, len(a)+len(b))
	for _, y := range a {
		seen[y] = struct{}{}
	}
	for _, y := range b {
		seen[y] = struct{}{}
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

func collectRegions(records []domain.FlowRecord) []string {
	seen := make(map[string]struct{})
	for _, r := range records {
		seen[r.OriginRegion] = struct{}{}
		seen[r.DestinationRegion] = struct{}{}
	}
	regions := make([]string, 0, len(seen))
	for r := range seen {
		regions = append(regions, r)
	}
	sort.Strings(regions)
	return regions
}
