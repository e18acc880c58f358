package figaro

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"figflow/internal/nace"
	"figflow/pkg/contracts/domain"
)

const (
	testExports = "freq,geo,c_geo,nace_r2,c_nace_r2,unit\\TIME_PERIOD\t2019\t2020\n" +
		"A,AT,DE,A01,C10,MIO_EUR\t100.5\t200.5\n" +
		"A,AT,FR,A01,C10,MIO_EUR\t150.3\t250.3\n" +
		"A,BE,DE,C10,A01,MIO_EUR\t0.0\t0.0\n" +
		"A,FR,DE,C10,A01,MIO_EUR\t\t\n"

	testImports = "freq,geo,c_geo,nace_r2,c_nace_r2,unit\\TIME_PERIOD\t2019\t2020\n" +
		"A,AT,DE,A01,C10,MIO_EUR\t300.5\t400.5\n" +
		"A,BE,FR,C10,A01,MIO_EUR\t350.3\t450.3\n"
)

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newTestLoader() *Loader {
	return NewLoader(nace.NewHierarchy(), slog.Default())
}

func TestLoaderLoad(t *testing.T) {
	dir := t.TempDir()
	exports := writeSource(t, dir, "fgte.tsv", testExports)
	imports := writeSource(t, dir, "fgti.tsv", testImports)

	rs, report, err := newTestLoader().Load(context.Background(), exports, imports)
	require.NoError(t, err)
	require.NotNil(t, rs)

	t.Run("merges both sources with direction tags", func(t *testing.T) {
		var nExports, nImports int
		for _, r := range rs.Records {
			switch r.Direction {
			case domain.DirectionExport:
				nExports++
			case domain.DirectionImport:
				nImports++
			}
		}
		// 3 export rows with values x 2 years, 2 import rows x 2 years.
		assert.Equal(t, 6, nExports)
		assert.Equal(t, 4, nImports)
	})

	t.Run("import rows are reoriented counterpart to reporter", func(t *testing.T) {
		var found bool
		for _, r := range rs.Records {
			if r.Direction == domain.DirectionImport && r.Year == 2019 && r.Value == 300.5 {
				found = true
				// File row: reporter AT imports from DE, so the flow
				// runs DE -> AT.
				assert.Equal(t, "DE", r.OriginRegion)
				assert.Equal(t, "C10", r.OriginActivity)
				assert.Equal(t, "AT", r.DestinationRegion)
				assert.Equal(t, "A01", r.DestinationActivity)
			}
		}
		assert.True(t, found)
	})

	t.Run("years and regions collected sorted", func(t *testing.T) {
		assert.Equal(t, []int{2019, 2020}, rs.Years)
		assert.Equal(t, []string{"AT", "BE", "DE", "FR"}, rs.Regions)
	})

	t.Run("empty cells counted as missing, row fully missing excluded from load count", func(t *testing.T) {
		// Export row 4 has both year cells empty.
		assert.Equal(t, 2, report.Exports.MissingValues)
		assert.Equal(t, 3, report.Exports.RowsLoaded)
		assert.Equal(t, 4, report.Exports.RowsRead)
	})

	t.Run("snapshot metadata populated", func(t *testing.T) {
		assert.NotEmpty(t, rs.SnapshotID)
		assert.False(t, rs.LoadedAt.IsZero())
	})
}

func TestLoaderRowLevelWarnings(t *testing.T) {
	dir := t.TempDir()

	content := "freq,geo,c_geo,nace_r2,c_nace_r2,unit\t2020\n" +
		"A,AT,DE,A01,C10,MIO_EUR\t100\n" +
		"A,AT,DE,Z99,C10,MIO_EUR\t200\n" + // unknown activity code
		"A,ZZZ,DE,A01,C10,MIO_EUR\t300\n" + // malformed region
		"invalid,metadata\t400\n" + // wrong metadata field count
		"A,AT,DE,A01,C10,MIO_EUR\tabc\n" // unparseable value

	exports := writeSource(t, dir, "fgte.tsv", content)
	imports := writeSource(t, dir, "fgti.tsv", "freq,geo,c_geo,nace_r2,c_nace_r2,unit\t2020\nA,AT,DE,A01,C10,MIO_EUR\t1\n")

	rs, report, err := newTestLoader().Load(context.Background(), exports, imports)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Exports.RowsExcluded)
	assert.Len(t, report.Exports.Samples, 3)
	assert.Equal(t, 1, report.Exports.MissingValues)
	assert.Equal(t, 1, report.Exports.RowsLoaded)

	// Only the two clean rows (one per source) made it in.
	assert.Len(t, rs.Records, 2)
}

func TestLoaderFatalErrors(t *testing.T) {
	dir := t.TempDir()
	good := writeSource(t, dir, "good.tsv", "freq,geo,c_geo,nace_r2,c_nace_r2,unit\t2020\nA,AT,DE,A01,C10,MIO_EUR\t1\n")

	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			name:    "empty file",
			content: "",
			wantErr: ErrEmptySource,
		},
		{
			name:    "header only",
			content: "freq,geo,c_geo,nace_r2,c_nace_r2,unit\t2020\n",
			wantErr: ErrEmptySource,
		},
		{
			name:    "reordered schema fields",
			content: "freq,nace_r2,c_exp,unit,geo\t2020\nA,A01,EXP,MIO_EUR,AT\t1\n",
			wantErr: ErrSchemaMismatch,
		},
		{
			name:    "non-integer year column",
			content: "freq,geo,c_geo,nace_r2,c_nace_r2,unit\tyear\nA,AT,DE,A01,C10,MIO_EUR\t1\n",
			wantErr: ErrSchemaMismatch,
		},
		{
			name:    "wrong column count in data row",
			content: "freq,geo,c_geo,nace_r2,c_nace_r2,unit\t2019\t2020\nA,AT,DE,A01,C10,MIO_EUR\t1\n",
			wantErr: ErrSchemaMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bad := writeSource(t, t.TempDir(), "bad.tsv", tt.content)
			_, _, err := newTestLoader().Load(context.Background(), bad, good)
			require.Error(t, err)
			var loadErr *LoadError
			require.ErrorAs(t, err, &loadErr)
			assert.Equal(t, bad, loadErr.Path)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, _, err := newTestLoader().Load(context.Background(), filepath.Join(dir, "nope.tsv"), good)
		var loadErr *LoadError
		require.ErrorAs(t, err, &loadErr)
	})
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		cell  string
		value float64
		ok    bool
	}{
		{"100.5", 100.5, true},
		{"0", 0, true},
		{" 42 ", 42, true},
		{"123.4 p", 123.4, true}, // observation flag stripped
		{"", 0, false},
		{":", 0, false},
		{"abc", 0, false},
		{"-5", 0, false}, // negative values are never guessed in
	}

	for _, tt := range tests {
		t.Run(tt.cell, func(t *testing.T) {
			value, ok := parseValue(tt.cell)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.value, value, 1e-9)
			}
		})
	}
}

func TestValidRegion(t *testing.T) {
	assert.True(t, validRegion("AT"))
	assert.True(t, validRegion("W2"))
	assert.False(t, validRegion("a1"))
	assert.False(t, validRegion("AUT"))
	assert.False(t, validRegion("2A"))
	assert.False(t, validRegion(""))
}
