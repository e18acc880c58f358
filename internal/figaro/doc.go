// Package figaro loads the Eurostat FIGARO bilateral trade tables into an
// immutable in-memory record set.
//
// The input is two TSV sources sharing one fixed schema: an exports file and
// an imports file. Each row starts with a comma-joined metadata cell
// (frequency, reporting region, counterpart region, activity code,
// counterpart activity code, unit) followed by one tab-separated value column
// per year. The two sources are merged into a single direction-tagged record
// set at load time so downstream filtering treats direction uniformly.
//
// Loading is strict about file structure (schema mismatch, empty source and
// unreadable files abort the load) but lenient about row content: rows with
// unrecognized codes or unparseable values are excluded and counted in the
// load report rather than failing the load.
package figaro
