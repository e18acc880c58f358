// Package exporter writes built flow graphs to files.
//
// Two formats are supported:
//
// CSV: an edge list with resolved node labels, one row per link, plus an
// optional node listing. Files carry a UTF-8 BOM so spreadsheet tools detect
// the encoding.
//
// JSON: the graph serialized as-is, nodes and links with positional indices,
// suitable for feeding a Sankey renderer directly.
package exporter
