// Package nace implements the four-level economic activity classification
// used by the FIGARO trade tables.
//
// Codes are compact NACE Rev.2 style strings: a section letter optionally
// followed by digits. The four levels map to code prefixes:
//
//	Level 1 (section):  "A"
//	Level 2 (division): "A01"
//	Level 3 (group):    "A011"
//	Level 4 (class):    "A0111"
//
// The hierarchy is built once from a static section/division table and is
// read-only afterwards. Rollup of a code to a coarser level is a pure prefix
// truncation backed by a precomputed ancestor table, so lookups are O(1).
package nace
