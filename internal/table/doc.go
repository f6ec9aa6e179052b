// Package table parses the ZARC header, the fixed-size entry table, and the
// trailing compressed-block-size table.
//
// Entries are kept in on-disk order, which is ascending by filename hash,
// so lookups by hash are binary searches.
package table
