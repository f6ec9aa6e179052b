// Package zarctype holds the types, constants, and sentinel errors shared by
// the ZARC parser, extractor, and public API.
//
// It is a leaf package so that every internal package can depend on it
// without import cycles.
package zarctype
