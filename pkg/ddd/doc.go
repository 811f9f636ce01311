// Package ddd models the hierarchical detector description consumed by the
// geometry builders: logical parts with solids and specifics, positioned
// into a compact view, plus the attribute filter and the filtered walker
// that visits sensitive parts.
package ddd
