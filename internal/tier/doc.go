// Package tier implements the two- and three-tier free bitmaps.
//
// Layout, in words from the start of a view:
//
//	word 0                  top word; bit i set iff mid word i is full
//	words 1..top            mid words
//	words 1+top..           leaf words (three-tier only), one per (i, j)
//
// Two-tier mid bits mark slots directly. Three-tier mid bit j of group i is set
// iff leaf word (i, j) is full, and leaf bits mark slots.
//
// Indices encode the path: (top<<6)|mid for two tiers and
// (top<<12)|(mid<<6)|leaf for three. Only the number of valid top bits
// differs between geometries.
//
// Every parent bit equals "child word is entirely ones" after each call.
// Alloc relies on it to skip exhausted subtrees without scanning them.
package tier
