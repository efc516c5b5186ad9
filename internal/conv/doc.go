// Package conv converts between integer widths with bounds checks.
//
// Use it for values read from disk or the network, such as snapshot
// header sizes and chunk counts. Casts that are safe by construction
// (loop indices, word offsets) stay plain conversions.
package conv
