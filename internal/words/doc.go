// Package words reinterprets a byte region as a fixed-length array of
// native-endian uint64 words without copying.
//
// A View never grows and checks every index before touching memory. It is
// not safe for concurrent use; callers serialize access to a region.
package words
