// Package mem provides memory allocation utilities.
//
// # Aligned Allocation
//
// Slot regions are reinterpreted as 64-bit words in place, so their backing
// arrays must start on an 8-byte boundary. AllocAligned over-allocates and
// slices forward to the first aligned byte.
package mem
