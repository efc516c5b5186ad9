// Package bitscan finds the lowest clear bit in a 64-bit word.
//
// The search is chunked: long-running pools saturate their low bits first,
// so the scan skips whole 32- and 16-bit runs of ones before looking at
// individual bits.
package bitscan
