// Package testutil provides testing utilities for slotmap.
//
// This package is intended for use in tests and benchmarks only.
//
// # Random Workloads
//
//	rng := testutil.NewRNG(seed)
//	if rng.Intn(3) == 0 { ... free ... } else { ... alloc ... }
//
// # Reference Model
//
// Model is a plain bitset allocator with the same lowest-free-first policy
// as the bitmap tiers. Drive both with the same operations and compare:
//
//	model := testutil.NewModel(m.Capacity())
//	want, ok := model.Alloc()
//	got, err := m.Alloc()
//
// # Regions
//
//	region := testutil.AlignedRegion(size)     // 8-byte aligned, zeroed
//	bad := testutil.MisalignedRegion(size)     // guaranteed misaligned
package testutil
