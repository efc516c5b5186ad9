// Package hash provides the CRC32-Castagnoli checksum used for snapshot
// chunks and S3 upload integrity.
//
// CRC32C is hardware accelerated on amd64 (SSE4.2) and arm64 and is the
// checksum S3 accepts natively, so one table serves both paths.
package hash
