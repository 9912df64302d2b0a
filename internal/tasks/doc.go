// Package tasks runs the collection's multi-request operations with progress reporting.
//
// # Bulk Operations
//
// [Runner.Run] fans one request per selected item out concurrently, one goroutine each,
// and waits for all of them. There is no concurrency cap; an optional [rate.Limiter]
// spaces the requests when configured. Results are aggregated in a [BulkResult] and
// partial failures are not retried.
//
// # Export
//
// [Runner.Export] walks every page of the collection and writes it through the formatter
// package.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
// Updates use select with default so a slow reader never stalls the requests.
package tasks
