// Package models defines the data exchanged with the LDDB backend and the records ldx keeps locally.
//
// The package contains two categories of types:
//
// 1. Backend DTOs: JSON shapes of the collection API
//   - [CatalogItem] : a LaserDisc in the collection
//   - [CreateItemRequest], [UpdateItemRequest] : write payloads
//   - [LookupResult] : a reference database lookup
//   - [CollectionPage], [Stats], [Pagination] : a listing response
//
// 2. Local records persisted in SQLite
//   - [ScanRecord] : an accepted barcode detection
//
// Enumerations for client-side listing ([SortKey], [SortOrder], [WatchFilter]) live here so the
// session state, collection manager and UI agree on their string forms.
package models
