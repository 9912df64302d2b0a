// Package repositories implements SQLite persistence for the local client state.
//
// The backend owns the collection; locally ldx keeps only what must survive a restart.
//
// Key Implementations:
//   - [SettingsRepository] : key/value settings, including the stored access token
//   - [ScanRepository] : history of accepted barcode detections
package repositories
