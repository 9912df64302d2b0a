// Package app is the main controller: it owns the add/edit form and the modal state,
// runs the create, update, delete, lookup and random-pick flows against the backend, and
// bridges accepted scans from the scanner into the lookup flow.
//
// All user-facing outcomes are reported through a [notify.Notifier]; errors are also
// returned so that the CLI can exit non-zero.
package app
