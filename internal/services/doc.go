// Package services implements the HTTP client for the LDDB backend.
//
// # Request helper
//
// Every call goes through [APIService.do], which
//   - attaches the stored token as "Authorization: Bearer ..." via [oauth2.Token.SetAuthHeader]
//   - on 401 clears the [TokenStore] and runs the OnUnauthorized hook (the TUI switches to its auth view)
//   - turns any other non-2xx response into an [*APIError] carrying the body's error message or "HTTP <status>"
//   - reports each failure once through the OnError hook before returning it
//
// Callers may add a more specific notification (lookup not found, no unwatched items) or stay silent.
//
// # Errors
//
// [*APIError] matches the shared sentinels with errors.Is:
//   - [shared.ErrUnauthorized] : 401
//   - [shared.ErrNotFound] : 404
//   - [shared.ErrDuplicate] : 409, the UPC is already in the collection
//   - [shared.ErrAPIRequest] : any backend failure
//
// No call is retried.
package services
