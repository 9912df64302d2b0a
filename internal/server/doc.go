// Package server exposes the remote scan endpoint a paired phone posts detections to.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Detections
//
// [DetectionHandler] accepts POST /detections with a JSON body {code, confidence, format}
// and the X-Pairing-Token header, and forwards each detection to the running remote engine.
// The first accepted detection marks the session paired; [DetectionHandler.Paired] is closed
// exactly once.
//
// # Pairing Page
//
// [PairingHandler] serves GET / with the endpoint and the token to configure on the phone.
package server
