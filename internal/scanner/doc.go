// Package scanner drives barcode scanning: a [Camera] supplies devices and permission,
// an [Engine] turns frames or scanner input into [DetectionEvent]s, and the [Controller]
// filters those events by confidence and hands accepted codes to the lookup flow.
//
// # Engines
//
//   - [WedgeEngine] : keyboard-wedge and USB serial scanners, one code per line
//   - [RemoteEngine] : detections posted by a paired phone app (see internal/server)
//   - OCREngine : OCR of the printed digits under a barcode in camera frames (build tag tesseract)
//   - [FakeEngine] : scripted detections for tests and the demo engine
//
// # Sessions
//
// At most one scanning session runs at a time. A session accepts at most one detection:
// the first event at or above the confidence threshold stops the scanner, and any events
// the engine still delivers for that session are dropped.
//
// The [Panel] view-model mirrors the session for rendering; [ScannerUI] maps controller
// failures to user-facing messages and handles the torch.
package scanner
