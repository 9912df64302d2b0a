package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrUnauthorized     = fmt.Errorf("unauthorized")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrInvalidToken     = fmt.Errorf("invalid access token")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrNotFound           = fmt.Errorf("not found")
	ErrItemNotFound       = fmt.Errorf("laserdisc not found")
	ErrNoUnwatched        = fmt.Errorf("no unwatched laserdiscs found")
	ErrDuplicate          = fmt.Errorf("laserdisc already exists")

	// Scanner errors
	ErrPermissionDenied   = fmt.Errorf("camera permission denied")
	ErrCameraUnsupported  = fmt.Errorf("camera not supported")
	ErrEngineUnavailable  = fmt.Errorf("decoding engine not available")
	ErrEngineInit         = fmt.Errorf("failed to initialize decoding engine")
	ErrTorchUnsupported   = fmt.Errorf("torch not supported on this device")
	ErrScannerNotRunning  = fmt.Errorf("scanner not running")
	ErrDeviceNotFound     = fmt.Errorf("camera device not found")
	ErrInvalidPairing     = fmt.Errorf("invalid pairing token")
	ErrUnsupportedEncoder = fmt.Errorf("unsupported export format")

	// Input validation errors
	ErrValidation      = fmt.Errorf("validation failed")
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
