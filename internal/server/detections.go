package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ldx/internal/scanner"
	"github.com/desertthunder/ldx/internal/shared"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// PairingHeader carries the pairing token on every detection.
const PairingHeader = "X-Pairing-Token"

const maxDetectionBody = 4 << 10

var validate = validator.New()

// Submitter receives detections. Implemented by [scanner.RemoteEngine].
type Submitter interface {
	Submit(ctx context.Context, ev scanner.DetectionEvent) error
}

// DetectionRequest is the body of POST /detections.
type DetectionRequest struct {
	Code       string  `json:"code" validate:"required,max=64"`
	Confidence float64 `json:"confidence" validate:"gte=0,lte=100"`
	Format     string  `json:"format" validate:"max=32"`
}

// NewPairingToken returns a random token for a pairing session.
func NewPairingToken() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}

// DetectionHandler forwards detections from a paired device.
type DetectionHandler struct {
	sink   Submitter
	token  string
	logger *log.Logger

	once   sync.Once
	paired chan struct{}
	mu     sync.Mutex
	last   time.Time
}

// NewDetectionHandler creates a handler accepting requests that carry token.
func NewDetectionHandler(sink Submitter, token string, logger *log.Logger) *DetectionHandler {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &DetectionHandler{
		sink:   sink,
		token:  token,
		logger: shared.WithLogger(logger, "component", "detections"),
		paired: make(chan struct{}),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *DetectionHandler) Routes() []string {
	return []string{"/detections"}
}

// ServeHTTP validates the token and body, then submits the detection.
func (h *DetectionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
		return
	}

	got := r.Header.Get(PairingHeader)
	if subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) != 1 {
		h.logger.Warn("rejected detection", "remote", r.RemoteAddr, "error", shared.ErrInvalidPairing)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid pairing token"})
		return
	}

	var req DetectionRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxDetectionBody))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request format"})
		return
	}
	req.Code = strings.TrimSpace(shared.Sanitize(req.Code))
	if err := validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid detection: " + err.Error()})
		return
	}

	ev := scanner.DetectionEvent{Code: req.Code, Confidence: req.Confidence, Format: req.Format, At: time.Now()}
	if err := h.sink.Submit(r.Context(), ev); err != nil {
		if errors.Is(err, shared.ErrScannerNotRunning) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "Scanner is not running"})
			return
		}
		h.logger.Error("failed to submit detection", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "Failed to submit detection"})
		return
	}

	h.mu.Lock()
	h.last = ev.At
	h.mu.Unlock()
	h.once.Do(func() { close(h.paired) })

	h.logger.Info("detection received", "code", req.Code, "confidence", req.Confidence, "format", req.Format)
	writeJSON(w, http.StatusAccepted, map[string]string{"message": "Detection received"})
}

// Paired is closed after the first accepted detection.
func (h *DetectionHandler) Paired() <-chan struct{} {
	return h.paired
}

// IsPaired reports whether a detection was accepted.
func (h *DetectionHandler) IsPaired() bool {
	select {
	case <-h.paired:
		return true
	default:
		return false
	}
}

// LastDetection returns when the latest detection arrived.
func (h *DetectionHandler) LastDetection() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
