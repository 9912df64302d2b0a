package server

import (
	"bytes"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ldx/internal/web"
)

// PairingHandler renders the page a phone user reads the endpoint and token from.
type PairingHandler struct {
	endpoint   string
	token      string
	detections *DetectionHandler
}

// NewPairingHandler creates the page for detections served at endpoint.
func NewPairingHandler(endpoint, token string, detections *DetectionHandler) *PairingHandler {
	return &PairingHandler{endpoint: endpoint, token: token, detections: detections}
}

func (h *PairingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	var buf bytes.Buffer
	err := web.RenderPairing(&buf, web.PairingPage{
		Endpoint: h.endpoint,
		Token:    h.token,
		Paired:   h.detections != nil && h.detections.IsPaired(),
	})
	if err != nil {
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// NewRemoteRouter wires the pairing page and the detection endpoint.
func NewRemoteRouter(sink Submitter, endpoint, token string, logger *log.Logger) (*BasicRouter, *DetectionHandler) {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	detections := NewDetectionHandler(sink, token, logger)
	router := NewBasicRouter()
	router.Use(Logging(logger))
	router.Handler(detections)
	router.Handle(http.MethodGet, "/", NewPairingHandler(endpoint, token, detections))
	return router, detections
}
