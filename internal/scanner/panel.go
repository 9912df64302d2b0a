package scanner

import "sync"

// StatusKind styles the status line.
type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusSuccess
	StatusError
)

func (k StatusKind) String() string {
	switch k {
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "info"
	}
}

// Status lines shown by the panel.
const (
	StatusReady    = "Ready to scan"
	StatusStarting = "Starting camera..."
	StatusRunning  = "Camera ready - scan a barcode"
	StatusStopped  = "Camera stopped"
	StatusTorchOn  = "Torch on"
	StatusTorchOff = "Torch off"
)

// PanelState is a snapshot of the scan modal's camera area and controls.
type PanelState struct {
	Placeholder  string
	Instructions string
	Status       string
	Kind         StatusKind
	ShowStart    bool
	ShowStop     bool
	ShowTorch    bool
}

// Panel is the view-model of the scan modal. Safe for concurrent use.
type Panel struct {
	mu sync.RWMutex
	st PanelState
}

// NewPanel returns a panel in its idle state.
func NewPanel() *Panel {
	return &Panel{st: PanelState{
		Placeholder:  "📷 Camera will appear here",
		Instructions: "Position the LaserDisc barcode in the camera view",
		Status:       StatusReady,
		Kind:         StatusInfo,
		ShowStart:    true,
	}}
}

// State returns a copy of the current state.
func (p *Panel) State() PanelState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.st
}

// SetStatus replaces the status line.
func (p *Panel) SetStatus(message string, kind StatusKind) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.st.Status, p.st.Kind = message, kind
}

// SetScanning swaps the start control for stop and torch while scanning.
func (p *Panel) SetScanning(scanning bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.st.ShowStart = !scanning
	p.st.ShowStop = scanning
	p.st.ShowTorch = scanning
	if scanning {
		p.st.Placeholder = ""
		p.st.Instructions = "Position the LaserDisc barcode in the camera view"
	}
}

// Stopped restores the placeholder and idle controls.
func (p *Panel) Stopped() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.st = PanelState{
		Placeholder:  "📷 Camera stopped",
		Instructions: "Start the camera to begin scanning",
		Status:       StatusStopped,
		Kind:         StatusInfo,
		ShowStart:    true,
	}
}
