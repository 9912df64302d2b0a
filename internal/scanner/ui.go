package scanner

import (
	"context"
	"errors"

	"github.com/desertthunder/ldx/internal/notify"
	"github.com/desertthunder/ldx/internal/shared"
)

// User-facing messages for start failures.
const (
	MsgPermissionRequired = "Camera permission is required for barcode scanning. Please allow camera access and try again."
	MsgCameraUnsupported  = "Camera not supported on this device. Try a different device or engine."
	MsgStartFailed        = "Failed to start camera. Check if another app is using the camera."
	MsgTorchUnsupported   = "Torch not supported on this device"
	MsgTorchFailed        = "Failed to toggle torch"
)

// StartErrorMessage maps a start failure to the message shown to the user.
func StartErrorMessage(err error) string {
	switch {
	case errors.Is(err, shared.ErrPermissionDenied):
		return MsgPermissionRequired
	case errors.Is(err, shared.ErrCameraUnsupported):
		return MsgCameraUnsupported
	default:
		return MsgStartFailed
	}
}

// ScannerUI reflects the controller in its [Panel] and reports failures as notifications.
type ScannerUI struct {
	ctrl     *Controller
	notifier notify.Notifier
}

// NewScannerUI wraps ctrl.
func NewScannerUI(ctrl *Controller, notifier notify.Notifier) *ScannerUI {
	if notifier == nil {
		notifier = notify.Discard
	}
	return &ScannerUI{ctrl: ctrl, notifier: notifier}
}

// Controller returns the wrapped controller.
func (u *ScannerUI) Controller() *Controller { return u.ctrl }

// Panel returns the view-model.
func (u *ScannerUI) Panel() *Panel { return u.ctrl.Panel() }

// Start starts scanning and updates the status line. Failures are not retried.
func (u *ScannerUI) Start(ctx context.Context) error {
	panel := u.ctrl.Panel()
	panel.SetStatus(StatusStarting, StatusInfo)

	if err := u.ctrl.StartScanning(ctx); err != nil {
		panel.SetStatus("Error: "+err.Error(), StatusError)
		u.notifier.Notify(notify.Error, StartErrorMessage(err))
		return err
	}

	if u.ctrl.IsActive() {
		panel.SetStatus(StatusRunning, StatusSuccess)
		panel.SetScanning(true)
	}
	return nil
}

// Stop stops scanning.
func (u *ScannerUI) Stop() {
	u.ctrl.StopScanning()
	u.ctrl.Panel().Stopped()
}

// ToggleTorch flips the torch after checking the device supports one.
func (u *ScannerUI) ToggleTorch(ctx context.Context) error {
	device := u.ctrl.Config().Constraints.DeviceID
	torch, ok := u.ctrl.Camera().(Torch)
	if !ok || !torch.TorchCapable(device) {
		u.notifier.Notify(notify.Warning, MsgTorchUnsupported)
		return shared.ErrTorchUnsupported
	}

	on := !torch.TorchOn(device)
	if err := torch.SetTorch(ctx, device, on); err != nil {
		u.ctrl.logger.Error("failed to toggle torch", "error", err)
		u.notifier.Notify(notify.Error, MsgTorchFailed)
		return err
	}

	if on {
		u.ctrl.Panel().SetStatus(StatusTorchOn, StatusInfo)
	} else {
		u.ctrl.Panel().SetStatus(StatusTorchOff, StatusInfo)
	}
	return nil
}
