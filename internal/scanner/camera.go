package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/desertthunder/ldx/internal/shared"
)

// Device is a selectable camera.
type Device struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// CameraInfo summarises the available cameras.
type CameraInfo struct {
	HasCamera bool     `json:"has_camera"`
	Count     int      `json:"camera_count"`
	Devices   []Device `json:"devices"`
}

// Camera grants access to capture devices.
//
// RequestPermission fails with [shared.ErrCameraUnsupported] when there is no way to
// capture at all and with [shared.ErrPermissionDenied] when access is refused.
type Camera interface {
	RequestPermission(ctx context.Context) error
	Devices(ctx context.Context) ([]Device, error)
}

// Torch is implemented by cameras with a controllable light.
type Torch interface {
	TorchCapable(deviceID string) bool
	TorchOn(deviceID string) bool
	SetTorch(ctx context.Context, deviceID string, on bool) error
}

// StaticCamera is a single pseudo-device, used by engines that do not capture frames.
type StaticCamera struct {
	Label    string
	HasTorch bool

	mu    sync.Mutex
	torch bool
}

// NewStaticCamera creates a camera with one device.
func NewStaticCamera(label string) *StaticCamera {
	return &StaticCamera{Label: label}
}

func (c *StaticCamera) RequestPermission(context.Context) error { return nil }

func (c *StaticCamera) Devices(context.Context) ([]Device, error) {
	return []Device{{ID: "default", Label: c.Label}}, nil
}

func (c *StaticCamera) TorchCapable(string) bool { return c.HasTorch }

func (c *StaticCamera) TorchOn(string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.torch
}

func (c *StaticCamera) SetTorch(_ context.Context, _ string, on bool) error {
	if !c.HasTorch {
		return shared.ErrTorchUnsupported
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.torch = on
	return nil
}

// DirectoryCamera treats directories of captured frames as cameras.
//
// Each subdirectory of Root is a device; when Root has none, Root itself is the only device.
type DirectoryCamera struct {
	Root string
}

// NewDirectoryCamera creates a camera over root.
func NewDirectoryCamera(root string) *DirectoryCamera {
	return &DirectoryCamera{Root: root}
}

func (c *DirectoryCamera) RequestPermission(context.Context) error {
	if c.Root == "" {
		return fmt.Errorf("%w: no frames directory configured", shared.ErrCameraUnsupported)
	}
	info, err := os.Stat(c.Root)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s does not exist", shared.ErrCameraUnsupported, c.Root)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %v", shared.ErrPermissionDenied, err)
	case err != nil:
		return fmt.Errorf("%w: %v", shared.ErrCameraUnsupported, err)
	case !info.IsDir():
		return fmt.Errorf("%w: %s is not a directory", shared.ErrCameraUnsupported, c.Root)
	}

	if _, err := os.ReadDir(c.Root); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrPermissionDenied, err)
	}
	return nil
}

func (c *DirectoryCamera) Devices(context.Context) ([]Device, error) {
	entries, err := os.ReadDir(c.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to list cameras: %w", err)
	}

	devices := []Device{}
	for _, e := range entries {
		if e.IsDir() {
			devices = append(devices, Device{ID: e.Name()})
		}
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].ID < devices[j].ID })
	if len(devices) == 0 {
		devices = append(devices, Device{ID: "", Label: filepath.Base(c.Root)})
	}
	return devices, nil
}

// Dir returns the frames directory for deviceID.
func (c *DirectoryCamera) Dir(deviceID string) string {
	if deviceID == "" {
		return c.Root
	}
	return filepath.Join(c.Root, deviceID)
}

// describe lists devices, labelling unnamed ones "Camera N". Errors yield an empty summary.
func describe(ctx context.Context, cam Camera) CameraInfo {
	if cam == nil {
		return CameraInfo{Devices: []Device{}}
	}
	devices, err := cam.Devices(ctx)
	if err != nil {
		return CameraInfo{Devices: []Device{}}
	}
	for i := range devices {
		if devices[i].Label == "" {
			devices[i].Label = fmt.Sprintf("Camera %d", i+1)
		}
	}
	return CameraInfo{HasCamera: len(devices) > 0, Count: len(devices), Devices: devices}
}
