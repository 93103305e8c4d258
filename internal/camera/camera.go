// Package camera wraps an OpenCV video capture device.
package camera

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

var (
	// ErrDeviceUnavailable is returned when the capture device cannot be opened.
	ErrDeviceUnavailable = errors.New("camera device unavailable")
	// ErrFrameRead is returned when a capture call yields no usable frame.
	ErrFrameRead = errors.New("failed to read frame")
)

// Session is an open capture device.
type Session struct {
	DeviceID int
	capture  *gocv.VideoCapture
}

// Open opens the capture device with the given index (0 is the system default).
func Open(deviceID int) (*Session, error) {
	vc, err := gocv.OpenVideoCapture(deviceID)
	if err != nil {
		return nil, fmt.Errorf("%w: device %d: %v", ErrDeviceUnavailable, deviceID, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("%w: device %d", ErrDeviceUnavailable, deviceID)
	}
	return &Session{DeviceID: deviceID, capture: vc}, nil
}

// Read grabs the next frame into dst. It returns false if the device
// produced nothing or an empty frame.
func (s *Session) Read(dst *gocv.Mat) bool {
	if s.capture == nil {
		return false
	}
	if ok := s.capture.Read(dst); !ok {
		return false
	}
	return !dst.Empty()
}

// Close releases the device. Further reads fail.
func (s *Session) Close() error {
	if s.capture == nil {
		return nil
	}
	err := s.capture.Close()
	s.capture = nil
	return err
}

// Release is Close without the error.
func (s *Session) Release() {
	_ = s.Close()
}
