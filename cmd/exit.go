package cmd

import (
	"errors"

	"github.com/andresmejia3/facecam/internal/camera"
	"github.com/andresmejia3/facecam/internal/cascade"
)

// Process exit codes, one per terminal error kind.
const (
	ExitOK                = 0
	ExitFailure           = 1
	ExitMissingModelFile  = 2
	ExitModelLoadFailure  = 3
	ExitDeviceUnavailable = 4
	ExitFrameReadFailure  = 5
)

// ExitCode maps an error returned by a command to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, cascade.ErrMissingModelFile):
		return ExitMissingModelFile
	case errors.Is(err, cascade.ErrModelLoad):
		return ExitModelLoadFailure
	case errors.Is(err, camera.ErrDeviceUnavailable):
		return ExitDeviceUnavailable
	case errors.Is(err, camera.ErrFrameRead):
		return ExitFrameReadFailure
	default:
		return ExitFailure
	}
}
