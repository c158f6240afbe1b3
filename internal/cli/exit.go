package cli

import (
	"context"
	stderrors "errors"

	"github.com/matzehuels/vkmsctl/pkg/errors"
)

// Process exit codes. Each failure kind of the core has its own code.
const (
	ExitOK              = 0
	ExitFailure         = 1
	ExitInvalidInput    = 2
	ExitInvalidTopology = 3
	ExitAlreadyExists   = 4
	ExitNotFound        = 5
	ExitCorruptState    = 6
	ExitMaterialize     = 7
	ExitDeviceBusy      = 8
	ExitCancelled       = 130 // Standard shell convention for SIGINT
)

// ExitCode maps an error returned by a command to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if stderrors.Is(err, context.Canceled) {
		return ExitCancelled
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidConfig, errors.ErrCodeInvalidName:
		return ExitInvalidInput
	case errors.ErrCodeInvalidTopology:
		return ExitInvalidTopology
	case errors.ErrCodeAlreadyExists:
		return ExitAlreadyExists
	case errors.ErrCodeNotFound:
		return ExitNotFound
	case errors.ErrCodeCorruptState:
		return ExitCorruptState
	case errors.ErrCodeMaterializeFailed:
		return ExitMaterialize
	case errors.ErrCodeDeviceBusy:
		return ExitDeviceBusy
	}
	return ExitFailure
}
