package vespa

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// ErrUnsupportedCallShape marks a client that does not accept the call
	// shape that was tried. The invoker treats it as recoverable.
	ErrUnsupportedCallShape = errors.New("deploy call shape not supported by client")

	// ErrMissingTenant is returned before any cloud client is built.
	ErrMissingTenant = errors.New("Missing env var: VESPA_CLOUD_TENANT")

	// ErrUnknownMode is returned for a deploy mode other than local or cloud.
	ErrUnknownMode = errors.New("unknown Vespa deploy mode")

	// ErrNoApplicationRoot is returned by adapters that need an on-disk root.
	ErrNoApplicationRoot = errors.New(MissingPackageMessage)
)

// DeployError wraps a failure reported by a deployment backend.
// Message carries the platform's own text so it can be classified.
type DeployError struct {
	Op      string // Operation that failed
	Backend string // VespaDocker, ComposeVespaDocker, VespaCloud
	Status  int    // HTTP status when the platform answered
	Code    string // Platform error code, e.g. INVALID_APPLICATION_PACKAGE
	Message string
	Err     error
}

func (e *DeployError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s %s: %s: %s", e.Op, e.Backend, e.Code, e.Message)
	}
	if e.Backend != "" {
		return fmt.Sprintf("%s %s: %s", e.Op, e.Backend, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *DeployError) Unwrap() error {
	return e.Err
}

// NewDeployError creates a new DeployError.
func NewDeployError(op, backend, message string, err error) *DeployError {
	return &DeployError{
		Op:      op,
		Backend: backend,
		Message: message,
		Err:     err,
	}
}
