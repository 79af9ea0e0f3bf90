package vespa

import (
	"errors"
	"strings"
)

const (
	// ClusterRemovalScope is the validation override id Vespa requires
	// before it accepts a deploy that drops a content cluster.
	ClusterRemovalScope = "content-cluster-removal"

	// MissingPackageMessage is the text client versions use when the
	// package was expected through a different argument.
	MissingPackageMessage = "Either application_package or application_root must be set"
)

// IsClusterRemoval reports whether a deploy failure message means Vespa
// refused the deploy because it would remove a content cluster.
func IsClusterRemoval(message string) bool {
	if message == "" {
		return false
	}
	lowered := strings.ToLower(message)
	if strings.Contains(lowered, ClusterRemovalScope) {
		return true
	}
	return strings.Contains(lowered, "content cluster") && strings.Contains(lowered, "removed")
}

// IsShapeMismatch reports whether err means the client wanted the package
// handed over in a different form. Any other error is a real failure.
func IsShapeMismatch(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnsupportedCallShape) {
		return true
	}
	return strings.Contains(err.Error(), MissingPackageMessage)
}
