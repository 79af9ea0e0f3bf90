package deployer

import (
	"context"
	"fmt"

	"github.com/nyrag/nyrag/internal/core/vespa"
)

// Invoke deploys through whichever call shape client supports, in order:
// DeployPackage(pkg), DeployRoot(root), then Deploy() after handing pkg and
// root to any setters the client has. Only shape mismatches move on to the
// next shape; every other error is returned as is.
func Invoke(ctx context.Context, client any, pkg vespa.ApplicationPackage, root string) (any, error) {
	var lastErr error

	if d, ok := client.(vespa.PackageDeployer); ok {
		app, err := d.DeployPackage(ctx, pkg)
		if err == nil {
			return app, nil
		}
		if !vespa.IsShapeMismatch(err) {
			return nil, err
		}
		lastErr = err
	}

	if d, ok := client.(vespa.RootDeployer); ok {
		app, err := d.DeployRoot(ctx, root)
		if err == nil {
			return app, nil
		}
		if !vespa.IsShapeMismatch(err) {
			return nil, err
		}
		lastErr = err
	}

	if s, ok := client.(vespa.PackageSink); ok {
		s.SetApplicationPackage(pkg)
	}
	if s, ok := client.(vespa.RootSink); ok {
		s.SetApplicationRoot(root)
	}

	d, ok := client.(vespa.Deployer)
	if !ok {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, fmt.Errorf("%T: %w", client, vespa.ErrUnsupportedCallShape)
	}
	return d.Deploy(ctx)
}
