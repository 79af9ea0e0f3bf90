package vespaclient

import (
	"context"
	"log/slog"

	"github.com/nyrag/nyrag/internal/core/vespa"
	"github.com/nyrag/nyrag/internal/shell/config"
	"github.com/nyrag/nyrag/internal/shell/docker"
)

// Resolver picks the client factory for a deploy.
type Resolver struct {
	Docker  DockerDeps
	Compose ComposeDeps
	Cloud   CloudDeps
}

// NewResolver wires the bundled clients from cfg.
func NewResolver(cfg *config.DeployConfig, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	host := cfg.Local.DockerHost

	var endpoint string
	if cfg.IsCloudMode() && cfg.Local.URL != vespa.DefaultURL {
		endpoint = cfg.Local.URL
	}

	return &Resolver{
		Docker: DockerDeps{
			Connect: func(ctx context.Context) (docker.Client, error) {
				return docker.NewDockerClient(ctx, host)
			},
			Logger:   logger,
			HTTPPort: cfg.VespaPort(),
		},
		Compose: ComposeDeps{
			ComposeFile: cfg.Local.ComposeFile,
			QueryURL:    cfg.VespaURL(),
			QueryPort:   cfg.VespaPort(),
			Logger:      logger,
		},
		Cloud: CloudDeps{
			APIURL:      cfg.Cloud.APIURL,
			EndpointURL: endpoint,
			Logger:      logger,
		},
	}
}

// ResolveLocal returns ComposeVespaDocker when a config server URL or a
// compose file is configured and VespaDocker otherwise.
func (r *Resolver) ResolveLocal(cfg vespa.DeployConfig) (vespa.ClientFactory, error) {
	if cfg.ConfigServerURL() != "" || r.Compose.ComposeFile != "" {
		return NewComposeFactory(r.Compose), nil
	}
	return NewDockerFactory(r.Docker), nil
}

// ResolveCloud returns the VespaCloud factory.
func (r *Resolver) ResolveCloud(vespa.DeployConfig) (vespa.ClientFactory, error) {
	return NewCloudFactory(r.Cloud), nil
}
