package vespaclient

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/nyrag/nyrag/internal/core/compose"
	"github.com/nyrag/nyrag/internal/core/vespa"
)

// ComposeOptions are the constructor arguments ComposeVespaDocker accepts.
type ComposeOptions struct {
	ConfigServerURL string `vespa:"cfgsrv_url"`
	Root            string `vespa:"application_root"`
}

// ComposeDeps are the runtime collaborators of ComposeVespaDocker.
type ComposeDeps struct {
	// ComposeFile locates the config server when no URL is configured.
	ComposeFile  string
	QueryURL     string
	QueryPort    int
	ReadyTimeout time.Duration
	Logger       *slog.Logger
}

// NewComposeFactory returns the ComposeVespaDocker factory.
func NewComposeFactory(deps ComposeDeps) *Factory[ComposeOptions] {
	return NewFactory(vespa.ComposeClientName, func(opts ComposeOptions) (any, error) {
		return NewComposeVespaDocker(opts, deps), nil
	})
}

// ComposeVespaDocker deploys to a Vespa started by Docker Compose. It
// never manages containers itself.
type ComposeVespaDocker struct {
	opts ComposeOptions
	deps ComposeDeps
}

// NewComposeVespaDocker creates a ComposeVespaDocker client.
func NewComposeVespaDocker(opts ComposeOptions, deps ComposeDeps) *ComposeVespaDocker {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.QueryURL == "" {
		deps.QueryURL = vespa.DefaultURL
	}
	if deps.QueryPort == 0 {
		deps.QueryPort = vespa.DefaultLocalPort
	}
	return &ComposeVespaDocker{opts: opts, deps: deps}
}

// SetApplicationRoot sets the root the next Deploy ships.
func (c *ComposeVespaDocker) SetApplicationRoot(root string) {
	c.opts.Root = root
}

// Deploy deploys the configured application root.
func (c *ComposeVespaDocker) Deploy(ctx context.Context) (any, error) {
	if c.opts.Root == "" {
		return nil, vespa.ErrNoApplicationRoot
	}

	url, err := c.configServerURL()
	if err != nil {
		return nil, err
	}

	cs := NewConfigServer(url, vespa.ComposeClientName, c.deps.Logger)
	if err := cs.WaitReady(ctx, c.deps.ReadyTimeout); err != nil {
		return nil, err
	}
	if err := cs.DeployRoot(ctx, c.opts.Root); err != nil {
		return nil, err
	}
	return &vespa.Application{Endpoint: c.deps.QueryURL, HTTPPort: c.deps.QueryPort}, nil
}

func (c *ComposeVespaDocker) configServerURL() (string, error) {
	if c.opts.ConfigServerURL != "" {
		return c.opts.ConfigServerURL, nil
	}
	if c.deps.ComposeFile == "" {
		return "", vespa.NewDeployError("locate config server", vespa.ComposeClientName,
			"VESPA_CONFIGSERVER_URL or VESPA_COMPOSE_FILE must be set", nil)
	}

	content, err := os.ReadFile(c.deps.ComposeFile)
	if err != nil {
		return "", fmt.Errorf("read compose file: %w", err)
	}
	server, err := compose.FindConfigServer(string(content))
	if err != nil {
		return "", fmt.Errorf("%s: %w", c.deps.ComposeFile, err)
	}
	c.deps.Logger.Info("found config server in compose file", "service", server.Service, "url", server.URL)
	return server.URL, nil
}
