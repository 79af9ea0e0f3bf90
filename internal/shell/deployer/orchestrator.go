// Package deployer deploys Vespa application packages, adapting to the
// installed client's call surface and guarding against redeploys that
// would remove a content cluster.
package deployer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/nyrag/nyrag/internal/core/vespa"
	"github.com/nyrag/nyrag/internal/shell/config"
	"github.com/nyrag/nyrag/internal/shell/console"
)

// Resolver supplies the client factory for each backend.
type Resolver interface {
	ResolveLocal(cfg vespa.DeployConfig) (vespa.ClientFactory, error)
	ResolveCloud(cfg vespa.DeployConfig) (vespa.ClientFactory, error)
}

// Options configures an Orchestrator.
type Options struct {
	Resolver  Resolver
	Confirmer Confirmer
	Logger    *slog.Logger

	// Image is the container image for local deploys.
	Image string
	// TempDir is the parent of process-owned application roots.
	TempDir string
	// Now returns the current time; used for the override expiry.
	Now func() time.Time
}

// Orchestrator runs deploys. It is not safe for concurrent use on the
// same application.
type Orchestrator struct {
	resolver  Resolver
	confirmer Confirmer
	logger    *slog.Logger
	image     string
	tempDir   string
	now       func() time.Time
}

// New creates an Orchestrator.
func New(opts Options) *Orchestrator {
	o := &Orchestrator{
		resolver:  opts.Resolver,
		confirmer: opts.Confirmer,
		logger:    opts.Logger,
		image:     opts.Image,
		tempDir:   opts.TempDir,
		now:       opts.Now,
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.image == "" {
		o.image = vespa.DefaultDockerImage
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.confirmer == nil {
		o.confirmer = NewGate(console.NewTerminal(), o.logger)
	}
	return o
}

// Deploy deploys pkg. appDir is a caller-owned application root; when
// empty the package is materialized into a temporary directory.
//
// It returns true on success and false without error only when a
// content-cluster-removal override was needed and refused. Any other
// failure is returned unchanged. A nil cfg, typed or not, loads the
// configuration from the environment.
func (o *Orchestrator) Deploy(ctx context.Context, appDir string, pkg vespa.ApplicationPackage, cfg vespa.DeployConfig) (bool, error) {
	if isNilConfig(cfg) {
		cfg = config.Default()
	}
	mode := vespa.ModeOf(cfg)
	logger := o.logger.With("attempt_id", uuid.NewString(), "mode", string(mode))

	var owned []string
	defer func() {
		for _, dir := range owned {
			os.RemoveAll(dir)
		}
	}()

	root := appDir
	state := vespa.Attempting
	for {
		if root == "" {
			dir, err := o.materialize(pkg)
			if err != nil {
				return false, err
			}
			owned = append(owned, dir)
			root = dir
		}

		handle, err := o.attempt(ctx, mode, cfg, pkg, root, logger)
		outcome := vespa.ClassifyOutcome(err)

		confirmed := false
		var until time.Time
		if outcome == vespa.OutcomeClusterRemoval && state.CanOverride() {
			until = vespa.OverrideExpiry(o.now())
			confirmed = o.confirmer.Confirm(err.Error(), until)
		}

		state = state.Next(outcome, confirmed)
		logger.Debug("deploy attempt finished", "state", state.String())

		switch state {
		case vespa.Succeeded:
			logEndpoint(logger, handle)
			return true, nil
		case vespa.Denied:
			logger.Warn("Skipping Vespa deploy to avoid content cluster removal; feeding/query may fail until the app is deployed")
			return false, nil
		case vespa.AttemptingWithOverride:
			if appDir == "" {
				dir, err := o.materialize(pkg)
				if err != nil {
					return false, err
				}
				owned = append(owned, dir)
				root = dir
			}
			if err := WriteValidationOverrides(root, until); err != nil {
				return false, err
			}
			logger.Info("retrying deploy with validation override",
				"override", vespa.ClusterRemovalScope,
				"until", vespa.ClusterRemovalOverride(until).UntilDate(),
				"root", root,
			)
		default:
			return false, err
		}
	}
}

// attempt runs one deploy against the backend selected by mode.
func (o *Orchestrator) attempt(ctx context.Context, mode vespa.Mode, cfg vespa.DeployConfig, pkg vespa.ApplicationPackage, root string, logger *slog.Logger) (any, error) {
	switch mode {
	case vespa.ModeLocal:
		return o.deployLocal(ctx, cfg, pkg, root, logger)
	case vespa.ModeCloud:
		return o.deployCloud(ctx, cfg, pkg, root, logger)
	default:
		return nil, fmt.Errorf("%w: %q", vespa.ErrUnknownMode, mode)
	}
}

func (o *Orchestrator) deployLocal(ctx context.Context, cfg vespa.DeployConfig, pkg vespa.ApplicationPackage, root string, logger *slog.Logger) (any, error) {
	factory, err := o.resolver.ResolveLocal(cfg)
	if err != nil {
		return nil, err
	}

	if factory.Name() == vespa.ComposeClientName {
		logger.Info("Deploying with ComposeVespaDocker")
		logger.Info("Deploying via compose config server", "url", cfg.ConfigServerURL())
	} else {
		logger.Info("Deploying with VespaDocker", "image", o.image)
	}

	args := vespa.LocalConstructorArgs(factory.Capabilities(), vespa.LocalParams{
		Image:           o.image,
		ConfigServerURL: cfg.ConfigServerURL(),
		Package:         pkg,
		Root:            root,
	})
	handle, err := o.construct(ctx, factory, args, pkg, root, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("VespaDocker deploy succeeded")
	return handle, nil
}

func (o *Orchestrator) deployCloud(ctx context.Context, cfg vespa.DeployConfig, pkg vespa.ApplicationPackage, root string, logger *slog.Logger) (any, error) {
	tenant := cfg.CloudTenant()
	if tenant == "" {
		return nil, vespa.ErrMissingTenant
	}

	application := cfg.CloudApplication()
	if application == "" {
		application = pkg.Name()
		logger.Info("VESPA_CLOUD_APPLICATION not set; using generated app name", "application", application)
	}
	instance := cfg.CloudInstance()
	logger.Info("Deploying to Vespa Cloud", "target", fmt.Sprintf("%s/%s/%s", tenant, application, instance))

	factory, err := o.resolver.ResolveCloud(cfg)
	if err != nil {
		return nil, err
	}

	args := vespa.CloudConstructorArgs(factory.Capabilities(), vespa.CloudParams{
		Tenant:      tenant,
		Application: application,
		Instance:    instance,
		APIKey:      cfg.CloudAPIKey(),
		APIKeyPath:  cfg.CloudAPIKeyPath(),
		Package:     pkg,
		Root:        root,
	})
	handle, err := o.construct(ctx, factory, args, pkg, root, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("Vespa Cloud deploy succeeded")
	return handle, nil
}

// construct builds a client from factory and deploys through it.
func (o *Orchestrator) construct(ctx context.Context, factory vespa.ClientFactory, args map[string]any, pkg vespa.ApplicationPackage, root string, logger *slog.Logger) (any, error) {
	logger.Debug("constructing deploy client",
		"client", factory.Name(),
		"declared", factory.Capabilities().Params(),
		"passed", len(args),
	)
	client, err := factory.New(args)
	if err != nil {
		return nil, err
	}
	if c, ok := client.(io.Closer); ok {
		defer c.Close()
	}
	return Invoke(ctx, client, pkg, root)
}

func (o *Orchestrator) materialize(pkg vespa.ApplicationPackage) (string, error) {
	dir, err := os.MkdirTemp(o.tempDir, "nyrag-app-")
	if err != nil {
		return "", fmt.Errorf("create application root: %w", err)
	}
	if err := pkg.ToFiles(dir); err != nil {
		os.RemoveAll(dir)
		return "", fmt.Errorf("materialize application package %q: %w", pkg.Name(), err)
	}
	return dir, nil
}

func isNilConfig(cfg vespa.DeployConfig) bool {
	if cfg == nil {
		return true
	}
	v := reflect.ValueOf(cfg)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

func logEndpoint(logger *slog.Logger, handle any) {
	ep := vespa.EndpointOf(handle)
	if ep.URL != "" {
		logger.Debug("Vespa endpoint", "url", ep.URL, "port", ep.Port)
	}
	if ep.CertPath != "" {
		logger.Debug("mTLS cert", "path", ep.CertPath)
	}
}
