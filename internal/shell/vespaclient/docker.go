package vespaclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nyrag/nyrag/internal/core/vespa"
	"github.com/nyrag/nyrag/internal/shell/docker"
)

const (
	// DockerContainerName is the name of the managed local Vespa container.
	DockerContainerName = "nyrag-vespa"

	// vespaVarDir holds Vespa's indexes and logs inside the container.
	vespaVarDir = "/opt/vespa/var"

	containerStopTimeout = 30 * time.Second
)

// DockerOptions are the constructor arguments VespaDocker accepts.
type DockerOptions struct {
	Image string `vespa:"image"`
	Root  string `vespa:"application_root"`
}

// DockerDeps are the runtime collaborators of VespaDocker.
type DockerDeps struct {
	// Connect opens the Docker client. It is called once, on first use.
	Connect func(ctx context.Context) (docker.Client, error)
	Logger  *slog.Logger

	ContainerName string
	HTTPPort      int
	ConfigPort    int
	ReadyTimeout  time.Duration

	// DataVolume is the named volume mounted at /opt/vespa/var.
	DataVolume string
}

// NewDockerFactory returns the VespaDocker factory.
func NewDockerFactory(deps DockerDeps) *Factory[DockerOptions] {
	return NewFactory(vespa.DockerClientName, func(opts DockerOptions) (any, error) {
		return NewVespaDocker(opts, deps), nil
	})
}

// VespaDocker runs Vespa in a local container and deploys to it.
type VespaDocker struct {
	opts DockerOptions
	deps DockerDeps

	mu     sync.Mutex
	docker docker.Client
}

// NewVespaDocker creates a VespaDocker client.
func NewVespaDocker(opts DockerOptions, deps DockerDeps) *VespaDocker {
	if opts.Image == "" {
		opts.Image = vespa.DefaultDockerImage
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.ContainerName == "" {
		deps.ContainerName = DockerContainerName
	}
	if deps.DataVolume == "" {
		deps.DataVolume = deps.ContainerName + "-var"
	}
	if deps.HTTPPort == 0 {
		deps.HTTPPort = vespa.DefaultLocalPort
	}
	if deps.ConfigPort == 0 {
		deps.ConfigPort = vespa.DefaultConfigPort
	}
	if deps.Connect == nil {
		deps.Connect = func(ctx context.Context) (docker.Client, error) {
			return docker.NewDockerClient(ctx, "")
		}
	}
	return &VespaDocker{opts: opts, deps: deps}
}

// Deploy deploys the application root given at construction.
func (v *VespaDocker) Deploy(ctx context.Context) (any, error) {
	return v.DeployRoot(ctx, v.opts.Root)
}

// DeployRoot deploys an application root to the local container,
// starting the container first if needed.
func (v *VespaDocker) DeployRoot(ctx context.Context, root string) (any, error) {
	if root == "" {
		return nil, vespa.ErrNoApplicationRoot
	}

	info, err := v.ensureContainer(ctx)
	if err != nil {
		return nil, err
	}

	cfgPort := info.HostPort(vespa.DefaultConfigPort)
	if cfgPort == 0 {
		cfgPort = v.deps.ConfigPort
	}
	httpPort := info.HostPort(vespa.DefaultLocalPort)
	if httpPort == 0 {
		httpPort = v.deps.HTTPPort
	}

	cs := NewConfigServer(fmt.Sprintf("http://localhost:%d", cfgPort), vespa.DockerClientName, v.deps.Logger)
	if err := cs.WaitReady(ctx, v.deps.ReadyTimeout); err != nil {
		return nil, err
	}
	if err := cs.DeployRoot(ctx, root); err != nil {
		return nil, err
	}

	return &vespa.Application{Endpoint: vespa.DefaultURL, HTTPPort: httpPort}, nil
}

// Close releases the Docker connection. The container keeps running.
func (v *VespaDocker) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.docker == nil {
		return nil
	}
	err := v.docker.Close()
	v.docker = nil
	return err
}

func (v *VespaDocker) client(ctx context.Context) (docker.Client, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.docker != nil {
		return v.docker, nil
	}
	c, err := v.deps.Connect(ctx)
	if err != nil {
		return nil, vespa.NewDeployError("connect", vespa.DockerClientName, err.Error(), err)
	}
	if err := c.Ping(ctx); err != nil {
		c.Close()
		return nil, vespa.NewDeployError("connect", vespa.DockerClientName, err.Error(), err)
	}
	v.docker = c
	return c, nil
}

// ensureContainer returns the managed container, creating and starting it
// when it does not exist or is stopped. A container built from another
// image is replaced; its data volume is kept.
func (v *VespaDocker) ensureContainer(ctx context.Context) (*docker.ContainerInfo, error) {
	dc, err := v.client(ctx)
	if err != nil {
		return nil, err
	}
	logger := v.deps.Logger.With("container", v.deps.ContainerName, "image", v.opts.Image)

	existing, err := v.findContainer(ctx, dc)
	if err != nil {
		return nil, err
	}

	switch {
	case existing == nil:
		if err := v.createContainer(ctx, dc, logger); err != nil {
			return nil, err
		}
	case existing.Labels[docker.LabelImage] != v.opts.Image:
		logger.Warn("replacing Vespa container built from a different image",
			"current_image", existing.Labels[docker.LabelImage],
		)
		if err := v.removeContainer(ctx, dc, existing); err != nil {
			return nil, err
		}
		if err := v.createContainer(ctx, dc, logger); err != nil {
			return nil, err
		}
	case existing.Status == docker.ContainerStatusRunning:
		logger.Debug("reusing running Vespa container")
		return dc.InspectContainer(ctx, existing.ID)
	default:
		logger.Info("starting stopped Vespa container", "status", string(existing.Status))
	}

	if err := dc.StartContainer(ctx, v.deps.ContainerName); err != nil && !errors.Is(err, docker.ErrContainerAlreadyRunning) {
		return nil, err
	}
	return dc.InspectContainer(ctx, v.deps.ContainerName)
}

// findContainer returns the managed container named ContainerName, or nil.
func (v *VespaDocker) findContainer(ctx context.Context, dc docker.Client) (*docker.ContainerInfo, error) {
	containers, err := dc.ListContainers(ctx, docker.ListOptions{
		All: true,
		Filters: map[string]string{
			"label": docker.LabelManaged + "=true",
			"name":  v.deps.ContainerName,
		},
	})
	if err != nil {
		return nil, err
	}
	// The name filter matches substrings.
	for i := range containers {
		if containers[i].Name == v.deps.ContainerName {
			return &containers[i], nil
		}
	}
	return nil, nil
}

func (v *VespaDocker) removeContainer(ctx context.Context, dc docker.Client, info *docker.ContainerInfo) error {
	if info.Status == docker.ContainerStatusRunning {
		timeout := containerStopTimeout
		if err := dc.StopContainer(ctx, info.ID, &timeout); err != nil && !errors.Is(err, docker.ErrContainerNotRunning) {
			return err
		}
	}
	err := dc.RemoveContainer(ctx, info.ID, docker.RemoveOptions{Force: true})
	if err != nil && !errors.Is(err, docker.ErrContainerNotFound) {
		return err
	}
	return nil
}

func (v *VespaDocker) createContainer(ctx context.Context, dc docker.Client, logger *slog.Logger) error {
	exists, err := dc.ImageExists(ctx, v.opts.Image)
	if err != nil {
		return err
	}
	if !exists {
		logger.Info("pulling Vespa image")
		if err := dc.PullImage(ctx, v.opts.Image); err != nil {
			return err
		}
	}

	logger.Info("creating Vespa container", "volume", v.deps.DataVolume)
	_, err = dc.CreateContainer(ctx, docker.ContainerSpec{
		Name:  v.deps.ContainerName,
		Image: v.opts.Image,
		Labels: map[string]string{
			docker.LabelManaged:     "true",
			docker.LabelApplication: v.deps.ContainerName,
			docker.LabelImage:       v.opts.Image,
		},
		Ports: []docker.PortBinding{
			{ContainerPort: vespa.DefaultLocalPort, HostPort: v.deps.HTTPPort},
			{ContainerPort: vespa.DefaultConfigPort, HostPort: v.deps.ConfigPort},
		},
		Volumes: []docker.VolumeMount{
			{Source: v.deps.DataVolume, Target: vespaVarDir},
		},
		RestartPolicy: docker.RestartPolicy{Name: "unless-stopped"},
		HealthCheck:   configServerHealthCheck(),
	})
	return err
}

// configServerHealthCheck marks the container healthy once the config
// server answers its health endpoint.
func configServerHealthCheck() *docker.HealthCheck {
	return &docker.HealthCheck{
		Test:        []string{"CMD-SHELL", fmt.Sprintf("curl -fs http://localhost:%d%s || exit 1", vespa.DefaultConfigPort, healthPath)},
		Interval:    10 * time.Second,
		Timeout:     5 * time.Second,
		Retries:     3,
		StartPeriod: 60 * time.Second,
	}
}
