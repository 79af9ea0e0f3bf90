package vespaclient

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/nyrag/nyrag/internal/core/vespa"
	"github.com/nyrag/nyrag/internal/shell/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDocker is an in-memory docker.Client holding at most one container.
type fakeDocker struct {
	images    map[string]bool
	container *docker.ContainerInfo
	cfgPort   int

	pulled  []string
	created []docker.ContainerSpec
	listed  []docker.ListOptions
	started int
	stopped int
	removed int
	closed  bool
	pullErr error
	pingErr error
}

func (f *fakeDocker) CreateContainer(_ context.Context, spec docker.ContainerSpec) (string, error) {
	if f.container != nil {
		return "", docker.NewDockerError("CreateContainer", "container", spec.Name, "container already exists", docker.ErrContainerAlreadyExists)
	}
	f.created = append(f.created, spec)
	f.container = &docker.ContainerInfo{
		ID:     "c1",
		Name:   spec.Name,
		Image:  spec.Image,
		Status: docker.ContainerStatusCreated,
		Labels: spec.Labels,
	}
	return "c1", nil
}

func (f *fakeDocker) StartContainer(_ context.Context, _ string) error {
	if f.container == nil {
		return docker.ErrContainerNotFound
	}
	f.started++
	f.container.Status = docker.ContainerStatusRunning
	f.container.Ports = []docker.PortBinding{
		{ContainerPort: vespa.DefaultLocalPort, HostPort: 18080},
		{ContainerPort: vespa.DefaultConfigPort, HostPort: f.cfgPort},
	}
	return nil
}

func (f *fakeDocker) StopContainer(context.Context, string, *time.Duration) error {
	if f.container == nil {
		return docker.ErrContainerNotFound
	}
	f.stopped++
	f.container.Status = docker.ContainerStatusExited
	return nil
}

func (f *fakeDocker) RemoveContainer(context.Context, string, docker.RemoveOptions) error {
	if f.container == nil {
		return docker.ErrContainerNotFound
	}
	f.removed++
	f.container = nil
	return nil
}

func (f *fakeDocker) InspectContainer(_ context.Context, id string) (*docker.ContainerInfo, error) {
	if f.container == nil {
		return nil, docker.NewDockerError("InspectContainer", "container", id, "container not found", docker.ErrContainerNotFound)
	}
	info := *f.container
	return &info, nil
}

// ListContainers honours the label filter only.
func (f *fakeDocker) ListContainers(_ context.Context, opts docker.ListOptions) ([]docker.ContainerInfo, error) {
	f.listed = append(f.listed, opts)
	if f.container == nil {
		return nil, nil
	}
	if label, ok := opts.Filters["label"]; ok {
		k, v, _ := strings.Cut(label, "=")
		if f.container.Labels[k] != v {
			return nil, nil
		}
	}
	return []docker.ContainerInfo{*f.container}, nil
}

func (f *fakeDocker) PullImage(_ context.Context, image string) error {
	if f.pullErr != nil {
		return f.pullErr
	}
	f.pulled = append(f.pulled, image)
	if f.images == nil {
		f.images = map[string]bool{}
	}
	f.images[image] = true
	return nil
}

func (f *fakeDocker) ImageExists(_ context.Context, image string) (bool, error) {
	return f.images[image], nil
}

func (f *fakeDocker) Ping(context.Context) error { return f.pingErr }

func (f *fakeDocker) Close() error {
	f.closed = true
	return nil
}

func managedLabels(image string) map[string]string {
	return map[string]string{
		docker.LabelManaged:     "true",
		docker.LabelApplication: DockerContainerName,
		docker.LabelImage:       image,
	}
}

func newTestVespaDocker(t *testing.T, fd *fakeDocker, opts DockerOptions) *VespaDocker {
	t.Helper()
	connects := 0
	v := NewVespaDocker(opts, DockerDeps{
		Connect: func(context.Context) (docker.Client, error) {
			connects++
			require.Equal(t, 1, connects, "docker connects once")
			return fd, nil
		},
		ReadyTimeout: 5 * time.Second,
	})
	return v
}

func configPortOf(t *testing.T, fake *fakeConfigServer) int {
	t.Helper()
	u, err := url.Parse(fake.URL())
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	return port
}

func TestVespaDocker_CreatesContainer(t *testing.T) {
	fake := newFakeConfigServer(t)
	fd := &fakeDocker{cfgPort: configPortOf(t, fake)}
	v := newTestVespaDocker(t, fd, DockerOptions{Image: "vespaengine/vespa:8"})

	handle, err := v.DeployRoot(context.Background(), writeAppRoot(t, nil))
	require.NoError(t, err)

	assert.Equal(t, []string{"vespaengine/vespa:8"}, fd.pulled)
	require.Len(t, fd.created, 1)
	spec := fd.created[0]
	assert.Equal(t, DockerContainerName, spec.Name)
	assert.Equal(t, "true", spec.Labels[docker.LabelManaged])
	assert.Equal(t, "vespaengine/vespa:8", spec.Labels[docker.LabelImage])
	assert.Len(t, spec.Ports, 2)
	assert.Equal(t, []docker.VolumeMount{{Source: DockerContainerName + "-var", Target: "/opt/vespa/var"}}, spec.Volumes)
	require.NotNil(t, spec.HealthCheck)
	assert.Contains(t, spec.HealthCheck.Test[1], "http://localhost:19071/state/v1/health")
	assert.Equal(t, 1, fd.started)
	assert.Equal(t, 1, fake.deployCount())

	require.NotEmpty(t, fd.listed)
	assert.Equal(t, docker.LabelManaged+"=true", fd.listed[0].Filters["label"])
	assert.True(t, fd.listed[0].All)

	ep := vespa.EndpointOf(handle)
	assert.Equal(t, vespa.DefaultURL, ep.URL)
	assert.Equal(t, 18080, ep.Port)

	require.NoError(t, v.Close())
	assert.True(t, fd.closed)
}

func TestVespaDocker_ReusesRunningContainer(t *testing.T) {
	fake := newFakeConfigServer(t)
	fd := &fakeDocker{cfgPort: configPortOf(t, fake), images: map[string]bool{vespa.DefaultDockerImage: true}}
	v := newTestVespaDocker(t, fd, DockerOptions{})

	_, err := v.DeployRoot(context.Background(), writeAppRoot(t, nil))
	require.NoError(t, err)
	_, err = v.Deploy(context.Background())
	assert.ErrorIs(t, err, vespa.ErrNoApplicationRoot)

	v.opts.Root = writeAppRoot(t, nil)
	_, err = v.Deploy(context.Background())
	require.NoError(t, err)

	assert.Empty(t, fd.pulled, "image already present")
	assert.Len(t, fd.created, 1)
	assert.Equal(t, 1, fd.started)
	assert.Equal(t, 2, fake.deployCount())
}

func TestVespaDocker_StartsStoppedContainer(t *testing.T) {
	fake := newFakeConfigServer(t)
	fd := &fakeDocker{
		cfgPort:   configPortOf(t, fake),
		container: &docker.ContainerInfo{
			ID:     "c1",
			Name:   DockerContainerName,
			Status: docker.ContainerStatusExited,
			Labels: managedLabels(vespa.DefaultDockerImage),
		},
	}
	v := newTestVespaDocker(t, fd, DockerOptions{})

	_, err := v.DeployRoot(context.Background(), writeAppRoot(t, nil))
	require.NoError(t, err)
	assert.Empty(t, fd.created)
	assert.Zero(t, fd.removed)
	assert.Equal(t, 1, fd.started)
}

func TestVespaDocker_RecreatesOnImageChange(t *testing.T) {
	fake := newFakeConfigServer(t)
	fd := &fakeDocker{
		cfgPort: configPortOf(t, fake),
		images:  map[string]bool{"vespaengine/vespa:8.400": true},
		container: &docker.ContainerInfo{
			ID:     "old",
			Name:   DockerContainerName,
			Status: docker.ContainerStatusRunning,
			Labels: managedLabels("vespaengine/vespa:8.300"),
		},
	}
	var logs bytes.Buffer
	v := NewVespaDocker(DockerOptions{Image: "vespaengine/vespa:8.400"}, DockerDeps{
		Connect:      func(context.Context) (docker.Client, error) { return fd, nil },
		Logger:       slog.New(slog.NewTextHandler(&logs, nil)),
		ReadyTimeout: 5 * time.Second,
	})

	_, err := v.DeployRoot(context.Background(), writeAppRoot(t, nil))
	require.NoError(t, err)

	assert.Equal(t, 1, fd.stopped)
	assert.Equal(t, 1, fd.removed)
	require.Len(t, fd.created, 1)
	assert.Equal(t, "vespaengine/vespa:8.400", fd.created[0].Image)
	assert.Equal(t, "vespaengine/vespa:8.400", fd.container.Labels[docker.LabelImage])
	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "current_image=vespaengine/vespa:8.300")
}

func TestVespaDocker_UnmanagedContainerConflict(t *testing.T) {
	fd := &fakeDocker{
		images:    map[string]bool{vespa.DefaultDockerImage: true},
		container: &docker.ContainerInfo{ID: "x", Name: DockerContainerName, Status: docker.ContainerStatusRunning},
	}
	v := newTestVespaDocker(t, fd, DockerOptions{})

	_, err := v.DeployRoot(context.Background(), writeAppRoot(t, nil))
	assert.ErrorIs(t, err, docker.ErrContainerAlreadyExists)
	assert.Zero(t, fd.removed, "containers nyrag did not create are left alone")
}

func TestVespaDocker_PingFailure(t *testing.T) {
	fd := &fakeDocker{pingErr: docker.ErrConnectionFailed}
	v := newTestVespaDocker(t, fd, DockerOptions{})

	_, err := v.DeployRoot(context.Background(), writeAppRoot(t, nil))
	assert.ErrorIs(t, err, docker.ErrConnectionFailed)
	assert.True(t, fd.closed)
	assert.Empty(t, fd.listed)
}

func TestVespaDocker_PullFailure(t *testing.T) {
	fd := &fakeDocker{pullErr: docker.ErrImageNotFound}
	v := newTestVespaDocker(t, fd, DockerOptions{Image: "nope/vespa"})

	_, err := v.DeployRoot(context.Background(), writeAppRoot(t, nil))
	assert.ErrorIs(t, err, docker.ErrImageNotFound)
	assert.Empty(t, fd.created)
}

func TestVespaDocker_ConnectFailure(t *testing.T) {
	v := NewVespaDocker(DockerOptions{}, DockerDeps{
		Connect: func(context.Context) (docker.Client, error) {
			return nil, docker.ErrConnectionFailed
		},
	})

	_, err := v.DeployRoot(context.Background(), writeAppRoot(t, nil))
	require.Error(t, err)
	assert.True(t, errors.Is(err, docker.ErrConnectionFailed))
	assert.NoError(t, v.Close())
}

func TestVespaDocker_Refused(t *testing.T) {
	fake := newFakeConfigServer(t)
	fake.refuse(400, clusterRemovalBody)
	fd := &fakeDocker{cfgPort: configPortOf(t, fake)}
	v := newTestVespaDocker(t, fd, DockerOptions{})

	_, err := v.DeployRoot(context.Background(), writeAppRoot(t, nil))
	assert.Equal(t, vespa.OutcomeClusterRemoval, vespa.ClassifyOutcome(err))
}
