package deployer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/nyrag/nyrag/internal/core/vespa"
)

// =============================================================================
// Test Fakes
// =============================================================================

const clusterRemovalMessage = "Invalid application package: default.default: Invalid application: " +
	"content-cluster-removal: Content cluster 'docs' is removed. This will cause loss of all data in this cluster"

var errClusterRemoval = vespa.NewDeployError("prepareandactivate", "VespaDocker", clusterRemovalMessage, nil)

type fakePackage struct {
	name     string
	toFiles  int
	failWith error
}

func (p *fakePackage) Name() string { return p.name }

func (p *fakePackage) ToFiles(dir string) error {
	p.toFiles++
	if p.failWith != nil {
		return p.failWith
	}
	return os.WriteFile(filepath.Join(dir, "services.xml"), []byte("<services/>"), 0644)
}

type fakeConfig struct {
	local       bool
	cfgsrv      string
	tenant      string
	application string
	instance    string
	apiKeyPath  string
	apiKey      string
}

func (c *fakeConfig) IsLocalMode() bool        { return c.local }
func (c *fakeConfig) ConfigServerURL() string  { return c.cfgsrv }
func (c *fakeConfig) CloudTenant() string      { return c.tenant }
func (c *fakeConfig) CloudApplication() string { return c.application }
func (c *fakeConfig) CloudInstance() string    { return c.instance }
func (c *fakeConfig) CloudAPIKeyPath() string  { return c.apiKeyPath }
func (c *fakeConfig) CloudAPIKey() string      { return c.apiKey }

// call records one deploy call seen by a fake client.
type call struct {
	root        string
	hadOverride bool
	override    string
}

// scriptedClient deploys through DeployRoot and returns errs in order.
type scriptedClient struct {
	errs   []error
	calls  []call
	closed bool
}

func (c *scriptedClient) DeployRoot(_ context.Context, root string) (any, error) {
	rec := call{root: root}
	if b, err := os.ReadFile(filepath.Join(root, vespa.ValidationOverridesFile)); err == nil {
		rec.hadOverride = true
		rec.override = string(b)
	}
	c.calls = append(c.calls, rec)

	i := len(c.calls) - 1
	if i < len(c.errs) && c.errs[i] != nil {
		return nil, c.errs[i]
	}
	return &vespa.Application{Endpoint: "http://localhost", HTTPPort: 8080}, nil
}

func (c *scriptedClient) Close() error {
	c.closed = true
	return nil
}

type fakeFactory struct {
	name   string
	caps   vespa.Capabilities
	client any
	newErr error
	args   []map[string]any
}

func (f *fakeFactory) Name() string                     { return f.name }
func (f *fakeFactory) Capabilities() vespa.Capabilities { return f.caps }

func (f *fakeFactory) New(args map[string]any) (any, error) {
	f.args = append(f.args, args)
	if f.newErr != nil {
		return nil, f.newErr
	}
	return f.client, nil
}

type fakeResolver struct {
	local      *fakeFactory
	cloud      *fakeFactory
	localCalls int
	cloudCalls int
}

func (r *fakeResolver) ResolveLocal(vespa.DeployConfig) (vespa.ClientFactory, error) {
	r.localCalls++
	if r.local == nil {
		return nil, errors.New("no local factory")
	}
	return r.local, nil
}

func (r *fakeResolver) ResolveCloud(vespa.DeployConfig) (vespa.ClientFactory, error) {
	r.cloudCalls++
	if r.cloud == nil {
		return nil, errors.New("no cloud factory")
	}
	return r.cloud, nil
}

type fakeConfirmer struct {
	answer   bool
	messages []string
	untils   []time.Time
}

func (c *fakeConfirmer) Confirm(message string, until time.Time) bool {
	c.messages = append(c.messages, message)
	c.untils = append(c.untils, until)
	return c.answer
}

type fakeConsole struct {
	interactive bool
	input       string
	readErr     error
	printed     []string
	prompts     []string
}

func (c *fakeConsole) IsInteractive() bool { return c.interactive }
func (c *fakeConsole) Println(msg string)  { c.printed = append(c.printed, msg) }

func (c *fakeConsole) ReadLine(prompt string) (string, error) {
	c.prompts = append(c.prompts, prompt)
	return c.input, c.readErr
}
