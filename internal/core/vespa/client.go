package vespa

import "context"

// ApplicationPackage is a deployable bundle of Vespa configuration.
type ApplicationPackage interface {
	// Name is the application name, used as the cloud application default.
	Name() string
	// ToFiles materializes the package into dir.
	ToFiles(dir string) error
}

// DeployConfig is the read-only configuration the deploy flow consumes.
type DeployConfig interface {
	IsLocalMode() bool
	ConfigServerURL() string
	CloudTenant() string
	CloudApplication() string
	CloudInstance() string
	CloudAPIKeyPath() string
	CloudAPIKey() string
}

// Client type names reported by the bundled factories.
const (
	DockerClientName  = "VespaDocker"
	ComposeClientName = "ComposeVespaDocker"
	CloudClientName   = "VespaCloud"

	DataPlaneClientName = "Vespa"
)

// ClientFactory constructs deployment clients of one backend type.
type ClientFactory interface {
	// Name is the client type name, e.g. VespaDocker.
	Name() string
	// Capabilities lists the constructor arguments the type declares.
	Capabilities() Capabilities
	// New builds a client. Passing an undeclared argument is an error.
	New(args map[string]any) (any, error)
}

// =============================================================================
// Deploy Call Surfaces
// =============================================================================

// Client versions differ in how the package is handed to deploy. A client
// implements any subset of the interfaces below.

// PackageDeployer deploys a package object.
type PackageDeployer interface {
	DeployPackage(ctx context.Context, pkg ApplicationPackage) (any, error)
}

// RootDeployer deploys a materialized application root directory.
type RootDeployer interface {
	DeployRoot(ctx context.Context, root string) (any, error)
}

// Deployer deploys whatever package or root it was configured with.
type Deployer interface {
	Deploy(ctx context.Context) (any, error)
}

// PackageSink accepts the package before an argument-less Deploy.
type PackageSink interface {
	SetApplicationPackage(pkg ApplicationPackage)
}

// RootSink accepts the application root before an argument-less Deploy.
type RootSink interface {
	SetApplicationRoot(root string)
}

// =============================================================================
// Deployed Application Handle
// =============================================================================

// URLer exposes the endpoint URL of a deployed application.
type URLer interface {
	URL() string
}

// Porter exposes the endpoint port of a deployed application.
type Porter interface {
	Port() int
}

// CertPather exposes the mTLS client certificate of a deployed application.
type CertPather interface {
	CertPath() string
}

// Endpoint is what could be learned about a deployed application.
type Endpoint struct {
	URL      string
	Port     int
	CertPath string
}

// EndpointOf extracts whatever endpoint details handle exposes.
// Missing details are left zero.
func EndpointOf(handle any) Endpoint {
	var ep Endpoint
	if u, ok := handle.(URLer); ok {
		ep.URL = u.URL()
	}
	if p, ok := handle.(Porter); ok {
		ep.Port = p.Port()
	}
	if c, ok := handle.(CertPather); ok {
		ep.CertPath = c.CertPath()
	}
	return ep
}

// Application is the handle the bundled clients return.
type Application struct {
	Endpoint string
	HTTPPort int
	Cert     string
}

func (a *Application) URL() string      { return a.Endpoint }
func (a *Application) Port() int        { return a.HTTPPort }
func (a *Application) CertPath() string { return a.Cert }
