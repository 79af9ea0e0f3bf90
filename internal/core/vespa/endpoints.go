package vespa

import (
	"fmt"
	"path/filepath"
)

const (
	DefaultDockerImage    = "vespaengine/vespa:latest"
	DefaultURL            = "http://localhost"
	DefaultLocalPort      = 8080
	DefaultCloudPort      = 443
	DefaultConfigPort     = 19071
	DefaultCloudInstance  = "default"
	DefaultCloudAPIURL    = "https://api-ctl.vespa-cloud.com:4443"
	DefaultCloudZone      = "dev-aws-us-east-1c"
	DefaultTenant         = "default"
	CloudCertName         = "data-plane-public-cert.pem"
	CloudKeyName          = "data-plane-private-key.pem"
	cloudMTLSTenantPrefix = "devrel-public"
)

// CloudMTLSPaths returns where the Vespa CLI keeps the data-plane
// certificate and key for a project: ~/.vespa/devrel-public.<project>.default/.
func CloudMTLSPaths(home, project string) (cert, key string) {
	base := filepath.Join(home, ".vespa", fmt.Sprintf("%s.%s.default", cloudMTLSTenantPrefix, project))
	return filepath.Join(base, CloudCertName), filepath.Join(base, CloudKeyName)
}

// DefaultPort returns the query port for the deploy mode.
func DefaultPort(mode Mode) int {
	if mode == ModeCloud {
		return DefaultCloudPort
	}
	return DefaultLocalPort
}
