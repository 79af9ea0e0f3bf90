package vespa

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Param names a constructor argument a deployment client may declare.
type Param string

const (
	ParamImage              Param = "image"
	ParamDockerImage        Param = "docker_image"
	ParamConfigServerURL    Param = "cfgsrv_url"
	ParamApplicationPackage Param = "application_package"
	ParamApplicationRoot    Param = "application_root"
	ParamTenant             Param = "tenant"
	ParamApplication        Param = "application"
	ParamInstance           Param = "instance"
	ParamAPIKey             Param = "api_key"
	ParamAPIKeyPath         Param = "api_key_path"

	ParamEndpoint Param = "endpoint"
	ParamURL      Param = "url"
	ParamPort     Param = "port"
	ParamCert     Param = "cert"
	ParamKey      Param = "key"
	ParamCACert   Param = "ca_cert"
	ParamVerify   Param = "verify"
)

// CapabilityTag is the struct tag client options use to declare the
// constructor arguments they accept.
const CapabilityTag = "vespa"

// Capabilities is the set of constructor arguments a client declares.
type Capabilities map[Param]struct{}

// NewCapabilities builds a descriptor from explicit parameter names.
func NewCapabilities(params ...Param) Capabilities {
	c := make(Capabilities, len(params))
	for _, p := range params {
		c[p] = struct{}{}
	}
	return c
}

// CapabilitiesOf inspects an options struct (or pointer to one) and
// returns the parameters declared through `vespa:"name"` tags.
func CapabilitiesOf(options any) Capabilities {
	c := Capabilities{}
	t := reflect.TypeOf(options)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return c
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get(CapabilityTag), ",")
		if name == "" || name == "-" {
			continue
		}
		c[Param(name)] = struct{}{}
	}
	return c
}

// Has reports whether p is declared.
func (c Capabilities) Has(p Param) bool {
	_, ok := c[p]
	return ok
}

// Params returns the declared parameters in sorted order.
func (c Capabilities) Params() []Param {
	out := make([]Param, 0, len(c))
	for p := range c {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// =============================================================================
// Constructor Argument Selection
// =============================================================================

// LocalParams are the values available for a local client constructor.
type LocalParams struct {
	Image           string
	ConfigServerURL string
	Package         ApplicationPackage
	Root            string
}

// LocalConstructorArgs returns the arguments a local client declares,
// taken from p. Image is passed as image or docker_image, never both.
func LocalConstructorArgs(caps Capabilities, p LocalParams) map[string]any {
	args := map[string]any{}
	switch {
	case caps.Has(ParamImage):
		args[string(ParamImage)] = p.Image
	case caps.Has(ParamDockerImage):
		args[string(ParamDockerImage)] = p.Image
	}
	if caps.Has(ParamConfigServerURL) {
		args[string(ParamConfigServerURL)] = p.ConfigServerURL
	}
	setPackageArgs(args, caps, p.Package, p.Root)
	return args
}

// CloudParams are the values available for a cloud client constructor.
type CloudParams struct {
	Tenant      string
	Application string
	Instance    string
	APIKey      string
	APIKeyPath  string
	Package     ApplicationPackage
	Root        string
}

// CloudConstructorArgs returns the arguments a cloud client declares.
// Key material is only passed when it is set.
func CloudConstructorArgs(caps Capabilities, p CloudParams) map[string]any {
	args := map[string]any{}
	for param, value := range map[Param]string{
		ParamTenant:      p.Tenant,
		ParamApplication: p.Application,
		ParamInstance:    p.Instance,
	} {
		if caps.Has(param) {
			args[string(param)] = value
		}
	}
	setPackageArgs(args, caps, p.Package, p.Root)
	if p.APIKeyPath != "" && caps.Has(ParamAPIKeyPath) {
		args[string(ParamAPIKeyPath)] = p.APIKeyPath
	}
	if p.APIKey != "" && caps.Has(ParamAPIKey) {
		args[string(ParamAPIKey)] = p.APIKey
	}
	return args
}

func setPackageArgs(args map[string]any, caps Capabilities, pkg ApplicationPackage, root string) {
	if caps.Has(ParamApplicationPackage) {
		args[string(ParamApplicationPackage)] = pkg
	}
	if caps.Has(ParamApplicationRoot) {
		args[string(ParamApplicationRoot)] = root
	}
}

// DataPlaneParams are the values available for a data-plane client
// constructor.
type DataPlaneParams struct {
	URL    string
	Port   int
	Cert   string
	Key    string
	CACert string
	Verify bool
}

// DataPlaneConstructorArgs returns the arguments a data-plane client
// declares. The endpoint is passed as one "url:port" string when the
// client declares endpoint, else as url and port. A client certificate is
// passed only when both files are set; a client declaring cert but not key
// receives the pair as a two-element slice.
func DataPlaneConstructorArgs(caps Capabilities, p DataPlaneParams) map[string]any {
	args := map[string]any{}
	if caps.Has(ParamEndpoint) {
		args[string(ParamEndpoint)] = fmt.Sprintf("%s:%d", p.URL, p.Port)
	} else {
		if caps.Has(ParamURL) {
			args[string(ParamURL)] = p.URL
		}
		if caps.Has(ParamPort) {
			args[string(ParamPort)] = p.Port
		}
	}

	if p.Cert != "" && p.Key != "" && caps.Has(ParamCert) {
		if caps.Has(ParamKey) {
			args[string(ParamCert)] = p.Cert
			args[string(ParamKey)] = p.Key
		} else {
			args[string(ParamCert)] = []string{p.Cert, p.Key}
		}
	}
	if p.CACert != "" && caps.Has(ParamCACert) {
		args[string(ParamCACert)] = p.CACert
	}
	if caps.Has(ParamVerify) {
		args[string(ParamVerify)] = p.Verify
	}
	return args
}
