package vespaclient

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/nyrag/nyrag/internal/core/vespa"
)

// CloudOptions are the constructor arguments VespaCloud accepts.
type CloudOptions struct {
	Tenant      string `vespa:"tenant"`
	Application string `vespa:"application"`
	Instance    string `vespa:"instance"`
	APIKey      string `vespa:"api_key"`
	APIKeyPath  string `vespa:"api_key_path"`
	Root        string `vespa:"application_root"`
}

// CloudDeps are the runtime collaborators of VespaCloud.
type CloudDeps struct {
	APIURL string
	Zone   string // environment-region, e.g. dev-aws-us-east-1c
	// Home is where the Vespa CLI keeps keys and certificates.
	Home string
	// EndpointURL is the data-plane URL reported for the deployment.
	EndpointURL string
	Logger      *slog.Logger
}

// NewCloudFactory returns the VespaCloud factory.
func NewCloudFactory(deps CloudDeps) *Factory[CloudOptions] {
	return NewFactory(vespa.CloudClientName, func(opts CloudOptions) (any, error) {
		return NewVespaCloud(opts, deps), nil
	})
}

// VespaCloud deploys to the Vespa Cloud dev zone through the control-plane
// API.
type VespaCloud struct {
	opts CloudOptions
	deps CloudDeps
	http *retryablehttp.Client
}

// NewVespaCloud creates a VespaCloud client.
func NewVespaCloud(opts CloudOptions, deps CloudDeps) *VespaCloud {
	if opts.Instance == "" {
		opts.Instance = vespa.DefaultCloudInstance
	}
	if deps.APIURL == "" {
		deps.APIURL = vespa.DefaultCloudAPIURL
	}
	deps.APIURL = strings.TrimRight(deps.APIURL, "/")
	if deps.Zone == "" {
		deps.Zone = vespa.DefaultCloudZone
	}
	if deps.Home == "" {
		deps.Home, _ = os.UserHomeDir()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &VespaCloud{opts: opts, deps: deps, http: newDeployHTTPClient(deps.Logger)}
}

// SetApplicationRoot sets the root the next Deploy ships.
func (c *VespaCloud) SetApplicationRoot(root string) {
	c.opts.Root = root
}

// Deploy deploys the configured application root.
func (c *VespaCloud) Deploy(ctx context.Context) (any, error) {
	return c.DeployRoot(ctx, c.opts.Root)
}

// DeployRoot uploads root to the dev zone.
func (c *VespaCloud) DeployRoot(ctx context.Context, root string) (any, error) {
	if root == "" {
		return nil, vespa.ErrNoApplicationRoot
	}

	signer, err := c.signer()
	if err != nil {
		return nil, err
	}

	archive, err := zipRoot(root)
	if err != nil {
		return nil, err
	}
	body, contentType, err := multipartZip(archive)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/application/v4/tenant/%s/application/%s/instance/%s/deploy/%s",
		c.deps.APIURL, c.opts.Tenant, c.opts.Application, c.opts.Instance, c.deps.Zone)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	if err := signer.Sign(req.Request, body); err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, vespa.NewDeployError("deploy", vespa.CloudClientName, err.Error(), err)
	}
	defer resp.Body.Close()

	out, err := decodeDeployResponse(resp)
	if err != nil {
		return nil, vespa.NewDeployError("deploy", vespa.CloudClientName, err.Error(), err)
	}
	if resp.StatusCode/100 != 2 {
		return nil, &vespa.DeployError{
			Op:      "deploy",
			Backend: vespa.CloudClientName,
			Status:  resp.StatusCode,
			Code:    out.ErrorCode,
			Message: out.Message,
		}
	}
	c.deps.Logger.Info("Vespa Cloud accepted deployment", "message", out.Message)

	cert, _ := vespa.CloudMTLSPaths(c.deps.Home, c.opts.Application)
	return &vespa.Application{
		Endpoint: c.deps.EndpointURL,
		HTTPPort: vespa.DefaultCloudPort,
		Cert:     cert,
	}, nil
}

func (c *VespaCloud) signer() (*RequestSigner, error) {
	keyID := fmt.Sprintf("%s:%s:%s", c.opts.Tenant, c.opts.Application, c.opts.Instance)

	if c.opts.APIKey != "" {
		return NewRequestSigner(keyID, []byte(c.opts.APIKey))
	}

	path := c.opts.APIKeyPath
	if path == "" {
		path = filepath.Join(c.deps.Home, ".vespa", c.opts.Tenant+".api-key.pem")
	}
	key, err := os.ReadFile(path)
	if err != nil {
		return nil, vespa.NewDeployError("read API key", vespa.CloudClientName, err.Error(), err)
	}
	return NewRequestSigner(keyID, key)
}

func multipartZip(archive []byte) ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("applicationZip", "application.zip")
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(archive); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}
