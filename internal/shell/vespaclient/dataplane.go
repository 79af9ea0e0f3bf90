package vespaclient

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/nyrag/nyrag/internal/core/vespa"
)

// ErrIncompleteClientCert is returned when only one of the client
// certificate and key is given.
var ErrIncompleteClientCert = errors.New("client certificate and key must be given together")

// DataPlaneOptions are the constructor arguments the data-plane client
// accepts.
type DataPlaneOptions struct {
	URL    string `vespa:"url"`
	Port   int    `vespa:"port"`
	Cert   string `vespa:"cert"`
	Key    string `vespa:"key"`
	CACert string `vespa:"ca_cert"`
	Verify bool   `vespa:"verify"`
}

// NewDataPlaneFactory returns the factory for data-plane clients.
func NewDataPlaneFactory(logger *slog.Logger) *Factory[DataPlaneOptions] {
	return NewFactory(vespa.DataPlaneClientName, func(opts DataPlaneOptions) (any, error) {
		return NewDataPlane(opts, logger)
	})
}

// DataPlane talks to a deployed application's container endpoint.
type DataPlane struct {
	endpoint string
	http     *retryablehttp.Client
	logger   *slog.Logger
}

// NewDataPlane creates a data-plane client. TLS files are loaded eagerly so
// a bad path fails here rather than on the first request.
func NewDataPlane(opts DataPlaneOptions, logger *slog.Logger) (*DataPlane, error) {
	if logger == nil {
		logger = slog.Default()
	}
	tlsCfg, err := dataPlaneTLS(opts)
	if err != nil {
		return nil, vespa.NewDeployError("configure data plane TLS", vespa.DataPlaneClientName, err.Error(), err)
	}

	c := newHealthHTTPClient(logger)
	c.HTTPClient.Transport = &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		TLSClientConfig:     tlsCfg,
		TLSHandshakeTimeout: 10 * time.Second,
		IdleConnTimeout:     90 * time.Second,
	}

	endpoint := strings.TrimRight(opts.URL, "/")
	if opts.Port > 0 {
		endpoint = fmt.Sprintf("%s:%d", endpoint, opts.Port)
	}
	return &DataPlane{endpoint: endpoint, http: c, logger: logger}, nil
}

// Endpoint returns the base URL requests go to.
func (d *DataPlane) Endpoint() string { return d.endpoint }

// WaitReady polls the application's health endpoint until it answers 200
// or timeout elapses.
func (d *DataPlane) WaitReady(ctx context.Context, timeout time.Duration) error {
	if err := waitHealthy(ctx, d.http, d.endpoint, timeout); err != nil {
		return vespa.NewDeployError("wait for data plane", vespa.DataPlaneClientName, err.Error(), err)
	}
	d.logger.Debug("Vespa data plane ready", "endpoint", d.endpoint)
	return nil
}

func dataPlaneTLS(opts DataPlaneOptions) (*tls.Config, error) {
	cfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: !opts.Verify,
	}

	if opts.Cert != "" || opts.Key != "" {
		if opts.Cert == "" || opts.Key == "" {
			return nil, ErrIncompleteClientCert
		}
		pair, err := tls.LoadX509KeyPair(opts.Cert, opts.Key)
		if err != nil {
			return nil, fmt.Errorf("load client certificate: %w", err)
		}
		cfg.Certificates = []tls.Certificate{pair}
	}

	if opts.CACert != "" {
		pemBytes, err := os.ReadFile(opts.CACert)
		if err != nil {
			return nil, fmt.Errorf("read CA certificate: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pemBytes) {
			return nil, fmt.Errorf("no certificates in %s", opts.CACert)
		}
		cfg.RootCAs = pool
	}
	return cfg, nil
}
