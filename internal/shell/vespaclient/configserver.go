package vespaclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/nyrag/nyrag/internal/core/vespa"
)

const (
	prepareAndActivatePath = "/application/v2/tenant/" + vespa.DefaultTenant + "/prepareandactivate"
	healthPath             = "/state/v1/health"

	// DefaultReadyTimeout bounds how long a config server may take to come up.
	DefaultReadyTimeout = 5 * time.Minute
)

// ConfigServer talks to a Vespa config server's deploy API.
type ConfigServer struct {
	baseURL string
	backend string
	health  *retryablehttp.Client
	deploy  *retryablehttp.Client
	logger  *slog.Logger
}

// NewConfigServer creates a client for the config server at baseURL.
// backend names the client type in errors.
func NewConfigServer(baseURL, backend string, logger *slog.Logger) *ConfigServer {
	if logger == nil {
		logger = slog.Default()
	}

	return &ConfigServer{
		baseURL: strings.TrimRight(baseURL, "/"),
		backend: backend,
		health:  newHealthHTTPClient(logger),
		deploy:  newDeployHTTPClient(logger),
		logger:  logger,
	}
}

// URL returns the config server base URL.
func (c *ConfigServer) URL() string { return c.baseURL }

// WaitReady polls the health endpoint until it answers 200 or timeout
// elapses.
func (c *ConfigServer) WaitReady(ctx context.Context, timeout time.Duration) error {
	if err := waitHealthy(ctx, c.health, c.baseURL, timeout); err != nil {
		return vespa.NewDeployError("wait for config server", c.backend, err.Error(), err)
	}
	return nil
}

// newHealthHTTPClient returns a client for waitHealthy.
func newHealthHTTPClient(logger *slog.Logger) *retryablehttp.Client {
	c := retryablehttp.NewClient()
	c.Logger = logger
	c.RetryWaitMin = 500 * time.Millisecond
	c.RetryWaitMax = 5 * time.Second
	c.RetryMax = 0
	return c
}

// waitHealthy polls baseURL's /state/v1/health until it answers 200 or
// timeout elapses. Connection failures and non-200 answers are retried;
// TLS and URL errors are not.
func waitHealthy(ctx context.Context, client *retryablehttp.Client, baseURL string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultReadyTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client.RetryMax = int(timeout / client.RetryWaitMin)
	client.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		var certErr *tls.CertificateVerificationError
		if errors.As(err, &certErr) {
			return false, nil
		}
		if err != nil {
			return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
		}
		return resp.StatusCode != http.StatusOK, nil
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, baseURL+healthPath, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s not ready: %w", baseURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s answered %s", baseURL, resp.Status)
	}
	return nil
}

// deployResponse is the prepareandactivate answer body.
type deployResponse struct {
	Message   string `json:"message"`
	SessionID string `json:"session-id"`
	ErrorCode string `json:"error-code"`
}

// DeployRoot zips root and deploys it with prepareandactivate.
func (c *ConfigServer) DeployRoot(ctx context.Context, root string) error {
	body, err := zipRoot(root)
	if err != nil {
		return err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+prepareAndActivatePath, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/zip")

	resp, err := c.deploy.Do(req)
	if err != nil {
		return vespa.NewDeployError("prepareandactivate", c.backend, err.Error(), err)
	}
	defer resp.Body.Close()

	out, err := decodeDeployResponse(resp)
	if err != nil {
		return vespa.NewDeployError("prepareandactivate", c.backend, err.Error(), err)
	}
	if resp.StatusCode/100 != 2 {
		return &vespa.DeployError{
			Op:      "prepareandactivate",
			Backend: c.backend,
			Status:  resp.StatusCode,
			Code:    out.ErrorCode,
			Message: out.Message,
		}
	}

	c.logger.Debug("config server accepted deploy", "session_id", out.SessionID, "message", out.Message)
	return nil
}

func decodeDeployResponse(resp *http.Response) (deployResponse, error) {
	var out deployResponse
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return out, fmt.Errorf("read response: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		out.Message = resp.Status
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		// Non-JSON answers still carry the platform's text.
		out.Message = strings.TrimSpace(string(raw))
	}
	if out.Message == "" && resp.StatusCode/100 != 2 {
		out.Message = resp.Status
	}
	return out, nil
}

// newDeployHTTPClient retries connection failures only. Any answer from
// the platform, including a refusal, is final.
func newDeployHTTPClient(logger *slog.Logger) *retryablehttp.Client {
	c := retryablehttp.NewClient()
	c.Logger = logger
	c.RetryMax = 3
	c.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if err != nil {
			return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
		}
		return false, nil
	}
	return c
}
