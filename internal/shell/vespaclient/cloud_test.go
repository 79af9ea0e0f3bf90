package vespaclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/nyrag/nyrag/internal/core/vespa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cloudRequest struct {
	tenant, application, instance, zone string
	keyID                               string
	files                               map[string]string
}

func newFakeCloudAPI(t *testing.T, status int, body string) (*httptest.Server, *[]cloudRequest) {
	t.Helper()
	var seen []cloudRequest

	r := chi.NewRouter()
	r.Post("/application/v4/tenant/{tenant}/application/{application}/instance/{instance}/deploy/{zone}", func(w http.ResponseWriter, req *http.Request) {
		assert.NotEmpty(t, req.Header.Get("X-Authorization"))
		assert.NotEmpty(t, req.Header.Get("X-Content-Hash"))

		file, _, err := req.FormFile("applicationZip")
		require.NoError(t, err)
		data, err := io.ReadAll(file)
		require.NoError(t, err)

		seen = append(seen, cloudRequest{
			tenant:      chi.URLParam(req, "tenant"),
			application: chi.URLParam(req, "application"),
			instance:    chi.URLParam(req, "instance"),
			zone:        chi.URLParam(req, "zone"),
			keyID:       req.Header.Get("X-Key-Id"),
			files:       unzip(t, data),
		})

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	})

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server, &seen
}

func TestVespaCloud_DeployRoot(t *testing.T) {
	server, seen := newFakeCloudAPI(t, http.StatusOK, `{"message":"Deployment started in run 1 of dev-aws-us-east-1c for acme.docs","run":1}`)
	_, keyPEM := generateAPIKey(t)
	home := t.TempDir()

	client := NewVespaCloud(CloudOptions{
		Tenant:      "acme",
		Application: "docs",
		APIKey:      string(keyPEM),
	}, CloudDeps{APIURL: server.URL, Home: home, EndpointURL: "https://docs.acme.vespa-app.cloud"})

	root := writeAppRoot(t, map[string]string{
		"services.xml":             "<services/>",
		"validation-overrides.xml": "<validation-overrides/>",
	})
	handle, err := client.DeployRoot(context.Background(), root)
	require.NoError(t, err)

	require.Len(t, *seen, 1)
	got := (*seen)[0]
	assert.Equal(t, "acme", got.tenant)
	assert.Equal(t, "docs", got.application)
	assert.Equal(t, vespa.DefaultCloudInstance, got.instance)
	assert.Equal(t, vespa.DefaultCloudZone, got.zone)
	assert.Equal(t, "acme:docs:default", got.keyID)
	assert.Contains(t, got.files, "validation-overrides.xml")

	ep := vespa.EndpointOf(handle)
	cert, _ := vespa.CloudMTLSPaths(home, "docs")
	assert.Equal(t, "https://docs.acme.vespa-app.cloud", ep.URL)
	assert.Equal(t, vespa.DefaultCloudPort, ep.Port)
	assert.Equal(t, cert, ep.CertPath)
}

func TestVespaCloud_DeployWithSetRoot(t *testing.T) {
	server, seen := newFakeCloudAPI(t, http.StatusOK, `{"message":"ok"}`)
	_, keyPEM := generateAPIKey(t)
	keyPath := filepath.Join(t.TempDir(), "acme.api-key.pem")
	require.NoError(t, os.WriteFile(keyPath, keyPEM, 0600))

	client := NewVespaCloud(CloudOptions{Tenant: "acme", Application: "docs", Instance: "dev", APIKeyPath: keyPath},
		CloudDeps{APIURL: server.URL, Home: t.TempDir()})
	client.SetApplicationRoot(writeAppRoot(t, nil))

	_, err := client.Deploy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "acme:docs:dev", (*seen)[0].keyID)
}

func TestVespaCloud_DefaultKeyLocation(t *testing.T) {
	server, _ := newFakeCloudAPI(t, http.StatusOK, `{"message":"ok"}`)
	_, keyPEM := generateAPIKey(t)
	home := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".vespa"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(home, ".vespa", "acme.api-key.pem"), keyPEM, 0600))

	client := NewVespaCloud(CloudOptions{Tenant: "acme", Application: "docs"}, CloudDeps{APIURL: server.URL, Home: home})

	_, err := client.DeployRoot(context.Background(), writeAppRoot(t, nil))
	assert.NoError(t, err)
}

func TestVespaCloud_MissingKey(t *testing.T) {
	client := NewVespaCloud(CloudOptions{Tenant: "acme", Application: "docs"}, CloudDeps{APIURL: "http://127.0.0.1:1", Home: t.TempDir()})

	_, err := client.DeployRoot(context.Background(), writeAppRoot(t, nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestVespaCloud_Refused(t *testing.T) {
	server, _ := newFakeCloudAPI(t, http.StatusBadRequest, clusterRemovalBody)
	_, keyPEM := generateAPIKey(t)

	client := NewVespaCloud(CloudOptions{Tenant: "acme", Application: "docs", APIKey: string(keyPEM)},
		CloudDeps{APIURL: server.URL, Home: t.TempDir()})

	_, err := client.DeployRoot(context.Background(), writeAppRoot(t, nil))
	require.Error(t, err)

	var de *vespa.DeployError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, vespa.CloudClientName, de.Backend)
	assert.Equal(t, "INVALID_APPLICATION_PACKAGE", de.Code)
	assert.Equal(t, vespa.OutcomeClusterRemoval, vespa.ClassifyOutcome(err))
}

func TestVespaCloud_NoRoot(t *testing.T) {
	client := NewVespaCloud(CloudOptions{Tenant: "acme"}, CloudDeps{Home: t.TempDir()})

	_, err := client.Deploy(context.Background())
	assert.True(t, vespa.IsShapeMismatch(err))
}
