package compose

import (
	"context"
	"net"
	"sort"
	"strconv"
	"strings"

	"github.com/compose-spec/compose-go/v2/loader"
	"github.com/compose-spec/compose-go/v2/types"
	"gopkg.in/yaml.v3"
)

// ConfigServerPort is the container port the Vespa config server listens on.
const ConfigServerPort = 19071

// =============================================================================
// Parser Functions
// =============================================================================

// ParseServices parses Docker Compose YAML into services sorted by name.
func ParseServices(yamlContent string) ([]Service, error) {
	if strings.TrimSpace(yamlContent) == "" {
		return nil, ErrEmptyInput
	}

	project, err := loadComposeSpec(yamlContent)
	if err != nil {
		return nil, err
	}
	if len(project.Services) == 0 {
		return nil, ErrNoServices
	}

	services := make([]Service, 0, len(project.Services))
	for _, svc := range project.Services {
		services = append(services, convertService(svc))
	}
	sort.Slice(services, func(i, j int) bool { return services[i].Name < services[j].Name })
	return services, nil
}

// FindConfigServer returns the first service (by name) that publishes the
// Vespa config server port to the host.
func FindConfigServer(yamlContent string) (*ConfigServer, error) {
	services, err := ParseServices(yamlContent)
	if err != nil {
		return nil, err
	}

	var unpublished string
	for _, svc := range services {
		for _, p := range svc.Ports {
			if p.Target != ConfigServerPort {
				continue
			}
			if p.Published == 0 {
				unpublished = svc.Name
				continue
			}
			return &ConfigServer{
				Service: svc.Name,
				Image:   svc.Image,
				URL:     "http://" + net.JoinHostPort(hostFor(p.HostIP), strconv.FormatUint(uint64(p.Published), 10)),
			}, nil
		}
	}

	if unpublished != "" {
		return nil, NewParseError("services."+unpublished+".ports", "config server port is not published", ErrConfigServerNotPublished)
	}
	return nil, ErrNoConfigServer
}

// loadComposeSpec loads a compose spec using compose-go
func loadComposeSpec(yamlContent string) (*types.Project, error) {
	// Parse YAML into a map first
	var dict map[string]interface{}
	if err := yaml.Unmarshal([]byte(yamlContent), &dict); err != nil {
		return nil, NewParseError("", "invalid YAML syntax", ErrInvalidYAML)
	}
	if dict == nil {
		return nil, NewParseError("", "invalid YAML syntax", ErrInvalidYAML)
	}

	project, err := loader.LoadWithContext(context.Background(), types.ConfigDetails{
		ConfigFiles: []types.ConfigFile{
			{
				Content: []byte(yamlContent),
				Config:  dict,
			},
		},
	}, func(opts *loader.Options) {
		opts.SetProjectName("nyrag-vespa", false)
		opts.SkipValidation = false
		opts.SkipInterpolation = false
		// Don't resolve paths since we're in-memory
		opts.SkipNormalization = true
		opts.SkipExtends = true
	})
	if err != nil {
		return nil, NewParseError("", err.Error(), ErrInvalidYAML)
	}

	return project, nil
}

// convertService converts a compose-go service to our Service type
func convertService(svc types.ServiceConfig) Service {
	service := Service{
		Name:  svc.Name,
		Image: svc.Image,
	}

	for _, p := range svc.Ports {
		var published uint32
		if p.Published != "" {
			pub, err := strconv.ParseUint(p.Published, 10, 32)
			if err == nil {
				published = uint32(pub)
			}
		}
		service.Ports = append(service.Ports, Port{
			Target:    p.Target,
			Published: published,
			Protocol:  p.Protocol,
			HostIP:    p.HostIP,
		})
	}

	return service
}

func hostFor(hostIP string) string {
	switch hostIP = strings.Trim(hostIP, "[]"); hostIP {
	case "", "0.0.0.0", "::":
		return "localhost"
	default:
		return hostIP
	}
}
