// Package vespaclient provides the deployment clients for a local Vespa
// container, a Docker Compose managed Vespa and Vespa Cloud.
package vespaclient

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"github.com/nyrag/nyrag/internal/core/vespa"
)

// Factory builds clients from an options struct O whose fields declare
// the accepted constructor arguments with `vespa:"name"` tags.
type Factory[O any] struct {
	name  string
	build func(O) (any, error)
}

// NewFactory creates a factory for client type name.
func NewFactory[O any](name string, build func(O) (any, error)) *Factory[O] {
	return &Factory[O]{name: name, build: build}
}

// Name returns the client type name.
func (f *Factory[O]) Name() string { return f.name }

// Capabilities returns the arguments declared on O.
func (f *Factory[O]) Capabilities() vespa.Capabilities {
	var opts O
	return vespa.CapabilitiesOf(opts)
}

// New decodes args into O and builds a client. Arguments O does not
// declare are rejected.
func (f *Factory[O]) New(args map[string]any) (any, error) {
	opts, err := decodeOptions[O](args)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.name, err)
	}
	return f.build(opts)
}

func decodeOptions[O any](args map[string]any) (O, error) {
	var opts O
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     vespa.CapabilityTag,
		ErrorUnused: true,
		Result:      &opts,
	})
	if err != nil {
		return opts, err
	}
	if err := dec.Decode(args); err != nil {
		return opts, err
	}
	return opts, nil
}
