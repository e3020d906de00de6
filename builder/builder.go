package builder

import (
	"fmt"
	"io"
	"log"

	"github.com/tsawler/go-resnnance/layers"
	"github.com/tsawler/go-resnnance/topology"
)

// Builder walks a topology once, in population order, and produces a Model.
// It keeps no state between runs.
type Builder struct {
	registry *Registry
	logger   *log.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger used for build progress messages.
func WithLogger(logger *log.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// New creates a builder. A nil registry selects DefaultRegistry.
func New(registry *Registry, opts ...Option) *Builder {
	if registry == nil {
		registry = DefaultRegistry()
	}
	b := &Builder{
		registry: registry,
		logger:   log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build converts net into a model. The first failure aborts the run and no
// partial model is returned.
func (b *Builder) Build(net *topology.Network) (*layers.Model, error) {
	if net == nil {
		return nil, fmt.Errorf("network is nil")
	}

	model := layers.NewModel()
	for _, pop := range net.Populations() {
		layer, err := b.layerFor(net, pop)
		if err != nil {
			return nil, err
		}
		model.AddLayer(layer)
		b.logger.Printf("Added %s layer: %s", layer.Type(), layer.Label())
	}

	if err := model.Validate(); err != nil {
		return nil, err
	}
	return model, nil
}

func (b *Builder) layerFor(net *topology.Network, pop *topology.Population) (layers.Layer, error) {
	incoming := net.Incoming(pop)

	switch len(incoming) {
	case 0:
		return layers.NewInput(pop.Label, pop.Size)
	case 1:
	default:
		sources := make([]string, len(incoming))
		for i, proj := range incoming {
			sources[i] = proj.Pre.Label
		}
		return nil, &MultiInputError{Population: pop.Label, Sources: sources}
	}

	proj := incoming[0]
	capability := proj.Connector.Capability()
	conv, ok := b.registry.Lookup(capability)
	if !ok {
		return nil, &UnsupportedConnectorError{Projection: proj.Label, Capability: capability}
	}

	info, err := conv.Extract(proj)
	if err != nil {
		return nil, fmt.Errorf("population %q: %w", pop.Label, err)
	}
	layer, err := conv.Construct(pop.Label, info)
	if err != nil {
		return nil, fmt.Errorf("population %q: %w", pop.Label, err)
	}
	return layer, nil
}
