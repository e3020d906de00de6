// Package builder compiles a topology into an ordered model of layer
// descriptors.
package builder

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/tsawler/go-resnnance/layers"
	"github.com/tsawler/go-resnnance/topology"
)

var (
	ErrConnectionOutOfRange = errors.New("connection index out of range")
	ErrInvalidInfo          = errors.New("connector info has the wrong type")
)

// Extractor derives the construction data of a descriptor from the single
// incoming projection of a population.
type Extractor func(proj *topology.Projection) (interface{}, error)

// Constructor creates a descriptor from the data returned by an Extractor.
type Constructor func(label string, info interface{}) (layers.Layer, error)

// Conversion pairs the constructor and extractor for one capability.
type Conversion struct {
	Construct Constructor
	Extract   Extractor
}

// Registry maps connector capabilities to conversions. It is read-only once
// created and safe for concurrent use.
type Registry struct {
	table map[topology.Capability]Conversion
}

// NewRegistry creates a registry holding a copy of table.
func NewRegistry(table map[topology.Capability]Conversion) *Registry {
	r := &Registry{table: make(map[topology.Capability]Conversion, len(table))}
	for k, v := range table {
		r.table[k] = v
	}
	return r
}

// Lookup returns the conversion registered for c.
func (r *Registry) Lookup(c topology.Capability) (Conversion, bool) {
	conv, ok := r.table[c]
	return conv, ok
}

// Capabilities returns the registered capabilities, sorted.
func (r *Registry) Capabilities() []topology.Capability {
	caps := make([]topology.Capability, 0, len(r.table))
	for c := range r.table {
		caps = append(caps, c)
	}
	sort.Slice(caps, func(i, j int) bool { return caps[i] < caps[j] })
	return caps
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the standard conversion table: dense lists become
// Dense descriptors, convolution info becomes Conv2D and pooling info becomes
// Pooling. The table is built on first use and never changes.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry(map[topology.Capability]Conversion{
			topology.DenseList:   {Construct: constructDense, Extract: extractDense},
			topology.Convolution: {Construct: constructConv2D, Extract: extractInfo},
			topology.Pooling:     {Construct: constructPooling, Extract: extractInfo},
		})
	})
	return defaultRegistry
}

// extractDense scatters the projection's connections into a zero M×N matrix,
// M the presynaptic size and N the postsynaptic size.
func extractDense(proj *topology.Projection) (interface{}, error) {
	rows, cols := proj.Pre.Size, proj.Post.Size
	weights := mat.NewDense(rows, cols, nil)
	for i, c := range proj.Connections {
		if c.PresynapticIndex < 0 || c.PresynapticIndex >= rows ||
			c.PostsynapticIndex < 0 || c.PostsynapticIndex >= cols {
			return nil, fmt.Errorf("connection %d (%d -> %d) in %dx%d projection %q: %w",
				i, c.PresynapticIndex, c.PostsynapticIndex, rows, cols, proj.Label, ErrConnectionOutOfRange)
		}
		weights.Set(c.PresynapticIndex, c.PostsynapticIndex, c.Weight)
	}
	return weights, nil
}

// extractInfo passes the connector payload through unchanged.
func extractInfo(proj *topology.Projection) (interface{}, error) {
	return proj.Connector.Info(), nil
}

func constructDense(label string, info interface{}) (layers.Layer, error) {
	weights, ok := info.(mat.Matrix)
	if !ok {
		return nil, fmt.Errorf("dense layer %q: got %T: %w", label, info, ErrInvalidInfo)
	}
	return layers.NewDenseFromMatrix(label, weights)
}

func constructConv2D(label string, info interface{}) (layers.Layer, error) {
	conv, ok := info.(topology.ConvolutionInfo)
	if !ok {
		return nil, fmt.Errorf("conv2d layer %q: got %T: %w", label, info, ErrInvalidInfo)
	}
	padding, err := layers.ParsePadding(conv.Padding)
	if err != nil {
		return nil, fmt.Errorf("conv2d layer %q: %w", label, err)
	}
	return layers.NewConv2D(label, layers.Conv2DConfig{
		InputShape:  conv.InputShape,
		KernelShape: conv.KernelShape,
		Stride:      conv.Stride,
		Padding:     padding,
		Kernels:     conv.Kernels,
	})
}

func constructPooling(label string, info interface{}) (layers.Layer, error) {
	pool, ok := info.(topology.PoolingInfo)
	if !ok {
		return nil, fmt.Errorf("pooling layer %q: got %T: %w", label, info, ErrInvalidInfo)
	}
	return layers.NewPooling(label, layers.PoolingConfig{
		InputShape: pool.InputShape,
		PoolSize:   pool.PoolSize,
	})
}
