package topology

import (
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tsawler/go-resnnance/tensor"
)

// Connector kinds accepted by the topology document.
const (
	KindFromList    = "from_list"
	KindAllToAll    = "all_to_all"
	KindOneToOne    = "one_to_one"
	KindConvolution = "convolution"
	KindPooling     = "pooling"
)

type document struct {
	Populations []populationDoc `yaml:"populations"`
	Projections []projectionDoc `yaml:"projections"`
}

type populationDoc struct {
	Label string `yaml:"label"`
	Size  int    `yaml:"size"`
}

type projectionDoc struct {
	Label     string       `yaml:"label"`
	Pre       string       `yaml:"pre"`
	Post      string       `yaml:"post"`
	Connector connectorDoc `yaml:"connector"`
}

type connectorDoc struct {
	Kind string `yaml:"kind"`

	// from_list: [pre, post, weight] or [pre, post, weight, delay]
	Connections [][]float64 `yaml:"connections"`

	// all_to_all, one_to_one
	Weight float64 `yaml:"weight"`
	Delay  float64 `yaml:"delay"`

	// convolution, pooling
	InputShape  []int     `yaml:"input_shape"`
	KernelShape []int     `yaml:"kernel_shape"`
	Stride      []int     `yaml:"stride"`
	Padding     string    `yaml:"padding"`
	Kernels     []float64 `yaml:"kernels"`
	PoolSize    []int     `yaml:"pool_size"`
}

// Load reads a topology document from path.
func Load(path string) (*Network, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open topology file: %v", err)
	}
	defer f.Close()

	net, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return net, nil
}

// Decode parses a YAML (or JSON) topology document. Populations are added in
// document order; projections are connected after all populations exist.
//
// Convolution kernels are a flat list in (Ky, Kx, Kz, F) row-major order.
// When omitted the kernels are zero, which is enough to size the hardware.
func Decode(r io.Reader) (*Network, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("topology document is empty")
		}
		return nil, fmt.Errorf("failed to decode topology: %v", err)
	}

	net := NewNetwork()
	for _, p := range doc.Populations {
		if _, err := net.AddPopulation(p.Label, p.Size); err != nil {
			return nil, err
		}
	}

	for i, p := range doc.Projections {
		pre, ok := net.Population(p.Pre)
		if !ok {
			return nil, fmt.Errorf("projection %d: pre %q: %w", i, p.Pre, ErrUnknownPopulation)
		}
		post, ok := net.Population(p.Post)
		if !ok {
			return nil, fmt.Errorf("projection %d: post %q: %w", i, p.Post, ErrUnknownPopulation)
		}

		connector, err := p.Connector.build()
		if err != nil {
			return nil, fmt.Errorf("projection %d (%s -> %s): %w", i, p.Pre, p.Post, err)
		}

		if p.Label == "" {
			_, err = net.Connect(pre, post, connector)
		} else {
			_, err = net.ConnectLabeled(p.Label, pre, post, connector)
		}
		if err != nil {
			return nil, err
		}
	}

	return net, nil
}

func (c connectorDoc) build() (Connector, error) {
	switch c.Kind {
	case KindFromList:
		connections := make([]Connection, len(c.Connections))
		for i, row := range c.Connections {
			if len(row) != 3 && len(row) != 4 {
				return nil, fmt.Errorf("connection %d: want [pre, post, weight(, delay)], got %d values", i, len(row))
			}
			pre, err := index(row[0])
			if err != nil {
				return nil, fmt.Errorf("connection %d: presynaptic index: %v", i, err)
			}
			post, err := index(row[1])
			if err != nil {
				return nil, fmt.Errorf("connection %d: postsynaptic index: %v", i, err)
			}
			connections[i] = Connection{PresynapticIndex: pre, PostsynapticIndex: post, Weight: row[2]}
			if len(row) == 4 {
				connections[i].Delay = row[3]
			}
		}
		return &FromListConnector{Connections: connections}, nil

	case KindAllToAll:
		return &AllToAllConnector{Weight: c.Weight, Delay: c.Delay}, nil

	case KindOneToOne:
		return &OneToOneConnector{Weight: c.Weight, Delay: c.Delay}, nil

	case KindConvolution:
		var info ConvolutionInfo
		if err := fill(info.InputShape[:], c.InputShape, "input_shape"); err != nil {
			return nil, err
		}
		if err := fill(info.KernelShape[:], c.KernelShape, "kernel_shape"); err != nil {
			return nil, err
		}
		if len(c.Stride) == 0 {
			info.Stride = [2]int{1, 1}
		} else if err := fill(info.Stride[:], c.Stride, "stride"); err != nil {
			return nil, err
		}
		info.Padding = c.Padding

		kernels, err := c.kernels(info.KernelShape)
		if err != nil {
			return nil, err
		}
		info.Kernels = kernels
		return &ConvConnector{Kernel: info}, nil

	case KindPooling:
		var info PoolingInfo
		if err := fill(info.InputShape[:], c.InputShape, "input_shape"); err != nil {
			return nil, err
		}
		if err := fill(info.PoolSize[:], c.PoolSize, "pool_size"); err != nil {
			return nil, err
		}
		return &PoolConnector{Pool: info}, nil

	case "":
		return nil, fmt.Errorf("connector kind is missing")
	default:
		return nil, fmt.Errorf("unknown connector kind %q", c.Kind)
	}
}

func (c connectorDoc) kernels(shape [4]int) (*tensor.Tensor, error) {
	for _, d := range shape {
		if d <= 0 {
			return nil, fmt.Errorf("kernel_shape must be positive, got %v", shape)
		}
	}
	if len(c.Kernels) == 0 {
		return tensor.New(shape[0], shape[1], shape[2], shape[3]), nil
	}
	kernels, err := tensor.FromSlice(c.Kernels, shape[0], shape[1], shape[2], shape[3])
	if err != nil {
		return nil, fmt.Errorf("kernels: %v", err)
	}
	return kernels, nil
}

func fill(dst []int, src []int, field string) error {
	if len(src) != len(dst) {
		return fmt.Errorf("%s must have %d values, got %d", field, len(dst), len(src))
	}
	copy(dst, src)
	return nil
}

func index(v float64) (int, error) {
	if v < 0 || v != math.Trunc(v) {
		return 0, fmt.Errorf("%v is not a non-negative integer", v)
	}
	if v > math.MaxInt32 {
		return 0, fmt.Errorf("%v exceeds the largest index %d", v, math.MaxInt32)
	}
	return int(v), nil
}
