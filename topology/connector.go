package topology

import (
	"fmt"

	"github.com/tsawler/go-resnnance/tensor"
)

// Capability tags the kind of connectivity information a connector carries.
type Capability string

const (
	DenseList   Capability = "dense_list"
	Convolution Capability = "convolution"
	Pooling     Capability = "pooling"
)

// Connector produces the connections of a projection and exposes its
// capability tag together with an opaque info payload.
type Connector interface {
	Capability() Capability
	Info() interface{}
	Connect(pre, post *Population) ([]Connection, error)
}

// ConvolutionInfo is the payload of a ConvConnector.
// Kernels is shaped (Ky, Kx, Kz, F).
type ConvolutionInfo struct {
	InputShape  [3]int
	KernelShape [4]int
	Stride      [2]int
	Padding     string
	Kernels     *tensor.Tensor
}

// PoolingInfo is the payload of a PoolConnector.
type PoolingInfo struct {
	InputShape [3]int
	PoolSize   [2]int
}

// FromListConnector connects exactly the listed synapses.
type FromListConnector struct {
	Connections []Connection
}

func (c *FromListConnector) Capability() Capability { return DenseList }
func (c *FromListConnector) Info() interface{}      { return nil }

func (c *FromListConnector) Connect(pre, post *Population) ([]Connection, error) {
	return append([]Connection(nil), c.Connections...), nil
}

// AllToAllConnector connects every presynaptic unit to every postsynaptic
// unit with a uniform weight and delay.
type AllToAllConnector struct {
	Weight float64
	Delay  float64
}

func (c *AllToAllConnector) Capability() Capability { return DenseList }
func (c *AllToAllConnector) Info() interface{}      { return nil }

func (c *AllToAllConnector) Connect(pre, post *Population) ([]Connection, error) {
	connections := make([]Connection, 0, pre.Size*post.Size)
	for i := 0; i < pre.Size; i++ {
		for j := 0; j < post.Size; j++ {
			connections = append(connections, Connection{
				PresynapticIndex:  i,
				PostsynapticIndex: j,
				Weight:            c.Weight,
				Delay:             c.Delay,
			})
		}
	}
	return connections, nil
}

// OneToOneConnector connects unit i of pre to unit i of post.
type OneToOneConnector struct {
	Weight float64
	Delay  float64
}

func (c *OneToOneConnector) Capability() Capability { return DenseList }
func (c *OneToOneConnector) Info() interface{}      { return nil }

func (c *OneToOneConnector) Connect(pre, post *Population) ([]Connection, error) {
	if pre.Size != post.Size {
		return nil, fmt.Errorf("one-to-one connector needs equal sizes, got %d and %d", pre.Size, post.Size)
	}
	connections := make([]Connection, pre.Size)
	for i := range connections {
		connections[i] = Connection{
			PresynapticIndex:  i,
			PostsynapticIndex: i,
			Weight:            c.Weight,
			Delay:             c.Delay,
		}
	}
	return connections, nil
}

// ConvConnector describes a convolution. It creates no explicit connections;
// the engine geometry travels in its info payload.
type ConvConnector struct {
	Kernel ConvolutionInfo
}

func (c *ConvConnector) Capability() Capability { return Convolution }
func (c *ConvConnector) Info() interface{}      { return c.Kernel }

func (c *ConvConnector) Connect(pre, post *Population) ([]Connection, error) {
	return nil, nil
}

// PoolConnector describes an average pooling stage.
type PoolConnector struct {
	Pool PoolingInfo
}

func (c *PoolConnector) Capability() Capability { return Pooling }
func (c *PoolConnector) Info() interface{}      { return c.Pool }

func (c *PoolConnector) Connect(pre, post *Population) ([]Connection, error) {
	return nil, nil
}
