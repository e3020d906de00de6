// Package layers holds the per-layer hardware descriptors produced by the
// topology compiler.
//
// A descriptor is pure configuration: it never executes anything. Every
// derived quantity (output shape, address widths, flattened weights, buffer
// lengths) is computed from the attributes fixed at construction, and
// TemplateParameters hands the code generator a fresh copy on every call.
package layers

import (
	"math/bits"
)

// LayerType represents the descriptor variant
type LayerType int

const (
	Input LayerType = iota
	Dense
	Conv2D
	Pooling
)

func (lt LayerType) String() string {
	switch lt {
	case Input:
		return "Input"
	case Dense:
		return "Dense"
	case Conv2D:
		return "Conv2D"
	case Pooling:
		return "Pooling"
	default:
		return "Unknown"
	}
}

// Parameters is the template parameter map consumed verbatim by the code
// generator. Keys and their derivations are fixed per layer type.
type Parameters map[string]interface{}

// Layer is the capability set shared by every descriptor variant.
type Layer interface {
	Label() string
	Type() LayerType
	Size() int
	AddressWidth() int
	TemplateParameters() Parameters
}

// AddressWidth returns the number of bits needed to index n elements,
// ceil(log2(max(n, 1))).
func AddressWidth(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len(uint(n - 1))
}

// baseParameters returns the keys every descriptor carries.
func baseParameters(l Layer) Parameters {
	return Parameters{
		"name":          l.Label(),
		"type":          l.Type().String(),
		"size":          l.Size(),
		"address_width": l.AddressWidth(),
	}
}

// Shape3 is a (Y, X, Z) feature map shape.
type Shape3 [3]int

func (s Shape3) elems() int {
	return s[0] * s[1] * s[2]
}

func (s Shape3) positive() bool {
	return s[0] > 0 && s[1] > 0 && s[2] > 0
}

func (s Shape3) slice() []int {
	return []int{s[0], s[1], s[2]}
}
