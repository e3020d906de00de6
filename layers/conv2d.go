package layers

import (
	"fmt"
	"strings"

	"github.com/tsawler/go-resnnance/tensor"
)

// Padding selects how the convolution treats the feature map border.
type Padding int

const (
	Valid Padding = iota
	Same
)

func (p Padding) String() string {
	switch p {
	case Valid:
		return "valid"
	case Same:
		return "same"
	default:
		return "unknown"
	}
}

// ParsePadding accepts "valid" or "same" (case-insensitive).
func ParsePadding(s string) (Padding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "valid", "":
		return Valid, nil
	case "same":
		return Same, nil
	default:
		return Valid, fmt.Errorf("unknown padding %q (want valid or same)", s)
	}
}

// Conv2DConfig carries the construction data of a convolution layer.
// Kernels is shaped like KernelShape, (Ky, Kx, Kz, F).
type Conv2DConfig struct {
	InputShape  [3]int
	KernelShape [4]int
	Stride      [2]int
	Padding     Padding
	Kernels     *tensor.Tensor
}

// Conv2DLayer is a streaming 2D convolution engine descriptor.
type Conv2DLayer struct {
	label       string
	inputShape  Shape3
	kernelShape [4]int
	stride      [2]int
	padding     Padding
	kernels     *tensor.Tensor
	outputShape Shape3
}

// NewConv2D validates cfg and creates a convolution descriptor.
func NewConv2D(label string, cfg Conv2DConfig) (*Conv2DLayer, error) {
	in := Shape3(cfg.InputShape)
	ky, kx, kz, filters := cfg.KernelShape[0], cfg.KernelShape[1], cfg.KernelShape[2], cfg.KernelShape[3]
	sy, sx := cfg.Stride[0], cfg.Stride[1]

	if !in.positive() {
		return nil, shapeErrorf(label, "input shape must be positive, got %v", cfg.InputShape)
	}
	if ky <= 0 || kx <= 0 || kz <= 0 || filters <= 0 {
		return nil, shapeErrorf(label, "kernel shape must be positive, got %v", cfg.KernelShape)
	}
	if kz != in[2] {
		return nil, shapeErrorf(label, "kernel depth %d does not match input depth %d", kz, in[2])
	}
	if sy <= 0 || sx <= 0 {
		return nil, shapeErrorf(label, "stride must be positive, got %v", cfg.Stride)
	}
	if cfg.Padding != Valid && cfg.Padding != Same {
		return nil, shapeErrorf(label, "unsupported padding %d", cfg.Padding)
	}
	if cfg.Kernels == nil {
		return nil, shapeErrorf(label, "convolution kernels are missing")
	}
	if !cfg.Kernels.ShapeEquals(ky, kx, kz, filters) {
		return nil, shapeErrorf(label, "kernels shape %v does not match kernel shape %v", cfg.Kernels.Shape, cfg.KernelShape)
	}
	if want := ky * kx * kz * filters; cfg.Kernels.Len() != want {
		return nil, shapeErrorf(label, "kernels hold %d values, shape %v needs %d", cfg.Kernels.Len(), cfg.Kernels.Shape, want)
	}

	out := convOutputShape(in, cfg.KernelShape, cfg.Stride, cfg.Padding)
	if out[0] < 1 || out[1] < 1 {
		return nil, shapeErrorf(label, "kernel %dx%d with stride %v leaves no output for input %v", ky, kx, cfg.Stride, cfg.InputShape)
	}

	return &Conv2DLayer{
		label:       label,
		inputShape:  in,
		kernelShape: cfg.KernelShape,
		stride:      cfg.Stride,
		padding:     cfg.Padding,
		kernels:     cfg.Kernels.Clone(),
		outputShape: out,
	}, nil
}

// convOutputShape implements the engine's output geometry. Valid padding
// counts (Y-Ky+1) window positions per axis before applying the stride.
func convOutputShape(in Shape3, kernel [4]int, stride [2]int, padding Padding) Shape3 {
	var oy, ox int
	switch padding {
	case Same:
		oy = in[0] / stride[0]
		ox = in[1] / stride[1]
	default:
		oy = (in[0] - kernel[0] + 1) / stride[0]
		ox = (in[1] - kernel[1] + 1) / stride[1]
	}
	return Shape3{oy, ox, kernel[3]}
}

func (l *Conv2DLayer) Label() string     { return l.label }
func (l *Conv2DLayer) Type() LayerType   { return Conv2D }
func (l *Conv2DLayer) Size() int         { return l.outputShape.elems() }
func (l *Conv2DLayer) AddressWidth() int { return l.Logn() }

// InputShape returns (Y, X, Z).
func (l *Conv2DLayer) InputShape() Shape3 { return l.inputShape }

// OutputShape returns (out_y, out_x, F).
func (l *Conv2DLayer) OutputShape() Shape3 { return l.outputShape }

// KernelShape returns (Ky, Kx, Kz, F).
func (l *Conv2DLayer) KernelShape() [4]int { return l.kernelShape }

// Stride returns (Sy, Sx).
func (l *Conv2DLayer) Stride() [2]int { return l.stride }

// Padding returns the border mode, Valid or Same.
func (l *Conv2DLayer) Padding() Padding { return l.padding }

// SynapseCount returns the number of input taps feeding the engine, Y·X·Z.
func (l *Conv2DLayer) SynapseCount() int {
	return l.inputShape.elems()
}

// LineBufferLength returns the number of input samples buffered to hold one
// kernel window across row boundaries, ((Ky-1)·X + Kx)·Z.
func (l *Conv2DLayer) LineBufferLength() int {
	ky, kx := l.kernelShape[0], l.kernelShape[1]
	return ((ky-1)*l.inputShape[1] + kx) * l.inputShape[2]
}

// Logm is the address width of the input synapse count.
func (l *Conv2DLayer) Logm() int {
	return AddressWidth(l.SynapseCount())
}

// Logn is the address width of the output element count.
func (l *Conv2DLayer) Logn() int {
	return AddressWidth(l.outputShape.elems())
}

// FlattenedKernels serializes every filter with the (y, x) taps outermost and
// the depth contiguous at each tap, filters concatenated in order. This is
// the order in which the line buffer presents taps to the engine.
func (l *Conv2DLayer) FlattenedKernels() []float64 {
	ky, kx, kz, filters := l.kernelShape[0], l.kernelShape[1], l.kernelShape[2], l.kernelShape[3]
	flat := make([]float64, 0, ky*kx*kz*filters)
	for f := 0; f < filters; f++ {
		for y := 0; y < ky; y++ {
			for x := 0; x < kx; x++ {
				for z := 0; z < kz; z++ {
					flat = append(flat, l.kernels.At(y, x, z, f))
				}
			}
		}
	}
	return flat
}

// TemplateParameters returns the convolution engine template parameters
func (l *Conv2DLayer) TemplateParameters() Parameters {
	ky, kx, kz, filters := l.kernelShape[0], l.kernelShape[1], l.kernelShape[2], l.kernelShape[3]

	params := baseParameters(l)
	params["input_shape"] = l.inputShape.slice()
	params["kernel_shape"] = []int{ky, kx, kz, filters}
	params["stride"] = []int{l.stride[0], l.stride[1]}
	params["padding"] = l.padding.String()
	params["output_shape"] = l.outputShape.slice()
	params["synapse_count"] = l.SynapseCount()
	params["line_buffer_length"] = l.LineBufferLength()
	params["logm"] = l.Logm()
	params["logn"] = l.Logn()
	params["flattened_kernels"] = l.FlattenedKernels()
	params["filters"] = filters
	params["kernel_size"] = ky * kx * kz
	return params
}
