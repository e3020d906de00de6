package layers

import (
	"gonum.org/v1/gonum/mat"

	"github.com/tsawler/go-resnnance/tensor"
)

// DenseLayer is a fully connected layer with an M×N weight matrix,
// M input taps by N output taps.
type DenseLayer struct {
	label   string
	weights *mat.Dense
}

// NewDense creates a dense descriptor. weights must be a rank-2 M×N tensor.
func NewDense(label string, weights *tensor.Tensor) (*DenseLayer, error) {
	if weights == nil {
		return nil, shapeErrorf(label, "dense weights are missing")
	}
	if weights.Rank() != 2 {
		return nil, shapeErrorf(label, "dense weights must be rank 2 (M×N), got shape %v", weights.Shape)
	}
	rows, cols := weights.Shape[0], weights.Shape[1]
	if rows <= 0 || cols <= 0 {
		return nil, shapeErrorf(label, "dense weights must be non-empty, got shape %v", weights.Shape)
	}
	if weights.Len() != rows*cols {
		return nil, shapeErrorf(label, "weights hold %d values, shape %v needs %d", weights.Len(), weights.Shape, rows*cols)
	}
	data := append([]float64(nil), weights.Data...)
	return &DenseLayer{label: label, weights: mat.NewDense(rows, cols, data)}, nil
}

// NewDenseFromMatrix creates a dense descriptor from a gonum matrix.
func NewDenseFromMatrix(label string, weights mat.Matrix) (*DenseLayer, error) {
	if weights == nil {
		return nil, shapeErrorf(label, "dense weights are missing")
	}
	rows, cols := weights.Dims()
	if rows <= 0 || cols <= 0 {
		return nil, shapeErrorf(label, "dense weights must be non-empty, got %dx%d", rows, cols)
	}
	return &DenseLayer{label: label, weights: mat.DenseCopyOf(weights)}, nil
}

func (l *DenseLayer) Label() string     { return l.label }
func (l *DenseLayer) Type() LayerType   { return Dense }
func (l *DenseLayer) AddressWidth() int { return AddressWidth(l.Size()) }

// Size returns M·N.
func (l *DenseLayer) Size() int {
	rows, cols := l.weights.Dims()
	return rows * cols
}

// Shape returns (M, N).
func (l *DenseLayer) Shape() (rows, cols int) {
	return l.weights.Dims()
}

// RowAddressWidth returns ceil(log2(M)).
func (l *DenseLayer) RowAddressWidth() int {
	rows, _ := l.weights.Dims()
	return AddressWidth(rows)
}

// ColAddressWidth returns ceil(log2(N)).
func (l *DenseLayer) ColAddressWidth() int {
	_, cols := l.weights.Dims()
	return AddressWidth(cols)
}

// Weights returns a copy of the weight matrix.
func (l *DenseLayer) Weights() *mat.Dense {
	return mat.DenseCopyOf(l.weights)
}

// FlattenedWeights serializes the weight matrix in row-major order.
func (l *DenseLayer) FlattenedWeights() []float64 {
	rows, cols := l.weights.Dims()
	flat := make([]float64, 0, rows*cols)
	for i := 0; i < rows; i++ {
		flat = append(flat, mat.Row(nil, i, l.weights)...)
	}
	return flat
}

// TemplateParameters returns the dense template parameters
func (l *DenseLayer) TemplateParameters() Parameters {
	rows, cols := l.weights.Dims()

	matrix := make([][]float64, rows)
	for i := range matrix {
		matrix[i] = mat.Row(nil, i, l.weights)
	}

	params := baseParameters(l)
	params["rows"] = rows
	params["cols"] = cols
	params["logm"] = l.RowAddressWidth()
	params["logn"] = l.ColAddressWidth()
	params["weights"] = matrix
	params["flattened_weights"] = l.FlattenedWeights()
	return params
}
