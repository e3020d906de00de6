package layers_test

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/go-resnnance/layers"
	"github.com/tsawler/go-resnnance/tensor"
)

func TestAddressWidth(t *testing.T) {
	cases := map[int]int{
		-3: 0, 0: 0, 1: 0, 2: 1, 3: 2, 4: 2, 5: 3, 8: 3, 9: 4, 10: 4, 16: 4, 17: 5, 784: 10, 1024: 10,
	}
	for n, want := range cases {
		assert.Equal(t, want, layers.AddressWidth(n), "AddressWidth(%d)", n)
	}
}

func TestLayerTypeString(t *testing.T) {
	assert.Equal(t, "Input", layers.Input.String())
	assert.Equal(t, "Dense", layers.Dense.String())
	assert.Equal(t, "Conv2D", layers.Conv2D.String())
	assert.Equal(t, "Pooling", layers.Pooling.String())
	assert.Equal(t, "Unknown", layers.LayerType(42).String())
}

func TestInputLayer(t *testing.T) {
	in, err := layers.NewInput("input", 10)
	require.NoError(t, err)

	assert.Equal(t, layers.Input, in.Type())
	assert.Equal(t, 10, in.Size())
	assert.Equal(t, 4, in.AddressWidth())

	params := in.TemplateParameters()
	assert.Equal(t, "input", params["name"])
	assert.Equal(t, 10, params["width"])
	assert.Equal(t, 4, params["logn"])
}

func TestInputLayerRejectsNonPositiveWidth(t *testing.T) {
	_, err := layers.NewInput("input", 0)
	var shapeErr *layers.ShapeError
	require.True(t, errors.As(err, &shapeErr))
	assert.Equal(t, "input", shapeErr.Layer)
}

func TestDenseAddressWidths(t *testing.T) {
	for _, m := range []int{1, 2, 3, 7, 8, 10, 33} {
		for _, n := range []int{1, 2, 5, 16, 100} {
			dense, err := layers.NewDense("fc", tensor.New(m, n))
			require.NoError(t, err)

			wantRows := int(math.Ceil(math.Log2(float64(m))))
			wantCols := int(math.Ceil(math.Log2(float64(n))))
			assert.Equal(t, wantRows, dense.RowAddressWidth(), "rows for %dx%d", m, n)
			assert.Equal(t, wantCols, dense.ColAddressWidth(), "cols for %dx%d", m, n)
			assert.Equal(t, m*n, dense.Size())

			params := dense.TemplateParameters()
			assert.Equal(t, wantRows, params["logm"])
			assert.Equal(t, wantCols, params["logn"])
		}
	}
}

func TestDenseRowMajorSerialization(t *testing.T) {
	w, err := tensor.FromSlice([]float64{1, 2, 3, 4, 5, 6}, 2, 3)
	require.NoError(t, err)

	dense, err := layers.NewDense("fc", w)
	require.NoError(t, err)

	rows, cols := dense.Shape()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 3, cols)

	params := dense.TemplateParameters()
	assert.Equal(t, [][]float64{{1, 2, 3}, {4, 5, 6}}, params["weights"])
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, params["flattened_weights"])

	// Mutating the source tensor after construction must not leak in.
	w.Data[0] = 100
	assert.Equal(t, 1.0, dense.Weights().At(0, 0))
}

func TestDenseRejectsWrongRank(t *testing.T) {
	for _, shape := range [][]int{{6}, {1, 2, 3}} {
		_, err := layers.NewDense("fc", tensor.New(shape...))
		var shapeErr *layers.ShapeError
		assert.True(t, errors.As(err, &shapeErr), "shape %v", shape)
	}

	_, err := layers.NewDense("fc", nil)
	var shapeErr *layers.ShapeError
	assert.True(t, errors.As(err, &shapeErr))

	short := &tensor.Tensor{Shape: []int{2, 2}, Data: []float64{1}}
	require.NotPanics(t, func() { _, err = layers.NewDense("fc", short) })
	require.True(t, errors.As(err, &shapeErr))
	assert.Contains(t, shapeErr.Reason, "hold 1 values")
}

func conv(t *testing.T, in [3]int, kernel [4]int, stride [2]int, padding layers.Padding) *layers.Conv2DLayer {
	t.Helper()
	layer, err := layers.NewConv2D("conv", layers.Conv2DConfig{
		InputShape:  in,
		KernelShape: kernel,
		Stride:      stride,
		Padding:     padding,
		Kernels:     tensor.New(kernel[0], kernel[1], kernel[2], kernel[3]),
	})
	require.NoError(t, err)
	return layer
}

func TestConv2DValidOutputShape(t *testing.T) {
	layer := conv(t, [3]int{28, 28, 1}, [4]int{3, 3, 1, 8}, [2]int{1, 1}, layers.Valid)
	assert.Equal(t, layers.Shape3{26, 26, 8}, layer.OutputShape())
	assert.Equal(t, []int{26, 26, 8}, layer.TemplateParameters()["output_shape"])
}

func TestConv2DSameOutputShape(t *testing.T) {
	layer := conv(t, [3]int{28, 28, 1}, [4]int{3, 3, 1, 8}, [2]int{2, 2}, layers.Same)
	assert.Equal(t, layers.Shape3{14, 14, 8}, layer.OutputShape())
}

func TestConv2DValidStridedOutputShape(t *testing.T) {
	// floor((28-3+1)/2) = 13
	layer := conv(t, [3]int{28, 28, 3}, [4]int{3, 3, 3, 4}, [2]int{2, 2}, layers.Valid)
	assert.Equal(t, layers.Shape3{13, 13, 4}, layer.OutputShape())
}

func TestConv2DEngineParameters(t *testing.T) {
	layer := conv(t, [3]int{28, 28, 1}, [4]int{3, 3, 1, 8}, [2]int{1, 1}, layers.Valid)

	assert.Equal(t, 59, layer.LineBufferLength())
	assert.Equal(t, 784, layer.SynapseCount())
	assert.Equal(t, 10, layer.Logm())
	// 26*26*8 = 5408 -> 13 bits
	assert.Equal(t, 13, layer.Logn())
	assert.Equal(t, 5408, layer.Size())
	assert.Equal(t, 13, layer.AddressWidth())

	params := layer.TemplateParameters()
	for _, key := range []string{"logm", "logn", "synapse_count", "line_buffer_length", "flattened_kernels", "output_shape"} {
		assert.Contains(t, params, key)
	}
	assert.Equal(t, 59, params["line_buffer_length"])
	assert.Equal(t, 784, params["synapse_count"])
	assert.Equal(t, "valid", params["padding"])
	assert.Len(t, params["flattened_kernels"], 3*3*1*8)
}

func TestConv2DLineBufferWithDepth(t *testing.T) {
	layer := conv(t, [3]int{10, 12, 3}, [4]int{5, 4, 3, 2}, [2]int{1, 1}, layers.Valid)
	assert.Equal(t, ((5-1)*12+4)*3, layer.LineBufferLength())
}

func TestConv2DFlattenOrderSingleFilter(t *testing.T) {
	kernels := tensor.New(2, 2, 2, 1)
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			for z := 0; z < 2; z++ {
				kernels.Set(float64(100*y+10*x+z), y, x, z, 0)
			}
		}
	}

	layer, err := layers.NewConv2D("conv", layers.Conv2DConfig{
		InputShape:  [3]int{4, 4, 2},
		KernelShape: [4]int{2, 2, 2, 1},
		Stride:      [2]int{1, 1},
		Kernels:     kernels,
	})
	require.NoError(t, err)

	want := []float64{0, 1, 10, 11, 100, 101, 110, 111}
	assert.Equal(t, want, layer.FlattenedKernels())
}

func TestConv2DFlattenOrderFiltersConcatenated(t *testing.T) {
	kernels := tensor.New(2, 2, 2, 2)
	for f := 0; f < 2; f++ {
		for y := 0; y < 2; y++ {
			for x := 0; x < 2; x++ {
				for z := 0; z < 2; z++ {
					kernels.Set(float64(1000*f+100*y+10*x+z), y, x, z, f)
				}
			}
		}
	}

	layer, err := layers.NewConv2D("conv", layers.Conv2DConfig{
		InputShape:  [3]int{4, 4, 2},
		KernelShape: [4]int{2, 2, 2, 2},
		Stride:      [2]int{1, 1},
		Kernels:     kernels,
	})
	require.NoError(t, err)

	want := []float64{
		0, 1, 10, 11, 100, 101, 110, 111,
		1000, 1001, 1010, 1011, 1100, 1101, 1110, 1111,
	}
	assert.Equal(t, want, layer.TemplateParameters()["flattened_kernels"])
}

func TestConv2DRejectsDepthMismatch(t *testing.T) {
	_, err := layers.NewConv2D("conv", layers.Conv2DConfig{
		InputShape:  [3]int{28, 28, 3},
		KernelShape: [4]int{3, 3, 1, 8},
		Stride:      [2]int{1, 1},
		Kernels:     tensor.New(3, 3, 1, 8),
	})
	var shapeErr *layers.ShapeError
	require.True(t, errors.As(err, &shapeErr))
	assert.Contains(t, shapeErr.Reason, "depth")
}

func TestConv2DRejectsBadGeometry(t *testing.T) {
	cases := map[string]layers.Conv2DConfig{
		"kernels shape": {
			InputShape: [3]int{8, 8, 1}, KernelShape: [4]int{3, 3, 1, 2}, Stride: [2]int{1, 1},
			Kernels: tensor.New(3, 3, 2),
		},
		"missing kernels": {
			InputShape: [3]int{8, 8, 1}, KernelShape: [4]int{3, 3, 1, 2}, Stride: [2]int{1, 1},
		},
		"zero stride": {
			InputShape: [3]int{8, 8, 1}, KernelShape: [4]int{3, 3, 1, 2}, Stride: [2]int{0, 1},
			Kernels: tensor.New(3, 3, 1, 2),
		},
		"kernel larger than input": {
			InputShape: [3]int{2, 2, 1}, KernelShape: [4]int{3, 3, 1, 2}, Stride: [2]int{1, 1},
			Kernels: tensor.New(3, 3, 1, 2),
		},
		"kernels data shorter than shape": {
			InputShape: [3]int{4, 4, 1}, KernelShape: [4]int{2, 2, 1, 1}, Stride: [2]int{1, 1},
			Kernels: &tensor.Tensor{Shape: []int{2, 2, 1, 1}, Data: []float64{1}},
		},
	}
	for name, cfg := range cases {
		_, err := layers.NewConv2D("conv", cfg)
		var shapeErr *layers.ShapeError
		assert.True(t, errors.As(err, &shapeErr), name)
	}
}

func TestParsePadding(t *testing.T) {
	p, err := layers.ParsePadding("SAME")
	require.NoError(t, err)
	assert.Equal(t, layers.Same, p)

	p, err = layers.ParsePadding("valid")
	require.NoError(t, err)
	assert.Equal(t, layers.Valid, p)

	_, err = layers.ParsePadding("full")
	assert.Error(t, err)
}

func TestPoolingLayer(t *testing.T) {
	pool, err := layers.NewPooling("pool", layers.PoolingConfig{
		InputShape: [3]int{26, 26, 8},
		PoolSize:   [2]int{2, 2},
	})
	require.NoError(t, err)

	assert.Equal(t, layers.Shape3{13, 13, 8}, pool.OutputShape())
	assert.Equal(t, 0.25, pool.Weight())
	assert.Equal(t, 13*13*8, pool.Size())

	params := pool.TemplateParameters()
	assert.Equal(t, []int{13, 13, 8}, params["output_shape"])
	assert.Equal(t, 0.25, params["weight"])
	assert.Equal(t, 26*26*8, params["synapse_count"])
}

func TestPoolingFloorsOddInputs(t *testing.T) {
	pool, err := layers.NewPooling("pool", layers.PoolingConfig{
		InputShape: [3]int{7, 9, 3},
		PoolSize:   [2]int{2, 3},
	})
	require.NoError(t, err)
	assert.Equal(t, layers.Shape3{3, 3, 3}, pool.OutputShape())
	assert.InDelta(t, 1.0/6.0, pool.Weight(), 1e-15)
}

func TestPoolingRejectsNonPositivePool(t *testing.T) {
	_, err := layers.NewPooling("pool", layers.PoolingConfig{
		InputShape: [3]int{4, 4, 1},
		PoolSize:   [2]int{0, 2},
	})
	var shapeErr *layers.ShapeError
	assert.True(t, errors.As(err, &shapeErr))
}

func TestTemplateParametersIdempotent(t *testing.T) {
	kernels := tensor.New(3, 3, 2, 4)
	for i := range kernels.Data {
		kernels.Data[i] = float64(i) * 0.125
	}
	convLayer, err := layers.NewConv2D("conv", layers.Conv2DConfig{
		InputShape:  [3]int{12, 12, 2},
		KernelShape: [4]int{3, 3, 2, 4},
		Stride:      [2]int{1, 1},
		Padding:     layers.Same,
		Kernels:     kernels,
	})
	require.NoError(t, err)

	w, err := tensor.FromSlice([]float64{0.5, -1, 2, 3.25}, 2, 2)
	require.NoError(t, err)
	dense, err := layers.NewDense("fc", w)
	require.NoError(t, err)

	in, err := layers.NewInput("in", 3)
	require.NoError(t, err)

	pool, err := layers.NewPooling("pool", layers.PoolingConfig{InputShape: [3]int{4, 4, 1}, PoolSize: [2]int{2, 2}})
	require.NoError(t, err)

	for _, l := range []layers.Layer{in, dense, convLayer, pool} {
		first := l.TemplateParameters()

		// Scribble over the returned map; the descriptor must not notice.
		for _, v := range first {
			if s, ok := v.([]float64); ok && len(s) > 0 {
				s[0] = math.NaN()
			}
			if s, ok := v.([]int); ok && len(s) > 0 {
				s[0] = -1
			}
		}

		second := l.TemplateParameters()
		third := l.TemplateParameters()
		if diff := cmp.Diff(second, third); diff != "" {
			t.Errorf("%s: TemplateParameters not idempotent (-second +third):\n%s", l.Label(), diff)
		}
		assert.Equal(t, l.Label(), second["name"])
		assert.Equal(t, l.Type().String(), second["type"])
		assert.Equal(t, l.Size(), second["size"])
		assert.Equal(t, l.AddressWidth(), second["address_width"])
	}
}
