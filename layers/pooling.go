package layers

// PoolingConfig carries the construction data of an average pooling layer.
type PoolingConfig struct {
	InputShape [3]int
	PoolSize   [2]int
}

// PoolingLayer averages non-overlapping Py×Px windows with the fixed weight
// 1/(Py·Px). It has no trainable weights.
type PoolingLayer struct {
	label      string
	inputShape Shape3
	poolSize   [2]int
}

// NewPooling creates a pooling descriptor.
func NewPooling(label string, cfg PoolingConfig) (*PoolingLayer, error) {
	in := Shape3(cfg.InputShape)
	if !in.positive() {
		return nil, shapeErrorf(label, "input shape must be positive, got %v", cfg.InputShape)
	}
	if cfg.PoolSize[0] <= 0 || cfg.PoolSize[1] <= 0 {
		return nil, shapeErrorf(label, "pool size must be positive, got %v", cfg.PoolSize)
	}
	return &PoolingLayer{label: label, inputShape: in, poolSize: cfg.PoolSize}, nil
}

func (l *PoolingLayer) Label() string     { return l.label }
func (l *PoolingLayer) Type() LayerType   { return Pooling }
func (l *PoolingLayer) Size() int         { return l.OutputShape().elems() }
func (l *PoolingLayer) AddressWidth() int { return AddressWidth(l.Size()) }

func (l *PoolingLayer) InputShape() Shape3 { return l.inputShape }
func (l *PoolingLayer) PoolSize() [2]int   { return l.poolSize }

// OutputShape returns (floor(Y/Py), floor(X/Px), Z).
func (l *PoolingLayer) OutputShape() Shape3 {
	return Shape3{
		l.inputShape[0] / l.poolSize[0],
		l.inputShape[1] / l.poolSize[1],
		l.inputShape[2],
	}
}

// Weight returns 1/(Py·Px).
func (l *PoolingLayer) Weight() float64 {
	return 1.0 / float64(l.poolSize[0]*l.poolSize[1])
}

// TemplateParameters returns the pooling template parameters
func (l *PoolingLayer) TemplateParameters() Parameters {
	params := baseParameters(l)
	params["input_shape"] = l.inputShape.slice()
	params["pool_size"] = []int{l.poolSize[0], l.poolSize[1]}
	params["output_shape"] = l.OutputShape().slice()
	params["weight"] = l.Weight()
	params["synapse_count"] = l.inputShape.elems()
	params["logm"] = AddressWidth(l.inputShape.elems())
	params["logn"] = l.AddressWidth()
	return params
}
