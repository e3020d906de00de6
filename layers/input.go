package layers

// InputLayer is a vector of external input taps. It carries no weights.
type InputLayer struct {
	label string
	width int
}

// NewInput creates an input descriptor of the given width.
func NewInput(label string, width int) (*InputLayer, error) {
	if width <= 0 {
		return nil, shapeErrorf(label, "input width must be positive, got %d", width)
	}
	return &InputLayer{label: label, width: width}, nil
}

func (l *InputLayer) Label() string     { return l.label }
func (l *InputLayer) Type() LayerType   { return Input }
func (l *InputLayer) Size() int         { return l.width }
func (l *InputLayer) AddressWidth() int { return AddressWidth(l.width) }

// TemplateParameters returns the input template parameters
func (l *InputLayer) TemplateParameters() Parameters {
	params := baseParameters(l)
	params["width"] = l.width
	params["logn"] = AddressWidth(l.width)
	return params
}
