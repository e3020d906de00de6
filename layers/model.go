package layers

import (
	"fmt"
	"strings"
)

// Model is the ordered sequence of descriptors handed to the code generator.
// Order is the hardware pipeline order. Label uniqueness is the caller's
// responsibility; Validate reports violations.
type Model struct {
	layers []Layer
}

// NewModel creates an empty model
func NewModel() *Model {
	return &Model{layers: make([]Layer, 0)}
}

// AddLayer appends a descriptor.
func (m *Model) AddLayer(layer Layer) {
	m.layers = append(m.layers, layer)
}

// Layers returns the descriptors in pipeline order.
func (m *Model) Layers() []Layer {
	out := make([]Layer, len(m.layers))
	copy(out, m.layers)
	return out
}

// Len returns the number of descriptors.
func (m *Model) Len() int {
	return len(m.layers)
}

// Layer looks a descriptor up by label.
func (m *Model) Layer(label string) (Layer, bool) {
	for _, l := range m.layers {
		if l.Label() == label {
			return l, true
		}
	}
	return nil, false
}

// Validate checks that every label appears once.
func (m *Model) Validate() error {
	seen := make(map[string]int, len(m.layers))
	for i, l := range m.layers {
		if first, ok := seen[l.Label()]; ok {
			return &DuplicateLabelError{Label: l.Label(), First: first, Again: i}
		}
		seen[l.Label()] = i
	}
	return nil
}

// Summary returns a human-readable model summary
func (m *Model) Summary() string {
	var sb strings.Builder
	sb.WriteString("Model Summary:\n")
	fmt.Fprintf(&sb, "Layers: %d\n\n", len(m.layers))

	for i, l := range m.layers {
		fmt.Fprintf(&sb, "Layer %d: %s (%s)\n", i+1, l.Label(), l.Type())
		fmt.Fprintf(&sb, "  Size:          %d\n", l.Size())
		fmt.Fprintf(&sb, "  Address width: %d\n", l.AddressWidth())

		switch layer := l.(type) {
		case *DenseLayer:
			rows, cols := layer.Shape()
			fmt.Fprintf(&sb, "  Weights:       %dx%d\n", rows, cols)
		case *Conv2DLayer:
			fmt.Fprintf(&sb, "  Input:         %v\n", layer.InputShape())
			fmt.Fprintf(&sb, "  Output:        %v\n", layer.OutputShape())
			fmt.Fprintf(&sb, "  Line buffer:   %d\n", layer.LineBufferLength())
		case *PoolingLayer:
			fmt.Fprintf(&sb, "  Input:         %v\n", layer.InputShape())
			fmt.Fprintf(&sb, "  Output:        %v\n", layer.OutputShape())
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
