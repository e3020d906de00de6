package layers

import (
	"fmt"
)

// ShapeError reports a weight or kernel array with the wrong rank or
// dimensions, or a layer geometry that cannot be realised.
type ShapeError struct {
	Layer  string
	Reason string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("layer %q: shape error: %s", e.Layer, e.Reason)
}

func shapeErrorf(layer, format string, args ...interface{}) error {
	return &ShapeError{Layer: layer, Reason: fmt.Sprintf(format, args...)}
}

// DuplicateLabelError reports two descriptors sharing a label in one Model.
type DuplicateLabelError struct {
	Label string
	First int
	Again int
}

func (e *DuplicateLabelError) Error() string {
	return fmt.Sprintf("duplicate layer label %q at positions %d and %d", e.Label, e.First, e.Again)
}
