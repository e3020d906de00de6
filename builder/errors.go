package builder

import (
	"fmt"
	"strings"

	"github.com/tsawler/go-resnnance/topology"
)

// MultiInputError reports a population with more than one incoming
// projection. Multi-input layers are not supported.
type MultiInputError struct {
	Population string
	Sources    []string
}

func (e *MultiInputError) Error() string {
	return fmt.Sprintf("population %q has %d incoming projections (from %s), only one is supported",
		e.Population, len(e.Sources), strings.Join(e.Sources, ", "))
}

// UnsupportedConnectorError reports a projection whose connector capability
// has no registered conversion.
type UnsupportedConnectorError struct {
	Projection string
	Capability topology.Capability
}

func (e *UnsupportedConnectorError) Error() string {
	return fmt.Sprintf("projection %q: no layer conversion for connector capability %q", e.Projection, e.Capability)
}
