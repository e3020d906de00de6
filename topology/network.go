// Package topology is the narrow view of a host simulation framework that the
// descriptor compiler reads: populations of units, projections between them
// and the connectors that produced those projections.
package topology

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicatePopulation = errors.New("duplicate population label")
	ErrUnknownPopulation   = errors.New("population is not part of the network")
	ErrInvalidSize         = errors.New("population size must be positive")
)

// Population is a topology node.
type Population struct {
	Label string
	Size  int
}

func (p *Population) String() string {
	return fmt.Sprintf("Population(%s, size=%d)", p.Label, p.Size)
}

// Connection is a single synapse of a projection.
type Connection struct {
	PresynapticIndex  int
	PostsynapticIndex int
	Weight            float64
	Delay             float64
}

// Projection is a topology edge from Pre to Post.
type Projection struct {
	Label       string
	Pre         *Population
	Post        *Population
	Connector   Connector
	Connections []Connection
}

func (p *Projection) String() string {
	return fmt.Sprintf("Projection(%s: %s -> %s, %d connections)", p.Label, p.Pre.Label, p.Post.Label, len(p.Connections))
}

// Network holds populations and projections in declaration order.
type Network struct {
	populations []*Population
	projections []*Projection
	index       map[string]*Population
}

// NewNetwork creates an empty network
func NewNetwork() *Network {
	return &Network{index: make(map[string]*Population)}
}

// AddPopulation declares a population. Declaration order is the layer order
// of the compiled model.
func (n *Network) AddPopulation(label string, size int) (*Population, error) {
	if size <= 0 {
		return nil, fmt.Errorf("population %q: %w, got %d", label, ErrInvalidSize, size)
	}
	if _, ok := n.index[label]; ok {
		return nil, fmt.Errorf("population %q: %w", label, ErrDuplicatePopulation)
	}
	p := &Population{Label: label, Size: size}
	n.populations = append(n.populations, p)
	n.index[label] = p
	return p, nil
}

// Population looks a population up by label.
func (n *Network) Population(label string) (*Population, bool) {
	p, ok := n.index[label]
	return p, ok
}

// Connect runs the connector between pre and post and records the resulting
// projection. The projection label defaults to "<pre>_<post>".
func (n *Network) Connect(pre, post *Population, connector Connector) (*Projection, error) {
	return n.ConnectLabeled(fmt.Sprintf("%s_%s", pre.Label, post.Label), pre, post, connector)
}

// ConnectLabeled is Connect with an explicit projection label.
func (n *Network) ConnectLabeled(label string, pre, post *Population, connector Connector) (*Projection, error) {
	for _, p := range []*Population{pre, post} {
		if p == nil || n.index[p.Label] != p {
			return nil, fmt.Errorf("projection %q: %w", label, ErrUnknownPopulation)
		}
	}
	if connector == nil {
		return nil, fmt.Errorf("projection %q: connector is nil", label)
	}

	connections, err := connector.Connect(pre, post)
	if err != nil {
		return nil, fmt.Errorf("projection %q: %w", label, err)
	}

	proj := &Projection{
		Label:       label,
		Pre:         pre,
		Post:        post,
		Connector:   connector,
		Connections: connections,
	}
	n.projections = append(n.projections, proj)
	return proj, nil
}

// Populations returns the populations in declaration order.
func (n *Network) Populations() []*Population {
	return append([]*Population(nil), n.populations...)
}

// Projections returns the projections in declaration order.
func (n *Network) Projections() []*Projection {
	return append([]*Projection(nil), n.projections...)
}

// Incoming returns the projections whose target is pop, matched by label.
func (n *Network) Incoming(pop *Population) []*Projection {
	var incoming []*Projection
	for _, proj := range n.projections {
		if proj.Post.Label == pop.Label {
			incoming = append(incoming, proj)
		}
	}
	return incoming
}
