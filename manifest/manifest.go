// Package manifest exports compiled descriptors for the hardware code
// generator, as indented JSON or as a protobuf Struct.
package manifest

import (
	"fmt"
	"strings"
	"time"

	"github.com/tsawler/go-resnnance/layers"
)

const (
	Version   = "1.0.0"
	Generator = "go-resnnance"
)

// Format defines the serialization format
type Format int

const (
	FormatJSON Format = iota
	FormatProto
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "JSON"
	case FormatProto:
		return "Proto"
	default:
		return "Unknown"
	}
}

// Ext returns the file extension used for the format, without the dot.
func (f Format) Ext() string {
	switch f {
	case FormatProto:
		return "pb"
	default:
		return "json"
	}
}

// ParseFormat accepts "json" or "proto" (case-insensitive).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "proto", "protobuf", "pb":
		return FormatProto, nil
	default:
		return FormatJSON, fmt.Errorf("unknown manifest format %q", s)
	}
}

// Manifest is the complete descriptor set of one compilation run.
type Manifest struct {
	Metadata Metadata     `json:"metadata"`
	Layers   []LayerEntry `json:"layers"`
}

// Metadata contains manifest metadata
type Metadata struct {
	Version     string    `json:"version"`
	Generator   string    `json:"generator"`
	CreatedAt   time.Time `json:"created_at"`
	Description string    `json:"description,omitempty"`
}

// LayerEntry is one descriptor with its template parameters.
type LayerEntry struct {
	Label        string                 `json:"label"`
	Type         string                 `json:"type"`
	Size         int                    `json:"size"`
	AddressWidth int                    `json:"address_width"`
	Parameters   map[string]interface{} `json:"parameters"`
}

// NetworkEntry is the per-layer slice of the network wrapper parameters.
type NetworkEntry struct {
	Label string `json:"label"`
	Logn  int    `json:"logn"`
}

// Network holds the parameters of the network wrapper that chains the layers
// in pipeline order.
type Network struct {
	Layers []NetworkEntry `json:"layers"`
}

// FromModel snapshots the descriptors of model in pipeline order.
func FromModel(model *layers.Model) *Manifest {
	m := &Manifest{
		Metadata: Metadata{
			Version:   Version,
			Generator: Generator,
			CreatedAt: time.Now().UTC(),
		},
		Layers: make([]LayerEntry, 0, model.Len()),
	}
	for _, l := range model.Layers() {
		m.Layers = append(m.Layers, entryFor(l))
	}
	return m
}

// NetworkFromModel returns the network wrapper parameters of model.
func NetworkFromModel(model *layers.Model) *Network {
	net := &Network{Layers: make([]NetworkEntry, 0, model.Len())}
	for _, l := range model.Layers() {
		net.Layers = append(net.Layers, NetworkEntry{Label: l.Label(), Logn: l.AddressWidth()})
	}
	return net
}

func entryFor(l layers.Layer) LayerEntry {
	return LayerEntry{
		Label:        l.Label(),
		Type:         l.Type().String(),
		Size:         l.Size(),
		AddressWidth: l.AddressWidth(),
		Parameters:   map[string]interface{}(l.TemplateParameters()),
	}
}
