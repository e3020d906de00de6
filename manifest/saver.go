package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Saver handles saving manifests in various formats
type Saver struct {
	format Format
}

// NewSaver creates a new saver for the specified format
func NewSaver(format Format) *Saver {
	return &Saver{format: format}
}

// Format returns the format the saver writes.
func (s *Saver) Format() Format {
	return s.format
}

// Save writes v to path. v is a *Manifest, a *Network or a single
// LayerEntry; anything JSON-encodable is accepted.
func (s *Saver) Save(v interface{}, path string) error {
	if m, ok := v.(*Manifest); ok && m.Metadata.Generator == "" {
		m.Metadata.Generator = Generator
		m.Metadata.Version = Version
		m.Metadata.CreatedAt = time.Now().UTC()
	}

	switch s.format {
	case FormatJSON:
		return s.saveJSON(v, path)
	case FormatProto:
		return s.saveProto(v, path)
	default:
		return fmt.Errorf("unsupported manifest format: %s", s.format.String())
	}
}

// Load reads a manifest written by Save.
func (s *Saver) Load(path string) (*Manifest, error) {
	var m Manifest
	if err := s.LoadInto(path, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadInto decodes the file at path into v.
func (s *Saver) LoadInto(path string, v interface{}) error {
	switch s.format {
	case FormatJSON:
		return s.loadJSON(path, v)
	case FormatProto:
		return s.loadProto(path, v)
	default:
		return fmt.Errorf("unsupported manifest format: %s", s.format.String())
	}
}

// saveJSON saves v in indented JSON format
func (s *Saver) saveJSON(v interface{}, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create manifest file: %v", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode manifest: %v", err)
	}
	return nil
}

// loadJSON loads v from JSON format
func (s *Saver) loadJSON(path string, v interface{}) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open manifest file: %v", err)
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(v); err != nil {
		return fmt.Errorf("failed to decode manifest: %v", err)
	}
	return nil
}

// saveProto stores v as a binary google.protobuf.Struct.
func (s *Saver) saveProto(v interface{}, path string) error {
	st, err := toStruct(v)
	if err != nil {
		return err
	}

	data, err := proto.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest file: %v", err)
	}
	return nil
}

// loadProto loads v from a binary google.protobuf.Struct.
func (s *Saver) loadProto(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read manifest file: %v", err)
	}

	var st structpb.Struct
	if err := proto.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("failed to unmarshal manifest: %v", err)
	}
	return fromStruct(&st, v)
}

// toStruct converts v to a Struct through its JSON form, so the JSON and
// proto manifests carry the same field names.
func toStruct(v interface{}) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %v", err)
	}
	st := &structpb.Struct{}
	if err := protojson.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("failed to convert manifest to struct: %v", err)
	}
	return st, nil
}

func fromStruct(st *structpb.Struct, v interface{}) error {
	data, err := protojson.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to convert struct to manifest: %v", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode manifest: %v", err)
	}
	return nil
}
