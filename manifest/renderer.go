package manifest

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/tsawler/go-resnnance/layers"
)

// LayersDir is the subdirectory holding one file per layer.
const LayersDir = "layers"

// ErrInvalidLabel reports a layer label that cannot be used as a file name.
var ErrInvalidLabel = errors.New("layer label is not a valid file name")

// checkLabel rejects labels that would name a file outside the layers
// directory.
func checkLabel(label string) error {
	if label == "" || label == "." || label == ".." || strings.ContainsAny(label, `/\`) || strings.ContainsRune(label, 0) {
		return fmt.Errorf("%q: %w", label, ErrInvalidLabel)
	}
	return nil
}

// Renderer turns a compiled model into generator input. The model is
// read-only to the renderer.
type Renderer interface {
	Render(model *layers.Model) error
}

// DirRenderer writes layers/<label>.<ext> for every descriptor, a
// network.<ext> wrapper listing the layers in pipeline order, and the full
// manifest.<ext>.
type DirRenderer struct {
	Dir    string
	Format Format
	Logger *log.Logger
}

// NewDirRenderer creates a renderer writing into dir.
func NewDirRenderer(dir string, format Format, logger *log.Logger) *DirRenderer {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &DirRenderer{Dir: dir, Format: format, Logger: logger}
}

// Render writes the descriptor files. Labels become file names, so the model
// must have unique labels that contain no path separators.
func (r *DirRenderer) Render(model *layers.Model) error {
	logger := r.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	logger.Println("Compiling model...")

	if err := model.Validate(); err != nil {
		return err
	}
	for _, l := range model.Layers() {
		if err := checkLabel(l.Label()); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Join(r.Dir, LayersDir), 0755); err != nil {
		return fmt.Errorf("failed to create build directory: %v", err)
	}

	saver := NewSaver(r.Format)
	ext := r.Format.Ext()

	m := FromModel(model)
	for _, entry := range m.Layers {
		sub := filepath.Join(LayersDir, entry.Label+"."+ext)
		if err := saver.Save(entry, filepath.Join(r.Dir, sub)); err != nil {
			return fmt.Errorf("layer %q: %w", entry.Label, err)
		}
		logger.Printf("Created %s", sub)
	}

	outputs := []struct {
		name string
		v    interface{}
	}{
		{"network." + ext, NetworkFromModel(model)},
		{"manifest." + ext, m},
	}
	for _, out := range outputs {
		if err := saver.Save(out.v, filepath.Join(r.Dir, out.name)); err != nil {
			return err
		}
		logger.Printf("Created %s", out.name)
	}

	logger.Println("Compiling model - OK")
	return nil
}
