package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/vkmsctl/pkg/topology"
)

// WriteJSON encodes devices as an indented JSON array and writes it to w.
// An array holding one device can be fed back to [ReadJSON] as is.
func WriteJSON(devices []*topology.Device, w io.Writer) error {
	if devices == nil {
		devices = []*topology.Device{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(devices); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteYAML encodes devices as a YAML sequence and writes it to w.
// A sequence holding one device can be fed back to [ReadYAML] as is.
func WriteYAML(devices []*topology.Device, w io.Writer) error {
	if devices == nil {
		devices = []*topology.Device{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(devices); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return enc.Close()
}

// Write encodes devices in the given format.
func Write(devices []*topology.Device, w io.Writer, format Format) error {
	switch format {
	case FormatJSON, "":
		return WriteJSON(devices, w)
	case FormatYAML:
		return WriteYAML(devices, w)
	}
	return fmt.Errorf("unsupported output format %q", format)
}

// Export writes devices to a file at path in the given format.
// This is a convenience wrapper around [Write] for file-based output.
func Export(devices []*topology.Device, path string, format Format) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return Write(devices, f, format)
}
