package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/vkmsctl/pkg/errors"
	"github.com/matzehuels/vkmsctl/pkg/topology"
)

// Format is a serialization format for topologies.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from a file extension:
// .yaml and .yml are YAML, everything else is JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// ReadJSON decodes a single device from r.
//
// The input is a JSON object with the device name, its enabled flag and the
// four entity collections:
//
//	{
//	  "name": "dev1",
//	  "enabled": true,
//	  "planes": [{"name": "p0", "type": "primary", "possible_crtcs": ["c0"]}],
//	  "crtcs": [{"name": "c0", "is_writeback_enabled": false}],
//	  "encoders": [],
//	  "connectors": []
//	}
//
// Missing collections are empty, a plane without a type is an overlay and a
// connector without a status is connected. Unknown keys are rejected. A list
// holding exactly one device, as written by [WriteJSON], is accepted too.
// The device is not validated. ReadJSON does not close r.
func ReadJSON(r io.Reader) (*topology.Device, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode JSON topology")
	}

	doc := bytes.TrimSpace(raw)
	if len(doc) > 0 && doc[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(doc, &items); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode JSON topology")
		}
		if len(items) != 1 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "JSON topology list holds %d devices, want exactly one", len(items))
		}
		doc = items[0]
	}

	var d topology.Device
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&d); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode JSON topology")
	}
	d.ApplyDefaults()
	return &d, nil
}

// ReadYAML decodes a single device from r, using the same field names,
// defaults and strictness as [ReadJSON].
func ReadYAML(r io.Reader) (*topology.Device, error) {
	var root yaml.Node
	if err := yaml.NewDecoder(r).Decode(&root); err != nil {
		if err == io.EOF {
			err = fmt.Errorf("empty document")
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode YAML topology")
	}

	doc := &root
	if doc.Kind == yaml.DocumentNode && len(doc.Content) == 1 {
		doc = doc.Content[0]
	}
	if doc.Kind == yaml.SequenceNode {
		if len(doc.Content) != 1 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "YAML topology list holds %d devices, want exactly one", len(doc.Content))
		}
		doc = doc.Content[0]
	}

	// Node.Decode cannot reject unknown keys, so the device is decoded again
	// through a strict decoder.
	raw, err := yaml.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode YAML topology")
	}
	var d topology.Device
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode YAML topology")
	}
	d.ApplyDefaults()
	return &d, nil
}

// Read decodes a single device from r in the given format.
func Read(r io.Reader, format Format) (*topology.Device, error) {
	switch format {
	case FormatJSON, "":
		return ReadJSON(r)
	case FormatYAML:
		return ReadYAML(r)
	}
	return nil, errors.New(errors.ErrCodeInvalidInput, "unsupported input format %q", format)
}

// Import reads a device from the file at path, choosing the format from its
// extension. The path "-" reads JSON from stdin.
func Import(path string) (*topology.Device, error) {
	if path == "-" {
		return ReadJSON(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "open %s", path)
	}
	defer f.Close()

	d, err := Read(f, FormatFromPath(path))
	if err != nil {
		if e, ok := err.(*errors.Error); ok {
			e.WithPath(path)
		}
		return nil, err
	}
	return d, nil
}
