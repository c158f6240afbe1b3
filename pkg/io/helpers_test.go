package io

import (
	"encoding/json"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/vkmsctl/pkg/topology"
)

func decodeJSONList(t *testing.T, data []byte) []*topology.Device {
	t.Helper()
	var out []*topology.Device
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decode JSON list: %v", err)
	}
	return out
}

func decodeYAMLList(t *testing.T, data []byte) []*topology.Device {
	t.Helper()
	var out []*topology.Device
	if err := yaml.Unmarshal(data, &out); err != nil {
		t.Fatalf("decode YAML list: %v", err)
	}
	return out
}
