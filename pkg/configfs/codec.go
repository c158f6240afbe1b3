package configfs

import (
	"fmt"
	"strings"

	"github.com/matzehuels/vkmsctl/pkg/topology"
)

// Codec converts attribute values to and from the tokens stored in
// attribute files. Decoders trim surrounding whitespace.
type Codec interface {
	Name() string

	EncodePlaneKind(topology.PlaneKind) (string, error)
	DecodePlaneKind(string) (topology.PlaneKind, error)

	EncodeStatus(topology.ConnectorStatus) (string, error)
	DecodeStatus(string) (topology.ConnectorStatus, error)

	EncodeBool(bool) string
	DecodeBool(string) (bool, error)
}

// Codec names accepted by [CodecByName].
const (
	EncodingKernel = "kernel"
	EncodingText   = "text"
)

// CodecByName returns the codec registered under name.
// An empty name selects the kernel codec.
func CodecByName(name string) (Codec, error) {
	switch strings.ToLower(name) {
	case "", EncodingKernel:
		return KernelCodec{}, nil
	case EncodingText:
		return TextCodec{}, nil
	}
	return nil, fmt.Errorf("unknown attribute encoding %q (allowed: %s, %s)", name, EncodingKernel, EncodingText)
}

// =============================================================================
// Kernel codec
// =============================================================================

// KernelCodec uses the numeric tokens of the vkms configfs interface:
// DRM plane types for planes and DRM connector status values for connectors.
type KernelCodec struct{}

var kernelPlaneKinds = map[topology.PlaneKind]string{
	topology.PlaneOverlay: "0",
	topology.PlanePrimary: "1",
	topology.PlaneCursor:  "2",
}

var kernelStatuses = map[topology.ConnectorStatus]string{
	topology.StatusConnected:    "1",
	topology.StatusDisconnected: "2",
	topology.StatusUnknown:      "3",
}

func (KernelCodec) Name() string { return EncodingKernel }

func (KernelCodec) EncodePlaneKind(k topology.PlaneKind) (string, error) {
	if tok, ok := kernelPlaneKinds[k]; ok {
		return tok, nil
	}
	return "", fmt.Errorf("invalid plane type %q", k)
}

func (KernelCodec) DecodePlaneKind(s string) (topology.PlaneKind, error) {
	tok := strings.TrimSpace(s)
	for k, v := range kernelPlaneKinds {
		if v == tok {
			return k, nil
		}
	}
	return "", fmt.Errorf("invalid plane type token %q", tok)
}

func (KernelCodec) EncodeStatus(st topology.ConnectorStatus) (string, error) {
	if tok, ok := kernelStatuses[st]; ok {
		return tok, nil
	}
	return "", fmt.Errorf("invalid connector status %q", st)
}

func (KernelCodec) DecodeStatus(s string) (topology.ConnectorStatus, error) {
	tok := strings.TrimSpace(s)
	for st, v := range kernelStatuses {
		if v == tok {
			return st, nil
		}
	}
	return "", fmt.Errorf("invalid connector status token %q", tok)
}

func (KernelCodec) EncodeBool(b bool) string          { return encodeBool(b) }
func (KernelCodec) DecodeBool(s string) (bool, error) { return decodeBool(s) }

// =============================================================================
// Text codec
// =============================================================================

// TextCodec stores enumeration values by name.
type TextCodec struct{}

func (TextCodec) Name() string { return EncodingText }

func (TextCodec) EncodePlaneKind(k topology.PlaneKind) (string, error) {
	if !k.Valid() {
		return "", fmt.Errorf("invalid plane type %q", k)
	}
	return string(k), nil
}

func (TextCodec) DecodePlaneKind(s string) (topology.PlaneKind, error) {
	tok := strings.TrimSpace(s)
	k := topology.PlaneKind(tok)
	if !k.Valid() {
		return "", fmt.Errorf("invalid plane type token %q", tok)
	}
	return k, nil
}

func (TextCodec) EncodeStatus(st topology.ConnectorStatus) (string, error) {
	if !st.Valid() {
		return "", fmt.Errorf("invalid connector status %q", st)
	}
	return string(st), nil
}

func (TextCodec) DecodeStatus(s string) (topology.ConnectorStatus, error) {
	tok := strings.TrimSpace(s)
	st := topology.ConnectorStatus(tok)
	if !st.Valid() {
		return "", fmt.Errorf("invalid connector status token %q", tok)
	}
	return st, nil
}

func (TextCodec) EncodeBool(b bool) string          { return encodeBool(b) }
func (TextCodec) DecodeBool(s string) (bool, error) { return decodeBool(s) }

func encodeBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// decodeBool accepts the spellings of the kernel's kstrtobool.
func decodeBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "y", "yes", "true", "on":
		return true, nil
	case "0", "n", "no", "false", "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean token %q", strings.TrimSpace(s))
}
